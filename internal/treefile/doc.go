// Package treefile loads virtual trees from YAML or JSON files.
//
// A node is either an element or a text node:
//
//	tag: ul
//	props: {id: list}
//	children:
//	  - {tag: li, key: a, children: [first]}
//	  - tag: li
//	    key: b
//	    style: {color: red}
//	    children:
//	      - text: second
//
// A bare string child is shorthand for {text: ...}. A file may hold several
// trees separated by "---"; LoadAll returns them in order.
package treefile
