// Package dom defines the external tree that vsync reconciles against.
//
// The reconciler in package vdom never touches a concrete tree. It talks to a
// Document, the small set of primitive operations a browser document exposes:
// create element, create text, insert, remove, set and remove properties and
// style declarations, and set text content. Anything that implements Document
// can be driven by the reconciler.
//
// # In-memory tree
//
// Tree is a complete Document backed by plain Go values. It is used by the CLI,
// the live server and every test in the module. HTML renders any subtree.
//
//	tree := dom.NewTree()
//	root := tree.CreateElement("div")
//	r := vdom.NewReconciler(tree)
//	_ = r.Mount(vdom.Ul(vdom.Li("one")), root)
//	fmt.Println(dom.HTML(root)) // <div><ul><li>one</li></ul></div>
//
// # Journals
//
// Recorder wraps a Document and journals every call as a Mutation. A journal
// can be encoded with package protocol, sent elsewhere, and applied to another
// Document with a Replayer. Recorder also keeps per-operation counts, which is
// how the tests assert that a reorder produced moves and nothing else.
package dom
