// Package vdom provides the virtual tree and the reconciler that keeps an
// external document in sync with it.
//
// A render pass builds a tree of VNodes describing what the document should
// look like. The first tree is materialized with Mount; every later tree is
// applied with Patch against the tree it supersedes, which issues the smallest
// set of Document calls it can find using local comparisons only.
//
// # Core Types
//
// VNode is an element or a text node. Props holds attributes, with the
// "style" entry holding a Style map. Key identifies a node among its siblings
// across renders.
//
// # Element API
//
// Elements are created using variadic factory functions:
//
//	Ul(ID("container"),
//	    Li(Key(1), CSS("backgroundColor", "#000011"), "1"),
//	    Li(Key(2), CSS("backgroundColor", "#000033"), "2"),
//	)
//
// or with the general form H(tag, props, children...).
//
// # Reconciliation
//
// Two nodes stand for the same external node when SameNode reports true:
// same kind, same tag, same key. Child lists are reconciled with four
// pointers walking both lists from their ends, falling back to a key index
// for the remaining cases. See Reconciler.Patch.
package vdom
