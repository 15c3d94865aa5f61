package dom

import "fmt"

// Node is a handle to a node owned by a Document.
// IDs are unique within one Document and never reused.
type Node interface {
	ID() uint64
}

// Document is the set of primitive operations the reconciler needs from the
// external tree. Implementations report misuse (for example removing a node
// from a parent it does not belong to) by panicking with a *MutationError.
type Document interface {
	CreateElement(tag string) Node
	CreateText(text string) Node

	// AppendChild moves child to the end of parent's children.
	AppendChild(parent, child Node)
	// InsertBefore moves child before ref. A nil ref appends.
	InsertBefore(parent, child, ref Node)
	RemoveChild(parent, child Node)
	// ClearChildren detaches every child of node in one operation.
	ClearChildren(node Node)

	SetProperty(node Node, name string, value any)
	RemoveProperty(node Node, name string)
	SetStyle(node Node, name, value string)
	ClearStyle(node Node, name string)
	SetText(node Node, text string)

	// Parent returns nil for a detached node.
	Parent(node Node) Node
	// NextSibling returns nil for the last child or a detached node.
	NextSibling(node Node) Node
}

// MutationError is raised (as a panic value) by a Document when an operation
// cannot be applied.
type MutationError struct {
	Op     MutationOp
	Node   uint64
	Reason string
}

// Error implements the error interface.
func (e *MutationError) Error() string {
	if e.Node == 0 {
		return fmt.Sprintf("dom: %s: %s", e.Op, e.Reason)
	}
	return fmt.Sprintf("dom: %s on node %d: %s", e.Op, e.Node, e.Reason)
}

func fail(op MutationOp, id uint64, format string, args ...any) {
	panic(&MutationError{Op: op, Node: id, Reason: fmt.Sprintf(format, args...)})
}

// idOf returns the node's ID, or 0 for nil.
func idOf(n Node) uint64 {
	if n == nil {
		return 0
	}
	return n.ID()
}
