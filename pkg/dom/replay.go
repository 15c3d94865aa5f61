package dom

import (
	"errors"
	"fmt"
)

// Replay errors.
var (
	ErrUnknownNode   = errors.New("dom: mutation references an unknown node")
	ErrDuplicateNode = errors.New("dom: mutation creates a node id that already exists")
	ErrUnknownOp     = errors.New("dom: unknown mutation op")
)

// Replayer applies journaled mutations to a Document, translating the source
// document's node IDs to nodes of the target.
type Replayer struct {
	doc   Document
	nodes map[uint64]Node
}

// NewReplayer creates a Replayer that writes to doc.
func NewReplayer(doc Document) *Replayer {
	return &Replayer{doc: doc, nodes: make(map[uint64]Node)}
}

// Bind maps a source node ID to an existing target node. Use it for
// containers that exist on both sides before the first mutation.
func (r *Replayer) Bind(id uint64, n Node) {
	r.nodes[id] = n
}

// Lookup returns the target node bound to a source ID.
func (r *Replayer) Lookup(id uint64) (Node, bool) {
	n, ok := r.nodes[id]
	return n, ok
}

// Apply replays mutations in order. It stops at the first mutation that
// cannot be resolved; a MutationError raised by the target document is
// returned as an error.
func (r *Replayer) Apply(muts []Mutation) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			me, ok := rec.(*MutationError)
			if !ok {
				panic(rec)
			}
			err = me
		}
	}()

	for i, m := range muts {
		if err := r.apply(m); err != nil {
			return fmt.Errorf("mutation %d (%s): %w", i, m.Op, err)
		}
	}
	return nil
}

func (r *Replayer) node(id uint64) (Node, error) {
	n, ok := r.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: #%d", ErrUnknownNode, id)
	}
	return n, nil
}

func (r *Replayer) apply(m Mutation) error {
	switch m.Op {
	case OpCreateElement, OpCreateText:
		if _, exists := r.nodes[m.Node]; exists {
			return fmt.Errorf("%w: #%d", ErrDuplicateNode, m.Node)
		}
		if m.Op == OpCreateElement {
			r.nodes[m.Node] = r.doc.CreateElement(m.Name)
		} else {
			r.nodes[m.Node] = r.doc.CreateText(m.Value)
		}
		return nil
	}

	target, err := r.node(m.Node)
	if err != nil {
		return err
	}

	switch m.Op {
	case OpAppendChild, OpInsertBefore, OpMove:
		parent, err := r.node(m.Parent)
		if err != nil {
			return err
		}
		var ref Node
		if m.Ref != 0 {
			if ref, err = r.node(m.Ref); err != nil {
				return err
			}
		}
		r.doc.InsertBefore(parent, target, ref)
	case OpRemoveChild:
		parent, err := r.node(m.Parent)
		if err != nil {
			return err
		}
		r.doc.RemoveChild(parent, target)
	case OpClearChildren:
		r.doc.ClearChildren(target)
	case OpSetProperty:
		if m.Bool {
			r.doc.SetProperty(target, m.Name, m.Value == "true")
		} else {
			r.doc.SetProperty(target, m.Name, m.Value)
		}
	case OpRemoveProperty:
		r.doc.RemoveProperty(target, m.Name)
	case OpSetStyle:
		r.doc.SetStyle(target, m.Name, m.Value)
	case OpClearStyle:
		r.doc.ClearStyle(target, m.Name)
	case OpSetText:
		r.doc.SetText(target, m.Value)
	default:
		return fmt.Errorf("%w: 0x%02x", ErrUnknownOp, uint8(m.Op))
	}
	return nil
}
