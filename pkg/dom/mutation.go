package dom

import (
	"fmt"
	"strconv"
)

// MutationOp identifies a Document operation.
type MutationOp uint8

const (
	OpCreateElement  MutationOp = 0x01 // Name = tag
	OpCreateText     MutationOp = 0x02 // Value = text
	OpAppendChild    MutationOp = 0x03 // Parent, Node
	OpInsertBefore   MutationOp = 0x04 // Parent, Node, Ref (0 = append)
	OpMove           MutationOp = 0x05 // Insert of an attached node
	OpRemoveChild    MutationOp = 0x06 // Parent, Node
	OpClearChildren  MutationOp = 0x07 // Node
	OpSetProperty    MutationOp = 0x08 // Name, Value, Bool
	OpRemoveProperty MutationOp = 0x09 // Name
	OpSetStyle       MutationOp = 0x0A // Name, Value
	OpClearStyle     MutationOp = 0x0B // Name
	OpSetText        MutationOp = 0x0C // Value

	opCount = 0x0D
)

// String returns the string representation of the MutationOp.
func (op MutationOp) String() string {
	switch op {
	case OpCreateElement:
		return "CreateElement"
	case OpCreateText:
		return "CreateText"
	case OpAppendChild:
		return "AppendChild"
	case OpInsertBefore:
		return "InsertBefore"
	case OpMove:
		return "Move"
	case OpRemoveChild:
		return "RemoveChild"
	case OpClearChildren:
		return "ClearChildren"
	case OpSetProperty:
		return "SetProperty"
	case OpRemoveProperty:
		return "RemoveProperty"
	case OpSetStyle:
		return "SetStyle"
	case OpClearStyle:
		return "ClearStyle"
	case OpSetText:
		return "SetText"
	default:
		return "Unknown"
	}
}

// Valid reports whether op is a known operation.
func (op MutationOp) Valid() bool {
	return op >= OpCreateElement && op < opCount
}

// Mutation is one journaled Document call. Nodes are referenced by ID.
type Mutation struct {
	Op     MutationOp
	Node   uint64 // Target (or created) node
	Parent uint64 // For Append/Insert/Move/Remove
	Ref    uint64 // For Insert/Move; 0 means append
	Name   string // Tag, property or style name
	Value  string // Text, property or style value
	Bool   bool   // SetProperty value was a bool
}

// String returns a one-line human readable form.
func (m Mutation) String() string {
	switch m.Op {
	case OpCreateElement:
		return fmt.Sprintf("%s #%d <%s>", m.Op, m.Node, m.Name)
	case OpCreateText:
		return fmt.Sprintf("%s #%d %q", m.Op, m.Node, m.Value)
	case OpAppendChild, OpRemoveChild:
		return fmt.Sprintf("%s #%d -> #%d", m.Op, m.Node, m.Parent)
	case OpInsertBefore, OpMove:
		if m.Ref == 0 {
			return fmt.Sprintf("%s #%d -> #%d (end)", m.Op, m.Node, m.Parent)
		}
		return fmt.Sprintf("%s #%d -> #%d before #%d", m.Op, m.Node, m.Parent, m.Ref)
	case OpClearChildren:
		return fmt.Sprintf("%s #%d", m.Op, m.Node)
	case OpSetProperty, OpSetStyle:
		return fmt.Sprintf("%s #%d %s=%q", m.Op, m.Node, m.Name, m.Value)
	case OpRemoveProperty, OpClearStyle:
		return fmt.Sprintf("%s #%d %s", m.Op, m.Node, m.Name)
	case OpSetText:
		return fmt.Sprintf("%s #%d %q", m.Op, m.Node, m.Value)
	default:
		return fmt.Sprintf("%s #%d", m.Op, m.Node)
	}
}

// Stats counts journaled operations by kind.
type Stats struct {
	counts [opCount]int
}

func (s *Stats) add(op MutationOp) {
	if op.Valid() {
		s.counts[op]++
	}
}

// Count returns the number of operations of the given kind.
func (s Stats) Count(op MutationOp) int {
	if !op.Valid() {
		return 0
	}
	return s.counts[op]
}

// Creates returns the number of created element and text nodes.
func (s Stats) Creates() int {
	return s.counts[OpCreateElement] + s.counts[OpCreateText]
}

// Moves returns the number of inserts of already attached nodes.
func (s Stats) Moves() int { return s.counts[OpMove] }

// Removes returns the number of RemoveChild calls.
func (s Stats) Removes() int { return s.counts[OpRemoveChild] }

// Structural returns every operation that changes tree shape.
func (s Stats) Structural() int {
	return s.Creates() + s.counts[OpAppendChild] + s.counts[OpInsertBefore] +
		s.counts[OpMove] + s.counts[OpRemoveChild] + s.counts[OpClearChildren]
}

// Total returns the number of journaled operations.
func (s Stats) Total() int {
	n := 0
	for _, c := range s.counts {
		n += c
	}
	return n
}

// FormatValue converts a property value to its attribute string.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		if val {
			return "true"
		}
		return "false"
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}
