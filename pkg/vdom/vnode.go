package vdom

import (
	"reflect"

	"github.com/vango-dev/vsync/pkg/dom"
)

// VKind is the node type discriminator.
type VKind uint8

const (
	KindElement VKind = iota // <div>, <li>, etc.
	KindText                 // Plain text node
)

// String returns the string representation of the VKind.
func (k VKind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	default:
		return "Unknown"
	}
}

// VNode is the virtual DOM node.
//
// A tree of VNodes describes one render pass. Mount and Patch write the
// external node they create or reuse into Node; the tree should be treated as
// read-only otherwise, and discarded once a newer tree has been patched over it.
type VNode struct {
	Kind     VKind    // Node type
	Tag      string   // Element tag name (e.g., "li")
	Props    Props    // Attributes; Props["style"] holds a Style
	Children []*VNode // Child nodes
	Key      string   // Reconciliation key
	Text     string   // For KindText

	// Node is the mounted external node. It is a lookup handle, not an
	// ownership relation: the document owns the node.
	Node dom.Node
}

// Props holds attributes. The "style" entry, when present, is a Style.
type Props map[string]any

// Style maps style property names to values.
type Style map[string]string

// StyleProp is the Props entry holding the Style map.
const StyleProp = "style"

// Style returns the style map of p, or nil.
func (p Props) Style() Style {
	return styleOf(p[StyleProp])
}

// isStyle reports whether v is one of the map types styleOf accepts.
func isStyle(v any) bool {
	switch v.(type) {
	case Style, map[string]string, map[string]any:
		return true
	}
	return false
}

func styleOf(v any) Style {
	switch s := v.(type) {
	case Style:
		return s
	case map[string]string:
		return Style(s)
	case map[string]any:
		out := make(Style, len(s))
		for k, val := range s {
			out[k] = dom.FormatValue(val)
		}
		return out
	}
	return nil
}

// Attr represents a single attribute.
type Attr struct {
	Key   string
	Value any
}

// IsEmpty returns true if this is an empty/nil attribute.
func (a Attr) IsEmpty() bool {
	return a.Key == ""
}

// SameNode reports whether a and b stand for the same external node across
// renders: same kind, same tag and same key (two missing keys are equal).
// Children, props and text are not compared; those differences are patched.
func SameNode(a, b *VNode) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Kind == b.Kind && a.Tag == b.Tag && a.Key == b.Key
}

// falsy is the truthiness test used for property removal:
// nil, "", false, numeric zero and NaN count as absent.
func falsy(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case bool:
		return !x
	case int:
		return x == 0
	case int64:
		return x == 0
	case float64:
		return x == 0 || x != x
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() == 0
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return f == 0 || f != f
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
