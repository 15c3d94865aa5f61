package vdom

import (
	"fmt"

	"github.com/vango-dev/vsync/internal/errors"
)

// Validate checks that v is a well-formed tree: elements have a tag and a
// style prop that is a map, text nodes have neither children nor props, no
// child is nil and every kind is known. The returned error is an E100 naming the offending path, such as
// "ul/li[2]".
func Validate(v *VNode) error {
	if v == nil {
		return errors.New("E100").WithDetail("tree is nil")
	}
	return validateNode(v, segment(v, -1))
}

func validateNode(v *VNode, path string) error {
	switch v.Kind {
	case KindElement:
		if v.Tag == "" {
			return malformed(path, "element has no tag")
		}
		if st, ok := v.Props[StyleProp]; ok && st != nil && !isStyle(st) {
			return malformed(path, fmt.Sprintf("style is a %T, not a map", st))
		}
	case KindText:
		if len(v.Children) > 0 {
			return malformed(path, "text node has children")
		}
		if len(v.Props) > 0 {
			return malformed(path, "text node has props")
		}
		return nil
	default:
		return malformed(path, fmt.Sprintf("unknown node kind %d", v.Kind))
	}

	for i, child := range v.Children {
		if child == nil {
			return malformed(fmt.Sprintf("%s/[%d]", path, i), "child is nil")
		}
		if err := validateNode(child, path+"/"+segment(child, i)); err != nil {
			return err
		}
	}
	return nil
}

func malformed(path, reason string) error {
	return errors.New("E100").
		WithPath(path).
		WithDetailf("%s at %s", reason, path).
		WithSuggestion("Build trees with H, Text or the element helpers")
}

// DuplicateKey reports a key shared by siblings.
type DuplicateKey struct {
	Key  string
	Path string // Path of the parent element
}

// DuplicateKeys returns every key that appears more than once among the
// children of a single element, in tree order.
func DuplicateKeys(v *VNode) []DuplicateKey {
	var dups []DuplicateKey
	collectDuplicates(v, segment(v, -1), &dups)
	return dups
}

func collectDuplicates(v *VNode, path string, dups *[]DuplicateKey) {
	if v == nil || v.Kind != KindElement || len(v.Children) == 0 {
		return
	}
	var seen map[string]int
	for _, child := range v.Children {
		if child == nil || child.Key == "" {
			continue
		}
		if seen == nil {
			seen = make(map[string]int)
		}
		seen[child.Key]++
		if seen[child.Key] == 2 {
			*dups = append(*dups, DuplicateKey{Key: child.Key, Path: path})
		}
	}
	for i, child := range v.Children {
		collectDuplicates(child, path+"/"+segment(child, i), dups)
	}
}

// segment names v for error paths. index is its position among its siblings,
// or -1 for a root.
func segment(v *VNode, index int) string {
	name := "#text"
	if v != nil && v.Kind == KindElement {
		name = v.Tag
		if name == "" {
			name = "element"
		}
	}
	if index < 0 {
		return name
	}
	return fmt.Sprintf("%s[%d]", name, index)
}
