package vdom

import (
	"maps"
	"slices"
)

// updateProperties writes v.Props onto v.Node given the props the node was
// last rendered with.
//
// Removal runs first: style entries, then other names. Under PropRemovalFalsy
// a name is removed when its new value is absent or falsy, and every new
// value is applied afterwards regardless, so {title: "x"} → {title: ""}
// removes and then sets title="". Names are visited in sorted order.
//
// A "style" entry is applied entry by entry through SetStyle when it is a
// Style, map[string]string or map[string]any; nil sets nothing. Validate
// rejects any other style value, so only with validation off does one reach
// the document, as a plain SetProperty.
func (p *pass) updateProperties(v *VNode, old Props) {
	node := v.Node
	newStyle := v.Props.Style()

	for _, name := range sortedKeys(old.Style()) {
		if p.removed(newStyle[name], hasKey(newStyle, name)) {
			p.doc.ClearStyle(node, name)
			p.stats.StyleClears++
		}
	}

	for _, name := range sortedKeys(old) {
		if name == StyleProp {
			continue
		}
		val, ok := v.Props[name]
		if p.removed(val, ok) {
			p.doc.RemoveProperty(node, name)
			p.stats.PropRemovals++
		}
	}

	for _, name := range sortedKeys(v.Props) {
		val := v.Props[name]
		if name == StyleProp && (val == nil || isStyle(val)) {
			s := styleOf(val)
			for _, k := range sortedKeys(s) {
				p.doc.SetStyle(node, k, s[k])
				p.stats.StyleSets++
			}
			continue
		}
		p.doc.SetProperty(node, name, val)
		p.stats.PropSets++
	}
}

// removed reports whether a property with new value val (present reports
// whether the name exists at all) must be removed.
func (p *pass) removed(val any, present bool) bool {
	if p.r.propRemoval == PropRemovalPresence {
		return !present
	}
	return !present || falsy(val)
}

func hasKey[M ~map[string]V, V any](m M, k string) bool {
	_, ok := m[k]
	return ok
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	if len(m) == 0 {
		return nil
	}
	return slices.Sorted(maps.Keys(m))
}
