package vdom

import (
	"github.com/vango-dev/vsync/internal/errors"
)

// patch reconciles one node pair. The first matching rule wins:
//
//  1. kind or tag changed: next is built fresh and replaces prev in place
//  2. text: the content is written unconditionally
//  3. same element: props, then children
func (p *pass) patch(prev, next *VNode) error {
	if prev.Node == nil {
		return errors.New("E102").WithDetailf("previous %s node <%s> has no external node", prev.Kind, prev.Tag)
	}

	if prev.Kind != next.Kind || (next.Kind == KindElement && prev.Tag != next.Tag) {
		return p.replace(prev, next)
	}

	if next.Kind == KindText {
		p.doc.SetText(prev.Node, next.Text)
		p.stats.TextUpdates++
		next.Node = prev.Node
		return nil
	}

	next.Node = prev.Node
	p.stats.Patched++
	p.updateProperties(next, prev.Props)

	oldCh, newCh := compact(prev.Children), compact(next.Children)
	switch {
	case len(oldCh) > 0 && len(newCh) > 0:
		return p.updateChildren(next, oldCh, newCh)

	case len(oldCh) > 0:
		p.doc.ClearChildren(next.Node)
		p.stats.Removed += len(oldCh)

	case len(newCh) > 0:
		for _, child := range newCh {
			n, err := p.create(child)
			if err != nil {
				return err
			}
			p.doc.AppendChild(next.Node, n)
		}
	}
	return nil
}

// replace puts a fresh subtree for next at prev's position.
func (p *pass) replace(prev, next *VNode) error {
	parent := p.doc.Parent(prev.Node)
	if parent == nil {
		return errors.New("E103").WithDetailf("cannot replace <%s> with <%s>", describe(prev), describe(next))
	}
	n, err := p.create(next)
	if err != nil {
		return err
	}
	p.doc.InsertBefore(parent, n, prev.Node)
	p.doc.RemoveChild(parent, prev.Node)
	p.stats.Replaced++

	p.r.logger.Debug("replaced node", "from", describe(prev), "to", describe(next))
	return nil
}

// compact returns children without nil entries. The input slice is returned
// as is when it has none.
func compact(children []*VNode) []*VNode {
	for i, c := range children {
		if c != nil {
			continue
		}
		out := make([]*VNode, i, len(children))
		copy(out, children[:i])
		for _, c := range children[i+1:] {
			if c != nil {
				out = append(out, c)
			}
		}
		return out
	}
	return children
}

func describe(v *VNode) string {
	if v.Kind == KindText {
		return "#text"
	}
	if v.Key != "" {
		return v.Tag + "#" + v.Key
	}
	return v.Tag
}
