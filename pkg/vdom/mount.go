package vdom

import (
	"github.com/vango-dev/vsync/internal/errors"
	"github.com/vango-dev/vsync/pkg/dom"
)

// create materializes v into a detached subtree and returns its root. Every
// vnode of the subtree gets its Node set.
func (p *pass) create(v *VNode) (dom.Node, error) {
	switch v.Kind {
	case KindText:
		n := p.doc.CreateText(v.Text)
		p.stats.Created++
		v.Node = n
		return n, nil

	case KindElement:
		n := p.doc.CreateElement(v.Tag)
		p.stats.Created++
		v.Node = n
		p.updateProperties(v, nil)
		for _, child := range v.Children {
			if child == nil {
				continue
			}
			c, err := p.create(child)
			if err != nil {
				return nil, err
			}
			p.doc.AppendChild(n, c)
		}
		return n, nil

	default:
		return nil, errors.New("E100").WithDetailf("unknown node kind %d", v.Kind)
	}
}
