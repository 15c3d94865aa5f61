package vdom

import (
	"github.com/vango-dev/vsync/pkg/dom"
)

// updateChildren reconciles two non-empty child lists of parent.
//
// Four pointers walk both lists from the ends inward, matching start/start,
// end/end, end/start and start/end pairs. When none match, the new start
// child is looked up by key among the old children. Old slots that have been
// reused are tracked in consumed; the input slices are never modified.
// Remaining new children are inserted before the first already-placed node
// that follows them, and remaining unconsumed old children are removed.
func (p *pass) updateChildren(parent *VNode, oldCh, newCh []*VNode) error {
	node := parent.Node
	consumed := make([]bool, len(oldCh))

	oldStart, oldEnd := 0, len(oldCh)-1
	newStart, newEnd := 0, len(newCh)-1

	var keyIndex map[string]int

	for oldStart <= oldEnd && newStart <= newEnd {
		switch {
		case consumed[oldStart]:
			oldStart++

		case consumed[oldEnd]:
			oldEnd--

		case SameNode(oldCh[oldStart], newCh[newStart]):
			if err := p.patch(oldCh[oldStart], newCh[newStart]); err != nil {
				return err
			}
			consumed[oldStart] = true
			oldStart++
			newStart++

		case SameNode(oldCh[oldEnd], newCh[newEnd]):
			if err := p.patch(oldCh[oldEnd], newCh[newEnd]); err != nil {
				return err
			}
			consumed[oldEnd] = true
			oldEnd--
			newEnd--

		case SameNode(oldCh[oldEnd], newCh[newStart]):
			// Tail moved to the front.
			moving := oldCh[oldEnd].Node
			if err := p.patch(oldCh[oldEnd], newCh[newStart]); err != nil {
				return err
			}
			p.move(node, moving, oldCh[oldStart].Node)
			consumed[oldEnd] = true
			oldEnd--
			newStart++

		case SameNode(oldCh[oldStart], newCh[newEnd]):
			// Head moved to the back.
			moving := oldCh[oldStart].Node
			if err := p.patch(oldCh[oldStart], newCh[newEnd]); err != nil {
				return err
			}
			p.move(node, moving, p.doc.NextSibling(oldCh[oldEnd].Node))
			consumed[oldStart] = true
			oldStart++
			newEnd--

		default:
			if keyIndex == nil {
				keyIndex = buildKeyIndex(oldCh)
			}
			v := newCh[newStart]
			ref := oldCh[oldStart].Node

			idx, ok := -1, false
			if v.Key != "" {
				idx, ok = keyIndex[v.Key]
				ok = ok && !consumed[idx]
			}

			if ok && SameNode(oldCh[idx], v) {
				moving := oldCh[idx].Node
				if err := p.patch(oldCh[idx], v); err != nil {
					return err
				}
				consumed[idx] = true
				p.move(node, moving, ref)
				p.r.logger.Debug("keyed child moved", "key", v.Key, "from", idx, "to", newStart)
			} else {
				n, err := p.create(v)
				if err != nil {
					return err
				}
				p.doc.InsertBefore(node, n, ref)
				if ok {
					p.r.logger.Debug("keyed child type changed", "key", v.Key, "from", describe(oldCh[idx]), "to", describe(v))
				}
			}
			newStart++
		}
	}

	if newStart <= newEnd {
		var ref dom.Node
		if newEnd+1 < len(newCh) {
			ref = newCh[newEnd+1].Node
		}
		for i := newStart; i <= newEnd; i++ {
			n, err := p.create(newCh[i])
			if err != nil {
				return err
			}
			p.doc.InsertBefore(node, n, ref)
		}
	}

	for i := oldStart; i <= oldEnd; i++ {
		if consumed[i] {
			continue
		}
		p.doc.RemoveChild(node, oldCh[i].Node)
		p.stats.Removed++
	}
	return nil
}

// move repositions an attached child before ref (nil appends).
func (p *pass) move(parent, child, ref dom.Node) {
	p.doc.InsertBefore(parent, child, ref)
	p.stats.Moved++
}

// buildKeyIndex maps the keys of keyed children to their positions. When a key
// repeats, the last position wins.
func buildKeyIndex(children []*VNode) map[string]int {
	index := make(map[string]int, len(children))
	for i, c := range children {
		if c.Key != "" {
			index[c.Key] = i
		}
	}
	return index
}
