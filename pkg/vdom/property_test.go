package vdom

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/vango-dev/vsync/pkg/dom"
)

// TestSameNodeProperties validates the identity predicate
func TestSameNodeProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(1234)
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	build := func(text bool, tag, key string) *VNode {
		if text {
			return &VNode{Kind: KindText, Text: tag, Key: key}
		}
		return &VNode{Kind: KindElement, Tag: tag, Key: key, Props: Props{"id": tag + key}}
	}

	// Property: SameNode is symmetric and depends only on kind, tag and key
	properties.Property("identity symmetric and pure", prop.ForAll(
		func(textA bool, tagA, keyA string, textB bool, tagB, keyB string) bool {
			a, b := build(textA, tagA, keyA), build(textB, tagB, keyB)

			want := textA == textB && keyA == keyB
			if !textA && !textB {
				want = want && tagA == tagB
			}

			return SameNode(a, b) == SameNode(b, a) &&
				SameNode(a, b) == want &&
				SameNode(a, Clone(a))
		},
		gen.Bool(),
		gen.OneConstOf("li", "p", "div"),
		gen.OneConstOf("", "a", "b"),
		gen.Bool(),
		gen.OneConstOf("li", "p", "div"),
		gen.OneConstOf("", "a", "b"),
	))

	properties.TestingRun(t)
}

func uniqueInts(in []int) []int {
	seen := make(map[int]bool, len(in))
	out := make([]int, 0, len(in))
	for _, v := range in {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// permutationList builds a list whose items vary with the generation so a
// patch has to move, retag, restyle and rewrite text.
func permutationList(keys []int, generation int) *VNode {
	return Ul(ID("list"), Range(keys, func(k int, _ int) *VNode {
		tag := "li"
		if (k+generation)%5 == 0 {
			tag = "p"
		}
		var key Attr
		if k%4 != 3 {
			key = Key(k)
		}
		var title Attr
		if (k+generation)%2 == 0 {
			title = TitleAttr(fmt.Sprintf("t%d", k))
		}
		return CustomElement(tag, key, title,
			CSS("color", fmt.Sprintf("#%06d", k*generation)),
			Textf("%d/%d", k, generation),
		)
	}))
}

// TestPatchConvergenceProperties validates that patching any keyed list into
// any other produces the same document as mounting the target from scratch.
func TestPatchConvergenceProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(4321)
	parameters.MinSuccessfulTests = 300

	properties := gopter.NewProperties(parameters)

	for _, policy := range []PropRemoval{PropRemovalFalsy, PropRemovalPresence} {
		// Property: patched HTML equals fresh-mount HTML
		properties.Property(fmt.Sprintf("converges (%s)", policy), prop.ForAll(
			func(oldKeys, newKeys []int) bool {
				oldKeys, newKeys = uniqueInts(oldKeys), uniqueInts(newKeys)
				prev := permutationList(oldKeys, 1)
				next := permutationList(newKeys, 2)

				f := newFixture(WithPropRemoval(policy))
				if _, err := f.r.Mount(prev, f.body); err != nil {
					return false
				}
				if _, err := f.r.Patch(prev, next); err != nil {
					return false
				}

				return f.html() == freshHTML(t, next)
			},
			gen.SliceOfN(10, gen.IntRange(0, 14)),
			gen.SliceOfN(10, gen.IntRange(0, 14)),
		))
	}

	// Property: keyed nodes surviving with the same tag keep their external node
	properties.Property("keyed identity preserved", prop.ForAll(
		func(oldKeys, newKeys []int) bool {
			oldKeys, newKeys = uniqueInts(oldKeys), uniqueInts(newKeys)
			prev := permutationList(oldKeys, 5)
			next := permutationList(newKeys, 5)

			f := newFixture()
			if _, err := f.r.Mount(prev, f.body); err != nil {
				return false
			}
			before := make(map[string]dom.Node)
			for _, c := range prev.Children {
				if c.Key != "" {
					before[c.Key] = c.Node
				}
			}
			if _, err := f.r.Patch(prev, next); err != nil {
				return false
			}

			for _, c := range next.Children {
				if old, ok := before[c.Key]; ok && c.Node != old {
					return false
				}
				if f.tree.Parent(c.Node) != next.Node {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(10, gen.IntRange(0, 14)),
		gen.SliceOfN(10, gen.IntRange(0, 14)),
	))

	// Property: a patch never creates or removes a node when the key set is unchanged
	properties.Property("permutation needs no creates", prop.ForAll(
		func(keys []int, shift int) bool {
			keys = uniqueInts(keys)
			for i := range keys {
				keys[i] = keys[i]*4 + 1 // always keyed, always li
			}
			rotated := make([]int, len(keys))
			for i := range keys {
				rotated[i] = keys[(i+shift)%len(keys)]
			}

			prev := Ul(Range(keys, func(k, _ int) *VNode { return Li(Key(k), Textf("%d", k)) }))
			next := Ul(Range(rotated, func(k, _ int) *VNode { return Li(Key(k), Textf("%d", k)) }))

			f := newFixture()
			if _, err := f.r.Mount(prev, f.body); err != nil {
				return false
			}
			stats, err := f.r.Patch(prev, next)
			if err != nil {
				return false
			}
			return stats.Created == 0 && stats.Removed == 0 && f.html() == freshHTML(t, next)
		},
		gen.SliceOfN(8, gen.IntRange(0, 20)).SuchThat(func(v []int) bool { return len(v) > 0 }),
		gen.IntRange(0, 7),
	))

	properties.TestingRun(t)
}
