package vdom

import "testing"

func TestText(t *testing.T) {
	node := Text("Hello, World!")

	if node.Kind != KindText {
		t.Errorf("Kind = %v, want KindText", node.Kind)
	}
	if node.Text != "Hello, World!" {
		t.Errorf("Text = %v, want 'Hello, World!'", node.Text)
	}
}

func TestTextf(t *testing.T) {
	node := Textf("Count: %d", 42)

	if node.Text != "Count: 42" {
		t.Errorf("Text = %v, want 'Count: 42'", node.Text)
	}
}

func TestKeyString(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"abc", "abc"},
		{42, "42"},
		{int64(7), "7"},
		{3.5, "3.5"},
	}
	for _, tt := range tests {
		if got := keyString(tt.in); got != tt.want {
			t.Errorf("keyString(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestConditionals(t *testing.T) {
	node := Div()

	if If(true, node) != node {
		t.Error("If(true) should return node")
	}
	if If(false, node) != nil {
		t.Error("If(false) should return nil")
	}
	if Unless(false, node) != node {
		t.Error("Unless(false) should return node")
	}
	if Unless(true, node) != nil {
		t.Error("Unless(true) should return nil")
	}

	called := false
	When(false, func() *VNode {
		called = true
		return node
	})
	if called {
		t.Error("When(false) must not call fn")
	}
	if When(true, func() *VNode { return node }) != node {
		t.Error("When(true) should return fn result")
	}
}

func TestRange(t *testing.T) {
	items := []string{"a", "b", "skip", "c"}
	nodes := Range(items, func(item string, i int) *VNode {
		if item == "skip" {
			return nil
		}
		return Li(Key(item), item)
	})

	if len(nodes) != 3 {
		t.Fatalf("len = %v, want 3", len(nodes))
	}
	if nodes[2].Key != "c" {
		t.Errorf("nodes[2].Key = %v, want c", nodes[2].Key)
	}
}

func TestRepeat(t *testing.T) {
	if got := Repeat(0, func(int) *VNode { return Div() }); got != nil {
		t.Errorf("Repeat(0) = %v, want nil", got)
	}

	nodes := Repeat(3, func(i int) *VNode { return Li(Key(i)) })
	if len(nodes) != 3 {
		t.Fatalf("len = %v, want 3", len(nodes))
	}
	if nodes[1].Key != "1" {
		t.Errorf("nodes[1].Key = %v, want 1", nodes[1].Key)
	}
}

func TestClone(t *testing.T) {
	orig := Ul(ID("list"),
		Li(Key("a"), CSS("color", "red"), "a"),
	)
	orig.Node = fakeNode(1)

	cp := Clone(orig)
	if cp == orig {
		t.Fatal("Clone returned the same pointer")
	}
	if cp.Node != nil {
		t.Error("Clone must not copy Node")
	}
	if cp.Props["id"] != "list" {
		t.Errorf("id = %v, want list", cp.Props["id"])
	}
	if cp.Children[0].Key != "a" {
		t.Errorf("child key = %v, want a", cp.Children[0].Key)
	}

	cp.Children[0].Props.Style()["color"] = "blue"
	if orig.Children[0].Props.Style()["color"] != "red" {
		t.Error("Clone must copy style maps")
	}

	if Clone(nil) != nil {
		t.Error("Clone(nil) should be nil")
	}
}

func TestWalk(t *testing.T) {
	tree := Div(P("a"), Ul(Li("b"), Li("c")))

	var tags []string
	Walk(tree, func(v *VNode) bool {
		if v.Kind == KindElement {
			tags = append(tags, v.Tag)
		}
		return v.Tag != "ul"
	})

	want := []string{"div", "p", "ul"}
	if len(tags) != len(want) {
		t.Fatalf("tags = %v, want %v", tags, want)
	}
	for i := range want {
		if tags[i] != want[i] {
			t.Errorf("tags[%d] = %v, want %v", i, tags[i], want[i])
		}
	}
}

type fakeNode uint64

func (n fakeNode) ID() uint64 { return uint64(n) }
