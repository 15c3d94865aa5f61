package dom

import "testing"

func TestRecorderJournal(t *testing.T) {
	tree := NewTree()
	rec := NewRecorder(tree)

	ul := rec.CreateElement("ul")
	a := rec.CreateElement("li")
	b := rec.CreateElement("li")
	rec.AppendChild(ul, a)
	rec.InsertBefore(ul, b, a)
	rec.InsertBefore(ul, a, b) // already attached: a move
	rec.AppendChild(ul, b)     // also a move
	rec.SetProperty(a, "hidden", true)
	rec.SetStyle(a, "color", "red")
	rec.ClearStyle(a, "color")
	rec.RemoveProperty(a, "hidden")
	rec.SetText(b, "x")
	rec.RemoveChild(ul, a)
	rec.ClearChildren(ul)

	want := []MutationOp{
		OpCreateElement, OpCreateElement, OpCreateElement,
		OpAppendChild, OpInsertBefore, OpMove, OpMove,
		OpSetProperty, OpSetStyle, OpClearStyle, OpRemoveProperty,
		OpSetText, OpRemoveChild, OpClearChildren,
	}
	journal := rec.Journal()
	if len(journal) != len(want) {
		t.Fatalf("journal = %v, want ops %v", journal, want)
	}
	for i := range want {
		if journal[i].Op != want[i] {
			t.Errorf("journal[%d].Op = %v, want %v", i, journal[i].Op, want[i])
		}
	}

	move := journal[5]
	if move.Node != a.ID() || move.Parent != ul.ID() || move.Ref != b.ID() {
		t.Errorf("move = %+v", move)
	}
	if !journal[7].Bool || journal[7].Value != "true" {
		t.Errorf("SetProperty = %+v, want Bool true", journal[7])
	}
	if journal[6].Ref != 0 {
		t.Errorf("append Ref = %d, want 0", journal[6].Ref)
	}

	stats := rec.Stats()
	if stats.Creates() != 3 || stats.Moves() != 2 || stats.Removes() != 1 {
		t.Errorf("stats creates=%d moves=%d removes=%d", stats.Creates(), stats.Moves(), stats.Removes())
	}
	if stats.Structural() != 9 {
		t.Errorf("Structural() = %d, want 9", stats.Structural())
	}
	if stats.Total() != len(want) {
		t.Errorf("Total() = %d, want %d", stats.Total(), len(want))
	}
}

func TestRecorderDrainAndReset(t *testing.T) {
	rec := NewRecorder(NewTree())
	rec.CreateElement("div")

	drained := rec.Drain()
	if len(drained) != 1 {
		t.Fatalf("Drain() = %v, want 1 mutation", drained)
	}
	if len(rec.Journal()) != 0 {
		t.Error("journal should be empty after Drain")
	}
	if rec.Stats().Total() != 1 {
		t.Error("Drain should keep counters")
	}

	rec.CreateText("x")
	rec.Reset()
	if len(rec.Journal()) != 0 || rec.Stats().Total() != 0 {
		t.Error("Reset should clear journal and counters")
	}
}

func TestRecorderReadsNotJournaled(t *testing.T) {
	tree := NewTree()
	rec := NewRecorder(tree)
	ul := tree.CreateElement("ul")
	li := tree.CreateElement("li")
	tree.AppendChild(ul, li)

	if rec.Parent(li) != ul {
		t.Error("Parent should be forwarded")
	}
	if rec.NextSibling(li) != nil {
		t.Error("NextSibling should be forwarded")
	}
	if len(rec.Journal()) != 0 {
		t.Errorf("journal = %v, want empty", rec.Journal())
	}
	if rec.Document() != Document(tree) {
		t.Error("Document() should return the wrapped document")
	}
}

func TestMutationString(t *testing.T) {
	tests := []struct {
		m    Mutation
		want string
	}{
		{Mutation{Op: OpCreateElement, Node: 1, Name: "li"}, "CreateElement #1 <li>"},
		{Mutation{Op: OpCreateText, Node: 2, Value: "hi"}, `CreateText #2 "hi"`},
		{Mutation{Op: OpAppendChild, Node: 2, Parent: 1}, "AppendChild #2 -> #1"},
		{Mutation{Op: OpMove, Node: 2, Parent: 1, Ref: 3}, "Move #2 -> #1 before #3"},
		{Mutation{Op: OpInsertBefore, Node: 2, Parent: 1}, "InsertBefore #2 -> #1 (end)"},
		{Mutation{Op: OpClearChildren, Node: 1}, "ClearChildren #1"},
		{Mutation{Op: OpSetStyle, Node: 1, Name: "color", Value: "red"}, `SetStyle #1 color="red"`},
		{Mutation{Op: OpRemoveProperty, Node: 1, Name: "id"}, "RemoveProperty #1 id"},
		{Mutation{Op: OpSetText, Node: 2, Value: "x"}, `SetText #2 "x"`},
		{Mutation{Op: MutationOp(0x7f), Node: 1}, "Unknown #1"},
	}
	for _, tt := range tests {
		if got := tt.m.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestMutationOpValid(t *testing.T) {
	for op := OpCreateElement; op <= OpSetText; op++ {
		if !op.Valid() {
			t.Errorf("%v should be valid", op)
		}
		if op.String() == "Unknown" {
			t.Errorf("op 0x%02x has no name", uint8(op))
		}
	}
	if MutationOp(0).Valid() || MutationOp(opCount).Valid() {
		t.Error("out of range ops should be invalid")
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"x", "x"},
		{true, "true"},
		{false, "false"},
		{42, "42"},
		{int64(-3), "-3"},
		{1.5, "1.5"},
		{OpSetText, "SetText"},
		{uint8(7), "7"},
	}
	for _, tt := range tests {
		if got := FormatValue(tt.in); got != tt.want {
			t.Errorf("FormatValue(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
