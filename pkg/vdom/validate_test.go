package vdom

import (
	"strings"
	"testing"

	"github.com/vango-dev/vsync/internal/errors"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		tree    *VNode
		wantErr bool
		path    string
	}{
		{"valid list", list("a", "b"), false, ""},
		{"valid text root", Text("x"), false, ""},
		{"nil", nil, true, ""},
		{"empty tag", &VNode{Kind: KindElement}, true, "element"},
		{
			name:    "nested empty tag",
			tree:    Ul(Li("a"), Li("b"), &VNode{Kind: KindElement}),
			wantErr: true,
			path:    "ul/element[2]",
		},
		{
			name:    "nil child",
			tree:    &VNode{Kind: KindElement, Tag: "ul", Children: []*VNode{Li(), nil}},
			wantErr: true,
			path:    "ul/[1]",
		},
		{
			name:    "string style",
			tree:    Ul(Li(Attr{Key: StyleProp, Value: "color: red"})),
			wantErr: true,
			path:    "ul/li[0]",
		},
		{"nil style", Div(Attr{Key: StyleProp, Value: nil}), false, ""},
		{"any-valued style", Div(Attr{Key: StyleProp, Value: map[string]any{"width": 2}}), false, ""},
		{
			name:    "text with children",
			tree:    Div(P(&VNode{Kind: KindText, Children: []*VNode{Text("x")}})),
			wantErr: true,
			path:    "div/p[0]/#text[0]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.tree)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				return
			}
			if !errors.HasCode(err, "E100") {
				t.Errorf("error = %v, want E100", err)
			}
			if tt.path != "" {
				e := err.(*errors.Error)
				if e.Path != tt.path {
					t.Errorf("Path = %q, want %s", e.Path, tt.path)
				}
				if !strings.HasSuffix(e.Detail, "at "+tt.path) {
					t.Errorf("Detail = %q, want path %s", e.Detail, tt.path)
				}
			}
		})
	}
}

func TestDuplicateKeysReport(t *testing.T) {
	tree := Div(
		Ul(Li(Key("a")), Li(Key("b")), Li(Key("a")), Li(Key("a"))),
		Ol(Li(Key("x")), Li(), Li()),
	)

	dups := DuplicateKeys(tree)
	if len(dups) != 1 {
		t.Fatalf("DuplicateKeys() = %v, want one entry", dups)
	}
	if dups[0].Key != "a" || dups[0].Path != "div/ul[0]" {
		t.Errorf("dup = %+v, want key a under div/ul[0]", dups[0])
	}

	if got := DuplicateKeys(list("a", "b", "c")); len(got) != 0 {
		t.Errorf("DuplicateKeys() = %v, want none", got)
	}
}
