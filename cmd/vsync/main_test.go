package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/vango-dev/vsync/internal/errors"
)

// run executes the CLI with args and returns its standard output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--dir", t.TempDir()}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func writeTree(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDemoGolden(t *testing.T) {
	out, err := run(t, "demo")
	if err != nil {
		t.Fatalf("demo error = %v", err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "demo", []byte(out))
}

func TestDemoScenario(t *testing.T) {
	out, err := run(t, "demo", "--scenario", "keyed", "--journal")
	if err != nil {
		t.Fatalf("demo error = %v", err)
	}
	if strings.Contains(out, "unkeyed") {
		t.Error("output contains the unkeyed scenario")
	}
	for _, want := range []string{"== keyed ==", "Move #", "RemoveChild #", "SetText #"} {
		if !strings.Contains(out, want) {
			t.Errorf("output does not contain %q:\n%s", want, out)
		}
	}

	if _, err := run(t, "demo", "--scenario", "sideways"); err == nil {
		t.Error("unknown scenario did not fail")
	}
}

func TestDemoTrees(t *testing.T) {
	trees := demoTrees()
	if len(trees) != 4 {
		t.Fatalf("demoTrees() = %d trees, want 4", len(trees))
	}
	for i, tree := range trees {
		if tree.Tag != "ul" {
			t.Errorf("tree %d tag = %q, want ul", i, tree.Tag)
		}
	}
	if got := trees[3].Children[0].Key; got != "5" {
		t.Errorf("keyed new first key = %q, want 5", got)
	}
}

func TestDiff(t *testing.T) {
	old := writeTree(t, "old.yaml", `
tag: ul
children:
  - {tag: li, key: a, children: [A]}
  - {tag: li, key: b, children: [B]}
`)
	next := writeTree(t, "new.yaml", `
tag: ul
children:
  - {tag: li, key: b, children: [B]}
  - {tag: li, key: a, children: [A]}
`)

	out, err := run(t, "diff", old, next)
	if err != nil {
		t.Fatalf("diff error = %v", err)
	}
	if !strings.Contains(out, "Move #") {
		t.Errorf("output has no move:\n%s", out)
	}
	if !strings.Contains(out, "3 mutations: created=0 removed=0 moved=1") {
		t.Errorf("unexpected summary:\n%s", out)
	}
	if strings.Contains(out, "Mutations ") {
		t.Errorf("frames printed without --frame:\n%s", out)
	}

	out, err = run(t, "diff", old, next, "--frame")
	if err != nil {
		t.Fatalf("diff --frame error = %v", err)
	}
	if !strings.Contains(out, "\nMutations ") {
		t.Errorf("output has no frame:\n%s", out)
	}
}

func TestDiffErrors(t *testing.T) {
	valid := writeTree(t, "valid.yaml", "tag: div\n")
	bad := writeTree(t, "bad.yaml", "tag: div\ncolour: red\n")

	tests := []struct {
		name string
		args []string
		code string
	}{
		{"missing file", []string{"diff", filepath.Join(t.TempDir(), "nope.yaml"), valid}, "E140"},
		{"unknown field", []string{"diff", valid, bad}, "E142"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			if !errors.HasCode(err, tt.code) {
				t.Errorf("error = %v, want %s", err, tt.code)
			}
		})
	}

	if _, err := run(t, "diff", valid); err == nil {
		t.Error("diff with one argument did not fail")
	}
}

func TestErrorFormat(t *testing.T) {
	valid := writeTree(t, "valid.yaml", "tag: div\n")
	bad := writeTree(t, "bad.yaml", "tag: div\ncolour: red\n")

	exec := func(args ...string) (int, string) {
		var stderr bytes.Buffer
		cmd := rootCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetArgs(append([]string{"--dir", t.TempDir()}, args...))
		return execute(cmd, &stderr), stderr.String()
	}

	code, out := exec("--error-format", "json", "diff", valid, bad)
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	var got struct {
		Code     string `json:"code"`
		Location struct {
			File string `json:"file"`
			Line int    `json:"line"`
		} `json:"location"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("stderr %q is not JSON: %v", out, err)
	}
	if got.Code != "E142" || got.Location.File != bad || got.Location.Line != 2 {
		t.Errorf("json error = %+v, want E142 at %s:2", got, bad)
	}

	_, out = exec("--error-format", "compact", "diff", valid, bad)
	if !strings.HasPrefix(out, bad+":2:") || !strings.Contains(out, ": E142: Invalid tree node") {
		t.Errorf("compact error = %q", out)
	}

	if _, out := exec("--error-format", "yaml", "version"); !strings.Contains(out, "E181") {
		t.Errorf("unknown format error = %q, want E181", out)
	}
	if code, out := exec("version", "--short"); code != 0 || out != "" {
		t.Errorf("version = %d, stderr %q", code, out)
	}
}

func TestLogLevelOverride(t *testing.T) {
	_, err := run(t, "--log-level", "loud", "demo")
	if !errors.HasCode(err, "E122") {
		t.Errorf("error = %v, want E122", err)
	}

	if _, err := run(t, "--log-level", "debug", "demo", "-s", "unkeyed"); err != nil {
		t.Errorf("debug level error = %v", err)
	}
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfg := `{"reconcile": {"keyPolicy": "reject"}}`
	if err := os.WriteFile(filepath.Join(dir, "vsync.json"), []byte(cfg), 0644); err != nil {
		t.Fatal(err)
	}
	tree := writeTree(t, "dup.yaml", `
tag: ul
children:
  - {tag: li, key: a}
  - {tag: li, key: a}
`)

	cmd := rootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--dir", dir, "diff", tree, tree})
	if err := cmd.Execute(); !errors.HasCode(err, "E101") {
		t.Errorf("error = %v, want E101", err)
	}
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version", "--short")
	if err != nil {
		t.Fatal(err)
	}
	if out != version+"\n" {
		t.Errorf("version --short = %q, want %q", out, version+"\n")
	}
}
