package treefile

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/vsync/internal/errors"
	"github.com/vango-dev/vsync/pkg/vdom"
)

// node is one tree-file entry. A bare scalar is shorthand for {text: ...}.
type node struct {
	Tag      string            `yaml:"tag"`
	Key      string            `yaml:"key"`
	Text     *string           `yaml:"text"`
	Props    map[string]any    `yaml:"props"`
	Style    map[string]string `yaml:"style"`
	Children []*node           `yaml:"children"`

	line, column int
}

var fields = map[string]bool{
	"tag": true, "key": true, "text": true, "props": true, "style": true, "children": true,
}

// locatedError carries a position out of UnmarshalYAML.
type locatedError struct {
	line, column int
	msg          string
}

func (e *locatedError) Error() string { return e.msg }

func errorAt(n *yaml.Node, format string, args ...any) error {
	return &locatedError{line: n.Line, column: n.Column, msg: fmt.Sprintf(format, args...)}
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (n *node) UnmarshalYAML(value *yaml.Node) error {
	n.line, n.column = value.Line, value.Column

	switch value.Kind {
	case yaml.ScalarNode:
		text := value.Value
		n.Text = &text
		return nil
	case yaml.MappingNode:
	default:
		return errorAt(value, "node must be a mapping or a string")
	}

	for i := 0; i < len(value.Content); i += 2 {
		k := value.Content[i]
		if !fields[k.Value] {
			return errorAt(k, "unknown field %q", k.Value)
		}
	}

	// Decoding through an alias type skips this method.
	type plain node
	if err := value.Decode((*plain)(n)); err != nil {
		var located *locatedError
		if stderrors.As(err, &located) {
			return err
		}
		return errorAt(value, "%v", err)
	}
	n.line, n.column = value.Line, value.Column
	return nil
}

// vnode converts n, checking the shape rules a VNode needs.
func (n *node) vnode() (*vdom.VNode, error) {
	if n.Text != nil {
		switch {
		case n.Tag != "":
			return nil, n.errorf("node has both tag %q and text", n.Tag)
		case len(n.Props) > 0 || len(n.Style) > 0 || len(n.Children) > 0:
			return nil, n.errorf("text node cannot have props, style or children")
		}
		v := vdom.Text(*n.Text)
		v.Key = n.Key
		return v, nil
	}
	if n.Tag == "" {
		return nil, n.errorf("node needs a tag or a text field")
	}

	args := make([]any, 0, len(n.Children)+3)
	if len(n.Props) > 0 {
		props := make(vdom.Props, len(n.Props))
		for name, value := range n.Props {
			switch value.(type) {
			case nil, string, bool, int, int64, uint64, float64:
			default:
				return nil, n.errorf("prop %q must be a scalar, got %T", name, value)
			}
			if name == "style" || name == "key" {
				return nil, n.errorf("prop %q must be given as the %s field", name, name)
			}
			props[name] = value
		}
		args = append(args, props)
	}
	if len(n.Style) > 0 {
		args = append(args, vdom.Style(n.Style))
	}
	if n.Key != "" {
		args = append(args, vdom.Key(n.Key))
	}
	for _, child := range n.Children {
		if child == nil {
			return nil, n.errorf("empty child")
		}
		c, err := child.vnode()
		if err != nil {
			return nil, err
		}
		args = append(args, c)
	}
	return vdom.H(n.Tag, nil, args...), nil
}

func (n *node) errorf(format string, args ...any) error {
	return &locatedError{line: n.line, column: n.column, msg: fmt.Sprintf(format, args...)}
}

// Load reads a tree file holding exactly one tree.
func Load(path string) (*vdom.VNode, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("E140").WithDetail(err.Error()).Wrap(err)
	}
	return Parse(path, data)
}

// LoadAll reads a tree file holding one or more trees separated by "---".
func LoadAll(path string) ([]*vdom.VNode, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("E140").WithDetail(err.Error()).Wrap(err)
	}
	return ParseAll(path, data)
}

// Parse decodes a single tree. name labels error locations.
func Parse(name string, data []byte) (*vdom.VNode, error) {
	trees, err := ParseAll(name, data)
	if err != nil {
		return nil, err
	}
	if len(trees) > 1 {
		return nil, errors.New("E141").
			WithDetailf("%s holds %d trees, expected one", name, len(trees)).
			WithSuggestion("Remove the extra documents or load the file as a sequence")
	}
	return trees[0], nil
}

// ParseAll decodes every YAML document in data as a tree. JSON input is
// accepted as YAML.
func ParseAll(name string, data []byte) ([]*vdom.VNode, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))

	var trees []*vdom.VNode
	for {
		var n *node
		err := dec.Decode(&n)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, decodeError(name, err)
		}
		if n == nil {
			continue
		}
		v, err := n.vnode()
		if err != nil {
			return nil, decodeError(name, err)
		}
		trees = append(trees, v)
	}

	if len(trees) == 0 {
		return nil, errors.New("E141").
			WithDetailf("%s contains no tree", name).
			WithLocation(name, 1, 0)
	}
	return trees, nil
}

var yamlLine = regexp.MustCompile(`line (\d+)`)

func decodeError(name string, err error) error {
	var located *locatedError
	if stderrors.As(err, &located) {
		return errors.New("E142").
			WithDetail(located.msg).
			WithLocation(name, located.line, located.column).
			WithSuggestion("Each node is {tag, key, props, style, children} or {text}")
	}

	e := errors.New("E141").WithDetail(err.Error()).Wrap(err)
	if m := yamlLine.FindStringSubmatch(err.Error()); m != nil {
		line, _ := strconv.Atoi(m[1])
		e = e.WithLocation(name, line, 0)
	}
	return e
}
