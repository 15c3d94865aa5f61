package dom

import "slices"

// NodeKind distinguishes element and text nodes in a Tree.
type NodeKind uint8

const (
	ElementNode NodeKind = iota
	TextNode
)

// Tree is an in-memory Document.
// It is not safe for concurrent use.
type Tree struct {
	nextID uint64
}

// NewTree creates an empty in-memory document.
func NewTree() *Tree {
	return &Tree{}
}

type attribute struct {
	name    string
	value   string
	boolean bool
}

type declaration struct {
	name  string
	value string
}

// Element is a node of a Tree. Despite the name it also represents text nodes;
// check Kind.
type Element struct {
	id       uint64
	tree     *Tree
	kind     NodeKind
	tag      string
	text     string
	attrs    []attribute
	style    []declaration
	parent   *Element
	children []*Element
}

// ID implements Node.
func (e *Element) ID() uint64 { return e.id }

// Kind returns whether e is an element or a text node.
func (e *Element) Kind() NodeKind { return e.kind }

// Tag returns the element tag, empty for text nodes.
func (e *Element) Tag() string { return e.tag }

// Text returns the content of a text node.
func (e *Element) Text() string { return e.text }

// Parent returns the parent element or nil.
func (e *Element) Parent() *Element { return e.parent }

// Children returns a copy of the child list.
func (e *Element) Children() []*Element { return slices.Clone(e.children) }

// Attr returns an attribute value and whether it is set.
func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.attrs {
		if a.name == name {
			return a.value, true
		}
	}
	return "", false
}

// Style returns a style declaration value and whether it is set.
func (e *Element) Style(name string) (string, bool) {
	for _, d := range e.style {
		if d.name == name {
			return d.value, true
		}
	}
	return "", false
}

// TextContent returns the concatenated text of the subtree.
func (e *Element) TextContent() string {
	if e.kind == TextNode {
		return e.text
	}
	var out []byte
	for _, c := range e.children {
		out = append(out, c.TextContent()...)
	}
	return string(out)
}

func (t *Tree) newNode(kind NodeKind) *Element {
	t.nextID++
	return &Element{id: t.nextID, tree: t, kind: kind}
}

// element resolves a Node handed to the tree. Nodes from another Tree or
// another Document implementation are rejected.
func (t *Tree) element(op MutationOp, n Node) *Element {
	e, ok := n.(*Element)
	if !ok || e == nil {
		fail(op, idOf(n), "node does not belong to this tree")
	}
	if e.tree != t {
		fail(op, e.id, "node belongs to another tree")
	}
	return e
}

func (t *Tree) container(op MutationOp, n Node) *Element {
	e := t.element(op, n)
	if e.kind != ElementNode {
		fail(op, e.id, "text nodes cannot have children")
	}
	return e
}

// CreateElement implements Document.
func (t *Tree) CreateElement(tag string) Node {
	if tag == "" {
		fail(OpCreateElement, 0, "empty tag name")
	}
	e := t.newNode(ElementNode)
	e.tag = tag
	return e
}

// CreateText implements Document.
func (t *Tree) CreateText(text string) Node {
	e := t.newNode(TextNode)
	e.text = text
	return e
}

// AppendChild implements Document.
func (t *Tree) AppendChild(parent, child Node) {
	t.InsertBefore(parent, child, nil)
}

// InsertBefore implements Document.
func (t *Tree) InsertBefore(parent, child, ref Node) {
	p := t.container(OpInsertBefore, parent)
	c := t.element(OpInsertBefore, child)
	for a := p; a != nil; a = a.parent {
		if a == c {
			fail(OpInsertBefore, c.id, "cannot insert a node into its own subtree")
		}
	}

	var r *Element
	if ref != nil {
		r = t.element(OpInsertBefore, ref)
		if r.parent != p {
			fail(OpInsertBefore, r.id, "reference node is not a child of #%d", p.id)
		}
		if r == c {
			return
		}
	}

	c.detach()
	idx := len(p.children)
	if r != nil {
		idx = slices.Index(p.children, r)
	}
	p.children = slices.Insert(p.children, idx, c)
	c.parent = p
}

// RemoveChild implements Document.
func (t *Tree) RemoveChild(parent, child Node) {
	p := t.container(OpRemoveChild, parent)
	c := t.element(OpRemoveChild, child)
	if c.parent != p {
		fail(OpRemoveChild, c.id, "node is not a child of #%d", p.id)
	}
	c.detach()
}

// ClearChildren implements Document.
func (t *Tree) ClearChildren(node Node) {
	p := t.container(OpClearChildren, node)
	for _, c := range p.children {
		c.parent = nil
	}
	p.children = nil
}

func (e *Element) detach() {
	if e.parent == nil {
		return
	}
	p := e.parent
	if i := slices.Index(p.children, e); i >= 0 {
		p.children = slices.Delete(p.children, i, i+1)
	}
	e.parent = nil
}

// SetProperty implements Document. Booleans follow reflected-property
// semantics: true sets an empty boolean attribute, false removes it.
func (t *Tree) SetProperty(node Node, name string, value any) {
	e := t.container(OpSetProperty, node)
	if name == "" {
		fail(OpSetProperty, e.id, "empty property name")
	}
	if b, ok := value.(bool); ok {
		if !b {
			e.removeAttr(name)
			return
		}
		e.setAttr(attribute{name: name, boolean: true})
		return
	}
	e.setAttr(attribute{name: name, value: FormatValue(value)})
}

func (e *Element) setAttr(a attribute) {
	for i := range e.attrs {
		if e.attrs[i].name == a.name {
			e.attrs[i] = a
			return
		}
	}
	e.attrs = append(e.attrs, a)
}

func (e *Element) removeAttr(name string) {
	e.attrs = slices.DeleteFunc(e.attrs, func(a attribute) bool { return a.name == name })
}

// RemoveProperty implements Document.
func (t *Tree) RemoveProperty(node Node, name string) {
	e := t.container(OpRemoveProperty, node)
	e.removeAttr(name)
}

// SetStyle implements Document. An empty value clears the declaration, as
// assigning "" to a CSSStyleDeclaration property does.
func (t *Tree) SetStyle(node Node, name, value string) {
	e := t.container(OpSetStyle, node)
	if value == "" {
		e.clearStyle(name)
		return
	}
	for i := range e.style {
		if e.style[i].name == name {
			e.style[i].value = value
			return
		}
	}
	e.style = append(e.style, declaration{name: name, value: value})
}

// ClearStyle implements Document.
func (t *Tree) ClearStyle(node Node, name string) {
	e := t.container(OpClearStyle, node)
	e.clearStyle(name)
}

func (e *Element) clearStyle(name string) {
	e.style = slices.DeleteFunc(e.style, func(d declaration) bool { return d.name == name })
}

// SetText implements Document. On an element it replaces all children with a
// single text node, like assigning textContent.
func (t *Tree) SetText(node Node, text string) {
	e := t.element(OpSetText, node)
	if e.kind == TextNode {
		e.text = text
		return
	}
	t.ClearChildren(e)
	if text != "" {
		t.AppendChild(e, t.CreateText(text))
	}
}

// Parent implements Document.
func (t *Tree) Parent(node Node) Node {
	e := t.element(OpInsertBefore, node)
	if e.parent == nil {
		return nil
	}
	return e.parent
}

// NextSibling implements Document.
func (t *Tree) NextSibling(node Node) Node {
	e := t.element(OpInsertBefore, node)
	if e.parent == nil {
		return nil
	}
	siblings := e.parent.children
	i := slices.Index(siblings, e)
	if i < 0 || i+1 >= len(siblings) {
		return nil
	}
	return siblings[i+1]
}

// Snapshot returns the mutations that rebuild node's subtree from nothing in
// a fresh document. The root is created but not attached anywhere.
func (t *Tree) Snapshot(node Node) []Mutation {
	e := t.element(OpCreateElement, node)
	var out []Mutation
	e.snapshot(&out)
	return out
}

func (e *Element) snapshot(out *[]Mutation) {
	if e.kind == TextNode {
		*out = append(*out, Mutation{Op: OpCreateText, Node: e.id, Value: e.text})
		return
	}
	*out = append(*out, Mutation{Op: OpCreateElement, Node: e.id, Name: e.tag})
	for _, a := range e.attrs {
		m := Mutation{Op: OpSetProperty, Node: e.id, Name: a.name, Value: a.value}
		if a.boolean {
			m.Value, m.Bool = "true", true
		}
		*out = append(*out, m)
	}
	for _, d := range e.style {
		*out = append(*out, Mutation{Op: OpSetStyle, Node: e.id, Name: d.name, Value: d.value})
	}
	for _, c := range e.children {
		c.snapshot(out)
		*out = append(*out, Mutation{Op: OpAppendChild, Node: c.id, Parent: e.id})
	}
}
