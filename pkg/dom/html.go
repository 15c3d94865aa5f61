package dom

import (
	"slices"
	"strings"
)

// voidElements are elements that cannot have children.
var voidElements = map[string]bool{
	"area":   true,
	"base":   true,
	"br":     true,
	"col":    true,
	"embed":  true,
	"hr":     true,
	"img":    true,
	"input":  true,
	"link":   true,
	"meta":   true,
	"param":  true,
	"source": true,
	"track":  true,
	"wbr":    true,
}

// propertyAttrs maps reflected property names to their attribute names.
var propertyAttrs = map[string]string{
	"className": "class",
	"htmlFor":   "for",
	"tabIndex":  "tabindex",
	"readOnly":  "readonly",
}

// HTML renders the subtree rooted at n. Attributes are emitted in name order
// so output is stable; style declarations keep their insertion order.
func HTML(n Node) string {
	e, ok := n.(*Element)
	if !ok || e == nil {
		return ""
	}
	var b strings.Builder
	e.render(&b)
	return b.String()
}

// InnerHTML renders the children of n.
func InnerHTML(n Node) string {
	e, ok := n.(*Element)
	if !ok || e == nil {
		return ""
	}
	var b strings.Builder
	for _, c := range e.children {
		c.render(&b)
	}
	return b.String()
}

func (e *Element) render(b *strings.Builder) {
	if e.kind == TextNode {
		b.WriteString(escapeHTML(e.text))
		return
	}

	b.WriteByte('<')
	b.WriteString(e.tag)

	type pair struct {
		name, value string
		boolean     bool
	}
	attrs := make([]pair, 0, len(e.attrs)+1)
	for _, a := range e.attrs {
		name := a.name
		if mapped, ok := propertyAttrs[name]; ok {
			name = mapped
		}
		attrs = append(attrs, pair{name: name, value: a.value, boolean: a.boolean})
	}
	if len(e.style) > 0 {
		attrs = append(attrs, pair{name: "style", value: e.styleText()})
	}
	slices.SortStableFunc(attrs, func(x, y pair) int { return strings.Compare(x.name, y.name) })

	for _, a := range attrs {
		b.WriteByte(' ')
		b.WriteString(a.name)
		if a.boolean {
			continue
		}
		b.WriteString(`="`)
		b.WriteString(escapeAttr(a.value))
		b.WriteByte('"')
	}
	b.WriteByte('>')

	if voidElements[e.tag] {
		return
	}
	for _, c := range e.children {
		c.render(b)
	}
	b.WriteString("</")
	b.WriteString(e.tag)
	b.WriteByte('>')
}

func (e *Element) styleText() string {
	parts := make([]string, 0, len(e.style))
	for _, d := range e.style {
		parts = append(parts, cssName(d.name)+":"+d.value)
	}
	return strings.Join(parts, ";")
}

// cssName converts a CSSOM property name (backgroundColor) to its CSS form
// (background-color). Names that already contain a dash are kept.
func cssName(name string) string {
	if strings.Contains(name, "-") {
		return name
	}
	var b strings.Builder
	b.Grow(len(name) + 4)
	for _, r := range name {
		if r >= 'A' && r <= 'Z' {
			b.WriteByte('-')
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// escapeHTML escapes text for safe inclusion in HTML content.
func escapeHTML(s string) string {
	var buf strings.Builder
	buf.Grow(len(s))

	for _, r := range s {
		switch r {
		case '&':
			buf.WriteString("&amp;")
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		case '"':
			buf.WriteString("&quot;")
		case '\'':
			buf.WriteString("&#39;")
		default:
			buf.WriteRune(r)
		}
	}

	return buf.String()
}

// escapeAttr escapes text for safe inclusion in HTML attribute values.
// Whitespace that could break attribute parsing is escaped as well.
func escapeAttr(s string) string {
	var buf strings.Builder
	buf.Grow(len(s))

	for _, r := range s {
		switch r {
		case '&':
			buf.WriteString("&amp;")
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		case '"':
			buf.WriteString("&quot;")
		case '\'':
			buf.WriteString("&#39;")
		case '\n':
			buf.WriteString("&#10;")
		case '\r':
			buf.WriteString("&#13;")
		case '\t':
			buf.WriteString("&#9;")
		default:
			buf.WriteRune(r)
		}
	}

	return buf.String()
}
