package errors

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// ANSI color codes for terminal output.
const (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorCyan  = "\033[36m"
	colorGray  = "\033[90m"
	colorBold  = "\033[1m"
)

// colorEnabled controls whether ANSI colors are used.
var colorEnabled = true

// DisableColors disables ANSI color output.
func DisableColors() {
	colorEnabled = false
}

// EnableColors enables ANSI color output.
func EnableColors() {
	colorEnabled = true
}

func color(code, text string) string {
	if !colorEnabled {
		return text
	}
	return code + text + colorReset
}

func red(text string) string  { return color(colorRed, text) }
func cyan(text string) string { return color(colorCyan, text) }
func gray(text string) string { return color(colorGray, text) }
func bold(text string) string { return color(colorBold, text) }

// Style selects how Fprint renders an error.
type Style string

const (
	StyleText    Style = "text"    // multi-line, for terminals
	StyleCompact Style = "compact" // one line, file:line: code: message
	StyleJSON    Style = "json"    // one JSON object per error
)

// ParseStyle returns the Style named s, or false if s names none.
func ParseStyle(s string) (Style, bool) {
	switch st := Style(s); st {
	case StyleText, StyleCompact, StyleJSON:
		return st, true
	}
	return "", false
}

// Format renders the error for a terminal:
//
//	error[E142] Invalid tree node (treefile)
//	  --> states.yaml:4:5
//	     3 |   - tag: span
//	     4 |     clas: x
//	       |     ^
//	  unknown field "clas"
//	  hint: Each node is {tag, key, props, style, children} or {text}
//
// Errors raised inside a virtual tree show the node path instead of a file.
func (e *Error) Format() string {
	var b strings.Builder

	b.WriteString(red(bold("error")))
	if e.Code != "" {
		b.WriteString(red(bold("[" + e.Code + "]")))
	}
	b.WriteString(" ")
	b.WriteString(bold(e.Message))
	if e.Category != "" {
		b.WriteString(gray(" (" + string(e.Category) + ")"))
	}
	b.WriteString("\n")

	if e.Path != "" {
		fmt.Fprintf(&b, "  %s %s\n", cyan("in tree"), e.Path)
	}
	if e.Location != nil {
		fmt.Fprintf(&b, "  %s %s\n", cyan("-->"), e.Location)
		e.writeContext(&b)
	}

	for _, line := range wrapText(e.Detail, 72) {
		b.WriteString("  ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	if e.Suggestion != "" {
		fmt.Fprintf(&b, "  %s %s\n", cyan("hint:"), e.Suggestion)
	}
	if e.Wrapped != nil && e.Wrapped.Error() != e.Detail {
		fmt.Fprintf(&b, "  %s %s\n", gray("caused by:"), e.Wrapped)
	}
	return b.String()
}

// writeContext prints the file lines around Location with a caret under the
// reported column.
func (e *Error) writeContext(b *strings.Builder) {
	if len(e.Context) == 0 {
		return
	}
	if e.contextStart == 0 {
		for _, line := range e.Context {
			fmt.Fprintf(b, "       %s %s\n", gray("|"), line)
		}
		return
	}
	for i, line := range e.Context {
		n := e.contextStart + i
		fmt.Fprintf(b, "  %4d %s %s\n", n, gray("|"), line)
		if n == e.Location.Line && e.Location.Column > 0 {
			fmt.Fprintf(b, "       %s %s%s\n", gray("|"), strings.Repeat(" ", e.Location.Column-1), red("^"))
		}
	}
}

// FormatCompact returns the error on one line, prefixed by its file position
// or tree path.
func (e *Error) FormatCompact() string {
	var b strings.Builder
	switch {
	case e.Location != nil:
		b.WriteString(e.Location.String())
		b.WriteString(": ")
	case e.Path != "":
		b.WriteString(e.Path)
		b.WriteString(": ")
	}
	if e.Code != "" {
		b.WriteString(e.Code)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Detail != "" && e.Location == nil && e.Path == "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	return b.String()
}

type jsonLocation struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column,omitempty"`
}

type jsonError struct {
	Code       string        `json:"code,omitempty"`
	Category   Category      `json:"category,omitempty"`
	Message    string        `json:"message"`
	Detail     string        `json:"detail,omitempty"`
	Path       string        `json:"path,omitempty"`
	Location   *jsonLocation `json:"location,omitempty"`
	Suggestion string        `json:"suggestion,omitempty"`
	Cause      string        `json:"cause,omitempty"`
}

// FormatJSON returns the error as a single-line JSON object.
func (e *Error) FormatJSON() string {
	out := jsonError{
		Code:       e.Code,
		Category:   e.Category,
		Message:    e.Message,
		Detail:     e.Detail,
		Path:       e.Path,
		Suggestion: e.Suggestion,
	}
	if e.Location != nil {
		out.Location = &jsonLocation{File: e.Location.File, Line: e.Location.Line, Column: e.Location.Column}
	}
	if e.Wrapped != nil {
		out.Cause = e.Wrapped.Error()
	}
	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Sprintf(`{"message":%q}`, e.Error())
	}
	return string(data)
}

// LogValue implements slog.LogValuer, so an *Error logged as an attribute
// keeps its code, path and position as separate fields.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, 5)
	if e.Code != "" {
		attrs = append(attrs, slog.String("code", e.Code))
	}
	attrs = append(attrs, slog.String("msg", e.Message))
	if e.Path != "" {
		attrs = append(attrs, slog.String("path", e.Path))
	}
	if e.Location != nil {
		attrs = append(attrs, slog.String("at", e.Location.String()))
	}
	if e.Detail != "" {
		attrs = append(attrs, slog.String("detail", e.Detail))
	}
	return slog.GroupValue(attrs...)
}

// wrapText wraps text to the specified width.
func wrapText(text string, width int) []string {
	if text == "" {
		return nil
	}
	if len(text) <= width {
		return []string{text}
	}

	var lines []string
	var current strings.Builder
	for _, word := range strings.Fields(text) {
		if current.Len() > 0 && current.Len()+len(word)+1 > width {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}

// Fprint writes err to w in the given style. Errors that are not an *Error
// are printed as their message, or as {"message": ...} in JSON.
func Fprint(w io.Writer, err error, style Style) {
	ve, ok := err.(*Error)
	if !ok {
		ve = &Error{Message: err.Error()}
	}
	switch style {
	case StyleJSON:
		fmt.Fprintln(w, ve.FormatJSON())
	case StyleCompact:
		fmt.Fprintln(w, ve.FormatCompact())
	default:
		if !ok {
			fmt.Fprintf(w, "%s %s\n", red(bold("error:")), err)
			return
		}
		fmt.Fprint(w, ve.Format())
	}
}
