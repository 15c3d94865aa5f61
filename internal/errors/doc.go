// Package errors provides structured, actionable error messages for vsync.
//
// Every error the reconciler, the config loader, the tree-file loader and the
// CLI return is an *Error carrying:
//   - a unique code (e.g. "E100") registered with a category and message
//   - an optional source location (tree files report the YAML line/column)
//   - a plain-language detail and a hint on how to fix it
//   - the wrapped cause, reachable with errors.Is and errors.As
//
// # Error Codes
//
//   - E100-E119: reconciliation (malformed vnodes, duplicate keys, unmounted
//     or detached nodes, concurrent passes, failed document mutations)
//   - E120-E139: configuration
//   - E140-E159: tree files
//   - E160-E179: wire protocol and replay
//   - E180-E199: CLI
//
// # Usage
//
//	err := errors.New("E100").
//	    WithPath("ul/li[2]").
//	    WithDetail("element has no tag").
//	    WithSuggestion("Build elements with vdom.H or an element helper")
//
//	fmt.Print(err.Format())
//	// Output:
//	// error[E100] Malformed virtual node (input)
//	//   in tree ul/li[2]
//	//   element has no tag
//	//   hint: Build elements with vdom.H or an element helper
//
// FormatCompact and FormatJSON render the same error on one line; Fprint
// picks one of the three by Style, and the CLI exposes it as --error-format.
// An *Error is also a slog.LogValuer, so logging it keeps the code and path
// as fields.
package errors
