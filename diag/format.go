package diag

import (
	"fmt"
	"strings"
)

// Format renders err with a caret snippet of src pointing at the start of
// the diagnostic span:
//
//	ParseError in page.mu at 3:5: unmatched '}'
//
//	   2 |   p { "hi" }
//	   3 | } }
//	     |     ^
//
// At most one line of context is shown on each side. Errors that are not
// diagnostics are returned as their plain message.
func Format(err error, name, src string) string {
	d, ok := As(err)
	if !ok {
		return err.Error()
	}
	return snippet(src, name, d)
}

// LineCol converts a byte offset in src to a Pos. Offsets past the end are
// clamped to len(src).
func LineCol(src string, offset int) Pos {
	if offset < 0 {
		offset = 0
	}
	if offset > len(src) {
		offset = len(src)
	}
	line := 1 + strings.Count(src[:offset], "\n")
	lineStart := strings.LastIndexByte(src[:offset], '\n') + 1
	return Pos{Line: line, Column: offset - lineStart + 1, Offset: offset}
}

func snippet(src, name string, d *Error) string {
	lines := strings.Split(src, "\n")
	line, col := d.Span.Start.Line, d.Span.Start.Column
	line = max(line, 1)
	col = max(col, 1)
	line = min(line, len(lines))

	var b strings.Builder
	if name != "" {
		fmt.Fprintf(&b, "%s in %s at %d:%d: %s\n\n", d.Kind, name, line, col, d.Msg)
	} else {
		fmt.Fprintf(&b, "%s at %d:%d: %s\n\n", d.Kind, line, col, d.Msg)
	}
	if line > 1 {
		fmt.Fprintf(&b, "%4d | %s\n", line-1, lines[line-2])
	}
	fmt.Fprintf(&b, "%4d | %s\n", line, lines[line-1])
	fmt.Fprintf(&b, "     | %s^\n", strings.Repeat(" ", col-1))
	if line < len(lines) {
		fmt.Fprintf(&b, "%4d | %s\n", line+1, lines[line])
	}
	if d.Hint != "" {
		fmt.Fprintf(&b, "hint: %s\n", d.Hint)
	}
	return b.String()
}
