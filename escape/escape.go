// Package escape implements the escaping policy: a pure function from text
// and an output context to text that is safe in that context.
package escape

import (
	"io"
	"slices"
	"strings"
)

// Context is the syntactic position a value is written into.
type Context uint8

const (
	TextBody       Context = iota // element content
	AttributeValue                // inside a double-quoted attribute value
)

func (c Context) String() string {
	if c == AttributeValue {
		return "attr"
	}
	return "text"
}

// MarshalText lets Context appear by name in JSON program dumps.
func (c Context) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Table maps special characters to their escaped form, per context. A Table
// is immutable and safe for concurrent use.
type Table struct {
	text *strings.Replacer
	attr *strings.Replacer

	textChars string
	attrChars string
}

// New builds a table. attr is applied in AttributeValue context and text in
// TextBody context; neither inherits from the other.
func New(text, attr map[rune]string) *Table {
	t := &Table{}
	t.text, t.textChars = replacer(text)
	t.attr, t.attrChars = replacer(attr)
	return t
}

func replacer(m map[rune]string) (*strings.Replacer, string) {
	keys := make([]rune, 0, len(m))
	for r := range m {
		keys = append(keys, r)
	}
	slices.Sort(keys)
	pairs := make([]string, 0, 2*len(keys))
	for _, r := range keys {
		pairs = append(pairs, string(r), m[r])
	}
	return strings.NewReplacer(pairs...), string(keys)
}

var htmlTable = New(
	map[rune]string{'&': "&amp;", '<': "&lt;", '>': "&gt;"},
	map[rune]string{'&': "&amp;", '<': "&lt;", '>': "&gt;", '"': "&quot;"},
)

// HTML returns the default table: '&', '<' and '>' everywhere, plus '"' in
// attribute values.
func HTML() *Table { return htmlTable }

// String returns s escaped for ctx.
func (t *Table) String(s string, ctx Context) string {
	if !t.needs(s, ctx) {
		return s
	}
	return t.replacer(ctx).Replace(s)
}

// WriteString writes s escaped for ctx to w.
func (t *Table) WriteString(w io.Writer, s string, ctx Context) (int, error) {
	if !t.needs(s, ctx) {
		return io.WriteString(w, s)
	}
	return t.replacer(ctx).WriteString(w, s)
}

// Special returns the characters escaped in ctx.
func (t *Table) Special(ctx Context) string {
	if ctx == AttributeValue {
		return t.attrChars
	}
	return t.textChars
}

func (t *Table) needs(s string, ctx Context) bool {
	return strings.ContainsAny(s, t.Special(ctx))
}

func (t *Table) replacer(ctx Context) *strings.Replacer {
	if ctx == AttributeValue {
		return t.attr
	}
	return t.text
}

// String escapes s for ctx with the HTML table.
func String(s string, ctx Context) string { return htmlTable.String(s, ctx) }

// WriteString writes s escaped for ctx with the HTML table.
func WriteString(w io.Writer, s string, ctx Context) (int, error) {
	return htmlTable.WriteString(w, s, ctx)
}
