// Package diag defines source positions and the compile-time diagnostics
// produced by the lexer, parser and validator.
//
// Diagnostics are plain data. Nothing in the compiler pipeline logs them;
// callers decide whether to print, collect or discard them.
package diag

import (
	"errors"
	"fmt"
)

// Pos is a position in template source.
//
// Line and Column are 1-based; Column counts bytes from the start of the
// line. Offset is the 0-based byte offset from the start of the source.
type Pos struct {
	Line   int `json:"line"`
	Column int `json:"column"`
	Offset int `json:"offset"`
}

// IsValid reports whether p was set by a scanner.
func (p Pos) IsValid() bool { return p.Line > 0 }

func (p Pos) String() string {
	if !p.IsValid() {
		return "-"
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Span is a half-open source range [Start, End).
type Span struct {
	Start Pos `json:"start"`
	End   Pos `json:"end"`
}

func (s Span) String() string {
	return s.Start.String() + "-" + s.End.String()
}

// Join returns the smallest span covering both s and o.
func (s Span) Join(o Span) Span {
	out := s
	if !out.Start.IsValid() || (o.Start.IsValid() && o.Start.Offset < out.Start.Offset) {
		out.Start = o.Start
	}
	if !out.End.IsValid() || (o.End.IsValid() && o.End.Offset > out.End.Offset) {
		out.End = o.End
	}
	return out
}

// Kind classifies a diagnostic.
type Kind uint8

const (
	LexError Kind = iota + 1
	ParseError
	ValidationError
)

func (k Kind) String() string {
	switch k {
	case LexError:
		return "LexError"
	case ParseError:
		return "ParseError"
	case ValidationError:
		return "ValidationError"
	default:
		return "UnknownError"
	}
}

// MarshalText lets Kind appear by name in JSON reports.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Error is a single compile-time diagnostic.
type Error struct {
	Kind Kind
	Span Span
	Msg  string
	// Hint is an optional suggestion, e.g. a likely intended name.
	Hint string
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s at %s: %s", e.Kind, e.Span.Start, e.Msg)
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	return msg
}

// Errorf builds an *Error of the given kind.
func Errorf(kind Kind, span Span, format string, args ...any) *Error {
	return &Error{Kind: kind, Span: span, Msg: fmt.Sprintf(format, args...)}
}

// WithHint returns a copy of e carrying hint.
func (e *Error) WithHint(hint string) *Error {
	c := *e
	c.Hint = hint
	return &c
}

// As extracts a *Error from err, if any.
func As(err error) (*Error, bool) {
	var d *Error
	if errors.As(err, &d) {
		return d, true
	}
	return nil, false
}

// IsKind reports whether err is a diagnostic of the given kind.
func IsKind(err error, kind Kind) bool {
	d, ok := As(err)
	return ok && d.Kind == kind
}
