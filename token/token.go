// Package token defines the lexical tokens of the markup template language.
package token

import (
	"fmt"

	"github.com/abiiranathan/go-markup/diag"
)

// Kind is the class of a token.
type Kind uint8

const (
	EOF Kind = iota

	Ident  // p, data-id, my-widget, xlink:href, if, else
	String // "text" or `raw`; Value holds the decoded text
	Number // 42, 3.5

	// Expression boundary markers. Expr carries the raw host-language
	// source between a pair of delimiters or up to a header terminator.
	SpliceOpen  // ( or [
	SpliceClose // ) or ]
	Expr

	LBrace // {
	RBrace // }
	Semi   // ;
	Dot    // .
	Hash   // #
	Assign // =
	At     // @
	Bang   // !
	Comma  // ,
	Pipe   // |
	Arrow  // =>
)

var kindNames = [...]string{
	EOF:         "end of input",
	Ident:       "identifier",
	String:      "string literal",
	Number:      "number",
	SpliceOpen:  "splice open",
	SpliceClose: "splice close",
	Expr:        "expression",
	LBrace:      "'{'",
	RBrace:      "'}'",
	Semi:        "';'",
	Dot:         "'.'",
	Hash:        "'#'",
	Assign:      "'='",
	At:          "'@'",
	Bang:        "'!'",
	Comma:       "','",
	Pipe:        "'|'",
	Arrow:       "'=>'",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Token is an immutable lexical unit.
type Token struct {
	Kind Kind
	// Text is the raw source slice covered by the token.
	Text string
	// Value is the decoded value of String tokens, the trimmed source of
	// Expr tokens, and Text for everything else.
	Value string
	Span  diag.Span
}

// Is reports whether t is of kind k and, when text is non-empty, has that text.
func (t Token) Is(k Kind, text string) bool {
	return t.Kind == k && (text == "" || t.Text == text)
}

// Describe renders the token for "expected X, found Y" messages.
func (t Token) Describe() string {
	switch t.Kind {
	case EOF:
		return "end of input"
	case Ident:
		return fmt.Sprintf("identifier %q", t.Text)
	case String:
		return fmt.Sprintf("string %s", t.Text)
	case Number:
		return fmt.Sprintf("number %s", t.Text)
	case Expr:
		return fmt.Sprintf("expression %q", t.Value)
	case SpliceOpen, SpliceClose:
		return fmt.Sprintf("'%s'", t.Text)
	default:
		return t.Kind.String()
	}
}

func (t Token) String() string {
	return fmt.Sprintf("%s %q @%s", t.Kind, t.Text, t.Span.Start)
}
