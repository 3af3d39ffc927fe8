// Package parser implements a recursive-descent parser for markup
// templates.
//
// The parser pulls tokens from the lexer one at a time, so the first lexical
// or grammatical problem in source order is the one reported. There is no
// error recovery: the first failure ends the parse.
//
// One structural rule is checked here rather than in the validator because
// it needs the token stream: an @else is only valid directly after the body
// of an @if or @else if. A stray @else is reported as a ValidationError.
package parser

import (
	"fmt"

	"github.com/abiiranathan/go-markup/ast"
	"github.com/abiiranathan/go-markup/diag"
	"github.com/abiiranathan/go-markup/elements"
	"github.com/abiiranathan/go-markup/lexer"
	"github.com/abiiranathan/go-markup/token"
)

// Keywords are the control directives accepted after '@'.
var Keywords = []string{"if", "else", "for", "while", "let", "match"}

// Parse parses src into the template root. Element names are classified
// with elems; a nil table means elements.HTML().
func Parse(src string, elems *elements.Table) (*ast.Fragment, error) {
	if elems == nil {
		elems = elements.HTML()
	}
	p := &parser{lx: lexer.New(src), elems: elems}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p.parseTemplate()
}

type parser struct {
	lx    *lexer.Lexer
	elems *elements.Table

	tok  token.Token   // current token
	peek []token.Token // lookahead beyond tok
}

func (p *parser) advance() error {
	if len(p.peek) > 0 {
		p.tok = p.peek[0]
		p.peek = p.peek[1:]
		return nil
	}
	tok, err := p.lx.Next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

// lookahead returns the token after the current one.
func (p *parser) lookahead() (token.Token, error) {
	if len(p.peek) == 0 {
		tok, err := p.lx.Next()
		if err != nil {
			return token.Token{}, err
		}
		p.peek = append(p.peek, tok)
	}
	return p.peek[0], nil
}

func (p *parser) errorf(span diag.Span, format string, args ...any) *diag.Error {
	return diag.Errorf(diag.ParseError, span, format, args...)
}

func (p *parser) unexpected(want string) *diag.Error {
	return p.errorf(p.tok.Span, "expected %s, found %s", want, p.tok.Describe())
}

// expect consumes a token of kind k or fails with an expected-vs-found error.
func (p *parser) expect(k token.Kind, want string) (token.Token, error) {
	if p.tok.Kind != k {
		return token.Token{}, p.unexpected(want)
	}
	tok := p.tok
	return tok, p.advance()
}

func (p *parser) parseTemplate() (*ast.Fragment, error) {
	root := &ast.Fragment{}
	for p.tok.Kind != token.EOF {
		if p.tok.Kind == token.RBrace {
			return nil, p.errorf(p.tok.Span, "unmatched '}'")
		}
		if err := p.parseMarkup(root); err != nil {
			return nil, err
		}
	}
	root.Pos = fragmentSpan(root, p.tok.Span)
	return root, nil
}

// parseBlock parses `{ markup* }`; the current token must be '{'. what
// names the construct for the unterminated-block error, which is reported
// at openSpan.
func (p *parser) parseBlock(what string, openSpan diag.Span) (*ast.Fragment, error) {
	open, err := p.expect(token.LBrace, "'{'")
	if err != nil {
		return nil, err
	}
	frag := &ast.Fragment{}
	for p.tok.Kind != token.RBrace {
		if p.tok.Kind == token.EOF {
			return nil, p.errorf(openSpan, "unterminated %s: expected '}' before end of input", what)
		}
		if err := p.parseMarkup(frag); err != nil {
			return nil, err
		}
	}
	frag.Pos = open.Span.Join(p.tok.Span)
	return frag, p.advance()
}

// parseMarkup parses one markup item and appends it to frag.
func (p *parser) parseMarkup(frag *ast.Fragment) error {
	n, err := p.parseItem()
	if err != nil {
		return err
	}
	frag.Nodes = append(frag.Nodes, n)
	return nil
}

func (p *parser) parseItem() (ast.Node, error) {
	switch tok := p.tok; tok.Kind {
	case token.String, token.Number:
		return &ast.Text{Kind: ast.Literal, Value: tok.Value, Escape: true, Pos: tok.Span}, p.advance()

	case token.Bang:
		return p.parseRaw()

	case token.SpliceOpen:
		if tok.Text != "(" {
			return nil, p.errorf(tok.Span, "unexpected '['; toggles are only allowed after attribute and class names")
		}
		e, span, err := p.parseSplice()
		if err != nil {
			return nil, err
		}
		return &ast.Text{Kind: ast.Splice, Expr: e, Escape: true, Pos: span}, nil

	case token.LBrace:
		return p.parseBlock("block", tok.Span)

	case token.At:
		return p.parseControl()

	case token.Ident:
		name := tok
		if err := p.advance(); err != nil {
			return nil, err
		}
		return p.parseElement(name.Value, name.Span)

	case token.Dot, token.Hash:
		// Shorthand with no name is a div.
		return p.parseElement("div", diag.Span{Start: tok.Span.Start, End: tok.Span.Start})

	case token.RBrace:
		return nil, p.errorf(tok.Span, "unmatched '}'")
	}
	return nil, p.unexpected("markup")
}

// parseRaw parses !"literal" and !(expr).
func (p *parser) parseRaw() (ast.Node, error) {
	bang := p.tok
	if err := p.advance(); err != nil {
		return nil, err
	}
	switch {
	case p.tok.Kind == token.String:
		tok := p.tok
		return &ast.Text{Kind: ast.Literal, Value: tok.Value, Pos: bang.Span.Join(tok.Span)}, p.advance()
	case p.tok.Is(token.SpliceOpen, "("):
		e, span, err := p.parseSplice()
		if err != nil {
			return nil, err
		}
		return &ast.Text{Kind: ast.Splice, Expr: e, Pos: bang.Span.Join(span)}, nil
	}
	return nil, p.unexpected("string or '(' after '!'")
}

// parseSplice parses SpliceOpen Expr SpliceClose.
func (p *parser) parseSplice() (ast.Expr, diag.Span, error) {
	open := p.tok
	if err := p.advance(); err != nil {
		return ast.Expr{}, diag.Span{}, err
	}
	e, err := p.parseExpr("expression")
	if err != nil {
		return ast.Expr{}, diag.Span{}, err
	}
	closeTok, err := p.expect(token.SpliceClose, fmt.Sprintf("'%s'", closerOf(open.Text)))
	if err != nil {
		return ast.Expr{}, diag.Span{}, err
	}
	return e, open.Span.Join(closeTok.Span), nil
}

// parseExpr consumes an Expr token, rejecting empty expressions.
func (p *parser) parseExpr(what string) (ast.Expr, error) {
	if p.tok.Kind != token.Expr {
		return ast.Expr{}, p.unexpected(what)
	}
	tok := p.tok
	if tok.Value == "" {
		return ast.Expr{}, p.errorf(tok.Span, "expected %s, found nothing", what)
	}
	return ast.Expr{Src: tok.Value, Span: tok.Span}, p.advance()
}

func closerOf(open string) string {
	if open == "[" {
		return "]"
	}
	return ")"
}

func fragmentSpan(f *ast.Fragment, end diag.Span) diag.Span {
	if len(f.Nodes) == 0 {
		return diag.Span{Start: end.Start, End: end.Start}
	}
	return f.Nodes[0].Span().Join(f.Nodes[len(f.Nodes)-1].Span())
}
