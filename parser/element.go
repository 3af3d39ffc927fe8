package parser

import (
	"fmt"

	"github.com/abiiranathan/go-markup/ast"
	"github.com/abiiranathan/go-markup/diag"
	"github.com/abiiranathan/go-markup/token"
)

// parseElement parses the rest of an element after its name:
//
//	shorthand* attr* ( ';' | '{' markup* '}' )
func (p *parser) parseElement(name string, nameSpan diag.Span) (ast.Node, error) {
	el := &ast.Element{Name: name, Kind: p.elems.Classify(name), NamePos: nameSpan}

	var class, id *ast.Attr
	for p.tok.Kind == token.Dot || p.tok.Kind == token.Hash {
		marker := p.tok
		if err := p.advance(); err != nil {
			return nil, err
		}
		what := "class name"
		if marker.Kind == token.Hash {
			what = "id"
		}
		part, span, err := p.parseShorthandName(what)
		if err != nil {
			return nil, err
		}
		span = marker.Span.Join(span)

		if marker.Kind == token.Hash {
			if id == nil {
				id = &ast.Attr{Name: "id", Kind: ast.AttrList, Sep: " ", Shorthand: true, Pos: span}
				el.Attrs = append(el.Attrs, id)
			}
			id.Parts = append(id.Parts, part)
			id.Pos = id.Pos.Join(span)
			continue
		}

		if p.tok.Is(token.SpliceOpen, "[") {
			cond, condSpan, err := p.parseSplice()
			if err != nil {
				return nil, err
			}
			part.Cond = &cond
			span = span.Join(condSpan)
		}
		if class == nil {
			class = &ast.Attr{Name: "class", Kind: ast.AttrList, Sep: " ", Shorthand: true, Pos: span}
			el.Attrs = append(el.Attrs, class)
		}
		class.Parts = append(class.Parts, part)
		class.Pos = class.Pos.Join(span)
	}

	for p.tok.Kind == token.Ident {
		a, err := p.parseAttr()
		if err != nil {
			return nil, err
		}
		el.Attrs = append(el.Attrs, a)
	}

	switch p.tok.Kind {
	case token.Semi:
		el.Pos = nameSpan.Join(p.tok.Span)
		return el, p.advance()
	case token.LBrace:
		body, err := p.parseBlock(fmt.Sprintf("element <%s>", name), nameSpan)
		if err != nil {
			return nil, err
		}
		el.Body = body
		el.Pos = nameSpan.Join(body.Pos)
		return el, nil
	}
	return nil, p.unexpected(fmt.Sprintf("attribute, ';' or '{' after element <%s>", name))
}

// parseShorthandName parses the name after '.' or '#': an identifier,
// number, string, or (expr).
func (p *parser) parseShorthandName(what string) (ast.AttrPart, diag.Span, error) {
	tok := p.tok
	switch tok.Kind {
	case token.Ident, token.Number, token.String:
		return ast.AttrPart{Text: tok.Value}, tok.Span, p.advance()
	case token.SpliceOpen:
		if tok.Text == "(" {
			e, span, err := p.parseSplice()
			if err != nil {
				return ast.AttrPart{}, diag.Span{}, err
			}
			return ast.AttrPart{Expr: &e}, span, nil
		}
	}
	return ast.AttrPart{}, diag.Span{}, p.unexpected(what)
}

// parseAttr parses one attribute; the current token is its name.
func (p *parser) parseAttr() (*ast.Attr, error) {
	name := p.tok
	if err := p.advance(); err != nil {
		return nil, err
	}
	a := &ast.Attr{Name: name.Value, Pos: name.Span}

	if p.tok.Is(token.SpliceOpen, "[") {
		cond, span, err := p.parseSplice()
		if err != nil {
			return nil, err
		}
		a.Kind, a.Expr, a.Pos = ast.AttrToggle, cond, a.Pos.Join(span)
		return a, nil
	}
	if p.tok.Kind != token.Assign {
		a.Kind = ast.AttrEmpty
		return a, nil
	}
	if err := p.advance(); err != nil {
		return nil, err
	}

	tok := p.tok
	switch tok.Kind {
	case token.String, token.Number:
		a.Kind, a.Value, a.Pos = ast.AttrLiteral, tok.Value, a.Pos.Join(tok.Span)
		return a, p.advance()

	case token.Bang:
		if err := p.advance(); err != nil {
			return nil, err
		}
		a.Raw = true
		if p.tok.Kind == token.String {
			a.Kind, a.Value, a.Pos = ast.AttrLiteral, p.tok.Value, a.Pos.Join(p.tok.Span)
			return a, p.advance()
		}
		if !p.tok.Is(token.SpliceOpen, "(") {
			return nil, p.unexpected("string or '(' after '!'")
		}
		fallthrough

	case token.SpliceOpen:
		if p.tok.Text != "(" {
			break
		}
		e, span, err := p.parseSplice()
		if err != nil {
			return nil, err
		}
		a.Kind, a.Expr, a.Pos = ast.AttrExpr, e, a.Pos.Join(span)
		return a, nil

	case token.LBrace:
		return p.parseAttrList(a)
	}
	return nil, p.unexpected(fmt.Sprintf("value for attribute %q", a.Name))
}

// parseAttrList parses a braced attribute value: { (STRING | NUMBER | (expr))* }.
func (p *parser) parseAttrList(a *ast.Attr) (*ast.Attr, error) {
	open := p.tok
	if err := p.advance(); err != nil {
		return nil, err
	}
	a.Kind = ast.AttrList
	for p.tok.Kind != token.RBrace {
		switch tok := p.tok; {
		case tok.Kind == token.EOF:
			return nil, p.errorf(open.Span, "unterminated value for attribute %q: expected '}' before end of input", a.Name)
		case tok.Kind == token.String || tok.Kind == token.Number:
			a.Parts = append(a.Parts, ast.AttrPart{Text: tok.Value})
			if err := p.advance(); err != nil {
				return nil, err
			}
		case tok.Is(token.SpliceOpen, "("):
			e, _, err := p.parseSplice()
			if err != nil {
				return nil, err
			}
			a.Parts = append(a.Parts, ast.AttrPart{Expr: &e})
		default:
			return nil, p.unexpected("string or '(' in attribute value")
		}
	}
	a.Pos = a.Pos.Join(p.tok.Span)
	return a, p.advance()
}
