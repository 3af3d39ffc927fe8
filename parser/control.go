package parser

import (
	"github.com/abiiranathan/go-markup/ast"
	"github.com/abiiranathan/go-markup/diag"
	"github.com/abiiranathan/go-markup/elements"
	"github.com/abiiranathan/go-markup/token"
)

// parseControl parses a control construct; the current token is '@'.
func (p *parser) parseControl() (ast.Node, error) {
	at := p.tok
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.tok.Kind != token.Ident {
		return nil, p.unexpected("control keyword after '@'")
	}
	kw := p.tok
	if err := p.advance(); err != nil {
		return nil, err
	}

	switch kw.Value {
	case "if":
		return p.parseIf(at)
	case "for":
		return p.parseFor(at)
	case "while":
		return p.parseWhile(at)
	case "let":
		return p.parseLet(at)
	case "match":
		return p.parseMatch(at)
	case "else":
		return nil, diag.Errorf(diag.ValidationError, at.Span.Join(kw.Span),
			"@else must directly follow the body of an @if or @else if")
	}
	err := p.errorf(at.Span.Join(kw.Span), "unknown control keyword @%s", kw.Value)
	if s := elements.Closest(kw.Value, Keywords); s != "" {
		return nil, err.WithHint("did you mean @" + s + "?")
	}
	return nil, err
}

func (p *parser) parseIf(at token.Token) (ast.Node, error) {
	n := &ast.If{}
	cond, err := p.parseExpr("condition after @if")
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock("@if body", at.Span)
	if err != nil {
		return nil, err
	}
	n.Branches = append(n.Branches, ast.Branch{Cond: cond, Body: body})
	end := body.Pos

	for p.tok.Kind == token.At {
		next, err := p.lookahead()
		if err != nil {
			return nil, err
		}
		if !next.Is(token.Ident, "else") {
			break
		}
		elseAt := p.tok
		if err := p.advance(); err != nil { // '@'
			return nil, err
		}
		if err := p.advance(); err != nil { // else
			return nil, err
		}

		if p.tok.Is(token.Ident, "if") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			cond, err := p.parseExpr("condition after @else if")
			if err != nil {
				return nil, err
			}
			body, err := p.parseBlock("@else if body", elseAt.Span)
			if err != nil {
				return nil, err
			}
			n.Branches = append(n.Branches, ast.Branch{Cond: cond, Body: body})
			end = body.Pos
			continue
		}

		body, err := p.parseBlock("@else body", elseAt.Span)
		if err != nil {
			return nil, err
		}
		n.Else = body
		end = body.Pos
		break
	}
	n.Pos = at.Span.Join(end)
	return n, nil
}

func (p *parser) parseFor(at token.Token) (ast.Node, error) {
	binding, err := p.parseBinding("@for")
	if err != nil {
		return nil, err
	}
	if !p.tok.Is(token.Ident, "in") {
		return nil, p.unexpected("'in' in @for")
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	iter, err := p.parseExpr("iterable after 'in'")
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock("@for body", at.Span)
	if err != nil {
		return nil, err
	}
	return &ast.For{Binding: binding, Iter: iter, Body: body, Pos: at.Span.Join(body.Pos)}, nil
}

func (p *parser) parseWhile(at token.Token) (ast.Node, error) {
	cond, err := p.parseExpr("condition after @while")
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock("@while body", at.Span)
	if err != nil {
		return nil, err
	}
	return &ast.While{Cond: cond, Body: body, Pos: at.Span.Join(body.Pos)}, nil
}

func (p *parser) parseLet(at token.Token) (ast.Node, error) {
	binding, err := p.parseBinding("@let")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Assign, "'=' in @let"); err != nil {
		return nil, err
	}
	init, err := p.parseExpr("expression after '='")
	if err != nil {
		return nil, err
	}
	semi, err := p.expect(token.Semi, "';' after @let expression")
	if err != nil {
		return nil, err
	}
	return &ast.Let{Binding: binding, Init: init, Pos: at.Span.Join(semi.Span)}, nil
}

// parseBinding parses `name` or `key, value`.
func (p *parser) parseBinding(construct string) (ast.Binding, error) {
	var b ast.Binding
	first, err := p.expect(token.Ident, "binding name in "+construct)
	if err != nil {
		return b, err
	}
	b.Names = append(b.Names, first.Value)
	b.Span = first.Span
	if p.tok.Kind == token.Comma {
		if err := p.advance(); err != nil {
			return b, err
		}
		second, err := p.expect(token.Ident, "second binding name in "+construct)
		if err != nil {
			return b, err
		}
		b.Names = append(b.Names, second.Value)
		b.Span = b.Span.Join(second.Span)
	}
	return b, nil
}

func (p *parser) parseMatch(at token.Token) (ast.Node, error) {
	subject, err := p.parseExpr("subject after @match")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LBrace, "'{' after @match subject"); err != nil {
		return nil, err
	}
	n := &ast.Match{Subject: subject}
	for p.tok.Kind != token.RBrace {
		switch p.tok.Kind {
		case token.EOF:
			return nil, p.errorf(at.Span, "unterminated @match: expected '}' before end of input")
		case token.Comma:
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		arm, err := p.parseArm()
		if err != nil {
			return nil, err
		}
		n.Arms = append(n.Arms, arm)
	}
	n.Pos = at.Span.Join(p.tok.Span)
	return n, p.advance()
}

// parseArm parses `pattern ( '|' pattern )* ( 'if' guard )? '=>' body`.
func (p *parser) parseArm() (ast.Arm, error) {
	var arm ast.Arm
	start := p.tok.Span
	for {
		pat, err := p.parseExpr("match pattern")
		if err != nil {
			return arm, err
		}
		arm.Patterns = append(arm.Patterns, pat)
		if p.tok.Kind != token.Pipe {
			break
		}
		if err := p.advance(); err != nil {
			return arm, err
		}
	}
	if p.tok.Is(token.Ident, "if") {
		if err := p.advance(); err != nil {
			return arm, err
		}
		guard, err := p.parseExpr("guard after 'if'")
		if err != nil {
			return arm, err
		}
		arm.Guard = &guard
	}
	if _, err := p.expect(token.Arrow, "'=>' after match pattern"); err != nil {
		return arm, err
	}

	if p.tok.Kind == token.LBrace {
		body, err := p.parseBlock("match arm", p.tok.Span)
		if err != nil {
			return arm, err
		}
		arm.Body = body
	} else {
		n, err := p.parseItem()
		if err != nil {
			return arm, err
		}
		arm.Body = &ast.Fragment{Nodes: []ast.Node{n}, Pos: n.Span()}
		if p.tok.Kind != token.Comma && p.tok.Kind != token.RBrace {
			return arm, p.unexpected("',' or '}' after match arm")
		}
	}
	arm.Pos = start.Join(arm.Body.Pos)
	return arm, nil
}
