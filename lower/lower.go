// Package lower turns a validated Markup AST into an Output Program.
//
// Lowering is a single depth-first traversal. Static markup (tags, literal
// attributes, literal text) is escaped here, at compile time, and folded
// into WriteLiteral instructions; adjacent literals are merged, including
// across tag boundaries. Dynamic content becomes WriteEscaped or WriteRaw,
// and control constructs become Block instructions that keep the source's
// branch and loop structure, so expressions are evaluated in the same order
// as a direct execution of the template would evaluate them.
package lower

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/abiiranathan/go-markup/ast"
	"github.com/abiiranathan/go-markup/escape"
	"github.com/abiiranathan/go-markup/program"
)

// WhitespacePolicy controls literal text whitespace.
type WhitespacePolicy uint8

const (
	// Preserve writes literal text exactly as written.
	Preserve WhitespacePolicy = iota
	// Collapse replaces each run of whitespace in literal text with one
	// space.
	Collapse
)

func (w WhitespacePolicy) String() string {
	if w == Collapse {
		return "collapse"
	}
	return "preserve"
}

// ParseWhitespace parses "preserve" or "collapse".
func ParseWhitespace(s string) (WhitespacePolicy, bool) {
	switch strings.ToLower(s) {
	case "", "preserve":
		return Preserve, true
	case "collapse":
		return Collapse, true
	}
	return Preserve, false
}

// Config controls lowering.
type Config struct {
	Whitespace WhitespacePolicy
	// Escape is the table for compile-time escaping of static text and for
	// the resulting program's WriteEscaped instructions. Nil means HTML.
	Escape *escape.Table
}

// Lower lowers root into a Program.
func Lower(root *ast.Fragment, cfg Config) *program.Program {
	if cfg.Escape == nil {
		cfg.Escape = escape.HTML()
	}
	l := &lowerer{cfg: cfg}
	return program.New(l.seq(root.Nodes), cfg.Escape)
}

type lowerer struct {
	cfg Config
}

// emitter accumulates one instruction sequence, merging adjacent literals.
type emitter struct {
	out      []program.Instr
	collapse bool
}

func (e *emitter) literal(s string) {
	if s == "" {
		return
	}
	n := len(e.out)
	if n == 0 || e.out[n-1].Op != program.WriteLiteral {
		e.out = append(e.out, program.Instr{Op: program.WriteLiteral, Text: s})
		return
	}
	e.out[n-1].Text += s
}

// endsWithSpace reports whether the pending literal ends in a space.
func (e *emitter) endsWithSpace() bool {
	n := len(e.out)
	return n > 0 && e.out[n-1].Op == program.WriteLiteral && strings.HasSuffix(e.out[n-1].Text, " ")
}

func (e *emitter) expr(x ast.Expr, raw bool, ctx escape.Context) {
	in := program.Instr{Op: program.WriteEscaped, Expr: &x, Context: ctx}
	if raw {
		in = program.Instr{Op: program.WriteRaw, Expr: &x}
	}
	e.out = append(e.out, in)
}

func (e *emitter) block(b *program.BlockInstr) {
	e.out = append(e.out, program.Instr{Op: program.Block, Block: b})
}

// seq lowers a sibling list into a fresh instruction sequence.
func (l *lowerer) seq(nodes []ast.Node) []program.Instr {
	e := &emitter{collapse: l.cfg.Whitespace == Collapse}
	l.nodes(e, nodes)
	return e.out
}

func (l *lowerer) nodes(e *emitter, nodes []ast.Node) {
	for i, n := range nodes {
		if let, ok := n.(*ast.Let); ok {
			// A let scopes over the rest of its siblings.
			init := let.Init
			e.block(&program.BlockInstr{
				Kind:    program.Let,
				Expr:    &init,
				Binding: let.Binding,
				Body:    l.seq(nodes[i+1:]),
				Span:    let.Pos,
			})
			return
		}
		l.node(e, n)
	}
}

func (l *lowerer) node(e *emitter, n ast.Node) {
	switch n := n.(type) {
	case *ast.Fragment:
		l.nodes(e, n.Nodes)
	case *ast.Text:
		l.text(e, n)
	case *ast.Element:
		l.element(e, n)
	case *ast.If:
		b := &program.BlockInstr{Kind: program.If, Span: n.Pos}
		for _, br := range n.Branches {
			cond := br.Cond
			b.Cases = append(b.Cases, program.Case{Cond: &cond, Body: l.body(br.Body)})
		}
		if n.Else != nil {
			b.Else = l.body(n.Else)
		}
		e.block(b)
	case *ast.For:
		iter := n.Iter
		e.block(&program.BlockInstr{Kind: program.For, Expr: &iter, Binding: n.Binding, Body: l.body(n.Body), Span: n.Pos})
	case *ast.While:
		cond := n.Cond
		e.block(&program.BlockInstr{Kind: program.While, Expr: &cond, Body: l.body(n.Body), Span: n.Pos})
	case *ast.Match:
		subject := n.Subject
		b := &program.BlockInstr{Kind: program.Match, Expr: &subject, Span: n.Pos}
		for _, arm := range n.Arms {
			b.Cases = append(b.Cases, program.Case{
				Patterns: arm.Patterns,
				Guard:    arm.Guard,
				Body:     l.body(arm.Body),
			})
		}
		e.block(b)
	case *ast.Let:
		l.nodes(e, []ast.Node{n})
	}
}

// body lowers a control body. The result is never nil so that an empty
// else body stays distinguishable from no else body.
func (l *lowerer) body(f *ast.Fragment) []program.Instr {
	out := l.seq(f.Nodes)
	if out == nil {
		out = []program.Instr{}
	}
	return out
}

func (l *lowerer) text(e *emitter, t *ast.Text) {
	switch t.Kind {
	case ast.Literal:
		s := t.Value
		if e.collapse {
			s = collapseSpace(s)
			if strings.HasPrefix(s, " ") && e.endsWithSpace() {
				s = s[1:]
			}
		}
		if t.Escape {
			s = l.cfg.Escape.String(s, escape.TextBody)
		}
		e.literal(s)
	case ast.Splice:
		e.expr(t.Expr, !t.Escape, escape.TextBody)
	}
}

func (l *lowerer) element(e *emitter, el *ast.Element) {
	e.literal("<" + el.Name)
	for _, a := range el.Attrs {
		l.attr(e, a)
	}
	e.literal(">")
	if el.Kind == ast.Void {
		return
	}
	if el.Body != nil {
		l.nodes(e, el.Body.Nodes)
	}
	e.literal("</" + el.Name + ">")
}

// attr is the attribute mini-lowering: literal values fold into the
// surrounding literal text; dynamic values and toggles become escaped
// writes and conditional blocks.
func (l *lowerer) attr(e *emitter, a *ast.Attr) {
	switch a.Kind {
	case ast.AttrEmpty:
		e.literal(" " + a.Name)

	case ast.AttrLiteral:
		v := a.Value
		if !a.Raw {
			v = l.cfg.Escape.String(v, escape.AttributeValue)
		}
		e.literal(" " + a.Name + `="` + v + `"`)

	case ast.AttrExpr:
		e.literal(" " + a.Name + `="`)
		e.expr(a.Expr, a.Raw, escape.AttributeValue)
		e.literal(`"`)

	case ast.AttrToggle:
		cond := a.Expr
		e.block(&program.BlockInstr{
			Kind:  program.If,
			Cases: []program.Case{{Cond: &cond, Body: []program.Instr{{Op: program.WriteLiteral, Text: " " + a.Name}}}},
			Span:  a.Pos,
		})

	case ast.AttrList:
		e.literal(" " + a.Name + `="`)
		for i, p := range a.Parts {
			target := e
			var inner *emitter
			if p.Cond != nil {
				inner = &emitter{}
				target = inner
			}
			if i > 0 {
				target.literal(a.Sep)
			}
			if p.Expr != nil {
				target.expr(*p.Expr, false, escape.AttributeValue)
			} else {
				target.literal(l.cfg.Escape.String(p.Text, escape.AttributeValue))
			}
			if inner != nil {
				e.block(&program.BlockInstr{
					Kind:  program.If,
					Cases: []program.Case{{Cond: p.Cond, Body: inner.out}},
					Span:  a.Pos,
				})
			}
		}
		e.literal(`"`)
	}
}

func collapseSpace(s string) string {
	if !strings.ContainsFunc(s, unicode.IsSpace) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	inSpace := false
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		s = s[size:]
		if unicode.IsSpace(r) {
			if !inSpace {
				b.WriteByte(' ')
			}
			inSpace = true
			continue
		}
		inSpace = false
		b.WriteRune(r)
	}
	return b.String()
}
