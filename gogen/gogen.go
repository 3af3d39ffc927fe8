// Package gogen is the ahead-of-time backend: it turns an Output Program
// into Go source for a function that builds the template output with a
// strings.Builder.
//
// Splices and control headers are emitted as Go expressions, so a template
// compiled with gogen is written in Go's expression language rather than
// expr-lang. Values are converted and escaped with the same helpers the
// interpreter uses (program.Text, program.Truth, program.Equal and
// escape.WriteString), so both backends produce the same output.
//
// Generated code escapes with the HTML table only; Generate rejects a
// program lowered with any other escape.Table.
//
// Generated code is formatted, and its imports fixed, by
// golang.org/x/tools/imports.
package gogen

import (
	"bytes"
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/tools/imports"

	mast "github.com/abiiranathan/go-markup/ast"
	"github.com/abiiranathan/go-markup/escape"
	"github.com/abiiranathan/go-markup/program"
)

const (
	escapePkg  = "github.com/abiiranathan/go-markup/escape"
	programPkg = "github.com/abiiranathan/go-markup/program"
)

// ErrCustomEscape is returned by Generate for a program whose escape table
// is not escape.HTML().
var ErrCustomEscape = errors.New("gogen: programs with a custom escape table are not supported")

// Config names the generated function.
type Config struct {
	// Package is the package clause of the generated file.
	Package string
	// Func is the generated function name.
	Func string
	// Params is the parameter list without parentheses, e.g.
	// "title string, items []Item".
	Params string
	// Imports are extra import paths added before goimports runs, for
	// packages that cannot be resolved from the standard library.
	Imports []string
	// Source names the template file in the generated header.
	Source string
}

// Generate returns formatted Go source for p.
func Generate(p *program.Program, cfg Config) ([]byte, error) {
	if cfg.Package == "" {
		cfg.Package = "main"
	}
	if !token.IsIdentifier(cfg.Func) {
		return nil, fmt.Errorf("invalid function name %q", cfg.Func)
	}
	if p.Escape() != escape.HTML() {
		return nil, ErrCustomEscape
	}
	params, err := paramNames(cfg.Params)
	if err != nil {
		return nil, err
	}

	g := &generator{bound: make(map[string]int)}
	for _, name := range params {
		g.bind(name)
	}

	header := "// Code generated by markup build. DO NOT EDIT."
	if cfg.Source != "" {
		header = fmt.Sprintf("// Code generated by markup build from %s. DO NOT EDIT.", cfg.Source)
	}
	g.printf("%s\n\npackage %s\n\n", header, cfg.Package)
	g.printf("import (\n\t\"strings\"\n\n\t%q\n\t%q\n", escapePkg, programPkg)
	for _, path := range cfg.Imports {
		g.printf("\t%q\n", path)
	}
	g.printf(")\n\n")

	g.printf("// %s renders the template.\n", cfg.Func)
	g.printf("func %s(%s) string {\n", cfg.Func, cfg.Params)
	g.printf("var b strings.Builder\n")
	g.seq(p.Instrs)
	g.printf("return b.String()\n}\n")

	name := cfg.Func + ".go"
	out, err := imports.Process(name, g.buf.Bytes(), &imports.Options{
		Comments:  true,
		TabIndent: true,
		TabWidth:  8,
	})
	if err != nil {
		return nil, fmt.Errorf("format generated code: %w", err)
	}
	return out, nil
}

// paramNames validates a parameter list and returns its names.
func paramNames(params string) ([]string, error) {
	x, err := parser.ParseExpr("func(" + params + ")")
	if err != nil {
		return nil, fmt.Errorf("invalid parameter list %q: %w", params, err)
	}
	ft, ok := x.(*ast.FuncType)
	if !ok {
		return nil, fmt.Errorf("invalid parameter list %q", params)
	}
	var names []string
	for _, f := range ft.Params.List {
		if len(f.Names) == 0 {
			return nil, fmt.Errorf("parameter of type %s has no name", types.ExprString(f.Type))
		}
		for _, n := range f.Names {
			names = append(names, n.Name)
		}
	}
	return names, nil
}

type generator struct {
	buf   bytes.Buffer
	bound map[string]int // names in Go scope, with nesting counts
	tmp   int
}

func (g *generator) printf(format string, args ...any) {
	fmt.Fprintf(&g.buf, format, args...)
}

func (g *generator) bind(names ...string) {
	for _, n := range names {
		if n != "_" {
			g.bound[n]++
		}
	}
}

func (g *generator) unbind(names ...string) {
	for _, n := range names {
		if g.bound[n]--; g.bound[n] <= 0 {
			delete(g.bound, n)
		}
	}
}

// use marks names as used so that the generated code compiles even when a
// body ignores them.
func (g *generator) use(names ...string) {
	for _, n := range names {
		if n != "_" {
			g.printf("_ = %s\n", n)
		}
	}
}

func (g *generator) temp(prefix string) string {
	g.tmp++
	return fmt.Sprintf("%s%d", prefix, g.tmp)
}

func (g *generator) seq(seq []program.Instr) {
	for _, in := range seq {
		switch in.Op {
		case program.WriteLiteral:
			g.printf("b.WriteString(%s)\n", strconv.Quote(in.Text))
		case program.WriteEscaped:
			g.printf("escape.WriteString(&b, program.Text(%s), escape.%s)\n", in.Expr.Src, contextName(in.Context))
		case program.WriteRaw:
			g.printf("b.WriteString(program.Text(%s))\n", in.Expr.Src)
		case program.Block:
			g.block(in.Block)
		}
	}
}

func contextName(c escape.Context) string {
	if c == escape.AttributeValue {
		return "AttributeValue"
	}
	return "TextBody"
}

func (g *generator) block(b *program.BlockInstr) {
	switch b.Kind {
	case program.If:
		for i, c := range b.Cases {
			if i > 0 {
				g.printf("} else ")
			}
			g.printf("if program.Truth(%s) {\n", c.Cond.Src)
			g.seq(c.Body)
		}
		if b.Else != nil {
			g.printf("} else {\n")
			g.seq(b.Else)
		}
		g.printf("}\n")

	case program.For:
		names := b.Binding.Names
		if len(names) == 1 {
			g.printf("for _, %s := range %s {\n", names[0], b.Expr.Src)
		} else {
			g.printf("for %s, %s := range %s {\n", names[0], names[1], b.Expr.Src)
		}
		g.bind(names...)
		g.use(names...)
		g.seq(b.Body)
		g.unbind(names...)
		g.printf("}\n")

	case program.While:
		g.printf("for program.Truth(%s) {\n", b.Expr.Src)
		g.seq(b.Body)
		g.printf("}\n")

	case program.Let:
		names := b.Binding.Names
		op := ":="
		if !slices.ContainsFunc(names, func(n string) bool { return n != "_" }) {
			op = "="
		}
		g.printf("{\n%s %s %s\n", strings.Join(names, ", "), op, b.Expr.Src)
		g.bind(names...)
		g.use(names...)
		g.seq(b.Body)
		g.unbind(names...)
		g.printf("}\n")

	case program.Match:
		subject := g.temp("subject")
		g.printf("{\n%s := %s\n_ = %s\n", subject, b.Expr.Src, subject)
		for i, c := range b.Cases {
			if i > 0 {
				g.printf("} else ")
			}
			g.arm(c, subject, i == len(b.Cases)-1)
		}
		g.printf("}\n}\n")
	}
}

// arm writes one match arm as an if clause. A binding pattern becomes an
// if-statement initializer so the name is visible to the guard and body.
func (g *generator) arm(c program.Case, subject string, last bool) {
	var conds []string
	binding := ""
	for _, pat := range c.Patterns {
		if pat.IsWildcard() || g.isBinding(pat) {
			if !pat.IsWildcard() {
				binding = pat.Src
			}
			conds = []string{"true"}
			break
		}
		conds = append(conds, fmt.Sprintf("program.Equal(%s, %s)", subject, pat.Src))
	}
	cond := strings.Join(conds, " || ")
	if c.Guard != nil {
		if cond == "true" {
			cond = fmt.Sprintf("program.Truth(%s)", c.Guard.Src)
		} else {
			cond = fmt.Sprintf("(%s) && program.Truth(%s)", cond, c.Guard.Src)
		}
	}

	switch {
	case binding != "":
		g.printf("if %s := %s; %s {\n", binding, subject, cond)
		g.bind(binding)
		g.use(binding)
		g.seq(c.Body)
		g.unbind(binding)
	case cond == "true" && last:
		g.printf("{\n")
		g.seq(c.Body)
	default:
		g.printf("if %s {\n", cond)
		g.seq(c.Body)
	}
}

func (g *generator) isBinding(pat mast.Expr) bool {
	switch pat.Src {
	case "true", "false", "nil":
		return false
	}
	return token.IsIdentifier(pat.Src) && g.bound[pat.Src] == 0
}
