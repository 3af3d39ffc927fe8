package markup

import (
	"io"
	"strings"

	g "maragu.dev/gomponents"

	"github.com/abiiranathan/go-markup/ast"
	"github.com/abiiranathan/go-markup/elements"
	"github.com/abiiranathan/go-markup/escape"
	"github.com/abiiranathan/go-markup/evaluator"
	"github.com/abiiranathan/go-markup/lower"
	"github.com/abiiranathan/go-markup/parser"
	"github.com/abiiranathan/go-markup/program"
	"github.com/abiiranathan/go-markup/validator"
)

// Options configures compilation. The zero value compiles HTML with the
// expr-lang evaluator.
type Options struct {
	// Name identifies the template in diagnostics.
	Name string

	// Elements is the element table. Nil means elements.HTML().
	Elements *elements.Table

	// Escape is the escaping table. Nil means escape.HTML().
	Escape *escape.Table

	Whitespace lower.WhitespacePolicy

	// AllowUnknownElements accepts element names that are neither known nor
	// custom.
	AllowUnknownElements bool

	// Evaluator resolves splices when the template runs. Nil means a shared
	// evaluator.Evaluator.
	Evaluator program.Evaluator

	// CheckExpressions compiles every splice with the default evaluator at
	// compile time and fails on the first invalid one.
	CheckExpressions bool

	// MaxIterations bounds each @while loop. Zero means unbounded.
	MaxIterations int
}

var defaultEvaluator = evaluator.New()

// Compile parses, validates and lowers src with the default options.
func Compile(src string) (*Template, error) {
	return Options{}.Compile(src)
}

// MustCompile is like Compile but panics on error.
func MustCompile(src string) *Template {
	t, err := Compile(src)
	if err != nil {
		panic(err)
	}
	return t
}

// Parse parses and validates src without lowering it.
func (o Options) Parse(src string) (*ast.Fragment, error) {
	root, err := parser.Parse(src, o.Elements)
	if err != nil {
		return nil, err
	}
	err = validator.Validate(root, validator.Config{
		Elements:             o.Elements,
		AllowUnknownElements: o.AllowUnknownElements,
	})
	if err != nil {
		return nil, err
	}
	return root, nil
}

// Compile parses, validates and lowers src. On failure the error is a
// *diag.Error, or an *evaluator.ExprError when CheckExpressions is set.
func (o Options) Compile(src string) (*Template, error) {
	root, err := o.Parse(src)
	if err != nil {
		return nil, err
	}
	if o.CheckExpressions {
		if err := defaultEvaluator.Check(root); err != nil {
			return nil, err
		}
	}
	ev := o.Evaluator
	if ev == nil {
		ev = defaultEvaluator
	}
	return &Template{
		name: o.Name,
		src:  src,
		prog: lower.Lower(root, lower.Config{Whitespace: o.Whitespace, Escape: o.Escape}),
		ev:   ev,
		opts: program.ExecOptions{MaxIterations: o.MaxIterations},
	}, nil
}

// Template is a compiled template. It is immutable and safe for concurrent
// use.
type Template struct {
	name string
	src  string
	prog *program.Program
	ev   program.Evaluator
	opts program.ExecOptions
}

// Name returns the template name given in Options.
func (t *Template) Name() string { return t.name }

// Source returns the template source.
func (t *Template) Source() string { return t.src }

// Program returns the lowered output program.
func (t *Template) Program() *program.Program { return t.prog }

// Execute writes the template output for vars to w.
func (t *Template) Execute(w io.Writer, vars map[string]any) error {
	return t.prog.ExecuteWith(w, t.ev, program.NewScope(vars), t.opts)
}

// Render returns the template output for vars.
func (t *Template) Render(vars map[string]any) (string, error) {
	var b strings.Builder
	if err := t.Execute(&b, vars); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Node adapts the template to a gomponents node, so a compiled template
// can be embedded in a gomponents tree.
func (t *Template) Node(vars map[string]any) g.Node {
	return g.NodeFunc(func(w io.Writer) error {
		return t.Execute(w, vars)
	})
}
