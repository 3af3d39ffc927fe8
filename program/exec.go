package program

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"unicode"

	"github.com/abiiranathan/go-markup/ast"
	"github.com/abiiranathan/go-markup/diag"
	"github.com/abiiranathan/go-markup/escape"
)

// Evaluator resolves host expressions appearing in splices and control
// headers. Implementations must be safe for concurrent use if the same
// Evaluator is shared by concurrent executions.
type Evaluator interface {
	Eval(e ast.Expr, s *Scope) (any, error)
}

// EvalFunc adapts a function to the Evaluator interface.
type EvalFunc func(e ast.Expr, s *Scope) (any, error)

func (f EvalFunc) Eval(e ast.Expr, s *Scope) (any, error) { return f(e, s) }

// ExecError reports a failure to evaluate an expression or to use its
// value while executing a Program.
type ExecError struct {
	Span diag.Span
	Expr string
	Err  error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("exec at %s: %s: %v", e.Span.Start, e.Expr, e.Err)
}

func (e *ExecError) Unwrap() error { return e.Err }

var (
	// ErrNoEvaluator is returned when a program containing expressions is
	// executed without an Evaluator.
	ErrNoEvaluator = errors.New("no evaluator configured")

	// ErrIterationLimit is returned when a loop exceeds
	// ExecOptions.MaxIterations.
	ErrIterationLimit = errors.New("loop iteration limit exceeded")
)

// ExecOptions tunes a single execution.
type ExecOptions struct {
	// MaxIterations bounds the iterations of any single @for or @while
	// loop. Zero means unbounded.
	MaxIterations int
}

// Execute runs p, writing output to w. Expressions are evaluated by ev in
// scope s; a nil s is an empty scope.
func (p *Program) Execute(w io.Writer, ev Evaluator, s *Scope) error {
	return p.ExecuteWith(w, ev, s, ExecOptions{})
}

// ExecuteWith is Execute with options.
func (p *Program) ExecuteWith(w io.Writer, ev Evaluator, s *Scope, opts ExecOptions) error {
	if s == nil {
		s = NewScope(nil)
	}
	m := &machine{w: w, ev: ev, esc: p.Escape(), limit: opts.MaxIterations}
	return m.run(p.Instrs, s)
}

// Render executes p into a string.
func (p *Program) Render(ev Evaluator, s *Scope) (string, error) {
	var b strings.Builder
	if err := p.Execute(&b, ev, s); err != nil {
		return "", err
	}
	return b.String(), nil
}

type machine struct {
	w     io.Writer
	ev    Evaluator
	esc   *escape.Table
	limit int
}

func (m *machine) run(seq []Instr, s *Scope) error {
	for i := range seq {
		in := &seq[i]
		switch in.Op {
		case WriteLiteral:
			if _, err := io.WriteString(m.w, in.Text); err != nil {
				return err
			}
		case WriteEscaped:
			v, err := m.eval(in.Expr, s)
			if err != nil {
				return err
			}
			if _, err := m.esc.WriteString(m.w, Text(v), in.Context); err != nil {
				return err
			}
		case WriteRaw:
			v, err := m.eval(in.Expr, s)
			if err != nil {
				return err
			}
			if _, err := io.WriteString(m.w, Text(v)); err != nil {
				return err
			}
		case Block:
			if err := m.block(in.Block, s); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *machine) eval(e *ast.Expr, s *Scope) (any, error) {
	if m.ev == nil {
		return nil, &ExecError{Span: e.Span, Expr: e.Src, Err: ErrNoEvaluator}
	}
	v, err := m.ev.Eval(*e, s)
	if err != nil {
		var xe *ExecError
		if errors.As(err, &xe) {
			return nil, err
		}
		return nil, &ExecError{Span: e.Span, Expr: e.Src, Err: err}
	}
	return v, nil
}

func (m *machine) block(b *BlockInstr, s *Scope) error {
	switch b.Kind {
	case If:
		for _, c := range b.Cases {
			v, err := m.eval(c.Cond, s)
			if err != nil {
				return err
			}
			if Truth(v) {
				return m.run(c.Body, s)
			}
		}
		return m.run(b.Else, s)

	case For:
		iter, err := m.eval(b.Expr, s)
		if err != nil {
			return err
		}
		n := 0
		var bodyErr error
		err = Range(iter, func(key, val any) error {
			if n++; m.limit > 0 && n > m.limit {
				return ErrIterationLimit
			}
			child := s.Child()
			bind(child, b.Binding, key, val)
			bodyErr = m.run(b.Body, child)
			return bodyErr
		})
		if bodyErr != nil {
			return bodyErr
		}
		if err != nil {
			return &ExecError{Span: b.Expr.Span, Expr: b.Expr.Src, Err: err}
		}
		return nil

	case While:
		for n := 1; ; n++ {
			v, err := m.eval(b.Expr, s)
			if err != nil {
				return err
			}
			if !Truth(v) {
				return nil
			}
			if m.limit > 0 && n > m.limit {
				return &ExecError{Span: b.Expr.Span, Expr: b.Expr.Src, Err: ErrIterationLimit}
			}
			if err := m.run(b.Body, s); err != nil {
				return err
			}
		}

	case Let:
		v, err := m.eval(b.Expr, s)
		if err != nil {
			return err
		}
		child := s.Child()
		if err := bindLet(child, b.Binding, v); err != nil {
			return &ExecError{Span: b.Expr.Span, Expr: b.Expr.Src, Err: err}
		}
		return m.run(b.Body, child)

	case Match:
		subject, err := m.eval(b.Expr, s)
		if err != nil {
			return err
		}
		for _, c := range b.Cases {
			arm, ok, err := m.matchCase(c, subject, s)
			if err != nil {
				return err
			}
			if ok {
				return m.run(c.Body, arm)
			}
		}
		return nil
	}
	return fmt.Errorf("unknown block kind %s", b.Kind)
}

// matchCase reports whether c matches subject and returns the scope its body
// runs in. A bare identifier that is not bound in s binds the subject.
func (m *machine) matchCase(c Case, subject any, s *Scope) (*Scope, bool, error) {
	scope := s
	matched := false
	for i := range c.Patterns {
		pat := &c.Patterns[i]
		if pat.IsWildcard() {
			matched = true
			break
		}
		if isBindingPattern(pat.Src, s) {
			scope = s.Child()
			scope.Set(pat.Src, subject)
			matched = true
			break
		}
		v, err := m.eval(pat, s)
		if err != nil {
			return nil, false, err
		}
		if Equal(subject, v) {
			matched = true
			break
		}
	}
	if !matched {
		return nil, false, nil
	}
	if c.Guard != nil {
		v, err := m.eval(c.Guard, scope)
		if err != nil {
			return nil, false, err
		}
		if !Truth(v) {
			return nil, false, nil
		}
	}
	return scope, true, nil
}

func isBindingPattern(src string, s *Scope) bool {
	switch src {
	case "true", "false", "nil":
		return false
	}
	for i, r := range src {
		if r != '_' && !unicode.IsLetter(r) && (i == 0 || !unicode.IsDigit(r)) {
			return false
		}
	}
	_, bound := s.Lookup(src)
	return !bound
}

func bind(s *Scope, b ast.Binding, key, val any) {
	switch len(b.Names) {
	case 1:
		s.Set(b.Names[0], val)
	case 2:
		s.Set(b.Names[0], key)
		s.Set(b.Names[1], val)
	}
}

// bindLet binds a @let pattern. A pair pattern destructures a two-element
// slice or array.
func bindLet(s *Scope, b ast.Binding, v any) error {
	if len(b.Names) == 1 {
		s.Set(b.Names[0], v)
		return nil
	}
	rv := reflect.ValueOf(v)
	if v == nil || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) || rv.Len() != 2 {
		return fmt.Errorf("cannot destructure %T into %s", v, b)
	}
	s.Set(b.Names[0], rv.Index(0).Interface())
	s.Set(b.Names[1], rv.Index(1).Interface())
	return nil
}
