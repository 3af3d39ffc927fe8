// Package evaluator is the default host expression evaluator. Template
// expressions are expr-lang expressions (github.com/expr-lang/expr)
// evaluated against the variables visible in the template scope.
package evaluator

import (
	"errors"
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/file"
	"github.com/expr-lang/expr/vm"

	"github.com/abiiranathan/go-markup/ast"
	"github.com/abiiranathan/go-markup/diag"
	"github.com/abiiranathan/go-markup/program"
)

// Evaluator compiles each distinct expression source once and caches the
// bytecode. It is safe for concurrent use.
type Evaluator struct {
	opts []expr.Option

	mu    sync.RWMutex
	cache map[string]*vm.Program

	machines sync.Pool
}

// New returns an Evaluator. opts are passed to expr.Compile for every
// expression, e.g. expr.Function to expose helpers to templates.
func New(opts ...expr.Option) *Evaluator {
	return &Evaluator{
		opts:     opts,
		cache:    make(map[string]*vm.Program),
		machines: sync.Pool{New: func() any { return new(vm.VM) }},
	}
}

// Compile returns the cached bytecode for src, compiling it on first use.
func (e *Evaluator) Compile(src string) (*vm.Program, error) {
	e.mu.RLock()
	p, ok := e.cache[src]
	e.mu.RUnlock()
	if ok {
		return p, nil
	}

	p, err := expr.Compile(src, e.opts...)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	if cached, ok := e.cache[src]; ok {
		p = cached
	} else {
		e.cache[src] = p
	}
	e.mu.Unlock()
	return p, nil
}

// Eval implements program.Evaluator.
func (e *Evaluator) Eval(x ast.Expr, s *program.Scope) (any, error) {
	p, err := e.Compile(x.Src)
	if err != nil {
		return nil, exprError(x, err)
	}
	m := e.machines.Get().(*vm.VM)
	defer e.machines.Put(m)
	var env map[string]any
	if s != nil {
		env = s.Vars()
	} else {
		env = map[string]any{}
	}
	return m.Run(p, env)
}

// Len returns the number of cached expressions.
func (e *Evaluator) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.cache)
}

// ExprError reports a host expression that does not compile.
type ExprError struct {
	Span diag.Span
	Src  string
	Msg  string
	Err  error
}

func (e *ExprError) Error() string {
	return fmt.Sprintf("invalid expression at %s: %s", e.Span.Start, e.Msg)
}

func (e *ExprError) Unwrap() error { return e.Err }

func exprError(x ast.Expr, err error) *ExprError {
	msg := err.Error()
	var fe *file.Error
	if errors.As(err, &fe) {
		msg = fe.Message
	}
	return &ExprError{Span: x.Span, Src: x.Src, Msg: msg, Err: err}
}

// Check compiles every expression in the tree rooted at root and returns
// the first that fails, as an *ExprError. Wildcard patterns are skipped.
func (e *Evaluator) Check(root ast.Node) error {
	var first error
	try := func(x ast.Expr) {
		if first != nil || x.IsWildcard() {
			return
		}
		if _, err := e.Compile(x.Src); err != nil {
			first = exprError(x, err)
		}
	}
	ast.Walk(root, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.Text:
			if n.Kind == ast.Splice {
				try(n.Expr)
			}
		case *ast.Element:
			for _, a := range n.Attrs {
				switch a.Kind {
				case ast.AttrExpr, ast.AttrToggle:
					try(a.Expr)
				case ast.AttrList:
					for _, p := range a.Parts {
						if p.Expr != nil {
							try(*p.Expr)
						}
						if p.Cond != nil {
							try(*p.Cond)
						}
					}
				}
			}
		case *ast.If:
			for _, b := range n.Branches {
				try(b.Cond)
			}
		case *ast.For:
			try(n.Iter)
		case *ast.While:
			try(n.Cond)
		case *ast.Let:
			try(n.Init)
		case *ast.Match:
			try(n.Subject)
			for _, arm := range n.Arms {
				for _, p := range arm.Patterns {
					try(p)
				}
				if arm.Guard != nil {
					try(*arm.Guard)
				}
			}
		}
		return first == nil
	})
	return first
}
