package program

import (
	"maps"
	"slices"
)

// Scope holds the variables visible to template expressions. Scopes nest:
// @for iterations and @let blocks run in a child of the enclosing scope, and
// a child's names shadow its parent's.
//
// A Scope belongs to one execution. It is not safe for concurrent use.
type Scope struct {
	parent *Scope
	vars   map[string]any
	flat   map[string]any
}

// NewScope returns a root scope holding a copy of vars.
func NewScope(vars map[string]any) *Scope {
	return &Scope{vars: maps.Clone(vars)}
}

// Child returns a new scope nested in s.
func (s *Scope) Child() *Scope {
	return &Scope{parent: s}
}

// Set binds name in s. The name "_" is discarded.
func (s *Scope) Set(name string, v any) {
	if name == "_" {
		return
	}
	if s.vars == nil {
		s.vars = make(map[string]any, 2)
	}
	s.vars[name] = v
	s.flat = nil
}

// Lookup returns the value bound to name in s or its ancestors.
func (s *Scope) Lookup(name string) (any, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if v, ok := sc.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Vars returns every visible binding, inner scopes shadowing outer ones.
// The returned map is shared and must not be modified.
func (s *Scope) Vars() map[string]any {
	if s.flat != nil {
		return s.flat
	}
	var out map[string]any
	if s.parent != nil {
		parent := s.parent.Vars()
		if len(s.vars) == 0 {
			s.flat = parent
			return parent
		}
		out = make(map[string]any, len(parent)+len(s.vars))
		maps.Copy(out, parent)
	} else {
		out = make(map[string]any, len(s.vars))
	}
	maps.Copy(out, s.vars)
	s.flat = out
	return out
}

// Names returns the visible names in sorted order.
func (s *Scope) Names() []string {
	return slices.Sorted(maps.Keys(s.Vars()))
}
