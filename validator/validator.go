// Package validator checks the structural rules of a parsed template that
// the grammar alone does not enforce.
//
// Validation is pure: the tree is only read, and the first violation in
// document order is returned as a *diag.Error of kind ValidationError.
package validator

import (
	"fmt"
	"strings"

	"github.com/abiiranathan/go-markup/ast"
	"github.com/abiiranathan/go-markup/diag"
	"github.com/abiiranathan/go-markup/elements"
)

// Config controls optional rules.
type Config struct {
	// Elements is used for "did you mean" hints; nil means elements.HTML().
	Elements *elements.Table
	// AllowUnknownElements accepts element names that are neither
	// recognized nor custom.
	AllowUnknownElements bool
}

// Validate checks root and returns the first violation, or nil.
func Validate(root *ast.Fragment, cfg Config) error {
	if cfg.Elements == nil {
		cfg.Elements = elements.HTML()
	}
	var err error
	ast.Walk(root, func(n ast.Node) bool {
		if err != nil {
			return false
		}
		switch n := n.(type) {
		case *ast.Element:
			err = checkElement(n, cfg)
		case *ast.Match:
			if len(n.Arms) == 0 {
				err = diag.Errorf(diag.ValidationError, n.Pos, "@match on %q has no arms", n.Subject.Src)
			}
		case *ast.For:
			err = checkBinding(n.Binding)
		case *ast.Let:
			err = checkBinding(n.Binding)
		case *ast.If:
			if len(n.Branches) == 0 {
				err = diag.Errorf(diag.ValidationError, n.Pos, "@if without a condition")
			}
		}
		return err == nil
	})
	return err
}

func checkElement(el *ast.Element, cfg Config) error {
	if el.Kind == ast.Unknown && !cfg.AllowUnknownElements {
		d := diag.Errorf(diag.ValidationError, el.NamePos, "unknown element <%s>", el.Name)
		if s := cfg.Elements.Suggest(el.Name); s != "" {
			return d.WithHint(fmt.Sprintf("did you mean <%s>?", s))
		}
		return d.WithHint("custom element names must contain '-'")
	}

	if el.Kind == ast.Void && len(el.Children()) > 0 {
		return diag.Errorf(diag.ValidationError, el.Body.Pos,
			"void element <%s> cannot have children", el.Name).
			WithHint(fmt.Sprintf("write <%s> as '%s;'", el.Name, el.Name))
	}

	seen := make(map[string]*ast.Attr, len(el.Attrs))
	for _, a := range el.Attrs {
		key := strings.ToLower(a.Name)
		first, dup := seen[key]
		if !dup {
			seen[key] = a
			continue
		}
		d := diag.Errorf(diag.ValidationError, a.Pos, "duplicate attribute %q on <%s>", a.Name, el.Name)
		if first.Shorthand || a.Shorthand {
			return d.WithHint(fmt.Sprintf("%q is already set by shorthand; use one form", a.Name))
		}
		return d.WithHint(fmt.Sprintf("first set at %s", first.Pos.Start))
	}
	return nil
}

func checkBinding(b ast.Binding) error {
	if len(b.Names) == 2 && b.Names[0] == b.Names[1] && b.Names[0] != "_" {
		return diag.Errorf(diag.ValidationError, b.Span, "name %q bound twice", b.Names[0])
	}
	return nil
}
