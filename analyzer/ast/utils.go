package ast

import (
	goast "go/ast"
	"go/token"
	"path/filepath"
	"strconv"
	"strings"
)

// extractString returns the value of a string literal expression.
// The boolean is false for anything other than a string BasicLit.
func extractString(expr goast.Expr) (string, *goast.BasicLit, bool) {
	lit, ok := goast.Unparen(expr).(*goast.BasicLit)
	if !ok || lit.Kind != token.STRING {
		return "", nil, false
	}
	s, err := strconv.Unquote(lit.Value)
	if err != nil {
		return "", nil, false
	}
	return s, lit, true
}

// isExactLiteral reports whether every byte of the literal's value appears
// verbatim in the Go source, so template offsets equal literal offsets.
func isExactLiteral(lit *goast.BasicLit, value string) bool {
	if len(lit.Value) < 2 {
		return false
	}
	inner := lit.Value[1 : len(lit.Value)-1]
	if lit.Value[0] == '`' {
		return !strings.Contains(inner, "\r")
	}
	return inner == value
}

// resolveRelativePath attempts to convert an absolute path to a path
// relative to the specified directory. Falls back to the original path
// if conversion fails.
func resolveRelativePath(absPath, baseDir string) string {
	if abs, err := filepath.Abs(absPath); err == nil {
		if rel, err := filepath.Rel(baseDir, abs); err == nil {
			return rel
		}
	}
	return absPath
}

// calleeName returns the bare name of the called function or method.
func calleeName(call *goast.CallExpr) string {
	switch fn := goast.Unparen(call.Fun).(type) {
	case *goast.SelectorExpr:
		return fn.Sel.Name
	case *goast.Ident:
		return fn.Name
	case *goast.IndexExpr:
		// Generic instantiation: Compile[T](...)
		if id, ok := fn.X.(*goast.Ident); ok {
			return id.Name
		}
	}
	return ""
}
