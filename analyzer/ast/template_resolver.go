package ast

import (
	goast "go/ast"
	"go/constant"
	"go/types"
	"slices"
)

// resolveTemplateCall extracts the template source(s) passed to a compile call.
//
// Sources can come from:
// 1. String literals: markup.MustCompile(`p { "hi" }`)
// 2. Constants and constant expressions: markup.Compile(PageTemplate)
// 3. Variables assigned a literal in the same scope: markup.Compile(src)
//
// A variable assigned several literals yields one entry per literal.
func resolveTemplateCall(
	call *goast.CallExpr,
	info *types.Info,
	stringAssignments map[string][]*goast.BasicLit,
) []ResolvedTemplate {
	arg := call.Args[0]

	if s, lit, ok := extractString(arg); ok {
		return []ResolvedTemplate{{Node: call, Source: s, From: "literal", Lit: lit}}
	}

	// Constant folding covers named constants and concatenations
	if info != nil {
		if tv, ok := info.Types[arg]; ok && tv.Value != nil && tv.Value.Kind() == constant.String {
			return []ResolvedTemplate{{Node: call, Source: constant.StringVal(tv.Value), From: "constant"}}
		}
	}

	ident, ok := goast.Unparen(arg).(*goast.Ident)
	if !ok {
		return nil
	}

	lits := stringAssignments[ident.Name]
	resolved := make([]ResolvedTemplate, 0, len(lits))
	for _, lit := range lits {
		s, _, _ := extractString(lit)
		resolved = append(resolved, ResolvedTemplate{Node: call, Source: s, From: "variable", Lit: lit})
	}
	return resolved
}

// isCompileCall checks if a call expression is a template compile call
// based on configured function names. The first argument must be a string
// when type information is available.
func isCompileCall(call *goast.CallExpr, info *types.Info, config AnalysisConfig) bool {
	if len(call.Args) == 0 || !slices.Contains(config.CompileFunctionNames, calleeName(call)) {
		return false
	}
	if info == nil {
		return true
	}
	if len(config.PackagePaths) > 0 {
		if obj := calleeObject(call, info); obj != nil && obj.Pkg() != nil &&
			!slices.Contains(config.PackagePaths, obj.Pkg().Path()) {
			return false
		}
	}
	tv, ok := info.Types[call.Args[0]]
	if !ok || tv.Type == nil {
		// Untyped due to import errors; fall back to syntax.
		_, _, isLit := extractString(call.Args[0])
		_, isIdent := goast.Unparen(call.Args[0]).(*goast.Ident)
		return isLit || isIdent
	}
	basic, ok := tv.Type.Underlying().(*types.Basic)
	return ok && basic.Info()&types.IsString != 0
}

// calleeObject resolves the called function or method, if type information allows.
func calleeObject(call *goast.CallExpr, info *types.Info) types.Object {
	switch fn := goast.Unparen(call.Fun).(type) {
	case *goast.SelectorExpr:
		return info.ObjectOf(fn.Sel)
	case *goast.Ident:
		return info.ObjectOf(fn)
	}
	return nil
}
