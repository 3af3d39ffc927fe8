// Package ast performs static analysis on Go source code to extract:
// 1. Markup templates passed to compile functions (markup.Compile, markup.MustCompile)
// 2. Helper functions registered for template expressions (expr.Function)
package ast

import (
	"cmp"
	"go/token"
	"slices"
)

// Package-level cache of analysis results to speed up repeated analysis
var packageCache = newResultCache()

// AnalyzeDir performs static analysis on Go source code to extract:
// 1. Markup templates passed to compile functions
// 2. Helper functions registered for template expressions
//
// The analysis proceeds in phases:
// - Load and parse Go packages
// - Collect function scopes and template operations (concurrent)
// - Aggregate, deduplicate and order results
//
// Parameters:
//
//	dir: Root directory to analyze
//	config: Analysis configuration (function names, packages)
//
// Returns: AnalysisResult containing all discovered template-related information
func AnalyzeDir(dir string, config AnalysisConfig) AnalysisResult {
	key := cacheKey(dir, config)
	if cached, ok := packageCache.get(key); ok {
		return cached
	}

	result := AnalysisResult{}
	fset := token.NewFileSet()

	// Phase 1: Load packages
	pkgs, err := loadPackages(dir, fset)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	info, allFiles := mergeTypeInfo(pkgs, &result)
	filesMap := buildFileMap(allFiles, fset)

	// Phase 2: Collect function scopes (concurrent)
	scopes := collectFuncScopes(allFiles, info, config, filesMap, fset)

	// Phase 3: Generate template calls from collected scopes
	result.Templates = generateTemplateCalls(scopes, fset, dir)

	// Phase 4: Aggregate and deduplicate helper functions
	result.Functions = aggregateFunctions(scopes)

	packageCache.set(key, result)
	return result
}

// ClearCache clears the package cache. Useful for testing or when analyzing
// the same directory multiple times after the sources changed.
func ClearCache() {
	packageCache.clear()
}

// generateTemplateCalls transforms collected scope information into
// TemplateCall entries with Go source positions. Workers finish in any
// order, so the result is sorted by file and position.
func generateTemplateCalls(scopes []FuncScope, fset *token.FileSet, dir string) []TemplateCall {
	total := 0
	for _, scope := range scopes {
		total += len(scope.Templates)
	}

	calls := make([]TemplateCall, 0, total)
	for _, scope := range scopes {
		for _, rt := range scope.Templates {
			pos := fset.Position(rt.Node.Pos())
			argPos := fset.Position(rt.Node.Args[0].Pos())

			tc := TemplateCall{
				File:         resolveRelativePath(pos.Filename, dir),
				Line:         pos.Line,
				Column:       argPos.Column,
				Function:     calleeName(rt.Node),
				Source:       rt.Source,
				ResolvedFrom: rt.From,
			}
			if rt.Lit != nil {
				litPos := fset.Position(rt.Lit.Pos())
				tc.LitLine, tc.LitColumn = litPos.Line, litPos.Column
				tc.Raw = rt.Lit.Value[0] == '`'
				tc.Exact = isExactLiteral(rt.Lit, rt.Source)
			}
			calls = append(calls, tc)
		}
	}

	slices.SortFunc(calls, func(a, b TemplateCall) int {
		return cmp.Or(
			cmp.Compare(a.File, b.File),
			cmp.Compare(a.Line, b.Line),
			cmp.Compare(a.Column, b.Column),
			cmp.Compare(a.LitLine, b.LitLine),
		)
	})
	return calls
}

// aggregateFunctions collects all helper registrations from scopes and
// deduplicates them by name. This provides a complete catalog of functions
// available to template expressions across the codebase.
func aggregateFunctions(scopes []FuncScope) []FuncInfo {
	total := 0
	for _, scope := range scopes {
		total += len(scope.Functions)
	}

	seen := make(map[string]bool, total)
	unique := make([]FuncInfo, 0, total)
	for _, scope := range scopes {
		for _, fn := range scope.Functions {
			if !seen[fn.Name] {
				seen[fn.Name] = true
				unique = append(unique, fn)
			}
		}
	}

	slices.SortFunc(unique, func(a, b FuncInfo) int { return cmp.Compare(a.Name, b.Name) })
	return unique
}
