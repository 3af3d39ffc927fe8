package ast

import (
	goast "go/ast"
	"go/token"
	"go/types"
)

// processFunc analyzes a single function or declaration to extract:
// 1. String literal assignments (for template source resolution)
// 2. Template compile calls
// 3. Helper function registrations
//
// The analysis proceeds in two passes:
// Pass 1: Collect assignments to build a local symbol table
// Pass 2: Identify and process template-related calls
func processFunc(
	n goast.Node,
	info *types.Info,
	config AnalysisConfig,
	filesMap map[string]*goast.File,
	fset *token.FileSet,
) FuncScope {
	var scope FuncScope

	// Local symbol table for source resolution
	stringAssignments := make(map[string][]*goast.BasicLit, 8)

	// Pass 1: Collect assignments
	collectAssignments(n, stringAssignments)

	// Pass 2: Find template operations
	findTemplateOperations(n, info, config, filesMap, fset, &scope, stringAssignments)

	return scope
}

// collectAssignments walks the AST to build a local symbol table of string
// literals assigned to identifiers. This enables template source resolution
// when sources are passed via variables.
func collectAssignments(n goast.Node, stringAssignments map[string][]*goast.BasicLit) {
	goast.Inspect(n, func(child goast.Node) bool {
		// Stop at nested function literals to maintain scope boundaries
		if child != n {
			if _, isFunc := child.(*goast.FuncLit); isFunc {
				return false
			}
		}

		switch node := child.(type) {
		case *goast.AssignStmt:
			for i, lhs := range node.Lhs {
				if i >= len(node.Rhs) {
					continue
				}
				ident, ok := lhs.(*goast.Ident)
				if !ok {
					continue
				}
				if _, lit, ok := extractString(node.Rhs[i]); ok {
					stringAssignments[ident.Name] = append(stringAssignments[ident.Name], lit)
				}
			}

		case *goast.GenDecl:
			if node.Tok != token.VAR {
				return true
			}
			for _, spec := range node.Specs {
				vspec, ok := spec.(*goast.ValueSpec)
				if !ok {
					continue
				}
				for i, name := range vspec.Names {
					if i >= len(vspec.Values) {
						continue
					}
					if _, lit, ok := extractString(vspec.Values[i]); ok {
						stringAssignments[name.Name] = append(stringAssignments[name.Name], lit)
					}
				}
			}
		}

		return true
	})
}

// findTemplateOperations walks the AST to identify template compile calls
// and helper function registrations.
func findTemplateOperations(
	n goast.Node,
	info *types.Info,
	config AnalysisConfig,
	filesMap map[string]*goast.File,
	fset *token.FileSet,
	scope *FuncScope,
	stringAssignments map[string][]*goast.BasicLit,
) {
	goast.Inspect(n, func(child goast.Node) bool {
		// Stop at nested function literals
		if child != n {
			if _, isFunc := child.(*goast.FuncLit); isFunc {
				return false
			}
		}

		call, ok := child.(*goast.CallExpr)
		if !ok {
			return true
		}

		if isCompileCall(call, info, config) {
			scope.Templates = append(scope.Templates, resolveTemplateCall(call, info, stringAssignments)...)
			return true
		}

		if fn := extractFunction(call, info, config, filesMap, fset); fn != nil {
			scope.Functions = append(scope.Functions, *fn)
		}
		return true
	})
}
