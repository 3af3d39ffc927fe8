package ast

import (
	goast "go/ast"
	"go/token"
	"go/types"
	"runtime"
	"sync"
)

// collectFuncScopes efficiently collects template operations from all
// function and variable declaration scopes using concurrent processing.
//
// Algorithm:
// 1. Phase 1: Identify all relevant AST nodes (functions, variables)
// 2. Phase 2: Process nodes concurrently using worker pool
// 3. Each worker processes a chunk of nodes independently
// 4. Results are aggregated from all workers
//
// Concurrency model:
// - One worker per CPU core
// - Work distribution via chunk-based partitioning
// - No shared mutable state between workers
func collectFuncScopes(
	files []*goast.File,
	info *types.Info,
	config AnalysisConfig,
	filesMap map[string]*goast.File,
	fset *token.FileSet,
) []FuncScope {
	funcNodes := identifyFuncNodes(files)

	if len(funcNodes) == 0 {
		return nil
	}

	return processNodesConcurrently(funcNodes, info, config, filesMap, fset)
}

// identifyFuncNodes walks all AST files to identify nodes representing
// distinct scopes: function declarations, function literals, and top-level
// variable/constant declarations.
func identifyFuncNodes(files []*goast.File) []funcWorkUnit {
	// Estimate capacity: ~8 functions per file is typical
	funcNodes := make([]funcWorkUnit, 0, len(files)*8)

	for _, f := range files {
		// Top-level variables can hold compiled templates:
		//
		//   var page = markup.MustCompile(`...`)
		for _, decl := range f.Decls {
			if gd, ok := decl.(*goast.GenDecl); ok && gd.Tok == token.VAR {
				funcNodes = append(funcNodes, funcWorkUnit{node: gd})
			}
		}

		goast.Inspect(f, func(n goast.Node) bool {
			switch node := n.(type) {
			case *goast.FuncDecl, *goast.FuncLit:
				// Each scope stops at nested literals, so every call is seen once.
				funcNodes = append(funcNodes, funcWorkUnit{node: node})
			}
			return true
		})
	}

	return funcNodes
}

// processNodesConcurrently distributes work units across multiple workers
// and aggregates their results.
func processNodesConcurrently(
	funcNodes []funcWorkUnit,
	info *types.Info,
	config AnalysisConfig,
	filesMap map[string]*goast.File,
	fset *token.FileSet,
) []FuncScope {
	numWorkers := max(runtime.NumCPU(), 1)
	chunkSize := (len(funcNodes) + numWorkers - 1) / numWorkers

	resultChan := make(chan []FuncScope, numWorkers)
	var wg sync.WaitGroup

	for w := range numWorkers {
		start := w * chunkSize
		if start >= len(funcNodes) {
			break
		}
		end := min(start+chunkSize, len(funcNodes))
		chunk := funcNodes[start:end]

		wg.Go(func() {
			processChunk(chunk, info, config, filesMap, fset, resultChan)
		})
	}

	// Close result channel when all workers complete
	go func() {
		wg.Wait()
		close(resultChan)
	}()

	var allScopes []FuncScope
	for scopes := range resultChan {
		allScopes = append(allScopes, scopes...)
	}

	return allScopes
}

// processChunk is the worker function that processes a chunk of AST nodes.
// Each worker operates independently with no shared mutable state.
func processChunk(
	chunk []funcWorkUnit,
	info *types.Info,
	config AnalysisConfig,
	filesMap map[string]*goast.File,
	fset *token.FileSet,
	resultChan chan<- []FuncScope,
) {
	localScopes := make([]FuncScope, 0, len(chunk)/2)

	for _, unit := range chunk {
		scope := processFunc(unit.node, info, config, filesMap, fset)

		// Only keep scopes that found something useful
		if len(scope.Templates) > 0 || len(scope.Functions) > 0 {
			localScopes = append(localScopes, scope)
		}
	}

	resultChan <- localScopes
}
