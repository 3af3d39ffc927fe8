// Package validator compiles the markup templates found by static analysis
// and reports their diagnostics at Go source positions.
//
// Every template goes through the full markup pipeline (lexing, parsing and
// structural validation). With Options.CheckExpressions set, each splice is
// also compiled by the expression evaluator, so syntax errors inside
// expressions surface before the program runs.
package validator

import (
	"cmp"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"strings"
	"sync"

	markup "github.com/abiiranathan/go-markup"
	"github.com/abiiranathan/go-markup/analyzer/ast"
	"github.com/abiiranathan/go-markup/diag"
	"github.com/abiiranathan/go-markup/evaluator"
)

// ValidateTemplates compiles every discovered template with opts and
// returns one result per failing template, ordered by Go position.
//
// Concurrency model:
//   - One worker per CPU core
//   - Each worker validates a contiguous chunk of calls
//   - Results are collected via a channel and sorted afterwards
func ValidateTemplates(calls []ast.TemplateCall, opts markup.Options) []ValidationResult {
	if len(calls) == 0 {
		return nil
	}

	numWorkers := max(runtime.NumCPU(), 1)
	chunkSize := (len(calls) + numWorkers - 1) / numWorkers
	resultChan := make(chan []ValidationResult, numWorkers)
	var wg sync.WaitGroup

	for w := range numWorkers {
		start := w * chunkSize
		if start >= len(calls) {
			break
		}
		end := min(start+chunkSize, len(calls))
		chunk := calls[start:end]

		wg.Go(func() {
			validateChunk(chunk, opts, resultChan)
		})
	}

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	var all []ValidationResult
	for results := range resultChan {
		all = append(all, results...)
	}

	slices.SortFunc(all, func(a, b ValidationResult) int {
		return cmp.Or(
			cmp.Compare(a.File, b.File),
			cmp.Compare(a.Line, b.Line),
			cmp.Compare(a.Column, b.Column),
		)
	})
	return all
}

func validateChunk(chunk []ast.TemplateCall, opts markup.Options, resultChan chan<- []ValidationResult) {
	var results []ValidationResult
	for _, call := range chunk {
		if r, ok := ValidateCall(call, opts); ok {
			results = append(results, r)
		}
	}
	resultChan <- results
}

// ValidateCall compiles a single template. It reports false when the
// template compiles cleanly.
func ValidateCall(call ast.TemplateCall, opts markup.Options) (ValidationResult, bool) {
	if strings.TrimSpace(call.Source) == "" {
		return ValidationResult{
			File:           call.File,
			Line:           call.Line,
			Column:         call.Column,
			Function:       call.Function,
			Kind:           diag.ValidationError.String(),
			Message:        "template is empty",
			Severity:       SeverityWarning,
			TemplateLine:   1,
			TemplateColumn: 1,
		}, true
	}

	opts.Name = fmt.Sprintf("%s:%d", call.File, call.Line)
	_, err := opts.Compile(call.Source)
	if err == nil {
		return ValidationResult{}, false
	}

	r := ValidationResult{
		File:     call.File,
		Function: call.Function,
		Severity: SeverityError,
		Message:  err.Error(),
	}

	var pos diag.Pos
	var exprErr *evaluator.ExprError
	if d, ok := diag.As(err); ok {
		r.Kind = d.Kind.String()
		r.Message = d.Msg
		r.Hint = d.Hint
		pos = d.Span.Start
	} else if errors.As(err, &exprErr) {
		r.Kind = ExpressionError
		r.Message = exprErr.Msg
		pos = exprErr.Span.Start
	}

	r.TemplateLine, r.TemplateColumn = max(pos.Line, 1), max(pos.Column, 1)
	r.Line, r.Column = call.GoPosition(r.TemplateLine, r.TemplateColumn)
	return r, true
}
