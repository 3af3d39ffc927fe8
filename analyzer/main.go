// Command analyzer scans a Go module for markup templates and the helper
// functions registered for their expressions, and prints the findings as
// JSON. Editor integrations consume the output.
package main

import (
	"compress/gzip"
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"strings"

	markup "github.com/abiiranathan/go-markup"
	"github.com/abiiranathan/go-markup/analyzer/ast"
	"github.com/abiiranathan/go-markup/analyzer/validator"
)

// ValidationOutput represents the JSON structure emitted when
// template validation is enabled.
//
// It combines static analysis results with template validation
// diagnostics.
type ValidationOutput struct {
	// Templates contains all detected template compile calls.
	Templates []ast.TemplateCall `json:"templates"`

	// Functions contains discovered expression helpers.
	Functions []ast.FuncInfo `json:"functions"`

	// ValidationErrors contains template compile diagnostics.
	ValidationErrors []validator.ValidationResult `json:"validationErrors"`

	// Errors contains non-fatal analysis errors (optional).
	Errors []string `json:"errors,omitempty"`
}

// main is the CLI entry point for the template analyzer.
func main() {
	// Command-line flags
	dir := flag.String("dir", ".", "Go source directory to analyze")
	validate := flag.Bool("validate", false, "Compile every discovered template and report diagnostics")
	checkExpr := flag.Bool("check-expressions", false, "Also compile template expressions when validating")
	allowUnknown := flag.Bool("allow-unknown", false, "Accept unknown element names when validating")
	compress := flag.Bool("compress", false, "Output gzip-compressed JSON")
	funcsOnly := flag.Bool("funcs", false, "Output only the discovered expression helpers")
	flag.Parse()

	absDir := mustAbs(*dir)

	// Run static analysis on the source directory
	result := ast.AnalyzeDir(absDir, ast.DefaultConfig)

	// Filter out import-related noise
	result.Errors = filterImportErrors(result.Errors)

	// Prepare output payload
	var output any

	switch {
	case *funcsOnly:
		output = result.Functions
	case *validate:
		ve := validator.ValidateTemplates(result.Templates, markup.Options{
			AllowUnknownElements: *allowUnknown,
			CheckExpressions:     *checkExpr,
		})
		output = ValidationOutput{
			Templates:        result.Templates,
			Functions:        result.Functions,
			ValidationErrors: ve,
			Errors:           result.Errors,
		}
	default:
		// Emit raw analysis result
		output = result
	}

	// Encode and write JSON output
	encodeJSON(output, *compress)
}

// encodeJSON serializes output as JSON and writes it to stdout.
//
// If compress is true, the output is gzip-compressed.
func encodeJSON(output any, compress bool) {
	if compress {
		writeGzipJSON(output)
		return
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "") // disable indent (reduces size by > 2x)

	if err := enc.Encode(output); err != nil {
		panic("failed to encode JSON: " + err.Error())
	}
}

// writeGzipJSON writes gzip-compressed JSON to stdout.
func writeGzipJSON(output any) {
	gzWriter := gzip.NewWriter(os.Stdout)
	defer gzWriter.Close()

	enc := json.NewEncoder(gzWriter)
	enc.SetIndent("", "") // disable indent (reduces size by > 2x)

	if err := enc.Encode(output); err != nil {
		panic("failed to encode JSON: " + err.Error())
	}

	if err := gzWriter.Close(); err != nil {
		panic("failed to close gzip writer: " + err.Error())
	}
}

// mustAbs resolves path to an absolute path.
//
// The program panics if resolution fails, since relative paths
// would invalidate downstream analysis.
func mustAbs(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		panic("could not resolve absolute path for " + path + ": " + err.Error())
	}
	return abs
}

// filterImportErrors removes known import-related errors
// from the analysis error list.
//
// These errors are typically environmental and not actionable
// for template validation.
func filterImportErrors(errs []string) []string {
	filtered := make([]string, 0, len(errs))
	for _, e := range errs {
		if !isImportError(e) {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

// isImportError determines whether an error message
// corresponds to a dependency/import failure.
func isImportError(e string) bool {
	lower := strings.ToLower(e)

	for _, phrase := range []string{
		"could not import",
		"can't find import",
		"cannot find package",
		"no required module provides",
		"build constraints exclude all go files",
	} {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
