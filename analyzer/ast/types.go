package ast

import goast "go/ast"

// TemplateCall represents a markup template passed to a compile function in Go source code.
type TemplateCall struct {
	// File is the path to the Go file containing the call, relative to the analysis root.
	File string `json:"file"`
	// Line is the line number of the call in the Go file.
	Line int `json:"line"`
	// Column is the column of the template argument in the Go file.
	Column int `json:"column"`
	// Function is the name of the compile function that was called (e.g. "MustCompile").
	Function string `json:"function"`
	// Source is the template source text.
	Source string `json:"source"`
	// ResolvedFrom tells how the source was found: "literal", "constant" or "variable".
	ResolvedFrom string `json:"resolvedFrom"`

	// LitLine is the line of the string literal holding the source.
	LitLine int `json:"litLine,omitempty"`
	// LitColumn is the column of the literal's opening quote.
	LitColumn int `json:"litColumn,omitempty"`
	// Raw indicates a backquoted literal.
	Raw bool `json:"raw,omitempty"`
	// Exact indicates that template positions map one-to-one onto the literal,
	// which holds for raw literals and for interpreted literals without escapes.
	Exact bool `json:"exact,omitempty"`
}

// GoPosition maps a 1-based template line and column to a position in the Go file.
// When the mapping is not exact the literal's own position is returned.
func (c TemplateCall) GoPosition(line, col int) (int, int) {
	if c.LitLine == 0 {
		return c.Line, c.Column
	}
	if !c.Exact || (!c.Raw && line > 1) {
		return c.LitLine, c.LitColumn
	}
	if line > 1 {
		return c.LitLine + line - 1, col
	}
	return c.LitLine, c.LitColumn + col
}

// FuncInfo represents a helper function registered for template expressions with expr.Function.
type FuncInfo struct {
	// Name is the name templates call the function by.
	Name string `json:"name"`
	// Params describes the parameters of the declared signature, if one was given.
	Params []ParamInfo `json:"params,omitempty"`
	// Returns describes the return values of the declared signature, if one was given.
	Returns []ParamInfo `json:"returns,omitempty"`
	// Doc is the documentation comment for the function.
	Doc string `json:"doc,omitempty"`
	// DefFile is the Go file where the function is defined.
	DefFile string `json:"defFile,omitempty"`
	// DefLine is the line number where the function is defined.
	DefLine int `json:"defLine,omitempty"`
	// DefCol is the column number where the function is defined.
	DefCol int `json:"defCol,omitempty"`
}

// ParamInfo represents a single function parameter or return value with its
// name (which may be empty for unnamed params) and resolved type string.
type ParamInfo struct {
	// Name is the name of the parameter or return value (can be empty for unnamed).
	Name string `json:"name,omitempty"`
	// TypeStr is the string representation of the parameter's or return value's type.
	TypeStr string `json:"type"`
}

// AnalysisResult is the top-level output structure containing all static analysis findings.
type AnalysisResult struct {
	// Templates lists all discovered template sources.
	Templates []TemplateCall `json:"templates"`
	// Functions lists all helper functions registered for template expressions.
	Functions []FuncInfo `json:"functions"`
	// Errors contains any non-fatal errors encountered during the analysis process.
	Errors []string `json:"errors"`
}

// AnalysisConfig defines the function names the analyzer uses to identify template-related constructs.
type AnalysisConfig struct {
	// CompileFunctionNames are the functions or methods whose first argument is template source
	// (default: "Compile", "MustCompile").
	CompileFunctionNames []string
	// PackagePaths restricts compile calls to functions declared in these packages, so that
	// e.g. regexp.MustCompile is ignored. Empty accepts any package.
	PackagePaths []string
	// FunctionOptionName is the expr-lang option that registers a helper function (default: "Function").
	FunctionOptionName string
	// FunctionOptionPackage is the import path declaring FunctionOptionName
	// (default: "github.com/expr-lang/expr").
	FunctionOptionPackage string
}

// DefaultConfig provides the default configuration, matching the markup package API.
var DefaultConfig = AnalysisConfig{
	CompileFunctionNames:  []string{"Compile", "MustCompile"},
	PackagePaths:          []string{"github.com/abiiranathan/go-markup"},
	FunctionOptionName:    "Function",
	FunctionOptionPackage: "github.com/expr-lang/expr",
}

// FuncScope encapsulates all template-related operations within a single
// function or declaration scope.
type FuncScope struct {
	Templates []ResolvedTemplate // Template sources passed to compile calls
	Functions []FuncInfo         // Helper function registrations
}

// ResolvedTemplate represents a compile call with its resolved template source.
type ResolvedTemplate struct {
	Node   *goast.CallExpr // The compile call expression
	Source string          // Template source
	From   string          // "literal", "constant" or "variable"
	Lit    *goast.BasicLit // Literal holding the source, if known
}

// funcWorkUnit wraps an AST node for concurrent processing.
type funcWorkUnit struct {
	node goast.Node
}
