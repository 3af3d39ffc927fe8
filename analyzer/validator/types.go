package validator

// ValidationResult represents a single diagnostic found while compiling a
// template discovered in Go source.
type ValidationResult struct {
	// File is the Go file containing the compile call.
	File string `json:"file"`
	// Line is the line in the Go file the diagnostic maps to.
	Line int `json:"line"`
	// Column is the column in the Go file the diagnostic maps to.
	Column int `json:"column"`
	// Function is the compile function that received the template.
	Function string `json:"function"`
	// Kind classifies the diagnostic (e.g. "ParseError", "ExpressionError").
	Kind string `json:"kind"`
	// Message is a human-readable description of the issue.
	Message string `json:"message"`
	// Hint is an optional suggestion such as a likely intended element name.
	Hint string `json:"hint,omitempty"`
	// Severity indicates the severity of the issue ("error" or "warning").
	Severity string `json:"severity"`
	// TemplateLine is the line within the template source.
	TemplateLine int `json:"templateLine"`
	// TemplateColumn is the column within the template source.
	TemplateColumn int `json:"templateColumn"`
}

// Severity levels.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// ExpressionError is the Kind reported for splices the evaluator rejects.
const ExpressionError = "ExpressionError"
