// Package markup compiles brace-delimited markup templates into output
// programs and runs them.
//
// A template is a sequence of elements, text and control directives:
//
//	ul.users {
//		@for u in users {
//			li.admin[u.admin] { (u.name) }
//		}
//	}
//
// Quoted strings are literal text, (expr) splices an escaped value and
// !(expr) splices a raw one. Control directives start with '@': @if,
// @else if, @else, @for, @while, @let and @match.
//
// Compile runs the pipeline lexer → parser → validator → lower and returns
// a Template. Compile-time failures are *diag.Error values carrying the
// kind and source span; diag.Format renders them with a caret snippet.
//
// Splice expressions are evaluated by an evaluator.Evaluator (expr-lang)
// unless Options.Evaluator supplies another program.Evaluator.
package markup
