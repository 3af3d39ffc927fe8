package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/abiiranathan/go-markup/diag"
	"github.com/abiiranathan/go-markup/evaluator"
)

func cmdCheck(args []string, stdout, stderr io.Writer) int {
	fs, cfgPath := newFlagSet("check", stderr)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintf(stderr, "usage: %s check [-config f] files...\n", appName)
		return 2
	}
	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return fail(stderr, err)
	}

	ev := evaluator.New()
	failed := 0
	for _, path := range fs.Args() {
		if err := checkFile(path, cfg, ev); err != nil {
			failed++
			fmt.Fprint(stderr, withNewline(err.Error()))
		}
	}

	p := cfg.Printer()
	p.Fprintf(stdout, "%d templates checked, %d failed\n", fs.NArg(), failed)
	if failed > 0 {
		return 1
	}
	return 0
}

// snippetError carries a formatted caret snippet as its message.
type snippetError struct {
	snippet string
	err     error
}

func (e *snippetError) Error() string { return e.snippet }
func (e *snippetError) Unwrap() error { return e.err }

func checkFile(path string, cfg Config, ev *evaluator.Evaluator) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "check")
	}
	if _, err := cfg.Options(path, ev).Compile(string(src)); err != nil {
		return &snippetError{snippet: formatError(err, path, string(src)), err: err}
	}
	return nil
}

// formatError renders compile diagnostics with a caret snippet. Expression
// errors carry a span too, so they get the same treatment.
func formatError(err error, name, src string) string {
	var xe *evaluator.ExprError
	if errors.As(err, &xe) {
		err = &diag.Error{Kind: diag.ValidationError, Span: xe.Span, Msg: "invalid expression: " + xe.Msg}
	}
	return diag.Format(err, name, src)
}

func withNewline(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
