package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/abiiranathan/go-markup/evaluator"
)

func cmdRender(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs, cfgPath := newFlagSet("render", stderr)
	dataPath := fs.String("data", "", `JSON object of template variables ("-" reads stdin)`)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(stderr, "usage: %s render [-data vars.json] file.mu\n", appName)
		return 2
	}
	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return fail(stderr, err)
	}

	vars, err := readVars(*dataPath, stdin)
	if err != nil {
		return fail(stderr, err)
	}

	path := fs.Arg(0)
	src, err := os.ReadFile(path)
	if err != nil {
		return fail(stderr, errors.Wrap(err, "render"))
	}
	tpl, err := cfg.Options(path, evaluator.New()).Compile(string(src))
	if err != nil {
		fmt.Fprint(stderr, withNewline(formatError(err, path, string(src))))
		return 1
	}
	if err := tpl.Execute(stdout, vars); err != nil {
		return fail(stderr, errors.Wrapf(err, "executing %s", path))
	}
	fmt.Fprintln(stdout)
	return 0
}

// readVars decodes a JSON object from path, or from stdin when path is "-".
func readVars(path string, stdin io.Reader) (map[string]any, error) {
	vars := map[string]any{}
	if path == "" {
		return vars, nil
	}

	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrap(err, "reading data")
		}
		defer f.Close()
		r = f
	}
	if err := json.NewDecoder(r).Decode(&vars); err != nil {
		return nil, errors.Wrapf(err, "decoding data %s", path)
	}
	return vars, nil
}
