package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/abiiranathan/go-markup/gogen"
)

func cmdBuild(args []string, stdout, stderr io.Writer) int {
	fs, cfgPath := newFlagSet("build", stderr)
	pkg := fs.String("pkg", "main", "package name of the generated file")
	fn := fs.String("func", "Render", "name of the generated function")
	params := fs.String("params", "", `parameter list, e.g. "title string, items []string"`)
	imports := fs.String("imports", "", "comma-separated extra import paths")
	emit := fs.String("emit", "go", "output kind: go or program")
	out := fs.String("o", "", "output file (default stdout)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(stderr, "usage: %s build [flags] file.mu\n", appName)
		return 2
	}
	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return fail(stderr, err)
	}

	path := fs.Arg(0)
	src, err := os.ReadFile(path)
	if err != nil {
		return fail(stderr, errors.Wrap(err, "build"))
	}
	tpl, err := cfg.Options(path, nil).Compile(string(src))
	if err != nil {
		fmt.Fprint(stderr, withNewline(formatError(err, path, string(src))))
		return 1
	}

	var code []byte
	switch *emit {
	case "program":
		code = []byte(tpl.Program().String())
	case "go":
		code, err = gogen.Generate(tpl.Program(), gogen.Config{
			Package: *pkg,
			Func:    *fn,
			Params:  *params,
			Imports: splitList(*imports),
			Source:  filepath.Base(path),
		})
		if err != nil {
			return fail(stderr, errors.Wrapf(err, "generating %s", path))
		}
	default:
		fmt.Fprintf(stderr, "%s: unknown -emit %q (want go or program)\n", appName, *emit)
		return 2
	}

	if *out == "" {
		_, err = stdout.Write(code)
	} else {
		err = os.WriteFile(*out, code, 0o644)
	}
	if err != nil {
		return fail(stderr, errors.Wrap(err, "writing output"))
	}
	return 0
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
