// Command markup checks, renders and compiles markup templates.
//
//	markup check [-config f] files...
//	markup build [-pkg p] [-func F] [-params "..."] [-emit go|program] file.mu
//	markup render [-data vars.json] file.mu
//	markup repl
//	markup serve [-addr :8080]
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
)

const appName = "markup"

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		usage(stderr)
		return 2
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "check":
		return cmdCheck(rest, stdout, stderr)
	case "build":
		return cmdBuild(rest, stdout, stderr)
	case "render":
		return cmdRender(rest, stdin, stdout, stderr)
	case "repl":
		return cmdRepl(rest, stdout, stderr)
	case "serve":
		return cmdServe(rest, stderr)
	case "-h", "--help", "help":
		usage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "%s: unknown command %q\n", appName, cmd)
		usage(stderr)
		return 2
	}
}

func usage(w io.Writer) {
	fmt.Fprintf(w, `Usage:
  %[1]s check [-config f] files...          Compile templates and report diagnostics
  %[1]s build [-emit go|program] file.mu    Generate Go code or dump the output program
  %[1]s render [-data vars.json] file.mu    Render a template with JSON variables
  %[1]s repl                                Start the REPL
  %[1]s serve [-addr :8080]                 Start the playground server

`, appName)
}

// newFlagSet returns a flag set for cmd with the shared -config flag.
func newFlagSet(cmd string, stderr io.Writer) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfg := fs.String("config", "", "path to a JSON config file")
	return fs, cfg
}

func fail(stderr io.Writer, err error) int {
	fmt.Fprintf(stderr, "%s: %v\n", appName, err)
	return 1
}
