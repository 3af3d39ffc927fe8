package main

import (
	"fmt"
	"go/token"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"

	"github.com/peterh/liner"
	"github.com/pkg/errors"

	"github.com/abiiranathan/go-markup/ast"
	"github.com/abiiranathan/go-markup/evaluator"
	"github.com/abiiranathan/go-markup/program"
)

const (
	historyFile = ".markup_history"
	promptMain  = "mu> "
	promptCont  = "... "
)

const replHelp = `REPL commands:
  :let name = expr   Bind a variable for later templates
  :vars              List bound variables
  :program tmpl      Print the output program of tmpl
  :quit              Exit the REPL
Anything else is compiled as a template and rendered.
`

func red(s string) string { return "\x1b[31m" + s + "\x1b[0m" }

func cmdRepl(args []string, stdout, stderr io.Writer) int {
	fs, cfgPath := newFlagSet("repl", stderr)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return fail(stderr, err)
	}

	fmt.Fprintln(stdout, "markup REPL. Ctrl+C cancels input, Ctrl+D exits. Type :help for commands.")

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	s := newSession(cfg)
	for {
		src, ok := readEntry(ln)
		if !ok {
			fmt.Fprintln(stdout)
			return 0
		}
		if strings.TrimSpace(src) == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(src, "\n", " "))

		quit, err := s.eval(src, stdout)
		if err != nil {
			fmt.Fprintln(stderr, red(strings.TrimRight(err.Error(), "\n")))
		}
		if quit {
			return 0
		}
	}
}

// readEntry reads lines until braces balance. ok is false at EOF.
func readEntry(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}
		if err != nil {
			return "", false
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		if openBraces(b.String()) <= 0 {
			return b.String(), true
		}
	}
}

// openBraces returns the brace depth at the end of src, ignoring braces
// inside string literals.
func openBraces(src string) int {
	depth := 0
	var quote byte
	for i := 0; i < len(src); i++ {
		c := src[i]
		if quote != 0 {
			switch {
			case c == '\\' && quote == '"':
				i++
			case c == quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '`':
			quote = c
		case '{':
			depth++
		case '}':
			depth--
		}
	}
	return depth
}

// session holds REPL state between entries.
type session struct {
	cfg  Config
	ev   *evaluator.Evaluator
	vars map[string]any
}

func newSession(cfg Config) *session {
	return &session{cfg: cfg, ev: evaluator.New(), vars: map[string]any{}}
}

// eval runs one entry and writes its result to w.
func (s *session) eval(src string, w io.Writer) (quit bool, err error) {
	entry := strings.TrimSpace(src)
	if !strings.HasPrefix(entry, ":") {
		return false, s.render(entry, w)
	}

	cmd, arg, _ := strings.Cut(entry, " ")
	arg = strings.TrimSpace(arg)
	switch cmd {
	case ":quit", ":q":
		return true, nil
	case ":help":
		fmt.Fprint(w, replHelp)
	case ":vars":
		names := make([]string, 0, len(s.vars))
		for name := range s.vars {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			fmt.Fprintf(w, "%s = %#v\n", name, s.vars[name])
		}
	case ":let":
		return false, s.let(arg, w)
	case ":program":
		tpl, err := s.cfg.Options("repl", s.ev).Compile(arg)
		if err != nil {
			return false, errors.New(formatError(err, "", arg))
		}
		fmt.Fprint(w, tpl.Program().String())
	default:
		return false, errors.Errorf("unknown command %s (type :help)", cmd)
	}
	return false, nil
}

func (s *session) let(arg string, w io.Writer) error {
	name, expr, ok := strings.Cut(arg, "=")
	name, expr = strings.TrimSpace(name), strings.TrimSpace(expr)
	if !ok || !token.IsIdentifier(name) || expr == "" {
		return errors.New("usage: :let name = expr")
	}
	v, err := s.ev.Eval(ast.Expr{Src: expr}, program.NewScope(s.vars))
	if err != nil {
		return errors.Wrapf(err, "evaluating %s", name)
	}
	s.vars[name] = v
	fmt.Fprintf(w, "%s = %#v\n", name, v)
	return nil
}

func (s *session) render(src string, w io.Writer) error {
	tpl, err := s.cfg.Options("repl", s.ev).Compile(src)
	if err != nil {
		return errors.New(formatError(err, "", src))
	}
	out, err := tpl.Render(s.vars)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, out)
	return nil
}
