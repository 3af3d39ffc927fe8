package gogen

import (
	"errors"
	"go/parser"
	"go/token"
	"strings"
	"testing"

	"github.com/abiiranathan/go-markup/escape"
	"github.com/abiiranathan/go-markup/lower"
	mparser "github.com/abiiranathan/go-markup/parser"
	"github.com/abiiranathan/go-markup/program"
)

func lowered(t *testing.T, src string) *program.Program {
	t.Helper()
	root, err := mparser.Parse(src, nil)
	if err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}
	return lower.Lower(root, lower.Config{})
}

func generate(t *testing.T, src string, cfg Config) string {
	t.Helper()
	out, err := Generate(lowered(t, src), cfg)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if _, err := parser.ParseFile(token.NewFileSet(), "gen.go", out, parser.ParseComments); err != nil {
		t.Fatalf("generated code does not parse: %v\n%s", err, out)
	}
	return string(out)
}

func TestGenerate(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		cfg      Config
		contains []string
		absent   []string
	}{
		{
			name: "literal only",
			src:  `p { "hi" }`,
			cfg:  Config{Package: "views", Func: "Hello"},
			contains: []string{
				"// Code generated by markup build. DO NOT EDIT.",
				"package views",
				"func Hello() string {",
				`b.WriteString("<p>hi</p>")`,
			},
			absent: []string{"go-markup/program", "go-markup/escape"},
		},
		{
			name: "escaped and raw",
			src:  `a href=(url) { (strings.ToUpper(name)) !(html) }`,
			cfg:  Config{Func: "Link", Params: "url, name, html string", Source: "link.mu"},
			contains: []string{
				"from link.mu",
				"package main",
				"escape.WriteString(&b, program.Text(url), escape.AttributeValue)",
				"escape.WriteString(&b, program.Text(strings.ToUpper(name)), escape.TextBody)",
				"b.WriteString(program.Text(html))",
			},
		},
		{
			name: "control flow",
			src:  `@for i, x in xs { @if i > 0 { ", " } @else if x == "" { "?" } @else { (x) } } @while n > 0 { "." }`,
			cfg:  Config{Func: "List", Params: "xs []string, n int"},
			contains: []string{
				"for i, x := range xs {",
				"_ = i",
				"if program.Truth(i > 0) {",
				`} else if program.Truth(x == "") {`,
				"} else {",
				"for program.Truth(n > 0) {",
			},
		},
		{
			name:     "let",
			src:      `@let total = len(xs); (total) @let _ = 1;`,
			cfg:      Config{Func: "Total", Params: "xs []int"},
			contains: []string{"total := len(xs)", "_ = 1"},
			absent:   []string{"_ := 1"},
		},
		{
			name: "match",
			src:  `@match code { 200 | 204 => "ok", n if n >= 500 => { "server " (n) }, _ => "other" }`,
			cfg:  Config{Func: "Status", Params: "code int"},
			contains: []string{
				"subject1 := code",
				"if program.Equal(subject1, 200) || program.Equal(subject1, 204) {",
				"} else if n := subject1; program.Truth(n >= 500) {",
				"} else {",
			},
		},
		{
			name:     "bound name is compared",
			src:      `@match a { b => "same", _ => "different" }`,
			cfg:      Config{Func: "Same", Params: "a, b int"},
			contains: []string{"program.Equal(subject1, b)"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := generate(t, tt.src, tt.cfg)
			for _, want := range tt.contains {
				if !strings.Contains(out, want) {
					t.Errorf("output does not contain %q\n%s", want, out)
				}
			}
			for _, bad := range tt.absent {
				if strings.Contains(out, bad) {
					t.Errorf("output contains %q\n%s", bad, out)
				}
			}
		})
	}
}

func TestGenerateErrors(t *testing.T) {
	p := lowered(t, `"x"`)
	if _, err := Generate(p, Config{Func: "bad name"}); err == nil {
		t.Error("expected an error for an invalid function name")
	}
	if _, err := Generate(p, Config{Func: "F", Params: "string"}); err == nil {
		t.Error("expected an error for an unnamed parameter")
	}
	if _, err := Generate(p, Config{Func: "F", Params: "x int)"}); err == nil {
		t.Error("expected an error for a malformed parameter list")
	}

	root, err := mparser.Parse(`p { (x) }`, nil)
	if err != nil {
		t.Fatal(err)
	}
	custom := escape.New(map[rune]string{'<': "&lt;"}, map[rune]string{'"': "&quot;"})
	if _, err := Generate(lower.Lower(root, lower.Config{Escape: custom}), Config{Func: "F", Params: "x string"}); !errors.Is(err, ErrCustomEscape) {
		t.Errorf("Generate with a custom escape table = %v, want ErrCustomEscape", err)
	}
}
