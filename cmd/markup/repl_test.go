package main

import (
	"strings"
	"testing"
)

func TestSession(t *testing.T) {
	s := newSession(Config{})
	var out strings.Builder

	steps := []struct {
		entry string
		want  string
		err   string
	}{
		{entry: `:let name = "Ada"`, want: `name = "Ada"`},
		{entry: `:let n = len(name) * 2`, want: "n = 6"},
		{entry: `p { "Hi " (name) }`, want: "<p>Hi Ada</p>"},
		{entry: `@if n > 5 { b { "big" } } @else { "small" }`, want: "<b>big</b>"},
		{entry: ":vars", want: "n = 6\nname = \"Ada\""},
		{entry: `:program p { (name) }`, want: "escaped(text) name"},
		{entry: ":let 1x = 2", err: "usage: :let name = expr"},
		{entry: ":let x = (", err: "evaluating x"},
		{entry: "dvi { }", err: "did you mean <div>?"},
		{entry: ":frob", err: "unknown command :frob"},
	}
	for _, step := range steps {
		out.Reset()
		quit, err := s.eval(step.entry, &out)
		if quit {
			t.Fatalf("%q quit the session", step.entry)
		}
		if step.err != "" {
			if err == nil || !strings.Contains(err.Error(), step.err) {
				t.Errorf("%q error = %v, want %q", step.entry, err, step.err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: %v", step.entry, err)
			continue
		}
		if !strings.Contains(out.String(), step.want) {
			t.Errorf("%q output = %q, want %q", step.entry, out.String(), step.want)
		}
	}

	if quit, _ := s.eval(":quit", &out); !quit {
		t.Error(":quit did not end the session")
	}
}

func TestOpenBraces(t *testing.T) {
	tests := []struct {
		src  string
		want int
	}{
		{`p { "x" }`, 0},
		{`div {`, 1},
		{"div {\n  p {", 2},
		{`p { "}" `, 1},
		{`p { "\"{" }`, 0},
		{"p { `{{` }", 0},
		{`} }`, -2},
	}
	for _, tt := range tests {
		if got := openBraces(tt.src); got != tt.want {
			t.Errorf("openBraces(%q) = %d, want %d", tt.src, got, tt.want)
		}
	}
}
