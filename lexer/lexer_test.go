package lexer

import (
	"strings"
	"testing"

	"github.com/abiiranathan/go-markup/diag"
	"github.com/abiiranathan/go-markup/token"
)

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestLexBasic(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []token.Kind
	}{
		{"empty", "", []token.Kind{token.EOF}},
		{"string", `"hi"`, []token.Kind{token.String, token.EOF}},
		{"element void", `br;`, []token.Kind{token.Ident, token.Semi, token.EOF}},
		{"element body", `p { "x" }`, []token.Kind{token.Ident, token.LBrace, token.String, token.RBrace, token.EOF}},
		{"shorthand", `div.a#b;`, []token.Kind{token.Ident, token.Dot, token.Ident, token.Hash, token.Ident, token.Semi, token.EOF}},
		{"attr", `a href="/" {}`, []token.Kind{token.Ident, token.Ident, token.Assign, token.String, token.LBrace, token.RBrace, token.EOF}},
		{"splice", `(name)`, []token.Kind{token.SpliceOpen, token.Expr, token.SpliceClose, token.EOF}},
		{"raw splice", `!(html)`, []token.Kind{token.Bang, token.SpliceOpen, token.Expr, token.SpliceClose, token.EOF}},
		{"toggle", `input checked[on];`, []token.Kind{token.Ident, token.Ident, token.SpliceOpen, token.Expr, token.SpliceClose, token.Semi, token.EOF}},
		{"number", `3.25`, []token.Kind{token.Number, token.EOF}},
		{"comments", "// a\n/* b */ \"x\"", []token.Kind{token.String, token.EOF}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, err := Lex(tt.input)
			if err != nil {
				t.Fatalf("Lex(%q) error: %v", tt.input, err)
			}
			got := kinds(toks)
			if len(got) != len(tt.want) {
				t.Fatalf("Lex(%q) = %v, want %v\n%s", tt.input, got, tt.want, Describe(toks))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("token %d: got %s, want %s\n%s", i, got[i], tt.want[i], Describe(toks))
				}
			}
		})
	}
}

func TestLexHyphenatedIdent(t *testing.T) {
	toks, err := Lex(`my-widget data-id="1" xlink:href="#a";`)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"my-widget", "data-id", "=", `"1"`, "xlink:href", "=", `"#a"`, ";"}
	for i, w := range want {
		if toks[i].Text != w {
			t.Errorf("token %d text = %q, want %q", i, toks[i].Text, w)
		}
	}
}

func TestLexStringEscapes(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`"a\nb"`, "a\nb"},
		{`"tab\there"`, "tab\there"},
		{`"q\"q"`, `q"q`},
		{`"\\"`, `\`},
		{`"\u{1F600}"`, "\U0001F600"},
		{`"\u{e9}"`, "é"},
		{"`raw \\n`", `raw \n`},
	}
	for _, tt := range tests {
		toks, err := Lex(tt.input)
		if err != nil {
			t.Errorf("Lex(%s) error: %v", tt.input, err)
			continue
		}
		if toks[0].Value != tt.want {
			t.Errorf("Lex(%s) value = %q, want %q", tt.input, toks[0].Value, tt.want)
		}
	}
}

func TestLexSpliceIgnoresDelimitersInStrings(t *testing.T) {
	toks, err := Lex(`(f(")") + "(" + ']')`)
	if err != nil {
		t.Fatal(err)
	}
	if toks[1].Kind != token.Expr {
		t.Fatalf("expected expression token, got %s", toks[1].Kind)
	}
	if want := `f(")") + "(" + ']'`; toks[1].Value != want {
		t.Errorf("expr = %q, want %q", toks[1].Value, want)
	}
	if toks[2].Kind != token.SpliceClose {
		t.Errorf("expected splice close, got %s", toks[2].Kind)
	}
}

func TestLexNestedSplice(t *testing.T) {
	toks, err := Lex(`[items[0] && m["k"]]`)
	if err != nil {
		t.Fatal(err)
	}
	if want := `items[0] && m["k"]`; toks[1].Value != want {
		t.Errorf("expr = %q, want %q", toks[1].Value, want)
	}
}

func TestLexControlHeaders(t *testing.T) {
	tests := []struct {
		name  string
		input string
		exprs []string
	}{
		{"if", `@if a > 1 { "x" }`, []string{"a > 1"}},
		{"else if", `@if a { } @else if b == "{" { }`, []string{"a", `b == "{"`}},
		{"while", `@while n < 3 { }`, []string{"n < 3"}},
		{"for", `@for x in items { (x) }`, []string{"items", "x"}},
		{"for pair", `@for k, v in m { }`, []string{"m"}},
		{"let", `@let y = f(1, 2); (y)`, []string{"f(1, 2)", "y"}},
		{"header with parens", `@if (a || b) && c { }`, []string{"(a || b) && c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, err := Lex(tt.input)
			if err != nil {
				t.Fatalf("Lex error: %v", err)
			}
			var got []string
			for _, tok := range toks {
				if tok.Kind == token.Expr {
					got = append(got, tok.Value)
				}
			}
			if strings.Join(got, "|") != strings.Join(tt.exprs, "|") {
				t.Errorf("exprs = %q, want %q\n%s", got, tt.exprs, Describe(toks))
			}
		})
	}
}

func TestLexMatchArms(t *testing.T) {
	src := `@match n { 1 | 2 => "low", x if x > 9 => { "big" } _ => p { "other" } }`
	toks, err := Lex(src)
	if err != nil {
		t.Fatalf("Lex error: %v", err)
	}
	want := []token.Kind{
		token.At, token.Ident, token.Expr, token.LBrace,
		token.Expr, token.Pipe, token.Expr, token.Arrow, token.String, token.Comma,
		token.Expr, token.Ident, token.Expr, token.Arrow, token.LBrace, token.String, token.RBrace,
		token.Expr, token.Arrow, token.Ident, token.LBrace, token.String, token.RBrace,
		token.RBrace, token.EOF,
	}
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("got %d tokens, want %d\n%s", len(got), len(want), Describe(toks))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %s, want %s\n%s", i, got[i], want[i], Describe(toks))
		}
	}
	if toks[12].Value != "x > 9" {
		t.Errorf("guard = %q, want %q", toks[12].Value, "x > 9")
	}
}

func TestLexMatchPatternOrOperator(t *testing.T) {
	toks, err := Lex(`@match v { a || b => "x" }`)
	if err != nil {
		t.Fatal(err)
	}
	if toks[4].Kind != token.Expr || toks[4].Value != "a || b" {
		t.Errorf("pattern token = %s %q, want expression %q", toks[4].Kind, toks[4].Value, "a || b")
	}
}

func TestLexPositions(t *testing.T) {
	toks, err := Lex("p {\n  \"hi\"\n}")
	if err != nil {
		t.Fatal(err)
	}
	str := toks[2]
	if str.Span.Start.Line != 2 || str.Span.Start.Column != 3 {
		t.Errorf("string at %s, want 2:3", str.Span.Start)
	}
	if toks[3].Span.Start.Line != 3 || toks[3].Span.Start.Column != 1 {
		t.Errorf("brace at %s, want 3:1", toks[3].Span.Start)
	}
}

func TestLexErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		line    int
		col     int
		message string
	}{
		{"unterminated string", `p { "abc`, 1, 5, "unterminated string literal"},
		{"unterminated splice", `p { (a + b }`, 1, 5, "unterminated splice"},
		{"unclosed paren in splice", "\n(f(x)", 2, 1, "unterminated splice"},
		{"mismatched", `(a]`, 1, 1, "expected ')' before ']'"},
		{"mismatched nested", `(f(a])`, 1, 5, "mismatched ']'"},
		{"bad escape", `"a\qb"`, 1, 3, "invalid escape"},
		{"bad unicode", `"\u{110000}"`, 1, 2, "invalid unicode code point"},
		{"illegal char", `p $`, 1, 3, "unexpected character"},
		{"block comment", `/* x`, 1, 1, "unterminated block comment"},
		{"string in expr", `(f("x)`, 1, 4, "unterminated string literal in expression"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Lex(tt.input)
			if err == nil {
				t.Fatalf("Lex(%q) expected error", tt.input)
			}
			d, ok := diag.As(err)
			if !ok {
				t.Fatalf("error %v is not a diagnostic", err)
			}
			if d.Kind != diag.LexError {
				t.Errorf("kind = %s, want LexError", d.Kind)
			}
			if d.Span.Start.Line != tt.line || d.Span.Start.Column != tt.col {
				t.Errorf("position = %s, want %d:%d", d.Span.Start, tt.line, tt.col)
			}
			if !strings.Contains(d.Msg, tt.message) {
				t.Errorf("message %q does not contain %q", d.Msg, tt.message)
			}
		})
	}
}

func TestNextAfterEOF(t *testing.T) {
	l := New(`"x"`)
	for range 3 {
		if _, err := l.Next(); err != nil {
			t.Fatal(err)
		}
	}
	tok, err := l.Next()
	if err != nil || tok.Kind != token.EOF {
		t.Errorf("Next after EOF = %v, %v", tok, err)
	}
}
