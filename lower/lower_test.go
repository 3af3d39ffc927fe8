package lower

import (
	"fmt"
	"reflect"
	"strconv"
	"testing"

	"github.com/abiiranathan/go-markup/ast"
	"github.com/abiiranathan/go-markup/parser"
	"github.com/abiiranathan/go-markup/program"
	"github.com/abiiranathan/go-markup/validator"
)

func compile(t *testing.T, src string, cfg Config) *program.Program {
	t.Helper()
	root, err := parser.Parse(src, nil)
	if err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}
	if err := validator.Validate(root, validator.Config{}); err != nil {
		t.Fatalf("Validate(%q): %v", src, err)
	}
	return Lower(root, cfg)
}

// lookup resolves quoted strings and scope variables.
var lookup = program.EvalFunc(func(e ast.Expr, s *program.Scope) (any, error) {
	if str, err := strconv.Unquote(e.Src); err == nil {
		return str, nil
	}
	if v, ok := s.Lookup(e.Src); ok {
		return v, nil
	}
	return nil, fmt.Errorf("undefined: %s", e.Src)
})

func TestLowerListing(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "greeting",
			src:  `p class="greeting" { "Hello, " (name) }`,
			want: "literal \"<p class=\\\"greeting\\\">Hello, \"\nescaped(text) name\nliteral \"</p>\"\n",
		},
		{
			name: "adjacent text coalesces",
			src:  `"a" "b"`,
			want: "literal \"ab\"\n",
		},
		{
			name: "across tag boundary",
			src:  `p { "x" } "y" br; "z"`,
			want: "literal \"<p>x</p>y<br>z\"\n",
		},
		{
			name: "static text escaped at compile time",
			src:  `"a < b & c" !"<!DOCTYPE html>"`,
			want: "literal \"a &lt; b &amp; c<!DOCTYPE html>\"\n",
		},
		{
			name: "raw splice",
			src:  `div { !(html) }`,
			want: "literal \"<div>\"\nraw html\nliteral \"</div>\"\n",
		},
		{
			name: "non-void with semicolon",
			src:  `div;`,
			want: "literal \"<div></div>\"\n",
		},
		{
			name: "toggle",
			src:  `input type="checkbox" checked[on];`,
			want: "literal \"<input type=\\\"checkbox\\\"\"\nif\n  case on\n    literal \" checked\"\nliteral \">\"\n",
		},
		{
			name: "expression attribute",
			src:  `a href=(url) { "go" }`,
			want: "literal \"<a href=\\\"\"\nescaped(attr) url\nliteral \"\\\">go</a>\"\n",
		},
		{
			name: "class shorthand with condition",
			src:  `div.card.active[sel]#main;`,
			want: "literal \"<div class=\\\"card\"\nif\n  case sel\n    literal \" active\"\nliteral \"\\\" id=\\\"main\\\"></div>\"\n",
		},
		{
			name: "brace attribute value",
			src:  `a href={ "/users/" (id) "/edit" } {}`,
			want: "literal \"<a href=\\\"/users/\"\nescaped(attr) id\nliteral \"/edit\\\"></a>\"\n",
		},
		{
			name: "let scopes over rest",
			src:  `ul { "a" @let n = count; li { (n) } }`,
			want: "literal \"<ul>a\"\nlet n = count\n  literal \"<li>\"\n  escaped(text) n\n  literal \"</li>\"\nliteral \"</ul>\"\n",
		},
		{
			name: "if else",
			src:  `@if a { "A" } @else if b { "B" } @else { }`,
			want: "if\n  case a\n    literal \"A\"\n  case b\n    literal \"B\"\n  else\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := compile(t, tt.src, Config{}).String()
			if got != tt.want {
				t.Errorf("listing mismatch\ngot:\n%s\nwant:\n%s", got, tt.want)
			}
		})
	}
}

func TestAdjacentStaticTextIsOneLiteral(t *testing.T) {
	p := compile(t, `"Hello, " "world"`, Config{})
	if n := p.Count(program.WriteLiteral); n != 1 {
		t.Errorf("WriteLiteral count = %d, want 1", n)
	}
}

func TestLiteralRoundTrip(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{`html { head { title { "T" } } body { p.x { "hi" } hr; } }`,
			`<html><head><title>T</title></head><body><p class="x">hi</p><hr></body></html>`},
		{`ul { li { "1" } li { "2" } }`, `<ul><li>1</li><li>2</li></ul>`},
		{`img src="a.png" alt="A & B";`, `<img src="a.png" alt="A &amp; B">`},
		{`my-widget data-id=7 { }`, `<my-widget data-id="7"></my-widget>`},
		{`{ "a" { "b" } } "c"`, `abc`},
	}
	for _, tt := range tests {
		p := compile(t, tt.src, Config{})
		if n := len(p.Instrs); n != 1 {
			t.Errorf("%q lowered to %d instructions, want 1", tt.src, n)
		}
		out, err := p.Render(nil, nil)
		if err != nil {
			t.Fatalf("Render(%q): %v", tt.src, err)
		}
		if out != tt.want {
			t.Errorf("Render(%q) = %q, want %q", tt.src, out, tt.want)
		}
	}
}

func TestRenderControlFlow(t *testing.T) {
	src := `ul.items[any] {
		@for i, x in xs { li id={ "item-" (i) } { (x) } }
	}
	@match kind { "a" | "b" => "ab", _ => { "other" } }`
	p := compile(t, src, Config{})

	out, err := p.Render(lookup, program.NewScope(map[string]any{
		"any": true, "xs": []string{"<one>", "two"}, "kind": "b",
	}))
	if err != nil {
		t.Fatal(err)
	}
	want := `<ul class="items"><li id="item-0">&lt;one&gt;</li><li id="item-1">two</li></ul>ab`
	if out != want {
		t.Errorf("got  %s\nwant %s", out, want)
	}
}

func TestEmptyForMatchesOmission(t *testing.T) {
	with := compile(t, `div { "a" @for x in xs { p { (x) } } "b" }`, Config{})
	without := compile(t, `div { "a" "b" }`, Config{})
	scope := program.NewScope(map[string]any{"xs": []int{}})
	a, err := with.Render(lookup, scope)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := without.Render(nil, nil)
	if a != b {
		t.Errorf("empty loop output %q differs from omitted loop %q", a, b)
	}
}

func TestCollapseWhitespace(t *testing.T) {
	src := "p { \"a  \n\t b \" \"  c\" }"
	pre, err := compile(t, src, Config{}).Render(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if want := "<p>a  \n\t b   c</p>"; pre != want {
		t.Errorf("preserve: got %q, want %q", pre, want)
	}
	col, err := compile(t, src, Config{Whitespace: Collapse}).Render(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if want := "<p>a b c</p>"; col != want {
		t.Errorf("collapse: got %q, want %q", col, want)
	}
}

func TestDeterministic(t *testing.T) {
	src := `div#x.y[z] { @for a in b { (a) } @if c { "d" } @else { br; } }`
	p1 := compile(t, src, Config{})
	p2 := compile(t, src, Config{})
	if !reflect.DeepEqual(p1.Instrs, p2.Instrs) {
		t.Error("lowering the same source twice produced different programs")
	}
	if p1.String() != p2.String() {
		t.Error("program listings differ")
	}
}

func TestParseWhitespace(t *testing.T) {
	if w, ok := ParseWhitespace("Collapse"); !ok || w != Collapse {
		t.Errorf("ParseWhitespace(Collapse) = %v, %v", w, ok)
	}
	if _, ok := ParseWhitespace("trim"); ok {
		t.Error("ParseWhitespace(trim) should fail")
	}
}

func BenchmarkLower(b *testing.B) {
	root, err := parser.Parse(`html { body { @for x in xs { div.row[x] { p { (x) " and " "more" } } } } }`, nil)
	if err != nil {
		b.Fatal(err)
	}
	for b.Loop() {
		_ = Lower(root, Config{})
	}
}
