package markup

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"golang.org/x/net/html"

	"github.com/abiiranathan/go-markup/ast"
	"github.com/abiiranathan/go-markup/diag"
	"github.com/abiiranathan/go-markup/elements"
	"github.com/abiiranathan/go-markup/escape"
	"github.com/abiiranathan/go-markup/evaluator"
	"github.com/abiiranathan/go-markup/lower"
	"github.com/abiiranathan/go-markup/program"
)

const page = `!"<!DOCTYPE html>"
html lang="en" {
	head {
		meta charset="utf-8";
		title { (title) }
	}
	body.page.dark[dark] {
		h1#top { (title) }
		@if len(items) == 0 {
			p.empty { "Nothing here." }
		} @else {
			ul {
				@for i, item in items {
					li data-index=(i) { (item.name) " - " (item.price) }
				}
			}
		}
		@match status {
			"draft" | "review" => span.badge { "unpublished" },
			_ => { }
		}
		input type="checkbox" checked[done];
		footer { !(footer) }
	}
}`

func renderPage(t *testing.T, vars map[string]any) string {
	t.Helper()
	tpl, err := Compile(page)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	out, err := tpl.Render(vars)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	return out
}

// textOf returns the concatenated text of the first element named tag.
func textOf(doc *html.Node, tag string) (string, bool) {
	for n := range doc.Descendants() {
		if n.Type == html.ElementNode && n.Data == tag {
			var b strings.Builder
			for c := range n.Descendants() {
				if c.Type == html.TextNode {
					b.WriteString(c.Data)
				}
			}
			return b.String(), true
		}
	}
	return "", false
}

func attrOf(doc *html.Node, tag, key string) (string, bool) {
	for n := range doc.Descendants() {
		if n.Type != html.ElementNode || n.Data != tag {
			continue
		}
		for _, a := range n.Attr {
			if a.Key == key {
				return a.Val, true
			}
		}
		return "", false
	}
	return "", false
}

func TestRenderPageParses(t *testing.T) {
	out := renderPage(t, map[string]any{
		"title":  `Tom & "Jerry"`,
		"dark":   true,
		"status": "draft",
		"done":   false,
		"footer": "<em>bye</em>",
		"items": []map[string]any{
			{"name": "<script>", "price": 2.5},
			{"name": "pen", "price": 1},
		},
	})

	doc, err := html.Parse(strings.NewReader(out))
	if err != nil {
		t.Fatalf("html.Parse: %v", err)
	}
	if got, _ := textOf(doc, "title"); got != `Tom & "Jerry"` {
		t.Errorf("title = %q", got)
	}
	if got, _ := attrOf(doc, "body", "class"); got != "page dark" {
		t.Errorf("body class = %q", got)
	}
	if got, _ := textOf(doc, "ul"); got != "<script> - 2.5pen - 1" {
		t.Errorf("list text = %q", got)
	}
	if _, ok := textOf(doc, "script"); ok {
		t.Error("escaped splice produced a <script> element")
	}
	if got, _ := textOf(doc, "em"); got != "bye" {
		t.Errorf("raw footer = %q", got)
	}
	if got, _ := textOf(doc, "span"); got != "unpublished" {
		t.Errorf("badge = %q", got)
	}
	if _, ok := attrOf(doc, "input", "checked"); ok {
		t.Error("checked rendered for a false toggle")
	}
	if !strings.HasPrefix(out, "<!DOCTYPE html><html lang=\"en\">") {
		t.Errorf("unexpected prefix: %.40s", out)
	}
}

func TestRenderPageEmptyBranch(t *testing.T) {
	out := renderPage(t, map[string]any{
		"title": "T", "dark": false, "status": "live", "done": true, "footer": "", "items": []any{},
	})
	if !strings.Contains(out, `<p class="empty">Nothing here.</p>`) {
		t.Errorf("else branch not rendered: %s", out)
	}
	if strings.Contains(out, "<ul>") || strings.Contains(out, "badge") {
		t.Errorf("unexpected content: %s", out)
	}
	if !strings.Contains(out, `<input type="checkbox" checked>`) {
		t.Errorf("toggle not rendered: %s", out)
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		src  string
		kind diag.Kind
	}{
		{`p { "x`, diag.LexError},
		{`p { "x" } }`, diag.ParseError},
		{`a href="1" href="2" { }`, diag.ValidationError},
		{`@else { }`, diag.ValidationError},
	}
	for _, tt := range tests {
		tpl, err := Compile(tt.src)
		if tpl != nil {
			t.Errorf("Compile(%q) returned a template alongside an error", tt.src)
		}
		if !diag.IsKind(err, tt.kind) {
			t.Errorf("Compile(%q) error = %v, want %s", tt.src, err, tt.kind)
		}
	}
}

func TestMustCompilePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustCompile did not panic")
		}
	}()
	MustCompile(`div {`)
}

func TestCheckExpressions(t *testing.T) {
	src := `p { (a +) }`
	if _, err := Compile(src); err != nil {
		t.Fatalf("structural compile failed: %v", err)
	}
	_, err := Options{CheckExpressions: true}.Compile(src)
	var xe *evaluator.ExprError
	if !errors.As(err, &xe) {
		t.Fatalf("expected *evaluator.ExprError, got %v", err)
	}
}

func TestCustomEvaluatorAndTables(t *testing.T) {
	// A stub evaluator is enough for structural compilation.
	stub := program.EvalFunc(func(e ast.Expr, _ *program.Scope) (any, error) {
		return "[" + e.Src + "]", nil
	})
	esc := escape.New(map[rune]string{'*': "&#42;"}, map[rune]string{'*': "&#42;", '"': "&quot;"})
	opts := Options{
		Elements:   elements.New([]string{"doc", "note"}, []string{"hr"}),
		Escape:     esc,
		Evaluator:  stub,
		Whitespace: lower.Collapse,
	}
	tpl, err := opts.Compile(`doc { note { "a   *b*" (x) } hr; }`)
	if err != nil {
		t.Fatal(err)
	}
	out, err := tpl.Render(nil)
	if err != nil {
		t.Fatal(err)
	}
	if want := "<doc><note>a &#42;b&#42;[x]</note><hr></doc>"; out != want {
		t.Errorf("got %q, want %q", out, want)
	}

	if _, err := opts.Compile(`div { }`); !diag.IsKind(err, diag.ValidationError) {
		t.Errorf("div should be unknown in a custom table, got %v", err)
	}
}

func TestMaxIterations(t *testing.T) {
	tpl, err := Options{MaxIterations: 10}.Compile(`@while true { "x" }`)
	if err != nil {
		t.Fatal(err)
	}
	_, err = tpl.Render(nil)
	if !errors.Is(err, program.ErrIterationLimit) {
		t.Errorf("expected ErrIterationLimit, got %v", err)
	}
}

func TestNode(t *testing.T) {
	tpl := MustCompile(`b { (who) }`)
	var sb strings.Builder
	if err := tpl.Node(map[string]any{"who": "me"}).Render(&sb); err != nil {
		t.Fatal(err)
	}
	if sb.String() != "<b>me</b>" {
		t.Errorf("got %q", sb.String())
	}
}

func TestConcurrentRender(t *testing.T) {
	tpl := MustCompile(`@for x in xs { i { (x) } }`)
	var wg sync.WaitGroup
	for n := range 16 {
		wg.Go(func() {
			out, err := tpl.Render(map[string]any{"xs": []int{n, n + 1}})
			if err != nil {
				t.Error(err)
				return
			}
			want := "<i>" + itoa(n) + "</i><i>" + itoa(n+1) + "</i>"
			if out != want {
				t.Errorf("got %q, want %q", out, want)
			}
		})
	}
	wg.Wait()
}

func itoa(n int) string { return program.Text(n) }

func BenchmarkRenderPage(b *testing.B) {
	tpl, err := Compile(page)
	if err != nil {
		b.Fatal(err)
	}
	vars := map[string]any{
		"title": "Bench", "dark": true, "status": "live", "done": true, "footer": "",
		"items": []map[string]any{{"name": "a", "price": 1}, {"name": "b", "price": 2}},
	}
	for b.Loop() {
		if _, err := tpl.Render(vars); err != nil {
			b.Fatal(err)
		}
	}
}
