package validator

import (
	"strings"
	"testing"

	"github.com/abiiranathan/go-markup/diag"
	"github.com/abiiranathan/go-markup/elements"
	"github.com/abiiranathan/go-markup/parser"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		cfg     Config
		wantErr string
		hint    string
	}{
		{name: "valid", src: `div.a#b title="t" { p { "x" } br; my-widget { } }`},
		{name: "duplicate attribute", src: `a href="/" href="/x" { }`, wantErr: `duplicate attribute "href" on <a>`, hint: "first set at 1:3"},
		{name: "duplicate attribute case", src: `a HREF="/" href="/x" { }`, wantErr: `duplicate attribute "href"`},
		{name: "shorthand and explicit class", src: `p.x class="y" { }`, wantErr: `duplicate attribute "class"`, hint: `"class" is already set by shorthand; use one form`},
		{name: "void with children", src: `br { "x" }`, wantErr: "void element <br> cannot have children", hint: "write <br> as 'br;'"},
		{name: "void with empty body", src: `br { }`},
		{name: "empty match", src: `@match x { }`, wantErr: `@match on "x" has no arms`},
		{name: "unknown element", src: `dvi { }`, wantErr: "unknown element <dvi>", hint: "did you mean <div>?"},
		{name: "unknown element no hint", src: `qqqqqqq;`, wantErr: "unknown element <qqqqqqq>", hint: "custom element names must contain '-'"},
		{name: "unknown element allowed", src: `dvi { }`, cfg: Config{AllowUnknownElements: true}},
		{name: "duplicate binding", src: `@for x, x in xs { }`, wantErr: `name "x" bound twice`},
		{name: "discarded pair", src: `@for _, _ in xs { }`},
		{name: "nested error", src: `div { @if a { ul { li { input; input { "bad" } } } } }`, wantErr: "void element <input>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, err := parser.Parse(tt.src, nil)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			err = Validate(root, tt.cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			d, ok := diag.As(err)
			if !ok || d.Kind != diag.ValidationError {
				t.Fatalf("error %v is not a ValidationError", err)
			}
			if !strings.Contains(d.Msg, tt.wantErr) {
				t.Errorf("message %q does not contain %q", d.Msg, tt.wantErr)
			}
			if tt.hint != "" && d.Hint != tt.hint {
				t.Errorf("hint = %q, want %q", d.Hint, tt.hint)
			}
		})
	}
}

func TestValidateCustomVoidTable(t *testing.T) {
	tbl := elements.HTML().WithVoid("br", "spacer")
	root, err := parser.Parse(`spacer { "x" }`, tbl.WithNames("spacer"))
	if err != nil {
		t.Fatal(err)
	}
	err = Validate(root, Config{Elements: tbl})
	if !diag.IsKind(err, diag.ValidationError) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestValidateReportsFirstInDocumentOrder(t *testing.T) {
	root, err := parser.Parse(`p { br { "1" } } a x="1" x="2" { }`, nil)
	if err != nil {
		t.Fatal(err)
	}
	err = Validate(root, Config{})
	d, _ := diag.As(err)
	if d == nil || !strings.Contains(d.Msg, "<br>") {
		t.Errorf("expected the <br> error first, got %v", err)
	}
}

func TestValidateDoesNotMutate(t *testing.T) {
	root, err := parser.Parse(`div.a { p { (x) } }`, nil)
	if err != nil {
		t.Fatal(err)
	}
	before := root.Nodes[0]
	if err := Validate(root, Config{}); err != nil {
		t.Fatal(err)
	}
	if root.Nodes[0] != before || len(root.Nodes) != 1 {
		t.Error("validation changed the tree")
	}
}
