package elements

import (
	"testing"

	"github.com/abiiranathan/go-markup/ast"
)

func TestClassify(t *testing.T) {
	tbl := HTML()
	tests := []struct {
		name string
		want ast.ElementKind
	}{
		{"div", ast.Known},
		{"DIV", ast.Known},
		{"p", ast.Known},
		{"br", ast.Void},
		{"img", ast.Void},
		{"input", ast.Void},
		{"linearGradient", ast.Known},
		{"my-widget", ast.Custom},
		{"dvi", ast.Unknown},
		{"href", ast.Unknown}, // attribute atoms are not elements
	}
	for _, tt := range tests {
		if got := tbl.Classify(tt.name); got != tt.want {
			t.Errorf("Classify(%q) = %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestWithVoid(t *testing.T) {
	xml := HTML().WithVoid("item")
	if xml.IsVoid("br") {
		t.Error("br should not be void in the custom table")
	}
	if !xml.IsVoid("item") || xml.Classify("item") != ast.Void {
		t.Error("item should be void")
	}
	if !xml.IsKnown("div") {
		t.Error("custom table lost known names")
	}
	// The default table is unchanged.
	if !HTML().IsVoid("br") {
		t.Error("HTML table was mutated")
	}
}

func TestWithNames(t *testing.T) {
	tbl := HTML().WithNames("widget")
	if tbl.Classify("widget") != ast.Known {
		t.Error("widget should be known")
	}
	if !tbl.IsVoid("hr") {
		t.Error("void set lost")
	}
}

func TestSuggest(t *testing.T) {
	tbl := HTML()
	tests := []struct {
		in   string
		want string
	}{
		{"dvi", "div"},
		{"sapn", "span"},
		{"blockq", "blockquote"},
		{"zzzzzzzz", ""},
	}
	for _, tt := range tests {
		if got := tbl.Suggest(tt.in); got != tt.want {
			t.Errorf("Suggest(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestClosestKeywords(t *testing.T) {
	keywords := []string{"if", "else", "for", "while", "let", "match"}
	tests := map[string]string{
		"iff":   "if",
		"whle":  "while",
		"mtach": "match",
		"lte":   "let",
		"xyz":   "",
	}
	for in, want := range tests {
		if got := Closest(in, keywords); got != want {
			t.Errorf("Closest(%q) = %q, want %q", in, got, want)
		}
	}
}
