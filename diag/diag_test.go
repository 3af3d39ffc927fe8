package diag

import (
	"errors"
	"fmt"
	"testing"
)

func TestPosString(t *testing.T) {
	if got := (Pos{}).String(); got != "-" {
		t.Errorf("zero Pos = %q, want -", got)
	}
	if got := (Pos{Line: 3, Column: 7, Offset: 20}).String(); got != "3:7" {
		t.Errorf("Pos = %q, want 3:7", got)
	}
}

func TestSpanJoin(t *testing.T) {
	a := Span{Start: Pos{1, 1, 0}, End: Pos{1, 4, 3}}
	b := Span{Start: Pos{2, 2, 8}, End: Pos{2, 6, 12}}

	want := Span{Start: a.Start, End: b.End}
	if got := a.Join(b); got != want {
		t.Errorf("a.Join(b) = %v, want %v", got, want)
	}
	if got := b.Join(a); got != want {
		t.Errorf("b.Join(a) = %v, want %v", got, want)
	}
	if got := (Span{}).Join(b); got != b {
		t.Errorf("zero.Join(b) = %v, want %v", got, b)
	}
	if got := a.Join(Span{}); got != a {
		t.Errorf("a.Join(zero) = %v, want %v", got, a)
	}
}

func TestError(t *testing.T) {
	span := Span{Start: Pos{2, 5, 9}, End: Pos{2, 6, 10}}
	err := Errorf(ParseError, span, "unexpected %q", "}")
	if got, want := err.Error(), `ParseError at 2:5: unexpected "}"`; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	hinted := err.WithHint("remove it")
	if got, want := hinted.Error(), `ParseError at 2:5: unexpected "}" (remove it)`; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if err.Hint != "" {
		t.Error("WithHint modified the receiver")
	}

	wrapped := fmt.Errorf("compiling page: %w", hinted)
	if d, ok := As(wrapped); !ok || d.Hint != "remove it" {
		t.Errorf("As(wrapped) = %v, %v", d, ok)
	}
	if !IsKind(wrapped, ParseError) || IsKind(wrapped, LexError) {
		t.Error("IsKind does not see through wrapping")
	}
	if _, ok := As(errors.New("plain")); ok {
		t.Error("As accepted a plain error")
	}
}

func TestKindText(t *testing.T) {
	tests := map[Kind]string{
		LexError:        "LexError",
		ParseError:      "ParseError",
		ValidationError: "ValidationError",
		Kind(0):         "UnknownError",
	}
	for k, want := range tests {
		text, _ := k.MarshalText()
		if k.String() != want || string(text) != want {
			t.Errorf("Kind(%d) = %q / %q, want %q", k, k.String(), text, want)
		}
	}
}

func TestLineCol(t *testing.T) {
	src := "ab\ncd\n\nef"
	tests := []struct {
		offset int
		want   Pos
	}{
		{0, Pos{1, 1, 0}},
		{2, Pos{1, 3, 2}},
		{3, Pos{2, 1, 3}},
		{7, Pos{4, 1, 7}},
		{-4, Pos{1, 1, 0}},
		{99, Pos{4, 3, 9}},
	}
	for _, tt := range tests {
		if got := LineCol(src, tt.offset); got != tt.want {
			t.Errorf("LineCol(%d) = %+v, want %+v", tt.offset, got, tt.want)
		}
	}
}

func TestFormat(t *testing.T) {
	src := "div {\n  p { \"hi\" }\n} }\nspan;"
	err := Errorf(ParseError, Span{Start: Pos{3, 3, 20}}, "unmatched '}'").WithHint("delete the brace")

	want := `ParseError in page.mu at 3:3: unmatched '}'

   2 |   p { "hi" }
   3 | } }
     |   ^
   4 | span;
hint: delete the brace
`
	if got := Format(err, "page.mu", src); got != want {
		t.Errorf("Format =\n%s\nwant\n%s", got, want)
	}

	first := Errorf(LexError, Span{Start: Pos{1, 1, 0}}, "bad")
	want = "LexError at 1:1: bad\n\n   1 | x\n     | ^\n"
	if got := Format(first, "", "x"); got != want {
		t.Errorf("Format without name =\n%q\nwant\n%q", got, want)
	}

	if got := Format(errors.New("plain"), "page.mu", src); got != "plain" {
		t.Errorf("Format(plain) = %q", got)
	}
}
