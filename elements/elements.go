// Package elements holds the configurable table of recognized element names
// and the subset of them that are void.
//
// The default table is HTML: the element atoms of golang.org/x/net/html/atom
// plus the SVG and MathML names that atom does not carry. Any name that
// contains '-' is a custom element and is always accepted.
package elements

import (
	"slices"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"golang.org/x/net/html/atom"

	"github.com/abiiranathan/go-markup/ast"
)

// Table classifies element names. A Table is immutable once built and safe
// for concurrent use.
type Table struct {
	known map[string]struct{}
	void  map[string]struct{}
	names []string // sorted, for suggestions
}

// New builds a table from the given recognized names and void names. Void
// names are recognized implicitly.
func New(known, void []string) *Table {
	t := &Table{
		known: make(map[string]struct{}, len(known)+len(void)),
		void:  make(map[string]struct{}, len(void)),
	}
	for _, n := range known {
		t.known[n] = struct{}{}
	}
	for _, n := range void {
		t.known[n] = struct{}{}
		t.void[n] = struct{}{}
	}
	for n := range t.known {
		t.names = append(t.names, n)
	}
	slices.Sort(t.names)
	return t
}

var htmlTable = New(htmlNames(), HTMLVoid)

// HTML returns the default HTML table.
func HTML() *Table { return htmlTable }

// WithVoid returns a copy of t whose void set is exactly void.
func (t *Table) WithVoid(void ...string) *Table {
	return New(t.names, void)
}

// WithNames returns a copy of t that also recognizes names.
func (t *Table) WithNames(names ...string) *Table {
	return New(append(slices.Clone(t.names), names...), t.VoidNames())
}

// VoidNames returns the void element names in sorted order.
func (t *Table) VoidNames() []string {
	out := make([]string, 0, len(t.void))
	for n := range t.void {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}

// Names returns all recognized names in sorted order.
func (t *Table) Names() []string { return slices.Clone(t.names) }

// Classify returns the kind of the element called name.
func (t *Table) Classify(name string) ast.ElementKind {
	switch {
	case t.IsVoid(name):
		return ast.Void
	case t.IsKnown(name):
		return ast.Known
	case strings.Contains(name, "-"):
		return ast.Custom
	default:
		return ast.Unknown
	}
}

// IsKnown reports whether name is recognized. HTML names match regardless
// of case; names registered with mixed case (SVG) must match exactly.
func (t *Table) IsKnown(name string) bool {
	if _, ok := t.known[name]; ok {
		return true
	}
	_, ok := t.known[strings.ToLower(name)]
	return ok
}

// IsVoid reports whether name is a void element.
func (t *Table) IsVoid(name string) bool {
	if _, ok := t.void[name]; ok {
		return true
	}
	_, ok := t.void[strings.ToLower(name)]
	return ok
}

// Suggest returns the recognized name closest to name, or "" when nothing
// is close enough to be a plausible typo.
func (t *Table) Suggest(name string) string {
	return Closest(name, t.names)
}

// Closest picks the candidate closest to word: first a fuzzy subsequence
// match (so "blockq" finds "blockquote"), then the smallest Levenshtein
// distance of at most 2 (so "dvi" finds "div").
func Closest(word string, candidates []string) string {
	if word == "" || len(candidates) == 0 {
		return ""
	}
	if ranks := fuzzy.RankFindFold(word, candidates); len(ranks) > 0 {
		slices.SortStableFunc(ranks, func(a, b fuzzy.Rank) int {
			if a.Distance != b.Distance {
				return a.Distance - b.Distance
			}
			return strings.Compare(a.Target, b.Target)
		})
		// Short words match as a subsequence of far too many names.
		if len(word) >= 3 && ranks[0].Distance <= len(word) {
			return ranks[0].Target
		}
	}

	lw := strings.ToLower(word)
	best, bestDist, bestAnagram := "", 3, false
	for _, c := range candidates {
		lc := strings.ToLower(c)
		d := fuzzy.LevenshteinDistance(lw, lc)
		if d > 2 {
			continue
		}
		// Among equally distant names prefer a transposition of word.
		anagram := sameLetters(lw, lc)
		if d < bestDist || (d == bestDist && anagram && !bestAnagram) {
			best, bestDist, bestAnagram = c, d, anagram
		}
	}
	return best
}

func sameLetters(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	ra, rb := []rune(a), []rune(b)
	slices.Sort(ra)
	slices.Sort(rb)
	return slices.Equal(ra, rb)
}

// HTMLVoid is the default void set: elements that never have content or a
// closing tag.
var HTMLVoid = []string{
	"area", "base", "br", "col", "embed", "hr", "img", "input",
	"link", "meta", "source", "track", "wbr",
}

var htmlAtoms = []atom.Atom{
	atom.A, atom.Abbr, atom.Address, atom.Area, atom.Article, atom.Aside,
	atom.Audio, atom.B, atom.Base, atom.Bdi, atom.Bdo, atom.Blockquote,
	atom.Body, atom.Br, atom.Button, atom.Canvas, atom.Caption, atom.Cite,
	atom.Code, atom.Col, atom.Colgroup, atom.Data, atom.Datalist, atom.Dd,
	atom.Del, atom.Details, atom.Dfn, atom.Dialog, atom.Div, atom.Dl,
	atom.Dt, atom.Em, atom.Embed, atom.Fieldset, atom.Figcaption,
	atom.Figure, atom.Footer, atom.Form, atom.H1, atom.H2, atom.H3,
	atom.H4, atom.H5, atom.H6, atom.Head, atom.Header, atom.Hgroup,
	atom.Hr, atom.Html, atom.I, atom.Iframe, atom.Img, atom.Input,
	atom.Ins, atom.Kbd, atom.Label, atom.Legend, atom.Li, atom.Link,
	atom.Main, atom.Map, atom.Mark, atom.Menu, atom.Meta, atom.Meter,
	atom.Nav, atom.Noscript, atom.Object, atom.Ol, atom.Optgroup,
	atom.Option, atom.Output, atom.P, atom.Picture, atom.Pre,
	atom.Progress, atom.Q, atom.Rp, atom.Rt, atom.Ruby, atom.S,
	atom.Samp, atom.Script, atom.Search, atom.Section, atom.Select,
	atom.Slot, atom.Small, atom.Source, atom.Span, atom.Strong,
	atom.Style, atom.Sub, atom.Summary, atom.Sup, atom.Table,
	atom.Tbody, atom.Td, atom.Template, atom.Textarea, atom.Tfoot,
	atom.Th, atom.Thead, atom.Time, atom.Title, atom.Tr, atom.Track,
	atom.U, atom.Ul, atom.Var, atom.Video, atom.Wbr,
	atom.Svg, atom.Math, atom.Desc, atom.Mi, atom.Mn, atom.Mo, atom.Ms,
	atom.Mtext, atom.Annotation,
}

// svgAndMathML are names inside <svg> and <math> that atom does not carry.
// Mixed-case SVG names are kept as written.
var svgAndMathML = []string{
	"circle", "clipPath", "defs", "ellipse", "feBlend", "feColorMatrix",
	"feGaussianBlur", "feOffset", "filter", "foreignObject", "g", "line",
	"linearGradient", "marker", "mask", "path", "pattern", "polygon",
	"polyline", "radialGradient", "rect", "stop", "symbol", "text",
	"textPath", "tspan", "use", "view",
	"mfrac", "mroot", "mrow", "msqrt", "msub", "msubsup", "msup",
	"mtable", "mtd", "mtr", "semantics",
}

func htmlNames() []string {
	names := make([]string, 0, len(htmlAtoms)+len(svgAndMathML))
	for _, a := range htmlAtoms {
		names = append(names, a.String())
	}
	return append(names, svgAndMathML...)
}
