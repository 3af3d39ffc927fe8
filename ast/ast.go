// Package ast defines the Markup AST produced by the parser.
//
// The AST is a closed set of node types. Every traversal switches over the
// concrete types exhaustively; there are no node methods beyond Span. Nodes
// are never mutated after the parser returns them, and each node has exactly
// one parent.
package ast

import (
	"strings"

	"github.com/abiiranathan/go-markup/diag"
)

// Node is implemented by *Fragment, *Element, *Text, *If, *For, *While,
// *Let and *Match.
type Node interface {
	Span() diag.Span
	node()
}

// Expr is host-language expression source as written in a splice or
// control header. Its meaning is up to the host evaluator.
type Expr struct {
	Src  string    `json:"src"`
	Span diag.Span `json:"span"`
}

func (e Expr) String() string { return e.Src }

// IsWildcard reports whether e is the match-all pattern `_`.
func (e Expr) IsWildcard() bool { return e.Src == "_" }

// Binding is the left side of @for and @let: one name, or a key/value pair.
// The name `_` discards the bound value.
type Binding struct {
	Names []string  `json:"names"`
	Span  diag.Span `json:"span"`
}

func (b Binding) String() string { return strings.Join(b.Names, ", ") }

// Fragment is an ordered sequence of nodes with no wrapping element. The
// template root and every control body is a Fragment.
type Fragment struct {
	Nodes []Node
	Pos   diag.Span
}

// ElementKind classifies an element name against the element table.
type ElementKind uint8

const (
	Known   ElementKind = iota // a recognized element with a closing tag
	Void                       // a recognized element that never has children or a closing tag
	Custom                     // a custom element (name contains '-')
	Unknown                    // not recognized; rejected unless unknown elements are allowed
)

func (k ElementKind) String() string {
	switch k {
	case Known:
		return "known"
	case Void:
		return "void"
	case Custom:
		return "custom"
	default:
		return "unknown"
	}
}

// Element is a markup element. Body is nil when the element was closed
// with ';' and non-nil (possibly empty) when it was written with braces.
type Element struct {
	Name    string
	Kind    ElementKind
	Attrs   []*Attr
	Body    *Fragment
	NamePos diag.Span
	Pos     diag.Span
}

// Children returns the element's child nodes, or nil for `name;`.
func (e *Element) Children() []Node {
	if e.Body == nil {
		return nil
	}
	return e.Body.Nodes
}

// Attr returns the attribute named name, or nil.
func (e *Element) Attr(name string) *Attr {
	for _, a := range e.Attrs {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// AttrKind is the form of an attribute value.
type AttrKind uint8

const (
	AttrEmpty   AttrKind = iota // name             boolean-present
	AttrLiteral                 // name="text"
	AttrExpr                    // name=(expr) or name=!(expr)
	AttrToggle                  // name[cond]       present iff cond is true
	AttrList                    // name={ "a" (b) } and .class/#id shorthand
)

func (k AttrKind) String() string {
	switch k {
	case AttrEmpty:
		return "empty"
	case AttrLiteral:
		return "literal"
	case AttrExpr:
		return "expr"
	case AttrToggle:
		return "toggle"
	default:
		return "list"
	}
}

// Attr is one attribute of an element.
type Attr struct {
	Name string
	Kind AttrKind
	// Value is the decoded text of an AttrLiteral.
	Value string
	// Expr is the value of an AttrExpr or the condition of an AttrToggle.
	Expr Expr
	// Raw marks a value written with '!' that must not be escaped.
	Raw bool
	// Parts and Sep describe an AttrList: the parts are emitted in order,
	// separated by Sep. Shorthand classes and ids use " ", brace values "".
	Parts []AttrPart
	Sep   string
	// Shorthand marks a class or id attribute assembled from '.'/'#'.
	Shorthand bool
	Pos       diag.Span
}

// AttrPart is one piece of an AttrList value: literal text or an escaped
// expression, optionally emitted only when Cond is true.
type AttrPart struct {
	Text string
	Expr *Expr
	Cond *Expr
}

// TextKind distinguishes literal text from a spliced expression.
type TextKind uint8

const (
	Literal TextKind = iota
	Splice
)

// Text is literal text or an expression splice in element or fragment
// content. Escape is false only for the explicit raw forms !"..." and !(e).
type Text struct {
	Kind   TextKind
	Value  string
	Expr   Expr
	Escape bool
	Pos    diag.Span
}

// Branch is one `if`/`else if` arm of an If.
type Branch struct {
	Cond Expr
	Body *Fragment
}

// If is an @if / @else if / @else chain. It has at least one branch.
type If struct {
	Branches []Branch
	Else     *Fragment
	Pos      diag.Span
}

// For iterates Body over the values produced by Iter.
type For struct {
	Binding Binding
	Iter    Expr
	Body    *Fragment
	Pos     diag.Span
}

// While repeats Body while Cond is true.
type While struct {
	Cond Expr
	Body *Fragment
	Pos  diag.Span
}

// Let binds the value of Init for the remaining siblings of the enclosing
// fragment.
type Let struct {
	Binding Binding
	Init    Expr
	Pos     diag.Span
}

// Arm is one arm of a Match. Patterns are alternatives; Guard, when set,
// must also hold for the arm to be taken.
type Arm struct {
	Patterns []Expr
	Guard    *Expr
	Body     *Fragment
	Pos      diag.Span
}

// Match renders the body of the first arm whose pattern matches Subject.
type Match struct {
	Subject Expr
	Arms    []Arm
	Pos     diag.Span
}

func (n *Fragment) Span() diag.Span { return n.Pos }
func (n *Element) Span() diag.Span  { return n.Pos }
func (n *Text) Span() diag.Span     { return n.Pos }
func (n *If) Span() diag.Span       { return n.Pos }
func (n *For) Span() diag.Span      { return n.Pos }
func (n *While) Span() diag.Span    { return n.Pos }
func (n *Let) Span() diag.Span      { return n.Pos }
func (n *Match) Span() diag.Span    { return n.Pos }

func (*Fragment) node() {}
func (*Element) node()  {}
func (*Text) node()     {}
func (*If) node()       {}
func (*For) node()      {}
func (*While) node()    {}
func (*Let) node()      {}
func (*Match) node()    {}
