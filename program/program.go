// Package program defines the Output Program, the lowered form of a
// template, and interprets it.
//
// A Program is an ordered sequence of instructions: literal writes, escaped
// or raw expression writes, and blocks that mirror the template's control
// flow. Programs are immutable once built; any number of goroutines may
// execute the same Program concurrently, each with its own writer and scope.
package program

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/abiiranathan/go-markup/ast"
	"github.com/abiiranathan/go-markup/diag"
	"github.com/abiiranathan/go-markup/escape"
)

// Op is the instruction opcode.
type Op uint8

const (
	WriteLiteral Op = iota // write Text verbatim
	WriteEscaped           // evaluate Expr, escape for Context, write
	WriteRaw               // evaluate Expr, write unescaped
	Block                  // run a control block
)

var opNames = [...]string{"literal", "escaped", "raw", "block"}

func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return "Op(" + strconv.Itoa(int(o)) + ")"
}

func (o Op) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// BlockKind is the control construct a block was lowered from.
type BlockKind uint8

const (
	If BlockKind = iota
	For
	While
	Let
	Match
)

var blockNames = [...]string{"if", "for", "while", "let", "match"}

func (k BlockKind) String() string {
	if int(k) < len(blockNames) {
		return blockNames[k]
	}
	return "BlockKind(" + strconv.Itoa(int(k)) + ")"
}

func (k BlockKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Instr is one instruction.
type Instr struct {
	Op      Op             `json:"op"`
	Text    string         `json:"text,omitempty"`
	Expr    *ast.Expr      `json:"expr,omitempty"`
	Context escape.Context `json:"context,omitempty"`
	Block   *BlockInstr    `json:"block,omitempty"`
}

// BlockInstr is the descriptor and nested sequences of a Block instruction.
//
//	If:    Cases[i].Cond guards Cases[i].Body; Else runs when none holds.
//	For:   Body runs once per element of Expr, with Binding bound.
//	While: Body runs while Expr is true.
//	Let:   Body runs once with Binding bound to the value of Expr.
//	Match: the first case with a matching pattern and true guard runs.
type BlockInstr struct {
	Kind    BlockKind   `json:"kind"`
	Expr    *ast.Expr   `json:"expr,omitempty"`
	Binding ast.Binding `json:"binding,omitzero"`
	Cases   []Case      `json:"cases,omitempty"`
	Else    []Instr     `json:"else,omitempty"`
	Body    []Instr     `json:"body,omitempty"`
	Span    diag.Span   `json:"span"`
}

// Case is an If branch or a Match arm.
type Case struct {
	Cond     *ast.Expr  `json:"cond,omitempty"`
	Patterns []ast.Expr `json:"patterns,omitempty"`
	Guard    *ast.Expr  `json:"guard,omitempty"`
	Body     []Instr    `json:"body"`
}

// Program is a lowered template.
type Program struct {
	Instrs []Instr `json:"instrs"`

	esc *escape.Table
}

// New returns a Program that escapes WriteEscaped values with esc. A nil
// table means escape.HTML().
func New(instrs []Instr, esc *escape.Table) *Program {
	if esc == nil {
		esc = escape.HTML()
	}
	return &Program{Instrs: instrs, esc: esc}
}

// Escape returns the table used for WriteEscaped.
func (p *Program) Escape() *escape.Table {
	if p.esc == nil {
		return escape.HTML()
	}
	return p.esc
}

// Count returns the number of instructions with the given opcode, including
// those nested in blocks.
func (p *Program) Count(op Op) int {
	return count(p.Instrs, op)
}

func count(seq []Instr, op Op) int {
	n := 0
	for _, in := range seq {
		if in.Op == op {
			n++
		}
		if b := in.Block; b != nil {
			n += count(b.Body, op) + count(b.Else, op)
			for _, c := range b.Cases {
				n += count(c.Body, op)
			}
		}
	}
	return n
}

// String renders the program as an indented listing, one instruction per
// line. The listing is stable for identical programs.
func (p *Program) String() string {
	var b strings.Builder
	dump(&b, p.Instrs, 0)
	return b.String()
}

func dump(b *strings.Builder, seq []Instr, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, in := range seq {
		switch in.Op {
		case WriteLiteral:
			fmt.Fprintf(b, "%sliteral %q\n", indent, in.Text)
		case WriteEscaped:
			fmt.Fprintf(b, "%sescaped(%s) %s\n", indent, in.Context, in.Expr.Src)
		case WriteRaw:
			fmt.Fprintf(b, "%sraw %s\n", indent, in.Expr.Src)
		case Block:
			dumpBlock(b, in.Block, depth)
		}
	}
}

func dumpBlock(b *strings.Builder, blk *BlockInstr, depth int) {
	indent := strings.Repeat("  ", depth)
	switch blk.Kind {
	case If:
		fmt.Fprintf(b, "%sif\n", indent)
		for _, c := range blk.Cases {
			fmt.Fprintf(b, "%s  case %s\n", indent, c.Cond.Src)
			dump(b, c.Body, depth+2)
		}
		if blk.Else != nil {
			fmt.Fprintf(b, "%s  else\n", indent)
			dump(b, blk.Else, depth+2)
		}
	case For:
		fmt.Fprintf(b, "%sfor %s in %s\n", indent, blk.Binding, blk.Expr.Src)
		dump(b, blk.Body, depth+1)
	case While:
		fmt.Fprintf(b, "%swhile %s\n", indent, blk.Expr.Src)
		dump(b, blk.Body, depth+1)
	case Let:
		fmt.Fprintf(b, "%slet %s = %s\n", indent, blk.Binding, blk.Expr.Src)
		dump(b, blk.Body, depth+1)
	case Match:
		fmt.Fprintf(b, "%smatch %s\n", indent, blk.Expr.Src)
		for _, c := range blk.Cases {
			pats := make([]string, len(c.Patterns))
			for i, p := range c.Patterns {
				pats[i] = p.Src
			}
			line := strings.Join(pats, " | ")
			if c.Guard != nil {
				line += " if " + c.Guard.Src
			}
			fmt.Fprintf(b, "%s  case %s\n", indent, line)
			dump(b, c.Body, depth+2)
		}
	}
}
