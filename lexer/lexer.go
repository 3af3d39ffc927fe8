// Package lexer tokenizes markup template source.
//
// Tokenization is context-free except for the splice distinction: inside
// '(' ')' and '[' ']' splices, and inside control headers, raw host
// expression text is collected as a single Expr token. Delimiter depth is
// counted while scanning an expression, and delimiters inside string
// literals of the expression never count.
//
// Three markup sub-contexts are tracked on a stack so the lexer can hand
// control back at the right delimiter:
//   - markup:   element/text/control syntax
//   - arms:     the body of an @match, a list of `pattern => body` arms
//   - arm body: a single unbraced markup item, ended by ',' or '}'
//
// The lexer is pull-based (Next) so that diagnostics surface in source
// order together with the parser's.
package lexer

import (
	"fmt"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/abiiranathan/go-markup/diag"
	"github.com/abiiranathan/go-markup/token"
)

type mode uint8

const (
	modeMarkup mode = iota
	modeArms
	modeArmBody
)

// Lexer scans template source into tokens.
type Lexer struct {
	src        string
	pos        int
	lineStarts []int

	modes   []mode
	pending []token.Token
	done    bool

	// pendingArms marks that the next '{' opens an @match arm list.
	pendingArms bool
	// expectIn marks an @for header: the pattern is lexed as normal tokens
	// and the iterable expression starts after the `in` keyword.
	expectIn bool
	// expectAssign marks an @let header: the init expression follows '='.
	expectAssign bool
}

// New returns a Lexer for src.
func New(src string) *Lexer {
	starts := []int{0}
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &Lexer{
		src:        src,
		lineStarts: starts,
		modes:      []mode{modeMarkup},
	}
}

// Lex tokenizes all of src. The final token is always EOF.
func Lex(src string) ([]token.Token, error) {
	l := New(src)
	var out []token.Token
	for {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}
		out = append(out, tok)
		if tok.Kind == token.EOF {
			return out, nil
		}
	}
}

// Next returns the next token. After EOF it keeps returning EOF.
func (l *Lexer) Next() (token.Token, error) {
	for len(l.pending) == 0 {
		if l.done {
			end := l.position(len(l.src))
			return token.Token{Kind: token.EOF, Span: diag.Span{Start: end, End: end}}, nil
		}
		var err error
		switch l.mode() {
		case modeArms:
			err = l.lexArm()
		default:
			err = l.lexMarkup()
		}
		if err != nil {
			l.done = true
			l.pending = nil
			return token.Token{}, err
		}
	}
	tok := l.pending[0]
	l.pending = l.pending[1:]
	return tok, nil
}

// Position converts a byte offset into a line/column position.
func (l *Lexer) position(offset int) diag.Pos {
	i, found := slices.BinarySearch(l.lineStarts, offset)
	if !found {
		i--
	}
	return diag.Pos{Line: i + 1, Column: offset - l.lineStarts[i] + 1, Offset: offset}
}

func (l *Lexer) span(start, end int) diag.Span {
	return diag.Span{Start: l.position(start), End: l.position(end)}
}

func (l *Lexer) mode() mode { return l.modes[len(l.modes)-1] }

func (l *Lexer) push(m mode) { l.modes = append(l.modes, m) }

func (l *Lexer) pop() {
	if len(l.modes) > 1 {
		l.modes = l.modes[:len(l.modes)-1]
	}
}

func (l *Lexer) emit(kind token.Kind, start, end int, value string) {
	text := l.src[start:end]
	if kind != token.String && kind != token.Expr {
		value = text
	}
	l.pending = append(l.pending, token.Token{
		Kind:  kind,
		Text:  text,
		Value: value,
		Span:  l.span(start, end),
	})
}

func (l *Lexer) errorf(start, end int, format string, args ...any) error {
	return diag.Errorf(diag.LexError, l.span(start, end), format, args...)
}

func (l *Lexer) peekByte(off int) byte {
	if l.pos+off < len(l.src) {
		return l.src[l.pos+off]
	}
	return 0
}

// skipSpace skips whitespace and comments.
func (l *Lexer) skipSpace() error {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f':
			l.pos++
		case c == '/' && l.peekByte(1) == '/':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		case c == '/' && l.peekByte(1) == '*':
			end := strings.Index(l.src[l.pos+2:], "*/")
			if end < 0 {
				return l.errorf(l.pos, len(l.src), "unterminated block comment")
			}
			l.pos += end + 4
		default:
			return nil
		}
	}
	return nil
}

func (l *Lexer) lexMarkup() error {
	if err := l.skipSpace(); err != nil {
		return err
	}
	if l.pos >= len(l.src) {
		l.emit(token.EOF, l.pos, l.pos, "")
		l.done = true
		return nil
	}

	start := l.pos
	c := l.src[l.pos]
	switch {
	case c == '{':
		l.pos++
		l.emit(token.LBrace, start, l.pos, "")
		l.expectIn, l.expectAssign = false, false
		if l.pendingArms {
			l.pendingArms = false
			l.push(modeArms)
		} else {
			l.push(modeMarkup)
		}
	case c == '}':
		if l.mode() == modeArmBody {
			// End of the enclosing @match; the arms context emits the brace.
			l.pop()
			return nil
		}
		l.pos++
		l.emit(token.RBrace, start, l.pos, "")
		l.pop()
	case c == ',':
		l.pos++
		l.emit(token.Comma, start, l.pos, "")
		if l.mode() == modeArmBody {
			l.pop()
		}
	case c == ';':
		l.pos++
		l.emit(token.Semi, start, l.pos, "")
		l.expectIn, l.expectAssign = false, false
	case c == '.':
		l.pos++
		l.emit(token.Dot, start, l.pos, "")
	case c == '#':
		l.pos++
		l.emit(token.Hash, start, l.pos, "")
	case c == '!':
		l.pos++
		l.emit(token.Bang, start, l.pos, "")
	case c == '|':
		l.pos++
		l.emit(token.Pipe, start, l.pos, "")
	case c == '=' && l.peekByte(1) == '>':
		l.pos += 2
		l.emit(token.Arrow, start, l.pos, "")
	case c == '=':
		l.pos++
		l.emit(token.Assign, start, l.pos, "")
		if l.expectAssign {
			l.expectAssign = false
			return l.lexHeader(stopLet)
		}
	case c == '@':
		l.pos++
		l.emit(token.At, start, l.pos, "")
		if r, _ := utf8.DecodeRuneInString(l.src[l.pos:]); isIdentStart(r) {
			return l.lexDirective()
		}
	case c == '(':
		return l.lexSplice('(', ')')
	case c == '[':
		return l.lexSplice('[', ']')
	case c == '"' || c == '`':
		return l.lexString()
	case c >= '0' && c <= '9':
		l.lexNumber()
	default:
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		if !isIdentStart(r) {
			if r == utf8.RuneError && size <= 1 {
				return l.errorf(start, start+1, "invalid UTF-8 byte 0x%02x", c)
			}
			return l.errorf(start, start+size, "unexpected character %q", r)
		}
		word := l.lexIdent()
		if l.expectIn && word == "in" {
			l.expectIn = false
			return l.lexHeader(stopBrace)
		}
	}
	return nil
}

// lexDirective lexes the keyword after '@' and, for keywords that take a
// host expression header, the header itself.
func (l *Lexer) lexDirective() error {
	switch l.lexIdent() {
	case "if", "while":
		return l.lexHeader(stopBrace)
	case "match":
		if err := l.lexHeader(stopBrace); err != nil {
			return err
		}
		l.pendingArms = true
	case "else":
		save := l.pos
		if err := l.skipSpace(); err != nil {
			return err
		}
		if strings.HasPrefix(l.src[l.pos:], "if") && !isIdentByteAt(l.src, l.pos+2) {
			l.lexIdent()
			return l.lexHeader(stopBrace)
		}
		l.pos = save
	case "for":
		l.expectIn = true
	case "let":
		l.expectAssign = true
	}
	return nil
}

func (l *Lexer) lexIdent() string {
	start := l.pos
	for l.pos < len(l.src) {
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		if isIdentPart(r) || ((r == '-' || r == ':') && l.pos > start && isIdentByteAt(l.src, l.pos+1)) {
			l.pos += size
			continue
		}
		break
	}
	l.emit(token.Ident, start, l.pos, "")
	return l.src[start:l.pos]
}

func (l *Lexer) lexNumber() {
	start := l.pos
	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		l.pos++
	}
	if l.peekByte(0) == '.' && isDigit(l.peekByte(1)) {
		l.pos++
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.pos++
		}
	}
	l.emit(token.Number, start, l.pos, "")
}

// lexString lexes a double-quoted string with escapes or a backquoted raw
// string.
func (l *Lexer) lexString() error {
	start := l.pos
	if l.src[l.pos] == '`' {
		end := strings.IndexByte(l.src[l.pos+1:], '`')
		if end < 0 {
			return l.errorf(start, len(l.src), "unterminated raw string literal")
		}
		l.pos += end + 2
		l.emit(token.String, start, l.pos, l.src[start+1:l.pos-1])
		return nil
	}

	l.pos++
	var b strings.Builder
	for {
		if l.pos >= len(l.src) {
			return l.errorf(start, len(l.src), "unterminated string literal")
		}
		c := l.src[l.pos]
		switch c {
		case '"':
			l.pos++
			l.emit(token.String, start, l.pos, b.String())
			return nil
		case '\\':
			if err := l.lexEscape(&b); err != nil {
				return err
			}
		default:
			b.WriteByte(c)
			l.pos++
		}
	}
}

func (l *Lexer) lexEscape(b *strings.Builder) error {
	start := l.pos
	if l.pos+1 >= len(l.src) {
		return l.errorf(start, len(l.src), "unterminated escape sequence")
	}
	c := l.src[l.pos+1]
	l.pos += 2
	switch c {
	case 'n':
		b.WriteByte('\n')
	case 'r':
		b.WriteByte('\r')
	case 't':
		b.WriteByte('\t')
	case '0':
		b.WriteByte(0)
	case '\\', '"', '\'':
		b.WriteByte(c)
	case 'u':
		if l.peekByte(0) != '{' {
			return l.errorf(start, l.pos, "invalid unicode escape: expected '{' after \\u")
		}
		end := strings.IndexByte(l.src[l.pos:], '}')
		if end < 0 {
			return l.errorf(start, l.pos+1, "unterminated unicode escape")
		}
		hex := l.src[l.pos+1 : l.pos+end]
		l.pos += end + 1
		var v rune
		if len(hex) == 0 || len(hex) > 6 {
			return l.errorf(start, l.pos, "invalid unicode escape \\u{%s}", hex)
		}
		for i := 0; i < len(hex); i++ {
			d := hexVal(hex[i])
			if d < 0 {
				return l.errorf(start, l.pos, "invalid unicode escape \\u{%s}", hex)
			}
			v = v<<4 | rune(d)
		}
		if !utf8.ValidRune(v) {
			return l.errorf(start, l.pos, "invalid unicode code point U+%X", v)
		}
		b.WriteRune(v)
	default:
		r, size := utf8.DecodeRuneInString(l.src[start+1:])
		l.pos = start + 1 + size
		return l.errorf(start, l.pos, "invalid escape sequence \\%c", r)
	}
	return nil
}

// lexSplice lexes open, the expression up to the matching close, and close.
func (l *Lexer) lexSplice(open, close byte) error {
	start := l.pos
	l.pos++
	l.emit(token.SpliceOpen, start, l.pos, "")
	exprStart := l.pos
	if err := l.scanExpr(isCloser); err != nil {
		return err
	}
	if l.pos >= len(l.src) {
		return l.errorf(start, len(l.src), "unterminated splice: missing '%c'", close)
	}
	if c := l.src[l.pos]; c != close {
		return l.errorf(start, l.pos+1, "unterminated splice: expected '%c' before '%c'", close, c)
	}
	l.emitExpr(exprStart, l.pos)
	l.pos++
	l.emit(token.SpliceClose, l.pos-1, l.pos, "")
	return nil
}

// lexHeader lexes the host expression of a control header, up to (not
// including) the terminator recognized by stop.
func (l *Lexer) lexHeader(stop func(string, int) bool) error {
	for l.pos < len(l.src) && isSpace(l.src[l.pos]) {
		l.pos++
	}
	start := l.pos
	if err := l.scanExpr(stop); err != nil {
		return err
	}
	l.emitExpr(start, l.pos)
	return nil
}

// emitExpr emits the trimmed source in [start, end) as an Expr token.
func (l *Lexer) emitExpr(start, end int) {
	raw := l.src[start:end]
	lead := len(raw) - len(strings.TrimLeftFunc(raw, unicode.IsSpace))
	trail := len(raw) - len(strings.TrimRightFunc(raw, unicode.IsSpace))
	if lead == len(raw) {
		l.emit(token.Expr, start, start, "")
		return
	}
	s, e := start+lead, end-trail
	l.emit(token.Expr, s, e, l.src[s:e])
}

// scanExpr advances over host expression source until stop reports a
// terminator at delimiter depth zero, or the source ends. Nested (), [] and
// {} are balanced; quoted strings are skipped whole.
func (l *Lexer) scanExpr(stop func(src string, i int) bool) error {
	type opener struct {
		close byte
		at    int
	}
	var stack []opener
	for l.pos < len(l.src) {
		if len(stack) == 0 && stop(l.src, l.pos) {
			return nil
		}
		c := l.src[l.pos]
		switch c {
		case '"', '\'', '`':
			if err := l.skipQuoted(c); err != nil {
				return err
			}
			continue
		case '(':
			stack = append(stack, opener{')', l.pos})
		case '[':
			stack = append(stack, opener{']', l.pos})
		case '{':
			stack = append(stack, opener{'}', l.pos})
		case ')', ']', '}':
			if len(stack) == 0 {
				return l.errorf(l.pos, l.pos+1, "unbalanced '%c' in expression", c)
			}
			if top := stack[len(stack)-1]; top.close != c {
				return l.errorf(l.pos, l.pos+1, "mismatched '%c' in expression: expected '%c'", c, top.close)
			}
			stack = stack[:len(stack)-1]
		}
		l.pos++
	}
	if len(stack) > 0 {
		top := stack[len(stack)-1]
		return l.errorf(top.at, len(l.src), "unclosed '%c' in expression", l.src[top.at])
	}
	return nil
}

func (l *Lexer) skipQuoted(q byte) error {
	start := l.pos
	l.pos++
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if c == '\\' && q != '`' {
			l.pos += 2
			continue
		}
		l.pos++
		if c == q {
			return nil
		}
	}
	return l.errorf(start, len(l.src), "unterminated string literal in expression")
}

// lexArm lexes one step of an @match arm list.
func (l *Lexer) lexArm() error {
	if err := l.skipSpace(); err != nil {
		return err
	}
	if l.pos >= len(l.src) {
		l.emit(token.EOF, l.pos, l.pos, "")
		l.done = true
		return nil
	}
	start := l.pos
	switch l.src[l.pos] {
	case '}':
		l.pos++
		l.emit(token.RBrace, start, l.pos, "")
		l.pop()
		return nil
	case ',':
		l.pos++
		l.emit(token.Comma, start, l.pos, "")
		return nil
	}

	for {
		if err := l.lexHeader(stopPattern); err != nil {
			return err
		}
		if l.pos < len(l.src) && l.src[l.pos] == '|' {
			l.pos++
			l.emit(token.Pipe, l.pos-1, l.pos, "")
			continue
		}
		break
	}
	if strings.HasPrefix(l.src[l.pos:], "if") {
		start := l.pos
		l.pos += 2
		l.emit(token.Ident, start, l.pos, "")
		if err := l.lexHeader(stopArrow); err != nil {
			return err
		}
	}
	if !strings.HasPrefix(l.src[l.pos:], "=>") {
		return nil
	}
	l.pos += 2
	l.emit(token.Arrow, l.pos-2, l.pos, "")
	if err := l.skipSpace(); err != nil {
		return err
	}
	if l.pos < len(l.src) && l.src[l.pos] == '{' {
		l.pos++
		l.emit(token.LBrace, l.pos-1, l.pos, "")
		l.push(modeMarkup)
		return nil
	}
	l.push(modeArmBody)
	return nil
}

func isCloser(src string, i int) bool {
	return src[i] == ')' || src[i] == ']' || src[i] == '}'
}

func stopBrace(src string, i int) bool {
	return src[i] == '{' || src[i] == '}'
}

func stopLet(src string, i int) bool {
	return src[i] == ';' || src[i] == '}'
}

func stopArrow(src string, i int) bool {
	return strings.HasPrefix(src[i:], "=>") || src[i] == '}' || src[i] == ','
}

// stopPattern ends a match pattern at '=>', a single '|', a guard keyword,
// or the end of the arm list.
func stopPattern(src string, i int) bool {
	switch {
	case stopArrow(src, i):
		return true
	case src[i] == '|':
		return !strings.HasPrefix(src[i:], "||") && (i == 0 || src[i-1] != '|')
	case strings.HasPrefix(src[i:], "if"):
		return i > 0 && isSpace(src[i-1]) && !isIdentByteAt(src, i+2)
	}
	return false
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isIdentByteAt(s string, i int) bool {
	if i >= len(s) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return isIdentPart(r)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

func hexVal(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	}
	return -1
}

// Describe is a debugging helper that renders a token stream one per line.
func Describe(toks []token.Token) string {
	var b strings.Builder
	for _, t := range toks {
		fmt.Fprintf(&b, "%-6s %-14s %q\n", t.Span.Start, t.Kind, t.Value)
	}
	return b.String()
}
