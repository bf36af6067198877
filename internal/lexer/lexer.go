// Package lexer turns assembly source text into a stream of spanned
// tokens, plus the integer and string literal parsers that interpret
// a Number or String token's text once the parser has classified it.
package lexer

import (
	"fmt"
	"unicode/utf8"

	"github.com/hollowvm/intcode/internal/diag"
)

// Token is one lexical unit: its kind and the span of source it
// covers. The text itself is recovered by slicing the source with
// Span.Slice, so a Token never copies source bytes.
type Token struct {
	Kind Kind
	Span diag.Span
}

func (t Token) String() string {
	return fmt.Sprintf("%s%v", t.Kind, t.Span)
}

// Lexer scans a source string into tokens one at a time. It holds no
// state beyond a byte offset, so it is cheap to snapshot for
// lookahead: save Pos(), scan ahead, then Reset to it to rewind.
type Lexer struct {
	src string
	pos int
}

// New returns a lexer positioned at the start of src.
func New(src string) *Lexer {
	return &Lexer{src: src}
}

// Pos returns the lexer's current byte offset, usable with Reset to
// rewind after speculative lookahead.
func (l *Lexer) Pos() int {
	return l.pos
}

// Reset rewinds the lexer to a byte offset previously returned by Pos.
func (l *Lexer) Reset(pos int) {
	l.pos = pos
}

func (l *Lexer) eof() bool {
	return l.pos >= len(l.src)
}

func (l *Lexer) byteAt(i int) byte {
	if i >= len(l.src) {
		return 0
	}
	return l.src[i]
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentStart(b byte) bool {
	return isAlpha(b) || b == '_'
}

func isIdentChar(b byte) bool {
	return isAlpha(b) || isDigit(b) || b == '_'
}

func isSpaceTab(b byte) bool {
	return b == ' ' || b == '\t'
}

// Next scans and returns the next token. Every byte of source is
// covered by exactly one token, including Whitespace and Comment --
// callers that want those filtered out use NextSignificant or
// NextCode. A lexical failure short-circuits the call and returns a
// diagnostic instead of a token.
func (l *Lexer) Next() (Token, *diag.Diagnostic) {
	if l.eof() {
		return Token{Kind: Eof, Span: diag.NewSpan(l.pos, l.pos)}, nil
	}

	start := l.pos
	ch := l.src[start]

	switch {
	case ch == ':':
		l.pos++
		return Token{Kind: Colon, Span: diag.NewSpan(start, l.pos)}, nil
	case ch == ',':
		l.pos++
		return Token{Kind: Comma, Span: diag.NewSpan(start, l.pos)}, nil
	case ch == '#':
		l.pos++
		return Token{Kind: Hash, Span: diag.NewSpan(start, l.pos)}, nil
	case ch == '+':
		l.pos++
		return Token{Kind: Plus, Span: diag.NewSpan(start, l.pos)}, nil
	case ch == '-':
		l.pos++
		return Token{Kind: Minus, Span: diag.NewSpan(start, l.pos)}, nil
	case ch == '\n':
		l.pos++
		return Token{Kind: Newline, Span: diag.NewSpan(start, l.pos)}, nil
	case isSpaceTab(ch):
		for !l.eof() && isSpaceTab(l.src[l.pos]) {
			l.pos++
		}
		return Token{Kind: Whitespace, Span: diag.NewSpan(start, l.pos)}, nil
	case ch == ';':
		for !l.eof() && l.src[l.pos] != '\n' {
			l.pos++
		}
		return Token{Kind: Comment, Span: diag.NewSpan(start, l.pos)}, nil
	case ch == '"':
		return l.scanString(start)
	case isDigit(ch):
		l.pos++
		for !l.eof() && isIdentChar(l.src[l.pos]) {
			l.pos++
		}
		return Token{Kind: Number, Span: diag.NewSpan(start, l.pos)}, nil
	case isIdentStart(ch):
		l.pos++
		for !l.eof() && isIdentChar(l.src[l.pos]) {
			l.pos++
		}
		return Token{Kind: Ident, Span: diag.NewSpan(start, l.pos)}, nil
	default:
		_, width := utf8.DecodeRuneInString(l.src[start:])
		if width == 0 {
			width = 1
		}
		l.pos = start + width
		d := diag.New("unexpected character", diag.NewSpan(start, l.pos))
		return Token{}, &d
	}
}

func (l *Lexer) scanString(start int) (Token, *diag.Diagnostic) {
	l.pos++ // consume opening quote
	for {
		if l.eof() || l.src[l.pos] == '\n' {
			d := diag.New("undelimited string", diag.NewSpan(start, l.pos))
			return Token{}, &d
		}
		ch := l.src[l.pos]
		if ch == '\\' {
			l.pos++
			if l.eof() || l.src[l.pos] == '\n' {
				d := diag.New("undelimited string", diag.NewSpan(start, l.pos))
				return Token{}, &d
			}
			l.pos++
			continue
		}
		if ch == '"' {
			l.pos++
			return Token{Kind: String, Span: diag.NewSpan(start, l.pos)}, nil
		}
		l.pos++
	}
}

// NextSignificant returns the next token that is not Whitespace or
// Comment -- the "interesting" filter most parsing decisions use.
// Newline tokens are still returned, since the grammar treats them as
// statement separators.
func (l *Lexer) NextSignificant() (Token, *diag.Diagnostic) {
	for {
		tok, err := l.Next()
		if err != nil {
			return tok, err
		}
		if tok.Kind != Whitespace && tok.Kind != Comment {
			return tok, nil
		}
	}
}

// NextCode returns the next token that is not Whitespace, Comment, or
// Newline -- used where the grammar explicitly allows blank lines to
// be skipped, such as between "label:" and the following mnemonic.
func (l *Lexer) NextCode() (Token, *diag.Diagnostic) {
	for {
		tok, err := l.Next()
		if err != nil {
			return tok, err
		}
		if tok.Kind != Whitespace && tok.Kind != Comment && tok.Kind != Newline {
			return tok, nil
		}
	}
}
