// Package diag provides the span and diagnostic types shared by the
// lexer, parser, and assembler. The core never renders diagnostics
// itself -- it only ever produces (message, span) pairs; Render is an
// optional convenience for embedders that want caret-underlined text.
package diag

import (
	"fmt"
	"strings"
)

// Span is a half-open byte range [M, N) over some source buffer.
type Span struct {
	M int
	N int
}

// NewSpan returns the span [m, n).
func NewSpan(m, n int) Span {
	return Span{M: m, N: n}
}

// Width returns the number of bytes covered by the span, minimum 1.
func (s Span) Width() int {
	if s.N <= s.M {
		return 1
	}
	return s.N - s.M
}

// Slice returns the portion of src covered by the span.
func (s Span) Slice(src string) string {
	return src[s.M:s.N]
}

// Include extends the span so that it ends where other ends.
func (s Span) Include(other Span) Span {
	return Span{M: s.M, N: other.N}
}

// Diagnostic is an error or warning anchored to a span of the source.
type Diagnostic struct {
	Message string
	Span    Span
}

// New constructs a diagnostic from a message and span.
func New(message string, span Span) Diagnostic {
	return Diagnostic{Message: message, Span: span}
}

func (d Diagnostic) Error() string {
	return d.Message
}

// List accumulates errors and warnings produced while processing a single
// source file. It mirrors the parser's per-statement error recovery:
// callers keep appending to it and report everything at once.
type List struct {
	Errors   []Diagnostic
	Warnings []Diagnostic
}

// AddError appends an error diagnostic.
func (l *List) AddError(message string, span Span) {
	l.Errors = append(l.Errors, New(message, span))
}

// AddWarning appends a warning diagnostic.
func (l *List) AddWarning(message string, span Span) {
	l.Warnings = append(l.Warnings, New(message, span))
}

// HasErrors reports whether any errors have been recorded.
func (l *List) HasErrors() bool {
	return len(l.Errors) > 0
}

// lineIndex maps byte offsets to 1-based (line, column) pairs by recording
// the byte offset that starts each line.
type lineIndex struct {
	starts []int
}

func newLineIndex(src string) *lineIndex {
	starts := []int{0}
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &lineIndex{starts: starts}
}

// position returns the 1-based line and column of byte offset m, plus the
// [start, end) byte range of the line it falls on (end excludes the
// newline).
func (idx *lineIndex) position(m int) (line, col, lineStart, lineEnd int) {
	line = len(idx.starts)
	for i, start := range idx.starts {
		if start > m {
			line = i
			break
		}
	}
	lineStart = idx.starts[line-1]
	col = m - lineStart + 1
	if line < len(idx.starts) {
		lineEnd = idx.starts[line] - 1
	} else {
		lineEnd = -1 // caller must clamp to len(source)
	}
	return
}

// Render formats a diagnostic in the conventional
// "filename:line:col: message\n<source line>\n<underline>" shape. It is a
// pure formatting helper over strings; it performs no I/O.
func Render(filename, source string, d Diagnostic) string {
	idx := newLineIndex(source)
	line, col, lineStart, lineEnd := idx.position(d.Span.M)
	if lineEnd < 0 || lineEnd > len(source) {
		lineEnd = len(source)
	}
	if lineEnd > 0 && lineEnd <= len(source) && lineEnd > lineStart && source[lineEnd-1] == '\r' {
		lineEnd--
	}
	text := source[lineStart:lineEnd]

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s:%d:%d: %s\n", filename, line, col, d.Message)
	sb.WriteString(text)
	sb.WriteByte('\n')
	sb.WriteString(strings.Repeat(" ", col-1))
	sb.WriteString(strings.Repeat("^", d.Span.Width()))
	return sb.String()
}
