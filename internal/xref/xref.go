// Package xref builds a cross-reference report over assembly source:
// every label's defining address, and every site that reads, writes,
// or jumps to it. Grounded on the teacher's tools.XRefGenerator, it
// scans the same ast.Program the assembler consumes rather than
// re-deriving one from assembled words, and reuses the
// disassembler's Read/Write/Jump vocabulary for reference purposes so
// the two reports read the same way.
package xref

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hollowvm/intcode/internal/ast"
	"github.com/hollowvm/intcode/internal/diag"
	"github.com/hollowvm/intcode/internal/disasm"
	"github.com/hollowvm/intcode/internal/parser"
)

// Reference is a single site that names a symbol.
type Reference struct {
	Purpose disasm.Purpose
	Line    int
	Column  int
	Source  string // the source line's text
}

// Symbol is a label and every place it is defined and used.
type Symbol struct {
	Name string

	Defined bool
	Address int64 // defining word address; meaningful only if Defined

	References []Reference

	// IsDataLabel is true when the label is attached to a DB
	// statement rather than an opcode.
	IsDataLabel bool
}

// IsJumpTarget reports whether any reference to the symbol is a jump.
func (s *Symbol) IsJumpTarget() bool {
	for _, r := range s.References {
		if r.Purpose == disasm.Jump {
			return true
		}
	}
	return false
}

// Used reports whether the symbol has at least one reference.
func (s *Symbol) Used() bool {
	return len(s.References) > 0
}

// generator accumulates symbols while walking one parsed program.
type generator struct {
	source  string
	lines   []int // byte offset each line starts at, 0-based
	symbols map[string]*Symbol
	order   []string
}

func (g *generator) symbol(name string) *Symbol {
	if s, ok := g.symbols[name]; ok {
		return s
	}
	s := &Symbol{Name: name}
	g.symbols[name] = s
	g.order = append(g.order, name)
	return s
}

func newLineStarts(src string) []int {
	starts := []int{0}
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// lineCol returns the 1-based line/column of byte offset m, plus the
// text of that line.
func (g *generator) lineCol(m int) (line, col int, text string) {
	line = len(g.lines)
	for i, start := range g.lines {
		if start > m {
			line = i
			break
		}
	}
	lineStart := g.lines[line-1]
	col = m - lineStart + 1
	lineEnd := len(g.source)
	if line < len(g.lines) {
		lineEnd = g.lines[line] - 1
	}
	if lineEnd > lineStart && lineEnd <= len(g.source) && g.source[lineEnd-1] == '\r' {
		lineEnd--
	}
	return line, col, g.source[lineStart:lineEnd]
}

func (g *generator) addReference(name string, purpose disasm.Purpose, span diag.Span) {
	line, col, text := g.lineCol(span.M)
	s := g.symbol(name)
	s.References = append(s.References, Reference{
		Purpose: purpose,
		Line:    line,
		Column:  col,
		Source:  text,
	})
}

// instrWidth returns how many words a statement occupies, without
// resolving any label value -- enough to track defining addresses.
func instrWidth(instr ast.Instr) int64 {
	switch instr.Kind {
	case ast.InstrOp:
		return int64(len(instr.Params) + 1)
	case ast.InstrData:
		n := int64(0)
		for _, d := range instr.Data {
			if d.Kind == ast.DataString {
				n += int64(len(d.String))
			} else {
				n++
			}
		}
		return n
	default:
		return 0
	}
}

// paramPurpose returns the mention purpose for the i-th (0-based)
// parameter of op, mirroring the disassembler's dynamic tracer.
func paramPurpose(op ast.Opcode, i int) disasm.Purpose {
	switch op {
	case ast.OpAdd, ast.OpMul, ast.OpLT, ast.OpEQ:
		if i == 2 {
			return disasm.Write
		}
		return disasm.Read
	case ast.OpIn:
		return disasm.Write
	case ast.OpOut, ast.OpARB:
		return disasm.Read
	case ast.OpJNZ, ast.OpJZ:
		if i == 1 {
			return disasm.Jump
		}
		return disasm.Read
	default:
		return disasm.Read
	}
}

func (g *generator) collectParam(p ast.Param, purpose disasm.Purpose) {
	if p.Kind == ast.ParamLabel && p.Label.Kind == ast.Fixed {
		g.addReference(p.Label.Name, purpose, p.Span)
	}
}

func (g *generator) collectData(d ast.DataParam) {
	if d.Kind == ast.DataLabel && d.Label.Kind == ast.Fixed {
		g.addReference(d.Label.Name, disasm.Read, d.Span)
	}
}

func (g *generator) walk(prog ast.Program) {
	addr := int64(0)
	for _, stmt := range prog.Stmts {
		if stmt.HasLabel {
			s := g.symbol(stmt.Label)
			if !s.Defined {
				s.Defined = true
				s.Address = addr
				s.IsDataLabel = stmt.Instr.Kind == ast.InstrData
			}
		}

		switch stmt.Instr.Kind {
		case ast.InstrOp:
			for i, p := range stmt.Instr.Params {
				g.collectParam(p, paramPurpose(stmt.Instr.Opcode, i))
			}
		case ast.InstrData:
			for _, d := range stmt.Instr.Data {
				g.collectData(d)
			}
		}

		addr += instrWidth(stmt.Instr)
	}
}

// Generate parses source and returns every symbol it defines or
// references, keyed by name. Parse errors are returned unchanged and
// no symbols are produced; a Parse that only warns still yields a
// full cross-reference.
func Generate(source string) (map[string]*Symbol, diag.List) {
	prog, errs := parser.Parse(source)
	if errs.HasErrors() {
		return nil, errs
	}

	g := &generator{
		source:  source,
		lines:   newLineStarts(source),
		symbols: make(map[string]*Symbol),
	}
	g.walk(prog)
	return g.symbols, errs
}

// Report renders a cross-reference in a stable, sorted form.
type Report struct {
	symbols []*Symbol
}

// NewReport sorts symbols by name for deterministic rendering.
func NewReport(symbols map[string]*Symbol) *Report {
	sorted := make([]*Symbol, 0, len(symbols))
	for _, s := range symbols {
		sorted = append(sorted, s)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	return &Report{symbols: sorted}
}

var purposeOrder = []disasm.Purpose{disasm.Jump, disasm.Read, disasm.Write}

// String renders the report as text: one block per symbol, then a
// summary, in the teacher's XRefReport column layout.
func (r *Report) String() string {
	var sb strings.Builder

	sb.WriteString("Symbol Cross-Reference\n")
	sb.WriteString("=======================\n\n")

	for _, sym := range r.symbols {
		sb.WriteString(fmt.Sprintf("%-30s", sym.Name))
		switch {
		case sym.IsJumpTarget():
			sb.WriteString(" [jump target]")
		case sym.IsDataLabel:
			sb.WriteString(" [data]")
		default:
			sb.WriteString(" [label]")
		}
		sb.WriteString("\n")

		if sym.Defined {
			sb.WriteString(fmt.Sprintf("  Defined:     address %d\n", sym.Address))
		} else {
			sb.WriteString("  Defined:     (undefined)\n")
		}

		if !sym.Used() {
			sb.WriteString("  Referenced:  (never)\n")
		} else {
			sb.WriteString(fmt.Sprintf("  Referenced:  %d time(s)\n", len(sym.References)))

			byPurpose := make(map[disasm.Purpose][]Reference)
			for _, ref := range sym.References {
				byPurpose[ref.Purpose] = append(byPurpose[ref.Purpose], ref)
			}
			for _, purpose := range purposeOrder {
				refs := byPurpose[purpose]
				if len(refs) == 0 {
					continue
				}
				lines := make([]string, len(refs))
				for i, ref := range refs {
					lines[i] = fmt.Sprintf("%d", ref.Line)
				}
				sb.WriteString(fmt.Sprintf("    %-10s: line(s) %s\n", purpose.String(), strings.Join(lines, ", ")))
			}
		}
		sb.WriteString("\n")
	}

	total, defined, undefined, unused, jumpTargets := 0, 0, 0, 0, 0
	for _, sym := range r.symbols {
		total++
		if sym.Defined {
			defined++
		} else {
			undefined++
		}
		if !sym.Used() {
			unused++
		}
		if sym.IsJumpTarget() {
			jumpTargets++
		}
	}

	sb.WriteString("Summary\n")
	sb.WriteString("=======\n")
	sb.WriteString(fmt.Sprintf("Total symbols:     %d\n", total))
	sb.WriteString(fmt.Sprintf("Defined:           %d\n", defined))
	sb.WriteString(fmt.Sprintf("Undefined:         %d\n", undefined))
	sb.WriteString(fmt.Sprintf("Unused:            %d\n", unused))
	sb.WriteString(fmt.Sprintf("Jump targets:      %d\n", jumpTargets))

	return sb.String()
}

// GenerateReport is a convenience wrapper: Generate then render.
func GenerateReport(source string) (string, diag.List) {
	symbols, errs := Generate(source)
	if errs.HasErrors() {
		return "", errs
	}
	return NewReport(symbols).String(), errs
}

// Unused returns every defined-but-unreferenced symbol, sorted by name.
func Unused(symbols map[string]*Symbol) []*Symbol {
	var out []*Symbol
	for _, s := range symbols {
		if s.Defined && !s.Used() {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Undefined returns every referenced-but-never-defined symbol, sorted
// by name.
func Undefined(symbols map[string]*Symbol) []*Symbol {
	var out []*Symbol
	for _, s := range symbols {
		if !s.Defined && s.Used() {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
