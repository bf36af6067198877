// Package assemble lowers a parsed AST into intcode: a two-pass
// backend that emits opcode/parameter words while deferring label
// resolution, then patches every reference once every definition has
// been seen.
package assemble

import (
	"strings"

	"github.com/hollowvm/intcode/internal/ast"
	"github.com/hollowvm/intcode/internal/diag"
	"github.com/hollowvm/intcode/internal/parser"
)

// Result is a successfully assembled program: the intcode words. Any
// warnings recorded along the way (e.g. unused labels) are returned
// beside it in the diag.List.
type Result struct {
	Output []int64
}

// ToAST parses source into its typed AST, for callers that want the
// structure without assembling it (e.g. a formatter round-trip).
func ToAST(source string) (ast.Program, diag.List) {
	return parser.Parse(source)
}

// ToIntcode parses and assembles source in one call. If parsing fails
// the assembler never runs and the parse diagnostics are returned
// as-is; otherwise the returned diag.List holds only warnings.
func ToIntcode(source string) (Result, diag.List) {
	prog, errs := parser.Parse(source)
	if errs.HasErrors() {
		return Result{}, errs
	}
	return Assemble(prog)
}

type defSite struct {
	addr int64
	span diag.Span
}

type refSite struct {
	index int // position in output to patch
	span  diag.Span
}

type labelState struct {
	defs []defSite
	refs []refSite
}

// assembler holds the label table built across a single pass over the
// AST; names are resolved once every statement has been emitted.
type assembler struct {
	output []int64
	errs   diag.List
	labels map[string]*labelState
	order  []string // insertion order, for deterministic warning/error order
}

func newAssembler() *assembler {
	return &assembler{labels: make(map[string]*labelState)}
}

func (a *assembler) state(name string) *labelState {
	if s, ok := a.labels[name]; ok {
		return s
	}
	s := &labelState{}
	a.labels[name] = s
	a.order = append(a.order, name)
	return s
}

// Assemble runs the two-pass backend over an already-parsed program.
func Assemble(prog ast.Program) (Result, diag.List) {
	a := newAssembler()

	for _, stmt := range prog.Stmts {
		a.insertLabel(stmt)
		a.emit(stmt.Instr)
	}

	a.resolveLabels()

	if a.errs.HasErrors() {
		return Result{}, a.errs
	}
	return Result{Output: a.output}, a.errs
}

// insertLabel records a statement's defining label, if any. Reserved
// names are rejected here even though the parser already rejects the
// common spellings of _/ip/rb at label position -- this mirrors the
// teacher's belt-and-suspenders error sites and guards any AST built
// by another path (e.g. a disassembler round-trip) that bypasses the
// parser's own check.
func (a *assembler) insertLabel(stmt ast.Stmt) {
	if !stmt.HasLabel {
		return
	}
	switch stmt.Label {
	case "_":
		a.errs.AddError("label is reserved to indicate a runtime value", stmt.LabelSpan)
	case "ip":
		a.errs.AddError("label is reserved to refer to the instruction pointer", stmt.LabelSpan)
	case "rb":
		a.errs.AddError("label is reserved to refer to the relative base", stmt.LabelSpan)
	default:
		s := a.state(stmt.Label)
		s.defs = append(s.defs, defSite{addr: int64(len(a.output)), span: stmt.LabelSpan})
	}
}

// paramValue pushes one emitted parameter word and returns its mode
// digit (0/1/2), recording a reference if the parameter names a fixed
// label.
func (a *assembler) paramValue(p ast.Param, ip int64) int64 {
	switch p.Kind {
	case ast.ParamNumber:
		a.output = append(a.output, p.Number)
		return int64(p.Mode)
	case ast.ParamLabel:
		value := p.Offset
		switch p.Label.Kind {
		case ast.InstructionPointer:
			value = ip + p.Offset
		case ast.Fixed:
			s := a.state(p.Label.Name)
			s.refs = append(s.refs, refSite{index: len(a.output), span: p.Span})
		}
		a.output = append(a.output, value)
		return int64(p.Mode)
	default:
		return 0
	}
}

func (a *assembler) emit(instr ast.Instr) {
	if instr.Kind == ast.InstrData {
		a.emitData(instr)
		return
	}

	i := int64(len(a.output))
	opWord := int64(instr.Opcode)
	a.output = append(a.output, opWord)

	ip := i + int64(len(instr.Params)) + 1
	var modes [3]int64
	for k, p := range instr.Params {
		modes[k] = a.paramValue(p, ip)
	}

	patch := int64(0)
	pow := int64(100)
	for k := range instr.Params {
		patch += modes[k] * pow
		pow *= 10
	}
	a.output[i] += patch
}

func (a *assembler) emitData(instr ast.Instr) {
	// ip is the address just after this DB statement; a string
	// parameter occupies one word per byte.
	ip := int64(len(a.output))
	for _, d := range instr.Data {
		if d.Kind == ast.DataString {
			ip += int64(len(d.String))
		} else {
			ip++
		}
	}
	for _, d := range instr.Data {
		switch d.Kind {
		case ast.DataNumber:
			a.output = append(a.output, d.Number)
		case ast.DataLabel:
			switch d.Label.Kind {
			case ast.Underscore:
				a.output = append(a.output, d.Offset)
			case ast.InstructionPointer:
				a.output = append(a.output, ip+d.Offset)
			case ast.Fixed:
				s := a.state(d.Label.Name)
				s.refs = append(s.refs, refSite{index: len(a.output), span: d.Span})
				a.output = append(a.output, d.Offset)
			}
		case ast.DataString:
			for _, b := range d.String {
				a.output = append(a.output, int64(b))
			}
		}
	}
}

// resolveLabels is pass 2: every label with no definition makes all
// of its references an error; a label defined exactly once patches
// its references (or warns if never referenced, unless it starts
// with '_'); a label defined more than once is itself the error,
// independent of how it's used.
func (a *assembler) resolveLabels() {
	for _, name := range a.order {
		s := a.labels[name]
		switch len(s.defs) {
		case 0:
			for _, r := range s.refs {
				a.errs.AddError("undefined label", r.span)
			}
		case 1:
			def := s.defs[0]
			if len(s.refs) == 0 && !strings.HasPrefix(name, "_") {
				a.errs.AddWarning("label is never used", def.span)
				continue
			}
			for _, r := range s.refs {
				a.output[r.index] += def.addr
			}
		default:
			for i, def := range s.defs {
				if i == 0 {
					a.errs.AddError("first definition of label", def.span)
				} else {
					a.errs.AddError("label redefined here", def.span)
				}
			}
		}
	}
}
