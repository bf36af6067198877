// Package format renders an assembly AST back to source text -- the
// inverse of internal/parser. Used both to round-trip a parsed
// program and to print what the disassembler recovers.
package format

import (
	"strconv"
	"strings"

	"github.com/hollowvm/intcode/internal/ast"
)

// Program renders an entire program, one statement per line.
func Program(prog ast.Program) string {
	var sb strings.Builder
	for _, stmt := range prog.Stmts {
		Stmt(&sb, stmt)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Stmt renders one statement: an optional "name: " prefix followed by
// its instruction.
func Stmt(sb *strings.Builder, stmt ast.Stmt) {
	if stmt.HasLabel {
		sb.WriteString(stmt.Label)
		sb.WriteString(": ")
	}
	Instr(sb, stmt.Instr)
}

func Instr(sb *strings.Builder, instr ast.Instr) {
	switch instr.Kind {
	case ast.InstrOp:
		sb.WriteString(instr.Opcode.Mnemonic())
		for i, p := range instr.Params {
			if i == 0 {
				sb.WriteByte(' ')
			} else {
				sb.WriteString(", ")
			}
			Param(sb, p)
		}

	case ast.InstrData:
		sb.WriteString("DB ")
		for i, d := range instr.Data {
			if i > 0 {
				sb.WriteString(", ")
			}
			DataParam(sb, d)
		}

	case ast.InstrMutable:
		sb.WriteString("DB ")
		sb.WriteString(strconv.FormatInt(instr.RawValue, 10))
		for _, d := range instr.Mutable {
			sb.WriteString(", ")
			DataParam(sb, d)
		}
	}
}

// Param renders a single instruction parameter, honoring its
// addressing mode: bare for Positional, `#` for Immediate, `rb`/`rb±N`
// for Relative (which ignores the label entirely -- relative mode
// always addresses off the relative base).
func Param(sb *strings.Builder, p ast.Param) {
	switch p.Kind {
	case ast.ParamLabel:
		writeModedLabel(sb, p.Mode, p.Label, p.Offset)
	case ast.ParamNumber:
		writeModedNumber(sb, p.Mode, p.Number)
	}
}

func writeModedLabel(sb *strings.Builder, mode ast.Mode, label ast.Label, offset int64) {
	switch mode {
	case ast.Positional:
		sb.WriteString(label.String())
		writeSignedOffset(sb, offset)
	case ast.Immediate:
		sb.WriteByte('#')
		sb.WriteString(label.String())
		writeSignedOffset(sb, offset)
	case ast.Relative:
		sb.WriteString("rb")
		writeSignedOffset(sb, offset)
	}
}

func writeModedNumber(sb *strings.Builder, mode ast.Mode, value int64) {
	switch mode {
	case ast.Positional:
		sb.WriteString(strconv.FormatInt(value, 10))
	case ast.Immediate:
		sb.WriteByte('#')
		sb.WriteString(strconv.FormatInt(value, 10))
	case ast.Relative:
		sb.WriteString("rb")
		writeSignedOffset(sb, value)
	}
}

// writeSignedOffset writes nothing for a zero offset, else "+N"/"-N".
func writeSignedOffset(sb *strings.Builder, offset int64) {
	if offset == 0 {
		return
	}
	if offset > 0 {
		sb.WriteByte('+')
	}
	sb.WriteString(strconv.FormatInt(offset, 10))
}

// DataParam renders a DB parameter: a bare/offset label, a raw
// number, or a quoted string with Go-style escapes (the same escapes
// internal/lexer accepts back).
func DataParam(sb *strings.Builder, d ast.DataParam) {
	switch d.Kind {
	case ast.DataLabel:
		sb.WriteString(d.Label.String())
		writeSignedOffset(sb, d.Offset)
	case ast.DataNumber:
		sb.WriteString(strconv.FormatInt(d.Number, 10))
	case ast.DataString:
		sb.WriteString(strconv.Quote(string(d.String)))
	}
}
