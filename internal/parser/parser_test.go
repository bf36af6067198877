package parser

import (
	"testing"

	"github.com/hollowvm/intcode/internal/ast"
	"github.com/hollowvm/intcode/internal/diag"
)

func TestParseBasicProgram(t *testing.T) {
	src := "ADD a, b, 3\nMUL 3, c, 0\nHLT\na: DB 30\nb: DB 40\nc: DB 50\n"
	prog, errs := Parse(src)
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %+v", errs.Errors)
	}
	if len(prog.Stmts) != 6 {
		t.Fatalf("got %d statements, want 6", len(prog.Stmts))
	}
	if prog.Stmts[0].Instr.Opcode != ast.OpAdd || len(prog.Stmts[0].Instr.Params) != 3 {
		t.Fatalf("stmt 0: %+v", prog.Stmts[0])
	}
	if !prog.Stmts[3].HasLabel || prog.Stmts[3].Label != "a" {
		t.Fatalf("stmt 3: %+v", prog.Stmts[3])
	}
	if prog.Stmts[3].Instr.Kind != ast.InstrData || prog.Stmts[3].Instr.Data[0].Number != 30 {
		t.Fatalf("stmt 3 data: %+v", prog.Stmts[3].Instr)
	}
}

func TestParseImmediateAndRelative(t *testing.T) {
	prog, errs := Parse("MUL a, #3, 4\na: DB 33\n")
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %+v", errs.Errors)
	}
	params := prog.Stmts[0].Instr.Params
	if params[1].Mode != ast.Immediate || params[1].Number != 3 {
		t.Fatalf("param 1: %+v", params[1])
	}
}

func TestParseRelativeBaseOffset(t *testing.T) {
	prog, errs := Parse("ARB #1\nOUT rb-1\nHLT\n")
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %+v", errs.Errors)
	}
	p := prog.Stmts[1].Instr.Params[0]
	if p.Mode != ast.Relative || p.Number != -1 {
		t.Fatalf("got %+v", p)
	}
}

func TestParseUnexpectedCharacter(t *testing.T) {
	_, errs := Parse("ADD @")
	mustSingleError(t, errs, "unexpected character", 4, 5)
}

func TestParseUndelimitedString(t *testing.T) {
	_, errs := Parse(`ADD "test`)
	mustSingleError(t, errs, "undelimited string", 4, 9)
}

func TestParseInvalidDigit(t *testing.T) {
	_, errs := Parse("DB 0b021")
	mustSingleError(t, errs, "invalid digit for base 2 literal", 6, 7)
}

func TestParseIntegerOutOfRange(t *testing.T) {
	_, errs := Parse("DB 0xFFFFFFFFFFFFFFFF")
	mustSingleError(t, errs, "base 16 literal out of range for 64-bit integer", 3, 21)
}

func TestParseImmediateAndRelativeConflict(t *testing.T) {
	_, errs := Parse("ADD #rb+1")
	mustSingleError(t, errs, "both immediate and relative mode specified", 4, 9)
}

func TestParseArityMismatch(t *testing.T) {
	_, errs := Parse("ADD x, y")
	mustSingleError(t, errs, "expected 3 parameters, found 2", 0, 3)
}

func TestParseReservedRelativeBaseLabel(t *testing.T) {
	_, errs := Parse("rb: IN _")
	mustSingleError(t, errs, "label is reserved to refer to the relative base", 0, 2)
}

func TestParseReservedUnderscoreAndInstructionPointer(t *testing.T) {
	_, errs := Parse("_: HLT")
	mustSingleError(t, errs, "label is reserved to indicate a runtime value", 0, 1)

	_, errs = Parse("ip: HLT")
	mustSingleError(t, errs, "label is reserved to refer to the instruction pointer", 0, 2)
}

func TestParseStringOnlyAllowedWithDB(t *testing.T) {
	_, errs := Parse(`ADD "x", 1, 2`)
	if !errs.HasErrors() {
		t.Fatal("expected an error")
	}
	if errs.Errors[0].Message != "string parameter only allowed with DB" {
		t.Fatalf("got message %q", errs.Errors[0].Message)
	}
}

func TestParseErrorRecoveryProducesMultipleDiagnostics(t *testing.T) {
	// Two independent bad statements must yield at least two
	// diagnostics from a single call (spec property: error recovery
	// continues past a newline rather than aborting the whole parse).
	_, errs := Parse("ADD @\nMUL %\n")
	if len(errs.Errors) < 2 {
		t.Fatalf("got %d errors, want at least 2: %+v", len(errs.Errors), errs.Errors)
	}
}

func TestParseLabelWithOffset(t *testing.T) {
	prog, errs := Parse("JNZ a+2, 0\na: DB 1\n")
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %+v", errs.Errors)
	}
	p := prog.Stmts[0].Instr.Params[0]
	if p.Kind != ast.ParamLabel || p.Offset != 2 {
		t.Fatalf("got %+v", p)
	}
}

func mustSingleError(t *testing.T, errs diag.List, want string, m, n int) {
	t.Helper()
	if len(errs.Errors) != 1 {
		t.Fatalf("got %d errors, want 1: %+v", len(errs.Errors), errs.Errors)
	}
	got := errs.Errors[0]
	if got.Message != want {
		t.Fatalf("got message %q, want %q", got.Message, want)
	}
	if got.Span.M != m || got.Span.N != n {
		t.Fatalf("got span %d..%d, want %d..%d", got.Span.M, got.Span.N, m, n)
	}
}
