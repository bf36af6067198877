package xref

import (
	"strings"
	"testing"

	"github.com/hollowvm/intcode/internal/disasm"
)

func TestGenerateTracksDefinitionAndReferences(t *testing.T) {
	src := `
loop:
	ADD #1, #2, sum
	JNZ #1, loop
sum:
	DB 0
`
	symbols, errs := Generate(src)
	if errs.HasErrors() {
		t.Fatalf("unexpected parse errors: %v", errs.Errors)
	}

	loop, ok := symbols["loop"]
	if !ok {
		t.Fatal("expected a \"loop\" symbol")
	}
	if !loop.Defined || loop.Address != 0 {
		t.Fatalf("got loop=%+v, want Defined at address 0", loop)
	}
	if !loop.IsJumpTarget() {
		t.Error("expected loop to be a jump target")
	}
	if len(loop.References) != 1 || loop.References[0].Purpose != disasm.Jump {
		t.Fatalf("got loop references %+v", loop.References)
	}

	sum, ok := symbols["sum"]
	if !ok {
		t.Fatal("expected a \"sum\" symbol")
	}
	if !sum.Defined || !sum.IsDataLabel {
		t.Fatalf("got sum=%+v, want Defined data label", sum)
	}
	if len(sum.References) != 1 || sum.References[0].Purpose != disasm.Write {
		t.Fatalf("got sum references %+v", sum.References)
	}
}

func TestUndefinedSymbolIsReportedWithoutAssembling(t *testing.T) {
	src := `	ADD #1, #2, missing`
	symbols, errs := Generate(src)
	if errs.HasErrors() {
		t.Fatalf("unexpected parse errors: %v", errs.Errors)
	}

	undefined := Undefined(symbols)
	if len(undefined) != 1 || undefined[0].Name != "missing" {
		t.Fatalf("got %+v", undefined)
	}
}

func TestUnusedSymbolIsReported(t *testing.T) {
	src := `
unused_label:
	HLT
`
	symbols, errs := Generate(src)
	if errs.HasErrors() {
		t.Fatalf("unexpected parse errors: %v", errs.Errors)
	}

	unused := Unused(symbols)
	if len(unused) != 1 || unused[0].Name != "unused_label" {
		t.Fatalf("got %+v", unused)
	}
}

func TestReportStringContainsSummary(t *testing.T) {
	src := `
start:
	JZ #0, start
`
	symbols, errs := Generate(src)
	if errs.HasErrors() {
		t.Fatalf("unexpected parse errors: %v", errs.Errors)
	}

	report := NewReport(symbols).String()
	if !strings.Contains(report, "start") {
		t.Errorf("expected report to mention \"start\", got:\n%s", report)
	}
	if !strings.Contains(report, "[jump target]") {
		t.Errorf("expected report to mark start as a jump target, got:\n%s", report)
	}
	if !strings.Contains(report, "Summary") {
		t.Errorf("expected a summary section, got:\n%s", report)
	}
}

func TestGenerateReportPropagatesParseErrors(t *testing.T) {
	_, errs := GenerateReport("ADD #1, #2")
	if !errs.HasErrors() {
		t.Fatal("expected a parse error for a missing third operand")
	}
}
