package assemble

import (
	"testing"
)

func assertOutput(t *testing.T, source string, want []int64) {
	t.Helper()
	res, errs := ToIntcode(source)
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %+v", errs.Errors)
	}
	if len(res.Output) != len(want) {
		t.Fatalf("got %v, want %v", res.Output, want)
	}
	for i := range want {
		if res.Output[i] != want[i] {
			t.Fatalf("word %d: got %d, want %d (full: %v)", i, res.Output[i], want[i], res.Output)
		}
	}
}

func TestAssembleBasic(t *testing.T) {
	src := "ADD a, b, 3\nMUL 3, c, 0\nHLT\na: DB 30\nb: DB 40\nc: DB 50\n"
	assertOutput(t, src, []int64{1, 9, 10, 3, 2, 3, 11, 0, 99, 30, 40, 50})
}

func TestAssembleImmediateMode(t *testing.T) {
	src := "MUL a, #3, 4\na: DB 33\n"
	assertOutput(t, src, []int64{1002, 4, 3, 4, 33})
}

func TestAssembleNegativeAndEqual(t *testing.T) {
	src := "IN a\nEQ a, b, a\nOUT a\nHLT\na: DB -1\nb: DB 8\n"
	assertOutput(t, src, []int64{3, 9, 8, 9, 10, 9, 4, 9, 99, -1, 8})
}

func TestAssembleQuine(t *testing.T) {
	src := "ARB #1\nOUT rb-1\nADD 100, #1, 100\nEQ 100, #16, 101\nJZ 101, #0\nHLT\n"
	assertOutput(t, src, []int64{109, 1, 204, -1, 1001, 100, 1, 100, 1008, 100, 16, 101, 1006, 101, 0, 99})
}

func TestAssembleBigMultiply(t *testing.T) {
	src := "MUL #34915192, #34915192, x\nOUT x\nHLT\nx: DB 0\n"
	assertOutput(t, src, []int64{1102, 34915192, 34915192, 7, 4, 7, 99, 0})
}

func TestAssembleModeEncodingInvariant(t *testing.T) {
	// op + 100*m1 + 1000*m2 + 10000*m3
	src := "ADD #1, rb+2, x\nHLT\nx: DB 0\n"
	res, errs := ToIntcode(src)
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %+v", errs.Errors)
	}
	want := int64(1) + 100*1 /*immediate*/ + 1000*2 /*relative*/ + 10000*0 /*positional*/
	if res.Output[0] != want {
		t.Fatalf("got %d, want %d", res.Output[0], want)
	}
}

func TestAssembleUndefinedLabel(t *testing.T) {
	_, errs := ToIntcode("ADD a, b, c\nHLT\n")
	if len(errs.Errors) != 3 {
		t.Fatalf("got %d errors, want 3: %+v", len(errs.Errors), errs.Errors)
	}
	for _, e := range errs.Errors {
		if e.Message != "undefined label" {
			t.Errorf("got message %q", e.Message)
		}
	}
}

func TestAssembleDuplicateLabel(t *testing.T) {
	_, errs := ToIntcode("test: IN _\ntest: HLT\n")
	if len(errs.Errors) != 2 {
		t.Fatalf("got %d errors, want 2: %+v", len(errs.Errors), errs.Errors)
	}
	if errs.Errors[0].Message != "first definition of label" {
		t.Errorf("got %q", errs.Errors[0].Message)
	}
	if errs.Errors[1].Message != "label redefined here" {
		t.Errorf("got %q", errs.Errors[1].Message)
	}
}

func TestAssembleUnusedLabelWarns(t *testing.T) {
	_, errs := ToIntcode("HLT\nunused: DB 1\n")
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %+v", errs.Errors)
	}
	if len(errs.Warnings) != 1 || errs.Warnings[0].Message != "label is never used" {
		t.Fatalf("got warnings %+v", errs.Warnings)
	}
}

func TestAssembleUnderscorePrefixExemptFromUnusedWarning(t *testing.T) {
	_, errs := ToIntcode("HLT\n_scratch: DB 1\n")
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %+v", errs.Errors)
	}
	if len(errs.Warnings) != 0 {
		t.Fatalf("got warnings %+v", errs.Warnings)
	}
}

func TestAssembleInstructionPointerLabel(t *testing.T) {
	// ip in a jump's parameter refers to the address just after that
	// instruction (here, 3 -- the jump itself occupies 0..3).
	src := "JNZ 0, ip\nHLT\n"
	res, errs := ToIntcode(src)
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %+v", errs.Errors)
	}
	if res.Output[2] != 3 {
		t.Fatalf("got %d, want 3", res.Output[2])
	}
}

func TestAssembleStringData(t *testing.T) {
	res, errs := ToIntcode(`DB "Hi"` + "\n")
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %+v", errs.Errors)
	}
	want := []int64{'H', 'i'}
	if len(res.Output) != 2 || res.Output[0] != want[0] || res.Output[1] != want[1] {
		t.Fatalf("got %v, want %v", res.Output, want)
	}
}

func TestAssemblePropagatesParseErrors(t *testing.T) {
	_, errs := ToIntcode("ADD @")
	if !errs.HasErrors() {
		t.Fatal("expected parse error to propagate")
	}
	if errs.Errors[0].Message != "unexpected character" {
		t.Fatalf("got %q", errs.Errors[0].Message)
	}
}
