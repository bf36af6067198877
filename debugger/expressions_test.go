package debugger

import (
	"testing"

	"github.com/hollowvm/intcode/internal/vm"
)

func TestExpressionEvaluator_Numbers(t *testing.T) {
	eval := NewExpressionEvaluator()
	machine := vm.NewComputer(nil)
	symbols := map[string]int64{}

	tests := []struct {
		name string
		expr string
		want int64
	}{
		{"Decimal", "42", 42},
		{"Hex", "0x100", 0x100},
		{"Hex uppercase", "0X1A", 0x1A},
		{"Negative", "-1", -1},
		{"Large hex", "0x7FFFFFFF", 0x7FFFFFFF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := eval.EvaluateExpression(tt.expr, machine, symbols)
			if err != nil {
				t.Fatalf("EvaluateExpression() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("EvaluateExpression() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestExpressionEvaluator_PseudoRegisters(t *testing.T) {
	eval := NewExpressionEvaluator()
	// ARB #5 (immediate mode, hundreds digit 1), then HLT.
	machine := vm.NewComputer([]int64{109, 5, 99})
	symbols := map[string]int64{}

	// A single Step runs ARB then HLT without yielding in between.
	if _, err := machine.Step(); err != nil {
		t.Fatalf("unexpected step error: %v", err)
	}

	got, err := eval.EvaluateExpression("rb", machine, symbols)
	if err != nil {
		t.Fatalf("EvaluateExpression(rb) error = %v", err)
	}
	if got != 5 {
		t.Errorf("rb = %d, want 5", got)
	}

	got, err = eval.EvaluateExpression("ip", machine, symbols)
	if err != nil {
		t.Fatalf("EvaluateExpression(ip) error = %v", err)
	}
	if got != 2 {
		t.Errorf("ip = %d, want 2", got)
	}
}

func TestExpressionEvaluator_Symbols(t *testing.T) {
	eval := NewExpressionEvaluator()
	machine := vm.NewComputer(nil)
	symbols := map[string]int64{
		"main": 0,
		"loop": 4,
		"sum":  8,
	}

	tests := []struct {
		name string
		expr string
		want int64
	}{
		{"main", "main", 0},
		{"loop", "loop", 4},
		{"sum", "sum", 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := eval.EvaluateExpression(tt.expr, machine, symbols)
			if err != nil {
				t.Fatalf("EvaluateExpression() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("EvaluateExpression() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestExpressionEvaluator_MemoryAccess(t *testing.T) {
	eval := NewExpressionEvaluator()
	machine := vm.NewComputer([]int64{1, 5, 6, 0, 0, 10, 20})
	symbols := map[string]int64{}

	got, err := eval.EvaluateExpression("mem[5]", machine, symbols)
	if err != nil {
		t.Fatalf("EvaluateExpression(mem[5]) error = %v", err)
	}
	if got != 10 {
		t.Errorf("mem[5] = %d, want 10", got)
	}

	got, err = eval.EvaluateExpression("mem[5+1]", machine, symbols)
	if err != nil {
		t.Fatalf("EvaluateExpression(mem[5+1]) error = %v", err)
	}
	if got != 20 {
		t.Errorf("mem[5+1] = %d, want 20", got)
	}
}

func TestExpressionEvaluator_Arithmetic(t *testing.T) {
	eval := NewExpressionEvaluator()
	machine := vm.NewComputer(nil)
	symbols := map[string]int64{}

	tests := []struct {
		expr string
		want int64
	}{
		{"1 + 2", 3},
		{"10 - 3", 7},
		{"4 * 5", 20},
		{"10 / 3", 3},
		{"1 << 4", 16},
		{"0xF0 & 0x0F", 0},
		{"0xF0 | 0x0F", 0xFF},
		{"(1 + 2) * 3", 9},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := eval.EvaluateExpression(tt.expr, machine, symbols)
			if err != nil {
				t.Fatalf("EvaluateExpression(%q) error = %v", tt.expr, err)
			}
			if got != tt.want {
				t.Errorf("EvaluateExpression(%q) = %d, want %d", tt.expr, got, tt.want)
			}
		})
	}
}

func TestExpressionEvaluator_Conditions(t *testing.T) {
	eval := NewExpressionEvaluator()
	machine := vm.NewComputer([]int64{1, 0, 0, 0, 99})
	symbols := map[string]int64{}

	tests := []struct {
		expr string
		want bool
	}{
		{"mem[0] == 1", true},
		{"mem[0] == 2", false},
		{"mem[0] != 2", true},
		{"mem[4] > 90", true},
		{"mem[4] <= 90", false},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := eval.Evaluate(tt.expr, machine, symbols)
			if err != nil {
				t.Fatalf("Evaluate(%q) error = %v", tt.expr, err)
			}
			if got != tt.want {
				t.Errorf("Evaluate(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestExpressionEvaluator_ValueHistory(t *testing.T) {
	eval := NewExpressionEvaluator()
	machine := vm.NewComputer(nil)
	symbols := map[string]int64{}

	if _, err := eval.EvaluateExpression("10", machine, symbols); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := eval.EvaluateExpression("20", machine, symbols); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := eval.EvaluateExpression("$1 + $2", machine, symbols)
	if err != nil {
		t.Fatalf("EvaluateExpression($1 + $2) error = %v", err)
	}
	if got != 30 {
		t.Errorf("$1 + $2 = %d, want 30", got)
	}

	eval.Reset()
	if eval.GetValueNumber() != 0 {
		t.Errorf("GetValueNumber() after Reset = %d, want 0", eval.GetValueNumber())
	}
}

func TestExpressionEvaluator_UnknownSymbol(t *testing.T) {
	eval := NewExpressionEvaluator()
	machine := vm.NewComputer(nil)
	symbols := map[string]int64{}

	if _, err := eval.EvaluateExpression("nope", machine, symbols); err == nil {
		t.Fatal("expected an error for an unknown symbol")
	}
}

func TestExpressionEvaluator_DivisionByZero(t *testing.T) {
	eval := NewExpressionEvaluator()
	machine := vm.NewComputer(nil)
	symbols := map[string]int64{}

	if _, err := eval.EvaluateExpression("1 / 0", machine, symbols); err == nil {
		t.Fatal("expected a division-by-zero error")
	}
}
