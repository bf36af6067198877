package debugger

import (
	"fmt"

	"github.com/hollowvm/intcode/internal/vm"
)

// ExpressionEvaluator evaluates breakpoint/watchpoint conditions and
// interactive debugger expressions against a live Computer, keeping a
// history of results so later expressions can reference them as $1,
// $2, etc.
type ExpressionEvaluator struct {
	valueHistory []int64
}

// NewExpressionEvaluator creates a new expression evaluator.
func NewExpressionEvaluator() *ExpressionEvaluator {
	return &ExpressionEvaluator{}
}

// EvaluateExpression evaluates expr and records the result in the
// value history.
func (e *ExpressionEvaluator) EvaluateExpression(expr string, machine *vm.Computer, symbols map[string]int64) (int64, error) {
	result, err := e.evaluate(expr, machine, symbols)
	if err != nil {
		return 0, err
	}
	e.valueHistory = append(e.valueHistory, result)
	return result, nil
}

// Evaluate evaluates expr as a boolean condition: nonzero is true.
// Used for breakpoint and watchpoint conditions, which do not
// participate in the value history.
func (e *ExpressionEvaluator) Evaluate(expr string, machine *vm.Computer, symbols map[string]int64) (bool, error) {
	result, err := e.evaluate(expr, machine, symbols)
	if err != nil {
		return false, err
	}
	return result != 0, nil
}

func (e *ExpressionEvaluator) evaluate(expr string, machine *vm.Computer, symbols map[string]int64) (int64, error) {
	if expr == "" {
		return 0, fmt.Errorf("empty expression")
	}
	tokens := NewExprLexer(expr).TokenizeAll()
	parser := NewExprParser(tokens, machine, symbols, e)
	return parser.Parse()
}

// GetValueNumber returns how many expressions have been recorded.
func (e *ExpressionEvaluator) GetValueNumber() int {
	return len(e.valueHistory)
}

// GetValue returns the number-th (1-based) recorded expression result.
func (e *ExpressionEvaluator) GetValue(number int) (int64, error) {
	if number < 1 || number > len(e.valueHistory) {
		return 0, fmt.Errorf("value $%d not in history", number)
	}
	return e.valueHistory[number-1], nil
}

// Reset clears the value history.
func (e *ExpressionEvaluator) Reset() {
	e.valueHistory = e.valueHistory[:0]
}
