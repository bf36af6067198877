package disasm

import (
	"fmt"

	"github.com/hollowvm/intcode/internal/ast"
)

// UnknownModeError and UnknownOpcodeError mirror the VM's runtime
// errors, renamed so a caller driving both packages can tell which
// component raised them.
type UnknownModeError struct{ Mode int64 }

func (e *UnknownModeError) Error() string { return fmt.Sprintf("unknown mode `%d`", e.Mode) }

type UnknownOpcodeError struct{ Opcode int64 }

func (e *UnknownOpcodeError) Error() string { return fmt.Sprintf("unknown opcode `%d`", e.Opcode) }

// InputKind distinguishes the two ways a Run can supply input.
type InputKind int

const (
	// InputStatic supplies an exact, exhaustible sequence.
	InputStatic InputKind = iota
	// InputForever always answers an Input instruction with the same
	// value, for loops that poll forever.
	InputForever
)

// Input configures what a Run feeds the traced program.
type Input struct {
	Kind     InputKind
	Sequence []int64 // InputStatic
	Value    int64   // InputForever
}

// StaticInput builds an exhaustible input sequence.
func StaticInput(seq ...int64) Input {
	return Input{Kind: InputStatic, Sequence: seq}
}

// ForeverInput always answers with v.
func ForeverInput(v int64) Input {
	return Input{Kind: InputForever, Value: v}
}

// Run is one traced execution of the program, with memory reset to
// the original image before the next Run begins.
type Run struct {
	Input *Input // nil means no input is ever fed
}

// WantInputError is returned when a Run reaches Waiting but has no
// Input configured to satisfy it.
type WantInputError struct{}

func (e *WantInputError) Error() string { return "run requires more input" }

// AddressError mirrors vm.AddressError: addresses are non-negative,
// per spec.
type AddressError struct{ Addr int64 }

func (e *AddressError) Error() string { return fmt.Sprintf("negative address %d", e.Addr) }

func checkAddr(addr int) error {
	if addr < 0 {
		return &AddressError{Addr: int64(addr)}
	}
	return nil
}

type state int

const (
	yielded state = iota
	waiting
	complete
)

// tracer re-executes the program exactly like vm.Computer, marking
// every opcode and parameter it touches as it goes.
type tracer struct {
	prog  *Program
	mem   []int64
	ptr   int
	rb    int64
	input []int64
}

func newTracer(p *Program) *tracer {
	return &tracer{prog: p, mem: p.Original()}
}

func (t *tracer) reset() {
	t.mem = t.prog.Original()
	t.ptr = 0
	t.rb = 0
	t.input = nil
}

func (t *tracer) feed(values ...int64) {
	t.input = append(t.input, values...)
}

func (t *tracer) memGet(addr int) (int64, error) {
	if err := checkAddr(addr); err != nil {
		return 0, err
	}
	if addr >= len(t.mem) {
		return 0, nil
	}
	return t.mem[addr], nil
}

func (t *tracer) memSet(addr int, v int64) error {
	if err := checkAddr(addr); err != nil {
		return err
	}
	if addr >= len(t.mem) {
		grown := make([]int64, addr+1)
		copy(grown, t.mem)
		t.mem = grown
	}
	t.mem[addr] = v
	return nil
}

var pow10 = [...]int64{1, 10, 100, 1_000, 10_000, 100_000}

// paramAddr resolves the i-th parameter's address, marking the
// parameter slot with its mode and recording a mention at the
// resolved address for the given purpose.
func (t *tracer) paramAddr(i int, purpose Purpose) (int, error) {
	opWord, err := t.memGet(t.ptr)
	if err != nil {
		return 0, err
	}
	slot := t.ptr + i
	mode := (opWord / pow10[i+1]) % 10
	switch mode {
	case 0:
		t.prog.MarkParam(slot, ast.Positional)
		v, err := t.memGet(slot)
		if err != nil {
			return 0, err
		}
		addr := int(v)
		if err := checkAddr(addr); err != nil {
			return 0, err
		}
		t.prog.Mention(addr, purpose, slot)
		return addr, nil
	case 1:
		t.prog.MarkParam(slot, ast.Immediate)
		return slot, nil
	case 2:
		t.prog.MarkParam(slot, ast.Relative)
		v, err := t.memGet(slot)
		if err != nil {
			return 0, err
		}
		addr := int(t.rb + v)
		if err := checkAddr(addr); err != nil {
			return 0, err
		}
		t.prog.Mention(addr, purpose, slot)
		return addr, nil
	default:
		return 0, &UnknownModeError{Mode: mode}
	}
}

func (t *tracer) param(i int, purpose Purpose) (int64, error) {
	addr, err := t.paramAddr(i, purpose)
	if err != nil {
		return 0, err
	}
	return t.memGet(addr)
}

func (t *tracer) setParam(i int, purpose Purpose, v int64) error {
	addr, err := t.paramAddr(i, purpose)
	if err != nil {
		return err
	}
	return t.memSet(addr, v)
}

// next runs until the next externally visible event.
func (t *tracer) next() (state, int64, error) {
	for {
		opWord, err := t.memGet(t.ptr)
		if err != nil {
			return 0, 0, err
		}
		switch opWord % 100 {
		case 1:
			t.prog.MarkOpcode(t.ptr, ast.OpAdd)
			a, err := t.param(1, Read)
			if err != nil {
				return 0, 0, err
			}
			b, err := t.param(2, Read)
			if err != nil {
				return 0, 0, err
			}
			if err := t.setParam(3, Write, a+b); err != nil {
				return 0, 0, err
			}
			t.ptr += 4

		case 2:
			t.prog.MarkOpcode(t.ptr, ast.OpMul)
			a, err := t.param(1, Read)
			if err != nil {
				return 0, 0, err
			}
			b, err := t.param(2, Read)
			if err != nil {
				return 0, 0, err
			}
			if err := t.setParam(3, Write, a*b); err != nil {
				return 0, 0, err
			}
			t.ptr += 4

		case 3:
			t.prog.MarkOpcode(t.ptr, ast.OpIn)
			if len(t.input) == 0 {
				return waiting, 0, nil
			}
			v := t.input[0]
			t.input = t.input[1:]
			if err := t.setParam(1, Write, v); err != nil {
				return 0, 0, err
			}
			t.ptr += 2

		case 4:
			t.prog.MarkOpcode(t.ptr, ast.OpOut)
			v, err := t.param(1, Read)
			if err != nil {
				return 0, 0, err
			}
			t.ptr += 2
			return yielded, v, nil

		case 5:
			t.prog.MarkOpcode(t.ptr, ast.OpJNZ)
			addr, err := t.param(2, Jump)
			if err != nil {
				return 0, 0, err
			}
			cond, err := t.param(1, Read)
			if err != nil {
				return 0, 0, err
			}
			if cond != 0 {
				t.ptr = int(addr)
			} else {
				t.ptr += 3
			}

		case 6:
			t.prog.MarkOpcode(t.ptr, ast.OpJZ)
			addr, err := t.param(2, Jump)
			if err != nil {
				return 0, 0, err
			}
			cond, err := t.param(1, Read)
			if err != nil {
				return 0, 0, err
			}
			if cond == 0 {
				t.ptr = int(addr)
			} else {
				t.ptr += 3
			}

		case 7:
			t.prog.MarkOpcode(t.ptr, ast.OpLT)
			a, err := t.param(1, Read)
			if err != nil {
				return 0, 0, err
			}
			b, err := t.param(2, Read)
			if err != nil {
				return 0, 0, err
			}
			v := int64(0)
			if a < b {
				v = 1
			}
			if err := t.setParam(3, Write, v); err != nil {
				return 0, 0, err
			}
			t.ptr += 4

		case 8:
			t.prog.MarkOpcode(t.ptr, ast.OpEQ)
			a, err := t.param(1, Read)
			if err != nil {
				return 0, 0, err
			}
			b, err := t.param(2, Read)
			if err != nil {
				return 0, 0, err
			}
			v := int64(0)
			if a == b {
				v = 1
			}
			if err := t.setParam(3, Write, v); err != nil {
				return 0, 0, err
			}
			t.ptr += 4

		case 9:
			t.prog.MarkOpcode(t.ptr, ast.OpARB)
			a, err := t.param(1, Read)
			if err != nil {
				return 0, 0, err
			}
			t.rb += a
			t.ptr += 2

		case 99:
			t.prog.MarkOpcode(t.ptr, ast.OpHLT)
			return complete, 0, nil

		default:
			return 0, 0, &UnknownOpcodeError{Opcode: opWord % 100}
		}
	}
}

// MarkDynamic traces the program once per Run, marking every slot
// touched as an opcode or parameter and recording mentions at every
// resolved address. Memory resets to the original image between
// runs; a Run with no Input that reaches Waiting is an error.
func MarkDynamic(p *Program, runs []Run) error {
	t := newTracer(p)
	for _, run := range runs {
		for {
			st, _, err := t.next()
			if err != nil {
				return err
			}
			switch st {
			case yielded:
				continue
			case waiting:
				if run.Input == nil {
					return &WantInputError{}
				}
				switch run.Input.Kind {
				case InputForever:
					t.feed(run.Input.Value)
				case InputStatic:
					if len(run.Input.Sequence) == 0 {
						return &WantInputError{}
					}
					t.feed(run.Input.Sequence...)
					run.Input.Sequence = nil
				}
			case complete:
				goto doneRun
			}
		}
	doneRun:
		t.reset()
	}
	return nil
}
