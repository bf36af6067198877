// Package vm implements the Intcode execution engine as a resumable
// coroutine: Step never blocks, returning Yielded/Waiting/Complete so
// the caller drives the machine one operation at a time.
package vm

import "fmt"

// ModeError reports an unrecognized parameter-mode digit.
type ModeError struct {
	Mode int64
}

func (e *ModeError) Error() string {
	return fmt.Sprintf("unknown mode `%d`", e.Mode)
}

// OpcodeError reports an unrecognized opcode.
type OpcodeError struct {
	Opcode int64
}

func (e *OpcodeError) Error() string {
	return fmt.Sprintf("unknown opcode `%d`", e.Opcode)
}

// Kind is the shape of a completed Step.
type Kind int

const (
	// Yielded means an Output instruction produced a value; the caller
	// should consume Result.Value and call Step again to resume.
	Yielded Kind = iota
	// Waiting means an Input instruction was reached with an empty
	// queue; the instruction pointer has NOT advanced past it. The
	// caller must Feed at least one value before calling Step again.
	Waiting
	// Complete means a Halt instruction was reached.
	Complete
)

func (k Kind) String() string {
	switch k {
	case Yielded:
		return "Yielded"
	case Waiting:
		return "Waiting"
	case Complete:
		return "Complete"
	default:
		return "unknown"
	}
}

// Result is the outcome of one Step call.
type Result struct {
	Kind  Kind
	Value int64 // meaningful only when Kind == Yielded
}

// Computer is one Intcode machine: a flat, growable memory, an
// instruction pointer, a relative base, and a FIFO input queue. It
// owns all of its state; running two programs concurrently means
// constructing two Computers.
type Computer struct {
	mem   []int64
	ptr   int
	rb    int64
	input []int64

	lastWriteAddr int64
	hasWrite      bool
}

// NewComputer returns a Computer initialized with a copy of program as
// its starting memory.
func NewComputer(program []int64) *Computer {
	mem := make([]int64, len(program))
	copy(mem, program)
	return &Computer{mem: mem}
}

// Feed enqueues values to be consumed by future Input instructions, in
// the order given.
func (c *Computer) Feed(values ...int64) {
	c.input = append(c.input, values...)
}

// Memory returns the live backing memory. Callers must not retain it
// across a Step call, since Step may grow and reallocate it.
func (c *Computer) Memory() []int64 {
	return c.mem
}

// IP returns the current instruction pointer.
func (c *Computer) IP() int64 {
	return int64(c.ptr)
}

// RelativeBase returns the current relative base.
func (c *Computer) RelativeBase() int64 {
	return c.rb
}

// LastWriteAddr returns the address of the most recent memory write
// performed by an ADD, MUL, LT, EQ, or IN instruction, and whether any
// write has happened yet. A debugger watchpoint uses this to notice a
// write to a watched address without re-reading the whole memory
// array after every step.
func (c *Computer) LastWriteAddr() (int64, bool) {
	return c.lastWriteAddr, c.hasWrite
}

func (c *Computer) memGet(addr int64) (int64, error) {
	idx, err := safeAddr(addr)
	if err != nil {
		return 0, err
	}
	if idx >= len(c.mem) {
		return 0, nil
	}
	return c.mem[idx], nil
}

func (c *Computer) memSet(addr int64, value int64) error {
	idx, err := safeAddr(addr)
	if err != nil {
		return err
	}
	if idx >= len(c.mem) {
		grown := make([]int64, idx+1)
		copy(grown, c.mem)
		c.mem = grown
	}
	c.mem[idx] = value
	c.lastWriteAddr = addr
	c.hasWrite = true
	return nil
}

var pow10Table = [...]int64{1, 10, 100, 1_000, 10_000, 100_000}

// paramAddr resolves the i-th (1-indexed) parameter of the
// instruction at the current ptr to a memory address, honoring its
// mode digit. For Immediate mode the "address" is the parameter slot
// itself, which is what makes self-modifying code meaningful here.
func (c *Computer) paramAddr(i int) (int64, error) {
	opWord, err := c.memGet(int64(c.ptr))
	if err != nil {
		return 0, err
	}
	slot := int64(c.ptr + i)
	mode := (opWord / pow10Table[i+1]) % 10
	switch mode {
	case 0:
		return c.memGet(slot)
	case 1:
		return slot, nil
	case 2:
		v, err := c.memGet(slot)
		if err != nil {
			return 0, err
		}
		return c.rb + v, nil
	default:
		return 0, &ModeError{Mode: mode}
	}
}

func (c *Computer) param(i int) (int64, error) {
	addr, err := c.paramAddr(i)
	if err != nil {
		return 0, err
	}
	return c.memGet(addr)
}

func (c *Computer) setParam(i int, value int64) error {
	addr, err := c.paramAddr(i)
	if err != nil {
		return err
	}
	return c.memSet(addr, value)
}

// Step executes instructions until one produces an externally visible
// event: a yielded output, an empty-queue wait, or a halt. A runtime
// error (unknown mode, unknown opcode, negative address) aborts
// immediately and is returned alongside a zero Result.
func (c *Computer) Step() (Result, error) {
	for {
		res, settled, err := c.stepOnce()
		if err != nil || settled {
			return res, err
		}
	}
}

// StepInstruction executes exactly one instruction, the granularity a
// debugger needs to stop between arithmetic instructions that Step
// would otherwise run through silently. settled reports whether the
// instruction also produced one of Step's externally visible events;
// when it did not, Result is zero and the caller should inspect the
// Computer's IP/memory directly (e.g. against a breakpoint address).
func (c *Computer) StepInstruction() (result Result, settled bool, err error) {
	return c.stepOnce()
}

// stepOnce executes exactly one instruction and reports whether it
// produced one of Step's externally visible events.
func (c *Computer) stepOnce() (Result, bool, error) {
	opWord, err := c.memGet(int64(c.ptr))
	if err != nil {
		return Result{}, true, err
	}
	switch opWord % 100 {
	case 1: // Add
		a, err := c.param(1)
		if err != nil {
			return Result{}, true, err
		}
		b, err := c.param(2)
		if err != nil {
			return Result{}, true, err
		}
		if err := c.setParam(3, a+b); err != nil {
			return Result{}, true, err
		}
		c.ptr += 4

	case 2: // Multiply
		a, err := c.param(1)
		if err != nil {
			return Result{}, true, err
		}
		b, err := c.param(2)
		if err != nil {
			return Result{}, true, err
		}
		if err := c.setParam(3, a*b); err != nil {
			return Result{}, true, err
		}
		c.ptr += 4

	case 3: // Input
		if len(c.input) == 0 {
			return Result{Kind: Waiting}, true, nil
		}
		value := c.input[0]
		c.input = c.input[1:]
		if err := c.setParam(1, value); err != nil {
			return Result{}, true, err
		}
		c.ptr += 2

	case 4: // Output
		v, err := c.param(1)
		if err != nil {
			return Result{}, true, err
		}
		c.ptr += 2
		return Result{Kind: Yielded, Value: v}, true, nil

	case 5: // JumpNonZero
		cond, err := c.param(1)
		if err != nil {
			return Result{}, true, err
		}
		if cond != 0 {
			target, err := c.param(2)
			if err != nil {
				return Result{}, true, err
			}
			idx, err := safeAddr(target)
			if err != nil {
				return Result{}, true, err
			}
			c.ptr = idx
		} else {
			c.ptr += 3
		}

	case 6: // JumpZero
		cond, err := c.param(1)
		if err != nil {
			return Result{}, true, err
		}
		if cond == 0 {
			target, err := c.param(2)
			if err != nil {
				return Result{}, true, err
			}
			idx, err := safeAddr(target)
			if err != nil {
				return Result{}, true, err
			}
			c.ptr = idx
		} else {
			c.ptr += 3
		}

	case 7: // LessThan
		a, err := c.param(1)
		if err != nil {
			return Result{}, true, err
		}
		b, err := c.param(2)
		if err != nil {
			return Result{}, true, err
		}
		v := int64(0)
		if a < b {
			v = 1
		}
		if err := c.setParam(3, v); err != nil {
			return Result{}, true, err
		}
		c.ptr += 4

	case 8: // Equal
		a, err := c.param(1)
		if err != nil {
			return Result{}, true, err
		}
		b, err := c.param(2)
		if err != nil {
			return Result{}, true, err
		}
		v := int64(0)
		if a == b {
			v = 1
		}
		if err := c.setParam(3, v); err != nil {
			return Result{}, true, err
		}
		c.ptr += 4

	case 9: // AdjustRelativeBase
		a, err := c.param(1)
		if err != nil {
			return Result{}, true, err
		}
		c.rb += a
		c.ptr += 2

	case 99: // Halt
		return Result{Kind: Complete}, true, nil

	default:
		return Result{}, true, &OpcodeError{Opcode: opWord % 100}
	}

	return Result{}, false, nil
}
