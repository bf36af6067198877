package debugger

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hollowvm/intcode/internal/vm"
)

// Session drives one vm.Computer one instruction at a time, pausing at
// breakpoints and watchpoints and exposing the expression evaluator
// and command history for an interactive session (SPEC_FULL.md §4.11).
type Session struct {
	VM *vm.Computer

	program []int64 // kept for Reset

	Breakpoints *BreakpointManager
	Watchpoints *WatchpointManager
	History     *CommandHistory
	Evaluator   *ExpressionEvaluator

	Running  bool
	StepMode StepMode

	// StepCount is the number of instructions executed since the last
	// Reset, reported in the API's state snapshot (SPEC_FULL.md §4.13).
	StepCount int64

	// Symbols resolves a label name to its memory address, for
	// break/watch/print commands that accept a label in place of a
	// literal address.
	Symbols map[string]int64

	// SourceMap maps a memory address to the source line assembled
	// there, for the "list" command.
	SourceMap map[int64]string

	LastCommand string

	Output strings.Builder
}

// StepMode controls what ShouldBreak does on the next instruction.
type StepMode int

const (
	StepNone   StepMode = iota // not stepping; only breakpoints/watchpoints pause execution
	StepSingle                 // pause after exactly one instruction
)

// NewSession creates a new debug session over program.
func NewSession(program []int64) *Session {
	original := make([]int64, len(program))
	copy(original, program)

	return &Session{
		VM:          vm.NewComputer(program),
		program:     original,
		Breakpoints: NewBreakpointManager(),
		Watchpoints: NewWatchpointManager(),
		History:     NewCommandHistory(),
		Evaluator:   NewExpressionEvaluator(),
		StepMode:    StepNone,
		Symbols:     make(map[string]int64),
		SourceMap:   make(map[int64]string),
	}
}

// LoadSymbols loads the symbol table used for label resolution.
func (s *Session) LoadSymbols(symbols map[string]int64) {
	s.Symbols = symbols
}

// LoadSourceMap loads the address -> source line mapping for "list".
func (s *Session) LoadSourceMap(sourceMap map[int64]string) {
	s.SourceMap = sourceMap
}

// ResolveAddress resolves a label to an address, or parses a numeric
// (decimal or 0x-hex) address.
func (s *Session) ResolveAddress(addrStr string) (int64, error) {
	if addr, exists := s.Symbols[addrStr]; exists {
		return addr, nil
	}

	if strings.HasPrefix(addrStr, "0x") || strings.HasPrefix(addrStr, "0X") {
		addr, err := strconv.ParseInt(addrStr[2:], 16, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid address: %s", addrStr)
		}
		return addr, nil
	}

	addr, err := strconv.ParseInt(addrStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid address: %s", addrStr)
	}
	return addr, nil
}

// ExecuteCommand parses and dispatches one command line. An empty
// line repeats the last command, matching the teacher's REPL
// convention for stepping commands.
func (s *Session) ExecuteCommand(cmdLine string) error {
	cmdLine = strings.TrimSpace(cmdLine)

	if cmdLine == "" {
		cmdLine = s.LastCommand
	}

	if cmdLine != "" {
		s.History.Add(cmdLine)
		s.LastCommand = cmdLine
	}

	parts := strings.Fields(cmdLine)
	if len(parts) == 0 {
		return nil
	}

	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	return s.handleCommand(cmd, args)
}

// handleCommand dispatches a command to its handler.
func (s *Session) handleCommand(cmd string, args []string) error {
	switch cmd {
	case "run", "r":
		return s.cmdRun(args)
	case "continue", "c":
		return s.cmdContinue(args)
	case "step", "s", "si":
		return s.cmdStep(args)
	case "next", "n":
		return s.cmdNext(args)
	case "finish", "fin":
		return s.cmdFinish(args)

	case "break", "b":
		return s.cmdBreak(args)
	case "tbreak", "tb":
		return s.cmdTBreak(args)
	case "delete", "d":
		return s.cmdDelete(args)
	case "enable":
		return s.cmdEnable(args)
	case "disable":
		return s.cmdDisable(args)

	case "watch", "w":
		return s.cmdWatch(args)
	case "rwatch":
		return s.cmdRWatch(args)
	case "awatch":
		return s.cmdAWatch(args)

	case "print", "p":
		return s.cmdPrint(args)
	case "x":
		return s.cmdExamine(args)
	case "info", "i":
		return s.cmdInfo(args)
	case "list", "l":
		return s.cmdList(args)

	case "set":
		return s.cmdSet(args)

	case "reset":
		return s.cmdReset(args)

	case "help", "h", "?":
		return s.cmdHelp(args)

	default:
		return fmt.Errorf("unknown command: %s (type 'help' for available commands)", cmd)
	}
}

// ShouldBreak reports whether execution should pause at the current
// IP, and why: a pending single step, a breakpoint, or a watchpoint.
// It does not itself execute anything, so driving code must not call
// it unconditionally before every instruction -- see driveUntilStop,
// which consults only its breakpoint/watchpoint half
// (checkBreakAndWatch) and handles a pending single step itself.
func (s *Session) ShouldBreak() (bool, string) {
	if s.StepMode == StepSingle {
		s.StepMode = StepNone
		return true, "single step"
	}

	return s.checkBreakAndWatch()
}

// checkBreakAndWatch is the breakpoint/watchpoint half of ShouldBreak,
// used directly by driveUntilStop so a pending single step does not
// short-circuit execution before the stepped instruction has run.
func (s *Session) checkBreakAndWatch() (bool, string) {
	ip := s.VM.IP()

	if bp := s.Breakpoints.GetBreakpoint(ip); bp != nil {
		if !bp.Enabled {
			return false, ""
		}

		if bp.Condition != "" {
			result, err := s.Evaluator.Evaluate(bp.Condition, s.VM, s.Symbols)
			if err != nil {
				return true, fmt.Sprintf("breakpoint %d (condition error: %v)", bp.ID, err)
			}
			if !result {
				return false, ""
			}
		}

		bp.HitCount++

		if bp.Temporary {
			_ = s.Breakpoints.DeleteBreakpoint(bp.ID)
		}

		return true, fmt.Sprintf("breakpoint %d", bp.ID)
	}

	if wp, changed := s.Watchpoints.CheckWatchpoints(s.VM); wp != nil && changed {
		return true, fmt.Sprintf("watchpoint %d: %s", wp.ID, wp.Expression)
	}

	return false, ""
}

// GetOutput returns and clears the output buffer.
func (s *Session) GetOutput() string {
	output := s.Output.String()
	s.Output.Reset()
	return output
}

// Printf writes formatted output to the output buffer.
func (s *Session) Printf(format string, args ...interface{}) {
	s.Output.WriteString(fmt.Sprintf(format, args...))
}

// Println writes a line to the output buffer.
func (s *Session) Println(args ...interface{}) {
	s.Output.WriteString(fmt.Sprintln(args...))
}

// SetStep configures the session to pause after the next instruction.
// Intcode has no call instruction, so "step over" and "step out" of a
// call are meaningless distinctions here: every stepping command
// collapses to a single-instruction step.
func (s *Session) SetStep() {
	s.StepMode = StepSingle
	s.Running = true
}

// Run resets the VM to the session's original program and drives it
// until the first breakpoint/watchpoint hit, an I/O event, or halt.
func (s *Session) Run() (vm.Result, string, error) {
	s.resetVM()
	return s.driveUntilStop()
}

// Continue resumes execution from the current state until the next
// stop.
func (s *Session) Continue() (vm.Result, string, error) {
	return s.driveUntilStop()
}

// StepOver executes exactly one instruction. Intcode has no call
// instruction, so this is equivalent to a single StepInstruction.
func (s *Session) StepOver() (vm.Result, bool, error) {
	result, settled, err := s.VM.StepInstruction()
	s.StepCount++
	return result, settled, err
}

// Reset restores the VM to the session's original program, discarding
// all execution progress, and clears the step mode.
func (s *Session) Reset() {
	s.resetVM()
	s.StepMode = StepNone
	s.Running = false
}

func (s *Session) resetVM() {
	s.VM = vm.NewComputer(s.program)
	s.StepCount = 0
}

// driveUntilStop executes instructions until a breakpoint/watchpoint
// fires, a single step completes, a runtime error occurs, or the VM
// yields output, starts waiting for input, or halts. A pending single
// step (StepMode == StepSingle) always executes its one instruction
// before reporting, rather than short-circuiting on ShouldBreak's
// single-step branch first -- checking ShouldBreak unconditionally
// before every instruction would report "single step" immediately
// without ever running it, which is the bug this split from
// ShouldBreak exists to avoid. A breakpoint/watchpoint at the current
// IP is still checked before stepping, matching the teacher's
// check-then-execute CLI loop, for every mode except a pending single
// step.
func (s *Session) driveUntilStop() (vm.Result, string, error) {
	for {
		if s.StepMode != StepSingle {
			if stop, reason := s.checkBreakAndWatch(); stop {
				return vm.Result{}, reason, nil
			}
		}

		result, settled, err := s.VM.StepInstruction()
		s.StepCount++
		if err != nil {
			return result, "", err
		}

		if s.StepMode == StepSingle {
			s.StepMode = StepNone
			return result, "single step", nil
		}

		if settled {
			return result, "", nil
		}
	}
}
