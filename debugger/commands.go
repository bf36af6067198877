package debugger

import (
	"fmt"
	"strconv"
	"strings"
)

// Command handler implementations.

// cmdRun starts program execution from the beginning.
func (s *Session) cmdRun(args []string) error {
	s.Reset()
	s.Running = true
	s.StepMode = StepNone

	s.Println("Starting program execution...")
	return nil
}

// cmdContinue continues execution from the current point.
func (s *Session) cmdContinue(args []string) error {
	s.Running = true
	s.StepMode = StepNone

	s.Println("Continuing...")
	return nil
}

// cmdStep executes a single instruction.
func (s *Session) cmdStep(args []string) error {
	s.SetStep()
	return nil
}

// cmdNext is equivalent to step: Intcode has no call instruction, so
// there is no notion of stepping over one.
func (s *Session) cmdNext(args []string) error {
	s.SetStep()
	return nil
}

// cmdFinish is equivalent to step: Intcode has no call instruction, so
// there is no function to step out of.
func (s *Session) cmdFinish(args []string) error {
	s.SetStep()
	return nil
}

// cmdBreak sets a breakpoint.
func (s *Session) cmdBreak(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: break <address|label> [if <condition>]")
	}

	address, err := s.ResolveAddress(args[0])
	if err != nil {
		return err
	}

	var condition string
	if len(args) > 1 && strings.ToLower(args[1]) == "if" {
		condition = strings.Join(args[2:], " ")
	}

	bp := s.Breakpoints.AddBreakpoint(address, false, condition)

	if condition != "" {
		s.Printf("Breakpoint %d at %d (condition: %s)\n", bp.ID, address, condition)
	} else {
		s.Printf("Breakpoint %d at %d\n", bp.ID, address)
	}

	return nil
}

// cmdTBreak sets a temporary breakpoint (auto-delete after hit).
func (s *Session) cmdTBreak(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: tbreak <address|label>")
	}

	address, err := s.ResolveAddress(args[0])
	if err != nil {
		return err
	}

	bp := s.Breakpoints.AddBreakpoint(address, true, "")
	s.Printf("Temporary breakpoint %d at %d\n", bp.ID, address)

	return nil
}

// cmdDelete deletes breakpoint(s).
func (s *Session) cmdDelete(args []string) error {
	if len(args) == 0 {
		s.Breakpoints.Clear()
		s.Println("All breakpoints deleted")
		return nil
	}

	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid breakpoint ID: %s", args[0])
	}

	if err := s.Breakpoints.DeleteBreakpoint(id); err != nil {
		return err
	}

	s.Printf("Breakpoint %d deleted\n", id)
	return nil
}

// cmdEnable enables a breakpoint.
func (s *Session) cmdEnable(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: enable <breakpoint-id>")
	}

	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid breakpoint ID: %s", args[0])
	}

	if err := s.Breakpoints.EnableBreakpoint(id); err != nil {
		return err
	}

	s.Printf("Breakpoint %d enabled\n", id)
	return nil
}

// cmdDisable disables a breakpoint.
func (s *Session) cmdDisable(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: disable <breakpoint-id>")
	}

	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid breakpoint ID: %s", args[0])
	}

	if err := s.Breakpoints.DisableBreakpoint(id); err != nil {
		return err
	}

	s.Printf("Breakpoint %d disabled\n", id)
	return nil
}

// parseWatchExpression resolves a watch expression to a memory
// address. Intcode has no registers, so unlike the teacher's version
// this never distinguishes a register target -- every watch names a
// memory cell, spelled as a bare address/label, "mem[addr]", or
// "[addr]".
func (s *Session) parseWatchExpression(expr string) (int64, error) {
	expr = strings.TrimSpace(expr)

	if strings.HasPrefix(expr, "mem[") && strings.HasSuffix(expr, "]") {
		addrStr := strings.TrimSuffix(strings.TrimPrefix(expr, "mem["), "]")
		return s.ResolveAddress(addrStr)
	}

	if strings.HasPrefix(expr, "[") && strings.HasSuffix(expr, "]") {
		addrStr := strings.TrimSuffix(strings.TrimPrefix(expr, "["), "]")
		return s.ResolveAddress(addrStr)
	}

	addr, err := s.ResolveAddress(expr)
	if err != nil {
		return 0, fmt.Errorf("invalid watch expression: %s", expr)
	}
	return addr, nil
}

// cmdWatch sets a write watchpoint.
func (s *Session) cmdWatch(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: watch <expression>")
	}

	expression := strings.Join(args, " ")
	address, err := s.parseWatchExpression(expression)
	if err != nil {
		return err
	}

	wp := s.Watchpoints.AddWatchpoint(WatchWrite, expression, address)

	if err := s.Watchpoints.InitializeWatchpoint(wp.ID, s.VM); err != nil {
		s.Watchpoints.DeleteWatchpoint(wp.ID)
		return err
	}

	s.Printf("Watchpoint %d: %s\n", wp.ID, expression)
	return nil
}

// cmdRWatch sets a read watchpoint.
func (s *Session) cmdRWatch(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: rwatch <expression>")
	}

	expression := strings.Join(args, " ")
	address, err := s.parseWatchExpression(expression)
	if err != nil {
		return err
	}

	wp := s.Watchpoints.AddWatchpoint(WatchRead, expression, address)

	if err := s.Watchpoints.InitializeWatchpoint(wp.ID, s.VM); err != nil {
		s.Watchpoints.DeleteWatchpoint(wp.ID)
		return err
	}

	s.Printf("Read watchpoint %d: %s\n", wp.ID, expression)
	return nil
}

// cmdAWatch sets a read/write watchpoint.
func (s *Session) cmdAWatch(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: awatch <expression>")
	}

	expression := strings.Join(args, " ")
	address, err := s.parseWatchExpression(expression)
	if err != nil {
		return err
	}

	wp := s.Watchpoints.AddWatchpoint(WatchReadWrite, expression, address)

	if err := s.Watchpoints.InitializeWatchpoint(wp.ID, s.VM); err != nil {
		s.Watchpoints.DeleteWatchpoint(wp.ID)
		return err
	}

	s.Printf("Access watchpoint %d: %s\n", wp.ID, expression)
	return nil
}

// cmdPrint evaluates and prints an expression.
func (s *Session) cmdPrint(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: print <expression>")
	}

	expression := strings.Join(args, " ")
	result, err := s.Evaluator.EvaluateExpression(expression, s.VM, s.Symbols)
	if err != nil {
		return err
	}

	s.Printf("$%d = %d (0x%X)\n", s.Evaluator.GetValueNumber(), result, result)
	return nil
}

// cmdExamine examines memory starting at an address:
// x[/nf] <address>, where n is a repeat count and f a format (x hex,
// d signed decimal, u unsigned decimal, o octal).
func (s *Session) cmdExamine(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: x[/nf] <address>\n  n: count, f: format (x/d/u/o)")
	}

	count := 1
	format := 'x'
	addrArg := args[0]

	if strings.HasPrefix(args[0], "/") {
		formatStr := args[0][1:]
		if len(args) < 2 {
			return fmt.Errorf("missing address")
		}
		addrArg = args[1]

		i := 0
		for i < len(formatStr) && formatStr[i] >= '0' && formatStr[i] <= '9' {
			i++
		}
		if i > 0 {
			if n, err := strconv.Atoi(formatStr[:i]); err == nil {
				count = n
			}
			formatStr = formatStr[i:]
		}

		if len(formatStr) > 0 {
			format = rune(formatStr[0])
		}
	}

	address, err := s.ResolveAddress(addrArg)
	if err != nil {
		return err
	}

	s.Printf("%d:", address)
	mem := s.VM.Memory()
	for i := 0; i < count; i++ {
		addr := address + int64(i)
		var value int64
		if addr >= 0 && int(addr) < len(mem) {
			value = mem[addr]
		}

		switch format {
		case 'x':
			s.Printf(" 0x%X", value)
		case 'u':
			s.Printf(" %d", uint64(value))
		case 'o':
			s.Printf(" %o", value)
		default: // 'd'
			s.Printf(" %d", value)
		}
	}
	s.Println()

	return nil
}

// cmdInfo displays information about session state.
func (s *Session) cmdInfo(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: info <state|breakpoints|watchpoints>")
	}

	switch strings.ToLower(args[0]) {
	case "state", "registers", "reg", "r":
		return s.showState()
	case "breakpoints", "break", "b":
		return s.showBreakpoints()
	case "watchpoints", "watch", "w":
		return s.showWatchpoints()
	default:
		return fmt.Errorf("unknown info command: %s", args[0])
	}
}

// showState displays the instruction pointer and relative base, the
// only two pseudo-registers an Intcode machine has.
func (s *Session) showState() error {
	s.Println("State:")
	s.Printf("  ip = %d\n", s.VM.IP())
	s.Printf("  rb = %d\n", s.VM.RelativeBase())
	return nil
}

// showBreakpoints displays all breakpoints.
func (s *Session) showBreakpoints() error {
	breakpoints := s.Breakpoints.GetAllBreakpoints()
	if len(breakpoints) == 0 {
		s.Println("No breakpoints")
		return nil
	}

	s.Println("Breakpoints:")
	for _, bp := range breakpoints {
		status := "enabled"
		if !bp.Enabled {
			status = "disabled"
		}

		temp := ""
		if bp.Temporary {
			temp = " (temporary)"
		}

		condition := ""
		if bp.Condition != "" {
			condition = fmt.Sprintf(" if %s", bp.Condition)
		}

		s.Printf("  %d: %d %s%s%s (hit %d times)\n",
			bp.ID, bp.Address, status, temp, condition, bp.HitCount)
	}

	return nil
}

// showWatchpoints displays all watchpoints.
func (s *Session) showWatchpoints() error {
	watchpoints := s.Watchpoints.GetAllWatchpoints()
	if len(watchpoints) == 0 {
		s.Println("No watchpoints")
		return nil
	}

	s.Println("Watchpoints:")
	for _, wp := range watchpoints {
		status := "enabled"
		if !wp.Enabled {
			status = "disabled"
		}

		wpType := "write"
		if wp.Type == WatchRead {
			wpType = "read"
		} else if wp.Type == WatchReadWrite {
			wpType = "access"
		}

		s.Printf("  %d: %s %s %s (hit %d times, last value: %d)\n",
			wp.ID, wp.Expression, wpType, status, wp.HitCount, wp.LastValue)
	}

	return nil
}

// cmdList shows the source line at the current IP and its neighbors.
func (s *Session) cmdList(args []string) error {
	ip := s.VM.IP()

	if source, exists := s.SourceMap[ip]; exists {
		s.Printf("=> %d: %s\n", ip, source)
	} else {
		s.Printf("=> %d: <no source>\n", ip)
	}

	for offset := int64(1); offset <= 8; offset++ {
		addr := ip + offset
		if source, exists := s.SourceMap[addr]; exists {
			s.Printf("   %d: %s\n", addr, source)
		}
	}

	return nil
}

// cmdSet modifies a memory cell: set mem[address] = <value>.
func (s *Session) cmdSet(args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("usage: set mem[address] = <value>")
	}

	if args[1] != "=" {
		return fmt.Errorf("usage: set mem[address] = <value>")
	}

	target := strings.ToLower(args[0])
	valueStr := args[2]

	value, err := s.Evaluator.EvaluateExpression(valueStr, s.VM, s.Symbols)
	if err != nil {
		return err
	}

	if !strings.HasPrefix(target, "mem[") || !strings.HasSuffix(target, "]") {
		return fmt.Errorf("invalid target: %s (expected mem[address])", target)
	}

	addrStr := strings.TrimSuffix(strings.TrimPrefix(target, "mem["), "]")
	address, err := s.ResolveAddress(addrStr)
	if err != nil {
		return err
	}

	mem := s.VM.Memory()
	if address < 0 || int(address) >= len(mem) {
		return fmt.Errorf("address %d out of range", address)
	}
	mem[address] = value

	s.Printf("Memory %d set to %d\n", address, value)
	return nil
}

// cmdReset resets the session to its initial program.
func (s *Session) cmdReset(args []string) error {
	s.Reset()
	s.Println("Session reset")
	return nil
}

// cmdHelp displays help information.
func (s *Session) cmdHelp(args []string) error {
	if len(args) > 0 {
		return s.showCommandHelp(args[0])
	}

	s.Println("Intcode Debugger Commands:")
	s.Println()
	s.Println("Execution Control:")
	s.Println("  run (r)           - Start program execution from the beginning")
	s.Println("  continue (c)      - Continue execution")
	s.Println("  step (s, si)      - Execute single instruction")
	s.Println("  next (n)          - Same as step (no call instruction to step over)")
	s.Println("  finish (fin)      - Same as step (no call instruction to step out of)")
	s.Println()
	s.Println("Breakpoints:")
	s.Println("  break (b) <addr>  - Set breakpoint, optionally \"if <condition>\"")
	s.Println("  tbreak (tb) <addr>- Set temporary breakpoint")
	s.Println("  delete (d) [id]   - Delete breakpoint(s)")
	s.Println("  enable <id>       - Enable breakpoint")
	s.Println("  disable <id>      - Disable breakpoint")
	s.Println()
	s.Println("Watchpoints:")
	s.Println("  watch (w) <expr>  - Watch a memory cell for writes")
	s.Println("  rwatch <expr>     - Watch a memory cell for reads")
	s.Println("  awatch <expr>     - Watch a memory cell for access")
	s.Println()
	s.Println("Inspection:")
	s.Println("  print (p) <expr>  - Evaluate expression")
	s.Println("  x[/nf] <addr>     - Examine memory")
	s.Println("  info (i) <what>   - Show information (state/breakpoints/watchpoints)")
	s.Println("  list (l)          - List source code near the instruction pointer")
	s.Println()
	s.Println("Modification:")
	s.Println("  set <var> = <val> - Modify a memory cell")
	s.Println()
	s.Println("Control:")
	s.Println("  reset             - Reset the session")
	s.Println("  help (h, ?)       - Show this help")
	s.Println()
	s.Println("Type 'help <command>' for detailed help on a specific command.")

	return nil
}

// showCommandHelp shows detailed help for a specific command.
func (s *Session) showCommandHelp(cmd string) error {
	helpText := map[string]string{
		"break": "break <address|label> [if <condition>]\n  Set a breakpoint at the specified address or label.\n  Optional condition will be evaluated each time.",
		"step":  "step\n  Execute a single instruction.",
		"print": "print <expression>\n  Evaluate and print an expression.\n  Expressions can include rb, ip, mem[addr], symbols, and arithmetic.",
		"x":     "x[/nf] <address>\n  Examine memory.\n  n: count, f: format (x/d/u/o)",
		"info":  "info <state|breakpoints|watchpoints>\n  Display information about session state.",
	}

	if help, exists := helpText[cmd]; exists {
		s.Println(help)
		return nil
	}

	return fmt.Errorf("no help available for command: %s", cmd)
}
