package debugger

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/hollowvm/intcode/internal/vm"
)

// RunCLI runs the command-line debugger interface.
func RunCLI(s *Session) error {
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("(intcode-dbg) ")

		if !scanner.Scan() {
			break
		}

		cmdLine := strings.TrimSpace(scanner.Text())

		if cmdLine == "quit" || cmdLine == "q" || cmdLine == "exit" {
			fmt.Println("Exiting debugger...")
			break
		}

		if err := s.ExecuteCommand(cmdLine); err != nil {
			fmt.Printf("Error: %v\n", err)
		}

		if output := s.GetOutput(); output != "" {
			fmt.Print(output)
		}

		if s.Running {
			runCLILoop(s, scanner)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("input error: %w", err)
	}

	return nil
}

// runCLILoop drives the session via Continue, which advances it one
// stop at a time (a breakpoint/watchpoint hit, a single step, a
// runtime error, or a yielded output/input wait/halt), printing each
// stop and, for a wait, prompting stdin for the value to feed back in
// -- the only point an unattended CLI run can plausibly supply input.
func runCLILoop(s *Session, scanner *bufio.Scanner) {
	for s.Running {
		result, reason, err := s.Continue()
		if err != nil {
			fmt.Printf("Runtime error: %v\n", err)
			s.Running = false
			return
		}

		if reason != "" {
			s.Running = false
			fmt.Printf("Stopped: %s at ip=%d\n", reason, s.VM.IP())
			return
		}

		switch result.Kind {
		case vm.Complete:
			s.Running = false
			fmt.Println("Program halted")
		case vm.Yielded:
			fmt.Printf("Output: %d\n", result.Value)
		case vm.Waiting:
			fmt.Print("Input required, enter a value: ")
			if !scanner.Scan() {
				s.Running = false
				return
			}
			value, err := strconv.ParseInt(strings.TrimSpace(scanner.Text()), 10, 64)
			if err != nil {
				fmt.Printf("Invalid input: %v\n", err)
				s.Running = false
				return
			}
			s.VM.Feed(value)
		}
	}
}

// RunTUI runs the terminal (text user interface) debugger.
func RunTUI(s *Session) error {
	tui := NewInspector(s)
	return tui.Run()
}
