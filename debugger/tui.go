package debugger

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/hollowvm/intcode/internal/vm"
)

// Inspector is the terminal (tcell/tview) front end for a debugger
// Session: four panes -- source/disassembly, state (ip, rb, step
// count), a memory dump around the instruction pointer, and an output
// log -- refreshed after each Session step, plus a command input line
// driving the same command set as RunCLI.
type Inspector struct {
	Session *Session
	App     *tview.Application
	Pages   *tview.Pages

	MainLayout *tview.Flex
	LeftPanel  *tview.Flex
	RightPanel *tview.Flex

	SourceView      *tview.TextView
	StateView       *tview.TextView
	MemoryView      *tview.TextView
	BreakpointsView *tview.TextView
	OutputView      *tview.TextView
	CommandInput    *tview.InputField

	MemoryAddress int64
	Running       bool

	stepCount int64
}

// NewInspector creates an Inspector for an interactive terminal.
func NewInspector(session *Session) *Inspector {
	return newInspector(session, tview.NewApplication())
}

// NewInspectorWithScreen creates an Inspector bound to an explicit
// tcell.Screen, for tests that drive the UI without a real terminal.
func NewInspectorWithScreen(session *Session, screen tcell.Screen) *Inspector {
	app := tview.NewApplication().SetScreen(screen)
	return newInspector(session, app)
}

func newInspector(session *Session, app *tview.Application) *Inspector {
	t := &Inspector{
		Session:       session,
		App:           app,
		MemoryAddress: 0,
		Running:       false,
	}

	t.initializeViews()
	t.buildLayout()
	t.setupKeyBindings()

	return t
}

// initializeViews creates all the view panels.
func (t *Inspector) initializeViews() {
	t.SourceView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(false)
	t.SourceView.SetBorder(true).SetTitle(" Source / Disassembly ")

	t.StateView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(false)
	t.StateView.SetBorder(true).SetTitle(" State ")

	t.MemoryView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(false)
	t.MemoryView.SetBorder(true).SetTitle(" Memory ")

	t.BreakpointsView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(false)
	t.BreakpointsView.SetBorder(true).SetTitle(" Breakpoints/Watchpoints ")

	t.OutputView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(true)
	t.OutputView.SetBorder(true).SetTitle(" Output ")

	t.CommandInput = tview.NewInputField().
		SetLabel("> ").
		SetFieldWidth(0)
	t.CommandInput.SetBorder(true).SetTitle(" Command ")
	t.CommandInput.SetDoneFunc(t.handleCommand)
}

// buildLayout constructs the Inspector layout.
func (t *Inspector) buildLayout() {
	t.LeftPanel = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(t.SourceView, 0, 3, false).
		AddItem(t.MemoryView, 0, 2, false)

	rightTop := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(t.StateView, RegisterViewRows, 0, false).
		AddItem(t.BreakpointsView, 0, 1, false)

	t.RightPanel = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(rightTop, 0, 1, false)

	mainContent := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(t.LeftPanel, 0, 2, false).
		AddItem(t.RightPanel, 0, 1, false)

	t.MainLayout = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(mainContent, 0, 4, false).
		AddItem(t.OutputView, 8, 0, false).
		AddItem(t.CommandInput, 3, 0, true)

	t.Pages = tview.NewPages().
		AddPage("main", t.MainLayout, true, true)
}

// setupKeyBindings sets up keyboard shortcuts.
func (t *Inspector) setupKeyBindings() {
	t.App.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyF1:
			t.executeCommand("help")
			return nil
		case tcell.KeyF5:
			t.executeCommand("continue")
			return nil
		case tcell.KeyF9:
			t.executeCommand("break")
			return nil
		case tcell.KeyF11:
			t.executeCommand("step")
			return nil
		case tcell.KeyCtrlC:
			t.App.Stop()
			return nil
		case tcell.KeyCtrlL:
			t.RefreshAll()
			return nil
		}
		return event
	})
}

// handleCommand processes command input.
func (t *Inspector) handleCommand(key tcell.Key) {
	if key == tcell.KeyEnter {
		cmd := t.CommandInput.GetText()
		if cmd != "" {
			t.executeCommand(cmd)
			t.CommandInput.SetText("")
		}
	}
}

// executeCommand runs one debugger command and, if it left the
// session Running, drives the VM forward one instruction at a time
// until it stops, matching the CLI's runCLILoop but updating the
// views instead of printing to stdout.
func (t *Inspector) executeCommand(cmd string) {
	t.Session.Output.Reset()

	err := t.Session.ExecuteCommand(cmd)
	output := t.Session.GetOutput()

	if err != nil {
		t.WriteOutput(fmt.Sprintf("[red]Error:[white] %v\n", err))
	}
	if output != "" {
		t.WriteOutput(output)
	}

	if t.Session.Running {
		t.driveToStop()
	}

	t.RefreshAll()
}

// driveToStop drives the session via Continue until it stops for any
// reason: a breakpoint/watchpoint, a single step, a halt, a need for
// input this headless loop cannot supply interactively, or an error.
func (t *Inspector) driveToStop() {
	for t.Session.Running {
		result, reason, err := t.Session.Continue()
		if err != nil {
			t.WriteOutput(fmt.Sprintf("Runtime error: %v\n", err))
			t.Session.Running = false
			return
		}

		if reason != "" {
			t.Session.Running = false
			t.WriteOutput(fmt.Sprintf("Stopped: %s at ip=%d\n", reason, t.Session.VM.IP()))
			return
		}

		t.stepCount++

		switch result.Kind {
		case vm.Complete:
			t.Session.Running = false
			t.WriteOutput("Program halted\n")
		case vm.Yielded:
			t.WriteOutput(fmt.Sprintf("Output: %d\n", result.Value))
		case vm.Waiting:
			t.Session.Running = false
			t.WriteOutput("Waiting for input (the inspector cannot feed input values)\n")
		}
	}
}

// WriteOutput writes to the output view.
func (t *Inspector) WriteOutput(text string) {
	_, _ = t.OutputView.Write([]byte(text))
	t.OutputView.ScrollToEnd()
}

// RefreshAll refreshes all view panels.
func (t *Inspector) RefreshAll() {
	t.UpdateSourceView()
	t.UpdateStateView()
	t.UpdateMemoryView()
	t.UpdateBreakpointsView()
	if t.App != nil {
		t.App.Draw()
	}
}

// UpdateSourceView updates the source/disassembly view.
func (t *Inspector) UpdateSourceView() {
	t.SourceView.Clear()

	if len(t.Session.SourceMap) == 0 {
		t.SourceView.SetText("[yellow]No source map available[white]")
		return
	}

	ip := t.Session.VM.IP()

	startAddr := ip - CodeContextLinesBeforeCompact
	if startAddr < 0 {
		startAddr = 0
	}

	var lines []string
	for addr := startAddr; addr <= ip+CodeContextLinesAfterCompact; addr++ {
		sourceLine, exists := t.Session.SourceMap[addr]
		if !exists {
			continue
		}

		marker := "  "
		color := "white"
		if addr == ip {
			marker = "->"
			color = "yellow"
		}
		if t.Session.Breakpoints.GetBreakpoint(addr) != nil {
			marker = "* "
		}

		lines = append(lines, fmt.Sprintf("[%s]%s %d: %s[white]", color, marker, addr, sourceLine))
	}

	t.SourceView.SetText(strings.Join(lines, "\n"))
}

// UpdateStateView updates the ip/rb/step-count state panel.
func (t *Inspector) UpdateStateView() {
	t.StateView.Clear()

	var lines []string
	lines = append(lines, fmt.Sprintf("ip: %d", t.Session.VM.IP()))
	lines = append(lines, fmt.Sprintf("rb: %d", t.Session.VM.RelativeBase()))
	lines = append(lines, fmt.Sprintf("steps: %d", t.stepCount))

	t.StateView.SetText(strings.Join(lines, "\n"))
}

// UpdateMemoryView updates the memory-around-ip decimal dump.
func (t *Inspector) UpdateMemoryView() {
	t.MemoryView.Clear()

	addr := t.MemoryAddress
	if addr == 0 {
		addr = t.Session.VM.IP()
	}

	mem := t.Session.VM.Memory()

	var lines []string
	lines = append(lines, fmt.Sprintf("[yellow]Address: %d[white]", addr))

	for row := 0; row < MemoryDisplayRows; row++ {
		rowAddr := addr + int64(row*MemoryDisplayColumns)

		var cells []string
		for col := 0; col < MemoryDisplayColumns; col++ {
			cellAddr := rowAddr + int64(col)
			var value int64
			if cellAddr >= 0 && int(cellAddr) < len(mem) {
				value = mem[cellAddr]
			}
			cells = append(cells, fmt.Sprintf("%d", value))
		}

		lines = append(lines, fmt.Sprintf("%d: %s", rowAddr, strings.Join(cells, " ")))
	}

	t.MemoryView.SetText(strings.Join(lines, "\n"))
}

// UpdateBreakpointsView updates the breakpoints/watchpoints panel.
func (t *Inspector) UpdateBreakpointsView() {
	t.BreakpointsView.Clear()

	var lines []string

	bps := t.Session.Breakpoints.GetAllBreakpoints()
	if len(bps) > 0 {
		lines = append(lines, "[yellow]Breakpoints:[white]")
		for _, bp := range bps {
			status := "enabled"
			color := "green"
			if !bp.Enabled {
				status = "disabled"
				color = "red"
			}

			line := fmt.Sprintf("  %d: [%s]%s[white] %d", bp.ID, color, status, bp.Address)
			if sym := t.findSymbolForAddress(bp.Address); sym != "" {
				line += fmt.Sprintf(" <%s>", sym)
			}
			if bp.Condition != "" {
				line += fmt.Sprintf(" if %s", bp.Condition)
			}
			line += fmt.Sprintf(" (hits: %d)", bp.HitCount)

			lines = append(lines, line)
		}
	} else {
		lines = append(lines, "[yellow]No breakpoints set[white]")
	}

	lines = append(lines, "")

	wps := t.Session.Watchpoints.GetAllWatchpoints()
	if len(wps) > 0 {
		lines = append(lines, "[yellow]Watchpoints:[white]")
		for _, wp := range wps {
			typeStr := "watch"
			if wp.Type == WatchRead {
				typeStr = "rwatch"
			} else if wp.Type == WatchReadWrite {
				typeStr = "awatch"
			}

			lines = append(lines, fmt.Sprintf("  %d: %s %s = %d", wp.ID, typeStr, wp.Expression, wp.LastValue))
		}
	}

	t.BreakpointsView.SetText(strings.Join(lines, "\n"))
}

// findSymbolForAddress finds a symbol name for an address.
func (t *Inspector) findSymbolForAddress(addr int64) string {
	for sym, symAddr := range t.Session.Symbols {
		if symAddr == addr {
			return sym
		}
	}
	return ""
}

// Run starts the Inspector application.
func (t *Inspector) Run() error {
	t.RefreshAll()

	t.WriteOutput("[green]Intcode Debugger[white]\n")
	t.WriteOutput("Press F1 for help, F5 to continue, F11 to step\n")
	t.WriteOutput("Type 'help' for command list\n\n")

	return t.App.SetRoot(t.Pages, true).SetFocus(t.CommandInput).Run()
}

// Stop stops the Inspector application.
func (t *Inspector) Stop() {
	t.App.Stop()
}
