package debugger

import (
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
)

// TestExecuteCommandAsync checks that executeCommand completes
// promptly against a simulated screen (no real terminal needed).
func TestExecuteCommandAsync(t *testing.T) {
	session := NewSession([]int64{99})
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("failed to init simulation screen: %v", err)
	}
	defer screen.Fini()

	tui := NewInspectorWithScreen(session, screen)

	done := make(chan bool, 1)
	go func() {
		tui.executeCommand("help")
		done <- true
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("executeCommand blocked for more than 2 seconds")
	}
}

// TestHandleCommandAsync checks that handleCommand returns promptly.
func TestHandleCommandAsync(t *testing.T) {
	session := NewSession([]int64{99})
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("failed to init simulation screen: %v", err)
	}
	defer screen.Fini()

	tui := NewInspectorWithScreen(session, screen)
	tui.CommandInput.SetText("help")

	done := make(chan bool, 1)
	go func() {
		tui.handleCommand(tcell.KeyEnter)
		done <- true
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handleCommand blocked for more than 2 seconds")
	}
}

func TestInspectorRefreshViews(t *testing.T) {
	session := NewSession([]int64{1, 0, 0, 0, 99})
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("failed to init simulation screen: %v", err)
	}
	defer screen.Fini()

	tui := NewInspectorWithScreen(session, screen)
	session.LoadSourceMap(map[int64]string{0: "add [0] [0] [0]"})
	session.Breakpoints.AddBreakpoint(0, false, "")

	tui.RefreshAll()

	if tui.SourceView.GetText(true) == "" {
		t.Error("expected source view to render")
	}
	if tui.StateView.GetText(true) == "" {
		t.Error("expected state view to render")
	}
	if tui.MemoryView.GetText(true) == "" {
		t.Error("expected memory view to render")
	}
	if tui.BreakpointsView.GetText(true) == "" {
		t.Error("expected breakpoints view to render")
	}
}
