package debugger

// TUI Display Update Constants
const (
	// DisplayUpdateFrequency controls how often the TUI display updates during continuous execution
	// (every N steps, to keep the display responsive without overwhelming the terminal)
	DisplayUpdateFrequency = 100
)

// Code View Context Constants
const (
	// CodeContextLinesBefore is the default number of cells to show before ip in the full source view
	CodeContextLinesBefore = 20

	// CodeContextLinesAfter is the default number of cells to show after ip in the full source view
	CodeContextLinesAfter = 80

	// CodeContextLinesBeforeCompact is the number of cells to show before ip in compact views
	CodeContextLinesBeforeCompact = 5

	// CodeContextLinesAfterCompact is the number of cells to show after ip in compact views
	CodeContextLinesAfterCompact = 10
)

// Memory Display Constants
const (
	// MemoryDisplayRows is the number of rows to show in the memory dump view
	MemoryDisplayRows = 16

	// MemoryDisplayColumns is the number of memory cells per row in the memory dump view
	MemoryDisplayColumns = 16
)

// RegisterViewRows is the fixed height of the state panel (ip, rb,
// step count + borders).
const RegisterViewRows = 6

