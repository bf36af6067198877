// Package ast defines the typed abstract syntax produced by the parser
// and consumed by the assembler, and produced again by the
// disassembler and consumed by the formatter.
package ast

import "github.com/hollowvm/intcode/internal/diag"

// Mode is a parameter addressing mode.
type Mode int

const (
	Positional Mode = iota
	Immediate
	Relative
)

func (m Mode) String() string {
	switch m {
	case Positional:
		return "positional"
	case Immediate:
		return "immediate"
	case Relative:
		return "relative"
	default:
		return "unknown"
	}
}

// LabelKind distinguishes the three kinds of label a parameter may refer
// to.
type LabelKind int

const (
	// Underscore is the `_` runtime-value placeholder.
	Underscore LabelKind = iota
	// InstructionPointer is `ip`, the address just after the enclosing
	// instruction.
	InstructionPointer
	// Fixed is a user-defined symbol.
	Fixed
)

// Label identifies what a label-shaped parameter refers to.
type Label struct {
	Kind LabelKind
	Name string // only meaningful when Kind == Fixed
}

func (l Label) String() string {
	switch l.Kind {
	case Underscore:
		return "_"
	case InstructionPointer:
		return "ip"
	default:
		return l.Name
	}
}

// UnderscoreLabel is the shared `_` label value.
var UnderscoreLabel = Label{Kind: Underscore}

// InstructionPointerLabel is the shared `ip` label value.
var InstructionPointerLabel = Label{Kind: InstructionPointer}

// FixedLabel returns a Label referring to a user-defined symbol.
func FixedLabel(name string) Label {
	return Label{Kind: Fixed, Name: name}
}

// ParamKind distinguishes the shapes a Param can take.
type ParamKind int

const (
	ParamNumber ParamKind = iota
	ParamLabel
)

// Param is a parameter in instruction position: either a bare number or a
// label reference, always carrying an addressing mode.
type Param struct {
	Kind   ParamKind
	Mode   Mode
	Number int64 // when Kind == ParamNumber
	Label  Label // when Kind == ParamLabel
	Offset int64 // when Kind == ParamLabel
	Span   diag.Span
}

// NumberParam constructs a numeric parameter.
func NumberParam(mode Mode, value int64, span diag.Span) Param {
	return Param{Kind: ParamNumber, Mode: mode, Number: value, Span: span}
}

// LabelParam constructs a label-reference parameter.
func LabelParam(mode Mode, label Label, offset int64, span diag.Span) Param {
	return Param{Kind: ParamLabel, Mode: mode, Label: label, Offset: offset, Span: span}
}

// DataKind distinguishes the shapes a DataParam can take: DB accepts
// numbers, label references, and string literals; instruction parameters
// accept only the first two.
type DataKind int

const (
	DataNumber DataKind = iota
	DataLabel
	DataString
)

// DataParam is a parameter in data (DB) position.
type DataParam struct {
	Kind   DataKind
	Number int64
	Label  Label
	Offset int64
	String []byte
	Span   diag.Span
}

// Opcode identifies an Intcode instruction, independent of its
// parameters.
type Opcode int

const (
	OpAdd Opcode = 1
	OpMul Opcode = 2
	OpIn  Opcode = 3
	OpOut Opcode = 4
	OpJNZ Opcode = 5
	OpJZ  Opcode = 6
	OpLT  Opcode = 7
	OpEQ  Opcode = 8
	OpARB Opcode = 9
	OpHLT Opcode = 99
)

// Arity returns the number of parameters the opcode takes, as used for
// emission and static disassembly.
func (op Opcode) Arity() int {
	switch op {
	case OpAdd, OpMul, OpLT, OpEQ:
		return 3
	case OpJNZ, OpJZ:
		return 2
	case OpIn, OpOut, OpARB:
		return 1
	case OpHLT:
		return 0
	default:
		return -1
	}
}

// Mnemonic returns the uppercase assembly mnemonic for the opcode.
func (op Opcode) Mnemonic() string {
	switch op {
	case OpAdd:
		return "ADD"
	case OpMul:
		return "MUL"
	case OpIn:
		return "IN"
	case OpOut:
		return "OUT"
	case OpJNZ:
		return "JNZ"
	case OpJZ:
		return "JZ"
	case OpLT:
		return "LT"
	case OpEQ:
		return "EQ"
	case OpARB:
		return "ARB"
	case OpHLT:
		return "HLT"
	default:
		return "???"
	}
}

// OpcodeFromValue maps a raw opcode value (the low two digits of an
// instruction word) to an Opcode, or false if it is unknown.
func OpcodeFromValue(value int64) (Opcode, bool) {
	switch Opcode(value) {
	case OpAdd, OpMul, OpIn, OpOut, OpJNZ, OpJZ, OpLT, OpEQ, OpARB, OpHLT:
		return Opcode(value), true
	default:
		return 0, false
	}
}

// InstrKind distinguishes the real Intcode opcodes from the DB
// pseudo-instruction and the disassembler's self-modifying-code marker.
type InstrKind int

const (
	InstrOp InstrKind = iota
	InstrData
	// InstrMutable is never produced by the parser: the disassembler
	// emits it for an address whose opcode mark conflicted across runs
	// or whose raw value didn't match the opcode it was executed as,
	// i.e. code that rewrites itself.
	InstrMutable
)

// Instr is an assembly instruction: either a real opcode with its fixed
// parameter list, a DB pseudo-instruction with a variable-length data
// parameter list, or a disassembler-only Mutable marker.
type Instr struct {
	Kind     InstrKind
	Opcode   Opcode      // when Kind == InstrOp
	Params   []Param     // when Kind == InstrOp
	Data     []DataParam // when Kind == InstrData
	RawValue int64       // when Kind == InstrMutable: the slot's raw value
	Mutable  []DataParam // when Kind == InstrMutable: its trailing raw words
	Span     diag.Span
}

// Stmt is one statement: an optional defining label plus its
// instruction.
type Stmt struct {
	Label     string // "" if absent
	LabelSpan diag.Span
	HasLabel  bool
	Instr     Instr
}

// Program is an ordered sequence of statements.
type Program struct {
	Stmts []Stmt
}
