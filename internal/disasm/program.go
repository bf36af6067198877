// Package disasm recovers an assembly-like AST from raw intcode words.
// It builds a program image -- one slot per word -- and progressively
// classifies each slot by running the dynamic marker (trace a real
// execution), then the static marker (pattern recognition over
// whatever is left unmarked), then assigns symbolic labels to every
// address another slot refers to.
package disasm

import (
	"github.com/hollowvm/intcode/internal/ast"
	"github.com/hollowvm/intcode/internal/diag"
)

// Purpose records why a parameter referred to an address, so the
// labeler and package xref's cross-reference report can distinguish a
// jump target from a plain read or write.
type Purpose int

const (
	Read Purpose = iota
	Write
	Jump
)

func (p Purpose) String() string {
	switch p {
	case Read:
		return "read"
	case Write:
		return "write"
	case Jump:
		return "jump"
	default:
		return "unknown"
	}
}

// Mention records that the slot at Referrer's address resolved a
// parameter to the address it's attached to.
type Mention struct {
	Purpose  Purpose
	Referrer int
}

// MarkKind distinguishes what, if anything, is known about a slot.
type MarkKind int

const (
	MarkNone MarkKind = iota
	MarkOpcode
	MarkParam
	MarkData
	MarkString
)

// Mark is the classification attached to one slot. Only the fields
// relevant to Kind are meaningful.
type Mark struct {
	Kind    MarkKind
	Opcode  ast.Opcode // MarkOpcode
	Mutable bool       // MarkOpcode: conflicting executions, or raw/opcode mismatch
	Param   ast.Param  // MarkParam
}

// Slot is one memory word during disassembly analysis.
type Slot struct {
	Value    int64
	Mark     Mark
	Label    *ast.Label
	Mentions []Mention
}

// Program is an intcode image under analysis.
type Program struct {
	Slots []Slot
}

// NewProgram wraps a raw intcode image for marking.
func NewProgram(words []int64) *Program {
	slots := make([]Slot, len(words))
	for i, w := range words {
		slots[i] = Slot{Value: w}
	}
	return &Program{Slots: slots}
}

// Original returns the program's unmarked starting memory, used to
// reset between dynamic-marker runs.
func (p *Program) Original() []int64 {
	out := make([]int64, len(p.Slots))
	for i, s := range p.Slots {
		out[i] = s.Value
	}
	return out
}

func (p *Program) Len() int {
	return len(p.Slots)
}

// MarkOpcode records that the slot at addr was executed as op. A
// conflicting mark (a different opcode seen on a later run, or a raw
// value whose low two digits don't match op) collapses to Mutable
// rather than erroring, since self-modifying code is legal intcode.
func (p *Program) MarkOpcode(addr int, op ast.Opcode) {
	slot := &p.Slots[addr]
	switch slot.Mark.Kind {
	case MarkOpcode:
		if slot.Mark.Opcode != op {
			slot.Mark.Mutable = true
		}
	case MarkNone:
		mutable := slot.Value%100 != int64(op)
		slot.Mark = Mark{Kind: MarkOpcode, Opcode: op, Mutable: mutable}
	default:
		// Already classified as something else entirely; leave it --
		// this only happens if a caller marks out of order.
	}
}

// MarkParam records that the slot at addr was read as a parameter
// with the given mode. Re-marking with the same mode is a no-op.
func (p *Program) MarkParam(addr int, mode ast.Mode) {
	slot := &p.Slots[addr]
	if slot.Mark.Kind == MarkParam {
		return
	}
	if slot.Mark.Kind != MarkNone {
		return
	}
	slot.Mark = Mark{Kind: MarkParam, Param: ast.NumberParam(mode, slot.Value, diag.Span{})}
}

// GetParam returns the slot's Param mark, if it has one.
func (p *Program) GetParam(addr int) (ast.Param, bool) {
	if addr < 0 || addr >= len(p.Slots) {
		return ast.Param{}, false
	}
	slot := &p.Slots[addr]
	if slot.Mark.Kind != MarkParam {
		return ast.Param{}, false
	}
	return slot.Mark.Param, true
}

// Mention records that the parameter at referrer resolved to addr for
// the given purpose. Self-mentions (immediate mode, whose resolved
// address is the parameter slot itself) carry no "points to"
// relationship and are not recorded.
func (p *Program) Mention(addr int, purpose Purpose, referrer int) {
	if addr == referrer {
		return
	}
	if addr < 0 || addr >= len(p.Slots) {
		return
	}
	p.Slots[addr].Mentions = append(p.Slots[addr].Mentions, Mention{Purpose: purpose, Referrer: referrer})
}

// labelParam upgrades an already-marked Param slot to carry a label
// reference instead of a bare number.
func (p *Program) labelParam(addr int, label ast.Label, offset int64) {
	slot := &p.Slots[addr]
	mode := slot.Mark.Param.Mode
	slot.Mark.Param = ast.LabelParam(mode, label, offset, diag.Span{})
}

// getOrSetLabel returns the slot's existing label, assigning a fresh
// one from next if it doesn't have one yet.
func (p *Program) getOrSetLabel(addr int, next func() ast.Label) ast.Label {
	slot := &p.Slots[addr]
	if slot.Label == nil {
		l := next()
		slot.Label = &l
	}
	return *slot.Label
}

// instrAddr walks backward from addr (exclusive) to the nearest
// preceding opcode-marked slot.
func (p *Program) instrAddr(addr int) (int, bool) {
	for addr > 0 {
		addr--
		if p.Slots[addr].Mark.Kind == MarkOpcode {
			return addr, true
		}
	}
	return 0, false
}

// stringAddr walks backward from addr to the start of its String run.
func (p *Program) stringAddr(addr int) int {
	for addr > 0 && p.Slots[addr-1].Mark.Kind == MarkString {
		addr--
	}
	return addr
}
