package disasm

import "github.com/hollowvm/intcode/internal/ast"

// divisorFor is how many extra digits an opcode's arity leaves room
// for mode digits; `raw / divisorFor[arity]` must be zero for raw to
// be a plausible instruction word with no stray high digits.
var divisorFor = [...]int64{100, 1_000, 10_000, 100_000}

// tryMarkInstrAt attempts to interpret the unmarked slot at ptr as an
// instruction: its low two digits must be a known opcode, it must
// carry no mode digits beyond its arity, and every parameter slot it
// would claim must be unmarked with a valid mode digit. On success it
// marks the opcode and its parameters and returns how many slots it
// claimed; on failure it returns 0.
func tryMarkInstrAt(p *Program, ptr int) int {
	instr := p.Slots[ptr].Value
	op, ok := ast.OpcodeFromValue(instr % 100)
	if !ok {
		return 0
	}
	arity := op.Arity()
	if arity < 0 || arity > 3 {
		return 0
	}
	if instr/divisorFor[arity] != 0 {
		return 0
	}

	type pending struct {
		addr int
		mode ast.Mode
	}
	var modes []pending
	for i := 0; i < arity; i++ {
		addr := ptr + i + 1
		if addr >= p.Len() {
			return 0
		}
		if p.Slots[addr].Mark.Kind != MarkNone {
			return 0
		}
		mode, ok := modeFromValue(instr / divisorFor[i] % 10)
		if !ok {
			return 0
		}
		modes = append(modes, pending{addr: addr, mode: mode})
	}

	p.MarkOpcode(ptr, op)
	for _, m := range modes {
		p.MarkParam(m.addr, m.mode)
	}
	return arity + 1
}

func modeFromValue(v int64) (ast.Mode, bool) {
	switch v {
	case 0:
		return ast.Positional, true
	case 1:
		return ast.Immediate, true
	case 2:
		return ast.Relative, true
	default:
		return 0, false
	}
}

// isStringByte reports whether b belongs in a printable-text run:
// horizontal tab, LF, CR, or printable ASCII.
func isStringByte(v int64) bool {
	switch v {
	case 9, 10, 13:
		return true
	}
	return v >= 32 && v <= 126
}

// MarkStatic recognizes instructions and string/data runs in
// whatever the dynamic marker left unmarked. It also treats any slot
// mentioned for a Jump purpose as an instruction candidate, since a
// jump target that was never itself executed (e.g. an unreachable
// branch) is still very likely to be code. This pass is a heuristic
// with false positives -- callers should run the dynamic marker
// first, since its marks always take precedence (MarkOpcode/MarkParam
// are no-ops over an already-marked slot).
func MarkStatic(p *Program) {
	// A slot that was jumped to but never itself executed (e.g. an
	// unreachable branch the dynamic marker's runs didn't take) is a
	// strong instruction signal even though the plain left-to-right
	// walk below might otherwise swallow it as a preceding
	// instruction's parameter; try it first.
	for addr, slot := range p.Slots {
		if slot.Mark.Kind != MarkNone {
			continue
		}
		for _, m := range slot.Mentions {
			if m.Purpose == Jump {
				tryMarkInstrAt(p, addr)
				break
			}
		}
	}

	ptr := 0
	for ptr < p.Len() {
		if p.Slots[ptr].Mark.Kind != MarkNone {
			ptr++
			continue
		}
		if n := tryMarkInstrAt(p, ptr); n > 0 {
			ptr += n
			continue
		}
		ptr++
	}

	markStringRuns(p)
	markRemainingData(p)
}

func markStringRuns(p *Program) {
	i := 0
	for i < p.Len() {
		if p.Slots[i].Mark.Kind != MarkNone || !isStringByte(p.Slots[i].Value) {
			i++
			continue
		}
		j := i
		for j < p.Len() && p.Slots[j].Mark.Kind == MarkNone && isStringByte(p.Slots[j].Value) {
			j++
		}
		if j-i >= 2 {
			for k := i; k < j; k++ {
				p.Slots[k].Mark = Mark{Kind: MarkString}
			}
		}
		i = j
	}
}

// markRemainingData marks any slot that's unmarked but was read or
// written by a traced execution -- it's data, we just don't know its
// shape.
func markRemainingData(p *Program) {
	for i := range p.Slots {
		slot := &p.Slots[i]
		if slot.Mark.Kind != MarkNone {
			continue
		}
		for _, m := range slot.Mentions {
			if m.Purpose == Read || m.Purpose == Write {
				slot.Mark = Mark{Kind: MarkData}
				break
			}
		}
	}
}
