package disasm

import "github.com/hollowvm/intcode/internal/ast"

// UniqueLabels returns an endless sequence of short, visually
// unambiguous labels: a..k, m..z (l is skipped -- it's too easily
// mistaken for 1), then a0..a9, b0..b9, ..., z0..z9, repeating in the
// same two-character pattern forever after.
func UniqueLabels() func() ast.Label {
	var singles []byte
	for c := byte('a'); c <= 'z'; c++ {
		if c == 'l' {
			continue
		}
		singles = append(singles, c)
	}

	i := 0 // index into singles, for the one-character phase
	di := 0
	dd := byte('0')

	return func() ast.Label {
		if i < len(singles) {
			name := string(singles[i])
			i++
			return ast.FixedLabel(name)
		}
		letter := singles[di%len(singles)]
		name := string([]byte{letter, dd})
		dd++
		if dd > '9' {
			dd = '0'
			di++
		}
		return ast.FixedLabel(name)
	}
}

// AssignLabels walks every slot in address order, and for each one
// that's the target of at least one mention, assigns (or reuses) a
// label and rewrites the referring parameters to carry it.
func AssignLabels(p *Program) {
	next := UniqueLabels()

	for addr := 0; addr < p.Len(); addr++ {
		slot := &p.Slots[addr]
		if len(slot.Mentions) == 0 {
			continue
		}

		switch slot.Mark.Kind {
		case MarkOpcode, MarkData, MarkNone:
			label := p.getOrSetLabel(addr, next)
			for _, m := range slot.Mentions {
				p.labelParam(m.Referrer, label, 0)
			}

		case MarkParam:
			thisOp, _ := p.instrAddr(addr)
			prevOp, prevOK := p.instrAddr(thisOp)

			// All referrers must share the same "preceding opcode"
			// context as thisOp -- including the case where neither
			// has one, i.e. they're both part of the program's very
			// first instruction.
			allInPrev := true
			for _, m := range slot.Mentions {
				refOp, refOK := p.instrAddr(m.Referrer)
				if refOK != prevOK || refOp != prevOp {
					allInPrev = false
					break
				}
			}

			var label ast.Label
			if allInPrev {
				label = ast.InstructionPointerLabel
			} else {
				label = p.getOrSetLabel(thisOp, next)
			}

			offset := int64(addr - thisOp)
			for _, m := range slot.Mentions {
				p.labelParam(m.Referrer, label, offset)
			}

		case MarkString:
			start := p.stringAddr(addr)
			label := p.getOrSetLabel(start, next)
			offset := int64(addr - start)
			for _, m := range slot.Mentions {
				p.labelParam(m.Referrer, label, offset)
			}
		}
	}
}
