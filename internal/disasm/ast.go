package disasm

import (
	"github.com/hollowvm/intcode/internal/ast"
	"github.com/hollowvm/intcode/internal/diag"
)

// ToAST disassembles a raw intcode image into an assembly AST: it
// marks the program dynamically (one traced execution per Run),
// statically (pattern recognition over whatever's left), assigns
// labels to every mentioned address, and finally walks the marked
// slots into statements.
func ToAST(words []int64, runs []Run) (ast.Program, error) {
	p := NewProgram(words)
	if err := MarkDynamic(p, runs); err != nil {
		return ast.Program{}, err
	}
	MarkStatic(p)
	AssignLabels(p)
	return p.intoAST(), nil
}

// intoAST walks the marked program from address 0, building one
// statement per recognized instruction or data/string run. A
// Mutable-marked opcode consumes every immediately following
// Param-marked slot as its variable-length trailing words, since a
// self-modifying instruction's true arity isn't known ahead of time.
// A completely unmarked run of slots (no mark, no label) becomes a
// DB of raw numbers.
func (p *Program) intoAST() ast.Program {
	var stmts []ast.Stmt
	ptr := 0
	for ptr < p.Len() {
		slot := &p.Slots[ptr]

		switch slot.Mark.Kind {
		case MarkOpcode:
			if slot.Mark.Mutable {
				stmt, n := p.mutableStmt(ptr)
				stmts = append(stmts, stmt)
				ptr += n
				continue
			}
			stmt, n := p.opcodeStmt(ptr, slot.Mark.Opcode)
			stmts = append(stmts, stmt)
			ptr += n

		case MarkData:
			stmts = append(stmts, ast.Stmt{
				Label: labelName(slot.Label),
				HasLabel: slot.Label != nil,
				Instr: ast.Instr{
					Kind: ast.InstrData,
					Data: []ast.DataParam{{Kind: ast.DataNumber, Number: slot.Value}},
				},
			})
			ptr++

		case MarkString:
			start := ptr
			var b []byte
			for ptr < p.Len() && p.Slots[ptr].Mark.Kind == MarkString {
				b = append(b, byte(p.Slots[ptr].Value))
				ptr++
			}
			stmts = append(stmts, ast.Stmt{
				Label:    labelName(p.Slots[start].Label),
				HasLabel: p.Slots[start].Label != nil,
				Instr: ast.Instr{
					Kind: ast.InstrData,
					Data: []ast.DataParam{{Kind: ast.DataString, String: b}},
				},
			})

		case MarkParam:
			// A parameter slot reached directly (its owning opcode was
			// somehow skipped) -- treat as raw data, same as unmarked.
			stmts = append(stmts, p.rawDataStmt(ptr))
			ptr++

		default: // MarkNone
			stmt, n := p.rawRunStmt(ptr)
			stmts = append(stmts, stmt)
			ptr += n
		}
	}
	return ast.Program{Stmts: stmts}
}

func labelName(l *ast.Label) string {
	if l == nil {
		return ""
	}
	return l.Name
}

func (p *Program) opcodeStmt(ptr int, op ast.Opcode) (ast.Stmt, int) {
	arity := op.Arity()
	params := make([]ast.Param, arity)
	for i := 0; i < arity; i++ {
		addr := ptr + i + 1
		param, ok := p.GetParam(addr)
		if !ok {
			param = ast.NumberParam(ast.Positional, p.Slots[addr].Value, diag.Span{})
		}
		params[i] = param
	}
	slot := &p.Slots[ptr]
	stmt := ast.Stmt{
		Label:    labelName(slot.Label),
		HasLabel: slot.Label != nil,
		Instr: ast.Instr{
			Kind:   ast.InstrOp,
			Opcode: op,
			Params: params,
		},
	}
	return stmt, arity + 1
}

// mutableStmt collects every already-Param-marked slot immediately
// following a Mutable-marked opcode as its trailing words, stopping
// at the first slot that isn't a recognized parameter.
func (p *Program) mutableStmt(ptr int) (ast.Stmt, int) {
	slot := &p.Slots[ptr]
	var trailing []ast.DataParam
	n := 1
	for {
		addr := ptr + n
		param, ok := p.GetParam(addr)
		if !ok {
			break
		}
		trailing = append(trailing, dataParamFromParam(param))
		n++
	}
	stmt := ast.Stmt{
		Label:    labelName(slot.Label),
		HasLabel: slot.Label != nil,
		Instr: ast.Instr{
			Kind:     ast.InstrMutable,
			RawValue: slot.Value,
			Mutable:  trailing,
		},
	}
	return stmt, n
}

func dataParamFromParam(p ast.Param) ast.DataParam {
	switch p.Kind {
	case ast.ParamLabel:
		return ast.DataParam{Kind: ast.DataLabel, Label: p.Label, Offset: p.Offset}
	default:
		return ast.DataParam{Kind: ast.DataNumber, Number: p.Number}
	}
}

func (p *Program) rawDataStmt(ptr int) ast.Stmt {
	slot := &p.Slots[ptr]
	return ast.Stmt{
		Label:    labelName(slot.Label),
		HasLabel: slot.Label != nil,
		Instr: ast.Instr{
			Kind: ast.InstrData,
			Data: []ast.DataParam{{Kind: ast.DataNumber, Number: slot.Value}},
		},
	}
}

// rawRunStmt consumes a maximal run of completely unmarked, unlabeled
// slots starting at ptr as one DB of raw numbers; a labeled slot ends
// the run since it needs its own statement.
func (p *Program) rawRunStmt(ptr int) (ast.Stmt, int) {
	slot := &p.Slots[ptr]
	data := []ast.DataParam{{Kind: ast.DataNumber, Number: slot.Value}}
	n := 1
	for ptr+n < p.Len() {
		next := &p.Slots[ptr+n]
		if next.Mark.Kind != MarkNone || next.Label != nil {
			break
		}
		data = append(data, ast.DataParam{Kind: ast.DataNumber, Number: next.Value})
		n++
	}
	return ast.Stmt{
		Label:    labelName(slot.Label),
		HasLabel: slot.Label != nil,
		Instr: ast.Instr{
			Kind: ast.InstrData,
			Data: data,
		},
	}, n
}
