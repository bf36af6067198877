// Package parser turns a token stream into the typed AST defined by
// package ast, classifying identifiers as mnemonics or labels and
// recovering from per-statement errors so a single call reports every
// diagnostic in the source.
package parser

import (
	"strings"

	"github.com/hollowvm/intcode/internal/ast"
	"github.com/hollowvm/intcode/internal/diag"
	"github.com/hollowvm/intcode/internal/lexer"
)

// Parser consumes source text and produces an ast.Program plus a
// diag.List of accumulated errors and warnings.
type Parser struct {
	src  string
	lex  *lexer.Lexer
	cur  lexer.Token
	errs diag.List
}

// New returns a parser over src.
func New(src string) *Parser {
	p := &Parser{src: src, lex: lexer.New(src)}
	p.advance()
	return p
}

// Parse runs the parser to completion and returns the resulting
// program and accumulated diagnostics. The program is always
// returned, even when errors were recorded, so callers inspecting
// just the warnings can still see partial structure; Errors().HasErrors()
// tells the caller whether assembly should proceed.
func Parse(src string) (ast.Program, diag.List) {
	p := New(src)
	prog := p.parseProgram()
	return prog, p.errs
}

func (p *Parser) text(span diag.Span) string {
	return span.Slice(p.src)
}

// advance pulls the next significant token (comments and whitespace
// filtered, newlines kept) from the lexer. A lex-level failure is
// recorded as a parse error and the scan continues from where the
// lexer left off.
func (p *Parser) advance() {
	tok, err := p.lex.NextSignificant()
	if err != nil {
		p.errs.AddError(err.Message, err.Span)
		p.advance()
		return
	}
	p.cur = tok
}

// advanceCode is like advance but also skips blank lines, for
// positions in the grammar that explicitly allow them (after a
// label's colon, and between statements).
func (p *Parser) advanceCode() {
	tok, err := p.lex.NextCode()
	if err != nil {
		p.errs.AddError(err.Message, err.Span)
		p.advanceCode()
		return
	}
	p.cur = tok
}

func (p *Parser) at(k lexer.Kind) bool {
	return p.cur.Kind == k
}

// recover advances past the rest of the current statement: everything
// up to and including the next Newline, or to Eof. Used after
// reporting a per-statement error so the parser can resume with the
// next statement. Diagnostics recorded since errsBefore beyond the
// statement's first (e.g. an arity error that follows a lex error) are
// dropped, so a failed statement reports exactly one.
func (p *Parser) recover(errsBefore int) {
	for !p.at(lexer.Eof) && !p.at(lexer.Newline) {
		p.advance()
	}
	if len(p.errs.Errors) > errsBefore+1 {
		p.errs.Errors = p.errs.Errors[:errsBefore+1]
	}
	if p.at(lexer.Newline) {
		p.advance()
	}
}

// parseProgram implements: program = { NEWLINE } { stmt { NEWLINE } } EOF
func (p *Parser) parseProgram() ast.Program {
	var prog ast.Program
	for p.at(lexer.Newline) {
		p.advance()
	}
	for !p.at(lexer.Eof) {
		stmt, ok := p.parseStmt()
		if ok {
			prog.Stmts = append(prog.Stmts, stmt)
		}
		for p.at(lexer.Newline) {
			p.advance()
		}
	}
	return prog
}

// isMnemonicText reports whether text is all of 0-9 A-Z, the
// parser-level distinction between a Mnemonic and a Label (spec.md
// §4.3: "replaces a separate lexer token class").
func isMnemonicText(text string) bool {
	for i := 0; i < len(text); i++ {
		ch := text[i]
		if !(ch >= '0' && ch <= '9') && !(ch >= 'A' && ch <= 'Z') {
			return false
		}
	}
	return true
}

var reservedLabelMessage = map[string]string{
	"_":  "label is reserved to indicate a runtime value",
	"ip": "label is reserved to refer to the instruction pointer",
	"rb": "label is reserved to refer to the relative base",
}

// parseStmt implements: stmt = [ label ":" { NEWLINE } ] mnemonic [ params ]
// On error it reports exactly one diagnostic (the first encountered)
// and recovers to the next statement, returning ok=false.
func (p *Parser) parseStmt() (ast.Stmt, bool) {
	var stmt ast.Stmt
	errsBefore := len(p.errs.Errors)

	if p.at(lexer.Ident) {
		text := p.text(p.cur.Span)
		if !isMnemonicText(text) {
			// Could be "label:" or the bare start of an instruction
			// dispatch error; peeking at the lexer resolves it without
			// backtracking state beyond a byte offset.
			mark := p.lex.Pos()
			labelTok := p.cur
			next, lexErr := p.lex.NextSignificant()
			if lexErr == nil && next.Kind == lexer.Colon {
				if msg, reserved := reservedLabelMessage[text]; reserved {
					p.errs.AddError(msg, labelTok.Span)
					p.recover(errsBefore)
					return stmt, false
				}
				stmt.HasLabel = true
				stmt.Label = text
				stmt.LabelSpan = labelTok.Span
				p.advanceCode()
			} else {
				p.lex.Reset(mark)
				p.errs.AddError("expected a mnemonic, found an identifier", labelTok.Span)
				p.recover(errsBefore)
				return stmt, false
			}
		}
	}

	instr, ok := p.parseInstr()
	if !ok {
		p.recover(errsBefore)
		return stmt, false
	}
	stmt.Instr = instr
	if !p.at(lexer.Newline) && !p.at(lexer.Eof) {
		p.errs.AddError("expected end of statement", p.cur.Span)
		p.recover(errsBefore)
		return stmt, false
	}
	return stmt, true
}

var arity = map[string]int{
	"ADD": 3, "MUL": 3, "LT": 3, "EQ": 3,
	"JNZ": 2, "JZ": 2,
	"IN": 1, "OUT": 1, "ARB": 1,
	"HLT": 0,
}

var opcodeFor = map[string]ast.Opcode{
	"ADD": ast.OpAdd, "MUL": ast.OpMul, "LT": ast.OpLT, "EQ": ast.OpEQ,
	"JNZ": ast.OpJNZ, "JZ": ast.OpJZ,
	"IN": ast.OpIn, "OUT": ast.OpOut, "ARB": ast.OpARB,
	"HLT": ast.OpHLT,
}

// parseInstr implements mnemonic [ params ] dispatch, including the
// DB pseudo-instruction.
func (p *Parser) parseInstr() (ast.Instr, bool) {
	if !p.at(lexer.Ident) {
		p.errs.AddError("expected a mnemonic", p.cur.Span)
		return ast.Instr{}, false
	}
	mnemonicTok := p.cur
	text := p.text(mnemonicTok.Span)
	if !isMnemonicText(text) {
		p.errs.AddError("expected a mnemonic, found an identifier", mnemonicTok.Span)
		return ast.Instr{}, false
	}
	p.advance()

	if text == "DB" {
		data, ok := p.parseDataParams()
		if !ok {
			return ast.Instr{}, false
		}
		return ast.Instr{Kind: ast.InstrData, Data: data, Span: mnemonicTok.Span}, true
	}

	want, known := arity[text]
	if !known {
		p.errs.AddError("unknown operation mnemonic", mnemonicTok.Span)
		return ast.Instr{}, false
	}

	params, ok := p.parseParams()
	if !ok {
		return ast.Instr{}, false
	}
	if len(params) != want {
		p.errs.AddError(arityMessage(want, len(params)), mnemonicTok.Span)
		return ast.Instr{}, false
	}
	return ast.Instr{Kind: ast.InstrOp, Opcode: opcodeFor[text], Params: params, Span: mnemonicTok.Span}, true
}

func arityMessage(want, got int) string {
	var sb strings.Builder
	sb.WriteString("expected ")
	sb.WriteString(pluralCount(want))
	sb.WriteString(", found ")
	sb.WriteString(itoa(got))
	return sb.String()
}

func pluralCount(n int) string {
	if n == 1 {
		return "1 parameter"
	}
	return itoa(n) + " parameters"
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// parseParams implements: params = param { "," param }, stopping at
// the first Newline or Eof.
func (p *Parser) parseParams() ([]ast.Param, bool) {
	var params []ast.Param
	if p.at(lexer.Newline) || p.at(lexer.Eof) {
		return params, true
	}
	for {
		param, ok := p.parseParam()
		if !ok {
			return nil, false
		}
		params = append(params, param)
		if !p.at(lexer.Comma) {
			break
		}
		p.advance()
	}
	return params, true
}

// parseParam implements: param = ["#"] raw, restricted to the
// non-string raw forms legal in instruction-parameter position.
func (p *Parser) parseParam() (ast.Param, bool) {
	start := p.cur.Span
	immediate := false
	if p.at(lexer.Hash) {
		immediate = true
		p.advance()
	}

	if p.at(lexer.String) {
		p.errs.AddError("string parameter only allowed with DB", start.Include(p.cur.Span))
		return ast.Param{}, false
	}

	switch {
	case p.at(lexer.Minus) || p.at(lexer.Number):
		num, span, ok := p.parseSignedNumber()
		if !ok {
			return ast.Param{}, false
		}
		mode := ast.Positional
		if immediate {
			mode = ast.Immediate
		}
		return ast.NumberParam(mode, num, start.Include(span)), true

	case p.at(lexer.Ident):
		identTok := p.cur
		name := p.text(identTok.Span)
		p.advance()

		offset, offsetSpan, hasOffset := p.parseOptionalOffset()
		span := identTok.Span
		if hasOffset {
			span = span.Include(offsetSpan)
		}
		fullSpan := start.Include(span)

		if name == "rb" {
			if immediate {
				p.errs.AddError("both immediate and relative mode specified", fullSpan)
				return ast.Param{}, false
			}
			return ast.NumberParam(ast.Relative, offset, fullSpan), true
		}

		mode := ast.Positional
		if immediate {
			mode = ast.Immediate
		}
		label := labelFor(name)
		return ast.LabelParam(mode, label, offset, fullSpan), true

	default:
		if p.at(lexer.Eof) || p.at(lexer.Newline) {
			p.errs.AddError("expected a parameter, found end of input", p.cur.Span)
		} else {
			p.errs.AddError("expected a parameter", p.cur.Span)
		}
		return ast.Param{}, false
	}
}

func labelFor(name string) ast.Label {
	switch name {
	case "_":
		return ast.UnderscoreLabel
	case "ip":
		return ast.InstructionPointerLabel
	default:
		return ast.FixedLabel(name)
	}
}

// parseSignedNumber implements ["-"] NUMBER.
func (p *Parser) parseSignedNumber() (int64, diag.Span, bool) {
	negative := false
	start := p.cur.Span
	if p.at(lexer.Minus) {
		negative = true
		p.advance()
	}
	if !p.at(lexer.Number) {
		p.errs.AddError("expected a number", p.cur.Span)
		return 0, diag.Span{}, false
	}
	numTok := p.cur
	text := p.text(numTok.Span)
	p.advance()
	value, lerr := lexer.ParseInteger(text, numTok.Span, negative)
	if lerr != nil {
		p.errs.AddError(lerr.Message, lerr.Span)
		return 0, diag.Span{}, false
	}
	return value, start.Include(numTok.Span), true
}

// parseOptionalOffset implements [ ("+"|"-") NUMBER ], used after a
// label identifier.
func (p *Parser) parseOptionalOffset() (int64, diag.Span, bool) {
	if !p.at(lexer.Plus) && !p.at(lexer.Minus) {
		return 0, diag.Span{}, false
	}
	negative := p.at(lexer.Minus)
	signSpan := p.cur.Span
	p.advance()
	if !p.at(lexer.Number) {
		p.errs.AddError("expected a number", p.cur.Span)
		return 0, signSpan, true
	}
	numTok := p.cur
	text := p.text(numTok.Span)
	p.advance()
	value, lerr := lexer.ParseInteger(text, numTok.Span, negative)
	if lerr != nil {
		p.errs.AddError(lerr.Message, lerr.Span)
		return 0, signSpan.Include(numTok.Span), true
	}
	return value, signSpan.Include(numTok.Span), true
}

// parseDataParams implements the DB grammar: any number of
// comma-separated data-parameters, which additionally allow string
// literals and disallow mode prefixes.
func (p *Parser) parseDataParams() ([]ast.DataParam, bool) {
	var data []ast.DataParam
	if p.at(lexer.Newline) || p.at(lexer.Eof) {
		return data, true
	}
	for {
		dp, ok := p.parseDataParam()
		if !ok {
			return nil, false
		}
		data = append(data, dp)
		if !p.at(lexer.Comma) {
			break
		}
		p.advance()
	}
	return data, true
}

func (p *Parser) parseDataParam() (ast.DataParam, bool) {
	start := p.cur.Span

	if p.at(lexer.Hash) {
		p.errs.AddError("immediate mode not allowed with DB", p.cur.Span)
		return ast.DataParam{}, false
	}

	if p.at(lexer.String) {
		strTok := p.cur
		text := p.text(strTok.Span)
		p.advance()
		value, lerr := lexer.ParseString(text, strTok.Span)
		if lerr != nil {
			p.errs.AddError(lerr.Message, lerr.Span)
			return ast.DataParam{}, false
		}
		return ast.DataParam{Kind: ast.DataString, String: []byte(value), Span: strTok.Span}, true
	}

	switch {
	case p.at(lexer.Minus) || p.at(lexer.Number):
		num, span, ok := p.parseSignedNumber()
		if !ok {
			return ast.DataParam{}, false
		}
		return ast.DataParam{Kind: ast.DataNumber, Number: num, Span: start.Include(span)}, true

	case p.at(lexer.Ident):
		identTok := p.cur
		name := p.text(identTok.Span)
		p.advance()

		if name == "rb" {
			p.errs.AddError("relative mode not allowed with DB", identTok.Span)
			return ast.DataParam{}, false
		}

		offset, offsetSpan, hasOffset := p.parseOptionalOffset()
		span := identTok.Span
		if hasOffset {
			span = span.Include(offsetSpan)
		}
		return ast.DataParam{Kind: ast.DataLabel, Label: labelFor(name), Offset: offset, Span: span}, true

	default:
		if p.at(lexer.Eof) || p.at(lexer.Newline) {
			p.errs.AddError("expected a parameter, found end of input", p.cur.Span)
		} else {
			p.errs.AddError("expected a parameter", p.cur.Span)
		}
		return ast.DataParam{}, false
	}
}
