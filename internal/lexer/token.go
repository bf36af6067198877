package lexer

import "fmt"

// Kind identifies the lexical class of a token.
type Kind int

const (
	Colon Kind = iota
	Comma
	Hash
	Plus
	Minus
	Newline
	Whitespace
	Ident
	Number
	String
	Comment
	Eof
)

var kindNames = map[Kind]string{
	Colon:      "COLON",
	Comma:      "COMMA",
	Hash:       "HASH",
	Plus:       "PLUS",
	Minus:      "MINUS",
	Newline:    "NEWLINE",
	Whitespace: "WHITESPACE",
	Ident:      "IDENT",
	Number:     "NUMBER",
	String:     "STRING",
	Comment:    "COMMENT",
	Eof:        "EOF",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", k)
}
