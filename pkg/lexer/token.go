package lexer

import "fmt"

// Kind identifies the class of a token.
type Kind int

const (
	EOF Kind = iota

	// Keywords
	Program
	Use
	Do
	Begin
	End
	While
	If
	Then

	// Literals and names
	Ident
	Int
	String

	// Punctuation
	Dot
	Comma
	Semicolon
	LParen
	RParen

	// Operators
	Eq
	NotEq
	Less
	Greater
	LessEq
	GreaterEq
	Plus
	Minus
)

var kindNames = [...]string{
	EOF:       "end of input",
	Program:   `"program"`,
	Use:       `"use"`,
	Do:        `"do"`,
	Begin:     `"begin"`,
	End:       `"end"`,
	While:     `"while"`,
	If:        `"if"`,
	Then:      `"then"`,
	Ident:     "identifier",
	Int:       "integer",
	String:    "string",
	Dot:       `"."`,
	Comma:     `","`,
	Semicolon: `";"`,
	LParen:    `"("`,
	RParen:    `")"`,
	Eq:        `"="`,
	NotEq:     `"<>"`,
	Less:      `"<"`,
	Greater:   `">"`,
	LessEq:    `"<="`,
	GreaterEq: `">="`,
	Plus:      `"+"`,
	Minus:     `"-"`,
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

var keywords = map[string]Kind{
	"program": Program,
	"use":     Use,
	"do":      Do,
	"begin":   Begin,
	"end":     End,
	"while":   While,
	"if":      If,
	"then":    Then,
}

var operators = map[string]Kind{
	".":  Dot,
	",":  Comma,
	";":  Semicolon,
	"(":  LParen,
	")":  RParen,
	"=":  Eq,
	"<>": NotEq,
	"<":  Less,
	">":  Greater,
	"<=": LessEq,
	">=": GreaterEq,
	"+":  Plus,
	"-":  Minus,
}

// Position is a location in the source text. Line and Column are 1-based.
type Position struct {
	Offset int
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Token is a single lexeme. Text holds the literal source text, except for
// strings where the surrounding quotes are removed.
type Token struct {
	Kind Kind
	Text string
	Pos  Position
}

func (t Token) String() string {
	switch t.Kind {
	case EOF:
		return "end of input"
	case Ident, Int:
		return fmt.Sprintf("%s %q", t.Kind, t.Text)
	case String:
		return fmt.Sprintf("string '%s'", t.Text)
	}
	return t.Kind.String()
}
