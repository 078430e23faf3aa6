// Package lexer turns RustyScript source text into a lazy token stream.
// The regular rules are compiled by Participle; this package maps them onto
// the language's own token kinds and reports malformed input as *Error.
package lexer

import (
	"errors"
	"fmt"
	"strconv"

	plex "github.com/alecthomas/participle/v2/lexer"
)

// Rules are tried in order and the first match wins, so the "Open" rules
// only fire when their terminated counterpart did not match.
var definition = plex.MustSimple([]plex.SimpleRule{
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "LineComment", Pattern: `//[^\n]*`},
	{Name: "BlockComment", Pattern: `\{[^}]*\}`},
	{Name: "OpenComment", Pattern: `\{[^}]*`},
	{Name: "String", Pattern: `'[^'\n]*'`},
	{Name: "OpenString", Pattern: `'[^'\n]*`},
	{Name: "Keyword", Pattern: `(?:program|use|do|begin|end|while|if|then)\b`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Operator", Pattern: `<>|<=|>=|[=<>+\-]`},
	{Name: "Punct", Pattern: `[.,;()]`},
})

var symbols = definition.Symbols()

// Error is a lexical error: an unrecognised character or an unterminated
// string or comment.
type Error struct {
	Pos Position
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("lexical error at %s: %s", e.Pos, e.Msg)
}

// Lexer produces tokens on demand. It holds no state besides its cursor
// into the source, and Reset rewinds it to the beginning.
type Lexer struct {
	filename string
	source   string

	lex  plex.Lexer
	err  error
	done bool
}

// New creates a lexer over source. The filename only labels positions.
func New(filename, source string) *Lexer {
	l := &Lexer{filename: filename, source: source}
	l.Reset()
	return l
}

// Reset restarts the token stream from the first character.
func (l *Lexer) Reset() {
	l.err = nil
	l.done = false
	l.lex, l.err = definition.LexString(l.filename, l.source)
}

// Next returns the next token. After the end of input it keeps returning an
// EOF token; after an error it keeps returning that error.
func (l *Lexer) Next() (Token, error) {
	if l.err != nil {
		return Token{}, l.err
	}
	if l.done {
		return Token{Kind: EOF, Pos: l.endPos()}, nil
	}
	for {
		tok, err := l.lex.Next()
		if err != nil {
			l.err = l.convertError(err)
			return Token{}, l.err
		}
		if tok.EOF() {
			l.done = true
			return Token{Kind: EOF, Pos: position(tok.Pos)}, nil
		}
		pos := position(tok.Pos)
		switch tok.Type {
		case symbols["Whitespace"], symbols["LineComment"], symbols["BlockComment"]:
			continue
		case symbols["OpenComment"]:
			l.err = &Error{Pos: pos, Msg: "unterminated comment"}
			return Token{}, l.err
		case symbols["OpenString"]:
			l.err = &Error{Pos: pos, Msg: "unterminated string"}
			return Token{}, l.err
		case symbols["String"]:
			return Token{Kind: String, Text: tok.Value[1 : len(tok.Value)-1], Pos: pos}, nil
		case symbols["Keyword"]:
			return Token{Kind: keywords[tok.Value], Text: tok.Value, Pos: pos}, nil
		case symbols["Ident"]:
			return Token{Kind: Ident, Text: tok.Value, Pos: pos}, nil
		case symbols["Int"]:
			if _, err := strconv.ParseInt(tok.Value, 10, 64); err != nil {
				l.err = &Error{Pos: pos, Msg: fmt.Sprintf("integer literal %s out of range", tok.Value)}
				return Token{}, l.err
			}
			return Token{Kind: Int, Text: tok.Value, Pos: pos}, nil
		case symbols["Operator"], symbols["Punct"]:
			return Token{Kind: operators[tok.Value], Text: tok.Value, Pos: pos}, nil
		default:
			l.err = &Error{Pos: pos, Msg: fmt.Sprintf("unexpected %q", tok.Value)}
			return Token{}, l.err
		}
	}
}

// All drains the stream from the beginning.
func (l *Lexer) All() ([]Token, error) {
	l.Reset()
	var out []Token
	for {
		tok, err := l.Next()
		if err != nil {
			return out, err
		}
		out = append(out, tok)
		if tok.Kind == EOF {
			return out, nil
		}
	}
}

// convertError rewraps Participle's "invalid input text" failure as *Error.
func (l *Lexer) convertError(err error) error {
	var located interface {
		Position() plex.Position
		Message() string
	}
	if errors.As(err, &located) {
		pos := position(located.Position())
		msg := located.Message()
		if pos.Offset < len(l.source) {
			msg = fmt.Sprintf("unexpected character %q", l.source[pos.Offset])
		}
		return &Error{Pos: pos, Msg: msg}
	}
	return &Error{Pos: l.endPos(), Msg: err.Error()}
}

func (l *Lexer) endPos() Position {
	line, col := 1, 1
	for _, r := range l.source {
		if r == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return Position{Offset: len(l.source), Line: line, Column: col}
}

func position(p plex.Position) Position {
	return Position{Offset: p.Offset, Line: p.Line, Column: p.Column}
}
