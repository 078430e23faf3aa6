// Package parser builds a RustyScript syntax tree by recursive descent.
//
// Grammar:
//
//	program   = "program" Ident [";"] { use } block ["."] EOF
//	use       = "use" Ident { "," Ident } [";"]
//	block     = "begin" { statement [";"] } "end"
//	statement = call | while | if | block
//	while     = "while" expr "do" body
//	if        = "if" expr "then" body
//	body      = block | statement
//	expr      = sum [ relop sum ]
//	sum       = unary { ("+" | "-") unary }
//	unary     = "-" unary | primary
//	primary   = Int | String | call | Ident | "(" expr ")"
//	call      = Ident "." Ident "(" [ expr { "," expr } ] ")"
//
// Parsing stops at the first error.
package parser

import (
	"fmt"
	"strconv"

	"github.com/rustyscript/rustyscript/pkg/ast"
	"github.com/rustyscript/rustyscript/pkg/lexer"
)

// MaxDepth bounds how deeply statements and expressions may nest.
const MaxDepth = 256

// SyntaxError reports the first token that did not fit the grammar.
type SyntaxError struct {
	Pos      lexer.Position
	Expected string
	Found    lexer.Token
	Msg      string // set instead of Expected for structural limits
}

func (e *SyntaxError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("syntax error at %s: %s", e.Pos, e.Msg)
	}
	return fmt.Sprintf("syntax error at %s: expected %s, found %s", e.Pos, e.Expected, e.Found)
}

// Parser holds a two-token window over the lexer.
type Parser struct {
	lex     *lexer.Lexer
	cur     lexer.Token
	next    lexer.Token
	nextErr error

	stmtDepth int
	exprDepth int
}

// Parse compiles source into a Program. Errors are *lexer.Error or
// *SyntaxError.
func Parse(source string) (*ast.Program, error) {
	return ParseFile("", source)
}

// ParseFile is Parse with a filename for positions.
func ParseFile(filename, source string) (prog *ast.Program, err error) {
	p := &Parser{lex: lexer.New(filename, source)}
	defer func() {
		if r := recover(); r != nil {
			perr, ok := r.(parseError)
			if !ok {
				panic(r)
			}
			prog, err = nil, perr.err
		}
	}()
	p.advance()
	p.advance()
	return p.parseProgram(), nil
}

// parseError carries a failure out of the descent.
type parseError struct{ err error }

func (p *Parser) fail(err error) {
	panic(parseError{err})
}

// advance shifts the window. A lexical error in the lookahead is only
// raised once that token becomes current.
func (p *Parser) advance() {
	if p.nextErr != nil {
		p.fail(p.nextErr)
	}
	p.cur = p.next
	p.next, p.nextErr = p.lex.Next()
}

func (p *Parser) at(k lexer.Kind) bool { return p.cur.Kind == k }

func (p *Parser) accept(k lexer.Kind) bool {
	if p.at(k) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expect(k lexer.Kind) lexer.Token {
	if !p.at(k) {
		p.errorf(k.String())
	}
	tok := p.cur
	p.advance()
	return tok
}

func (p *Parser) errorf(expected string) {
	p.fail(&SyntaxError{Pos: p.cur.Pos, Expected: expected, Found: p.cur})
}

// enter guards one level of recursion; callers defer leave(depth).
func (p *Parser) enter(depth *int, what string) {
	*depth++
	if *depth > MaxDepth {
		p.fail(&SyntaxError{Pos: p.cur.Pos, Found: p.cur, Msg: what + " nested too deeply"})
	}
}

func leave(depth *int) { *depth-- }

func (p *Parser) parseProgram() *ast.Program {
	start := p.expect(lexer.Program)
	name := p.expect(lexer.Ident)
	p.accept(lexer.Semicolon)

	prog := &ast.Program{Position: start.Pos, Name: name.Text}
	for p.at(lexer.Use) {
		p.advance()
		for {
			mod := p.expect(lexer.Ident)
			prog.Uses = append(prog.Uses, &ast.Use{Position: mod.Pos, Name: mod.Text})
			if !p.accept(lexer.Comma) {
				break
			}
		}
		p.accept(lexer.Semicolon)
	}

	prog.Body = p.parseBlock()
	p.accept(lexer.Dot)
	p.expect(lexer.EOF)
	return prog
}

func (p *Parser) parseBlock() *ast.Block {
	start := p.expect(lexer.Begin)
	b := &ast.Block{Position: start.Pos}
	for !p.at(lexer.End) {
		b.Stmts = append(b.Stmts, p.parseStatement())
		p.accept(lexer.Semicolon)
	}
	p.advance()
	return b
}

func (p *Parser) parseStatement() ast.Stmt {
	p.enter(&p.stmtDepth, "statement")
	defer leave(&p.stmtDepth)
	switch p.cur.Kind {
	case lexer.Begin:
		return p.parseBlock()
	case lexer.While:
		start := p.cur
		p.advance()
		cond := p.parseExpr()
		p.expect(lexer.Do)
		return &ast.WhileStmt{Position: start.Pos, Cond: cond, Body: p.parseBody()}
	case lexer.If:
		start := p.cur
		p.advance()
		cond := p.parseExpr()
		p.expect(lexer.Then)
		return &ast.IfStmt{Position: start.Pos, Cond: cond, Body: p.parseBody()}
	case lexer.Ident:
		return &ast.CallStmt{Call: p.parseCall()}
	}
	p.errorf(`statement ("begin", "while", "if" or module.action(...))`)
	return nil
}

// parseBody wraps a lone statement into a block so loops and conditionals
// always own a statement sequence.
func (p *Parser) parseBody() *ast.Block {
	if p.at(lexer.Begin) {
		return p.parseBlock()
	}
	pos := p.cur.Pos
	return &ast.Block{Position: pos, Stmts: []ast.Stmt{p.parseStatement()}}
}

func (p *Parser) parseCall() *ast.CallExpr {
	mod := p.expect(lexer.Ident)
	p.expect(lexer.Dot)
	action := p.expect(lexer.Ident)
	p.expect(lexer.LParen)
	call := &ast.CallExpr{Position: mod.Pos, Module: mod.Text, Action: action.Text}
	if !p.at(lexer.RParen) {
		for {
			call.Args = append(call.Args, p.parseExpr())
			if !p.accept(lexer.Comma) {
				break
			}
		}
	}
	p.expect(lexer.RParen)
	return call
}

func isRelational(k lexer.Kind) bool {
	switch k {
	case lexer.Eq, lexer.NotEq, lexer.Less, lexer.Greater, lexer.LessEq, lexer.GreaterEq:
		return true
	}
	return false
}

func (p *Parser) parseExpr() ast.Expr {
	left := p.parseSum()
	if isRelational(p.cur.Kind) {
		op := p.cur
		p.advance()
		right := p.parseSum()
		return &ast.BinaryExpr{Position: op.Pos, Op: op.Kind, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseSum() ast.Expr {
	left := p.parseUnary()
	for p.at(lexer.Plus) || p.at(lexer.Minus) {
		op := p.cur
		p.advance()
		right := p.parseUnary()
		left = &ast.BinaryExpr{Position: op.Pos, Op: op.Kind, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseUnary() ast.Expr {
	p.enter(&p.exprDepth, "expression")
	defer leave(&p.exprDepth)
	if p.at(lexer.Minus) {
		op := p.cur
		p.advance()
		return &ast.UnaryExpr{Position: op.Pos, Op: op.Kind, X: p.parseUnary()}
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() ast.Expr {
	tok := p.cur
	switch tok.Kind {
	case lexer.Int:
		p.advance()
		v, err := strconv.ParseInt(tok.Text, 10, 64)
		if err != nil {
			p.fail(&lexer.Error{Pos: tok.Pos, Msg: err.Error()})
		}
		return &ast.IntLit{Position: tok.Pos, Value: v}
	case lexer.String:
		p.advance()
		return &ast.StringLit{Position: tok.Pos, Value: tok.Text}
	case lexer.Ident:
		if p.next.Kind == lexer.Dot {
			return p.parseCall()
		}
		p.advance()
		return &ast.Ident{Position: tok.Pos, Name: tok.Text}
	case lexer.LParen:
		p.advance()
		e := p.parseExpr()
		p.expect(lexer.RParen)
		return e
	}
	p.errorf("expression")
	return nil
}
