// Package ast defines the syntax tree produced by the parser. Trees are
// read-only once built and may be shared by several execution units.
package ast

import (
	"strconv"
	"strings"

	"github.com/rustyscript/rustyscript/pkg/lexer"
)

// Node is implemented by every tree node.
type Node interface {
	Pos() lexer.Position
}

// Stmt is a statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is an expression node.
type Expr interface {
	Node
	String() string
	exprNode()
}

// Program is the root: header, module imports and the top-level block.
type Program struct {
	Position lexer.Position
	Name     string
	Uses     []*Use
	Body     *Block
}

// Use imports one capability module.
type Use struct {
	Position lexer.Position
	Name     string
}

// Block is a begin ... end statement sequence.
type Block struct {
	Position lexer.Position
	Stmts    []Stmt
}

// WhileStmt re-evaluates Cond every time the loop head is reached.
type WhileStmt struct {
	Position lexer.Position
	Cond     Expr
	Body     *Block
}

// IfStmt evaluates Cond once.
type IfStmt struct {
	Position lexer.Position
	Cond     Expr
	Body     *Block
}

// CallStmt is an action call whose result is discarded.
type CallStmt struct {
	Call *CallExpr
}

func (p *Program) Pos() lexer.Position   { return p.Position }
func (u *Use) Pos() lexer.Position       { return u.Position }
func (b *Block) Pos() lexer.Position     { return b.Position }
func (w *WhileStmt) Pos() lexer.Position { return w.Position }
func (i *IfStmt) Pos() lexer.Position    { return i.Position }
func (c *CallStmt) Pos() lexer.Position  { return c.Call.Position }

func (*Block) stmtNode()     {}
func (*WhileStmt) stmtNode() {}
func (*IfStmt) stmtNode()    {}
func (*CallStmt) stmtNode()  {}

// Imports reports whether the program declares `use name`.
func (p *Program) Imports(name string) bool {
	for _, u := range p.Uses {
		if u.Name == name {
			return true
		}
	}
	return false
}

// IntLit is an integer literal.
type IntLit struct {
	Position lexer.Position
	Value    int64
}

// StringLit is a quoted string literal.
type StringLit struct {
	Position lexer.Position
	Value    string
}

// Ident reads a variable.
type Ident struct {
	Position lexer.Position
	Name     string
}

// CallExpr invokes module.action(args...).
type CallExpr struct {
	Position lexer.Position
	Module   string
	Action   string
	Args     []Expr
}

// UnaryExpr is a prefix operation; Op is lexer.Minus.
type UnaryExpr struct {
	Position lexer.Position
	Op       lexer.Kind
	X        Expr
}

// BinaryExpr is an infix arithmetic or comparison.
type BinaryExpr struct {
	Position lexer.Position
	Op       lexer.Kind
	Left     Expr
	Right    Expr
}

func (e *IntLit) Pos() lexer.Position     { return e.Position }
func (e *StringLit) Pos() lexer.Position  { return e.Position }
func (e *Ident) Pos() lexer.Position      { return e.Position }
func (e *CallExpr) Pos() lexer.Position   { return e.Position }
func (e *UnaryExpr) Pos() lexer.Position  { return e.Position }
func (e *BinaryExpr) Pos() lexer.Position { return e.Position }

func (*IntLit) exprNode()     {}
func (*StringLit) exprNode()  {}
func (*Ident) exprNode()      {}
func (*CallExpr) exprNode()   {}
func (*UnaryExpr) exprNode()  {}
func (*BinaryExpr) exprNode() {}

func (e *IntLit) String() string    { return strconv.FormatInt(e.Value, 10) }
func (e *StringLit) String() string { return "'" + e.Value + "'" }
func (e *Ident) String() string     { return e.Name }

func (e *CallExpr) String() string {
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		args[i] = a.String()
	}
	return e.Module + "." + e.Action + "(" + strings.Join(args, ", ") + ")"
}

func (e *UnaryExpr) String() string {
	return "-" + e.X.String()
}

func (e *BinaryExpr) String() string {
	return "(" + e.Left.String() + " " + opText(e.Op) + " " + e.Right.String() + ")"
}

func opText(k lexer.Kind) string {
	s := k.String()
	return strings.Trim(s, `"`)
}

// Calls returns the action calls of e in execution order: arguments before
// the call that consumes them, left operands before right ones.
func Calls(e Expr) []*CallExpr {
	var out []*CallExpr
	var walk func(Expr)
	walk = func(e Expr) {
		switch n := e.(type) {
		case *CallExpr:
			for _, a := range n.Args {
				walk(a)
			}
			out = append(out, n)
		case *UnaryExpr:
			walk(n.X)
		case *BinaryExpr:
			walk(n.Left)
			walk(n.Right)
		}
	}
	walk(e)
	return out
}

// Inspect visits every statement of b depth-first, in source order.
func Inspect(b *Block, fn func(Stmt)) {
	for _, s := range b.Stmts {
		fn(s)
		switch n := s.(type) {
		case *Block:
			Inspect(n, fn)
		case *WhileStmt:
			Inspect(n.Body, fn)
		case *IfStmt:
			Inspect(n.Body, fn)
		}
	}
}

// CallSites lists every action call of p in source order, including calls
// nested in arguments and conditions.
func CallSites(p *Program) []*CallExpr {
	var out []*CallExpr
	Inspect(p.Body, func(s Stmt) {
		switch n := s.(type) {
		case *CallStmt:
			out = append(out, Calls(n.Call)...)
		case *WhileStmt:
			out = append(out, Calls(n.Cond)...)
		case *IfStmt:
			out = append(out, Calls(n.Cond)...)
		}
	})
	return out
}
