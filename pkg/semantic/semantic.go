// Package semantic validates a parsed program against a module registry
// before anything runs it.
package semantic

import (
	"fmt"

	"github.com/rustyscript/rustyscript/pkg/ast"
	"github.com/rustyscript/rustyscript/pkg/lexer"
	"github.com/rustyscript/rustyscript/pkg/modules"
	"github.com/rustyscript/rustyscript/pkg/types"
)

// Variables are the names a program may read; each is the agent's own
// coordinate.
var Variables = map[string]bool{
	"x": true,
	"y": true,
}

// Error identifies the offending node and the violated rule.
type Error struct {
	Pos lexer.Position
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("semantic error at %s: %s", e.Pos, e.Msg)
}

type checker struct {
	prog *ast.Program
	reg  *modules.Registry
}

// Check walks the whole program and returns the first violation, or nil.
func Check(prog *ast.Program, reg *modules.Registry) error {
	c := &checker{prog: prog, reg: reg}
	for _, u := range prog.Uses {
		if _, ok := reg.Module(u.Name); !ok {
			return &Error{Pos: u.Position, Msg: fmt.Sprintf("unknown module %q", u.Name)}
		}
	}
	return c.block(prog.Body)
}

func (c *checker) block(b *ast.Block) error {
	for _, s := range b.Stmts {
		if err := c.stmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (c *checker) stmt(s ast.Stmt) error {
	switch n := s.(type) {
	case *ast.Block:
		return c.block(n)
	case *ast.CallStmt:
		_, err := c.expr(n.Call)
		return err
	case *ast.WhileStmt:
		if err := c.cond(n.Cond); err != nil {
			return err
		}
		return c.block(n.Body)
	case *ast.IfStmt:
		if err := c.cond(n.Cond); err != nil {
			return err
		}
		return c.block(n.Body)
	}
	return &Error{Pos: s.Pos(), Msg: fmt.Sprintf("unsupported statement %T", s)}
}

func (c *checker) cond(e ast.Expr) error {
	typ, err := c.expr(e)
	if err != nil {
		return err
	}
	if typ != types.TypeInt {
		return &Error{Pos: e.Pos(), Msg: fmt.Sprintf("condition %s must be an integer, not %s", e, typ)}
	}
	return nil
}

// expr returns the static type of e.
func (c *checker) expr(e ast.Expr) (string, error) {
	switch n := e.(type) {
	case *ast.IntLit:
		return types.TypeInt, nil
	case *ast.StringLit:
		return types.TypeString, nil
	case *ast.Ident:
		if !Variables[n.Name] {
			return "", &Error{Pos: n.Position, Msg: fmt.Sprintf("undeclared variable %q", n.Name)}
		}
		return types.TypeInt, nil
	case *ast.CallExpr:
		return types.TypeInt, c.call(n)
	case *ast.UnaryExpr:
		typ, err := c.expr(n.X)
		if err != nil {
			return "", err
		}
		if typ != types.TypeInt {
			return "", &Error{Pos: n.Position, Msg: fmt.Sprintf("cannot negate %s", typ)}
		}
		return types.TypeInt, nil
	case *ast.BinaryExpr:
		return c.binary(n)
	}
	return "", &Error{Pos: e.Pos(), Msg: fmt.Sprintf("unsupported expression %T", e)}
}

func (c *checker) binary(n *ast.BinaryExpr) (string, error) {
	lt, err := c.expr(n.Left)
	if err != nil {
		return "", err
	}
	rt, err := c.expr(n.Right)
	if err != nil {
		return "", err
	}
	switch n.Op {
	case lexer.Eq, lexer.NotEq:
		if lt != rt {
			return "", &Error{Pos: n.Position, Msg: fmt.Sprintf("cannot compare %s with %s", lt, rt)}
		}
	default:
		if lt != types.TypeInt || rt != types.TypeInt {
			return "", &Error{Pos: n.Position, Msg: fmt.Sprintf("operator %s needs integers, got %s and %s", n.Op, lt, rt)}
		}
	}
	return types.TypeInt, nil
}

func (c *checker) call(n *ast.CallExpr) error {
	if !c.prog.Imports(n.Module) {
		return &Error{Pos: n.Position, Msg: fmt.Sprintf("%s: module %q is not imported", n, n.Module)}
	}
	mod, ok := c.reg.Module(n.Module)
	if !ok {
		return &Error{Pos: n.Position, Msg: fmt.Sprintf("%s: unknown module %q", n, n.Module)}
	}
	spec, ok := mod.Action(n.Action)
	if !ok {
		return &Error{Pos: n.Position, Msg: fmt.Sprintf("%s: module %q has no action %q", n, n.Module, n.Action)}
	}
	if !spec.Accepts(len(n.Args)) {
		return &Error{Pos: n.Position, Msg: fmt.Sprintf("%s: %s.%s takes %s, got %d", n, n.Module, n.Action, spec.ArityString(), len(n.Args))}
	}
	for _, a := range n.Args {
		if _, err := c.expr(a); err != nil {
			return err
		}
	}
	return nil
}
