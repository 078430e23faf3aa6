// Package interpreter runs one validated program for one agent, a tick at
// a time. The unit is an explicit state machine: Resume advances the AST
// cursor until an action consumes a tick, so the scheduler decides exactly
// how far every agent gets.
package interpreter

import (
	"fmt"

	"github.com/rustyscript/rustyscript/pkg/ast"
	"github.com/rustyscript/rustyscript/pkg/lexer"
	"github.com/rustyscript/rustyscript/pkg/modules"
	"github.com/rustyscript/rustyscript/pkg/types"
)

// State of a unit.
type State int

const (
	Running State = iota
	SuspendedInAction
	Completed
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case SuspendedInAction:
		return "suspended"
	case Completed:
		return "completed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// MaxFreeSteps bounds the control-flow transitions one Resume may make
// without reaching an action. Past it the unit spends an idle tick, so a
// loop that never calls an action still answers to the tick budget.
const MaxFreeSteps = 1024

// DefectError is a failure the static phases should have ruled out. It is
// fatal for the mission running the unit.
type DefectError struct {
	Pos lexer.Position
	Msg string
}

func (e *DefectError) Error() string {
	return fmt.Sprintf("runtime defect at %s: %s", e.Pos, e.Msg)
}

// frame is one level of the cursor stack: either a position inside a
// statement sequence or the head of a while loop.
type frame struct {
	block *ast.Block
	next  int
	loop  *ast.WhileStmt
}

type purpose int

const (
	forStmt purpose = iota
	forIf
	forWhile
)

// evaluation is an expression whose action calls are being run one by one
// before the expression itself is computed.
type evaluation struct {
	expr    ast.Expr
	purpose purpose
	ifStmt  *ast.IfStmt
	calls   []*ast.CallExpr
	next    int
	results map[*ast.CallExpr]types.Value
}

// Unit is the execution unit of one agent.
type Unit struct {
	prog *ast.Program
	reg  *modules.Registry
	host modules.Host

	state  State
	stack  []frame
	eval   *evaluation
	action modules.Action
	last   types.Value
	ticks  int
	err    error
}

// New binds prog to the agent behind host. prog must already have passed
// semantic.Check against reg.
func New(prog *ast.Program, reg *modules.Registry, host modules.Host) *Unit {
	return &Unit{
		prog:  prog,
		reg:   reg,
		host:  host,
		stack: []frame{{block: prog.Body}},
	}
}

// State reports where the unit is.
func (u *Unit) State() State { return u.state }

// Completed is true once the top-level block has finished.
func (u *Unit) Completed() bool { return u.state == Completed }

// Ticks counts the ticks consumed so far.
func (u *Unit) Ticks() int { return u.ticks }

// LastResult is the result of the most recently finished action, or nil.
func (u *Unit) LastResult() types.Value { return u.last }

// Resume advances the unit by one tick. It returns false, consuming no
// tick, only when it finds the program finished. A non-nil error is a
// *DefectError and leaves the unit completed.
func (u *Unit) Resume() (bool, error) {
	if u.err != nil {
		return false, u.err
	}
	if u.state == Completed {
		return false, nil
	}
	ticked, err := u.resume()
	if err != nil {
		u.err = err
		u.state = Completed
		u.action = nil
		return false, err
	}
	if ticked {
		u.ticks++
	}
	return ticked, nil
}

func (u *Unit) resume() (bool, error) {
	if u.state == SuspendedInAction {
		if u.action.Step() {
			return true, nil
		}
		u.finishAction()
	}
	for steps := 0; steps < MaxFreeSteps; steps++ {
		if u.eval != nil {
			ticked, err := u.advanceEval()
			if err != nil || ticked {
				return ticked, err
			}
			continue
		}
		if len(u.stack) == 0 {
			u.state = Completed
			return false, nil
		}
		if err := u.advanceCursor(); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (u *Unit) advanceCursor() error {
	top := &u.stack[len(u.stack)-1]
	if top.loop != nil {
		u.begin(top.loop.Cond, forWhile, nil)
		return nil
	}
	if top.next >= len(top.block.Stmts) {
		u.stack = u.stack[:len(u.stack)-1]
		return nil
	}
	stmt := top.block.Stmts[top.next]
	top.next++

	switch s := stmt.(type) {
	case *ast.Block:
		u.stack = append(u.stack, frame{block: s})
	case *ast.CallStmt:
		u.begin(s.Call, forStmt, nil)
	case *ast.WhileStmt:
		u.stack = append(u.stack, frame{loop: s})
	case *ast.IfStmt:
		u.begin(s.Cond, forIf, s)
	default:
		return &DefectError{Pos: stmt.Pos(), Msg: fmt.Sprintf("unknown statement %T", stmt)}
	}
	return nil
}

func (u *Unit) begin(e ast.Expr, p purpose, ifStmt *ast.IfStmt) {
	u.eval = &evaluation{
		expr:    e,
		purpose: p,
		ifStmt:  ifStmt,
		calls:   ast.Calls(e),
		results: make(map[*ast.CallExpr]types.Value),
	}
}

// advanceEval starts the next pending call, or computes the expression once
// all calls have results. It reports true when a tick was consumed.
func (u *Unit) advanceEval() (bool, error) {
	ev := u.eval
	if ev.next < len(ev.calls) {
		call := ev.calls[ev.next]
		spec, ok := u.reg.Lookup(call.Module, call.Action)
		if !ok {
			return false, &DefectError{Pos: call.Position, Msg: fmt.Sprintf("%s.%s is not registered", call.Module, call.Action)}
		}
		args := make([]types.Value, len(call.Args))
		for i, a := range call.Args {
			v, err := u.value(a, ev.results)
			if err != nil {
				return false, err
			}
			args[i] = v
		}
		u.action = spec.Start(u.host, args)
		u.state = SuspendedInAction
		if u.action.Step() {
			return true, nil
		}
		u.finishAction()
		return false, nil
	}

	v, err := u.value(ev.expr, ev.results)
	if err != nil {
		return false, err
	}
	u.eval = nil
	switch ev.purpose {
	case forIf:
		if types.Truthy(v) {
			u.stack = append(u.stack, frame{block: ev.ifStmt.Body})
		}
	case forWhile:
		loop := u.stack[len(u.stack)-1].loop
		if types.Truthy(v) {
			u.stack = append(u.stack, frame{block: loop.Body})
		} else {
			u.stack = u.stack[:len(u.stack)-1]
		}
	}
	return false, nil
}

func (u *Unit) finishAction() {
	ev := u.eval
	result := types.Int(u.action.Result())
	ev.results[ev.calls[ev.next]] = result
	ev.next++
	u.last = result
	u.action = nil
	u.state = Running
}

// value computes e. Every call inside e must already have a result.
func (u *Unit) value(e ast.Expr, results map[*ast.CallExpr]types.Value) (types.Value, error) {
	switch n := e.(type) {
	case *ast.IntLit:
		return types.Int(n.Value), nil
	case *ast.StringLit:
		return types.String(n.Value), nil
	case *ast.Ident:
		x, y := u.host.Position()
		switch n.Name {
		case "x":
			return types.Int(x), nil
		case "y":
			return types.Int(y), nil
		}
		return nil, &DefectError{Pos: n.Position, Msg: fmt.Sprintf("undeclared variable %q", n.Name)}
	case *ast.CallExpr:
		if v, ok := results[n]; ok {
			return v, nil
		}
		return nil, &DefectError{Pos: n.Position, Msg: fmt.Sprintf("%s used before it ran", n)}
	case *ast.UnaryExpr:
		x, err := u.value(n.X, results)
		if err != nil {
			return nil, err
		}
		if v, ok := negate(x); ok {
			return v, nil
		}
		return nil, &DefectError{Pos: n.Position, Msg: fmt.Sprintf("cannot negate %s", x.Type())}
	case *ast.BinaryExpr:
		l, err := u.value(n.Left, results)
		if err != nil {
			return nil, err
		}
		r, err := u.value(n.Right, results)
		if err != nil {
			return nil, err
		}
		op, ok := binaryOps[n.Op]
		if !ok {
			return nil, &DefectError{Pos: n.Position, Msg: fmt.Sprintf("unknown operator %s", n.Op)}
		}
		if v, ok := op(l, r); ok {
			return v, nil
		}
		return nil, &DefectError{Pos: n.Position, Msg: fmt.Sprintf("operator %s on %s and %s", n.Op, l.Type(), r.Type())}
	}
	return nil, &DefectError{Pos: e.Pos(), Msg: fmt.Sprintf("unknown expression %T", e)}
}
