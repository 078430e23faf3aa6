package interpreter

import (
	"github.com/rustyscript/rustyscript/pkg/lexer"
	"github.com/rustyscript/rustyscript/pkg/types"
)

type binaryOp func(a, b types.Value) (types.Value, bool)

// binaryOps is the operator table. An op reports false when its operands
// have types the semantic analyzer should have rejected.
var binaryOps = map[lexer.Kind]binaryOp{
	lexer.Plus:      intOp(func(a, b types.Int) types.Int { return a + b }),
	lexer.Minus:     intOp(func(a, b types.Int) types.Int { return a - b }),
	lexer.Less:      intOp(func(a, b types.Int) types.Int { return types.Bool(a < b) }),
	lexer.Greater:   intOp(func(a, b types.Int) types.Int { return types.Bool(a > b) }),
	lexer.LessEq:    intOp(func(a, b types.Int) types.Int { return types.Bool(a <= b) }),
	lexer.GreaterEq: intOp(func(a, b types.Int) types.Int { return types.Bool(a >= b) }),
	lexer.Eq:        opEq,
	lexer.NotEq:     opNotEq,
}

func intOp(fn func(a, b types.Int) types.Int) binaryOp {
	return func(a, b types.Value) (types.Value, bool) {
		x, ok1 := a.(types.Int)
		y, ok2 := b.(types.Int)
		if !ok1 || !ok2 {
			return nil, false
		}
		return fn(x, y), true
	}
}

func opEq(a, b types.Value) (types.Value, bool) {
	if a.Type() != b.Type() {
		return nil, false
	}
	return types.Bool(a.Equal(b)), true
}

func opNotEq(a, b types.Value) (types.Value, bool) {
	v, ok := opEq(a, b)
	if !ok {
		return nil, false
	}
	return 1 - v.(types.Int), true
}

func negate(a types.Value) (types.Value, bool) {
	x, ok := a.(types.Int)
	if !ok {
		return nil, false
	}
	return -x, true
}
