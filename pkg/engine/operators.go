package engine

import (
	"github.com/kristofer/hybris/pkg/ast"
	"github.com/kristofer/hybris/pkg/frame"
	"github.com/kristofer/hybris/pkg/herror"
	"github.com/kristofer/hybris/pkg/value"
)

var binaryOps = map[string]value.OpKind{
	"+": value.OpAdd, "-": value.OpSub, "*": value.OpMul, "/": value.OpDiv, "%": value.OpMod,
	"&": value.OpBitAnd, "|": value.OpBitOr, "^": value.OpBitXor, "<<": value.OpShl, ">>": value.OpShr,
	"<": value.OpLt, "<=": value.OpLe, ">": value.OpGt, ">=": value.OpGe, "==": value.OpEq, "!=": value.OpNe,
}

func (e *Engine) evalBinary(scope *frame.Scope, f *frame.Frame, node *ast.Node) (value.Value, error) {
	left, err := e.Eval(scope, f, node.Children[0])
	if err != nil {
		return nil, err
	}
	if f.State().Kind != frame.None {
		return unit(), nil
	}
	right, err := e.Eval(scope, f, node.Children[1])
	if err != nil {
		return nil, err
	}
	if f.State().Kind != frame.None {
		return unit(), nil
	}
	op, ok := binaryOps[node.Op]
	if !ok {
		return nil, herror.New(herror.RuntimeError, "unknown binary operator %q", node.Op)
	}
	return value.Operator(op, left, right)
}

func (e *Engine) evalUnary(scope *frame.Scope, f *frame.Frame, node *ast.Node) (value.Value, error) {
	operand, err := e.Eval(scope, f, node.Children[0])
	if err != nil {
		return nil, err
	}
	if f.State().Kind != frame.None {
		return unit(), nil
	}
	switch node.Op {
	case "-":
		return value.Operator(value.OpSub, value.NewInteger(0), operand)
	case "!":
		return value.NewBool(!value.Truthy(operand)), nil
	case "~":
		i, err := value.ToInt(operand)
		if err != nil {
			return nil, err
		}
		return value.NewInteger(^i), nil
	default:
		return nil, herror.New(herror.RuntimeError, "unknown unary operator %q", node.Op)
	}
}

// evalAnd/evalOr short-circuit: the right operand is only evaluated when
// the left one doesn't already decide the result.
func (e *Engine) evalAnd(scope *frame.Scope, f *frame.Frame, node *ast.Node) (value.Value, error) {
	left, err := e.Eval(scope, f, node.Children[0])
	if err != nil {
		return nil, err
	}
	if f.State().Kind != frame.None {
		return unit(), nil
	}
	if !value.Truthy(left) {
		return value.NewBool(false), nil
	}
	right, err := e.Eval(scope, f, node.Children[1])
	if err != nil {
		return nil, err
	}
	if f.State().Kind != frame.None {
		return unit(), nil
	}
	return value.NewBool(value.Truthy(right)), nil
}

func (e *Engine) evalOr(scope *frame.Scope, f *frame.Frame, node *ast.Node) (value.Value, error) {
	left, err := e.Eval(scope, f, node.Children[0])
	if err != nil {
		return nil, err
	}
	if f.State().Kind != frame.None {
		return unit(), nil
	}
	if value.Truthy(left) {
		return value.NewBool(true), nil
	}
	right, err := e.Eval(scope, f, node.Children[1])
	if err != nil {
		return nil, err
	}
	if f.State().Kind != frame.None {
		return unit(), nil
	}
	return value.NewBool(value.Truthy(right)), nil
}
