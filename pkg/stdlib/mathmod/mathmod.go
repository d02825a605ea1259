// Package mathmod is a representative native module exposing floating-point
// math functions through the Module & Builtin Dispatch ABI, standing in for
// the full ~60-function standard library's math surface.
package mathmod

import (
	"math"

	"github.com/kristofer/hybris/pkg/herror"
	"github.com/kristofer/hybris/pkg/module"
	"github.com/kristofer/hybris/pkg/value"
)

// numericArg widens an Integer, Float, or Char argument to float64, the
// same coercion Operator uses for mixed-kind arithmetic.
func numericArg(v value.Value) (float64, error) {
	switch t := v.(type) {
	case *value.Integer:
		return float64(t.V), nil
	case *value.Float:
		return t.V, nil
	case *value.Char:
		return float64(t.V), nil
	default:
		return 0, herror.New(herror.TypeError, "expected a numeric argument, got %s", v.Kind())
	}
}

func unary(fn func(float64) float64) module.NativeFunc {
	return func(args []value.Value) (value.Value, error) {
		x, err := numericArg(args[0])
		if err != nil {
			return nil, err
		}
		return value.NewFloat(fn(x)), nil
	}
}

func numericSig() module.Signature {
	return module.Signature{Arities: []module.Arity{{Count: 1}}}
}

// New builds the math module: sqrt, pow, abs, floor, ceil, sin, cos, log,
// plus the constants pi and e installed at load time.
func New() *module.Module {
	m := module.NewModule("math")

	m.Register(&module.Function{Name: "sqrt", Fn: unary(math.Sqrt), Sig: numericSig()})
	m.Register(&module.Function{Name: "floor", Fn: unary(math.Floor), Sig: numericSig()})
	m.Register(&module.Function{Name: "ceil", Fn: unary(math.Ceil), Sig: numericSig()})
	m.Register(&module.Function{Name: "sin", Fn: unary(math.Sin), Sig: numericSig()})
	m.Register(&module.Function{Name: "cos", Fn: unary(math.Cos), Sig: numericSig()})
	m.Register(&module.Function{Name: "log", Fn: unary(math.Log), Sig: numericSig()})

	m.Register(&module.Function{
		Name: "abs",
		Fn: func(args []value.Value) (value.Value, error) {
			switch t := args[0].(type) {
			case *value.Integer:
				if t.V < 0 {
					return value.NewInteger(-t.V), nil
				}
				return value.NewInteger(t.V), nil
			case *value.Float:
				return value.NewFloat(math.Abs(t.V)), nil
			default:
				return nil, herror.New(herror.TypeError, "expected a numeric argument, got %s", args[0].Kind())
			}
		},
		Sig: numericSig(),
	})

	m.Register(&module.Function{
		Name: "pow",
		Fn: func(args []value.Value) (value.Value, error) {
			base, err := numericArg(args[0])
			if err != nil {
				return nil, err
			}
			exp, err := numericArg(args[1])
			if err != nil {
				return nil, err
			}
			return value.NewFloat(math.Pow(base, exp)), nil
		},
		Sig: module.Signature{Arities: []module.Arity{{Count: 2}}},
	})

	m.Init = func(register func(name string, v value.Value)) {
		register("pi", value.NewFloat(math.Pi))
		register("e", value.NewFloat(math.E))
	}

	return m
}
