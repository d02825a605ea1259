// Package stringmod is a representative native module exposing a handful
// of strconv-ish string operations and regex matching through the Module &
// Builtin Dispatch ABI.
package stringmod

import (
	"strconv"
	"strings"

	"github.com/kristofer/hybris/pkg/herror"
	"github.com/kristofer/hybris/pkg/module"
	"github.com/kristofer/hybris/pkg/value"
)

func stringArg(v value.Value) (string, error) {
	s, ok := v.(*value.String)
	if !ok {
		return "", herror.New(herror.TypeError, "expected a string argument, got %s", v.Kind())
	}
	return s.V, nil
}

// New builds the string module: upper, lower, trim, split, to_i, to_f, and
// matches (regex, via value.RegexMatches).
func New() *module.Module {
	m := module.NewModule("string")

	m.Register(&module.Function{
		Name: "upper",
		Fn: func(args []value.Value) (value.Value, error) {
			s, err := stringArg(args[0])
			if err != nil {
				return nil, err
			}
			return value.NewString(strings.ToUpper(s)), nil
		},
		Sig: module.Signature{Arities: []module.Arity{{Count: 1, Types: []module.TypeSet{{value.KindString}}}}},
	})

	m.Register(&module.Function{
		Name: "lower",
		Fn: func(args []value.Value) (value.Value, error) {
			s, err := stringArg(args[0])
			if err != nil {
				return nil, err
			}
			return value.NewString(strings.ToLower(s)), nil
		},
		Sig: module.Signature{Arities: []module.Arity{{Count: 1, Types: []module.TypeSet{{value.KindString}}}}},
	})

	m.Register(&module.Function{
		Name: "trim",
		Fn: func(args []value.Value) (value.Value, error) {
			s, err := stringArg(args[0])
			if err != nil {
				return nil, err
			}
			return value.NewString(strings.TrimSpace(s)), nil
		},
		Sig: module.Signature{Arities: []module.Arity{{Count: 1, Types: []module.TypeSet{{value.KindString}}}}},
	})

	m.Register(&module.Function{
		Name: "split",
		Fn: func(args []value.Value) (value.Value, error) {
			s, err := stringArg(args[0])
			if err != nil {
				return nil, err
			}
			sep, err := stringArg(args[1])
			if err != nil {
				return nil, err
			}
			parts := strings.Split(s, sep)
			items := make([]value.Value, len(parts))
			for i, p := range parts {
				items[i] = value.NewString(p)
			}
			return value.NewVector(items...), nil
		},
		Sig: module.Signature{Arities: []module.Arity{{Count: 2, Types: []module.TypeSet{{value.KindString}, {value.KindString}}}}},
	})

	m.Register(&module.Function{
		Name: "to_i",
		Fn: func(args []value.Value) (value.Value, error) {
			n, err := value.ToInt(args[0])
			if err != nil {
				return nil, err
			}
			return value.NewInteger(n), nil
		},
		Sig: module.Signature{Arities: []module.Arity{{Count: 1}}},
	})

	m.Register(&module.Function{
		Name: "to_f",
		Fn: func(args []value.Value) (value.Value, error) {
			s, err := stringArg(args[0])
			if err != nil {
				return nil, err
			}
			f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return nil, herror.New(herror.TypeError, "cannot convert %q to a float", s)
			}
			return value.NewFloat(f), nil
		},
		Sig: module.Signature{Arities: []module.Arity{{Count: 1, Types: []module.TypeSet{{value.KindString}}}}},
	})

	m.Register(&module.Function{
		Name: "matches",
		Fn: func(args []value.Value) (value.Value, error) {
			pattern, err := stringArg(args[0])
			if err != nil {
				return nil, err
			}
			subject, err := stringArg(args[1])
			if err != nil {
				return nil, err
			}
			ok, err := value.RegexMatches(pattern, subject)
			if err != nil {
				return nil, err
			}
			return value.NewBool(ok), nil
		},
		Sig: module.Signature{Arities: []module.Arity{{Count: 2, Types: []module.TypeSet{{value.KindString}, {value.KindString}}}}},
	})

	return m
}
