// Package collectionmod is a representative native module exposing vector
// and map helpers, plus the `call(name, ...args)` reflection builtin, through
// the Module & Builtin Dispatch ABI.
package collectionmod

import (
	"github.com/kristofer/hybris/pkg/herror"
	"github.com/kristofer/hybris/pkg/module"
	"github.com/kristofer/hybris/pkg/value"
)

func vectorArg(v value.Value) (*value.Vector, error) {
	vec, ok := v.(*value.Vector)
	if !ok {
		return nil, herror.New(herror.TypeError, "expected a vector argument, got %s", v.Kind())
	}
	return vec, nil
}

func mapArg(v value.Value) (*value.Map, error) {
	m, ok := v.(*value.Map)
	if !ok {
		return nil, herror.New(herror.TypeError, "expected a map argument, got %s", v.Kind())
	}
	return m, nil
}

// Resolver looks up a user-declared function by name and invokes it with
// args, the hook the engine supplies so `call` can reach its function table
// without this package depending on pkg/engine.
type Resolver func(name string, args []value.Value) (value.Value, error)

// New builds the collection module: push, pop, len, contains, keys, and
// call (reflection, dispatched through resolve).
func New(resolve Resolver) *module.Module {
	m := module.NewModule("collection")

	m.Register(&module.Function{
		Name: "push",
		Fn: func(args []value.Value) (value.Value, error) {
			vec, err := vectorArg(args[0])
			if err != nil {
				return nil, err
			}
			vec.Push(args[1])
			return vec, nil
		},
		Sig: module.Signature{Arities: []module.Arity{{Count: 2, Types: []module.TypeSet{{value.KindVector}}}}},
	})

	m.Register(&module.Function{
		Name: "pop",
		Fn: func(args []value.Value) (value.Value, error) {
			vec, err := vectorArg(args[0])
			if err != nil {
				return nil, err
			}
			v, ok := vec.Pop()
			if !ok {
				return value.NewReference(nil), nil
			}
			return v, nil
		},
		Sig: module.Signature{Arities: []module.Arity{{Count: 1, Types: []module.TypeSet{{value.KindVector}}}}},
	})

	m.Register(&module.Function{
		Name: "len",
		Fn: func(args []value.Value) (value.Value, error) {
			return value.NewInteger(int64(value.GetSize(args[0]))), nil
		},
		Sig: module.Signature{Arities: []module.Arity{{Count: 1}}},
	})

	m.Register(&module.Function{
		Name: "contains",
		Fn: func(args []value.Value) (value.Value, error) {
			vec, err := vectorArg(args[0])
			if err != nil {
				return nil, err
			}
			idx, ok := vec.Contains(args[1])
			if !ok {
				return value.NewBool(false), nil
			}
			return value.NewInteger(int64(idx)), nil
		},
		Sig: module.Signature{Arities: []module.Arity{{Count: 2, Types: []module.TypeSet{{value.KindVector}}}}},
	})

	m.Register(&module.Function{
		Name: "keys",
		Fn: func(args []value.Value) (value.Value, error) {
			mp, err := mapArg(args[0])
			if err != nil {
				return nil, err
			}
			return value.NewVector(mp.Keys()...), nil
		},
		Sig: module.Signature{Arities: []module.Arity{{Count: 1, Types: []module.TypeSet{{value.KindMap}}}}},
	})

	m.Register(&module.Function{
		Name: "call",
		Fn: func(args []value.Value) (value.Value, error) {
			if len(args) == 0 {
				return nil, herror.New(herror.TypeError, "call: expected a function name argument")
			}
			name, ok := args[0].(*value.String)
			if !ok {
				return nil, herror.New(herror.TypeError, "call: function name must be a string, got %s", args[0].Kind())
			}
			if resolve == nil {
				return nil, herror.New(herror.NameError, "call: no function resolver installed")
			}
			return resolve(name.V, args[1:])
		},
		Sig: module.Signature{Arities: []module.Arity{{Count: module.AnyArity, Types: []module.TypeSet{{value.KindString}}}}},
	})

	return m
}
