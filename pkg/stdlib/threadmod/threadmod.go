// Package threadmod is a representative native module exposing thread
// create/join through the Module & Builtin Dispatch ABI, backed by
// golang.org/x/sync/errgroup for the join/wait semantics.
package threadmod

import (
	"golang.org/x/sync/errgroup"

	"github.com/kristofer/hybris/pkg/herror"
	"github.com/kristofer/hybris/pkg/module"
	"github.com/kristofer/hybris/pkg/value"
)

// Spawner runs callee with args on a scope of its own, the hook the engine
// supplies so a thread body can recurse through Engine.Eval without this
// package depending on pkg/engine.
type Spawner func(callee value.Value, args []value.Value) (value.Value, error)

// handle is the Go-side state behind a thread value.Handle: the errgroup
// running the thread body, plus the result it produced.
type handle struct {
	group  *errgroup.Group
	result value.Value
}

// New builds the thread module: create(fn, ...args) spawns fn on a new
// goroutine (and its own scope, via spawn) and returns a handle; join(h)
// blocks until that goroutine finishes and returns its result, re-raising
// any error the thread body left uncaught.
func New(spawn Spawner) *module.Module {
	m := module.NewModule("thread")

	m.Register(&module.Function{
		Name: "create",
		Fn: func(args []value.Value) (value.Value, error) {
			if len(args) == 0 {
				return nil, herror.New(herror.TypeError, "create: expected a callable first argument")
			}
			callee := args[0]
			threadArgs := append([]value.Value(nil), args[1:]...)

			var g errgroup.Group
			th := &handle{group: &g}
			g.Go(func() error {
				v, err := spawn(callee, threadArgs)
				if err != nil {
					return err
				}
				th.result = v
				return nil
			})
			return value.NewHandle(th), nil
		},
		Sig: module.Signature{Arities: []module.Arity{{Count: module.AnyArity}}},
	})

	m.Register(&module.Function{
		Name: "join",
		Fn: func(args []value.Value) (value.Value, error) {
			h, ok := args[0].(*value.Handle)
			if !ok {
				return nil, herror.New(herror.TypeError, "join: expected a thread handle, got %s", args[0].Kind())
			}
			th, ok := h.Ptr.(*handle)
			if !ok {
				return nil, herror.New(herror.TypeError, "join: handle does not wrap a thread")
			}
			if err := th.group.Wait(); err != nil {
				if herr, ok := err.(*herror.Error); ok {
					return nil, herr
				}
				return nil, herror.New(herror.RuntimeError, "thread failed: %v", err)
			}
			if th.result == nil {
				return value.NewReference(nil), nil
			}
			return th.result, nil
		},
		Sig: module.Signature{Arities: []module.Arity{{Count: 1, Types: []module.TypeSet{{value.KindHandle}}}}},
	})

	return m
}
