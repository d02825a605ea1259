package engine

import (
	"github.com/kristofer/hybris/pkg/frame"
	"github.com/kristofer/hybris/pkg/herror"
	"github.com/kristofer/hybris/pkg/value"
)

// SpawnThread runs callee with args on a freshly registered scope, the hook
// threadmod's `create` builtin uses to give a thread body its own frame
// stack (per the Frame & Scope Manager's per-thread isolation) without
// pkg/stdlib depending on pkg/engine.
func (e *Engine) SpawnThread(callee value.Value, args []value.Value) (value.Value, error) {
	threadID := e.VM.Scopes.Register()
	defer e.VM.Scopes.Unregister(threadID)
	scope, _ := e.VM.Scopes.Lookup(threadID)
	root := frame.New("thread")
	if err := scope.Push(root); err != nil {
		return nil, err
	}
	v, err := e.invokeValue(scope, root, callee, args)
	if err == nil && root.Is(frame.Exception) {
		return nil, herror.New(herror.RuntimeError, "uncaught exception in thread: %s", value.ToString(root.StateValue()))
	}
	return v, err
}
