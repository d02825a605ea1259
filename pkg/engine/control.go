package engine

import (
	"github.com/kristofer/hybris/pkg/ast"
	"github.com/kristofer/hybris/pkg/frame"
	"github.com/kristofer/hybris/pkg/value"
)

// loopOutcome runs one loop body and reports how the enclosing loop should
// react: continue iterating, stop iterating (break/return/exception all
// stop the Go-level for loop; the difference is only in whether state is
// cleared before returning to the caller).
type loopOutcome int

const (
	loopContinue loopOutcome = iota
	loopBreak
	loopPropagate // Return or Exception: stop, and leave state set for the caller
)

func (e *Engine) runLoopBody(scope *frame.Scope, f *frame.Frame, body *ast.Node) (value.Value, loopOutcome, error) {
	v, err := e.Eval(scope, f, body)
	if err != nil {
		return nil, loopPropagate, err
	}
	switch f.State().Kind {
	case frame.Break:
		f.UnsetState()
		return v, loopBreak, nil
	case frame.Next:
		f.UnsetState()
		return v, loopContinue, nil
	case frame.Return, frame.Exception:
		return v, loopPropagate, nil
	default:
		return v, loopContinue, nil
	}
}

func (e *Engine) evalIf(scope *frame.Scope, f *frame.Frame, node *ast.Node, negate bool) (value.Value, error) {
	cond, err := e.Eval(scope, f, node.Children[0])
	if err != nil {
		return nil, err
	}
	if f.State().Kind != frame.None {
		return unit(), nil
	}
	truth := value.Truthy(cond)
	if negate {
		truth = !truth
	}
	if truth {
		return e.Eval(scope, f, node.Children[1])
	}
	if len(node.Children) > 2 {
		return e.Eval(scope, f, node.Children[2])
	}
	return unit(), nil
}

func (e *Engine) evalWhile(scope *frame.Scope, f *frame.Frame, node *ast.Node) (value.Value, error) {
	cond, body := node.Children[0], node.Children[1]
	last := unit()
	for {
		c, err := e.Eval(scope, f, cond)
		if err != nil {
			return nil, err
		}
		if f.State().Kind != frame.None || !value.Truthy(c) {
			break
		}
		v, outcome, err := e.runLoopBody(scope, f, body)
		if err != nil {
			return nil, err
		}
		last = v
		if outcome == loopBreak {
			break
		}
		if outcome == loopPropagate {
			return last, nil
		}
	}
	return last, nil
}

func (e *Engine) evalDoWhile(scope *frame.Scope, f *frame.Frame, node *ast.Node) (value.Value, error) {
	body, cond := node.Children[0], node.Children[1]
	last := unit()
	for {
		v, outcome, err := e.runLoopBody(scope, f, body)
		if err != nil {
			return nil, err
		}
		last = v
		if outcome == loopBreak {
			break
		}
		if outcome == loopPropagate {
			return last, nil
		}
		c, err := e.Eval(scope, f, cond)
		if err != nil {
			return nil, err
		}
		if f.State().Kind != frame.None || !value.Truthy(c) {
			break
		}
	}
	return last, nil
}

func (e *Engine) evalFor(scope *frame.Scope, f *frame.Frame, node *ast.Node) (value.Value, error) {
	init, cond, post, body := node.Children[0], node.Children[1], node.Children[2], node.Children[3]
	if _, err := e.Eval(scope, f, init); err != nil {
		return nil, err
	}
	if f.State().Kind != frame.None {
		return unit(), nil
	}
	last := unit()
	for {
		c, err := e.Eval(scope, f, cond)
		if err != nil {
			return nil, err
		}
		if f.State().Kind != frame.None || !value.Truthy(c) {
			break
		}
		v, outcome, err := e.runLoopBody(scope, f, body)
		if err != nil {
			return nil, err
		}
		last = v
		if outcome == loopBreak {
			break
		}
		if outcome == loopPropagate {
			return last, nil
		}
		if _, err := e.Eval(scope, f, post); err != nil {
			return nil, err
		}
		if f.State().Kind != frame.None {
			break
		}
	}
	return last, nil
}

// iterableElements enumerates the values of any collection foreach can
// walk: Vector items, Map values, Matrix cells, String chars, Binary
// bytes.
func iterableElements(v value.Value) []value.Value {
	switch t := v.(type) {
	case *value.Vector:
		return t.Items
	case *value.Map:
		out := make([]value.Value, 0, t.Len())
		for _, k := range t.Keys() {
			val, _ := t.At(k)
			out = append(out, val)
		}
		return out
	case *value.Matrix:
		out := make([]value.Value, len(t.Items))
		copy(out, t.Items)
		return out
	case *value.String:
		out := make([]value.Value, len(t.V))
		for i := 0; i < len(t.V); i++ {
			out[i] = value.NewChar(t.V[i])
		}
		return out
	case *value.Binary:
		out := make([]value.Value, len(t.V))
		for i, b := range t.V {
			out[i] = value.NewChar(b)
		}
		return out
	default:
		return nil
	}
}

func (e *Engine) evalForeach(scope *frame.Scope, f *frame.Frame, node *ast.Node) (value.Value, error) {
	iterable, err := e.Eval(scope, f, node.Children[0])
	if err != nil {
		return nil, err
	}
	if f.State().Kind != frame.None {
		return unit(), nil
	}
	f.PushTmp(iterable)
	defer f.RemoveTmp(iterable)
	last := unit()
	for _, item := range iterableElements(iterable) {
		f.Insert(node.Identifier, item)
		v, outcome, err := e.runLoopBody(scope, f, node.Children[1])
		if err != nil {
			return nil, err
		}
		last = v
		if outcome == loopBreak {
			break
		}
		if outcome == loopPropagate {
			return last, nil
		}
	}
	return last, nil
}

func (e *Engine) evalForeachMapping(scope *frame.Scope, f *frame.Frame, node *ast.Node) (value.Value, error) {
	iterable, err := e.Eval(scope, f, node.Children[0])
	if err != nil {
		return nil, err
	}
	if f.State().Kind != frame.None {
		return unit(), nil
	}
	m, ok := iterable.(*value.Map)
	if !ok {
		return unit(), nil
	}
	f.PushTmp(iterable)
	defer f.RemoveTmp(iterable)
	keyName, valName := node.ExplodeVars[0], node.ExplodeVars[1]
	last := unit()
	for _, k := range m.Keys() {
		val, _ := m.At(k)
		f.Insert(keyName, k)
		f.Insert(valName, val)
		v, outcome, err := e.runLoopBody(scope, f, node.Children[1])
		if err != nil {
			return nil, err
		}
		last = v
		if outcome == loopBreak {
			break
		}
		if outcome == loopPropagate {
			return last, nil
		}
	}
	return last, nil
}

// evalSwitch runs the first case whose evaluated target compares equal to
// the switch target; a nil Target marks the default arm. No fallthrough:
// exactly one arm's body runs.
func (e *Engine) evalSwitch(scope *frame.Scope, f *frame.Frame, node *ast.Node) (value.Value, error) {
	target, err := e.Eval(scope, f, node.Children[0])
	if err != nil {
		return nil, err
	}
	if f.State().Kind != frame.None {
		return unit(), nil
	}

	var defaultCase *ast.SwitchCase
	for i := range node.Cases {
		c := &node.Cases[i]
		if c.Target == nil {
			defaultCase = c
			continue
		}
		cv, err := e.Eval(scope, f, c.Target)
		if err != nil {
			return nil, err
		}
		if cmp, ok := value.Cmp(target, cv); ok && cmp == 0 {
			return e.Eval(scope, f, c.Body)
		}
	}
	if defaultCase != nil {
		return e.Eval(scope, f, defaultCase.Body)
	}
	return unit(), nil
}

func (e *Engine) evalReturn(scope *frame.Scope, f *frame.Frame, node *ast.Node) (value.Value, error) {
	v := unit()
	if len(node.Children) > 0 {
		var err error
		v, err = e.Eval(scope, f, node.Children[0])
		if err != nil {
			return nil, err
		}
		if f.State().Kind != frame.None {
			return unit(), nil
		}
	}
	f.SetState(frame.Return, v)
	return v, nil
}

// evalThrow raises a user-level exception carrying the raw evaluated
// value (a string, a boxed Structure, anything) rather than forcing it
// through herror — only host-raised faults get boxed via vm.Raise.
func (e *Engine) evalThrow(scope *frame.Scope, f *frame.Frame, node *ast.Node) (value.Value, error) {
	v, err := e.Eval(scope, f, node.Children[0])
	if err != nil {
		return nil, err
	}
	if f.State().Kind != frame.None {
		return unit(), nil
	}
	// v becomes the frame's state value here, which RootValues reports to
	// the collector directly; it stays rooted even once it is no longer
	// bound to any name or tmp slot.
	f.SetState(frame.Exception, v)
	return v, nil
}

// evalTry runs the protected block, routes an Exception state into the
// catch body if present, then always runs finally — restoring whatever
// state (Return/Exception/Break/Next) was pending before finally ran,
// unless finally itself produces a new one.
func (e *Engine) evalTry(scope *frame.Scope, f *frame.Frame, node *ast.Node) (value.Value, error) {
	result, err := e.Eval(scope, f, node.Children[0])
	if err != nil {
		return nil, err
	}

	if f.Is(frame.Exception) && node.Catch != nil {
		excVal := f.StateValue()
		f.UnsetState()
		f.Insert(node.CatchName, excVal)
		result, err = e.Eval(scope, f, node.Catch)
		if err != nil {
			return nil, err
		}
	}

	if node.Finally != nil {
		pending := f.State()
		f.UnsetState()
		if _, err := e.Eval(scope, f, node.Finally); err != nil {
			return nil, err
		}
		if f.State().Kind == frame.None {
			f.SetState(pending.Kind, pending.Value)
		}
	}

	if f.State().Kind != frame.None {
		return f.StateValue(), nil
	}
	return result, nil
}
