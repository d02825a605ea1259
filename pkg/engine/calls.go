package engine

import (
	"github.com/kristofer/hybris/pkg/ast"
	"github.com/kristofer/hybris/pkg/frame"
	"github.com/kristofer/hybris/pkg/herror"
	"github.com/kristofer/hybris/pkg/value"
)

// evalFunctionDecl registers a top-level function in the engine's
// user-function table; a name already bound to a function or already
// resolvable as a native builtin is a declaration-time SyntaxError.
func (e *Engine) evalFunctionDecl(node *ast.Node) (value.Value, error) {
	e.funcMu.Lock()
	_, exists := e.functions[node.Identifier]
	e.funcMu.Unlock()
	if exists {
		return nil, herror.New(herror.SyntaxError, "function %q already declared", node.Identifier)
	}
	if _, ok := e.VM.Dispatcher.Resolve(node.Identifier); ok {
		return nil, herror.New(herror.SyntaxError, "function %q clashes with a native builtin", node.Identifier)
	}
	e.funcMu.Lock()
	e.functions[node.Identifier] = node
	e.funcMu.Unlock()
	return unit(), nil
}

// evalArgs evaluates a call's argument expressions in order, short
// circuiting on the control-flow guard like every other multi-child node.
func (e *Engine) evalArgs(scope *frame.Scope, f *frame.Frame, nodes []*ast.Node) ([]value.Value, error) {
	args := make([]value.Value, 0, len(nodes))
	for _, n := range nodes {
		v, err := e.Eval(scope, f, n)
		if err != nil {
			return nil, err
		}
		if f.State().Kind != frame.None {
			return nil, nil
		}
		args = append(args, v)
	}
	return args, nil
}

// evalCall resolves a call-node in the documented order: native builtin
// via the lookup cache, user-defined function via the function table,
// then an identifier already bound to an Alias or Extern value.
func (e *Engine) evalCall(scope *frame.Scope, f *frame.Frame, node *ast.Node) (value.Value, error) {
	args, err := e.evalArgs(scope, f, node.Children)
	if err != nil {
		return nil, err
	}
	if f.State().Kind != frame.None {
		return unit(), nil
	}

	if _, ok := e.VM.Dispatcher.Resolve(node.Identifier); ok {
		return e.VM.Dispatcher.Call(node.Identifier, args)
	}

	e.funcMu.Lock()
	fn, ok := e.functions[node.Identifier]
	e.funcMu.Unlock()
	if ok {
		return e.invokeFunction(scope, fn, nil, args)
	}

	if bound, ok := f.Get(node.Identifier); ok {
		return e.invokeValue(scope, f, bound, args)
	}
	if global := scope.Global(); global != nil && global != f {
		if bound, ok := global.Get(node.Identifier); ok {
			return e.invokeValue(scope, f, bound, args)
		}
	}

	return nil, herror.New(herror.NameError, "undefined function %q", node.Identifier)
}

// invokeValue calls an Alias (a user function captured by reference) or
// an Extern (a native function pointer), the two first-class callable
// kinds an identifier can already be bound to.
func (e *Engine) invokeValue(scope *frame.Scope, f *frame.Frame, callee value.Value, args []value.Value) (value.Value, error) {
	switch c := callee.(type) {
	case *value.Alias:
		fn, ok := c.Node.(*ast.Node)
		if !ok {
			return nil, herror.New(herror.RuntimeError, "alias %q does not reference a function", c.Name)
		}
		return e.invokeFunction(scope, fn, nil, args)
	case *value.Extern:
		return c.Fn(args)
	default:
		return nil, herror.New(herror.TypeError, "%s is not callable", callee.Kind())
	}
}

func (e *Engine) evalAlias(node *ast.Node) (value.Value, error) {
	e.funcMu.Lock()
	fn, ok := e.functions[node.Identifier]
	e.funcMu.Unlock()
	if !ok {
		return nil, herror.New(herror.NameError, "undefined function %q", node.Identifier)
	}
	return value.NewAlias(node.Identifier, fn), nil
}

// invokeFunction pushes a fresh frame bound to decl's parameters, runs its
// body, and unwraps a Return state into a plain value; self is nil for a
// plain function call and the receiver for a method call.
func (e *Engine) invokeFunction(scope *frame.Scope, decl *ast.Node, self value.Value, args []value.Value) (value.Value, error) {
	callFrame := frame.New(decl.Identifier)
	callFrame.Self = self

	named := decl.Params
	for i, p := range named {
		if p.Variadic {
			break
		}
		if i < len(args) {
			callFrame.Insert(p.Name, args[i])
		} else {
			callFrame.Insert(p.Name, value.NewReference(nil))
		}
	}
	if len(args) > len(named) {
		callFrame.Vargs = args[len(named):]
	}

	if err := scope.Push(callFrame); err != nil {
		return nil, err
	}
	result, err := e.Eval(scope, callFrame, decl.Children[0])
	scope.Pop()
	if err != nil {
		return nil, err
	}
	if callFrame.Is(frame.Return) {
		return callFrame.StateValue(), nil
	}
	if callFrame.Is(frame.Exception) {
		// An uncaught exception inside the callee propagates into the
		// caller's frame so an enclosing try/catch up the stack sees it.
		scope.Top().SetState(frame.Exception, callFrame.StateValue())
		return unit(), nil
	}
	return result, nil
}

// CallByName resolves a user-declared function by name and invokes it on
// the main scope, the hook collectionmod's `call` reflection builtin uses
// to reach the function table without pkg/stdlib depending on pkg/engine.
func (e *Engine) CallByName(name string, args []value.Value) (value.Value, error) {
	e.funcMu.Lock()
	fn, ok := e.functions[name]
	e.funcMu.Unlock()
	if !ok {
		return nil, herror.New(herror.NameError, "undefined function %q", name)
	}
	return e.invokeFunction(e.VM.MainScope, fn, nil, args)
}

// evalNew clones a structure/class prototype's instance, then either runs
// its zero-or-matching-arity constructor method or, absent a ctor, binds
// positional arguments directly onto the declared fields in order.
func (e *Engine) evalNew(scope *frame.Scope, f *frame.Frame, node *ast.Node) (value.Value, error) {
	protoVal, ok := e.VM.Types.Get(node.Identifier)
	if !ok {
		return nil, herror.New(herror.NameError, "undefined type %q", node.Identifier)
	}
	args, err := e.evalArgs(scope, f, node.Children)
	if err != nil {
		return nil, err
	}
	if f.State().Kind != frame.None {
		return unit(), nil
	}

	if !protoVal.IsClass {
		inst := value.NewStructure(protoVal)
		bindPositional(inst.Attrs, protoVal, args)
		return inst, nil
	}

	inst := value.NewClass(protoVal)
	ctor := protoVal.LookupMethod("constructor", len(args))
	if ctor == nil || !ctor.Ctor {
		ctor = protoVal.LookupMethod(node.Identifier, len(args))
	}
	if ctor != nil && ctor.Ctor {
		body, ok := ctor.Body.(*ast.Node)
		if !ok {
			return nil, herror.New(herror.RuntimeError, "constructor %q has no body", node.Identifier)
		}
		if _, err := e.invokeFunction(scope, &ast.Node{Identifier: node.Identifier, Params: methodParams(ctor), Children: []*ast.Node{body}}, inst, args); err != nil {
			return nil, err
		}
		return inst, nil
	}
	bindPositional(inst.Attrs, protoVal, args)
	return inst, nil
}

// methodParams rebuilds the []ast.Param list invokeFunction expects from
// a method prototype's recorded formal names.
func methodParams(m *value.MethodProto) []ast.Param {
	params := make([]ast.Param, len(m.Params))
	for i, name := range m.Params {
		params[i] = ast.Param{Name: name}
	}
	return params
}

func bindPositional(attrs []value.Value, p *value.Prototype, args []value.Value) {
	i := 0
	for _, fd := range p.Fields {
		if fd.Static {
			continue
		}
		if i < len(args) {
			attrs[i] = args[i]
		}
		i++
	}
}

// evalMethodCall dispatches a method selector against a receiver's
// prototype (the "second level of dispatch" after the receiver itself
// is evaluated), enforcing the declared access modifier.
func (e *Engine) evalMethodCall(scope *frame.Scope, f *frame.Frame, node *ast.Node) (value.Value, error) {
	owner, err := e.Eval(scope, f, node.Children[0])
	if err != nil {
		return nil, err
	}
	if f.State().Kind != frame.None {
		return unit(), nil
	}
	args, err := e.evalArgs(scope, f, node.Children[1:])
	if err != nil {
		return nil, err
	}
	if f.State().Kind != frame.None {
		return unit(), nil
	}

	class, ok := owner.(*value.Class)
	if !ok {
		return nil, herror.New(herror.TypeError, "%s has no methods", owner.Kind())
	}
	m := class.Proto.LookupMethod(node.Identifier, len(args))
	if m == nil {
		return nil, herror.New(herror.AttributeError, "%s has no method %q/%d", class.Proto.Name, node.Identifier, len(args))
	}
	isSelf := f.Self == value.Value(class)
	if err := value.AccessCheck(m.Access, m.Definer, class.Proto, isSelf); err != nil {
		return nil, herror.New(herror.AccessError, "%v", err)
	}
	body, ok := m.Body.(*ast.Node)
	if !ok {
		return nil, herror.New(herror.RuntimeError, "method %q has no body", node.Identifier)
	}
	return e.invokeFunction(scope, &ast.Node{Identifier: node.Identifier, Params: methodParams(m), Children: []*ast.Node{body}}, class, args)
}
