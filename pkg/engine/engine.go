// Package engine implements the Execution Engine: a recursive
// tree-walking evaluator over *ast.Node, generalized from the teacher's
// VM.Run instruction loop (pkg/vm/vm.go) from "iterate flat bytecode
// instructions" to "recurse over *ast.Node, dispatch on node.Kind" — a
// single large switch mirroring the shape of the teacher's opcode switch.
//
// Unlike the teacher, control flow (break/next/return/exception) is
// carried as a field on *frame.Frame inspected after each child
// evaluation, not as a Go error unwinding the call stack (the teacher's
// NonLocalReturn-as-Go-error idiom). Every *herror.Error, including a
// StackOverflow guard trip and an unknown node kind, is raised into the
// frame's Exception state; only a Go error that is not a *herror.Error is
// returned from Eval.
package engine

import (
	"sync"

	"github.com/kristofer/hybris/pkg/ast"
	"github.com/kristofer/hybris/pkg/frame"
	"github.com/kristofer/hybris/pkg/herror"
	"github.com/kristofer/hybris/pkg/value"
	"github.com/kristofer/hybris/pkg/vm"
)

// Engine evaluates AST trees against one VM. It is safe to share across
// threads: the user-function table has its own mutex, and each thread
// brings its own *frame.Scope.
type Engine struct {
	VM *vm.VM

	funcMu    sync.Mutex
	functions map[string]*ast.Node // name -> KindFunctionDecl node
}

// New builds an Engine bound to v.
func New(v *vm.VM) *Engine {
	return &Engine{VM: v, functions: make(map[string]*ast.Node)}
}

// unit is the value control-flow constructs and statements with no
// meaningful result return, matching "possibly the defaulted unit value"
// in the engine's core contract.
func unit() value.Value { return value.NewReference(nil) }

// guard implements the control-flow guard run at the top of Eval: if the
// frame already carries Exception or Return, propagate its value
// immediately; if Next, yield the unit value so the enclosing loop can
// observe the flag.
func guard(f *frame.Frame) (value.Value, bool) {
	switch f.State().Kind {
	case frame.Exception, frame.Return:
		return f.StateValue(), true
	case frame.Next:
		return unit(), true
	}
	return nil, false
}

// Eval is the engine's single entry point: given a scope, the frame
// currently executing, and a node, it returns a value (possibly updating
// frame state for control flow).
//
// A *herror.Error surfacing from dispatch is converted into the frame's
// Exception state right here rather than propagated as a Go error, so
// that an enclosing try/catch can observe it like any other raised
// exception — only a non-herror Go error (an internal invariant
// violation) actually unwinds Eval's own call chain.
func (e *Engine) Eval(scope *frame.Scope, f *frame.Frame, node *ast.Node) (value.Value, error) {
	if v, short := guard(f); short {
		return v, nil
	}
	if node == nil {
		return unit(), nil
	}
	f.Line = node.Line
	e.VM.SetLine(node.Line)

	v, err := e.dispatch(scope, f, node)
	if err != nil {
		herr, ok := err.(*herror.Error)
		if !ok {
			return nil, err
		}
		vm.Raise(f, scope, herr)
		return f.StateValue(), nil
	}
	return v, nil
}

func (e *Engine) dispatch(scope *frame.Scope, f *frame.Frame, node *ast.Node) (value.Value, error) {
	switch node.Kind {
	case ast.KindProgram, ast.KindBlock:
		return e.evalBlock(scope, f, node)
	case ast.KindConstant:
		return e.evalConstant(node)
	case ast.KindIdentifier:
		return e.evalIdentifier(scope, f, node)
	case ast.KindSelf:
		return e.evalSelf(f)
	case ast.KindVector:
		return e.evalVector(scope, f, node)
	case ast.KindMapLiteral:
		return e.evalMapLiteral(scope, f, node)
	case ast.KindMatrixLiteral:
		return e.evalMatrixLiteral(scope, f, node)
	case ast.KindAssign:
		return e.evalAssign(scope, f, node)
	case ast.KindCompoundAssign:
		return e.evalCompoundAssign(scope, f, node)
	case ast.KindExplodeAssign:
		return e.evalExplodeAssign(scope, f, node)
	case ast.KindBinary:
		return e.evalBinary(scope, f, node)
	case ast.KindUnary:
		return e.evalUnary(scope, f, node)
	case ast.KindAnd:
		return e.evalAnd(scope, f, node)
	case ast.KindOr:
		return e.evalOr(scope, f, node)
	case ast.KindSubscriptGet:
		return e.evalSubscriptGet(scope, f, node)
	case ast.KindSubscriptSet:
		return e.evalSubscriptSet(scope, f, node)
	case ast.KindAttributeGet:
		return e.evalAttributeGet(scope, f, node)
	case ast.KindAttributeSet:
		return e.evalAttributeSet(scope, f, node)
	case ast.KindMethodCall:
		return e.evalMethodCall(scope, f, node)
	case ast.KindFunctionDecl:
		return e.evalFunctionDecl(node)
	case ast.KindCall:
		return e.evalCall(scope, f, node)
	case ast.KindAlias:
		return e.evalAlias(node)
	case ast.KindVargs:
		return value.NewVector(f.Vargs...), nil
	case ast.KindNew:
		return e.evalNew(scope, f, node)
	case ast.KindStructureDecl:
		return e.evalStructureDecl(scope, f, node)
	case ast.KindClassDecl:
		return e.evalClassDecl(scope, f, node)
	case ast.KindIf:
		return e.evalIf(scope, f, node, false)
	case ast.KindUnless:
		return e.evalIf(scope, f, node, true)
	case ast.KindWhile:
		return e.evalWhile(scope, f, node)
	case ast.KindDoWhile:
		return e.evalDoWhile(scope, f, node)
	case ast.KindFor:
		return e.evalFor(scope, f, node)
	case ast.KindForeach:
		return e.evalForeach(scope, f, node)
	case ast.KindForeachMapping:
		return e.evalForeachMapping(scope, f, node)
	case ast.KindSwitch:
		return e.evalSwitch(scope, f, node)
	case ast.KindBreak:
		f.SetState(frame.Break, nil)
		return unit(), nil
	case ast.KindNext:
		f.SetState(frame.Next, nil)
		return unit(), nil
	case ast.KindReturn:
		return e.evalReturn(scope, f, node)
	case ast.KindThrow:
		return e.evalThrow(scope, f, node)
	case ast.KindTryCatchFinally:
		return e.evalTry(scope, f, node)
	case ast.KindImport:
		return unit(), nil
	default:
		return nil, herror.New(herror.RuntimeError, "unhandled AST node kind %d", node.Kind)
	}
}

func (e *Engine) evalBlock(scope *frame.Scope, f *frame.Frame, node *ast.Node) (value.Value, error) {
	var last value.Value = unit()
	for _, stmt := range node.Children {
		e.VM.Debugger.BeforeStatement(f.Owner, stmt.Line)
		e.VM.CollectIfNeeded()

		v, err := e.Eval(scope, f, stmt)
		if err != nil {
			return nil, err
		}
		last = v
		if f.State().Kind != frame.None {
			return last, nil
		}
	}
	return last, nil
}

func (e *Engine) evalConstant(node *ast.Node) (value.Value, error) {
	switch c := node.Constant.(type) {
	case nil:
		return value.NewReference(nil), nil
	case int64:
		return value.NewInteger(c), nil
	case int:
		return value.NewInteger(int64(c)), nil
	case float64:
		return value.NewFloat(c), nil
	case string:
		return value.NewString(c), nil
	case byte:
		return value.NewChar(c), nil
	case bool:
		return value.NewBool(c), nil
	default:
		return nil, herror.New(herror.RuntimeError, "unrepresentable constant literal %T", c)
	}
}

// evalIdentifier resolves name against: the current frame; the global
// frame (if different); the type registry; the user-function table
// (returning an Alias). Missing identifier fails with NameError.
func (e *Engine) evalIdentifier(scope *frame.Scope, f *frame.Frame, node *ast.Node) (value.Value, error) {
	name := node.Identifier
	if v, ok := f.Get(name); ok {
		return v, nil
	}
	if global := scope.Global(); global != nil && global != f {
		if v, ok := global.Get(name); ok {
			return v, nil
		}
	}
	if p, ok := e.VM.Types.Get(name); ok {
		if p.IsClass {
			return value.NewClass(p), nil
		}
		return value.NewStructure(p), nil
	}
	e.funcMu.Lock()
	fn, ok := e.functions[name]
	e.funcMu.Unlock()
	if ok {
		return value.NewAlias(name, fn), nil
	}
	return nil, herror.New(herror.NameError, "undefined identifier %q", name)
}

// evalSelf resolves `self`; outside a method frame this fails with
// NameError (the closest fit in the closed error taxonomy — spec.md's
// prose names a ScopeError that the taxonomy table itself never defines).
func (e *Engine) evalSelf(f *frame.Frame) (value.Value, error) {
	if f.Self == nil {
		return nil, herror.New(herror.NameError, "self used outside of a method")
	}
	return f.Self, nil
}

func (e *Engine) evalVector(scope *frame.Scope, f *frame.Frame, node *ast.Node) (value.Value, error) {
	vec := value.NewVector()
	for _, child := range node.Children {
		v, err := e.Eval(scope, f, child)
		if err != nil {
			return nil, err
		}
		if f.State().Kind != frame.None {
			return unit(), nil
		}
		vec.Push(v)
	}
	return vec, nil
}

func (e *Engine) evalMapLiteral(scope *frame.Scope, f *frame.Frame, node *ast.Node) (value.Value, error) {
	m := value.NewMap()
	for i := 0; i+1 < len(node.Children); i += 2 {
		k, err := e.Eval(scope, f, node.Children[i])
		if err != nil {
			return nil, err
		}
		v, err := e.Eval(scope, f, node.Children[i+1])
		if err != nil {
			return nil, err
		}
		m.Set(k, v)
	}
	return m, nil
}

func (e *Engine) evalMatrixLiteral(scope *frame.Scope, f *frame.Frame, node *ast.Node) (value.Value, error) {
	rows := len(node.Children)
	if rows == 0 {
		return value.NewMatrix(0, 0, unit()), nil
	}
	cols := len(node.Children[0].Children)
	m := value.NewMatrix(rows, cols, unit())
	for r, rowNode := range node.Children {
		for c, cellNode := range rowNode.Children {
			v, err := e.Eval(scope, f, cellNode)
			if err != nil {
				return nil, err
			}
			m.Set(r, c, v)
		}
	}
	return m, nil
}
