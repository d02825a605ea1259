package engine

import (
	"github.com/kristofer/hybris/pkg/ast"
	"github.com/kristofer/hybris/pkg/frame"
	"github.com/kristofer/hybris/pkg/value"
)

// evalStructureDecl builds a Prototype from a structure declaration,
// evaluating each field's default expression in the declaring frame.
func (e *Engine) evalStructureDecl(scope *frame.Scope, f *frame.Frame, node *ast.Node) (value.Value, error) {
	evalDefault := func(n *ast.Node) (value.Value, error) { return e.Eval(scope, f, n) }
	if _, err := e.VM.Types.BuildStructure(node, evalDefault); err != nil {
		return nil, err
	}
	return unit(), nil
}

// evalClassDecl builds a Prototype from a class declaration; method
// bodies are kept as opaque *ast.Node values inside value.MethodProto,
// invoked later by evalMethodCall/evalNew through invokeFunction.
func (e *Engine) evalClassDecl(scope *frame.Scope, f *frame.Frame, node *ast.Node) (value.Value, error) {
	evalDefault := func(n *ast.Node) (value.Value, error) { return e.Eval(scope, f, n) }
	bindBody := func(n *ast.Node) any { return n }
	if _, err := e.VM.Types.BuildClass(node, evalDefault, bindBody); err != nil {
		return nil, err
	}
	return unit(), nil
}
