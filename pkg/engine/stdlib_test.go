package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kristofer/hybris/pkg/ast"
	"github.com/kristofer/hybris/pkg/value"
)

func TestNativeBuiltinDispatchThroughCallNode(t *testing.T) {
	e, scope, f := newTestEngine()
	e.LoadStandardLibrary()

	call := &ast.Node{Kind: ast.KindCall, Identifier: "sqrt", Children: []*ast.Node{constNode(int64(81))}}
	v, err := e.Eval(scope, f, call)
	require.NoError(t, err)
	assert.Equal(t, 9.0, v.(*value.Float).V)
}

func TestReflectionCallReachesUserFunction(t *testing.T) {
	e, scope, f := newTestEngine()
	e.LoadStandardLibrary()

	decl := &ast.Node{
		Kind:       ast.KindFunctionDecl,
		Identifier: "greet",
		Params:     []ast.Param{{Name: "name"}},
		Children: []*ast.Node{blockNode(
			&ast.Node{Kind: ast.KindReturn, Children: []*ast.Node{binNode("+", constNode("hi "), identNode("name"))}},
		)},
	}
	_, err := e.Eval(scope, f, decl)
	require.NoError(t, err)

	call := &ast.Node{Kind: ast.KindCall, Identifier: "call", Children: []*ast.Node{constNode("greet"), constNode("sam")}}
	v, err := e.Eval(scope, f, call)
	require.NoError(t, err)
	assert.Equal(t, "hi sam", v.(*value.String).V)
}
