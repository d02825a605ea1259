package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kristofer/hybris/pkg/ast"
)

func parseOK(t *testing.T, src string) *ast.Node {
	t.Helper()
	p := New(src)
	prog, err := p.Parse()
	require.NoError(t, err)
	return prog
}

func TestArithmeticExpressionPrecedence(t *testing.T) {
	prog := parseOK(t, "1 + 2 * 3;")
	require.Len(t, prog.Children, 1)
	bin := prog.Children[0]
	require.Equal(t, ast.KindBinary, bin.Kind)
	assert.Equal(t, "+", bin.Op)
	require.Equal(t, ast.KindBinary, bin.Children[1].Kind)
	assert.Equal(t, "*", bin.Children[1].Op)
}

func TestAssignmentAndCompoundAssignment(t *testing.T) {
	prog := parseOK(t, "x = 1; x += 2;")
	require.Len(t, prog.Children, 2)
	assert.Equal(t, ast.KindAssign, prog.Children[0].Kind)
	compound := prog.Children[1]
	require.Equal(t, ast.KindCompoundAssign, compound.Kind)
	assert.Equal(t, "+", compound.Op)
}

func TestFunctionDeclAndCall(t *testing.T) {
	prog := parseOK(t, "function add(a, b) { return a + b; } add(1, 2);")
	require.Len(t, prog.Children, 2)

	decl := prog.Children[0]
	require.Equal(t, ast.KindFunctionDecl, decl.Kind)
	assert.Equal(t, "add", decl.Identifier)
	require.Len(t, decl.Params, 2)
	assert.Equal(t, "a", decl.Params[0].Name)

	call := prog.Children[1]
	require.Equal(t, ast.KindCall, call.Kind)
	assert.Equal(t, "add", call.Identifier)
	assert.Len(t, call.Children, 2)
}

func TestIfElseWithoutBraces(t *testing.T) {
	prog := parseOK(t, "if (x > 0) y = 1; else y = 2;")
	require.Len(t, prog.Children, 1)
	ifNode := prog.Children[0]
	require.Equal(t, ast.KindIf, ifNode.Kind)
	require.Len(t, ifNode.Children, 3)
}

func TestWhileLoop(t *testing.T) {
	prog := parseOK(t, "while (i < 10) { i += 1; }")
	loop := prog.Children[0]
	require.Equal(t, ast.KindWhile, loop.Kind)
	require.Len(t, loop.Children, 2)
}

func TestForLoopAllClauses(t *testing.T) {
	prog := parseOK(t, "for (i = 0; i < 10; i += 1) { x = i; }")
	loop := prog.Children[0]
	require.Equal(t, ast.KindFor, loop.Kind)
	require.Len(t, loop.Children, 4)
	assert.Equal(t, ast.KindAssign, loop.Children[0].Kind)
	assert.Equal(t, ast.KindBinary, loop.Children[1].Kind)
	assert.Equal(t, ast.KindCompoundAssign, loop.Children[2].Kind)
}

func TestForeachOverVector(t *testing.T) {
	prog := parseOK(t, "foreach (item in items) { print(item); }")
	loop := prog.Children[0]
	require.Equal(t, ast.KindForeach, loop.Kind)
	assert.Equal(t, "item", loop.Identifier)
}

func TestForeachMapping(t *testing.T) {
	prog := parseOK(t, "foreach (k, v in table) { print(k); }")
	loop := prog.Children[0]
	require.Equal(t, ast.KindForeachMapping, loop.Kind)
	assert.Equal(t, []string{"k", "v"}, loop.ExplodeVars)
}

func TestSwitchStatement(t *testing.T) {
	prog := parseOK(t, `switch (x) {
		case 1:
			y = 1;
		case 2:
			y = 2;
		default:
			y = 0;
	}`)
	sw := prog.Children[0]
	require.Equal(t, ast.KindSwitch, sw.Kind)
	require.Len(t, sw.Cases, 3)
	assert.Nil(t, sw.Cases[2].Target)
}

func TestTryCatchFinally(t *testing.T) {
	prog := parseOK(t, `try {
		throw "boom";
	} catch (e) {
		print(e);
	} finally {
		cleanup();
	}`)
	tcf := prog.Children[0]
	require.Equal(t, ast.KindTryCatchFinally, tcf.Kind)
	assert.Equal(t, "e", tcf.CatchName)
	require.NotNil(t, tcf.Catch)
	require.NotNil(t, tcf.Finally)
}

func TestClassDeclWithConstructorAndMethod(t *testing.T) {
	prog := parseOK(t, `class Dog extends Animal {
		private name;
		function constructor(name) { self.name = name; }
		function bark() { return self.name; }
	}`)
	cls := prog.Children[0]
	require.Equal(t, ast.KindClassDecl, cls.Kind)
	assert.Equal(t, "Dog", cls.Identifier)
	assert.Equal(t, "Animal", cls.SuperClass)
	require.Len(t, cls.Fields, 1)
	require.Len(t, cls.Methods, 2)
	assert.True(t, cls.Methods[0].Ctor)
	assert.False(t, cls.Methods[1].Ctor)
}

func TestNewExpressionAndMethodCall(t *testing.T) {
	prog := parseOK(t, `d = new Dog("Rex"); d.bark();`)
	require.Len(t, prog.Children, 2)
	assign := prog.Children[0]
	newNode := assign.Children[1]
	require.Equal(t, ast.KindNew, newNode.Kind)
	assert.Equal(t, "Dog", newNode.Identifier)

	call := prog.Children[1]
	require.Equal(t, ast.KindMethodCall, call.Kind)
	assert.Equal(t, "bark", call.Identifier)
}

func TestVectorMapAndSubscript(t *testing.T) {
	prog := parseOK(t, `v = [1, 2, 3]; m = {"a": 1, "b": 2}; x = v[0]; v[1] = 9;`)
	require.Len(t, prog.Children, 4)

	vecAssign := prog.Children[0]
	vec := vecAssign.Children[1]
	require.Equal(t, ast.KindVector, vec.Kind)
	assert.Len(t, vec.Children, 3)

	mapAssign := prog.Children[1]
	mp := mapAssign.Children[1]
	require.Equal(t, ast.KindMapLiteral, mp.Kind)
	assert.Len(t, mp.Children, 4)

	sub := prog.Children[2].Children[1]
	require.Equal(t, ast.KindSubscriptGet, sub.Kind)

	subSet := prog.Children[3]
	require.Equal(t, ast.KindSubscriptSet, subSet.Kind)
}

func TestMatrixLiteral(t *testing.T) {
	prog := parseOK(t, "m = matrix [[1, 2], [3, 4]];")
	mat := prog.Children[0].Children[1]
	require.Equal(t, ast.KindMatrixLiteral, mat.Kind)
	require.Len(t, mat.Children, 2)
	assert.Len(t, mat.Children[0].Children, 2)
}

func TestExplodeAssign(t *testing.T) {
	prog := parseOK(t, "var (a, b) = pair();")
	node := prog.Children[0]
	require.Equal(t, ast.KindExplodeAssign, node.Kind)
	assert.Equal(t, []string{"a", "b"}, node.ExplodeVars)
}

func TestAliasAndVargs(t *testing.T) {
	prog := parseOK(t, `function sum() { return @; } h = &sum;`)
	body := prog.Children[0].Children[0]
	ret := body.Children[0]
	require.Equal(t, ast.KindVargs, ret.Children[0].Kind)

	aliasAssign := prog.Children[1]
	aliasNode := aliasAssign.Children[1]
	require.Equal(t, ast.KindAlias, aliasNode.Kind)
	assert.Equal(t, "sum", aliasNode.Identifier)
}

func TestSyntaxErrorsAreAccumulated(t *testing.T) {
	p := New("function () {}")
	_, err := p.Parse()
	require.Error(t, err)
}
