package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kristofer/hybris/pkg/ast"
	"github.com/kristofer/hybris/pkg/frame"
	"github.com/kristofer/hybris/pkg/gc"
	"github.com/kristofer/hybris/pkg/herror"
	"github.com/kristofer/hybris/pkg/value"
	"github.com/kristofer/hybris/pkg/vm"
)

func newTestEngine() (*Engine, *frame.Scope, *frame.Frame) {
	v := vm.New()
	e := New(v)
	scope := v.MainScope
	return e, scope, scope.Top()
}

func constNode(c any) *ast.Node { return &ast.Node{Kind: ast.KindConstant, Constant: c} }

func identNode(name string) *ast.Node { return &ast.Node{Kind: ast.KindIdentifier, Identifier: name} }

func binNode(op string, l, r *ast.Node) *ast.Node {
	return &ast.Node{Kind: ast.KindBinary, Op: op, Children: []*ast.Node{l, r}}
}

func blockNode(stmts ...*ast.Node) *ast.Node {
	return &ast.Node{Kind: ast.KindBlock, Children: stmts}
}

func TestArithmeticExpression(t *testing.T) {
	e, scope, f := newTestEngine()
	// (2 + 3) * 4
	node := binNode("*", binNode("+", constNode(int64(2)), constNode(int64(3))), constNode(int64(4)))
	v, err := e.Eval(scope, f, node)
	require.NoError(t, err)
	assert.Equal(t, int64(20), v.(*value.Integer).V)
}

func TestAssignAndIdentifierLookup(t *testing.T) {
	e, scope, f := newTestEngine()
	assign := &ast.Node{Kind: ast.KindAssign, Children: []*ast.Node{identNode("x"), constNode(int64(7))}}
	_, err := e.Eval(scope, f, assign)
	require.NoError(t, err)

	v, err := e.Eval(scope, f, identNode("x"))
	require.NoError(t, err)
	assert.Equal(t, int64(7), v.(*value.Integer).V)
}

func TestVectorContains(t *testing.T) {
	vec := value.NewVector(value.NewInteger(1), value.NewInteger(2), value.NewInteger(3))
	idx, ok := vec.Contains(value.NewInteger(2))
	assert.True(t, ok)
	assert.Equal(t, 1, idx)
}

// assertExceptionKind asserts f is left in the Exception state carrying a
// boxed herror.Error of the given kind, and clears the state so the test
// frame is reusable.
func assertExceptionKind(t *testing.T, f *frame.Frame, kind herror.Kind) {
	t.Helper()
	require.True(t, f.Is(frame.Exception))
	boxed, ok := f.StateValue().(*value.Structure)
	require.True(t, ok)
	k, err := boxed.Get("kind")
	require.NoError(t, err)
	assert.Equal(t, string(kind), k.(*value.String).V)
	f.UnsetState()
}

func TestUndefinedIdentifierFailsWithNameError(t *testing.T) {
	e, scope, f := newTestEngine()
	_, err := e.Eval(scope, f, identNode("nope"))
	require.NoError(t, err)
	assertExceptionKind(t, f, herror.NameError)
}

func TestSelfOutsideMethodFailsWithNameError(t *testing.T) {
	e, scope, f := newTestEngine()
	_, err := e.Eval(scope, f, &ast.Node{Kind: ast.KindSelf})
	require.NoError(t, err)
	assertExceptionKind(t, f, herror.NameError)
}

func TestFunctionDeclAndCall(t *testing.T) {
	e, scope, f := newTestEngine()
	// function add(a, b) { return a + b; }
	decl := &ast.Node{
		Kind:       ast.KindFunctionDecl,
		Identifier: "add",
		Params:     []ast.Param{{Name: "a"}, {Name: "b"}},
		Children: []*ast.Node{blockNode(
			&ast.Node{Kind: ast.KindReturn, Children: []*ast.Node{binNode("+", identNode("a"), identNode("b"))}},
		)},
	}
	_, err := e.Eval(scope, f, decl)
	require.NoError(t, err)

	call := &ast.Node{Kind: ast.KindCall, Identifier: "add", Children: []*ast.Node{constNode(int64(3)), constNode(int64(4))}}
	v, err := e.Eval(scope, f, call)
	require.NoError(t, err)
	require.Equal(t, frame.None, f.State().Kind)
	assert.Equal(t, int64(7), v.(*value.Integer).V)
}

func TestDuplicateFunctionDeclFailsWithSyntaxError(t *testing.T) {
	e, scope, f := newTestEngine()
	decl := &ast.Node{Kind: ast.KindFunctionDecl, Identifier: "f", Children: []*ast.Node{blockNode()}}
	_, err := e.Eval(scope, f, decl)
	require.NoError(t, err)
	_, err = e.Eval(scope, f, decl)
	require.NoError(t, err)
	assertExceptionKind(t, f, herror.SyntaxError)
}

func TestWhileLoopWithBreak(t *testing.T) {
	e, scope, f := newTestEngine()
	f.Insert("i", value.NewInteger(0))
	// while (i < 10) { i = i + 1; if (i == 3) { break; } }
	body := blockNode(
		&ast.Node{Kind: ast.KindAssign, Children: []*ast.Node{identNode("i"), binNode("+", identNode("i"), constNode(int64(1)))}},
		&ast.Node{Kind: ast.KindIf, Children: []*ast.Node{
			binNode("==", identNode("i"), constNode(int64(3))),
			blockNode(&ast.Node{Kind: ast.KindBreak}),
		}},
	)
	loop := &ast.Node{Kind: ast.KindWhile, Children: []*ast.Node{binNode("<", identNode("i"), constNode(int64(10))), body}}
	_, err := e.Eval(scope, f, loop)
	require.NoError(t, err)
	assert.Equal(t, frame.None, f.State().Kind)

	v, err := e.Eval(scope, f, identNode("i"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), v.(*value.Integer).V)
}

func TestForeachOverVector(t *testing.T) {
	e, scope, f := newTestEngine()
	vec := value.NewVector(value.NewInteger(1), value.NewInteger(2), value.NewInteger(3))
	f.Insert("nums", vec)
	f.Insert("total", value.NewInteger(0))

	loop := &ast.Node{
		Kind:       ast.KindForeach,
		Identifier: "n",
		Children: []*ast.Node{identNode("nums"), blockNode(
			&ast.Node{Kind: ast.KindAssign, Children: []*ast.Node{identNode("total"), binNode("+", identNode("total"), identNode("n"))}},
		)},
	}
	_, err := e.Eval(scope, f, loop)
	require.NoError(t, err)

	v, err := e.Eval(scope, f, identNode("total"))
	require.NoError(t, err)
	assert.Equal(t, int64(6), v.(*value.Integer).V)
}

func TestTryCatchClearsException(t *testing.T) {
	e, scope, f := newTestEngine()
	tryNode := &ast.Node{
		Kind: ast.KindTryCatchFinally,
		Children: []*ast.Node{blockNode(
			&ast.Node{Kind: ast.KindThrow, Children: []*ast.Node{constNode("boom")}},
		)},
		Catch:     blockNode(&ast.Node{Kind: ast.KindAssign, Children: []*ast.Node{identNode("caught"), identNode("err")}}),
		CatchName: "err",
	}
	_, err := e.Eval(scope, f, tryNode)
	require.NoError(t, err)
	assert.Equal(t, frame.None, f.State().Kind)

	v, err := e.Eval(scope, f, identNode("caught"))
	require.NoError(t, err)
	assert.Equal(t, "boom", v.(*value.String).V)
}

func TestTryFinallyAlwaysRuns(t *testing.T) {
	e, scope, f := newTestEngine()
	tryNode := &ast.Node{
		Kind:     ast.KindTryCatchFinally,
		Children: []*ast.Node{blockNode(constNode(int64(1)))},
		Finally: blockNode(
			&ast.Node{Kind: ast.KindAssign, Children: []*ast.Node{identNode("ranFinally"), constNode(int64(1))}},
		),
	}
	_, err := e.Eval(scope, f, tryNode)
	require.NoError(t, err)

	v, err := e.Eval(scope, f, identNode("ranFinally"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), v.(*value.Integer).V)
}

func TestClassInstantiationAndMethodDispatch(t *testing.T) {
	e, scope, f := newTestEngine()

	classDecl := &ast.Node{
		Kind:       ast.KindClassDecl,
		Identifier: "Animal",
		Fields:     []ast.Field{{Name: "name"}},
		Methods: []ast.MethodDecl{
			{
				Name:   "Animal",
				Ctor:   true,
				Params: []ast.Param{{Name: "n"}},
				Body: blockNode(&ast.Node{
					Kind:       ast.KindAttributeSet,
					Identifier: "name",
					Children:   []*ast.Node{{Kind: ast.KindSelf}, identNode("n")},
				}),
			},
			{
				Name: "speak",
				Body: blockNode(&ast.Node{
					Kind:     ast.KindReturn,
					Children: []*ast.Node{{Kind: ast.KindAttributeGet, Identifier: "name", Children: []*ast.Node{{Kind: ast.KindSelf}}}},
				}),
			},
		},
	}
	_, err := e.Eval(scope, f, classDecl)
	require.NoError(t, err)

	newNode := &ast.Node{Kind: ast.KindNew, Identifier: "Animal", Children: []*ast.Node{constNode("Rex")}}
	inst, err := e.Eval(scope, f, newNode)
	require.NoError(t, err)
	_, ok := inst.(*value.Class)
	require.True(t, ok)

	f.Insert("rex", inst)
	call := &ast.Node{Kind: ast.KindMethodCall, Identifier: "speak", Children: []*ast.Node{identNode("rex")}}
	v, err := e.Eval(scope, f, call)
	require.NoError(t, err)
	require.Equal(t, frame.None, f.State().Kind)
	assert.Equal(t, "Rex", v.(*value.String).V)
}

func TestGCBoundedUsageOutOfMemory(t *testing.T) {
	cfg := gc.DefaultConfig()
	cfg.MMThreshold = 64
	instVM := vm.New(vm.WithGCConfig(cfg))
	for i := 0; i < 100; i++ {
		_, err := instVM.GC.Track(value.NewInteger(int64(i)), 8)
		if err != nil {
			herr, ok := err.(*herror.Error)
			require.True(t, ok)
			assert.Equal(t, herror.OutOfMemory, herr.ErrKind)
			return
		}
	}
	t.Fatal("expected OutOfMemory before exhausting 100 allocations against a 64-byte ceiling")
}
