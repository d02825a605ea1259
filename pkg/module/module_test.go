package module

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kristofer/hybris/pkg/herror"
	"github.com/kristofer/hybris/pkg/value"
)

func TestSignatureValidateSelectsMatchingArity(t *testing.T) {
	sig := Signature{Arities: []Arity{
		{Count: 1, Types: []TypeSet{{value.KindInteger}}},
		{Count: 2, Types: []TypeSet{{value.KindInteger}, {value.KindString}}},
	}}

	require.NoError(t, sig.Validate("f", []value.Value{value.NewInteger(1)}))
	require.NoError(t, sig.Validate("f", []value.Value{value.NewInteger(1), value.NewString("x")}))

	err := sig.Validate("f", []value.Value{value.NewInteger(1), value.NewInteger(2)})
	require.Error(t, err)
	herr := err.(*herror.Error)
	assert.Equal(t, herror.TypeError, herr.ErrKind)
}

func TestSignatureValidateSelectsFirstArityAtLeastArgc(t *testing.T) {
	sig := Signature{Arities: []Arity{
		{Count: 4, Types: []TypeSet{{value.KindInteger}, {value.KindInteger}, {value.KindInteger}, {value.KindInteger}}},
	}}

	// argc=3 is below the only declared arity of 4, but 4 >= 3 so it still
	// selects that descriptor rather than failing on an exact-count mismatch.
	require.NoError(t, sig.Validate("f", []value.Value{value.NewInteger(1), value.NewInteger(2), value.NewInteger(3)}))
}

func TestSignatureValidateNoMatchingArityIsSyntaxError(t *testing.T) {
	sig := Signature{Arities: []Arity{{Count: 1}}}

	err := sig.Validate("f", []value.Value{value.NewInteger(1), value.NewInteger(2)})
	require.Error(t, err)
	herr := err.(*herror.Error)
	assert.Equal(t, herror.SyntaxError, herr.ErrKind)
}

func TestSignatureAnyArity(t *testing.T) {
	sig := Signature{Arities: []Arity{{Count: AnyArity}}}
	require.NoError(t, sig.Validate("f", nil))
	require.NoError(t, sig.Validate("f", []value.Value{value.NewInteger(1), value.NewString("x")}))
}

func TestSignatureAnyTypeSentinel(t *testing.T) {
	sig := Signature{Arities: []Arity{{Count: 1, Types: []TypeSet{nil}}}}
	require.NoError(t, sig.Validate("f", []value.Value{value.NewString("anything")}))
}

func TestDispatcherFirstLoadedModuleShadows(t *testing.T) {
	d := NewDispatcher()

	first := NewModule("first")
	first.Register(&Function{Name: "greet", Fn: func(args []value.Value) (value.Value, error) {
		return value.NewString("first"), nil
	}, Sig: Signature{Arities: []Arity{{Count: AnyArity}}}})
	d.Load(first, nil)

	second := NewModule("second")
	second.Register(&Function{Name: "greet", Fn: func(args []value.Value) (value.Value, error) {
		return value.NewString("second"), nil
	}, Sig: Signature{Arities: []Arity{{Count: AnyArity}}}})
	d.Load(second, nil)

	result, err := d.Call("greet", nil)
	require.NoError(t, err)
	assert.Equal(t, "first", result.(*value.String).V)
}

func TestDispatcherCallUndefinedFunction(t *testing.T) {
	d := NewDispatcher()
	_, err := d.Call("missing", nil)
	require.Error(t, err)
	herr := err.(*herror.Error)
	assert.Equal(t, herror.NameError, herr.ErrKind)
}

func TestDispatcherCachesResolution(t *testing.T) {
	d := NewDispatcher()
	mod := NewModule("m")
	mod.Register(&Function{Name: "f", Fn: func(args []value.Value) (value.Value, error) {
		return value.NewInteger(1), nil
	}, Sig: Signature{Arities: []Arity{{Count: AnyArity}}}})
	d.Load(mod, nil)

	_, ok := d.Resolve("f")
	require.True(t, ok)
	_, cached := d.cache["f"]
	assert.True(t, cached)
}

func TestDispatcherVariadicCollectsExtraArgs(t *testing.T) {
	d := NewDispatcher()
	mod := NewModule("m")
	mod.Register(&Function{
		Name: "sum",
		Fn: func(args []value.Value) (value.Value, error) {
			return value.NewInteger(int64(len(args))), nil
		},
		Sig: Signature{Variadic: true, Arities: []Arity{{Count: 1}}},
	})
	d.Load(mod, nil)

	result, err := d.Call("sum", []value.Value{value.NewInteger(1), value.NewInteger(2), value.NewInteger(3)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.(*value.Integer).V)
}
