package threadmod

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kristofer/hybris/pkg/herror"
	"github.com/kristofer/hybris/pkg/value"
)

func TestCreateAndJoinReturnsResult(t *testing.T) {
	spawn := func(callee value.Value, args []value.Value) (value.Value, error) {
		n := args[0].(*value.Integer).V
		return value.NewInteger(n * 2), nil
	}
	m := New(spawn)

	h, err := m.Functions["create"].Fn([]value.Value{value.NewAlias("double", nil), value.NewInteger(21)})
	require.NoError(t, err)

	v, err := m.Functions["join"].Fn([]value.Value{h})
	require.NoError(t, err)
	assert.Equal(t, int64(42), v.(*value.Integer).V)
}

func TestJoinPropagatesThreadError(t *testing.T) {
	spawn := func(callee value.Value, args []value.Value) (value.Value, error) {
		return nil, herror.New(herror.RuntimeError, "boom")
	}
	m := New(spawn)

	h, err := m.Functions["create"].Fn([]value.Value{value.NewAlias("fail", nil)})
	require.NoError(t, err)

	_, err = m.Functions["join"].Fn([]value.Value{h})
	require.Error(t, err)
	herr := err.(*herror.Error)
	assert.Equal(t, herror.RuntimeError, herr.ErrKind)
}

func TestJoinRejectsNonHandle(t *testing.T) {
	m := New(nil)
	_, err := m.Functions["join"].Fn([]value.Value{value.NewInteger(1)})
	assert.Error(t, err)
}
