package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kristofer/hybris/pkg/value"
)

func TestFrameInsertGetAdd(t *testing.T) {
	f := New("main")
	f.Insert("x", value.NewInteger(1))
	v, ok := f.Get("x")
	require.True(t, ok)
	assert.Equal(t, int64(1), v.(*value.Integer).V)

	f.Add("x", value.NewInteger(2))
	v, ok = f.Get("x")
	require.True(t, ok)
	assert.Equal(t, int64(2), v.(*value.Integer).V)

	_, ok = f.Get("missing")
	assert.False(t, ok)
}

func TestFrameTmpRoots(t *testing.T) {
	f := New("main")
	tmp := value.NewVector()
	f.PushTmp(tmp)
	assert.Contains(t, f.RootValues(), value.Value(tmp))

	f.RemoveTmp(tmp)
	assert.NotContains(t, f.RootValues(), value.Value(tmp))
}

func TestFrameStateTransitions(t *testing.T) {
	f := New("main")
	assert.True(t, f.Is(None))

	f.SetState(Return, value.NewInteger(7))
	assert.True(t, f.Is(Return))
	assert.Equal(t, int64(7), f.StateValue().(*value.Integer).V)

	f.UnsetState()
	assert.True(t, f.Is(None))
}

func TestFrameRootValuesIncludesBindingsAndTmp(t *testing.T) {
	f := New("main")
	f.Insert("a", value.NewInteger(1))
	f.PushTmp(value.NewInteger(2))
	assert.Len(t, f.RootValues(), 2)
}
