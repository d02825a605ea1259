package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kristofer/hybris/pkg/herror"
)

func TestScopePushPopTop(t *testing.T) {
	s := NewScope()
	f1 := New("main")
	f2 := New("f")

	require.NoError(t, s.Push(f1))
	require.NoError(t, s.Push(f2))
	assert.Equal(t, f2, s.Top())
	assert.Equal(t, f1, s.Global())

	popped := s.Pop()
	assert.Equal(t, f2, popped)
	assert.Equal(t, f1, s.Top())
}

func TestScopeRecursionLimit(t *testing.T) {
	s := NewScope()
	s.recursionLimit = 2

	require.NoError(t, s.Push(New("a")))
	require.NoError(t, s.Push(New("b")))

	err := s.Push(New("c"))
	require.Error(t, err)
	herr, ok := err.(*herror.Error)
	require.True(t, ok)
	assert.Equal(t, herror.StackOverflow, herr.ErrKind)
}

func TestManagerRegisterLookupUnregister(t *testing.T) {
	m := NewManager()
	id := m.Register()

	s, ok := m.Lookup(id)
	require.True(t, ok)
	assert.NotNil(t, s)

	m.Unregister(id)
	_, ok = m.Lookup(id)
	assert.False(t, ok)
}

func TestManagerRegistersDistinctThreadIDs(t *testing.T) {
	m := NewManager()
	id1 := m.Register()
	id2 := m.Register()
	assert.NotEqual(t, id1, id2)
	assert.Len(t, m.ThreadIDs(), 2)
}
