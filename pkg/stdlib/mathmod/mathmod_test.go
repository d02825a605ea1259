package mathmod

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kristofer/hybris/pkg/value"
)

func TestSqrt(t *testing.T) {
	m := New()
	fn, ok := m.Functions["sqrt"]
	require.True(t, ok)
	v, err := fn.Fn([]value.Value{value.NewInteger(16)})
	require.NoError(t, err)
	assert.Equal(t, 4.0, v.(*value.Float).V)
}

func TestPow(t *testing.T) {
	m := New()
	fn := m.Functions["pow"]
	v, err := fn.Fn([]value.Value{value.NewFloat(2), value.NewInteger(10)})
	require.NoError(t, err)
	assert.Equal(t, 1024.0, v.(*value.Float).V)
}

func TestAbsRejectsNonNumeric(t *testing.T) {
	m := New()
	fn := m.Functions["abs"]
	_, err := fn.Fn([]value.Value{value.NewString("x")})
	assert.Error(t, err)
}

func TestInitRegistersConstants(t *testing.T) {
	m := New()
	registered := map[string]value.Value{}
	m.Init(func(name string, v value.Value) { registered[name] = v })
	assert.InDelta(t, 3.14159, registered["pi"].(*value.Float).V, 0.001)
}
