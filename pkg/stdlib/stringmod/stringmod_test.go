package stringmod

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kristofer/hybris/pkg/value"
)

func TestUpperLower(t *testing.T) {
	m := New()
	v, err := m.Functions["upper"].Fn([]value.Value{value.NewString("abc")})
	require.NoError(t, err)
	assert.Equal(t, "ABC", v.(*value.String).V)

	v, err = m.Functions["lower"].Fn([]value.Value{value.NewString("ABC")})
	require.NoError(t, err)
	assert.Equal(t, "abc", v.(*value.String).V)
}

func TestSplit(t *testing.T) {
	m := New()
	v, err := m.Functions["split"].Fn([]value.Value{value.NewString("a,b,c"), value.NewString(",")})
	require.NoError(t, err)
	vec := v.(*value.Vector)
	require.Len(t, vec.Items, 3)
	assert.Equal(t, "b", vec.Items[1].(*value.String).V)
}

func TestToIRejectsNonNumericString(t *testing.T) {
	m := New()
	_, err := m.Functions["to_i"].Fn([]value.Value{value.NewString("nope")})
	assert.Error(t, err)
}

func TestMatches(t *testing.T) {
	m := New()
	v, err := m.Functions["matches"].Fn([]value.Value{value.NewString(`\d+`), value.NewString("abc123")})
	require.NoError(t, err)
	assert.True(t, value.Truthy(v))
}
