package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegexApplyMatch(t *testing.T) {
	v, err := RegexApply(`/(\w+)@(\w+)/`, "contact jdoe@example")
	require.NoError(t, err)

	vec, ok := v.(*Vector)
	require.True(t, ok)
	require.Len(t, vec.Items, 3)
	assert.Equal(t, "jdoe@example", vec.Items[0].(*String).V)
	assert.Equal(t, "jdoe", vec.Items[1].(*String).V)
	assert.Equal(t, "example", vec.Items[2].(*String).V)
}

func TestRegexApplyNoMatchReturnsNull(t *testing.T) {
	v, err := RegexApply(`/zzz/`, "abc")
	require.NoError(t, err)

	ref, ok := v.(*Reference)
	require.True(t, ok)
	assert.Nil(t, ref.Target)
}

func TestRegexMatchesCaseInsensitiveFlag(t *testing.T) {
	ok, err := RegexMatches(`/hello/i`, "HELLO world")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRegexApplyInvalidPattern(t *testing.T) {
	_, err := RegexApply(`/(unterminated/`, "x")
	assert.Error(t, err)
}

func TestRegexPatternCacheReusesCompiledPattern(t *testing.T) {
	_, err := RegexMatches(`/abc/`, "abc")
	require.NoError(t, err)
	_, ok := globalPatternCache.cache[`/abc/`]
	assert.True(t, ok)
}
