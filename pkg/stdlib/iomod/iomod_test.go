package iomod

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kristofer/hybris/pkg/value"
)

func TestWriteReadRoundTrip(t *testing.T) {
	m := New()
	path := filepath.Join(t.TempDir(), "out.txt")

	h, err := m.Functions["open"].Fn([]value.Value{value.NewString(path), value.NewString("w")})
	require.NoError(t, err)
	_, err = m.Functions["write"].Fn([]value.Value{h, value.NewString("hello\n")})
	require.NoError(t, err)
	_, err = m.Functions["close"].Fn([]value.Value{h})
	require.NoError(t, err)

	h, err = m.Functions["open"].Fn([]value.Value{value.NewString(path), value.NewString("r")})
	require.NoError(t, err)
	line, err := m.Functions["read_line"].Fn([]value.Value{h})
	require.NoError(t, err)
	assert.Equal(t, "hello", line.(*value.String).V)

	eof, err := m.Functions["read_line"].Fn([]value.Value{h})
	require.NoError(t, err)
	_, isRef := eof.(*value.Reference)
	assert.True(t, isRef)
}

func TestOpenRejectsUnknownMode(t *testing.T) {
	m := New()
	path := filepath.Join(t.TempDir(), "x.txt")
	_, err := m.Functions["open"].Fn([]value.Value{value.NewString(path), value.NewString("z")})
	assert.Error(t, err)
}

func TestOpenMissingFileFails(t *testing.T) {
	m := New()
	_, err := m.Functions["open"].Fn([]value.Value{value.NewString("/nonexistent/path/x"), value.NewString("r")})
	assert.Error(t, err)
}
