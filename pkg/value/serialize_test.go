package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	original := NewVector(
		NewInteger(42),
		NewFloat(3.5),
		NewString("hi"),
		NewBinary([]byte{1, 2, 3}),
		NewReference(nil),
	)

	data, err := Serialize(original)
	require.NoError(t, err)

	got, err := Deserialize(data)
	require.NoError(t, err)

	gotVec, ok := got.(*Vector)
	require.True(t, ok)
	require.Len(t, gotVec.Items, 5)
	assert.Equal(t, int64(42), gotVec.Items[0].(*Integer).V)
	assert.Equal(t, 3.5, gotVec.Items[1].(*Float).V)
	assert.Equal(t, "hi", gotVec.Items[2].(*String).V)
	assert.Equal(t, []byte{1, 2, 3}, gotVec.Items[3].(*Binary).V)
	assert.Nil(t, gotVec.Items[4].(*Reference).Target)
}

func TestSerializeMapRoundTrip(t *testing.T) {
	m := NewMap()
	m.Set(NewString("k1"), NewInteger(1))
	m.Set(NewString("k2"), NewInteger(2))

	data, err := Serialize(m)
	require.NoError(t, err)

	got, err := Deserialize(data)
	require.NoError(t, err)

	gotMap, ok := got.(*Map)
	require.True(t, ok)
	assert.Equal(t, 2, gotMap.Len())
	v, ok := gotMap.At(NewString("k2"))
	require.True(t, ok)
	assert.Equal(t, int64(2), v.(*Integer).V)
}

func TestSerializeRejectsStructure(t *testing.T) {
	proto := NewPrototype("Thing", false)
	s := NewStructure(proto)
	_, err := Serialize(s)
	assert.Error(t, err)
}

func TestXMLRoundTrip(t *testing.T) {
	original := NewVector(NewInteger(1), NewString("text"))

	data, err := SerializeXML(original)
	require.NoError(t, err)

	got, err := DeserializeXML(data)
	require.NoError(t, err)

	gotVec, ok := got.(*Vector)
	require.True(t, ok)
	require.Len(t, gotVec.Items, 2)
	assert.Equal(t, int64(1), gotVec.Items[0].(*Integer).V)
	assert.Equal(t, "text", gotVec.Items[1].(*String).V)
}

func TestXMLRoundTripMap(t *testing.T) {
	m := NewMap()
	m.Set(NewString("a"), NewFloat(1.25))

	data, err := SerializeXML(m)
	require.NoError(t, err)

	got, err := DeserializeXML(data)
	require.NoError(t, err)

	gotMap, ok := got.(*Map)
	require.True(t, ok)
	v, ok := gotMap.At(NewString("a"))
	require.True(t, ok)
	assert.Equal(t, 1.25, v.(*Float).V)
}
