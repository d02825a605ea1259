package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructureGetSetDefaults(t *testing.T) {
	proto := NewPrototype("Point", false)
	proto.Fields = []FieldDescriptor{
		{Name: "x", Default: NewInteger(0)},
		{Name: "y", Default: NewInteger(0)},
	}

	s := NewStructure(proto)
	require.NoError(t, s.Set("x", NewInteger(3)))

	v, err := s.Get("x")
	require.NoError(t, err)
	assert.Equal(t, int64(3), v.(*Integer).V)

	_, err = s.Get("z")
	assert.Error(t, err)
}

func TestStructureCloneIsIndependent(t *testing.T) {
	proto := NewPrototype("Counter", false)
	proto.Fields = []FieldDescriptor{{Name: "n", Default: NewInteger(0)}}

	orig := NewStructure(proto)
	require.NoError(t, orig.Set("n", NewInteger(1)))

	clone := orig.Clone()
	require.NoError(t, clone.Set("n", NewInteger(99)))

	origVal, _ := orig.Get("n")
	assert.Equal(t, int64(1), origVal.(*Integer).V)
}

func TestPrototypeAddMethodRejectsArityCollision(t *testing.T) {
	proto := NewPrototype("Shape", true)
	require.NoError(t, proto.AddMethod(&MethodProto{Name: "area", Arity: 0}))
	err := proto.AddMethod(&MethodProto{Name: "area", Arity: 0})
	assert.Error(t, err)
}

func TestPrototypeLookupMethodByArity(t *testing.T) {
	proto := NewPrototype("Shape", true)
	require.NoError(t, proto.AddMethod(&MethodProto{Name: "scale", Arity: 1}))
	require.NoError(t, proto.AddMethod(&MethodProto{Name: "scale", Arity: 2}))

	m := proto.LookupMethod("scale", 2)
	require.NotNil(t, m)
	assert.Equal(t, 2, m.Arity)

	assert.Nil(t, proto.LookupMethod("scale", 9))
}

func TestAccessCheck(t *testing.T) {
	definer := NewPrototype("Base", true)
	other := NewPrototype("Other", true)

	assert.NoError(t, AccessCheck(AccessPublic, definer, other, false))
	assert.Error(t, AccessCheck(AccessProtected, definer, other, false))
	assert.NoError(t, AccessCheck(AccessProtected, definer, other, true))
	assert.Error(t, AccessCheck(AccessPrivate, definer, other, true))
	assert.NoError(t, AccessCheck(AccessPrivate, definer, definer, true))
}

func TestClassKindDistinctFromStructure(t *testing.T) {
	proto := NewPrototype("Animal", true)
	c := NewClass(proto)
	assert.Equal(t, KindClass, c.Kind())

	clone := c.Clone()
	assert.Equal(t, KindClass, clone.Kind())
}
