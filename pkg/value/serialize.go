package value

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/kristofer/hybris/pkg/herror"
)

// tag bytes identify a value's kind on the wire, in the order declared by
// the Kind enum's tagged-union layout.
const (
	tagInteger byte = iota
	tagFloat
	tagChar
	tagString
	tagBinary
	tagVector
	tagMap
	tagNull
)

// Serialize implements the serialize contract for the subset of kinds that
// round-trip through a flat byte encoding: scalars, strings, binaries, and
// vectors/maps of serializable values. Structures, classes, and native
// handles are not serializable and return a TypeError, matching their
// lack of a meaningful flat representation.
func Serialize(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := serializeInto(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func serializeInto(buf *bytes.Buffer, v Value) error {
	if r, ok := v.(*Reference); ok {
		if r.Target == nil {
			buf.WriteByte(tagNull)
			return nil
		}
		return serializeInto(buf, r.Target)
	}
	switch t := v.(type) {
	case *Integer:
		buf.WriteByte(tagInteger)
		return binary.Write(buf, binary.BigEndian, t.V)
	case *Float:
		buf.WriteByte(tagFloat)
		return binary.Write(buf, binary.BigEndian, t.V)
	case *Char:
		buf.WriteByte(tagChar)
		buf.WriteByte(t.V)
		return nil
	case *String:
		buf.WriteByte(tagString)
		return writeLenPrefixed(buf, []byte(t.V))
	case *Binary:
		buf.WriteByte(tagBinary)
		return writeLenPrefixed(buf, t.V)
	case *Vector:
		buf.WriteByte(tagVector)
		if err := binary.Write(buf, binary.BigEndian, uint32(len(t.Items))); err != nil {
			return err
		}
		for _, item := range t.Items {
			if err := serializeInto(buf, item); err != nil {
				return err
			}
		}
		return nil
	case *Map:
		buf.WriteByte(tagMap)
		if err := binary.Write(buf, binary.BigEndian, uint32(len(t.entries))); err != nil {
			return err
		}
		for _, e := range t.entries {
			if err := serializeInto(buf, e.key); err != nil {
				return err
			}
			if err := serializeInto(buf, e.val); err != nil {
				return err
			}
		}
		return nil
	default:
		return herror.New(herror.TypeError, "%s values cannot be serialized", v.Kind())
	}
}

func writeLenPrefixed(buf *bytes.Buffer, data []byte) error {
	if err := binary.Write(buf, binary.BigEndian, uint32(len(data))); err != nil {
		return err
	}
	_, err := buf.Write(data)
	return err
}

// Deserialize implements the deserialize contract, the inverse of
// Serialize.
func Deserialize(data []byte) (Value, error) {
	buf := bytes.NewReader(data)
	v, err := deserializeFrom(buf)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func deserializeFrom(buf *bytes.Reader) (Value, error) {
	tag, err := buf.ReadByte()
	if err != nil {
		return nil, herror.New(herror.RuntimeError, "truncated serialized data")
	}
	switch tag {
	case tagNull:
		return NewReference(nil), nil
	case tagInteger:
		var n int64
		if err := binary.Read(buf, binary.BigEndian, &n); err != nil {
			return nil, err
		}
		return NewInteger(n), nil
	case tagFloat:
		var f float64
		if err := binary.Read(buf, binary.BigEndian, &f); err != nil {
			return nil, err
		}
		return NewFloat(f), nil
	case tagChar:
		c, err := buf.ReadByte()
		if err != nil {
			return nil, err
		}
		return NewChar(c), nil
	case tagString:
		data, err := readLenPrefixed(buf)
		if err != nil {
			return nil, err
		}
		return NewString(string(data)), nil
	case tagBinary:
		data, err := readLenPrefixed(buf)
		if err != nil {
			return nil, err
		}
		return NewBinary(data), nil
	case tagVector:
		var n uint32
		if err := binary.Read(buf, binary.BigEndian, &n); err != nil {
			return nil, err
		}
		items := make([]Value, n)
		for i := range items {
			item, err := deserializeFrom(buf)
			if err != nil {
				return nil, err
			}
			items[i] = item
		}
		return NewVector(items...), nil
	case tagMap:
		var n uint32
		if err := binary.Read(buf, binary.BigEndian, &n); err != nil {
			return nil, err
		}
		m := NewMap()
		for i := uint32(0); i < n; i++ {
			key, err := deserializeFrom(buf)
			if err != nil {
				return nil, err
			}
			val, err := deserializeFrom(buf)
			if err != nil {
				return nil, err
			}
			m.Set(key, val)
		}
		return m, nil
	default:
		return nil, herror.New(herror.RuntimeError, fmt.Sprintf("unknown serialized tag %d", tag))
	}
}

func readLenPrefixed(buf *bytes.Reader) ([]byte, error) {
	var n uint32
	if err := binary.Read(buf, binary.BigEndian, &n); err != nil {
		return nil, err
	}
	data := make([]byte, n)
	if _, err := buf.Read(data); err != nil {
		return nil, err
	}
	return data, nil
}
