package value

import (
	"encoding/xml"
	"strconv"

	"github.com/kristofer/hybris/pkg/herror"
)

// xmlNode is the generic intermediate tree encoding/xml marshals to and
// from; it carries just enough structure (a kind tag, a scalar payload,
// and an ordered list of children) to round-trip every serializable value
// kind without a bespoke XML schema per kind.
type xmlNode struct {
	XMLName xml.Name   `xml:"value"`
	Kind    string     `xml:"kind,attr"`
	Text    string     `xml:",chardata"`
	Entry   []xmlEntry `xml:"entry,omitempty"`
}

type xmlEntry struct {
	Key *xmlNode `xml:"key"`
	Val *xmlNode `xml:"val"`
}

// SerializeXML implements the XML-flavored counterpart to Serialize,
// used where the host wants a human-readable, tool-inspectable encoding
// instead of the compact binary form.
func SerializeXML(v Value) ([]byte, error) {
	node, err := toXMLNode(v)
	if err != nil {
		return nil, err
	}
	return xml.MarshalIndent(node, "", "  ")
}

func toXMLNode(v Value) (*xmlNode, error) {
	if r, ok := v.(*Reference); ok {
		if r.Target == nil {
			return &xmlNode{Kind: "null"}, nil
		}
		return toXMLNode(r.Target)
	}
	switch t := v.(type) {
	case *Integer:
		return &xmlNode{Kind: "integer", Text: strconv.FormatInt(t.V, 10)}, nil
	case *Float:
		return &xmlNode{Kind: "float", Text: strconv.FormatFloat(t.V, 'g', -1, 64)}, nil
	case *Char:
		return &xmlNode{Kind: "char", Text: string(rune(t.V))}, nil
	case *String:
		return &xmlNode{Kind: "string", Text: t.V}, nil
	case *Binary:
		return &xmlNode{Kind: "binary", Text: string(t.V)}, nil
	case *Vector:
		node := &xmlNode{Kind: "vector"}
		for _, item := range t.Items {
			child, err := toXMLNode(item)
			if err != nil {
				return nil, err
			}
			node.Entry = append(node.Entry, xmlEntry{Val: child})
		}
		return node, nil
	case *Map:
		node := &xmlNode{Kind: "map"}
		for _, e := range t.entries {
			kn, err := toXMLNode(e.key)
			if err != nil {
				return nil, err
			}
			vn, err := toXMLNode(e.val)
			if err != nil {
				return nil, err
			}
			node.Entry = append(node.Entry, xmlEntry{Key: kn, Val: vn})
		}
		return node, nil
	default:
		return nil, herror.New(herror.TypeError, "%s values cannot be serialized to XML", v.Kind())
	}
}

// DeserializeXML is the inverse of SerializeXML.
func DeserializeXML(data []byte) (Value, error) {
	var node xmlNode
	if err := xml.Unmarshal(data, &node); err != nil {
		return nil, herror.New(herror.RuntimeError, "invalid XML: %v", err)
	}
	return fromXMLNode(&node)
}

func fromXMLNode(node *xmlNode) (Value, error) {
	switch node.Kind {
	case "null":
		return NewReference(nil), nil
	case "integer":
		n, err := strconv.ParseInt(node.Text, 10, 64)
		if err != nil {
			return nil, herror.New(herror.RuntimeError, "invalid integer in XML: %v", err)
		}
		return NewInteger(n), nil
	case "float":
		f, err := strconv.ParseFloat(node.Text, 64)
		if err != nil {
			return nil, herror.New(herror.RuntimeError, "invalid float in XML: %v", err)
		}
		return NewFloat(f), nil
	case "char":
		if len(node.Text) == 0 {
			return NewChar(0), nil
		}
		return NewChar(node.Text[0]), nil
	case "string":
		return NewString(node.Text), nil
	case "binary":
		return NewBinary([]byte(node.Text)), nil
	case "vector":
		items := make([]Value, 0, len(node.Entry))
		for _, e := range node.Entry {
			child, err := fromXMLNode(e.Val)
			if err != nil {
				return nil, err
			}
			items = append(items, child)
		}
		return NewVector(items...), nil
	case "map":
		m := NewMap()
		for _, e := range node.Entry {
			key, err := fromXMLNode(e.Key)
			if err != nil {
				return nil, err
			}
			val, err := fromXMLNode(e.Val)
			if err != nil {
				return nil, err
			}
			m.Set(key, val)
		}
		return m, nil
	default:
		return nil, herror.New(herror.RuntimeError, "unknown XML value kind %q", node.Kind)
	}
}
