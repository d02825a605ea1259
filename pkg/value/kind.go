// Package value implements the Value & Type Registry: the tagged value
// representation and the operator/conversion/collection dispatch table
// described in the language specification.
//
// Each concrete value kind (Integer, Float, Vector, Class, ...) is its own
// Go type implementing the Value interface — the "sum type over value kinds
// plus trait methods" redesign, generalized from the teacher VM's
// interface{}-typed stack slots (pkg/vm/vm.go's add/subtract/lessThan
// family) into a closed, kind-tagged type set. Cross-type operations that
// need both operands (arithmetic, comparison, regex application) live in
// registry.go as package-level functions that switch on Kind, mirroring the
// teacher's per-operator switch-on-type methods.
package value

// Kind tags a Value with its runtime type.
type Kind int

const (
	KindInteger Kind = iota
	KindFloat
	KindChar
	KindString
	KindBinary
	KindVector
	KindMap
	KindMatrix
	KindStructure
	KindClass
	KindReference
	KindAlias
	KindHandle
	KindExtern
)

// String names a Kind for diagnostics and stringification.
func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindChar:
		return "char"
	case KindString:
		return "string"
	case KindBinary:
		return "binary"
	case KindVector:
		return "vector"
	case KindMap:
		return "map"
	case KindMatrix:
		return "matrix"
	case KindStructure:
		return "structure"
	case KindClass:
		return "class"
	case KindReference:
		return "reference"
	case KindAlias:
		return "alias"
	case KindHandle:
		return "handle"
	case KindExtern:
		return "extern"
	default:
		return "unknown"
	}
}

// Flags holds the small per-value bitfield the GC and engine consult:
// Constant values are exempt from collection, Referenced is the mark bit
// set only during an active collection cycle, and Static marks a
// class-level (shared) attribute slot.
type Flags struct {
	Constant   bool
	Referenced bool
	Static     bool
}

// Value is implemented by every concrete runtime value kind. Traverse lets
// the collector enumerate owned children without knowing the concrete type:
// callers increment index from 0 until ok is false.
type Value interface {
	Kind() Kind
	Flags() *Flags
	Traverse(index int) (child Value, ok bool)
}
