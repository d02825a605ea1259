package value

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kristofer/hybris/pkg/herror"
)

// OpKind names one of the binary or unary operators the type registry's
// Operator contract dispatches on.
type OpKind int

const (
	OpAdd OpKind = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShl
	OpShr
	OpLt
	OpLe
	OpGt
	OpGe
	OpEq
	OpNe
)

// isNumeric reports whether v is an Integer, Float, or Char, and returns its
// value widened to float64 plus whether it was already floating point.
func isNumeric(v Value) (f float64, isFloat, ok bool) {
	switch t := v.(type) {
	case *Integer:
		return float64(t.V), false, true
	case *Float:
		return t.V, true, true
	case *Char:
		return float64(t.V), false, true
	}
	return 0, false, false
}

// Operator implements the arithmetic/bitwise/comparison contract every
// value kind's v-table exposes: float dominance when either operand is a
// Float, string concatenation on '+', and matrix multiplication on '*'
// between two Matrix operands.
func Operator(op OpKind, a, b Value) (Value, error) {
	if op == OpAdd {
		if as, ok := a.(*String); ok {
			return NewString(as.V + ToString(b)), nil
		}
		if bs, ok := b.(*String); ok {
			return NewString(ToString(a) + bs.V), nil
		}
	}
	if op == OpMul {
		if am, ok := a.(*Matrix); ok {
			if bm, ok := b.(*Matrix); ok {
				return am.MatMul(bm)
			}
		}
	}

	switch op {
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
		c, ok := Cmp(a, b)
		if !ok {
			if op == OpEq {
				return NewBool(false), nil
			}
			if op == OpNe {
				return NewBool(true), nil
			}
			return nil, herror.New(herror.TypeError, "cannot compare %s and %s", a.Kind(), b.Kind())
		}
		switch op {
		case OpEq:
			return NewBool(c == 0), nil
		case OpNe:
			return NewBool(c != 0), nil
		case OpLt:
			return NewBool(c < 0), nil
		case OpLe:
			return NewBool(c <= 0), nil
		case OpGt:
			return NewBool(c > 0), nil
		case OpGe:
			return NewBool(c >= 0), nil
		}
	}

	af, afloat, aok := isNumeric(a)
	bf, bfloat, bok := isNumeric(b)
	if !aok || !bok {
		return nil, herror.New(herror.TypeError, "unsupported operand types for operator: %s and %s", a.Kind(), b.Kind())
	}

	switch op {
	case OpBitAnd, OpBitOr, OpBitXor, OpShl, OpShr:
		ai, bi := int64(af), int64(bf)
		switch op {
		case OpBitAnd:
			return NewInteger(ai & bi), nil
		case OpBitOr:
			return NewInteger(ai | bi), nil
		case OpBitXor:
			return NewInteger(ai ^ bi), nil
		case OpShl:
			return NewInteger(ai << uint(bi)), nil
		case OpShr:
			return NewInteger(ai >> uint(bi)), nil
		}
	}

	useFloat := afloat || bfloat
	switch op {
	case OpAdd:
		if useFloat {
			return NewFloat(af + bf), nil
		}
		return NewInteger(int64(af) + int64(bf)), nil
	case OpSub:
		if useFloat {
			return NewFloat(af - bf), nil
		}
		return NewInteger(int64(af) - int64(bf)), nil
	case OpMul:
		if useFloat {
			return NewFloat(af * bf), nil
		}
		return NewInteger(int64(af) * int64(bf)), nil
	case OpDiv:
		if bf == 0 {
			return nil, herror.New(herror.RuntimeError, "division by zero")
		}
		if useFloat {
			return NewFloat(af / bf), nil
		}
		return NewInteger(int64(af) / int64(bf)), nil
	case OpMod:
		bi := int64(bf)
		if bi == 0 {
			return NewInteger(0), nil
		}
		ai := int64(af)
		if bi == 1 {
			return NewInteger(0), nil
		}
		// Fast path for power-of-two divisors, mirroring the modulo
		// shortcut the teacher's arithmetic helpers use.
		if bi > 0 && bi&(bi-1) == 0 {
			return NewInteger(ai & (bi - 1)), nil
		}
		return NewInteger(ai % bi), nil
	}
	return nil, herror.New(herror.TypeError, "unknown operator")
}

// Cmp structurally compares two values, returning (cmp, true) when an
// ordering is defined. Vectors and matrices compare element-wise and maps
// key by key; structures, classes and other kinds compare equal only when
// they are the same value.
func Cmp(a, b Value) (int, bool) {
	if af, afloat, aok := isNumeric(a); aok {
		if bf, _, bok := isNumeric(b); bok {
			switch {
			case af < bf:
				return -1, true
			case af > bf:
				return 1, true
			default:
				return 0, true
			}
		}
		_ = afloat
		return 0, false
	}
	switch at := a.(type) {
	case *String:
		if bt, ok := b.(*String); ok {
			return strings.Compare(at.V, bt.V), true
		}
	case *Binary:
		if bt, ok := b.(*Binary); ok {
			n := len(at.V)
			if len(bt.V) < n {
				n = len(bt.V)
			}
			for i := 0; i < n; i++ {
				if at.V[i] != bt.V[i] {
					if at.V[i] < bt.V[i] {
						return -1, true
					}
					return 1, true
				}
			}
			return len(at.V) - len(bt.V), true
		}
	case *Vector:
		if bt, ok := b.(*Vector); ok {
			if len(at.Items) != len(bt.Items) {
				return len(at.Items) - len(bt.Items), true
			}
			for i := range at.Items {
				c, ok := Cmp(at.Items[i], bt.Items[i])
				if !ok || c != 0 {
					return c, ok
				}
			}
			return 0, true
		}
	case *Reference:
		if bt, ok := b.(*Reference); ok {
			if at.Target == nil && bt.Target == nil {
				return 0, true
			}
			if at.Target == nil || bt.Target == nil {
				return 1, true
			}
			return Cmp(at.Target, bt.Target)
		}
	case *Map:
		if bt, ok := b.(*Map); ok {
			if at.Len() != bt.Len() {
				return at.Len() - bt.Len(), true
			}
			for _, k := range at.Keys() {
				av, _ := at.At(k)
				bv, ok := bt.At(k)
				if !ok {
					return 1, true
				}
				c, ok := Cmp(av, bv)
				if !ok || c != 0 {
					return c, ok
				}
			}
			return 0, true
		}
	case *Matrix:
		if bt, ok := b.(*Matrix); ok {
			if at.Rows != bt.Rows || at.Cols != bt.Cols {
				return len(at.Items) - len(bt.Items), true
			}
			for i := range at.Items {
				c, ok := Cmp(at.Items[i], bt.Items[i])
				if !ok || c != 0 {
					return c, ok
				}
			}
			return 0, true
		}
	}
	if a == b {
		return 0, true
	}
	return 0, false
}

// ToString implements the to_string contract every value kind's v-table
// exposes, used for printing, string concatenation, and map key encoding.
func ToString(v Value) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case *Integer:
		return strconv.FormatInt(t.V, 10)
	case *Float:
		return strconv.FormatFloat(t.V, 'g', -1, 64)
	case *Char:
		return string(rune(t.V))
	case *String:
		return t.V
	case *Binary:
		return fmt.Sprintf("%x", t.V)
	case *Vector:
		parts := make([]string, len(t.Items))
		for i, item := range t.Items {
			parts[i] = ToString(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *Map:
		parts := make([]string, len(t.entries))
		for i, e := range t.entries {
			parts[i] = ToString(e.key) + " => " + ToString(e.val)
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case *Matrix:
		return fmt.Sprintf("matrix(%dx%d)", t.Rows, t.Cols)
	case *Structure:
		return fmt.Sprintf("%s@%p", t.Proto.Name, t)
	case *Class:
		return fmt.Sprintf("%s@%p", t.Proto.Name, t)
	case *Reference:
		if t.Target == nil {
			return "null"
		}
		return ToString(t.Target)
	case *Alias:
		return "function " + t.Name
	case *Handle:
		return fmt.Sprintf("handle@%p", t)
	case *Extern:
		return fmt.Sprintf("extern@%d", t.Addr)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ToInt implements the to_int contract, used by subscript indices, the
// `~` operator, and native argument conversion.
func ToInt(v Value) (int64, error) {
	switch t := v.(type) {
	case *Integer:
		return t.V, nil
	case *Float:
		return int64(t.V), nil
	case *Char:
		return int64(t.V), nil
	case *String:
		n, err := strconv.ParseInt(strings.TrimSpace(t.V), 10, 64)
		if err != nil {
			return 0, herror.New(herror.TypeError, "cannot convert %q to an integer", t.V)
		}
		return n, nil
	case *Reference:
		if t.Target == nil {
			return 0, nil
		}
		return ToInt(t.Target)
	default:
		return 0, herror.New(herror.TypeError, "cannot convert %s to an integer", v.Kind())
	}
}

// GetSize implements the get_size contract: element count for collections
// and strings, byte length for binary, 0 for scalars.
func GetSize(v Value) int {
	switch t := v.(type) {
	case *String:
		return len(t.V)
	case *Binary:
		return len(t.V)
	case *Vector:
		return len(t.Items)
	case *Map:
		return len(t.entries)
	case *Matrix:
		return t.Rows * t.Cols
	case *Structure:
		return len(t.Attrs)
	case *Class:
		return len(t.Attrs)
	default:
		return 0
	}
}
