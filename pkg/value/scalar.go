package value

// Integer, Float, and Char are value-like but boxed as pointers so the GC
// can track and trace them uniformly with collections, per the data model.
type Integer struct {
	flags Flags
	V     int64
}

func NewInteger(v int64) *Integer { return &Integer{V: v} }

func (i *Integer) Kind() Kind                       { return KindInteger }
func (i *Integer) Flags() *Flags                    { return &i.flags }
func (i *Integer) Traverse(int) (Value, bool)       { return nil, false }

type Float struct {
	flags Flags
	V     float64
}

func NewFloat(v float64) *Float { return &Float{V: v} }

func (f *Float) Kind() Kind                   { return KindFloat }
func (f *Float) Flags() *Flags                { return &f.flags }
func (f *Float) Traverse(int) (Value, bool)   { return nil, false }

type Char struct {
	flags Flags
	V     byte
}

func NewChar(v byte) *Char { return &Char{V: v} }

func (c *Char) Kind() Kind                 { return KindChar }
func (c *Char) Flags() *Flags              { return &c.flags }
func (c *Char) Traverse(int) (Value, bool) { return nil, false }

// String owns its bytes.
type String struct {
	flags Flags
	V     string
}

func NewString(v string) *String { return &String{V: v} }

func (s *String) Kind() Kind                 { return KindString }
func (s *String) Flags() *Flags              { return &s.flags }
func (s *String) Traverse(int) (Value, bool) { return nil, false }

// Binary is an ordered sequence of octets.
type Binary struct {
	flags Flags
	V     []byte
}

func NewBinary(v []byte) *Binary { return &Binary{V: v} }

func (b *Binary) Kind() Kind                 { return KindBinary }
func (b *Binary) Flags() *Flags              { return &b.flags }
func (b *Binary) Traverse(int) (Value, bool) { return nil, false }

// Bool is represented as an Integer (0/1), matching the predefined
// constants `true=1`, `false=0` in the external interfaces section — there
// is no separate boolean kind.
func NewBool(b bool) *Integer {
	if b {
		return NewInteger(1)
	}
	return NewInteger(0)
}

// Truthy reports whether v should be treated as true in a boolean context:
// any non-zero integer/float, any non-empty string, a non-nil reference, or
// any collection/structure/class value (presence is truth).
func Truthy(v Value) bool {
	switch t := v.(type) {
	case *Integer:
		return t.V != 0
	case *Float:
		return t.V != 0
	case *Char:
		return t.V != 0
	case *String:
		return t.V != ""
	case *Reference:
		return t.Target != nil
	case nil:
		return false
	default:
		return true
	}
}
