package value

// Reference is a non-owning pointer value. A Reference with a nil Target
// represents the `null` predefined constant.
type Reference struct {
	flags  Flags
	Target Value
}

func NewReference(target Value) *Reference { return &Reference{Target: target} }

func (r *Reference) Kind() Kind    { return KindReference }
func (r *Reference) Flags() *Flags { return &r.flags }

// Traverse does not yield the referenced target: a Reference is
// non-owning, so the collector must not treat it as a rooting edge (doing
// so would keep a value alive purely because something points at it, which
// would make References behave like ownership rather than aliasing).
func (r *Reference) Traverse(int) (Value, bool) { return nil, false }

// Alias names an AST function node (a first-class function handle). Node is
// opaque here (an *ast.Node in practice) to avoid an import cycle between
// pkg/value and pkg/ast's consumers; Name records which declaration it
// points at for diagnostics and `call(name, ...)` reflection.
type Alias struct {
	flags Flags
	Name  string
	Node  any
}

func NewAlias(name string, node any) *Alias { return &Alias{Name: name, Node: node} }

func (a *Alias) Kind() Kind                 { return KindAlias }
func (a *Alias) Flags() *Flags              { return &a.flags }
func (a *Alias) Traverse(int) (Value, bool) { return nil, false }

// Handle wraps an opaque native pointer (e.g. an open file) carried through
// script values without the engine needing to know its concrete Go type.
type Handle struct {
	flags Flags
	Ptr   any
}

func NewHandle(ptr any) *Handle { return &Handle{Ptr: ptr} }

func (h *Handle) Kind() Kind                 { return KindHandle }
func (h *Handle) Flags() *Flags              { return &h.flags }
func (h *Handle) Traverse(int) (Value, bool) { return nil, false }

// Extern wraps a native function reachable through the FFI dispatcher. In
// place of a real dlopen/cgo symbol address (not portably reachable from a
// pure Go module), Fn is the in-process Go closure the "extern pointer"
// resolves to; Addr is a stable, arbitrary numeric id retained for
// stringification and equality, standing in for the original's raw address.
type Extern struct {
	flags Flags
	Addr  uint64
	Fn    func(args []Value) (Value, error)
}

func NewExtern(addr uint64, fn func(args []Value) (Value, error)) *Extern {
	return &Extern{Addr: addr, Fn: fn}
}

func (e *Extern) Kind() Kind                 { return KindExtern }
func (e *Extern) Flags() *Flags              { return &e.flags }
func (e *Extern) Traverse(int) (Value, bool) { return nil, false }
