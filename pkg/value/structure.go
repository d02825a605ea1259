package value

import "fmt"

// FieldDescriptor is one declared attribute slot shared by all instances of
// a structure or class prototype.
type FieldDescriptor struct {
	Name    string
	Access  Access
	Static  bool
	Default Value
}

// Access mirrors the visibility modifiers a class attribute or method may
// carry.
type Access int

const (
	AccessPublic Access = iota
	AccessProtected
	AccessPrivate
)

// MethodProto is a single concrete-arity implementation of a named method.
// Body is opaque to this package (an *ast.Node in practice); the engine
// invokes it itself, so pkg/value does not need to depend on pkg/ast or
// pkg/engine.
type MethodProto struct {
	Name string
	// Params names each formal in declaration order (the trailing '@'
	// collector excluded), so the engine can bind call arguments without
	// pkg/value needing to depend on pkg/ast's Param type.
	Params  []string
	Access  Access
	Static  bool
	Ctor    bool
	Arity   int
	Body    any // *ast.Node, opaque here
	Definer *Prototype
}

// Prototype is the constant, shared descriptor behind every Structure or
// Class value: the attribute layout (built by pkg/proto from a declaration,
// the generalized form of the teacher's compiler symbol table) and, for
// classes, the method-by-(name,arity) table called for by the "second
// level of dispatch" design note.
type Prototype struct {
	Name       string
	IsClass    bool
	SuperNames []string
	Fields     []FieldDescriptor
	// Methods maps a selector name to its prototypes, each with a distinct
	// arity within that name (the invariant in the data model section).
	Methods map[string][]*MethodProto
	// StaticValues holds the shared storage for Static fields; all
	// subclasses and instances reference the same slice by pointer, per
	// the class declaration semantics ("static attributes are shared by
	// reference so all subclasses see the same storage").
	StaticValues []Value
}

func NewPrototype(name string, isClass bool) *Prototype {
	return &Prototype{Name: name, IsClass: isClass, Methods: make(map[string][]*MethodProto)}
}

// FieldIndex returns the slot index of a named non-static field, or -1.
func (p *Prototype) FieldIndex(name string) int {
	slot := 0
	for _, f := range p.Fields {
		if f.Static {
			continue
		}
		if f.Name == name {
			return slot
		}
		slot++
	}
	return -1
}

// StaticIndex returns the slot index of a named static field within
// StaticValues — a compacted count of static fields seen so far, not the
// field's raw position in Fields (which also holds non-static entries).
func (p *Prototype) StaticIndex(name string) int {
	slot := 0
	for _, f := range p.Fields {
		if !f.Static {
			continue
		}
		if f.Name == name {
			return slot
		}
		slot++
	}
	return -1
}

// Field looks up a field descriptor by name regardless of static-ness.
func (p *Prototype) Field(name string) (FieldDescriptor, bool) {
	for _, f := range p.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDescriptor{}, false
}

// AddMethod registers a prototype, enforcing that no two prototypes of the
// same name share an arity (the class-value invariant in the data model).
func (p *Prototype) AddMethod(m *MethodProto) error {
	for _, existing := range p.Methods[m.Name] {
		if existing.Arity == m.Arity {
			return fmt.Errorf("method %s already has a prototype with arity %d", m.Name, m.Arity)
		}
	}
	m.Definer = p
	p.Methods[m.Name] = append(p.Methods[m.Name], m)
	return nil
}

// LookupMethod finds the prototype matching name and arity exactly.
func (p *Prototype) LookupMethod(name string, arity int) *MethodProto {
	for _, m := range p.Methods[name] {
		if m.Arity == arity {
			return m
		}
	}
	return nil
}

// Structure is a label-to-value mapping with a fixed, declaration-time
// attribute set.
type Structure struct {
	flags Flags
	Proto *Prototype
	Attrs []Value
}

func NewStructure(proto *Prototype) *Structure {
	attrs := make([]Value, 0, len(proto.Fields))
	for _, f := range proto.Fields {
		if f.Static {
			continue
		}
		if f.Default != nil {
			attrs = append(attrs, f.Default)
		} else {
			attrs = append(attrs, NewReference(nil))
		}
	}
	return &Structure{Proto: proto, Attrs: attrs}
}

func (s *Structure) Kind() Kind    { return KindStructure }
func (s *Structure) Flags() *Flags { return &s.flags }

func (s *Structure) Traverse(index int) (Value, bool) {
	if index < 0 || index >= len(s.Attrs) {
		return nil, false
	}
	return s.Attrs[index], true
}

func (s *Structure) Get(name string) (Value, error) {
	if i := s.Proto.FieldIndex(name); i >= 0 {
		return s.Attrs[i], nil
	}
	if i := s.Proto.StaticIndex(name); i >= 0 {
		return s.Proto.StaticValues[i], nil
	}
	return nil, fmt.Errorf("%s has no attribute %q", s.Proto.Name, name)
}

func (s *Structure) Set(name string, v Value) error {
	if i := s.Proto.FieldIndex(name); i >= 0 {
		s.Attrs[i] = v
		return nil
	}
	if i := s.Proto.StaticIndex(name); i >= 0 {
		s.Proto.StaticValues[i] = v
		return nil
	}
	return fmt.Errorf("%s has no attribute %q", s.Proto.Name, name)
}

// Clone returns a fresh instance with the same prototype and independent
// (copied) non-static attribute storage.
func (s *Structure) Clone() *Structure {
	attrs := make([]Value, len(s.Attrs))
	copy(attrs, s.Attrs)
	return &Structure{Proto: s.Proto, Attrs: attrs}
}

// Class extends Structure with method dispatch; it is a distinct Kind even
// though it shares Structure's attribute storage.
type Class struct {
	Structure
}

func NewClass(proto *Prototype) *Class {
	return &Class{Structure: *NewStructure(proto)}
}

func (c *Class) Kind() Kind { return KindClass }

func (c *Class) Clone() *Class {
	return &Class{Structure: *c.Structure.Clone()}
}

// AccessCheck enforces the access-control rule from the value & type
// registry contract: public allows any caller, protected only self,
// private only self and a matching definer class.
func AccessCheck(access Access, definer, accessorProto *Prototype, isSelf bool) error {
	switch access {
	case AccessPublic:
		return nil
	case AccessProtected:
		if !isSelf {
			return fmt.Errorf("protected member requires self access")
		}
		return nil
	case AccessPrivate:
		if !isSelf || definer != accessorProto {
			return fmt.Errorf("private member requires self access from its defining class")
		}
		return nil
	default:
		return fmt.Errorf("unknown access modifier")
	}
}
