// Package proto builds value.Prototype descriptors from ast.Field/
// ast.MethodDecl declarations: the attribute-slot and method-by-arity
// table assignment that backs structure and class declarations.
//
// This is the generalized form of the teacher's pkg/compiler symbol-table
// builder (compileStatement's ClassDefinition handling, which walked
// declared instance variables and assigned them slot indices) retargeted
// from "build a symbol table consumed by bytecode" to "build a Prototype
// consumed directly by the tree-walking engine" — there is no bytecode
// stage in between.
package proto

import (
	"github.com/kristofer/hybris/pkg/ast"
	"github.com/kristofer/hybris/pkg/herror"
	"github.com/kristofer/hybris/pkg/value"
)

// Registry holds every structure/class prototype declared so far, keyed
// by name, standing in for the engine's "user-defined-types table".
type Registry struct {
	protos map[string]*value.Prototype
}

func NewRegistry() *Registry {
	return &Registry{protos: make(map[string]*value.Prototype)}
}

func (r *Registry) Get(name string) (*value.Prototype, bool) {
	p, ok := r.protos[name]
	return p, ok
}

func (r *Registry) put(p *value.Prototype) { r.protos[p.Name] = p }

// BuildStructure constructs a Prototype for a structure declaration: each
// field starts at its declared default, evaluated by evalDefault (supplied
// by the engine, since defaults are arbitrary expressions).
func (r *Registry) BuildStructure(decl *ast.Node, evalDefault func(*ast.Node) (value.Value, error)) (*value.Prototype, error) {
	if _, exists := r.protos[decl.Identifier]; exists {
		return nil, herror.New(herror.SyntaxError, "structure %q already declared", decl.Identifier)
	}
	p := value.NewPrototype(decl.Identifier, false)
	for _, f := range decl.Fields {
		fd := value.FieldDescriptor{
			Name:   f.Name,
			Access: value.Access(f.Access),
			Static: f.Static,
		}
		if f.Default != nil {
			v, err := evalDefault(f.Default)
			if err != nil {
				return nil, err
			}
			fd.Default = v
		}
		p.Fields = append(p.Fields, fd)
	}
	p.StaticValues = make([]value.Value, countStatic(p.Fields))
	assignStaticDefaults(p)
	r.put(p)
	return p, nil
}

// BuildClass constructs a Prototype for a class declaration, copying every
// base class's attributes and methods into the new class (each base is
// looked up in the registry and must already exist) and sharing static
// storage by reference so subclasses observe the same static slots.
func (r *Registry) BuildClass(decl *ast.Node, evalDefault func(*ast.Node) (value.Value, error), bindBody func(*ast.Node) any) (*value.Prototype, error) {
	if _, exists := r.protos[decl.Identifier]; exists {
		return nil, herror.New(herror.SyntaxError, "class %q already declared", decl.Identifier)
	}
	p := value.NewPrototype(decl.Identifier, true)

	for _, superName := range superNamesOf(decl) {
		base, ok := r.protos[superName]
		if !ok {
			return nil, herror.New(herror.NameError, "base class %q not found", superName)
		}
		p.SuperNames = append(p.SuperNames, superName)
		p.Fields = append(p.Fields, base.Fields...)
		for name, methods := range base.Methods {
			for _, m := range methods {
				inherited := *m
				inherited.Definer = base
				p.Methods[name] = append(p.Methods[name], &inherited)
			}
		}
		// Static storage is shared by reference: point directly at the
		// base's slice rather than copying values, so writes through any
		// subclass are visible to every other subclass and the base.
		p.StaticValues = base.StaticValues
	}

	for _, f := range decl.Fields {
		fd := value.FieldDescriptor{
			Name:   f.Name,
			Access: value.Access(f.Access),
			Static: f.Static,
		}
		if f.Default != nil {
			v, err := evalDefault(f.Default)
			if err != nil {
				return nil, err
			}
			fd.Default = v
		}
		p.Fields = append(p.Fields, fd)
	}
	if p.StaticValues == nil {
		p.StaticValues = make([]value.Value, countStatic(p.Fields))
		assignStaticDefaults(p)
	}

	for _, m := range decl.Methods {
		params := make([]string, len(m.Params))
		for i, p := range m.Params {
			params[i] = p.Name
		}
		method := &value.MethodProto{
			Name:   m.Name,
			Params: params,
			Access: value.Access(m.Access),
			Static: m.Static,
			Ctor:   m.Ctor,
			Arity:  len(m.Params),
			Body:   bindBody(m.Body),
		}
		if err := p.AddMethod(method); err != nil {
			return nil, herror.New(herror.SyntaxError, "%v", err)
		}
	}

	r.put(p)
	return p, nil
}

func countStatic(fields []value.FieldDescriptor) int {
	n := 0
	for _, f := range fields {
		if f.Static {
			n++
		}
	}
	return n
}

func assignStaticDefaults(p *value.Prototype) {
	i := 0
	for _, f := range p.Fields {
		if !f.Static {
			continue
		}
		if f.Default != nil {
			p.StaticValues[i] = f.Default
		} else {
			p.StaticValues[i] = value.NewReference(nil)
		}
		i++
	}
}

func superNamesOf(decl *ast.Node) []string {
	if decl.SuperClass == "" {
		return nil
	}
	return []string{decl.SuperClass}
}
