// Package module implements the Module & Builtin Dispatch contract: the
// native-module ABI, the lookup cache, and call-site argument validation.
//
// This is a direct descendant of the teacher's pkg/bytecode: where that
// package packed a selector index and an argument count into a single
// instruction operand (SelectorIndexShift / ArgCountMask), this package
// packs an arity list and a per-argument type set into a Signature that
// describes a *call-site contract to validate* rather than an instruction
// to execute. The packing idiom carries over; what it describes does not.
package module

import (
	"fmt"

	"github.com/kristofer/hybris/pkg/herror"
	"github.com/kristofer/hybris/pkg/value"
)

// AnyArity is the arity-descriptor sentinel meaning "accept any argument
// count", matching the ABI's any-arity sentinel.
const AnyArity = -1

// TypeSet is a set of accepted value.Kind values for one argument
// position. A nil or empty TypeSet means "any type" (the ABI's any-type
// sentinel) rather than "no type accepted".
type TypeSet []value.Kind

// accepts reports whether kind satisfies this type set.
func (ts TypeSet) accepts(kind value.Kind) bool {
	if len(ts) == 0 {
		return true
	}
	for _, k := range ts {
		if k == kind {
			return true
		}
	}
	return false
}

// Arity is one accepted argument count for a function, built up from
// least to greatest the way the ABI's arity-descriptor list is ordered.
// Types holds the per-position accepted type sets for this arity; a
// shorter Types slice than the arity means the trailing positions accept
// any type.
type Arity struct {
	Count int
	Types []TypeSet
}

// Signature describes every accepted call shape for one named function:
// an ordered list of Arity descriptors (ascending by Count, or the single
// AnyArity sentinel meaning any count whatsoever) and whether the last
// declared parameter is variadic (collects extra arguments via `@`).
type Signature struct {
	Arities  []Arity
	Variadic bool
}

// Validate checks argc/args against sig, implementing the dispatch
// contract's argument-validation rule: select the first arity descriptor
// whose count is >= actual argc (the list is ordered ascending), or match
// the any-arity sentinel; then check each positional type.
func (sig Signature) Validate(name string, args []value.Value) error {
	argc := len(args)

	if len(sig.Arities) == 1 && sig.Arities[0].Count == AnyArity {
		return sig.checkTypes(name, sig.Arities[0], args)
	}

	for _, ar := range sig.Arities {
		if ar.Count >= argc {
			return sig.checkTypes(name, ar, args)
		}
	}
	if sig.Variadic && len(sig.Arities) > 0 {
		return sig.checkTypes(name, sig.Arities[len(sig.Arities)-1], args)
	}
	return herror.New(herror.SyntaxError,
		"%s: no matching arity for %d argument(s)", name, argc)
}

func (sig Signature) checkTypes(name string, ar Arity, args []value.Value) error {
	for i, arg := range args {
		if i >= len(ar.Types) {
			break
		}
		if !ar.Types[i].accepts(arg.Kind()) {
			return herror.New(herror.TypeError,
				"%s: argument %d has unexpected type %s", name, i+1, arg.Kind())
		}
	}
	return nil
}

// NativeFunc is the Go-level shape every native builtin implements: given
// the validated argument list, return a value or raise a herror.Error.
type NativeFunc func(args []value.Value) (value.Value, error)

// Function is one exported named function: its identifier, the native
// implementation, and the signature dispatch validates calls against —
// the ABI's "{identifier, pointer, arity-descriptor-array,
// type-descriptor-matrix}" entry.
type Function struct {
	Name string
	Fn   NativeFunc
	Sig  Signature
}

// Module mirrors the ABI contract a native module exports: hybris_module_name,
// an init hook, and its function table.
type Module struct {
	Name      string
	Functions map[string]*Function
	// Init runs once at load time; real modules use it to register
	// constants or user-defined types into the VM's global frame.
	Init func(register func(name string, v value.Value))
}

// NewModule builds an empty module ready to have functions registered onto
// it via Register.
func NewModule(name string) *Module {
	return &Module{Name: name, Functions: make(map[string]*Function)}
}

// Register adds fn to the module, matching hybris_module_functions'
// per-entry shape.
func (m *Module) Register(fn *Function) {
	m.Functions[fn.Name] = fn
}

func (m *Module) lookup(name string) (*Function, bool) {
	f, ok := m.Functions[name]
	return f, ok
}

// String satisfies fmt.Stringer for diagnostic dumps.
func (m *Module) String() string {
	return fmt.Sprintf("module %s (%d functions)", m.Name, len(m.Functions))
}
