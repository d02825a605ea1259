// Package frame implements the Frame & Scope Manager: the per-thread stack
// of frames that roots every value reachable from user code, and the
// frame-state machine the engine uses to carry break/next/return/exception
// control flow without unwinding Go's own call stack.
package frame

import (
	"fmt"

	"github.com/kristofer/hybris/pkg/value"
)

// StateKind names one of the five frame states.
type StateKind int

const (
	None StateKind = iota
	Break
	Next
	Return
	Exception
)

func (k StateKind) String() string {
	switch k {
	case None:
		return "None"
	case Break:
		return "Break"
	case Next:
		return "Next"
	case Return:
		return "Return"
	case Exception:
		return "Exception"
	default:
		return "Unknown"
	}
}

// State pairs a frame-state kind with its optional carried value (a
// return value or the exception object).
type State struct {
	Kind  StateKind
	Value value.Value
}

// binding is one insert-ordered (name, value) pair in a frame.
type binding struct {
	name string
	val  value.Value
}

// Frame is an ordered mapping from identifier to value; it owns no value
// (the GC owns them) but roots every value it names, plus any temporary
// roots pushed during statement evaluation.
type Frame struct {
	Owner string
	Line  int

	bindings []binding
	index    map[string]int
	tmp      []value.Value

	state State

	// Vargs holds the caller-supplied arguments not bound to a named
	// formal, yielded by the '@' expression inside a function body.
	Vargs []value.Value

	// Self is the receiver bound inside a method body, nil in a plain
	// function frame; the identifier-resolution rule "self outside a
	// method fails with NameError" checks this.
	Self value.Value
}

// New creates an empty frame attributed to owner (used in stack traces).
func New(owner string) *Frame {
	return &Frame{Owner: owner, index: make(map[string]int)}
}

// Insert binds name to val, shadowing within this frame if name already has
// a binding here (functions get a fresh frame per call, so shadowing only
// happens for repeated `var` style redeclaration within one frame).
func (f *Frame) Insert(name string, val value.Value) {
	if i, ok := f.index[name]; ok {
		f.bindings[i].val = val
		return
	}
	f.index[name] = len(f.bindings)
	f.bindings = append(f.bindings, binding{name: name, val: val})
}

// Add is insert-or-replace, the frame's documented alias for Insert.
func (f *Frame) Add(name string, val value.Value) { f.Insert(name, val) }

// Get looks up name in this frame only; the engine chains across frames
// per the identifier resolution order.
func (f *Frame) Get(name string) (value.Value, bool) {
	i, ok := f.index[name]
	if !ok {
		return nil, false
	}
	return f.bindings[i].val, true
}

// Names returns every bound identifier in insertion order, for stack
// trace rendering and reflection.
func (f *Frame) Names() []string {
	out := make([]string, len(f.bindings))
	for i, b := range f.bindings {
		out[i] = b.name
	}
	return out
}

// PushTmp roots a value that is live during the current statement but not
// yet bound to a name, e.g. the iterable a foreach loop just evaluated.
func (f *Frame) PushTmp(v value.Value) { f.tmp = append(f.tmp, v) }

// RemoveTmp unroots the first temporary root identical to v (pointer
// identity, since temporaries are always the exact value pushed).
func (f *Frame) RemoveTmp(v value.Value) {
	for i, t := range f.tmp {
		if t == v {
			f.tmp = append(f.tmp[:i], f.tmp[i+1:]...)
			return
		}
	}
}

// RootValues returns every named and temporary value this frame roots, for
// the collector's mark phase.
func (f *Frame) RootValues() []value.Value {
	out := make([]value.Value, 0, len(f.bindings)+len(f.tmp)+len(f.Vargs)+1)
	for _, b := range f.bindings {
		out = append(out, b.val)
	}
	out = append(out, f.tmp...)
	out = append(out, f.Vargs...)
	if f.state.Value != nil {
		out = append(out, f.state.Value)
	}
	return out
}

// SetState transitions the frame into kind, carrying an optional value
// (the return value or exception object).
func (f *Frame) SetState(kind StateKind, val value.Value) { f.state = State{Kind: kind, Value: val} }

// UnsetState resets the frame to None, clearing any carried value.
func (f *Frame) UnsetState() { f.state = State{} }

// Is reports whether the frame currently carries the given state kind.
func (f *Frame) Is(kind StateKind) bool { return f.state.Kind == kind }

// StateValue returns the value carried by the current state, if any.
func (f *Frame) StateValue() value.Value { return f.state.Value }

// State returns the frame's current state.
func (f *Frame) State() State { return f.state }

func (f *Frame) String() string {
	return fmt.Sprintf("%s [line %d]", f.Owner, f.Line)
}
