package vm

import (
	"github.com/kristofer/hybris/pkg/frame"
	"github.com/kristofer/hybris/pkg/herror"
	"github.com/kristofer/hybris/pkg/value"
)

// exceptionProto is the constant structure prototype every host-raised
// herror.Error is boxed into so it can travel through a frame's Exception
// state and be bound in a catch clause like any other value — the type
// registry's closed Kind set has no dedicated "exception" tag, so a
// Structure with kind/message fields is the natural fit, the same way the
// teacher represented errors as plain Go error values wrapping a message.
var exceptionProto = func() *value.Prototype {
	p := value.NewPrototype("Exception", false)
	p.Fields = []value.FieldDescriptor{{Name: "kind"}, {Name: "message"}}
	return p
}()

// NewExceptionValue boxes a herror.Error as a Structure instance so it can
// be carried by frame.State and bound by name in a catch clause.
func NewExceptionValue(err *herror.Error) *value.Structure {
	s := value.NewStructure(exceptionProto)
	s.Set("kind", value.NewString(string(err.ErrKind)))
	s.Set("message", value.NewString(err.Message))
	return s
}

// CaptureStack builds a herror.Frame slice from a scope's current call
// stack, innermost frame last, for attaching to a raised herror.Error —
// the generalized form of the teacher's pushFrame/popFrame bookkeeping
// feeding RuntimeError.Error()'s stack trace rendering.
func CaptureStack(scope *frame.Scope) []herror.Frame {
	frames := scope.Frames()
	out := make([]herror.Frame, len(frames))
	for i, f := range frames {
		out[i] = herror.Frame{Owner: f.Owner, Line: f.Line}
	}
	return out
}

// Raise attaches the current thread's call stack to err and sets top's
// state to Exception carrying the boxed error — the mechanism through
// which host-raised runtime faults become engine-visible exceptions
// (spec.md §4.4's control-flow guard inspects exactly this state).
func Raise(top *frame.Frame, scope *frame.Scope, err *herror.Error) {
	withStack := err.WithStack(CaptureStack(scope))
	top.SetState(frame.Exception, NewExceptionValue(withStack))
}
