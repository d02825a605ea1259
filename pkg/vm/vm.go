// Package vm wires the Garbage Collector, Frame & Scope Manager, Module &
// Builtin Dispatch, and predefined constants into the single explicit VM
// struct the engine operates on — the redesign note's "explicit VM struct
// parameters, not global process-wide state" (spec.md §9), generalized
// from the teacher's VM struct (pkg/vm/vm.go), which held the same kind of
// role for its stack-based bytecode interpreter.
package vm

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/kristofer/hybris/pkg/frame"
	"github.com/kristofer/hybris/pkg/gc"
	"github.com/kristofer/hybris/pkg/module"
	"github.com/kristofer/hybris/pkg/proto"
	"github.com/kristofer/hybris/pkg/value"
)

// Version is the interpreter version exposed to scripts as __VERSION__.
const Version = "1.0.0"

// VM is the interpreter's top-level state container. Every subsystem that
// needs cross-cutting state (the collector, the scope manager, the module
// dispatcher) is a field here, passed explicitly to pkg/engine rather than
// reached via package-level globals.
type VM struct {
	GC         *gc.Collector
	Scopes     *frame.Manager
	MainScope  *frame.Scope
	Dispatcher *module.Dispatcher
	Types      *proto.Registry

	// LineMu guards CurrentLine, the line-number mutex named fifth in the
	// five-mutex acquisition order.
	LineMu      sync.Mutex
	CurrentLine int

	// gcMu is the GC mutex, first in the acquisition order; owned here so
	// its identity is singular and shared with gc.Collector.
	gcMu sync.Mutex

	// gcConfig is staged by WithGCConfig and consumed once, in New, after
	// every Option has run.
	gcConfig gc.Config

	LibPath string
	IncPath string
	Argv    []string

	Log zerolog.Logger

	StackTrace bool
	Timing     bool

	Debugger Hook
}

// Option configures a VM at construction time.
type Option func(*VM)

func WithGCConfig(cfg gc.Config) Option {
	return func(v *VM) { v.gcConfig = cfg }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(v *VM) { v.Log = logger }
}

func WithLibPath(path string) Option {
	return func(v *VM) { v.LibPath = path }
}

func WithIncPath(path string) Option {
	return func(v *VM) { v.IncPath = path }
}

func WithArgv(argv []string) Option {
	return func(v *VM) { v.Argv = argv }
}

func WithStackTrace(enabled bool) Option {
	return func(v *VM) { v.StackTrace = enabled }
}

func WithTiming(enabled bool) Option {
	return func(v *VM) { v.Timing = enabled }
}

// New builds a VM with its main-thread scope, collector, module dispatcher,
// and type registry all wired together, plus the predefined constants
// installed into the main scope's global frame.
func New(opts ...Option) *VM {
	v := &VM{
		Scopes:     frame.NewManager(),
		Dispatcher: module.NewDispatcher(),
		Types:      proto.NewRegistry(),
		Log:        zerolog.Nop(),
		Debugger:   NoopHook{},
	}
	v.gcConfig = gc.DefaultConfig()
	for _, opt := range opts {
		opt(v)
	}
	v.GC = gc.New(v.gcConfig, &v.gcMu, v.Log)

	v.MainScope = frame.NewScope()
	global := frame.New("main")
	v.MainScope.Push(global)

	v.installConstants(global)
	return v
}

func (v *VM) installConstants(global *frame.Frame) {
	global.Insert("true", v.GC.TrackConstant(value.NewBool(true), 8))
	global.Insert("false", v.GC.TrackConstant(value.NewBool(false), 8))
	global.Insert("null", v.GC.TrackConstant(value.NewReference(nil), 8))
	global.Insert("__VERSION__", v.GC.TrackConstant(value.NewString(Version), uint64(len(Version))))
	global.Insert("__LIB_PATH__", v.GC.TrackConstant(value.NewString(v.LibPath), uint64(len(v.LibPath))))
	global.Insert("__INC_PATH__", v.GC.TrackConstant(value.NewString(v.IncPath), uint64(len(v.IncPath))))
	global.Insert("argc", v.GC.TrackConstant(value.NewInteger(int64(len(v.Argv))), 8))

	argv := value.NewVector()
	for _, a := range v.Argv {
		argv.Push(value.NewString(a))
	}
	global.Insert("argv", v.GC.TrackConstant(argv, uint64(len(v.Argv))*8))
}

// CollectIfNeeded runs a GC cycle against the main scope if the collector's
// threshold has been crossed; the engine calls this at each statement
// boundary, never mid-expression.
func (v *VM) CollectIfNeeded() {
	if v.GC.ShouldCollect() {
		v.GC.Collect(v.MainScope)
	}
}

// SetLine records the current source line under the line-number mutex,
// for diagnostics and stack traces.
func (v *VM) SetLine(line int) {
	v.LineMu.Lock()
	v.CurrentLine = line
	v.LineMu.Unlock()
}

// Line reads the current source line under the line-number mutex.
func (v *VM) Line() int {
	v.LineMu.Lock()
	defer v.LineMu.Unlock()
	return v.CurrentLine
}
