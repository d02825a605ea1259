// Command hybris runs a Hybris script: it parses the flags documented in
// the CLI surface, wires a *vm.VM and *engine.Engine, loads the standard
// library, parses the script, and evaluates it on the main scope.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"

	"github.com/kristofer/hybris/pkg/ast"
	"github.com/kristofer/hybris/pkg/engine"
	"github.com/kristofer/hybris/pkg/frame"
	"github.com/kristofer/hybris/pkg/gc"
	"github.com/kristofer/hybris/pkg/herror"
	"github.com/kristofer/hybris/pkg/parser"
	"github.com/kristofer/hybris/pkg/value"
	"github.com/kristofer/hybris/pkg/vm"
)

// Compile-time defaults for the module search path, overridden by
// HYBRIS_LIB_PATH / HYBRIS_INC_PATH.
const (
	defaultLibPath = "/usr/local/lib/hybris"
	defaultIncPath = "."
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run parses flags, evaluates the named script, and returns the process
// exit code: 0 on success, non-zero on a parse failure, an uncaught
// exception, or a fatal host-level error.
func run(args []string) int {
	fs := flag.NewFlagSet("hybris", flag.ContinueOnError)
	fs.Usage = func() { printUsage(fs) }

	timing := fs.Bool("t", false, "print execution timing on exit")
	stackTrace := fs.Bool("s", false, "print a stack trace on an uncaught exception")
	gcThreshold := fs.Uint64("g", 0, "override the GC collect threshold, in bytes")
	mmThreshold := fs.Uint64("m", 0, "override the memory cap (OutOfMemory threshold), in bytes")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		printUsage(fs)
		return 2
	}

	scriptPath := fs.Arg(0)
	scriptArgv := fs.Args()[1:]

	source, err := os.ReadFile(scriptPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hybris: cannot read %s: %v\n", scriptPath, err)
		return 1
	}

	p := parser.New(string(source))
	program, perr := p.Parse()
	if perr != nil {
		fmt.Fprintf(os.Stderr, "hybris: %v\n", perr)
		return 1
	}

	cfg := gc.DefaultConfig()
	if *gcThreshold > 0 {
		cfg.CollectThreshold = *gcThreshold
	}
	if *mmThreshold > 0 {
		cfg.MMThreshold = *mmThreshold
	}

	opts := []vm.Option{
		vm.WithGCConfig(cfg),
		vm.WithLogger(zerolog.Nop()),
		vm.WithLibPath(envOr("HYBRIS_LIB_PATH", defaultLibPath)),
		vm.WithIncPath(envOr("HYBRIS_INC_PATH", defaultIncPath)),
		vm.WithArgv(scriptArgv),
		vm.WithStackTrace(*stackTrace),
		vm.WithTiming(*timing),
	}
	machine := vm.New(opts...)
	e := engine.New(machine)
	e.LoadStandardLibrary()

	start := time.Now()
	code := evalProgram(e, machine, program, *stackTrace)
	if *timing {
		fmt.Fprintf(os.Stderr, "hybris: executed in %s\n", time.Since(start))
	}
	return code
}

// evalProgram runs program on the VM's main scope and reports the outcome:
// an unhandled exception or a host-level error is printed in red (matching
// the teacher's colorized diagnostics) and maps to a non-zero exit code.
func evalProgram(e *engine.Engine, machine *vm.VM, program *ast.Node, stackTrace bool) int {
	scope := machine.MainScope
	top := scope.Top()

	_, err := e.Eval(scope, top, program)
	if err != nil {
		printFatal(err)
		return 1
	}

	if top.Is(frame.Exception) {
		herr := unboxException(top.StateValue())
		fmt.Fprintln(os.Stderr, color.RedString(herr.String(stackTrace)))
		return 1
	}
	return 0
}

// unboxException reconstructs a plain *herror.Error from the Exception
// structure the engine boxes every raised error into (pkg/vm/errors.go's
// "kind"/"message" fields), for uniform top-level rendering.
func unboxException(v value.Value) *herror.Error {
	s, ok := v.(*value.Structure)
	if !ok {
		return herror.New(herror.RuntimeError, "%s", value.ToString(v))
	}
	kind, kerr := s.Get("kind")
	message, merr := s.Get("message")
	if kerr != nil || merr != nil {
		return herror.New(herror.RuntimeError, "malformed exception value")
	}
	return &herror.Error{ErrKind: herror.Kind(value.ToString(kind)), Message: value.ToString(message)}
}

func printFatal(err error) {
	fmt.Fprintln(os.Stderr, color.RedString("hybris: fatal: %v", err))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintln(os.Stderr, "usage: hybris [-t] [-s] [-g N] [-m N] script.hy [argv...]")
	fs.PrintDefaults()
}
