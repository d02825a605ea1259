package module

import (
	"sync"

	"github.com/kristofer/hybris/pkg/herror"
	"github.com/kristofer/hybris/pkg/value"
)

// Dispatcher holds every loaded module, in load order, plus the
// identifier-to-function lookup cache populated on first resolution.
// cacheMu is the lookup-cache mutex named in the five-mutex acquisition
// order; it is always acquired after the GC and scope mutexes and before
// the PCRE-cache and line-number mutexes, per the documented ordering.
type Dispatcher struct {
	cacheMu sync.Mutex
	cache   map[string]*Function

	modules []*Module
}

// NewDispatcher creates an empty dispatcher with no loaded modules.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{cache: make(map[string]*Function)}
}

// Load appends mod to the loaded-module list and runs its init hook. A
// path of the form "a.b.c" resolving to a filesystem module is the job of
// the host's module loader (not modeled here, since dlopen is out of
// scope per the extern-pointer note); Load only models the in-process
// registration step the ABI actually requires of pkg/module.
func (d *Dispatcher) Load(mod *Module, register func(name string, v value.Value)) {
	d.modules = append(d.modules, mod)
	if mod.Init != nil {
		mod.Init(register)
	}
}

// Resolve finds the native function bound to name, consulting the lookup
// cache first. On a cache miss it scans loaded modules in load order —
// first match wins, so earlier-loaded modules shadow later ones declaring
// the same name — and populates the cache before returning.
func (d *Dispatcher) Resolve(name string) (*Function, bool) {
	d.cacheMu.Lock()
	defer d.cacheMu.Unlock()

	if fn, ok := d.cache[name]; ok {
		return fn, true
	}
	for _, mod := range d.modules {
		if fn, ok := mod.lookup(name); ok {
			d.cache[name] = fn
			return fn, true
		}
	}
	return nil, false
}

// Call resolves name and invokes it after validating args against its
// signature, the single entry point the engine's call-node handler uses
// for native built-in dispatch.
func (d *Dispatcher) Call(name string, args []value.Value) (value.Value, error) {
	fn, ok := d.Resolve(name)
	if !ok {
		return nil, herror.New(herror.NameError, "undefined function %q", name)
	}
	if err := fn.Sig.Validate(name, args); err != nil {
		return nil, err
	}
	bound, vargs := splitVariadic(fn.Sig, args)
	_ = vargs // a native callee receives only the bound prefix; trailing arguments are not passed on
	return fn.Fn(bound)
}

// splitVariadic separates args into the formally-bound prefix and any
// trailing arguments a variadic signature collects for `@`.
func splitVariadic(sig Signature, args []value.Value) (bound []value.Value, vargs []value.Value) {
	if !sig.Variadic || len(sig.Arities) == 0 {
		return args, nil
	}
	minArity := sig.Arities[0].Count
	for _, ar := range sig.Arities {
		if ar.Count < minArity {
			minArity = ar.Count
		}
	}
	if len(args) <= minArity {
		return args, nil
	}
	return args[:minArity], args[minArity:]
}

// Modules returns every loaded module in load order, for diagnostics.
func (d *Dispatcher) Modules() []*Module {
	return d.modules
}
