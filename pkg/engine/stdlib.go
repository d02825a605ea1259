package engine

import (
	"github.com/kristofer/hybris/pkg/stdlib/collectionmod"
	"github.com/kristofer/hybris/pkg/stdlib/iomod"
	"github.com/kristofer/hybris/pkg/stdlib/mathmod"
	"github.com/kristofer/hybris/pkg/stdlib/stringmod"
	"github.com/kristofer/hybris/pkg/stdlib/threadmod"
	"github.com/kristofer/hybris/pkg/value"
)

// LoadStandardLibrary loads every representative native module into the
// engine's VM, in the fixed order math, string, collection, thread, io
// (earlier modules shadow later ones on a name clash, per the dispatcher's
// first-loaded-wins rule).
func (e *Engine) LoadStandardLibrary() {
	e.VM.Dispatcher.Load(mathmod.New(), e.registerGlobal)
	e.VM.Dispatcher.Load(stringmod.New(), e.registerGlobal)
	e.VM.Dispatcher.Load(collectionmod.New(e.CallByName), e.registerGlobal)
	e.VM.Dispatcher.Load(threadmod.New(e.SpawnThread), e.registerGlobal)
	e.VM.Dispatcher.Load(iomod.New(), e.registerGlobal)
}

// registerGlobal installs a module-init constant into the main scope's
// global frame, the register callback every Dispatcher.Load call receives.
func (e *Engine) registerGlobal(name string, v value.Value) {
	e.VM.MainScope.Global().Insert(name, v)
}
