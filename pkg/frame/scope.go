package frame

import (
	"sync"

	"github.com/google/uuid"

	"github.com/kristofer/hybris/pkg/herror"
	"github.com/kristofer/hybris/pkg/value"
)

// DefaultRecursionLimit is the configured depth at which the engine fails
// with StackOverflow, matching the documented default.
const DefaultRecursionLimit = 10000

// Scope is a per-thread ordered list of frames (a call stack). The main
// thread's scope lives directly on the VM; worker threads get their own
// Scope registered in a Manager under the scope mutex.
type Scope struct {
	frames         []*Frame
	recursionLimit int
}

// NewScope creates an empty scope with the default recursion limit.
func NewScope() *Scope {
	return &Scope{recursionLimit: DefaultRecursionLimit}
}

// Push appends a new frame onto the scope, failing with StackOverflow if
// doing so would exceed the configured recursion limit.
func (s *Scope) Push(f *Frame) error {
	if len(s.frames) >= s.recursionLimit {
		return herror.New(herror.StackOverflow,
			"recursion limit of %d frames exceeded", s.recursionLimit)
	}
	s.frames = append(s.frames, f)
	return nil
}

// Pop removes and returns the innermost frame.
func (s *Scope) Pop() *Frame {
	if len(s.frames) == 0 {
		return nil
	}
	top := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]
	return top
}

// Top returns the innermost frame without removing it.
func (s *Scope) Top() *Frame {
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

// Global returns the outermost frame, the scope's top-level bindings.
func (s *Scope) Global() *Frame {
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[0]
}

// Frames returns every frame in the scope, outermost first, for stack
// trace printing.
func (s *Scope) Frames() []*Frame {
	return s.frames
}

// Depth reports how many frames are currently pushed.
func (s *Scope) Depth() int { return len(s.frames) }

// RootValues implements gc.Root by flattening every frame's roots, which
// is what "for each frame in the current thread's scope" means in the
// collector's mark step.
func (s *Scope) RootValues() []value.Value {
	var out []value.Value
	for _, f := range s.frames {
		out = append(out, f.RootValues()...)
	}
	return out
}

// Manager keys worker-thread scopes by a minted thread id, guarded by its
// own mutex (the scope mutex named in the five-mutex acquisition order).
// The main thread's scope is kept separately on pkg/vm.VM, per the data
// model's "main thread's scope is stored on the VM directly".
type Manager struct {
	mu     sync.Mutex
	scopes map[string]*Scope
}

func NewManager() *Manager {
	return &Manager{scopes: make(map[string]*Scope)}
}

// Register mints a new thread id, installs an empty Scope for it, and
// returns the id the caller should use for subsequent lookups.
func (m *Manager) Register() string {
	id := uuid.NewString()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scopes[id] = NewScope()
	return id
}

// Lookup returns the scope registered for threadID, if any.
func (m *Manager) Lookup(threadID string) (*Scope, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.scopes[threadID]
	return s, ok
}

// Unregister removes a thread's scope once it has joined/terminated.
func (m *Manager) Unregister(threadID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.scopes, threadID)
}

// ThreadIDs returns every currently registered thread id, for diagnostics.
func (m *Manager) ThreadIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.scopes))
	for id := range m.scopes {
		ids = append(ids, id)
	}
	return ids
}
