// Package gui manages the lifetime of the windowing layer. The terminal
// window rides on tcell, which owns process-global terminal state, so
// the subsystem is acquired once at startup and released exactly once
// during teardown.
package gui

import (
	"sync"

	"github.com/halcyonlabs/emcon/internal/logging"
)

// Subsystem is a scoped handle on the windowing layer. Acquire it
// before creating windows and release it once all windows are gone.
type Subsystem struct {
	logger *logging.Logger

	mu          sync.Mutex
	finalize    []func()
	releaseOnce sync.Once
	released    bool
}

// Acquire starts the windowing subsystem. A nil logger disables logging.
func Acquire(logger *logging.Logger) *Subsystem {
	if logger == nil {
		logger = logging.NullLogger
	}
	s := &Subsystem{logger: logger.WithComponent("gui")}
	s.logger.Debug("windowing subsystem acquired")
	return s
}

// OnRelease registers a cleanup hook to run when the subsystem is
// released. Hooks run in reverse registration order. A hook registered
// after release runs immediately.
func (s *Subsystem) OnRelease(fn func()) {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		fn()
		return
	}
	s.finalize = append(s.finalize, fn)
	s.mu.Unlock()
}

// Release tears down the windowing subsystem. Subsequent calls are
// no-ops.
func (s *Subsystem) Release() {
	s.releaseOnce.Do(func() {
		s.mu.Lock()
		s.released = true
		hooks := s.finalize
		s.finalize = nil
		s.mu.Unlock()

		for i := len(hooks) - 1; i >= 0; i-- {
			hooks[i]()
		}
		s.logger.Debug("windowing subsystem released")
	})
}

// Released reports whether Release has run.
func (s *Subsystem) Released() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.released
}
