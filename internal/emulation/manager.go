// Package emulation provides the engine-side state the front-end talks to:
// the current emulation with its machines, per-peripheral backend analyzer
// preferences, and the change/progress notifications the front-end wires up.
// Simulation behavior itself lives outside this module.
package emulation

import (
	"sync"

	"github.com/halcyonlabs/emcon/internal/signal"
)

// ProgressHandler receives long-running operation progress reports.
// fraction is in [0, 1].
type ProgressHandler func(operation string, fraction float64)

// Manager owns the current emulation and engine-wide bindings.
// It is shared between the main goroutine and the shell worker.
type Manager struct {
	mu       sync.Mutex
	current  *Emulation
	prefs    map[string]string
	progress ProgressHandler
	disposed bool

	// Changed fires with the new emulation whenever the current emulation
	// is replaced. Backend preferences are emulation-scoped, so interested
	// parties re-apply them on every notification.
	Changed *signal.Signal[*Emulation]
}

// NewManager creates a manager holding a fresh, empty emulation.
func NewManager() *Manager {
	return &Manager{
		current: newEmulation(),
		prefs:   make(map[string]string),
		Changed: signal.New[*Emulation](),
	}
}

// Current returns the current emulation.
func (mgr *Manager) Current() *Emulation {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	return mgr.current
}

// Clear disposes the current emulation and replaces it with a fresh one.
// Backend preferences do not survive the switch; Changed fires with the
// new emulation so they can be re-applied.
func (mgr *Manager) Clear() {
	mgr.mu.Lock()
	old := mgr.current
	mgr.current = newEmulation()
	mgr.prefs = make(map[string]string)
	next := mgr.current
	mgr.mu.Unlock()

	old.dispose()
	mgr.Changed.Emit(next)
}

// SetBackendPreference binds the preferred analyzer for a peripheral kind
// (e.g. "uart") in the scope of the current emulation.
func (mgr *Manager) SetBackendPreference(peripheralKind, analyzer string) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	mgr.prefs[peripheralKind] = analyzer
}

// BackendPreference returns the preferred analyzer for a peripheral kind.
func (mgr *Manager) BackendPreference(peripheralKind string) (string, bool) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	analyzer, ok := mgr.prefs[peripheralKind]
	return analyzer, ok
}

// SetProgressHandler registers the handler for progress reports, replacing
// any previous one.
func (mgr *Manager) SetProgressHandler(h ProgressHandler) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	mgr.progress = h
}

// ReportProgress delivers a progress report to the registered handler, if any.
func (mgr *Manager) ReportProgress(operation string, fraction float64) {
	mgr.mu.Lock()
	h := mgr.progress
	mgr.mu.Unlock()

	if h != nil {
		h(operation, fraction)
	}
}

// Dispose releases all engine-owned resources. Safe to call more than once.
func (mgr *Manager) Dispose() {
	mgr.mu.Lock()
	if mgr.disposed {
		mgr.mu.Unlock()
		return
	}
	mgr.disposed = true
	old := mgr.current
	mgr.mu.Unlock()

	old.dispose()
}
