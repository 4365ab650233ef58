// Package extension loads Lua extensions that augment the monitor with
// scripted commands. Extensions live under a directory, one subdirectory
// each, described by an extension.json manifest and entered through a
// Lua file executed on a dedicated goroutine.
package extension

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/halcyonlabs/emcon/internal/logging"
)

// Runner feeds command lines into the interpreter on behalf of
// extension scripts.
type Runner interface {
	HandleLine(line string) error
}

// loaded is one running extension instance.
type loaded struct {
	manifest *Manifest
	state    *lua.LState
	exec     *Executor
	cancel   context.CancelFunc
}

// Manager discovers, loads and runs extensions for a front-end.
type Manager struct {
	dir    string
	runner Runner
	logger *logging.Logger

	mu          sync.Mutex
	initialized map[string]bool
	exts        []*loaded
	shutdown    bool
}

// NewManager creates an extension manager rooted at dir. A nil logger
// disables logging.
func NewManager(dir string, runner Runner, logger *logging.Logger) *Manager {
	if logger == nil {
		logger = logging.NullLogger
	}
	return &Manager{
		dir:         dir,
		runner:      runner,
		logger:      logger.WithComponent("extension"),
		initialized: make(map[string]bool),
	}
}

// Initialize loads every extension under the manager's directory whose
// manifest targets the given front-end tag. Calling it again with the
// same tag is a no-op. Extensions that fail to load are logged and
// skipped; Initialize fails only if the directory itself cannot be read.
func (m *Manager) Initialize(tag string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shutdown {
		return fmt.Errorf("extension manager is shut down")
	}
	if m.initialized[tag] {
		return nil
	}
	m.initialized[tag] = true

	if m.dir == "" {
		return nil
	}
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read extension directory: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		manifestPath := filepath.Join(m.dir, entry.Name(), ManifestFileName)
		if _, err := os.Stat(manifestPath); err != nil {
			continue
		}
		manifest, err := LoadManifest(manifestPath)
		if err != nil {
			m.logger.Warn("skipping extension %s: %v", entry.Name(), err)
			continue
		}
		if !manifest.AppliesTo(tag) {
			continue
		}
		if m.isLoaded(manifest.Name) {
			continue
		}
		if err := m.load(manifest); err != nil {
			m.logger.Warn("failed to load extension %s: %v", manifest, err)
			continue
		}
		m.logger.Info("loaded extension %s", manifest)
	}
	return nil
}

// isLoaded reports whether an extension with the given name is running.
// Caller holds mu.
func (m *Manager) isLoaded(name string) bool {
	for _, e := range m.exts {
		if e.manifest.Name == name {
			return true
		}
	}
	return false
}

// load spins up a Lua state for the extension and runs its entry file.
// Caller holds mu.
func (m *Manager) load(manifest *Manifest) error {
	L := lua.NewState()
	m.registerBridge(L, manifest)

	exec := NewExecutor(L, 0)
	ctx, cancel := context.WithCancel(context.Background())
	go exec.Run(ctx)

	err := exec.Execute(ctx, func(L *lua.LState) error {
		return L.DoFile(manifest.MainPath())
	})
	if err != nil {
		cancel()
		exec.Close()
		L.Close()
		return err
	}

	m.exts = append(m.exts, &loaded{
		manifest: manifest,
		state:    L,
		exec:     exec,
		cancel:   cancel,
	})
	return nil
}

// registerBridge exposes the host API to extension scripts as the
// "emcon" module.
func (m *Manager) registerBridge(L *lua.LState, manifest *Manifest) {
	log := m.logger.WithField("extension", manifest.Name)

	mod := L.NewTable()
	L.SetField(mod, "run", L.NewFunction(func(L *lua.LState) int {
		line := L.CheckString(1)
		if err := m.runner.HandleLine(line); err != nil {
			L.Push(lua.LFalse)
			L.Push(lua.LString(err.Error()))
			return 2
		}
		L.Push(lua.LTrue)
		return 1
	}))
	L.SetField(mod, "log", L.NewFunction(func(L *lua.LState) int {
		log.Info("%s", L.CheckString(1))
		return 0
	}))
	L.SetField(mod, "name", lua.LString(manifest.Name))
	L.SetField(mod, "version", lua.LString(manifest.Version))
	L.SetGlobal("emcon", mod)
}

// Loaded returns the names of the running extensions, sorted.
func (m *Manager) Loaded() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, 0, len(m.exts))
	for _, e := range m.exts {
		names = append(names, e.manifest.Name)
	}
	sort.Strings(names)
	return names
}

// Shutdown stops every extension. It is idempotent.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shutdown {
		return
	}
	m.shutdown = true

	for _, e := range m.exts {
		e.exec.Close()
		e.cancel()
		e.state.Close()
	}
	m.exts = nil
}
