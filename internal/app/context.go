package app

import (
	"errors"
	"sync"
)

// ErrNotRegistered is returned when resolving a name nothing was
// registered under.
var ErrNotRegistered = errors.New("nothing registered under that name")

// Context is the construction-time registry. Components built during
// startup are registered under well-known names so later construction
// steps, extensions and caller hooks can resolve them without ambient
// globals.
type Context struct {
	mu      sync.RWMutex
	entries map[string]any
}

// Well-known registration names.
const (
	MonitorName = "monitor"
	ShellName   = "shell"
	ManagerName = "emulation-manager"
)

// NewContext creates an empty construction context.
func NewContext() *Context {
	return &Context{entries: make(map[string]any)}
}

// Register stores a component under a name, replacing any previous
// registration.
func (c *Context) Register(name string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[name] = value
}

// Resolve returns the component registered under a name.
func (c *Context) Resolve(name string) (any, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[name]
	if !ok {
		return nil, ErrNotRegistered
	}
	return v, nil
}

// Has reports whether a name is registered.
func (c *Context) Has(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.entries[name]
	return ok
}
