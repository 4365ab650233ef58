package monitor

import (
	"sort"
	"sync"
)

// Command is a named operation the monitor can execute.
type Command struct {
	// Name is the word that invokes the command.
	Name string
	// Aliases are alternative invocation words.
	Aliases []string
	// Help is a one-line usage description.
	Help string
	// Run executes the command with the remaining words of the line.
	Run func(m *Monitor, args []string) error
}

// Registry manages command registration by invocation word.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]*Command
}

// NewRegistry creates an empty command registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]*Command)}
}

// Register adds a command under its name and aliases. A later registration
// with the same name replaces the earlier one.
func (r *Registry) Register(cmd *Command) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.commands[cmd.Name] = cmd
	for _, alias := range cmd.Aliases {
		r.commands[alias] = cmd
	}
}

// Get returns the command registered under the given word.
// Returns nil if no command is registered.
func (r *Registry) Get(word string) *Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.commands[word]
}

// Has returns true if a command is registered under the given word.
func (r *Registry) Has(word string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.commands[word]
	return ok
}

// Names returns all primary command names, sorted. Aliases are skipped.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.commands))
	for word, cmd := range r.commands {
		if word == cmd.Name {
			names = append(names, word)
		}
	}
	sort.Strings(names)
	return names
}
