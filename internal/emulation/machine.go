package emulation

import (
	"errors"
	"sort"
	"sync"
)

// Machine is a single simulated system inside an emulation.
type Machine struct {
	mu       sync.Mutex
	name     string
	disposed bool
}

// Name returns the machine's name.
func (m *Machine) Name() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.name
}

// IsDisposed returns true after the owning emulation has been cleared.
func (m *Machine) IsDisposed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.disposed
}

func (m *Machine) dispose() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disposed = true
}

// Emulation owns the machines of one simulation run.
type Emulation struct {
	mu       sync.Mutex
	machines map[string]*Machine
}

// Emulation errors.
var (
	// ErrMachineExists indicates a machine with that name is already present.
	ErrMachineExists = errors.New("machine already exists")

	// ErrMachineNotFound indicates no machine with that name is present.
	ErrMachineNotFound = errors.New("machine not found")
)

func newEmulation() *Emulation {
	return &Emulation{machines: make(map[string]*Machine)}
}

// AddMachine creates and registers a machine with the given name.
func (e *Emulation) AddMachine(name string) (*Machine, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.machines[name]; ok {
		return nil, ErrMachineExists
	}

	m := &Machine{name: name}
	e.machines[name] = m
	return m, nil
}

// Machine returns the machine with the given name.
func (e *Emulation) Machine(name string) (*Machine, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	m, ok := e.machines[name]
	if !ok {
		return nil, ErrMachineNotFound
	}
	return m, nil
}

// MachineNames returns the names of all machines, sorted.
func (e *Emulation) MachineNames() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	names := make([]string, 0, len(e.machines))
	for name := range e.machines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// dispose releases every machine. The emulation must not be used afterwards.
func (e *Emulation) dispose() {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, m := range e.machines {
		m.dispose()
	}
	e.machines = make(map[string]*Machine)
}
