// Package monitor implements the engine's command interpreter. The shell
// feeds it one line at a time; it holds the active machine context and
// raises signals when that context changes or when a quit is requested.
package monitor

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/halcyonlabs/emcon/internal/emulation"
	"github.com/halcyonlabs/emcon/internal/logging"
	"github.com/halcyonlabs/emcon/internal/signal"
)

// Monitor errors.
var (
	// ErrUnknownCommand indicates the line's first word matched no command.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrNoActiveMachine indicates a command needs a selected machine.
	ErrNoActiveMachine = errors.New("no machine selected")
)

// Monitor interprets command lines against the emulation manager.
// It is shared between the main goroutine and the shell worker; all
// exported methods are safe for concurrent use.
type Monitor struct {
	mu       sync.Mutex
	manager  *emulation.Manager
	registry *Registry
	out      io.Writer
	active   *emulation.Machine
	logger   *logging.Logger

	// ContextChanged fires with the newly selected machine, or nil when
	// the selection is cleared.
	ContextChanged *signal.Signal[*emulation.Machine]

	// Quitted fires once when the quit command runs.
	Quitted  *signal.Signal[struct{}]
	quitOnce sync.Once
}

// New creates a monitor bound to the emulation manager, with the built-in
// commands registered and output discarded until SetOutput is called.
func New(manager *emulation.Manager, logger *logging.Logger) *Monitor {
	if logger == nil {
		logger = logging.NullLogger
	}
	m := &Monitor{
		manager:        manager,
		registry:       NewRegistry(),
		out:            io.Discard,
		logger:         logger.WithComponent("monitor"),
		ContextChanged: signal.New[*emulation.Machine](),
		Quitted:        signal.New[struct{}](),
	}
	m.registerBuiltins()

	// A cleared emulation invalidates the active machine.
	manager.Changed.Connect(func(*emulation.Emulation) { m.ClearMachine() })

	return m
}

// SetOutput redirects the monitor's output sink. A nil writer discards.
func (m *Monitor) SetOutput(w io.Writer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w == nil {
		w = io.Discard
	}
	m.out = w
}

// Output returns the current output sink.
func (m *Monitor) Output() io.Writer {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.out
}

// Register adds a command to the monitor's registry.
func (m *Monitor) Register(cmd *Command) {
	m.registry.Register(cmd)
}

// ActiveMachine returns the currently selected machine, or nil.
func (m *Monitor) ActiveMachine() *emulation.Machine {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// SelectMachine sets the active machine context and fires ContextChanged.
func (m *Monitor) SelectMachine(name string) error {
	machine, err := m.manager.Current().Machine(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.active = machine
	m.mu.Unlock()

	m.ContextChanged.Emit(machine)
	return nil
}

// ClearMachine clears the active machine context and fires ContextChanged
// with nil. Clearing an already-empty context still notifies.
func (m *Monitor) ClearMachine() {
	m.mu.Lock()
	m.active = nil
	m.mu.Unlock()

	m.ContextChanged.Emit(nil)
}

// RequestQuit fires Quitted. Only the first request notifies.
func (m *Monitor) RequestQuit() {
	m.quitOnce.Do(func() {
		m.Quitted.Emit(struct{}{})
	})
}

// HandleLine parses and executes one command line. Empty lines and lines
// starting with '#' are ignored. Command failures are reported on the
// output sink and returned.
func (m *Monitor) HandleLine(line string) error {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}

	words := strings.Fields(line)
	cmd := m.registry.Get(words[0])
	if cmd == nil {
		err := fmt.Errorf("%w: %s", ErrUnknownCommand, words[0])
		fmt.Fprintf(m.Output(), "%v\n", err)
		return err
	}

	if err := cmd.Run(m, words[1:]); err != nil {
		fmt.Fprintf(m.Output(), "%s: %v\n", cmd.Name, err)
		return err
	}
	return nil
}

// Manager returns the emulation manager the monitor operates on.
func (m *Monitor) Manager() *emulation.Manager {
	return m.manager
}
