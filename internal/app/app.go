// Package app orchestrates console startup: it acquires the windowing
// subsystem, builds the monitor and shell, wires lifecycle signals,
// injects the startup command and blocks until something requests exit,
// releasing everything on the way out.
package app

import (
	"fmt"
	"io"
	"os"

	"github.com/gdamore/tcell/v2"

	"github.com/halcyonlabs/emcon/internal/emulation"
	"github.com/halcyonlabs/emcon/internal/extension"
	"github.com/halcyonlabs/emcon/internal/gui"
	"github.com/halcyonlabs/emcon/internal/logging"
	"github.com/halcyonlabs/emcon/internal/monitor"
	"github.com/halcyonlabs/emcon/internal/shell"
)

// FrontEndTag identifies this front-end to the extension subsystem.
const FrontEndTag = "console"

// uartAnalyzer is the backend binding applied to UART-like peripherals
// when running locally, so their output lands on the console.
const (
	uartPeripheralKind = "uart"
	uartAnalyzer       = "console"
)

// Application runs the console front-end from construction to exit.
type Application struct {
	opts    Options
	logger  *logging.Logger
	manager *emulation.Manager
	exit    *ExitCoordinator

	monitor    *monitor.Monitor
	shell      *shell.Shell
	terminal   *shell.Terminal
	gui        *gui.Subsystem
	extensions *extension.Manager

	// errOut receives recoverable-failure diagnostics.
	errOut io.Writer
	// logSink is attached to the logger unless logging is suppressed.
	logSink io.Writer
	// screenFactory overrides the terminal's screen constructor when the
	// console is embedded behind a simulated display.
	screenFactory func() (tcell.Screen, error)
}

// New creates an Application for the given configuration.
func New(opts Options) *Application {
	logger := logging.New(logging.DefaultConfig())
	logger.SetLevel(logging.ParseLevel(opts.LogLevel))
	return &Application{
		opts:    opts,
		logger:  logger,
		manager: emulation.NewManager(),
		exit:    NewExitCoordinator(),
		errOut:  os.Stderr,
		logSink: os.Stderr,
	}
}

// SetErrorOutput redirects recoverable-failure diagnostics.
func (a *Application) SetErrorOutput(w io.Writer) {
	a.errOut = w
}

// SetLogSink replaces the console logging sink.
func (a *Application) SetLogSink(w io.Writer) {
	a.logSink = w
}

// SetScreenFactory overrides how the terminal window builds its screen.
// Must be called before Run.
func (a *Application) SetScreenFactory(fn func() (tcell.Screen, error)) {
	a.screenFactory = fn
}

// GUI returns the windowing subsystem handle. Nil before Run or when
// the GUI is suppressed.
func (a *Application) GUI() *gui.Subsystem {
	return a.gui
}

// Exit returns the process-exit coordinator.
func (a *Application) Exit() *ExitCoordinator {
	return a.exit
}

// Manager returns the emulation manager.
func (a *Application) Manager() *emulation.Manager {
	return a.manager
}

// Monitor returns the command interpreter. Nil before Run.
func (a *Application) Monitor() *monitor.Monitor {
	return a.monitor
}

// Shell returns the interactive shell. Nil before Run.
func (a *Application) Shell() *shell.Shell {
	return a.shell
}

// Run performs startup in dependency order, starts the shell worker and
// blocks until exit is requested. The optional hook runs with the
// construction context after everything is wired, for last-mile
// customization. Teardown is guaranteed on every exit path.
func (a *Application) Run(hook func(*Context)) {
	if !a.opts.DisableGUI {
		a.gui = gui.Acquire(a.logger)
		defer a.gui.Release()
	}
	defer a.manager.Dispose()

	ctx := NewContext()
	a.monitor = monitor.New(a.manager, a.logger)
	ctx.Register(MonitorName, a.monitor)
	ctx.Register(ManagerName, a.manager)

	// Extensions may resolve the monitor during their load, so the
	// registration above must already have happened.
	if a.opts.ExtensionsDir != "" {
		a.extensions = extension.NewManager(a.opts.ExtensionsDir, a.monitor, a.logger)
		defer a.extensions.Shutdown()
		if err := a.extensions.Initialize(FrontEndTag); err != nil {
			a.logger.Warn("extension initialization failed: %v", err)
		}
	}

	if !a.opts.DisableLogging {
		a.logger.Attach(a.logSink, "console")
	}

	a.manager.SetProgressHandler(func(operation string, fraction float64) {
		a.logger.Debug("%s: %.0f%%", operation, fraction*100)
	})

	// The analyzer binding is emulation-scoped, so it is re-applied on
	// every emulation change, not just once.
	if !a.opts.IsRemote() {
		a.manager.SetBackendPreference(uartPeripheralKind, uartAnalyzer)
		a.manager.Changed.Connect(func(*emulation.Emulation) {
			a.manager.SetBackendPreference(uartPeripheralKind, uartAnalyzer)
		})
	}

	channel, term := shell.Select(a.opts.Port, a.opts.HideWindow, a.logger)
	a.terminal = term
	if term != nil && a.screenFactory != nil {
		term.SetScreenFactory(a.screenFactory)
	}

	headless := !a.opts.IsRemote() && a.opts.HideWindow
	a.shell = shell.Build(channel, a.monitor, a.opts.IsRemote(), headless)
	a.shell.SetLogger(a.logger)
	if a.opts.HistoryPath != "" {
		a.shell.SetHistory(shell.LoadHistory(a.opts.HistoryPath))
	}
	ctx.Register(ShellName, a.shell)

	wireLifecycle(a.shell, a.terminal, a.monitor, a.exit)

	if cmd, ok := shell.StartupCommand(a.opts.Execute, a.opts.ScriptPath); ok {
		a.shell.QueueStartupCommand(cmd)
	}

	if a.terminal != nil {
		if err := a.terminal.Show(); err != nil {
			fmt.Fprintf(a.errOut, "could not open terminal window: %v\n", err)
			a.exit.Request()
		}
	}

	if !a.exit.Requested() {
		go Protect(a.shell.Run)
	}

	if hook != nil {
		hook(ctx)
	}

	a.exit.Wait()
	a.shell.Stop()
}
