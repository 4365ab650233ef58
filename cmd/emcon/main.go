// Package main is the entry point for the emcon console front-end.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/halcyonlabs/emcon/internal/app"
	"github.com/halcyonlabs/emcon/internal/monitor"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	app.Protect(func() {
		os.Exit(run())
	})
}

func run() int {
	opts := parseFlags()

	application := app.New(opts)

	// Handle signals for graceful shutdown
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-signals
		application.Exit().Request()
	}()

	application.Run(nil)
	return 0
}

func parseFlags() app.Options {
	opts := app.LoadDefaults(defaultConfigPath())
	if opts.ExtensionsDir == "" {
		opts.ExtensionsDir = defaultExtensionsDir()
	}
	if opts.HistoryPath == "" {
		opts.HistoryPath = defaultHistoryPath()
	}
	var showVersion bool
	var showHelp bool

	flag.IntVar(&opts.Port, "port", opts.Port, "Listen for commands on a TCP port instead of the local terminal")
	flag.IntVar(&opts.Port, "P", opts.Port, "Listen for commands on a TCP port (shorthand)")
	flag.BoolVar(&opts.DisableLogging, "hide-log", opts.DisableLogging, "Suppress console log output")
	flag.BoolVar(&opts.HideWindow, "hide-monitor", opts.HideWindow, "Do not open the monitor window")
	flag.BoolVar(&opts.DisableGUI, "disable-gui", opts.DisableGUI, "Do not start the windowing subsystem")
	flag.StringVar(&opts.Execute, "execute", "", "Command to run on startup")
	flag.StringVar(&opts.Execute, "e", "", "Command to run on startup (shorthand)")
	flag.StringVar(&opts.ScriptPath, "script", "", "Script to include on startup")
	flag.StringVar(&opts.ScriptPath, "s", "", "Script to include on startup (shorthand)")
	flag.StringVar(&opts.ExtensionsDir, "extensions", opts.ExtensionsDir, "Extension directory")
	flag.StringVar(&opts.HistoryPath, "history", opts.HistoryPath, "Command history file")
	flag.StringVar(&opts.LogLevel, "log-level", opts.LogLevel, "Log level (debug, info, warn, error)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "emcon - emulation monitor console\n\n")
		fmt.Fprintf(os.Stderr, "Usage: emcon [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  emcon                       Open the monitor window\n")
		fmt.Fprintf(os.Stderr, "  emcon -P 1234               Serve the monitor on TCP port 1234\n")
		fmt.Fprintf(os.Stderr, "  emcon -s demo.resc          Include a script on startup\n")
		fmt.Fprintf(os.Stderr, "  emcon -e \"mach list\"        Run a command on startup\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("emcon %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	// Validate log level
	switch opts.LogLevel {
	case "debug", "info", "warn", "error":
		// Valid
	default:
		fmt.Fprintf(os.Stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", opts.LogLevel)
		os.Exit(1)
	}

	monitor.Version = version

	return opts
}

// defaultConfigPath is the optional defaults file under the user config
// directory.
func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "emcon", "config.json")
}

// defaultExtensionsDir places extensions under the user config directory.
func defaultExtensionsDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "emcon", "extensions")
}

// defaultHistoryPath places history under the user config directory.
func defaultHistoryPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "emcon", "history.json")
}
