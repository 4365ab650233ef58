package monitor

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Version is the interpreter version reported by the version command.
// Overridden at build time via ldflags.
var Version = "dev"

// Include errors.
var (
	// ErrMissingPath indicates the include directive had no path argument.
	ErrMissingPath = errors.New("script path required")
)

func (m *Monitor) registerBuiltins() {
	m.Register(&Command{
		Name: "help",
		Help: "list available commands",
		Run:  runHelp,
	})
	m.Register(&Command{
		Name:    "quit",
		Aliases: []string{"q"},
		Help:    "quit the monitor",
		Run:     runQuit,
	})
	m.Register(&Command{
		Name:    "include",
		Aliases: []string{"i"},
		Help:    "include <path>: run a script file line by line",
		Run:     runInclude,
	})
	m.Register(&Command{
		Name: "mach",
		Help: "mach set <name> | clear | list: manage the active machine",
		Run:  runMach,
	})
	m.Register(&Command{
		Name: "version",
		Help: "print the interpreter version",
		Run:  runVersion,
	})
}

func runHelp(m *Monitor, _ []string) error {
	out := m.Output()
	for _, name := range m.registry.Names() {
		cmd := m.registry.Get(name)
		fmt.Fprintf(out, "%-12s %s\n", name, cmd.Help)
	}
	return nil
}

func runQuit(m *Monitor, _ []string) error {
	m.RequestQuit()
	return nil
}

func runVersion(m *Monitor, _ []string) error {
	fmt.Fprintf(m.Output(), "emcon %s\n", Version)
	return nil
}

func runMach(m *Monitor, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: mach set <name> | clear | list")
	}

	switch args[0] {
	case "set":
		if len(args) < 2 {
			return errors.New("usage: mach set <name>")
		}
		return m.SelectMachine(args[1])

	case "clear":
		m.ClearMachine()
		return nil

	case "list":
		out := m.Output()
		names := m.manager.Current().MachineNames()
		if len(names) == 0 {
			fmt.Fprintln(out, "no machines")
			return nil
		}
		active := m.ActiveMachine()
		for _, name := range names {
			marker := " "
			if active != nil && active.Name() == name {
				marker = "*"
			}
			fmt.Fprintf(out, "%s %s\n", marker, name)
		}
		return nil

	default:
		return fmt.Errorf("unknown mach subcommand: %s", args[0])
	}
}

// runInclude executes a script file line by line. The path uses the wire
// form produced at startup injection: a leading '@' marks an absolute
// path, a leading "$CWD/" resolves against the working directory.
func runInclude(m *Monitor, args []string) error {
	if len(args) == 0 {
		return ErrMissingPath
	}

	path, err := ResolveScriptPath(args[0])
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("include %s: %w", path, err)
	}
	defer f.Close()

	m.logger.Debug("including script %s", path)

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if err := m.HandleLine(scanner.Text()); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// ResolveScriptPath maps the include directive's path form to a filesystem
// path: "@/abs/file" to "/abs/file", "$CWD/rel" against the working
// directory, anything else as-is.
func ResolveScriptPath(arg string) (string, error) {
	switch {
	case strings.HasPrefix(arg, "@"):
		return arg[1:], nil
	case strings.HasPrefix(arg, "$CWD/"):
		cwd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		return filepath.Join(cwd, arg[len("$CWD/"):]), nil
	default:
		return arg, nil
	}
}
