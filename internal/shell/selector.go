package shell

import (
	"path/filepath"

	"github.com/halcyonlabs/emcon/internal/logging"
)

// Select chooses the shell's transport from the run configuration, first
// match wins:
//
//  1. port >= 0: a TCP socket channel for remote or scripted access; no
//     window.
//  2. window suppressed: the headless no-op channel, whose reads never
//     block; no window.
//  3. otherwise: a terminal window, returned so the caller can Show it.
//
// Select always returns a usable channel.
func Select(port int, hideWindow bool, logger *logging.Logger) (IOChannel, *Terminal) {
	switch {
	case port >= 0:
		return NewSocketChannel(port, logger), nil
	case hideWindow:
		return NewNoopChannel(), nil
	default:
		term := NewTerminal(logger)
		return term, term
	}
}

// StartupCommand derives the single command to inject when the shell
// starts. An inline command takes precedence over a script path; a script
// path becomes an include directive with the path marked absolute ("@")
// or working-directory-relative ("$CWD/"). The returned text is injected
// verbatim into the interpreter's input.
func StartupCommand(inline, scriptPath string) (string, bool) {
	switch {
	case inline != "":
		return inline + "\n", true
	case scriptPath != "":
		if filepath.IsAbs(scriptPath) {
			return "i @" + scriptPath + "\n", true
		}
		return "i $CWD/" + scriptPath + "\n", true
	default:
		return "", false
	}
}
