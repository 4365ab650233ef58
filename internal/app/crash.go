package app

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"
)

// crashExitCode is the process exit code after an unhandled fault.
const crashExitCode = 2

// exitFunc is swapped in tests to observe the abort path.
var exitFunc = os.Exit

// Protect is the last-resort fault boundary. It runs fn and, if a panic
// escapes, writes a crash report and terminates the process with a
// non-zero code. It wraps main and every worker goroutine the
// orchestrator spawns, so a fault on any of them reaches the same
// handler.
func Protect(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			reportCrash(r, debug.Stack())
			exitFunc(crashExitCode)
		}
	}()
	fn()
}

// reportCrash writes a crash report file and points at it on stderr.
// Failing to write the file falls back to dumping on stderr.
func reportCrash(cause any, stack []byte) {
	report := fmt.Sprintf("unhandled fault: %v\n\n%s", cause, stack)

	name := fmt.Sprintf("emcon-crash-%s.txt", time.Now().Format("20060102-150405"))
	path := filepath.Join(os.TempDir(), name)
	if err := os.WriteFile(path, []byte(report), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %s", report)
		return
	}
	fmt.Fprintf(os.Stderr, "fatal: unhandled fault: %v\ncrash report written to %s\n", cause, path)
}
