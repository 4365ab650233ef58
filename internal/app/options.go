package app

// Options is the immutable run configuration, captured once at process
// start from command-line flags.
type Options struct {
	// Port selects the remote transport. A negative value means no
	// remote transport; the console runs locally.
	Port int

	// DisableLogging suppresses the console logging sink.
	DisableLogging bool

	// HideWindow suppresses the local terminal window. With no remote
	// transport this selects the headless channel.
	HideWindow bool

	// DisableGUI skips acquiring the windowing subsystem.
	DisableGUI bool

	// Execute is a one-shot command to run as soon as the shell starts.
	Execute string

	// ScriptPath is a script to include as soon as the shell starts.
	// Ignored when Execute is set.
	ScriptPath string

	// ExtensionsDir is the directory extensions are loaded from. Empty
	// disables extension loading.
	ExtensionsDir string

	// HistoryPath is where the shell persists command history. Empty
	// keeps history in memory only.
	HistoryPath string

	// LogLevel sets the logging verbosity.
	LogLevel string
}

// DefaultOptions returns the configuration for a plain local run.
func DefaultOptions() Options {
	return Options{
		Port:     -1,
		LogLevel: "info",
	}
}

// IsRemote reports whether a remote transport is selected.
func (o Options) IsRemote() bool {
	return o.Port >= 0
}
