package app

import (
	"os"

	"github.com/tidwall/gjson"
)

// LoadDefaults reads the optional defaults file and overlays it on the
// built-in defaults. A missing or malformed file yields DefaultOptions;
// command-line flags override whatever the file set.
func LoadDefaults(path string) Options {
	opts := DefaultOptions()
	if path == "" {
		return opts
	}
	data, err := os.ReadFile(path)
	if err != nil || !gjson.ValidBytes(data) {
		return opts
	}

	if v := gjson.GetBytes(data, "port"); v.Exists() {
		opts.Port = int(v.Int())
	}
	if v := gjson.GetBytes(data, "hide_log"); v.Exists() {
		opts.DisableLogging = v.Bool()
	}
	if v := gjson.GetBytes(data, "hide_monitor"); v.Exists() {
		opts.HideWindow = v.Bool()
	}
	if v := gjson.GetBytes(data, "disable_gui"); v.Exists() {
		opts.DisableGUI = v.Bool()
	}
	if v := gjson.GetBytes(data, "extensions_dir"); v.Exists() {
		opts.ExtensionsDir = v.String()
	}
	if v := gjson.GetBytes(data, "history_path"); v.Exists() {
		opts.HistoryPath = v.String()
	}
	if v := gjson.GetBytes(data, "log_level"); v.Exists() {
		opts.LogLevel = v.String()
	}
	return opts
}
