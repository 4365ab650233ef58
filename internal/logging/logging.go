// Package logging provides the leveled logger shared by the front-end.
// Output goes to named sinks attached at runtime; until a sink is attached
// nothing is written, which is how log suppression is implemented.
package logging

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Level represents the severity level of a log message.
type Level int

const (
	// LevelDebug is for detailed debugging information.
	LevelDebug Level = iota
	// LevelInfo is for general informational messages.
	LevelInfo
	// LevelWarn is for warning messages.
	LevelWarn
	// LevelError is for error messages.
	LevelError
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a string into a Level. Unknown strings map to LevelInfo.
func ParseLevel(s string) Level {
	switch s {
	case "debug", "DEBUG":
		return LevelDebug
	case "info", "INFO":
		return LevelInfo
	case "warn", "WARN", "warning", "WARNING":
		return LevelWarn
	case "error", "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger writes leveled, timestamped lines to its attached sinks.
type Logger struct {
	mu       sync.Mutex
	level    Level
	sinks    map[string]io.Writer
	prefix   string
	fields   map[string]any
	disabled bool
}

// Config configures the logger.
type Config struct {
	// Level is the minimum log level to output.
	Level Level
	// Prefix is prepended to all log messages.
	Prefix string
}

// DefaultConfig returns the default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Prefix: "emcon",
	}
}

// New creates a logger with the given configuration and no sinks attached.
func New(cfg Config) *Logger {
	return &Logger{
		level:  cfg.Level,
		sinks:  make(map[string]io.Writer),
		prefix: cfg.Prefix,
		fields: make(map[string]any),
	}
}

// Attach registers a named sink. Attaching under an existing name replaces
// that sink.
func (l *Logger) Attach(sink io.Writer, name string) {
	if sink == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sinks[name] = sink
}

// Detach removes a named sink. Unknown names are ignored.
func (l *Logger) Detach(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.sinks, name)
}

// SinkNames returns the names of all attached sinks.
func (l *Logger) SinkNames() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	names := make([]string, 0, len(l.sinks))
	for name := range l.sinks {
		names = append(names, name)
	}
	return names
}

// WithField returns a new logger with the given field added. The new logger
// shares the receiver's sinks.
func (l *Logger) WithField(key string, value any) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()

	newFields := make(map[string]any, len(l.fields)+1)
	for k, v := range l.fields {
		newFields[k] = v
	}
	newFields[key] = value

	return &Logger{
		level:    l.level,
		sinks:    l.sinks,
		prefix:   l.prefix,
		fields:   newFields,
		disabled: l.disabled,
	}
}

// WithComponent returns a new logger with the component field set.
func (l *Logger) WithComponent(component string) *Logger {
	return l.WithField("component", component)
}

// SetLevel sets the minimum log level.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// Disable disables all logging.
func (l *Logger) Disable() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.disabled = true
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, args ...any) {
	l.log(LevelDebug, msg, args...)
}

// Info logs an info message.
func (l *Logger) Info(msg string, args ...any) {
	l.log(LevelInfo, msg, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, args ...any) {
	l.log(LevelWarn, msg, args...)
}

// Error logs an error message.
func (l *Logger) Error(msg string, args ...any) {
	l.log(LevelError, msg, args...)
}

// log writes a log line to every attached sink if the level is enabled.
func (l *Logger) log(level Level, msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.disabled || level < l.level || len(l.sinks) == 0 {
		return
	}

	timestamp := time.Now().Format("2006-01-02T15:04:05.000")

	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}

	var line string
	if l.prefix != "" {
		line = fmt.Sprintf("%s [%s] %s: %s", timestamp, level.String(), l.prefix, msg)
	} else {
		line = fmt.Sprintf("%s [%s] %s", timestamp, level.String(), msg)
	}

	if len(l.fields) > 0 {
		line += " {"
		first := true
		for k, v := range l.fields {
			if !first {
				line += ", "
			}
			line += fmt.Sprintf("%s=%v", k, v)
			first = false
		}
		line += "}"
	}

	line += "\n"

	for _, sink := range l.sinks {
		_, _ = sink.Write([]byte(line))
	}
}

// NullLogger is a logger that discards all output.
var NullLogger = &Logger{disabled: true, sinks: map[string]io.Writer{}, fields: map[string]any{}}
