package logging_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/halcyonlabs/emcon/internal/logging"
)

func TestNoSinkNoOutput(t *testing.T) {
	l := logging.New(logging.DefaultConfig())

	// Must not panic and must not block with nothing attached.
	l.Info("dropped")
}

func TestAttachAndLog(t *testing.T) {
	l := logging.New(logging.DefaultConfig())

	var buf bytes.Buffer
	l.Attach(&buf, "console")

	l.Info("machine %s ready", "m1")

	out := buf.String()
	if !strings.Contains(out, "[INFO]") {
		t.Errorf("expected INFO tag in %q", out)
	}
	if !strings.Contains(out, "machine m1 ready") {
		t.Errorf("expected formatted message in %q", out)
	}
	if !strings.Contains(out, "emcon") {
		t.Errorf("expected prefix in %q", out)
	}
}

func TestLevelFiltering(t *testing.T) {
	l := logging.New(logging.Config{Level: logging.LevelWarn, Prefix: "test"})

	var buf bytes.Buffer
	l.Attach(&buf, "console")

	l.Debug("hidden")
	l.Info("hidden")
	l.Warn("shown")
	l.Error("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("expected debug/info to be filtered, got %q", out)
	}
	if strings.Count(out, "shown") != 2 {
		t.Errorf("expected 2 shown lines, got %q", out)
	}
}

func TestMultipleSinks(t *testing.T) {
	l := logging.New(logging.DefaultConfig())

	var a, b bytes.Buffer
	l.Attach(&a, "console")
	l.Attach(&b, "file")

	l.Error("fan out")

	if !strings.Contains(a.String(), "fan out") || !strings.Contains(b.String(), "fan out") {
		t.Error("expected message on both sinks")
	}
}

func TestDetach(t *testing.T) {
	l := logging.New(logging.DefaultConfig())

	var buf bytes.Buffer
	l.Attach(&buf, "console")
	l.Detach("console")

	l.Info("gone")

	if buf.Len() != 0 {
		t.Errorf("expected no output after detach, got %q", buf.String())
	}
}

func TestWithComponent(t *testing.T) {
	l := logging.New(logging.DefaultConfig())

	var buf bytes.Buffer
	l.Attach(&buf, "console")

	l.WithComponent("shell").Info("hello")

	if !strings.Contains(buf.String(), "component=shell") {
		t.Errorf("expected component field, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want logging.Level
	}{
		{"debug", logging.LevelDebug},
		{"INFO", logging.LevelInfo},
		{"warning", logging.LevelWarn},
		{"error", logging.LevelError},
		{"bogus", logging.LevelInfo},
	}

	for _, tt := range tests {
		if got := logging.ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNullLogger(t *testing.T) {
	logging.NullLogger.Error("must not panic")
}
