package shell_test

import (
	"bytes"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/halcyonlabs/emcon/internal/shell"
)

// scriptChannel feeds a fixed byte sequence and records output.
type scriptChannel struct {
	mu      sync.Mutex
	input   []byte
	pos     int
	out     bytes.Buffer
	cancelc chan struct{}
	closed  bool
}

func newScriptChannel(input string) *scriptChannel {
	return &scriptChannel{input: []byte(input), cancelc: make(chan struct{}, 1)}
}

func (c *scriptChannel) ReadByte() (byte, error) {
	c.mu.Lock()
	if c.pos < len(c.input) {
		b := c.input[c.pos]
		c.pos++
		c.mu.Unlock()
		return b, nil
	}
	c.mu.Unlock()

	// Input exhausted: block until cancelled, like a quiet terminal.
	<-c.cancelc
	return 0, shell.ErrReadCancelled
}

func (c *scriptChannel) WriteByte(b byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.out.WriteByte(b)
	return nil
}

func (c *scriptChannel) Flush() error { return nil }

func (c *scriptChannel) CancelRead() {
	select {
	case c.cancelc <- struct{}{}:
	default:
	}
}

func (c *scriptChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *scriptChannel) output() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.out.String()
}

// recordingInterp records every line it is handed.
type recordingInterp struct {
	mu    sync.Mutex
	lines []string
	out   io.Writer
}

func (r *recordingInterp) HandleLine(line string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, line)
	return nil
}

func (r *recordingInterp) SetOutput(w io.Writer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.out = w
}

func (r *recordingInterp) handled() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.lines))
	copy(out, r.lines)
	return out
}

func waitSignal(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func TestShellFeedsLinesToInterpreter(t *testing.T) {
	channel := newScriptChannel("mach list\nversion\n\x04")
	interp := &recordingInterp{}

	s := shell.Build(channel, interp, true, true)

	quitted := make(chan struct{})
	s.Quitted.Connect(func(struct{}) { close(quitted) })

	go s.Run()
	waitSignal(t, quitted, "shell quit")

	lines := interp.handled()
	if len(lines) != 2 || lines[0] != "mach list" || lines[1] != "version" {
		t.Errorf("expected [mach list, version], got %v", lines)
	}
}

func TestShellStartedFires(t *testing.T) {
	channel := newScriptChannel("\x04")
	s := shell.Build(channel, &recordingInterp{}, true, true)

	started := make(chan struct{})
	s.Started.Connect(func(struct{}) { close(started) })

	go s.Run()
	waitSignal(t, started, "shell start")
}

func TestShellStartupInjectionBeforeInput(t *testing.T) {
	channel := newScriptChannel("typed\n\x04")
	interp := &recordingInterp{}

	s := shell.Build(channel, interp, true, true)
	s.QueueStartupCommand("injected\n")

	quitted := make(chan struct{})
	s.Quitted.Connect(func(struct{}) { close(quitted) })

	go s.Run()
	waitSignal(t, quitted, "shell quit")

	lines := interp.handled()
	if len(lines) != 2 || lines[0] != "injected" || lines[1] != "typed" {
		t.Errorf("expected injection before typed input, got %v", lines)
	}
}

func TestShellStopInterruptsBlockedRead(t *testing.T) {
	channel := newScriptChannel("") // blocks immediately
	s := shell.Build(channel, &recordingInterp{}, true, true)

	quitted := make(chan struct{})
	s.Quitted.Connect(func(struct{}) { close(quitted) })

	go s.Run()
	time.Sleep(20 * time.Millisecond)
	s.Stop()

	waitSignal(t, quitted, "shell quit after stop")
}

func TestShellHeadlessParksUntilStop(t *testing.T) {
	s := shell.Build(shell.NewNoopChannel(), &recordingInterp{}, true, true)

	quitted := make(chan struct{})
	s.Quitted.Connect(func(struct{}) { close(quitted) })

	go s.Run()

	select {
	case <-quitted:
		t.Fatal("headless shell must not quit on its own")
	case <-time.After(50 * time.Millisecond):
	}

	s.Stop()
	waitSignal(t, quitted, "headless shell quit after stop")
}

func TestShellWritesPrompt(t *testing.T) {
	channel := newScriptChannel("\x04")
	s := shell.Build(channel, &recordingInterp{}, true, true)

	quitted := make(chan struct{})
	s.Quitted.Connect(func(struct{}) { close(quitted) })

	go s.Run()
	waitSignal(t, quitted, "shell quit")

	if !strings.Contains(channel.output(), shell.DefaultPromptLabel) {
		t.Errorf("expected default prompt in output, got %q", channel.output())
	}
}

func TestShellSetPromptNilRestoresDefault(t *testing.T) {
	channel := newScriptChannel("")
	s := shell.Build(channel, &recordingInterp{}, true, true)

	s.SetPrompt(shell.NewPrompt("(m1) ", shell.ContextPromptColor))
	if got := s.CurrentPrompt().Label; got != "(m1) " {
		t.Errorf("expected (m1) prompt, got %q", got)
	}

	s.SetPrompt(nil)
	if got := s.CurrentPrompt().Label; got != shell.DefaultPromptLabel {
		t.Errorf("expected default prompt after clear, got %q", got)
	}
	s.Stop()
}

func TestShellInteractiveEcho(t *testing.T) {
	channel := newScriptChannel("hi\n\x04")
	s := shell.Build(channel, &recordingInterp{}, false, true)

	quitted := make(chan struct{})
	s.Quitted.Connect(func(struct{}) { close(quitted) })

	go s.Run()
	waitSignal(t, quitted, "shell quit")

	if !strings.Contains(channel.output(), "hi") {
		t.Errorf("expected typed text echoed, got %q", channel.output())
	}
}

func TestShellRemoteNoEcho(t *testing.T) {
	channel := newScriptChannel("hi\n\x04")
	s := shell.Build(channel, &recordingInterp{}, true, true)

	quitted := make(chan struct{})
	s.Quitted.Connect(func(struct{}) { close(quitted) })

	go s.Run()
	waitSignal(t, quitted, "shell quit")

	if strings.Contains(channel.output(), "hi") {
		t.Errorf("expected no echo in remote mode, got %q", channel.output())
	}
}

func TestShellBackspaceEditing(t *testing.T) {
	channel := newScriptChannel("hxi\x7f\x7fi\n\x04")
	interp := &recordingInterp{}
	s := shell.Build(channel, interp, true, true)

	quitted := make(chan struct{})
	s.Quitted.Connect(func(struct{}) { close(quitted) })

	go s.Run()
	waitSignal(t, quitted, "shell quit")

	lines := interp.handled()
	if len(lines) != 1 || lines[0] != "hi" {
		t.Errorf("expected edited line [hi], got %v", lines)
	}
}

func TestShellCalibrationExchange(t *testing.T) {
	// Interactive shell without plain cursor asks for a cursor report;
	// the channel answers, then types a command.
	channel := newScriptChannel("\x1b[1;1Rversion\n\x04")
	interp := &recordingInterp{}
	s := shell.Build(channel, interp, false, false)

	quitted := make(chan struct{})
	s.Quitted.Connect(func(struct{}) { close(quitted) })

	go s.Run()
	waitSignal(t, quitted, "shell quit")

	if !strings.Contains(channel.output(), "\x1b[6n") {
		t.Error("expected a cursor position request on the channel")
	}
	lines := interp.handled()
	if len(lines) != 1 || lines[0] != "version" {
		t.Errorf("expected the command after the report, got %v", lines)
	}
}

func TestShellPlainCursorSkipsCalibration(t *testing.T) {
	channel := newScriptChannel("\x04")
	s := shell.Build(channel, &recordingInterp{}, false, true)

	quitted := make(chan struct{})
	s.Quitted.Connect(func(struct{}) { close(quitted) })

	go s.Run()
	waitSignal(t, quitted, "shell quit")

	if strings.Contains(channel.output(), "\x1b[6n") {
		t.Error("expected no cursor position request with plain cursor forced")
	}
}

func TestShellQuittedFiresOnce(t *testing.T) {
	channel := newScriptChannel("\x04")
	s := shell.Build(channel, &recordingInterp{}, true, true)

	quits := 0
	done := make(chan struct{})
	s.Quitted.Connect(func(struct{}) {
		quits++
		close(done)
	})

	go s.Run()
	waitSignal(t, done, "shell quit")

	s.Stop()
	s.Stop()

	if quits != 1 {
		t.Errorf("expected Quitted once, got %d", quits)
	}
}

func TestShellClosesChannelOnQuit(t *testing.T) {
	channel := newScriptChannel("\x04")
	s := shell.Build(channel, &recordingInterp{}, true, true)

	quitted := make(chan struct{})
	s.Quitted.Connect(func(struct{}) { close(quitted) })

	go s.Run()
	waitSignal(t, quitted, "shell quit")

	channel.mu.Lock()
	closed := channel.closed
	channel.mu.Unlock()
	if !closed {
		t.Error("expected channel released when the shell quits")
	}
}

func TestShellInterpreterOutputReachesChannel(t *testing.T) {
	channel := newScriptChannel("")
	interp := &recordingInterp{}
	s := shell.Build(channel, interp, true, true)

	if _, err := interp.out.Write([]byte("engine says hi\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if !strings.Contains(channel.output(), "engine says hi") {
		t.Errorf("expected interpreter output on channel, got %q", channel.output())
	}
	s.Stop()
}

func TestShellRecordsHistory(t *testing.T) {
	channel := newScriptChannel("version\n\x04")
	s := shell.Build(channel, &recordingInterp{}, true, true)

	quitted := make(chan struct{})
	s.Quitted.Connect(func(struct{}) { close(quitted) })

	go s.Run()
	waitSignal(t, quitted, "shell quit")

	entries := s.History().Entries()
	if len(entries) != 1 || entries[0] != "version" {
		t.Errorf("expected history [version], got %v", entries)
	}
}
