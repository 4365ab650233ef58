package shell

import (
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/halcyonlabs/emcon/internal/logging"
	"github.com/halcyonlabs/emcon/internal/signal"
)

// Interpreter is the command processor the shell feeds accepted lines to.
type Interpreter interface {
	// HandleLine executes one command line.
	HandleLine(line string) error
	// SetOutput redirects the interpreter's output sink.
	SetOutput(w io.Writer)
}

// Shell is the interactive read-eval loop bound to one IOChannel and one
// interpreter. It runs on a dedicated worker goroutine and terminates on
// its own quit conditions or on Stop.
type Shell struct {
	channel IOChannel
	interp  Interpreter
	logger  *logging.Logger

	// interactive enables local echo and colored prompts. Remote clients
	// bring their own echo; the headless channel has no reader at all.
	interactive bool
	// plainCursor skips the cursor position calibration exchange that
	// would block forever on a channel that never answers.
	plainCursor bool

	mu      sync.Mutex
	prompt  *Prompt
	startup []string
	history *History

	// Started fires once when the loop begins accepting input.
	Started *signal.Signal[struct{}]
	// Quitted fires once when the loop ends, for any reason.
	Quitted *signal.Signal[struct{}]

	startOnce sync.Once
	quitOnce  sync.Once
	stopOnce  sync.Once
	stopc     chan struct{}
}

// Build constructs a shell over the given channel and interpreter and
// points the interpreter's output at the channel. isRemote selects the
// non-interactive echo mode remote clients need; forcePlainCursor must be
// set for channels that can never answer a cursor calibration request.
func Build(channel IOChannel, interp Interpreter, isRemote, forcePlainCursor bool) *Shell {
	s := &Shell{
		channel:     channel,
		interp:      interp,
		logger:      logging.NullLogger,
		interactive: !isRemote,
		plainCursor: forcePlainCursor,
		prompt:      DefaultPrompt(),
		history:     LoadHistory(""),
		Started:     signal.New[struct{}](),
		Quitted:     signal.New[struct{}](),
		stopc:       make(chan struct{}),
	}
	interp.SetOutput(s.Writer())
	return s
}

// SetLogger replaces the shell's logger.
func (s *Shell) SetLogger(logger *logging.Logger) {
	if logger != nil {
		s.logger = logger.WithComponent("shell")
	}
}

// SetHistory replaces the shell's history store.
func (s *Shell) SetHistory(h *History) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h != nil {
		s.history = h
	}
}

// History returns the shell's history store.
func (s *Shell) History() *History {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history
}

// SetPrompt sets the prompt shown before each read. nil restores the
// default prompt.
func (s *Shell) SetPrompt(p *Prompt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p == nil {
		p = DefaultPrompt()
	}
	s.prompt = p
}

// CurrentPrompt returns the prompt in effect.
func (s *Shell) CurrentPrompt() *Prompt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prompt
}

// QueueStartupCommand queues one command line to run as soon as the shell
// starts, before any input is read. The trailing newline is optional.
func (s *Shell) QueueStartupCommand(cmd string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startup = append(s.startup, strings.TrimRight(cmd, "\n"))
}

// Writer returns the shell's output sink; writes go to the channel and
// are flushed per call. The interpreter writes through this.
func (s *Shell) Writer() io.Writer {
	return &shellWriter{s: s}
}

type shellWriter struct {
	s *Shell
}

func (w *shellWriter) Write(p []byte) (int, error) {
	for i, b := range p {
		if err := w.s.channel.WriteByte(b); err != nil {
			return i, err
		}
	}
	return len(p), w.s.channel.Flush()
}

// Run executes the read-eval loop until the channel ends, a read is
// cancelled, or Stop is called. It is meant to run on a dedicated worker
// goroutine; Quitted fires when it returns.
func (s *Shell) Run() {
	defer s.quit()

	if s.interactive && !s.plainCursor {
		s.calibrate()
	}

	s.startOnce.Do(func() { s.Started.Emit(struct{}{}) })

	s.mu.Lock()
	startup := s.startup
	s.startup = nil
	s.mu.Unlock()

	for _, cmd := range startup {
		s.writePrompt()
		s.echoString(cmd + "\n")
		if err := s.interp.HandleLine(cmd); err != nil {
			s.logger.Warn("startup command failed: %v", err)
		}
	}

	for {
		s.writePrompt()

		line, err := s.readLine()
		switch {
		case err == nil:
			s.History().Append(line)
			if err := s.interp.HandleLine(line); err != nil {
				s.logger.Debug("command failed: %v", err)
			}

		case errors.Is(err, ErrNoInput):
			// Headless channel: nothing will ever arrive. Park until
			// someone stops the shell instead of spinning.
			<-s.stopc
			return

		default:
			// EOF, cancelled read, or closed channel ends the loop.
			return
		}

		select {
		case <-s.stopc:
			return
		default:
		}
	}
}

// Stop requests loop termination and interrupts a blocked read.
// Safe to call from any goroutine, more than once.
func (s *Shell) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopc)
		s.channel.CancelRead()
	})
}

// quit saves history, releases the channel, and fires Quitted once.
func (s *Shell) quit() {
	s.quitOnce.Do(func() {
		if err := s.History().Save(); err != nil {
			s.logger.Warn("saving history failed: %v", err)
		}
		if err := s.channel.Close(); err != nil {
			s.logger.Warn("closing channel failed: %v", err)
		}
		s.Quitted.Emit(struct{}{})
	})
}

// calibrate performs the cursor position exchange: it asks the peer
// terminal where the cursor is and waits for the report. Channels that
// never answer must be built with forcePlainCursor instead.
func (s *Shell) calibrate() {
	s.echoString("\x1b[6n")

	// Reply has the form ESC [ row ; col R. Bound the scan so a peer
	// that answers garbage cannot wedge the shell forever.
	for i := 0; i < 32; i++ {
		b, err := s.channel.ReadByte()
		if err != nil {
			return
		}
		if b == 'R' {
			return
		}
	}
}

// writePrompt prints the current prompt.
func (s *Shell) writePrompt() {
	s.echoString(s.CurrentPrompt().render(s.interactive))
}

// echoString writes raw bytes to the channel and flushes.
func (s *Shell) echoString(text string) {
	for i := 0; i < len(text); i++ {
		if err := s.channel.WriteByte(text[i]); err != nil {
			return
		}
	}
	_ = s.channel.Flush()
}

// readLine reads one line of input, byte by byte, applying local echo and
// backspace editing in interactive mode.
func (s *Shell) readLine() (string, error) {
	var line []byte

	for {
		b, err := s.channel.ReadByte()
		if err != nil {
			return "", err
		}

		switch b {
		case '\n', '\r':
			if s.interactive {
				s.echoString("\n")
			}
			return string(line), nil

		case 0x7f, 0x08:
			if len(line) > 0 {
				line = trimLastRune(line)
				if s.interactive {
					s.echoString("\b \b")
				}
			}

		case 0x04: // Ctrl+D on an empty line ends the session
			if len(line) == 0 {
				if s.interactive {
					s.echoString("\n")
				}
				return "", io.EOF
			}

		case 0x03: // Ctrl+C discards the pending line
			line = line[:0]
			if s.interactive {
				s.echoString("^C\n")
				s.writePrompt()
			}

		default:
			if b >= 0x20 || b == '\t' {
				line = append(line, b)
				if s.interactive {
					_ = s.channel.WriteByte(b)
					_ = s.channel.Flush()
				}
			}
		}
	}
}

// trimLastRune removes the final UTF-8 rune from line.
func trimLastRune(line []byte) []byte {
	i := len(line) - 1
	for i > 0 && line[i]&0xc0 == 0x80 {
		i--
	}
	return line[:i]
}
