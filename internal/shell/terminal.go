package shell

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"

	"github.com/halcyonlabs/emcon/internal/logging"
	"github.com/halcyonlabs/emcon/internal/signal"
)

// TerminalError represents a terminal window failure.
type TerminalError struct {
	Op  string
	Err error
}

func (e *TerminalError) Error() string {
	return "terminal " + e.Op + ": " + e.Err.Error()
}

func (e *TerminalError) Unwrap() error {
	return e.Err
}

// cell is one rendered character of the window.
type cell struct {
	r     rune
	style tcell.Style
}

// Terminal is the on-screen window wrapping the local IOChannel. Key
// presses become input bytes; written bytes are interpreted (newlines,
// backspace, a small ANSI subset) and rendered. Show may fail when no
// usable display is available. The window quits on Ctrl+Q and reports it
// on Quitted; it does not own the shell.
type Terminal struct {
	logger *logging.Logger

	// newScreen is the screen constructor; replaceable in tests.
	newScreen func() (tcell.Screen, error)

	mu     sync.Mutex
	screen tcell.Screen
	shown  bool

	// render state
	lines [][]cell
	style tcell.Style
	wbuf  []byte
	// pending multi-byte rune from output
	pending []byte
	// escape sequence accumulator; nil when not in a sequence
	esc []byte

	inputc  chan byte
	cancelc chan struct{}
	stopc   chan struct{}

	stopOnce sync.Once
	quitOnce sync.Once

	// Quitted fires once when the window closes.
	Quitted *signal.Signal[struct{}]
}

// NewTerminal creates a window that is not yet visible; Show puts it on
// screen.
func NewTerminal(logger *logging.Logger) *Terminal {
	if logger == nil {
		logger = logging.NullLogger
	}
	return &Terminal{
		logger:    logger.WithComponent("terminal"),
		newScreen: func() (tcell.Screen, error) { return tcell.NewScreen() },
		lines:     [][]cell{nil},
		style:     tcell.StyleDefault,
		inputc:    make(chan byte, 256),
		cancelc:   make(chan struct{}, 1),
		stopc:     make(chan struct{}),
		Quitted:   signal.New[struct{}](),
	}
}

// SetScreenFactory replaces the screen constructor. Must be called before
// Show.
func (t *Terminal) SetScreenFactory(fn func() (tcell.Screen, error)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.newScreen = fn
}

// Show creates and initializes the screen and starts the input event loop.
// Failure is recoverable by the caller: the window simply never appears.
func (t *Terminal) Show() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.shown {
		return nil
	}

	screen, err := t.newScreen()
	if err != nil {
		return &TerminalError{Op: "create", Err: err}
	}
	if err := screen.Init(); err != nil {
		return &TerminalError{Op: "init", Err: err}
	}

	t.screen = screen
	t.shown = true
	t.draw()

	go t.eventLoop()
	return nil
}

// eventLoop converts key events to input bytes until the window closes.
func (t *Terminal) eventLoop() {
	defer t.quit()

	for {
		select {
		case <-t.stopc:
			return
		default:
		}

		ev := t.screen.PollEvent()
		if ev == nil {
			return
		}

		switch e := ev.(type) {
		case *tcell.EventKey:
			if e.Key() == tcell.KeyCtrlQ {
				return
			}
			t.postKey(e)
		case *tcell.EventResize:
			t.mu.Lock()
			t.draw()
			t.mu.Unlock()
		case *tcell.EventError:
			t.logger.Error("screen error: %v", e)
			return
		}
	}
}

// postKey translates one key event into input bytes.
func (t *Terminal) postKey(e *tcell.EventKey) {
	var bytes []byte
	switch e.Key() {
	case tcell.KeyEnter:
		bytes = []byte{'\n'}
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		bytes = []byte{0x7f}
	case tcell.KeyTab:
		bytes = []byte{'\t'}
	case tcell.KeyCtrlC:
		bytes = []byte{0x03}
	case tcell.KeyCtrlD:
		bytes = []byte{0x04}
	case tcell.KeyRune:
		buf := make([]byte, utf8.UTFMax)
		n := utf8.EncodeRune(buf, e.Rune())
		bytes = buf[:n]
	default:
		return
	}
	t.post(bytes)
}

// post queues input bytes, dropping them if the window is closing.
func (t *Terminal) post(bytes []byte) {
	for _, b := range bytes {
		select {
		case t.inputc <- b:
		case <-t.stopc:
			return
		}
	}
}

// quit fires Quitted once and tears the screen down.
func (t *Terminal) quit() {
	t.quitOnce.Do(func() {
		t.mu.Lock()
		if t.screen != nil {
			t.screen.Fini()
		}
		t.mu.Unlock()
		t.Quitted.Emit(struct{}{})
	})
}

// ReadByte returns the next typed byte, blocking until a key arrives.
func (t *Terminal) ReadByte() (byte, error) {
	select {
	case b := <-t.inputc:
		return b, nil
	case <-t.cancelc:
		return 0, ErrReadCancelled
	case <-t.stopc:
		return 0, ErrChannelClosed
	}
}

// WriteByte buffers one output byte.
func (t *Terminal) WriteByte(b byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.wbuf = append(t.wbuf, b)
	return nil
}

// Flush interprets buffered output and redraws the window.
func (t *Terminal) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.wbuf) == 0 {
		return nil
	}
	buf := t.wbuf
	t.wbuf = nil

	for _, b := range buf {
		t.consume(b)
	}
	t.draw()
	return nil
}

// CancelRead interrupts a pending ReadByte.
func (t *Terminal) CancelRead() {
	select {
	case t.cancelc <- struct{}{}:
	default:
	}
}

// Close releases the window. Safe to call more than once.
func (t *Terminal) Close() error {
	t.stopOnce.Do(func() {
		close(t.stopc)
		t.mu.Lock()
		if t.screen != nil {
			// Wakes a blocked PollEvent so the event loop can exit.
			t.screen.Fini()
		}
		t.mu.Unlock()
	})
	return nil
}

// consume feeds one output byte into the escape-sequence and rune decoder.
// Caller holds t.mu.
func (t *Terminal) consume(b byte) {
	if t.esc != nil {
		t.esc = append(t.esc, b)
		t.stepEscape()
		return
	}

	switch b {
	case 0x1b:
		t.esc = []byte{b}
	case '\n':
		t.lines = append(t.lines, nil)
		t.pending = nil
	case '\r':
		// Column reset; the line model keeps content, nothing to do.
		t.pending = nil
	case 0x08, 0x7f:
		last := len(t.lines) - 1
		if n := len(t.lines[last]); n > 0 {
			t.lines[last] = t.lines[last][:n-1]
		}
		t.pending = nil
	case 0x07:
		if t.screen != nil {
			_ = t.screen.Beep()
		}
	default:
		t.pending = append(t.pending, b)
		if utf8.FullRune(t.pending) {
			r, _ := utf8.DecodeRune(t.pending)
			t.pending = nil
			if r != utf8.RuneError {
				t.putRune(r)
			}
		} else if len(t.pending) >= utf8.UTFMax {
			t.pending = nil
		}
	}
}

// putRune appends a printable rune to the current line. Caller holds t.mu.
func (t *Terminal) putRune(r rune) {
	if r < 0x20 {
		return
	}
	last := len(t.lines) - 1
	t.lines[last] = append(t.lines[last], cell{r: r, style: t.style})
}

// stepEscape advances the escape-sequence parser. Only the CSI forms the
// shell emits are handled: SGR color/reset and the cursor position report
// request, which is answered on the input stream like a real terminal
// would. Caller holds t.mu.
func (t *Terminal) stepEscape() {
	seq := t.esc
	if len(seq) == 1 {
		return
	}
	if seq[1] != '[' {
		// Not a CSI sequence; drop it.
		t.esc = nil
		return
	}
	final := seq[len(seq)-1]
	if final < 0x40 || final > 0x7e || len(seq) == 2 {
		return // still collecting
	}

	params := string(seq[2 : len(seq)-1])
	t.esc = nil

	switch final {
	case 'm':
		t.applySGR(params)
	case 'n':
		if params == "6" {
			row := len(t.lines)
			col := len(t.lines[len(t.lines)-1]) + 1
			reply := fmt.Sprintf("\x1b[%d;%dR", row, col)
			go t.post([]byte(reply))
		}
	}
}

// applySGR updates the current style from an SGR parameter list.
// Caller holds t.mu.
func (t *Terminal) applySGR(params string) {
	if params == "" || params == "0" {
		t.style = tcell.StyleDefault
		return
	}

	parts := strings.Split(params, ";")
	for i := 0; i < len(parts); i++ {
		switch parts[i] {
		case "0":
			t.style = tcell.StyleDefault
		case "1":
			t.style = t.style.Bold(true)
		case "38":
			// 38;2;r;g;b truecolor foreground
			if i+4 < len(parts) && parts[i+1] == "2" {
				r, _ := strconv.Atoi(parts[i+2])
				g, _ := strconv.Atoi(parts[i+3])
				b, _ := strconv.Atoi(parts[i+4])
				t.style = t.style.Foreground(tcell.NewRGBColor(int32(r), int32(g), int32(b)))
				i += 4
			}
		}
	}
}

// draw renders the tail of the line buffer onto the screen. Caller holds
// t.mu.
func (t *Terminal) draw() {
	if t.screen == nil {
		return
	}

	width, height := t.screen.Size()
	if width <= 0 || height <= 0 {
		return
	}

	t.screen.Clear()

	first := 0
	if len(t.lines) > height {
		first = len(t.lines) - height
	}

	for y, line := range t.lines[first:] {
		x := 0
		for _, c := range line {
			if x >= width {
				break
			}
			t.screen.SetContent(x, y, c.r, nil, c.style)
			x++
		}
	}

	cursorY := len(t.lines) - 1 - first
	cursorX := len(t.lines[len(t.lines)-1])
	if cursorX >= width {
		cursorX = width - 1
	}
	t.screen.ShowCursor(cursorX, cursorY)
	t.screen.Show()
}

// LineText returns the rendered text of line i, for tests and analyzers.
func (t *Terminal) LineText(i int) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if i < 0 || i >= len(t.lines) {
		return ""
	}
	var sb strings.Builder
	for _, c := range t.lines[i] {
		sb.WriteRune(c.r)
	}
	return sb.String()
}

// LineCount returns the number of lines in the window buffer.
func (t *Terminal) LineCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.lines)
}
