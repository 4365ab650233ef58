// Package shell provides the interactive front-end: transport selection,
// the byte channels a shell can run over, the terminal window, and the
// read-eval loop that feeds the command interpreter.
package shell

import "errors"

// Channel errors.
var (
	// ErrReadCancelled is returned by a pending ReadByte after CancelRead.
	ErrReadCancelled = errors.New("read cancelled")

	// ErrNoInput is the sentinel a headless channel yields immediately:
	// there will never be input on this channel, but it is not closed.
	ErrNoInput = errors.New("no input source")

	// ErrChannelClosed is returned once the channel has been released.
	ErrChannelClosed = errors.New("channel closed")
)

// IOChannel is a byte-oriented duplex transport. Exactly one exists per
// run and the shell owns it. ReadByte may block indefinitely; CancelRead
// interrupts a blocked read with ErrReadCancelled. Writes are buffered
// until Flush.
type IOChannel interface {
	// ReadByte returns the next input byte, blocking until one arrives.
	ReadByte() (byte, error)
	// WriteByte buffers one output byte.
	WriteByte(b byte) error
	// Flush pushes buffered output to the transport.
	Flush() error
	// CancelRead interrupts a pending ReadByte.
	CancelRead()
	// Close releases the transport. The channel is unusable afterwards.
	Close() error
}

// noopChannel is the headless transport: reads yield an immediate sentinel
// and never block, writes vanish. Used when no window can be shown and no
// remote port is configured.
type noopChannel struct{}

// NewNoopChannel creates the headless channel.
func NewNoopChannel() IOChannel {
	return noopChannel{}
}

func (noopChannel) ReadByte() (byte, error) { return 0, ErrNoInput }
func (noopChannel) WriteByte(byte) error    { return nil }
func (noopChannel) Flush() error            { return nil }
func (noopChannel) CancelRead()             {}
func (noopChannel) Close() error            { return nil }
