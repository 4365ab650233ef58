package shell

import (
	"fmt"
	"net"
	"sync"

	"github.com/halcyonlabs/emcon/internal/logging"
)

// SocketChannel serves the shell over a TCP socket. The remote client is
// functionally a remote terminal: the wire format is the same line-oriented
// text the local shell speaks, with no extra framing. One client is served
// at a time; a new connection replaces a dropped one.
type SocketChannel struct {
	logger *logging.Logger

	mu   sync.Mutex
	ln   net.Listener
	conn net.Conn
	wbuf []byte

	datac   chan byte
	cancelc chan struct{}
	closedc chan struct{}

	closeOnce sync.Once
}

// NewSocketChannel creates a channel listening on the given TCP port.
// Construction never fails: a listen error is logged and the channel then
// reads as closed, which ends the shell and the run.
func NewSocketChannel(port int, logger *logging.Logger) *SocketChannel {
	if logger == nil {
		logger = logging.NullLogger
	}
	c := &SocketChannel{
		logger:  logger.WithComponent("socket"),
		datac:   make(chan byte, 1024),
		cancelc: make(chan struct{}, 1),
		closedc: make(chan struct{}),
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		c.logger.Error("listen on port %d failed: %v", port, err)
		c.closeOnce.Do(func() { close(c.closedc) })
		return c
	}
	c.ln = ln
	c.logger.Info("listening on %s", ln.Addr())

	go c.serve()
	return c
}

// Addr returns the listener address, or nil if listening failed.
func (c *SocketChannel) Addr() net.Addr {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ln == nil {
		return nil
	}
	return c.ln.Addr()
}

// serve accepts one client at a time and pumps its bytes into the channel.
func (c *SocketChannel) serve() {
	for {
		conn, err := c.ln.Accept()
		if err != nil {
			select {
			case <-c.closedc:
			default:
				c.logger.Error("accept failed: %v", err)
			}
			return
		}

		c.mu.Lock()
		if c.conn != nil {
			c.conn.Close()
		}
		c.conn = conn
		c.mu.Unlock()

		c.logger.Info("client connected from %s", conn.RemoteAddr())
		c.pump(conn)
		c.logger.Info("client disconnected")

		c.mu.Lock()
		if c.conn == conn {
			c.conn = nil
		}
		c.mu.Unlock()
	}
}

// pump forwards bytes from the connection until it drops or the channel
// closes.
func (c *SocketChannel) pump(conn net.Conn) {
	buf := make([]byte, 512)
	for {
		n, err := conn.Read(buf)
		for i := 0; i < n; i++ {
			select {
			case c.datac <- buf[i]:
			case <-c.closedc:
				return
			}
		}
		if err != nil {
			return
		}
	}
}

// ReadByte returns the next byte from the connected client, blocking until
// one arrives, the read is cancelled, or the channel is closed.
func (c *SocketChannel) ReadByte() (byte, error) {
	select {
	case <-c.closedc:
		return 0, ErrChannelClosed
	default:
	}

	select {
	case b := <-c.datac:
		return b, nil
	case <-c.cancelc:
		return 0, ErrReadCancelled
	case <-c.closedc:
		return 0, ErrChannelClosed
	}
}

// WriteByte buffers one byte for the client.
func (c *SocketChannel) WriteByte(b byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.wbuf = append(c.wbuf, b)
	return nil
}

// Flush sends buffered output to the connected client. With no client
// connected the buffer is dropped; a remote console has nowhere to replay
// missed output to.
func (c *SocketChannel) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.wbuf) == 0 {
		return nil
	}
	buf := c.wbuf
	c.wbuf = nil

	if c.conn == nil {
		return nil
	}
	_, err := c.conn.Write(buf)
	return err
}

// CancelRead interrupts a pending ReadByte.
func (c *SocketChannel) CancelRead() {
	select {
	case c.cancelc <- struct{}{}:
	default:
	}
}

// Close shuts the listener and any active connection. Safe to call more
// than once.
func (c *SocketChannel) Close() error {
	c.closeOnce.Do(func() {
		close(c.closedc)
		c.mu.Lock()
		if c.ln != nil {
			c.ln.Close()
		}
		if c.conn != nil {
			c.conn.Close()
		}
		c.mu.Unlock()
	})
	return nil
}
