package shell_test

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/halcyonlabs/emcon/internal/shell"
)

func dialSocket(t *testing.T, c *shell.SocketChannel) net.Conn {
	t.Helper()

	addr := c.Addr()
	if addr == nil {
		t.Fatal("expected a listening address")
	}
	conn, err := net.Dial("tcp", addr.String())
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestSocketChannelReadsClientBytes(t *testing.T) {
	c := shell.NewSocketChannel(0, nil)
	defer c.Close()

	conn := dialSocket(t, c)
	if _, err := conn.Write([]byte("hi")); err != nil {
		t.Fatalf("client write failed: %v", err)
	}

	for _, want := range []byte("hi") {
		b, err := c.ReadByte()
		if err != nil {
			t.Fatalf("ReadByte failed: %v", err)
		}
		if b != want {
			t.Errorf("expected %q, got %q", want, b)
		}
	}
}

func TestSocketChannelWritesToClient(t *testing.T) {
	c := shell.NewSocketChannel(0, nil)
	defer c.Close()

	conn := dialSocket(t, c)

	// Wait for the server side to pick the connection up.
	deadline := time.Now().Add(2 * time.Second)
	for {
		if err := flushString(c, "ok\n"); err != nil {
			t.Fatalf("flush failed: %v", err)
		}
		conn.SetReadDeadline(time.Now().Add(50 * time.Millisecond))
		buf := make([]byte, 3)
		if _, err := conn.Read(buf); err == nil {
			if string(buf) != "ok\n" {
				t.Errorf("expected %q, got %q", "ok\n", buf)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for server output")
		}
	}
}

func flushString(c *shell.SocketChannel, s string) error {
	for i := 0; i < len(s); i++ {
		if err := c.WriteByte(s[i]); err != nil {
			return err
		}
	}
	return c.Flush()
}

func TestSocketChannelFlushWithoutClient(t *testing.T) {
	c := shell.NewSocketChannel(0, nil)
	defer c.Close()

	// No client: buffered output is dropped, not an error.
	if err := flushString(c, "dropped"); err != nil {
		t.Errorf("expected flush without client to succeed, got %v", err)
	}
}

func TestSocketChannelCancelRead(t *testing.T) {
	c := shell.NewSocketChannel(0, nil)
	defer c.Close()

	errc := make(chan error, 1)
	go func() {
		_, err := c.ReadByte()
		errc <- err
	}()

	time.Sleep(20 * time.Millisecond)
	c.CancelRead()

	select {
	case err := <-errc:
		if !errors.Is(err, shell.ErrReadCancelled) {
			t.Errorf("expected ErrReadCancelled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for cancelled read")
	}
}

func TestSocketChannelCloseEndsReads(t *testing.T) {
	c := shell.NewSocketChannel(0, nil)

	errc := make(chan error, 1)
	go func() {
		_, err := c.ReadByte()
		errc <- err
	}()

	time.Sleep(20 * time.Millisecond)
	c.Close()

	select {
	case err := <-errc:
		if !errors.Is(err, shell.ErrChannelClosed) {
			t.Errorf("expected ErrChannelClosed, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for closed read")
	}
}

func TestSocketChannelListenFailure(t *testing.T) {
	// An out-of-range port cannot be listened on; the channel must still
	// construct and read as closed.
	c := shell.NewSocketChannel(70000, nil)

	if c.Addr() != nil {
		t.Error("expected no address after listen failure")
	}
	if _, err := c.ReadByte(); !errors.Is(err, shell.ErrChannelClosed) {
		t.Errorf("expected ErrChannelClosed, got %v", err)
	}
	c.Close()
}

func TestSocketChannelCloseIdempotent(t *testing.T) {
	c := shell.NewSocketChannel(0, nil)
	c.Close()
	c.Close() // must not panic
}
