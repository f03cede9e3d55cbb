package sam

import (
	"net"
	"sync"
	"time"
)

// StreamConn is an overlay stream: a wrapper around the TCP socket that
// carries the SAM data sub-connection. It behaves like a blocking
// connection until Detach hands the socket to the caller, after which
// the wrapper is unusable.
type StreamConn struct {
	mu       sync.Mutex
	conn     *net.TCPConn
	detached bool

	localDest  string
	remoteDest string
}

// newStreamConn wraps an established data connection. The connection
// must be TCP; the relay core detaches the raw socket after admission.
func newStreamConn(conn net.Conn, localDest, remoteDest string) (*StreamConn, error) {
	tcp, ok := conn.(*net.TCPConn)
	if !ok {
		conn.Close()
		return nil, ErrNotTCP
	}
	return &StreamConn{
		conn:       tcp,
		localDest:  localDest,
		remoteDest: remoteDest,
	}, nil
}

// socket returns the underlying socket, or nil when detached.
func (c *StreamConn) socket() *net.TCPConn {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.detached {
		return nil
	}
	return c.conn
}

// Read reads stream payload.
func (c *StreamConn) Read(p []byte) (int, error) {
	conn := c.socket()
	if conn == nil {
		return 0, ErrStreamDetached
	}
	return conn.Read(p)
}

// Write writes stream payload.
func (c *StreamConn) Write(p []byte) (int, error) {
	conn := c.socket()
	if conn == nil {
		return 0, ErrStreamDetached
	}
	return conn.Write(p)
}

// SetDeadline sets the read and write deadlines.
func (c *StreamConn) SetDeadline(t time.Time) error {
	conn := c.socket()
	if conn == nil {
		return ErrStreamDetached
	}
	return conn.SetDeadline(t)
}

// SetReadDeadline sets the read deadline.
func (c *StreamConn) SetReadDeadline(t time.Time) error {
	conn := c.socket()
	if conn == nil {
		return ErrStreamDetached
	}
	return conn.SetReadDeadline(t)
}

// SetWriteDeadline sets the write deadline.
func (c *StreamConn) SetWriteDeadline(t time.Time) error {
	conn := c.socket()
	if conn == nil {
		return ErrStreamDetached
	}
	return conn.SetWriteDeadline(t)
}

// CloseRead shuts down the reading half.
func (c *StreamConn) CloseRead() error {
	conn := c.socket()
	if conn == nil {
		return ErrStreamDetached
	}
	return conn.CloseRead()
}

// CloseWrite shuts down the writing half.
func (c *StreamConn) CloseWrite() error {
	conn := c.socket()
	if conn == nil {
		return ErrStreamDetached
	}
	return conn.CloseWrite()
}

// Shutdown closes both halves and releases the socket. Safe to call on
// a detached wrapper, where it is a no-op: ownership has moved.
func (c *StreamConn) Shutdown() error {
	conn := c.socket()
	if conn == nil {
		return nil
	}
	conn.CloseRead()
	conn.CloseWrite()
	return conn.Close()
}

// Close closes the stream.
func (c *StreamConn) Close() error {
	conn := c.socket()
	if conn == nil {
		return nil
	}
	return conn.Close()
}

// Detach yields the underlying TCP socket and renders the wrapper
// unusable. One-shot: a second call fails. Any deadlines are cleared so
// the socket comes out in its default blocking state.
func (c *StreamConn) Detach() (*net.TCPConn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.detached {
		return nil, ErrStreamDetached
	}
	c.detached = true
	conn := c.conn
	c.conn = nil
	if err := conn.SetDeadline(time.Time{}); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// LocalDest returns the local destination backing this stream.
func (c *StreamConn) LocalDest() string {
	return c.localDest
}

// RemoteDest returns the peer's destination, when known.
func (c *StreamConn) RemoteDest() string {
	return c.remoteDest
}
