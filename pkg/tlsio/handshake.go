package tlsio

import (
	"net"
	"sync"
	"time"

	"oxbowlabs/oxbow/pkg/stream"
)

// HandshakeConn is a stream that starts out negotiating a TLS handshake
// and, once the negotiation completes, becomes a transparent pass-through
// to the established encrypted stream. The transition is forward-only and
// happens at most once; the read or write that observes completion is
// performed immediately against the new stream, so the caller's first
// application-layer operation is never swallowed by the state change.
//
// While the handshake is pending, reads and writes return
// stream.ErrWouldBlock. A failed handshake poisons the connection: the
// failure is returned to the triggering call and to every call after it.
type HandshakeConn struct {
	raw stream.Conn // wrapped stream; only touched by the active state

	mu  sync.Mutex
	hs  Handshake   // pending negotiation; nil once established
	est stream.Conn // established encrypted stream; nil while handshaking
	err error       // sticky handshake failure
}

// NewHandshakeConn wraps raw in a handshake state machine driven by
// engine with the shared server identity.
func NewHandshakeConn(raw stream.Conn, engine Engine, identity *Identity) *HandshakeConn {
	return &HandshakeConn{
		raw: raw,
		hs:  engine.Handshake(raw, identity),
	}
}

// Read drives the handshake forward if it is still pending, then reads
// from the established stream.
func (c *HandshakeConn) Read(p []byte) (int, error) {
	est, err := c.advance()
	if err != nil {
		return 0, err
	}
	return est.Read(p)
}

// Write drives the handshake forward if it is still pending, then writes
// to the established stream.
func (c *HandshakeConn) Write(p []byte) (int, error) {
	est, err := c.advance()
	if err != nil {
		return 0, err
	}
	return est.Write(p)
}

// advance moves the state machine one step. It returns the established
// stream once streaming, stream.ErrWouldBlock while the negotiation is
// incomplete, and the sticky failure once the handshake has failed. The
// lock keeps the transition single-shot even if the protocol engine
// issues reads and writes from different goroutines.
func (c *HandshakeConn) advance() (stream.Conn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err != nil {
		return nil, c.err
	}
	if c.est != nil {
		return c.est, nil
	}

	done, err := c.hs.Step()
	if err != nil {
		c.err = err
		return nil, err
	}
	if !done {
		return nil, stream.ErrWouldBlock
	}

	c.est = c.hs.Stream()
	c.hs = nil // forward-only: never handshaking again
	return c.est, nil
}

// established returns the streaming-state conn, or nil while the
// handshake is pending or failed.
func (c *HandshakeConn) established() stream.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.est
}

// Flush reports success while the handshake is pending: there is nothing
// meaningful to flush before the negotiation yields an established
// stream. It must not be read as a delivery confirmation.
func (c *HandshakeConn) Flush() error {
	if est := c.established(); est != nil {
		return est.Flush()
	}
	return nil
}

// CloseWrite half-closes the established stream. Like Flush it reports
// success while the handshake is still pending.
func (c *HandshakeConn) CloseWrite() error {
	if est := c.established(); est != nil {
		return est.CloseWrite()
	}
	return nil
}

// Close releases the connection in whichever state it is in.
func (c *HandshakeConn) Close() error {
	if est := c.established(); est != nil {
		return est.Close()
	}
	return c.raw.Close()
}

// LocalAddr returns the local address of the underlying connection.
func (c *HandshakeConn) LocalAddr() net.Addr {
	return c.raw.LocalAddr()
}

// RemoteAddr returns the peer address of the underlying connection.
func (c *HandshakeConn) RemoteAddr() net.Addr {
	return c.raw.RemoteAddr()
}

// SetDeadline sets read and write deadlines on the underlying connection.
func (c *HandshakeConn) SetDeadline(t time.Time) error {
	return c.raw.SetDeadline(t)
}

// SetReadDeadline sets the read deadline on the underlying connection.
func (c *HandshakeConn) SetReadDeadline(t time.Time) error {
	return c.raw.SetReadDeadline(t)
}

// SetWriteDeadline sets the write deadline on the underlying connection.
func (c *HandshakeConn) SetWriteDeadline(t time.Time) error {
	return c.raw.SetWriteDeadline(t)
}
