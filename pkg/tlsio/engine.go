package tlsio

import (
	"crypto/tls"
	"fmt"
	"time"

	"oxbowlabs/oxbow/pkg/stream"
)

// Engine turns a raw stream and a server identity into a pending
// handshake operation. It is a capability boundary: the state machine in
// HandshakeConn drives any Engine the same way, so tests can substitute
// one that completes after an arbitrary number of steps.
type Engine interface {
	Handshake(conn stream.Conn, identity *Identity) Handshake
}

// Handshake is an in-progress negotiation over a wrapped stream.
type Handshake interface {
	// Step advances the negotiation. done reports completion; while the
	// handshake cannot finish yet, Step returns (false, nil) and the
	// caller retries later. A non-nil error means the negotiation failed
	// and the connection is unusable.
	Step() (done bool, err error)

	// Stream returns the established encrypted stream. Valid only after
	// Step has reported done.
	Stream() stream.Conn
}

// StdEngine negotiates server-side TLS with crypto/tls.
type StdEngine struct {
	// HandshakeTimeout bounds one negotiation. Zero means no limit. The
	// deadline is set before the handshake and cleared right after so it
	// cannot linger and kill the established connection later.
	HandshakeTimeout time.Duration
}

// Handshake wraps conn in a TLS server connection using the shared
// identity.
func (e *StdEngine) Handshake(conn stream.Conn, identity *Identity) Handshake {
	return &stdHandshake{
		conn:    tls.Server(conn, identity.serverConfig()),
		timeout: e.HandshakeTimeout,
	}
}

type stdHandshake struct {
	conn    *tls.Conn
	timeout time.Duration
}

// Step runs the whole negotiation in one call. crypto/tls suspends the
// calling goroutine while waiting for peer bytes, which already is this
// runtime's "park until woken"; Step therefore never reports done=false.
func (h *stdHandshake) Step() (bool, error) {
	if h.timeout > 0 {
		_ = h.conn.SetDeadline(time.Now().Add(h.timeout))
	}

	err := h.conn.Handshake()

	if h.timeout > 0 {
		_ = h.conn.SetDeadline(time.Time{})
	}

	if err != nil {
		return false, fmt.Errorf("TLS handshake: %w", err)
	}
	return true, nil
}

func (h *stdHandshake) Stream() stream.Conn {
	return &tlsStream{Conn: h.conn}
}

// tlsStream adapts *tls.Conn to the stream.Conn capability. CloseWrite is
// inherited: tls.Conn sends a close_notify alert and half-closes.
type tlsStream struct {
	*tls.Conn
}

// Flush is a no-op because crypto/tls writes complete records eagerly.
func (s *tlsStream) Flush() error {
	return nil
}
