// Package stream defines the byte-stream capability every oxbow transport
// satisfies and the bridge that adapts raw accepted sockets to it. The
// protocol engine is written once against Conn and never learns whether a
// given connection is encrypted.
package stream

import (
	"errors"
	"net"
)

// ErrWouldBlock reports that an operation cannot make progress right now
// and should be retried once the stream is ready. It is returned by
// streams that are still negotiating a handshake.
var ErrWouldBlock = errors.New("stream: operation would block")

// Conn is the byte-stream capability: a net.Conn extended with an
// explicit flush and a write-side half-close. Reads and writes on one
// Conn are sequential as issued by the caller; implementations never
// reorder or coalesce them.
type Conn interface {
	net.Conn

	// Flush forces any buffered data toward the peer. Transports that do
	// not buffer return nil immediately.
	Flush() error

	// CloseWrite half-closes the write side, signalling EOF to the peer
	// while reads remain possible.
	CloseWrite() error
}
