package stream

import (
	"fmt"
	"net"
)

// Bridge adapts a raw accepted net.Conn to the Conn capability. It is a
// stateless proxy: every call delegates to the wrapped connection, byte
// order is preserved, and nothing is buffered beyond what the kernel
// socket already buffers.
type Bridge struct {
	net.Conn
}

// NewBridge wraps conn. The Bridge takes exclusive ownership.
func NewBridge(conn net.Conn) *Bridge {
	return &Bridge{Conn: conn}
}

// Flush is a no-op. The bridge holds no buffer of its own, so there is
// nothing to flush beyond the kernel's send queue.
func (b *Bridge) Flush() error {
	return nil
}

// CloseWrite half-closes the write side when the underlying connection
// supports it, as *net.TCPConn does. Connections without a half-close,
// such as in-memory pipes, report an error rather than silently closing
// both directions.
func (b *Bridge) CloseWrite() error {
	if cw, ok := b.Conn.(interface{ CloseWrite() error }); ok {
		return cw.CloseWrite()
	}
	return fmt.Errorf("CloseWrite() not supported by %T", b.Conn)
}
