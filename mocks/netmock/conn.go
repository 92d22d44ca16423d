package netmock

import (
	"net"
)

// Conn is a net.Conn backed by one end of an in-memory pipe, with fixed
// loopback addresses so code that logs peers does not see pipe addresses.
type Conn struct {
	net.Conn
	local  net.Addr
	remote net.Addr
}

// Pair returns both ends of a connected in-memory conn.
func Pair() (*Conn, *Conn) {
	a := &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 40001}
	b := &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 40002}

	c1, c2 := net.Pipe()
	return &Conn{Conn: c1, local: a, remote: b},
		&Conn{Conn: c2, local: b, remote: a}
}

// LocalAddr returns the fixed local address.
func (c *Conn) LocalAddr() net.Addr {
	return c.local
}

// RemoteAddr returns the fixed remote address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.remote
}
