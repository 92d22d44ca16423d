package acceptor

import (
	"context"
	"net"
)

// NetListener exposes the acceptor's uniform connection sequence through
// the standard net.Listener interface so a stock HTTP server can consume
// it. The streams it yields satisfy net.Conn directly; Flush and
// CloseWrite remain available to callers that ask for them.
type NetListener struct {
	a   *Acceptor
	ctx context.Context
}

// NetListener returns a net.Listener view of the acceptor. Cancelling ctx
// ends the accept sequence.
func (a *Acceptor) NetListener(ctx context.Context) *NetListener {
	return &NetListener{a: a, ctx: ctx}
}

// Accept returns the next uniform stream as a net.Conn.
func (nl *NetListener) Accept() (net.Conn, error) {
	return nl.a.Accept(nl.ctx)
}

// Close tears down the underlying listener.
func (nl *NetListener) Close() error {
	return nl.a.Close()
}

// Addr returns the bound listening address.
func (nl *NetListener) Addr() net.Addr {
	return nl.a.Addr()
}
