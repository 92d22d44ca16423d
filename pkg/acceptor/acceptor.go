// Package acceptor composes the listener, the stream bridge, and the
// optional TLS handshake into one uniform source of connections. The
// protocol engine consumes that single sequence and never branches on
// whether TLS is enabled.
package acceptor

import (
	"context"
	"net"

	"oxbowlabs/oxbow/pkg/executor"
	"oxbowlabs/oxbow/pkg/listener"
	"oxbowlabs/oxbow/pkg/log"
	"oxbowlabs/oxbow/pkg/stream"
	"oxbowlabs/oxbow/pkg/tlsio"
)

// Transform turns an accepted raw stream into the stream handed to the
// protocol engine. The plaintext acceptor uses the identity transform; a
// TLS acceptor wraps the stream in a handshake state machine. Having the
// transform as a parameter keeps a single acceptor implementation for
// both configurations.
type Transform func(stream.Conn) stream.Conn

// Handler processes one accepted stream. The stream is closed after the
// handler returns.
type Handler func(stream.Conn) error

// Acceptor owns a Listener and yields uniform streams.
type Acceptor struct {
	ln        *listener.Listener
	transform Transform
	exec      *executor.Executor
	logger    *log.Logger
}

// New builds an Acceptor from its parts. Most callers want NewPlain or
// NewTLS instead.
func New(ln *listener.Listener, transform Transform, exec *executor.Executor, logger *log.Logger) *Acceptor {
	return &Acceptor{
		ln:        ln,
		transform: transform,
		exec:      exec,
		logger:    logger,
	}
}

// NewPlain returns an Acceptor that yields plaintext streams with zero
// handshake overhead.
func NewPlain(ln *listener.Listener, exec *executor.Executor, logger *log.Logger) *Acceptor {
	return New(ln, func(s stream.Conn) stream.Conn { return s }, exec, logger)
}

// NewTLS returns an Acceptor whose streams must complete a TLS handshake,
// driven by engine with the shared identity, before application bytes
// flow.
func NewTLS(ln *listener.Listener, engine tlsio.Engine, identity *tlsio.Identity, exec *executor.Executor, logger *log.Logger) *Acceptor {
	transform := func(s stream.Conn) stream.Conn {
		return tlsio.NewHandshakeConn(s, engine, identity)
	}
	return New(ln, transform, exec, logger)
}

// Addr returns the bound listening address.
func (a *Acceptor) Addr() net.Addr {
	return a.ln.Addr()
}

// Accept pulls the next raw connection, bridges it to the stream
// capability, and applies the configured transform. Ownership of the
// returned stream transfers fully to the caller.
func (a *Acceptor) Accept(ctx context.Context) (stream.Conn, error) {
	conn, addr, err := a.ln.Next(ctx)
	if err != nil {
		return nil, err
	}

	a.logger.VerboseMsg("New connection from %s\n", addr)
	return a.transform(stream.NewBridge(conn)), nil
}

// Serve accepts connections until ctx is cancelled and spawns handler for
// each one through the executor, detached from the accept loop. Handler
// errors are logged; they never stop the loop or affect other
// connections. Serve returns nil on cancellation and the fatal accept
// error otherwise.
func (a *Acceptor) Serve(ctx context.Context, handler Handler) error {
	for {
		conn, err := a.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		a.exec.Spawn(func() {
			defer conn.Close()
			if err := handler(conn); err != nil {
				a.logger.ErrorMsg("Handling %s: %s\n", conn.RemoteAddr(), err)
			}
		})
	}
}

// Wait blocks until all spawned connection handlers have completed.
func (a *Acceptor) Wait() {
	a.exec.Wait()
}

// Close tears down the listener. In-flight handlers keep running.
func (a *Acceptor) Close() error {
	return a.ln.Close()
}
