// Package listener wraps a bound TCP socket and yields accepted
// connections one at a time. Each accepted connection is returned exactly
// once and ownership transfers fully to the caller.
package listener

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"time"

	"oxbowlabs/oxbow/pkg/log"
)

// maxAcceptBackoff caps the retry delay after transient accept errors.
const maxAcceptBackoff = 1 * time.Second

// Listener owns a bound listening socket exclusively and produces a lazy,
// potentially infinite sequence of accepted connections.
type Listener struct {
	nl     net.Listener
	logger *log.Logger
}

// Bind creates a Listener on addr. It fails if the address is in use or
// cannot be bound, in which case the process should not start.
func Bind(addr string, logger *log.Logger) (*Listener, error) {
	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("net.ResolveTCPAddr(tcp, %s): %w", addr, err)
	}

	nl, err := net.ListenTCP("tcp", tcpAddr)
	if err != nil {
		return nil, fmt.Errorf("listen(tcp, %s): %w", addr, err)
	}

	return Wrap(nl, logger), nil
}

// Wrap adopts an already bound net.Listener. Tests use it to serve
// in-memory networks.
func Wrap(nl net.Listener, logger *log.Logger) *Listener {
	return &Listener{
		nl:     nl,
		logger: logger,
	}
}

// Addr returns the bound address.
func (l *Listener) Addr() net.Addr {
	return l.nl.Addr()
}

// Next suspends the caller until the operating system signals a pending
// connection, then returns it together with the peer address. Transient
// accept errors of the resource-exhaustion class are logged and retried
// with backoff; fatal errors end the sequence. Cancelling ctx closes the
// listening socket to unblock a pending accept, ending the sequence.
func (l *Listener) Next(ctx context.Context) (net.Conn, net.Addr, error) {
	stop := context.AfterFunc(ctx, func() {
		_ = l.nl.Close()
	})
	defer stop()

	delay := 5 * time.Millisecond
	for {
		conn, err := l.nl.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil, nil, ctx.Err()
			}
			if !isTransient(err) {
				return nil, nil, fmt.Errorf("Accept(): %w", err)
			}

			l.logger.ErrorMsg("Accept(): %s, retrying in %s\n", err, delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, nil, ctx.Err()
			}
			if delay *= 2; delay > maxAcceptBackoff {
				delay = maxAcceptBackoff
			}
			continue
		}

		return conn, conn.RemoteAddr(), nil
	}
}

// Close tears down the listening socket, ending the accept sequence.
func (l *Listener) Close() error {
	return l.nl.Close()
}

// isTransient reports whether an accept error is worth retrying. File
// descriptor or buffer exhaustion clears up once connections close;
// ECONNABORTED means the peer gave up while queued.
func isTransient(err error) bool {
	if errors.Is(err, net.ErrClosed) {
		return false
	}
	for _, errno := range []syscall.Errno{
		syscall.EMFILE,
		syscall.ENFILE,
		syscall.ENOBUFS,
		syscall.ENOMEM,
		syscall.ECONNABORTED,
	} {
		if errors.Is(err, errno) {
			return true
		}
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
