// Package netmock provides in-memory network primitives for testing
// without real sockets.
package netmock

import (
	"net"
	"sync"
)

// ScriptedListener is a net.Listener whose Accept results are played back
// from a script. Each call to Accept consumes one step; once the script
// is exhausted, Accept blocks until Close.
type ScriptedListener struct {
	mu     sync.Mutex
	steps  []Step
	closed chan struct{}
	once   sync.Once
}

// Step is one scripted Accept result.
type Step struct {
	Conn net.Conn
	Err  error
}

// NewScriptedListener returns a listener playing back the given steps.
func NewScriptedListener(steps ...Step) *ScriptedListener {
	return &ScriptedListener{
		steps:  steps,
		closed: make(chan struct{}),
	}
}

// Accept returns the next scripted result, or net.ErrClosed after Close.
func (l *ScriptedListener) Accept() (net.Conn, error) {
	l.mu.Lock()
	if len(l.steps) > 0 {
		step := l.steps[0]
		l.steps = l.steps[1:]
		l.mu.Unlock()
		return step.Conn, step.Err
	}
	l.mu.Unlock()

	<-l.closed
	return nil, net.ErrClosed
}

// Close unblocks pending Accept calls.
func (l *ScriptedListener) Close() error {
	l.once.Do(func() { close(l.closed) })
	return nil
}

// Addr returns a fixed loopback address.
func (l *ScriptedListener) Addr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0}
}
