// Package server wires configuration, storage, transport, and the HTTP
// protocol engine into the running oxbow service.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"oxbowlabs/oxbow/pkg/acceptor"
	"oxbowlabs/oxbow/pkg/admin"
	"oxbowlabs/oxbow/pkg/config"
	"oxbowlabs/oxbow/pkg/executor"
	"oxbowlabs/oxbow/pkg/listener"
	"oxbowlabs/oxbow/pkg/log"
	"oxbowlabs/oxbow/pkg/rsvp"
	"oxbowlabs/oxbow/pkg/tlsio"
	"oxbowlabs/oxbow/pkg/website"
)

// handshakeTimeout bounds one TLS negotiation so half-open peers cannot
// pin handshake goroutines forever.
const handshakeTimeout = 10 * time.Second

// shutdownGrace is how long graceful shutdown waits for in-flight
// requests before the process exits anyway.
const shutdownGrace = 10 * time.Second

// Server is the composed oxbow service.
type Server struct {
	cfg    config.Config
	logger *log.Logger
	store  *rsvp.Store

	mu        sync.Mutex
	webAddr   net.Addr
	adminAddr net.Addr
}

// New opens the guest list and prepares a Server.
func New(cfg config.Config, logger *log.Logger) (*Server, error) {
	store, err := rsvp.Open(cfg.DataFile)
	if err != nil {
		return nil, fmt.Errorf("rsvp.Open(%s): %w", cfg.DataFile, err)
	}

	return &Server{
		cfg:    cfg,
		logger: logger,
		store:  store,
	}, nil
}

// Store exposes the guest list, mainly for tests.
func (s *Server) Store() *rsvp.Store {
	return s.store
}

// WebAddr returns the bound web address, or nil before Run has bound it.
// Useful when the configuration asked for an ephemeral port.
func (s *Server) WebAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.webAddr
}

// AdminAddr returns the bound admin address, or nil if the admin channel
// is disabled or not yet bound.
func (s *Server) AdminAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.adminAddr
}

// Run serves until ctx is cancelled, then shuts down gracefully:
// listeners stop yielding connections and in-flight work is drained, not
// aborted.
func (s *Server) Run(ctx context.Context) error {
	identity, err := s.identity()
	if err != nil {
		return err
	}

	exec := executor.New(s.logger)

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	webLn, err := listener.Bind(addr, s.logger)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.webAddr = webLn.Addr()
	s.mu.Unlock()

	var webAcc *acceptor.Acceptor
	if identity != nil {
		engine := &tlsio.StdEngine{HandshakeTimeout: handshakeTimeout}
		webAcc = acceptor.NewTLS(webLn, engine, identity, exec, s.logger)
		s.logger.InfoMsg("Listening on %s with TLS\n", webLn.Addr())
	} else {
		webAcc = acceptor.NewPlain(webLn, exec, s.logger)
		s.logger.InfoMsg("Listening on %s\n", webLn.Addr())
	}

	httpSrv := &http.Server{
		Handler:           website.New(s.store, s.logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		if err := httpSrv.Serve(webAcc.NetListener(ctx)); err != nil {
			errCh <- fmt.Errorf("serving web: %w", err)
			return
		}
		errCh <- nil
	}()

	adminAcc, err := s.serveAdmin(ctx, exec, errCh)
	if err != nil {
		webLn.Close()
		return err
	}

	var firstErr error
	select {
	case <-ctx.Done():
		s.logger.InfoMsg("Shutting down...\n")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
			firstErr = err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		s.logger.ErrorMsg("Draining web connections: %s\n", err)
	}
	if adminAcc != nil {
		adminAcc.Close()
	}

	exec.Wait()
	return firstErr
}

// serveAdmin starts the admin control channel if one is configured. Its
// connection handlers run through the shared executor so shutdown drains
// them together with everything else.
func (s *Server) serveAdmin(ctx context.Context, exec *executor.Executor, errCh chan<- error) (*acceptor.Acceptor, error) {
	if s.cfg.AdminAddr == "" {
		return nil, nil
	}

	adminLn, err := listener.Bind(s.cfg.AdminAddr, s.logger)
	if err != nil {
		return nil, fmt.Errorf("binding admin address: %w", err)
	}

	adminAcc := acceptor.NewPlain(adminLn, exec, s.logger)
	adminSrv := admin.NewServer(s.store, s.logger)
	s.mu.Lock()
	s.adminAddr = adminLn.Addr()
	s.mu.Unlock()
	s.logger.VerboseMsg("Admin channel on %s\n", adminLn.Addr())

	go func() {
		if err := adminAcc.Serve(ctx, adminSrv.Handle); err != nil {
			errCh <- fmt.Errorf("serving admin channel: %w", err)
			return
		}
		errCh <- nil
	}()

	return adminAcc, nil
}

// identity resolves the TLS identity once at startup. It returns nil if
// TLS is disabled. Enabled TLS without configured certificate paths falls
// back to an ephemeral self-signed identity for development setups.
func (s *Server) identity() (*tlsio.Identity, error) {
	t := s.cfg.TLS
	if !t.Enable {
		return nil, nil
	}

	var identity *tlsio.Identity
	var err error
	if t.CertFile != "" {
		identity, err = tlsio.LoadIdentity(t.CertFile, t.KeyFile)
	} else {
		host := s.cfg.Host
		if host == "" {
			host = "localhost"
		}
		s.logger.InfoMsg("No certificate configured, generating an ephemeral self-signed identity\n")
		identity, _, err = tlsio.SelfSignedIdentity(host)
	}
	if err != nil {
		return nil, err
	}

	if t.ClientAuth {
		caPEM, err := os.ReadFile(t.ClientCAFile)
		if err != nil {
			return nil, fmt.Errorf("reading client CA bundle %s: %w", t.ClientCAFile, err)
		}
		if err := identity.RequireClientCerts(caPEM); err != nil {
			return nil, err
		}
	}

	return identity, nil
}
