package acceptor

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"testing"
	"time"

	"oxbowlabs/oxbow/pkg/executor"
	"oxbowlabs/oxbow/pkg/listener"
	"oxbowlabs/oxbow/pkg/log"
	"oxbowlabs/oxbow/pkg/stream"
	"oxbowlabs/oxbow/pkg/tlsio"
)

// echoHandler copies everything back to the peer until it half-closes.
func echoHandler(conn stream.Conn) error {
	if _, err := io.Copy(conn, conn); err != nil {
		return fmt.Errorf("echoing: %w", err)
	}
	return conn.Flush()
}

func startPlain(t *testing.T) (*Acceptor, context.CancelFunc) {
	t.Helper()

	logger := log.NewLogger(false)
	ln, err := listener.Bind("127.0.0.1:0", logger)
	if err != nil {
		t.Fatalf("listener.Bind(): %s", err)
	}

	acc := NewPlain(ln, executor.New(logger), logger)
	ctx, cancel := context.WithCancel(context.Background())
	go acc.Serve(ctx, echoHandler)

	t.Cleanup(func() {
		cancel()
		acc.Wait()
	})
	return acc, cancel
}

func startTLS(t *testing.T, timeout time.Duration) (*Acceptor, *x509.CertPool) {
	t.Helper()

	identity, caPEM, err := tlsio.SelfSignedIdentity("127.0.0.1")
	if err != nil {
		t.Fatalf("tlsio.SelfSignedIdentity(): %s", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caPEM) {
		t.Fatal("adding CA to pool")
	}

	logger := log.NewLogger(false)
	ln, err := listener.Bind("127.0.0.1:0", logger)
	if err != nil {
		t.Fatalf("listener.Bind(): %s", err)
	}

	engine := &tlsio.StdEngine{HandshakeTimeout: timeout}
	acc := NewTLS(ln, engine, identity, executor.New(logger), logger)
	ctx, cancel := context.WithCancel(context.Background())
	go acc.Serve(ctx, echoHandler)

	t.Cleanup(func() {
		cancel()
		acc.Wait()
	})
	return acc, pool
}

func TestAcceptor_PlaintextEcho(t *testing.T) {
	t.Parallel()

	acc, _ := startPlain(t)

	client, err := net.Dial("tcp", acc.Addr().String())
	if err != nil {
		t.Fatalf("net.Dial(): %s", err)
	}
	defer client.Close()

	if _, err := client.Write([]byte("PING")); err != nil {
		t.Fatalf("Write(): %s", err)
	}
	client.(*net.TCPConn).CloseWrite()

	got, err := io.ReadAll(client)
	if err != nil {
		t.Fatalf("reading echo: %s", err)
	}
	if string(got) != "PING" {
		t.Errorf("echo = %q, want %q", got, "PING")
	}
}

func TestAcceptor_TLSEcho(t *testing.T) {
	t.Parallel()

	acc, pool := startTLS(t, 5*time.Second)

	client, err := tls.Dial("tcp", acc.Addr().String(), &tls.Config{
		RootCAs:    pool,
		ServerName: "127.0.0.1",
		MinVersion: tls.VersionTLS12,
	})
	if err != nil {
		t.Fatalf("tls.Dial(): %s", err)
	}
	defer client.Close()

	if _, err := client.Write([]byte("PING")); err != nil {
		t.Fatalf("Write(): %s", err)
	}
	client.CloseWrite()

	got, err := io.ReadAll(client)
	if err != nil {
		t.Fatalf("reading echo: %s", err)
	}
	if string(got) != "PING" {
		t.Errorf("echo = %q, want %q", got, "PING")
	}
}

func TestAcceptor_TLSRejectsPlaintextClient(t *testing.T) {
	t.Parallel()

	acc, _ := startTLS(t, 2*time.Second)

	client, err := net.Dial("tcp", acc.Addr().String())
	if err != nil {
		t.Fatalf("net.Dial(): %s", err)
	}
	defer client.Close()

	// Not a ClientHello. The handshake must fail and the connection must
	// be closed without any application bytes coming back.
	if _, err := client.Write([]byte("PING")); err != nil {
		t.Fatalf("Write(): %s", err)
	}

	client.SetReadDeadline(time.Now().Add(10 * time.Second))
	got, _ := io.ReadAll(client)
	if len(got) > 0 && string(got) == "PING" {
		t.Errorf("plaintext bytes were echoed through a TLS acceptor: %q", got)
	}
}

func TestAcceptor_StalledClientDoesNotBlockOthers(t *testing.T) {
	t.Parallel()

	acc, pool := startTLS(t, 5*time.Second)

	// A peer that connects and never speaks pins one handshake, nothing
	// more.
	stalled, err := net.Dial("tcp", acc.Addr().String())
	if err != nil {
		t.Fatalf("net.Dial(): %s", err)
	}
	defer stalled.Close()

	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			client, err := tls.Dial("tcp", acc.Addr().String(), &tls.Config{
				RootCAs:    pool,
				ServerName: "127.0.0.1",
				MinVersion: tls.VersionTLS12,
			})
			if err != nil {
				errs <- err
				return
			}
			defer client.Close()

			client.Write([]byte("PING"))
			client.CloseWrite()
			got, err := io.ReadAll(client)
			if err != nil {
				errs <- err
				return
			}
			if string(got) != "PING" {
				errs <- fmt.Errorf("echo = %q, want PING", got)
			}
		}()
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent client: %s", err)
	}
}

func TestNetListener_ServesHTTP(t *testing.T) {
	t.Parallel()

	logger := log.NewLogger(false)
	ln, err := listener.Bind("127.0.0.1:0", logger)
	if err != nil {
		t.Fatalf("listener.Bind(): %s", err)
	}

	acc := NewPlain(ln, executor.New(logger), logger)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "hello")
	})}
	go srv.Serve(acc.NetListener(ctx))
	defer srv.Close()

	resp, err := http.Get("http://" + acc.Addr().String() + "/")
	if err != nil {
		t.Fatalf("http.Get(): %s", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %s", err)
	}
	if string(body) != "hello" {
		t.Errorf("body = %q, want %q", body, "hello")
	}
}
