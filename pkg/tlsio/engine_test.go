package tlsio

import (
	"crypto/tls"
	"crypto/x509"
	"io"
	"net"
	"testing"
	"time"

	"oxbowlabs/oxbow/pkg/stream"
)

func tcpPair(t *testing.T) (net.Conn, net.Conn) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen(): %s", err)
	}
	defer ln.Close()

	type result struct {
		conn net.Conn
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		conn, err := ln.Accept()
		ch <- result{conn, err}
	}()

	client, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("net.Dial(): %s", err)
	}

	res := <-ch
	if res.err != nil {
		client.Close()
		t.Fatalf("Accept(): %s", res.err)
	}

	t.Cleanup(func() {
		client.Close()
		res.conn.Close()
	})
	return client, res.conn
}

func TestStdEngine_NegotiatesWithRealClient(t *testing.T) {
	t.Parallel()

	identity, caPEM, err := SelfSignedIdentity("127.0.0.1")
	if err != nil {
		t.Fatalf("SelfSignedIdentity(): %s", err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caPEM) {
		t.Fatal("adding CA to pool")
	}

	clientRaw, serverRaw := tcpPair(t)

	engine := &StdEngine{HandshakeTimeout: 5 * time.Second}
	hs := engine.Handshake(stream.NewBridge(serverRaw), identity)

	serverDone := make(chan error, 1)
	var established stream.Conn
	go func() {
		done, err := hs.Step()
		if err == nil && !done {
			t.Error("Step() reported neither done nor error")
		}
		if err == nil {
			established = hs.Stream()
		}
		serverDone <- err
	}()

	tlsClient := tls.Client(clientRaw, &tls.Config{
		RootCAs:    pool,
		ServerName: "127.0.0.1",
		MinVersion: tls.VersionTLS12,
	})
	if err := tlsClient.Handshake(); err != nil {
		t.Fatalf("client handshake: %s", err)
	}
	if err := <-serverDone; err != nil {
		t.Fatalf("server handshake: %s", err)
	}

	// Application bytes flow through the established stream both ways.
	go func() {
		tlsClient.Write([]byte("PING"))
	}()
	buf := make([]byte, 4)
	if _, err := io.ReadFull(established, buf); err != nil {
		t.Fatalf("reading from established stream: %s", err)
	}
	if string(buf) != "PING" {
		t.Errorf("read %q, want %q", buf, "PING")
	}

	if _, err := established.Write([]byte("PONG")); err != nil {
		t.Fatalf("writing to established stream: %s", err)
	}
	if _, err := io.ReadFull(tlsClient, buf); err != nil {
		t.Fatalf("client read: %s", err)
	}
	if string(buf) != "PONG" {
		t.Errorf("client read %q, want %q", buf, "PONG")
	}

	if err := established.Flush(); err != nil {
		t.Errorf("Flush() on established stream = %v, want nil", err)
	}
}

func TestStdEngine_FailsAgainstPlaintextPeer(t *testing.T) {
	t.Parallel()

	identity, _, err := SelfSignedIdentity("127.0.0.1")
	if err != nil {
		t.Fatalf("SelfSignedIdentity(): %s", err)
	}

	clientRaw, serverRaw := tcpPair(t)

	engine := &StdEngine{HandshakeTimeout: 5 * time.Second}
	hs := engine.Handshake(stream.NewBridge(serverRaw), identity)

	go func() {
		// Not a ClientHello.
		clientRaw.Write([]byte("GET / HTTP/1.1\r\n\r\n"))
	}()

	done, err := hs.Step()
	if done || err == nil {
		t.Errorf("Step() against plaintext peer = (%t, %v), want failure", done, err)
	}
}

func TestStdEngine_TimesOutOnSilentPeer(t *testing.T) {
	t.Parallel()

	identity, _, err := SelfSignedIdentity("127.0.0.1")
	if err != nil {
		t.Fatalf("SelfSignedIdentity(): %s", err)
	}

	_, serverRaw := tcpPair(t)

	engine := &StdEngine{HandshakeTimeout: 50 * time.Millisecond}
	hs := engine.Handshake(stream.NewBridge(serverRaw), identity)

	start := time.Now()
	done, err := hs.Step()
	if done || err == nil {
		t.Errorf("Step() with silent peer = (%t, %v), want timeout failure", done, err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("handshake took %s despite 50ms timeout", elapsed)
	}
}
