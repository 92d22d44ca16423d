// Package tlsio layers the TLS handshake state machine over raw streams.
// It owns no cryptography itself: negotiation is delegated to an Engine,
// and tlsio only sequences handshake progress and the transition into
// transparent pass-through streaming.
package tlsio

import (
	"crypto"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
)

// Identity holds the certificate chain and private key the server
// presents during handshakes. It is resolved once at process start,
// immutable afterwards, and shared read-only by every concurrently
// handshaking connection.
type Identity struct {
	cfg *tls.Config
}

// LoadIdentity reads a PEM-encoded certificate chain and a PKCS#8 private
// key from the given files.
func LoadIdentity(certFile, keyFile string) (*Identity, error) {
	certPEM, err := os.ReadFile(certFile)
	if err != nil {
		return nil, fmt.Errorf("reading certificate chain %s: %w", certFile, err)
	}

	keyPEM, err := os.ReadFile(keyFile)
	if err != nil {
		return nil, fmt.Errorf("reading private key %s: %w", keyFile, err)
	}

	id, err := NewIdentity(certPEM, keyPEM)
	if err != nil {
		return nil, fmt.Errorf("parsing identity from %s and %s: %w", certFile, keyFile, err)
	}
	return id, nil
}

// NewIdentity builds an Identity from PEM bytes. The chain must contain
// at least one certificate and the key material exactly one PKCS#8
// private key; zero or several keys is an error.
func NewIdentity(certPEM, keyPEM []byte) (*Identity, error) {
	chain, err := parseCertificateChain(certPEM)
	if err != nil {
		return nil, err
	}

	key, err := parsePrivateKey(keyPEM)
	if err != nil {
		return nil, err
	}

	cfg := &tls.Config{
		Certificates: []tls.Certificate{{
			Certificate: chain,
			PrivateKey:  key,
		}},
		MinVersion: tls.VersionTLS12,
		NextProtos: []string{"http/1.1"},
	}

	return &Identity{cfg: cfg}, nil
}

// RequireClientCerts enables mutual TLS: peers must present a certificate
// signed by one of the CAs in the PEM bundle.
func (id *Identity) RequireClientCerts(caPEM []byte) error {
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caPEM) {
		return fmt.Errorf("no certificates found in client CA bundle")
	}

	id.cfg.ClientAuth = tls.RequireAndVerifyClientCert
	id.cfg.ClientCAs = pool
	return nil
}

// serverConfig returns the shared TLS configuration. Callers must not
// mutate it.
func (id *Identity) serverConfig() *tls.Config {
	return id.cfg
}

func parseCertificateChain(certPEM []byte) ([][]byte, error) {
	var chain [][]byte
	for block, rest := pem.Decode(certPEM); block != nil; block, rest = pem.Decode(rest) {
		if block.Type != "CERTIFICATE" {
			continue
		}
		if _, err := x509.ParseCertificate(block.Bytes); err != nil {
			return nil, fmt.Errorf("x509.ParseCertificate(): %w", err)
		}
		chain = append(chain, block.Bytes)
	}

	if len(chain) == 0 {
		return nil, fmt.Errorf("no certificates found in chain")
	}
	return chain, nil
}

func parsePrivateKey(keyPEM []byte) (crypto.PrivateKey, error) {
	var keys []crypto.PrivateKey
	for block, rest := pem.Decode(keyPEM); block != nil; block, rest = pem.Decode(rest) {
		if block.Type != "PRIVATE KEY" {
			continue
		}
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("x509.ParsePKCS8PrivateKey(): %w", err)
		}
		keys = append(keys, key)
	}

	switch len(keys) {
	case 0:
		return nil, fmt.Errorf("no PKCS#8 private key found")
	case 1:
		return keys[0], nil
	default:
		return nil, fmt.Errorf("found %d private keys, expected exactly one", len(keys))
	}
}
