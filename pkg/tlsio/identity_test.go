package tlsio

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testKeyPEM(t *testing.T) []byte {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generating key: %s", err)
	}
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatalf("marshaling key: %s", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})
}

func TestSelfSignedIdentity_RoundTripsThroughPEMParsing(t *testing.T) {
	t.Parallel()

	id, caPEM, err := SelfSignedIdentity("127.0.0.1")
	if err != nil {
		t.Fatalf("SelfSignedIdentity(): %s", err)
	}

	cfg := id.serverConfig()
	if len(cfg.Certificates) != 1 {
		t.Fatalf("identity holds %d certificates, want 1", len(cfg.Certificates))
	}
	if len(cfg.Certificates[0].Certificate) != 2 {
		t.Errorf("chain length = %d, want leaf plus CA", len(cfg.Certificates[0].Certificate))
	}

	block, _ := pem.Decode(caPEM)
	if block == nil || block.Type != "CERTIFICATE" {
		t.Fatal("returned CA material is not a PEM certificate")
	}
	ca, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		t.Fatalf("parsing CA certificate: %s", err)
	}
	if !ca.IsCA {
		t.Error("CA certificate is not marked as a CA")
	}
}

func TestNewIdentity_RejectsMissingKey(t *testing.T) {
	t.Parallel()

	_, chainPEM, err := selfSignedChain(t)
	if err != nil {
		t.Fatal(err)
	}

	_, err = NewIdentity(chainPEM, []byte("not a key"))
	if err == nil || !strings.Contains(err.Error(), "no PKCS#8 private key") {
		t.Errorf("NewIdentity() without key = %v, want missing-key error", err)
	}
}

func TestNewIdentity_RejectsMultipleKeys(t *testing.T) {
	t.Parallel()

	_, chainPEM, err := selfSignedChain(t)
	if err != nil {
		t.Fatal(err)
	}

	doubled := append(testKeyPEM(t), testKeyPEM(t)...)
	_, err = NewIdentity(chainPEM, doubled)
	if err == nil || !strings.Contains(err.Error(), "expected exactly one") {
		t.Errorf("NewIdentity() with two keys = %v, want exactly-one error", err)
	}
}

func TestNewIdentity_RejectsEmptyChain(t *testing.T) {
	t.Parallel()

	_, err := NewIdentity([]byte("garbage"), testKeyPEM(t))
	if err == nil || !strings.Contains(err.Error(), "no certificates") {
		t.Errorf("NewIdentity() without certificates = %v, want empty-chain error", err)
	}
}

func TestLoadIdentity_ReadsFiles(t *testing.T) {
	t.Parallel()

	id, _, err := SelfSignedIdentity("localhost")
	if err != nil {
		t.Fatalf("SelfSignedIdentity(): %s", err)
	}
	cert := id.serverConfig().Certificates[0]

	dir := t.TempDir()
	certFile := filepath.Join(dir, "cert.pem")
	keyFile := filepath.Join(dir, "key.pem")

	var chainPEM []byte
	for _, der := range cert.Certificate {
		chainPEM = append(chainPEM, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})...)
	}
	keyDER, err := x509.MarshalPKCS8PrivateKey(cert.PrivateKey)
	if err != nil {
		t.Fatalf("marshaling key: %s", err)
	}
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDER})

	if err := os.WriteFile(certFile, chainPEM, 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(keyFile, keyPEM, 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadIdentity(certFile, keyFile); err != nil {
		t.Errorf("LoadIdentity(): %s", err)
	}

	if _, err := LoadIdentity(filepath.Join(dir, "missing.pem"), keyFile); err == nil {
		t.Error("LoadIdentity() with missing certificate file = nil, want error")
	}
}

func TestRequireClientCerts(t *testing.T) {
	t.Parallel()

	id, caPEM, err := SelfSignedIdentity("localhost")
	if err != nil {
		t.Fatalf("SelfSignedIdentity(): %s", err)
	}

	if err := id.RequireClientCerts(caPEM); err != nil {
		t.Fatalf("RequireClientCerts(): %s", err)
	}
	if id.serverConfig().ClientCAs == nil {
		t.Error("client CA pool not installed")
	}

	if err := id.RequireClientCerts([]byte("not a bundle")); err == nil {
		t.Error("RequireClientCerts() with garbage bundle = nil, want error")
	}
}

// selfSignedChain returns a valid certificate chain PEM for tests that
// need one without the matching key.
func selfSignedChain(t *testing.T) (*Identity, []byte, error) {
	t.Helper()

	id, _, err := SelfSignedIdentity("localhost")
	if err != nil {
		return nil, nil, err
	}
	var chainPEM []byte
	for _, der := range id.serverConfig().Certificates[0].Certificate {
		chainPEM = append(chainPEM, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})...)
	}
	return id, chainPEM, nil
}
