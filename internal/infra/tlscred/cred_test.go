package tlscred

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// testPair is a generated self-signed certificate and its key.
type testPair struct {
	certPEM []byte
	key     *ecdsa.PrivateKey
}

func generateTestPair(t *testing.T) testPair {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}

	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject: pkix.Name{
			Organization: []string{"Test Org"},
			CommonName:   "test.local",
		},
		DNSNames:              []string{"test.local"},
		NotBefore:             time.Now(),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}

	certDER, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("CreateCertificate() error = %v", err)
	}
	return testPair{
		certPEM: pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certDER}),
		key:     key,
	}
}

func (p testPair) pkcs8PEM(t *testing.T) []byte {
	t.Helper()
	der, err := x509.MarshalPKCS8PrivateKey(p.key)
	if err != nil {
		t.Fatalf("MarshalPKCS8PrivateKey() error = %v", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})
}

func (p testPair) sec1PEM(t *testing.T) []byte {
	t.Helper()
	der, err := x509.MarshalECPrivateKey(p.key)
	if err != nil {
		t.Fatalf("MarshalECPrivateKey() error = %v", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der})
}

func TestParseKeyPair(t *testing.T) {
	p := generateTestPair(t)

	cert, err := ParseKeyPair(p.certPEM, p.pkcs8PEM(t))
	if err != nil {
		t.Fatalf("ParseKeyPair() error = %v", err)
	}
	if len(cert.Certificate) != 1 {
		t.Errorf("len(Certificate) = %d, want 1", len(cert.Certificate))
	}
	if cert.Leaf == nil || cert.Leaf.Subject.CommonName != "test.local" {
		t.Errorf("Leaf = %v, want test.local", cert.Leaf)
	}
	if cert.PrivateKey == nil {
		t.Error("PrivateKey not set")
	}
}

func TestParseKeyPair_Chain(t *testing.T) {
	leaf := generateTestPair(t)
	other := generateTestPair(t)

	chain := append(append([]byte{}, leaf.certPEM...), other.certPEM...)
	cert, err := ParseKeyPair(chain, leaf.pkcs8PEM(t))
	if err != nil {
		t.Fatalf("ParseKeyPair() error = %v", err)
	}
	if len(cert.Certificate) != 2 {
		t.Errorf("len(Certificate) = %d, want 2", len(cert.Certificate))
	}
}

func TestParseKeyPair_Errors(t *testing.T) {
	p := generateTestPair(t)
	other := generateTestPair(t)

	tests := []struct {
		name    string
		certPEM []byte
		keyPEM  []byte
		want    error
	}{
		{"no certificate", []byte("not pem"), p.pkcs8PEM(t), ErrNoCertsFound},
		{"key block only", p.pkcs8PEM(t), p.pkcs8PEM(t), ErrNoCertsFound},
		{"no key", p.certPEM, nil, ErrNoKeyFound},
		{"sec1 key", p.certPEM, p.sec1PEM(t), ErrNoKeyFound},
		{"mismatched key", p.certPEM, other.pkcs8PEM(t), ErrKeyMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseKeyPair(tt.certPEM, tt.keyPEM)
			if !errors.Is(err, tt.want) {
				t.Errorf("ParseKeyPair() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParseKeyPair_InvalidCert(t *testing.T) {
	p := generateTestPair(t)
	bad := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: []byte("garbage")})
	if _, err := ParseKeyPair(bad, p.pkcs8PEM(t)); err == nil {
		t.Error("ParseKeyPair() should fail for an unparsable certificate")
	}
}

func TestLoadKeyPair(t *testing.T) {
	p := generateTestPair(t)
	tmpDir := t.TempDir()
	certFile := filepath.Join(tmpDir, "server.crt")
	keyFile := filepath.Join(tmpDir, "server.key")
	if err := os.WriteFile(certFile, p.certPEM, 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(keyFile, p.pkcs8PEM(t), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadServerConfig(certFile, keyFile)
	if err != nil {
		t.Fatalf("LoadServerConfig() error = %v", err)
	}
	if len(cfg.Certificates) != 1 {
		t.Errorf("len(Certificates) = %d, want 1", len(cfg.Certificates))
	}
	if cfg.MinVersion != tls.VersionTLS12 || cfg.MaxVersion != tls.VersionTLS13 {
		t.Errorf("versions = %x-%x, want TLS 1.2-1.3", cfg.MinVersion, cfg.MaxVersion)
	}
}

func TestLoadKeyPair_NotFound(t *testing.T) {
	if _, err := LoadKeyPair("/nonexistent/cert", "/nonexistent/key"); err == nil {
		t.Error("LoadKeyPair() expected error for nonexistent files")
	}
}

func TestServerConfigHandshake(t *testing.T) {
	p := generateTestPair(t)
	cert, err := ParseKeyPair(p.certPEM, p.pkcs8PEM(t))
	if err != nil {
		t.Fatal(err)
	}

	pool := x509.NewCertPool()
	pool.AddCert(cert.Leaf)

	ln, err := tls.Listen("tcp", "127.0.0.1:0", ServerConfig(cert))
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer ln.Close()

	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		defer c.Close()
		_ = c.(*tls.Conn).Handshake()
	}()

	conn, err := tls.Dial("tcp", ln.Addr().String(), &tls.Config{
		RootCAs:    pool,
		ServerName: "test.local",
	})
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()
	if v := conn.ConnectionState().Version; v != tls.VersionTLS13 {
		t.Errorf("negotiated version = %x, want TLS 1.3", v)
	}
}
