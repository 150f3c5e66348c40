package tlscred

import (
	"crypto"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

var (
	// ErrNoCertsFound is returned when no certificates are found in a PEM file.
	ErrNoCertsFound = errors.New("tlscred: no certificates found in PEM data")

	// ErrNoKeyFound is returned when no PKCS#8 private key is found.
	ErrNoKeyFound = errors.New("tlscred: no PKCS#8 private key found in PEM data")

	// ErrKeyMismatch is returned when the private key does not belong to the
	// leaf certificate.
	ErrKeyMismatch = errors.New("tlscred: private key does not match certificate")
)

// LoadKeyPair reads a PEM certificate chain and a PEM PKCS#8 private key
// from disk. The first certificate in the chain is the leaf.
func LoadKeyPair(certFile, keyFile string) (tls.Certificate, error) {
	certPEM, err := os.ReadFile(certFile)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("tlscred: read cert file %s: %w", certFile, err)
	}
	keyPEM, err := os.ReadFile(keyFile)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("tlscred: read key file %s: %w", keyFile, err)
	}
	return ParseKeyPair(certPEM, keyPEM)
}

// ParseKeyPair builds a certificate from PEM data. Blocks of other types
// are skipped. Only the first PRIVATE KEY block is used.
func ParseKeyPair(certPEM, keyPEM []byte) (tls.Certificate, error) {
	var cert tls.Certificate

	for len(certPEM) > 0 {
		var block *pem.Block
		block, certPEM = pem.Decode(certPEM)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		if cert.Leaf == nil {
			leaf, err := x509.ParseCertificate(block.Bytes)
			if err != nil {
				return tls.Certificate{}, fmt.Errorf("tlscred: parse certificate: %w", err)
			}
			cert.Leaf = leaf
		}
		cert.Certificate = append(cert.Certificate, block.Bytes)
	}
	if len(cert.Certificate) == 0 {
		return tls.Certificate{}, ErrNoCertsFound
	}

	key, err := parsePKCS8(keyPEM)
	if err != nil {
		return tls.Certificate{}, err
	}

	pub, ok := cert.Leaf.PublicKey.(interface{ Equal(crypto.PublicKey) bool })
	if !ok || !pub.Equal(key.Public()) {
		return tls.Certificate{}, ErrKeyMismatch
	}
	cert.PrivateKey = key
	return cert, nil
}

func parsePKCS8(keyPEM []byte) (crypto.Signer, error) {
	for len(keyPEM) > 0 {
		var block *pem.Block
		block, keyPEM = pem.Decode(keyPEM)
		if block == nil {
			break
		}
		if block.Type != "PRIVATE KEY" {
			continue
		}
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("tlscred: parse private key: %w", err)
		}
		signer, ok := key.(crypto.Signer)
		if !ok {
			return nil, fmt.Errorf("tlscred: unsupported private key type %T", key)
		}
		return signer, nil
	}
	return nil, ErrNoKeyFound
}

// ServerConfig returns a server-side TLS configuration that presents cert
// and negotiates TLS 1.2 or 1.3. Client certificates are not requested.
func ServerConfig(cert tls.Certificate) *tls.Config {
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
		MaxVersion:   tls.VersionTLS13,
		NextProtos:   []string{"http/1.1"},
	}
}

// LoadServerConfig is LoadKeyPair followed by ServerConfig.
func LoadServerConfig(certFile, keyFile string) (*tls.Config, error) {
	cert, err := LoadKeyPair(certFile, keyFile)
	if err != nil {
		return nil, err
	}
	return ServerConfig(cert), nil
}
