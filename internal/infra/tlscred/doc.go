// Package tlscred loads the server certificate and private key used to
// terminate TLS.
//
// The certificate file holds a PEM chain, leaf first. The key file holds a
// PEM-encoded PKCS#8 private key ("PRIVATE KEY" block); legacy PKCS#1 and
// SEC 1 encodings are rejected.
package tlscred
