package config

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
)

// ServerConfig is the root configuration for oxidized-server.
type ServerConfig struct {
	Server  ServerSection  `koanf:"server"`
	Log     LogSection     `koanf:"log"`
	Metrics MetricsSection `koanf:"metrics"`
}

// ServerSection configures the listener.
type ServerSection struct {
	// Addr is the TCP address to bind, host:port.
	Addr string    `koanf:"addr"`
	TLS  TLSConfig `koanf:"tls"`

	// MaxHeaderBytes bounds the request line plus headers. It takes a
	// plain byte count or a size such as "64KiB".
	MaxHeaderBytes string `koanf:"max_header_bytes"`
}

// HeaderLimit parses MaxHeaderBytes.
func (s ServerSection) HeaderLimit() (int, error) {
	n, err := humanize.ParseBytes(s.MaxHeaderBytes)
	if err != nil {
		return 0, fmt.Errorf("server.max_header_bytes %q: %w", s.MaxHeaderBytes, err)
	}
	if n == 0 || n > math.MaxInt32 {
		return 0, fmt.Errorf("server.max_header_bytes %q: out of range", s.MaxHeaderBytes)
	}
	return int(n), nil
}

// TLSConfig enables TLS when both files are set.
type TLSConfig struct {
	CertFile string `koanf:"cert_file"`
	KeyFile  string `koanf:"key_file"`
}

// Enabled reports whether TLS is configured.
func (c TLSConfig) Enabled() bool {
	return c.CertFile != "" && c.KeyFile != ""
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// MetricsSection configures the Prometheus endpoint.
type MetricsSection struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}
