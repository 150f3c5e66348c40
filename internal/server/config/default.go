package config

// Default configuration values.
const (
	DefaultAddr           = "127.0.0.1:8080"
	DefaultMaxHeaderBytes = "1MiB"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"

	DefaultMetricsPath = "/metrics"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			Addr:           DefaultAddr,
			MaxHeaderBytes: DefaultMaxHeaderBytes,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Metrics: MetricsSection{
			Enabled: true,
			Path:    DefaultMetricsPath,
		},
	}
}

// DefaultMap returns Default keyed by dotted path, for use as the lowest
// priority configuration source.
func DefaultMap() map[string]any {
	d := Default()
	return map[string]any{
		"server.addr":             d.Server.Addr,
		"server.tls.cert_file":    d.Server.TLS.CertFile,
		"server.tls.key_file":     d.Server.TLS.KeyFile,
		"server.max_header_bytes": d.Server.MaxHeaderBytes,
		"log.level":               d.Log.Level,
		"log.format":              d.Log.Format,
		"metrics.enabled":         d.Metrics.Enabled,
		"metrics.path":            d.Metrics.Path,
	}
}
