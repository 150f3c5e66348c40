package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
)

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyLog(&cfg.Log); err != nil {
		return err
	}
	if err := verifyMetrics(&cfg.Metrics); err != nil {
		return err
	}
	return nil
}

func verifyServer(cfg *ServerSection) error {
	if cfg.Addr == "" {
		return errors.New("server.addr is required")
	}
	_, port, err := net.SplitHostPort(cfg.Addr)
	if err != nil {
		return fmt.Errorf("server.addr %q: %w", cfg.Addr, err)
	}
	if n, err := strconv.Atoi(port); err != nil || n < 0 || n > 65535 {
		return fmt.Errorf("server.addr %q: invalid port", cfg.Addr)
	}

	if _, err := cfg.HeaderLimit(); err != nil {
		return err
	}

	tls := cfg.TLS
	if (tls.CertFile == "") != (tls.KeyFile == "") {
		return errors.New("server.tls.cert_file and server.tls.key_file must be set together")
	}
	for _, f := range []string{tls.CertFile, tls.KeyFile} {
		if f == "" {
			continue
		}
		if _, err := os.Stat(f); err != nil {
			return fmt.Errorf("server.tls: %w", err)
		}
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	switch strings.ToLower(cfg.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level %q: must be debug, info, warn or error", cfg.Level)
	}
	switch strings.ToLower(cfg.Format) {
	case "", "text", "console", "json":
	default:
		return fmt.Errorf("log.format %q: must be text or json", cfg.Format)
	}
	return nil
}

func verifyMetrics(cfg *MetricsSection) error {
	if !cfg.Enabled {
		return nil
	}
	if !strings.HasPrefix(cfg.Path, "/") {
		return fmt.Errorf("metrics.path %q: must start with /", cfg.Path)
	}
	return nil
}
