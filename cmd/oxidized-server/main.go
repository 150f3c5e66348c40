package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/alexu8007/Oxidized/internal/app"
	"github.com/alexu8007/Oxidized/internal/infra/buildinfo"
	"github.com/alexu8007/Oxidized/internal/infra/confloader"
	"github.com/alexu8007/Oxidized/internal/server/config"
	"github.com/alexu8007/Oxidized/internal/telemetry/logger"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"addr":       "server.addr",
	"tls-cert":   "server.tls.cert_file",
	"tls-key":    "server.tls.key_file",
	"log-level":  "log.level",
	"log-format": "log.format",
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "oxidized-server",
		Usage:   "Serve the oxidized reference application over HTTP/1.1",
		Version: buildinfo.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML configuration file",
				EnvVars: []string{"OXIDIZED_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Path to a dotenv file with OXIDIZED_ variables",
			},
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Address to listen on (default " + config.DefaultAddr + ")",
			},
			&cli.StringFlag{
				Name:  "tls-cert",
				Usage: "PEM certificate chain; enables TLS together with --tls-key",
			},
			&cli.StringFlag{
				Name:  "tls-key",
				Usage: "PEM PKCS#8 private key",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level: debug, info, warn, error",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Log format: text, json",
			},
			&cli.BoolFlag{
				Name:  "print-config",
				Usage: "Print the effective configuration and exit",
			},
		},
		Action: run,
	}
}

func run(c *cli.Context) error {
	cfg, loader, err := loadConfig(c)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if c.Bool("print-config") {
		return printConfig(c.App.Writer, loader)
	}

	logCfg := logger.DefaultConfig()
	logCfg.Level = cfg.Log.Level
	logCfg.Format = cfg.Log.Format
	log, err := logger.New(logCfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)

	log.Info("starting oxidized-server",
		"version", buildinfo.Get().Version,
		"config", c.String("config"))

	a, err := app.New(cfg, log)
	if err != nil {
		return err
	}

	// A signal stops the accept loop; connections in progress are not drained.
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Run(ctx); err != nil {
		log.Error("server error", "error", err)
		return err
	}
	log.Info("server stopped")
	return nil
}

// loadConfig layers defaults, the config file, the dotenv file, the
// environment and finally the flags that were set explicitly.
func loadConfig(c *cli.Context) (*config.ServerConfig, *confloader.Loader, error) {
	loader := confloader.NewLoader(
		confloader.WithDefaults(config.DefaultMap()),
		confloader.WithConfigFile(c.String("config")),
		confloader.WithEnvFile(c.String("env-file")),
	)

	cfg := &config.ServerConfig{}
	if err := loader.Load(cfg); err != nil {
		return nil, nil, err
	}

	flags := make(map[string]any)
	for name, key := range flagKeys {
		if c.IsSet(name) {
			flags[key] = c.String(name)
		}
	}
	if len(flags) > 0 {
		if err := loader.LoadMap(flags); err != nil {
			return nil, nil, err
		}
		if err := loader.Unmarshal(cfg); err != nil {
			return nil, nil, err
		}
	}

	if err := config.Verify(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, loader, nil
}

// printConfig writes every loaded key as "key = value", masking values
// whose key looks sensitive.
func printConfig(w io.Writer, loader *confloader.Loader) error {
	for _, key := range loader.Keys() {
		value := fmt.Sprint(loader.Get(key))
		if logger.IsSensitiveKey(key) {
			value = "***REDACTED***"
		}
		if _, err := fmt.Fprintf(w, "%s = %s\n", key, value); err != nil {
			return err
		}
	}
	return nil
}
