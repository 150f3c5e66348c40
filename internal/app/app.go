package app

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"

	"github.com/alexu8007/Oxidized/internal/infra/tlscred"
	"github.com/alexu8007/Oxidized/internal/server/config"
	"github.com/alexu8007/Oxidized/internal/telemetry/logger"
	"github.com/alexu8007/Oxidized/internal/telemetry/metric"
	"github.com/alexu8007/Oxidized/pkg/middleware"
	"github.com/alexu8007/Oxidized/pkg/router"
	"github.com/alexu8007/Oxidized/pkg/server"
	"github.com/alexu8007/Oxidized/pkg/web"
	"github.com/alexu8007/Oxidized/pkg/ws"
)

// App is the reference application: the router, its layer stack and the
// server that runs it.
type App struct {
	cfg     *config.ServerConfig
	logger  *slog.Logger
	metrics *metric.Registry
	router  *router.Router
	handler web.Handler
	server  *server.Server

	headerLimit int
}

// New builds the application from a verified configuration. TLS material
// is loaded here, so a bad certificate fails before anything is bound.
func New(cfg *config.ServerConfig, log *slog.Logger) (*App, error) {
	if log == nil {
		log = slog.Default()
	}
	a := &App{
		cfg:    cfg,
		logger: log,
		router: router.New(router.WithLogger(log)),
	}

	headerLimit, err := cfg.Server.HeaderLimit()
	if err != nil {
		return nil, err
	}
	a.headerLimit = headerLimit

	var wsOpts []ws.Option
	serverOpts := []server.Option{
		server.WithAddr(cfg.Server.Addr),
		server.WithLogger(log),
		server.WithMaxHeaderBytes(headerLimit),
	}

	if cfg.Metrics.Enabled {
		a.metrics = metric.NewRegistry()
		a.router.Get(cfg.Metrics.Path, a.metrics.Handler())
		wsOpts = append(wsOpts, ws.WithObserver(a.metrics))
		serverOpts = append(serverOpts, server.WithObserver(a.metrics))
	}
	registerRoutes(a.router, wsOpts...)

	if cfg.Server.TLS.Enabled() {
		tlsConfig, err := loadTLS(cfg.Server.TLS)
		if err != nil {
			return nil, err
		}
		serverOpts = append(serverOpts, server.WithTLS(tlsConfig))
	}

	a.handler = a.stack()
	a.server = server.New(a.handler, serverOpts...)
	return a, nil
}

// stack wraps the router in the application layers. RequestID runs first
// and the metrics layer sits closest to the router.
func (a *App) stack() web.Handler {
	var inner web.Handler = a.router
	if a.metrics != nil {
		inner = web.NewStack(a.metrics.Layer(), a.router)
	}
	return web.Chain(inner,
		middleware.RequestID(),
		withLogger(a.logger),
		middleware.Audit(a.logger),
		middleware.Recover(a.logger),
		middleware.Log(a.logger),
	)
}

// withLogger makes the application logger available to handlers and
// WebSocket sessions through logger.L.
func withLogger(l *slog.Logger) web.Layer {
	return func(next web.Handler) web.Handler {
		return web.HandlerFunc(func(ctx context.Context, req *web.Request) (*web.Response, error) {
			ctx = logger.WithLogger(ctx, l)
			req.WithContext(ctx)
			return next.Call(ctx, req)
		})
	}
}

func loadTLS(cfg config.TLSConfig) (*tls.Config, error) {
	tlsConfig, err := tlscred.LoadServerConfig(cfg.CertFile, cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("load tls credentials: %w", err)
	}
	return tlsConfig, nil
}

// Handler returns the fully layered application handler.
func (a *App) Handler() web.Handler {
	return a.handler
}

// Server returns the server that runs the application.
func (a *App) Server() *server.Server {
	return a.server
}

// Metrics returns the metrics registry, or nil when metrics are disabled.
func (a *App) Metrics() *metric.Registry {
	return a.metrics
}

// Run binds the configured address and serves until ctx is done or the
// listener fails.
func (a *App) Run(ctx context.Context) error {
	methods, upgrades := a.router.Routes()
	a.logger.Info("starting server",
		"addr", a.cfg.Server.Addr,
		"tls", a.cfg.Server.TLS.Enabled(),
		"routes", methods,
		"upgrade_routes", upgrades,
		"max_header", humanize.IBytes(uint64(a.headerLimit)),
		"metrics", a.cfg.Metrics.Enabled)
	return a.server.ListenAndServe(ctx)
}
