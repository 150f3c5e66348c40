package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"

	"github.com/alexu8007/Oxidized/pkg/web"
)

// DefaultAddr is used when no address is configured.
const DefaultAddr = "127.0.0.1:8080"

// DefaultMaxHeaderBytes bounds the request line and headers.
const DefaultMaxHeaderBytes = 1 << 20

// Server accepts connections and serves HTTP/1.1 on each with one handler.
type Server struct {
	handler        web.Handler
	addr           string
	tlsConfig      *tls.Config
	logger         *slog.Logger
	observer       Observer
	maxHeaderBytes int

	mu      sync.Mutex
	ln      net.Listener
	running atomic.Bool
}

// Option configures a Server.
type Option func(*Server)

// WithAddr sets the TCP address ListenAndServe binds.
func WithAddr(addr string) Option {
	return func(s *Server) {
		s.addr = addr
	}
}

// WithTLS terminates TLS on every accepted connection. The config is
// shared by all connections and must not be modified after New.
func WithTLS(cfg *tls.Config) Option {
	return func(s *Server) {
		s.tlsConfig = cfg
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithObserver sets the connection and request observer.
func WithObserver(o Observer) Option {
	return func(s *Server) {
		s.observer = o
	}
}

// WithMaxHeaderBytes bounds the size of a request head.
func WithMaxHeaderBytes(n int) Option {
	return func(s *Server) {
		s.maxHeaderBytes = n
	}
}

// New creates a server that answers every request with h. Handler
// failures are answered with 404 "Not Found".
func New(h web.Handler, opts ...Option) *Server {
	s := &Server{
		handler:        h,
		addr:           DefaultAddr,
		maxHeaderBytes: DefaultMaxHeaderBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.observer == nil {
		s.observer = nopObserver{}
	}
	if s.maxHeaderBytes <= 0 {
		s.maxHeaderBytes = DefaultMaxHeaderBytes
	}
	return s
}

// ListenAndServe binds the configured address and serves until the
// listener fails or ctx is done. A bind failure is returned immediately.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln and handles each on its own goroutine.
// It returns nil once ln is closed by Close or by ctx ending, and the
// accept error otherwise. Connections already accepted are not waited for.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	s.running.Store(true)

	stop := context.AfterFunc(ctx, func() {
		s.Close()
	})
	defer stop()

	s.logger.Info("server listening",
		"address", ln.Addr().String(),
		"tls", s.tlsConfig != nil)
	return s.acceptLoop(ctx, ln)
}

// Addr returns the address of the listener, or nil before Serve.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Close stops accepting connections. Connections in progress keep running.
func (s *Server) Close() error {
	s.running.Store(false)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Close()
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) error {
	defer ln.Close()
	for {
		c, err := ln.Accept()
		if err != nil {
			if !s.running.Load() {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			return err
		}

		go s.serveConn(ctx, c)
	}
}
