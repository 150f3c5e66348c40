package router

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alexu8007/Oxidized/pkg/web"
	"github.com/alexu8007/Oxidized/pkg/ws"
)

// UpgradeHandler answers a protocol upgrade request synchronously. It
// returns the handshake response; the upgraded session runs elsewhere.
type UpgradeHandler func(req *web.Request) (*web.Response, error)

// Router selects one handler per request by exact method and path.
//
// Routes are registered before serving starts. A Router is safe for
// concurrent dispatch but must not be modified while it serves.
type Router struct {
	routes   map[string]map[string]web.Handler
	upgrades map[string]UpgradeHandler
	logger   *slog.Logger
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the logger passed to WebSocket routes registered with WS.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		r.logger = logger
	}
}

// New creates an empty router.
func New(opts ...Option) *Router {
	r := &Router{
		routes:   make(map[string]map[string]web.Handler),
		upgrades: make(map[string]UpgradeHandler),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Handle registers h for method and path. Paths match by exact string
// equality; "/a" and "/a/" are different routes. Registering the same
// method and path again replaces the earlier handler.
func (r *Router) Handle(method, path string, h web.Handler) *Router {
	byPath, ok := r.routes[method]
	if !ok {
		byPath = make(map[string]web.Handler)
		r.routes[method] = byPath
	}
	byPath[path] = h
	return r
}

func (r *Router) Get(path string, h web.Handler) *Router {
	return r.Handle(http.MethodGet, path, h)
}

func (r *Router) Post(path string, h web.Handler) *Router {
	return r.Handle(http.MethodPost, path, h)
}

func (r *Router) Put(path string, h web.Handler) *Router {
	return r.Handle(http.MethodPut, path, h)
}

func (r *Router) Patch(path string, h web.Handler) *Router {
	return r.Handle(http.MethodPatch, path, h)
}

func (r *Router) Delete(path string, h web.Handler) *Router {
	return r.Handle(http.MethodDelete, path, h)
}

func (r *Router) Head(path string, h web.Handler) *Router {
	return r.Handle(http.MethodHead, path, h)
}

func (r *Router) Options(path string, h web.Handler) *Router {
	return r.Handle(http.MethodOptions, path, h)
}

// Upgrade registers an upgrade handler for path. It takes priority over
// every method route at the same path.
func (r *Router) Upgrade(path string, h UpgradeHandler) *Router {
	r.upgrades[path] = h
	return r
}

// WS registers a WebSocket endpoint at path.
func (r *Router) WS(path string, fn ws.SessionFunc, opts ...ws.Option) *Router {
	opts = append([]ws.Option{ws.WithLogger(r.logger)}, opts...)
	return r.Upgrade(path, ws.Upgrade(fn, opts...))
}

// Layer wraps the router in l and returns the resulting stack. Further
// layers are added with the stack's own Layer method and become outermost.
func (r *Router) Layer(l web.Layer) *web.Stack {
	return web.NewStack(l, r)
}

// Call dispatches req. Upgrade routes are checked first, regardless of
// method. A miss returns web.ErrRouteNotFound.
func (r *Router) Call(ctx context.Context, req *web.Request) (*web.Response, error) {
	path := req.Path()
	if up, ok := r.upgrades[path]; ok {
		return up(req)
	}
	if h, ok := r.routes[req.Method][path]; ok {
		return h.Call(ctx, req)
	}
	return nil, web.ErrRouteNotFound
}

// Routes returns the number of registered method routes and upgrade routes.
func (r *Router) Routes() (methods, upgrades int) {
	for _, byPath := range r.routes {
		methods += len(byPath)
	}
	return methods, len(r.upgrades)
}
