package ws

import (
	"context"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexu8007/Oxidized/pkg/web"
)

// acceptGUID is the fixed value appended to the client key (RFC 6455, 1.3).
const acceptGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

// AcceptKey computes the Sec-WebSocket-Accept value for a client key.
func AcceptKey(key string) string {
	h := sha1.New()
	h.Write([]byte(key))
	h.Write([]byte(acceptGUID))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// SessionFunc runs one WebSocket session. The connection is closed when it
// returns. A returned error is logged.
type SessionFunc func(ctx context.Context, conn *Conn) error

// Option configures Upgrade.
type Option func(*options)

type options struct {
	logger   *slog.Logger
	observer SessionObserver
}

// WithLogger sets the logger used by the session task.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithObserver sets the session observer.
func WithObserver(observer SessionObserver) Option {
	return func(o *options) {
		o.observer = observer
	}
}

// Upgrade returns an upgrade handler that answers the opening handshake
// with 101 Switching Protocols and runs fn on a detached goroutine once
// the runtime has handed the connection over.
//
// A request without Sec-WebSocket-Key still gets a 101, without the
// Sec-WebSocket-Accept header. A present but empty key is hashed like any
// other.
func Upgrade(fn SessionFunc, opts ...Option) func(*web.Request) (*web.Response, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.observer == nil {
		o.observer = nopObserver{}
	}

	return func(req *web.Request) (*web.Response, error) {
		pending := req.OnUpgrade()
		ctx := context.WithoutCancel(req.Context())
		go o.run(ctx, pending, fn, req.Path())

		resp := web.NewResponse(nil).
			WithStatus(http.StatusSwitchingProtocols).
			WithHeader("Connection", "upgrade").
			WithHeader("Upgrade", "websocket")
		if keys := req.Header.Values("Sec-WebSocket-Key"); len(keys) > 0 {
			resp.WithHeader("Sec-WebSocket-Accept", AcceptKey(keys[0]))
		}
		return resp, nil
	}
}

func (o *options) run(ctx context.Context, pending *web.PendingUpgrade, fn SessionFunc, path string) {
	logger := o.logger.With("path", path)
	if id, ok := web.ConnIDFrom(ctx); ok {
		logger = logger.With("conn_id", id)
	}

	up, err := pending.Wait(ctx)
	if err != nil {
		logger.Warn("websocket takeover failed", "error", err)
		o.observer.UpgradeFailed(err)
		return
	}

	conn := newConn(up, o.observer)
	start := time.Now()
	o.observer.SessionStarted()
	logger.Debug("websocket session started", "remote_addr", conn.RemoteAddr().String())

	defer func() {
		if r := recover(); r != nil {
			logger.Error("websocket session panic", "panic", fmt.Sprint(r))
		}
		conn.Close()
		o.observer.SessionEnded(time.Since(start))
		logger.Debug("websocket session ended", "duration", time.Since(start))
	}()

	if err := fn(ctx, conn); err != nil {
		logger.Warn("websocket session failed", "error", err)
	}
}
