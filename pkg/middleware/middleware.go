package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/alexu8007/Oxidized/pkg/web"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// Log logs every request before handing it to the next handler. The inner
// result is returned unchanged.
func Log(logger *slog.Logger) web.Layer {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next web.Handler) web.Handler {
		return web.HandlerFunc(func(ctx context.Context, req *web.Request) (*web.Response, error) {
			attrs := []any{
				"method", req.Method,
				"uri", req.RequestURI,
			}
			if id, ok := web.RequestIDFrom(ctx); ok {
				attrs = append(attrs, "request_id", id)
			}
			logger.InfoContext(ctx, "request", attrs...)
			return next.Call(ctx, req)
		})
	}
}

// RequestID tags each request with an ID. A client-supplied X-Request-ID is
// kept; otherwise one is generated. The ID is stored in the context and
// echoed on successful responses.
func RequestID() web.Layer {
	return func(next web.Handler) web.Handler {
		return web.HandlerFunc(func(ctx context.Context, req *web.Request) (*web.Response, error) {
			requestID := req.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = "req-" + ulid.Make().String()
			}

			ctx = web.WithRequestID(ctx, requestID)
			req.WithContext(ctx)

			resp, err := next.Call(ctx, req)
			if resp != nil {
				resp.WithHeader(RequestIDHeader, requestID)
			}
			return resp, err
		})
	}
}

// Audit logs the outcome of every request once the inner handler returned.
func Audit(logger *slog.Logger) web.Layer {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next web.Handler) web.Handler {
		return web.HandlerFunc(func(ctx context.Context, req *web.Request) (*web.Response, error) {
			start := time.Now()
			resp, err := next.Call(ctx, req)

			requestID, _ := web.RequestIDFrom(ctx)
			attrs := []any{
				"request_id", requestID,
				"method", req.Method,
				"path", req.Path(),
				"duration_ms", time.Since(start).Milliseconds(),
				"remote_addr", req.RemoteAddr,
			}

			switch {
			case err != nil:
				attrs = append(attrs, "kind", web.KindOf(err).String(), "error", err)
				logger.WarnContext(ctx, "request failed", attrs...)
			case resp == nil:
				logger.WarnContext(ctx, "request returned no response", attrs...)
			case resp.StatusCode() >= 500:
				logger.ErrorContext(ctx, "request completed with error", append(attrs, "status", resp.StatusCode())...)
			case resp.StatusCode() >= 400:
				logger.WarnContext(ctx, "request completed with client error", append(attrs, "status", resp.StatusCode())...)
			default:
				logger.InfoContext(ctx, "request completed", append(attrs, "status", resp.StatusCode())...)
			}
			return resp, err
		})
	}
}

// Recover converts a panic in the inner handler into a KindInternal error.
func Recover(logger *slog.Logger) web.Layer {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next web.Handler) web.Handler {
		return web.HandlerFunc(func(ctx context.Context, req *web.Request) (resp *web.Response, err error) {
			defer func() {
				if r := recover(); r != nil {
					requestID, _ := web.RequestIDFrom(ctx)
					logger.ErrorContext(ctx, "panic recovered",
						"request_id", requestID,
						"error", r,
						"path", req.Path(),
						"stack", string(debug.Stack()),
					)
					resp = nil
					err = web.NewError(web.KindInternal, "handler panicked").Wrap(fmt.Errorf("%v", r))
				}
			}()

			return next.Call(ctx, req)
		})
	}
}
