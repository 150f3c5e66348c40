package logger

import (
	"context"
	"log/slog"

	"github.com/alexu8007/Oxidized/pkg/web"
)

type contextKey struct{}

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// FromContext extracts the logger from context.
// Returns slog.Default() if none is set.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(contextKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

// L is a shorthand for FromContext that also enriches the logger with the
// connection and request IDs carried by ctx.
func L(ctx context.Context) *slog.Logger {
	l := FromContext(ctx)
	if id, ok := web.ConnIDFrom(ctx); ok {
		l = l.With("conn_id", id)
	}
	if id, ok := web.RequestIDFrom(ctx); ok {
		l = l.With("request_id", id)
	}
	return l
}
