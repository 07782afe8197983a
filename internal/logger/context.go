package logger

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey struct{}

// ContextWithLogger returns a child context carrying the logger.
// Request middleware stores a per-request logger this way so handlers
// log with the request id attached.
func ContextWithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the logger stored in the context, or a no-op
// logger when none was stored.
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := TryFromContext(ctx); ok {
		return l
	}
	return zap.NewNop()
}

// TryFromContext reports whether the context carries a logger.
func TryFromContext(ctx context.Context) (*zap.Logger, bool) {
	l, ok := ctx.Value(ctxKey{}).(*zap.Logger)
	return l, ok
}
