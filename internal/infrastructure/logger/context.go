package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type contextKey string

const (
	loggerKey        contextKey = "logger"
	requestIDKey     contextKey = "request_id"
	hotelIDKey       contextKey = "hotel_id"
	syncIDKey        contextKey = "sync_id"
	correlationIDKey contextKey = "correlation_id"
)

// WithContext attaches logger to ctx
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the attached logger, or a no-op logger
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}

// WithRequestID records the HTTP request ID
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// WithHotelID records the hotel a unit of work belongs to
func WithHotelID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, hotelIDKey, id)
}

// WithSyncID records the sync run
func WithSyncID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, syncIDKey, id)
}

// WithCorrelationID records a webhook delivery's correlation ID
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// RequestID returns the request ID, if any
func RequestID(ctx context.Context) string { return stringValue(ctx, requestIDKey) }

// HotelID returns the hotel ID, if any
func HotelID(ctx context.Context) string { return stringValue(ctx, hotelIDKey) }

// SyncID returns the sync ID, if any
func SyncID(ctx context.Context) string { return stringValue(ctx, syncIDKey) }

// CorrelationID returns the correlation ID, if any
func CorrelationID(ctx context.Context) string { return stringValue(ctx, correlationIDKey) }

func stringValue(ctx context.Context, key contextKey) string {
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// Fields returns the correlation fields carried by ctx: trace and span IDs plus
// whichever of request_id, hotel_id, sync_id and correlation_id are set.
func Fields(ctx context.Context) []zap.Field {
	var fields []zap.Field
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
	}
	for _, key := range []contextKey{requestIDKey, hotelIDKey, syncIDKey, correlationIDKey} {
		if v := stringValue(ctx, key); v != "" {
			fields = append(fields, zap.String(string(key), v))
		}
	}
	return fields
}

// L returns the context logger enriched with the correlation fields.
// Usage: logger.L(ctx).Info("sync completed", zap.Int("processed", n))
func L(ctx context.Context) *zap.Logger {
	return Enrich(ctx, FromContext(ctx))
}

// Enrich adds the correlation fields of ctx to base
func Enrich(ctx context.Context, base *zap.Logger) *zap.Logger {
	if base == nil {
		base = zap.NewNop()
	}
	fields := Fields(ctx)
	if len(fields) == 0 {
		return base
	}
	return base.With(fields...)
}
