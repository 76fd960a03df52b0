package reqctx

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

// TraceIDFromContext returns the active OpenTelemetry trace id, or "" when
// the context carries no valid span.
func TraceIDFromContext(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}

// LogAttrs returns request correlation fields for slog calls.
func LogAttrs(ctx context.Context) []any {
	attrs := make([]any, 0, 6)
	if rid := RequestIDFromContext(ctx); rid != "" {
		attrs = append(attrs, "request_id", rid)
	}
	if tid := TraceIDFromContext(ctx); tid != "" {
		attrs = append(attrs, "trace_id", tid)
	}
	if uid, ok := UserIDFromContext(ctx); ok {
		attrs = append(attrs, "user_id", uid.String())
	}
	return attrs
}
