package telemetry

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// RequestIDHeader carries the correlation ID on outbound API calls.
const RequestIDHeader = "X-Request-ID"

const (
	FieldRequestID = "request_id"
	FieldTraceID   = "trace_id"
	FieldSpanID    = "span_id"
)

type requestKey struct{}

// RequestMeta correlates one API call across logs and the backend.
type RequestMeta struct {
	RequestID string
	TraceID   string
	SpanID    string
}

// WithRequest attaches a request ID to ctx, reusing one already present. An
// active trace span contributes its IDs.
func WithRequest(ctx context.Context) (context.Context, RequestMeta) {
	if ctx == nil {
		ctx = context.Background()
	}
	if meta, ok := RequestFromContext(ctx); ok {
		return ctx, meta
	}
	meta := RequestMeta{RequestID: uuid.NewString()}
	if span := trace.SpanContextFromContext(ctx); span.IsValid() {
		meta.TraceID = span.TraceID().String()
		meta.SpanID = span.SpanID().String()
	}
	return context.WithValue(ctx, requestKey{}, meta), meta
}

func RequestFromContext(ctx context.Context) (RequestMeta, bool) {
	if ctx == nil {
		return RequestMeta{}, false
	}
	meta, ok := ctx.Value(requestKey{}).(RequestMeta)
	return meta, ok && meta.RequestID != ""
}

// Fields renders the non-empty IDs as log fields.
func (m RequestMeta) Fields() []zap.Field {
	fields := make([]zap.Field, 0, 3)
	if m.RequestID != "" {
		fields = append(fields, zap.String(FieldRequestID, m.RequestID))
	}
	if m.TraceID != "" {
		fields = append(fields, zap.String(FieldTraceID, m.TraceID))
	}
	if m.SpanID != "" {
		fields = append(fields, zap.String(FieldSpanID, m.SpanID))
	}
	return fields
}
