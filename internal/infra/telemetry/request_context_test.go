package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestWithRequestGeneratesOnce(t *testing.T) {
	ctx, meta := WithRequest(context.Background())
	require.NotEmpty(t, meta.RequestID)

	again, second := WithRequest(ctx)
	require.Equal(t, meta, second)

	got, ok := RequestFromContext(again)
	require.True(t, ok)
	require.Equal(t, meta.RequestID, got.RequestID)

	_, ok = RequestFromContext(context.Background())
	require.False(t, ok)
}

func TestWithRequestPicksUpSpan(t *testing.T) {
	traceID, err := trace.TraceIDFromHex("0123456789abcdef0123456789abcdef")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("0123456789abcdef")
	require.NoError(t, err)
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID,
		SpanID:  spanID,
	}))

	_, meta := WithRequest(ctx)
	require.Equal(t, traceID.String(), meta.TraceID)
	require.Equal(t, spanID.String(), meta.SpanID)

	fields := meta.Fields()
	require.Len(t, fields, 3)
	require.Equal(t, FieldRequestID, fields[0].Key)
	require.Equal(t, FieldTraceID, fields[1].Key)
	require.Equal(t, FieldSpanID, fields[2].Key)
}

func TestRequestFieldsSkipEmpty(t *testing.T) {
	require.Len(t, RequestMeta{RequestID: "req-1"}.Fields(), 1)
}
