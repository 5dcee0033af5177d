package mq

import (
	"context"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestKafkaHeaderCarrier(t *testing.T) {
	carrier := KafkaHeaderCarrier{}

	carrier.Set("traceparent", "v1")
	assert.Equal(t, "v1", carrier.Get("traceparent"))

	// 同名覆盖而不是追加
	carrier.Set("traceparent", "v2")
	assert.Equal(t, "v2", carrier.Get("traceparent"))
	assert.Equal(t, []string{"traceparent"}, carrier.Keys())

	assert.Equal(t, "", carrier.Get("missing"))
}

func TestInjectExtractTraceContext(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})

	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	var headers []kafka.Header
	InjectTraceContext(ctx, &headers)
	require.NotEmpty(t, headers)

	restored := ExtractTraceContext(context.Background(), headers)
	restoredSC := trace.SpanContextFromContext(restored)
	assert.Equal(t, traceID, restoredSC.TraceID())
	assert.True(t, restoredSC.IsRemote())
}
