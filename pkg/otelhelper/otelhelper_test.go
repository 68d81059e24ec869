package otelhelper_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dukex/stepledger/pkg/otelhelper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestStartSpanAndSetError(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := provider.Tracer("test")

	_, span := otelhelper.StartSpan(context.Background(), tracer, "record", otelhelper.StepAttributes("run-1", "measure")...)
	otelhelper.SetError(span, errors.New("boom"))
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)

	assert.Equal(t, "record", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "boom", spans[0].Status().Description)

	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsString()
	}

	assert.Equal(t, "run-1", attrs[otelhelper.RunIDKey])
	assert.Equal(t, "measure", attrs[otelhelper.StepNameKey])

	events := spans[0].Events()
	require.Len(t, events, 1)
	assert.Equal(t, "exception", events[0].Name)

	eventAttrs := map[string]string{}
	for _, kv := range events[0].Attributes {
		eventAttrs[string(kv.Key)] = kv.Value.AsString()
	}

	assert.Equal(t, "*errors.errorString", eventAttrs[otelhelper.ErrorTypeKey])
}

func TestSetError_Nil(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tracer := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)).Tracer("test")

	_, span := tracer.Start(context.Background(), "noop")
	otelhelper.SetError(span, nil)
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Empty(t, spans[0].Events())
}

func TestGlobalTracer_IsUsableWithoutProvider(t *testing.T) {
	tracer := otelhelper.GlobalTracer("test")

	_, span := otelhelper.StartSpan(context.Background(), tracer, "noop")
	span.End()
}
