package otel

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, (&Config{}).Validate())
	assert.Equal(t, ErrInvalidServiceName, (&Config{Enabled: true}).Validate())

	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.Sampler = SamplerConfig{Type: SamplerTypeRatio, Ratio: 1.5}
	assert.Equal(t, ErrInvalidSamplerRatio, cfg.Validate())
}

func TestNew_Disabled(t *testing.T) {
	p, err := New(&Config{})
	require.NoError(t, err)
	assert.False(t, p.IsEnabled())
	assert.NotNil(t, p.Tracer("test"))

	require.NoError(t, p.Close())
	assert.Equal(t, ErrProviderClosed, p.Close())
}

func newRecordingProvider(t *testing.T) (*TracerProvider, *tracetest.SpanRecorder) {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	p, err := New(&Config{
		Enabled:      true,
		ServiceName:  "gachalog-test",
		ExporterType: ExporterTypeNoop,
		Sampler:      SamplerConfig{Type: SamplerTypeAlways},
	}, sdktrace.WithSpanProcessor(rec))
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p, rec
}

func TestNew_RecordsSpans(t *testing.T) {
	p, rec := newRecordingProvider(t)
	assert.True(t, p.IsEnabled())

	_, span := p.Tracer("test").Start(context.Background(), "sync")
	EndSpan(span, errors.New("boom"))

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "sync", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "boom", spans[0].Status().Description)
	require.Len(t, spans[0].Events(), 1)
}

func TestLogExtractor(t *testing.T) {
	extract := LogExtractor(nil)
	assert.Empty(t, extract(context.Background()))

	p, _ := newRecordingProvider(t)
	ctx, span := p.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	fields := extract(ctx)
	require.Len(t, fields, 2)
	assert.Equal(t, "trace_id", fields[0].Key)
	assert.Equal(t, span.SpanContext().TraceID().String(), fields[0].String)
	assert.Equal(t, "span_id", fields[1].Key)
}
