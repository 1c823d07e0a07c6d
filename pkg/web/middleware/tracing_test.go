package middleware

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func TestTracing(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	t.Cleanup(func() { _ = tp.Shutdown(t.Context()) })

	engine := gin.New()
	engine.Use(Tracing(tp.Tracer("web")))

	var inner trace.SpanContext
	engine.GET("/players/:uid", func(c *gin.Context) {
		inner = trace.SpanContextFromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})
	engine.GET("/boom", func(c *gin.Context) {
		c.Status(http.StatusInternalServerError)
	})

	const parent = "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"
	w := serve(engine, http.MethodGet, "/players/1001", http.Header{"Traceparent": {parent}})
	require.Equal(t, http.StatusOK, w.Code)
	serve(engine, http.MethodGet, "/boom", nil)

	spans := rec.Ended()
	require.Len(t, spans, 2)

	ok := spans[0]
	assert.Equal(t, "GET /players/:uid", ok.Name())
	assert.Equal(t, trace.SpanKindServer, ok.SpanKind())
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", ok.SpanContext().TraceID().String())
	assert.Equal(t, ok.SpanContext().SpanID(), inner.SpanID())
	assert.Contains(t, ok.Attributes(), attribute.Int("http.response.status_code", http.StatusOK))
	assert.Equal(t, codes.Unset, ok.Status().Code)

	assert.Equal(t, codes.Error, spans[1].Status().Code)
}
