package enrichfiber_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/JailtonJunior94/otel-enrichment/pkg/enrichfiber"
	"github.com/JailtonJunior94/otel-enrichment/pkg/enrichment"
	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func newProvider(t *testing.T) (*sdktrace.TracerProvider, *tracetest.SpanRecorder) {
	t.Helper()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(
		enrichment.WithEnrichment(),
		sdktrace.WithSpanProcessor(recorder),
	)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	return tp, recorder
}

func newTracer(t *testing.T) (trace.Tracer, *tracetest.SpanRecorder) {
	t.Helper()

	tp, recorder := newProvider(t)
	return tp.Tracer("enrichfiber-test"), recorder
}

func attrs(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := make(map[attribute.Key]attribute.Value)
	for _, kv := range span.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestNew_EnrichesHandlerSpans(t *testing.T) {
	tracer, recorder := newTracer(t)

	app := fiber.New()
	app.Use(enrichfiber.New(enrichfiber.Config{
		Target: enrichment.AllChildren,
		Attributes: func(c *fiber.Ctx) []attribute.KeyValue {
			return []attribute.KeyValue{attribute.String("tenant", c.Get("X-Tenant"))}
		},
	}))
	app.Get("/orders/:id", func(c *fiber.Ctx) error {
		_, load := tracer.Start(c.UserContext(), "load-order")
		load.End()
		_, save := tracer.Start(c.UserContext(), "save-order")
		save.End()
		assert.Equal(t, "req-1", enrichfiber.GetRequestID(c))
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest(fiber.MethodGet, "/orders/42", nil)
	req.Header.Set("X-Tenant", "acme")
	req.Header.Set(enrichfiber.HeaderRequestID, "req-1")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "req-1", resp.Header.Get(enrichfiber.HeaderRequestID))

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	for _, span := range spans {
		got := attrs(span)
		assert.Equal(t, "GET", got["http.request.method"].AsString())
		assert.Equal(t, "/orders/42", got["url.path"].AsString())
		assert.Equal(t, "/orders/:id", got["http.route"].AsString())
		assert.Equal(t, "req-1", got[enrichfiber.AttributeRequestID].AsString())
		assert.Equal(t, "acme", got["tenant"].AsString())
	}
}

func TestNew_DefaultsAndFirstChild(t *testing.T) {
	tracer, recorder := newTracer(t)

	app := fiber.New()
	app.Use(enrichfiber.New(enrichfiber.Config{Target: enrichment.FirstChild}))
	app.Post("/", func(c *fiber.Ctx) error {
		_, first := tracer.Start(c.UserContext(), "first")
		first.End()
		_, second := tracer.Start(c.UserContext(), "second")
		second.End()
		return nil
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/", nil))
	require.NoError(t, err)
	assert.Len(t, resp.Header.Get(enrichfiber.HeaderRequestID), 36)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.NotEmpty(t, spans[0].Attributes())
	assert.Empty(t, spans[1].Attributes())
}

func TestNew_Next(t *testing.T) {
	tracer, recorder := newTracer(t)

	app := fiber.New()
	app.Use(enrichfiber.New(enrichfiber.Config{
		Next: func(c *fiber.Ctx) bool { return c.Path() == "/health" },
	}))
	app.Get("/health", func(c *fiber.Ctx) error {
		assert.Nil(t, enrichment.Current(c.UserContext()))
		_, span := tracer.Start(c.UserContext(), "health")
		span.End()
		return nil
	})

	_, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/health", nil))
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Empty(t, spans[0].Attributes())
}

func TestNew_EnrichesServerSpan(t *testing.T) {
	tp, recorder := newProvider(t)

	app := fiber.New()
	app.Use(enrichfiber.New())
	app.Use(otelfiber.Middleware(otelfiber.WithTracerProvider(tp)))
	app.Get("/ping", func(c *fiber.Ctx) error {
		return c.SendString("pong")
	})

	req := httptest.NewRequest(fiber.MethodGet, "/ping", nil)
	req.Header.Set(enrichfiber.HeaderRequestID, "req-2")
	_, err := app.Test(req)
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, trace.SpanKindServer, spans[0].SpanKind())
	assert.Equal(t, "req-2", attrs(spans[0])[enrichfiber.AttributeRequestID].AsString())
}

func TestNew_PartialConfigKeepsAllChildren(t *testing.T) {
	tracer, recorder := newTracer(t)

	app := fiber.New()
	app.Use(enrichfiber.New(enrichfiber.Config{
		Next: func(c *fiber.Ctx) bool { return false },
	}))
	app.Get("/", func(c *fiber.Ctx) error {
		_, first := tracer.Start(c.UserContext(), "first")
		first.End()
		_, second := tracer.Start(c.UserContext(), "second")
		second.End()
		return nil
	})

	_, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	for _, span := range spans {
		assert.Contains(t, attrs(span), enrichfiber.AttributeRequestID, "span %s", span.Name())
	}
}

func TestGetRequestID_NilCtx(t *testing.T) {
	assert.Empty(t, enrichfiber.GetRequestID(nil))
}
