package rabbitmq_test

import (
	"context"
	"testing"

	"github.com/JailtonJunior94/otel-enrichment/pkg/enrichment"
	"github.com/JailtonJunior94/otel-enrichment/pkg/messaging"
	"github.com/JailtonJunior94/otel-enrichment/pkg/messaging/rabbitmq"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func newTracer(t *testing.T) (trace.Tracer, *tracetest.SpanRecorder) {
	t.Helper()

	previous := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(
		enrichment.WithEnrichment(),
		sdktrace.WithSpanProcessor(recorder),
	)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTextMapPropagator(previous)
	})

	return tp.Tracer("rabbitmq-test"), recorder
}

func attrs(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := make(map[attribute.Key]attribute.Value)
	for _, kv := range span.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestEnrich(t *testing.T) {
	tracer, recorder := newTracer(t)

	publishCtx, publish := tracer.Start(context.Background(), "publish")
	publishing := amqp.Publishing{MessageId: "m-1", CorrelationId: "c-1", Body: []byte("{}")}
	rabbitmq.InjectTraceContext(publishCtx, &publishing)
	publish.End()

	delivery := amqp.Delivery{
		Headers:       publishing.Headers,
		MessageId:     publishing.MessageId,
		CorrelationId: publishing.CorrelationId,
		Exchange:      "orders",
		RoutingKey:    "order.created",
		DeliveryTag:   7,
		Body:          publishing.Body,
	}

	handler := rabbitmq.Enrich(func(ctx context.Context, delivery amqp.Delivery) error {
		_, first := tracer.Start(ctx, "validate")
		first.End()
		_, second := tracer.Start(ctx, "store")
		second.End()
		return nil
	}, messaging.WithTarget(enrichment.FirstChild))

	require.NoError(t, handler(context.Background(), delivery))

	spans := recorder.Ended()
	require.Len(t, spans, 3)
	validate, store := spans[1], spans[2]
	assert.Equal(t, publish.SpanContext().TraceID(), validate.SpanContext().TraceID())

	got := attrs(validate)
	assert.Equal(t, "rabbitmq", got["messaging.system"].AsString())
	assert.Equal(t, "orders", got["messaging.destination.name"].AsString())
	assert.Equal(t, "order.created", got["messaging.rabbitmq.destination.routing_key"].AsString())
	assert.Equal(t, int64(7), got["messaging.rabbitmq.message.delivery_tag"].AsInt64())
	assert.Equal(t, "m-1", got["messaging.message.id"].AsString())
	assert.Equal(t, "c-1", got["messaging.message.conversation_id"].AsString())
	assert.False(t, got["messaging.rabbitmq.message.redelivered"].AsBool())
	assert.Empty(t, store.Attributes())
}

func TestDeliveryAttributes_DefaultExchange(t *testing.T) {
	got := make(map[attribute.Key]attribute.Value)
	for _, kv := range rabbitmq.DeliveryAttributes(amqp.Delivery{RoutingKey: "jobs"}) {
		got[kv.Key] = kv.Value
	}

	assert.Equal(t, "jobs", got["messaging.destination.name"].AsString())
	_, hasID := got["messaging.message.id"]
	assert.False(t, hasID)
}

func TestAdapt(t *testing.T) {
	_, _ = newTracer(t)

	var gotHeaders map[string]string
	handler := rabbitmq.Adapt(func(ctx context.Context, params map[string]string, body []byte) error {
		gotHeaders = params
		assert.Equal(t, []byte("payload"), body)
		assert.NotNil(t, enrichment.Current(ctx))
		return nil
	})

	err := handler(context.Background(), amqp.Delivery{
		Headers: amqp.Table{"event_type": "order.created", "raw": []byte("bytes"), "retries": int32(2)},
		Body:    []byte("payload"),
	})

	require.NoError(t, err)
	assert.Equal(t, map[string]string{"event_type": "order.created", "raw": "bytes", "retries": "2"}, gotHeaders)
}
