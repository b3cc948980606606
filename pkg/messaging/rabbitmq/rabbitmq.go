// Package rabbitmq enriches spans started while handling amqp091 deliveries
// with the delivery's identity, and continues the publisher's trace.
package rabbitmq

import (
	"context"
	"fmt"

	"github.com/JailtonJunior94/otel-enrichment/pkg/messaging"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Handler processes a single delivery.
type Handler func(ctx context.Context, delivery amqp.Delivery) error

const (
	attributeRoutingKey  = attribute.Key("messaging.rabbitmq.destination.routing_key")
	attributeDeliveryTag = attribute.Key("messaging.rabbitmq.message.delivery_tag")
	attributeMessageID   = attribute.Key("messaging.message.id")
	attributeCorrelation = attribute.Key("messaging.message.conversation_id")
	attributeRedelivered = attribute.Key("messaging.rabbitmq.message.redelivered")
)

// Enrich wraps handler so every span it starts carries the delivery
// attributes. The publisher's trace context is extracted from the headers.
func Enrich(handler Handler, options ...messaging.Option) Handler {
	settings := messaging.NewSettings(options...)

	return func(ctx context.Context, delivery amqp.Delivery) error {
		ctx = ExtractTraceContext(ctx, delivery.Headers)
		return messaging.Run(ctx, settings, DeliveryAttributes(delivery), func(ctx context.Context) error {
			return handler(ctx, delivery)
		})
	}
}

// Adapt turns a broker-neutral ConsumeHandler into an enriched Handler.
func Adapt(handler messaging.ConsumeHandler, options ...messaging.Option) Handler {
	return Enrich(func(ctx context.Context, delivery amqp.Delivery) error {
		return handler(ctx, Headers(delivery), delivery.Body)
	}, options...)
}

// DeliveryAttributes describes delivery with messaging semantic conventions.
// The destination is the exchange, or the routing key for the default exchange.
func DeliveryAttributes(delivery amqp.Delivery) []attribute.KeyValue {
	destination := delivery.Exchange
	if destination == "" {
		destination = delivery.RoutingKey
	}

	attrs := []attribute.KeyValue{
		semconv.MessagingSystemRabbitmq,
		semconv.MessagingDestinationName(destination),
		attributeRoutingKey.String(delivery.RoutingKey),
		attributeDeliveryTag.Int64(int64(delivery.DeliveryTag)),
		attributeRedelivered.Bool(delivery.Redelivered),
	}
	if delivery.MessageId != "" {
		attrs = append(attrs, attributeMessageID.String(delivery.MessageId))
	}
	if delivery.CorrelationId != "" {
		attrs = append(attrs, attributeCorrelation.String(delivery.CorrelationId))
	}
	return attrs
}

// Headers converts the delivery headers to strings. Byte slices are kept as
// text; other values are formatted with %v.
func Headers(delivery amqp.Delivery) map[string]string {
	headers := make(map[string]string, len(delivery.Headers))
	for key, value := range delivery.Headers {
		switch v := value.(type) {
		case string:
			headers[key] = v
		case []byte:
			headers[key] = string(v)
		default:
			headers[key] = fmt.Sprintf("%v", v)
		}
	}
	return headers
}

// InjectTraceContext writes the W3C trace context of ctx into publishing's
// headers, creating the table if needed.
func InjectTraceContext(ctx context.Context, publishing *amqp.Publishing) {
	if publishing.Headers == nil {
		publishing.Headers = amqp.Table{}
	}
	otel.GetTextMapPropagator().Inject(ctx, headerCarrier(publishing.Headers))
}

// ExtractTraceContext returns ctx carrying the remote span context found in
// headers, or ctx unchanged when there is none.
func ExtractTraceContext(ctx context.Context, headers amqp.Table) context.Context {
	return otel.GetTextMapPropagator().Extract(ctx, headerCarrier(headers))
}

// headerCarrier adapts an amqp.Table to propagation.TextMapCarrier.
// Only string values are visible to the propagator.
type headerCarrier amqp.Table

func (c headerCarrier) Get(key string) string {
	value, _ := c[key].(string)
	return value
}

func (c headerCarrier) Set(key, value string) {
	c[key] = value
}

func (c headerCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for key := range c {
		keys = append(keys, key)
	}
	return keys
}
