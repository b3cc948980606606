// Package kafka enriches spans started while handling segmentio/kafka-go
// messages with the message's identity, and continues the producer's trace.
package kafka

import (
	"context"

	"github.com/JailtonJunior94/otel-enrichment/pkg/messaging"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Handler processes a single Kafka message.
type Handler func(ctx context.Context, msg kafka.Message) error

const (
	attributePartition = attribute.Key("messaging.kafka.destination.partition")
	attributeOffset    = attribute.Key("messaging.kafka.message.offset")
	attributeKey       = attribute.Key("messaging.kafka.message.key")
)

// Enrich wraps handler so every span it starts carries the message attributes.
// The producer's trace context is extracted from the message headers first.
func Enrich(handler Handler, options ...messaging.Option) Handler {
	settings := messaging.NewSettings(options...)

	return func(ctx context.Context, msg kafka.Message) error {
		ctx = ExtractTraceContext(ctx, Headers(msg))
		return messaging.Run(ctx, settings, MessageAttributes(msg), func(ctx context.Context) error {
			return handler(ctx, msg)
		})
	}
}

// Adapt turns a broker-neutral ConsumeHandler into an enriched Handler.
func Adapt(handler messaging.ConsumeHandler, options ...messaging.Option) Handler {
	return Enrich(func(ctx context.Context, msg kafka.Message) error {
		return handler(ctx, Headers(msg), msg.Value)
	}, options...)
}

// MessageAttributes describes msg with messaging semantic conventions.
func MessageAttributes(msg kafka.Message) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		semconv.MessagingSystemKafka,
		semconv.MessagingDestinationName(msg.Topic),
		attributePartition.Int(msg.Partition),
		attributeOffset.Int64(msg.Offset),
	}
	if len(msg.Key) > 0 {
		attrs = append(attrs, attributeKey.String(string(msg.Key)))
	}
	return attrs
}

// Headers copies the message headers into a map. Later duplicates win.
func Headers(msg kafka.Message) map[string]string {
	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	return headers
}

// InjectTraceContext writes the W3C trace context of ctx into msg headers,
// replacing existing entries with the same key.
func InjectTraceContext(ctx context.Context, msg *kafka.Message) {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	for key, value := range carrier {
		replaced := false
		for i := range msg.Headers {
			if msg.Headers[i].Key == key {
				msg.Headers[i].Value = []byte(value)
				replaced = true
			}
		}
		if !replaced {
			msg.Headers = append(msg.Headers, kafka.Header{Key: key, Value: []byte(value)})
		}
	}
}

// ExtractTraceContext returns ctx carrying the remote span context found in
// headers, or ctx unchanged when there is none.
func ExtractTraceContext(ctx context.Context, headers map[string]string) context.Context {
	return otel.GetTextMapPropagator().Extract(ctx, propagation.MapCarrier(headers))
}
