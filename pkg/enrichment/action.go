package enrichment

import (
	"fmt"

	"github.com/JailtonJunior94/otel-enrichment/pkg/observability"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Action mutates a span that is about to be started.
type Action func(span trace.Span)

// Enricher mutates a span using a caller-supplied state value.
// Passing the state separately lets a single Enricher be shared by many scopes
// instead of building a new closure for every state value.
type Enricher[T any] func(span trace.Span, state T)

// bind captures the state once, at scope creation, so applying the enrichment
// to a span does not allocate.
func bind[T any](enricher Enricher[T], state T) Action {
	if enricher == nil {
		return nil
	}
	return func(span trace.Span) {
		enricher(span, state)
	}
}

// Attributes returns an Action that sets the given attributes on the span.
func Attributes(attrs ...attribute.KeyValue) Action {
	kv := make([]attribute.KeyValue, len(attrs))
	copy(kv, attrs)
	return func(span trace.Span) {
		span.SetAttributes(kv...)
	}
}

// Fields returns an Action that sets observability fields as span attributes.
func Fields(fields ...observability.Field) Action {
	return Attributes(fieldsToAttributes(fields)...)
}

func fieldToAttribute(field observability.Field) attribute.KeyValue {
	switch v := field.Value.(type) {
	case string:
		return attribute.String(field.Key, v)
	case int:
		return attribute.Int(field.Key, v)
	case int64:
		return attribute.Int64(field.Key, v)
	case float64:
		return attribute.Float64(field.Key, v)
	case bool:
		return attribute.Bool(field.Key, v)
	case []string:
		return attribute.StringSlice(field.Key, v)
	case error:
		return attribute.String(field.Key, v.Error())
	case fmt.Stringer:
		return attribute.Stringer(field.Key, v)
	default:
		return attribute.String(field.Key, fmt.Sprintf("%v", v))
	}
}

func fieldsToAttributes(fields []observability.Field) []attribute.KeyValue {
	if len(fields) == 0 {
		return nil
	}

	attrs := make([]attribute.KeyValue, len(fields))
	for i, field := range fields {
		attrs[i] = fieldToAttribute(field)
	}
	return attrs
}
