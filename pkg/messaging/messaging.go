// Package messaging holds the broker-neutral pieces shared by the kafka and
// rabbitmq enrichment adapters.
package messaging

import (
	"context"

	"github.com/JailtonJunior94/otel-enrichment/pkg/enrichment"
	"github.com/JailtonJunior94/otel-enrichment/pkg/observability"
	"github.com/JailtonJunior94/otel-enrichment/pkg/observability/noop"
	"go.opentelemetry.io/otel/attribute"
)

// ConsumeHandler processes one message. params holds the message headers.
type ConsumeHandler func(ctx context.Context, params map[string]string, body []byte) error

type (
	// Settings is the resolved configuration of a message adapter.
	Settings struct {
		Target     enrichment.Target
		Attributes []attribute.KeyValue
		Logger     observability.Logger
	}

	// Option configures a message adapter.
	Option func(settings *Settings)
)

// NewSettings applies options over the defaults: AllChildren target and a
// no-op logger.
func NewSettings(options ...Option) *Settings {
	settings := &Settings{
		Target: enrichment.AllChildren,
		Logger: noop.NewLogger(),
	}
	for _, option := range options {
		option(settings)
	}
	return settings
}

// WithTarget sets which spans started while handling a message are enriched.
func WithTarget(target enrichment.Target) Option {
	return func(settings *Settings) {
		settings.Target = target
	}
}

// WithAttributes adds static attributes to every message scope.
func WithAttributes(attrs ...attribute.KeyValue) Option {
	return func(settings *Settings) {
		settings.Attributes = append(settings.Attributes, attrs...)
	}
}

// WithLogger sets the logger used to report scopes that could not be closed.
func WithLogger(logger observability.Logger) Option {
	return func(settings *Settings) {
		if logger != nil {
			settings.Logger = logger
		}
	}
}

// Run opens a scope carrying attrs, calls fn with the scoped context and
// closes the scope when fn returns or panics.
func Run(ctx context.Context, settings *Settings, attrs []attribute.KeyValue, fn func(ctx context.Context) error) error {
	all := make([]attribute.KeyValue, 0, len(attrs)+len(settings.Attributes))
	all = append(all, attrs...)
	all = append(all, settings.Attributes...)

	ctx, scope, err := enrichment.Begin(ctx, enrichment.Attributes(all...), settings.Target)
	if err != nil {
		return err
	}
	defer func() {
		if err := scope.Close(); err != nil {
			settings.Logger.Warn(ctx, "failed to close message enrichment scope", observability.Error(err))
		}
	}()

	return fn(ctx)
}
