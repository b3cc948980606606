package kafka

import (
	"context"
	"time"

	"github.com/JailtonJunior94/otel-enrichment/pkg/observability"
	"github.com/JailtonJunior94/otel-enrichment/pkg/observability/noop"
	"github.com/cenkalti/backoff/v4"
	"github.com/segmentio/kafka-go"
)

// Reader is the part of *kafka.Reader used by Consume.
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

type (
	consumeSettings struct {
		newBackOff func() backoff.BackOff
		logger     observability.Logger
	}

	// ConsumeOption configures Consume.
	ConsumeOption func(settings *consumeSettings)
)

func defaultConsumeSettings() *consumeSettings {
	return &consumeSettings{
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxInterval = 30 * time.Second
			b.MaxElapsedTime = 0
			return b
		},
		logger: noop.NewLogger(),
	}
}

// WithBackOff sets the retry policy for failed fetches. newBackOff is called
// once per fetch, so stateful policies start fresh each time. The default
// retries with exponential delays until the context is done.
func WithBackOff(newBackOff func() backoff.BackOff) ConsumeOption {
	return func(settings *consumeSettings) {
		if newBackOff != nil {
			settings.newBackOff = newBackOff
		}
	}
}

// WithConsumeLogger sets the logger for fetch retries and handler failures.
func WithConsumeLogger(logger observability.Logger) ConsumeOption {
	return func(settings *consumeSettings) {
		if logger != nil {
			settings.logger = logger
		}
	}
}

// Consume fetches messages from reader and passes them to handler until ctx
// is done or a fetch fails after all retries. A message is committed only when
// handler succeeds; failed messages are logged and skipped.
//
// Wrap handler with Enrich or Adapt to get a scope per message.
func Consume(ctx context.Context, reader Reader, handler Handler, options ...ConsumeOption) error {
	settings := defaultConsumeSettings()
	for _, option := range options {
		option(settings)
	}

	for {
		msg, err := fetch(ctx, reader, settings)
		if err != nil {
			return err
		}

		if err := handler(ctx, msg); err != nil {
			settings.logger.Error(ctx, "kafka message handler failed",
				observability.String("topic", msg.Topic),
				observability.Int("partition", msg.Partition),
				observability.Int64("offset", msg.Offset),
				observability.Error(err),
			)
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			settings.logger.Warn(ctx, "kafka commit failed",
				observability.String("topic", msg.Topic),
				observability.Int64("offset", msg.Offset),
				observability.Error(err),
			)
		}
	}
}

func fetch(ctx context.Context, reader Reader, settings *consumeSettings) (kafka.Message, error) {
	var msg kafka.Message

	operation := func() error {
		fetched, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			settings.logger.Warn(ctx, "kafka fetch failed, retrying", observability.Error(err))
			return err
		}
		msg = fetched
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(settings.newBackOff(), ctx)); err != nil {
		return kafka.Message{}, err
	}
	return msg, nil
}
