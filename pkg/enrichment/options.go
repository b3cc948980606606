package enrichment

import (
	"github.com/JailtonJunior94/otel-enrichment/pkg/observability"
	"github.com/JailtonJunior94/otel-enrichment/pkg/observability/noop"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type processorConfig struct {
	logger        observability.Logger
	meterProvider metric.MeterProvider
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*processorConfig)

// WithLogger sets the logger used for processor diagnostics.
// Defaults to a no-op logger.
func WithLogger(logger observability.Logger) ProcessorOption {
	return func(c *processorConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMeterProvider sets the meter provider for processor instruments.
// Defaults to the global meter provider.
func WithMeterProvider(provider metric.MeterProvider) ProcessorOption {
	return func(c *processorConfig) {
		if provider != nil {
			c.meterProvider = provider
		}
	}
}

func defaultProcessorConfig() *processorConfig {
	return &processorConfig{
		logger:        noop.NewLogger(),
		meterProvider: otel.GetMeterProvider(),
	}
}

// WithEnrichment registers an enrichment Processor on a TracerProvider.
//
//	tp := sdktrace.NewTracerProvider(
//		enrichment.WithEnrichment(),
//		sdktrace.WithBatcher(exporter),
//	)
func WithEnrichment(opts ...ProcessorOption) sdktrace.TracerProviderOption {
	return sdktrace.WithSpanProcessor(NewProcessor(opts...))
}
