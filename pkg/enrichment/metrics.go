package enrichment

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
)

const instrumentationName = "github.com/JailtonJunior94/otel-enrichment/pkg/enrichment"

type processorMetrics struct {
	spans   metric.Int64Counter
	actions metric.Int64Counter
	anchors metric.Int64Counter
}

func newProcessorMetrics(provider metric.MeterProvider) *processorMetrics {
	meter := provider.Meter(instrumentationName)
	fallback := metricnoop.NewMeterProvider().Meter(instrumentationName)

	return &processorMetrics{
		spans:   counter(meter, fallback, "enrichment.spans.enriched", "Spans that received at least one enrichment", "{span}"),
		actions: counter(meter, fallback, "enrichment.actions.applied", "Enrichment actions applied to spans", "{action}"),
		anchors: counter(meter, fallback, "enrichment.anchor.errors", "Span starts whose anchor scope was no longer active", "{span}"),
	}
}

func counter(meter, fallback metric.Meter, name, description, unit string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(description), metric.WithUnit(unit))
	if err != nil {
		c, _ = fallback.Int64Counter(name)
	}
	return c
}

func (m *processorMetrics) enriched(ctx context.Context, applied int) {
	m.spans.Add(ctx, 1)
	m.actions.Add(ctx, int64(applied))
}

func (m *processorMetrics) anchorError(ctx context.Context) {
	m.anchors.Add(ctx, 1)
}
