package enrichment

import (
	"context"

	"github.com/JailtonJunior94/otel-enrichment/pkg/observability"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

var _ sdktrace.SpanProcessor = (*Processor)(nil)

// Processor is the span-start hook that applies enrichment scopes.
//
// OnStart reads the Stack from the context passed to tracer.Start and uses the
// scope that is current at that moment as the anchor for the new span.
// Register it before processors that inspect attributes in their own OnStart.
type Processor struct {
	logger  observability.Logger
	metrics *processorMetrics
}

// NewProcessor creates an enrichment Processor.
func NewProcessor(opts ...ProcessorOption) *Processor {
	cfg := defaultProcessorConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return &Processor{
		logger:  cfg.logger,
		metrics: newProcessorMetrics(cfg.meterProvider),
	}
}

// OnStart enriches span with the scopes active on the calling flow.
// A panic raised by an enrichment action is not recovered.
func (p *Processor) OnStart(ctx context.Context, span sdktrace.ReadWriteSpan) {
	stack := FromContext(ctx)
	if stack == nil {
		return
	}

	applied, err := stack.Enrich(span, stack.Current())
	if err != nil {
		p.metrics.anchorError(ctx)
		p.logger.Warn(ctx, "enrichment anchor is no longer active",
			observability.String("stack_id", stack.ID()),
			observability.String("span_name", span.Name()),
			observability.Error(err),
		)
		return
	}
	if applied == 0 {
		return
	}

	p.metrics.enriched(ctx, applied)
	p.logger.Debug(ctx, "span enriched",
		observability.String("stack_id", stack.ID()),
		observability.String("span_name", span.Name()),
		observability.Int("actions", applied),
	)
}

// OnEnd does nothing; enrichment only happens at span start.
func (p *Processor) OnEnd(sdktrace.ReadOnlySpan) {}

// Shutdown does nothing.
func (p *Processor) Shutdown(context.Context) error {
	return nil
}

// ForceFlush does nothing.
func (p *Processor) ForceFlush(context.Context) error {
	return nil
}
