// Package noop provides observability backends that discard everything.
package noop

import (
	"context"

	"github.com/JailtonJunior94/otel-enrichment/pkg/observability"
)

// NewLogger returns a logger that drops every entry.
// Use it when diagnostics from the enrichment processor are not wanted.
func NewLogger() observability.Logger {
	return logger{}
}

// logger implements observability.Logger with no-op operations.
type logger struct{}

func (logger) Debug(ctx context.Context, msg string, fields ...observability.Field) {}

func (logger) Info(ctx context.Context, msg string, fields ...observability.Field) {}

func (logger) Warn(ctx context.Context, msg string, fields ...observability.Field) {}

func (logger) Error(ctx context.Context, msg string, fields ...observability.Field) {}

func (l logger) With(fields ...observability.Field) observability.Logger {
	return l
}
