package zaplog

import (
	"context"
	"errors"
	"testing"

	"github.com/JailtonJunior94/otel-enrichment/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObserved(level zapcore.Level) (observability.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return New(zap.New(core)), logs
}

func TestZapLogger_Levels(t *testing.T) {
	logger, logs := newObserved(zapcore.DebugLevel)
	ctx := context.Background()

	logger.Debug(ctx, "debug")
	logger.Info(ctx, "info")
	logger.Warn(ctx, "warn")
	logger.Error(ctx, "error")

	entries := logs.All()
	require.Len(t, entries, 4)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)
}

func TestZapLogger_FiltersBelowLevel(t *testing.T) {
	logger, logs := newObserved(zapcore.WarnLevel)

	logger.Debug(context.Background(), "dropped")
	logger.Warn(context.Background(), "kept")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "kept", logs.All()[0].Message)
}

func TestZapLogger_FieldsAndWith(t *testing.T) {
	logger, logs := newObserved(zapcore.DebugLevel)

	child := logger.With(observability.String("stack_id", "abc"))
	child.Warn(context.Background(), "enrichment anchor is no longer active",
		observability.Int("actions", 2),
		observability.Bool("consumed", true),
		observability.Error(errors.New("boom")),
	)

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "abc", fields["stack_id"])
	assert.Equal(t, int64(2), fields["actions"])
	assert.Equal(t, true, fields["consumed"])
	assert.Equal(t, "boom", fields["error"])
}

func TestZapLogger_TraceContext(t *testing.T) {
	logger, logs := newObserved(zapcore.InfoLevel)

	traceID, err := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("0102030405060708")
	require.NoError(t, err)

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	logger.Info(ctx, "span enriched")

	fields := logs.All()[0].ContextMap()
	assert.Equal(t, traceID.String(), fields["trace_id"])
	assert.Equal(t, spanID.String(), fields["span_id"])
}

func TestNew_NilLogger(t *testing.T) {
	logger := New(nil)
	require.NotNil(t, logger)
	logger.Info(context.Background(), "discarded")
}

func TestConvertLogLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, convertLogLevel(observability.LogLevelDebug))
	assert.Equal(t, zapcore.InfoLevel, convertLogLevel(observability.LogLevelInfo))
	assert.Equal(t, zapcore.WarnLevel, convertLogLevel(observability.LogLevelWarn))
	assert.Equal(t, zapcore.ErrorLevel, convertLogLevel(observability.LogLevelError))
	assert.Equal(t, zapcore.InfoLevel, convertLogLevel("unknown"))
}
