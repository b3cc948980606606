// Package zaplog implements observability.Logger on top of zap.
package zaplog

import (
	"context"
	"fmt"

	"github.com/JailtonJunior94/otel-enrichment/pkg/observability"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type zapLogger struct {
	logger *zap.Logger
}

// New wraps an existing zap logger.
func New(logger *zap.Logger) observability.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &zapLogger{logger: logger}
}

// NewProduction builds a JSON zap logger writing to stderr at the given level.
func NewProduction(level observability.LogLevel) (observability.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(convertLogLevel(level))

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build zap logger: %w", err)
	}
	return New(logger), nil
}

func (l *zapLogger) Debug(ctx context.Context, msg string, fields ...observability.Field) {
	l.log(ctx, zapcore.DebugLevel, msg, fields)
}

func (l *zapLogger) Info(ctx context.Context, msg string, fields ...observability.Field) {
	l.log(ctx, zapcore.InfoLevel, msg, fields)
}

func (l *zapLogger) Warn(ctx context.Context, msg string, fields ...observability.Field) {
	l.log(ctx, zapcore.WarnLevel, msg, fields)
}

func (l *zapLogger) Error(ctx context.Context, msg string, fields ...observability.Field) {
	l.log(ctx, zapcore.ErrorLevel, msg, fields)
}

func (l *zapLogger) With(fields ...observability.Field) observability.Logger {
	return &zapLogger{logger: l.logger.With(convertFields(fields, 0)...)}
}

func (l *zapLogger) log(ctx context.Context, level zapcore.Level, msg string, fields []observability.Field) {
	ce := l.logger.Check(level, msg)
	if ce == nil {
		return
	}

	zfields := convertFields(fields, 2)
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		zfields = append(zfields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
	}
	ce.Write(zfields...)
}

func convertFields(fields []observability.Field, extra int) []zap.Field {
	zfields := make([]zap.Field, 0, len(fields)+extra)
	for _, f := range fields {
		zfields = append(zfields, convertField(f))
	}
	return zfields
}

func convertField(field observability.Field) zap.Field {
	switch v := field.Value.(type) {
	case string:
		return zap.String(field.Key, v)
	case int:
		return zap.Int(field.Key, v)
	case int64:
		return zap.Int64(field.Key, v)
	case float64:
		return zap.Float64(field.Key, v)
	case bool:
		return zap.Bool(field.Key, v)
	case []string:
		return zap.Strings(field.Key, v)
	case error:
		return zap.NamedError(field.Key, v)
	default:
		return zap.Any(field.Key, v)
	}
}

func convertLogLevel(level observability.LogLevel) zapcore.Level {
	switch level {
	case observability.LogLevelDebug:
		return zapcore.DebugLevel
	case observability.LogLevelWarn:
		return zapcore.WarnLevel
	case observability.LogLevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
