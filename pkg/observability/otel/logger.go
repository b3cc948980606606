package otel

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/JailtonJunior94/otel-enrichment/pkg/observability"
	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/trace"
)

const (
	redactedValue       = "[REDACTED]"
	maxFieldValueLength = 1024
	maxFields           = 50
)

var sensitiveKeyParts = []string{
	"password", "api_key", "apikey", "token", "authorization", "bearer",
	"credit_card", "creditcard", "ssn", "secret", "credential", "private_key",
	"session", "cookie",
}

// otelLogger implements observability.Logger using the OTel Logger API with a slog console mirror.
type otelLogger struct {
	otelLog     otellog.Logger
	slogLogger  *slog.Logger
	serviceName string
	fields      []observability.Field
}

func newOtelLogger(
	level observability.LogLevel,
	format observability.LogFormat,
	serviceName string,
	output io.Writer,
	otelLog otellog.Logger,
) *otelLogger {
	return &otelLogger{
		otelLog:     otelLog,
		slogLogger:  createSlogLogger(level, format, output),
		serviceName: serviceName,
		fields:      make([]observability.Field, 0),
	}
}

// createSlogLogger creates a slog logger with the specified configuration.
func createSlogLogger(level observability.LogLevel, format observability.LogFormat, output io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: convertLogLevel(level),
	}

	if format == observability.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(output, opts))
	}
	return slog.New(slog.NewTextHandler(output, opts))
}

// convertLogLevel converts observability.LogLevel to slog.Level.
func convertLogLevel(level observability.LogLevel) slog.Level {
	switch level {
	case observability.LogLevelDebug:
		return slog.LevelDebug
	case observability.LogLevelWarn:
		return slog.LevelWarn
	case observability.LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *otelLogger) Debug(ctx context.Context, msg string, fields ...observability.Field) {
	l.log(ctx, slog.LevelDebug, msg, fields)
}

func (l *otelLogger) Info(ctx context.Context, msg string, fields ...observability.Field) {
	l.log(ctx, slog.LevelInfo, msg, fields)
}

func (l *otelLogger) Warn(ctx context.Context, msg string, fields ...observability.Field) {
	l.log(ctx, slog.LevelWarn, msg, fields)
}

func (l *otelLogger) Error(ctx context.Context, msg string, fields ...observability.Field) {
	l.log(ctx, slog.LevelError, msg, fields)
}

// With creates a child logger with additional fields.
func (l *otelLogger) With(fields ...observability.Field) observability.Logger {
	child := make([]observability.Field, 0, len(l.fields)+len(fields))
	child = append(child, l.fields...)
	child = append(child, fields...)

	return &otelLogger{
		otelLog:     l.otelLog,
		slogLogger:  l.slogLogger,
		serviceName: l.serviceName,
		fields:      child,
	}
}

// log writes the entry to the console and emits it to the OTel logger provider.
func (l *otelLogger) log(ctx context.Context, level slog.Level, msg string, fields []observability.Field) {
	if !l.slogLogger.Enabled(ctx, level) {
		return
	}

	allFields := make([]observability.Field, 0, len(l.fields)+len(fields)+3)
	allFields = append(allFields, l.fields...)
	allFields = append(allFields, fields...)
	allFields = sanitizeFields(allFields)

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		allFields = append(allFields,
			observability.String("trace_id", sc.TraceID().String()),
			observability.String("span_id", sc.SpanID().String()),
		)
	}
	allFields = append(allFields, observability.String("service", l.serviceName))

	attrs := make([]slog.Attr, 0, len(allFields))
	for _, field := range allFields {
		attrs = append(attrs, convertFieldToSlogAttr(field))
	}
	l.slogLogger.LogAttrs(ctx, level, msg, attrs...)

	l.emit(ctx, level, msg, allFields)
}

func (l *otelLogger) emit(ctx context.Context, level slog.Level, msg string, fields []observability.Field) {
	attrs := make([]otellog.KeyValue, 0, len(fields))
	for _, field := range fields {
		attrs = append(attrs, convertFieldToOTelAttr(field))
	}

	record := otellog.Record{}
	record.SetTimestamp(time.Now())
	record.SetBody(otellog.StringValue(msg))
	record.SetSeverity(convertSlogLevelToOTel(level))
	record.SetSeverityText(level.String())
	record.AddAttributes(attrs...)

	l.otelLog.Emit(ctx, record)
}

func convertSlogLevelToOTel(level slog.Level) otellog.Severity {
	switch level {
	case slog.LevelDebug:
		return otellog.SeverityDebug
	case slog.LevelWarn:
		return otellog.SeverityWarn
	case slog.LevelError:
		return otellog.SeverityError
	default:
		return otellog.SeverityInfo
	}
}

func convertFieldToOTelAttr(field observability.Field) otellog.KeyValue {
	switch v := field.Value.(type) {
	case string:
		return otellog.String(field.Key, v)
	case int:
		return otellog.Int(field.Key, v)
	case int64:
		return otellog.Int64(field.Key, v)
	case float64:
		return otellog.Float64(field.Key, v)
	case bool:
		return otellog.Bool(field.Key, v)
	case error:
		return otellog.String(field.Key, v.Error())
	default:
		return otellog.String(field.Key, fmt.Sprint(v))
	}
}

func convertFieldToSlogAttr(field observability.Field) slog.Attr {
	switch v := field.Value.(type) {
	case string:
		return slog.String(field.Key, v)
	case int:
		return slog.Int(field.Key, v)
	case int64:
		return slog.Int64(field.Key, v)
	case float64:
		return slog.Float64(field.Key, v)
	case bool:
		return slog.Bool(field.Key, v)
	case error:
		return slog.String(field.Key, v.Error())
	default:
		return slog.Any(field.Key, v)
	}
}

// isSensitiveKey reports whether a field key looks like it carries a secret.
func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, part := range sensitiveKeyParts {
		if strings.Contains(lower, part) {
			return true
		}
	}
	return false
}

// sanitizeFields redacts sensitive values, truncates long strings and caps the
// number of fields. The input slice is not modified.
func sanitizeFields(fields []observability.Field) []observability.Field {
	if len(fields) > maxFields {
		fields = fields[:maxFields]
	}

	result := make([]observability.Field, len(fields))
	for i, field := range fields {
		switch {
		case isSensitiveKey(field.Key):
			result[i] = observability.String(field.Key, redactedValue)
		default:
			if s, ok := field.Value.(string); ok && len(s) > maxFieldValueLength {
				result[i] = observability.String(field.Key, s[:maxFieldValueLength]+"...[truncated]")
				continue
			}
			result[i] = field
		}
	}
	return result
}
