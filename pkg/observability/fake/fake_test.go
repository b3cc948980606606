package fake_test

import (
	"context"
	"testing"

	"github.com/JailtonJunior94/otel-enrichment/pkg/observability"
	"github.com/JailtonJunior94/otel-enrichment/pkg/observability/fake"
)

func TestFakeLogger(t *testing.T) {
	logger := fake.NewFakeLogger()

	t.Run("captures all log levels", func(t *testing.T) {
		logger.Reset()
		ctx := context.Background()

		logger.Debug(ctx, "debug message", observability.String("level", "debug"))
		logger.Info(ctx, "info message", observability.String("level", "info"))
		logger.Warn(ctx, "warn message", observability.String("level", "warn"))
		logger.Error(ctx, "error message", observability.String("level", "error"))

		entries := logger.GetEntries()
		if len(entries) != 4 {
			t.Fatalf("expected 4 log entries, got %d", len(entries))
		}

		expectedLevels := []observability.LogLevel{
			observability.LogLevelDebug,
			observability.LogLevelInfo,
			observability.LogLevelWarn,
			observability.LogLevelError,
		}

		for i, entry := range entries {
			if entry.Level != expectedLevels[i] {
				t.Errorf("entry %d: expected level %s, got %s", i, expectedLevels[i], entry.Level)
			}
		}

		if warns := logger.EntriesAt(observability.LogLevelWarn); len(warns) != 1 {
			t.Errorf("expected 1 warn entry, got %d", len(warns))
		}
	})

	t.Run("child logger shares entries and carries fields", func(t *testing.T) {
		logger.Reset()
		ctx := context.Background()

		child := logger.With(observability.String("stack_id", "abc"))
		child.Info(ctx, "from child", observability.Int("actions", 2))
		logger.Info(ctx, "from parent")

		entries := logger.GetEntries()
		if len(entries) != 2 {
			t.Fatalf("expected 2 log entries, got %d", len(entries))
		}

		if v, ok := entries[0].Field("stack_id"); !ok || v != "abc" {
			t.Errorf("expected stack_id=abc on child entry, got %v", v)
		}
		if v, ok := entries[0].Field("actions"); !ok || v != 2 {
			t.Errorf("expected actions=2 on child entry, got %v", v)
		}
		if _, ok := entries[1].Field("stack_id"); ok {
			t.Error("parent entry should not carry child fields")
		}
	})
}
