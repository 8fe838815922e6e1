package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"storycast/internal/services"
)

func TestConsoleHandlerSubject(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newConsoleHandler(&buf, slog.LevelInfo))

	ctx := services.WithJobID(context.Background(), 42)
	ctx = services.WithStage(ctx, "scripting")
	WithContext(ctx, logger).Info("stage started", String("status", "processing"))

	line := buf.String()
	if !strings.Contains(line, "Job #42 (scripting)") {
		t.Fatalf("expected subject in output, got %q", line)
	}
	if !strings.Contains(line, "status=processing") {
		t.Fatalf("expected trailing attr, got %q", line)
	}
}

func TestConsoleHandlerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newConsoleHandler(&buf, slog.LevelWarn))
	logger.Info("hidden")
	logger.Warn("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info record should be filtered, got %q", out)
	}
	if !strings.Contains(out, "visible") {
		t.Fatalf("warn record missing, got %q", out)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestContextFieldsEmptyContext(t *testing.T) {
	if fields := ContextFields(context.Background()); len(fields) != 0 {
		t.Fatalf("expected no fields, got %v", fields)
	}
}
