package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := NewWithWriter(&buf, "warn")
	ctx := context.Background()

	l.Debug(ctx, "debug %d", 1)
	l.Info(ctx, "info %d", 2)
	l.Warn(ctx, "warn %d", 3)
	l.Error(ctx, "error %d", 4)

	out := buf.String()
	if strings.Contains(out, "[DEBUG]") || strings.Contains(out, "[INFO]") {
		t.Fatalf("expected debug/info to be filtered, got: %q", out)
	}
	if !strings.Contains(out, "[WARN] warn 3") {
		t.Fatalf("missing warn line: %q", out)
	}
	if !strings.Contains(out, "[ERROR] error 4") {
		t.Fatalf("missing error line: %q", out)
	}
}

func TestUnknownLevelDefaultsToInfo(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := NewWithWriter(&buf, "chatty")
	ctx := context.Background()

	l.Debug(ctx, "hidden")
	l.Info(ctx, "shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug should be filtered at default level: %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Fatalf("info should pass at default level: %q", out)
	}
}
