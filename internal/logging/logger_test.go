package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func newBufferLogger(level string) (*slog.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	levelVar := new(slog.LevelVar)
	levelVar.Set(parseLevel(level))
	return slog.New(newConsoleHandler(buf, levelVar)), buf
}

func TestConsoleHandlerPrefixesComponent(t *testing.T) {
	logger, buf := newBufferLogger("info")
	WithComponent(logger, "sync").Info("library sync complete", Int("items", 412))

	line := buf.String()
	if !strings.Contains(line, "INFO sync: library sync complete") {
		t.Fatalf("unexpected line: %q", line)
	}
	if !strings.Contains(line, "items=412") {
		t.Fatalf("missing attribute: %q", line)
	}
}

func TestConsoleHandlerQuotesValuesWithSpaces(t *testing.T) {
	logger, buf := newBufferLogger("info")
	logger.Info("issue raised", String("title", "The Long Movie"))

	if !strings.Contains(buf.String(), `title="The Long Movie"`) {
		t.Fatalf("expected quoted value, got %q", buf.String())
	}
}

func TestConsoleHandlerHonorsLevel(t *testing.T) {
	logger, buf := newBufferLogger("warn")
	logger.Info("hidden")
	logger.Warn("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line should be suppressed: %q", out)
	}
	if !strings.Contains(out, "visible") {
		t.Fatalf("warn line missing: %q", out)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := NewNop()
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("nop logger should report disabled")
	}
}
