package logutil

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestTraceLevel(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	slog.SetDefault(NewLogger(&buf, LevelTrace))
	Trace("merge", "id", 256)

	out := buf.String()
	if !strings.Contains(out, "level=TRACE") {
		t.Errorf("expected TRACE level in %q", out)
	}
	if !strings.Contains(out, "logutil_test.go") {
		t.Errorf("expected short source file in %q", out)
	}
	if !strings.Contains(out, "id=256") {
		t.Errorf("expected attribute in %q", out)
	}
}

func TestTraceSuppressed(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	slog.SetDefault(NewLogger(&buf, slog.LevelInfo))
	Trace("merge", "id", 256)

	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
	if Enabled(LevelTrace) {
		t.Error("trace should not be enabled at info level")
	}
}
