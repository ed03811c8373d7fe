package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

func TestSetup(t *testing.T) {
	// Reset logger for testing
	logger = nil
	once = *new(sync.Once)

	Setup("DEBUG", "json")
	if logger == nil {
		t.Fatal("Logger should not be nil")
	}
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug level should be enabled")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
		"info":  slog.LevelInfo,
		"bogus": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestTextFormat(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "info", "text")
	l.Info("hello", "k", "v")
	if !strings.Contains(buf.String(), "msg=hello") || !strings.Contains(buf.String(), "k=v") {
		t.Errorf("unexpected text output: %q", buf.String())
	}

	buf.Reset()
	l.Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug line should be filtered at info level: %q", buf.String())
	}
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("Failed to decode JSON: %v", err)
	}
	return out
}

func TestContextHelpers(t *testing.T) {
	var buf bytes.Buffer
	logger = newLogger(&buf, "info", "json")

	WithComponent("loop").Info("hello")
	out := decodeLine(t, &buf)
	if out["component"] != "loop" {
		t.Errorf("Expected component 'loop', got %v", out["component"])
	}
	if out["msg"] != "hello" {
		t.Errorf("Expected msg 'hello', got %v", out["msg"])
	}

	buf.Reset()
	WithSession("abc-123").Info("session msg")
	if out := decodeLine(t, &buf); out["session_id"] != "abc-123" {
		t.Errorf("Expected session_id 'abc-123', got %v", out["session_id"])
	}

	buf.Reset()
	WithCommand("remind", "alice").Warn("bad date")
	out = decodeLine(t, &buf)
	if out["command"] != "remind" || out["nick"] != "alice" || out["level"] != "WARN" {
		t.Errorf("unexpected command log: %v", out)
	}
}
