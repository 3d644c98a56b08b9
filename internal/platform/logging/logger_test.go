package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	sonic "github.com/bytedance/sonic"
)

func TestLogger_WritesKeyValueFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONWriter(&buf, LevelInfo).Named("poller")

	logger.Info("rows changed", "phase_split_id", "42", "rows", 3, "error", errors.New("boom"))
	logger.Debug("dropped at info level")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one log line, got %d: %q", len(lines), buf.String())
	}

	var entry map[string]any
	if err := sonic.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["msg"] != "rows changed" {
		t.Fatalf("unexpected msg: %v", entry["msg"])
	}
	if entry["logger"] != "poller" {
		t.Fatalf("unexpected logger name: %v", entry["logger"])
	}
	if entry["phase_split_id"] != "42" {
		t.Fatalf("unexpected phase_split_id: %v", entry["phase_split_id"])
	}
	if entry["error"] != "boom" {
		t.Fatalf("unexpected error field: %v", entry["error"])
	}
}

func TestLogger_NilFallsBackToDefault(t *testing.T) {
	var logger *Logger
	logger.Info("no panic")
	if logger.Zap() == nil {
		t.Fatalf("expected nop zap logger")
	}
}
