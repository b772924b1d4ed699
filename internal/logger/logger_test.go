package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

// TestSetup_JSONOutput はJSON形式でログが出力されることを検証する。
func TestSetup_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup(&buf)

	logger.Info("test message", slog.String("key", "value"))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not valid JSON: %v", err)
	}
	if entry["msg"] != "test message" {
		t.Errorf("msg = %v, want test message", entry["msg"])
	}
	if entry["key"] != "value" {
		t.Errorf("key = %v, want value", entry["key"])
	}
}

// TestSetup_LevelFromEnv は環境変数によるレベル制御を検証する。
func TestSetup_LevelFromEnv(t *testing.T) {
	t.Setenv("NTALO_LOG_LEVEL", "warn")

	var buf bytes.Buffer
	logger := Setup(&buf)

	logger.Info("should be suppressed")
	if buf.Len() != 0 {
		t.Errorf("Info log should be suppressed at warn level, got %q", buf.String())
	}

	logger.Warn("should appear")
	if buf.Len() == 0 {
		t.Error("Warn log should appear at warn level")
	}
}
