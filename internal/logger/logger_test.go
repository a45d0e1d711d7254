package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/sevigo/pr-warden/internal/config"
)

func TestNewLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&config.Config{LogLevel: slog.LevelInfo, LogFormat: "text"}, &buf)

	log.Info("test message")
	log.Debug("hidden message")

	output := buf.String()
	if !strings.Contains(output, "level=INFO") || !strings.Contains(output, "msg=\"test message\"") {
		t.Errorf("Expected text log output with info level and message, got: %s", output)
	}
	if strings.Contains(output, "hidden message") {
		t.Errorf("Debug message should be filtered at info level, got: %s", output)
	}
}

func TestNewLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&config.Config{LogLevel: slog.LevelDebug, LogFormat: "json"}, &buf)

	log.Debug("test message")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to unmarshal JSON log: %v, output: %s", err, buf.String())
	}
	if entry["level"] != "DEBUG" || entry["msg"] != "test message" {
		t.Errorf("Expected JSON log output with debug level and message, got: %v", entry)
	}
}

func TestNewLogger_UnknownFormatFallsBackToText(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&config.Config{LogLevel: slog.LevelInfo, LogFormat: "yaml"}, &buf)

	log.Info("test message")

	if !strings.Contains(buf.String(), "level=INFO") {
		t.Errorf("Expected text fallback for unknown format, got: %s", buf.String())
	}
}
