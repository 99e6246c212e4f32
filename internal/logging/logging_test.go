package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNew_HasComponent(t *testing.T) {
	var buf bytes.Buffer
	Init(slog.LevelDebug, "text", &buf)

	logger := New("engine")
	logger.Info("hello")

	output := buf.String()
	if !strings.Contains(output, "component=engine") {
		t.Errorf("expected component=engine in output, got: %s", output)
	}
	if !strings.Contains(output, "hello") {
		t.Errorf("expected 'hello' in output, got: %s", output)
	}
}

func TestInit_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	Init(slog.LevelInfo, "json", &buf)

	New("server").Info("json check")

	output := buf.String()
	if !strings.Contains(output, `"level":"INFO"`) {
		t.Errorf("expected JSON level field, got: %s", output)
	}
	if !strings.Contains(output, `"component":"server"`) {
		t.Errorf("expected JSON component field, got: %s", output)
	}
}

func TestInit_LevelGating(t *testing.T) {
	var buf bytes.Buffer
	Init(slog.LevelWarn, "text", &buf)

	logger := New("gate")
	logger.Info("should be suppressed")
	logger.Warn("should appear")

	output := buf.String()
	if strings.Contains(output, "should be suppressed") {
		t.Error("Info message should be suppressed at Warn level")
	}
	if !strings.Contains(output, "should appear") {
		t.Error("Warn message should appear at Warn level")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{" warn ", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDiscard(t *testing.T) {
	// Must not panic and must not write anywhere visible.
	Discard().Error("dropped")
}
