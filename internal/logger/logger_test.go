package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{in: "debug", want: zapcore.DebugLevel},
		{in: " WARN ", want: zapcore.WarnLevel},
		{in: "warning", want: zapcore.WarnLevel},
		{in: "error", want: zapcore.ErrorLevel},
		{in: "", want: zapcore.InfoLevel},
		{in: "verbose", want: zapcore.InfoLevel},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Fatalf("parseLevel(%q)=%v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewWritesToRotatingFile(t *testing.T) {
	dir := t.TempDir()
	logger, err := New(Config{
		Level: "info",
		File: FileConfig{
			Enabled: true,
			Path:    dir,
			Name:    "test.log",
		},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("session opened")
	_ = logger.Sync()

	data, err := os.ReadFile(filepath.Join(dir, "test.log"))
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	if !strings.Contains(string(data), "session opened") {
		t.Fatalf("log file=%q, want it to contain %q", string(data), "session opened")
	}
}
