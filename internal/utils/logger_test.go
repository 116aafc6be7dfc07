package utils

import (
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name  string
		level string
		want  logrus.Level
	}{
		{"debug level", "debug", logrus.DebugLevel},
		{"warn level", "warn", logrus.WarnLevel},
		{"invalid level falls back to info", "loud", logrus.InfoLevel},
		{"empty level falls back to info", "", logrus.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := NewLogger(tt.level, "text")
			if logger.GetLevel() != tt.want {
				t.Errorf("NewLogger(%q).GetLevel() = %v, want %v", tt.level, logger.GetLevel(), tt.want)
			}
		})
	}
}

func TestNewLoggerFormats(t *testing.T) {
	logger := NewLogger("info", "json")
	if _, ok := logger.Formatter.(*logrus.JSONFormatter); !ok {
		t.Errorf("format json: got %T, want *logrus.JSONFormatter", logger.Formatter)
	}

	logger = NewLogger("info", "JSON")
	if _, ok := logger.Formatter.(*logrus.JSONFormatter); !ok {
		t.Errorf("format JSON: got %T, want *logrus.JSONFormatter", logger.Formatter)
	}

	for _, format := range []string{"text", "", "yaml"} {
		logger = NewLogger("info", format)
		text, ok := logger.Formatter.(*logrus.TextFormatter)
		if !ok {
			t.Fatalf("format %q: got %T, want *logrus.TextFormatter", format, logger.Formatter)
		}
		if !text.FullTimestamp {
			t.Errorf("format %q: FullTimestamp not enabled", format)
		}
	}
}
