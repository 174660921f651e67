package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetLevelAtRuntime(t *testing.T) {
	var buf bytes.Buffer
	InitWriter("info", &buf)

	Debug("hidden")
	assert.Zero(t, buf.Len(), "debug message at info level")

	SetLevel("debug")
	Debug("visible")
	assert.NotZero(t, buf.Len(), "debug message after SetLevel(debug)")

	SetLevel("error")
	buf.Reset()
	Info("hidden again")
	assert.Zero(t, buf.Len(), "info message at error level")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"garbage", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), "ParseLevel(%q)", tt.in)
	}
}

func TestForCandidateTagsLines(t *testing.T) {
	var buf bytes.Buffer
	InitWriter("info", &buf)

	ForCandidate(7).Info("analyzed")
	assert.Contains(t, buf.String(), "candidate=7")
}

func TestForCandidateWithoutInit(t *testing.T) {
	saved := Log
	defer func() { Log = saved }()
	Log = nil

	assert.NotPanics(t, func() {
		ForCandidate(1).Info("dropped")
		Info("dropped")
	})
}
