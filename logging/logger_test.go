package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LogLevelDebug},
		{"INFO", LogLevelInfo},
		{"warning", LogLevelWarn},
		{" error ", LogLevelError},
		{"bogus", LogLevelInfo},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), tt.in)
	}
}

func TestStructuredLogger_JSONScopes(t *testing.T) {
	var buf bytes.Buffer

	l := New(&LoggerConfig{Level: LogLevelDebug, Format: "json", Output: &buf}).
		WithComponent("engine")

	l.Info("engine.turn.start", "agent", "ManagerAgent", "session_id", "s-1")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "engine.turn.start", entry["msg"])
	assert.Equal(t, "engine", entry["component"])
	assert.Equal(t, "s-1", entry["session_id"])
	assert.Equal(t, "ManagerAgent", entry["agent"])
}

func TestStructuredLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer

	l := New(&LoggerConfig{Level: LogLevelWarn, Output: &buf})
	l.Info("hidden")
	assert.Empty(t, buf.String())

	l.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestLogToolCall(t *testing.T) {
	var buf bytes.Buffer
	l := New(&LoggerConfig{Level: LogLevelDebug, Format: "json", Output: &buf})

	LogToolCall(l, "NewsAgent", "NewsEverythingSearchTool", 5*time.Millisecond, errors.New("boom"))
	assert.Contains(t, buf.String(), "tool.call.error")
	assert.Contains(t, buf.String(), "boom")
}

func TestOrNoOp(t *testing.T) {
	assert.IsType(t, NoOpLogger{}, OrNoOp(nil))

	l := New(nil)
	assert.Same(t, l, OrNoOp(l))
}
