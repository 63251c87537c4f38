package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// LogLevel selects the minimum severity that is written.
type LogLevel = slog.Level

// Levels accepted by LoggerConfig.
const (
	LogLevelDebug = slog.LevelDebug
	LogLevelInfo  = slog.LevelInfo
	LogLevelWarn  = slog.LevelWarn
	LogLevelError = slog.LevelError
)

// ParseLevel maps a configuration string (debug, info, warn, error) to a
// LogLevel. Unknown values fall back to info.
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LogLevelDebug
	case "warn", "warning":
		return LogLevelWarn
	case "error":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// Logger is the logging interface every package accepts. Arguments after msg
// are alternating key/value pairs, as with slog.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// LoggerConfig configures New.
type LoggerConfig struct {
	Level     LogLevel
	Format    string // "json" or "text"
	Output    io.Writer
	AddSource bool
	Component string
}

// StructuredLogger is the slog backed Logger used by the binary.
type StructuredLogger struct {
	base      *slog.Logger
	component string
}

// New builds a StructuredLogger. A nil config logs text at info to stderr.
func New(cfg *LoggerConfig) *StructuredLogger {
	if cfg == nil {
		cfg = &LoggerConfig{Level: LogLevelInfo}
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: cfg.Level, AddSource: cfg.AddSource}

	var handler slog.Handler = slog.NewTextHandler(out, opts)
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	}

	return &StructuredLogger{base: slog.New(handler), component: cfg.Component}
}

// WithComponent returns a copy whose entries carry component=c.
func (l *StructuredLogger) WithComponent(c string) *StructuredLogger {
	return &StructuredLogger{base: l.base, component: c}
}

func (l *StructuredLogger) log(level slog.Level, msg string, args []any) {
	ctx := context.Background()
	if !l.base.Enabled(ctx, level) {
		return
	}

	if l.component != "" {
		args = append(args, "component", l.component)
	}

	l.base.Log(ctx, level, msg, args...)
}

func (l *StructuredLogger) Debug(msg string, args ...any) { l.log(slog.LevelDebug, msg, args) }
func (l *StructuredLogger) Info(msg string, args ...any)  { l.log(slog.LevelInfo, msg, args) }
func (l *StructuredLogger) Warn(msg string, args ...any)  { l.log(slog.LevelWarn, msg, args) }
func (l *StructuredLogger) Error(msg string, args ...any) { l.log(slog.LevelError, msg, args) }

// LogToolCall records the outcome of one tool execution.
func LogToolCall(l Logger, agent, tool string, dur time.Duration, err error) {
	if err != nil {
		l.Error("tool.call.error", "agent", agent, "tool", tool, "duration_ms", dur.Milliseconds(), "error", err.Error())
		return
	}

	l.Info("tool.call.success", "agent", agent, "tool", tool, "duration_ms", dur.Milliseconds())
}

// LogModelCall records model latency. Failures log at error.
func LogModelCall(l Logger, caller, model string, dur time.Duration, err error) {
	if err != nil {
		l.Error("model.call.error", "caller", caller, "model", model, "duration_ms", dur.Milliseconds(), "error", err.Error())
		return
	}

	l.Debug("model.call.success", "caller", caller, "model", model, "duration_ms", dur.Milliseconds())
}

// NoOpLogger discards everything.
type NoOpLogger struct{}

func (NoOpLogger) Debug(string, ...any) {}
func (NoOpLogger) Info(string, ...any)  {}
func (NoOpLogger) Warn(string, ...any)  {}
func (NoOpLogger) Error(string, ...any) {}

// OrNoOp returns l, or a NoOpLogger when l is nil.
func OrNoOp(l Logger) Logger {
	if l == nil {
		return NoOpLogger{}
	}
	return l
}
