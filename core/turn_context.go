package core

import (
	"context"

	"github.com/hupe1980/campaignmesh/logging"
)

// TurnContext carries the per-turn execution scope the engine hands to
// agents and tools:
//   - The ambient cancellation Context
//   - Identifiers (SessionID, TurnID) and the currently active agent
//   - The shared State of the resumed ExecutionContext
//   - The step limiter guarding against unbounded handoff cycles
type TurnContext struct {
	Context   context.Context
	SessionID string
	TurnID    string
	Agent     string
	State     *State
	Limiter   *StepLimiter

	*loggerAdapter
}

// NewTurnContext constructs a TurnContext. A nil state is replaced with an
// empty one and a nil logger with a NoOpLogger.
func NewTurnContext(ctx context.Context, sessionID, turnID, agent string, state *State, maxSteps int, logger logging.Logger) *TurnContext {
	if state == nil {
		state = NewState()
	}

	return &TurnContext{
		Context:       ctx,
		SessionID:     sessionID,
		TurnID:        turnID,
		Agent:         agent,
		State:         state,
		Limiter:       NewStepLimiter(maxSteps),
		loggerAdapter: newLoggerAdapter(logger),
	}
}

// Done is a convenience accessor for the underlying context.
func (tc *TurnContext) Done() <-chan struct{} { return tc.Context.Done() }

// loggerAdapter wraps a logging.Logger and exposes LogDebug/LogInfo/LogWarn/LogError.
type loggerAdapter struct {
	logger logging.Logger
}

func newLoggerAdapter(l logging.Logger) *loggerAdapter {
	return &loggerAdapter{logger: logging.OrNoOp(l)}
}

// Logger returns the underlying logger.
func (l *loggerAdapter) Logger() logging.Logger { return l.logger }

// LogDebug logs a debug message.
func (l *loggerAdapter) LogDebug(msg string, args ...any) { l.logger.Debug(msg, args...) }

// LogInfo logs an info message.
func (l *loggerAdapter) LogInfo(msg string, args ...any) { l.logger.Info(msg, args...) }

// LogWarn logs a warning message.
func (l *loggerAdapter) LogWarn(msg string, args ...any) { l.logger.Warn(msg, args...) }

// LogError logs an error message.
func (l *loggerAdapter) LogError(msg string, args ...any) { l.logger.Error(msg, args...) }

// Scoped returns a shallow copy bound to ctx and agent. State, limiter and
// logger are shared with the parent.
func (tc *TurnContext) Scoped(ctx context.Context, agent string) *TurnContext {
	out := *tc
	out.Context = ctx
	out.Agent = agent
	return &out
}
