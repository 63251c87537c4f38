package tool

import (
	"fmt"
	"time"

	"github.com/hupe1980/campaignmesh/core"
	"github.com/hupe1980/campaignmesh/internal/util"
)

// Func is the body of a FunctionTool. args have already passed schema
// validation.
type Func func(tc *core.ToolContext, args map[string]any) (any, error)

// FunctionTool exposes a Go function to the model under a name, a
// description and a JSON Schema for its arguments. It is immutable after
// construction.
type FunctionTool struct {
	name        string
	description string
	parameters  map[string]any
	confirm     bool
	fn          Func
}

// Option configures a FunctionTool.
type Option func(*FunctionTool)

// WithConfirmation marks the tool as side-effecting; see Confirmable.
func WithConfirmation() Option {
	return func(t *FunctionTool) { t.confirm = true }
}

// NewFunctionTool wraps fn. A nil parameters schema accepts any arguments.
//
//	tool.NewFunctionTool("GetIntelBriefingTool", "Read an intel briefing",
//	  map[string]any{
//	    "type":       "object",
//	    "properties": map[string]any{"key": map[string]any{"type": "string"}},
//	    "required":   []string{"key"},
//	  },
//	  func(tc *core.ToolContext, args map[string]any) (any, error) {
//	    text, _ := tc.Briefings().Briefing(args["key"].(string))
//	    return text, nil
//	  })
func NewFunctionTool(name, description string, parameters map[string]any, fn Func, opts ...Option) *FunctionTool {
	t := &FunctionTool{name: name, description: description, parameters: parameters, fn: fn}
	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Name implements Tool.
func (t *FunctionTool) Name() string { return t.name }

// Description implements Tool.
func (t *FunctionTool) Description() string { return t.description }

// Parameters implements Tool.
func (t *FunctionTool) Parameters() map[string]any { return t.parameters }

// RequiresConfirmation implements Confirmable.
func (t *FunctionTool) RequiresConfirmation() bool { return t.confirm }

// Call validates args and runs the function. Every failure comes back as a
// *ToolError: CodeValidation for bad arguments, otherwise the code chosen by
// AsToolError.
func (t *FunctionTool) Call(tc *core.ToolContext, args map[string]any) (any, error) {
	logger := tc.Logger()
	logger.Debug("tool.call.start", "tool", t.name, "fc_id", tc.FunctionCallID())

	if args == nil {
		args = map[string]any{}
	}

	if err := util.ValidateParameters(args, t.parameters); err != nil {
		logger.Warn("tool.call.invalid_args", "tool", t.name, "error", err.Error())
		return nil, &ToolError{
			Tool:    t.name,
			Message: fmt.Sprintf("parameter validation failed: %v", err),
			Code:    CodeValidation,
			Details: err,
		}
	}

	start := time.Now()

	result, err := t.fn(tc, args)
	if err != nil {
		toolErr := AsToolError(t.name, err)
		logger.Debug("tool.call.failed", "tool", t.name, "code", toolErr.Code, "error", toolErr.Message)
		return nil, toolErr
	}

	logger.Debug("tool.call.done", "tool", t.name, "duration_ms", time.Since(start).Milliseconds())

	return result, nil
}
