// Package tool implements the capability registry: named tools with a
// description and parameter schema that agents may call, consistent error
// handling and the marker that flags side-effecting tools.
package tool

import (
	"errors"
	"fmt"

	"github.com/hupe1980/campaignmesh/core"
	"github.com/hupe1980/campaignmesh/internal/util"
)

// Tool is a capability an agent may call. The model picks tools by Name and
// fills arguments from Parameters, a JSON Schema. Call receives the
// ToolContext of the running turn; a returned error is reported back to the
// agent as text and never aborts the turn.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]any
	Call(toolCtx *core.ToolContext, args map[string]any) (any, error)
}

// Confirmable is implemented by tools with external side effects (publishing,
// updating or deleting content). The engine gates such calls behind an
// explicit user confirmation when configured to do so.
type Confirmable interface {
	RequiresConfirmation() bool
}

// NeedsConfirmation reports whether t is a Confirmable tool that asks for it.
func NeedsConfirmation(t Tool) bool {
	c, ok := t.(Confirmable)
	return ok && c.RequiresConfirmation()
}

// ValidationError describes an argument that failed schema validation.
type ValidationError = util.ValidationError

// Error codes carried by ToolError.
const (
	CodeValidation           = "VALIDATION_ERROR"
	CodeExecution            = "EXECUTION_ERROR"
	CodeNotFound             = "NOT_FOUND"
	CodeConfirmationRequired = "CONFIRMATION_REQUIRED"
)

// ToolError is the error every tool call failure is normalized to.
type ToolError struct {
	Tool    string `json:"tool"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// Unwrap exposes a wrapped error stored in Details so errors.Is keeps working
// for sentinels such as core.ErrNotFound.
func (e *ToolError) Unwrap() error {
	if err, ok := e.Details.(error); ok {
		return err
	}
	return nil
}

// NewToolError builds a ToolError without wrapped details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{
		Tool:    tool,
		Message: message,
		Code:    code,
	}
}

// AsToolError normalizes err into a *ToolError. Errors wrapping
// core.ErrNotFound map to NOT_FOUND, everything else to EXECUTION_ERROR.
func AsToolError(tool string, err error) *ToolError {
	var te *ToolError
	if errors.As(err, &te) {
		return te
	}

	code := CodeExecution
	if errors.Is(err, core.ErrNotFound) {
		code = CodeNotFound
	}

	return &ToolError{Tool: tool, Message: err.Error(), Code: code, Details: err}
}
