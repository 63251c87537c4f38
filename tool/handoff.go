package tool

import (
	"fmt"
	"slices"

	"github.com/hupe1980/campaignmesh/core"
)

// HandoffToolName is the reserved name of the handoff capability.
const HandoffToolName = "handoff"

// handoffTool requests transfer of control to another agent. The engine
// intercepts calls to it; Call only exists so the tool behaves like any other
// when invoked directly.
type handoffTool struct {
	targets []string
}

// NewHandoffTool constructs the handoff tool restricted to targets.
func NewHandoffTool(targets []string) Tool {
	return &handoffTool{targets: slices.Clone(targets)}
}

func (t *handoffTool) Name() string { return HandoffToolName }

func (t *handoffTool) Description() string {
	return "Transfer control of the conversation to another agent that is better suited for the next step."
}

func (t *handoffTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"to_agent": map[string]any{
				"type":        "string",
				"description": "Name of the agent to hand off to",
				"enum":        slices.Clone(t.targets),
			},
			"reason": map[string]any{
				"type":        "string",
				"description": "Short note for the receiving agent",
			},
		},
		"required": []string{"to_agent"},
	}
}

// Targets returns the permitted handoff targets.
func (t *handoffTool) Targets() []string { return slices.Clone(t.targets) }

func (t *handoffTool) Call(tc *core.ToolContext, args map[string]any) (any, error) {
	to, _ := args["to_agent"].(string)
	if to == "" {
		return nil, NewToolError(HandoffToolName, "field 'to_agent' must be non-empty string", CodeValidation)
	}

	if !slices.Contains(t.targets, to) {
		return nil, NewToolError(HandoffToolName, fmt.Sprintf("agent %q is not a permitted target", to), CodeValidation)
	}

	tc.TransferToAgent(to)

	return map[string]any{"transferred": true, "agent": to}, nil
}
