package agent

import (
	"context"

	"github.com/hupe1980/campaignmesh/core"
	"github.com/hupe1980/campaignmesh/tool"
)

// Conversation is the running message list an agent reasons over.
type Conversation []core.Content

// Step is the outcome of one agent reasoning step. The set of implementations
// is closed: ToolCalls, Handoff and FinalText.
type Step interface {
	isStep()
	// Narration returns any text emitted alongside the step.
	Narration() string
}

// ToolCalls requests execution of tools in order.
type ToolCalls struct {
	Text  string
	Calls []core.FunctionCall
}

// Handoff requests transfer of control to Target.
type Handoff struct {
	Text   string
	CallID string
	Target string
	Reason string
}

// FinalText ends the step loop with Text as candidate response.
type FinalText struct {
	Text string
}

func (ToolCalls) isStep() {}
func (Handoff) isStep()   {}
func (FinalText) isStep() {}

// Narration implements Step.
func (s ToolCalls) Narration() string { return s.Text }

// Narration implements Step.
func (s Handoff) Narration() string { return s.Text }

// Narration implements Step.
func (s FinalText) Narration() string { return s.Text }

// Proposer is what the engine needs from a graph node.
type Proposer interface {
	Name() string
	Description() string
	Handoffs() []string
	Tools() []tool.Tool
	Tool(name string) (tool.Tool, bool)
	ProposeStep(ctx context.Context, conv Conversation) (Step, error)
}
