package core

import (
	"context"
	"fmt"

	"github.com/hupe1980/campaignmesh/logging"
)

// ToolContext provides a constrained, auditable surface for tool
// implementations. Writes through its typed setters go straight to the shared
// State (tools of a turn run sequentially) and are additionally recorded as a
// StateDelta so the trace shows which artifacts a call touched.
type ToolContext struct {
	turn           *TurnContext
	functionCallID string
	agentName      string
	eventActions   EventActions

	*loggerAdapter
}

// NewToolContext constructs a tool context bound to a parent TurnContext and
// unique functionCallID.
func NewToolContext(turn *TurnContext, functionCallID string) *ToolContext {
	return &ToolContext{
		turn:           turn,
		functionCallID: functionCallID,
		agentName:      turn.Agent,
		loggerAdapter:  newLoggerAdapter(turn.Logger()),
	}
}

// Context returns the context associated with the tool invocation.
func (tc *ToolContext) Context() context.Context { return tc.turn.Context }

// SessionID returns the session ID associated with the tool invocation.
func (tc *ToolContext) SessionID() string { return tc.turn.SessionID }

// TurnID returns the turn ID associated with the tool invocation.
func (tc *ToolContext) TurnID() string { return tc.turn.TurnID }

// Logger returns the logger associated with the tool invocation.
func (tc *ToolContext) Logger() logging.Logger { return tc.loggerAdapter.Logger() }

// FunctionCallID returns the function call ID associated with the tool invocation.
func (tc *ToolContext) FunctionCallID() string { return tc.functionCallID }

// AgentName returns the name of the agent that issued the call.
func (tc *ToolContext) AgentName() string { return tc.agentName }

// State exposes the full shared state. Prefer the narrow accessors.
func (tc *ToolContext) State() *State { return tc.turn.State }

// Briefings returns the briefing sub-store.
func (tc *ToolContext) Briefings() BriefingStore { return tc }

// Drafts returns the draft sub-store.
func (tc *ToolContext) Drafts() DraftStore { return tc }

// Scripts returns the script sub-store.
func (tc *ToolContext) Scripts() ScriptStore { return tc }

// GetState retrieves the value associated with the given key.
func (tc *ToolContext) GetState(k string) (any, bool) { return tc.turn.State.Get(k) }

// SetState writes an arbitrary state key and records it in the delta.
func (tc *ToolContext) SetState(k string, v any) error {
	if err := tc.turn.State.Set(k, v); err != nil {
		return err
	}
	tc.recordDelta(k, v)
	return nil
}

// Briefing implements BriefingStore.
func (tc *ToolContext) Briefing(key string) (string, bool) { return tc.turn.State.Briefing(key) }

// SetBriefing implements BriefingStore.
func (tc *ToolContext) SetBriefing(key, text string) {
	tc.turn.State.SetBriefing(key, text)
	tc.recordDelta(NamespaceBriefings+"."+key, text)
}

// BriefingKeys implements BriefingStore.
func (tc *ToolContext) BriefingKeys() []string { return tc.turn.State.BriefingKeys() }

// Draft implements DraftStore.
func (tc *ToolContext) Draft(key string) (Draft, bool) { return tc.turn.State.Draft(key) }

// SetDraft implements DraftStore.
func (tc *ToolContext) SetDraft(key string, d Draft) {
	tc.turn.State.SetDraft(key, d)
	tc.recordDelta(NamespaceDrafts+"."+key, d)
}

// LatestDraft implements DraftStore.
func (tc *ToolContext) LatestDraft() (string, Draft, bool) { return tc.turn.State.LatestDraft() }

// Script implements ScriptStore.
func (tc *ToolContext) Script(key string) (string, bool) { return tc.turn.State.Script(key) }

// SetScript implements ScriptStore.
func (tc *ToolContext) SetScript(key, text string) {
	tc.turn.State.SetScript(key, text)
	tc.recordDelta(NamespaceScripts+"."+key, text)
}

// LatestScript implements ScriptStore.
func (tc *ToolContext) LatestScript() (string, string, bool) { return tc.turn.State.LatestScript() }

func (tc *ToolContext) recordDelta(k string, v any) {
	if tc.eventActions.StateDelta == nil {
		tc.eventActions.StateDelta = map[string]any{}
	}
	tc.eventActions.StateDelta[k] = v
}

// Actions returns the event actions accumulated in the tool context.
func (tc *ToolContext) Actions() *EventActions { return &tc.eventActions }

// TransferToAgent signals orchestration to hand off control to another agent.
// The engine validates the target before applying it.
func (tc *ToolContext) TransferToAgent(name string) {
	tc.eventActions.TransferToAgent = &name
	tc.LogInfo("tool.transfer.request", "from_agent", tc.AgentName(), "to_agent", name, "function_call_id", tc.functionCallID)
}

// RequireConfirmation marks the result as blocked on user confirmation.
func (tc *ToolContext) RequireConfirmation() {
	b := true
	tc.eventActions.RequiresConfirmation = &b
}

// Validate performs a structural sanity check of the context.
func (tc *ToolContext) Validate() error {
	if tc.turn == nil || tc.turn.State == nil || tc.functionCallID == "" {
		return fmt.Errorf("invalid ToolContext")
	}
	return nil
}

// InternalApplyActions merges accumulated EventActions into the provided event.
// Used by the engine when finalizing tool result events.
func (tc *ToolContext) InternalApplyActions(ev *Event) {
	if len(tc.eventActions.StateDelta) > 0 {
		if ev.Actions.StateDelta == nil {
			ev.Actions.StateDelta = map[string]any{}
		}
		for k, v := range tc.eventActions.StateDelta {
			ev.Actions.StateDelta[k] = v
		}
	}

	if tc.eventActions.TransferToAgent != nil {
		ev.Actions.TransferToAgent = tc.eventActions.TransferToAgent
	}

	if tc.eventActions.RequiresConfirmation != nil {
		ev.Actions.RequiresConfirmation = tc.eventActions.RequiresConfirmation
	}
}
