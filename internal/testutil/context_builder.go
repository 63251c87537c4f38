package testutil

import (
	"context"

	"github.com/hupe1980/campaignmesh/core"
	"github.com/hupe1980/campaignmesh/logging"
)

// ContextBuilder provides a fluent helper for constructing execution contexts.
// Example:
//
//	ec := NewContextBuilder("ManagerAgent").Briefing("ev", "EV sales up").UserText("hi").Build()
type ContextBuilder struct {
	ec *core.ExecutionContext
}

// NewContextBuilder starts a fresh context with root active.
func NewContextBuilder(root string) *ContextBuilder {
	return &ContextBuilder{ec: core.NewExecutionContext(root)}
}

// Active sets the active agent (chainable).
func (b *ContextBuilder) Active(agent string) *ContextBuilder { b.ec.ActiveAgent = agent; return b }

// Briefing stores an intel briefing (chainable).
func (b *ContextBuilder) Briefing(key, text string) *ContextBuilder {
	b.ec.State.SetBriefing(key, text)
	return b
}

// Draft stores a prepared blog post (chainable).
func (b *ContextBuilder) Draft(key, title, html string) *ContextBuilder {
	b.ec.State.SetDraft(key, core.Draft{Title: title, Content: html})
	return b
}

// Script stores a video script (chainable).
func (b *ContextBuilder) Script(key, text string) *ContextBuilder {
	b.ec.State.SetScript(key, text)
	return b
}

// UserText appends a user message to the history (chainable).
func (b *ContextBuilder) UserText(t string) *ContextBuilder {
	b.ec.History = append(b.ec.History, core.NewTextContent(core.RoleUser, t))
	return b
}

// AssistantText appends an assistant message to the history (chainable).
func (b *ContextBuilder) AssistantText(t string) *ContextBuilder {
	b.ec.History = append(b.ec.History, core.NewTextContent(core.RoleAssistant, t))
	return b
}

// Turns sets the completed turn counter (chainable).
func (b *ContextBuilder) Turns(n int) *ContextBuilder { b.ec.Turns = n; return b }

// Build returns the context.
func (b *ContextBuilder) Build() *core.ExecutionContext { return b.ec }

// ToolContext returns a tool context bound to state for agent.
func ToolContext(agent string, state *core.State) *core.ToolContext {
	if state == nil {
		state = core.NewState()
	}

	turn := core.NewTurnContext(context.Background(), "s1", "t1", agent, state, 10, logging.NoOpLogger{})

	return core.NewToolContext(turn, "fc-1")
}
