package core

import (
	"time"

	"github.com/google/uuid"
)

// EventKind classifies a trace event.
type EventKind string

const (
	EventUserMessage EventKind = "user_message"
	EventAgentChange EventKind = "agent_change"
	EventToolCall    EventKind = "tool_call"
	EventToolResult  EventKind = "tool_result"
	EventHandoff     EventKind = "handoff"
	EventOutput      EventKind = "output"
	EventError       EventKind = "error"
)

// EventActions encodes side‑effects or orchestration signals attached to an Event.
// All fields are optional so absence can be distinguished from zero values.
type EventActions struct {
	StateDelta           map[string]any `json:"state_delta,omitempty"`
	TransferToAgent      *string        `json:"transfer_to_agent,omitempty"`
	RequiresConfirmation *bool          `json:"requires_confirmation,omitempty"`
}

// Event is one entry of the ordered trace produced while a turn runs. After
// emission it should be treated as immutable.
type Event struct {
	ID           string       `json:"id"`
	TurnID       string       `json:"turn_id"`
	Author       string       `json:"author"`
	Kind         EventKind    `json:"kind"`
	Actions      EventActions `json:"actions"`
	Timestamp    time.Time    `json:"timestamp"`
	Content      *Content     `json:"content,omitempty"`
	ErrorMessage string       `json:"error_message,omitempty"`
}

// NewEvent creates a bare event authored by 'author' bound to a turn.
// Prefer helper constructors for common semantic categories.
func NewEvent(turnID, author string, kind EventKind) Event {
	return Event{
		ID:        NewID(),
		TurnID:    turnID,
		Author:    author,
		Kind:      kind,
		Timestamp: time.Now().UTC(),
	}
}

// NewUserMessageEvent creates a user-authored text message event.
func NewUserMessageEvent(turnID, message string) Event {
	e := NewEvent(turnID, RoleUser, EventUserMessage)
	c := NewTextContent(RoleUser, message)
	e.Content = &c
	return e
}

// NewMessageEvent creates an agent output event with a single text part.
func NewMessageEvent(turnID, author, message string) Event {
	e := NewEvent(turnID, author, EventOutput)
	c := NewTextContent(RoleAssistant, message)
	e.Content = &c
	return e
}

// NewAgentChangeEvent records that control moved to agent.
func NewAgentChangeEvent(turnID, agent string) Event {
	e := NewEvent(turnID, agent, EventAgentChange)
	e.Actions.TransferToAgent = &agent
	return e
}

// NewFunctionCallEvent represents an agent requesting execution of a named tool.
func NewFunctionCallEvent(turnID, author string, call FunctionCall) Event {
	e := NewEvent(turnID, author, EventToolCall)
	e.Content = &Content{Role: RoleAssistant, Parts: []Part{FunctionCallPart{FunctionCall: call}}}
	return e
}

// NewFunctionResponseEvent records the completion result (or error) of a tool
// invocation. If err is non-nil its message is copied into the response.
func NewFunctionResponseEvent(turnID, author, id, functionName string, result any, err error) Event {
	e := NewEvent(turnID, author, EventToolResult)
	fr := FunctionResponse{ID: id, Name: functionName, Response: result}
	if err != nil {
		fr.Error = err.Error()
		e.ErrorMessage = err.Error()
	}
	e.Content = &Content{Role: RoleTool, Parts: []Part{FunctionResponsePart{FunctionResponse: fr}}}
	return e
}

// NewHandoffEvent records an accepted transfer from one agent to another.
func NewHandoffEvent(turnID, from, to, reason string) Event {
	e := NewEvent(turnID, from, EventHandoff)
	e.Actions.TransferToAgent = &to
	if reason != "" {
		c := NewTextContent(RoleAssistant, reason)
		e.Content = &c
	}
	return e
}

// NewErrorEvent records a recoverable failure observed during a turn.
func NewErrorEvent(turnID, author string, err error) Event {
	e := NewEvent(turnID, author, EventError)
	e.ErrorMessage = err.Error()
	return e
}

// NewID generates a new unique identifier for events, turns and sessions.
func NewID() string { return uuid.NewString() }

// Text returns the concatenated text of the event content, if any.
func (e Event) Text() string {
	if e.Content == nil {
		return ""
	}
	return e.Content.Text()
}

// GetFunctionCalls returns any FunctionCall parts contained within the event
// content preserving their original order.
func (e Event) GetFunctionCalls() []FunctionCall {
	if e.Content == nil {
		return nil
	}
	return e.Content.FunctionCalls()
}

// GetFunctionResponses returns any FunctionResponse parts contained within the
// event content preserving their original order.
func (e Event) GetFunctionResponses() []FunctionResponse {
	if e.Content == nil {
		return nil
	}
	return e.Content.FunctionResponses()
}
