package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent_Constructors(t *testing.T) {
	e := NewEvent("turn-1", "ManagerAgent", EventOutput)
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "turn-1", e.TurnID)
	assert.Equal(t, "ManagerAgent", e.Author)
	assert.False(t, e.Timestamp.IsZero())

	user := NewUserMessageEvent("turn-1", "hi")
	require.NotNil(t, user.Content)
	assert.Equal(t, RoleUser, user.Content.Role)
	assert.Equal(t, EventUserMessage, user.Kind)
	assert.Equal(t, "hi", user.Text())

	msg := NewMessageEvent("turn-1", "NewsAgent", "hello world")
	assert.Equal(t, RoleAssistant, msg.Content.Role)
	assert.Equal(t, "hello world", msg.Text())

	call := NewFunctionCallEvent("turn-1", "NewsAgent", FunctionCall{ID: "c1", Name: "NewsEverythingSearchTool", Arguments: `{"q":"ai"}`})
	calls := call.GetFunctionCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "NewsEverythingSearchTool", calls[0].Name)
	assert.Empty(t, call.Text())
}

func TestEvent_FunctionResponse(t *testing.T) {
	ok := NewFunctionResponseEvent("turn-1", "BlogAgent", "c1", "PrepareBlogPostTool", "Blog post prepared in context.", nil)
	resps := ok.GetFunctionResponses()
	require.Len(t, resps, 1)
	assert.Equal(t, "Blog post prepared in context.", resps[0].ResultText())
	assert.Empty(t, ok.ErrorMessage)

	failed := NewFunctionResponseEvent("turn-1", "BlogAgent", "c2", "CreateBlogPostTool", nil, errors.New("boom"))
	resps = failed.GetFunctionResponses()
	require.Len(t, resps, 1)
	assert.Equal(t, "Error: boom", resps[0].ResultText())
	assert.Equal(t, "boom", failed.ErrorMessage)
}

func TestEvent_HandoffAndAgentChange(t *testing.T) {
	h := NewHandoffEvent("turn-1", "ManagerAgent", "NewsAgent", "needs news")
	require.NotNil(t, h.Actions.TransferToAgent)
	assert.Equal(t, "NewsAgent", *h.Actions.TransferToAgent)
	assert.Equal(t, "needs news", h.Text())

	silent := NewHandoffEvent("turn-1", "ManagerAgent", "NewsAgent", "")
	assert.Nil(t, silent.Content)

	ac := NewAgentChangeEvent("turn-1", "NewsAgent")
	assert.Equal(t, EventAgentChange, ac.Kind)
	assert.Equal(t, "NewsAgent", *ac.Actions.TransferToAgent)
}

func TestEvent_ErrorEvent(t *testing.T) {
	e := NewErrorEvent("turn-1", "engine", errors.New("bad handoff"))
	assert.Equal(t, EventError, e.Kind)
	assert.Equal(t, "bad handoff", e.ErrorMessage)
	assert.Nil(t, e.GetFunctionCalls())
	assert.Nil(t, e.GetFunctionResponses())
}
