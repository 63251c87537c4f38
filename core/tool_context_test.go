package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/campaignmesh/logging"
)

func newTestTurn(state *State) *TurnContext {
	return NewTurnContext(context.Background(), "sess-1", "turn-1", "BriefWriterAgent", state, 10, logging.NoOpLogger{})
}

func TestToolContext_Accessors(t *testing.T) {
	turn := newTestTurn(nil)
	tc := NewToolContext(turn, "call-1")

	require.NoError(t, tc.Validate())
	assert.Equal(t, "sess-1", tc.SessionID())
	assert.Equal(t, "turn-1", tc.TurnID())
	assert.Equal(t, "call-1", tc.FunctionCallID())
	assert.Equal(t, "BriefWriterAgent", tc.AgentName())
	assert.NotNil(t, tc.Context())
	assert.NotNil(t, tc.Logger())
	assert.Same(t, turn.State, tc.State())
}

func TestToolContext_WritesRecordDelta(t *testing.T) {
	state := NewState()
	tc := NewToolContext(newTestTurn(state), "call-1")

	tc.Briefings().SetBriefing("ai", "summary")
	tc.Drafts().SetDraft("post", Draft{Title: "T"})
	tc.Scripts().SetScript("vid", "script")
	require.NoError(t, tc.SetState("custom", 1))

	got, ok := state.Briefing("ai")
	require.True(t, ok)
	assert.Equal(t, "summary", got)

	delta := tc.Actions().StateDelta
	assert.Equal(t, "summary", delta["intel_briefing.ai"])
	assert.Equal(t, Draft{Title: "T"}, delta["blog_posts.post"])
	assert.Equal(t, "script", delta["scripts.vid"])
	assert.Equal(t, 1, delta["custom"])

	v, ok := tc.GetState("custom")
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestToolContext_SetStateErrorSkipsDelta(t *testing.T) {
	tc := NewToolContext(newTestTurn(nil), "call-1")

	err := tc.SetState(NamespaceBriefings, 5)
	require.Error(t, err)
	assert.Empty(t, tc.Actions().StateDelta)
}

func TestToolContext_ApplyActions(t *testing.T) {
	tc := NewToolContext(newTestTurn(nil), "call-1")
	tc.SetBriefing("k", "v")
	tc.TransferToAgent("ManagerAgent")
	tc.RequireConfirmation()

	ev := NewFunctionResponseEvent("turn-1", "BriefWriterAgent", "call-1", "WriteIntelBriefingTool", "ok", nil)
	tc.InternalApplyActions(&ev)

	assert.Equal(t, "v", ev.Actions.StateDelta["intel_briefing.k"])
	require.NotNil(t, ev.Actions.TransferToAgent)
	assert.Equal(t, "ManagerAgent", *ev.Actions.TransferToAgent)
	require.NotNil(t, ev.Actions.RequiresConfirmation)
	assert.True(t, *ev.Actions.RequiresConfirmation)
}

func TestToolContext_ValidateRejectsMissingCallID(t *testing.T) {
	tc := NewToolContext(newTestTurn(nil), "")
	assert.Error(t, tc.Validate())
}

func TestStepLimiter(t *testing.T) {
	l := NewStepLimiter(2)
	require.NoError(t, l.Increment())
	require.NoError(t, l.Increment())
	assert.Equal(t, 0, l.Remaining())

	err := l.Increment()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStepLimit))
	assert.Equal(t, 3, l.Count())

	unlimited := NewStepLimiter(0)
	for range 100 {
		require.NoError(t, unlimited.Increment())
	}
	assert.Equal(t, -1, unlimited.Remaining())
}
