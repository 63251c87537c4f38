package review

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/campaignmesh/core"
	"github.com/hupe1980/campaignmesh/logging"
	"github.com/hupe1980/campaignmesh/model"
	"github.com/hupe1980/campaignmesh/subagent"
	"github.com/hupe1980/campaignmesh/tool"
)

func newToolContext(state *core.State) *core.ToolContext {
	turn := core.NewTurnContext(context.Background(), "s1", "t1", "ManagerAgent", state, 10, logging.NoOpLogger{})
	return core.NewToolContext(turn, "fc-1")
}

func TestReviewContentTool(t *testing.T) {
	llm := model.NewScriptedModel("reviewer", model.TextResponse("**Review Status:** Approved\n\n**Feedback:** solid"))

	state := core.NewState()
	state.SetScript("ev_script", "# Video Script: EVs")

	out, err := ReviewContentTool(subagent.NewReviewer(llm)).Call(newToolContext(state), map[string]any{
		"content_type": "scripts",
		"key":          "ev_script",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "**Review Status:** Approved")

	reqs := llm.Requests()
	require.Len(t, reqs, 1)
	assert.Contains(t, reqs[0].Contents[0].Text(), "# Video Script: EVs")
}

func TestReviewContentTool_MissingKey(t *testing.T) {
	llm := model.NewScriptedModel("reviewer")

	_, err := ReviewContentTool(subagent.NewReviewer(llm)).Call(newToolContext(core.NewState()), map[string]any{
		"content_type": "blog_posts",
		"key":          "nope",
	})
	require.Error(t, err)

	var te *tool.ToolError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, tool.CodeNotFound, te.Code)
	assert.Empty(t, llm.Requests())
}

func TestReviewContentTool_InvalidType(t *testing.T) {
	_, err := ReviewContentTool(subagent.NewReviewer(model.NewScriptedModel("r"))).Call(newToolContext(core.NewState()), map[string]any{
		"content_type": "tweets",
	})
	require.Error(t, err)

	var te *tool.ToolError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, tool.CodeValidation, te.Code)
}
