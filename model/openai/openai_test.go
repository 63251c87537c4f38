package openai

import (
	"testing"

	"github.com/openai/openai-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/campaignmesh/core"
	"github.com/hupe1980/campaignmesh/model"
)

func TestBuildMessages(t *testing.T) {
	req := model.Request{
		Instructions: "You are ManagerAgent.",
		Contents: []core.Content{
			core.NewTextContent(core.RoleUser, "find news"),
			{Role: core.RoleAssistant, Parts: []core.Part{
				core.FunctionCallPart{FunctionCall: core.FunctionCall{ID: "c1", Name: "NewsEverythingSearchTool", Arguments: `{"q":"ai"}`}},
				core.FunctionCallPart{FunctionCall: core.FunctionCall{ID: "c2", Name: "transfer_to_agent"}},
			}},
			{Role: core.RoleTool, Parts: []core.Part{
				core.FunctionResponsePart{FunctionResponse: core.FunctionResponse{ID: "c1", Name: "NewsEverythingSearchTool", Response: "1 article"}},
				core.FunctionResponsePart{FunctionResponse: core.FunctionResponse{ID: "c2", Name: "transfer_to_agent", Error: "unknown agent"}},
			}},
			core.NewTextContent(core.RoleUser, ""),
			core.NewTextContent(core.RoleAssistant, "done"),
		},
	}

	msgs := buildMessages(req)
	require.Len(t, msgs, 6)

	assert.NotNil(t, msgs[0].OfSystem)
	assert.NotNil(t, msgs[1].OfUser)

	require.NotNil(t, msgs[2].OfAssistant)
	calls := msgs[2].OfAssistant.ToolCalls
	require.Len(t, calls, 2)
	assert.Equal(t, `{"q":"ai"}`, calls[0].Function.Arguments)
	assert.Equal(t, "{}", calls[1].Function.Arguments)

	require.NotNil(t, msgs[3].OfTool)
	assert.Equal(t, "c1", msgs[3].OfTool.ToolCallID)
	require.NotNil(t, msgs[4].OfTool)
	assert.Equal(t, "c2", msgs[4].OfTool.ToolCallID)

	// The empty user turn is dropped.
	assert.NotNil(t, msgs[5].OfAssistant)
}

func TestBuildParams_Tools(t *testing.T) {
	m := NewModelFromClient(nil, func(o *Options) { o.Model = "gpt-test" })

	params := m.buildParams(model.Request{
		Tools: []model.ToolDefinition{model.NewFunctionDefinition("transfer_to_agent", "Transfer", map[string]any{"type": "object"})},
	}, nil)

	require.Len(t, params.Tools, 1)
	assert.Equal(t, "transfer_to_agent", params.Tools[0].Function.Name)
	assert.Equal(t, "gpt-test", params.Model)
	assert.Equal(t, "gpt-test", m.Info().Name)
	assert.Equal(t, "openai", m.Info().Provider)
}

func TestConvertResponse(t *testing.T) {
	completion := &openai.ChatCompletion{
		ID: "cmpl-1",
		Choices: []openai.ChatCompletionChoice{{
			FinishReason: "tool_calls",
			Message: openai.ChatCompletionMessage{
				Content: "Searching.",
				ToolCalls: []openai.ChatCompletionMessageToolCall{{
					ID:       "c1",
					Function: openai.ChatCompletionMessageToolCallFunction{Name: "DuckDuckGoSearchTool", Arguments: `{"query":"ev"}`},
				}},
			},
		}},
		Usage: openai.CompletionUsage{PromptTokens: 10, CompletionTokens: 4, TotalTokens: 14},
	}

	resp, err := convertResponse(completion)
	require.NoError(t, err)

	assert.Equal(t, "cmpl-1", resp.ID)
	assert.False(t, resp.Partial)
	assert.Equal(t, "tool_calls", resp.FinishReason)
	assert.Equal(t, "Searching.", resp.Content.Text())
	require.Len(t, resp.Content.FunctionCalls(), 1)
	assert.Equal(t, "DuckDuckGoSearchTool", resp.Content.FunctionCalls()[0].Name)
	assert.Equal(t, 14, resp.Usage.TotalTokens)

	_, err = convertResponse(&openai.ChatCompletion{})
	require.Error(t, err)
}
