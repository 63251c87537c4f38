package tool

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/campaignmesh/core"
	"github.com/hupe1980/campaignmesh/logging"
)

func newToolContext(id string) *core.ToolContext {
	turn := core.NewTurnContext(context.Background(), "sess-1", "turn-1", "BlogAgent", core.NewState(), 10, logging.NoOpLogger{})
	return core.NewToolContext(turn, id)
}

// -------------------- FunctionTool Tests --------------------

func TestFunctionTool_Success(t *testing.T) {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{"type": "number"},
			"b": map[string]any{"type": "number"},
		},
		"required": []string{"a", "b"},
	}

	sumTool := NewFunctionTool("sum", "Add numbers", params, func(_ *core.ToolContext, args map[string]any) (any, error) {
		a := args["a"].(float64)
		b := args["b"].(float64)
		return a + b, nil
	})

	result, err := sumTool.Call(newToolContext("fc1"), map[string]any{"a": 2.0, "b": 3.0})
	require.NoError(t, err)
	assert.Equal(t, 5.0, result)
	assert.False(t, NeedsConfirmation(sumTool))
}

func TestFunctionTool_ValidationError(t *testing.T) {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{"type": "number"},
		},
		"required": []any{"a"},
	}
	tTool := NewFunctionTool("test", "Test", params, func(_ *core.ToolContext, _ map[string]any) (any, error) {
		return 0, nil
	})

	_, err := tTool.Call(newToolContext("fc2"), nil)
	require.Error(t, err)

	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, CodeValidation, toolErr.Code)
}

func TestFunctionTool_ErrorCodes(t *testing.T) {
	params := map[string]any{"type": "object", "properties": map[string]any{}}

	tests := []struct {
		name string
		err  error
		code string
	}{
		{"execution", errors.New("boom"), CodeExecution},
		{"not found", fmt.Errorf("post 7: %w", core.ErrNotFound), CodeNotFound},
		{"passthrough", NewToolError("x", "custom", "E123"), "E123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ft := NewFunctionTool("fail", "Fails", params, func(_ *core.ToolContext, _ map[string]any) (any, error) {
				return nil, tt.err
			})

			_, err := ft.Call(newToolContext("fc3"), map[string]any{})
			require.Error(t, err)

			var toolErr *ToolError
			require.ErrorAs(t, err, &toolErr)
			assert.Equal(t, tt.code, toolErr.Code)
		})
	}
}

func TestToolError_UnwrapKeepsSentinel(t *testing.T) {
	err := AsToolError("ReviewContentTool", fmt.Errorf("draft_article/k: %w", core.ErrNotFound))
	assert.True(t, errors.Is(err, core.ErrNotFound))
	assert.Contains(t, err.Error(), "NOT_FOUND")
}

func TestFunctionTool_WithConfirmation(t *testing.T) {
	ft := NewFunctionTool("CreateBlogPostTool", "Publish", map[string]any{"type": "object"}, func(_ *core.ToolContext, _ map[string]any) (any, error) {
		return "ok", nil
	}, WithConfirmation())

	assert.True(t, NeedsConfirmation(ft))
}

// -------------------- TypedTool Tests --------------------

type briefingArgs struct {
	Key   string   `json:"key" jsonschema:"description=Briefing key" validate:"required"`
	Text  string   `json:"text" validate:"required,min=3"`
	Tags  []string `json:"tags,omitempty"`
	Limit int      `json:"limit,omitempty" validate:"omitempty,min=1,max=10"`
}

func TestSchemaFor(t *testing.T) {
	schema := SchemaFor[briefingArgs]()

	assert.Equal(t, "object", schema["type"])

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "key")
	assert.Contains(t, props, "tags")

	key := props["key"].(map[string]any)
	assert.Equal(t, "string", key["type"])
	assert.Equal(t, "Briefing key", key["description"])

	limit := props["limit"].(map[string]any)
	assert.Equal(t, "integer", limit["type"])

	req, ok := schema["required"].([]any)
	require.True(t, ok)
	assert.ElementsMatch(t, []any{"key", "text"}, req)
}

func TestTypedTool_DecodesAndValidates(t *testing.T) {
	var got briefingArgs

	tt := NewTypedTool("WriteIntelBriefingTool", "Write", func(tc *core.ToolContext, in briefingArgs) (any, error) {
		got = in
		tc.Briefings().SetBriefing(in.Key, in.Text)
		return "Intel briefing set under key: " + in.Key, nil
	})

	tc := newToolContext("fc-typed")
	res, err := tt.Call(tc, map[string]any{"key": "ai", "text": "summary", "tags": []any{"x"}, "limit": 2.0})
	require.NoError(t, err)
	assert.Equal(t, "Intel briefing set under key: ai", res)
	assert.Equal(t, briefingArgs{Key: "ai", Text: "summary", Tags: []string{"x"}, Limit: 2}, got)

	text, ok := tc.State().Briefing("ai")
	require.True(t, ok)
	assert.Equal(t, "summary", text)
}

func TestTypedTool_ConstraintViolation(t *testing.T) {
	tt := NewTypedTool("WriteIntelBriefingTool", "Write", func(_ *core.ToolContext, _ briefingArgs) (any, error) {
		t.Fatal("must not be called")
		return nil, nil
	})

	_, err := tt.Call(newToolContext("fc"), map[string]any{"key": "ai", "text": "ab"})
	require.Error(t, err)

	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, CodeValidation, toolErr.Code)

	var vErr *ValidationError
	require.ErrorAs(t, toolErr.Details.(error), &vErr)
	assert.Equal(t, "Text", vErr.Field)
}

// -------------------- Handoff Tests --------------------

func TestHandoffTool(t *testing.T) {
	h := NewHandoffTool([]string{"ManagerAgent", "BriefWriterAgent"})
	assert.Equal(t, HandoffToolName, h.Name())

	props := h.Parameters()["properties"].(map[string]any)
	assert.Equal(t, []string{"ManagerAgent", "BriefWriterAgent"}, props["to_agent"].(map[string]any)["enum"])

	tc := newToolContext("fc-h")
	_, err := h.Call(tc, map[string]any{"to_agent": "BriefWriterAgent"})
	require.NoError(t, err)
	require.NotNil(t, tc.Actions().TransferToAgent)
	assert.Equal(t, "BriefWriterAgent", *tc.Actions().TransferToAgent)

	_, err = h.Call(newToolContext("fc-h2"), map[string]any{"to_agent": "EditorAgent"})
	require.Error(t, err)
}

// -------------------- Registry Tests --------------------

func TestRegistry(t *testing.T) {
	noop := func(_ *core.ToolContext, _ map[string]any) (any, error) { return nil, nil }
	a := NewFunctionTool("a", "", nil, noop)
	b := NewFunctionTool("b", "", nil, noop)

	r, err := NewRegistry(a, b)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, r.Names())
	assert.Equal(t, 2, r.Len())

	got, ok := r.Get("b")
	require.True(t, ok)
	assert.Same(t, b, got)

	_, err = NewRegistry(a, NewFunctionTool("a", "", nil, noop))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")

	require.Error(t, r.Register(nil))
}

func TestToolErrorFormatting(t *testing.T) {
	err := NewToolError("demo", "something failed", "E123")
	assert.Contains(t, err.Error(), "E123")
	assert.Contains(t, err.Error(), "demo")
	assert.Equal(t, "tool error in demo: x", NewToolError("demo", "x", "").Error())
}
