// Package anthropic adapts the Anthropic Messages API to model.Model.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"

	"github.com/hupe1980/campaignmesh/core"
	"github.com/hupe1980/campaignmesh/internal/util"
	"github.com/hupe1980/campaignmesh/model"
)

// Options configure the Anthropic model adapter.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

func defaultOptions() Options {
	return Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}
}

// Model calls the Messages API once per request.
type Model struct {
	client *anthropic.Client
	opts   Options
}

// NewModel creates a model with its own client. An empty APIKey lets the SDK
// fall back to ANTHROPIC_API_KEY.
func NewModel(optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}

	client := anthropic.NewClient(clientOpts...)

	return &Model{client: &client, opts: opts}
}

// NewModelFromClient creates a model on an existing client.
func NewModelFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Model{client: client, opts: opts}
}

// Generate implements model.Model.
func (m *Model) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 1)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		msg, err := m.client.Messages.New(ctx, m.buildParams(req))
		if err != nil {
			errCh <- fmt.Errorf("anthropic: %w", err)
			return
		}

		out <- convertMessage(msg)
	}()

	return out, errCh
}

func (m *Model) buildParams(req model.Request) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:       m.opts.Model,
		MaxTokens:   m.opts.MaxTokens,
		Temperature: anthropic.Float(m.opts.Temperature),
		Messages:    buildMessages(req.Contents),
	}

	if req.Instructions != "" {
		params.System = append(params.System, anthropic.TextBlockParam{Text: req.Instructions})
	}

	for _, c := range req.Contents {
		if c.Role == core.RoleSystem && c.Text() != "" {
			params.System = append(params.System, anthropic.TextBlockParam{Text: c.Text()})
		}
	}

	for _, def := range req.Tools {
		params.Tools = append(params.Tools, toolParam(def))
	}

	return params
}

// buildMessages converts the history into alternating user and assistant
// messages. Tool results travel as tool_result blocks on the user side, and
// adjacent turns of the same role are merged because the API rejects them.
func buildMessages(contents []core.Content) []anthropic.MessageParam {
	var messages []anthropic.MessageParam

	push := func(role anthropic.MessageParamRole, blocks []anthropic.ContentBlockParamUnion) {
		if len(blocks) == 0 {
			return
		}
		if n := len(messages); n > 0 && messages[n-1].Role == role {
			messages[n-1].Content = append(messages[n-1].Content, blocks...)
			return
		}
		messages = append(messages, anthropic.MessageParam{Role: role, Content: blocks})
	}

	for _, c := range contents {
		switch c.Role {
		case core.RoleSystem:
		case core.RoleTool:
			var blocks []anthropic.ContentBlockParamUnion
			for _, fr := range c.FunctionResponses() {
				blocks = append(blocks, anthropic.NewToolResultBlock(fr.ID, fr.ResultText(), fr.Error != ""))
			}
			push(anthropic.MessageParamRoleUser, blocks)
		case core.RoleAssistant:
			push(anthropic.MessageParamRoleAssistant, assistantBlocks(c.Parts))
		default:
			if text := c.Text(); text != "" {
				push(anthropic.MessageParamRoleUser, []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(text)})
			}
		}
	}

	return messages
}

func assistantBlocks(parts []core.Part) []anthropic.ContentBlockParamUnion {
	var blocks []anthropic.ContentBlockParamUnion

	for _, p := range parts {
		switch part := p.(type) {
		case core.TextPart:
			if part.Text != "" {
				blocks = append(blocks, anthropic.NewTextBlock(part.Text))
			}
		case core.FunctionCallPart:
			fc := part.FunctionCall
			blocks = append(blocks, anthropic.NewToolUseBlock(fc.ID, toolInput(fc.Arguments), fc.Name))
		}
	}

	return blocks
}

// toolInput decodes call arguments back into the object the API expects.
func toolInput(args string) any {
	input := map[string]any{}
	if args == "" {
		return input
	}

	if err := json.Unmarshal([]byte(args), &input); err != nil {
		return args
	}

	return input
}

func toolParam(def model.ToolDefinition) anthropic.ToolUnionParam {
	schema := anthropic.ToolInputSchemaParam{Type: constant.Object("object")}

	if params := def.Function.Parameters; params != nil {
		schema.Properties = params["properties"]
		schema.Required = util.RequiredFields(params)
	}

	tool := anthropic.ToolUnionParamOfTool(schema, def.Function.Name)
	if tool.OfTool != nil && def.Function.Description != "" {
		tool.OfTool.Description = anthropic.String(def.Function.Description)
	}

	return tool
}

func convertMessage(msg *anthropic.Message) model.Response {
	content := core.Content{Role: core.RoleAssistant}

	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			if text := block.AsText().Text; text != "" {
				content.Parts = append(content.Parts, core.TextPart{Text: text})
			}
		case "tool_use":
			use := block.AsToolUse()
			args, err := json.Marshal(use.Input)
			if err != nil || string(args) == "null" {
				args = []byte("{}")
			}
			content.Parts = append(content.Parts, core.FunctionCallPart{FunctionCall: core.FunctionCall{
				ID:        use.ID,
				Name:      use.Name,
				Arguments: string(args),
			}})
		}
	}

	finish := string(msg.StopReason)
	if finish == "" {
		finish = "stop"
	}

	return model.Response{
		ID:           msg.ID,
		Content:      content,
		FinishReason: finish,
		Usage: &model.TokenUsage{
			PromptTokens:     int(msg.Usage.InputTokens),
			CompletionTokens: int(msg.Usage.OutputTokens),
			TotalTokens:      int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
		},
	}
}

// Info returns metadata describing the model.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:          string(m.opts.Model),
		Provider:      "anthropic",
		SupportsTools: true,
	}
}
