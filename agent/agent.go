package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/hupe1980/campaignmesh/core"
	"github.com/hupe1980/campaignmesh/internal/util"
	"github.com/hupe1980/campaignmesh/logging"
	"github.com/hupe1980/campaignmesh/model"
	"github.com/hupe1980/campaignmesh/tool"
)

// Options configures an Agent instance.
//
// Use functional options with New to override defaults.
type Options struct {
	Description string
	Instruction Instruction
	Tools       []tool.Tool
	Handoffs    []string
	// MaxHistory bounds the number of conversation messages sent to the
	// model. Zero sends everything.
	MaxHistory int
	Now        func() time.Time
	Logger     logging.Logger
}

// Agent is a model-backed node of the handoff graph. It is immutable after
// construction and safe for concurrent use.
type Agent struct {
	name        string
	description string
	instruction Instruction
	tools       *tool.Registry
	handoffs    []string
	handoffTool tool.Tool
	llm         model.Model
	maxHistory  int
	now         func() time.Time
	logger      logging.Logger
}

var _ Proposer = (*Agent)(nil)

// New creates an agent bound to llm.
func New(name string, llm model.Model, optFns ...func(o *Options)) (*Agent, error) {
	opts := Options{
		Instruction: NewInstructionFromText(fmt.Sprintf("You are %s, a helpful AI assistant.", name)),
		MaxHistory:  40,
		Now:         time.Now,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if name == "" {
		return nil, fmt.Errorf("agent name must not be empty")
	}

	if llm == nil {
		return nil, fmt.Errorf("agent %s: model must not be nil", name)
	}

	registry, err := tool.NewRegistry(opts.Tools...)
	if err != nil {
		return nil, fmt.Errorf("agent %s: %w", name, err)
	}

	if _, reserved := registry.Get(tool.HandoffToolName); reserved {
		return nil, fmt.Errorf("agent %s: tool name %q is reserved", name, tool.HandoffToolName)
	}

	a := &Agent{
		name:        name,
		description: opts.Description,
		instruction: opts.Instruction,
		tools:       registry,
		handoffs:    slices.Clone(opts.Handoffs),
		llm:         llm,
		maxHistory:  opts.MaxHistory,
		now:         opts.Now,
		logger:      logging.OrNoOp(opts.Logger),
	}

	if len(a.handoffs) > 0 {
		a.handoffTool = tool.NewHandoffTool(a.handoffs)
	}

	return a, nil
}

// Name returns the agent name.
func (a *Agent) Name() string { return a.name }

// Description returns the human-readable role description.
func (a *Agent) Description() string { return a.description }

// Handoffs returns the permitted handoff targets.
func (a *Agent) Handoffs() []string { return slices.Clone(a.handoffs) }

// Tools returns the bound tools in registration order.
func (a *Agent) Tools() []tool.Tool { return a.tools.List() }

// Tool looks up a bound tool by name.
func (a *Agent) Tool(name string) (tool.Tool, bool) { return a.tools.Get(name) }

// CanHandoffTo reports whether target is a permitted handoff target.
func (a *Agent) CanHandoffTo(target string) bool { return slices.Contains(a.handoffs, target) }

// ResolveInstructions renders the system prompt for the current step.
func (a *Agent) ResolveInstructions() (string, error) {
	now := a.now()

	return a.instruction.Resolve(InstructionData{
		CurrentTime: now.Format(util.TimeLayout),
		AgentName:   a.name,
		Handoffs:    a.Handoffs(),
		Now:         now,
	})
}

// ToolDefinitions returns the declarations sent to the model, including the
// handoff tool when the agent has targets.
func (a *Agent) ToolDefinitions() []model.ToolDefinition {
	defs := make([]model.ToolDefinition, 0, a.tools.Len()+1)

	for _, t := range a.tools.List() {
		defs = append(defs, model.NewFunctionDefinition(t.Name(), t.Description(), t.Parameters()))
	}

	if a.handoffTool != nil {
		defs = append(defs, model.NewFunctionDefinition(a.handoffTool.Name(), a.handoffTool.Description(), a.handoffTool.Parameters()))
	}

	return defs
}

// ProposeStep asks the model for the next step given the conversation.
func (a *Agent) ProposeStep(ctx context.Context, conv Conversation) (Step, error) {
	instructions, err := a.ResolveInstructions()
	if err != nil {
		return nil, fmt.Errorf("agent %s: resolve instructions: %w", a.name, err)
	}

	req := model.Request{
		Instructions: instructions,
		Contents:     core.TrimHistory(conv, a.maxHistory),
		Tools:        a.ToolDefinitions(),
	}

	start := time.Now()
	resp, err := model.Complete(ctx, a.llm, req)
	logging.LogModelCall(a.logger, a.name, a.llm.Info().Name, time.Since(start), err)

	if err != nil {
		return nil, fmt.Errorf("agent %s: %w", a.name, err)
	}

	return ParseStep(resp.Content), nil
}

// ParseStep classifies a model reply. Ordinary tool calls take precedence
// over a handoff issued in the same reply; the handoff is dropped and the
// model may re-issue it after seeing the results. Of several handoff calls
// only the first counts.
func ParseStep(content core.Content) Step {
	text := strings.TrimSpace(content.Text())

	var (
		calls   []core.FunctionCall
		handoff *core.FunctionCall
	)

	for _, fc := range content.FunctionCalls() {
		if fc.Name == tool.HandoffToolName {
			if handoff == nil {
				h := fc
				handoff = &h
			}
			continue
		}
		calls = append(calls, fc)
	}

	switch {
	case len(calls) > 0:
		return ToolCalls{Text: text, Calls: calls}
	case handoff != nil:
		var args struct {
			ToAgent string `json:"to_agent"`
			Reason  string `json:"reason"`
		}
		_ = json.Unmarshal([]byte(handoff.Arguments), &args)

		return Handoff{Text: text, CallID: handoff.ID, Target: args.ToAgent, Reason: args.Reason}
	default:
		return FinalText{Text: text}
	}
}
