package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/hupe1980/campaignmesh/agent"
	"github.com/hupe1980/campaignmesh/core"
	"github.com/hupe1980/campaignmesh/internal/tracing"
	"github.com/hupe1980/campaignmesh/logging"
	"github.com/hupe1980/campaignmesh/tool"
)

// FallbackResponse is returned when a turn ends without any agent text.
const FallbackResponse = "I'm sorry, I couldn't process your request."

const (
	// DefaultMaxSteps bounds agent steps per turn.
	DefaultMaxSteps = 30
	// DefaultMaxHistory bounds the conversation stored in the ExecutionContext.
	DefaultMaxHistory = 40
)

// ErrHandoffRejected marks a handoff to a target outside the permitted set.
var ErrHandoffRejected = errors.New("handoff rejected")

// ResumePolicy selects the agent a turn starts at.
type ResumePolicy string

const (
	// ResumeRoot starts every turn at the root agent; state and history are kept.
	ResumeRoot ResumePolicy = "root"
	// ResumeLastAgent continues with the agent that was active when the previous turn ended.
	ResumeLastAgent ResumePolicy = "last_agent"
	// ResetOnNonRoot discards the whole context when the previous turn ended
	// on a non-root agent, otherwise keeps it.
	ResetOnNonRoot ResumePolicy = "reset_on_non_root"
)

// DefaultResumePolicy continues the conversation with the agent that asked
// the last question.
const DefaultResumePolicy = ResumeLastAgent

// ParseResumePolicy parses a policy name. The empty string yields
// DefaultResumePolicy.
func ParseResumePolicy(s string) (ResumePolicy, error) {
	switch p := ResumePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return DefaultResumePolicy, nil
	case ResumeRoot, ResumeLastAgent, ResetOnNonRoot:
		return p, nil
	default:
		return "", fmt.Errorf("unknown resume policy %q", s)
	}
}

// Options configures an Engine.
type Options struct {
	MaxSteps           int
	MaxHistory         int
	ResumePolicy       ResumePolicy
	ConfirmSideEffects bool
	Logger             logging.Logger
	Observers          []Observer
	Now                func() time.Time
}

// Engine runs turns over an agent graph. It holds no per-session state and
// is safe for concurrent use with distinct ExecutionContexts.
type Engine struct {
	graph     *agent.Graph
	opts      Options
	logger    logging.Logger
	observers *observerSet
}

// New creates an engine for graph.
func New(graph *agent.Graph, optFns ...func(o *Options)) (*Engine, error) {
	if graph == nil {
		return nil, errors.New("engine: graph is required")
	}

	opts := Options{
		MaxSteps:           DefaultMaxSteps,
		MaxHistory:         DefaultMaxHistory,
		ResumePolicy:       DefaultResumePolicy,
		ConfirmSideEffects: true,
		Now:                time.Now,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if _, err := ParseResumePolicy(string(opts.ResumePolicy)); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	if opts.ResumePolicy == "" {
		opts.ResumePolicy = DefaultResumePolicy
	}

	logger := logging.OrNoOp(opts.Logger)

	return &Engine{
		graph:     graph,
		opts:      opts,
		logger:    logger,
		observers: newObserverSet(logger, opts.Observers...),
	}, nil
}

// Graph returns the agent graph the engine runs.
func (e *Engine) Graph() *agent.Graph { return e.graph }

// Result is the outcome of one turn.
type Result struct {
	// Response is the user-visible text.
	Response string
	// Context is the updated continuation to resume the next turn from.
	Context *core.ExecutionContext
	// Events is the ordered trace of the turn.
	Events []core.Event
	// Steps is the number of agent steps taken.
	Steps int
}

type sessionIDKey struct{}

// WithSessionID attaches a session id that tools can read from their context.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey{}, id)
}

func sessionIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(sessionIDKey{}).(string)
	return id
}

// run carries the mutable bookkeeping of a single turn.
type run struct {
	turnID   string
	ec       *core.ExecutionContext
	active   string
	events   []core.Event
	lastText string
}

// RunTurn drives one user message through the graph. The input context is
// not modified; the updated continuation is returned in Result.Context. A nil
// context starts a fresh session at the root agent. Errors are returned only
// for model failures and cancellation; tool failures are handled in-band.
func (e *Engine) RunTurn(ctx context.Context, ec *core.ExecutionContext, msg string) (Result, error) {
	r := &run{turnID: core.NewID(), ec: e.resume(ec)}
	r.active = r.ec.ActiveAgent

	ctx, span := tracing.StartSpan(ctx, "engine.turn",
		tracing.StringAttr("turn_id", r.turnID),
		tracing.StringAttr("agent", r.active),
	)
	defer span.End()

	logger := e.logger
	if sid := sessionIDFrom(ctx); sid != "" {
		logger = &sessionLogger{Logger: logger, sessionID: sid}
	}

	logger.Info("engine.turn.start", "turn_id", r.turnID, "agent", r.active, "turns", r.ec.Turns)

	applyUserReply(r.ec, msg)

	r.ec.History = append(r.ec.History, core.NewTextContent(core.RoleUser, msg))
	r.events = append(r.events, core.NewUserMessageEvent(r.turnID, msg))

	turn := core.NewTurnContext(ctx, sessionIDFrom(ctx), r.turnID, r.active, r.ec.State, e.opts.MaxSteps, logger)

	if err := e.loop(ctx, turn, r); err != nil {
		tracing.RecordError(span, err)
		logger.Error("engine.turn.error", "turn_id", r.turnID, "agent", r.active, "error", err)
		return Result{Context: r.ec, Events: r.events, Steps: e.stepsTaken(turn)}, err
	}

	response := selectResponse(r.lastText)

	r.ec.ActiveAgent = r.active
	r.ec.History = core.TrimHistory(r.ec.History, e.opts.MaxHistory)
	r.ec.Turns++
	r.ec.UpdatedAt = e.opts.Now().UTC()

	steps := e.stepsTaken(turn)

	span.SetAttributes(tracing.IntAttr("steps", steps))
	tracing.SetOK(span)
	logger.Info("engine.turn.end", "turn_id", r.turnID, "agent", r.active, "steps", steps)

	return Result{
		Response: response,
		Context:  r.ec,
		Events:   r.events,
		Steps:    steps,
	}, nil
}

// stepsTaken excludes the increment that tripped the limiter.
func (e *Engine) stepsTaken(turn *core.TurnContext) int {
	n := turn.Limiter.Count()
	if e.opts.MaxSteps > 0 && n > e.opts.MaxSteps {
		return e.opts.MaxSteps
	}
	return n
}

func (e *Engine) resume(ec *core.ExecutionContext) *core.ExecutionContext {
	root := e.graph.Root()

	if ec == nil {
		return core.NewExecutionContext(root)
	}

	out := ec.Clone()

	switch e.opts.ResumePolicy {
	case ResumeRoot:
		out.ActiveAgent = root
	case ResetOnNonRoot:
		if out.ActiveAgent != root {
			e.logger.Info("engine.context.reset", "active_agent", out.ActiveAgent)
			return core.NewExecutionContext(root)
		}
	default:
		if !e.graph.Has(out.ActiveAgent) {
			out.ActiveAgent = root
		}
	}

	return out
}

func (e *Engine) loop(ctx context.Context, turn *core.TurnContext, r *run) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := turn.Limiter.Increment(); err != nil {
			turn.LogWarn("engine.step.limit", "turn_id", r.turnID, "agent", r.active, "max_steps", e.opts.MaxSteps)
			r.events = append(r.events, core.NewErrorEvent(r.turnID, r.active, err))
			return nil
		}

		done, err := e.step(ctx, turn, r)
		if err != nil || done {
			return err
		}
	}
}

func (e *Engine) step(ctx context.Context, turn *core.TurnContext, r *run) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "engine.step",
		tracing.StringAttr("agent", r.active),
		tracing.IntAttr("step", turn.Limiter.Count()),
	)
	defer span.End()

	proposer, err := e.graph.Agent(r.active)
	if err != nil {
		tracing.RecordError(span, err)
		return false, err
	}

	st, err := proposer.ProposeStep(ctx, r.ec.History)
	if err != nil {
		tracing.RecordError(span, err)
		return false, err
	}

	turn.LogDebug("engine.step", "turn_id", r.turnID, "agent", r.active, "step", turn.Limiter.Count(), "kind", fmt.Sprintf("%T", st))

	if text := st.Narration(); text != "" {
		r.lastText = text
		ev := core.NewMessageEvent(r.turnID, r.active, text)
		r.events = append(r.events, ev)
		e.observers.notify(ctx, HookOutput, ev)
	}

	switch s := st.(type) {
	case agent.FinalText:
		if s.Text != "" {
			r.ec.History = append(r.ec.History, core.NewTextContent(core.RoleAssistant, s.Text))
		}
		return true, nil
	case agent.ToolCalls:
		e.runTools(ctx, turn, r, proposer, s)
		return false, nil
	case agent.Handoff:
		e.handoff(ctx, turn, r, proposer, s)
		return false, nil
	default:
		return false, fmt.Errorf("engine: unsupported step %T", st)
	}
}

func (e *Engine) runTools(ctx context.Context, turn *core.TurnContext, r *run, proposer agent.Proposer, s agent.ToolCalls) {
	calls := make([]core.FunctionCall, len(s.Calls))
	copy(calls, s.Calls)

	assistant := core.Content{Role: core.RoleAssistant}
	if s.Text != "" {
		assistant.Parts = append(assistant.Parts, core.TextPart{Text: s.Text})
	}
	for i := range calls {
		if calls[i].ID == "" {
			calls[i].ID = core.NewID()
		}
		assistant.Parts = append(assistant.Parts, core.FunctionCallPart{FunctionCall: calls[i]})
	}
	r.ec.History = append(r.ec.History, assistant)

	results := core.Content{Role: core.RoleTool}

	var transfer *string

	for _, fc := range calls {
		respEv := e.execute(ctx, turn, r, proposer, fc)
		results.Parts = append(results.Parts, respEv.Content.Parts...)

		if transfer == nil && respEv.Actions.TransferToAgent != nil {
			transfer = respEv.Actions.TransferToAgent
		}
	}

	r.ec.History = append(r.ec.History, results)

	if transfer != nil {
		e.switchAgent(ctx, turn, r, *transfer, "")
	}
}

// execute runs one call through the confirmation gate and the tool with
// panic safety. It records call and result events.
func (e *Engine) execute(ctx context.Context, turn *core.TurnContext, r *run, proposer agent.Proposer, fc core.FunctionCall) core.Event {
	callEv := core.NewFunctionCallEvent(r.turnID, r.active, fc)
	r.events = append(r.events, callEv)
	e.observers.notify(ctx, HookToolCall, callEv)

	ctx, span := tracing.StartSpan(ctx, "engine.tool",
		tracing.StringAttr("agent", r.active),
		tracing.StringAttr("tool", fc.Name),
	)
	defer span.End()

	toolCtx := core.NewToolContext(turn.Scoped(ctx, r.active), fc.ID)

	start := time.Now()

	var (
		result any
		err    error
	)

	func() { // panic safety
		defer func() {
			if rec := recover(); rec != nil {
				err = panicError(rec)
				turn.LogError("engine.tool.panic", "agent", r.active, "tool", fc.Name, "recover", rec)
			}
		}()
		result, err = e.invoke(toolCtx, r, proposer, fc)
	}()

	dur := time.Since(start)
	logging.LogToolCall(turn.Logger(), r.active, fc.Name, dur, err)

	if err != nil {
		tracing.RecordError(span, err)
	}

	respEv := core.NewFunctionResponseEvent(r.turnID, r.active, fc.ID, fc.Name, result, err)
	toolCtx.InternalApplyActions(&respEv)

	r.events = append(r.events, respEv)
	e.observers.notify(ctx, HookToolResult, respEv)

	return respEv
}

func (e *Engine) invoke(toolCtx *core.ToolContext, r *run, proposer agent.Proposer, fc core.FunctionCall) (any, error) {
	impl, ok := proposer.Tool(fc.Name)
	if !ok {
		return nil, tool.NewToolError(fc.Name,
			fmt.Sprintf("tool %q is not available to agent %s", fc.Name, proposer.Name()), tool.CodeNotFound)
	}

	if e.opts.ConfirmSideEffects && tool.NeedsConfirmation(impl) {
		if !r.ec.Pending.Matches(fc.Name, fc.Arguments) || !r.ec.Pending.Granted {
			r.ec.Pending = &core.PendingConfirmation{
				Tool:        fc.Name,
				Agent:       r.active,
				ArgsDigest:  core.DigestArguments(fc.Arguments),
				RequestedAt: e.opts.Now().UTC(),
			}
			toolCtx.RequireConfirmation()
			toolCtx.LogInfo("engine.confirmation.required", "agent", r.active, "tool", fc.Name)

			return nil, confirmationRequired(fc.Name)
		}

		r.ec.Pending = nil
		toolCtx.LogInfo("engine.confirmation.consumed", "agent", r.active, "tool", fc.Name)
	}

	var args map[string]any
	if strings.TrimSpace(fc.Arguments) == "" {
		args = map[string]any{}
	} else if err := json.Unmarshal([]byte(fc.Arguments), &args); err != nil {
		return nil, tool.NewToolError(fc.Name, fmt.Sprintf("failed to unmarshal args: %v", err), tool.CodeValidation)
	}

	if args == nil {
		args = map[string]any{}
	}

	return impl.Call(toolCtx, args)
}

func (e *Engine) handoff(ctx context.Context, turn *core.TurnContext, r *run, proposer agent.Proposer, s agent.Handoff) {
	callID := s.CallID
	if callID == "" {
		callID = core.NewID()
	}

	argsJSON, _ := json.Marshal(map[string]string{"to_agent": s.Target, "reason": s.Reason})
	call := core.FunctionCall{ID: callID, Name: tool.HandoffToolName, Arguments: string(argsJSON)}

	assistant := core.Content{Role: core.RoleAssistant}
	if s.Text != "" {
		assistant.Parts = append(assistant.Parts, core.TextPart{Text: s.Text})
	}
	assistant.Parts = append(assistant.Parts, core.FunctionCallPart{FunctionCall: call})
	r.ec.History = append(r.ec.History, assistant)

	var resp core.FunctionResponse
	if e.graph.CanHandoff(r.active, s.Target) {
		resp = core.FunctionResponse{ID: callID, Name: tool.HandoffToolName, Response: fmt.Sprintf("Transferred to %s.", s.Target)}
	} else {
		resp = core.FunctionResponse{ID: callID, Name: tool.HandoffToolName, Response: rejection(s.Target, proposer.Handoffs())}
	}

	r.ec.History = append(r.ec.History, core.Content{
		Role:  core.RoleTool,
		Parts: []core.Part{core.FunctionResponsePart{FunctionResponse: resp}},
	})

	e.switchAgent(ctx, turn, r, s.Target, s.Reason)
}

// switchAgent validates and applies a transfer of control. Rejections are
// recorded as error events; the active agent stays in charge.
func (e *Engine) switchAgent(ctx context.Context, turn *core.TurnContext, r *run, target, reason string) {
	from := r.active

	if !e.graph.CanHandoff(from, target) {
		err := fmt.Errorf("%w: %s -> %q", ErrHandoffRejected, from, target)
		turn.LogWarn("engine.handoff.rejected", "turn_id", r.turnID, "from_agent", from, "to_agent", target)
		r.events = append(r.events, core.NewErrorEvent(r.turnID, from, err))
		return
	}

	turn.LogInfo("engine.handoff", "turn_id", r.turnID, "from_agent", from, "to_agent", target, "reason", reason)

	r.events = append(r.events, core.NewHandoffEvent(r.turnID, from, target, reason))

	r.active = target
	r.ec.ActiveAgent = target

	changeEv := core.NewAgentChangeEvent(r.turnID, target)
	r.events = append(r.events, changeEv)
	e.observers.notify(ctx, HookAgentChange, changeEv)
}

func rejection(target string, allowed []string) string {
	options := "none"
	if len(allowed) > 0 {
		options = strings.Join(allowed, ", ")
	}

	return fmt.Sprintf("Handoff rejected: agent %q is not a permitted target; choose one of: %s", target, options)
}

// selectResponse strips a conventional speaker prefix and falls back to the
// apology when nothing was said.
func selectResponse(text string) string {
	text = strings.TrimSpace(text)

	const prefix = "assistant:"
	if len(text) >= len(prefix) && strings.EqualFold(text[:len(prefix)], prefix) {
		text = strings.TrimSpace(text[len(prefix):])
	}

	if text == "" {
		return FallbackResponse
	}

	return text
}

type sessionLogger struct {
	logging.Logger
	sessionID string
}

func (l *sessionLogger) Debug(msg string, args ...any) {
	l.Logger.Debug(msg, append(args, "session_id", l.sessionID)...)
}

func (l *sessionLogger) Info(msg string, args ...any) {
	l.Logger.Info(msg, append(args, "session_id", l.sessionID)...)
}

func (l *sessionLogger) Warn(msg string, args ...any) {
	l.Logger.Warn(msg, append(args, "session_id", l.sessionID)...)
}

func (l *sessionLogger) Error(msg string, args ...any) {
	l.Logger.Error(msg, append(args, "session_id", l.sessionID)...)
}

// panicError converts a recovered panic value to an error that carries the stack.
func panicError(r any) error { return &panicErr{val: r, stack: debug.Stack()} }

type panicErr struct {
	val   any
	stack []byte
}

func (p *panicErr) Error() string { return fmt.Sprintf("panic recovered: %v", p.val) }
