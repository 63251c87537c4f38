package engine

import (
	"context"

	"github.com/hupe1980/campaignmesh/core"
	"github.com/hupe1980/campaignmesh/logging"
)

// Hook identifies the lifecycle point an Observer is notified at.
type Hook string

const (
	// HookAgentChange fires when control moves to another agent.
	HookAgentChange Hook = "agent_change"
	// HookToolCall fires before a tool runs.
	HookToolCall Hook = "tool_call"
	// HookToolResult fires after a tool returned or failed.
	HookToolResult Hook = "tool_result"
	// HookOutput fires for every non-empty agent text.
	HookOutput Hook = "output"
)

// Observer receives turn events. Observers are informational only: they
// cannot alter control flow, and a panicking observer is logged and ignored.
type Observer interface {
	Hook() Hook
	Observe(ctx context.Context, ev core.Event)
}

// FuncObserver adapts a function to the Observer interface.
type FuncObserver struct {
	hook Hook
	fn   func(ctx context.Context, ev core.Event)
}

// NewFuncObserver creates an observer for hook backed by fn.
func NewFuncObserver(hook Hook, fn func(ctx context.Context, ev core.Event)) *FuncObserver {
	return &FuncObserver{hook: hook, fn: fn}
}

// Hook implements Observer.
func (o *FuncObserver) Hook() Hook { return o.hook }

// Observe implements Observer.
func (o *FuncObserver) Observe(ctx context.Context, ev core.Event) { o.fn(ctx, ev) }

// OnAgentChange returns an observer called with the name of the new agent.
func OnAgentChange(fn func(ctx context.Context, agent string)) Observer {
	return NewFuncObserver(HookAgentChange, func(ctx context.Context, ev core.Event) { fn(ctx, ev.Author) })
}

// OnToolCall returns an observer called before each tool invocation.
func OnToolCall(fn func(ctx context.Context, agent string, call core.FunctionCall)) Observer {
	return NewFuncObserver(HookToolCall, func(ctx context.Context, ev core.Event) {
		for _, fc := range ev.GetFunctionCalls() {
			fn(ctx, ev.Author, fc)
		}
	})
}

// OnToolResult returns an observer called after each tool invocation.
func OnToolResult(fn func(ctx context.Context, agent string, resp core.FunctionResponse)) Observer {
	return NewFuncObserver(HookToolResult, func(ctx context.Context, ev core.Event) {
		for _, fr := range ev.GetFunctionResponses() {
			fn(ctx, ev.Author, fr)
		}
	})
}

// OnOutput returns an observer called with every non-empty agent text.
func OnOutput(fn func(ctx context.Context, agent, text string)) Observer {
	return NewFuncObserver(HookOutput, func(ctx context.Context, ev core.Event) { fn(ctx, ev.Author, ev.Text()) })
}

// LoggingObservers returns observers that trace every hook to logger at debug level.
func LoggingObservers(logger logging.Logger) []Observer {
	logger = logging.OrNoOp(logger)

	hooks := []Hook{HookAgentChange, HookToolCall, HookToolResult, HookOutput}
	out := make([]Observer, 0, len(hooks))

	for _, h := range hooks {
		out = append(out, NewFuncObserver(h, func(_ context.Context, ev core.Event) {
			logger.Debug("engine.observe", "hook", string(h), "agent", ev.Author, "turn_id", ev.TurnID, "event_id", ev.ID)
		}))
	}

	return out
}

type observerSet struct {
	observers map[Hook][]Observer
	logger    logging.Logger
}

func newObserverSet(logger logging.Logger, observers ...Observer) *observerSet {
	s := &observerSet{observers: make(map[Hook][]Observer), logger: logger}
	for _, o := range observers {
		if o == nil {
			continue
		}
		s.observers[o.Hook()] = append(s.observers[o.Hook()], o)
	}
	return s
}

func (s *observerSet) notify(ctx context.Context, hook Hook, ev core.Event) {
	for _, o := range s.observers[hook] {
		func() {
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("engine.observer.panic", "hook", string(hook), "recover", r)
				}
			}()
			o.Observe(ctx, ev)
		}()
	}
}
