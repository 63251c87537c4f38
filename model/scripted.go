package model

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/hupe1980/campaignmesh/core"
)

// ErrScriptExhausted is returned once a ScriptedModel has replayed every
// queued response.
var ErrScriptExhausted = errors.New("scripted model: no responses left")

// Responder computes a reply from the request. Used by ScriptedModel when
// the queue is empty.
type Responder func(req Request) (Response, error)

type scriptedReply struct {
	resp Response
	err  error
}

// ScriptedModel replays queued responses in order and records every request.
// It drives agents deterministically in tests and in the offline "scripted"
// provider mode.
type ScriptedModel struct {
	mu        sync.Mutex
	info      Info
	queue     []scriptedReply
	responder Responder
	requests  []Request
}

// NewScriptedModel constructs a ScriptedModel with the given initial replies.
func NewScriptedModel(name string, replies ...Response) *ScriptedModel {
	m := &ScriptedModel{info: Info{Name: name, Provider: "scripted", SupportsTools: true}}
	m.Push(replies...)
	return m
}

// NewResponderModel constructs a ScriptedModel answering every request with fn.
func NewResponderModel(name string, fn Responder) *ScriptedModel {
	m := NewScriptedModel(name)
	m.responder = fn
	return m
}

// Push queues replies.
func (m *ScriptedModel) Push(replies ...Response) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range replies {
		m.queue = append(m.queue, scriptedReply{resp: r})
	}
}

// PushError queues a failing reply.
func (m *ScriptedModel) PushError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.queue = append(m.queue, scriptedReply{err: err})
}

// Requests returns a copy of the recorded requests.
func (m *ScriptedModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()

	return slices.Clone(m.requests)
}

// Calls returns how many times Generate was invoked.
func (m *ScriptedModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.requests)
}

// Remaining returns the number of queued replies.
func (m *ScriptedModel) Remaining() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.queue)
}

func (m *ScriptedModel) next(req Request) (Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)

	if len(m.queue) > 0 {
		r := m.queue[0]
		m.queue = m.queue[1:]
		return r.resp, r.err
	}

	if m.responder != nil {
		return m.responder(req)
	}

	return Response{}, fmt.Errorf("%w (call %d)", ErrScriptExhausted, len(m.requests))
}

// Generate implements Model.
func (m *ScriptedModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 1)
	errCh := make(chan error, 1)

	go func() {
		defer close(respCh)
		defer close(errCh)

		if err := ctx.Err(); err != nil {
			errCh <- err
			return
		}

		resp, err := m.next(req)
		if err != nil {
			errCh <- err
			return
		}

		if resp.Content.Role == "" {
			resp.Content.Role = core.RoleAssistant
		}
		if resp.FinishReason == "" {
			resp.FinishReason = "stop"
		}

		respCh <- resp
	}()

	return respCh, errCh
}

// Info implements Model.
func (m *ScriptedModel) Info() Info { return m.info }

// TextResponse builds a final text reply.
func TextResponse(text string) Response {
	return Response{Content: core.NewTextContent(core.RoleAssistant, text), FinishReason: "stop"}
}

// CallResponse builds a reply requesting the given function calls. Empty
// call IDs are filled in.
func CallResponse(text string, calls ...core.FunctionCall) Response {
	parts := make([]core.Part, 0, len(calls)+1)
	if text != "" {
		parts = append(parts, core.TextPart{Text: text})
	}

	for _, c := range calls {
		if c.ID == "" {
			c.ID = core.NewID()
		}
		parts = append(parts, core.FunctionCallPart{FunctionCall: c})
	}

	return Response{
		Content:      core.Content{Role: core.RoleAssistant, Parts: parts},
		FinishReason: "tool_calls",
	}
}
