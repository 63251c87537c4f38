package core

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"slices"
	"time"
)

// ExecutionContextVersion is bumped whenever the serialized layout changes.
const ExecutionContextVersion = 1

// PendingConfirmation tracks a side-effecting tool call that is waiting for
// the user's explicit approval. Granted is set by the next user message.
type PendingConfirmation struct {
	Tool        string    `json:"tool"`
	Agent       string    `json:"agent"`
	ArgsDigest  string    `json:"args_digest"`
	Granted     bool      `json:"granted"`
	RequestedAt time.Time `json:"requested_at"`
}

// Matches reports whether a call targets the same tool with the same arguments.
func (p *PendingConfirmation) Matches(tool, args string) bool {
	return p != nil && p.Tool == tool && p.ArgsDigest == DigestArguments(args)
}

// DigestArguments returns a stable digest of a JSON argument payload. Objects
// are re-encoded so key order and whitespace do not matter.
func DigestArguments(args string) string {
	canonical := []byte(args)

	var decoded any
	if err := json.Unmarshal([]byte(args), &decoded); err == nil {
		if b, err := json.Marshal(decoded); err == nil {
			canonical = b
		}
	}

	sum := sha256.Sum256(canonical)

	return hex.EncodeToString(sum[:])
}

// ExecutionContext is the serializable continuation of the orchestration
// engine: the active agent, the shared state, the conversation the agents see
// and the bookkeeping needed to resume a multi-turn workflow.
type ExecutionContext struct {
	Version     int                  `json:"version"`
	ActiveAgent string               `json:"active_agent"`
	State       *State               `json:"state"`
	History     []Content            `json:"history"`
	Turns       int                  `json:"turns"`
	Pending     *PendingConfirmation `json:"pending_confirmation,omitempty"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// NewExecutionContext creates a fresh context with empty state and rootAgent active.
func NewExecutionContext(rootAgent string) *ExecutionContext {
	return &ExecutionContext{
		Version:     ExecutionContextVersion,
		ActiveAgent: rootAgent,
		State:       NewState(),
		History:     []Content{},
		UpdatedAt:   time.Now().UTC(),
	}
}

// Clone returns a deep copy safe to hand to a background writer.
func (ec *ExecutionContext) Clone() *ExecutionContext {
	if ec == nil {
		return nil
	}

	out := *ec
	if ec.State != nil {
		out.State = ec.State.Clone()
	} else {
		out.State = NewState()
	}

	out.History = make([]Content, len(ec.History))
	for i, c := range ec.History {
		out.History[i] = Content{Role: c.Role, Parts: slices.Clone(c.Parts)}
	}

	if ec.Pending != nil {
		p := *ec.Pending
		out.Pending = &p
	}

	return &out
}

// Marshal serializes the context.
func (ec *ExecutionContext) Marshal() ([]byte, error) {
	return json.Marshal(ec)
}

// UnmarshalExecutionContext restores a context produced by Marshal.
func UnmarshalExecutionContext(data []byte) (*ExecutionContext, error) {
	var ec ExecutionContext
	if err := json.Unmarshal(data, &ec); err != nil {
		return nil, err
	}

	if ec.State == nil {
		ec.State = NewState()
	}

	if ec.History == nil {
		ec.History = []Content{}
	}

	return &ec, nil
}
