package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/hupe1980/campaignmesh/engine"
	"github.com/hupe1980/campaignmesh/logging"
	"github.com/hupe1980/campaignmesh/session"
)

// ResetMessage is returned by Reset.
const ResetMessage = "Workflow reset successfully."

// Builder constructs a fresh engine together with its agent graph.
type Builder func() (*engine.Engine, error)

// Options holds configuration overrides passed to New.
type Options struct {
	// MaxConcurrentTurns limits turns processed at the same time. The active
	// conversation owns its state exclusively, so values above one only make
	// sense for read-only callers.
	MaxConcurrentTurns int64
	Logger             logging.Logger
}

// Runner is the workflow service behind the HTTP surface and the CLI. It
// holds exactly one active conversation, runs turns against it and hands
// every updated snapshot to the session manager. Public methods are safe for
// concurrent use; turns are serialized.
type Runner struct {
	build    Builder
	sessions *session.Manager
	turns    *semaphore.Weighted
	logger   logging.Logger

	mu      sync.RWMutex
	engine  *engine.Engine
	current session.Record
}

// New builds the first engine and starts a fresh conversation.
func New(ctx context.Context, sessions *session.Manager, build Builder, optFns ...func(o *Options)) (*Runner, error) {
	if sessions == nil {
		return nil, errors.New("runner: session manager is required")
	}

	if build == nil {
		return nil, errors.New("runner: builder is required")
	}

	opts := Options{MaxConcurrentTurns: 1}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.MaxConcurrentTurns < 1 {
		opts.MaxConcurrentTurns = 1
	}

	e, err := build()
	if err != nil {
		return nil, fmt.Errorf("runner: build engine: %w", err)
	}

	rec, err := sessions.CreateOrResume(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("runner: create session: %w", err)
	}

	return &Runner{
		build:    build,
		sessions: sessions,
		turns:    semaphore.NewWeighted(opts.MaxConcurrentTurns),
		logger:   logging.OrNoOp(opts.Logger),
		engine:   e,
		current:  rec,
	}, nil
}

// SessionID returns the id of the active conversation.
func (r *Runner) SessionID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.current.ID
}

// Transcript returns a copy of the active conversation's transcript.
func (r *Runner) Transcript() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]string{}, r.current.Transcript...)
}

// Chat runs one user turn. Engine failures never surface as errors: the
// user gets an apology text instead. An error is only returned when ctx ends
// before the turn could start.
func (r *Runner) Chat(ctx context.Context, message string) (string, error) {
	if err := r.turns.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("runner: wait for turn: %w", err)
	}
	defer r.turns.Release(1)

	r.mu.RLock()
	e, rec := r.engine, r.current
	r.mu.RUnlock()

	res, err := e.RunTurn(engine.WithSessionID(ctx, rec.ID), rec.Context, message)

	response := res.Response
	if err != nil {
		r.logger.Error("runner.turn.failed", "session_id", rec.ID, "error", err)
		response = fmt.Sprintf("I encountered an error while processing your request: %v", err)
	}

	r.mu.Lock()
	// A reset or load during the turn replaced the conversation.
	if r.current.ID != rec.ID {
		r.mu.Unlock()
		r.logger.Warn("runner.turn.stale", "session_id", rec.ID)
		return response, nil
	}

	if err == nil {
		r.current.Context = res.Context
	}
	r.current.Transcript = append(r.current.Transcript, message, response)
	snapshot := r.current.Clone()
	r.mu.Unlock()

	if perr := r.sessions.Persist(snapshot); perr != nil {
		r.logger.Error("session.persist.failed", "session_id", snapshot.ID, "error", perr)
	}

	return response, nil
}

// Reset saves the active conversation, rebuilds the agents and starts a
// fresh conversation.
func (r *Runner) Reset(ctx context.Context) (string, error) {
	if err := r.turns.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("runner: wait for turn: %w", err)
	}
	defer r.turns.Release(1)

	e, err := r.build()
	if err != nil {
		return "", fmt.Errorf("runner: rebuild engine: %w", err)
	}

	rec, err := r.sessions.CreateOrResume(ctx, "")
	if err != nil {
		return "", fmt.Errorf("runner: create session: %w", err)
	}

	r.mu.Lock()
	previous := r.current
	r.engine = e
	r.current = rec
	r.mu.Unlock()

	if len(previous.Transcript) > 0 {
		r.sessions.Reset(previous)
	}

	r.logger.Info("runner.reset", "previous_session_id", previous.ID, "session_id", rec.ID)

	return ResetMessage, nil
}

// Load makes a stored conversation the active one and returns its
// transcript. Unknown ids fail with session.ErrNotFound.
func (r *Runner) Load(ctx context.Context, id string) ([]string, error) {
	if err := session.ValidateID(id); err != nil {
		return nil, fmt.Errorf("%w: %s", session.ErrNotFound, id)
	}

	if err := r.turns.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("runner: wait for turn: %w", err)
	}
	defer r.turns.Release(1)

	rec, err := r.sessions.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.current = rec
	r.mu.Unlock()

	return append([]string{}, rec.Transcript...), nil
}

// Contexts returns the id→title index.
func (r *Runner) Contexts() session.Titles { return r.sessions.List() }

// ContextsJSON renders the index as a JSON object string, "{}" when empty.
func (r *Runner) ContextsJSON() (string, error) {
	titles := r.sessions.List()
	if len(titles) == 0 {
		return "{}", nil
	}

	b, err := json.Marshal(titles)
	if err != nil {
		return "", fmt.Errorf("runner: encode contexts: %w", err)
	}

	return string(b), nil
}

// Close flushes pending writes.
func (r *Runner) Close(ctx context.Context) error { return r.sessions.Close(ctx) }
