package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/campaignmesh/core"
	"github.com/hupe1980/campaignmesh/logging"
)

// Options configures a Manager.
type Options struct {
	// RootAgent is activated in fresh contexts.
	RootAgent    string
	Titler       Titler
	QueueSize    int
	TitleTimeout time.Duration
	Logger       logging.Logger
}

// Manager implements the session lifecycle on top of a Store.
type Manager struct {
	store     Store
	index     *Index
	persister *Persister
	root      string
	logger    logging.Logger
}

// NewManager loads the index from store and starts the background persister.
func NewManager(ctx context.Context, store Store, optFns ...func(o *Options)) (*Manager, error) {
	if store == nil {
		return nil, errors.New("session: store is required")
	}

	opts := Options{QueueSize: 64, TitleTimeout: 30 * time.Second}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.RootAgent == "" {
		return nil, errors.New("session: root agent is required")
	}

	titles, err := store.LoadIndex(ctx)
	if err != nil {
		return nil, fmt.Errorf("session: load index: %w", err)
	}

	logger := logging.OrNoOp(opts.Logger)
	index := NewIndex(titles)

	return &Manager{
		store: store,
		index: index,
		persister: NewPersister(store, index, opts.Titler, func(o *PersisterOptions) {
			o.QueueSize = opts.QueueSize
			o.TitleTimeout = opts.TitleTimeout
			o.Logger = logger
		}),
		root:   opts.RootAgent,
		logger: logger,
	}, nil
}

// RootAgent returns the agent fresh contexts start at.
func (m *Manager) RootAgent() string { return m.root }

// CreateOrResume returns a fresh record for an empty id, otherwise loads the
// stored session.
func (m *Manager) CreateOrResume(ctx context.Context, id string) (Record, error) {
	if id == "" {
		return Record{
			ID:         NewID(),
			Context:    core.NewExecutionContext(m.root),
			Transcript: []string{},
		}, nil
	}

	return m.Load(ctx, id)
}

// Persist registers the session and hands a snapshot to the background
// writer. It never blocks on storage; failures are logged.
func (m *Manager) Persist(rec Record) error {
	if err := ValidateID(rec.ID); err != nil {
		m.logger.Error("session.persist.rejected", "session_id", rec.ID, "error", err)
		return err
	}

	if m.index.Add(rec.ID) {
		m.logger.Info("session.created", "session_id", rec.ID)
	}

	if err := m.persister.Enqueue(rec.Clone()); err != nil {
		m.logger.Error("session.persist.enqueue", "session_id", rec.ID, "error", err)
		return err
	}

	return nil
}

// Load returns the stored session. Unknown ids fail with ErrNotFound. Writes
// still queued for the session are flushed first.
func (m *Manager) Load(ctx context.Context, id string) (Record, error) {
	if !m.index.Has(id) {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if err := m.persister.Flush(ctx); err != nil && !errors.Is(err, ErrClosed) {
		m.logger.Warn("session.flush.error", "session_id", id, "error", err)
	}

	rec, err := m.store.LoadRecord(ctx, id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return Record{}, fmt.Errorf("session: load %s: %w", id, err)
	}

	if rec.Context == nil {
		rec.Context = core.NewExecutionContext(m.root)
	}

	if rec.Transcript == nil {
		rec.Transcript = []string{}
	}

	m.logger.Info("session.loaded", "session_id", id, "messages", len(rec.Transcript))

	return rec, nil
}

// List returns a copy of the id→title index.
func (m *Manager) List() Titles { return m.index.Snapshot() }

// Title returns the title of id, if one was generated.
func (m *Manager) Title(id string) *string {
	t, _ := m.index.Title(id)
	return t
}

// Reset saves rec best-effort. Records without id or context are ignored so
// resetting twice is harmless.
func (m *Manager) Reset(rec Record) {
	if rec.ID == "" || rec.Context == nil {
		m.logger.Debug("session.reset.noop")
		return
	}

	if err := m.Persist(rec); err != nil {
		m.logger.Warn("session.reset.persist", "session_id", rec.ID, "error", err)
	}
}

// Flush waits for queued writes and title generation.
func (m *Manager) Flush(ctx context.Context) error { return m.persister.Flush(ctx) }

// Close drains the persister.
func (m *Manager) Close(ctx context.Context) error { return m.persister.Close(ctx) }
