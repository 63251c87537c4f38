package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/hupe1980/campaignmesh/logging"
)

var (
	// ErrQueueFull is returned when the persistence queue has no free slot.
	ErrQueueFull = errors.New("persistence queue full")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("persister closed")
)

// Titler derives a title from a transcript. A nil result means no title
// could be determined; the session stays untitled until a later persist.
type Titler interface {
	Generate(ctx context.Context, transcript []string) *string
}

// TitlerFunc adapts a function to Titler.
type TitlerFunc func(ctx context.Context, transcript []string) *string

// Generate implements Titler.
func (f TitlerFunc) Generate(ctx context.Context, transcript []string) *string { return f(ctx, transcript) }

// PersisterOptions configures a Persister.
type PersisterOptions struct {
	QueueSize    int
	TitleTimeout time.Duration
	Logger       logging.Logger
}

type job struct {
	rec     Record
	barrier chan struct{}
}

// Persister writes record snapshots from a single background goroutine.
// Failures are logged and never retried. Titles for untitled sessions are
// generated off the write path, deduplicated per session.
type Persister struct {
	store  Store
	index  *Index
	titler Titler
	opts   PersisterOptions
	logger logging.Logger

	queue chan job
	done  chan struct{}

	titles  singleflight.Group
	indexMu sync.Mutex

	titleMu      sync.Mutex
	titlePending int
	titleIdle    chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewPersister starts the worker. titler may be nil.
func NewPersister(store Store, index *Index, titler Titler, optFns ...func(o *PersisterOptions)) *Persister {
	opts := PersisterOptions{
		QueueSize:    64,
		TitleTimeout: 30 * time.Second,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.QueueSize <= 0 {
		opts.QueueSize = 1
	}

	p := &Persister{
		store:  store,
		index:  index,
		titler: titler,
		opts:   opts,
		logger: logging.OrNoOp(opts.Logger),
		queue:  make(chan job, opts.QueueSize),
		done:   make(chan struct{}),
	}

	go p.work()

	return p
}

// Enqueue schedules a write of rec without blocking.
func (p *Persister) Enqueue(rec Record) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrClosed
	}

	select {
	case p.queue <- job{rec: rec}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Flush waits until every record enqueued before the call is written and
// pending title generations have finished.
func (p *Persister) Flush(ctx context.Context) error {
	barrier := make(chan struct{})

	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return ErrClosed
	}

	select {
	case p.queue <- job{barrier: barrier}:
		p.mu.RUnlock()
	case <-ctx.Done():
		p.mu.RUnlock()
		return ctx.Err()
	}

	select {
	case <-barrier:
	case <-ctx.Done():
		return ctx.Err()
	}

	return p.waitTitles(ctx)
}

// Close stops accepting work and drains the queue.
func (p *Persister) Close(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()

	select {
	case <-p.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	return p.waitTitles(ctx)
}

func (p *Persister) waitTitles(ctx context.Context) error {
	p.titleMu.Lock()
	if p.titlePending == 0 {
		p.titleMu.Unlock()
		return nil
	}
	idle := p.titleIdle
	p.titleMu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Persister) work() {
	defer close(p.done)

	for j := range p.queue {
		if j.barrier != nil {
			close(j.barrier)
			continue
		}
		p.save(j.rec)
	}
}

func (p *Persister) save(rec Record) {
	ctx := context.Background()
	start := time.Now()

	if err := p.store.SaveRecord(ctx, rec); err != nil {
		p.logger.Error("session.persist.error", "session_id", rec.ID, "error", err)
		return
	}

	p.index.Add(rec.ID)

	if err := p.saveIndex(ctx); err != nil {
		p.logger.Error("session.index.error", "session_id", rec.ID, "error", err)
	}

	p.logger.Debug("session.persisted", "session_id", rec.ID, "duration_ms", time.Since(start).Milliseconds())

	if title, _ := p.index.Title(rec.ID); title == nil && p.titler != nil && len(rec.Transcript) > 0 {
		p.generateTitle(rec)
	}
}

func (p *Persister) saveIndex(ctx context.Context) error {
	p.indexMu.Lock()
	defer p.indexMu.Unlock()
	return p.store.SaveIndex(ctx, p.index.Snapshot())
}

func (p *Persister) generateTitle(rec Record) {
	p.titleMu.Lock()
	if p.titlePending == 0 {
		p.titleIdle = make(chan struct{})
	}
	p.titlePending++
	p.titleMu.Unlock()

	go func() {
		defer func() {
			p.titleMu.Lock()
			p.titlePending--
			if p.titlePending == 0 {
				close(p.titleIdle)
			}
			p.titleMu.Unlock()
		}()

		_, _, _ = p.titles.Do(rec.ID, func() (any, error) {
			if t, _ := p.index.Title(rec.ID); t != nil {
				return nil, nil
			}

			ctx, cancel := context.WithTimeout(context.Background(), p.opts.TitleTimeout)
			defer cancel()

			title := p.titler.Generate(ctx, rec.Transcript)
			if title == nil {
				p.logger.Debug("session.title.none", "session_id", rec.ID)
				return nil, nil
			}

			p.index.SetTitle(rec.ID, *title)
			p.logger.Info("session.title.set", "session_id", rec.ID, "title", *title)

			if err := p.saveIndex(ctx); err != nil {
				p.logger.Error("session.index.error", "session_id", rec.ID, "error", err)
			}

			return nil, nil
		})
	}()
}
