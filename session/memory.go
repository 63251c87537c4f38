package session

import (
	"context"
	"sync"
)

// MemoryStore is a volatile Store keeping records in a process local map.
// It is safe for concurrent access; values are cloned on the way in and out
// to prevent external mutation.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
	titles  Titles
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record), titles: Titles{}}
}

// SaveRecord implements Store.
func (s *MemoryStore) SaveRecord(_ context.Context, rec Record) error {
	if err := ValidateID(rec.ID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = rec.Clone()
	return nil
}

// LoadRecord implements Store.
func (s *MemoryStore) LoadRecord(_ context.Context, id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec.Clone(), nil
}

// LoadIndex implements Store.
func (s *MemoryStore) LoadIndex(context.Context) (Titles, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.titles.Clone(), nil
}

// SaveIndex implements Store.
func (s *MemoryStore) SaveIndex(_ context.Context, titles Titles) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.titles = titles.Clone()
	return nil
}
