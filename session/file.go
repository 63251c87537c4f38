package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/hupe1980/campaignmesh/core"
)

const (
	indexFile      = "index.json"
	contextFile    = "context.json"
	transcriptFile = "transcript.json"
)

// FileStore keeps sessions as JSON documents below a root directory:
//
//	<root>/index.json
//	<root>/<id>/context.json
//	<root>/<id>/transcript.json
//
// Every document is written to a temp file first and renamed into place.
type FileStore struct {
	root string
	mu   sync.RWMutex
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates the root directory if needed.
func NewFileStore(root string) (*FileStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	return &FileStore{root: root}, nil
}

// Root returns the directory the store writes to.
func (s *FileStore) Root() string { return s.root }

func (s *FileStore) sessionDir(id string) string { return filepath.Join(s.root, id) }

// SaveRecord implements Store.
func (s *FileStore) SaveRecord(_ context.Context, rec Record) error {
	if err := ValidateID(rec.ID); err != nil {
		return err
	}

	ec := rec.Context
	if ec == nil {
		ec = core.NewExecutionContext("")
	}

	ctxData, err := ec.Marshal()
	if err != nil {
		return fmt.Errorf("marshal context: %w", err)
	}

	transcript := rec.Transcript
	if transcript == nil {
		transcript = []string{}
	}

	trData, err := json.MarshalIndent(transcript, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.sessionDir(rec.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	if err := writeAtomic(filepath.Join(dir, contextFile), ctxData); err != nil {
		return err
	}

	return writeAtomic(filepath.Join(dir, transcriptFile), trData)
}

// LoadRecord implements Store.
func (s *FileStore) LoadRecord(_ context.Context, id string) (Record, error) {
	if err := ValidateID(id); err != nil {
		return Record{}, fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	dir := s.sessionDir(id)

	ctxData, err := os.ReadFile(filepath.Join(dir, contextFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("read context: %w", err)
	}

	ec, err := core.UnmarshalExecutionContext(ctxData)
	if err != nil {
		return Record{}, fmt.Errorf("unmarshal context: %w", err)
	}

	var transcript []string

	trData, err := os.ReadFile(filepath.Join(dir, transcriptFile))
	switch {
	case errors.Is(err, os.ErrNotExist):
		transcript = []string{}
	case err != nil:
		return Record{}, fmt.Errorf("read transcript: %w", err)
	default:
		if err := json.Unmarshal(trData, &transcript); err != nil {
			return Record{}, fmt.Errorf("unmarshal transcript: %w", err)
		}
	}

	return Record{ID: id, Context: ec, Transcript: transcript}, nil
}

// LoadIndex implements Store.
func (s *FileStore) LoadIndex(context.Context) (Titles, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(filepath.Join(s.root, indexFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Titles{}, nil
		}
		return nil, fmt.Errorf("read session index: %w", err)
	}

	titles := Titles{}
	if err := json.Unmarshal(data, &titles); err != nil {
		return nil, fmt.Errorf("unmarshal session index: %w", err)
	}

	return titles, nil
}

// SaveIndex implements Store.
func (s *FileStore) SaveIndex(_ context.Context, titles Titles) error {
	if titles == nil {
		titles = Titles{}
	}

	data, err := json.MarshalIndent(titles, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session index: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return writeAtomic(filepath.Join(s.root, indexFile), data)
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp %s: %w", filepath.Base(path), err)
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename temp %s: %w", filepath.Base(path), err)
	}

	return nil
}
