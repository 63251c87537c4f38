package session

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"regexp"
	"slices"

	"github.com/hupe1980/campaignmesh/core"
)

// ErrNotFound is returned when a session id is unknown. It wraps core.ErrNotFound.
var ErrNotFound = fmt.Errorf("session %w", core.ErrNotFound)

// ErrInvalidID is returned for ids that cannot be used as storage keys.
var ErrInvalidID = errors.New("invalid session id")

var idPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,127}$`)

// ValidateID checks that id is safe to use as a file or row key.
func ValidateID(id string) error {
	if !idPattern.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// NewID generates a fresh session id. Ids are never reused.
func NewID() string { return core.NewID() }

// Record is the durable copy of one session.
type Record struct {
	ID         string                 `json:"id"`
	Context    *core.ExecutionContext `json:"context"`
	Transcript []string               `json:"transcript"`
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	return Record{
		ID:         r.ID,
		Context:    r.Context.Clone(),
		Transcript: slices.Clone(r.Transcript),
	}
}

// Titles maps session ids to titles; a nil title means not generated yet.
type Titles map[string]*string

// Clone returns a deep copy.
func (t Titles) Clone() Titles {
	out := make(Titles, len(t))
	for id, title := range t {
		if title != nil {
			v := *title
			out[id] = &v
		} else {
			out[id] = nil
		}
	}
	return out
}

// IDs returns the ids in sorted order.
func (t Titles) IDs() []string {
	return slices.Sorted(maps.Keys(t))
}

// Store is the persistence contract for sessions.
type Store interface {
	// SaveRecord writes (or overwrites) the record of a session.
	SaveRecord(ctx context.Context, rec Record) error
	// LoadRecord returns ErrNotFound when no record exists.
	LoadRecord(ctx context.Context, id string) (Record, error)
	// LoadIndex returns the full index; an absent index is empty.
	LoadIndex(ctx context.Context) (Titles, error)
	// SaveIndex replaces the index.
	SaveIndex(ctx context.Context, titles Titles) error
}
