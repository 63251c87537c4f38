package core

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"sync"
)

// Well known namespaces of the shared session state.
const (
	NamespaceBriefings = "intel_briefing"
	NamespaceDrafts    = "blog_posts"
	NamespaceScripts   = "scripts"

	// DefaultKey is used by tools called without an explicit artifact key.
	DefaultKey = "latest"
)

// Draft is a prepared blog post awaiting review and confirmation.
type Draft struct {
	Title   string `json:"title"`
	Content string `json:"content"` // HTML
}

// BriefingStore is the narrow accessor over research briefings.
type BriefingStore interface {
	Briefing(key string) (string, bool)
	SetBriefing(key, text string)
	BriefingKeys() []string
}

// DraftStore is the narrow accessor over prepared blog posts.
type DraftStore interface {
	Draft(key string) (Draft, bool)
	SetDraft(key string, d Draft)
	LatestDraft() (string, Draft, bool)
}

// ScriptStore is the narrow accessor over generated video scripts.
type ScriptStore interface {
	Script(key string) (string, bool)
	SetScript(key, text string)
	LatestScript() (string, string, bool)
}

// State is the shared session state visible to every tool of a turn. It is a
// registry of typed sub-stores plus an untyped value map for anything else.
// Writes are last-write-wins. The mutex only protects snapshotting for
// background persistence; tool access within a turn is sequential.
type State struct {
	mu         sync.RWMutex
	briefings  map[string]string
	drafts     map[string]Draft
	scripts    map[string]string
	values     map[string]any
	lastDraft  string
	lastScript string
}

var (
	_ BriefingStore = (*State)(nil)
	_ DraftStore    = (*State)(nil)
	_ ScriptStore   = (*State)(nil)
)

// NewState returns an empty state.
func NewState() *State {
	s := &State{}
	s.init()
	return s
}

func (s *State) init() {
	if s.briefings == nil {
		s.briefings = map[string]string{}
	}
	if s.drafts == nil {
		s.drafts = map[string]Draft{}
	}
	if s.scripts == nil {
		s.scripts = map[string]string{}
	}
	if s.values == nil {
		s.values = map[string]any{}
	}
}

// Briefing returns the briefing stored under key.
func (s *State) Briefing(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.briefings[key]
	return v, ok
}

// SetBriefing stores or overwrites the briefing under key.
func (s *State) SetBriefing(key, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.init()
	s.briefings[key] = text
}

// BriefingKeys returns the sorted briefing keys.
func (s *State) BriefingKeys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.briefings))
}

// Draft returns the draft stored under key.
func (s *State) Draft(key string) (Draft, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.drafts[key]
	return d, ok
}

// SetDraft stores or overwrites the draft under key and marks it latest.
func (s *State) SetDraft(key string, d Draft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.init()
	s.drafts[key] = d
	s.lastDraft = key
}

// LatestDraft returns the most recently prepared draft.
func (s *State) LatestDraft() (string, Draft, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastDraft == "" {
		return "", Draft{}, false
	}
	d, ok := s.drafts[s.lastDraft]
	return s.lastDraft, d, ok
}

// Script returns the script stored under key.
func (s *State) Script(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.scripts[key]
	return v, ok
}

// SetScript stores or overwrites the script under key and marks it latest.
func (s *State) SetScript(key, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.init()
	s.scripts[key] = text
	s.lastScript = key
}

// LatestScript returns the most recently generated script.
func (s *State) LatestScript() (string, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastScript == "" {
		return "", "", false
	}
	v, ok := s.scripts[s.lastScript]
	return s.lastScript, v, ok
}

// Get returns the value under key. Namespace keys return copies of the
// corresponding sub-store.
func (s *State) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch key {
	case NamespaceBriefings:
		return maps.Clone(s.briefings), len(s.briefings) > 0
	case NamespaceDrafts:
		return maps.Clone(s.drafts), len(s.drafts) > 0
	case NamespaceScripts:
		return maps.Clone(s.scripts), len(s.scripts) > 0
	}

	v, ok := s.values[key]
	return v, ok
}

// Set stores value under key. Namespace keys replace the whole sub-store and
// require the matching map type.
func (s *State) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.init()

	switch key {
	case NamespaceBriefings, NamespaceScripts:
		m, ok := value.(map[string]string)
		if !ok {
			return fmt.Errorf("state key %q requires map[string]string, got %T", key, value)
		}
		if key == NamespaceBriefings {
			s.briefings = maps.Clone(m)
		} else {
			s.scripts = maps.Clone(m)
		}
	case NamespaceDrafts:
		m, ok := value.(map[string]Draft)
		if !ok {
			return fmt.Errorf("state key %q requires map[string]core.Draft, got %T", key, value)
		}
		s.drafts = maps.Clone(m)
	default:
		s.values[key] = value
	}

	return nil
}

// StateSnapshot is the serializable form of State.
type StateSnapshot struct {
	Briefings     map[string]string `json:"intel_briefing,omitempty"`
	Drafts        map[string]Draft  `json:"blog_posts,omitempty"`
	Scripts       map[string]string `json:"scripts,omitempty"`
	Values        map[string]any    `json:"values,omitempty"`
	LastDraftKey  string            `json:"last_draft_key,omitempty"`
	LastScriptKey string            `json:"last_script_key,omitempty"`
}

// Snapshot returns a copy of the state decoupled from later mutation.
func (s *State) Snapshot() StateSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return StateSnapshot{
		Briefings:     maps.Clone(s.briefings),
		Drafts:        maps.Clone(s.drafts),
		Scripts:       maps.Clone(s.scripts),
		Values:        maps.Clone(s.values),
		LastDraftKey:  s.lastDraft,
		LastScriptKey: s.lastScript,
	}
}

// RestoreState builds a State from a snapshot.
func RestoreState(snap StateSnapshot) *State {
	s := &State{
		briefings:  maps.Clone(snap.Briefings),
		drafts:     maps.Clone(snap.Drafts),
		scripts:    maps.Clone(snap.Scripts),
		values:     maps.Clone(snap.Values),
		lastDraft:  snap.LastDraftKey,
		lastScript: snap.LastScriptKey,
	}
	s.init()
	return s
}

// Clone returns an independent copy of the state.
func (s *State) Clone() *State { return RestoreState(s.Snapshot()) }

// MarshalJSON implements json.Marshaler.
func (s *State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Snapshot())
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *State) UnmarshalJSON(data []byte) error {
	var snap StateSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return err
	}

	restored := RestoreState(snap)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.briefings = restored.briefings
	s.drafts = restored.drafts
	s.scripts = restored.scripts
	s.values = restored.values
	s.lastDraft = restored.lastDraft
	s.lastScript = restored.lastScript

	return nil
}
