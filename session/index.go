package session

import "sync"

// Index is the in-memory id→title map. It decides whether a session exists.
type Index struct {
	mu     sync.RWMutex
	titles Titles
}

// NewIndex creates an index seeded with a copy of titles.
func NewIndex(titles Titles) *Index {
	if titles == nil {
		titles = Titles{}
	}
	return &Index{titles: titles.Clone()}
}

// Has reports whether id is a known session.
func (i *Index) Has(id string) bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	_, ok := i.titles[id]
	return ok
}

// Title returns the title of id; the pointer is nil while no title exists.
func (i *Index) Title(id string) (*string, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	t, ok := i.titles[id]
	if !ok || t == nil {
		return nil, ok
	}

	v := *t
	return &v, true
}

// Add registers id without a title. It reports whether the id was new.
func (i *Index) Add(id string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()

	if _, ok := i.titles[id]; ok {
		return false
	}

	i.titles[id] = nil
	return true
}

// SetTitle assigns a title, registering id if needed.
func (i *Index) SetTitle(id, title string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.titles[id] = &title
}

// Snapshot returns a deep copy.
func (i *Index) Snapshot() Titles {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.titles.Clone()
}

// Len returns the number of sessions.
func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.titles)
}
