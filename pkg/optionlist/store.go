package optionlist

import (
	"sort"
	"sync"
	"time"
)

// Status tracks one entry's fetch lifecycle.
type Status string

const (
	StatusLoading Status = "loading"
	StatusError   Status = "error"
	StatusDone    Status = "done"
)

// Item is one row of a fetched option list.
type Item struct {
	Value       string `json:"value"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
	HelpText    string `json:"helpText,omitempty"`
}

// Meta is the fetch configuration that rides along with a key: whether the
// list requires the user's credentials and any static query parameters the
// component declared.
type Meta struct {
	Secure      bool
	QueryParams map[string]string
}

// Entry is the stored state for one lookup key. Entries are created on first
// resolution, replaced whole on fetch start/success/failure, and never
// destroyed until the session resets.
type Entry struct {
	Key       Key
	ListID    string
	Mapping   map[string]string
	Meta      Meta
	Status    Status
	Items     []Item
	Err       error
	FetchedAt time.Time
}

// Store owns all option-list entries plus the template-key index used by the
// reactor. All writes replace whole entries; reads return copies, so readers
// always observe the last consistent snapshot.
type Store struct {
	mu        sync.RWMutex
	entries   map[Key]Entry
	templates map[Key]Meta
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{
		entries:   make(map[Key]Entry),
		templates: make(map[Key]Meta),
	}
}

// MarkLoading records that a fetch for the key has been dispatched, creating
// the entry when it does not exist yet. Prior items survive so the UI can
// keep showing the stale list while a refetch is in flight.
func (s *Store) MarkLoading(key Key, meta Meta) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.entries[key]
	entry.Key = key
	entry.ListID = key.ListID()
	entry.Mapping = key.Mapping()
	entry.Meta = meta
	entry.Status = StatusLoading
	entry.Err = nil
	s.entries[key] = entry
}

// SetItems records a successful fetch. Last completed write wins.
func (s *Store) SetItems(key Key, items []Item) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.entries[key]
	entry.Key = key
	entry.ListID = key.ListID()
	entry.Mapping = key.Mapping()
	entry.Status = StatusDone
	entry.Items = items
	entry.Err = nil
	entry.FetchedAt = time.Now()
	s.entries[key] = entry
}

// SetError records a failed fetch for the key. Sibling entries are untouched.
func (s *Store) SetError(key Key, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.entries[key]
	entry.Key = key
	entry.ListID = key.ListID()
	entry.Mapping = key.Mapping()
	entry.Status = StatusError
	entry.Err = err
	entry.FetchedAt = time.Now()
	s.entries[key] = entry
}

// Get returns a copy of the entry for the key.
func (s *Store) Get(key Key) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[key]
	if !ok {
		return Entry{}, false
	}
	return copyEntry(entry), true
}

// Keys lists every known concrete entry key in stable order.
func (s *Store) Keys() []Key {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]Key, 0, len(s.entries))
	for key := range s.entries {
		keys = append(keys, key)
	}
	sortKeys(keys)
	return keys
}

// RecordTemplate indexes a template key for the reactor. Recording happens
// before any fetch is spawned so the dependency index is complete even while
// fetches are still in flight.
func (s *Store) RecordTemplate(key Key, meta Meta) {
	if key.Zero() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[key] = meta
}

// TemplateMeta returns the fetch configuration recorded for a template key.
func (s *Store) TemplateMeta(key Key) (Meta, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	meta, ok := s.templates[key]
	return meta, ok
}

// Templates lists every recorded template key in stable order.
func (s *Store) Templates() []Key {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]Key, 0, len(s.templates))
	for key := range s.templates {
		keys = append(keys, key)
	}
	sortKeys(keys)
	return keys
}

// Snapshot returns a copy of every entry, keyed by lookup key.
func (s *Store) Snapshot() map[Key]Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[Key]Entry, len(s.entries))
	for key, entry := range s.entries {
		out[key] = copyEntry(entry)
	}
	return out
}

// Reset drops all entries and template keys, as on layout/session reset.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[Key]Entry)
	s.templates = make(map[Key]Meta)
}

func copyEntry(entry Entry) Entry {
	out := entry
	if len(entry.Items) > 0 {
		out.Items = make([]Item, len(entry.Items))
		copy(out.Items, entry.Items)
	}
	if len(entry.Mapping) > 0 {
		out.Mapping = cloneMapping(entry.Mapping)
	}
	if len(entry.Meta.QueryParams) > 0 {
		out.Meta.QueryParams = cloneMapping(entry.Meta.QueryParams)
	}
	return out
}

func sortKeys(keys []Key) {
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})
}
