// Package formdata holds the current field values for one form data element
// and notifies subscribers when a field changes. The store is the sole writer
// of its map; readers receive copies, so no lock is shared with consumers.
package formdata

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/goliatone/go-formflow/pkg/fieldpath"
)

// Change describes one successful field update.
type Change struct {
	DataElementID string
	Path          string
	Old           any
	New           any
}

// Listener receives changes synchronously, in subscription order, on the
// goroutine that called Set.
type Listener func(Change)

// Store keeps field values keyed by concrete dotted path.
type Store struct {
	mu            sync.RWMutex
	dataElementID string
	values        map[string]any

	listenerMu sync.Mutex
	listeners  map[int]Listener
	nextToken  int
}

// New constructs a store for the given data element id. An empty id mints a
// fresh one via NewDataElementID.
func New(dataElementID string) *Store {
	if strings.TrimSpace(dataElementID) == "" {
		dataElementID = NewDataElementID()
	}
	return &Store{
		dataElementID: dataElementID,
		values:        make(map[string]any),
		listeners:     make(map[int]Listener),
	}
}

// NewDataElementID mints a data element identifier.
func NewDataElementID() string {
	return uuid.NewString()
}

// DataElementID returns the identity of the data element this store backs.
func (s *Store) DataElementID() string {
	return s.dataElementID
}

// Get returns the value at the given concrete path.
func (s *Store) Get(path string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[path]
	return value, ok
}

// Set stores a value at the given concrete path and notifies subscribers.
// Paths with unresolved placeholders are rejected.
func (s *Store) Set(path string, value any) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("formdata: path is required")
	}
	if fieldpath.HasIndicators(path) {
		return fmt.Errorf("formdata: path %q has unresolved placeholders", path)
	}

	s.mu.Lock()
	old := s.values[path]
	s.values[path] = value
	s.mu.Unlock()

	s.notify(Change{
		DataElementID: s.dataElementID,
		Path:          path,
		Old:           old,
		New:           value,
	})
	return nil
}

// Delete removes a value without emitting a change event. Row removal is a
// structural edit handled by the layout session, not a field update.
func (s *Store) Delete(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, path)
}

// Subscribe registers a listener and returns its unsubscribe func.
func (s *Store) Subscribe(fn Listener) func() {
	if fn == nil {
		return func() {}
	}
	s.listenerMu.Lock()
	token := s.nextToken
	s.nextToken++
	s.listeners[token] = fn
	s.listenerMu.Unlock()

	return func() {
		s.listenerMu.Lock()
		delete(s.listeners, token)
		s.listenerMu.Unlock()
	}
}

func (s *Store) notify(change Change) {
	s.listenerMu.Lock()
	tokens := make([]int, 0, len(s.listeners))
	for token := range s.listeners {
		tokens = append(tokens, token)
	}
	sort.Ints(tokens)
	ordered := make([]Listener, 0, len(tokens))
	for _, token := range tokens {
		ordered = append(ordered, s.listeners[token])
	}
	s.listenerMu.Unlock()

	for _, fn := range ordered {
		fn(change)
	}
}

// RowCount reports how many rows exist under a repeating-group binding,
// derived from the highest row index present plus one.
func (s *Store) RowCount(groupBinding string) int {
	if groupBinding == "" {
		return 0
	}
	prefix := groupBinding + "."

	s.mu.RLock()
	defer s.mu.RUnlock()

	max := -1
	for path := range s.values {
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		rest := strings.TrimPrefix(path, prefix)
		segment, _, _ := strings.Cut(rest, ".")
		if !fieldpath.IsIndex(segment) {
			continue
		}
		indexes := fieldpath.Indexes(segment)
		if len(indexes) == 1 && indexes[0] > max {
			max = indexes[0]
		}
	}
	return max + 1
}

// RowCounts snapshots row counts for the supplied group bindings.
func (s *Store) RowCounts(groupBindings []string) map[string]int {
	out := make(map[string]int, len(groupBindings))
	for _, binding := range groupBindings {
		out[binding] = s.RowCount(binding)
	}
	return out
}

// Flat returns a copy of the current values with stringified leaves, the
// shape posted to the remote option-list endpoint as query context.
func (s *Store) Flat() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]string, len(s.values))
	for path, value := range s.values {
		if value == nil {
			continue
		}
		out[path] = fmt.Sprintf("%v", value)
	}
	return out
}
