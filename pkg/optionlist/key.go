// Package optionlist implements the option-list subsystem: lookup key
// identity, per-row resolution of list-bound components, the entry store, the
// remote fetcher, the initial orchestration pass, and the refetch-on-change
// reactor.
package optionlist

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-formflow/pkg/fieldpath"
)

// Key identifies one fetchable option list: the list id plus the canonical
// form of the key-to-field mapping. Two keys are equal iff their id and
// normalized mapping match, regardless of the mapping's construction order.
// Keys are comparable and safe to use as map keys.
type Key struct {
	listID  string
	mapping string
}

// NewKey canonicalizes the mapping (sorted destination keys) into a Key.
func NewKey(listID string, mapping map[string]string) Key {
	return Key{listID: strings.TrimSpace(listID), mapping: canonicalMapping(mapping)}
}

func canonicalMapping(mapping map[string]string) string {
	if len(mapping) == 0 {
		return ""
	}
	dests := make([]string, 0, len(mapping))
	for dest := range mapping {
		dests = append(dests, dest)
	}
	sort.Strings(dests)

	pairs := make([]string, 0, len(dests))
	for _, dest := range dests {
		pairs = append(pairs, dest+"="+mapping[dest])
	}
	return strings.Join(pairs, "&")
}

// ParseKey reverses String: "listID:dest=path&dest2=path2" or a bare list
// id. Useful for fixtures and debugging output; the mapping portion must
// already be canonical.
func ParseKey(s string) (Key, error) {
	listID, mapping, _ := strings.Cut(s, ":")
	if strings.TrimSpace(listID) == "" {
		return Key{}, fmt.Errorf("optionlist: parse key %q: empty list id", s)
	}
	if mapping == "" {
		return Key{listID: listID}, nil
	}
	pairs := strings.Split(mapping, "&")
	parsed := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		dest, path, ok := strings.Cut(pair, "=")
		if !ok || dest == "" {
			return Key{}, fmt.Errorf("optionlist: parse key %q: bad mapping pair %q", s, pair)
		}
		parsed[dest] = path
	}
	return NewKey(listID, parsed), nil
}

// Zero reports whether the key is the zero value.
func (k Key) Zero() bool { return k.listID == "" && k.mapping == "" }

// ListID returns the option list id component of the key.
func (k Key) ListID() string { return k.listID }

// Mapping reparses the canonical mapping into a fresh map.
func (k Key) Mapping() map[string]string {
	if k.mapping == "" {
		return nil
	}
	out := make(map[string]string)
	for _, pair := range strings.Split(k.mapping, "&") {
		dest, path, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		out[dest] = path
	}
	return out
}

// Fields returns the mapped data-model paths in canonical (destination) order.
func (k Key) Fields() []string {
	if k.mapping == "" {
		return nil
	}
	pairs := strings.Split(k.mapping, "&")
	out := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		if _, path, ok := strings.Cut(pair, "="); ok {
			out = append(out, path)
		}
	}
	return out
}

// DependsOn reports whether the key's mapping references the exact concrete
// field path.
func (k Key) DependsOn(path string) bool {
	for _, field := range k.Fields() {
		if field == path {
			return true
		}
	}
	return false
}

// IsTemplate reports whether any mapped field retains index placeholders. A
// template key must never be fetched directly; concretize it first.
func (k Key) IsTemplate() bool {
	for _, field := range k.Fields() {
		if fieldpath.HasIndicators(field) {
			return true
		}
	}
	return false
}

// MatchesChanged reports whether this template key depends on the changed
// concrete field path, comparing the indicator-stripped template field with
// the index-stripped changed path.
func (k Key) MatchesChanged(changed string) bool {
	stripped := fieldpath.WithoutIndexes(changed)
	for _, field := range k.Fields() {
		if !fieldpath.HasIndicators(field) {
			continue
		}
		if fieldpath.WithoutIndicators(field) == stripped {
			return true
		}
	}
	return false
}

// Concretize substitutes the template's placeholders with the indices
// extracted from the triggering changed path, producing a fetchable key.
func (k Key) Concretize(changed string) (Key, error) {
	indexes := fieldpath.Indexes(changed)
	mapping := k.Mapping()
	out := make(map[string]string, len(mapping))
	for dest, path := range mapping {
		if !fieldpath.HasIndicators(path) {
			out[dest] = path
			continue
		}
		resolved, err := fieldpath.ReplaceIndicators(path, indexes)
		if err != nil {
			return Key{}, fmt.Errorf("optionlist: concretize %s: %w", k, err)
		}
		out[dest] = resolved
	}
	return NewKey(k.listID, out), nil
}

// String renders the key for logs and error messages.
func (k Key) String() string {
	if k.mapping == "" {
		return k.listID
	}
	return k.listID + ":" + k.mapping
}
