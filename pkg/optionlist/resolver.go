package optionlist

import (
	"sort"
	"strings"

	"github.com/goliatone/go-formflow/pkg/fieldpath"
	"github.com/goliatone/go-formflow/pkg/layout"
)

// RowCounts supplies the number of rows currently present under a concrete
// repeating-group binding. formdata.Store satisfies it.
type RowCounts interface {
	RowCount(groupBinding string) int
}

// RowCountMap adapts a fixed map for tests and stateless callers.
type RowCountMap map[string]int

// RowCount returns the configured row count, zero when unknown.
func (m RowCountMap) RowCount(groupBinding string) int { return m[groupBinding] }

// Resolution is the outcome of resolving a list-bound component: the concrete
// keys to fetch now, plus the template key retained for later re-expansion
// when any mapped field carries index placeholders.
type Resolution struct {
	Keys     []Key
	Template *Key
}

// Resolve computes the lookup keys for one list-bound component against the
// current repeating-group state. Pure: no fetch is performed here.
//
// Mapped fields inside repeating groups expand to one key per existing row,
// with the cross product taken across nested (and independent) groups. The
// template key is produced alongside so the reactor can re-expand it when a
// row-scoped field changes later.
func Resolve(src layout.OptionSource, rows RowCounts) Resolution {
	if strings.TrimSpace(src.ListID) == "" {
		return Resolution{}
	}

	templated := false
	for _, path := range src.Mapping {
		if fieldpath.HasIndicators(path) {
			templated = true
			break
		}
	}

	if !templated {
		key := NewKey(src.ListID, src.Mapping)
		return Resolution{Keys: []Key{key}}
	}

	template := NewKey(src.ListID, src.Mapping)
	resolution := Resolution{Template: &template}

	seen := make(map[Key]struct{})
	for _, mapping := range expandMappings(src.Mapping, rows) {
		key := NewKey(src.ListID, mapping)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		resolution.Keys = append(resolution.Keys, key)
	}
	sort.Slice(resolution.Keys, func(i, j int) bool {
		return resolution.Keys[i].String() < resolution.Keys[j].String()
	})
	return resolution
}

// expandMappings substitutes the first unresolved placeholder dimension with
// every existing row index and recurses until all placeholders are gone.
// Fields sharing a group prefix advance together so one key is produced per
// row, while distinct groups multiply.
func expandMappings(mapping map[string]string, rows RowCounts) []map[string]string {
	prefix := firstIndicatorPrefix(mapping)
	if prefix == "" {
		return []map[string]string{cloneMapping(mapping)}
	}

	count := 0
	if rows != nil {
		count = rows.RowCount(prefix)
	}

	var out []map[string]string
	for i := 0; i < count; i++ {
		next := make(map[string]string, len(mapping))
		for dest, path := range mapping {
			next[dest] = substituteFirstIndicator(path, prefix, i)
		}
		out = append(out, expandMappings(next, rows)...)
	}
	return out
}

// firstIndicatorPrefix finds the concrete path leading up to the leftmost
// placeholder across the mapping, preferring the lexically smallest prefix so
// expansion order is deterministic.
func firstIndicatorPrefix(mapping map[string]string) string {
	best := ""
	for _, path := range mapping {
		segments := fieldpath.Split(path)
		for i, segment := range segments {
			if !fieldpath.IsIndicator(segment) {
				continue
			}
			prefix := strings.Join(segments[:i], ".")
			if best == "" || prefix < best {
				best = prefix
			}
			break
		}
	}
	return best
}

func substituteFirstIndicator(path, prefix string, index int) string {
	segments := fieldpath.Split(path)
	offset := len(fieldpath.Split(prefix))
	if len(segments) <= offset {
		return path
	}
	if strings.Join(segments[:offset], ".") != prefix || !fieldpath.IsIndicator(segments[offset]) {
		return path
	}
	resolved, err := fieldpath.ReplaceIndicators(
		strings.Join(segments[:offset+1], "."), []int{index})
	if err != nil {
		return path
	}
	rest := segments[offset+1:]
	if len(rest) == 0 {
		return resolved
	}
	return resolved + "." + strings.Join(rest, ".")
}

func cloneMapping(mapping map[string]string) map[string]string {
	if mapping == nil {
		return nil
	}
	out := make(map[string]string, len(mapping))
	for dest, path := range mapping {
		out[dest] = path
	}
	return out
}
