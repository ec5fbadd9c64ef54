package validation

import (
	"fmt"
	"sync"
)

// Payload is the set of records one validator source contributes in a single
// merge: task-level records plus field records grouped by data element and
// field.
type Payload struct {
	Task       []BaseValidation
	DataModels map[string]map[string][]FieldValidation
}

// State holds all current validation records for a form session. Merging is
// keyed by source: each merge fully replaces the records that source
// previously contributed, so repeated incremental updates can never leak
// stale entries or accumulate duplicates. No conflict state is representable.
type State struct {
	mu         sync.RWMutex
	task       []BaseValidation
	dataModels map[string]map[string][]FieldValidation
}

// NewState constructs an empty validation state.
func NewState() *State {
	return &State{
		dataModels: make(map[string]map[string][]FieldValidation),
	}
}

// MergeSource replaces every record previously contributed by source with the
// payload's records. Records must carry atomic categories (or zero for
// immediately-visible ones); combination masks are query-only and rejected.
func (s *State) MergeSource(source string, payload Payload) error {
	if source == "" {
		return fmt.Errorf("validation: merge requires a source")
	}
	if err := checkPayload(source, payload); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.task = replaceBySource(s.task, source, payload.Task)

	// Drop the source's prior field records everywhere, then lay down the
	// new contribution.
	for elementID, fields := range s.dataModels {
		for field, records := range fields {
			kept := records[:0]
			for _, record := range records {
				if record.Source != source {
					kept = append(kept, record)
				}
			}
			if len(kept) == 0 {
				delete(fields, field)
				continue
			}
			fields[field] = kept
		}
		if len(fields) == 0 {
			delete(s.dataModels, elementID)
		}
	}

	for elementID, fields := range payload.DataModels {
		for field, records := range fields {
			if len(records) == 0 {
				continue
			}
			target := s.dataModels[elementID]
			if target == nil {
				target = make(map[string][]FieldValidation)
				s.dataModels[elementID] = target
			}
			target[field] = append(target[field], records...)
		}
	}

	return nil
}

func checkPayload(source string, payload Payload) error {
	for _, record := range payload.Task {
		if err := checkRecord(source, record); err != nil {
			return err
		}
	}
	for _, fields := range payload.DataModels {
		for _, records := range fields {
			for _, record := range records {
				if err := checkRecord(source, record.BaseValidation); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func checkRecord(source string, record BaseValidation) error {
	if record.Source != source {
		return fmt.Errorf("validation: record source %q does not match merge source %q", record.Source, source)
	}
	if record.Category != 0 && !record.Category.IsAtomic() {
		return fmt.Errorf("validation: category %s is a combination mask, records must carry an atomic category", record.Category)
	}
	return nil
}

func replaceBySource(existing []BaseValidation, source string, next []BaseValidation) []BaseValidation {
	out := make([]BaseValidation, 0, len(existing)+len(next))
	for _, record := range existing {
		if record.Source != source {
			out = append(out, record)
		}
	}
	return append(out, next...)
}

// Task returns the task-level records passing the visibility query.
func (s *State) Task(vis NodeVisibility) []BaseValidation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []BaseValidation
	for _, record := range s.task {
		if vis.Visible(record.Category) {
			out = append(out, record)
		}
	}
	return out
}

// Field returns the records for one field of one data element passing the
// visibility query.
func (s *State) Field(dataElementID, field string, vis NodeVisibility) []FieldValidation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []FieldValidation
	for _, record := range s.dataModels[dataElementID][field] {
		if vis.Visible(record.Category) {
			out = append(out, record)
		}
	}
	return out
}

// DataElement returns every visible field record of one data element, keyed
// by field.
func (s *State) DataElement(dataElementID string, vis NodeVisibility) map[string][]FieldValidation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string][]FieldValidation)
	for field, records := range s.dataModels[dataElementID] {
		for _, record := range records {
			if vis.Visible(record.Category) {
				out[field] = append(out[field], record)
			}
		}
	}
	return out
}

// HasErrors reports whether any visible record anywhere is an error.
func (s *State) HasErrors(vis NodeVisibility) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, record := range s.task {
		if record.Severity == SeverityError && vis.Visible(record.Category) {
			return true
		}
	}
	for _, fields := range s.dataModels {
		for _, records := range fields {
			for _, record := range records {
				if record.Severity == SeverityError && vis.Visible(record.Category) {
					return true
				}
			}
		}
	}
	return false
}

// Sources lists the validator sources currently holding records.
func (s *State) Sources() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, record := range s.task {
		seen[record.Source] = struct{}{}
	}
	for _, fields := range s.dataModels {
		for _, records := range fields {
			for _, record := range records {
				seen[record.Source] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for source := range seen {
		out = append(out, source)
	}
	return out
}
