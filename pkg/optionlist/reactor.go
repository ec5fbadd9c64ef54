package optionlist

import (
	"context"
	"errors"
	"sync"
)

// Reactor re-issues fetches when a field update lands. Exact concrete-key
// dependencies win over template dependencies: when at least one known key's
// mapping names the changed field directly, template matching is skipped so
// the same change never triggers a duplicate row-scoped refetch.
type Reactor struct {
	store        *Store
	orchestrator *Orchestrator

	wg sync.WaitGroup
}

// NewReactor wires the reactor to the store it scans and the orchestrator it
// refetches through.
func NewReactor(store *Store, orchestrator *Orchestrator) (*Reactor, error) {
	if store == nil {
		return nil, errors.New("optionlist: store is required")
	}
	if orchestrator == nil {
		return nil, errors.New("optionlist: orchestrator is required")
	}
	return &Reactor{store: store, orchestrator: orchestrator}, nil
}

// FieldChanged handles one successful field update. Each matching key is
// refetched at most once, on its own goroutine, so a slow in-flight fetch
// never blocks subsequent field-update handling.
func (r *Reactor) FieldChanged(ctx context.Context, changed string) {
	if ctx == nil || changed == "" || ctx.Err() != nil {
		return
	}

	dispatched := make(map[Key]struct{})

	for _, key := range r.store.Keys() {
		if !key.DependsOn(changed) {
			continue
		}
		if _, dup := dispatched[key]; dup {
			continue
		}
		dispatched[key] = struct{}{}

		entry, _ := r.store.Get(key)
		r.spawn(ctx, key, entry.Meta)
	}

	if len(dispatched) > 0 {
		return
	}

	for _, template := range r.store.Templates() {
		if !template.MatchesChanged(changed) {
			continue
		}
		key, err := template.Concretize(changed)
		if err != nil {
			// Arity mismatch between the template and the changed path is a
			// layout defect; record it on the template's would-be entry.
			r.store.SetError(template, err)
			continue
		}
		if _, dup := dispatched[key]; dup {
			continue
		}
		dispatched[key] = struct{}{}

		meta, _ := r.store.TemplateMeta(template)
		r.spawn(ctx, key, meta)
	}
}

func (r *Reactor) spawn(ctx context.Context, key Key, meta Meta) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.orchestrator.FetchKey(ctx, key, meta)
	}()
}

// Wait blocks until every refetch dispatched so far has completed.
func (r *Reactor) Wait() {
	r.wg.Wait()
}
