package optionlist

import (
	"context"
	"errors"
	"sync"

	"github.com/goliatone/go-formflow/pkg/layout"
)

// FormData supplies the flattened current field values sent to the remote
// endpoint as query context. formdata.Store satisfies it.
type FormData interface {
	Flat() map[string]string
}

// OrchestratorOption customises the orchestrator configuration.
type OrchestratorOption func(*Orchestrator)

// WithLanguage sets the language forwarded on every fetch.
func WithLanguage(language string) OrchestratorOption {
	return func(o *Orchestrator) { o.language = language }
}

// WithInstanceID sets the instance id forwarded on every fetch.
func WithInstanceID(id string) OrchestratorOption {
	return func(o *Orchestrator) { o.instanceID = id }
}

// Orchestrator performs the single initial traversal of the layout and
// dispatches exactly one fetch per distinct lookup key. Failures land on the
// failed key's entry and never abort sibling fetches.
type Orchestrator struct {
	store      *Store
	fetcher    Fetcher
	data       FormData
	language   string
	instanceID string
}

// NewOrchestrator wires the orchestrator to its store, fetcher and form data.
func NewOrchestrator(store *Store, fetcher Fetcher, data FormData, options ...OrchestratorOption) (*Orchestrator, error) {
	if store == nil {
		return nil, errors.New("optionlist: store is required")
	}
	if fetcher == nil {
		return nil, errors.New("optionlist: fetcher is required")
	}
	o := &Orchestrator{store: store, fetcher: fetcher, data: data}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	return o, nil
}

type discovered struct {
	key  Key
	meta Meta
}

// Run walks every page and component once, deduplicates lookups by key-set
// membership, records every template key before any fetch is spawned, then
// fetches each unique key on its own goroutine and waits for all of them.
func (o *Orchestrator) Run(ctx context.Context, l *layout.Layout, rows RowCounts) error {
	if ctx == nil {
		return errors.New("optionlist: context is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if l == nil {
		return nil
	}

	seen := make(map[Key]struct{})
	var unique []discovered

	l.Walk(func(c *layout.Component) bool {
		if !c.HasOptionSource() {
			return true
		}
		src := *c.Options
		meta := Meta{Secure: src.Secure, QueryParams: cloneMapping(src.QueryParams)}

		resolution := Resolve(src, rows)
		if resolution.Template != nil {
			o.store.RecordTemplate(*resolution.Template, meta)
		}
		for _, key := range resolution.Keys {
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			unique = append(unique, discovered{key: key, meta: meta})
		}
		return true
	})

	// Entries flip to loading before any goroutine starts so readers see a
	// complete picture of what this pass will fetch.
	for _, d := range unique {
		o.store.MarkLoading(d.key, d.meta)
	}

	var wg sync.WaitGroup
	for _, d := range unique {
		wg.Add(1)
		go func(d discovered) {
			defer wg.Done()
			o.fetchOne(ctx, d.key, d.meta)
		}(d)
	}
	wg.Wait()

	return ctx.Err()
}

// FetchKey dispatches one fetch for an already-resolved key, writing the
// outcome to the store. Used by the reactor for refetches.
func (o *Orchestrator) FetchKey(ctx context.Context, key Key, meta Meta) {
	o.store.MarkLoading(key, meta)
	o.fetchOne(ctx, key, meta)
}

func (o *Orchestrator) fetchOne(ctx context.Context, key Key, meta Meta) {
	var formData map[string]string
	if o.data != nil {
		formData = o.data.Flat()
	}

	items, err := o.fetcher.Fetch(ctx, Request{
		Key:         key,
		Secure:      meta.Secure,
		Language:    o.language,
		InstanceID:  o.instanceID,
		FormData:    formData,
		QueryParams: meta.QueryParams,
	})
	if err != nil {
		o.store.SetError(key, err)
		return
	}
	o.store.SetItems(key, items)
}
