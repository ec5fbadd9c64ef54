// Package engine wires the form session together: layout, form data, the
// option-list store/orchestrator/reactor, validation state, and text
// resources. It applies sensible defaults while remaining open to dependency
// injection for advanced callers.
package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/goliatone/go-formflow/pkg/formdata"
	"github.com/goliatone/go-formflow/pkg/layout"
	"github.com/goliatone/go-formflow/pkg/optionlist"
	"github.com/goliatone/go-formflow/pkg/textresource"
	"github.com/goliatone/go-formflow/pkg/validation"
)

// Option customises the engine configuration.
type Option func(*Engine)

// WithLayout supplies the layout tree the session renders from.
func WithLayout(l *layout.Layout) Option {
	return func(e *Engine) { e.layout = l }
}

// WithFormData injects an existing form-data store, e.g. rehydrated from the
// backend on load.
func WithFormData(store *formdata.Store) Option {
	return func(e *Engine) { e.data = store }
}

// WithFetcher injects a custom option-list fetcher.
func WithFetcher(fetcher optionlist.Fetcher) Option {
	return func(e *Engine) { e.fetcher = fetcher }
}

// WithBaseURL configures the built-in HTTP fetcher against the remote
// option-list endpoint. Ignored when WithFetcher is supplied.
func WithBaseURL(baseURL string) Option {
	return func(e *Engine) { e.baseURL = baseURL }
}

// WithHTTPClient overrides the client used by the built-in HTTP fetcher.
func WithHTTPClient(client *http.Client) Option {
	return func(e *Engine) { e.httpClient = client }
}

// WithTextResources supplies the text-resource store used to render
// validation messages.
func WithTextResources(store *textresource.Store) Option {
	return func(e *Engine) { e.texts = store }
}

// WithLanguage sets the session language forwarded on fetches.
func WithLanguage(language string) Option {
	return func(e *Engine) { e.language = language }
}

// WithInstanceID sets the instance id forwarded on fetches.
func WithInstanceID(id string) Option {
	return func(e *Engine) { e.instanceID = id }
}

// Engine coordinates one form-filling session.
type Engine struct {
	layout     *layout.Layout
	data       *formdata.Store
	lists      *optionlist.Store
	fetcher    optionlist.Fetcher
	baseURL    string
	httpClient *http.Client
	texts      *textresource.Store
	language   string
	instanceID string

	orchestrator *optionlist.Orchestrator
	reactor      *optionlist.Reactor
	validations  *validation.State
	unsubscribe  func()
}

// New constructs an engine and resolves defaults: a fresh form-data store, an
// empty option-list store, and the HTTP fetcher when a base URL is given.
func New(options ...Option) (*Engine, error) {
	e := &Engine{
		lists:       optionlist.NewStore(),
		validations: validation.NewState(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(e)
	}

	if e.layout == nil {
		return nil, errors.New("engine: layout is required")
	}
	if e.data == nil {
		e.data = formdata.New("")
	}
	if e.fetcher == nil {
		if e.baseURL == "" {
			return nil, errors.New("engine: fetcher or base url is required")
		}
		var httpOptions []optionlist.HTTPOption
		if e.httpClient != nil {
			httpOptions = append(httpOptions, optionlist.WithHTTPClient(e.httpClient))
		}
		fetcher, err := optionlist.NewHTTPFetcher(e.baseURL, httpOptions...)
		if err != nil {
			return nil, fmt.Errorf("engine: fetcher: %w", err)
		}
		e.fetcher = fetcher
	}

	orchestrator, err := optionlist.NewOrchestrator(e.lists, e.fetcher, e.data,
		optionlist.WithLanguage(e.language),
		optionlist.WithInstanceID(e.instanceID),
	)
	if err != nil {
		return nil, fmt.Errorf("engine: orchestrator: %w", err)
	}
	e.orchestrator = orchestrator

	reactor, err := optionlist.NewReactor(e.lists, orchestrator)
	if err != nil {
		return nil, fmt.Errorf("engine: reactor: %w", err)
	}
	e.reactor = reactor

	return e, nil
}

// Start runs the initial orchestration pass and then subscribes the reactor
// to field changes. The context governs the initial pass and every refetch
// dispatched for the session.
func (e *Engine) Start(ctx context.Context) error {
	if ctx == nil {
		return errors.New("engine: context is required")
	}
	if e.unsubscribe != nil {
		return errors.New("engine: already started")
	}

	if err := e.orchestrator.Run(ctx, e.layout, e.data); err != nil {
		return fmt.Errorf("engine: initial option-list pass: %w", err)
	}

	e.unsubscribe = e.data.Subscribe(func(change formdata.Change) {
		e.reactor.FieldChanged(ctx, change.Path)
	})
	return nil
}

// Stop unsubscribes from field changes and waits for in-flight refetches.
func (e *Engine) Stop() {
	if e.unsubscribe != nil {
		e.unsubscribe()
		e.unsubscribe = nil
	}
	e.reactor.Wait()
}

// FormData exposes the session's form-data store.
func (e *Engine) FormData() *formdata.Store { return e.data }

// OptionLists exposes the session's option-list store.
func (e *Engine) OptionLists() *optionlist.Store { return e.lists }

// Validations exposes the session's validation state.
func (e *Engine) Validations() *validation.State { return e.validations }

// Layout exposes the session's layout tree.
func (e *Engine) Layout() *layout.Layout { return e.layout }

// ApplyBackendValidations converts a backend validation response and merges
// each validator's payload into the session state, rendering custom text
// keys through the configured text resources.
func (e *Engine) ApplyBackendValidations(response map[string][]validation.BackendIssue) error {
	var renderer validation.MessageRenderer
	if e.texts != nil {
		renderer = e.texts
	}
	for source, payload := range validation.FromBackend(response, renderer) {
		if err := e.validations.MergeSource(source, payload); err != nil {
			return fmt.Errorf("engine: merge validations from %q: %w", source, err)
		}
	}
	return nil
}

// Wait blocks until refetches dispatched by field changes have completed.
// Intended for draining before reading the option-list store.
func (e *Engine) Wait() {
	e.reactor.Wait()
}
