package optionlist_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-formflow/pkg/layout"
	"github.com/goliatone/go-formflow/pkg/optionlist"
)

func reactorFixture(t *testing.T, rows optionlist.RowCounts) (*countingFetcher, *optionlist.Store, *optionlist.Reactor) {
	t.Helper()

	fetcher := newCountingFetcher()
	store := optionlist.NewStore()
	orch, err := optionlist.NewOrchestrator(store, fetcher, nil)
	if err != nil {
		t.Fatalf("orchestrator: %v", err)
	}

	l := &layout.Layout{Pages: []layout.Page{groupPage()}}
	if err := orch.Run(context.Background(), l, rows); err != nil {
		t.Fatalf("run: %v", err)
	}

	reactor, err := optionlist.NewReactor(store, orch)
	if err != nil {
		t.Fatalf("reactor: %v", err)
	}
	return fetcher, store, reactor
}

func TestReactorExactMatchRefetch(t *testing.T) {
	fetcher, _, reactor := reactorFixture(t, optionlist.RowCountMap{"persons": 1})
	initial := fetcher.total()

	reactor.FieldChanged(context.Background(), "address.region")
	reactor.Wait()

	static := optionlist.NewKey("countries", map[string]string{"region": "address.region"})
	if got := fetcher.count(static); got != 2 {
		t.Fatalf("static key fetched %d times, want 2 (initial + refetch)", got)
	}
	if got := fetcher.total(); got != initial+1 {
		t.Fatalf("total fetches = %d, want %d", got, initial+1)
	}
}

func TestReactorTemplateConcretization(t *testing.T) {
	fetcher, store, reactor := reactorFixture(t, optionlist.RowCountMap{"persons": 3})
	initial := fetcher.total()

	reactor.FieldChanged(context.Background(), "persons.1.name")
	reactor.Wait()

	// Exact match: the row-1 key's mapping names the changed field directly.
	rowOne := optionlist.NewKey("list1", map[string]string{"name": "persons.1.name"})
	if got := fetcher.count(rowOne); got != 2 {
		t.Fatalf("row 1 fetched %d times, want 2", got)
	}
	for _, untouched := range []string{"persons.0.name", "persons.2.name"} {
		key := optionlist.NewKey("list1", map[string]string{"name": untouched})
		if got := fetcher.count(key); got != 1 {
			t.Fatalf("key %s fetched %d times, want 1", key, got)
		}
	}
	if got := fetcher.total(); got != initial+1 {
		t.Fatalf("total fetches = %d, want %d", got, initial+1)
	}

	entry, ok := store.Get(rowOne)
	if !ok || entry.Status != optionlist.StatusDone {
		t.Fatalf("entry = %+v, ok=%v", entry, ok)
	}
}

func TestReactorTemplateFallbackWhenNoExactMatch(t *testing.T) {
	// Zero rows initially: only the template key is on file. A later change
	// to a row-scoped field must concretize the template and fetch that row.
	fetcher, store, reactor := reactorFixture(t, optionlist.RowCountMap{})

	reactor.FieldChanged(context.Background(), "persons.1.name")
	reactor.Wait()

	rowOne := optionlist.NewKey("list1", map[string]string{"name": "persons.1.name"})
	if got := fetcher.count(rowOne); got != 1 {
		t.Fatalf("row 1 fetched %d times, want 1", got)
	}

	entry, ok := store.Get(rowOne)
	if !ok || entry.Status != optionlist.StatusDone {
		t.Fatalf("entry = %+v, ok=%v", entry, ok)
	}
}

func TestReactorUnrelatedChangeFetchesNothing(t *testing.T) {
	fetcher, _, reactor := reactorFixture(t, optionlist.RowCountMap{"persons": 2})
	initial := fetcher.total()

	reactor.FieldChanged(context.Background(), "comments.text")
	reactor.Wait()

	if got := fetcher.total(); got != initial {
		t.Fatalf("total fetches = %d, want %d", got, initial)
	}
}

func TestReactorExactMatchSuppressesTemplateScan(t *testing.T) {
	// Both an exact key and the template would match persons.0.name; exact
	// wins and the template path must not produce a second fetch.
	fetcher, _, reactor := reactorFixture(t, optionlist.RowCountMap{"persons": 1})
	initial := fetcher.total()

	reactor.FieldChanged(context.Background(), "persons.0.name")
	reactor.Wait()

	if got := fetcher.total(); got != initial+1 {
		t.Fatalf("total fetches = %d, want exactly one refetch (%d)", got, initial+1)
	}
}

func TestReactorSecureMetaSurvivesTemplateRefetch(t *testing.T) {
	fetcher := newCountingFetcher()
	store := optionlist.NewStore()
	orch, err := optionlist.NewOrchestrator(store, fetcher, nil)
	if err != nil {
		t.Fatalf("orchestrator: %v", err)
	}

	l := &layout.Layout{Pages: []layout.Page{{
		ID: "p",
		Components: []layout.Component{{
			ID:   "secure-row-list",
			Type: layout.ComponentTypeDropdown,
			Options: &layout.OptionSource{
				ListID:  "restricted",
				Secure:  true,
				Mapping: map[string]string{"name": "persons.{idx}.name"},
			},
		}},
	}}}
	if err := orch.Run(context.Background(), l, optionlist.RowCountMap{}); err != nil {
		t.Fatalf("run: %v", err)
	}

	reactor, err := optionlist.NewReactor(store, orch)
	if err != nil {
		t.Fatalf("reactor: %v", err)
	}
	reactor.FieldChanged(context.Background(), "persons.0.name")
	reactor.Wait()

	if fetcher.total() != 1 {
		t.Fatalf("fetch count = %d, want 1", fetcher.total())
	}
	if !fetcher.requests[0].Secure {
		t.Fatal("secure flag lost on template refetch")
	}
}
