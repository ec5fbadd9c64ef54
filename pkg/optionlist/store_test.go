package optionlist_test

import (
	"errors"
	"testing"

	"github.com/goliatone/go-formflow/pkg/optionlist"
)

func TestStoreLifecycle(t *testing.T) {
	store := optionlist.NewStore()
	key := optionlist.NewKey("countries", map[string]string{"region": "address.region"})

	store.MarkLoading(key, optionlist.Meta{Secure: true})
	entry, ok := store.Get(key)
	if !ok || entry.Status != optionlist.StatusLoading {
		t.Fatalf("entry = %+v, ok=%v", entry, ok)
	}
	if !entry.Meta.Secure {
		t.Error("meta lost on MarkLoading")
	}

	store.SetItems(key, []optionlist.Item{{Value: "no", Label: "Norway"}})
	entry, _ = store.Get(key)
	if entry.Status != optionlist.StatusDone || len(entry.Items) != 1 {
		t.Fatalf("entry = %+v", entry)
	}
	if entry.FetchedAt.IsZero() {
		t.Error("FetchedAt not set")
	}

	store.SetError(key, errors.New("boom"))
	entry, _ = store.Get(key)
	if entry.Status != optionlist.StatusError || entry.Err == nil {
		t.Fatalf("entry = %+v", entry)
	}
}

func TestStoreRefetchKeepsStaleItems(t *testing.T) {
	store := optionlist.NewStore()
	key := optionlist.NewKey("countries", nil)

	store.MarkLoading(key, optionlist.Meta{})
	store.SetItems(key, []optionlist.Item{{Value: "no"}})
	store.MarkLoading(key, optionlist.Meta{})

	entry, _ := store.Get(key)
	if entry.Status != optionlist.StatusLoading {
		t.Fatalf("status = %s", entry.Status)
	}
	if len(entry.Items) != 1 {
		t.Fatal("stale items should survive a refetch start")
	}
}

func TestStoreSnapshotIsACopy(t *testing.T) {
	store := optionlist.NewStore()
	key := optionlist.NewKey("countries", nil)
	store.SetItems(key, []optionlist.Item{{Value: "no", Label: "Norway"}})

	snapshot := store.Snapshot()
	copied := snapshot[key]
	copied.Items[0] = optionlist.Item{Value: "mutated"}

	entry, _ := store.Get(key)
	if entry.Items[0].Value != "no" {
		t.Fatal("snapshot mutation leaked into the store")
	}
}

func TestStoreTemplates(t *testing.T) {
	store := optionlist.NewStore()
	template := optionlist.NewKey("list1", map[string]string{"name": "persons.{idx}.name"})

	store.RecordTemplate(template, optionlist.Meta{Secure: true})
	store.RecordTemplate(template, optionlist.Meta{Secure: true})
	store.RecordTemplate(optionlist.Key{}, optionlist.Meta{})

	templates := store.Templates()
	if len(templates) != 1 || templates[0] != template {
		t.Fatalf("templates = %v", templates)
	}
	meta, ok := store.TemplateMeta(template)
	if !ok || !meta.Secure {
		t.Fatalf("meta = %+v, ok=%v", meta, ok)
	}

	store.Reset()
	if len(store.Templates()) != 0 || len(store.Keys()) != 0 {
		t.Fatal("reset did not clear the store")
	}
}
