package optionlist_test

import (
	"testing"

	"github.com/goliatone/go-formflow/pkg/layout"
	"github.com/goliatone/go-formflow/pkg/optionlist"
)

func keysEqual(a, b []optionlist.Key) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestResolveStaticMapping(t *testing.T) {
	src := layout.OptionSource{
		ListID:  "municipalities",
		Mapping: map[string]string{"county": "address.county"},
	}
	resolution := optionlist.Resolve(src, optionlist.RowCountMap{})

	if resolution.Template != nil {
		t.Fatal("static mapping must not produce a template key")
	}
	want := []optionlist.Key{
		optionlist.NewKey("municipalities", map[string]string{"county": "address.county"}),
	}
	if !keysEqual(want, resolution.Keys) {
		t.Fatalf("keys = %v, want %v", resolution.Keys, want)
	}
}

func TestResolveNoMapping(t *testing.T) {
	resolution := optionlist.Resolve(layout.OptionSource{ListID: "countries"}, nil)
	if len(resolution.Keys) != 1 || resolution.Keys[0] != optionlist.NewKey("countries", nil) {
		t.Fatalf("unexpected resolution: %+v", resolution)
	}
}

func TestResolveOneKeyPerRow(t *testing.T) {
	src := layout.OptionSource{
		ListID:  "list1",
		Mapping: map[string]string{"name": "persons.{idx}.name"},
	}
	rows := optionlist.RowCountMap{"persons": 3}

	resolution := optionlist.Resolve(src, rows)

	want := []optionlist.Key{
		optionlist.NewKey("list1", map[string]string{"name": "persons.0.name"}),
		optionlist.NewKey("list1", map[string]string{"name": "persons.1.name"}),
		optionlist.NewKey("list1", map[string]string{"name": "persons.2.name"}),
	}
	if !keysEqual(want, resolution.Keys) {
		t.Fatalf("keys = %v, want %v", resolution.Keys, want)
	}

	if resolution.Template == nil {
		t.Fatal("expected template key for later re-expansion")
	}
	wantTemplate := optionlist.NewKey("list1", map[string]string{"name": "persons.{idx}.name"})
	if *resolution.Template != wantTemplate {
		t.Fatalf("template = %s, want %s", resolution.Template, wantTemplate)
	}
}

func TestResolveNestedGroupsCrossProduct(t *testing.T) {
	src := layout.OptionSource{
		ListID:  "streets",
		Mapping: map[string]string{"street": "persons.{idx}.addresses.{idx}.street"},
	}
	rows := optionlist.RowCountMap{
		"persons":             2,
		"persons.0.addresses": 2,
		"persons.1.addresses": 1,
	}

	resolution := optionlist.Resolve(src, rows)

	want := []optionlist.Key{
		optionlist.NewKey("streets", map[string]string{"street": "persons.0.addresses.0.street"}),
		optionlist.NewKey("streets", map[string]string{"street": "persons.0.addresses.1.street"}),
		optionlist.NewKey("streets", map[string]string{"street": "persons.1.addresses.0.street"}),
	}
	if !keysEqual(want, resolution.Keys) {
		t.Fatalf("keys = %v, want %v", resolution.Keys, want)
	}
}

func TestResolveZeroRowsKeepsTemplateOnly(t *testing.T) {
	src := layout.OptionSource{
		ListID:  "list1",
		Mapping: map[string]string{"name": "persons.{idx}.name"},
	}
	resolution := optionlist.Resolve(src, optionlist.RowCountMap{})

	if len(resolution.Keys) != 0 {
		t.Fatalf("expected no concrete keys, got %v", resolution.Keys)
	}
	if resolution.Template == nil {
		t.Fatal("expected template key")
	}
}

func TestResolveFieldsInSameGroupShareRowIndex(t *testing.T) {
	src := layout.OptionSource{
		ListID: "list1",
		Mapping: map[string]string{
			"name": "persons.{idx}.name",
			"age":  "persons.{idx}.age",
		},
	}
	rows := optionlist.RowCountMap{"persons": 2}

	resolution := optionlist.Resolve(src, rows)

	want := []optionlist.Key{
		optionlist.NewKey("list1", map[string]string{"age": "persons.0.age", "name": "persons.0.name"}),
		optionlist.NewKey("list1", map[string]string{"age": "persons.1.age", "name": "persons.1.name"}),
	}
	if !keysEqual(want, resolution.Keys) {
		t.Fatalf("keys = %v, want %v", resolution.Keys, want)
	}
}
