package optionlist_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formflow/pkg/optionlist"
)

func TestHTTPFetcherRequestShape(t *testing.T) {
	var gotPath string
	var gotQuery map[string][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"listItems":[{"value":"no","label":"Norway"},{"value":"se","label":"Sweden"}]}`))
	}))
	defer server.Close()

	fetcher, err := optionlist.NewHTTPFetcher(server.URL + "/api/optionlists")
	if err != nil {
		t.Fatalf("fetcher: %v", err)
	}

	key := optionlist.NewKey("countries", map[string]string{"region": "address.region"})
	items, err := fetcher.Fetch(context.Background(), optionlist.Request{
		Key:        key,
		Language:   "nb",
		InstanceID: "instance-1",
		FormData:   map[string]string{"address.region": "north"},
	})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if gotPath != "/api/optionlists/countries" {
		t.Errorf("path = %q", gotPath)
	}
	if gotQuery["language"][0] != "nb" || gotQuery["instanceId"][0] != "instance-1" {
		t.Errorf("query = %v", gotQuery)
	}
	if gotQuery["region"][0] != "north" {
		t.Errorf("mapped field value not forwarded: %v", gotQuery)
	}

	want := []optionlist.Item{
		{Value: "no", Label: "Norway"},
		{Value: "se", Label: "Sweden"},
	}
	if diff := cmp.Diff(want, items); diff != "" {
		t.Fatalf("items mismatch (-want +got):\n%s", diff)
	}
}

func TestHTTPFetcherSecurePrefix(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"listItems":[]}`))
	}))
	defer server.Close()

	fetcher, err := optionlist.NewHTTPFetcher(server.URL)
	if err != nil {
		t.Fatalf("fetcher: %v", err)
	}

	_, err = fetcher.Fetch(context.Background(), optionlist.Request{
		Key:    optionlist.NewKey("restricted", nil),
		Secure: true,
	})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if gotPath != "/secure/restricted" {
		t.Errorf("path = %q", gotPath)
	}
}

func TestHTTPFetcherSanitizesLabels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"listItems":[{"value":"x","label":"<script>alert(1)</script>Safe","description":"<b>bold</b> text"}]}`))
	}))
	defer server.Close()

	fetcher, err := optionlist.NewHTTPFetcher(server.URL)
	if err != nil {
		t.Fatalf("fetcher: %v", err)
	}

	items, err := fetcher.Fetch(context.Background(), optionlist.Request{
		Key: optionlist.NewKey("lists", nil),
	})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if items[0].Label != "Safe" {
		t.Errorf("label = %q", items[0].Label)
	}
	if items[0].Description != "bold text" {
		t.Errorf("description = %q", items[0].Description)
	}
}

func TestHTTPFetcherStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer server.Close()

	fetcher, err := optionlist.NewHTTPFetcher(server.URL)
	if err != nil {
		t.Fatalf("fetcher: %v", err)
	}

	_, err = fetcher.Fetch(context.Background(), optionlist.Request{
		Key: optionlist.NewKey("lists", nil),
	})
	var fetchErr *optionlist.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected *FetchError, got %v", err)
	}
	if fetchErr.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d", fetchErr.StatusCode)
	}
}

func TestHTTPFetcherRejectsTemplateKeys(t *testing.T) {
	fetcher, err := optionlist.NewHTTPFetcher("http://localhost:0")
	if err != nil {
		t.Fatalf("fetcher: %v", err)
	}
	_, err = fetcher.Fetch(context.Background(), optionlist.Request{
		Key: optionlist.NewKey("list1", map[string]string{"name": "persons.{idx}.name"}),
	})
	if err == nil {
		t.Fatal("expected error for template key")
	}
}
