package optionlist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// Request carries everything the remote endpoint needs to serve one list.
type Request struct {
	Key         Key
	Secure      bool
	Language    string
	InstanceID  string
	FormData    map[string]string
	QueryParams map[string]string
}

// Fetcher retrieves the items behind one lookup key.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) ([]Item, error)
}

// FetcherFunc adapts a function into a Fetcher.
type FetcherFunc func(ctx context.Context, req Request) ([]Item, error)

// Fetch delegates to the underlying function.
func (fn FetcherFunc) Fetch(ctx context.Context, req Request) ([]Item, error) {
	return fn(ctx, req)
}

// FetchError reports a remote failure for one lookup key. It is recovered
// locally: the affected entry turns errored while sibling fetches proceed.
type FetchError struct {
	Key        Key
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("optionlist: fetch %s: status %d", e.Key, e.StatusCode)
	}
	return fmt.Sprintf("optionlist: fetch %s: %v", e.Key, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// HTTPOption customises the HTTP fetcher.
type HTTPOption func(*HTTPFetcher)

// WithHTTPClient injects a custom client.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(f *HTTPFetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithSecurePathPrefix overrides the path prefix used for secure lists.
func WithSecurePathPrefix(prefix string) HTTPOption {
	return func(f *HTTPFetcher) {
		f.securePrefix = strings.Trim(prefix, "/")
	}
}

// HTTPFetcher issues GET requests against the remote option-list endpoint and
// decodes the listItems payload. Item text is sanitized before storage so
// remote markup never reaches a renderer verbatim.
type HTTPFetcher struct {
	baseURL      string
	client       *http.Client
	securePrefix string
}

var _ Fetcher = (*HTTPFetcher)(nil)

// NewHTTPFetcher constructs a fetcher rooted at baseURL, e.g.
// https://host/api/optionlists.
func NewHTTPFetcher(baseURL string, options ...HTTPOption) (*HTTPFetcher, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errors.New("optionlist: base url is required")
	}
	f := &HTTPFetcher{
		baseURL:      trimmed,
		client:       http.DefaultClient,
		securePrefix: "secure",
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(f)
	}
	return f, nil
}

type listResponse struct {
	ListItems []Item `json:"listItems"`
}

// Fetch performs one GET for the request's key. Mapped fields resolve to
// their current form-data values and travel as query parameters named after
// the mapping's destination keys.
func (f *HTTPFetcher) Fetch(ctx context.Context, req Request) ([]Item, error) {
	if req.Key.Zero() {
		return nil, errors.New("optionlist: fetch requires a key")
	}
	if req.Key.IsTemplate() {
		return nil, fmt.Errorf("optionlist: key %s is a template, concretize before fetching", req.Key)
	}

	endpoint := f.baseURL
	if req.Secure && f.securePrefix != "" {
		endpoint += "/" + f.securePrefix
	}
	endpoint += "/" + url.PathEscape(req.Key.ListID())

	query := url.Values{}
	if req.Language != "" {
		query.Set("language", req.Language)
	}
	if req.InstanceID != "" {
		query.Set("instanceId", req.InstanceID)
	}
	for dest, path := range req.Key.Mapping() {
		query.Set(dest, req.FormData[path])
	}
	for name, value := range req.QueryParams {
		query.Set(name, value)
	}

	target := endpoint
	if encoded := query.Encode(); encoded != "" {
		target += "?" + encoded
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &FetchError{Key: req.Key, Err: err}
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, &FetchError{Key: req.Key, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, &FetchError{Key: req.Key, StatusCode: resp.StatusCode}
	}

	var payload listResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &FetchError{Key: req.Key, Err: fmt.Errorf("decode payload: %w", err)}
	}

	items := payload.ListItems
	for i := range items {
		items[i].Label = sanitizeItemText(items[i].Label)
		items[i].Description = sanitizeItemText(items[i].Description)
		items[i].HelpText = sanitizeItemText(items[i].HelpText)
	}
	return items, nil
}

var (
	itemPolicyOnce sync.Once
	itemPolicy     *bluemonday.Policy
)

func sanitizeItemText(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	itemPolicyOnce.Do(func() {
		itemPolicy = bluemonday.StrictPolicy()
	})
	return strings.TrimSpace(itemPolicy.Sanitize(trimmed))
}
