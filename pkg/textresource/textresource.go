// Package textresource resolves text-resource keys into display messages,
// rendering parameterised templates through a pongo2 template set. Backend
// validation issues reference these keys via customTextKey/customTextParams.
package textresource

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
)

const defaultLanguage = "en"

// Option customises the store configuration.
type Option func(*Store)

// WithLanguage selects the language rendered by default.
func WithLanguage(language string) Option {
	return func(s *Store) {
		if trimmed := strings.TrimSpace(language); trimmed != "" {
			s.language = trimmed
		}
	}
}

// Store holds text resources per language and renders them on demand.
// Compiled templates are cached per resource value.
type Store struct {
	mu        sync.RWMutex
	language  string
	resources map[string]map[string]string

	set   *pongo2.TemplateSet
	cache map[string]*pongo2.Template
}

// New constructs an empty store.
func New(options ...Option) *Store {
	s := &Store{
		language:  defaultLanguage,
		resources: make(map[string]map[string]string),
		set:       pongo2.NewSet("formflow-textresource", pongo2.MustNewLocalFileSystemLoader("")),
		cache:     make(map[string]*pongo2.Template),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s
}

type resourceDocument struct {
	Language  string `json:"language"`
	Resources []struct {
		ID    string `json:"id"`
		Value string `json:"value"`
	} `json:"resources"`
}

// LoadFS walks the filesystem for JSON resource documents of the shape
// {"language": "...", "resources": [{"id": ..., "value": ...}]} and loads
// every entry. Later files override earlier ones for the same language+id.
func LoadFS(fsys fs.FS, options ...Option) (*Store, error) {
	s := New(options...)
	if fsys == nil {
		return s, nil
	}

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || strings.ToLower(filepath.Ext(path)) != ".json" {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("textresource: read %s: %w", path, err)
		}
		var doc resourceDocument
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("textresource: parse %s: %w", path, err)
		}

		language := strings.TrimSpace(doc.Language)
		if language == "" {
			language = defaultLanguage
		}
		for _, resource := range doc.Resources {
			if strings.TrimSpace(resource.ID) == "" {
				return fmt.Errorf("textresource: file %s has a resource without an id", path)
			}
			s.Add(language, resource.ID, resource.Value)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Add registers one resource value.
func (s *Store) Add(language, key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.resources[language]
	if entries == nil {
		entries = make(map[string]string)
		s.resources[language] = entries
	}
	entries[key] = value
}

// Language returns the store's active language.
func (s *Store) Language() string { return s.language }

// Lookup fetches the raw resource value for the active language.
func (s *Store) Lookup(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.resources[s.language][key]
	return value, ok
}

// Render resolves the key and renders its value as a template with the given
// parameters. Unknown keys render as the key itself so an issue never loses
// its message; template failures fall back to the raw resource value.
func (s *Store) Render(key string, params map[string]any) string {
	value, ok := s.Lookup(key)
	if !ok {
		return key
	}
	if len(params) == 0 || !strings.Contains(value, "{{") {
		return value
	}

	tmpl, err := s.template(value)
	if err != nil {
		return value
	}
	rendered, err := tmpl.Execute(pongo2.Context(params))
	if err != nil {
		return value
	}
	return rendered
}

func (s *Store) template(value string) (*pongo2.Template, error) {
	s.mu.RLock()
	tmpl, ok := s.cache[value]
	s.mu.RUnlock()
	if ok {
		return tmpl, nil
	}

	tmpl, err := s.set.FromString(value)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[value] = tmpl
	s.mu.Unlock()
	return tmpl, nil
}
