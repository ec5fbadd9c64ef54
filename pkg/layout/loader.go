package layout

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

type pageDocument struct {
	ID         string      `json:"id" yaml:"id"`
	Components []Component `json:"components" yaml:"components"`
}

// LoadFS walks the provided filesystem and parses JSON/YAML layout pages, one
// page per file. Pages are ordered by file path; a file may override its
// derived id via the document's id field. Duplicate page ids are errors.
func LoadFS(fsys fs.FS) (*Layout, error) {
	out := &Layout{}
	if fsys == nil {
		return out, nil
	}

	seen := make(map[string]string)
	var paths []string
	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isLayoutFile(path) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	for _, path := range paths {
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return nil, fmt.Errorf("layout: read %s: %w", path, err)
		}

		doc, err := parsePage(data, path)
		if err != nil {
			return nil, err
		}

		id := strings.TrimSpace(doc.ID)
		if id == "" {
			id = pageIDFromPath(path)
		}
		if prev, exists := seen[id]; exists {
			return nil, fmt.Errorf("layout: duplicate page %q (files %s, %s)", id, prev, path)
		}
		seen[id] = path

		page := Page{ID: id, Components: doc.Components}
		if err := validatePage(page, path); err != nil {
			return nil, err
		}
		out.Pages = append(out.Pages, page)
	}

	return out, nil
}

func parsePage(data []byte, path string) (pageDocument, error) {
	var doc pageDocument
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &doc); err != nil {
			return doc, fmt.Errorf("layout: parse %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return doc, fmt.Errorf("layout: parse %s: %w", path, err)
		}
	default:
		return doc, fmt.Errorf("layout: unsupported file %s", path)
	}
	return doc, nil
}

func validatePage(page Page, path string) error {
	ids := make(map[string]struct{})
	var err error
	(&Layout{Pages: []Page{page}}).Walk(func(c *Component) bool {
		if err != nil {
			return false
		}
		id := strings.TrimSpace(c.ID)
		if id == "" {
			err = fmt.Errorf("layout: file %s contains a component without an id", path)
			return false
		}
		if _, exists := ids[id]; exists {
			err = fmt.Errorf("layout: duplicate component %q (file %s)", id, path)
			return false
		}
		ids[id] = struct{}{}

		if c.IsRepeatingGroup() && c.GroupBinding() == "" {
			err = fmt.Errorf("layout: repeating group %q missing group binding (file %s)", id, path)
			return false
		}
		return true
	})
	return err
}

func isLayoutFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}

func pageIDFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
