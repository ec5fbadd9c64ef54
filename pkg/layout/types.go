// Package layout models the page/component tree a form session renders from.
// The tree is consumed read-only by the option-list orchestrator and the
// validation layer; loading and normalization live in loader.go.
package layout

import "strings"

// ComponentType is the simplified enum of component kinds the state layer
// cares about. Renderer-specific kinds pass through untouched.
type ComponentType string

const (
	ComponentTypeInput        ComponentType = "input"
	ComponentTypeSelect       ComponentType = "select"
	ComponentTypeDropdown     ComponentType = "dropdown"
	ComponentTypeCheckboxes   ComponentType = "checkboxes"
	ComponentTypeRadioButtons ComponentType = "radioButtons"
	ComponentTypeGroup        ComponentType = "group"
)

// OptionSource describes a component's binding to a remote option list: the
// list id, the mapping from destination option key to data-model field path,
// and whether the fetch must be performed with the user's credentials.
type OptionSource struct {
	ListID      string            `json:"id" yaml:"id"`
	Mapping     map[string]string `json:"mapping,omitempty" yaml:"mapping,omitempty"`
	Secure      bool              `json:"secure,omitempty" yaml:"secure,omitempty"`
	QueryParams map[string]string `json:"queryParams,omitempty" yaml:"queryParams,omitempty"`
}

// Component is a single node in the layout tree. Group components with
// MaxCount > 1 repeat; their children's bindings are relative to the group
// binding and gain one row index per repetition.
type Component struct {
	ID                string            `json:"id" yaml:"id"`
	Type              ComponentType     `json:"type" yaml:"type"`
	DataModelBindings map[string]string `json:"dataModelBindings,omitempty" yaml:"dataModelBindings,omitempty"`
	Options           *OptionSource     `json:"optionSource,omitempty" yaml:"optionSource,omitempty"`
	Required          bool              `json:"required,omitempty" yaml:"required,omitempty"`
	ReadOnly          bool              `json:"readOnly,omitempty" yaml:"readOnly,omitempty"`
	MaxCount          int               `json:"maxCount,omitempty" yaml:"maxCount,omitempty"`
	Children          []Component       `json:"children,omitempty" yaml:"children,omitempty"`
	Metadata          map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// IsRepeatingGroup reports whether the component is a group that repeats.
func (c Component) IsRepeatingGroup() bool {
	return c.Type == ComponentTypeGroup && c.MaxCount > 1
}

// GroupBinding returns the data-model path the group repeats over.
func (c Component) GroupBinding() string {
	if c.DataModelBindings == nil {
		return ""
	}
	return c.DataModelBindings["group"]
}

// SimpleBinding returns the data-model path the component reads and writes.
func (c Component) SimpleBinding() string {
	if c.DataModelBindings == nil {
		return ""
	}
	return c.DataModelBindings["simpleBinding"]
}

// HasOptionSource reports whether the component fetches a remote option list.
func (c Component) HasOptionSource() bool {
	return c.Options != nil && strings.TrimSpace(c.Options.ListID) != ""
}

// Page is one layout page in display order.
type Page struct {
	ID         string      `json:"id" yaml:"id"`
	Components []Component `json:"components" yaml:"components"`
}

// Layout is the full set of pages for a form session.
type Layout struct {
	Pages []Page
}

// Visit is invoked once per component during a Walk. Returning false stops
// descent into the component's children without aborting the walk.
type Visit func(c *Component) bool

// Walk visits every component on every page in document order, descending
// into group children.
func (l *Layout) Walk(fn Visit) {
	if l == nil || fn == nil {
		return
	}
	for p := range l.Pages {
		walkComponents(l.Pages[p].Components, fn)
	}
}

func walkComponents(components []Component, fn Visit) {
	for i := range components {
		c := &components[i]
		if !fn(c) {
			continue
		}
		if len(c.Children) > 0 {
			walkComponents(c.Children, fn)
		}
	}
}

// Component looks up a component by id anywhere in the tree.
func (l *Layout) Component(id string) (*Component, bool) {
	var found *Component
	l.Walk(func(c *Component) bool {
		if found != nil {
			return false
		}
		if c.ID == id {
			found = c
			return false
		}
		return true
	})
	return found, found != nil
}
