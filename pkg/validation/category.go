// Package validation models validation records, their bitmask categories, and
// the merge/visibility rules applied to backend and frontend results.
package validation

import "strings"

// Category classifies a validation's origin. Atomic categories are single
// bits; the combination constants exist only as query masks and must never be
// stored on a record.
type Category uint8

const (
	CategorySchema Category = 1 << iota
	CategoryComponent
	CategoryExpression
	CategoryCustomBackend
	CategoryRequired
	CategoryBackend
)

const (
	// CategoryAllExceptRequired is the default query mask: everything user
	// input can fix immediately, minus required-field noise.
	CategoryAllExceptRequired = CategorySchema | CategoryComponent | CategoryExpression | CategoryCustomBackend

	// CategoryAll adds required-field validations to the query.
	CategoryAll = CategoryAllExceptRequired | CategoryRequired

	// CategoryAllIncludingBackend also queries backend-only validations.
	CategoryAllIncludingBackend = CategoryAll | CategoryBackend
)

// IsAtomic reports whether the category is exactly one bit. The zero category
// is not atomic; it marks a record as immediately visible under any mask.
func (c Category) IsAtomic() bool {
	return c != 0 && c&(c-1) == 0
}

var categoryNames = map[Category]string{
	CategorySchema:        "schema",
	CategoryComponent:     "component",
	CategoryExpression:    "expression",
	CategoryCustomBackend: "customBackend",
	CategoryRequired:      "required",
	CategoryBackend:       "backend",
}

func (c Category) String() string {
	if c == 0 {
		return "immediate"
	}
	if name, ok := categoryNames[c]; ok {
		return name
	}
	var parts []string
	for bit := CategorySchema; bit <= CategoryBackend; bit <<= 1 {
		if c&bit != 0 {
			parts = append(parts, categoryNames[bit])
		}
	}
	return strings.Join(parts, "|")
}

// NodeVisibility is the lens a consumer queries validations through: the
// named "visible" and "showAll" modes, or an explicit mask.
type NodeVisibility struct {
	name string
	mask Category
}

var (
	// VisibilityVisible is the ordinary rendering query.
	VisibilityVisible = NodeVisibility{name: "visible", mask: CategoryAllExceptRequired}

	// VisibilityShowAll is the submit-attempt query: everything, including
	// backend-only records.
	VisibilityShowAll = NodeVisibility{name: "showAll", mask: CategoryAll}
)

// MaskVisibility builds an explicit-mask query.
func MaskVisibility(mask Category) NodeVisibility {
	return NodeVisibility{mask: mask}
}

// Mask exposes the query mask backing this visibility.
func (v NodeVisibility) Mask() Category { return v.mask }

func (v NodeVisibility) String() string {
	if v.name != "" {
		return v.name
	}
	return v.mask.String()
}

// Visible decides whether a record with the given category passes the query.
// A zero category is always visible; showAll additionally admits any record
// carrying the Backend bit.
func (v NodeVisibility) Visible(category Category) bool {
	if category == 0 {
		return true
	}
	if v.name == VisibilityShowAll.name && category&CategoryBackend != 0 {
		return true
	}
	return category&v.mask != 0
}
