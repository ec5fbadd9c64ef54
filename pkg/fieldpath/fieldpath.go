// Package fieldpath manipulates dotted data-model paths used by layout
// bindings. A path is a sequence of segments joined by "."; a segment that is
// all digits is a repeating-group row index (persons.0.name) and a segment
// wrapped in braces is an index placeholder (persons.{idx}.name) standing in
// for a row index that has not been resolved yet.
package fieldpath

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Indicator is the canonical placeholder segment emitted when a concrete row
// index is stripped from a path. Any brace-wrapped segment is accepted on
// input.
const Indicator = "{idx}"

// ErrMalformedPath reports a placeholder/index arity mismatch.
var ErrMalformedPath = errors.New("fieldpath: malformed path")

// MalformedPathError carries the offending path together with the expected
// and supplied index counts.
type MalformedPathError struct {
	Path string
	Want int
	Got  int
}

func (e *MalformedPathError) Error() string {
	return fmt.Sprintf("fieldpath: path %q has %d placeholders, got %d indexes", e.Path, e.Want, e.Got)
}

func (e *MalformedPathError) Unwrap() error { return ErrMalformedPath }

// Split breaks a dotted path into segments. Empty paths split to nil.
func Split(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

// Join assembles segments into a dotted path, skipping empty segments.
func Join(segments ...string) string {
	out := make([]string, 0, len(segments))
	for _, segment := range segments {
		if segment == "" {
			continue
		}
		out = append(out, segment)
	}
	return strings.Join(out, ".")
}

// IsIndex reports whether a segment is a concrete row index.
func IsIndex(segment string) bool {
	if segment == "" {
		return false
	}
	for _, r := range segment {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// IsIndicator reports whether a segment is an index placeholder.
func IsIndicator(segment string) bool {
	return len(segment) >= 2 && segment[0] == '{' && segment[len(segment)-1] == '}'
}

// WithoutIndexes strips every concrete row index from the path:
// persons.1.name becomes persons.name.
func WithoutIndexes(path string) string {
	segments := Split(path)
	out := make([]string, 0, len(segments))
	for _, segment := range segments {
		if IsIndex(segment) {
			continue
		}
		out = append(out, segment)
	}
	return strings.Join(out, ".")
}

// WithoutIndicators strips every placeholder segment from the path:
// persons.{idx}.name becomes persons.name. Concrete indices survive.
func WithoutIndicators(path string) string {
	segments := Split(path)
	out := make([]string, 0, len(segments))
	for _, segment := range segments {
		if IsIndicator(segment) {
			continue
		}
		out = append(out, segment)
	}
	return strings.Join(out, ".")
}

// HasIndicators reports whether any segment of the path is a placeholder.
func HasIndicators(path string) bool {
	for _, segment := range Split(path) {
		if IsIndicator(segment) {
			return true
		}
	}
	return false
}

// Indexes extracts the concrete row indices of the path in left-to-right
// order. Paths without indices yield nil.
func Indexes(path string) []int {
	var out []int
	for _, segment := range Split(path) {
		if !IsIndex(segment) {
			continue
		}
		n, err := strconv.Atoi(segment)
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	return out
}

// ReplaceIndicators substitutes the path's placeholder segments with the
// supplied indices in encounter order. The placeholder count must equal
// len(indexes); a mismatch returns a *MalformedPathError.
func ReplaceIndicators(path string, indexes []int) (string, error) {
	segments := Split(path)
	want := 0
	for _, segment := range segments {
		if IsIndicator(segment) {
			want++
		}
	}
	if want != len(indexes) {
		return "", &MalformedPathError{Path: path, Want: want, Got: len(indexes)}
	}

	next := 0
	out := make([]string, len(segments))
	for i, segment := range segments {
		if IsIndicator(segment) {
			out[i] = strconv.Itoa(indexes[next])
			next++
			continue
		}
		out[i] = segment
	}
	return strings.Join(out, "."), nil
}

// ToTemplate replaces every concrete row index with the canonical Indicator,
// producing the template form of an already-resolved path.
func ToTemplate(path string) string {
	segments := Split(path)
	out := make([]string, len(segments))
	for i, segment := range segments {
		if IsIndex(segment) {
			out[i] = Indicator
			continue
		}
		out[i] = segment
	}
	return strings.Join(out, ".")
}
