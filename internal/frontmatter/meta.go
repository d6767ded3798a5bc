package frontmatter

import (
	"fmt"
	"time"
)

// Meta holds the parsed frontmatter fields of a page.
//
// Values keep the types yaml.v3 assigns them: string, bool, int, float64,
// time.Time for unquoted dates, []any for sequences.
type Meta map[string]any

// Value returns the raw value for key, or nil.
func (m Meta) Value(key string) any {
	if m == nil {
		return nil
	}
	return m[key]
}

// Has reports whether key is present.
func (m Meta) Has(key string) bool {
	_, ok := m[key]
	return ok
}

// String returns the value for key if it is a string, else fallback.
func (m Meta) String(key, fallback string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return fallback
}

// Bool returns the value for key if it is a bool, else false.
func (m Meta) Bool(key string) bool {
	b, _ := m[key].(bool)
	return b
}

// Truthy reports whether key is present with a non-false, non-empty value.
// A date, a non-empty string, and `true` are all truthy; this matches how
// fields like `published` double as both a flag and a date.
func (m Meta) Truthy(key string) bool {
	v, ok := m[key]
	if !ok || v == nil {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t != ""
	case time.Time:
		return !t.IsZero()
	case []any:
		return len(t) > 0
	default:
		return true
	}
}

// StringList returns the value for key as a list of strings. Scalars become
// a single-element list; sequence elements are stringified.
func (m Meta) StringList(key string) []string {
	v, ok := m[key]
	if !ok || v == nil {
		return nil
	}
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			out = append(out, fmt.Sprintf("%v", item))
		}
		return out
	case []string:
		return t
	case string:
		if t == "" {
			return nil
		}
		return []string{t}
	default:
		return []string{fmt.Sprintf("%v", t)}
	}
}
