package scanner

import (
	"encoding/json"
	"fmt"
	"sort"
)

// StringSet is an unordered, deduplicated collection of strings. Enumeration
// order is unspecified; JSON serialization sorts members for stable output.
type StringSet map[string]struct{}

// NewStringSet builds a set from the given values.
func NewStringSet(values ...string) StringSet {
	s := make(StringSet, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

// Add inserts a value into the set.
func (s StringSet) Add(v string) {
	s[v] = struct{}{}
}

// Has reports whether the set contains v.
func (s StringSet) Has(v string) bool {
	_, ok := s[v]
	return ok
}

// Len returns the number of members.
func (s StringSet) Len() int {
	return len(s)
}

// Values returns the members sorted lexicographically.
func (s StringSet) Values() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Equal reports set equality irrespective of enumeration order.
func (s StringSet) Equal(other StringSet) bool {
	if len(s) != len(other) {
		return false
	}
	for v := range s {
		if !other.Has(v) {
			return false
		}
	}
	return true
}

// MarshalJSON serializes the set as a sorted JSON array. A nil set
// serializes as an empty array rather than null.
func (s StringSet) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(s.Values())
	if err != nil {
		return nil, fmt.Errorf("marshal string set: %w", err)
	}
	return data, nil
}

// UnmarshalJSON restores the set from a JSON array.
func (s *StringSet) UnmarshalJSON(data []byte) error {
	var values []string
	if err := json.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("unmarshal string set: %w", err)
	}
	*s = NewStringSet(values...)
	return nil
}
