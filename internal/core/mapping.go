package core

import (
	"encoding/json"
	"fmt"
)

// MappingEntry assigns one source header to a target.
type MappingEntry struct {
	Header string      `json:"header"`
	Target FieldTarget `json:"target"`
}

// DuplicateTargetPolicy decides how several headers mapped to the same
// scalar target combine.
type DuplicateTargetPolicy int

const (
	// LastWins lets the later header in mapping order overwrite earlier values.
	LastWins DuplicateTargetPolicy = iota
)

// FieldMapping is an ordered header to target assignment. Headers are
// distinct. Values are immutable; SetTarget returns a modified copy.
type FieldMapping struct {
	entries []MappingEntry
}

// NewFieldMapping builds a mapping from entries, rejecting repeated headers
// and unknown targets.
func NewFieldMapping(entries []MappingEntry) (FieldMapping, error) {
	seen := make(map[string]bool, len(entries))
	out := make([]MappingEntry, len(entries))
	for i, e := range entries {
		if seen[e.Header] {
			return FieldMapping{}, fmt.Errorf("duplicate header %q in mapping", e.Header)
		}
		if !e.Target.Valid() {
			return FieldMapping{}, &TargetError{Target: string(e.Target)}
		}
		seen[e.Header] = true
		out[i] = e
	}
	return FieldMapping{entries: out}, nil
}

// Len returns the number of entries.
func (m FieldMapping) Len() int { return len(m.entries) }

// Entries returns a copy of the entries in order.
func (m FieldMapping) Entries() []MappingEntry {
	out := make([]MappingEntry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Headers returns the mapped headers in order.
func (m FieldMapping) Headers() []string {
	out := make([]string, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.Header
	}
	return out
}

// Target returns the target assigned to header.
func (m FieldMapping) Target(header string) (FieldTarget, bool) {
	for _, e := range m.entries {
		if e.Header == header {
			return e.Target, true
		}
	}
	return TargetIgnore, false
}

// SetTarget returns a copy of m with header reassigned to target. m is unchanged.
func (m FieldMapping) SetTarget(header string, target FieldTarget) (FieldMapping, error) {
	if !target.Valid() {
		return m, &TargetError{Target: string(target)}
	}
	idx := -1
	for i, e := range m.entries {
		if e.Header == header {
			idx = i
			break
		}
	}
	if idx < 0 {
		return m, &HeaderError{Header: header}
	}

	out := m.Entries()
	out[idx].Target = target
	return FieldMapping{entries: out}, nil
}

// Validate checks that m covers exactly the given headers.
func (m FieldMapping) Validate(headers []string) error {
	if len(headers) != len(m.entries) {
		return fmt.Errorf("mapping has %d entries for %d headers", len(m.entries), len(headers))
	}
	for _, h := range headers {
		if _, ok := m.Target(h); !ok {
			return &HeaderError{Header: h}
		}
	}
	return nil
}

// SharedTargets lists scalar targets claimed by more than one header, with
// the headers in mapping order. Under LastWins the last header decides.
func (m FieldMapping) SharedTargets() map[FieldTarget][]string {
	byTarget := make(map[FieldTarget][]string)
	for _, e := range m.entries {
		if e.Target == TargetIgnore || e.Target == TargetImageList || e.Target == TargetCategoryName {
			continue
		}
		byTarget[e.Target] = append(byTarget[e.Target], e.Header)
	}
	for t, hs := range byTarget {
		if len(hs) < 2 {
			delete(byTarget, t)
		}
	}
	return byTarget
}

// MappingFromEntries starts from Infer(headers) and applies each operator
// entry through SetTarget, in order.
func MappingFromEntries(headers []string, entries []MappingEntry) (FieldMapping, error) {
	m := Infer(headers)
	for _, e := range entries {
		var err error
		if m, err = m.SetTarget(e.Header, e.Target); err != nil {
			return FieldMapping{}, err
		}
	}
	return m, nil
}

func (m FieldMapping) MarshalJSON() ([]byte, error) {
	if m.entries == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(m.entries)
}

func (m *FieldMapping) UnmarshalJSON(b []byte) error {
	var entries []MappingEntry
	if err := json.Unmarshal(b, &entries); err != nil {
		return err
	}
	parsed, err := NewFieldMapping(entries)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
