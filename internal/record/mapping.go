package record

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/goccy/go-json"
)

// Mapping holds records keyed by id.
type Mapping map[string]Record

// Values returns every record sorted by id.
func (m Mapping) Values() []Record {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]Record, 0, len(ids))
	for _, id := range ids {
		out = append(out, m[id].Clone())
	}
	return out
}

// Clone returns a copy of the mapping with each record shallow-copied.
func (m Mapping) Clone() Mapping {
	out := make(Mapping, len(m))
	for id, rec := range m {
		out[id] = rec.Clone()
	}
	return out
}

// MergeSummaries folds list summaries into the mapping and reports whether
// anything changed.
//
// Invariant: a summary replaces the held record only when the record is
// absent or the summary's version differs from the held version. On
// replacement the held version value is carried over and the full-data flag is
// cleared, so the record still compares stale against the next detail
// response and a detail fetch is forced.
func (m Mapping) MergeSummaries(summaries []Record, idField, versionField string) bool {
	updated := false
	for _, summary := range summaries {
		id := summary.ID(idField)
		if id == "" {
			continue
		}

		current, exists := m[id]
		summaryVersion, _ := summary.Version(versionField)
		if exists {
			currentVersion, _ := current.Version(versionField)
			if VersionsEqual(currentVersion, summaryVersion) {
				continue
			}
		}

		next := summary.Clone()
		next.MarkFullDataLoaded(false)
		if exists {
			if held, ok := current.Version(versionField); ok {
				next[versionField] = held
			}
		}
		m[id] = next
		updated = true
	}
	return updated
}

// Encode serializes the mapping for the storage bridge.
func (m Mapping) Encode() ([]byte, error) {
	if m == nil {
		m = Mapping{}
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal mapping: %w", err)
	}
	return data, nil
}

// Decode parses a serialized mapping. Empty input decodes to an empty mapping.
func Decode(data []byte) (Mapping, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Mapping{}, nil
	}
	var m Mapping
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse mapping: %w", err)
	}
	if m == nil {
		m = Mapping{}
	}
	return m, nil
}
