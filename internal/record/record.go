// Package record provides the flat record model held by a sync Store.
package record

import (
	"fmt"
	"math"
	"reflect"

	"github.com/google/uuid"
)

// FullDataLoadedField marks a record that has received its complete detail
// payload, as opposed to only the summary fields returned by a list call.
const FullDataLoadedField = "fh_full_data_loaded"

// Record is an arbitrary mapping of fields.
//
// A record held by a Store always carries a unique id under the Store's id
// field and, once it has been seen remotely, a version under the Store's
// version field.
type Record map[string]any

// NewGUID returns a random id for records created without one.
func NewGUID() string {
	return uuid.NewString()
}

// ID returns the id stored under idField, formatted as a string.
// Returns "" if the field is absent or empty.
func (r Record) ID(idField string) string {
	v, ok := r[idField]
	if !ok || v == nil {
		return ""
	}
	switch id := v.(type) {
	case string:
		return id
	case float64:
		if id == math.Trunc(id) {
			return fmt.Sprintf("%.0f", id)
		}
		return fmt.Sprintf("%v", id)
	default:
		return fmt.Sprintf("%v", id)
	}
}

// SetID stores id under idField.
func (r Record) SetID(idField, id string) {
	r[idField] = id
}

// Version returns the raw version value and whether one is present.
func (r Record) Version(versionField string) (any, bool) {
	v, ok := r[versionField]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// FullDataLoaded reports whether the complete detail payload has been adopted.
func (r Record) FullDataLoaded() bool {
	loaded, _ := r[FullDataLoadedField].(bool)
	return loaded
}

// MarkFullDataLoaded sets or clears the full-data flag.
func (r Record) MarkFullDataLoaded(loaded bool) {
	if loaded {
		r[FullDataLoadedField] = true
		return
	}
	delete(r, FullDataLoadedField)
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// VersionsEqual compares two version values strictly by value.
//
// Numbers compare numerically whatever their Go type, since decoded JSON
// yields float64 while callers often build records with ints. Values of
// different kinds (1 vs "1") are never equal.
func VersionsEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	fa, aNum := toFloat(a)
	fb, bNum := toFloat(b)
	if aNum || bNum {
		return aNum && bNum && fa == fb
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
