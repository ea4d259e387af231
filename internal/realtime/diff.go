package realtime

import (
	"encoding/json"
	"reflect"
	"sort"
	"strconv"

	"restaurant-realtime/internal/domain"
)

// ChangedFields returns the sorted names of every key in after whose value
// differs from the same key in before. A key missing from before counts as
// changed; keys only present in before are ignored.
func ChangedFields(before, after domain.Record) []string {
	changed := make([]string, 0)
	for key, value := range after {
		old, ok := before[key]
		if !ok || !shallowEqual(old, value) {
			changed = append(changed, key)
		}
	}
	sort.Strings(changed)
	return changed
}

// fieldChanged reports whether field would appear in ChangedFields(before, after).
func fieldChanged(before, after domain.Record, field string) bool {
	value, ok := after[field]
	if !ok {
		return false
	}
	old, ok := before[field]
	return !ok || !shallowEqual(old, value)
}

// shallowEqual compares scalars by value. Maps and slices never compare equal,
// two decoded JSON objects are distinct values even with the same contents.
func shallowEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) || !ta.Comparable() {
		return false
	}
	return a == b
}

// toFloat reads a numeric column value.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		// postgres numeric columns can arrive as strings
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}
