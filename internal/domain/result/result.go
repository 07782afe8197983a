// Package result holds the row shape returned by the search backend.
package result

import "strings"

// Row is one search hit: the backend's JSON object for an entry or
// material, addressed by dotted paths.
type Row map[string]any

// Get resolves a dotted path against the row, descending through
// nested objects. Returns nil when any segment is missing.
func (r Row) Get(path string) any {
	var cur any = map[string]any(r)
	for path != "" {
		var seg string
		seg, path, _ = strings.Cut(path, ".")
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur, ok = m[seg]
		if !ok {
			return nil
		}
	}
	return cur
}

// ID returns the row's unique identifier under the given key.
func (r Row) ID(key string) string {
	if s, ok := r.Get(key).(string); ok {
		return s
	}
	return ""
}
