// Package suggest provides a precomputed token index for prefix
// matching over enumerated filter values and filter names. Indexes are
// built once and immutable afterwards; lookups are pure in-memory
// computations.
package suggest

import (
	"sort"
	"strings"
)

// Index maps normalized token suffixes to the values that produced
// them, enabling substring-style prefix search without a scan.
type Index struct {
	byToken map[string][]string
}

// Build constructs an index over the given values. Each value is
// lower-cased, underscores are treated as separators alongside spaces
// and periods, and every non-empty suffix of every token is indexed so
// a prefix query matches mid-token too.
func Build(values []string) *Index {
	byToken := make(map[string][]string)
	for _, value := range values {
		seen := make(map[string]struct{})
		for _, token := range tokenize(value) {
			for i := 0; i < len(token); i++ {
				suffix := token[i:]
				if _, dup := seen[suffix]; dup {
					continue
				}
				seen[suffix] = struct{}{}
				byToken[suffix] = append(byToken[suffix], value)
			}
		}
	}
	return &Index{byToken: byToken}
}

// Match returns all values with a token suffix starting with the given
// input, best matches first: exact token hits before mid-token hits,
// ties broken alphabetically. Empty input matches nothing.
func (ix *Index) Match(input string) []string {
	input = normalize(input)
	if input == "" {
		return nil
	}

	type hit struct {
		value string
		exact bool
	}
	var hits []hit
	seen := make(map[string]struct{})
	for suffix, values := range ix.byToken {
		if !strings.HasPrefix(suffix, input) {
			continue
		}
		for _, v := range values {
			if _, dup := seen[v]; dup {
				continue
			}
			seen[v] = struct{}{}
			hits = append(hits, hit{value: v, exact: hasTokenPrefix(v, input)})
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].exact != hits[j].exact {
			return hits[i].exact
		}
		return hits[i].value < hits[j].value
	})

	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.value
	}
	return out
}

// Size returns the number of indexed token suffixes.
func (ix *Index) Size() int { return len(ix.byToken) }

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func tokenize(value string) []string {
	norm := normalize(value)
	fields := strings.FieldsFunc(norm, func(r rune) bool {
		return r == ' ' || r == '.' || r == '_'
	})
	// Joined form keeps "band_gap" reachable via "bandgap".
	joined := strings.NewReplacer(" ", "", ".", "", "_", "").Replace(norm)
	if joined != "" {
		fields = append(fields, joined)
	}
	return fields
}

func hasTokenPrefix(value, input string) bool {
	for _, token := range tokenize(value) {
		if strings.HasPrefix(token, input) {
			return true
		}
	}
	return false
}
