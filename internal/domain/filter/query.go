package filter

// Query maps filter names to their current values. Keys must be
// registered filter names; enforcement happens wherever a Query
// crosses a trust boundary (session setters, gateway validation).
type Query map[string]Value

// Clone returns an independent shallow copy.
func (q Query) Clone() Query {
	out := make(Query, len(q))
	for k, v := range q {
		out[k] = v
	}
	return out
}

// Equal reports whether two queries hold the same values. Used to
// decide whether a state change requires a re-fetch.
func (q Query) Equal(other Query) bool {
	if len(q) != len(other) {
		return false
	}
	for k, v := range q {
		ov, ok := other[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}
