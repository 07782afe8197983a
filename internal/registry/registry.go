// Package registry is the single source of truth for which attributes
// are searchable and how. A Registry is built once from a declarative
// registration table and is immutable afterwards; consumers receive it
// explicitly instead of importing ambient state.
package registry

import (
	"strings"

	"github.com/matdex-io/matdex/internal/domain"
	"github.com/matdex-io/matdex/internal/domain/filter"
	"github.com/matdex-io/matdex/internal/suggest"
)

// ApplyFunc merges a newly set value for a filter into a query.
type ApplyFunc func(q filter.Query, v filter.Value)

// AggRequestFunc shapes the aggregation request for a filter.
type AggRequestFunc func(size int) map[string]any

// AggResponseFunc reshapes the backend's aggregation buckets for a
// filter, e.g. restricting them to a derived filter's option keys.
type AggResponseFunc func(buckets []Bucket) []Bucket

// Bucket is one aggregation bucket: a value and its result count.
type Bucket struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

// Filter is one registered searchable attribute.
type Filter struct {
	name        string
	group       string
	label       string
	description string
	config      filter.Config
	target      string
	apply       ApplyFunc
	aggRequest  AggRequestFunc
	aggResponse AggResponseFunc
}

// Name returns the full dot-path filter name.
func (f Filter) Name() string { return f.name }

// Group returns the UI grouping category, empty if ungrouped.
func (f Filter) Group() string { return f.group }

// Label returns a human-readable label, derived from the last
// dot-segment unless set explicitly.
func (f Filter) Label() string { return f.label }

// Description returns the optional filter description.
func (f Filter) Description() string { return f.description }

// Config returns the filter's declaration.
func (f Filter) Config() filter.Config { return f.config }

// Target returns the filter this one merges its value into; empty for
// ordinary filters.
func (f Filter) Target() string { return f.target }

// Apply merges a value for this filter into the query using the
// filter's merge function.
func (f Filter) Apply(q filter.Query, v filter.Value) { f.apply(q, v) }

// AggRequest builds the aggregation request for this filter, or nil
// when the filter declares no aggregation.
func (f Filter) AggRequest(size int) map[string]any {
	if f.aggRequest == nil {
		return nil
	}
	return f.aggRequest(size)
}

// AggResponse reshapes backend aggregation buckets for this filter.
func (f Filter) AggResponse(buckets []Bucket) []Bucket {
	if f.aggResponse == nil {
		return buckets
	}
	return f.aggResponse(buckets)
}

// Registry is the immutable filter table plus derived lookup
// structures: abbreviations and suggestion indexes.
type Registry struct {
	filters      map[string]Filter
	order        []string
	groups       map[string][]string
	abbrevs      map[string]string
	fulls        map[string]string
	valueIndexes map[string]*suggest.Index
	nameIndex    *suggest.Index
}

// Get returns the filter registered under the exact full name.
func (r *Registry) Get(name string) (Filter, bool) {
	f, ok := r.filters[name]
	return f, ok
}

// Resolve returns the filter for a full name or an abbreviation.
func (r *Registry) Resolve(name string) (Filter, bool) {
	if f, ok := r.filters[name]; ok {
		return f, true
	}
	if full, ok := r.fulls[name]; ok {
		return r.filters[full], true
	}
	return Filter{}, false
}

// Abbreviate returns the unique short form of a filter name, or the
// full name itself when the short form collides.
func (r *Registry) Abbreviate(full string) string {
	if short, ok := r.abbrevs[full]; ok {
		return short
	}
	return full
}

// FullName maps a short form back to the full name. Unknown or
// ambiguous short forms return the input unchanged.
func (r *Registry) FullName(short string) string {
	if full, ok := r.fulls[short]; ok {
		return full
	}
	return short
}

// Names returns all filter names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Group returns the filter names registered under a group, in
// registration order.
func (r *Registry) Group(group string) []string {
	names := r.groups[group]
	out := make([]string, len(names))
	copy(out, names)
	return out
}

// SetValue merges a value for the named filter into the query.
// The name may be abbreviated. Unknown names are rejected.
func (r *Registry) SetValue(q filter.Query, name string, v filter.Value) error {
	f, ok := r.Resolve(name)
	if !ok {
		return domain.NewUnknownFilter(name)
	}
	f.Apply(q, v)
	return nil
}

// ValidateQuery rejects queries carrying unregistered keys.
func (r *Registry) ValidateQuery(q filter.Query) error {
	for name := range q {
		if _, ok := r.filters[stripModeSuffix(name)]; !ok {
			return domain.NewUnknownFilter(name)
		}
	}
	return nil
}

// SuggestValues returns option values of an enum filter matching the
// input prefix, best matches first.
func (r *Registry) SuggestValues(name, input string, limit int) []string {
	ix, ok := r.valueIndexes[name]
	if !ok {
		return nil
	}
	matches := ix.Match(input)
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// SuggestNames returns filter names matching the input prefix.
func (r *Registry) SuggestNames(input string, limit int) []string {
	matches := r.nameIndex.Match(input)
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// HasValueIndex reports whether the filter has a local suggestion
// index; filters without one rely on the backend's suggestion API.
func (r *Registry) HasValueIndex(name string) bool {
	_, ok := r.valueIndexes[name]
	return ok
}

func lastSegment(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i+1:]
	}
	return name
}

func stripModeSuffix(name string) string {
	for _, suffix := range []string{":any", ":all"} {
		if strings.HasSuffix(name, suffix) {
			return strings.TrimSuffix(name, suffix)
		}
	}
	return name
}
