package registry

import (
	"fmt"

	"github.com/matdex-io/matdex/internal/domain/filter"
	"github.com/matdex-io/matdex/internal/suggest"
)

// Sub declares a nested filter registered as "<parent>.<name>".
type Sub struct {
	Name   string
	Config filter.Config
	Subs   []Sub
}

// Builder accumulates filter registrations and produces an immutable
// Registry. Registration errors are programming errors in the
// declarative table; they surface on Build, and MustBuild panics.
type Builder struct {
	filters map[string]Filter
	order   []string
	groups  map[string][]string
	errs    []error
}

// NewBuilder creates an empty registry builder.
func NewBuilder() *Builder {
	return &Builder{
		filters: make(map[string]Filter),
		groups:  make(map[string][]string),
	}
}

// Register declares a filter under the given name and group, plus any
// nested sub-filters under "<name>.<sub>".
func (b *Builder) Register(name, group string, cfg filter.Config, subs ...Sub) *Builder {
	b.register(name, group, cfg)
	for _, sub := range subs {
		b.Register(name+"."+sub.Name, group, sub.Config, sub.Subs...)
	}
	return b
}

func (b *Builder) register(name, group string, cfg filter.Config) {
	if name == "" {
		b.errs = append(b.errs, fmt.Errorf("filter name is required"))
		return
	}
	cfg = cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		b.errs = append(b.errs, fmt.Errorf("filter %q: %w", name, err))
		return
	}

	f := Filter{
		name:   name,
		group:  group,
		label:  lastSegment(name),
		config: cfg,
	}
	f.apply = defaultApply(name, cfg)
	if cfg.Aggregation != nil {
		f.aggRequest = defaultAggRequest(name, *cfg.Aggregation)
	}

	b.put(f)
}

// RegisterOptions declares a derived filter whose value is a named
// subset of another filter's possible values. Selected option keys
// union into the target filter's query value, and aggregations are
// requested against the target restricted to the option keys.
func (b *Builder) RegisterOptions(
	name, group, target, label, description string,
	options []filter.Option,
) *Builder {
	if len(options) == 0 {
		b.errs = append(b.errs, fmt.Errorf("filter %q: derived filter declares no options", name))
		return b
	}
	cfg := filter.Config{
		DType:    filter.Enum,
		Multiple: true,
		Options:  options,
	}.Normalize()
	if err := cfg.Validate(); err != nil {
		b.errs = append(b.errs, fmt.Errorf("filter %q: %w", name, err))
		return b
	}

	keys := make([]string, len(options))
	keySet := make(map[string]struct{}, len(options))
	for i, opt := range options {
		keys[i] = opt.Value
		keySet[opt.Value] = struct{}{}
	}

	f := Filter{
		name:        name,
		group:       group,
		label:       label,
		description: description,
		config:      cfg,
		target:      target,
	}
	if f.label == "" {
		f.label = lastSegment(name)
	}
	f.apply = func(q filter.Query, v filter.Value) {
		q[target] = q[target].Union(filter.Set(v.Items()...))
	}
	f.aggRequest = func(size int) map[string]any {
		return map[string]any{
			"terms": map[string]any{
				"quantity": target,
				"size":     size,
				"include":  keys,
			},
		}
	}
	f.aggResponse = func(buckets []Bucket) []Bucket {
		out := make([]Bucket, 0, len(keys))
		counts := make(map[string]int64, len(buckets))
		for _, bkt := range buckets {
			if _, ok := keySet[bkt.Value]; ok {
				counts[bkt.Value] = bkt.Count
			}
		}
		for _, key := range keys {
			out = append(out, Bucket{Value: key, Count: counts[key]})
		}
		return out
	}

	b.put(f)
	return b
}

func (b *Builder) put(f Filter) {
	if _, exists := b.filters[f.name]; !exists {
		b.order = append(b.order, f.name)
		if f.group != "" {
			b.groups[f.group] = append(b.groups[f.group], f.name)
		}
	}
	b.filters[f.name] = f
}

// Build finalizes the registry: resolves abbreviations and constructs
// the suggestion indexes. Any registration error fails the build.
func (b *Builder) Build() (*Registry, error) {
	if len(b.errs) > 0 {
		return nil, b.errs[0]
	}

	r := &Registry{
		filters:      b.filters,
		order:        b.order,
		groups:       b.groups,
		abbrevs:      make(map[string]string),
		fulls:        make(map[string]string),
		valueIndexes: make(map[string]*suggest.Index),
	}

	// Short form per filter: the last dot-segment, usable only when it
	// is unique across the whole table.
	shortCount := make(map[string]int)
	for _, name := range b.order {
		shortCount[lastSegment(name)]++
	}
	for _, name := range b.order {
		short := lastSegment(name)
		if short != name && shortCount[short] == 1 {
			r.abbrevs[name] = short
			r.fulls[short] = name
		}
	}

	for _, name := range b.order {
		cfg := b.filters[name].config
		if cfg.DType != filter.Enum {
			continue
		}
		values := make([]string, len(cfg.Options))
		for i, opt := range cfg.Options {
			values[i] = opt.Value
		}
		r.valueIndexes[name] = suggest.Build(values)
	}
	r.nameIndex = suggest.Build(b.order)

	return r, nil
}

// MustBuild builds the registry or panics. Intended for the fixed
// declarative table evaluated at process start-up.
func (b *Builder) MustBuild() *Registry {
	r, err := b.Build()
	if err != nil {
		panic(err)
	}
	return r
}

func defaultApply(name string, cfg filter.Config) ApplyFunc {
	return func(q filter.Query, v filter.Value) {
		q[name] = cfg.Merge(q[name], v)
	}
}

func defaultAggRequest(name string, agg filter.Aggregation) AggRequestFunc {
	return func(size int) map[string]any {
		if size <= 0 {
			size = agg.Size
		}
		switch agg.Type {
		case filter.AggHistogram:
			return map[string]any{
				"histogram": map[string]any{"quantity": name, "buckets": size},
			}
		case filter.AggMinMax:
			return map[string]any{
				"min_max": map[string]any{"quantity": name},
			}
		default:
			return map[string]any{
				"terms": map[string]any{"quantity": name, "size": size},
			}
		}
	}
}
