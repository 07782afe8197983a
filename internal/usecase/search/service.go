// Package search coordinates query validation, aggregation shaping and
// the upstream round trip for the gateway's search endpoints.
package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/matdex-io/matdex/internal/domain/filter"
	"github.com/matdex-io/matdex/internal/domain/pagination"
	"github.com/matdex-io/matdex/internal/domain/result"
	"github.com/matdex-io/matdex/internal/expr"
	"github.com/matdex-io/matdex/internal/metrics"
	"github.com/matdex-io/matdex/internal/registry"
	"github.com/matdex-io/matdex/internal/transport/upstream"
)

const (
	defaultAggregationSize = 20
	defaultSuggestionLimit = 10
)

// Service handles search, suggestion and filter-metadata requests.
type Service struct {
	reg       *registry.Registry
	searcher  Searcher
	suggester Suggester
	logger    *zap.Logger
	aggSize   int
	sugLimit  int
}

// New creates a search service. suggester can be nil, in which case
// only locally indexed suggestions are served.
func New(reg *registry.Registry, searcher Searcher, suggester Suggester, logger *zap.Logger) *Service {
	return &Service{
		reg:       reg,
		searcher:  searcher,
		suggester: suggester,
		logger:    logger,
		aggSize:   defaultAggregationSize,
		sugLimit:  defaultSuggestionLimit,
	}
}

// WithLimits overrides the aggregation size and suggestion limit.
func (s *Service) WithLimits(aggSize, sugLimit int) *Service {
	if aggSize > 0 {
		s.aggSize = aggSize
	}
	if sugLimit > 0 {
		s.sugLimit = sugLimit
	}
	return s
}

// Request is one validated search invocation.
type Request struct {
	Resource     filter.Resource
	Query        filter.Query
	Pagination   pagination.Request
	Aggregations []string
	Required     []string
}

// Result is the outcome of one search.
type Result struct {
	Rows         []result.Row
	Pagination   pagination.Combined
	Aggregations map[string][]registry.Bucket
}

// Search validates the query against the registry, fills in global
// defaults, shapes per-filter aggregations and executes the upstream
// query.
func (s *Service) Search(ctx context.Context, req Request) (Result, error) {
	query := req.Query.Clone()
	if query == nil {
		query = filter.Query{}
	}
	if err := s.reg.ValidateQuery(query); err != nil {
		return Result{}, err
	}
	s.applyGlobalDefaults(query, req.Resource)

	encoded, err := s.reg.EncodeQuery(query)
	if err != nil {
		return Result{}, fmt.Errorf("encode query: %w", err)
	}

	aggs, err := s.buildAggregations(req.Aggregations)
	if err != nil {
		return Result{}, err
	}

	metrics.SearchQueriesTotal.WithLabelValues(string(req.Resource)).Inc()

	res, err := s.searcher.Query(ctx, upstream.QueryRequest{
		Resource:     req.Resource,
		Query:        encoded,
		Pagination:   req.Pagination,
		Aggregations: aggs,
		Required:     req.Required,
	})
	if err != nil {
		return Result{}, fmt.Errorf("query %s: %w", req.Resource, err)
	}

	return Result{
		Rows:         res.Rows,
		Pagination:   pagination.Combine(req.Pagination, res.Pagination),
		Aggregations: s.adaptAggregations(req.Aggregations, res.Aggregations),
	}, nil
}

// applyGlobalDefaults fills declared defaults for global filters the
// caller did not set, restricted to filters valid for the resource.
func (s *Service) applyGlobalDefaults(query filter.Query, res filter.Resource) {
	for _, name := range s.reg.Names() {
		f, _ := s.reg.Get(name)
		cfg := f.Config()
		if !cfg.Global || cfg.Default.IsZero() || !cfg.HasResource(res) {
			continue
		}
		if _, ok := query[name]; !ok {
			query[name] = cfg.Default
		}
	}
}

// buildAggregations shapes the upstream aggregation request for each
// named filter. Derived filters contribute their own adapters.
func (s *Service) buildAggregations(names []string) (map[string]map[string]any, error) {
	if len(names) == 0 {
		return nil, nil
	}
	out := make(map[string]map[string]any, len(names))
	for _, name := range names {
		f, ok := s.reg.Resolve(name)
		if !ok {
			return nil, fmt.Errorf("aggregation for unregistered filter %q", name)
		}
		agg := f.AggRequest(s.aggSize)
		if agg == nil {
			continue
		}
		out[f.Name()] = agg
	}
	return out, nil
}

// adaptAggregations runs each filter's response adapter over the raw
// upstream buckets. Derived filters are keyed by their own name even
// though the upstream aggregation ran on the target filter.
func (s *Service) adaptAggregations(
	names []string, raw map[string][]registry.Bucket,
) map[string][]registry.Bucket {
	if len(raw) == 0 {
		return nil
	}
	out := make(map[string][]registry.Bucket, len(raw))
	for _, name := range names {
		f, ok := s.reg.Resolve(name)
		if !ok {
			continue
		}
		buckets, ok := raw[f.Name()]
		if !ok {
			continue
		}
		out[f.Name()] = f.AggResponse(buckets)
	}
	return out
}

// Parse translates one search-bar expression into a filter name and
// value, resolving abbreviations against the registry.
func (s *Service) Parse(input string) (string, filter.Value, error) {
	e, err := expr.Parse(s.reg, input)
	if err != nil {
		return "", filter.Value{}, err
	}
	return e.Name, e.Value, nil
}

// Suggestion is one suggested value for a filter.
type Suggestion struct {
	Value  string  `json:"value"`
	Weight float64 `json:"weight,omitempty"`
}

// Suggest returns value suggestions per filter name. Enum filters are
// answered from the local token index; everything else falls through
// to the upstream suggestion endpoint when one is configured.
func (s *Service) Suggest(ctx context.Context, names []string, input string) (map[string][]Suggestion, error) {
	out := make(map[string][]Suggestion, len(names))
	var remote []string

	for _, name := range names {
		f, ok := s.reg.Resolve(name)
		if !ok {
			return nil, fmt.Errorf("suggestions for unregistered filter %q", name)
		}
		full := f.Name()
		if s.reg.HasValueIndex(full) {
			values := s.reg.SuggestValues(full, input, s.sugLimit)
			suggestions := make([]Suggestion, len(values))
			for i, v := range values {
				suggestions[i] = Suggestion{Value: v}
			}
			out[full] = suggestions
			continue
		}
		remote = append(remote, full)
	}

	if len(remote) > 0 && s.suggester != nil {
		upstreamSugs, err := s.suggester.Suggest(ctx, remote, input)
		if err != nil {
			// Local suggestions are still useful when upstream is down.
			s.logger.Warn("upstream suggestions failed", zap.Error(err))
		} else {
			for name, sugs := range upstreamSugs {
				converted := make([]Suggestion, 0, len(sugs))
				for _, sg := range sugs {
					converted = append(converted, Suggestion{Value: sg.Value, Weight: sg.Weight})
				}
				if len(converted) > s.sugLimit {
					converted = converted[:s.sugLimit]
				}
				out[name] = converted
			}
		}
	}
	return out, nil
}

// SuggestNames returns filter names matching a partial input.
func (s *Service) SuggestNames(input string) []string {
	return s.reg.SuggestNames(input, s.sugLimit)
}

// FilterInfo describes one registered filter for API consumers.
type FilterInfo struct {
	Name        string          `json:"name"`
	Abbrev      string          `json:"abbrev,omitempty"`
	Group       string          `json:"group,omitempty"`
	Label       string          `json:"label,omitempty"`
	Description string          `json:"description,omitempty"`
	DType       string          `json:"dtype"`
	Multiple    bool            `json:"multiple,omitempty"`
	Unit        string          `json:"unit,omitempty"`
	Options     []filter.Option `json:"options,omitempty"`
}

// Filters lists every registered filter with its metadata.
func (s *Service) Filters() []FilterInfo {
	names := s.reg.Names()
	out := make([]FilterInfo, 0, len(names))
	for _, name := range names {
		f, _ := s.reg.Get(name)
		cfg := f.Config()
		info := FilterInfo{
			Name:        name,
			Group:       f.Group(),
			Label:       f.Label(),
			Description: f.Description(),
			DType:       string(cfg.DType),
			Multiple:    cfg.Multiple,
			Unit:        cfg.Unit,
			Options:     cfg.Options,
		}
		if short := s.reg.Abbreviate(name); short != name {
			info.Abbrev = short
		}
		out = append(out, info)
	}
	return out
}
