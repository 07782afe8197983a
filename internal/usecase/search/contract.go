package search

import (
	"context"

	"github.com/matdex-io/matdex/internal/transport/upstream"
)

// Searcher runs queries against the upstream search API. Satisfied by
// the upstream client and its caching decorator.
type Searcher interface {
	Query(ctx context.Context, req upstream.QueryRequest) (upstream.QueryResult, error)
}

// Suggester asks the upstream API for server-backed value suggestions.
type Suggester interface {
	Suggest(ctx context.Context, quantities []string, input string) (map[string][]upstream.Suggestion, error)
}
