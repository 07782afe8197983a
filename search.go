package matdex

import (
	"context"
	"fmt"

	"github.com/matdex-io/matdex/internal/domain"
	"github.com/matdex-io/matdex/internal/domain/filter"
	"github.com/matdex-io/matdex/internal/domain/pagination"
	"github.com/matdex-io/matdex/internal/registry"
	searchuc "github.com/matdex-io/matdex/internal/usecase/search"
)

// SearchBuilder is a fluent builder for one search query. The first
// error encountered while building is latched and returned by Do.
type SearchBuilder struct {
	client   *Client
	resource Resource

	query filter.Query

	page     int
	pageSize int
	orderBy  string
	order    Order
	cursor   string

	aggs     []string
	required []string

	err error
}

// Where sets a filter from its encoded string form. Sets join with
// commas, ranges use the bound:number notation ("gt:0.5,lt:2").
func (b *SearchBuilder) Where(name, raw string) *SearchBuilder {
	if b.err != nil {
		return b
	}
	f, ok := b.client.reg.Resolve(name)
	if !ok {
		b.err = domain.NewUnknownFilter(name)
		return b
	}
	v, err := f.Config().DecodeValue(raw)
	if err != nil {
		b.err = fmt.Errorf("filter %q: %w", name, err)
		return b
	}
	return b.set(f, v)
}

// WhereValue sets a filter from an already typed value.
func (b *SearchBuilder) WhereValue(name string, v Value) *SearchBuilder {
	if b.err != nil {
		return b
	}
	f, ok := b.client.reg.Resolve(name)
	if !ok {
		b.err = domain.NewUnknownFilter(name)
		return b
	}
	return b.set(f, v)
}

// Expr parses a search-bar expression ("band_gap >= 1.5", "1 < n_elements < 5")
// and applies the resulting filter.
func (b *SearchBuilder) Expr(input string) *SearchBuilder {
	if b.err != nil {
		return b
	}
	name, v, err := b.client.svc.Parse(input)
	if err != nil {
		b.err = err
		return b
	}
	f, ok := b.client.reg.Get(name)
	if !ok {
		b.err = domain.NewUnknownFilter(name)
		return b
	}
	return b.set(f, v)
}

// set merges through the filter's apply function so derived option
// filters union into their target key.
func (b *SearchBuilder) set(f registry.Filter, v Value) *SearchBuilder {
	if b.query == nil {
		b.query = filter.Query{}
	}
	f.Apply(b.query, v)
	return b
}

// Page sets the 1-based page number.
func (b *SearchBuilder) Page(n int) *SearchBuilder {
	b.page = n
	return b
}

// PageSize sets the number of rows per page.
func (b *SearchBuilder) PageSize(n int) *SearchBuilder {
	b.pageSize = n
	return b
}

// OrderBy sets the sort column and direction.
func (b *SearchBuilder) OrderBy(name string, order Order) *SearchBuilder {
	if b.err != nil {
		return b
	}
	f, ok := b.client.reg.Resolve(name)
	if !ok {
		b.err = domain.NewUnknownFilter(name)
		return b
	}
	b.orderBy = f.Name()
	b.order = order
	return b
}

// After continues a cursor walk from the given page_after_value.
// Mutually exclusive with Page.
func (b *SearchBuilder) After(cursor string) *SearchBuilder {
	b.cursor = cursor
	return b
}

// Aggregate requests aggregation buckets for the named filters.
func (b *SearchBuilder) Aggregate(names ...string) *SearchBuilder {
	b.aggs = append(b.aggs, names...)
	return b
}

// Require names the dotted paths each returned row must include.
func (b *SearchBuilder) Require(paths ...string) *SearchBuilder {
	b.required = append(b.required, paths...)
	return b
}

// Results is the outcome of one search.
type Results struct {
	Rows               []Row
	Total              int64
	Page               int
	PageSize           int
	NextPageAfterValue string
	Aggregations       map[string][]Bucket
}

// HasMore reports whether another page can be fetched.
func (r *Results) HasMore() bool {
	return r.NextPageAfterValue != ""
}

// Do executes the query.
func (b *SearchBuilder) Do(ctx context.Context) (*Results, error) {
	if b.err != nil {
		return nil, b.err
	}

	page, err := pagination.NewRequest(b.page, b.pageSize, b.orderBy, b.order, b.cursor)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	res, err := b.client.svc.Search(ctx, searchuc.Request{
		Resource:     b.resource,
		Query:        b.query,
		Pagination:   page,
		Aggregations: b.aggs,
		Required:     b.required,
	})
	if err != nil {
		return nil, err
	}

	return &Results{
		Rows:               res.Rows,
		Total:              res.Pagination.Total(),
		Page:               res.Pagination.Page(),
		PageSize:           res.Pagination.PageSize(),
		NextPageAfterValue: res.Pagination.NextPageAfterValue(),
		Aggregations:       res.Aggregations,
	}, nil
}
