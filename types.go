package matdex

import (
	"github.com/matdex-io/matdex/internal/domain"
	"github.com/matdex-io/matdex/internal/domain/filter"
	"github.com/matdex-io/matdex/internal/domain/pagination"
	"github.com/matdex-io/matdex/internal/domain/result"
	"github.com/matdex-io/matdex/internal/registry"
	"github.com/matdex-io/matdex/internal/session"
	"github.com/matdex-io/matdex/internal/table"
	searchuc "github.com/matdex-io/matdex/internal/usecase/search"
)

// Resource is the kind of search result a query targets.
type Resource = filter.Resource

const (
	// Entries searches individual calculation and measurement records.
	Entries = filter.Entries
	// Materials searches deduplicated material records.
	Materials = filter.Materials
)

// Row is one search hit, addressed by dotted paths.
type Row = result.Row

// Bucket is one aggregation bucket: a value and its entry count.
type Bucket = registry.Bucket

// FilterInfo describes one registered filter for display purposes.
type FilterInfo = searchuc.FilterInfo

// Suggestion is one suggested value for a filter.
type Suggestion = searchuc.Suggestion

// Order is the sort direction of a result list.
type Order = pagination.Order

const (
	Asc  = pagination.Asc
	Desc = pagination.Desc
)

// Registry maps filter names to their behavior. Build custom ones
// with NewRegistryBuilder, or rely on the defaults the Client uses.
type Registry = registry.Registry

// RegistryBuilder assembles a Registry.
type RegistryBuilder = registry.Builder

// NewRegistryBuilder creates an empty registry builder.
func NewRegistryBuilder() *RegistryBuilder { return registry.NewBuilder() }

// DefaultRegistry returns the built-in materials-science filter set.
func DefaultRegistry() *Registry { return registry.Default() }

// FilterConfig declares the shape and behavior of one filter.
type FilterConfig = filter.Config

// FilterOption is one enumerated choice of an enum filter.
type FilterOption = filter.Option

// Value is a typed filter value: a scalar, a set or a numeric range.
type Value = filter.Value

// DType is a filter's declared value type.
type DType = filter.DType

const (
	Int       = filter.Int
	Float     = filter.Float
	Timestamp = filter.Timestamp
	Enum      = filter.Enum
	String    = filter.String
	Boolean   = filter.Boolean
)

// Scalar builds a single-valued filter value.
func Scalar(s string) Value { return filter.Scalar(s) }

// SetOf builds a multi-valued filter value.
func SetOf(items ...string) Value { return filter.Set(items...) }

// Column is one normalized result table column.
type Column = table.Column

// ColumnSpec declares a table column; zero fields get defaults.
type ColumnSpec = table.Spec

// Table tracks column visibility for a result view.
type Table = table.Model

// TableMode selects how a result list grows.
type TableMode = table.Mode

const (
	ModePage           = table.ModePage
	ModeLoadMore       = table.ModeLoadMore
	ModeInfiniteScroll = table.ModeInfiniteScroll
)

// NewTable builds a table model from column specs.
func NewTable(mode TableMode, specs ...ColumnSpec) (*Table, error) {
	return table.New(mode, specs...)
}

// Sentinel errors surfaced by Client operations. Match with errors.Is.
var (
	ErrUnknownFilter       = domain.ErrUnknownFilter
	ErrInvalidValue        = domain.ErrInvalidValue
	ErrFilterLocked        = domain.ErrFilterLocked
	ErrUpstreamUnavailable = domain.ErrUpstreamUnavailable
	ErrUpstreamRejected    = domain.ErrUpstreamRejected
	ErrRateLimited         = domain.ErrRateLimited
	ErrCursorMode          = session.ErrCursorMode
)
