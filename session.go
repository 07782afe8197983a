package matdex

import (
	"context"
	"fmt"
	"net/url"

	"github.com/matdex-io/matdex/internal/domain"
	"github.com/matdex-io/matdex/internal/domain/filter"
	"github.com/matdex-io/matdex/internal/domain/pagination"
	"github.com/matdex-io/matdex/internal/session"
	searchuc "github.com/matdex-io/matdex/internal/usecase/search"
)

// Snapshot is a consistent copy of a session's visible list state.
type Snapshot = session.Snapshot

// SessionConfig configures a search session.
type SessionConfig struct {
	// Resource is the result kind the session searches. Defaults to Entries.
	Resource Resource
	// CursorMode runs the session in cursor ("after value") scrolling:
	// fetched rows accumulate and LoadMore appends the next slice. The
	// mode is fixed for the session's lifetime; SetPage is unavailable.
	CursorMode bool
	// Aggregations names the filters whose buckets are fetched with
	// every response.
	Aggregations []string
	// Locked fixes encoded filter values for the session's lifetime.
	// They shape every fetch but cannot be changed and never appear in
	// the encoded URL.
	Locked map[string]string
	// OnUpdate is invoked with a fresh Snapshot after every applied
	// response.
	OnUpdate func(Snapshot)
}

// Session owns the authoritative state of one search view: the active
// query, pagination, selection and the fetch cycle. Mutations schedule
// a coalesced refetch; only the newest response is ever applied.
type Session struct {
	inner *session.Session
	reg   *Registry
}

// NewSession creates a search session backed by this client.
func (c *Client) NewSession(cfg SessionConfig) (*Session, error) {
	opts := []session.Option{
		session.WithLogger(c.logger),
	}
	if cfg.Resource != "" {
		opts = append(opts, session.WithResource(cfg.Resource))
	}
	if cfg.CursorMode {
		opts = append(opts, session.WithCursorMode())
	}
	if len(cfg.Aggregations) > 0 {
		opts = append(opts, session.WithAggregations(cfg.Aggregations...))
	}
	if len(cfg.Locked) > 0 {
		locked := filter.Query{}
		for name, raw := range cfg.Locked {
			f, ok := c.reg.Resolve(name)
			if !ok {
				return nil, domain.NewUnknownFilter(name)
			}
			v, err := f.Config().DecodeValue(raw)
			if err != nil {
				return nil, fmt.Errorf("locked filter %q: %w", name, err)
			}
			locked[f.Name()] = v
		}
		opts = append(opts, session.WithLocked(locked))
	}
	if cfg.OnUpdate != nil {
		opts = append(opts, session.WithOnUpdate(cfg.OnUpdate))
	}

	inner := session.New(c.reg, &serviceFetcher{svc: c.svc}, opts...)
	return &Session{inner: inner, reg: c.reg}, nil
}

// Run drives the session's fetch loop until the context is canceled.
// Call it once, usually in its own goroutine.
func (s *Session) Run(ctx context.Context) { s.inner.Run(ctx) }

// Refresh schedules a refetch with the current state.
func (s *Session) Refresh() { s.inner.Refresh() }

// Set assigns a filter from its encoded string form and schedules a
// refetch. Setting a locked filter fails with ErrFilterLocked.
func (s *Session) Set(name, raw string) error {
	f, ok := s.reg.Resolve(name)
	if !ok {
		return domain.NewUnknownFilter(name)
	}
	v, err := f.Config().DecodeValue(raw)
	if err != nil {
		return fmt.Errorf("filter %q: %w", name, err)
	}
	return s.inner.SetFilter(f.Name(), v)
}

// SetValue assigns an already typed filter value.
func (s *Session) SetValue(name string, v Value) error {
	return s.inner.SetFilter(name, v)
}

// Clear removes a filter; global filters fall back to their default.
func (s *Session) Clear(name string) error {
	return s.inner.ClearFilter(name)
}

// ClearAll removes every user-set filter, restoring global defaults.
func (s *Session) ClearAll() { s.inner.ClearAll() }

// SetPage jumps to the given 1-based page.
func (s *Session) SetPage(page int) error { return s.inner.SetPage(page) }

// SetPageSize changes the page size and resets to the first page.
func (s *Session) SetPageSize(size int) error { return s.inner.SetPageSize(size) }

// SetOrder changes the sort column and direction.
func (s *Session) SetOrder(name string, order Order) error {
	return s.inner.SetOrder(name, order)
}

// LoadMore appends the next cursor page to the current rows. Repeated
// calls while a page is in flight are ignored.
func (s *Session) LoadMore() { s.inner.LoadMore() }

// Snapshot returns a consistent copy of the visible list state.
func (s *Session) Snapshot() Snapshot { return s.inner.Snapshot() }

// SelectAll marks the entire result set as selected.
func (s *Session) SelectAll() { s.inner.SelectAll() }

// ClearSelection empties the selection.
func (s *Session) ClearSelection() { s.inner.ClearSelection() }

// ToggleRow flips one row's selection. Toggling under a select-all
// collapses the selection to that single row.
func (s *Session) ToggleRow(id string) { s.inner.ToggleRow(id) }

// Selection returns the select-all flag and the explicit row ids.
func (s *Session) Selection() (all bool, ids []string) { return s.inner.Selection() }

// IsSelected reports whether the given row is selected.
func (s *Session) IsSelected(id string) bool { return s.inner.IsSelected(id) }

// EncodeURL renders the shareable query parameters for the current
// state. Locked and global filters are excluded.
func (s *Session) EncodeURL() (url.Values, error) { return s.inner.EncodeURL() }

// ApplyURL restores state from query parameters and schedules one
// fetch. On error the session state is left untouched.
func (s *Session) ApplyURL(values url.Values) error { return s.inner.ApplyURL(values) }

// serviceFetcher adapts the search use case to the session's Fetcher.
type serviceFetcher struct {
	svc *searchuc.Service
}

func (f *serviceFetcher) Fetch(ctx context.Context, req session.Request) (session.Response, error) {
	res, err := f.svc.Search(ctx, searchuc.Request{
		Resource:     req.Resource,
		Query:        req.Query,
		Pagination:   req.Pagination,
		Aggregations: req.Aggregations,
	})
	if err != nil {
		return session.Response{}, err
	}
	return session.Response{
		Rows: res.Rows,
		Pagination: pagination.Response{
			Total:              res.Pagination.Total(),
			Page:               res.Pagination.Page(),
			PageSize:           res.Pagination.PageSize(),
			OrderBy:            res.Pagination.OrderBy(),
			Order:              res.Pagination.Order(),
			NextPageAfterValue: res.Pagination.NextPageAfterValue(),
		},
		Aggregations: res.Aggregations,
	}, nil
}
