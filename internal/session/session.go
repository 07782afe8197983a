// Package session owns the authoritative search state for one result
// list: the active query, pagination, selection and the fetch cycle
// against a search backend. All mutation goes through setter methods;
// a single background loop turns coalesced change notifications into
// fetches and applies only the newest response.
package session

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/matdex-io/matdex/internal/domain"
	"github.com/matdex-io/matdex/internal/domain/filter"
	"github.com/matdex-io/matdex/internal/domain/pagination"
	"github.com/matdex-io/matdex/internal/domain/result"
	"github.com/matdex-io/matdex/internal/registry"
)

// ErrCursorMode rejects page-number navigation on a cursor-mode
// session.
var ErrCursorMode = errors.New("page navigation unavailable in cursor mode")

// Fetcher executes one search round trip.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (Response, error)
}

// Request is the search request handed to a Fetcher. Query carries the
// effective value set, locked and global values already merged in.
type Request struct {
	Resource     filter.Resource
	Query        filter.Query
	Pagination   pagination.Request
	Aggregations []string
}

// Response is what a Fetcher returns on success.
type Response struct {
	Rows         []result.Row
	Pagination   pagination.Response
	Aggregations map[string][]registry.Bucket
}

// Snapshot is a consistent copy of the visible list state.
type Snapshot struct {
	Rows         []result.Row
	Pagination   pagination.Combined
	Aggregations map[string][]registry.Bucket
	Query        filter.Query
	Loading      bool
	Err          error
}

// Session is the state store behind one search view.
type Session struct {
	reg     *registry.Registry
	fetcher Fetcher
	log     *zap.Logger

	cursor bool

	mu       sync.Mutex
	resource filter.Resource
	query    filter.Query // user-set, persisted to the URL
	globals  filter.Query // global values, never persisted
	locked   filter.Query // fixed by the embedding view, not settable
	page     pagination.Request
	aggs     []string

	rows      []result.Row
	combined  pagination.Combined
	aggRes    map[string][]registry.Bucket
	loading   bool
	err       error
	extending bool

	selectAll bool
	selected  []string

	reqID    uint64
	kick     chan struct{}
	onUpdate func(Snapshot)
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Session) { s.log = log }
}

// WithResource sets the result kind this session searches.
func WithResource(r filter.Resource) Option {
	return func(s *Session) { s.resource = r }
}

// WithCursorMode runs the session in cursor ("after value") scrolling
// instead of page-number paging. Fetched rows accumulate and LoadMore
// appends the next slice. The mode is fixed for the session's lifetime.
func WithCursorMode() Option {
	return func(s *Session) { s.cursor = true }
}

// WithAggregations names the filters whose aggregations are requested
// alongside every fetch.
func WithAggregations(names ...string) Option {
	return func(s *Session) { s.aggs = append([]string(nil), names...) }
}

// WithLocked fixes filter values for the lifetime of the session. They
// are part of every fetch but rejected by SetFilter and excluded from
// the encoded URL.
func WithLocked(q filter.Query) Option {
	return func(s *Session) { s.locked = q.Clone() }
}

// WithOnUpdate registers a callback invoked with a fresh Snapshot
// after every applied response. The callback runs outside the session
// lock.
func WithOnUpdate(fn func(Snapshot)) Option {
	return func(s *Session) { s.onUpdate = fn }
}

// New builds a session over a registry and a fetcher. Defaults of
// global filters are applied immediately.
func New(reg *registry.Registry, fetcher Fetcher, opts ...Option) *Session {
	s := &Session{
		reg:      reg,
		fetcher:  fetcher,
		log:      zap.NewNop(),
		resource: filter.Entries,
		query:    filter.Query{},
		globals:  filter.Query{},
		locked:   filter.Query{},
		kick:     make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, name := range reg.Names() {
		f, _ := reg.Get(name)
		cfg := f.Config()
		if cfg.Global && !cfg.Default.IsZero() {
			s.globals[name] = cfg.Default
		}
	}
	req, _ := pagination.NewRequest(s.firstPage(), pagination.DefaultPageSize, "", pagination.Desc, "")
	s.page = req
	return s
}

// firstPage is the page number a reset returns to: 1 in page mode, 0
// (cursor mode) otherwise.
func (s *Session) firstPage() int {
	if s.cursor {
		return 0
	}
	return 1
}

// Run drives the fetch loop until ctx is done. Change notifications
// arriving while a request is being issued coalesce into one fetch.
func (s *Session) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.kick:
			id, req := s.begin()
			go func() {
				resp, err := s.fetcher.Fetch(ctx, req)
				s.finish(id, resp, err)
			}()
		}
	}
}

// schedule requests one fetch. The buffered channel makes repeated
// calls between loop iterations collapse into a single fetch.
func (s *Session) schedule() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// Refresh forces a fetch regardless of state changes.
func (s *Session) Refresh() { s.schedule() }

func (s *Session) begin() (uint64, Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reqID++
	s.loading = true
	return s.reqID, s.requestLocked()
}

func (s *Session) requestLocked() Request {
	q := s.query.Clone()
	for name, v := range s.globals {
		q[name] = v
	}
	for name, v := range s.locked {
		q[name] = v
	}
	return Request{
		Resource:     s.resource,
		Query:        q,
		Pagination:   s.page,
		Aggregations: append([]string(nil), s.aggs...),
	}
}

// finish applies one response. Responses whose id is no longer the
// newest issued one are dropped so a slow early fetch can never
// overwrite the result of a later one.
func (s *Session) finish(id uint64, resp Response, err error) {
	s.mu.Lock()
	if id != s.reqID {
		cur := s.reqID
		s.mu.Unlock()
		s.log.Debug("dropping stale search response",
			zap.Uint64("request_id", id),
			zap.Uint64("current_id", cur))
		return
	}
	s.loading = false
	if err != nil {
		s.err = err
	} else {
		s.err = nil
		if s.extending {
			s.rows = append(s.rows, resp.Rows...)
			s.extending = false
		} else {
			s.rows = resp.Rows
		}
		s.combined = pagination.Combine(s.page, resp.Pagination)
		s.aggRes = resp.Aggregations
	}
	snap := s.snapshotLocked()
	cb := s.onUpdate
	s.mu.Unlock()
	if cb != nil {
		cb(snap)
	}
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		Rows:         append([]result.Row(nil), s.rows...),
		Pagination:   s.combined,
		Aggregations: s.aggRes,
		Query:        s.query.Clone(),
		Loading:      s.loading,
		Err:          s.err,
	}
}

// Snapshot returns a consistent copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// SetFilter merges a value into the query for name, following the
// filter's multiplicity and query mode. Global filter values change
// the fetch parameters without scheduling a fetch; any other value
// change resets cursor state and schedules one.
func (s *Session) SetFilter(name string, v filter.Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.reg.Resolve(name)
	if !ok {
		return domain.NewUnknownFilter(name)
	}
	full := f.Name()
	// Derived option filters write into their target's key.
	key := full
	if t := f.Target(); t != "" {
		key = t
	}
	if _, isLocked := s.locked[full]; isLocked {
		return domain.ErrFilterLocked
	}
	if _, isLocked := s.locked[key]; isLocked {
		return domain.ErrFilterLocked
	}
	cfg := f.Config()

	if cfg.Global {
		if old, ok := s.globals[full]; ok && old.Equal(v) {
			return nil
		}
		s.globals[full] = v
		return nil
	}

	old, had := s.query[key]
	f.Apply(s.query, v)
	if had && old.Equal(s.query[key]) {
		return nil
	}
	s.resetListLocked()
	s.schedule()
	return nil
}

// ClearFilter removes a filter's value. Clearing a global restores its
// declared default.
func (s *Session) ClearFilter(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.reg.Resolve(name)
	if !ok {
		return domain.NewUnknownFilter(name)
	}
	full := f.Name()
	if _, isLocked := s.locked[full]; isLocked {
		return domain.ErrFilterLocked
	}
	cfg := f.Config()

	if cfg.Global {
		if cfg.Default.IsZero() {
			delete(s.globals, full)
		} else {
			s.globals[full] = cfg.Default
		}
		return nil
	}
	if _, ok := s.query[full]; !ok {
		return nil
	}
	delete(s.query, full)
	s.resetListLocked()
	s.schedule()
	return nil
}

// ClearAll removes every user-set filter value and restores global
// defaults. Locked values stay.
func (s *Session) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := len(s.query) > 0
	s.query = filter.Query{}
	s.globals = filter.Query{}
	for _, name := range s.reg.Names() {
		f, _ := s.reg.Get(name)
		cfg := f.Config()
		if cfg.Global && !cfg.Default.IsZero() {
			s.globals[name] = cfg.Default
		}
	}
	if changed {
		s.resetListLocked()
		s.schedule()
	}
}

// resetListLocked returns pagination to the start of the list and
// drops accumulated cursor rows. Query changes invalidate both.
func (s *Session) resetListLocked() {
	if s.cursor {
		s.page = s.page.WithPageAfterValue("")
	} else {
		s.page = s.page.WithPage(1)
	}
	s.extending = false
	s.rows = nil
}

// SetPage moves page-mode pagination. Page numbers start at 1. A
// cursor-mode session has no page numbers to move to.
func (s *Session) SetPage(page int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursor {
		return ErrCursorMode
	}
	if page == s.page.Page() {
		return nil
	}
	s.page = s.page.WithPage(page)
	s.extending = false
	s.schedule()
	return nil
}

// SetPageSize changes the page size and resets to the start of the
// list.
func (s *Session) SetPageSize(size int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if size == s.page.PageSize() {
		return nil
	}
	next, err := pagination.NewRequest(s.firstPage(), size, s.page.OrderBy(), s.page.Order(), "")
	if err != nil {
		return err
	}
	s.page = next
	s.resetListLocked()
	s.schedule()
	return nil
}

// SetOrder changes the sort column and direction and resets to the
// start of the list.
func (s *Session) SetOrder(orderBy string, order pagination.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if orderBy == s.page.OrderBy() && order == s.page.Order() {
		return nil
	}
	next, err := pagination.NewRequest(s.firstPage(), s.page.PageSize(), orderBy, order, "")
	if err != nil {
		return err
	}
	s.page = next
	s.resetListLocked()
	s.schedule()
	return nil
}

// LoadMore advances cursor-mode pagination to the server-reported next
// cursor and appends the fetched rows to the accumulated list. It is a
// no-op while the next page is already loading or when the server
// reported no further cursor.
func (s *Session) LoadMore() {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.combined.NextPageAfterValue()
	// An empty next cursor means the end of the list; a request cursor
	// already equal to it means that page is still in flight.
	if next == "" || s.page.PageAfterValue() == next {
		return
	}
	s.page = s.page.WithPageAfterValue(next)
	s.extending = true
	s.schedule()
}

// SelectAll marks the entire result set as selected.
func (s *Session) SelectAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectAll = true
	s.selected = nil
}

// ClearSelection empties the selection.
func (s *Session) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectAll = false
	s.selected = nil
}

// ToggleRow flips one row's selection. Toggling while everything is
// selected collapses the selection to just that row.
func (s *Session) ToggleRow(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selectAll {
		s.selectAll = false
		s.selected = []string{id}
		return
	}
	for i, sel := range s.selected {
		if sel == id {
			s.selected = append(s.selected[:i], s.selected[i+1:]...)
			return
		}
	}
	s.selected = append(s.selected, id)
}

// Selection reports whether everything is selected and, otherwise, the
// explicitly selected row ids in toggle order.
func (s *Session) Selection() (all bool, ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectAll, append([]string(nil), s.selected...)
}

// IsSelected reports whether the row id is part of the selection.
func (s *Session) IsSelected(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selectAll {
		return true
	}
	for _, sel := range s.selected {
		if sel == id {
			return true
		}
	}
	return false
}

// Query returns a copy of the user-set query. Global and locked values
// are not part of it.
func (s *Session) Query() filter.Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query.Clone()
}

// Pagination returns the current pagination request.
func (s *Session) Pagination() pagination.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}
