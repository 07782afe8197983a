package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/matdex-io/matdex/internal/domain"
	"github.com/matdex-io/matdex/internal/domain/filter"
	"github.com/matdex-io/matdex/internal/domain/pagination"
	"github.com/matdex-io/matdex/internal/domain/result"
	"github.com/matdex-io/matdex/internal/registry"
)

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	b := registry.NewBuilder()
	b.Register("results.material.elements", "material", filter.Config{
		DType:     filter.String,
		Multiple:  true,
		QueryMode: filter.QueryAll,
	})
	b.Register("results.properties.electronic.band_gap", "electronic", filter.Config{
		DType: filter.Float,
		Unit:  "eV",
	})
	b.Register("visibility", "metadata", filter.Config{
		DType:   filter.Enum,
		Options: []filter.Option{{Value: "visible"}, {Value: "all"}},
		Global:  true,
		Default: filter.Scalar("visible"),
	})
	b.Register("upload_id", "metadata", filter.Config{DType: filter.String})
	b.Register("results.properties.available_properties", "properties", filter.Config{
		DType:     filter.Enum,
		Multiple:  true,
		QueryMode: filter.QueryAll,
		Options: []filter.Option{
			{Value: "band_gap"}, {Value: "dos_electronic"}, {Value: "bulk_modulus"},
		},
	})
	b.RegisterOptions("electronic_properties", "properties",
		"results.properties.available_properties", "Electronic properties", "",
		[]filter.Option{{Value: "band_gap"}, {Value: "dos_electronic"}})
	reg, err := b.Build()
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}
	return reg
}

type fetcherFunc func(ctx context.Context, req Request) (Response, error)

func (f fetcherFunc) Fetch(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}

func staticFetcher(resp Response) Fetcher {
	return fetcherFunc(func(context.Context, Request) (Response, error) {
		return resp, nil
	})
}

func TestSetFilterMergesAndSchedules(t *testing.T) {
	s := New(testRegistry(t), staticFetcher(Response{}))

	if err := s.SetFilter("elements", filter.Set("Si")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.SetFilter("elements", filter.Set("O")); err != nil {
		t.Fatalf("set: %v", err)
	}

	q := s.Query()
	got := q["results.material.elements"].Items()
	if len(got) != 2 || got[0] != "Si" || got[1] != "O" {
		t.Fatalf("expected union of values, got %v", got)
	}
	select {
	case <-s.kick:
	default:
		t.Fatal("expected a scheduled fetch")
	}
	// Coalescing: both changes produced a single pending kick.
	select {
	case <-s.kick:
		t.Fatal("expected changes to coalesce into one fetch")
	default:
	}
}

func TestSetFilterUnknown(t *testing.T) {
	s := New(testRegistry(t), staticFetcher(Response{}))

	err := s.SetFilter("nonsense", filter.Scalar("x"))
	if !errors.Is(err, domain.ErrUnknownFilter) {
		t.Fatalf("got %v, want ErrUnknownFilter", err)
	}
}

func TestSetFilterLocked(t *testing.T) {
	s := New(testRegistry(t), staticFetcher(Response{}),
		WithLocked(filter.Query{"upload_id": filter.Scalar("u-1")}))

	err := s.SetFilter("upload_id", filter.Scalar("u-2"))
	if !errors.Is(err, domain.ErrFilterLocked) {
		t.Fatalf("got %v, want ErrFilterLocked", err)
	}

	_, req := s.begin()
	if req.Query["upload_id"].Scalar() != "u-1" {
		t.Fatal("locked value missing from fetch request")
	}
}

func TestGlobalFilterDoesNotSchedule(t *testing.T) {
	s := New(testRegistry(t), staticFetcher(Response{}))

	if err := s.SetFilter("visibility", filter.Scalar("all")); err != nil {
		t.Fatalf("set: %v", err)
	}
	select {
	case <-s.kick:
		t.Fatal("global filter change must not schedule a fetch")
	default:
	}

	_, req := s.begin()
	if req.Query["visibility"].Scalar() != "all" {
		t.Fatal("global value missing from fetch request")
	}
	if _, ok := s.Query()["visibility"]; ok {
		t.Fatal("global value must not appear in the persisted query")
	}
}

func TestGlobalDefaultApplied(t *testing.T) {
	s := New(testRegistry(t), staticFetcher(Response{}))

	_, req := s.begin()
	if req.Query["visibility"].Scalar() != "visible" {
		t.Fatal("expected global default in fetch request")
	}
}

func TestUnchangedValueDoesNotSchedule(t *testing.T) {
	s := New(testRegistry(t), staticFetcher(Response{}))

	if err := s.SetFilter("band_gap", filter.Scalar("1.5")); err != nil {
		t.Fatalf("set: %v", err)
	}
	<-s.kick
	if err := s.SetFilter("band_gap", filter.Scalar("1.5")); err != nil {
		t.Fatalf("set: %v", err)
	}
	select {
	case <-s.kick:
		t.Fatal("unchanged value must not schedule a fetch")
	default:
	}
}

func TestStaleResponseDropped(t *testing.T) {
	s := New(testRegistry(t), staticFetcher(Response{}))

	id1, _ := s.begin()
	id2, _ := s.begin()

	// The newer request completes first.
	s.finish(id2, Response{
		Rows:       []result.Row{{"entry_id": "fresh"}},
		Pagination: pagination.Response{Total: 1},
	}, nil)
	// The older response arrives late and must be dropped.
	s.finish(id1, Response{
		Rows:       []result.Row{{"entry_id": "stale"}},
		Pagination: pagination.Response{Total: 99},
	}, nil)

	snap := s.Snapshot()
	if snap.Loading {
		t.Fatal("not loading after the newest response")
	}
	if len(snap.Rows) != 1 || snap.Rows[0].ID("entry_id") != "fresh" {
		t.Fatalf("stale response overwrote state: %v", snap.Rows)
	}
	if snap.Pagination.Total() != 1 {
		t.Fatalf("stale pagination applied, total %d", snap.Pagination.Total())
	}
}

func TestFetchErrorState(t *testing.T) {
	s := New(testRegistry(t), staticFetcher(Response{}))

	id, _ := s.begin()
	s.finish(id, Response{}, domain.ErrUpstreamUnavailable)

	snap := s.Snapshot()
	if !errors.Is(snap.Err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("expected error state, got %v", snap.Err)
	}
	if snap.Loading {
		t.Fatal("error state must clear loading")
	}

	// A later successful response clears the error.
	id, _ = s.begin()
	s.finish(id, Response{Rows: []result.Row{{"entry_id": "e"}}}, nil)
	if snap = s.Snapshot(); snap.Err != nil {
		t.Fatalf("error not cleared: %v", snap.Err)
	}
}

func TestRunAppliesNewestResponse(t *testing.T) {
	reg := testRegistry(t)
	type call struct {
		req   Request
		reply chan Response
	}
	calls := make(chan call)
	fetcher := fetcherFunc(func(ctx context.Context, req Request) (Response, error) {
		c := call{req: req, reply: make(chan Response)}
		calls <- c
		return <-c.reply, nil
	})

	updates := make(chan Snapshot, 4)
	s := New(reg, fetcher, WithOnUpdate(func(snap Snapshot) { updates <- snap }))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	if err := s.SetFilter("band_gap", filter.Scalar("1")); err != nil {
		t.Fatalf("set: %v", err)
	}
	first := <-calls
	if err := s.SetFilter("band_gap", filter.Scalar("2")); err != nil {
		t.Fatalf("set: %v", err)
	}
	second := <-calls

	// Answer the second request first, then the first.
	second.reply <- Response{Rows: []result.Row{{"entry_id": "second"}}}
	first.reply <- Response{Rows: []result.Row{{"entry_id": "first"}}}

	deadline := time.After(2 * time.Second)
	var last Snapshot
	select {
	case last = <-updates:
	case <-deadline:
		t.Fatal("no update received")
	}
	// Only the newest response produces an update; give a stale one a
	// moment to (incorrectly) arrive.
	select {
	case extra := <-updates:
		last = extra
	case <-time.After(50 * time.Millisecond):
	}

	if len(last.Rows) != 1 || last.Rows[0].ID("entry_id") != "second" {
		t.Fatalf("visible state does not reflect the newest request: %v", last.Rows)
	}
}

func TestLoadMoreAccumulatesRows(t *testing.T) {
	s := New(testRegistry(t), staticFetcher(Response{}), WithCursorMode())

	id, _ := s.begin()
	s.finish(id, Response{
		Rows:       []result.Row{{"entry_id": "a"}},
		Pagination: pagination.Response{Total: 3, NextPageAfterValue: "cursor-1"},
	}, nil)

	s.LoadMore()
	if got := s.Pagination().PageAfterValue(); got != "cursor-1" {
		t.Fatalf("cursor not advanced, got %q", got)
	}

	id, _ = s.begin()
	s.finish(id, Response{
		Rows:       []result.Row{{"entry_id": "b"}},
		Pagination: pagination.Response{Total: 3, NextPageAfterValue: "cursor-2"},
	}, nil)

	snap := s.Snapshot()
	if len(snap.Rows) != 2 || snap.Rows[1].ID("entry_id") != "b" {
		t.Fatalf("rows not accumulated: %v", snap.Rows)
	}
}

func TestLoadMoreSuppressedWhileLoading(t *testing.T) {
	s := New(testRegistry(t), staticFetcher(Response{}), WithCursorMode())

	id, _ := s.begin()
	s.finish(id, Response{
		Pagination: pagination.Response{NextPageAfterValue: "cursor-1"},
	}, nil)

	s.LoadMore()
	// Drain the scheduled fetch kick.
	<-s.kick
	// The request cursor now equals the combined next cursor; a second
	// LoadMore before the response must be suppressed.
	s.LoadMore()
	select {
	case <-s.kick:
		t.Fatal("load more scheduled while the next page is in flight")
	default:
	}
}

// waitSnapshot receives the next applied snapshot or fails the test.
func waitSnapshot(t *testing.T, updates <-chan Snapshot) Snapshot {
	t.Helper()
	select {
	case snap := <-updates:
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("no update received")
		return Snapshot{}
	}
}

func TestCursorModeLoadMoreThroughRunLoop(t *testing.T) {
	reg := testRegistry(t)
	reqs := make(chan Request, 4)
	fetcher := fetcherFunc(func(_ context.Context, req Request) (Response, error) {
		reqs <- req
		next := "cursor-1"
		if req.Pagination.PageAfterValue() == "cursor-1" {
			next = ""
		}
		return Response{
			Rows:       []result.Row{{"entry_id": "row-after-" + req.Pagination.PageAfterValue()}},
			Pagination: pagination.Response{Total: 2, NextPageAfterValue: next},
		}, nil
	})

	updates := make(chan Snapshot, 4)
	s := New(reg, fetcher, WithCursorMode(), WithOnUpdate(func(snap Snapshot) { updates <- snap }))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	s.Refresh()
	first := <-reqs
	if !first.Pagination.CursorMode() {
		t.Fatal("fresh cursor-mode session issued a page-number request")
	}
	snap := waitSnapshot(t, updates)
	if snap.Pagination.NextPageAfterValue() != "cursor-1" {
		t.Fatalf("next cursor not carried into state, got %q", snap.Pagination.NextPageAfterValue())
	}

	s.LoadMore()
	var second Request
	select {
	case second = <-reqs:
	case <-time.After(2 * time.Second):
		t.Fatal("LoadMore issued no fetch")
	}
	if second.Pagination.PageAfterValue() != "cursor-1" {
		t.Fatalf("unexpected cursor %q", second.Pagination.PageAfterValue())
	}

	snap = waitSnapshot(t, updates)
	if len(snap.Rows) != 2 {
		t.Fatalf("rows not accumulated across slices: %v", snap.Rows)
	}
	if snap.Pagination.HasMore() {
		t.Fatal("exhausted list still reports more rows")
	}
}

func TestCursorModeQueryChangeResetsCursor(t *testing.T) {
	s := New(testRegistry(t), staticFetcher(Response{}), WithCursorMode())

	id, _ := s.begin()
	s.finish(id, Response{
		Rows:       []result.Row{{"entry_id": "a"}},
		Pagination: pagination.Response{NextPageAfterValue: "cursor-1"},
	}, nil)
	s.LoadMore()

	if err := s.SetFilter("band_gap", filter.Scalar("1")); err != nil {
		t.Fatalf("set: %v", err)
	}
	page := s.Pagination()
	if !page.CursorMode() {
		t.Fatal("query change flipped the session out of cursor mode")
	}
	if page.PageAfterValue() != "" {
		t.Fatalf("query change must restart the cursor walk, got %q", page.PageAfterValue())
	}
}

func TestSetPageRejectedInCursorMode(t *testing.T) {
	s := New(testRegistry(t), staticFetcher(Response{}), WithCursorMode())

	if err := s.SetPage(2); !errors.Is(err, ErrCursorMode) {
		t.Fatalf("got %v, want ErrCursorMode", err)
	}
}

func TestSetFilterDerivedOptionsMergeIntoTarget(t *testing.T) {
	s := New(testRegistry(t), staticFetcher(Response{}))

	if err := s.SetFilter("electronic_properties", filter.Set("band_gap")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.SetFilter("electronic_properties", filter.Set("dos_electronic")); err != nil {
		t.Fatalf("set: %v", err)
	}

	q := s.Query()
	if _, ok := q["electronic_properties"]; ok {
		t.Fatal("derived filter leaked its own key into the query")
	}
	got := q["results.properties.available_properties"].Items()
	if len(got) != 2 || got[0] != "band_gap" || got[1] != "dos_electronic" {
		t.Fatalf("options not unioned into target, got %v", got)
	}

	_, req := s.begin()
	if _, ok := req.Query["electronic_properties"]; ok {
		t.Fatal("derived key sent upstream")
	}
	if len(req.Query["results.properties.available_properties"].Items()) != 2 {
		t.Fatalf("target value missing from fetch request: %v", req.Query)
	}
}

func TestSelectionToggle(t *testing.T) {
	s := New(testRegistry(t), staticFetcher(Response{}))

	s.ToggleRow("a")
	s.ToggleRow("b")
	if all, ids := s.Selection(); all || len(ids) != 2 {
		t.Fatalf("unexpected selection all=%v ids=%v", all, ids)
	}
	s.ToggleRow("a")
	if _, ids := s.Selection(); len(ids) != 1 || ids[0] != "b" {
		t.Fatalf("toggle did not deselect, ids=%v", ids)
	}

	s.SelectAll()
	if !s.IsSelected("anything") {
		t.Fatal("select all must cover every row")
	}
	// Toggling one row collapses "all" to exactly that row.
	s.ToggleRow("c")
	all, ids := s.Selection()
	if all || len(ids) != 1 || ids[0] != "c" {
		t.Fatalf("expected singleton selection, all=%v ids=%v", all, ids)
	}
}

func TestClearAllKeepsGlobalDefaults(t *testing.T) {
	s := New(testRegistry(t), staticFetcher(Response{}))

	if err := s.SetFilter("band_gap", filter.Scalar("1")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.SetFilter("visibility", filter.Scalar("all")); err != nil {
		t.Fatalf("set: %v", err)
	}
	s.ClearAll()

	if len(s.Query()) != 0 {
		t.Fatal("query not cleared")
	}
	_, req := s.begin()
	if req.Query["visibility"].Scalar() != "visible" {
		t.Fatal("global default not restored")
	}
}
