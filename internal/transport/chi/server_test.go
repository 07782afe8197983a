package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	chi "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/matdex-io/matdex/internal/domain"
	"github.com/matdex-io/matdex/internal/domain/pagination"
	"github.com/matdex-io/matdex/internal/domain/result"
	"github.com/matdex-io/matdex/internal/registry"
	"github.com/matdex-io/matdex/internal/transport/upstream"
	healthuc "github.com/matdex-io/matdex/internal/usecase/health"
	searchuc "github.com/matdex-io/matdex/internal/usecase/search"
)

type fakeSearcher struct {
	lastReq upstream.QueryRequest
	result  upstream.QueryResult
	err     error
}

func (f *fakeSearcher) Query(_ context.Context, req upstream.QueryRequest) (upstream.QueryResult, error) {
	f.lastReq = req
	if f.err != nil {
		return upstream.QueryResult{}, f.err
	}
	return f.result, nil
}

func newTestRouter(searcher searchuc.Searcher) chi.Router {
	reg := registry.Default()
	svc := searchuc.New(reg, searcher, nil, zap.NewNop())
	srv := NewServer(reg, svc, healthuc.New(nil, nil), zap.NewNop(), 500)

	r := chi.NewRouter()
	srv.Routes(r)
	return r
}

func doJSON(t *testing.T, r chi.Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestQueryEntries(t *testing.T) {
	searcher := &fakeSearcher{
		result: upstream.QueryResult{
			Rows: []result.Row{
				{"entry_id": "e1"},
				{"entry_id": "e2"},
			},
			Pagination: pagination.Response{
				Total:              42,
				NextPageAfterValue: "cursor-1",
			},
		},
	}
	r := newTestRouter(searcher)

	rr := doJSON(t, r, http.MethodPost, "/api/v1/entries/query", map[string]any{
		"query": map[string]any{
			"elements": []string{"Si", "O"},
		},
		"pagination": map[string]any{"page_size": 10},
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Data       []map[string]any `json:"data"`
		Pagination struct {
			Total              int64  `json:"total"`
			NextPageAfterValue string `json:"next_page_after_value"`
		} `json:"pagination"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Data) != 2 {
		t.Errorf("rows: got %d, want 2", len(resp.Data))
	}
	if resp.Pagination.Total != 42 {
		t.Errorf("total: got %d, want 42", resp.Pagination.Total)
	}
	if resp.Pagination.NextPageAfterValue != "cursor-1" {
		t.Errorf("next cursor: got %q", resp.Pagination.NextPageAfterValue)
	}

	if searcher.lastReq.Resource != "entries" {
		t.Errorf("resource: got %q", searcher.lastReq.Resource)
	}
	if _, ok := searcher.lastReq.Query["results.material.elements:all"]; !ok {
		t.Errorf("missing encoded elements key, query: %v", searcher.lastReq.Query)
	}
}

func TestQueryMaterialsResource(t *testing.T) {
	searcher := &fakeSearcher{}
	r := newTestRouter(searcher)

	rr := doJSON(t, r, http.MethodPost, "/api/v1/materials/query", map[string]any{})
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rr.Code, rr.Body.String())
	}
	if searcher.lastReq.Resource != "materials" {
		t.Errorf("resource: got %q", searcher.lastReq.Resource)
	}
}

func TestQueryUnknownFilter(t *testing.T) {
	r := newTestRouter(&fakeSearcher{})

	rr := doJSON(t, r, http.MethodPost, "/api/v1/entries/query", map[string]any{
		"query": map[string]any{"bogus_quantity": "x"},
	})

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rr.Code)
	}

	var errResp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Code != CodeUnknownFilter {
		t.Errorf("code: got %s, want %s", errResp.Code, CodeUnknownFilter)
	}
	if errResp.Filter != "bogus_quantity" {
		t.Errorf("filter: got %q, want bogus_quantity", errResp.Filter)
	}
}

func TestQueryUpstreamErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   ErrorCode
	}{
		{"rate limited", domain.ErrRateLimited, http.StatusTooManyRequests, CodeRateLimited},
		{"rejected", domain.ErrUpstreamRejected, http.StatusUnprocessableEntity, CodeUpstreamRejected},
		{"unavailable", domain.ErrUpstreamUnavailable, http.StatusBadGateway, CodeUpstreamUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(&fakeSearcher{err: tt.err})

			rr := doJSON(t, r, http.MethodPost, "/api/v1/entries/query", map[string]any{})
			if rr.Code != tt.wantStatus {
				t.Fatalf("status: got %d, want %d", rr.Code, tt.wantStatus)
			}

			var errResp ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
				t.Fatalf("decode error response: %v", err)
			}
			if errResp.Code != tt.wantCode {
				t.Errorf("code: got %s, want %s", errResp.Code, tt.wantCode)
			}
		})
	}
}

func TestQueryPageSizeLimit(t *testing.T) {
	r := newTestRouter(&fakeSearcher{})

	rr := doJSON(t, r, http.MethodPost, "/api/v1/entries/query", map[string]any{
		"pagination": map[string]any{"page_size": 10000},
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rr.Code)
	}
}

func TestParseEndpoint(t *testing.T) {
	r := newTestRouter(&fakeSearcher{})

	rr := doJSON(t, r, http.MethodPost, "/api/v1/parse", map[string]any{
		"input": "band_gap >= 1.5",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rr.Code, rr.Body.String())
	}

	var resp parseResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Name != "results.properties.electronic.band_gap" {
		t.Errorf("name: got %q", resp.Name)
	}
	if resp.Value != "gte:1.5" {
		t.Errorf("value: got %q, want gte:1.5", resp.Value)
	}
}

func TestParseUnknownQuantity(t *testing.T) {
	r := newTestRouter(&fakeSearcher{})

	rr := doJSON(t, r, http.MethodPost, "/api/v1/parse", map[string]any{
		"input": "warp_factor >= 9",
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rr.Code)
	}

	var errResp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Code != CodeUnknownFilter {
		t.Errorf("code: got %s, want %s", errResp.Code, CodeUnknownFilter)
	}
	if errResp.Filter != "warp_factor" {
		t.Errorf("filter: got %q, want warp_factor", errResp.Filter)
	}
}

func TestFiltersEndpoint(t *testing.T) {
	r := newTestRouter(&fakeSearcher{})

	rr := doJSON(t, r, http.MethodGet, "/api/v1/filters", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}

	var resp struct {
		Filters []searchuc.FilterInfo `json:"filters"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Filters) == 0 {
		t.Fatal("expected non-empty filter list")
	}
}

func TestFilterNamesSuggest(t *testing.T) {
	r := newTestRouter(&fakeSearcher{})

	rr := doJSON(t, r, http.MethodGet, "/api/v1/filters/names?input=band", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}

	var resp struct {
		Names []string `json:"names"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	found := false
	for _, n := range resp.Names {
		if n == "results.properties.electronic.band_gap" {
			found = true
		}
	}
	if !found {
		t.Errorf("band_gap not suggested, got %v", resp.Names)
	}
}

func TestHealthEndpoint(t *testing.T) {
	r := newTestRouter(&fakeSearcher{})

	rr := doJSON(t, r, http.MethodGet, "/health", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
}
