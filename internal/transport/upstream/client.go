// Package upstream is the HTTP client for the external materials
// search API. It speaks the portal's JSON query protocol and maps
// transport failures onto domain sentinels.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/matdex-io/matdex/internal/domain"
	"github.com/matdex-io/matdex/internal/domain/filter"
	"github.com/matdex-io/matdex/internal/domain/pagination"
	"github.com/matdex-io/matdex/internal/domain/result"
	"github.com/matdex-io/matdex/internal/metrics"
	"github.com/matdex-io/matdex/internal/registry"
)

// Config holds connection parameters for the upstream API.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	Logger  *zap.Logger
	// HTTPClient overrides the default client, mainly for tests.
	HTTPClient *http.Client
}

// Client talks to the upstream search API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient creates an upstream API client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		http:    httpClient,
		logger:  logger,
	}, nil
}

// QueryRequest is one upstream search call.
type QueryRequest struct {
	Resource     filter.Resource
	Query        map[string]any
	Pagination   pagination.Request
	Aggregations map[string]map[string]any
	Required     []string
}

// QueryResult holds the parsed upstream response.
type QueryResult struct {
	Rows         []result.Row
	Pagination   pagination.Response
	Aggregations map[string][]registry.Bucket
}

// Suggestion is one server-side suggestion for a quantity.
type Suggestion struct {
	Value  string  `json:"value"`
	Weight float64 `json:"weight,omitempty"`
}

type wireQueryRequest struct {
	Query        map[string]any            `json:"query"`
	Pagination   wirePaginationRequest     `json:"pagination"`
	Aggregations map[string]map[string]any `json:"aggregations,omitempty"`
	Required     *wireRequired             `json:"required,omitempty"`
}

type wireRequired struct {
	Include []string `json:"include"`
}

type wirePaginationRequest struct {
	Page           int    `json:"page,omitempty"`
	PageSize       int    `json:"page_size,omitempty"`
	OrderBy        string `json:"order_by,omitempty"`
	Order          string `json:"order,omitempty"`
	PageAfterValue string `json:"page_after_value,omitempty"`
}

type wireQueryResponse struct {
	Data         []result.Row               `json:"data"`
	Pagination   wirePaginationResponse     `json:"pagination"`
	Aggregations map[string]wireAggregation `json:"aggregations"`
}

type wirePaginationResponse struct {
	Total              int64  `json:"total"`
	Page               int    `json:"page"`
	PageSize           int    `json:"page_size"`
	OrderBy            string `json:"order_by"`
	Order              string `json:"order"`
	NextPageAfterValue string `json:"next_page_after_value"`
}

type wireAggregation struct {
	Terms     *wireAggData `json:"terms"`
	Histogram *wireAggData `json:"histogram"`
	MinMax    *wireAggData `json:"min_max"`
}

type wireAggData struct {
	Data []wireBucket `json:"data"`
}

type wireBucket struct {
	Value any   `json:"value"`
	Count int64 `json:"count"`
}

type wireSuggestRequest struct {
	Input      string   `json:"input"`
	Quantities []string `json:"quantities"`
}

type wireError struct {
	Detail string `json:"detail"`
}

// Query runs one search against the upstream API.
func (c *Client) Query(ctx context.Context, req QueryRequest) (QueryResult, error) {
	endpoint := "/entries/query"
	if req.Resource == filter.Materials {
		endpoint = "/materials/query"
	}

	body := wireQueryRequest{
		Query: req.Query,
		Pagination: wirePaginationRequest{
			Page:           req.Pagination.Page(),
			PageSize:       req.Pagination.PageSize(),
			OrderBy:        req.Pagination.OrderBy(),
			Order:          string(req.Pagination.Order()),
			PageAfterValue: req.Pagination.PageAfterValue(),
		},
		Aggregations: req.Aggregations,
	}
	if len(req.Required) > 0 {
		body.Required = &wireRequired{Include: req.Required}
	}

	var resp wireQueryResponse
	if err := c.post(ctx, endpoint, body, &resp); err != nil {
		return QueryResult{}, err
	}

	return QueryResult{
		Rows: resp.Data,
		Pagination: pagination.Response{
			Total:              resp.Pagination.Total,
			Page:               resp.Pagination.Page,
			PageSize:           resp.Pagination.PageSize,
			OrderBy:            resp.Pagination.OrderBy,
			Order:              pagination.Order(resp.Pagination.Order),
			NextPageAfterValue: resp.Pagination.NextPageAfterValue,
		},
		Aggregations: parseAggregations(resp.Aggregations),
	}, nil
}

// Suggest asks the upstream API for value suggestions on the given
// quantities.
func (c *Client) Suggest(ctx context.Context, quantities []string, input string) (map[string][]Suggestion, error) {
	var resp map[string][]Suggestion
	err := c.post(ctx, "/suggestions", wireSuggestRequest{Input: input, Quantities: quantities}, &resp)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Ping checks upstream availability.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/info", nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: status %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
	}
	return nil
}

func (c *Client) post(ctx context.Context, endpoint string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		return fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	metrics.UpstreamRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	metrics.UpstreamRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		return c.statusError(endpoint, resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) statusError(endpoint string, resp *http.Response) error {
	detail := readDetail(resp.Body)
	c.logger.Warn("upstream request failed",
		zap.String("endpoint", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.String("detail", detail))

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, detail)
	case resp.StatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("%w: status %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
	default:
		return fmt.Errorf("%w: status %d: %s", domain.ErrUpstreamRejected, resp.StatusCode, detail)
	}
}

func readDetail(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil {
		return ""
	}
	var we wireError
	if err := json.Unmarshal(data, &we); err == nil && we.Detail != "" {
		return we.Detail
	}
	return string(data)
}

func parseAggregations(in map[string]wireAggregation) map[string][]registry.Bucket {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string][]registry.Bucket, len(in))
	for name, agg := range in {
		var data *wireAggData
		switch {
		case agg.Terms != nil:
			data = agg.Terms
		case agg.Histogram != nil:
			data = agg.Histogram
		case agg.MinMax != nil:
			data = agg.MinMax
		}
		if data == nil {
			continue
		}
		buckets := make([]registry.Bucket, 0, len(data.Data))
		for _, b := range data.Data {
			buckets = append(buckets, registry.Bucket{
				Value: bucketValue(b.Value),
				Count: b.Count,
			})
		}
		out[name] = buckets
	}
	return out
}

func bucketValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}
