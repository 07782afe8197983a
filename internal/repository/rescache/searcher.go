// Package rescache caches upstream search responses in a key-value
// store. Identical requests within the TTL are served locally, which
// keeps rapid filter toggling from hammering the upstream API.
package rescache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/matdex-io/matdex/internal/db"
	"github.com/matdex-io/matdex/internal/transport/upstream"
)

const cacheKeyPrefix = "matdex:res_cache:"

// store is the consumer interface for the response cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// searcher is the inner client being decorated.
type searcher interface {
	Query(ctx context.Context, req upstream.QueryRequest) (upstream.QueryResult, error)
}

// CachedSearcher caches query results in a key-value store.
type CachedSearcher struct {
	inner      searcher
	store      store
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(
	inner searcher,
	s store,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedSearcher {
	return &CachedSearcher{
		inner:      inner,
		store:      s,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Query returns a cached result or calls the inner searcher.
func (c *CachedSearcher) Query(ctx context.Context, req upstream.QueryRequest) (upstream.QueryResult, error) {
	key, err := c.cacheKey(req)
	if err != nil {
		return c.inner.Query(ctx, req)
	}

	if res, ok := c.getFromCache(ctx, key); ok {
		c.incCache("hit")
		return res, nil
	}
	c.incCache("miss")

	res, err := c.inner.Query(ctx, req)
	if err != nil {
		return upstream.QueryResult{}, fmt.Errorf("query upstream: %w", err)
	}

	c.putToCache(ctx, key, res)
	return res, nil
}

func (c *CachedSearcher) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

// cacheKeyRequest is the canonical, marshal-stable shape of a request.
// encoding/json sorts map keys, so equal requests hash equally.
type cacheKeyRequest struct {
	Resource     string                    `json:"resource"`
	Query        map[string]any            `json:"query"`
	Page         int                       `json:"page"`
	PageSize     int                       `json:"page_size"`
	OrderBy      string                    `json:"order_by"`
	Order        string                    `json:"order"`
	Cursor       string                    `json:"cursor"`
	Aggregations map[string]map[string]any `json:"aggregations"`
	Required     []string                  `json:"required"`
}

func (c *CachedSearcher) cacheKey(req upstream.QueryRequest) (string, error) {
	canonical := cacheKeyRequest{
		Resource:     string(req.Resource),
		Query:        req.Query,
		Page:         req.Pagination.Page(),
		PageSize:     req.Pagination.PageSize(),
		OrderBy:      req.Pagination.OrderBy(),
		Order:        string(req.Pagination.Order()),
		Cursor:       req.Pagination.PageAfterValue(),
		Aggregations: req.Aggregations,
		Required:     req.Required,
	}
	data, err := json.Marshal(canonical)
	if err != nil {
		return "", fmt.Errorf("marshal cache key: %w", err)
	}
	h := sha256.Sum256(data)
	return cacheKeyPrefix + hex.EncodeToString(h[:]), nil
}

func (c *CachedSearcher) getFromCache(ctx context.Context, key string) (upstream.QueryResult, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached search result", zap.String("key", key), zap.Error(err))
		}
		return upstream.QueryResult{}, false
	}

	var res upstream.QueryResult
	if err := json.Unmarshal(data, &res); err != nil {
		c.logger.Warn("Failed to parse cached search result", zap.String("key", key), zap.Error(err))
		// Evict the corrupt entry so it does not fail every lookup
		// until the TTL expires.
		if delErr := c.store.Del(ctx, key); delErr != nil {
			c.logger.Warn("Failed to evict corrupt cache entry", zap.String("key", key), zap.Error(delErr))
		}
		return upstream.QueryResult{}, false
	}
	return res, true
}

func (c *CachedSearcher) putToCache(ctx context.Context, key string, res upstream.QueryResult) {
	data, err := json.Marshal(res)
	if err != nil {
		c.logger.Warn("Failed to marshal search result for cache", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache search result", zap.String("key", key), zap.Error(err))
	}
}
