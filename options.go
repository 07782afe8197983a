package matdex

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/matdex-io/matdex/internal/registry"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	baseURL string
	token   string
	timeout time.Duration

	cacheDriver   string // "valkey" or "redis", empty disables caching
	cacheAddrs    []string
	cachePassword string
	cacheTTL      time.Duration

	reg        *registry.Registry
	logger     *zap.Logger
	httpClient *http.Client
}

// WithBaseURL sets the upstream search API base URL. Required.
func WithBaseURL(url string) Option {
	return optionFunc(func(c *clientConfig) {
		c.baseURL = url
	})
}

// WithToken sets the bearer token sent with every upstream request.
func WithToken(token string) Option {
	return optionFunc(func(c *clientConfig) {
		c.token = token
	})
}

// WithTimeout sets the upstream request timeout. Default: 30s.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.timeout = d
	})
}

// WithValkeyCache enables response caching in a Valkey instance.
func WithValkeyCache(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheDriver = "valkey"
		c.cacheAddrs = []string{addr}
		c.cachePassword = password
	})
}

// WithRedisCache enables response caching in a Redis instance.
func WithRedisCache(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheDriver = "redis"
		c.cacheAddrs = []string{addr}
		c.cachePassword = password
	})
}

// WithCacheTTL sets how long cached query results live. Default: 5m.
func WithCacheTTL(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheTTL = d
	})
}

// WithRegistry replaces the built-in filter registry. Use this to add
// project-specific filters on top of registry defaults.
func WithRegistry(reg *registry.Registry) Option {
	return optionFunc(func(c *clientConfig) {
		c.reg = reg
	})
}

// WithLogger enables structured logging for client operations.
// Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithHTTPClient overrides the HTTP client used for upstream calls,
// mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return optionFunc(func(c *clientConfig) {
		c.httpClient = hc
	})
}
