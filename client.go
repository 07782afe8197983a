package matdex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/matdex-io/matdex/internal/db"
	dbRedis "github.com/matdex-io/matdex/internal/db/redis"
	dbValkey "github.com/matdex-io/matdex/internal/db/valkey"
	"github.com/matdex-io/matdex/internal/registry"
	"github.com/matdex-io/matdex/internal/repository/rescache"
	"github.com/matdex-io/matdex/internal/transport/upstream"
	searchuc "github.com/matdex-io/matdex/internal/usecase/search"
)

const defaultReadinessTimeout = 10 * time.Second

// Client is the matdex SDK entry point. It talks to the upstream
// search API directly, optionally caching query results in Valkey or
// Redis.
type Client struct {
	reg      *registry.Registry
	upstream *upstream.Client
	store    db.Store
	svc      *searchuc.Service
	logger   *zap.Logger
}

// New creates a matdex Client. The provided context bounds the cache
// readiness check when caching is configured.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		timeout:  30 * time.Second,
		cacheTTL: 5 * time.Minute,
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.baseURL == "" {
		return nil, errors.New("matdex: base URL required (use WithBaseURL)")
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}
	if cfg.reg == nil {
		cfg.reg = registry.Default()
	}

	client, err := upstream.NewClient(upstream.Config{
		BaseURL:    cfg.baseURL,
		Token:      cfg.token,
		Timeout:    cfg.timeout,
		Logger:     cfg.logger,
		HTTPClient: cfg.httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("matdex: %w", err)
	}

	var store db.Store
	var searcher searchuc.Searcher = client
	if cfg.cacheDriver != "" {
		store, err = createStore(cfg)
		if err != nil {
			return nil, err
		}
		if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			store.Close()
			return nil, fmt.Errorf("matdex: cache not ready: %w", err)
		}
		searcher = rescache.New(client, store, cfg.cacheTTL, nil, cfg.logger)
	}

	svc := searchuc.New(cfg.reg, searcher, client, cfg.logger)

	return &Client{
		reg:      cfg.reg,
		upstream: client,
		store:    store,
		svc:      svc,
		logger:   cfg.logger,
	}, nil
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.cacheDriver {
	case "valkey":
		s, err := dbValkey.NewStore(dbValkey.Config{
			Addrs:    cfg.cacheAddrs,
			Password: cfg.cachePassword,
		})
		if err != nil {
			return nil, fmt.Errorf("matdex: create valkey store: %w", err)
		}
		return s, nil
	case "redis":
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.cacheAddrs,
			Password: cfg.cachePassword,
		})
		if err != nil {
			return nil, fmt.Errorf("matdex: create redis store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("matdex: unknown cache driver %q", cfg.cacheDriver)
	}
}

// Close releases the cache connection if one was configured.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks upstream API connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.upstream.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Registry returns the filter registry the client queries against.
func (c *Client) Registry() *Registry {
	return c.reg
}

// Filters lists every registered filter with its display metadata.
func (c *Client) Filters() []FilterInfo {
	return c.svc.Filters()
}

// FilterNames returns filter names matching the input prefix.
func (c *Client) FilterNames(input string) []string {
	return c.svc.SuggestNames(input)
}

// Parse turns a search-bar expression like "band_gap >= 1.5" into a
// filter name and its encoded value.
func (c *Client) Parse(input string) (name, value string, err error) {
	n, v, err := c.svc.Parse(input)
	if err != nil {
		return "", "", err
	}
	f, ok := c.reg.Get(n)
	if !ok {
		return "", "", fmt.Errorf("parse: unresolved filter %q", n)
	}
	encoded, err := f.Config().EncodeValue(v)
	if err != nil {
		return "", "", fmt.Errorf("parse: %w", err)
	}
	return n, encoded, nil
}

// Suggest returns value suggestions per filter name for the given
// partial input. Enum filters answer locally, others ask the upstream.
func (c *Client) Suggest(ctx context.Context, names []string, input string) (map[string][]Suggestion, error) {
	return c.svc.Suggest(ctx, names, input)
}

// Search starts a fluent query against the given resource.
func (c *Client) Search(resource Resource) *SearchBuilder {
	return &SearchBuilder{client: c, resource: resource}
}
