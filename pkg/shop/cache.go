package shop

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/introspection"
	"github.com/aretw0/lifecycle"

	catalogevents "github.com/fabianshop/storefront/pkg/adapters/lifecycle"
	"github.com/fabianshop/storefront/pkg/core"
)

// Fetcher is the read half of core.Store.
type Fetcher interface {
	FetchCatalog(ctx context.Context) (core.Catalog, core.Version, error)
}

// Snapshot is one fetched copy of the catalog document.
type Snapshot struct {
	Catalog   core.Catalog
	Version   core.Version
	Content   []byte // encoded document served to clients
	FetchedAt time.Time
}

// Cache serves catalog reads from a snapshot. The snapshot is dropped after
// every successful mutation, on store change events and when it outlives the TTL.
type Cache struct {
	source Fetcher
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time

	mu            sync.Mutex
	snap          *Snapshot
	hits          uint64
	misses        uint64
	invalidations uint64
	following     bool
}

// CacheOption configures the Cache.
type CacheOption func(*Cache)

// WithTTL bounds the age of a snapshot. Zero keeps it until invalidated.
func WithTTL(d time.Duration) CacheOption {
	return func(c *Cache) {
		c.ttl = d
	}
}

// WithCacheLogger sets the logger.
func WithCacheLogger(l *slog.Logger) CacheOption {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) {
		c.now = now
	}
}

// NewCache creates a Cache in front of source.
func NewCache(source Fetcher, opts ...CacheOption) *Cache {
	c := &Cache{
		source: source,
		logger: slog.New(slog.DiscardHandler),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the current snapshot, fetching it when missing or stale.
// Concurrent misses are serialized so the store sees one fetch.
func (c *Cache) Get(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.snap != nil && (c.ttl <= 0 || c.now().Sub(c.snap.FetchedAt) < c.ttl) {
		c.hits++
		return *c.snap, nil
	}
	c.misses++

	catalog, version, err := c.source.FetchCatalog(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	content, err := core.Encode(catalog)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to encode snapshot: %w", err)
	}

	c.snap = &Snapshot{
		Catalog:   catalog,
		Version:   version,
		Content:   content,
		FetchedAt: c.now(),
	}
	c.logger.Debug("catalog snapshot refreshed", "version", version.Short(), "products", len(catalog.Products))
	return *c.snap, nil
}

// Invalidate drops the snapshot.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snap != nil {
		c.invalidations++
	}
	c.snap = nil
}

// Follow invalidates the cache on every event from w until ctx is done.
func (c *Cache) Follow(ctx context.Context, w core.Watchable) error {
	events, err := w.Watch(ctx)
	if err != nil {
		return fmt.Errorf("failed to watch catalog: %w", err)
	}
	src := catalogevents.NewSource(events)
	if err := src.Start(ctx); err != nil {
		return fmt.Errorf("failed to start event source: %w", err)
	}

	c.setFollowing(true)
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer c.setFollowing(false)
		for e := range src.Events() {
			c.logger.Info("catalog changed", "event", e.String())
			c.Invalidate()
		}
		return nil
	}, lifecycle.WithErrorHandler(func(err error) {
		c.logger.Error("cache follower stopped", "error", err)
	}))
	return nil
}

func (c *Cache) setFollowing(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.following = v
}

// CacheState exposes cache statistics for observability.
type CacheState struct {
	Cached        bool       `json:"cached"`
	Version       string     `json:"version,omitempty"`
	FetchedAt     *time.Time `json:"fetched_at,omitempty"`
	TTL           string     `json:"ttl"`
	Hits          uint64     `json:"hits"`
	Misses        uint64     `json:"misses"`
	Invalidations uint64     `json:"invalidations"`
	Following     bool       `json:"following"`
}

// State implements introspection.Introspectable.
func (c *Cache) State() any {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := CacheState{
		Cached:        c.snap != nil,
		TTL:           c.ttl.String(),
		Hits:          c.hits,
		Misses:        c.misses,
		Invalidations: c.invalidations,
		Following:     c.following,
	}
	if c.snap != nil {
		st.Version = c.snap.Version.Short()
		at := c.snap.FetchedAt
		st.FetchedAt = &at
	}
	return st
}

// ComponentType implements introspection.Component.
func (c *Cache) ComponentType() string {
	return "catalog-cache"
}

var _ introspection.Introspectable = (*Cache)(nil)
var _ introspection.Component = (*Cache)(nil)
