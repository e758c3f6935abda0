package shop_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabianshop/storefront/pkg/adapters/memory"
	"github.com/fabianshop/storefront/pkg/core"
	"github.com/fabianshop/storefront/pkg/core/coretest"
	"github.com/fabianshop/storefront/pkg/shop"
)

// countingStore counts fetches.
type countingStore struct {
	core.Store
	fetches atomic.Int32
}

func (s *countingStore) FetchCatalog(ctx context.Context) (core.Catalog, core.Version, error) {
	s.fetches.Add(1)
	return s.Store.FetchCatalog(ctx)
}

// watchStub hands out a channel the test controls.
type watchStub struct {
	events chan core.Event
}

func (w *watchStub) Watch(ctx context.Context) (<-chan core.Event, error) {
	return w.events, nil
}

func TestCache_HitsAndInvalidate(t *testing.T) {
	store := &countingStore{Store: memory.New(memory.WithCatalog(core.Catalog{Products: []core.Product{coretest.Product("1")}}))}
	cache := shop.NewCache(store)
	ctx := context.Background()

	s1, err := cache.Get(ctx)
	require.NoError(t, err)
	s2, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(1), store.fetches.Load())
	assert.Equal(t, s1.Version, s2.Version)
	assert.Equal(t, []core.Product{coretest.Product("1")}, s1.Catalog.Products)

	encoded, err := core.Encode(s1.Catalog)
	require.NoError(t, err)
	assert.Equal(t, encoded, s1.Content)

	cache.Invalidate()
	_, err = cache.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), store.fetches.Load())

	st := cache.State().(shop.CacheState)
	assert.True(t, st.Cached)
	assert.Equal(t, uint64(1), st.Hits)
	assert.Equal(t, uint64(2), st.Misses)
	assert.Equal(t, uint64(1), st.Invalidations)
}

func TestCache_TTL(t *testing.T) {
	store := &countingStore{Store: memory.New(memory.WithCatalog(core.Catalog{}))}
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cache := shop.NewCache(store, shop.WithTTL(time.Minute), shop.WithClock(func() time.Time { return now }))
	ctx := context.Background()

	_, err := cache.Get(ctx)
	require.NoError(t, err)
	now = now.Add(30 * time.Second)
	_, err = cache.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(1), store.fetches.Load())

	now = now.Add(time.Minute)
	_, err = cache.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), store.fetches.Load())
}

func TestCache_ErrorsAreNotCached(t *testing.T) {
	store := memory.New()
	cache := shop.NewCache(store)

	_, err := cache.Get(context.Background())
	require.True(t, errors.Is(err, core.ErrCatalogNotFound))

	require.NoError(t, store.Initialize(context.Background()))
	_, err = cache.Get(context.Background())
	assert.NoError(t, err)
}

func TestCache_Follow(t *testing.T) {
	store := &countingStore{Store: memory.New(memory.WithCatalog(core.Catalog{}))}
	cache := shop.NewCache(store)
	w := &watchStub{events: make(chan core.Event)}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, cache.Follow(ctx, w))

	_, err := cache.Get(ctx)
	require.NoError(t, err)

	w.events <- core.Event{Type: core.EventModify, Path: "products.json"}
	require.Eventually(t, func() bool {
		return !cache.State().(shop.CacheState).Cached
	}, time.Second, 5*time.Millisecond)

	close(w.events)
	require.Eventually(t, func() bool {
		return !cache.State().(shop.CacheState).Following
	}, time.Second, 5*time.Millisecond)
}
