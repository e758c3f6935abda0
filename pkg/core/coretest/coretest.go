// Package coretest provides fixtures and a conformance suite shared by every
// core.Store implementation.
package coretest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/fabianshop/storefront/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Product returns a valid product with the given id.
func Product(id string) core.Product {
	return core.Product{
		ID:          id,
		Name:        "Zaino " + id,
		Price:       "25.00",
		Description: "Uno zaino comodo e resistente",
		Categories:  []core.Category{core.CategoryBimbo},
		Featured:    false,
		Images:      []string{fmt.Sprintf("https://x/%s.jpg", id)},
	}
}

// Draft returns a valid payload with the given id.
func Draft(id string) core.Draft {
	return core.DraftFrom(Product(id))
}

// Factory builds a store already holding seed.
type Factory func(t *testing.T, seed core.Catalog) core.Store

// RunStoreTests checks the fetch and conditional commit contract.
func RunStoreTests(t *testing.T, newStore Factory) {
	t.Helper()

	t.Run("FetchReturnsSeed", func(t *testing.T) {
		seed := core.Catalog{Products: []core.Product{Product("1"), Product("2")}}
		s := newStore(t, seed)

		c, v, err := s.FetchCatalog(context.Background())
		require.NoError(t, err)
		assert.NotEmpty(t, v)
		assert.Equal(t, seed.Products, c.Products)
	})

	t.Run("FetchIsStable", func(t *testing.T) {
		s := newStore(t, core.Catalog{Products: []core.Product{Product("1")}})

		_, v1, err := s.FetchCatalog(context.Background())
		require.NoError(t, err)
		_, v2, err := s.FetchCatalog(context.Background())
		require.NoError(t, err)
		assert.Equal(t, v1, v2)
	})

	t.Run("CommitWithCurrentVersion", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t, core.Catalog{})

		_, v1, err := s.FetchCatalog(ctx)
		require.NoError(t, err)

		next := core.Catalog{Products: []core.Product{Product("7")}}
		require.NoError(t, s.CommitCatalog(ctx, next, v1, core.ChangeNote(core.ChangeAdd, Product("7"), "")))

		c, v2, err := s.FetchCatalog(ctx)
		require.NoError(t, err)
		assert.NotEqual(t, v1, v2)
		assert.Equal(t, next.Products, c.Products)
	})

	t.Run("CommitWithStaleVersion", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t, core.Catalog{})

		_, stale, err := s.FetchCatalog(ctx)
		require.NoError(t, err)
		require.NoError(t, s.CommitCatalog(ctx, core.Catalog{Products: []core.Product{Product("1")}}, stale, "first"))

		err = s.CommitCatalog(ctx, core.Catalog{Products: []core.Product{Product("2")}}, stale, "second")
		require.ErrorIs(t, err, core.ErrVersionConflict)

		c, _, err := s.FetchCatalog(ctx)
		require.NoError(t, err)
		require.Len(t, c.Products, 1)
		assert.Equal(t, "1", c.Products[0].ID)
	})

	t.Run("CommitUnchangedContent", func(t *testing.T) {
		ctx := context.Background()
		seed := core.Catalog{Products: []core.Product{Product("1")}}
		s := newStore(t, seed)

		_, v1, err := s.FetchCatalog(ctx)
		require.NoError(t, err)
		require.NoError(t, s.CommitCatalog(ctx, seed, v1, core.ChangeNote(core.ChangeUpdate, Product("1"), "")))

		c, v2, err := s.FetchCatalog(ctx)
		require.NoError(t, err)
		assert.Equal(t, v1, v2)
		assert.Equal(t, seed.Products, c.Products)

		// the same token keeps guarding the next commit
		require.NoError(t, s.CommitCatalog(ctx, core.Catalog{}, v2, "clear"))
	})

	t.Run("RacingCommitsOneWinner", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t, core.Catalog{})

		_, v, err := s.FetchCatalog(ctx)
		require.NoError(t, err)

		const writers = 4
		errs := make([]error, writers)
		var wg sync.WaitGroup
		for i := range writers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				id := fmt.Sprint(i + 1)
				next := core.Catalog{Products: []core.Product{Product(id)}}
				errs[i] = s.CommitCatalog(ctx, next, v, "writer "+id)
			}()
		}
		wg.Wait()

		winner := -1
		for i, err := range errs {
			if err == nil {
				require.Equal(t, -1, winner, "more than one commit succeeded")
				winner = i
				continue
			}
			assert.True(t, errors.Is(err, core.ErrVersionConflict), "writer %d: %v", i, err)
		}
		require.NotEqual(t, -1, winner, "no commit succeeded")

		c, _, err := s.FetchCatalog(ctx)
		require.NoError(t, err)
		require.Len(t, c.Products, 1)
		assert.Equal(t, fmt.Sprint(winner+1), c.Products[0].ID)
	})

	t.Run("UnknownVersionConflicts", func(t *testing.T) {
		s := newStore(t, core.Catalog{})
		err := s.CommitCatalog(context.Background(), core.Catalog{}, core.Version("0000000"), "bogus")
		assert.ErrorIs(t, err, core.ErrVersionConflict)
	})
}
