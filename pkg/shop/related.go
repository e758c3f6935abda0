package shop

import (
	"math/rand/v2"

	"github.com/fabianshop/storefront/pkg/core"
)

// DefaultRelatedCount is the number of suggestions shown under a product.
const DefaultRelatedCount = 6

// Related returns the suggestions for the product with the given id.
//
// When the product lists relatedProducts, those are resolved in order and
// entries that are unknown or have no images are skipped. Otherwise up to
// count products are sampled without replacement, excluding the product
// itself and products without images. rng makes the sample reproducible.
func Related(c core.Catalog, id string, count int, rng *rand.Rand) []core.Product {
	if p, ok := c.Find(id); ok && len(p.RelatedProducts) > 0 {
		var out []core.Product
		for _, rid := range p.RelatedProducts {
			if r, ok := c.Find(rid); ok && len(r.Images) > 0 {
				out = append(out, r)
			}
		}
		return out
	}
	return Sample(c.Products, id, count, rng)
}

// Sample picks up to count products at random, never the one with excludeID
// and never one without images.
func Sample(products []core.Product, excludeID string, count int, rng *rand.Rand) []core.Product {
	if count <= 0 {
		return nil
	}

	pool := make([]core.Product, 0, len(products))
	for _, p := range products {
		if p.ID != excludeID && len(p.Images) > 0 {
			pool = append(pool, p)
		}
	}

	// Partial Fisher-Yates: only the first n slots are settled.
	n := min(count, len(pool))
	for i := range n {
		j := i + rng.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:n]
}
