// Package shop holds the read side of the storefront: filtering, related
// product suggestions, price helpers and a catalog snapshot cache.
package shop

import (
	"math/rand/v2"

	"github.com/fabianshop/storefront/pkg/core"
)

// Filter returns the products tagged with category. An empty category or
// core.CategoryAll selects everything.
func Filter(products []core.Product, category core.Category) []core.Product {
	if category == "" || category == core.CategoryAll {
		return append([]core.Product(nil), products...)
	}
	var out []core.Product
	for _, p := range products {
		if p.HasCategory(category) {
			out = append(out, p)
		}
	}
	return out
}

// Featured returns the products shown in the highlights strip.
func Featured(products []core.Product) []core.Product {
	return split(products, true)
}

// Regular returns every product that is not featured.
func Regular(products []core.Product) []core.Product {
	return split(products, false)
}

func split(products []core.Product, featured bool) []core.Product {
	var out []core.Product
	for _, p := range products {
		if p.Featured == featured {
			out = append(out, p)
		}
	}
	return out
}

// WithImages drops products that cannot be rendered as a card.
func WithImages(products []core.Product) []core.Product {
	var out []core.Product
	for _, p := range products {
		if len(p.Images) > 0 {
			out = append(out, p)
		}
	}
	return out
}

// Shuffle returns a randomly ordered copy of products.
func Shuffle(products []core.Product, rng *rand.Rand) []core.Product {
	out := append([]core.Product(nil), products...)
	rng.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}

// CategoryCounts returns how many products carry each category, for filter pills.
func CategoryCounts(products []core.Product) map[core.Category]int {
	counts := make(map[core.Category]int)
	for _, p := range products {
		for _, c := range p.Categories {
			counts[c]++
		}
	}
	return counts
}
