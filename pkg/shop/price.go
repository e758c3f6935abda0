package shop

import (
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/fabianshop/storefront/pkg/core"
)

// Price parses the fixed-point price of a product.
func Price(p core.Product) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(p.Price)
	if err != nil {
		return decimal.Zero, fmt.Errorf("product %s: invalid price %q: %w", p.ID, p.Price, err)
	}
	return d, nil
}

// FormatPrice renders an amount the way prices are stored ("18.00").
func FormatPrice(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// PriceBetween keeps products priced within [lo, hi]. Products whose price
// cannot be parsed are dropped.
func PriceBetween(products []core.Product, lo, hi decimal.Decimal) []core.Product {
	var out []core.Product
	for _, p := range products {
		d, err := Price(p)
		if err != nil {
			continue
		}
		if d.GreaterThanOrEqual(lo) && d.LessThanOrEqual(hi) {
			out = append(out, p)
		}
	}
	return out
}

// SortByPrice returns a copy ordered by price, cheapest first unless desc.
// Equal prices keep catalog order; unparseable prices sort last.
func SortByPrice(products []core.Product, desc bool) []core.Product {
	type priced struct {
		p  core.Product
		d  decimal.Decimal
		ok bool
	}
	items := make([]priced, len(products))
	for i, p := range products {
		d, err := Price(p)
		items[i] = priced{p: p, d: d, ok: err == nil}
	}

	slices.SortStableFunc(items, func(a, b priced) int {
		if a.ok != b.ok {
			if a.ok {
				return -1
			}
			return 1
		}
		if desc {
			return b.d.Cmp(a.d)
		}
		return a.d.Cmp(b.d)
	})

	out := make([]core.Product, len(items))
	for i, it := range items {
		out[i] = it.p
	}
	return out
}

// Total sums the prices of products, skipping unparseable ones.
func Total(products []core.Product) decimal.Decimal {
	sum := decimal.Zero
	for _, p := range products {
		if d, err := Price(p); err == nil {
			sum = sum.Add(d)
		}
	}
	return sum
}
