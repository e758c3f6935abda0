package shop

import (
	"strconv"
	"strings"

	"github.com/fabianshop/storefront/pkg/core"
)

// NextID suggests the id for a new product: one more than the largest
// numeric id, or "1" when there is none. Ids such as "12-bis" count as 12.
func NextID(c core.Catalog) string {
	highest := 0
	for _, p := range c.Products {
		if n, ok := leadingInt(p.ID); ok && n > highest {
			highest = n
		}
	}
	return strconv.Itoa(highest + 1)
}

func leadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
