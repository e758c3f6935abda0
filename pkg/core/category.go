package core

// Category is the closed vocabulary products are tagged with.
type Category string

const (
	CategoryAsilo       Category = "asilo"
	CategoryBimbo       Category = "bimbo"
	CategoryBimba       Category = "bimba"
	CategoryCucina      Category = "cucina"
	CategoryTovagliette Category = "tovagliette"
	CategoryGrembiuli   Category = "grembiuli"
	CategoryRegalo      Category = "regalo"
	CategoryBorse       Category = "borse"
	CategoryDecorazioni Category = "decorazioni"
)

// CategoryAll is the storefront filter meaning "every category".
// It is never a valid product category.
const CategoryAll Category = "tutti"

var categories = []Category{
	CategoryAsilo,
	CategoryBimbo,
	CategoryBimba,
	CategoryCucina,
	CategoryTovagliette,
	CategoryGrembiuli,
	CategoryRegalo,
	CategoryBorse,
	CategoryDecorazioni,
}

// Categories returns the vocabulary in declaration order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// ParseCategory returns the category named s.
func ParseCategory(s string) (Category, bool) {
	for _, c := range categories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// Valid reports whether c belongs to the vocabulary.
func (c Category) Valid() bool {
	_, ok := ParseCategory(string(c))
	return ok
}
