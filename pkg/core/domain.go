// Package core holds the catalog domain and the mutation protocol.
package core

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
)

// Product is a single entry of the catalog. Stored keys the struct does not
// know are kept in Extra and written back after the known fields.
type Product struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	Price           string            `json:"price"`
	Description     string            `json:"description"`
	Categories      []Category        `json:"categories"`
	Featured        bool              `json:"featured"`
	Images          []string          `json:"images"`
	Specs           map[string]string `json:"specs,omitempty"`
	RelatedProducts []string          `json:"relatedProducts,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// productFields has the JSON layout of Product without its methods.
type productFields Product

var productKeys = []string{
	"id", "name", "price", "description", "categories",
	"featured", "images", "specs", "relatedProducts",
}

// MarshalJSON implements json.Marshaler.
func (p Product) MarshalJSON() ([]byte, error) {
	return marshalWithExtra(productFields(p), p.Extra, productKeys)
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Product) UnmarshalJSON(data []byte) error {
	var fields productFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	extra, err := unknownKeys(data, productKeys)
	if err != nil {
		return err
	}
	fields.Extra = extra
	*p = Product(fields)
	return nil
}

// CoverImage returns the primary image, or "" when the product has none.
func (p Product) CoverImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// HasCategory reports whether the product is tagged with c.
func (p Product) HasCategory(c Category) bool {
	for _, pc := range p.Categories {
		if pc == c {
			return true
		}
	}
	return false
}

// Catalog is the whole product document. Order is insertion order.
// Top-level keys other than "products" are kept in Extra.
type Catalog struct {
	Products []Product                  `json:"products"`
	Extra    map[string]json.RawMessage `json:"-"`
}

var catalogKeys = []string{"products"}

// MarshalJSON implements json.Marshaler.
func (c Catalog) MarshalJSON() ([]byte, error) {
	known := struct {
		Products []Product `json:"products"`
	}{c.Products}
	return marshalWithExtra(known, c.Extra, catalogKeys)
}

// UnmarshalJSON implements json.Unmarshaler with the checks of Decode.
func (c *Catalog) UnmarshalJSON(data []byte) error {
	decoded, err := Decode(data)
	if err != nil {
		return err
	}
	*c = decoded
	return nil
}

// Index returns the position of the product with the given id, or -1.
func (c Catalog) Index(id string) int {
	for i, p := range c.Products {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// Find returns the product with the given id.
func (c Catalog) Find(id string) (Product, bool) {
	i := c.Index(id)
	if i < 0 {
		return Product{}, false
	}
	return c.Products[i], true
}

// clone returns a catalog whose product slice can be modified without
// touching the receiver.
func (c Catalog) clone() Catalog {
	out := Catalog{Products: make([]Product, len(c.Products)), Extra: c.Extra}
	copy(out.Products, c.Products)
	return out
}

// Version is the opaque optimistic-lock token of a stored catalog.
type Version string

// Short returns the first seven characters, the way git abbreviates hashes.
func (v Version) Short() string {
	if len(v) > 7 {
		return string(v[:7])
	}
	return string(v)
}

// VersionOf computes the token for stored catalog bytes. It is the git blob
// hash of the content, which is also what the GitHub contents API calls "sha".
func VersionOf(content []byte) Version {
	h := sha1.New()
	fmt.Fprintf(h, "blob %d\x00", len(content))
	h.Write(content)
	return Version(hex.EncodeToString(h.Sum(nil)))
}

// Encode serializes a catalog with stable 2-space indentation.
func Encode(c Catalog) ([]byte, error) {
	if c.Products == nil {
		c.Products = []Product{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("failed to encode catalog: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses stored catalog bytes. A document that is not JSON or lacks a
// "products" array fails with ErrCatalogMalformed.
func Decode(content []byte) (Catalog, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(content, &raw); err != nil {
		return Catalog{}, fmt.Errorf("%w: %v", ErrCatalogMalformed, err)
	}
	trimmed := bytes.TrimSpace(raw["products"])
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return Catalog{}, fmt.Errorf("%w: missing products array", ErrCatalogMalformed)
	}
	var c Catalog
	if err := json.Unmarshal(trimmed, &c.Products); err != nil {
		return Catalog{}, fmt.Errorf("%w: %v", ErrCatalogMalformed, err)
	}
	delete(raw, "products")
	if len(raw) > 0 {
		c.Extra = raw
	}
	return c, nil
}

// unknownKeys returns the members of the JSON object data not named in known.
func unknownKeys(data []byte, known []string) (map[string]json.RawMessage, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for _, k := range known {
		delete(all, k)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

// marshalWithExtra encodes v, an object, and appends the extra members in
// key order. Extra keys that collide with known ones are skipped.
func marshalWithExtra(v any, extra map[string]json.RawMessage, known []string) ([]byte, error) {
	out, err := marshalUnescaped(v)
	if err != nil || len(extra) == 0 {
		return out, err
	}
	out = out[:len(out)-1] // drop the closing brace
	for _, k := range slices.Sorted(maps.Keys(extra)) {
		if slices.Contains(known, k) {
			continue
		}
		name, err := marshalUnescaped(k)
		if err != nil {
			return nil, err
		}
		value := extra[k]
		if len(value) == 0 {
			value = json.RawMessage("null")
		}
		out = append(out, ',')
		out = append(out, name...)
		out = append(out, ':')
		out = append(out, value...)
	}
	return append(out, '}'), nil
}

// marshalUnescaped is json.Marshal without HTML escaping, matching Encode.
func marshalUnescaped(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// EventType represents the type of change observed on the stored catalog.
type EventType string

const (
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
)

// Event is emitted by stores that can watch their backing document.
type Event struct {
	Type      EventType
	Path      string
	Timestamp int64 // Unix timestamp
}

// String implements fmt.Stringer.
func (e Event) String() string {
	return fmt.Sprintf("%s %s", e.Type, e.Path)
}
