package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	minNameLen        = 3
	minDescriptionLen = 10
)

var pricePattern = regexp.MustCompile(`^\d+\.\d{2}$`)

// Draft is an incoming product payload before validation. Values keep the
// shapes produced by encoding/json so type mismatches can be reported per field.
type Draft map[string]any

// DecodeDraft reads a JSON object from r.
func DecodeDraft(r io.Reader) (Draft, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var d Draft
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if d == nil {
		return nil, fmt.Errorf("%w: body must be an object", ErrInvalidPayload)
	}
	// Only whitespace may follow the object.
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: unexpected data after object", ErrInvalidPayload)
	}
	return d, nil
}

// DraftFrom converts a typed product into a payload, e.g. for Go callers and tests.
func DraftFrom(p Product) Draft {
	data, err := json.Marshal(p)
	if err != nil {
		// Product only holds strings, bools, slices and string maps.
		panic(fmt.Sprintf("core: marshal product: %v", err))
	}
	d, err := DecodeDraft(bytes.NewReader(data))
	if err != nil {
		panic(fmt.Sprintf("core: decode product: %v", err))
	}
	return d
}

// ValidateID checks the id field alone, as delete does.
func ValidateID(v any) (string, error) {
	id, ok := v.(string)
	if !ok || strings.TrimSpace(id) == "" {
		return "", invalid("id", ErrInvalidID, "")
	}
	return id, nil
}

// Validate checks a payload and returns the typed product. It stops at the
// first failing field and reports only that one.
func Validate(d Draft) (Product, error) {
	var p Product
	var err error

	if p.ID, err = ValidateID(d["id"]); err != nil {
		return Product{}, err
	}

	name, ok := d["name"].(string)
	if !ok || utf8.RuneCountInString(strings.TrimSpace(name)) < minNameLen {
		return Product{}, invalid("name", ErrInvalidName, "")
	}
	p.Name = name

	price, ok := d["price"].(string)
	if !ok || !pricePattern.MatchString(price) {
		return Product{}, invalid("price", ErrInvalidPrice, "")
	}
	p.Price = price

	desc, ok := d["description"].(string)
	if !ok || utf8.RuneCountInString(strings.TrimSpace(desc)) < minDescriptionLen {
		return Product{}, invalid("description", ErrInvalidDescription, "")
	}
	p.Description = desc

	if p.Categories, err = validateCategories(d["categories"]); err != nil {
		return Product{}, err
	}

	images, ok := stringList(d["images"])
	if !ok || len(images) == 0 {
		return Product{}, invalid("images", ErrInvalidImages, "")
	}
	for _, img := range images {
		if strings.TrimSpace(img) == "" {
			return Product{}, invalid("images", ErrInvalidImages, "")
		}
	}
	p.Images = images

	featured, ok := d["featured"].(bool)
	if !ok {
		return Product{}, invalid("featured", ErrInvalidFeatured, "")
	}
	p.Featured = featured

	if p.Specs, err = validateSpecs(d["specs"]); err != nil {
		return Product{}, err
	}

	if raw, present := d["relatedProducts"]; present && raw != nil {
		related, ok := stringList(raw)
		if !ok {
			return Product{}, invalid("relatedProducts", ErrInvalidRelated, "")
		}
		for _, id := range related {
			if strings.TrimSpace(id) == "" {
				return Product{}, invalid("relatedProducts", ErrInvalidRelated, "")
			}
		}
		if len(related) > 0 {
			p.RelatedProducts = related
		}
	}

	return p, nil
}

func validateCategories(v any) ([]Category, error) {
	names, ok := stringList(v)
	if !ok || len(names) == 0 {
		return nil, invalid("categories", ErrInvalidCategory, "at least one category is required")
	}
	out := make([]Category, 0, len(names))
	for _, n := range names {
		c, ok := ParseCategory(n)
		if !ok {
			return nil, invalid("categories", ErrInvalidCategory, fmt.Sprintf("%q, valid: %s", n, vocabulary()))
		}
		out = append(out, c)
	}
	return out, nil
}

func validateSpecs(v any) (map[string]string, error) {
	if v == nil {
		return nil, nil
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, invalid("specs", ErrInvalidSpecs, "")
	}
	specs := make(map[string]string, len(obj))
	for k, val := range obj {
		switch s := val.(type) {
		case nil:
			// absent keys are omitted, never stored as null
		case string:
			specs[k] = s
		default:
			return nil, invalid("specs", ErrInvalidSpecs, fmt.Sprintf("key %q", k))
		}
	}
	if len(specs) == 0 {
		return nil, nil
	}
	return specs, nil
}

// stringList accepts the shapes a JSON array of strings can take.
func stringList(v any) ([]string, bool) {
	switch list := v.(type) {
	case []string:
		return list, true
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}

func vocabulary() string {
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}
