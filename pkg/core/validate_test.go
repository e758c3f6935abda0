package core_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/fabianshop/storefront/pkg/core"
	"github.com/fabianshop/storefront/pkg/core/coretest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Boundaries(t *testing.T) {
	tests := []struct {
		name  string
		field string
		value any
		want  error
	}{
		{"name 2 chars", "name", "ab", core.ErrInvalidName},
		{"name 3 chars", "name", "abc", nil},
		{"name padded to 3", "name", "  ab  ", core.ErrInvalidName},
		{"name accented", "name", "età", nil},
		{"name not string", "name", 123, core.ErrInvalidName},
		{"price one decimal", "price", "18.0", core.ErrInvalidPrice},
		{"price two decimals", "price", "18.00", nil},
		{"price no decimals", "price", "18", core.ErrInvalidPrice},
		{"price comma", "price", "18,00", core.ErrInvalidPrice},
		{"price number", "price", 18.00, core.ErrInvalidPrice},
		{"description short", "description", "troppo   ", core.ErrInvalidDescription},
		{"description 10", "description", "abcdefghij", nil},
		{"categories empty", "categories", []any{}, core.ErrInvalidCategory},
		{"categories one invalid", "categories", []any{"bimbo", "scarpe"}, core.ErrInvalidCategory},
		{"categories alias", "categories", []any{"tutti"}, core.ErrInvalidCategory},
		{"categories case", "categories", []any{"Bimbo"}, core.ErrInvalidCategory},
		{"categories all valid", "categories", []any{"bimbo", "regalo"}, nil},
		{"images empty", "images", []any{}, core.ErrInvalidImages},
		{"images blank entry", "images", []any{"https://x/1.jpg", " "}, core.ErrInvalidImages},
		{"images not list", "images", "https://x/1.jpg", core.ErrInvalidImages},
		{"featured string", "featured", "true", core.ErrInvalidFeatured},
		{"featured missing", "featured", nil, core.ErrInvalidFeatured},
		{"specs array", "specs", []any{"a"}, core.ErrInvalidSpecs},
		{"specs number value", "specs", map[string]any{"peso": 3}, core.ErrInvalidSpecs},
		{"specs strings", "specs", map[string]any{"peso": "300g", "colore": nil}, nil},
		{"related blank", "relatedProducts", []any{""}, core.ErrInvalidRelated},
		{"related ids", "relatedProducts", []any{"2", "3"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := coretest.Draft("1")
			if tt.value == nil {
				delete(d, tt.field)
			} else {
				d[tt.field] = tt.value
			}

			_, err := core.Validate(d)
			if tt.want == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.want)
			require.ErrorIs(t, err, core.ErrValidation)

			var verr *core.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestValidate_FirstFailureOnly(t *testing.T) {
	d := core.Draft{
		"id":    "1",
		"name":  "x",
		"price": "bad",
	}
	_, err := core.Validate(d)
	require.ErrorIs(t, err, core.ErrInvalidName)
	assert.False(t, errors.Is(err, core.ErrInvalidPrice))
}

func TestValidate_ID(t *testing.T) {
	for _, v := range []any{nil, "", "   ", 7, true} {
		_, err := core.ValidateID(v)
		assert.ErrorIs(t, err, core.ErrInvalidID, "%v", v)
	}
	id, err := core.ValidateID("42")
	require.NoError(t, err)
	assert.Equal(t, "42", id)
}

func TestValidate_DropsNullSpecs(t *testing.T) {
	d := coretest.Draft("1")
	d["specs"] = map[string]any{"colore": nil}
	p, err := core.Validate(d)
	require.NoError(t, err)
	assert.Nil(t, p.Specs)
}

func TestValidate_CategoryErrorListsVocabulary(t *testing.T) {
	d := coretest.Draft("1")
	d["categories"] = []any{"scarpe"}
	_, err := core.Validate(d)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"scarpe"`)
	assert.Contains(t, err.Error(), "decorazioni")
}

func TestDecodeDraft(t *testing.T) {
	d, err := core.DecodeDraft(strings.NewReader(`{"id":"1","featured":true}`))
	require.NoError(t, err)
	assert.Equal(t, "1", d["id"])
	assert.Equal(t, true, d["featured"])

	d, err = core.DecodeDraft(strings.NewReader("{\"id\":\"2\"}\n  \n"))
	require.NoError(t, err)
	assert.Equal(t, "2", d["id"])

	for _, body := range []string{"", "{", "null", "[1,2]", `{"id":"1"} junk`, `{"id":"1"}{}`, `{"id":"1"}]`} {
		_, err := core.DecodeDraft(strings.NewReader(body))
		assert.ErrorIs(t, err, core.ErrInvalidPayload, "%q", body)
	}
}
