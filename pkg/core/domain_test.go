package core_test

import (
	"encoding/json"
	"testing"

	"github.com/fabianshop/storefront/pkg/core"
	"github.com/fabianshop/storefront/pkg/core/coretest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionOf_GitBlobHash(t *testing.T) {
	// Values produced by `git hash-object`.
	assert.Equal(t, core.Version("e69de29bb2d1d6434b8b29ae775ad8c2e48c5391"), core.VersionOf(nil))
	assert.Equal(t, core.Version("ce013625030ba8dba906f756967f9e9ca394464a"), core.VersionOf([]byte("hello\n")))
	assert.Equal(t, "ce01362", core.VersionOf([]byte("hello\n")).Short())
}

func TestEncode_Format(t *testing.T) {
	data, err := core.Encode(core.Catalog{})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"products\": []\n}\n", string(data))

	p := coretest.Product("1")
	p.Description = "Cotone <bio> & lino"
	data, err = core.Encode(core.Catalog{Products: []core.Product{p}})
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n    {\n      \"id\": \"1\",\n")
	assert.Contains(t, string(data), "Cotone <bio> & lino")
	assert.NotContains(t, string(data), "specs")
	assert.NotContains(t, string(data), "relatedProducts")
}

func TestDecode_RoundTrip(t *testing.T) {
	p := coretest.Product("1")
	p.Specs = map[string]string{"peso": "300g"}
	p.RelatedProducts = []string{"2"}
	in := core.Catalog{Products: []core.Product{p, coretest.Product("2")}}

	data, err := core.Encode(in)
	require.NoError(t, err)
	out, err := core.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

const docWithUnknownKeys = `{"products":[{"id":"1","name":"Zaino","price":"25.00","description":"Zaino comodo",` +
	`"categories":["bimbo"],"featured":false,"images":["https://x/1.jpg"],"sku":"A1","badge":{"text":"nuovo"}}],` +
	`"updatedAt":"2026-01-01"}`

func TestDecode_KeepsUnknownKeys(t *testing.T) {
	c, err := core.Decode([]byte(docWithUnknownKeys))
	require.NoError(t, err)
	require.Len(t, c.Products, 1)
	assert.JSONEq(t, `"2026-01-01"`, string(c.Extra["updatedAt"]))
	assert.JSONEq(t, `"A1"`, string(c.Products[0].Extra["sku"]))
	assert.JSONEq(t, `{"text":"nuovo"}`, string(c.Products[0].Extra["badge"]))
	assert.NotContains(t, c.Products[0].Extra, "id")

	data, err := core.Encode(c)
	require.NoError(t, err)
	want := `{
  "products": [
    {
      "id": "1",
      "name": "Zaino",
      "price": "25.00",
      "description": "Zaino comodo",
      "categories": [
        "bimbo"
      ],
      "featured": false,
      "images": [
        "https://x/1.jpg"
      ],
      "badge": {
        "text": "nuovo"
      },
      "sku": "A1"
    }
  ],
  "updatedAt": "2026-01-01"
}
`
	assert.Equal(t, want, string(data))

	// Encoding is stable once the document has been written.
	again, err := core.Decode(data)
	require.NoError(t, err)
	data2, err := core.Encode(again)
	require.NoError(t, err)
	assert.Equal(t, string(data), string(data2))
}

func TestProduct_ExtraCannotShadowKnownKeys(t *testing.T) {
	p := coretest.Product("1")
	p.Extra = map[string]json.RawMessage{"id": json.RawMessage(`"2"`), "sku": json.RawMessage(`"A1"`)}

	data, err := json.Marshal(p)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "1", out["id"])
	assert.Equal(t, "A1", out["sku"])
}

func TestDecode_Malformed(t *testing.T) {
	for _, doc := range []string{``, `[]`, `{}`, `{"products": null}`, `{"products": "x"}`, `{"products": [1]}`} {
		_, err := core.Decode([]byte(doc))
		assert.ErrorIs(t, err, core.ErrCatalogMalformed, "%q", doc)
	}
}

func TestCatalog_Find(t *testing.T) {
	c := core.Catalog{Products: []core.Product{coretest.Product("1"), coretest.Product("2")}}
	assert.Equal(t, 1, c.Index("2"))
	assert.Equal(t, -1, c.Index("3"))

	p, ok := c.Find("1")
	require.True(t, ok)
	assert.Equal(t, "https://x/1.jpg", p.CoverImage())
	assert.True(t, p.HasCategory(core.CategoryBimbo))
	assert.False(t, p.HasCategory(core.CategoryBimba))
}

func TestCategories(t *testing.T) {
	all := core.Categories()
	require.Len(t, all, 9)
	assert.Equal(t, core.CategoryAsilo, all[0])
	assert.Equal(t, core.CategoryDecorazioni, all[8])

	all[0] = "mutated"
	assert.Equal(t, core.CategoryAsilo, core.Categories()[0])

	_, ok := core.ParseCategory("tutti")
	assert.False(t, ok)
	assert.False(t, core.CategoryAll.Valid())
	assert.True(t, core.CategoryBorse.Valid())
}

func TestChangeNote(t *testing.T) {
	p := coretest.Product("12")
	p.Name = "  Borsa Mare "
	note := core.ChangeNote(core.ChangeAdd, p, "")
	assert.Equal(t, "Add product: Borsa Mare (via admin panel)\n\nAdded by: admin\nProduct ID: 12", note)
	assert.Equal(t, "Add product: Borsa Mare (via admin panel)", core.Subject(note))
}
