package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabianshop/storefront/pkg/adapters/memory"
	"github.com/fabianshop/storefront/pkg/core"
	"github.com/fabianshop/storefront/pkg/core/coretest"
	"github.com/fabianshop/storefront/pkg/httpapi"
	"github.com/fabianshop/storefront/pkg/media"
	"github.com/fabianshop/storefront/pkg/shop"
)

const secret = "s3cret"

type upstreamFunc func(ctx context.Context, req media.Request) (media.Result, error)

func (f upstreamFunc) Upload(ctx context.Context, req media.Request) (media.Result, error) {
	return f(ctx, req)
}

type fixture struct {
	srv   *httptest.Server
	store *memory.Store
}

func newFixture(t *testing.T, seed core.Catalog, opts ...httpapi.Option) *fixture {
	t.Helper()
	store := memory.New(memory.WithCatalog(seed))
	svc := core.NewService(store, core.SharedSecret(secret), nil)
	gw := media.NewGateway(upstreamFunc(func(ctx context.Context, req media.Request) (media.Result, error) {
		return media.Result{URL: "https://res.cloudinary.com/demo/" + req.Filename + ".webp", PublicID: "fabian-products/" + req.Filename}, nil
	}))
	opts = append([]httpapi.Option{httpapi.WithRand(func() *rand.Rand { return rand.New(rand.NewPCG(1, 2)) })}, opts...)
	h := httpapi.NewHandler(svc, gw, shop.NewCache(store), opts...)

	srv := httptest.NewServer(httpapi.NewRouter(h))
	t.Cleanup(srv.Close)
	return &fixture{srv: srv, store: store}
}

func (f *fixture) do(t *testing.T, method, path, key string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, f.srv.URL+path, rd)
	require.NoError(t, err)
	if key != "" {
		req.Header.Set(httpapi.APIKeyHeader, key)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp, out
}

func TestEndToEnd_CreateReadDelete(t *testing.T) {
	f := newFixture(t, core.Catalog{})

	p := coretest.Product("1")
	p.Name = "Zaino Blu"
	resp, body := f.do(t, http.MethodPost, "/api/products", secret, core.DraftFrom(p))
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "Product added successfully", body["message"])
	assert.Equal(t, "1", body["productId"])

	resp, body = f.do(t, http.MethodGet, "/products.json", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	products := body["products"].([]any)
	require.Len(t, products, 1)
	assert.Equal(t, "Zaino Blu", products[0].(map[string]any)["name"])

	resp, body = f.do(t, http.MethodDelete, "/api/products", secret, map[string]any{"id": "1"})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "Product deleted successfully", body["message"])
	assert.Equal(t, "Zaino Blu", body["productName"])

	assert.Equal(t, "{\n  \"products\": []\n}\n", string(f.store.Content()))
}

func TestMutations_Outcomes(t *testing.T) {
	seed := core.Catalog{Products: []core.Product{coretest.Product("1")}}

	invalidPrice := coretest.Draft("2")
	invalidPrice["price"] = "18"

	tests := []struct {
		name   string
		method string
		key    string
		body   any
		status int
		msg    string
	}{
		{"missing key", http.MethodPost, "", coretest.Draft("2"), http.StatusUnauthorized, "Unauthorized - invalid API key"},
		{"wrong key", http.MethodPut, "S3CRET", coretest.Draft("1"), http.StatusUnauthorized, "Unauthorized - invalid API key"},
		{"auth before body", http.MethodPost, "nope", "{not json", http.StatusUnauthorized, "Unauthorized - invalid API key"},
		{"malformed body", http.MethodPost, secret, "{not json", http.StatusBadRequest, "Invalid JSON payload"},
		{"trailing data", http.MethodPost, secret, `{"id":"9"} junk`, http.StatusBadRequest, "Invalid JSON payload"},
		{"invalid price", http.MethodPost, secret, invalidPrice, http.StatusBadRequest, "price must be in format: 18.00"},
		{"duplicate", http.MethodPost, secret, coretest.Draft("1"), http.StatusConflict, ""},
		{"update missing", http.MethodPut, secret, coretest.Draft("9"), http.StatusNotFound, ""},
		{"delete missing", http.MethodDelete, secret, map[string]any{"id": "9"}, http.StatusNotFound, ""},
		{"delete numeric id", http.MethodDelete, secret, map[string]any{"id": 1}, http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, seed)
			before := f.store.Content()

			resp, body := f.do(t, tt.method, "/api/products", tt.key, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode, body)
			if tt.msg != "" {
				assert.Equal(t, tt.msg, body["message"])
			}
			assert.Equal(t, before, f.store.Content())
		})
	}
}

func TestUpdate_ReplacesProduct(t *testing.T) {
	f := newFixture(t, core.Catalog{Products: []core.Product{coretest.Product("1"), coretest.Product("2")}})

	d := coretest.Draft("1")
	d["name"] = "Zaino Rosso"
	resp, body := f.do(t, http.MethodPut, "/api/products", secret, d)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "Product updated successfully", body["message"])

	c, _, err := f.store.FetchCatalog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Zaino Rosso", c.Products[0].Name)
	assert.Equal(t, "2", c.Products[1].ID)
}

func TestConflict_StaleStore(t *testing.T) {
	store := &staleStore{Store: memory.New(memory.WithCatalog(core.Catalog{}))}
	svc := core.NewService(store, core.SharedSecret(secret), nil)
	h := httpapi.NewHandler(svc, media.NewGateway(nil), shop.NewCache(store))
	srv := httptest.NewServer(httpapi.NewRouter(h))
	defer srv.Close()

	f := &fixture{srv: srv}
	resp, body := f.do(t, http.MethodPost, "/api/products", secret, coretest.Draft("1"))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, body["message"], "Please refresh and try again")
}

// staleStore always commits against a version that is no longer current.
type staleStore struct {
	*memory.Store
}

func (s *staleStore) CommitCatalog(ctx context.Context, c core.Catalog, _ core.Version, note string) error {
	return s.Store.CommitCatalog(ctx, c, core.Version("0000000"), note)
}

func TestLegacyAliases(t *testing.T) {
	f := newFixture(t, core.Catalog{})

	resp, body := f.do(t, http.MethodPost, "/.netlify/functions/save-product", secret, coretest.Draft("1"))
	require.Equal(t, http.StatusOK, resp.StatusCode, body)

	resp, body = f.do(t, http.MethodPut, "/.netlify/functions/update-product", secret, coretest.Draft("1"))
	require.Equal(t, http.StatusOK, resp.StatusCode, body)

	resp, body = f.do(t, http.MethodDelete, "/.netlify/functions/delete-product", secret, map[string]any{"id": "1"})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)

	resp, body = f.do(t, http.MethodGet, "/.netlify/functions/save-product", secret, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, "Method not allowed", body["message"])
}

func TestUploadImage(t *testing.T) {
	f := newFixture(t, core.Catalog{})

	req := media.Request{Image: "data:image/png;base64,iVBORw0KGgo=", Filename: "zaino"}
	resp, body := f.do(t, http.MethodPost, "/api/images", secret, req)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "https://res.cloudinary.com/demo/zaino.webp", body["url"])
	assert.Equal(t, "fabian-products/zaino", body["publicId"])

	resp, _ = f.do(t, http.MethodPost, "/api/images", "", req)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = f.do(t, http.MethodPost, "/api/images", secret, media.Request{Image: "https://x/a.jpg"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUploadImage_NotConfigured(t *testing.T) {
	store := memory.New(memory.WithCatalog(core.Catalog{}))
	svc := core.NewService(store, core.SharedSecret(secret), nil)
	h := httpapi.NewHandler(svc, media.NewGateway(nil), shop.NewCache(store))
	srv := httptest.NewServer(httpapi.NewRouter(h))
	defer srv.Close()

	f := &fixture{srv: srv}
	resp, _ := f.do(t, http.MethodPost, "/api/images", secret, media.Request{Image: "data:image/png;base64,AAAA"})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestCatalogDocument_ETag(t *testing.T) {
	f := newFixture(t, core.Catalog{Products: []core.Product{coretest.Product("1")}})

	resp, _ := f.do(t, http.MethodGet, "/products.json", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	etag := resp.Header.Get("ETag")
	require.NotEmpty(t, etag)

	req, err := http.NewRequest(http.MethodGet, f.srv.URL+"/products.json", nil)
	require.NoError(t, err)
	req.Header.Set("If-None-Match", etag)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotModified, resp.StatusCode)

	// A mutation invalidates the snapshot and changes the tag.
	resp, _ = f.do(t, http.MethodPost, "/api/products", secret, coretest.Draft("2"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = f.do(t, http.MethodGet, "/products.json", "", nil)
	assert.NotEqual(t, etag, resp.Header.Get("ETag"))
}

func TestCatalogDocument_MissingStore(t *testing.T) {
	store := memory.New()
	svc := core.NewService(store, core.SharedSecret(secret), nil)
	h := httpapi.NewHandler(svc, media.NewGateway(nil), shop.NewCache(store))
	srv := httptest.NewServer(httpapi.NewRouter(h))
	defer srv.Close()

	f := &fixture{srv: srv}
	resp, body := f.do(t, http.MethodGet, "/products.json", "", nil)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Catalog store unavailable", body["message"])
}

func TestListProducts_Filters(t *testing.T) {
	cheap := coretest.Product("1")
	cheap.Price = "12.50"
	cheap.Featured = true
	mid := coretest.Product("2")
	mid.Price = "25.00"
	mid.Categories = []core.Category{core.CategoryCucina}
	dear := coretest.Product("3")
	dear.Price = "40.00"
	f := newFixture(t, core.Catalog{Products: []core.Product{mid, dear, cheap}})

	ids := func(body map[string]any) []string {
		var out []string
		for _, p := range body["products"].([]any) {
			out = append(out, p.(map[string]any)["id"].(string))
		}
		return out
	}

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"2", "3", "1"}},
		{"?category=tutti", []string{"2", "3", "1"}},
		{"?category=bimbo", []string{"3", "1"}},
		{"?featured=true", []string{"1"}},
		{"?featured=false", []string{"2", "3"}},
		{"?sort=price_asc", []string{"1", "2", "3"}},
		{"?sort=price_desc", []string{"3", "2", "1"}},
		{"?minPrice=20&maxPrice=30", []string{"2"}},
		{"?category=bimbo&sort=price_asc", []string{"1", "3"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp, body := f.do(t, http.MethodGet, "/api/products"+tt.query, "", nil)
			require.Equal(t, http.StatusOK, resp.StatusCode, body)
			assert.Equal(t, tt.want, ids(body))
		})
	}

	for _, bad := range []string{"?category=scarpe", "?featured=yes", "?sort=name", "?minPrice=abc"} {
		resp, _ := f.do(t, http.MethodGet, "/api/products"+bad, "", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, bad)
	}
}

func TestRelatedProducts(t *testing.T) {
	products := make([]core.Product, 0, 10)
	for _, id := range []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10"} {
		products = append(products, coretest.Product(id))
	}
	products[0].RelatedProducts = []string{"3", "99", "2"}
	f := newFixture(t, core.Catalog{Products: products})

	resp, body := f.do(t, http.MethodGet, "/api/products/1/related", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["products"], 2)

	resp, body = f.do(t, http.MethodGet, "/api/products/5/related?count=4", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	related := body["products"].([]any)
	assert.Len(t, related, 4)
	for _, p := range related {
		assert.NotEqual(t, "5", p.(map[string]any)["id"])
	}

	resp, _ = f.do(t, http.MethodGet, "/api/products/404/related", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = f.do(t, http.MethodGet, "/api/products/5/related?count=0", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestNextIDAndHealth(t *testing.T) {
	f := newFixture(t, core.Catalog{Products: []core.Product{coretest.Product("7"), coretest.Product("12")}})

	resp, body := f.do(t, http.MethodGet, "/api/next-id", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "13", body["id"])

	resp, body = f.do(t, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, true, body["media"])
}

func TestDebugState(t *testing.T) {
	f := newFixture(t, core.Catalog{}, httpapi.WithIntrospection(memory.New()))
	resp, _ := f.do(t, http.MethodPost, "/api/products", secret, coretest.Draft("1"))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := f.do(t, http.MethodGet, "/debug/state", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "catalog-service")
	assert.Contains(t, body, "catalog-cache")
	assert.Contains(t, body, "memory-store")
	svc := body["catalog-service"].(map[string]any)
	assert.EqualValues(t, 1, svc["commits"])
}

func TestRequestID(t *testing.T) {
	f := newFixture(t, core.Catalog{})

	resp, _ := f.do(t, http.MethodGet, "/healthz", "", nil)
	assert.NotEmpty(t, resp.Header.Get(httpapi.RequestIDHeader))

	req, err := http.NewRequest(http.MethodGet, f.srv.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set(httpapi.RequestIDHeader, "abc-123")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "abc-123", resp.Header.Get(httpapi.RequestIDHeader))
}

func TestBearerScheme(t *testing.T) {
	f := newFixture(t, core.Catalog{}, httpapi.WithScheme(httpapi.SchemeBearer))

	resp, _ := f.do(t, http.MethodPost, "/api/products", secret, coretest.Draft("1"))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "header credential is ignored under bearer")

	data, err := json.Marshal(coretest.Draft("1"))
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, f.srv.URL+"/api/products", bytes.NewReader(data))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+secret)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestParseScheme(t *testing.T) {
	s, err := httpapi.ParseScheme("")
	require.NoError(t, err)
	assert.Equal(t, httpapi.SchemeHeader, s)

	s, err = httpapi.ParseScheme("Bearer")
	require.NoError(t, err)
	assert.Equal(t, httpapi.SchemeBearer, s)

	_, err = httpapi.ParseScheme("basic")
	assert.Error(t, err)
}
