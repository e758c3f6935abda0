package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strconv"

	"github.com/aretw0/introspection"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/fabianshop/storefront/pkg/core"
	"github.com/fabianshop/storefront/pkg/media"
	"github.com/fabianshop/storefront/pkg/shop"
)

const (
	maxProductBody = 1 << 20
	// A 10 MiB image is about 13.4 MiB of base64 plus the JSON envelope.
	maxUploadBody = 16 << 20
	maxRelated    = 50
)

// Handler is the HTTP layer that talks to core.Service, media.Gateway and shop.Cache.
type Handler struct {
	svc     *core.Service
	gateway *media.Gateway
	cache   *shop.Cache
	scheme  Scheme
	logger  *slog.Logger
	rng     func() *rand.Rand
	debug   []introspection.Introspectable
}

// Option configures the Handler.
type Option func(*Handler)

// WithScheme selects how the shared secret is presented.
func WithScheme(s Scheme) Option {
	return func(h *Handler) {
		h.scheme = s
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithRand fixes the random source used for related product sampling.
func WithRand(newRand func() *rand.Rand) Option {
	return func(h *Handler) {
		h.rng = newRand
	}
}

// WithIntrospection adds components reported by /debug/state.
func WithIntrospection(components ...introspection.Introspectable) Option {
	return func(h *Handler) {
		h.debug = append(h.debug, components...)
	}
}

// NewHandler returns a Handler instance. The service, gateway and cache are
// always reported by /debug/state.
func NewHandler(svc *core.Service, gw *media.Gateway, cache *shop.Cache, opts ...Option) *Handler {
	h := &Handler{
		svc:     svc,
		gateway: gw,
		cache:   cache,
		scheme:  SchemeHeader,
		logger:  slog.New(slog.DiscardHandler),
		rng: func() *rand.Rand {
			return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	h.debug = append([]introspection.Introspectable{svc, cache}, h.debug...)
	return h
}

// RegisterRoutes registers all routes on the provided router.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	// Mutations
	r.HandleFunc("/api/products", h.CreateProduct).Methods(http.MethodPost)
	r.HandleFunc("/api/products", h.UpdateProduct).Methods(http.MethodPut)
	r.HandleFunc("/api/products", h.DeleteProduct).Methods(http.MethodDelete)
	r.HandleFunc("/api/images", h.UploadImage).Methods(http.MethodPost)

	// Legacy function endpoints kept for deployed admin pages
	r.HandleFunc("/.netlify/functions/save-product", h.CreateProduct).Methods(http.MethodPost)
	r.HandleFunc("/.netlify/functions/update-product", h.UpdateProduct).Methods(http.MethodPut)
	r.HandleFunc("/.netlify/functions/delete-product", h.DeleteProduct).Methods(http.MethodDelete)
	r.HandleFunc("/.netlify/functions/upload-image", h.UploadImage).Methods(http.MethodPost)

	// Reads
	r.HandleFunc("/products.json", h.CatalogDocument).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/api/products", h.ListProducts).Methods(http.MethodGet)
	r.HandleFunc("/api/products/{id}/related", h.RelatedProducts).Methods(http.MethodGet)
	r.HandleFunc("/api/next-id", h.NextID).Methods(http.MethodGet)

	// Operations
	r.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)
	r.HandleFunc("/debug/state", h.DebugState).Methods(http.MethodGet)
}

// NewRouter builds the router with JSON fallbacks and middleware.
func NewRouter(h *Handler) http.Handler {
	r := mux.NewRouter()
	h.RegisterRoutes(r)
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		WriteJSONError(w, http.StatusMethodNotAllowed, "Method not allowed", "")
	})
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		WriteJSONError(w, http.StatusNotFound, "Not found", "")
	})
	return WithRequestID(WithLogging(h.logger)(r))
}

// --- request / response shapes ---
type mutationResp struct {
	Message     string `json:"message"`
	ProductID   string `json:"productId"`
	ProductName string `json:"productName,omitempty"`
}

type productsResp struct {
	Products []core.Product `json:"products"`
}

// CreateProduct handles POST /api/products.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	cred, ok := h.authenticate(w, r)
	if !ok {
		return
	}
	d, err := decodeDraft(w, r, maxProductBody)
	if err != nil {
		writeError(w, err)
		return
	}

	id, err := h.svc.Create(r.Context(), cred, d)
	if err != nil {
		writeError(w, err)
		return
	}
	h.cache.Invalidate()
	WriteJSON(w, http.StatusOK, mutationResp{Message: "Product added successfully", ProductID: id})
}

// UpdateProduct handles PUT /api/products.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	cred, ok := h.authenticate(w, r)
	if !ok {
		return
	}
	d, err := decodeDraft(w, r, maxProductBody)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.svc.Update(r.Context(), cred, d); err != nil {
		writeError(w, err)
		return
	}
	h.cache.Invalidate()
	id, _ := d["id"].(string)
	WriteJSON(w, http.StatusOK, mutationResp{Message: "Product updated successfully", ProductID: id})
}

// DeleteProduct handles DELETE /api/products with body {"id": ...}.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	cred, ok := h.authenticate(w, r)
	if !ok {
		return
	}
	d, err := decodeDraft(w, r, maxProductBody)
	if err != nil {
		writeError(w, err)
		return
	}

	removed, err := h.svc.Delete(r.Context(), cred, d["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	h.cache.Invalidate()
	WriteJSON(w, http.StatusOK, mutationResp{
		Message:     "Product deleted successfully",
		ProductID:   removed.ID,
		ProductName: removed.Name,
	})
}

// UploadImage handles POST /api/images.
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authenticate(w, r); !ok {
		return
	}

	var req media.Request
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeError(w, media.ErrPayloadTooLarge)
			return
		}
		writeError(w, fmt.Errorf("%w: %v", core.ErrInvalidPayload, err))
		return
	}

	res, err := h.gateway.Upload(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}

// CatalogDocument handles GET /products.json, the document the storefront reads.
func (h *Handler) CatalogDocument(w http.ResponseWriter, r *http.Request) {
	snap, err := h.cache.Get(r.Context())
	if err != nil {
		writeError(w, h.readError(err))
		return
	}

	etag := strconv.Quote(string(snap.Version))
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(snap.Content)))
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = w.Write(snap.Content)
	}
}

// ListProducts handles GET /api/products with optional filters:
// category, featured=true|false, minPrice, maxPrice and sort=price_asc|price_desc.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	snap, err := h.cache.Get(r.Context())
	if err != nil {
		writeError(w, h.readError(err))
		return
	}
	q := r.URL.Query()

	products := snap.Catalog.Products
	if c := q.Get("category"); c != "" {
		cat := core.Category(c)
		if cat != core.CategoryAll && !cat.Valid() {
			WriteJSONError(w, http.StatusBadRequest, fmt.Sprintf("Invalid category: %s", c), "")
			return
		}
		products = shop.Filter(products, cat)
	}

	switch q.Get("featured") {
	case "":
	case "true":
		products = shop.Featured(products)
	case "false":
		products = shop.Regular(products)
	default:
		WriteJSONError(w, http.StatusBadRequest, "featured must be true or false", "")
		return
	}

	if q.Has("minPrice") || q.Has("maxPrice") {
		lo, hi := decimal.Zero, decimal.New(1, 12)
		var perr error
		if v := q.Get("minPrice"); v != "" {
			lo, perr = decimal.NewFromString(v)
		}
		if v := q.Get("maxPrice"); v != "" && perr == nil {
			hi, perr = decimal.NewFromString(v)
		}
		if perr != nil {
			WriteJSONError(w, http.StatusBadRequest, "minPrice and maxPrice must be decimal amounts", perr.Error())
			return
		}
		products = shop.PriceBetween(products, lo, hi)
	}

	switch q.Get("sort") {
	case "":
	case "price_asc":
		products = shop.SortByPrice(products, false)
	case "price_desc":
		products = shop.SortByPrice(products, true)
	default:
		WriteJSONError(w, http.StatusBadRequest, "sort must be price_asc or price_desc", "")
		return
	}

	if products == nil {
		products = []core.Product{}
	}
	WriteJSON(w, http.StatusOK, productsResp{Products: products})
}

// RelatedProducts handles GET /api/products/{id}/related?count=6.
func (h *Handler) RelatedProducts(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	count := shop.DefaultRelatedCount
	if v := r.URL.Query().Get("count"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxRelated {
			WriteJSONError(w, http.StatusBadRequest, fmt.Sprintf("count must be between 1 and %d", maxRelated), "")
			return
		}
		count = n
	}

	snap, err := h.cache.Get(r.Context())
	if err != nil {
		writeError(w, h.readError(err))
		return
	}
	if _, ok := snap.Catalog.Find(id); !ok {
		writeError(w, fmt.Errorf("%w: %s", core.ErrProductNotFound, id))
		return
	}

	related := shop.Related(snap.Catalog, id, count, h.rng())
	if related == nil {
		related = []core.Product{}
	}
	WriteJSON(w, http.StatusOK, productsResp{Products: related})
}

// NextID handles GET /api/next-id.
func (h *Handler) NextID(w http.ResponseWriter, r *http.Request) {
	snap, err := h.cache.Get(r.Context())
	if err != nil {
		writeError(w, h.readError(err))
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"id": shop.NextID(snap.Catalog)})
}

// Health handles GET /healthz.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"media":  h.gateway.Configured(),
	})
}

// DebugState handles GET /debug/state.
func (h *Handler) DebugState(w http.ResponseWriter, r *http.Request) {
	state := make(map[string]any, len(h.debug))
	for i, c := range h.debug {
		name := fmt.Sprintf("component_%d", i)
		if comp, ok := c.(introspection.Component); ok {
			name = comp.ComponentType()
		}
		state[name] = c.State()
	}
	WriteJSON(w, http.StatusOK, state)
}

// authenticate checks the credential before anything else is read.
func (h *Handler) authenticate(w http.ResponseWriter, r *http.Request) (string, bool) {
	cred := h.scheme.Credential(r)
	if err := h.svc.Authenticate(cred); err != nil {
		h.logger.Info("authentication failed", "path", r.URL.Path, "request_id", core.RequestID(r.Context()))
		writeError(w, err)
		return "", false
	}
	return cred, true
}

// readError maps a failed catalog read the same way mutations do.
func (h *Handler) readError(err error) error {
	h.logger.Error("catalog read failed", "error", err)
	switch {
	case errors.Is(err, core.ErrStoreAuth):
		return fmt.Errorf("%w: %w", core.ErrServerMisconfigured, err)
	default:
		return fmt.Errorf("%w: %w", core.ErrStoreUnavailable, err)
	}
}

func decodeDraft(w http.ResponseWriter, r *http.Request, limit int64) (core.Draft, error) {
	return core.DecodeDraft(http.MaxBytesReader(w, r.Body, limit))
}
