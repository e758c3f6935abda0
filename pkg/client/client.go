// Package client is a Go client for the storefront admin API. It is what the
// storefront CLI uses and mirrors the admin panel's calls.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/fabianshop/storefront/pkg/core"
	"github.com/fabianshop/storefront/pkg/httpapi"
	"github.com/fabianshop/storefront/pkg/media"
)

var (
	// ErrUnauthorized is returned on 401.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound is returned on 404.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned on 409: a duplicate id or a concurrent change.
	ErrConflict = errors.New("conflict")
)

// APIError carries any other non-2xx response.
type APIError struct {
	Status  int
	Message string
	Detail  string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("storefront: %d %s (%s)", e.Status, e.Message, e.Detail)
	}
	return fmt.Sprintf("storefront: %d %s", e.Status, e.Message)
}

// Client talks to a storefront server.
type Client struct {
	baseURL    string
	apiKey     string
	scheme     httpapi.Scheme
	httpClient *http.Client
	logger     *slog.Logger
	legacy     bool
}

// Option configures the Client.
type Option func(*Client)

// WithAPIKey sets the shared admin secret.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithScheme selects how the secret is sent. It must match the server.
func WithScheme(s httpapi.Scheme) Option {
	return func(c *Client) {
		c.scheme = s
	}
}

// WithHTTPClient replaces the default client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithLegacyPaths targets the /.netlify/functions endpoints.
func WithLegacyPaths(enabled bool) Option {
	return func(c *Client) {
		c.legacy = enabled
	}
}

// New creates a Client for the server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		scheme:     httpapi.SchemeHeader,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MutationResult is the server's answer to a catalog mutation.
type MutationResult struct {
	Message     string `json:"message"`
	ProductID   string `json:"productId"`
	ProductName string `json:"productName,omitempty"`
}

// Create adds a product.
func (c *Client) Create(ctx context.Context, p core.Product) (MutationResult, error) {
	var res MutationResult
	err := c.send(ctx, http.MethodPost, c.path("save-product", "/api/products"), p, true, &res)
	return res, err
}

// Update replaces a product.
func (c *Client) Update(ctx context.Context, p core.Product) (MutationResult, error) {
	var res MutationResult
	err := c.send(ctx, http.MethodPut, c.path("update-product", "/api/products"), p, true, &res)
	return res, err
}

// Delete removes the product with the given id.
func (c *Client) Delete(ctx context.Context, id string) (MutationResult, error) {
	var res MutationResult
	err := c.send(ctx, http.MethodDelete, c.path("delete-product", "/api/products"), map[string]string{"id": id}, true, &res)
	return res, err
}

// UploadImage sends one encoded image.
func (c *Client) UploadImage(ctx context.Context, req media.Request) (media.Result, error) {
	var res media.Result
	err := c.send(ctx, http.MethodPost, c.path("upload-image", "/api/images"), req, true, &res)
	return res, err
}

// Upload implements media.Uploader, so batches can run through media.Sequence.
func (c *Client) Upload(ctx context.Context, req media.Request) (media.Result, error) {
	return c.UploadImage(ctx, req)
}

// Catalog reads the published catalog document.
func (c *Client) Catalog(ctx context.Context) (core.Catalog, error) {
	req, err := c.request(ctx, http.MethodGet, "/products.json", nil, false)
	if err != nil {
		return core.Catalog{}, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return core.Catalog{}, fmt.Errorf("failed to fetch catalog: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return core.Catalog{}, fmt.Errorf("failed to read catalog: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return core.Catalog{}, responseError(resp.StatusCode, data)
	}
	return core.Decode(data)
}

// NextID asks the server for the suggested id of a new product.
func (c *Client) NextID(ctx context.Context) (string, error) {
	var res struct {
		ID string `json:"id"`
	}
	if err := c.send(ctx, http.MethodGet, "/api/next-id", nil, false, &res); err != nil {
		return "", err
	}
	return res.ID, nil
}

func (c *Client) path(legacy, current string) string {
	if c.legacy {
		return "/.netlify/functions/" + legacy
	}
	return current
}

func (c *Client) request(ctx context.Context, method, path string, body any, auth bool) (*http.Request, error) {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		rd = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if auth {
		c.scheme.Apply(req, c.apiKey)
	}
	return req, nil
}

func (c *Client) send(ctx context.Context, method, path string, body any, auth bool, out any) error {
	req, err := c.request(ctx, method, path, body, auth)
	if err != nil {
		return err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: failed to read response: %w", method, path, err)
	}
	c.logger.Debug("api call", "method", method, "path", path, "status", resp.StatusCode,
		"request_id", resp.Header.Get(httpapi.RequestIDHeader), "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return responseError(resp.StatusCode, data)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s %s: failed to decode response: %w", method, path, err)
	}
	return nil
}

// responseError turns an error payload into ErrUnauthorized, ErrNotFound,
// ErrConflict or *APIError. The first three keep the server message.
func responseError(status int, body []byte) error {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.Message == "" {
		payload.Message = http.StatusText(status)
	}

	switch status {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrUnauthorized, payload.Message)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, payload.Message)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", ErrConflict, payload.Message)
	}
	return &APIError{Status: status, Message: payload.Message, Detail: payload.Error}
}
