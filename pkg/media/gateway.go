// Package media forwards encoded images to a hosted media service and returns
// the durable URL it assigns.
package media

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

const (
	// DataURIPrefix marks a self-describing image payload.
	DataURIPrefix = "data:image/"

	// DefaultMaxBytes is the decoded-size limit for a single image.
	DefaultMaxBytes = 10 * 1024 * 1024
)

// Request is one image to upload.
type Request struct {
	Image    string `json:"image"`
	Filename string `json:"filename"`
}

// Result is the canonical location of an uploaded image.
type Result struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId"`
}

// Upstream is the hosted media service. Implementations classify their
// failures with ErrUpstreamAuth, ErrUpstreamRejected or ErrTransientIO.
type Upstream interface {
	Upload(ctx context.Context, req Request) (Result, error)
}

// Gateway checks preconditions locally and forwards accepted images.
// It never retries.
type Gateway struct {
	upstream Upstream
	maxBytes int
	logger   *slog.Logger
}

// Option configures the Gateway.
type Option func(*Gateway)

// WithMaxBytes overrides the decoded-size limit.
func WithMaxBytes(n int) Option {
	return func(g *Gateway) {
		g.maxBytes = n
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) {
		if l != nil {
			g.logger = l
		}
	}
}

// NewGateway creates a Gateway. A nil upstream yields a gateway whose uploads
// fail with ErrNotConfigured after the local checks.
func NewGateway(up Upstream, opts ...Option) *Gateway {
	g := &Gateway{
		upstream: up,
		maxBytes: DefaultMaxBytes,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Configured reports whether an upstream is attached.
func (g *Gateway) Configured() bool {
	return g.upstream != nil
}

// EstimatedSize is the decoded size of a base64 payload of the given length,
// rounded down.
func EstimatedSize(image string) int {
	return len(image) * 3 / 4
}

// Check validates a request without contacting the upstream.
func (g *Gateway) Check(req Request) error {
	if !strings.HasPrefix(req.Image, DataURIPrefix) {
		return ErrUnsupportedFormat
	}
	// len*3/4 may be fractional; compare without truncating it.
	if len(req.Image)*3 > g.maxBytes*4 {
		return fmt.Errorf("%w: %dMB", ErrPayloadTooLarge, EstimatedSize(req.Image)/1024/1024)
	}
	return nil
}

// Upload validates req and forwards it to the upstream.
func (g *Gateway) Upload(ctx context.Context, req Request) (Result, error) {
	if err := g.Check(req); err != nil {
		g.logger.Info("image rejected", "filename", req.Filename, "error", err)
		return Result{}, err
	}
	if g.upstream == nil {
		return Result{}, ErrNotConfigured
	}

	filename := req.Filename
	if filename == "" {
		filename = "unknown"
	}
	g.logger.Info("uploading image", "filename", filename, "size_kb", EstimatedSize(req.Image)/1024)

	res, err := g.upstream.Upload(ctx, req)
	if err != nil {
		g.logger.Error("upload failed", "filename", filename, "error", err)
		return Result{}, err
	}

	g.logger.Info("upload successful", "url", res.URL, "public_id", res.PublicID)
	return res, nil
}
