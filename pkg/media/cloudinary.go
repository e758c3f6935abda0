package media

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// DefaultFolder is where product images are stored.
const DefaultFolder = "fabian-products"

// CloudinaryConfig holds the credentials of a Cloudinary account.
// URL, when set, takes precedence over the separate fields.
type CloudinaryConfig struct {
	URL       string
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// Configured reports whether enough credentials are present.
func (c CloudinaryConfig) Configured() bool {
	return c.URL != "" || (c.CloudName != "" && c.APIKey != "" && c.APISecret != "")
}

// Cloudinary uploads images as webp with automatic quality.
type Cloudinary struct {
	cld    *cloudinary.Cloudinary
	folder string
}

// NewCloudinary creates the upstream. It performs no network calls.
func NewCloudinary(cfg CloudinaryConfig) (*Cloudinary, error) {
	if !cfg.Configured() {
		return nil, ErrNotConfigured
	}

	var (
		cld *cloudinary.Cloudinary
		err error
	)
	if cfg.URL != "" {
		cld, err = cloudinary.NewFromURL(cfg.URL)
	} else {
		cld, err = cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to configure cloudinary: %w", err)
	}

	folder := cfg.Folder
	if folder == "" {
		folder = DefaultFolder
	}
	return &Cloudinary{cld: cld, folder: folder}, nil
}

// Upload implements Upstream. The data URI is sent as is.
func (c *Cloudinary) Upload(ctx context.Context, req Request) (Result, error) {
	resp, err := c.cld.Upload.Upload(ctx, req.Image, uploader.UploadParams{
		Folder:         c.folder,
		Format:         "webp",
		Transformation: "q_auto:good/f_webp",
		ResourceType:   "image",
	})
	if err != nil {
		return Result{}, classifyCloudinary(err.Error())
	}
	if resp == nil {
		return Result{}, fmt.Errorf("%w: empty response", ErrTransientIO)
	}
	if msg := resp.Error.Message; msg != "" {
		return Result{}, classifyCloudinary(msg)
	}
	return Result{URL: resp.SecureURL, PublicID: resp.PublicID}, nil
}

// classifyCloudinary maps an API error message to a gateway error. The SDK
// reports failures as text only.
func classifyCloudinary(msg string) error {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "invalid image file"):
		return fmt.Errorf("%w: %s", ErrUpstreamRejected, msg)
	case strings.Contains(lower, "invalid signature"),
		strings.Contains(lower, "unknown api key"),
		strings.Contains(lower, "invalid api_key"),
		strings.Contains(lower, "must supply api_key"),
		strings.Contains(lower, "invalid cloud_name"),
		strings.Contains(lower, "cloud_name is disabled"):
		return fmt.Errorf("%w: %s", ErrUpstreamAuth, msg)
	default:
		return fmt.Errorf("%w: %s", ErrTransientIO, msg)
	}
}

var _ Upstream = (*Cloudinary)(nil)
