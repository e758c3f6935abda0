package platform

import (
	"log/slog"

	"github.com/fabianshop/storefront/internal/config"
	"github.com/fabianshop/storefront/pkg/media"
)

// FromConfig translates the runtime configuration into the store URI and
// options understood by Open and New.
func FromConfig(cfg config.Config, logger *slog.Logger) (string, []Option) {
	opts := []Option{
		WithAdapter(cfg.Store.Adapter),
		WithLogger(logger),
		WithSecret(cfg.Auth.APIKey),
		WithReadOnly(cfg.Store.ReadOnly),
	}

	switch cfg.Store.Adapter {
	case config.AdapterGitHub:
		opts = append(opts, WithGitHub(cfg.GitHub.Token, cfg.GitHub.Branch, cfg.GitHub.Path, cfg.GitHub.BaseURL))
		return cfg.GitHub.Repo, opts
	case config.AdapterFS:
		opts = append(opts, WithAutoInit(true), WithFile(cfg.Store.File))
		if cfg.Store.Gitless {
			opts = append(opts, WithVersioning(false))
		}
		return cfg.Store.Dir, opts
	}
	return "", opts
}

// NewGateway builds the media gateway. Without Cloudinary credentials the
// gateway still validates requests but every upload fails with
// media.ErrNotConfigured.
func NewGateway(cfg config.MediaConfig, logger *slog.Logger) (*media.Gateway, error) {
	opts := []media.Option{media.WithLogger(logger)}
	if cfg.MaxBytes > 0 {
		opts = append(opts, media.WithMaxBytes(cfg.MaxBytes))
	}

	cc := media.CloudinaryConfig{
		URL:       cfg.CloudinaryURL,
		CloudName: cfg.CloudName,
		APIKey:    cfg.APIKey,
		APISecret: cfg.APISecret,
		Folder:    cfg.Folder,
	}
	if !cc.Configured() {
		if logger != nil {
			logger.Warn("media service not configured, image uploads are disabled")
		}
		return media.NewGateway(nil, opts...), nil
	}

	upstream, err := media.NewCloudinary(cc)
	if err != nil {
		return nil, err
	}
	return media.NewGateway(upstream, opts...), nil
}
