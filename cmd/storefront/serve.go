package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/introspection"
	"github.com/spf13/cobra"

	"github.com/fabianshop/storefront/internal/config"
	"github.com/fabianshop/storefront/internal/platform"
	"github.com/fabianshop/storefront/pkg/core"
	"github.com/fabianshop/storefront/pkg/httpapi"
	"github.com/fabianshop/storefront/pkg/shop"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the catalog HTTP API",
	Long: `Serve the admin mutation endpoints, the image upload endpoint and the
storefront read endpoints. Configuration comes from --config and the
environment (ADMIN_API_KEY, GITHUB_TOKEN, GITHUB_REPO, CLOUDINARY_*, ...).`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		if serveAddr != "" {
			cfg.HTTP.Addr = serveAddr
		}
		if err := cfg.Validate(); err != nil {
			fatal("Invalid configuration", err)
		}
		logger := newServerLogger(cfg.Log)

		if err := serve(cfg, logger); err != nil {
			logger.Error("server stopped", "error", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides HTTP_ADDR)")
}

func serve(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	uri, opts := platform.FromConfig(cfg, logger)
	store, err := platform.Open(uri, opts...)
	if err != nil {
		return err
	}
	svc, err := platform.New(uri, append(opts, platform.WithStore(store))...)
	if err != nil {
		return err
	}

	gateway, err := platform.NewGateway(cfg.Media, logger)
	if err != nil {
		return err
	}

	cache := shop.NewCache(store, shop.WithTTL(cfg.Cache.TTL), shop.WithCacheLogger(logger))
	if w, ok := store.(core.Watchable); ok && cfg.Store.Watch {
		if err := cache.Follow(ctx, w); err != nil {
			return err
		}
	}

	scheme, err := httpapi.ParseScheme(cfg.Auth.Scheme)
	if err != nil {
		return err
	}
	handlerOpts := []httpapi.Option{httpapi.WithScheme(scheme), httpapi.WithLogger(logger)}
	if c, ok := store.(introspection.Introspectable); ok {
		handlerOpts = append(handlerOpts, httpapi.WithIntrospection(c))
	}
	handler := httpapi.NewHandler(svc, gateway, cache, handlerOpts...)

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           httpapi.NewRouter(handler),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("http_listen", "addr", cfg.HTTP.Addr, "store", cfg.Store.Adapter, "media", gateway.Configured())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutdown_signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("service_stopped")
	return nil
}

func newServerLogger(cfg config.LogConfig) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	} else if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}
