package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/fabianshop/storefront/internal/config"
	"github.com/fabianshop/storefront/internal/platform"
	"github.com/fabianshop/storefront/pkg/core"
)

var (
	verbose    bool
	configPath string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "storefront",
	Short: "Product catalog service for a small handmade shop",
	Long: `storefront serves and edits a JSON product catalog kept in a git
repository (on GitHub or in a local working tree). Every edit is a
conditional commit: a stale editor gets a conflict instead of
overwriting someone else's change.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("STOREFRONT_CONFIG"), "Path to a YAML config file")
}

// loadConfig reads the config file and environment, exiting on error.
func loadConfig() config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		fatal("Failed to load config", err)
	}
	return cfg
}

// openService opens the configured catalog for local commands.
func openService(cfg config.Config) *core.Service {
	if err := cfg.ValidateStore(); err != nil {
		fatal("Invalid store configuration", err)
	}
	uri, opts := platform.FromConfig(cfg, slog.Default())
	svc, err := platform.New(uri, opts...)
	if err != nil {
		fatal("Failed to open catalog", err)
	}
	return svc
}
