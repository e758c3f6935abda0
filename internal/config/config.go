// Package config loads the storefront configuration from an optional YAML
// file and the process environment. Environment variables win over the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	githubstore "github.com/fabianshop/storefront/pkg/adapters/github"
)

// Store adapters.
const (
	AdapterGitHub = "github"
	AdapterFS     = "fs"
	AdapterMemory = "memory"
)

var (
	ErrMissingAPIKey = errors.New("ADMIN_API_KEY is not set")
	ErrMissingToken  = errors.New("GITHUB_TOKEN is not set")
	ErrMissingRepo   = errors.New("GITHUB_REPO is not set")
	ErrUnknownStore  = errors.New("unknown store adapter")
)

// Config is the full runtime configuration.
type Config struct {
	HTTP   HTTPConfig   `yaml:"http"`
	Auth   AuthConfig   `yaml:"auth"`
	Store  StoreConfig  `yaml:"store"`
	GitHub GitHubConfig `yaml:"github"`
	Media  MediaConfig  `yaml:"media"`
	Cache  CacheConfig  `yaml:"cache"`
	Log    LogConfig    `yaml:"log"`
}

type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
	// Scheme is "header" (X-API-Key) or "bearer".
	Scheme string `yaml:"scheme"`
}

type StoreConfig struct {
	Adapter  string `yaml:"adapter"`
	Dir      string `yaml:"dir"`
	File     string `yaml:"file"`
	Gitless  bool   `yaml:"gitless"`
	ReadOnly bool   `yaml:"read_only"`
	Watch    bool   `yaml:"watch"`
}

type GitHubConfig struct {
	Token   string `yaml:"token"`
	Repo    string `yaml:"repo"`
	Branch  string `yaml:"branch"`
	Path    string `yaml:"path"`
	BaseURL string `yaml:"base_url"`
}

type MediaConfig struct {
	CloudinaryURL string `yaml:"cloudinary_url"`
	CloudName     string `yaml:"cloud_name"`
	APIKey        string `yaml:"api_key"`
	APISecret     string `yaml:"api_secret"`
	Folder        string `yaml:"folder"`
	MaxBytes      int    `yaml:"max_bytes"`
}

type CacheConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		HTTP:   HTTPConfig{Addr: ":8080", ShutdownTimeout: 10 * time.Second},
		Auth:   AuthConfig{Scheme: "header"},
		Store:  StoreConfig{Adapter: AdapterGitHub, Dir: ".", File: "products.json"},
		GitHub: GitHubConfig{Branch: "main", Path: "products.json"},
		Media:  MediaConfig{Folder: "fabian-products", MaxBytes: 10 * 1024 * 1024},
		Cache:  CacheConfig{TTL: 30 * time.Second},
		Log:    LogConfig{Level: "info", Format: "json"},
	}
}

// Load reads path (skipped when empty) and applies the environment.
func Load(path string) (Config, error) {
	return load(path, os.Getenv)
}

func load(path string, getenv func(string) string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(getenv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	str("HTTP_ADDR", &c.HTTP.Addr)
	str("ADMIN_API_KEY", &c.Auth.APIKey)
	str("AUTH_SCHEME", &c.Auth.Scheme)
	str("STORE_ADAPTER", &c.Store.Adapter)
	str("CATALOG_DIR", &c.Store.Dir)
	str("GITHUB_TOKEN", &c.GitHub.Token)
	str("GITHUB_REPO", &c.GitHub.Repo)
	str("GITHUB_BRANCH", &c.GitHub.Branch)
	str("GITHUB_API_URL", &c.GitHub.BaseURL)
	str("CLOUDINARY_URL", &c.Media.CloudinaryURL)
	str("CLOUDINARY_CLOUD_NAME", &c.Media.CloudName)
	str("CLOUDINARY_API_KEY", &c.Media.APIKey)
	str("CLOUDINARY_API_SECRET", &c.Media.APISecret)
	str("MEDIA_FOLDER", &c.Media.Folder)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)

	// CATALOG_PATH names the document for both adapters.
	if v := getenv("CATALOG_PATH"); v != "" {
		c.GitHub.Path = v
		c.Store.File = v
	}

	durations := map[string]*time.Duration{
		"SHUTDOWN_TIMEOUT": &c.HTTP.ShutdownTimeout,
		"CACHE_TTL":        &c.Cache.TTL,
	}
	for key, dst := range durations {
		if v := getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = d
		}
	}

	if v := getenv("CATALOG_READ_ONLY"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("CATALOG_READ_ONLY: %w", err)
		}
		c.Store.ReadOnly = b
	}
	return nil
}

// ValidateStore checks the settings every command needs to reach the catalog.
func (c Config) ValidateStore() error {
	switch c.Store.Adapter {
	case AdapterGitHub:
		if c.GitHub.Token == "" {
			return ErrMissingToken
		}
		if c.GitHub.Repo == "" {
			return ErrMissingRepo
		}
		if _, _, err := githubstore.ParseRepo(c.GitHub.Repo); err != nil {
			return err
		}
	case AdapterFS, AdapterMemory:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStore, c.Store.Adapter)
	}
	return nil
}

// Validate checks everything the server needs. Media settings are optional:
// without them uploads fail while catalog mutations keep working.
func (c Config) Validate() error {
	if err := c.ValidateStore(); err != nil {
		return err
	}
	if c.Auth.APIKey == "" {
		return ErrMissingAPIKey
	}
	switch strings.ToLower(c.Auth.Scheme) {
	case "", "header", "bearer":
	default:
		return fmt.Errorf("unknown auth scheme %q", c.Auth.Scheme)
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive, got %s", c.HTTP.ShutdownTimeout)
	}
	return nil
}

// MediaConfigured reports whether Cloudinary credentials are present.
func (c Config) MediaConfigured() bool {
	m := c.Media
	return m.CloudinaryURL != "" || (m.CloudName != "" && m.APIKey != "" && m.APISecret != "")
}
