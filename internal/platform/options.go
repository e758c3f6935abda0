package platform

import (
	"log/slog"

	"github.com/fabianshop/storefront/pkg/core"
)

// options holds the internal configuration for opening a catalog.
type options struct {
	store   core.Store
	logger  *slog.Logger
	adapter string
	secret  string
	config  map[string]interface{}
}

// Option defines a functional option for configuring the storefront.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		store:   nil,
		logger:  nil,
		adapter: "fs",
		config:  make(map[string]interface{}),
	}
}

// WithAutoInit enables automatic initialization of the catalog directory
// (creates the directory, runs git init and writes an empty catalog).
func WithAutoInit(auto bool) Option {
	return func(o *options) {
		o.config["auto_init"] = auto
	}
}

// WithVersioning enables or disables git commits for the fs adapter.
// When not set, versioning follows the presence of a .git directory.
func WithVersioning(enabled bool) Option {
	return func(o *options) {
		o.config["gitless"] = !enabled
	}
}

// WithForceTemp forces the use of a temporary directory (useful for testing).
func WithForceTemp(force bool) Option {
	return func(o *options) {
		o.config["temp_dir"] = force
	}
}

// WithMustExist ensures the catalog directory must already exist.
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.config["must_exist"] = must
	}
}

// WithFile sets the catalog document path relative to the directory.
func WithFile(name string) Option {
	return func(o *options) {
		o.config["file"] = name
	}
}

// WithLogger sets the logger for the service and the store.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithStore injects a custom store. The adapter selection is skipped.
func WithStore(store core.Store) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithAdapter selects the store adapter by name: "fs", "github" or "memory".
// Defaults to "fs".
func WithAdapter(name string) Option {
	return func(o *options) {
		o.adapter = name
	}
}

// WithSecret sets the shared admin secret. Without it every mutation is
// rejected as unauthorized.
func WithSecret(secret string) Option {
	return func(o *options) {
		o.secret = secret
	}
}

// WithGitHub configures the github adapter. The URI passed to Open is
// "owner/repo".
func WithGitHub(token, branch, path, baseURL string) Option {
	return func(o *options) {
		o.config["github_token"] = token
		o.config["github_branch"] = branch
		o.config["github_path"] = path
		o.config["github_base_url"] = baseURL
	}
}

// WithWatcherErrorHandler registers a callback for failures of the fs watcher.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.config["watcher_error_handler"] = fn
	}
}

// WithReadOnly enables read-only mode.
// In this mode:
// 1. Commits return core.ErrReadOnly.
// 2. Initialization (Mkdir, Git Init, catalog bootstrap) is skipped.
// 3. Dev Safety (go run temp dir) is BYPASSED (uses real path).
func WithReadOnly(enabled bool) Option {
	return func(o *options) {
		o.config["read_only"] = enabled
	}
}

// WithDevSafety controls the sandbox used when running via `go run` or `go test`.
// By default (true), the fs adapter is re-rooted into a temporary directory
// so a development run cannot overwrite a real catalog.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.config["dev_safety"] = enabled
	}
}
