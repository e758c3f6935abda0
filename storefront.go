package storefront

import (
	"log/slog"

	"github.com/fabianshop/storefront/internal/platform"
	"github.com/fabianshop/storefront/pkg/core"
)

// --- Configuration ---

// Option defines a functional option for opening a catalog.
type Option = platform.Option

// WithAutoInit creates the catalog directory, repository and document when missing.
func WithAutoInit(auto bool) Option {
	return platform.WithAutoInit(auto)
}

// WithVersioning enables or disables git commits for local catalogs.
func WithVersioning(enabled bool) Option {
	return platform.WithVersioning(enabled)
}

// WithForceTemp forces the use of a temporary directory (useful for testing).
func WithForceTemp(force bool) Option {
	return platform.WithForceTemp(force)
}

// WithMustExist ensures the catalog directory must already exist.
func WithMustExist(must bool) Option {
	return platform.WithMustExist(must)
}

// WithFile sets the catalog document path relative to the directory.
func WithFile(name string) Option {
	return platform.WithFile(name)
}

// WithLogger sets the logger for the service.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithStore injects a custom store.
func WithStore(store core.Store) Option {
	return platform.WithStore(store)
}

// WithAdapter selects the store adapter by name: "fs", "github" or "memory".
func WithAdapter(name string) Option {
	return platform.WithAdapter(name)
}

// WithSecret sets the shared admin secret.
func WithSecret(secret string) Option {
	return platform.WithSecret(secret)
}

// WithGitHub configures the github adapter.
func WithGitHub(token, branch, path, baseURL string) Option {
	return platform.WithGitHub(token, branch, path, baseURL)
}

// WithReadOnly opens the catalog without write access.
func WithReadOnly(enabled bool) Option {
	return platform.WithReadOnly(enabled)
}

// WithDevSafety controls the temporary-directory sandbox used by `go run`.
func WithDevSafety(enabled bool) Option {
	return platform.WithDevSafety(enabled)
}

// --- Factory ---

// New opens the catalog and returns the mutation service.
func New(uri string, opts ...Option) (*core.Service, error) {
	return platform.New(uri, opts...)
}

// Open opens the catalog store only.
func Open(uri string, opts ...Option) (core.Store, error) {
	return platform.Open(uri, opts...)
}

// --- Safety & Utils ---

// ResolveCatalogPath determines the actual catalog directory based on safety rules.
func ResolveCatalogPath(userPath string, forceTemp bool) string {
	return platform.ResolveCatalogPath(userPath, forceTemp)
}

// IsDevRun checks if the current process is running via `go run` or `go test`.
func IsDevRun() bool {
	return platform.IsDevRun()
}

// FindCatalogRoot looks upwards for a directory holding products.json or .git.
func FindCatalogRoot(startDir string) (string, error) {
	return platform.FindRoot(startDir)
}
