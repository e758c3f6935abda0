// Package fs stores the catalog as a JSON file inside a local git working
// tree. Each commit of the catalog is one git commit carrying the change note.
package fs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fabianshop/storefront/pkg/core"
	"github.com/fabianshop/storefront/pkg/git"
)

// DefaultFile is the catalog document path relative to the working tree.
const DefaultFile = "products.json"

// Repository implements core.Store using the filesystem and Git.
type Repository struct {
	Path   string
	git    *git.Client
	config Config

	// mu serializes commits within this process; the git lock file
	// serializes them across processes.
	mu sync.Mutex

	stateMu       sync.RWMutex
	lastWritten   core.Version
	lastCommit    *time.Time
	commits       int
	conflicts     int
	watcherActive bool
}

// Config holds the configuration for the filesystem repository.
type Config struct {
	Path         string
	File         string // catalog path relative to Path, DefaultFile when empty
	AutoInit     bool   // git init when Path is not a repository
	Gitless      bool   // write the file without committing
	MustExist    bool   // fail instead of creating Path
	ReadOnly     bool
	Logger       *slog.Logger
	ErrorHandler func(error) // receives watcher failures
}

// NewRepository creates a new filesystem-backed catalog store.
func NewRepository(config Config) *Repository {
	if config.File == "" {
		config.File = DefaultFile
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	return &Repository{
		Path:   config.Path,
		git:    git.NewClient(config.Path, "", config.Logger),
		config: config,
	}
}

// File returns the absolute path of the catalog document.
func (r *Repository) File() string {
	return filepath.Join(r.Path, filepath.FromSlash(r.config.File))
}

// Initialize performs the necessary setup (mkdir, git init) and creates an
// empty catalog when none exists.
func (r *Repository) Initialize(ctx context.Context) error {
	// 1. Directory Initialization
	if r.config.MustExist {
		info, err := os.Stat(r.Path)
		if os.IsNotExist(err) {
			return fmt.Errorf("catalog path does not exist: %s", r.Path)
		}
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("catalog path is not a directory: %s", r.Path)
		}
	} else {
		if err := os.MkdirAll(r.Path, 0755); err != nil {
			return fmt.Errorf("failed to create catalog directory: %w", err)
		}
	}

	// 2. Git Initialization
	if !r.config.Gitless {
		if !git.IsInstalled() {
			return git.ErrNotInstalled
		}

		if !r.git.IsRepo(ctx) {
			if !r.config.AutoInit {
				return fmt.Errorf("path is not a git repository: %s", r.Path)
			}
			if err := r.git.Init(ctx); err != nil {
				return fmt.Errorf("failed to git init: %w", err)
			}
		}

		if !r.config.ReadOnly {
			if _, err := r.ensureIgnore(); err != nil {
				return fmt.Errorf("failed to ensure .gitignore: %w", err)
			}
		}
	}

	// 3. Catalog bootstrap
	if _, err := os.Stat(r.File()); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat catalog: %w", err)
	}
	if r.config.ReadOnly {
		return core.ErrReadOnly
	}

	data, err := core.Encode(core.Catalog{})
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(r.File()), 0755); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}
	if err := r.write(ctx, data, "Initialize product catalog", ".gitignore"); err != nil {
		return err
	}
	r.config.Logger.Info("catalog initialized", "path", r.File())
	return nil
}

// ensureIgnore keeps the lock file out of the history.
func (r *Repository) ensureIgnore() (bool, error) {
	ignorePath := filepath.Join(r.Path, ".gitignore")
	ignoreEntry := r.git.LockName()

	content, err := os.ReadFile(ignorePath)
	if err != nil && !os.IsNotExist(err) {
		return false, err
	}

	for _, line := range strings.Split(string(content), "\n") {
		if strings.TrimSpace(line) == ignoreEntry {
			return false, nil
		}
	}

	f, err := os.OpenFile(ignorePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return false, err
	}
	defer f.Close()

	if len(content) > 0 && !strings.HasSuffix(string(content), "\n") {
		if _, err := f.WriteString("\n"); err != nil {
			return false, err
		}
	}

	if _, err := f.WriteString(ignoreEntry + "\n"); err != nil {
		return false, err
	}

	return true, nil
}

// FetchCatalog implements core.Store.
func (r *Repository) FetchCatalog(ctx context.Context) (core.Catalog, core.Version, error) {
	content, err := r.read()
	if err != nil {
		return core.Catalog{}, "", err
	}
	c, err := core.Decode(content)
	if err != nil {
		return core.Catalog{}, "", fmt.Errorf("%s: %w", r.config.File, err)
	}
	return c, core.VersionOf(content), nil
}

// CommitCatalog implements core.Store.
//
// Workflow:
//  1. Serialize the catalog.
//  2. Take the process mutex and the git lock file.
//  3. Re-read the document and compare its blob hash with expected.
//  4. Write atomically, then 'git add' and 'git commit' with the change note.
func (r *Repository) CommitCatalog(ctx context.Context, c core.Catalog, expected core.Version, changeNote string) error {
	if r.config.ReadOnly {
		return core.ErrReadOnly
	}

	data, err := core.Encode(c)
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrTransientIO, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	unlock, err := r.git.Lock(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrTransientIO, err)
	}
	defer unlock()

	current, err := r.read()
	switch {
	case errors.Is(err, core.ErrCatalogNotFound):
		return fmt.Errorf("%w: document removed", core.ErrVersionConflict)
	case err != nil:
		return err
	}
	if v := core.VersionOf(current); v != expected {
		r.recordConflict()
		return fmt.Errorf("%w: expected %s, found %s", core.ErrVersionConflict, expected.Short(), v.Short())
	}

	if err := r.write(ctx, data, changeNote); err != nil {
		// Leave the previous content in place so a failed commit is invisible.
		if rerr := writeFileAtomic(r.File(), current, 0644); rerr != nil {
			r.config.Logger.Error("failed to restore catalog", "error", rerr)
		}
		return err
	}
	return nil
}

// write stores data and, unless gitless, commits it with note.
// Callers hold the git lock or run during initialization.
func (r *Repository) write(ctx context.Context, data []byte, note string, extra ...string) error {
	if err := writeFileAtomic(r.File(), data, 0644); err != nil {
		return fmt.Errorf("%w: %w", core.ErrTransientIO, err)
	}
	r.recordWrite(core.VersionOf(data))

	if r.config.Gitless {
		return nil
	}

	files := append([]string{filepath.ToSlash(r.config.File)}, extra...)
	if err := r.git.Add(ctx, files...); err != nil {
		return fmt.Errorf("%w: failed to git add: %w", core.ErrTransientIO, err)
	}
	if err := r.git.Commit(ctx, note); err != nil {
		return fmt.Errorf("%w: failed to git commit: %w", core.ErrTransientIO, err)
	}

	r.config.Logger.Debug("catalog committed", "file", r.config.File, "subject", core.Subject(note))
	return nil
}

func (r *Repository) read() ([]byte, error) {
	content, err := os.ReadFile(r.File())
	switch {
	case err == nil:
		return content, nil
	case errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("%w: %s", core.ErrCatalogNotFound, r.config.File)
	case errors.Is(err, fs.ErrPermission):
		return nil, fmt.Errorf("%w: %w", core.ErrStoreAuth, err)
	default:
		return nil, fmt.Errorf("%w: %w", core.ErrTransientIO, err)
	}
}

// History returns the change notes recorded for the catalog, newest first.
func (r *Repository) History(ctx context.Context, limit int) ([]string, error) {
	if r.config.Gitless {
		return nil, fmt.Errorf("history is unavailable in gitless mode")
	}
	return r.git.Messages(ctx, filepath.ToSlash(r.config.File), limit)
}

// IsGitInstalled checks if git is available in the system path.
func IsGitInstalled() bool {
	return git.IsInstalled()
}

var (
	_ core.Store       = (*Repository)(nil)
	_ core.Initializer = (*Repository)(nil)
	_ core.Watchable   = (*Repository)(nil)
)
