package fs

import (
	"time"

	"github.com/aretw0/introspection"
	"github.com/fabianshop/storefront/pkg/core"
)

// RepositoryState exposes internal state for observability.
type RepositoryState struct {
	Path          string     `json:"path"`
	File          string     `json:"file"`
	Gitless       bool       `json:"gitless"`
	ReadOnly      bool       `json:"read_only"`
	WatcherActive bool       `json:"watcher_active"`
	LastWritten   string     `json:"last_written,omitempty"`
	LastCommit    *time.Time `json:"last_commit,omitempty"`
	Commits       int        `json:"commits"`
	Conflicts     int        `json:"conflicts"`
}

// State implements introspection.Introspectable.
func (r *Repository) State() any {
	r.stateMu.RLock()
	defer r.stateMu.RUnlock()

	return RepositoryState{
		Path:          r.Path,
		File:          r.config.File,
		Gitless:       r.config.Gitless,
		ReadOnly:      r.config.ReadOnly,
		WatcherActive: r.watcherActive,
		LastWritten:   r.lastWritten.Short(),
		LastCommit:    r.lastCommit,
		Commits:       r.commits,
		Conflicts:     r.conflicts,
	}
}

// ComponentType implements introspection.Component.
func (r *Repository) ComponentType() string {
	return "fs-store"
}

var _ introspection.Introspectable = (*Repository)(nil)
var _ introspection.Component = (*Repository)(nil)

func (r *Repository) setWatcherActive(active bool) {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()
	r.watcherActive = active
}

func (r *Repository) recordWrite(v core.Version) {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()
	now := time.Now()
	r.lastWritten = v
	r.lastCommit = &now
	r.commits++
}

func (r *Repository) recordConflict() {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()
	r.conflicts++
}

// ownWrite reports whether v is the last version this process wrote.
func (r *Repository) ownWrite(v core.Version) bool {
	r.stateMu.RLock()
	defer r.stateMu.RUnlock()
	return r.lastWritten != "" && r.lastWritten == v
}
