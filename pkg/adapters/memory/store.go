// Package memory provides an in-process catalog store with the same version
// semantics as the persistent adapters.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/introspection"
	"github.com/fabianshop/storefront/pkg/core"
)

// Revision is one committed version of the catalog document.
type Revision struct {
	Version core.Version
	Note    string
	Content []byte
}

// Store keeps the catalog document as encoded bytes, so the version token is
// computed exactly as for a file or a GitHub blob.
type Store struct {
	mu       sync.RWMutex
	content  []byte
	history  []Revision
	readOnly bool
}

// Option configures the Store.
type Option func(*Store)

// WithContent seeds the store with raw document bytes, valid or not.
func WithContent(content []byte) Option {
	return func(s *Store) {
		s.content = append([]byte(nil), content...)
	}
}

// WithCatalog seeds the store with an encoded catalog.
func WithCatalog(c core.Catalog) Option {
	return func(s *Store) {
		data, err := core.Encode(c)
		if err != nil {
			panic(fmt.Sprintf("memory: encode seed catalog: %v", err))
		}
		s.content = data
	}
}

// WithReadOnly rejects every commit with core.ErrReadOnly.
func WithReadOnly(readOnly bool) Option {
	return func(s *Store) {
		s.readOnly = readOnly
	}
}

// New creates a Store. Without options the document is absent.
func New(opts ...Option) *Store {
	s := &Store{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize creates an empty catalog when no document exists.
func (s *Store) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.content != nil {
		return nil
	}
	data, err := core.Encode(core.Catalog{})
	if err != nil {
		return err
	}
	s.content = data
	return nil
}

// FetchCatalog implements core.Store.
func (s *Store) FetchCatalog(ctx context.Context) (core.Catalog, core.Version, error) {
	if err := ctx.Err(); err != nil {
		return core.Catalog{}, "", fmt.Errorf("%w: %w", core.ErrTransientIO, err)
	}

	s.mu.RLock()
	content := s.content
	s.mu.RUnlock()

	if content == nil {
		return core.Catalog{}, "", core.ErrCatalogNotFound
	}
	c, err := core.Decode(content)
	if err != nil {
		return core.Catalog{}, "", err
	}
	return c, core.VersionOf(content), nil
}

// CommitCatalog implements core.Store.
func (s *Store) CommitCatalog(ctx context.Context, c core.Catalog, expected core.Version, changeNote string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", core.ErrTransientIO, err)
	}
	if s.readOnly {
		return core.ErrReadOnly
	}

	data, err := core.Encode(c)
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrTransientIO, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.content == nil || core.VersionOf(s.content) != expected {
		return core.ErrVersionConflict
	}

	s.content = data
	s.history = append(s.history, Revision{
		Version: core.VersionOf(data),
		Note:    changeNote,
		Content: data,
	})
	return nil
}

// Content returns a copy of the current document bytes.
func (s *Store) Content() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]byte(nil), s.content...)
}

// History returns the committed revisions, oldest first.
func (s *Store) History() []Revision {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Revision, len(s.history))
	copy(out, s.history)
	return out
}

// StoreState exposes the store's state for observability.
type StoreState struct {
	Present   bool   `json:"present"`
	Version   string `json:"version,omitempty"`
	Revisions int    `json:"revisions"`
	ReadOnly  bool   `json:"read_only"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := StoreState{
		Present:   s.content != nil,
		Revisions: len(s.history),
		ReadOnly:  s.readOnly,
	}
	if s.content != nil {
		st.Version = string(core.VersionOf(s.content))
	}
	return st
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "memory-store"
}

var (
	_ core.Store                   = (*Store)(nil)
	_ core.Initializer             = (*Store)(nil)
	_ introspection.Introspectable = (*Store)(nil)
	_ introspection.Component      = (*Store)(nil)
)
