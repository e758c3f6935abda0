package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
)

type contextKey string

const (
	// actorKey carries the name recorded in change notes.
	actorKey contextKey = "actor"
	// requestIDKey carries the transport request id for logging.
	requestIDKey contextKey = "request_id"
)

// WithActor records who performs the mutations made with ctx.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// WithRequestID attaches a request id used in log records.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID returns the request id attached to ctx, if any.
func RequestID(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey).(string)
	return v
}

func actorFrom(ctx context.Context) string {
	if v, ok := ctx.Value(actorKey).(string); ok && v != "" {
		return v
	}
	return DefaultActor
}

// Removed describes a product taken out of the catalog.
type Removed struct {
	ID   string `json:"productId"`
	Name string `json:"productName"`
}

// Service implements the catalog mutation protocol: authenticate, validate,
// fetch, compute, conditionally commit, map the outcome. It keeps no catalog
// state between calls.
type Service struct {
	store  Store
	auth   Authenticator
	logger *slog.Logger

	commits   atomic.Uint64
	conflicts atomic.Uint64
	failures  atomic.Uint64
}

// NewService creates a new Service. A nil logger discards output.
func NewService(store Store, auth Authenticator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{store: store, auth: auth, logger: logger}
}

// Store returns the accessor the service mutates.
func (s *Service) Store() Store {
	return s.store
}

// Authenticate checks a caller credential without performing any mutation.
func (s *Service) Authenticate(credential string) error {
	if s.auth == nil {
		return ErrUnauthorized
	}
	return s.auth.Authenticate(credential)
}

// Catalog fetches the current catalog for read-only callers.
func (s *Service) Catalog(ctx context.Context) (Catalog, error) {
	c, _, err := s.store.FetchCatalog(ctx)
	if err != nil {
		return Catalog{}, mapStoreError(err)
	}
	return c, nil
}

// Create appends a new product and returns its id.
func (s *Service) Create(ctx context.Context, credential string, d Draft) (string, error) {
	log := s.log(ctx, "create")
	if err := s.Authenticate(credential); err != nil {
		log.Info("authentication failed")
		return "", err
	}

	p, err := Validate(d)
	if err != nil {
		log.Info("validation failed", "error", err)
		return "", err
	}
	log = log.With("product_id", p.ID)

	err = s.mutate(ctx, log, func(c Catalog) (Catalog, string, error) {
		if c.Index(p.ID) >= 0 {
			return Catalog{}, "", fmt.Errorf("%w: %s", ErrDuplicateID, p.ID)
		}
		next := c.clone()
		next.Products = append(next.Products, p)
		return next, ChangeNote(ChangeAdd, p, actorFrom(ctx)), nil
	})
	if err != nil {
		return "", err
	}
	return p.ID, nil
}

// Update replaces every known field of an existing product, keeping its
// position and any stored keys outside the product schema.
func (s *Service) Update(ctx context.Context, credential string, d Draft) error {
	log := s.log(ctx, "update")
	if err := s.Authenticate(credential); err != nil {
		log.Info("authentication failed")
		return err
	}

	p, err := Validate(d)
	if err != nil {
		log.Info("validation failed", "error", err)
		return err
	}
	log = log.With("product_id", p.ID)

	return s.mutate(ctx, log, func(c Catalog) (Catalog, string, error) {
		i := c.Index(p.ID)
		if i < 0 {
			return Catalog{}, "", fmt.Errorf("%w: %s", ErrProductNotFound, p.ID)
		}
		updated := p
		updated.Extra = c.Products[i].Extra
		next := c.clone()
		next.Products[i] = updated
		return next, ChangeNote(ChangeUpdate, p, actorFrom(ctx)), nil
	})
}

// Delete removes a product and reports what was removed.
func (s *Service) Delete(ctx context.Context, credential string, id any) (Removed, error) {
	log := s.log(ctx, "delete")
	if err := s.Authenticate(credential); err != nil {
		log.Info("authentication failed")
		return Removed{}, err
	}

	pid, err := ValidateID(id)
	if err != nil {
		log.Info("validation failed", "error", err)
		return Removed{}, err
	}
	log = log.With("product_id", pid)

	var removed Removed
	err = s.mutate(ctx, log, func(c Catalog) (Catalog, string, error) {
		i := c.Index(pid)
		if i < 0 {
			return Catalog{}, "", fmt.Errorf("%w: %s", ErrProductNotFound, pid)
		}
		victim := c.Products[i]
		removed = Removed{ID: victim.ID, Name: victim.Name}

		next := Catalog{Products: make([]Product, 0, len(c.Products)-1), Extra: c.Extra}
		for _, p := range c.Products {
			if p.ID != pid {
				next.Products = append(next.Products, p)
			}
		}
		return next, ChangeNote(ChangeDelete, victim, actorFrom(ctx)), nil
	})
	if err != nil {
		return Removed{}, err
	}
	return removed, nil
}

// mutate runs fetch, compute and conditional commit.
// compute must not modify the catalog it receives.
func (s *Service) mutate(ctx context.Context, log *slog.Logger, compute func(Catalog) (Catalog, string, error)) error {
	// 1. Fetch current catalog and its version token
	current, version, err := s.store.FetchCatalog(ctx)
	if err != nil {
		s.failures.Add(1)
		log.Error("fetch catalog failed", "error", err)
		return mapStoreError(err)
	}
	log.Debug("catalog fetched", "version", version.Short(), "products", len(current.Products))

	// 2. Compute the next catalog
	next, note, err := compute(current)
	if err != nil {
		log.Info("mutation rejected", "error", err)
		return err
	}

	// 3. Conditional commit guarded by the observed version
	if err := s.store.CommitCatalog(ctx, next, version, note); err != nil {
		if errors.Is(err, ErrVersionConflict) {
			s.conflicts.Add(1)
			log.Warn("commit conflict", "version", version.Short())
		} else {
			s.failures.Add(1)
			log.Error("commit failed", "error", err)
		}
		return mapStoreError(err)
	}

	s.commits.Add(1)
	log.Info("commit successful", "products", len(next.Products), "change", Subject(note))
	return nil
}

func (s *Service) log(ctx context.Context, op string) *slog.Logger {
	l := s.logger.With("op", op)
	if id := RequestID(ctx); id != "" {
		l = l.With("request_id", id)
	}
	return l
}
