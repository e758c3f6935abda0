package core

import (
	"github.com/aretw0/introspection"
)

// ServiceState exposes mutation counters for observability.
type ServiceState struct {
	StoreType string `json:"store_type"`
	Commits   uint64 `json:"commits"`
	Conflicts uint64 `json:"conflicts"`
	Failures  uint64 `json:"failures"`
}

// State implements introspection.Introspectable.
func (s *Service) State() any {
	storeType := "unknown"
	if s.store != nil {
		storeType = "store"
		if comp, ok := s.store.(introspection.Component); ok {
			storeType = comp.ComponentType()
		}
	}

	return ServiceState{
		StoreType: storeType,
		Commits:   s.commits.Load(),
		Conflicts: s.conflicts.Load(),
		Failures:  s.failures.Load(),
	}
}

// ComponentType implements introspection.Component.
func (s *Service) ComponentType() string {
	return "catalog-service"
}

var _ introspection.Introspectable = (*Service)(nil)
var _ introspection.Component = (*Service)(nil)
