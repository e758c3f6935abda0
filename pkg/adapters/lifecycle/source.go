// Package lifecycle bridges catalog change events to the lifecycle runtime.
package lifecycle

import (
	"context"

	"github.com/aretw0/lifecycle"

	"github.com/fabianshop/storefront/pkg/core"
)

type catalogSource struct {
	events <-chan core.Event
	out    chan lifecycle.Event
}

// NewSource creates a lifecycle.Source that re-emits store change events.
// The source closes its Events channel when the store channel closes or the
// context passed to Start is done.
func NewSource(events <-chan core.Event) lifecycle.Source {
	return &catalogSource{
		events: events,
		out:    make(chan lifecycle.Event),
	}
}

func (s *catalogSource) Events() <-chan lifecycle.Event {
	return s.out
}

func (s *catalogSource) Start(ctx context.Context) error {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-s.events:
				if !ok {
					return nil
				}
				select {
				case s.out <- e:
				case <-ctx.Done():
					return nil
				}
			}
		}
	})
	return nil
}
