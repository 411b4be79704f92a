package event

import (
	"context"
	"errors"

	"github.com/salesflow/backend/internal/domain/shared"
)

// FanoutPublisher hands every batch to each publisher in turn. All
// publishers are tried; their errors are joined.
type FanoutPublisher struct {
	publishers []shared.EventPublisher
}

// NewFanoutPublisher creates a FanoutPublisher, skipping nil publishers
func NewFanoutPublisher(publishers ...shared.EventPublisher) *FanoutPublisher {
	f := &FanoutPublisher{}
	for _, p := range publishers {
		if p != nil {
			f.publishers = append(f.publishers, p)
		}
	}
	return f
}

// Publish implements shared.EventPublisher
func (f *FanoutPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	var errs []error
	for _, p := range f.publishers {
		if err := p.Publish(ctx, events...); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ shared.EventPublisher = (*FanoutPublisher)(nil)
