package trade

import (
	"context"

	"github.com/google/uuid"
	"github.com/salesflow/backend/internal/domain/shared"
)

// OrderFilter narrows order listings
type OrderFilter struct {
	shared.Filter
	Status    OrderStatus
	ProductID *uuid.UUID
}

// OrderRepository persists orders.
// Implementations are bound to exactly one tenant when constructed and
// offer no delete: cancelled and returned orders stay as terminal rows.
type OrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	// FindByIDForUpdate loads the order and holds a row lock until the
	// enclosing unit of work ends
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Order, error)
	FindByTrackingNumber(ctx context.Context, provider, trackingNumber string) (*Order, error)
	FindAll(ctx context.Context, filter OrderFilter) ([]Order, int64, error)
	Create(ctx context.Context, order *Order) error
	// Save persists the order guarded by its version and advances it
	Save(ctx context.Context, order *Order) error
}
