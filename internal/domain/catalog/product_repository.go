package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/salesflow/backend/internal/domain/shared"
)

// ProductRepository persists products.
// Implementations are bound to exactly one tenant when constructed.
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	// FindByIDForUpdate loads the product and holds a row lock until the
	// enclosing unit of work ends
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Product, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Product, int64, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	Create(ctx context.Context, product *Product) error
	// SaveStock persists the stock projection guarded by the product version
	SaveStock(ctx context.Context, product *Product) error
}
