package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/salesflow/backend/internal/domain/catalog"
	"github.com/salesflow/backend/internal/domain/shared"
)

// StockAdjustmentRepository is append-only: entries are never updated or deleted.
// Implementations are bound to exactly one tenant when constructed.
type StockAdjustmentRepository interface {
	Append(ctx context.Context, adjustment *StockAdjustment) error
	// ListByProduct returns a page of entries in chronological order
	ListByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]StockAdjustment, int64, error)
	// AllByProduct returns every entry for the product in chronological order
	AllByProduct(ctx context.Context, productID uuid.UUID) ([]StockAdjustment, error)
	SumByProduct(ctx context.Context, productID uuid.UUID) (int64, error)
	// SumsByProduct returns the ledger sum for every product that has entries
	SumsByProduct(ctx context.Context) (map[uuid.UUID]int64, error)
}

// LedgerStore gives the ledger access to the two tables it must keep in lockstep
type LedgerStore interface {
	Products() catalog.ProductRepository
	Adjustments() StockAdjustmentRepository
}
