package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/salesflow/backend/internal/domain/catalog"
)

// RecordRequest describes one stock movement
type RecordRequest struct {
	ProductID uuid.UUID
	Delta     int64
	Reason    string
	ActorID   uuid.UUID
	// OrderID links the entry to the order transition that caused it
	OrderID *uuid.UUID
}

// StockLedger appends ledger entries and moves the product projection in lockstep.
// It must run inside a unit of work: the entry and the projection update
// commit together or not at all.
type StockLedger struct {
	now func() time.Time
}

// NewStockLedger creates a new StockLedger
func NewStockLedger() *StockLedger {
	return &StockLedger{now: func() time.Time { return time.Now().UTC() }}
}

// WithClock overrides the time source
func (l *StockLedger) WithClock(now func() time.Time) *StockLedger {
	l.now = now
	return l
}

// Record locks the product, applies the delta, appends the ledger entry and
// then saves the projection. The ledger row is always written first.
func (l *StockLedger) Record(ctx context.Context, store LedgerStore, req RecordRequest) (*catalog.Product, *StockAdjustment, error) {
	product, err := store.Products().FindByIDForUpdate(ctx, req.ProductID)
	if err != nil {
		return nil, nil, err
	}

	previous, next, err := product.ApplyStockDelta(req.Delta)
	if err != nil {
		return nil, nil, err
	}

	adjustment, err := NewStockAdjustment(product.TenantID, product.ID, previous, next, req.Reason, req.ActorID, l.now())
	if err != nil {
		return nil, nil, err
	}
	if req.OrderID != nil {
		adjustment.LinkOrder(*req.OrderID)
	}

	if err := store.Adjustments().Append(ctx, adjustment); err != nil {
		return nil, nil, err
	}
	if err := store.Products().SaveStock(ctx, product); err != nil {
		return nil, nil, err
	}

	product.AddDomainEvent(NewStockAdjustedEvent(adjustment))
	return product, adjustment, nil
}
