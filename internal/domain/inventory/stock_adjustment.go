package inventory

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/salesflow/backend/internal/domain/shared"
)

// AdjustmentSource identifies which entry point produced a ledger entry
type AdjustmentSource string

const (
	// AdjustmentSourceManual is an operator adjustment (restock, sale, damage)
	AdjustmentSourceManual AdjustmentSource = "MANUAL"
	// AdjustmentSourceOrderReturn is the stock credit of a returned order
	AdjustmentSourceOrderReturn AdjustmentSource = "ORDER_RETURN"
)

// DefaultAdjustmentReason is used when the caller gives no reason
const DefaultAdjustmentReason = "Manual adjustment"

const maxReasonLength = 500

// ReturnReason builds the ledger reason for an order return
func ReturnReason(orderID uuid.UUID) string {
	return fmt.Sprintf("Return from order %s", orderID)
}

// StockAdjustment is one immutable ledger entry.
// PreviousStock and NewStock snapshot the projection at write time so that
// drift between the ledger and the product counter can be located later.
type StockAdjustment struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	ProductID     uuid.UUID
	OrderID       *uuid.UUID
	Source        AdjustmentSource
	Quantity      int64
	Reason        string
	PreviousStock int64
	NewStock      int64
	AdjustedBy    uuid.UUID
	CreatedAt     time.Time
}

// NewStockAdjustment creates a ledger entry from the two stock snapshots
func NewStockAdjustment(
	tenantID, productID uuid.UUID,
	previousStock, newStock int64,
	reason string,
	adjustedBy uuid.UUID,
	createdAt time.Time,
) (*StockAdjustment, error) {
	if tenantID == uuid.Nil {
		return nil, shared.ErrTenantRequired
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidationFailed, "Product ID cannot be empty")
	}
	quantity := newStock - previousStock
	if quantity == 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidAdjustment, "Stock adjustment quantity must be non-zero")
	}
	if newStock < 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidAdjustment, "Stock adjustment would leave negative stock")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = DefaultAdjustmentReason
	}
	if len(reason) > maxReasonLength {
		return nil, shared.NewDomainError(shared.CodeValidationFailed, "Adjustment reason cannot exceed 500 characters")
	}

	return &StockAdjustment{
		ID:            uuid.New(),
		TenantID:      tenantID,
		ProductID:     productID,
		Source:        AdjustmentSourceManual,
		Quantity:      quantity,
		Reason:        reason,
		PreviousStock: previousStock,
		NewStock:      newStock,
		AdjustedBy:    adjustedBy,
		CreatedAt:     createdAt,
	}, nil
}

// LinkOrder marks the entry as the stock effect of an order transition
func (a *StockAdjustment) LinkOrder(orderID uuid.UUID) {
	a.OrderID = &orderID
	a.Source = AdjustmentSourceOrderReturn
}
