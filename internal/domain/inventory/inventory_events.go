package inventory

import (
	"github.com/google/uuid"
	"github.com/salesflow/backend/internal/domain/shared"
)

// Aggregate type constants
const (
	AggregateTypeStockLedger = "StockLedger"
)

// Event type constants
const (
	EventTypeStockAdjusted              = "StockAdjusted"
	EventTypeIntegrityViolationDetected = "IntegrityViolationDetected"
)

// StockAdjustedEvent is published after a ledger entry commits
type StockAdjustedEvent struct {
	shared.BaseDomainEvent
	AdjustmentID  uuid.UUID        `json:"adjustment_id"`
	ProductID     uuid.UUID        `json:"product_id"`
	OrderID       *uuid.UUID       `json:"order_id,omitempty"`
	Source        AdjustmentSource `json:"source"`
	Quantity      int64            `json:"quantity"`
	PreviousStock int64            `json:"previous_stock"`
	NewStock      int64            `json:"new_stock"`
	Reason        string           `json:"reason"`
	AdjustedBy    uuid.UUID        `json:"adjusted_by"`
}

// NewStockAdjustedEvent creates a new StockAdjustedEvent
func NewStockAdjustedEvent(a *StockAdjustment) *StockAdjustedEvent {
	return &StockAdjustedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockAdjusted, AggregateTypeStockLedger, a.ProductID, a.TenantID),
		AdjustmentID:    a.ID,
		ProductID:       a.ProductID,
		OrderID:         a.OrderID,
		Source:          a.Source,
		Quantity:        a.Quantity,
		PreviousStock:   a.PreviousStock,
		NewStock:        a.NewStock,
		Reason:          a.Reason,
		AdjustedBy:      a.AdjustedBy,
	}
}

// IntegrityViolationDetectedEvent is raised for operator alerting when the
// projection no longer matches the ledger
type IntegrityViolationDetectedEvent struct {
	shared.BaseDomainEvent
	ProductID     uuid.UUID  `json:"product_id"`
	ExpectedStock int64      `json:"expected_stock"`
	ActualStock   int64      `json:"actual_stock"`
	BrokenEntryID *uuid.UUID `json:"broken_entry_id,omitempty"`
	Detail        string     `json:"detail"`
}

// NewIntegrityViolationDetectedEvent creates a new IntegrityViolationDetectedEvent
func NewIntegrityViolationDetectedEvent(tenantID uuid.UUID, r *IntegrityReport) *IntegrityViolationDetectedEvent {
	return &IntegrityViolationDetectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeIntegrityViolationDetected, AggregateTypeStockLedger, r.ProductID, tenantID),
		ProductID:       r.ProductID,
		ExpectedStock:   r.ExpectedStock,
		ActualStock:     r.ActualStock,
		BrokenEntryID:   r.BrokenEntryID,
		Detail:          r.Detail,
	}
}
