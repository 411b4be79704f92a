package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/salesflow/backend/internal/domain/inventory"
)

// StockAdjustmentModel is one row of the append-only stock ledger.
// It has no updated_at and no version: rows are never modified.
type StockAdjustmentModel struct {
	ID            uuid.UUID                  `gorm:"type:uuid;primary_key"`
	TenantID      uuid.UUID                  `gorm:"type:uuid;not null;index:idx_stock_adjustment_tenant_product,priority:1"`
	ProductID     uuid.UUID                  `gorm:"type:uuid;not null;index:idx_stock_adjustment_tenant_product,priority:2"`
	OrderID       *uuid.UUID                 `gorm:"type:uuid;index"`
	Source        inventory.AdjustmentSource `gorm:"type:varchar(20);not null;default:'MANUAL'"`
	Quantity      int64                      `gorm:"not null"`
	Reason        string                     `gorm:"type:varchar(500);not null"`
	PreviousStock int64                      `gorm:"not null"`
	NewStock      int64                      `gorm:"not null"`
	AdjustedBy    uuid.UUID                  `gorm:"type:uuid;not null"`
	CreatedAt     time.Time                  `gorm:"not null;index:idx_stock_adjustment_tenant_product,priority:3"`
}

// TableName returns the table name for GORM
func (StockAdjustmentModel) TableName() string {
	return "stock_adjustments"
}

// ToDomain converts the persistence model to a domain StockAdjustment.
func (m *StockAdjustmentModel) ToDomain() *inventory.StockAdjustment {
	return &inventory.StockAdjustment{
		ID:            m.ID,
		TenantID:      m.TenantID,
		ProductID:     m.ProductID,
		OrderID:       m.OrderID,
		Source:        m.Source,
		Quantity:      m.Quantity,
		Reason:        m.Reason,
		PreviousStock: m.PreviousStock,
		NewStock:      m.NewStock,
		AdjustedBy:    m.AdjustedBy,
		CreatedAt:     m.CreatedAt,
	}
}

// StockAdjustmentModelFromDomain creates a new persistence model from a domain StockAdjustment.
func StockAdjustmentModelFromDomain(a *inventory.StockAdjustment) *StockAdjustmentModel {
	return &StockAdjustmentModel{
		ID:            a.ID,
		TenantID:      a.TenantID,
		ProductID:     a.ProductID,
		OrderID:       a.OrderID,
		Source:        a.Source,
		Quantity:      a.Quantity,
		Reason:        a.Reason,
		PreviousStock: a.PreviousStock,
		NewStock:      a.NewStock,
		AdjustedBy:    a.AdjustedBy,
		CreatedAt:     a.CreatedAt,
	}
}
