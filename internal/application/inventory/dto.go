package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/salesflow/backend/internal/domain/catalog"
	"github.com/salesflow/backend/internal/domain/inventory"
	"github.com/shopspring/decimal"
)

// CreateProductRequest represents a request to create a product
type CreateProductRequest struct {
	Code         string          `json:"code" binding:"required,max=50"`
	Name         string          `json:"name" binding:"required,max=200"`
	Price        decimal.Decimal `json:"price"`
	InitialStock int64           `json:"initial_stock" binding:"min=0"`
}

// AdjustStockRequest represents a manual stock adjustment
type AdjustStockRequest struct {
	Delta  int64  `json:"delta"`
	Reason string `json:"reason" binding:"max=500"`
}

// HistoryFilter represents paging options for the ledger history
type HistoryFilter struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID           uuid.UUID       `json:"id"`
	TenantID     uuid.UUID       `json:"tenant_id"`
	Code         string          `json:"code"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	Stock        int64           `json:"stock"`
	InitialStock int64           `json:"initial_stock"`
	Version      int             `json:"version"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// StockAdjustmentResponse represents one ledger entry in API responses
type StockAdjustmentResponse struct {
	ID            uuid.UUID  `json:"id"`
	ProductID     uuid.UUID  `json:"product_id"`
	OrderID       *uuid.UUID `json:"order_id,omitempty"`
	Source        string     `json:"source"`
	Quantity      int64      `json:"quantity"`
	Reason        string     `json:"reason"`
	PreviousStock int64      `json:"previous_stock"`
	NewStock      int64      `json:"new_stock"`
	AdjustedBy    uuid.UUID  `json:"adjusted_by"`
	CreatedAt     time.Time  `json:"created_at"`
}

// AdjustStockResponse carries the product after the adjustment and the ledger entry
type AdjustStockResponse struct {
	Product    ProductResponse         `json:"product"`
	Adjustment StockAdjustmentResponse `json:"adjustment"`
}

// TenantIntegrityResponse summarizes a tenant-wide ledger sweep
type TenantIntegrityResponse struct {
	Checked    int                         `json:"checked"`
	Violations []inventory.IntegrityReport `json:"violations"`
	Consistent bool                        `json:"consistent"`
}

// ReconcileResponse reports the outcome of an explicit projection repair
type ReconcileResponse struct {
	Report        inventory.IntegrityReport `json:"report"`
	Changed       bool                      `json:"changed"`
	PreviousStock int64                     `json:"previous_stock"`
	NewStock      int64                     `json:"new_stock"`
}

// ToProductResponse converts a domain product to a response
func ToProductResponse(p *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:           p.ID,
		TenantID:     p.TenantID,
		Code:         p.Code,
		Name:         p.Name,
		Price:        p.Price,
		Stock:        p.Stock,
		InitialStock: p.InitialStock,
		Version:      p.Version,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

// ToStockAdjustmentResponse converts a ledger entry to a response
func ToStockAdjustmentResponse(a *inventory.StockAdjustment) StockAdjustmentResponse {
	return StockAdjustmentResponse{
		ID:            a.ID,
		ProductID:     a.ProductID,
		OrderID:       a.OrderID,
		Source:        string(a.Source),
		Quantity:      a.Quantity,
		Reason:        a.Reason,
		PreviousStock: a.PreviousStock,
		NewStock:      a.NewStock,
		AdjustedBy:    a.AdjustedBy,
		CreatedAt:     a.CreatedAt,
	}
}
