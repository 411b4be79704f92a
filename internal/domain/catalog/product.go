package catalog

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/salesflow/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Product represents a sellable SKU with a projected stock counter.
//
// Stock is a cached projection of the stock ledger:
// Stock == InitialStock + sum(ledger quantities). It is only ever moved by
// ApplyStockDelta inside the same unit of work that appends the ledger entry.
type Product struct {
	shared.TenantAggregateRoot
	Code         string
	Name         string
	Price        decimal.Decimal
	Stock        int64
	InitialStock int64
}

// NewProduct creates a new product with its opening stock
func NewProduct(tenantID uuid.UUID, code, name string, price decimal.Decimal, initialStock int64) (*Product, error) {
	if tenantID == uuid.Nil {
		return nil, shared.ErrTenantRequired
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if err := validateProductCode(code); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if err := validateProductName(name); err != nil {
		return nil, err
	}
	if price.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeValidationFailed, "Product price cannot be negative")
	}
	if initialStock < 0 {
		return nil, shared.NewDomainError(shared.CodeValidationFailed, "Initial stock cannot be negative")
	}

	product := &Product{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Code:                code,
		Name:                name,
		Price:               price.Round(4),
		Stock:               initialStock,
		InitialStock:        initialStock,
	}
	product.AddDomainEvent(NewProductCreatedEvent(product))

	return product, nil
}

// ApplyStockDelta moves the projected stock by delta.
// It fails without touching the product when delta is zero or the
// resulting stock would be negative.
func (p *Product) ApplyStockDelta(delta int64) (previous, next int64, err error) {
	if delta == 0 {
		return 0, 0, shared.NewDomainError(shared.CodeInvalidAdjustment, "Stock adjustment quantity must be non-zero")
	}
	previous = p.Stock
	next = previous + delta
	if next < 0 {
		return 0, 0, shared.NewDomainError(
			shared.CodeInvalidAdjustment,
			fmt.Sprintf("Adjustment of %d would drive stock of product %s negative (current stock %d)", delta, p.Code, previous),
		)
	}
	p.Stock = next
	return previous, next, nil
}

// ResetStock overwrites the projection with a value recomputed from the ledger.
// Only the explicit reconciliation operation may call this.
func (p *Product) ResetStock(projected int64) (previous int64) {
	previous = p.Stock
	p.Stock = projected
	return previous
}

// LineTotal prices quantity units at the current price
func (p *Product) LineTotal(quantity int64) decimal.Decimal {
	return p.Price.Mul(decimal.NewFromInt(quantity)).Round(2)
}

func validateProductCode(code string) error {
	if code == "" {
		return shared.NewDomainError(shared.CodeValidationFailed, "Product code cannot be empty")
	}
	if len(code) > 50 {
		return shared.NewDomainError(shared.CodeValidationFailed, "Product code cannot exceed 50 characters")
	}
	for _, r := range code {
		if !((r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-') {
			return shared.NewDomainError(shared.CodeValidationFailed, "Product code can only contain letters, numbers, underscores, and hyphens")
		}
	}
	return nil
}

func validateProductName(name string) error {
	if name == "" {
		return shared.NewDomainError(shared.CodeValidationFailed, "Product name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError(shared.CodeValidationFailed, "Product name cannot exceed 200 characters")
	}
	return nil
}
