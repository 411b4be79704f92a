package models

import (
	"github.com/google/uuid"
	"github.com/salesflow/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// ProductModel is the persistence model for the Product domain entity.
// Stock is the projection of initial_stock plus the product's ledger.
// Codes are unique per tenant, so the tenant column is declared here to
// lead the composite index.
type ProductModel struct {
	AggregateModel
	TenantID     uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_product_tenant_code,priority:1"`
	CreatedBy    *uuid.UUID      `gorm:"type:uuid"`
	Code         string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_product_tenant_code,priority:2"`
	Name         string          `gorm:"type:varchar(200);not null"`
	Price        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Stock        int64           `gorm:"not null;default:0;check:chk_products_stock_non_negative,stock >= 0"`
	InitialStock int64           `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product entity.
func (m *ProductModel) ToDomain() *catalog.Product {
	p := &catalog.Product{
		Code:         m.Code,
		Name:         m.Name,
		Price:        m.Price,
		Stock:        m.Stock,
		InitialStock: m.InitialStock,
	}
	m.PopulateAggregateRoot(&p.BaseAggregateRoot)
	p.TenantID = m.TenantID
	p.CreatedBy = m.CreatedBy
	return p
}

// FromDomain populates the persistence model from a domain Product entity.
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.TenantID = p.TenantID
	m.CreatedBy = p.CreatedBy
	m.Code = p.Code
	m.Name = p.Name
	m.Price = p.Price
	m.Stock = p.Stock
	m.InitialStock = p.InitialStock
}

// ProductModelFromDomain creates a new persistence model from a domain Product entity.
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}
