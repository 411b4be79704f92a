package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/salesflow/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// OrderModel is the persistence model for the Order aggregate.
type OrderModel struct {
	TenantAggregateModel
	LeadID           *uuid.UUID        `gorm:"type:uuid"`
	ProductID        uuid.UUID         `gorm:"type:uuid;not null;index"`
	Quantity         int64             `gorm:"not null"`
	CustomerName     string            `gorm:"type:varchar(200);not null"`
	CustomerPhone    string            `gorm:"type:varchar(50);not null"`
	CustomerAddress  string            `gorm:"type:varchar(500)"`
	CustomerCity     string            `gorm:"type:varchar(100)"`
	Status           trade.OrderStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	Total            decimal.Decimal   `gorm:"type:decimal(18,2);not null;default:0"`
	ShippingProvider string            `gorm:"type:varchar(50);index:idx_order_tracking,priority:1"`
	TrackingNumber   string            `gorm:"type:varchar(100);index:idx_order_tracking,priority:2"`
	ShippedAt        *time.Time
	DeliveredAt      *time.Time
	InvoicePrinted   bool `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order entity.
func (m *OrderModel) ToDomain() *trade.Order {
	o := &trade.Order{
		LeadID:    m.LeadID,
		ProductID: m.ProductID,
		Quantity:  m.Quantity,
		Customer: trade.Customer{
			Name:    m.CustomerName,
			Phone:   m.CustomerPhone,
			Address: m.CustomerAddress,
			City:    m.CustomerCity,
		},
		Status:           m.Status,
		Total:            m.Total,
		ShippingProvider: m.ShippingProvider,
		TrackingNumber:   m.TrackingNumber,
		ShippedAt:        m.ShippedAt,
		DeliveredAt:      m.DeliveredAt,
		InvoicePrinted:   m.InvoicePrinted,
	}
	m.PopulateTenantAggregateRoot(&o.TenantAggregateRoot)
	return o
}

// FromDomain populates the persistence model from a domain Order entity.
func (m *OrderModel) FromDomain(o *trade.Order) {
	m.FromDomainTenantAggregateRoot(o.TenantAggregateRoot)
	m.LeadID = o.LeadID
	m.ProductID = o.ProductID
	m.Quantity = o.Quantity
	m.CustomerName = o.Customer.Name
	m.CustomerPhone = o.Customer.Phone
	m.CustomerAddress = o.Customer.Address
	m.CustomerCity = o.Customer.City
	m.Status = o.Status
	m.Total = o.Total
	m.ShippingProvider = o.ShippingProvider
	m.TrackingNumber = o.TrackingNumber
	m.ShippedAt = o.ShippedAt
	m.DeliveredAt = o.DeliveredAt
	m.InvoicePrinted = o.InvoicePrinted
}

// OrderModelFromDomain creates a new persistence model from a domain Order entity.
func OrderModelFromDomain(o *trade.Order) *OrderModel {
	m := &OrderModel{}
	m.FromDomain(o)
	return m
}
