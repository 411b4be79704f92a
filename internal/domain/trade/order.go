package trade

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/salesflow/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Customer holds the delivery contact of an order
type Customer struct {
	Name    string
	Phone   string
	Address string
	City    string
}

// Validate checks the mandatory customer fields
func (c Customer) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return shared.NewDomainError(shared.CodeValidationFailed, "Customer name cannot be empty")
	}
	if strings.TrimSpace(c.Phone) == "" {
		return shared.NewDomainError(shared.CodeValidationFailed, "Customer phone cannot be empty")
	}
	return nil
}

// Order is a single-product sales order.
// Status only ever changes through Transition. Total is fixed at creation.
type Order struct {
	shared.TenantAggregateRoot
	LeadID           *uuid.UUID
	ProductID        uuid.UUID
	Quantity         int64
	Customer         Customer
	Status           OrderStatus
	Total            decimal.Decimal
	ShippingProvider string
	TrackingNumber   string
	ShippedAt        *time.Time
	DeliveredAt      *time.Time
	InvoicePrinted   bool
}

// TransitionEffect lists the side effects a transition asks the caller to
// perform inside the same unit of work
type TransitionEffect struct {
	From OrderStatus
	To   OrderStatus
	// StockCredit is the number of units to credit back to the product
	StockCredit int64
}

// NewOrder creates a PENDING order. total is the line priced at creation
// time (see catalog.Product.LineTotal) and is never recomputed.
func NewOrder(tenantID, productID uuid.UUID, quantity int64, total decimal.Decimal, customer Customer) (*Order, error) {
	if tenantID == uuid.Nil {
		return nil, shared.ErrTenantRequired
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidationFailed, "Product ID cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError(shared.CodeValidationFailed, "Order quantity must be positive")
	}
	if total.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeValidationFailed, "Order total cannot be negative")
	}
	if err := customer.Validate(); err != nil {
		return nil, err
	}

	order := &Order{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		ProductID:           productID,
		Quantity:            quantity,
		Customer:            customer,
		Status:              OrderStatusPending,
		Total:               total.Round(2),
	}
	order.AddDomainEvent(NewOrderCreatedEvent(order))

	return order, nil
}

// SetLead records the lead the order was converted from
func (o *Order) SetLead(leadID uuid.UUID) {
	if leadID == uuid.Nil {
		return
	}
	o.LeadID = &leadID
}

// Transition moves the order to the target status and returns the effects
// the caller must apply atomically. On error the order is left untouched.
func (o *Order) Transition(to OrderStatus, actorID uuid.UUID, now time.Time) (TransitionEffect, error) {
	if err := DecideTransition(o.Status, to); err != nil {
		return TransitionEffect{}, err
	}

	effect := TransitionEffect{From: o.Status, To: to}
	switch to {
	case OrderStatusShipped:
		o.ShippedAt = &now
	case OrderStatusDelivered:
		o.DeliveredAt = &now
	case OrderStatusReturned:
		effect.StockCredit = o.Quantity
	}

	o.Status = to
	o.UpdatedAt = now
	o.AddDomainEvent(NewOrderStatusChangedEvent(o, effect.From, actorID))

	return effect, nil
}

// AssignShipment records carrier data for a dispatched order.
// It is not a status write and is allowed only once the order has shipped.
func (o *Order) AssignShipment(provider, trackingNumber string, now time.Time) error {
	if o.Status != OrderStatusShipped && o.Status != OrderStatusDelivered {
		return shared.NewDomainError(shared.CodeInvalidTransition, "Shipment can only be assigned to a shipped order, current status is "+o.Status.String())
	}
	if strings.TrimSpace(trackingNumber) == "" {
		return shared.NewDomainError(shared.CodeValidationFailed, "Tracking number cannot be empty")
	}
	o.ShippingProvider = provider
	o.TrackingNumber = trackingNumber
	o.UpdatedAt = now
	o.AddDomainEvent(NewOrderShipmentAssignedEvent(o))
	return nil
}

// MarkInvoicePrinted flags the invoice as printed
func (o *Order) MarkInvoicePrinted(now time.Time) bool {
	if o.InvoicePrinted {
		return false
	}
	o.InvoicePrinted = true
	o.UpdatedAt = now
	return true
}
