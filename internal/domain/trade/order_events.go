package trade

import (
	"github.com/google/uuid"
	"github.com/salesflow/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeOrder = "Order"

// Event type constants
const (
	EventTypeOrderCreated          = "OrderCreated"
	EventTypeOrderStatusChanged    = "OrderStatusChanged"
	EventTypeOrderShipmentAssigned = "OrderShipmentAssigned"
)

// OrderCreatedEvent is published when an order is recorded
type OrderCreatedEvent struct {
	shared.BaseDomainEvent
	OrderID   uuid.UUID       `json:"order_id"`
	ProductID uuid.UUID       `json:"product_id"`
	LeadID    *uuid.UUID      `json:"lead_id,omitempty"`
	Quantity  int64           `json:"quantity"`
	Total     decimal.Decimal `json:"total"`
}

// NewOrderCreatedEvent creates a new OrderCreatedEvent
func NewOrderCreatedEvent(o *Order) *OrderCreatedEvent {
	return &OrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCreated, AggregateTypeOrder, o.ID, o.TenantID),
		OrderID:         o.ID,
		ProductID:       o.ProductID,
		LeadID:          o.LeadID,
		Quantity:        o.Quantity,
		Total:           o.Total,
	}
}

// OrderStatusChangedEvent is published for every committed transition
type OrderStatusChangedEvent struct {
	shared.BaseDomainEvent
	OrderID   uuid.UUID   `json:"order_id"`
	ProductID uuid.UUID   `json:"product_id"`
	From      OrderStatus `json:"from"`
	To        OrderStatus `json:"to"`
	Quantity  int64       `json:"quantity"`
	ActorID   uuid.UUID   `json:"actor_id"`
}

// NewOrderStatusChangedEvent creates a new OrderStatusChangedEvent
func NewOrderStatusChangedEvent(o *Order, from OrderStatus, actorID uuid.UUID) *OrderStatusChangedEvent {
	return &OrderStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderStatusChanged, AggregateTypeOrder, o.ID, o.TenantID),
		OrderID:         o.ID,
		ProductID:       o.ProductID,
		From:            from,
		To:              o.Status,
		Quantity:        o.Quantity,
		ActorID:         actorID,
	}
}

// OrderShipmentAssignedEvent is published when carrier tracking data is recorded
type OrderShipmentAssignedEvent struct {
	shared.BaseDomainEvent
	OrderID          uuid.UUID `json:"order_id"`
	ShippingProvider string    `json:"shipping_provider"`
	TrackingNumber   string    `json:"tracking_number"`
}

// NewOrderShipmentAssignedEvent creates a new OrderShipmentAssignedEvent
func NewOrderShipmentAssignedEvent(o *Order) *OrderShipmentAssignedEvent {
	return &OrderShipmentAssignedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeOrderShipmentAssigned, AggregateTypeOrder, o.ID, o.TenantID),
		OrderID:          o.ID,
		ShippingProvider: o.ShippingProvider,
		TrackingNumber:   o.TrackingNumber,
	}
}
