package event

import (
	"github.com/salesflow/backend/internal/domain/catalog"
	"github.com/salesflow/backend/internal/domain/inventory"
	"github.com/salesflow/backend/internal/domain/trade"
)

// RegisterAllEvents registers every event the engine emits
func RegisterAllEvents(serializer *EventSerializer) {
	// Orders
	serializer.Register(trade.EventTypeOrderCreated, &trade.OrderCreatedEvent{})
	serializer.Register(trade.EventTypeOrderStatusChanged, &trade.OrderStatusChangedEvent{})
	serializer.Register(trade.EventTypeOrderShipmentAssigned, &trade.OrderShipmentAssignedEvent{})

	// Stock ledger
	serializer.Register(inventory.EventTypeStockAdjusted, &inventory.StockAdjustedEvent{})
	serializer.Register(inventory.EventTypeIntegrityViolationDetected, &inventory.IntegrityViolationDetectedEvent{})

	// Catalog
	serializer.Register(catalog.EventTypeProductCreated, &catalog.ProductCreatedEvent{})
}
