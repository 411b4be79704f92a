package event

import (
	"testing"

	"github.com/google/uuid"
	"github.com/salesflow/backend/internal/domain/catalog"
	"github.com/salesflow/backend/internal/domain/inventory"
	"github.com/salesflow/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrder(t *testing.T) *trade.Order {
	t.Helper()
	order, err := trade.NewOrder(uuid.New(), uuid.New(), 3, decimal.RequireFromString("19.99"), trade.Customer{
		Name:    "Amina",
		Phone:   "+212600000000",
		Address: "12 Rue Atlas",
		City:    "Rabat",
	})
	require.NoError(t, err)
	return order
}

func TestRegisterAllEvents(t *testing.T) {
	serializer := NewEventSerializer()
	RegisterAllEvents(serializer)

	assert.Equal(t, []string{
		inventory.EventTypeIntegrityViolationDetected,
		trade.EventTypeOrderCreated,
		trade.EventTypeOrderShipmentAssigned,
		trade.EventTypeOrderStatusChanged,
		catalog.EventTypeProductCreated,
		inventory.EventTypeStockAdjusted,
	}, serializer.RegisteredTypes())
}

func TestEventSerializer_RoundTrip(t *testing.T) {
	serializer := NewEventSerializer()
	RegisterAllEvents(serializer)

	order := newTestOrder(t)
	from := order.Status
	order.Status = trade.OrderStatusConfirmed
	original := trade.NewOrderStatusChangedEvent(order, from, uuid.New())

	data, err := serializer.Serialize(original)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"to":"CONFIRMED"`)

	decoded, err := serializer.Deserialize(trade.EventTypeOrderStatusChanged, data)
	require.NoError(t, err)

	evt, ok := decoded.(*trade.OrderStatusChangedEvent)
	require.True(t, ok)
	assert.Equal(t, original.EventID(), evt.EventID())
	assert.Equal(t, original.TenantID(), evt.TenantID())
	assert.Equal(t, order.ID, evt.AggregateID())
	assert.Equal(t, trade.OrderStatusPending, evt.From)
	assert.Equal(t, trade.OrderStatusConfirmed, evt.To)
	assert.Equal(t, original.ActorID, evt.ActorID)
	assert.Equal(t, int64(3), evt.Quantity)
}

func TestEventSerializer_Errors(t *testing.T) {
	serializer := NewEventSerializer()
	serializer.Register(trade.EventTypeOrderCreated, &trade.OrderCreatedEvent{})

	_, err := serializer.Deserialize("LeadConverted", []byte(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown event type")

	_, err = serializer.Deserialize(trade.EventTypeOrderCreated, []byte(`not json`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal OrderCreated")

	assert.True(t, serializer.IsRegistered(trade.EventTypeOrderCreated))
	assert.False(t, serializer.IsRegistered(trade.EventTypeOrderStatusChanged))
}
