package trade

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/salesflow/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCustomer() Customer {
	return Customer{Name: "Amina", Phone: "+212600000000", Address: "12 Rue Atlas", City: "Rabat"}
}

func newTestOrder(t *testing.T, quantity int64) *Order {
	t.Helper()
	o, err := NewOrder(uuid.New(), uuid.New(), quantity, decimal.NewFromFloat(19.99).Mul(decimal.NewFromInt(quantity)), testCustomer())
	require.NoError(t, err)
	o.ClearDomainEvents()
	return o
}

func walk(t *testing.T, o *Order, statuses ...OrderStatus) {
	t.Helper()
	for _, s := range statuses {
		_, err := o.Transition(s, uuid.New(), time.Now().UTC())
		require.NoError(t, err)
	}
	o.ClearDomainEvents()
}

func TestNewOrder(t *testing.T) {
	t.Run("starts pending with fixed total", func(t *testing.T) {
		o, err := NewOrder(uuid.New(), uuid.New(), 3, decimal.RequireFromString("59.97"), testCustomer())
		require.NoError(t, err)
		assert.Equal(t, OrderStatusPending, o.Status)
		assert.True(t, decimal.NewFromFloat(59.97).Equal(o.Total))
		assert.False(t, o.InvoicePrinted)
		require.Len(t, o.GetDomainEvents(), 1)
		assert.Equal(t, EventTypeOrderCreated, o.GetDomainEvents()[0].EventType())
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		_, err := NewOrder(uuid.New(), uuid.New(), 0, decimal.NewFromInt(1), testCustomer())
		assert.Equal(t, shared.CodeValidationFailed, shared.ErrorCode(err))
	})

	t.Run("rejects negative total", func(t *testing.T) {
		_, err := NewOrder(uuid.New(), uuid.New(), 1, decimal.NewFromInt(-1), testCustomer())
		assert.Equal(t, shared.CodeValidationFailed, shared.ErrorCode(err))
	})

	t.Run("requires tenant", func(t *testing.T) {
		_, err := NewOrder(uuid.Nil, uuid.New(), 1, decimal.NewFromInt(1), testCustomer())
		assert.ErrorIs(t, err, shared.ErrTenantRequired)
	})

	t.Run("requires customer name", func(t *testing.T) {
		_, err := NewOrder(uuid.New(), uuid.New(), 1, decimal.NewFromInt(1), Customer{Phone: "1"})
		assert.Equal(t, shared.CodeValidationFailed, shared.ErrorCode(err))
	})
}

func TestOrder_TransitionSideEffects(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	actor := uuid.New()

	t.Run("shipped records shippedAt", func(t *testing.T) {
		o := newTestOrder(t, 2)
		walk(t, o, OrderStatusConfirmed)

		effect, err := o.Transition(OrderStatusShipped, actor, now)

		require.NoError(t, err)
		require.NotNil(t, o.ShippedAt)
		assert.Equal(t, now, *o.ShippedAt)
		assert.Zero(t, effect.StockCredit)
	})

	t.Run("delivered records deliveredAt", func(t *testing.T) {
		o := newTestOrder(t, 2)
		walk(t, o, OrderStatusConfirmed, OrderStatusShipped)

		_, err := o.Transition(OrderStatusDelivered, actor, now)

		require.NoError(t, err)
		require.NotNil(t, o.DeliveredAt)
		assert.Equal(t, now, *o.DeliveredAt)
	})

	t.Run("returned asks for stock credit of the order quantity", func(t *testing.T) {
		o := newTestOrder(t, 10)
		walk(t, o, OrderStatusConfirmed, OrderStatusShipped, OrderStatusDelivered)

		effect, err := o.Transition(OrderStatusReturned, actor, now)

		require.NoError(t, err)
		assert.Equal(t, int64(10), effect.StockCredit)
		assert.Equal(t, OrderStatusDelivered, effect.From)
		assert.Equal(t, OrderStatusReturned, effect.To)

		events := o.GetDomainEvents()
		require.Len(t, events, 1)
		changed, ok := events[0].(*OrderStatusChangedEvent)
		require.True(t, ok)
		assert.Equal(t, OrderStatusDelivered, changed.From)
		assert.Equal(t, OrderStatusReturned, changed.To)
		assert.Equal(t, actor, changed.ActorID)
	})
}

func TestOrder_RejectedTransitionLeavesOrderUntouched(t *testing.T) {
	cases := []struct {
		name string
		path []OrderStatus
		to   OrderStatus
	}{
		{name: "pending to shipped", to: OrderStatusShipped},
		{name: "delivered to confirmed", path: []OrderStatus{OrderStatusConfirmed, OrderStatusShipped, OrderStatusDelivered}, to: OrderStatusConfirmed},
		{name: "cancelled to pending", path: []OrderStatus{OrderStatusCancelled}, to: OrderStatusPending},
		{name: "cancelled to confirmed", path: []OrderStatus{OrderStatusCancelled}, to: OrderStatusConfirmed},
		{name: "shipped to cancelled", path: []OrderStatus{OrderStatusConfirmed, OrderStatusShipped}, to: OrderStatusCancelled},
		{name: "returned to delivered", path: []OrderStatus{OrderStatusConfirmed, OrderStatusShipped, OrderStatusDelivered, OrderStatusReturned}, to: OrderStatusDelivered},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			o := newTestOrder(t, 4)
			walk(t, o, tc.path...)
			before := *o

			_, err1 := o.Transition(tc.to, uuid.New(), time.Now())
			_, err2 := o.Transition(tc.to, uuid.New(), time.Now())

			require.Error(t, err1)
			assert.ErrorIs(t, err1, shared.ErrInvalidTransition)
			assert.Equal(t, err1.Error(), err2.Error(), "rejection must be deterministic")
			assert.Equal(t, before, *o)
			assert.Empty(t, o.GetDomainEvents())
		})
	}
}

func TestOrder_AssignShipment(t *testing.T) {
	now := time.Now().UTC()

	t.Run("requires shipped order", func(t *testing.T) {
		o := newTestOrder(t, 1)
		err := o.AssignShipment("manual", "MAN-1", now)
		assert.ErrorIs(t, err, shared.ErrInvalidTransition)
		assert.Empty(t, o.TrackingNumber)
	})

	t.Run("records carrier data", func(t *testing.T) {
		o := newTestOrder(t, 1)
		walk(t, o, OrderStatusConfirmed, OrderStatusShipped)

		require.NoError(t, o.AssignShipment("manual", "MAN-1", now))
		assert.Equal(t, "manual", o.ShippingProvider)
		assert.Equal(t, "MAN-1", o.TrackingNumber)
		assert.Equal(t, OrderStatusShipped, o.Status)
	})

	t.Run("rejects empty tracking number", func(t *testing.T) {
		o := newTestOrder(t, 1)
		walk(t, o, OrderStatusConfirmed, OrderStatusShipped)
		err := o.AssignShipment("manual", " ", now)
		assert.Equal(t, shared.CodeValidationFailed, shared.ErrorCode(err))
	})
}

func TestOrder_MarkInvoicePrinted(t *testing.T) {
	o := newTestOrder(t, 1)
	assert.True(t, o.MarkInvoicePrinted(time.Now()))
	assert.False(t, o.MarkInvoicePrinted(time.Now()))
	assert.True(t, o.InvoicePrinted)
}
