package catalog

import (
	"testing"

	"github.com/google/uuid"
	"github.com/salesflow/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProduct(t *testing.T, stock int64) *Product {
	t.Helper()
	p, err := NewProduct(uuid.New(), "sku-001", "Widget", decimal.NewFromFloat(12.5), stock)
	require.NoError(t, err)
	return p
}

func TestNewProduct(t *testing.T) {
	tenantID := uuid.New()

	t.Run("creates product with opening stock", func(t *testing.T) {
		p, err := NewProduct(tenantID, " sku-001 ", "Widget", decimal.NewFromFloat(12.5), 50)
		require.NoError(t, err)
		assert.Equal(t, "SKU-001", p.Code)
		assert.Equal(t, tenantID, p.TenantID)
		assert.Equal(t, int64(50), p.Stock)
		assert.Equal(t, int64(50), p.InitialStock)
		require.Len(t, p.GetDomainEvents(), 1)
		assert.Equal(t, EventTypeProductCreated, p.GetDomainEvents()[0].EventType())
	})

	t.Run("requires tenant", func(t *testing.T) {
		_, err := NewProduct(uuid.Nil, "SKU", "Widget", decimal.Zero, 0)
		assert.ErrorIs(t, err, shared.ErrTenantRequired)
	})

	t.Run("rejects bad code", func(t *testing.T) {
		_, err := NewProduct(tenantID, "bad code!", "Widget", decimal.Zero, 0)
		assert.Equal(t, shared.CodeValidationFailed, shared.ErrorCode(err))
	})

	t.Run("rejects negative price", func(t *testing.T) {
		_, err := NewProduct(tenantID, "SKU", "Widget", decimal.NewFromInt(-1), 0)
		assert.Equal(t, shared.CodeValidationFailed, shared.ErrorCode(err))
	})

	t.Run("rejects negative initial stock", func(t *testing.T) {
		_, err := NewProduct(tenantID, "SKU", "Widget", decimal.Zero, -1)
		assert.Equal(t, shared.CodeValidationFailed, shared.ErrorCode(err))
	})
}

func TestProduct_ApplyStockDelta(t *testing.T) {
	tests := []struct {
		name     string
		stock    int64
		delta    int64
		wantNext int64
		wantErr  bool
	}{
		{name: "restock", stock: 50, delta: 10, wantNext: 60},
		{name: "sale", stock: 50, delta: -20, wantNext: 30},
		{name: "drain to zero", stock: 3, delta: -3, wantNext: 0},
		{name: "negative result rejected", stock: 3, delta: -5, wantErr: true},
		{name: "zero delta rejected", stock: 3, delta: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProduct(t, tt.stock)

			prev, next, err := p.ApplyStockDelta(tt.delta)

			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, shared.ErrInvalidAdjustment)
				assert.Equal(t, tt.stock, p.Stock, "stock must be untouched on rejection")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.stock, prev)
			assert.Equal(t, tt.wantNext, next)
			assert.Equal(t, tt.wantNext, p.Stock)
		})
	}
}

func TestProduct_ResetStock(t *testing.T) {
	p := newTestProduct(t, 10)
	p.Stock = 7

	prev := p.ResetStock(12)

	assert.Equal(t, int64(7), prev)
	assert.Equal(t, int64(12), p.Stock)
}

func TestProduct_LineTotal(t *testing.T) {
	p := newTestProduct(t, 10)
	assert.True(t, decimal.NewFromInt(125).Equal(p.LineTotal(10)))
}
