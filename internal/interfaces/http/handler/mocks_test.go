package handler

import (
	"context"

	"github.com/google/uuid"
	appinventory "github.com/salesflow/backend/internal/application/inventory"
	apptrade "github.com/salesflow/backend/internal/application/trade"
	"github.com/salesflow/backend/internal/domain/integration"
	"github.com/salesflow/backend/internal/domain/inventory"
	"github.com/salesflow/backend/internal/domain/shared"
	"github.com/salesflow/backend/internal/domain/trade"
	"github.com/stretchr/testify/mock"
)

// mockStockService implements StockLedgerService for testing
type mockStockService struct {
	mock.Mock
}

func (m *mockStockService) CreateProduct(ctx context.Context, tenantID, actorID uuid.UUID, req appinventory.CreateProductRequest) (*appinventory.ProductResponse, error) {
	args := m.Called(ctx, tenantID, actorID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appinventory.ProductResponse), args.Error(1)
}

func (m *mockStockService) GetProduct(ctx context.Context, tenantID, productID uuid.UUID) (*appinventory.ProductResponse, error) {
	args := m.Called(ctx, tenantID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appinventory.ProductResponse), args.Error(1)
}

func (m *mockStockService) AdjustStock(ctx context.Context, tenantID, productID uuid.UUID, delta int64, reason string, actorID uuid.UUID) (*appinventory.AdjustStockResponse, error) {
	args := m.Called(ctx, tenantID, productID, delta, reason, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appinventory.AdjustStockResponse), args.Error(1)
}

func (m *mockStockService) History(ctx context.Context, tenantID, productID uuid.UUID, filter appinventory.HistoryFilter) (*shared.Paginated[appinventory.StockAdjustmentResponse], error) {
	args := m.Called(ctx, tenantID, productID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[appinventory.StockAdjustmentResponse]), args.Error(1)
}

func (m *mockStockService) VerifyIntegrity(ctx context.Context, tenantID, productID uuid.UUID) (*inventory.IntegrityReport, error) {
	args := m.Called(ctx, tenantID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.IntegrityReport), args.Error(1)
}

func (m *mockStockService) VerifyTenant(ctx context.Context, tenantID uuid.UUID) (*appinventory.TenantIntegrityResponse, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appinventory.TenantIntegrityResponse), args.Error(1)
}

func (m *mockStockService) Reconcile(ctx context.Context, tenantID, productID, actorID uuid.UUID) (*appinventory.ReconcileResponse, error) {
	args := m.Called(ctx, tenantID, productID, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appinventory.ReconcileResponse), args.Error(1)
}

// mockOrderService implements OrderLifecycleService for testing
type mockOrderService struct {
	mock.Mock
}

func (m *mockOrderService) order(args mock.Arguments) (*apptrade.OrderResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apptrade.OrderResponse), args.Error(1)
}

func (m *mockOrderService) CreateOrder(ctx context.Context, tenantID, actorID uuid.UUID, req apptrade.CreateOrderRequest) (*apptrade.OrderResponse, error) {
	return m.order(m.Called(ctx, tenantID, actorID, req))
}

func (m *mockOrderService) GetOrder(ctx context.Context, tenantID, orderID uuid.UUID) (*apptrade.OrderResponse, error) {
	return m.order(m.Called(ctx, tenantID, orderID))
}

func (m *mockOrderService) ListOrders(ctx context.Context, tenantID uuid.UUID, filter apptrade.OrderListFilter) (*shared.Paginated[apptrade.OrderResponse], error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[apptrade.OrderResponse]), args.Error(1)
}

func (m *mockOrderService) Transition(ctx context.Context, tenantID, orderID uuid.UUID, status trade.OrderStatus, actorID uuid.UUID) (*apptrade.OrderResponse, error) {
	return m.order(m.Called(ctx, tenantID, orderID, status, actorID))
}

func (m *mockOrderService) ReturnOrder(ctx context.Context, tenantID, orderID, actorID uuid.UUID) (*apptrade.OrderResponse, error) {
	return m.order(m.Called(ctx, tenantID, orderID, actorID))
}

func (m *mockOrderService) BulkTransition(ctx context.Context, tenantID uuid.UUID, req apptrade.BulkTransitionRequest, actorID uuid.UUID) (*apptrade.BulkTransitionResponse, error) {
	args := m.Called(ctx, tenantID, req, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apptrade.BulkTransitionResponse), args.Error(1)
}

func (m *mockOrderService) ShipOrder(ctx context.Context, tenantID, orderID uuid.UUID, req apptrade.ShipOrderRequest, actorID uuid.UUID) (*apptrade.ShipOrderResponse, error) {
	args := m.Called(ctx, tenantID, orderID, req, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apptrade.ShipOrderResponse), args.Error(1)
}

func (m *mockOrderService) MarkInvoicePrinted(ctx context.Context, tenantID, orderID uuid.UUID) (*apptrade.OrderResponse, error) {
	return m.order(m.Called(ctx, tenantID, orderID))
}

func (m *mockOrderService) RefreshTracking(ctx context.Context, tenantID, orderID uuid.UUID) (*apptrade.TrackingIngestResponse, error) {
	args := m.Called(ctx, tenantID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apptrade.TrackingIngestResponse), args.Error(1)
}

func (m *mockOrderService) IngestTracking(ctx context.Context, tenantID uuid.UUID, providerCode string, req apptrade.TrackingWebhookRequest) (*apptrade.TrackingIngestResponse, error) {
	args := m.Called(ctx, tenantID, providerCode, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apptrade.TrackingIngestResponse), args.Error(1)
}

func (m *mockOrderService) GetRates(ctx context.Context, req apptrade.RatesRequest) ([]integration.Rate, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.Rate), args.Error(1)
}

// mockManualCarrier implements ManualCarrier for testing
type mockManualCarrier struct {
	mock.Mock
}

func (m *mockManualCarrier) SetStatus(tenantID uuid.UUID, trackingNumber string, status integration.TrackingStatus) error {
	return m.Called(tenantID, trackingNumber, status).Error(0)
}
