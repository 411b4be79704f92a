package inventory_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	appinventory "github.com/salesflow/backend/internal/application/inventory"
	"github.com/salesflow/backend/internal/domain/catalog"
	"github.com/salesflow/backend/internal/domain/inventory"
	"github.com/salesflow/backend/internal/domain/shared"
	"github.com/salesflow/backend/internal/infrastructure/persistence/models"
	"github.com/salesflow/backend/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type recordedAdjustment struct {
	source string
	delta  int64
}

type fakeMetrics struct {
	mu          sync.Mutex
	adjustments []recordedAdjustment
	checks      []bool
	drifts      []int64
}

func (m *fakeMetrics) RecordStockAdjustment(_ context.Context, source string, delta int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.adjustments = append(m.adjustments, recordedAdjustment{source: source, delta: delta})
}

func (m *fakeMetrics) RecordIntegrityCheck(_ context.Context, consistent bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checks = append(m.checks, consistent)
}

func (m *fakeMetrics) RecordReconciliation(_ context.Context, drift int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drifts = append(m.drifts, drift)
}

type ledgerFixture struct {
	db        *testutil.TestDB
	service   *appinventory.StockLedgerService
	publisher *testutil.RecordingPublisher
	metrics   *fakeMetrics
	logs      *observer.ObservedLogs
	tenantID  uuid.UUID
	actorID   uuid.UUID
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()

	db := testutil.NewSQLiteDB(t)
	core, logs := observer.New(zapcore.DebugLevel)

	// strictly increasing timestamps keep the ledger order deterministic
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var tick int64
	var mu sync.Mutex
	ledger := inventory.NewStockLedger().WithClock(func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	})

	service := appinventory.NewStockLedgerService(db.Scope, ledger, zap.New(core))
	publisher := testutil.NewRecordingPublisher()
	metrics := &fakeMetrics{}
	service.SetEventPublisher(publisher)
	service.SetMetrics(metrics)

	tn := db.SeedTenant(t, "acme")
	return &ledgerFixture{
		db:        db,
		service:   service,
		publisher: publisher,
		metrics:   metrics,
		logs:      logs,
		tenantID:  tn.ID,
		actorID:   testutil.TestUserID(),
	}
}

// corruptStock moves the projection without a ledger entry
func (f *ledgerFixture) corruptStock(t *testing.T, productID uuid.UUID, stock int64) {
	t.Helper()
	scope, err := f.db.Store.Scope(context.Background(), f.tenantID)
	require.NoError(t, err)
	require.NoError(t, scope.DB().Model(&models.ProductModel{}).Where("id = ?", productID).Update("stock", stock).Error)
}

func TestStockLedgerService_CreateProduct(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	resp, err := f.service.CreateProduct(ctx, f.tenantID, f.actorID, appinventory.CreateProductRequest{
		Code:         "sku-1",
		Name:         "Widget",
		Price:        decimal.RequireFromString("12.50"),
		InitialStock: 50,
	})
	require.NoError(t, err)
	assert.Equal(t, "SKU-1", resp.Code)
	assert.Equal(t, int64(50), resp.Stock)
	assert.Equal(t, int64(50), resp.InitialStock)
	assert.Equal(t, f.tenantID, resp.TenantID)
	assert.Len(t, f.publisher.EventsOfType(catalog.EventTypeProductCreated), 1)

	t.Run("duplicate code", func(t *testing.T) {
		_, err := f.service.CreateProduct(ctx, f.tenantID, f.actorID, appinventory.CreateProductRequest{
			Code: "SKU-1", Name: "Other", Price: decimal.NewFromInt(1),
		})
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})

	t.Run("same code in another tenant", func(t *testing.T) {
		other := f.db.SeedTenant(t, "globex")
		_, err := f.service.CreateProduct(ctx, other.ID, f.actorID, appinventory.CreateProductRequest{
			Code: "SKU-1", Name: "Widget", Price: decimal.NewFromInt(1),
		})
		assert.NoError(t, err)
	})

	t.Run("negative initial stock", func(t *testing.T) {
		_, err := f.service.CreateProduct(ctx, f.tenantID, f.actorID, appinventory.CreateProductRequest{
			Code: "SKU-2", Name: "Widget", Price: decimal.NewFromInt(1), InitialStock: -1,
		})
		assert.Equal(t, shared.CodeValidationFailed, shared.ErrorCode(err))
	})
}

func TestStockLedgerService_AdjustStock(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	product := f.db.SeedProduct(t, f.tenantID, "SKU-1", "10", 50)

	resp, err := f.service.AdjustStock(ctx, f.tenantID, product.ID, -7, "sold at counter", f.actorID)
	require.NoError(t, err)
	assert.Equal(t, int64(43), resp.Product.Stock)
	assert.Equal(t, int64(50), resp.Adjustment.PreviousStock)
	assert.Equal(t, int64(43), resp.Adjustment.NewStock)
	assert.Equal(t, int64(-7), resp.Adjustment.Quantity)
	assert.Equal(t, string(inventory.AdjustmentSourceManual), resp.Adjustment.Source)
	assert.Equal(t, "sold at counter", resp.Adjustment.Reason)
	assert.Equal(t, f.actorID, resp.Adjustment.AdjustedBy)

	resp, err = f.service.AdjustStock(ctx, f.tenantID, product.ID, 12, "", f.actorID)
	require.NoError(t, err)
	assert.Equal(t, int64(55), resp.Product.Stock)
	assert.Equal(t, inventory.DefaultAdjustmentReason, resp.Adjustment.Reason)

	events := f.publisher.EventsOfType(inventory.EventTypeStockAdjusted)
	assert.Len(t, events, 2)
	assert.Equal(t, []recordedAdjustment{{"MANUAL", -7}, {"MANUAL", 12}}, f.metrics.adjustments)

	report, err := f.service.VerifyIntegrity(ctx, f.tenantID, product.ID)
	require.NoError(t, err)
	assert.True(t, report.Consistent)
	assert.Equal(t, int64(5), report.LedgerSum)
	assert.Equal(t, int64(55), report.ActualStock)
	assert.Equal(t, 2, report.Entries)
}

func TestStockLedgerService_AdjustStock_Rejections(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	product := f.db.SeedProduct(t, f.tenantID, "SKU-1", "10", 3)

	t.Run("would drive stock negative", func(t *testing.T) {
		_, err := f.service.AdjustStock(ctx, f.tenantID, product.ID, -5, "damage", f.actorID)
		assert.ErrorIs(t, err, shared.ErrInvalidAdjustment)

		got, err := f.service.GetProduct(ctx, f.tenantID, product.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(3), got.Stock)
	})

	t.Run("zero delta", func(t *testing.T) {
		_, err := f.service.AdjustStock(ctx, f.tenantID, product.ID, 0, "noop", f.actorID)
		assert.ErrorIs(t, err, shared.ErrInvalidAdjustment)
	})

	t.Run("foreign tenant", func(t *testing.T) {
		other := f.db.SeedTenant(t, "globex")
		_, err := f.service.AdjustStock(ctx, other.ID, product.ID, 1, "restock", f.actorID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("missing tenant", func(t *testing.T) {
		_, err := f.service.AdjustStock(ctx, uuid.Nil, product.ID, 1, "restock", f.actorID)
		assert.ErrorIs(t, err, shared.ErrTenantRequired)
	})

	page, err := f.service.History(ctx, f.tenantID, product.ID, appinventory.HistoryFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), page.Total, "rejected adjustments must leave no ledger entry")
	assert.Empty(t, f.publisher.Events())
}

func TestStockLedgerService_ConcurrentAdjustments(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	product := f.db.SeedProduct(t, f.tenantID, "SKU-1", "10", 10)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.service.AdjustStock(ctx, f.tenantID, product.ID, -1, "sale", f.actorID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, rejected int
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, shared.ErrInvalidAdjustment)
		rejected++
	}
	assert.Equal(t, 10, ok)
	assert.Equal(t, 10, rejected)

	got, err := f.service.GetProduct(ctx, f.tenantID, product.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.Stock)

	_, err = f.service.VerifyIntegrity(ctx, f.tenantID, product.ID)
	assert.NoError(t, err)
}

func TestStockLedgerService_History(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	product := f.db.SeedProduct(t, f.tenantID, "SKU-1", "10", 0)

	for _, delta := range []int64{5, -2, 7} {
		_, err := f.service.AdjustStock(ctx, f.tenantID, product.ID, delta, "", f.actorID)
		require.NoError(t, err)
	}

	page, err := f.service.History(ctx, f.tenantID, product.ID, appinventory.HistoryFilter{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, int64(5), page.Items[0].Quantity)
	assert.Equal(t, int64(-2), page.Items[1].Quantity)
	assert.Equal(t, page.Items[0].NewStock, page.Items[1].PreviousStock)

	page, err = f.service.History(ctx, f.tenantID, product.ID, appinventory.HistoryFilter{Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, int64(10), page.Items[0].NewStock)

	_, err = f.service.History(ctx, f.tenantID, uuid.New(), appinventory.HistoryFilter{})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestStockLedgerService_IntegrityViolation(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	product := f.db.SeedProduct(t, f.tenantID, "SKU-1", "10", 50)

	_, err := f.service.AdjustStock(ctx, f.tenantID, product.ID, 5, "restock", f.actorID)
	require.NoError(t, err)
	f.corruptStock(t, product.ID, 70)

	report, err := f.service.VerifyIntegrity(ctx, f.tenantID, product.ID)
	assert.ErrorIs(t, err, shared.ErrIntegrityViolation)
	require.NotNil(t, report)
	assert.False(t, report.Consistent)
	assert.Equal(t, int64(55), report.ExpectedStock)
	assert.Equal(t, int64(70), report.ActualStock)

	alarms := f.logs.FilterLevelExact(zapcore.ErrorLevel).All()
	require.Len(t, alarms, 1)
	assert.True(t, strings.HasPrefix(alarms[0].Message, "STOCK INTEGRITY VIOLATION"))
	assert.Len(t, f.publisher.EventsOfType(inventory.EventTypeIntegrityViolationDetected), 1)
	assert.Equal(t, []bool{false}, f.metrics.checks)

	got, err := f.service.GetProduct(ctx, f.tenantID, product.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(70), got.Stock, "verification must never correct the projection")
}

func TestStockLedgerService_VerifyTenant(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	good := f.db.SeedProduct(t, f.tenantID, "SKU-1", "10", 5)
	bad := f.db.SeedProduct(t, f.tenantID, "SKU-2", "10", 5)

	_, err := f.service.AdjustStock(ctx, f.tenantID, good.ID, 3, "", f.actorID)
	require.NoError(t, err)

	resp, err := f.service.VerifyTenant(ctx, f.tenantID)
	require.NoError(t, err)
	assert.True(t, resp.Consistent)
	assert.Equal(t, 2, resp.Checked)

	f.corruptStock(t, bad.ID, 1)

	resp, err = f.service.VerifyTenant(ctx, f.tenantID)
	assert.ErrorIs(t, err, shared.ErrIntegrityViolation)
	require.NotNil(t, resp)
	assert.False(t, resp.Consistent)
	require.Len(t, resp.Violations, 1)
	assert.Equal(t, bad.ID, resp.Violations[0].ProductID)
}

func TestStockLedgerService_Reconcile(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	product := f.db.SeedProduct(t, f.tenantID, "SKU-1", "10", 20)

	_, err := f.service.AdjustStock(ctx, f.tenantID, product.ID, -4, "", f.actorID)
	require.NoError(t, err)

	t.Run("consistent product is left alone", func(t *testing.T) {
		resp, err := f.service.Reconcile(ctx, f.tenantID, product.ID, f.actorID)
		require.NoError(t, err)
		assert.False(t, resp.Changed)
		assert.Equal(t, int64(16), resp.NewStock)
	})

	t.Run("drifted projection is rewritten from the ledger", func(t *testing.T) {
		f.corruptStock(t, product.ID, 30)

		resp, err := f.service.Reconcile(ctx, f.tenantID, product.ID, f.actorID)
		require.NoError(t, err)
		assert.True(t, resp.Changed)
		assert.Equal(t, int64(30), resp.PreviousStock)
		assert.Equal(t, int64(16), resp.NewStock)
		assert.Equal(t, []int64{-14}, f.metrics.drifts)

		page, err := f.service.History(ctx, f.tenantID, product.ID, appinventory.HistoryFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(1), page.Total, "reconciliation writes no ledger entry")

		_, err = f.service.VerifyIntegrity(ctx, f.tenantID, product.ID)
		assert.NoError(t, err)
	})
}
