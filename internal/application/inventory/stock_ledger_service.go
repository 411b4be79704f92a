package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/salesflow/backend/internal/domain/catalog"
	"github.com/salesflow/backend/internal/domain/inventory"
	"github.com/salesflow/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// StockLedgerService handles product stock operations.
// Every stock change goes through the ledger; the product counter is only
// ever moved in the same transaction as its ledger entry.
type StockLedgerService struct {
	scope          TransactionScope
	ledger         *inventory.StockLedger
	eventPublisher shared.EventPublisher
	metrics        MetricsRecorder
	logger         *zap.Logger
}

// NewStockLedgerService creates a new StockLedgerService
func NewStockLedgerService(scope TransactionScope, ledger *inventory.StockLedger, logger *zap.Logger) *StockLedgerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockLedgerService{
		scope:   scope,
		ledger:  ledger,
		metrics: nopMetrics{},
		logger:  logger,
	}
}

// SetEventPublisher sets the event publisher used after commit
func (s *StockLedgerService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics sets the metrics recorder
func (s *StockLedgerService) SetMetrics(metrics MetricsRecorder) {
	if metrics != nil {
		s.metrics = metrics
	}
}

// CreateProduct creates a product with its opening stock.
// The opening stock is the ledger's starting point, not a ledger entry.
func (s *StockLedgerService) CreateProduct(ctx context.Context, tenantID, actorID uuid.UUID, req CreateProductRequest) (*ProductResponse, error) {
	product, err := catalog.NewProduct(tenantID, req.Code, req.Name, req.Price, req.InitialStock)
	if err != nil {
		return nil, err
	}
	product.SetCreatedBy(actorID)

	err = s.scope.Execute(ctx, tenantID, func(ctx context.Context, repos TransactionalRepositories) error {
		exists, err := repos.Products().ExistsByCode(ctx, product.Code)
		if err != nil {
			return err
		}
		if exists {
			return shared.NewDomainError(shared.CodeAlreadyExists, fmt.Sprintf("Product with code %s already exists", product.Code))
		}
		return repos.Products().Create(ctx, product)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, product.PullDomainEvents()...)

	resp := ToProductResponse(product)
	return &resp, nil
}

// GetProduct returns one product of the tenant
func (s *StockLedgerService) GetProduct(ctx context.Context, tenantID, productID uuid.UUID) (*ProductResponse, error) {
	repos, err := s.scope.Read(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	product, err := repos.Products().FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	resp := ToProductResponse(product)
	return &resp, nil
}

// AdjustStock records a manual stock movement.
// A delta that would make stock negative is rejected with INVALID_ADJUSTMENT
// and nothing is written.
func (s *StockLedgerService) AdjustStock(ctx context.Context, tenantID, productID uuid.UUID, delta int64, reason string, actorID uuid.UUID) (*AdjustStockResponse, error) {
	var (
		product    *catalog.Product
		adjustment *inventory.StockAdjustment
	)
	err := s.scope.Execute(ctx, tenantID, func(ctx context.Context, repos TransactionalRepositories) error {
		var err error
		product, adjustment, err = s.ledger.Record(ctx, repos, inventory.RecordRequest{
			ProductID: productID,
			Delta:     delta,
			Reason:    reason,
			ActorID:   actorID,
		})
		return err
	})
	if err != nil {
		s.logger.Info("stock adjustment rejected",
			zap.String("tenant_id", tenantID.String()),
			zap.String("product_id", productID.String()),
			zap.Int64("delta", delta),
			zap.Error(err),
		)
		return nil, err
	}

	s.metrics.RecordStockAdjustment(ctx, string(adjustment.Source), adjustment.Quantity)
	s.logger.Info("stock adjusted",
		zap.String("tenant_id", tenantID.String()),
		zap.String("product_id", productID.String()),
		zap.Int64("delta", adjustment.Quantity),
		zap.Int64("previous_stock", adjustment.PreviousStock),
		zap.Int64("new_stock", adjustment.NewStock),
	)
	s.publish(ctx, product.PullDomainEvents()...)

	return &AdjustStockResponse{
		Product:    ToProductResponse(product),
		Adjustment: ToStockAdjustmentResponse(adjustment),
	}, nil
}

// History returns the ledger of a product in chronological order
func (s *StockLedgerService) History(ctx context.Context, tenantID, productID uuid.UUID, filter HistoryFilter) (*shared.Paginated[StockAdjustmentResponse], error) {
	repos, err := s.scope.Read(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if _, err := repos.Products().FindByID(ctx, productID); err != nil {
		return nil, err
	}

	f := shared.Filter{Page: filter.Page, PageSize: filter.PageSize, OrderDir: "asc"}.Normalize()
	entries, total, err := repos.Adjustments().ListByProduct(ctx, productID, f)
	if err != nil {
		return nil, err
	}

	items := make([]StockAdjustmentResponse, len(entries))
	for i := range entries {
		items[i] = ToStockAdjustmentResponse(&entries[i])
	}
	page := shared.NewPaginated(items, total, f.Page, f.PageSize)
	return &page, nil
}

// VerifyIntegrity replays the ledger of one product against its projection.
// The product row is locked for the duration of the read so that a
// concurrent adjustment cannot produce a false alarm. A mismatch is returned
// as INTEGRITY_VIOLATION together with the report; it is never corrected here.
func (s *StockLedgerService) VerifyIntegrity(ctx context.Context, tenantID, productID uuid.UUID) (*inventory.IntegrityReport, error) {
	var report *inventory.IntegrityReport
	err := s.scope.Execute(ctx, tenantID, func(ctx context.Context, repos TransactionalRepositories) error {
		product, err := repos.Products().FindByIDForUpdate(ctx, productID)
		if err != nil {
			return err
		}
		entries, err := repos.Adjustments().AllByProduct(ctx, productID)
		if err != nil {
			return err
		}
		report = inventory.VerifyProjection(product, entries)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordIntegrityCheck(ctx, report.Consistent)
	if !report.Consistent {
		s.raiseIntegrityAlarm(ctx, tenantID, report)
		return report, report.Err()
	}
	return report, nil
}

// VerifyTenant sweeps every product of the tenant, one locked product at a time
func (s *StockLedgerService) VerifyTenant(ctx context.Context, tenantID uuid.UUID) (*TenantIntegrityResponse, error) {
	repos, err := s.scope.Read(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	// One aggregate screens the whole tenant; only suspects are re-read under
	// their row lock, where a concurrent write cannot skew the comparison.
	sums, err := repos.Adjustments().SumsByProduct(ctx)
	if err != nil {
		return nil, err
	}

	resp := &TenantIntegrityResponse{Violations: make([]inventory.IntegrityReport, 0), Consistent: true}
	filter := shared.Filter{Page: 1, PageSize: 100, OrderBy: "created_at", OrderDir: "asc"}
	for {
		products, total, err := repos.Products().FindAll(ctx, filter)
		if err != nil {
			return nil, err
		}
		for i := range products {
			report := inventory.VerifySum(&products[i], sums[products[i].ID])
			if !report.Consistent {
				if report, err = s.checkSum(ctx, tenantID, products[i].ID); err != nil {
					return nil, err
				}
			}
			resp.Checked++
			s.metrics.RecordIntegrityCheck(ctx, report.Consistent)
			if !report.Consistent {
				s.raiseIntegrityAlarm(ctx, tenantID, report)
				resp.Violations = append(resp.Violations, *report)
				resp.Consistent = false
			}
		}
		if int64(filter.Page*filter.PageSize) >= total || len(products) == 0 {
			break
		}
		filter.Page++
	}

	if !resp.Consistent {
		return resp, shared.NewDomainError(
			shared.CodeIntegrityViolation,
			fmt.Sprintf("Stock ledger mismatch for %d of %d products", len(resp.Violations), resp.Checked),
		)
	}
	return resp, nil
}

// Reconcile is the explicit operator repair: it rewrites the projection from
// the ledger. No ledger entry is written because the ledger is the truth.
func (s *StockLedgerService) Reconcile(ctx context.Context, tenantID, productID, actorID uuid.UUID) (*ReconcileResponse, error) {
	resp := &ReconcileResponse{}
	err := s.scope.Execute(ctx, tenantID, func(ctx context.Context, repos TransactionalRepositories) error {
		product, err := repos.Products().FindByIDForUpdate(ctx, productID)
		if err != nil {
			return err
		}
		sum, err := repos.Adjustments().SumByProduct(ctx, productID)
		if err != nil {
			return err
		}
		report := inventory.VerifySum(product, sum)
		resp.Report = *report
		resp.PreviousStock = product.Stock
		resp.NewStock = product.Stock
		if report.Consistent {
			return nil
		}
		resp.PreviousStock = product.ResetStock(report.ExpectedStock)
		resp.NewStock = product.Stock
		resp.Changed = true
		return repos.Products().SaveStock(ctx, product)
	})
	if err != nil {
		return nil, err
	}

	if resp.Changed {
		s.metrics.RecordReconciliation(ctx, resp.NewStock-resp.PreviousStock)
		s.logger.Warn("stock projection reconciled from ledger",
			zap.String("tenant_id", tenantID.String()),
			zap.String("product_id", productID.String()),
			zap.String("actor_id", actorID.String()),
			zap.Int64("previous_stock", resp.PreviousStock),
			zap.Int64("new_stock", resp.NewStock),
		)
	}
	return resp, nil
}

func (s *StockLedgerService) checkSum(ctx context.Context, tenantID, productID uuid.UUID) (*inventory.IntegrityReport, error) {
	var report *inventory.IntegrityReport
	err := s.scope.Execute(ctx, tenantID, func(ctx context.Context, repos TransactionalRepositories) error {
		product, err := repos.Products().FindByIDForUpdate(ctx, productID)
		if err != nil {
			return err
		}
		sum, err := repos.Adjustments().SumByProduct(ctx, productID)
		if err != nil {
			return err
		}
		report = inventory.VerifySum(product, sum)
		return nil
	})
	return report, err
}

func (s *StockLedgerService) raiseIntegrityAlarm(ctx context.Context, tenantID uuid.UUID, report *inventory.IntegrityReport) {
	fields := []zap.Field{
		zap.String("tenant_id", tenantID.String()),
		zap.String("product_id", report.ProductID.String()),
		zap.String("product_code", report.ProductCode),
		zap.Int64("initial_stock", report.InitialStock),
		zap.Int64("ledger_sum", report.LedgerSum),
		zap.Int64("expected_stock", report.ExpectedStock),
		zap.Int64("actual_stock", report.ActualStock),
		zap.String("detail", report.Detail),
	}
	if report.BrokenEntryID != nil {
		fields = append(fields, zap.String("broken_entry_id", report.BrokenEntryID.String()))
	}
	s.logger.Error("STOCK INTEGRITY VIOLATION: ledger does not explain product stock", fields...)
	s.publish(ctx, inventory.NewIntegrityViolationDetectedEvent(tenantID, report))
}

func (s *StockLedgerService) publish(ctx context.Context, events ...shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish domain events",
			zap.Int("count", len(events)),
			zap.Error(err),
		)
	}
}
