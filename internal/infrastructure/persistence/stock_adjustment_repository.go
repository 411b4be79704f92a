package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/salesflow/backend/internal/domain/inventory"
	"github.com/salesflow/backend/internal/domain/shared"
	"github.com/salesflow/backend/internal/infrastructure/persistence/models"
	"github.com/salesflow/backend/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
)

// chronological is the ledger order; id breaks ties between equal timestamps
const chronological = "created_at ASC, id ASC"

// GormStockAdjustmentRepository implements the append-only stock ledger.
// It deliberately offers no update or delete.
type GormStockAdjustmentRepository struct {
	scope *tenant.Scope
}

// NewGormStockAdjustmentRepository creates a new GormStockAdjustmentRepository
func NewGormStockAdjustmentRepository(scope *tenant.Scope) *GormStockAdjustmentRepository {
	return &GormStockAdjustmentRepository{scope: scope}
}

func (r *GormStockAdjustmentRepository) db(ctx context.Context) *gorm.DB {
	return r.scope.DB().WithContext(ctx)
}

// Append inserts one ledger entry
func (r *GormStockAdjustmentRepository) Append(ctx context.Context, adjustment *inventory.StockAdjustment) error {
	return r.db(ctx).Create(models.StockAdjustmentModelFromDomain(adjustment)).Error
}

// ListByProduct returns a page of a product's ledger in chronological order
func (r *GormStockAdjustmentRepository) ListByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]inventory.StockAdjustment, int64, error) {
	query := r.db(ctx).Model(&models.StockAdjustmentModel{}).Where("product_id = ?", productID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.StockAdjustmentModel
	err := query.Order(chronological).
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return toAdjustments(rows), total, nil
}

// AllByProduct returns the full ledger of a product in chronological order
func (r *GormStockAdjustmentRepository) AllByProduct(ctx context.Context, productID uuid.UUID) ([]inventory.StockAdjustment, error) {
	var rows []models.StockAdjustmentModel
	err := r.db(ctx).
		Where("product_id = ?", productID).
		Order(chronological).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toAdjustments(rows), nil
}

// SumByProduct returns the sum of a product's ledger quantities
func (r *GormStockAdjustmentRepository) SumByProduct(ctx context.Context, productID uuid.UUID) (int64, error) {
	var sum int64
	err := r.db(ctx).
		Model(&models.StockAdjustmentModel{}).
		Select("COALESCE(SUM(quantity), 0)").
		Where("product_id = ?", productID).
		Scan(&sum).Error
	return sum, err
}

// SumsByProduct returns the ledger sum of every product that has entries
func (r *GormStockAdjustmentRepository) SumsByProduct(ctx context.Context) (map[uuid.UUID]int64, error) {
	var rows []struct {
		ProductID uuid.UUID
		Total     int64
	}
	err := r.db(ctx).
		Model(&models.StockAdjustmentModel{}).
		Select("product_id, COALESCE(SUM(quantity), 0) AS total").
		Group("product_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	sums := make(map[uuid.UUID]int64, len(rows))
	for _, row := range rows {
		sums[row.ProductID] = row.Total
	}
	return sums, nil
}

func toAdjustments(rows []models.StockAdjustmentModel) []inventory.StockAdjustment {
	out := make([]inventory.StockAdjustment, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

// Ensure GormStockAdjustmentRepository implements StockAdjustmentRepository
var _ inventory.StockAdjustmentRepository = (*GormStockAdjustmentRepository)(nil)
