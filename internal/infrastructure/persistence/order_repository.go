package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/salesflow/backend/internal/domain/trade"
	"github.com/salesflow/backend/internal/infrastructure/persistence/models"
	"github.com/salesflow/backend/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
)

// GormOrderRepository implements OrderRepository using GORM.
// It is bound to the tenant of its scope.
type GormOrderRepository struct {
	scope *tenant.Scope
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(scope *tenant.Scope) *GormOrderRepository {
	return &GormOrderRepository{scope: scope}
}

func (r *GormOrderRepository) db(ctx context.Context) *gorm.DB {
	return r.scope.DB().WithContext(ctx)
}

// FindByID finds an order by its ID
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Order, error) {
	var model models.OrderModel
	if err := r.db(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "Order")
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate finds an order and locks its row until the transaction ends
func (r *GormOrderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*trade.Order, error) {
	var model models.OrderModel
	if err := r.scope.Locked().WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "Order")
	}
	return model.ToDomain(), nil
}

// FindByTrackingNumber finds the order a carrier shipment belongs to
func (r *GormOrderRepository) FindByTrackingNumber(ctx context.Context, provider, trackingNumber string) (*trade.Order, error) {
	var model models.OrderModel
	err := r.db(ctx).
		Where("shipping_provider = ? AND tracking_number = ?", provider, trackingNumber).
		First(&model).Error
	if err != nil {
		return nil, notFound(err, "Order")
	}
	return model.ToDomain(), nil
}

// FindAll returns a page of orders and the total count
func (r *GormOrderRepository) FindAll(ctx context.Context, filter trade.OrderFilter) ([]trade.Order, int64, error) {
	query := r.db(ctx).Model(&models.OrderModel{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortField := ValidateSortField(filter.OrderBy, OrderSortFields, "created_at")
	sortOrder := ValidateSortOrder(filter.OrderDir)

	var rows []models.OrderModel
	err := query.
		Order(fmt.Sprintf("%s %s, id %s", sortField, sortOrder, sortOrder)).
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	orders := make([]trade.Order, len(rows))
	for i := range rows {
		orders[i] = *rows[i].ToDomain()
	}
	return orders, total, nil
}

// Create inserts a new order
func (r *GormOrderRepository) Create(ctx context.Context, order *trade.Order) error {
	return r.db(ctx).Create(models.OrderModelFromDomain(order)).Error
}

// Save writes the mutable order fields guarded by the order version
func (r *GormOrderRepository) Save(ctx context.Context, order *trade.Order) error {
	model := models.OrderModelFromDomain(order)
	updatedAt := order.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	result := r.db(ctx).
		Model(&models.OrderModel{}).
		Where("id = ? AND version = ?", order.ID, order.Version).
		Updates(map[string]interface{}{
			"status":            model.Status,
			"shipping_provider": model.ShippingProvider,
			"tracking_number":   model.TrackingNumber,
			"shipped_at":        model.ShippedAt,
			"delivered_at":      model.DeliveredAt,
			"invoice_printed":   model.InvoicePrinted,
			"version":           order.Version + 1,
			"updated_at":        updatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return staleVersion("Order")
	}
	order.Version++
	return nil
}

// Ensure GormOrderRepository implements OrderRepository
var _ trade.OrderRepository = (*GormOrderRepository)(nil)
