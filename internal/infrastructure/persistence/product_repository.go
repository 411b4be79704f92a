package persistence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/salesflow/backend/internal/domain/catalog"
	"github.com/salesflow/backend/internal/domain/shared"
	"github.com/salesflow/backend/internal/infrastructure/persistence/models"
	"github.com/salesflow/backend/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
)

// GormProductRepository implements ProductRepository using GORM.
// It is bound to the tenant of its scope.
type GormProductRepository struct {
	scope *tenant.Scope
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(scope *tenant.Scope) *GormProductRepository {
	return &GormProductRepository{scope: scope}
}

func (r *GormProductRepository) db(ctx context.Context) *gorm.DB {
	return r.scope.DB().WithContext(ctx)
}

// FindByID finds a product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var model models.ProductModel
	if err := r.db(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "Product")
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate finds a product and locks its row until the transaction ends
func (r *GormProductRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var model models.ProductModel
	if err := r.scope.Locked().WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "Product")
	}
	return model.ToDomain(), nil
}

// FindAll returns a page of products and the total count
func (r *GormProductRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Product, int64, error) {
	query := r.db(ctx).Model(&models.ProductModel{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortField := ValidateSortField(filter.OrderBy, ProductSortFields, "created_at")
	sortOrder := ValidateSortOrder(filter.OrderDir)

	var rows []models.ProductModel
	err := query.
		Order(fmt.Sprintf("%s %s, id %s", sortField, sortOrder, sortOrder)).
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	products := make([]catalog.Product, len(rows))
	for i := range rows {
		products[i] = *rows[i].ToDomain()
	}
	return products, total, nil
}

// ExistsByCode checks if a product code is taken within the tenant
func (r *GormProductRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db(ctx).Model(&models.ProductModel{}).
		Where("code = ?", strings.ToUpper(code)).
		Count(&count).Error
	return count > 0, err
}

// Create inserts a new product
func (r *GormProductRepository) Create(ctx context.Context, product *catalog.Product) error {
	model := models.ProductModelFromDomain(product)
	if err := r.db(ctx).Create(model).Error; err != nil {
		return duplicate(err, fmt.Sprintf("Product with code %s already exists", product.Code))
	}
	return nil
}

// SaveStock writes the stock projection guarded by the product version
func (r *GormProductRepository) SaveStock(ctx context.Context, product *catalog.Product) error {
	now := time.Now().UTC()
	result := r.db(ctx).
		Model(&models.ProductModel{}).
		Where("id = ? AND version = ?", product.ID, product.Version).
		Updates(map[string]interface{}{
			"stock":      product.Stock,
			"version":    product.Version + 1,
			"updated_at": now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return staleVersion("Product")
	}
	product.Version++
	product.Touch(now)
	return nil
}

// Ensure GormProductRepository implements ProductRepository
var _ catalog.ProductRepository = (*GormProductRepository)(nil)
