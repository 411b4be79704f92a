package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/salesflow/backend/internal/domain/identity"
	"github.com/salesflow/backend/internal/domain/shared"
	"github.com/salesflow/backend/internal/infrastructure/persistence/models"
	"github.com/salesflow/backend/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
)

// GormTenantRepository reads and writes the bound tenant's own row
type GormTenantRepository struct {
	scope *tenant.Scope
}

// NewGormTenantRepository creates a new GormTenantRepository
func NewGormTenantRepository(scope *tenant.Scope) *GormTenantRepository {
	return &GormTenantRepository{scope: scope}
}

// FindByID returns the tenant row. Any ID other than the bound tenant is NOT_FOUND.
func (r *GormTenantRepository) FindByID(ctx context.Context, tenantID uuid.UUID) (*identity.Tenant, error) {
	if tenantID != r.scope.TenantID() {
		return nil, shared.NewDomainError(shared.CodeNotFound, "Tenant not found")
	}
	var model models.TenantModel
	if err := r.scope.Unscoped().WithContext(ctx).First(&model, "id = ?", tenantID).Error; err != nil {
		return nil, notFound(err, "Tenant")
	}
	return model.ToDomain(), nil
}

// Save inserts or updates the bound tenant's row
func (r *GormTenantRepository) Save(ctx context.Context, t *identity.Tenant) error {
	if t.ID != r.scope.TenantID() {
		return shared.NewDomainError(shared.CodeNotFound, "Tenant not found")
	}
	if err := r.scope.Unscoped().WithContext(ctx).Save(models.TenantModelFromDomain(t)).Error; err != nil {
		return duplicate(err, "Tenant with code "+t.Code+" already exists")
	}
	return nil
}

// Ensure GormTenantRepository implements TenantRepository
var _ identity.TenantRepository = (*GormTenantRepository)(nil)

// TenantDirectory lists tenants across the whole database. It is only used by
// background jobs that then open a tenant-bound scope per ID.
type TenantDirectory struct {
	db *gorm.DB
}

// NewTenantDirectory creates a new TenantDirectory
func NewTenantDirectory(db *gorm.DB) *TenantDirectory {
	return &TenantDirectory{db: db}
}

// ActiveTenantIDs returns the IDs of all active tenants, oldest first
func (d *TenantDirectory) ActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := d.db.WithContext(ctx).
		Model(&models.TenantModel{}).
		Where("status = ?", identity.TenantStatusActive).
		Order("created_at ASC").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
