package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
	appinventory "github.com/salesflow/backend/internal/application/inventory"
	"github.com/salesflow/backend/internal/domain/identity"
	"github.com/salesflow/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// TenantService answers tenant questions for the request boundary
type TenantService struct {
	scope  appinventory.TransactionScope
	logger *zap.Logger
}

// NewTenantService creates a new tenant service
func NewTenantService(scope appinventory.TransactionScope, logger *zap.Logger) *TenantService {
	return &TenantService{
		scope:  scope,
		logger: logger,
	}
}

// TenantDTO represents tenant data transfer object
type TenantDTO struct {
	ID        uuid.UUID `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// ActiveTenant returns the tenant when it exists and is active.
// An unknown tenant is NOT_FOUND, a known but inactive one TENANT_INACTIVE.
func (s *TenantService) ActiveTenant(ctx context.Context, tenantID uuid.UUID) (*TenantDTO, error) {
	repos, err := s.scope.Read(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	t, err := repos.Tenants().FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if !t.IsActive() {
		s.logger.Info("request for inactive tenant rejected",
			zap.String("tenant_id", tenantID.String()),
			zap.String("status", string(t.Status)),
		)
		return nil, shared.ErrTenantInactive
	}
	return toTenantDTO(t), nil
}

// Deactivate blocks the tenant from further operations. It is idempotent.
func (s *TenantService) Deactivate(ctx context.Context, tenantID uuid.UUID) (*TenantDTO, error) {
	var t *identity.Tenant
	err := s.scope.Execute(ctx, tenantID, func(ctx context.Context, repos appinventory.TransactionalRepositories) error {
		var err error
		t, err = repos.Tenants().FindByID(ctx, tenantID)
		if err != nil {
			return err
		}
		if !t.IsActive() {
			return nil
		}
		t.Deactivate()
		return repos.Tenants().Save(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("tenant deactivated", zap.String("tenant_id", tenantID.String()))
	return toTenantDTO(t), nil
}

func toTenantDTO(t *identity.Tenant) *TenantDTO {
	return &TenantDTO{
		ID:        t.ID,
		Code:      t.Code,
		Name:      t.Name,
		Status:    string(t.Status),
		CreatedAt: t.CreatedAt,
	}
}
