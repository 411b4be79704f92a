package persistence

import (
	"context"

	"github.com/google/uuid"
	appinv "github.com/salesflow/backend/internal/application/inventory"
	"github.com/salesflow/backend/internal/domain/catalog"
	"github.com/salesflow/backend/internal/domain/identity"
	"github.com/salesflow/backend/internal/domain/inventory"
	"github.com/salesflow/backend/internal/domain/trade"
	"github.com/salesflow/backend/internal/infrastructure/persistence/tenant"
)

// GormTransactionScope implements TransactionScope on top of the tenant store.
// It provides atomic execution of multiple repository operations.
type GormTransactionScope struct {
	store *tenant.Store
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(store *tenant.Store) *GormTransactionScope {
	return &GormTransactionScope{store: store}
}

// Execute runs the given function within a database transaction bound to tenantID.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, tenantID uuid.UUID, fn func(ctx context.Context, repos appinv.TransactionalRepositories) error) error {
	return s.store.Transaction(ctx, tenantID, func(ctx context.Context, scope *tenant.Scope) error {
		return fn(ctx, &gormTransactionalRepositories{scope: scope})
	})
}

// Read returns repositories bound to tenantID outside of a transaction
func (s *GormTransactionScope) Read(ctx context.Context, tenantID uuid.UUID) (appinv.TransactionalRepositories, error) {
	scope, err := s.store.Scope(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return &gormTransactionalRepositories{scope: scope}, nil
}

// gormTransactionalRepositories provides access to all repositories of one scope.
type gormTransactionalRepositories struct {
	scope *tenant.Scope
}

// TenantID returns the tenant every repository is bound to
func (r *gormTransactionalRepositories) TenantID() uuid.UUID {
	return r.scope.TenantID()
}

// Tenants returns the tenant repository
func (r *gormTransactionalRepositories) Tenants() identity.TenantRepository {
	return NewGormTenantRepository(r.scope)
}

// Products returns the product repository
func (r *gormTransactionalRepositories) Products() catalog.ProductRepository {
	return NewGormProductRepository(r.scope)
}

// Adjustments returns the stock ledger repository
func (r *gormTransactionalRepositories) Adjustments() inventory.StockAdjustmentRepository {
	return NewGormStockAdjustmentRepository(r.scope)
}

// Orders returns the order repository
func (r *gormTransactionalRepositories) Orders() trade.OrderRepository {
	return NewGormOrderRepository(r.scope)
}

// Ensure GormTransactionScope implements TransactionScope
var _ appinv.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ appinv.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
