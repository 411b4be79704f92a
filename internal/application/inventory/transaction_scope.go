package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/salesflow/backend/internal/domain/catalog"
	"github.com/salesflow/backend/internal/domain/identity"
	"github.com/salesflow/backend/internal/domain/inventory"
	"github.com/salesflow/backend/internal/domain/trade"
)

// TransactionScope provides tenant-bound access to repositories.
// The tenant is an explicit argument of every call; there is no way to obtain
// repositories without one.
type TransactionScope interface {
	// Execute runs fn within one database transaction bound to tenantID.
	// If fn returns an error, the transaction is rolled back and nothing fn
	// wrote becomes visible.
	Execute(ctx context.Context, tenantID uuid.UUID, fn func(ctx context.Context, repos TransactionalRepositories) error) error
	// Read returns repositories bound to tenantID for reads outside a transaction
	Read(ctx context.Context, tenantID uuid.UUID) (TransactionalRepositories, error)
}

// TransactionalRepositories provides access to all repositories of one unit of work.
// All repositories returned share the same tenant and, inside Execute, the same
// database transaction.
type TransactionalRepositories interface {
	TenantID() uuid.UUID
	Tenants() identity.TenantRepository
	Products() catalog.ProductRepository
	Adjustments() inventory.StockAdjustmentRepository
	Orders() trade.OrderRepository
}

// The repositories double as the ledger's store
var _ inventory.LedgerStore = (TransactionalRepositories)(nil)
