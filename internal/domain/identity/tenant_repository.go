package identity

import (
	"context"

	"github.com/google/uuid"
)

// TenantRepository reads tenant records.
// A tenant can only ever read its own row.
type TenantRepository interface {
	FindByID(ctx context.Context, tenantID uuid.UUID) (*Tenant, error)
	Save(ctx context.Context, tenant *Tenant) error
}
