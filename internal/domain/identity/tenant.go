package identity

import (
	"strings"

	"github.com/salesflow/backend/internal/domain/shared"
)

// TenantStatus represents the status of a tenant
type TenantStatus string

const (
	TenantStatusActive    TenantStatus = "active"
	TenantStatusInactive  TenantStatus = "inactive"
	TenantStatusSuspended TenantStatus = "suspended"
)

// Tenant is the identity boundary every other aggregate is scoped to
type Tenant struct {
	shared.BaseAggregateRoot
	Code   string
	Name   string
	Status TenantStatus
}

// NewTenant creates an active tenant
func NewTenant(code, name string) (*Tenant, error) {
	code = strings.TrimSpace(strings.ToLower(code))
	if code == "" {
		return nil, shared.NewDomainError(shared.CodeValidationFailed, "Tenant code cannot be empty")
	}
	if len(code) > 50 {
		return nil, shared.NewDomainError(shared.CodeValidationFailed, "Tenant code cannot exceed 50 characters")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError(shared.CodeValidationFailed, "Tenant name cannot be empty")
	}
	return &Tenant{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              code,
		Name:              name,
		Status:            TenantStatusActive,
	}, nil
}

// IsActive returns true when the tenant may run operations
func (t *Tenant) IsActive() bool {
	return t.Status == TenantStatusActive
}

// Deactivate blocks the tenant from further operations
func (t *Tenant) Deactivate() {
	t.Status = TenantStatusInactive
}
