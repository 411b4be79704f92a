package models

import (
	"github.com/salesflow/backend/internal/domain/identity"
)

// TenantModel is the persistence model for the Tenant aggregate.
// The tenants table carries no tenant_id column; rows are addressed by id.
type TenantModel struct {
	AggregateModel
	Code   string                `gorm:"type:varchar(50);not null;uniqueIndex:idx_tenant_code"`
	Name   string                `gorm:"type:varchar(200);not null"`
	Status identity.TenantStatus `gorm:"type:varchar(20);not null;default:'active'"`
}

// TableName returns the table name for GORM
func (TenantModel) TableName() string {
	return "tenants"
}

// ToDomain converts the persistence model to a domain Tenant entity.
func (m *TenantModel) ToDomain() *identity.Tenant {
	t := &identity.Tenant{
		Code:   m.Code,
		Name:   m.Name,
		Status: m.Status,
	}
	m.PopulateAggregateRoot(&t.BaseAggregateRoot)
	return t
}

// FromDomain populates the persistence model from a domain Tenant entity.
func (m *TenantModel) FromDomain(t *identity.Tenant) {
	m.FromDomainAggregateRoot(t.BaseAggregateRoot)
	m.Code = t.Code
	m.Name = t.Name
	m.Status = t.Status
}

// TenantModelFromDomain creates a new persistence model from a domain Tenant entity.
func TenantModelFromDomain(t *identity.Tenant) *TenantModel {
	m := &TenantModel{}
	m.FromDomain(t)
	return m
}
