// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Key Principles:
// 1. Domain entities are free of GORM tags and infrastructure concerns
// 2. Persistence models contain all GORM annotations and table mappings
// 3. Mappers convert between domain entities and persistence models
// 4. Every tenant-scoped model carries tenant_id and is only reachable through a tenant.Scope
//
// Structure:
// - base.go: Base persistence models (AggregateModel, TenantAggregateModel)
// - identity.go: Tenant
// - catalog.go: Product with its stock projection
// - inventory.go: StockAdjustment, the append-only stock ledger
// - trade.go: Order
package models
