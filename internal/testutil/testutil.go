// Package testutil provides common test utilities for the engine.
// It contains helpers for an in-memory engine database, tenant and product
// seeding, and recording doubles for the event publisher.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/salesflow/backend/internal/domain/catalog"
	"github.com/salesflow/backend/internal/domain/identity"
	"github.com/salesflow/backend/internal/infrastructure/persistence"
	"github.com/salesflow/backend/internal/infrastructure/persistence/models"
	"github.com/salesflow/backend/internal/infrastructure/persistence/tenant"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// TestDB is an engine database with the tenant guards installed
type TestDB struct {
	Database *persistence.Database
	Store    *tenant.Store
	Scope    *persistence.GormTransactionScope
}

// NewSQLiteDB opens a private in-memory SQLite database with the engine schema.
// The pool holds a single connection, so transactions run one at a time.
func NewSQLiteDB(t *testing.T) *TestDB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := persistence.Open(sqlite.Open(dsn), zap.NewNop(), gormlogger.Silent, 0)
	require.NoError(t, err, "Failed to open sqlite database")

	sqlDB, err := db.DB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.DB.AutoMigrate(
		&models.TenantModel{},
		&models.ProductModel{},
		&models.OrderModel{},
		&models.StockAdjustmentModel{},
	), "Failed to migrate sqlite schema")

	t.Cleanup(func() { _ = db.Close() })

	store := db.Store()
	return &TestDB{
		Database: db,
		Store:    store,
		Scope:    persistence.NewGormTransactionScope(store),
	}
}

// SeedTenant inserts an active tenant and returns it
func (d *TestDB) SeedTenant(t *testing.T, code string) *identity.Tenant {
	t.Helper()

	tn, err := identity.NewTenant(code, "Tenant "+code)
	require.NoError(t, err)
	require.NoError(t, d.Store.DB().Create(models.TenantModelFromDomain(tn)).Error)
	return tn
}

// SeedProduct inserts a product with the given opening stock
func (d *TestDB) SeedProduct(t *testing.T, tenantID uuid.UUID, code string, price string, initialStock int64) *catalog.Product {
	t.Helper()

	p, err := catalog.NewProduct(tenantID, code, "Product "+code, decimal.RequireFromString(price), initialStock)
	require.NoError(t, err)
	scope, err := d.Store.Scope(context.Background(), tenantID)
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormProductRepository(scope).Create(context.Background(), p))
	p.ClearDomainEvents()
	return p
}

// NewTestUUID generates a deterministic UUID for testing.
// Uses the provided seed string to create a reproducible UUID.
func NewTestUUID(seed string) uuid.UUID {
	namespace := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	return uuid.NewSHA1(namespace, []byte(seed))
}

// TestUserID returns a standard user ID for tests.
func TestUserID() uuid.UUID {
	return NewTestUUID("test-user")
}

// ContextWithTimeout creates a context with a timeout for tests.
func ContextWithTimeout(t *testing.T, timeout time.Duration) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx
}
