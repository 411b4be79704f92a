package scheduler_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	appinventory "github.com/salesflow/backend/internal/application/inventory"
	"github.com/salesflow/backend/internal/domain/inventory"
	"github.com/salesflow/backend/internal/infrastructure/persistence"
	"github.com/salesflow/backend/internal/infrastructure/persistence/models"
	"github.com/salesflow/backend/internal/infrastructure/scheduler"
	"github.com/salesflow/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// recordingVerifier keeps the last sweep result per tenant
type recordingVerifier struct {
	next scheduler.TenantVerifier

	mu      sync.Mutex
	results map[uuid.UUID]*appinventory.TenantIntegrityResponse
}

func (v *recordingVerifier) VerifyTenant(ctx context.Context, tenantID uuid.UUID) (*appinventory.TenantIntegrityResponse, error) {
	resp, err := v.next.VerifyTenant(ctx, tenantID)
	v.mu.Lock()
	v.results[tenantID] = resp
	v.mu.Unlock()
	return resp, err
}

func (v *recordingVerifier) result(tenantID uuid.UUID) *appinventory.TenantIntegrityResponse {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.results[tenantID]
}

func TestIntegritySweep_DetectsDriftPerTenant(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()

	acme := db.SeedTenant(t, "acme")
	globex := db.SeedTenant(t, "globex")
	db.SeedProduct(t, acme.ID, "SKU-1", "10", 5)
	drifted := db.SeedProduct(t, globex.ID, "SKU-1", "10", 5)

	scope, err := db.Store.Scope(ctx, globex.ID)
	require.NoError(t, err)
	require.NoError(t, scope.DB().Model(&models.ProductModel{}).
		Where("id = ?", drifted.ID).Update("stock", 9).Error)

	verifier := &recordingVerifier{
		next:    appinventory.NewStockLedgerService(db.Scope, inventory.NewStockLedger(), zap.NewNop()),
		results: make(map[uuid.UUID]*appinventory.TenantIntegrityResponse),
	}

	cfg := scheduler.DefaultSchedulerConfig()
	cfg.MaxConcurrentJobs = 1
	sched, err := scheduler.NewScheduler(cfg, scheduler.NewIntegrityExecutor(verifier, zap.NewNop()), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, sched.Start(ctx))
	defer func() { _ = sched.Stop(context.Background()) }()

	trigger := scheduler.NewIntervalTrigger(time.Hour, sched, persistence.NewTenantDirectory(db.Database.DB), zap.NewNop())
	queued, err := trigger.RunNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, queued)

	require.Eventually(t, func() bool {
		return verifier.result(acme.ID) != nil && verifier.result(globex.ID) != nil
	}, 2*time.Second, 10*time.Millisecond)

	assert.True(t, verifier.result(acme.ID).Consistent)

	bad := verifier.result(globex.ID)
	assert.False(t, bad.Consistent)
	require.Len(t, bad.Violations, 1)
	assert.Equal(t, drifted.ID, bad.Violations[0].ProductID)
	assert.Equal(t, int64(9), bad.Violations[0].ActualStock)
}
