package identity_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	appidentity "github.com/salesflow/backend/internal/application/identity"
	"github.com/salesflow/backend/internal/domain/shared"
	"github.com/salesflow/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestTenantService_ActiveTenant(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	svc := appidentity.NewTenantService(db.Scope, zap.NewNop())
	ctx := context.Background()

	acme := db.SeedTenant(t, "acme")

	got, err := svc.ActiveTenant(ctx, acme.ID)
	require.NoError(t, err)
	assert.Equal(t, "acme", got.Code)
	assert.Equal(t, "active", got.Status)

	_, err = svc.ActiveTenant(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = svc.ActiveTenant(ctx, uuid.Nil)
	assert.ErrorIs(t, err, shared.ErrTenantRequired)
}

func TestTenantService_Deactivate(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	svc := appidentity.NewTenantService(db.Scope, zap.NewNop())
	ctx := context.Background()

	acme := db.SeedTenant(t, "acme")
	globex := db.SeedTenant(t, "globex")

	out, err := svc.Deactivate(ctx, acme.ID)
	require.NoError(t, err)
	assert.Equal(t, "inactive", out.Status)

	_, err = svc.ActiveTenant(ctx, acme.ID)
	assert.ErrorIs(t, err, shared.ErrTenantInactive)

	again, err := svc.Deactivate(ctx, acme.ID)
	require.NoError(t, err)
	assert.Equal(t, "inactive", again.Status)

	_, err = svc.ActiveTenant(ctx, globex.ID)
	assert.NoError(t, err)
}
