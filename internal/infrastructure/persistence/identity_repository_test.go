package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thegridhub/backend/internal/domain/identity"
	"github.com/thegridhub/backend/internal/domain/shared"
)

func TestGormTenantRepository(t *testing.T) {
	repo := NewGormTenantRepository(newSQLiteDB(t))
	ctx := context.Background()

	tenant, err := identity.NewTenant("Ada@Example.com", "Ada")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, tenant))

	found, err := repo.FindByID(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", found.Email)
	assert.Equal(t, "FREE", found.Plan)

	found.SetPlan("pro")
	require.NoError(t, repo.Save(ctx, found))
	found, err = repo.FindByID(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, "PRO", found.Plan)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormAdminUserRepository(t *testing.T) {
	repo := NewGormAdminUserRepository(newSQLiteDB(t))
	ctx := context.Background()

	user, err := identity.NewAdminUser("ops@thegridhub.com", "correct horse battery", identity.AdminRoleOperator)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, user))

	found, err := repo.FindByEmail(ctx, " OPS@thegridhub.com ")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
	assert.Equal(t, identity.AdminRoleOperator, found.Role)
	assert.True(t, found.VerifyPassword("correct horse battery"))

	found.RecordLogin(time.Now().UTC())
	require.NoError(t, repo.Save(ctx, found))
	byID, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.NotNil(t, byID.LastLoginAt)

	_, err = repo.FindByEmail(ctx, "nobody@thegridhub.com")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
