package workspace

import (
	"context"
	"testing"

	"workspace-platform/internal/rbac"
	"workspace-platform/internal/store"

	"github.com/stretchr/testify/require"
)

func TestCreateSuperAdmin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	u, err := CreateSuperAdmin(ctx, e.store, e.hasher, SuperAdminRequest{
		Email:    "  Ops@Platform.TEST ",
		Password: testPassword,
		FullName: "Ops",
	})
	require.NoError(t, err)
	require.Equal(t, "ops@platform.test", u.Email)
	require.Equal(t, rbac.RoleSuperAdmin, u.Role)
	require.Empty(t, u.TenantID)
	require.NoError(t, e.hasher.Compare(u.PasswordHash, testPassword))

	_, err = CreateSuperAdmin(ctx, e.store, e.hasher, SuperAdminRequest{
		Email:    "ops@platform.test",
		Password: testPassword,
		FullName: "Ops again",
	})
	require.ErrorIs(t, err, store.ErrConflict)

	_, err = CreateSuperAdmin(ctx, e.store, e.hasher, SuperAdminRequest{
		Email:    "short@platform.test",
		Password: "too-short",
		FullName: "Short",
	})
	require.ErrorIs(t, err, ErrInvalidArgument)

	// The new operator can log in without a subdomain.
	sess, err := e.svc.Login(ctx, LoginRequest{Email: "ops@platform.test", Password: testPassword})
	require.NoError(t, err)
	require.Nil(t, sess.Tenant)
}
