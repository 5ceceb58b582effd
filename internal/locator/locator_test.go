package locator

import (
	"context"
	"testing"

	"workspace-platform/internal/rbac"
	"workspace-platform/internal/store"
	"workspace-platform/internal/store/memory"
	"workspace-platform/internal/tenancy"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T) (*memory.Store, string, string, string) {
	t.Helper()
	s := memory.New()
	tenantA, tenantB, userB := uuid.NewString(), uuid.NewString(), uuid.NewString()

	err := s.InTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		if err := tx.InsertTenant(ctx, tenancy.Tenant{ID: tenantA, Subdomain: "a"}); err != nil {
			return err
		}
		if err := tx.InsertTenant(ctx, tenancy.Tenant{ID: tenantB, Subdomain: "b"}); err != nil {
			return err
		}
		return tx.InsertUser(ctx, tenancy.User{ID: userB, TenantID: tenantB, Email: "b@b.test", Role: rbac.RoleUser})
	})
	require.NoError(t, err)
	return s, tenantA, tenantB, userB
}

func TestLocate(t *testing.T) {
	s, tenantA, _, _ := seed(t)
	l := New(s)

	facts, err := l.Locate(context.Background(), rbac.Ref(rbac.EntityTenant, tenantA))
	require.NoError(t, err)
	require.Equal(t, tenantA, facts.TenantID)

	_, err = l.Locate(context.Background(), rbac.Ref(rbac.EntityProject, uuid.NewString()))
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = l.Locate(context.Background(), rbac.Ref(rbac.EntityProject, "not-a-uuid"))
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = l.Locate(context.Background(), rbac.Ref("widget", uuid.NewString()))
	require.Error(t, err)
}

func TestRequireSameTenant(t *testing.T) {
	s, tenantA, tenantB, userB := seed(t)
	l := New(s)
	ctx := context.Background()

	require.NoError(t, l.RequireSameTenant(ctx, rbac.Ref(rbac.EntityUser, userB), tenantB))
	require.ErrorIs(t, l.RequireSameTenant(ctx, rbac.Ref(rbac.EntityUser, userB), tenantA), ErrInvalidReference)
	require.ErrorIs(t, l.RequireSameTenant(ctx, rbac.Ref(rbac.EntityUser, uuid.NewString()), tenantA), ErrInvalidReference)
}
