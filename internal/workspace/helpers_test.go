package workspace

import (
	"context"
	"testing"
	"time"

	"workspace-platform/internal/audit"
	"workspace-platform/internal/auth"
	"workspace-platform/internal/config"
	"workspace-platform/internal/rbac"
	"workspace-platform/internal/store"
	"workspace-platform/internal/store/memory"
	"workspace-platform/internal/tenancy"
	"workspace-platform/pkg/logger"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "s3cret-passw0rd"

type env struct {
	svc     *Service
	store   store.Store
	mem     *memory.Store
	audit   *audit.MemoryRepo
	revoked *auth.MemoryRevocations
	hasher  auth.Hasher
}

func newEnvWithStore(t *testing.T, mem *memory.Store, st store.Store) *env {
	t.Helper()
	log := logger.Discard()
	tokens, err := auth.NewManager(config.AuthConfig{
		JWTSecret:       "test-secret",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
	})
	require.NoError(t, err)

	repo := audit.NewMemoryRepo()
	revoked := auth.NewMemoryRevocations()
	hasher := auth.Hasher{Cost: bcrypt.MinCost}
	svc, err := New(Deps{
		Store:       st,
		Tokens:      tokens,
		Resolver:    auth.NewResolver(tokens, st, revoked, log),
		Revocations: revoked,
		Hasher:      hasher,
		Audit:       audit.NewRecorder(repo, audit.WithLogger(log)),
		Logger:      log,
		Plans:       config.PlanConfig{DefaultMaxUsers: 5, DefaultMaxProjects: 3},
	})
	require.NoError(t, err)
	return &env{svc: svc, store: st, mem: mem, audit: repo, revoked: revoked, hasher: hasher}
}

func newEnv(t *testing.T) *env {
	t.Helper()
	mem := memory.New()
	return newEnvWithStore(t, mem, mem)
}

// tenantFixture is a registered tenant with its admin.
type tenantFixture struct {
	tenant tenancy.Tenant
	admin  rbac.Principal
}

func (e *env) register(t *testing.T, subdomain string) tenantFixture {
	t.Helper()
	reg, err := e.svc.RegisterTenant(context.Background(), RegisterTenantRequest{
		TenantName:    subdomain + " inc",
		Subdomain:     subdomain,
		AdminEmail:    "admin@" + subdomain + ".test",
		AdminPassword: testPassword,
		AdminFullName: "Admin " + subdomain,
	})
	require.NoError(t, err)
	return tenantFixture{tenant: reg.Tenant, admin: principalOf(reg.Admin)}
}

func (e *env) addUser(t *testing.T, f tenantFixture, email string) rbac.Principal {
	t.Helper()
	u, err := e.svc.AddUser(context.Background(), f.admin, f.tenant.ID, AddUserRequest{
		Email:    email,
		Password: testPassword,
		FullName: email,
	})
	require.NoError(t, err)
	return principalOf(u)
}

func (e *env) superAdmin(t *testing.T) rbac.Principal {
	t.Helper()
	u, err := CreateSuperAdmin(context.Background(), e.store, e.hasher, SuperAdminRequest{
		Email:    "root@platform.test",
		Password: testPassword,
		FullName: "Root",
	})
	require.NoError(t, err)
	return principalOf(u)
}

func (e *env) setLimits(t *testing.T, tenantID string, users, projects int) {
	t.Helper()
	require.NoError(t, e.mem.InTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		_, err := tx.UpdateTenant(ctx, tenantID, tenancy.TenantPatch{MaxUsers: &users, MaxProjects: &projects}, time.Now())
		return err
	}))
}

func requireDenied(t *testing.T, err error, r rbac.Reason) {
	t.Helper()
	got, ok := rbac.ReasonOf(err)
	require.True(t, ok, "expected denial %s, got %v", r, err)
	require.Equal(t, r, got)
}

func ptr[T any](v T) *T { return &v }
