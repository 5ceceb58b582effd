// Package memory is an in-process store backend for tests and local runs.
//
// Writes run against a private copy of the data set that is published only on
// commit, so a failed transaction leaves nothing behind. Write transactions
// are serialized, which also gives quota checks the same exclusion the
// Postgres advisory lock provides.
package memory

import (
	"context"
	"sync"

	"workspace-platform/internal/rbac"
	"workspace-platform/internal/store"
	"workspace-platform/internal/tenancy"
)

type Store struct {
	writeMu sync.Mutex

	mu sync.RWMutex
	st *state
}

var _ store.Store = (*Store)(nil)

func New() *Store { return &Store{st: newState()} }

// published states are never mutated, so readers may use one without holding mu.
func (s *Store) snapshot() *state {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st
}

func (s *Store) InTx(ctx context.Context, fn store.TxFunc) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	work := s.snapshot().clone()
	if err := fn(ctx, work); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.st = work
	s.mu.Unlock()
	return nil
}

func (s *Store) GetPrincipalByID(ctx context.Context, id string) (tenancy.PrincipalRecord, error) {
	return s.snapshot().GetPrincipalByID(ctx, id)
}

func (s *Store) LocateEntity(ctx context.Context, ref rbac.EntityRef) (rbac.Facts, error) {
	return s.snapshot().LocateEntity(ctx, ref)
}

func (s *Store) CountByTenant(ctx context.Context, tenantID string, dim tenancy.Dimension) (int, error) {
	return s.snapshot().CountByTenant(ctx, tenantID, dim)
}

func (s *Store) GetTenantLimits(ctx context.Context, tenantID string) (tenancy.Limits, error) {
	return s.snapshot().GetTenantLimits(ctx, tenantID)
}

func (s *Store) GetTenant(ctx context.Context, id string) (tenancy.Tenant, error) {
	return s.snapshot().GetTenant(ctx, id)
}

func (s *Store) GetTenantBySubdomain(ctx context.Context, subdomain string) (tenancy.Tenant, error) {
	return s.snapshot().GetTenantBySubdomain(ctx, subdomain)
}

func (s *Store) GetTenantStats(ctx context.Context, id string) (tenancy.TenantStats, error) {
	return s.snapshot().GetTenantStats(ctx, id)
}

func (s *Store) ListTenants(ctx context.Context, f store.TenantFilter) ([]tenancy.TenantSummary, int, error) {
	return s.snapshot().ListTenants(ctx, f)
}

func (s *Store) GetUser(ctx context.Context, id string) (tenancy.User, error) {
	return s.snapshot().GetUser(ctx, id)
}

func (s *Store) FindUserByEmail(ctx context.Context, tenantID, email string) (tenancy.User, error) {
	return s.snapshot().FindUserByEmail(ctx, tenantID, email)
}

func (s *Store) FindSuperAdminByEmail(ctx context.Context, email string) (tenancy.User, error) {
	return s.snapshot().FindSuperAdminByEmail(ctx, email)
}

func (s *Store) ListUsers(ctx context.Context, tenantID string, f store.UserFilter) ([]tenancy.User, int, error) {
	return s.snapshot().ListUsers(ctx, tenantID, f)
}

func (s *Store) GetProject(ctx context.Context, id string) (tenancy.ProjectSummary, error) {
	return s.snapshot().GetProject(ctx, id)
}

func (s *Store) ListProjects(ctx context.Context, tenantID string, f store.ProjectFilter) ([]tenancy.ProjectSummary, int, error) {
	return s.snapshot().ListProjects(ctx, tenantID, f)
}

func (s *Store) GetTask(ctx context.Context, id string) (tenancy.TaskView, error) {
	return s.snapshot().GetTask(ctx, id)
}

func (s *Store) ListTasks(ctx context.Context, projectID string, f store.TaskFilter) ([]tenancy.TaskView, int, error) {
	return s.snapshot().ListTasks(ctx, projectID, f)
}
