// Package store defines the persistence contract shared by the Postgres and
// in-memory backends.
//
// Tenancy invariant: every tenant-scoped read takes the tenant (or a parent
// entity that pins it) as an argument. Callers authorize first, then read.
package store

import (
	"context"
	"errors"
	"time"

	"workspace-platform/internal/rbac"
	"workspace-platform/internal/tenancy"
)

var (
	ErrNotFound = errors.New("store: not found")
	// ErrConflict is a uniqueness violation (subdomain, email within tenant).
	ErrConflict = errors.New("store: conflict")
	// ErrInvalidReference is a foreign key that points nowhere.
	ErrInvalidReference = errors.New("store: invalid reference")
)

// Reader is the read side, available both outside and inside transactions.
type Reader interface {
	GetPrincipalByID(ctx context.Context, id string) (tenancy.PrincipalRecord, error)
	LocateEntity(ctx context.Context, ref rbac.EntityRef) (rbac.Facts, error)
	CountByTenant(ctx context.Context, tenantID string, dim tenancy.Dimension) (int, error)
	GetTenantLimits(ctx context.Context, tenantID string) (tenancy.Limits, error)

	GetTenant(ctx context.Context, id string) (tenancy.Tenant, error)
	GetTenantBySubdomain(ctx context.Context, subdomain string) (tenancy.Tenant, error)
	GetTenantStats(ctx context.Context, id string) (tenancy.TenantStats, error)
	ListTenants(ctx context.Context, f TenantFilter) ([]tenancy.TenantSummary, int, error)

	GetUser(ctx context.Context, id string) (tenancy.User, error)
	FindUserByEmail(ctx context.Context, tenantID, email string) (tenancy.User, error)
	FindSuperAdminByEmail(ctx context.Context, email string) (tenancy.User, error)
	ListUsers(ctx context.Context, tenantID string, f UserFilter) ([]tenancy.User, int, error)

	GetProject(ctx context.Context, id string) (tenancy.ProjectSummary, error)
	ListProjects(ctx context.Context, tenantID string, f ProjectFilter) ([]tenancy.ProjectSummary, int, error)

	GetTask(ctx context.Context, id string) (tenancy.TaskView, error)
	ListTasks(ctx context.Context, projectID string, f TaskFilter) ([]tenancy.TaskView, int, error)
}

// Writer mutations exist only inside a transaction.
type Writer interface {
	// LockQuota serializes creates against one (tenant, dimension) pair until
	// the transaction ends.
	LockQuota(ctx context.Context, tenantID string, dim tenancy.Dimension) error

	InsertTenant(ctx context.Context, t tenancy.Tenant) error
	UpdateTenant(ctx context.Context, id string, p tenancy.TenantPatch, now time.Time) (tenancy.Tenant, error)

	InsertUser(ctx context.Context, u tenancy.User) error
	UpdateUser(ctx context.Context, id string, p tenancy.UserPatch, now time.Time) (tenancy.User, error)
	// DeleteUser nulls the user's creator and assignee references.
	DeleteUser(ctx context.Context, id string) error

	InsertProject(ctx context.Context, p tenancy.Project) error
	UpdateProject(ctx context.Context, id string, p tenancy.ProjectPatch, now time.Time) (tenancy.Project, error)
	// DeleteProject cascades to the project's tasks.
	DeleteProject(ctx context.Context, id string) error

	InsertTask(ctx context.Context, t tenancy.Task) error
	UpdateTask(ctx context.Context, id string, p tenancy.TaskPatch, now time.Time) (tenancy.Task, error)
	DeleteTask(ctx context.Context, id string) error
}

type Tx interface {
	Reader
	Writer
}

// TxFunc is the unit of work executed inside a transaction.
type TxFunc func(ctx context.Context, tx Tx) error

// Store is a backend. InTx commits when fn returns nil and rolls back
// otherwise; no partial effects are ever visible.
type Store interface {
	Reader
	InTx(ctx context.Context, fn TxFunc) error
}
