// Package quota enforces per-tenant ceilings on quota-bearing collections.
package quota

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"workspace-platform/internal/rbac"
	"workspace-platform/internal/tenancy"
	"workspace-platform/pkg/metrics"
)

var ErrUnknownDimension = errors.New("quota: unknown dimension")

// Reader is what a quota check reads: the tenant's limits and the current
// size of the collection.
type Reader interface {
	GetTenantLimits(ctx context.Context, tenantID string) (tenancy.Limits, error)
	CountByTenant(ctx context.Context, tenantID string, dim tenancy.Dimension) (int, error)
}

// Locker is a transaction that can serialize creates for one dimension.
type Locker interface {
	Reader
	LockQuota(ctx context.Context, tenantID string, dim tenancy.Dimension) error
}

type Enforcer struct {
	log     *slog.Logger
	metrics *metrics.Metrics
}

func NewEnforcer(log *slog.Logger, m *metrics.Metrics) *Enforcer {
	if log == nil {
		log = slog.Default()
	}
	return &Enforcer{log: log, metrics: m}
}

// CheckQuota allows a create when the current count is strictly below the
// limit. On its own it is advisory: two callers can both pass. Use Reserve
// inside the create transaction for an enforced check.
func (e *Enforcer) CheckQuota(ctx context.Context, r Reader, tenantID string, dim tenancy.Dimension) (rbac.Decision, error) {
	limits, err := r.GetTenantLimits(ctx, tenantID)
	if err != nil {
		return rbac.Decision{}, err
	}
	limit, ok := limits.Of(dim)
	if !ok {
		return rbac.Decision{}, fmt.Errorf("%w: %q", ErrUnknownDimension, dim)
	}
	count, err := r.CountByTenant(ctx, tenantID, dim)
	if err != nil {
		return rbac.Decision{}, err
	}
	if count < limit {
		return rbac.Allow, nil
	}

	e.log.Info("quota exceeded", "tenant_id", tenantID, "dimension", string(dim), "count", count, "limit", limit)
	e.metrics.QuotaDenied(string(dim))
	return rbac.Deny(rbac.ReasonQuotaExceeded), nil
}

// Reserve takes the (tenant, dimension) lock and then checks. The lock is
// held until tx ends, so the insert that follows an Allow cannot race
// another create for the same dimension.
func (e *Enforcer) Reserve(ctx context.Context, tx Locker, tenantID string, dim tenancy.Dimension) (rbac.Decision, error) {
	if err := tx.LockQuota(ctx, tenantID, dim); err != nil {
		return rbac.Decision{}, fmt.Errorf("quota lock: %w", err)
	}
	return e.CheckQuota(ctx, tx, tenantID, dim)
}
