// Package workspace is the request pipeline for tenants, users, projects and
// tasks. Every operation runs the same steps: locate the target, authorize,
// reserve quota for creates inside the write transaction, commit, then audit.
package workspace

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"workspace-platform/internal/audit"
	"workspace-platform/internal/auth"
	"workspace-platform/internal/config"
	"workspace-platform/internal/locator"
	"workspace-platform/internal/quota"
	"workspace-platform/internal/rbac"
	"workspace-platform/internal/store"
	"workspace-platform/internal/tenancy"
	"workspace-platform/pkg/logger"
	"workspace-platform/pkg/metrics"

	"github.com/google/uuid"
)

var (
	ErrInvalidArgument = errors.New("workspace: invalid argument")
	// ErrInvalidReference is a write that points at an entity outside the
	// caller's tenant, such as a foreign assignee.
	ErrInvalidReference = locator.ErrInvalidReference
	ErrNothingToUpdate  = errors.New("workspace: no fields to update")
)

type Deps struct {
	Store       store.Store
	Tokens      *auth.Manager
	Resolver    *auth.Resolver
	Revocations auth.RevocationStore
	Hasher      auth.Hasher
	Quota       *quota.Enforcer
	Audit       *audit.Recorder
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
	Plans       config.PlanConfig
	Clock       func() time.Time
}

type Service struct {
	store    store.Store
	tokens   *auth.Manager
	resolver *auth.Resolver
	revoked  auth.RevocationStore
	hasher   auth.Hasher
	quota    *quota.Enforcer
	audit    *audit.Recorder
	metrics  *metrics.Metrics
	log      *slog.Logger
	plans    config.PlanConfig
	now      func() time.Time
}

func New(d Deps) (*Service, error) {
	switch {
	case d.Store == nil:
		return nil, errors.New("workspace: store is required")
	case d.Tokens == nil || d.Resolver == nil || d.Revocations == nil:
		return nil, errors.New("workspace: token manager, resolver and revocation store are required")
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Quota == nil {
		d.Quota = quota.NewEnforcer(d.Logger, d.Metrics)
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	if d.Hasher.Cost == 0 {
		d.Hasher = auth.NewHasher()
	}
	return &Service{
		store:    d.Store,
		tokens:   d.Tokens,
		resolver: d.Resolver,
		revoked:  d.Revocations,
		hasher:   d.Hasher,
		quota:    d.Quota,
		audit:    d.Audit,
		metrics:  d.Metrics,
		log:      d.Logger,
		plans:    d.Plans,
		now:      d.Clock,
	}, nil
}

// List is one page of a listing.
type List[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"total_pages"`
}

func newList[T any](items []T, total int, p store.Page) List[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if p.Size > 0 {
		pages = (total + p.Size - 1) / p.Size
	}
	return List[T]{Items: items, Total: total, Page: p.Number, Limit: p.Size, TotalPages: pages}
}

/* ===================== PIPELINE ===================== */

func (s *Service) timestamp() time.Time { return s.now().UTC() }

func newID() string { return uuid.NewString() }

// authorize runs the engine and reports the decision.
func (s *Service) authorize(ctx context.Context, p rbac.Principal, action rbac.Action, facts rbac.Facts, fields rbac.FieldSet) error {
	d := rbac.Authorize(p, action, facts, fields)
	s.metrics.ObserveDecision(string(p.Role), string(action), d.Outcome())
	if d.Allowed {
		return nil
	}
	logger.From(ctx, s.log).Debug("authorization denied",
		"user_id", p.ID,
		"role", string(p.Role),
		"action", string(action),
		"entity_id", facts.ID,
		"reason", string(d.Reason),
	)
	return d.Err()
}

// locateAndAuthorize resolves ref through r and authorizes action on it. r is
// either the store or the open transaction, so writes see the facts they lock
// in.
func (s *Service) locateAndAuthorize(ctx context.Context, r locator.Reader, p rbac.Principal, action rbac.Action, ref rbac.EntityRef, fields rbac.FieldSet) (rbac.Facts, error) {
	facts, err := locator.New(r).Locate(ctx, ref)
	if err != nil {
		return rbac.Facts{}, err
	}
	if err := s.authorize(ctx, p, action, facts, fields); err != nil {
		return rbac.Facts{}, err
	}
	return facts, nil
}

// tenantScope authorizes a create or list under tenantID. A principal with no
// tenant that names none still gets a decision, which is how super admins are
// refused tenant-owned creates.
func (s *Service) tenantScope(ctx context.Context, r locator.Reader, p rbac.Principal, action rbac.Action, tenantID string) (rbac.Facts, error) {
	if tenantID == "" {
		facts := rbac.Facts{Type: rbac.EntityTenant}
		if err := s.authorize(ctx, p, action, facts, nil); err != nil {
			return rbac.Facts{}, err
		}
		return facts, nil
	}
	return s.locateAndAuthorize(ctx, r, p, action, rbac.Ref(rbac.EntityTenant, tenantID), nil)
}

// reserve is the quota step of a create. It must run inside tx.
func (s *Service) reserve(ctx context.Context, tx store.Tx, tenantID string, dim tenancy.Dimension) error {
	d, err := s.quota.Reserve(ctx, tx, tenantID, dim)
	if err != nil {
		return err
	}
	return d.Err()
}

// record emits an audit event. Call only after the write committed.
func (s *Service) record(ctx context.Context, actor rbac.Principal, action audit.Action, tenantID string, ref rbac.EntityRef) {
	s.audit.Record(ctx, audit.Event{
		TenantID:    tenantID,
		ActorUserID: actor.ID,
		Action:      action,
		EntityType:  ref.Type,
		EntityID:    ref.ID,
	})
}

// checkAssignee rejects assignees outside tenantID.
func checkAssignee(ctx context.Context, tx store.Tx, userID, tenantID string) error {
	if userID == "" {
		return nil
	}
	return locator.New(tx).RequireSameTenant(ctx, rbac.Ref(rbac.EntityUser, userID), tenantID)
}
