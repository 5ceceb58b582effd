package workspace

import (
	"context"

	"workspace-platform/internal/audit"
	"workspace-platform/internal/rbac"
	"workspace-platform/internal/store"
	"workspace-platform/internal/tenancy"
)

type TenantDetails struct {
	tenancy.Tenant
	Stats tenancy.TenantStats `json:"stats"`
}

func (s *Service) GetTenant(ctx context.Context, p rbac.Principal, id string) (TenantDetails, error) {
	if _, err := s.locateAndAuthorize(ctx, s.store, p, rbac.ActionTenantRead, rbac.Ref(rbac.EntityTenant, id), nil); err != nil {
		return TenantDetails{}, err
	}
	t, err := s.store.GetTenant(ctx, id)
	if err != nil {
		return TenantDetails{}, err
	}
	stats, err := s.store.GetTenantStats(ctx, id)
	if err != nil {
		return TenantDetails{}, err
	}
	return TenantDetails{Tenant: t, Stats: stats}, nil
}

// UpdateTenant changes tenant settings. Lifecycle and plan fields are judged
// on the request, so sending a restricted field with its current value is
// still refused for tenant admins.
func (s *Service) UpdateTenant(ctx context.Context, p rbac.Principal, id string, req UpdateTenantRequest) (tenancy.Tenant, error) {
	req.normalize()
	if err := validateStruct(&req); err != nil {
		return tenancy.Tenant{}, err
	}
	patch := req.patch()
	fields := patch.Fields()
	if len(fields) == 0 {
		return tenancy.Tenant{}, ErrNothingToUpdate
	}

	var out tenancy.Tenant
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if _, err := s.locateAndAuthorize(ctx, tx, p, rbac.ActionTenantUpdate, rbac.Ref(rbac.EntityTenant, id), fields); err != nil {
			return err
		}
		var err error
		out, err = tx.UpdateTenant(ctx, id, patch, s.timestamp())
		return err
	})
	if err != nil {
		return tenancy.Tenant{}, err
	}
	s.record(ctx, p, audit.ActionUpdateTenant, out.ID, rbac.Ref(rbac.EntityTenant, out.ID))
	return out, nil
}

// ListTenants is the operator view across all tenants.
func (s *Service) ListTenants(ctx context.Context, p rbac.Principal, q TenantQuery) (List[tenancy.TenantSummary], error) {
	if err := s.authorize(ctx, p, rbac.ActionTenantList, rbac.Facts{}, nil); err != nil {
		return List[tenancy.TenantSummary]{}, err
	}
	if err := validateStruct(&q); err != nil {
		return List[tenancy.TenantSummary]{}, err
	}
	page := q.page(defaultTenantPageSize)
	items, total, err := s.store.ListTenants(ctx, store.TenantFilter{Status: q.Status, Plan: q.Plan, Page: page})
	if err != nil {
		return List[tenancy.TenantSummary]{}, err
	}
	return newList(items, total, page), nil
}
