package workspace

import (
	"context"
	"strings"

	"workspace-platform/internal/audit"
	"workspace-platform/internal/rbac"
	"workspace-platform/internal/store"
	"workspace-platform/internal/tenancy"
)

// CreateProject adds a project to the caller's tenant, subject to the
// tenant's project quota. The caller becomes its creator.
func (s *Service) CreateProject(ctx context.Context, p rbac.Principal, req CreateProjectRequest) (tenancy.Project, error) {
	req.normalize()
	if err := validateStruct(&req); err != nil {
		return tenancy.Project{}, err
	}

	now := s.timestamp()
	pr := tenancy.Project{
		ID:          newID(),
		TenantID:    p.TenantID,
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		CreatedBy:   p.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if _, err := s.tenantScope(ctx, tx, p, rbac.ActionProjectCreate, p.TenantID); err != nil {
			return err
		}
		if err := s.reserve(ctx, tx, p.TenantID, tenancy.DimensionProjects); err != nil {
			return err
		}
		return tx.InsertProject(ctx, pr)
	})
	if err != nil {
		return tenancy.Project{}, err
	}
	s.record(ctx, p, audit.ActionCreateProject, pr.TenantID, rbac.Ref(rbac.EntityProject, pr.ID))
	return pr, nil
}

func (s *Service) GetProject(ctx context.Context, p rbac.Principal, id string) (tenancy.ProjectSummary, error) {
	if _, err := s.locateAndAuthorize(ctx, s.store, p, rbac.ActionProjectRead, rbac.Ref(rbac.EntityProject, id), nil); err != nil {
		return tenancy.ProjectSummary{}, err
	}
	return s.store.GetProject(ctx, id)
}

// ListProjects lists a tenant's projects with task counts. An empty tenantID
// means the caller's own tenant.
func (s *Service) ListProjects(ctx context.Context, p rbac.Principal, tenantID string, q ProjectQuery) (List[tenancy.ProjectSummary], error) {
	if tenantID == "" {
		tenantID = p.TenantID
	}
	if _, err := s.tenantScope(ctx, s.store, p, rbac.ActionProjectList, tenantID); err != nil {
		return List[tenancy.ProjectSummary]{}, err
	}
	if tenantID == "" {
		return List[tenancy.ProjectSummary]{}, invalidField("tenant_id", "is required")
	}
	if err := validateStruct(&q); err != nil {
		return List[tenancy.ProjectSummary]{}, err
	}
	page := q.page(defaultProjectPageSize)
	items, total, err := s.store.ListProjects(ctx, tenantID, store.ProjectFilter{
		Status: q.Status,
		Search: strings.TrimSpace(q.Search),
		Page:   page,
	})
	if err != nil {
		return List[tenancy.ProjectSummary]{}, err
	}
	return newList(items, total, page), nil
}

// UpdateProject is open to tenant admins and to the project's creator.
func (s *Service) UpdateProject(ctx context.Context, p rbac.Principal, id string, req UpdateProjectRequest) (tenancy.Project, error) {
	req.normalize()
	if err := validateStruct(&req); err != nil {
		return tenancy.Project{}, err
	}
	patch := req.patch()
	fields := req.planKeys.addTo(patch.Fields())
	if len(fields) == 0 {
		return tenancy.Project{}, ErrNothingToUpdate
	}

	var out tenancy.Project
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if _, err := s.locateAndAuthorize(ctx, tx, p, rbac.ActionProjectUpdate, rbac.Ref(rbac.EntityProject, id), fields); err != nil {
			return err
		}
		var err error
		out, err = tx.UpdateProject(ctx, id, patch, s.timestamp())
		return err
	})
	if err != nil {
		return tenancy.Project{}, err
	}
	s.record(ctx, p, audit.ActionUpdateProject, out.TenantID, rbac.Ref(rbac.EntityProject, id))
	return out, nil
}

// DeleteProject removes a project and all of its tasks.
func (s *Service) DeleteProject(ctx context.Context, p rbac.Principal, id string) error {
	var facts rbac.Facts
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		facts, err = s.locateAndAuthorize(ctx, tx, p, rbac.ActionProjectDelete, rbac.Ref(rbac.EntityProject, id), nil)
		if err != nil {
			return err
		}
		return tx.DeleteProject(ctx, id)
	})
	if err != nil {
		return err
	}
	s.record(ctx, p, audit.ActionDeleteProject, facts.TenantID, rbac.Ref(rbac.EntityProject, id))
	return nil
}
