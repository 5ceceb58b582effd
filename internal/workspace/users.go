package workspace

import (
	"context"
	"fmt"
	"strings"

	"workspace-platform/internal/audit"
	"workspace-platform/internal/rbac"
	"workspace-platform/internal/store"
	"workspace-platform/internal/tenancy"
)

// AddUser creates an account in tenantID, subject to the tenant's user quota.
func (s *Service) AddUser(ctx context.Context, p rbac.Principal, tenantID string, req AddUserRequest) (tenancy.User, error) {
	if tenantID == "" {
		return tenancy.User{}, invalidField("tenant_id", "is required")
	}
	req.normalize()
	if err := validateStruct(&req); err != nil {
		return tenancy.User{}, err
	}
	// Authorize before hashing so refused callers cannot spend bcrypt time.
	if _, err := s.tenantScope(ctx, s.store, p, rbac.ActionUserCreate, tenantID); err != nil {
		return tenancy.User{}, err
	}
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return tenancy.User{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.timestamp()
	u := tenancy.User{
		ID:           newID(),
		TenantID:     tenantID,
		Email:        req.Email,
		PasswordHash: hash,
		FullName:     req.FullName,
		Role:         req.Role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err = s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := s.reserve(ctx, tx, tenantID, tenancy.DimensionUsers); err != nil {
			return err
		}
		return tx.InsertUser(ctx, u)
	})
	if err != nil {
		return tenancy.User{}, err
	}
	s.record(ctx, p, audit.ActionCreateUser, tenantID, rbac.Ref(rbac.EntityUser, u.ID))
	return u, nil
}

func (s *Service) GetUser(ctx context.Context, p rbac.Principal, id string) (tenancy.User, error) {
	if _, err := s.locateAndAuthorize(ctx, s.store, p, rbac.ActionUserRead, rbac.Ref(rbac.EntityUser, id), nil); err != nil {
		return tenancy.User{}, err
	}
	return s.store.GetUser(ctx, id)
}

func (s *Service) ListUsers(ctx context.Context, p rbac.Principal, tenantID string, q UserQuery) (List[tenancy.User], error) {
	if tenantID == "" {
		return List[tenancy.User]{}, invalidField("tenant_id", "is required")
	}
	if _, err := s.tenantScope(ctx, s.store, p, rbac.ActionUserList, tenantID); err != nil {
		return List[tenancy.User]{}, err
	}
	if err := validateStruct(&q); err != nil {
		return List[tenancy.User]{}, err
	}
	page := q.page(defaultUserPageSize)
	items, total, err := s.store.ListUsers(ctx, tenantID, store.UserFilter{
		Search: strings.TrimSpace(q.Search),
		Role:   q.Role,
		Page:   page,
	})
	if err != nil {
		return List[tenancy.User]{}, err
	}
	return newList(items, total, page), nil
}

// UpdateUser edits an account. Users may only rename themselves; role and
// active flag belong to admins.
func (s *Service) UpdateUser(ctx context.Context, p rbac.Principal, id string, req UpdateUserRequest) (tenancy.User, error) {
	req.normalize()
	if err := validateStruct(&req); err != nil {
		return tenancy.User{}, err
	}
	patch := req.patch()
	fields := req.planKeys.addTo(patch.Fields())
	if len(fields) == 0 {
		return tenancy.User{}, ErrNothingToUpdate
	}

	var (
		out   tenancy.User
		facts rbac.Facts
	)
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		facts, err = s.locateAndAuthorize(ctx, tx, p, rbac.ActionUserUpdate, rbac.Ref(rbac.EntityUser, id), fields)
		if err != nil {
			return err
		}
		if facts.TenantID == "" {
			// Operator accounts are managed out of band.
			return rbac.Deny(rbac.ReasonInsufficientRole).Err()
		}
		out, err = tx.UpdateUser(ctx, id, patch, s.timestamp())
		return err
	})
	if err != nil {
		return tenancy.User{}, err
	}
	s.record(ctx, p, audit.ActionUpdateUser, facts.TenantID, rbac.Ref(rbac.EntityUser, id))
	return out, nil
}

// DeleteUser removes an account. Projects and tasks it created stay, with
// their creator cleared; tasks assigned to it become unassigned.
func (s *Service) DeleteUser(ctx context.Context, p rbac.Principal, id string) error {
	var facts rbac.Facts
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		facts, err = s.locateAndAuthorize(ctx, tx, p, rbac.ActionUserDelete, rbac.Ref(rbac.EntityUser, id), nil)
		if err != nil {
			return err
		}
		if facts.TenantID == "" {
			return rbac.Deny(rbac.ReasonInsufficientRole).Err()
		}
		return tx.DeleteUser(ctx, id)
	})
	if err != nil {
		return err
	}
	s.record(ctx, p, audit.ActionDeleteUser, facts.TenantID, rbac.Ref(rbac.EntityUser, id))
	return nil
}
