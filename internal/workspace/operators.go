package workspace

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"workspace-platform/internal/auth"
	"workspace-platform/internal/rbac"
	"workspace-platform/internal/store"
	"workspace-platform/internal/tenancy"
)

// SuperAdminRequest describes a platform operator account. Operators belong
// to no tenant and cannot be created through the HTTP API.
type SuperAdminRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=12,max=72"`
	FullName string `json:"full_name" validate:"required,max=255"`
}

// CreateSuperAdmin provisions an operator. An existing operator with the same
// email is a conflict.
func CreateSuperAdmin(ctx context.Context, st store.Store, h auth.Hasher, req SuperAdminRequest) (tenancy.User, error) {
	req.Email = normalizeEmail(req.Email)
	req.FullName = strings.TrimSpace(req.FullName)
	if err := validateStruct(&req); err != nil {
		return tenancy.User{}, err
	}
	hash, err := h.Hash(req.Password)
	if err != nil {
		return tenancy.User{}, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	u := tenancy.User{
		ID:           newID(),
		Email:        req.Email,
		PasswordHash: hash,
		FullName:     req.FullName,
		Role:         rbac.RoleSuperAdmin,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err = st.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		_, err := tx.FindSuperAdminByEmail(ctx, u.Email)
		switch {
		case err == nil:
			return fmt.Errorf("super admin %s: %w", u.Email, store.ErrConflict)
		case !errors.Is(err, store.ErrNotFound):
			return err
		}
		return tx.InsertUser(ctx, u)
	})
	if err != nil {
		return tenancy.User{}, err
	}
	return u, nil
}
