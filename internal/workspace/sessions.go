package workspace

import (
	"context"
	"errors"
	"fmt"

	"workspace-platform/internal/audit"
	"workspace-platform/internal/auth"
	"workspace-platform/internal/rbac"
	"workspace-platform/internal/store"
	"workspace-platform/internal/tenancy"
	"workspace-platform/pkg/logger"
)

type Registration struct {
	Tenant tenancy.Tenant `json:"tenant"`
	Admin  tenancy.User   `json:"user"`
	Tokens auth.TokenPair `json:"tokens"`
}

// RegisterTenant creates a tenant on the default plan together with its first
// tenant_admin. Both rows commit together or not at all.
func (s *Service) RegisterTenant(ctx context.Context, req RegisterTenantRequest) (Registration, error) {
	req.normalize()
	if err := validateStruct(&req); err != nil {
		return Registration{}, err
	}
	hash, err := s.hasher.Hash(req.AdminPassword)
	if err != nil {
		return Registration{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.timestamp()
	t := tenancy.Tenant{
		ID:               newID(),
		Name:             req.TenantName,
		Subdomain:        req.Subdomain,
		Status:           tenancy.TenantStatusActive,
		SubscriptionPlan: tenancy.PlanFree,
		MaxUsers:         s.plans.DefaultMaxUsers,
		MaxProjects:      s.plans.DefaultMaxProjects,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	admin := tenancy.User{
		ID:           newID(),
		TenantID:     t.ID,
		Email:        req.AdminEmail,
		PasswordHash: hash,
		FullName:     req.AdminFullName,
		Role:         rbac.RoleTenantAdmin,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := tx.InsertTenant(ctx, t); err != nil {
			return fmt.Errorf("insert tenant: %w", err)
		}
		if err := tx.InsertUser(ctx, admin); err != nil {
			return fmt.Errorf("insert tenant admin: %w", err)
		}
		return nil
	})
	if err != nil {
		return Registration{}, err
	}

	p := principalOf(admin)
	s.record(ctx, p, audit.ActionRegisterTenant, t.ID, rbac.Ref(rbac.EntityTenant, t.ID))
	logger.From(ctx, s.log).Info("tenant registered", "tenant_id", t.ID, "subdomain", t.Subdomain)

	tokens, err := s.tokens.IssuePair(s.now(), p)
	if err != nil {
		return Registration{}, fmt.Errorf("issue tokens: %w", err)
	}
	return Registration{Tenant: t, Admin: admin, Tokens: tokens}, nil
}

type Session struct {
	User   tenancy.User    `json:"user"`
	Tenant *tenancy.Tenant `json:"tenant,omitempty"`
	Tokens auth.TokenPair  `json:"tokens"`
}

var errBadCredentials = rbac.Deny(rbac.ReasonUnauthenticated).Err()

// Login checks a password within the tenant named by subdomain, falling back
// to a super admin account with the same email. Unknown subdomains are
// NotFound; wrong credentials are Unauthenticated; inactive accounts and
// suspended tenants are Suspended.
func (s *Service) Login(ctx context.Context, req LoginRequest) (Session, error) {
	req.normalize()
	if err := validateStruct(&req); err != nil {
		return Session{}, err
	}

	var tenant *tenancy.Tenant
	if req.Subdomain != "" {
		t, err := s.store.GetTenantBySubdomain(ctx, req.Subdomain)
		if err != nil {
			return Session{}, err
		}
		tenant = &t
	}

	u, err := s.findLoginUser(ctx, tenant, req.Email)
	if errors.Is(err, store.ErrNotFound) {
		s.metrics.LoginAttempt("invalid_credentials")
		return Session{}, errBadCredentials
	}
	if err != nil {
		return Session{}, err
	}
	if err := s.hasher.Compare(u.PasswordHash, req.Password); err != nil {
		if !errors.Is(err, auth.ErrPasswordMismatch) {
			return Session{}, err
		}
		s.metrics.LoginAttempt("invalid_credentials")
		return Session{}, errBadCredentials
	}

	if u.Role != rbac.RoleSuperAdmin {
		// Credentials are checked before status so a suspended tenant does
		// not reveal which of its emails exist.
		if !u.IsActive || tenant.Status != tenancy.TenantStatusActive {
			s.metrics.LoginAttempt("suspended")
			return Session{}, rbac.Deny(rbac.ReasonSuspended).Err()
		}
	} else {
		if !u.IsActive {
			s.metrics.LoginAttempt("suspended")
			return Session{}, rbac.Deny(rbac.ReasonSuspended).Err()
		}
		tenant = nil
	}

	p := principalOf(u)
	tokens, err := s.tokens.IssuePair(s.now(), p)
	if err != nil {
		return Session{}, fmt.Errorf("issue tokens: %w", err)
	}
	s.metrics.LoginAttempt("success")
	s.record(ctx, p, audit.ActionLogin, u.TenantID, rbac.Ref(rbac.EntityUser, u.ID))
	return Session{User: u, Tenant: tenant, Tokens: tokens}, nil
}

func (s *Service) findLoginUser(ctx context.Context, tenant *tenancy.Tenant, email string) (tenancy.User, error) {
	if tenant != nil {
		u, err := s.store.FindUserByEmail(ctx, tenant.ID, email)
		if !errors.Is(err, store.ErrNotFound) {
			return u, err
		}
	}
	return s.store.FindSuperAdminByEmail(ctx, email)
}

// Refresh exchanges a refresh token for a new pair. The subject is reloaded,
// so a role change or deactivation takes effect here; the old refresh token
// is revoked.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (auth.TokenPair, error) {
	p, sess, err := s.resolver.ResolveRefresh(ctx, refreshToken)
	if err != nil {
		return auth.TokenPair{}, err
	}
	// Claiming the jti is the redemption; concurrent callers holding the
	// same token lose here.
	claimed, err := s.revoked.Claim(ctx, sess.TokenID, sess.ExpiresAt)
	if err != nil {
		return auth.TokenPair{}, fmt.Errorf("claim refresh token: %w", err)
	}
	if !claimed {
		return auth.TokenPair{}, errBadCredentials
	}
	return s.tokens.IssuePair(s.now(), p)
}

// Logout revokes the access token the request was made with and the
// refresh token issued with it.
func (s *Service) Logout(ctx context.Context, p rbac.Principal, sess auth.Session) error {
	if sess.TokenID == "" {
		return errBadCredentials
	}
	if err := s.revoked.Revoke(ctx, sess.TokenID, sess.ExpiresAt); err != nil {
		return fmt.Errorf("revoke access token: %w", err)
	}
	if sess.RefreshID != "" {
		if err := s.revoked.Revoke(ctx, sess.RefreshID, sess.RefreshExpiresAt); err != nil {
			return fmt.Errorf("revoke refresh token: %w", err)
		}
	}
	s.record(ctx, p, audit.ActionLogout, p.TenantID, rbac.Ref(rbac.EntityUser, p.ID))
	return nil
}

type Profile struct {
	User   tenancy.User    `json:"user"`
	Tenant *tenancy.Tenant `json:"tenant,omitempty"`
}

// Me returns the caller's account and, for tenant members, their tenant.
func (s *Service) Me(ctx context.Context, p rbac.Principal) (Profile, error) {
	u, err := s.store.GetUser(ctx, p.ID)
	if err != nil {
		return Profile{}, err
	}
	out := Profile{User: u}
	if p.TenantID != "" {
		t, err := s.store.GetTenant(ctx, p.TenantID)
		if err != nil {
			return Profile{}, err
		}
		out.Tenant = &t
	}
	return out, nil
}

func principalOf(u tenancy.User) rbac.Principal {
	return rbac.Principal{
		ID:       u.ID,
		Role:     u.Role,
		TenantID: u.TenantID,
		Email:    u.Email,
		FullName: u.FullName,
	}
}
