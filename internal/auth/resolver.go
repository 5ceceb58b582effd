package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"workspace-platform/internal/rbac"
	"workspace-platform/internal/store"
	"workspace-platform/internal/tenancy"
)

// PrincipalReader is the persistence the resolver reads from.
type PrincipalReader interface {
	GetPrincipalByID(ctx context.Context, id string) (tenancy.PrincipalRecord, error)
}

// Identity is a resolved request caller plus the token it presented.
type Identity struct {
	Principal rbac.Principal
	Session   Session
}

// Resolver turns a bearer credential into a Principal. It never writes.
type Resolver struct {
	tokens     *Manager
	principals PrincipalReader
	revoked    RevocationStore
	log        *slog.Logger
	now        func() time.Time
}

func NewResolver(tokens *Manager, principals PrincipalReader, revoked RevocationStore, log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{
		tokens:     tokens,
		principals: principals,
		revoked:    revoked,
		log:        log,
		now:        time.Now,
	}
}

var (
	errUnauthenticated = rbac.Deny(rbac.ReasonUnauthenticated).Err()
	errSuspended       = rbac.Deny(rbac.ReasonSuspended).Err()
)

// Resolve authenticates an access token. Credential problems yield a
// Unauthenticated denial; a valid credential for a deactivated account or
// suspended tenant yields Suspended. Other errors are infrastructure
// failures and must not be reported as authentication failures.
func (r *Resolver) Resolve(ctx context.Context, bearer string) (Identity, error) {
	claims, err := r.verify(ctx, bearer, TokenTypeAccess)
	if err != nil {
		return Identity{}, err
	}
	if claims.TenantID != "" && claims.Role == string(rbac.RoleSuperAdmin) {
		return Identity{}, errUnauthenticated
	}

	p, err := r.ResolveID(ctx, claims.UserID)
	if err != nil {
		return Identity{}, err
	}
	// Tenant affiliation is immutable; a mismatch means a forged or stale
	// subject.
	if p.TenantID != claims.TenantID {
		return Identity{}, errUnauthenticated
	}

	sess := Session{TokenID: claims.ID, ExpiresAt: claims.ExpiresAt.Time}
	if claims.RefreshID != "" && claims.IssuedAt != nil {
		sess.RefreshID = claims.RefreshID
		sess.RefreshExpiresAt = r.tokens.RefreshExpiry(claims.IssuedAt.Time)
	}
	return Identity{Principal: p, Session: sess}, nil
}

// ResolveRefresh authenticates a refresh token and reloads its subject.
func (r *Resolver) ResolveRefresh(ctx context.Context, token string) (rbac.Principal, Session, error) {
	claims, err := r.verify(ctx, token, TokenTypeRefresh)
	if err != nil {
		return rbac.Principal{}, Session{}, err
	}
	p, err := r.ResolveID(ctx, claims.UserID)
	if err != nil {
		return rbac.Principal{}, Session{}, err
	}
	if p.TenantID != claims.TenantID {
		return rbac.Principal{}, Session{}, errUnauthenticated
	}
	return p, Session{TokenID: claims.ID, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// ResolveID loads a principal by user id and applies the active checks.
func (r *Resolver) ResolveID(ctx context.Context, userID string) (rbac.Principal, error) {
	rec, err := r.principals.GetPrincipalByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return rbac.Principal{}, errUnauthenticated
	}
	if err != nil {
		return rbac.Principal{}, fmt.Errorf("load principal: %w", err)
	}

	p := rec.Principal()
	if err := p.Validate(); err != nil {
		r.log.Warn("stored principal is inconsistent", "user_id", userID, "err", err)
		return rbac.Principal{}, errUnauthenticated
	}
	if !rec.IsActive {
		return rbac.Principal{}, errSuspended
	}
	if !rbac.IsSuperAdmin(p.Role) && rec.TenantStatus != tenancy.TenantStatusActive {
		return rbac.Principal{}, errSuspended
	}
	return p, nil
}

func (r *Resolver) verify(ctx context.Context, token string, typ TokenType) (Claims, error) {
	if token == "" {
		return Claims{}, errUnauthenticated
	}
	claims, err := r.tokens.Verify(token, typ, r.now())
	if err != nil {
		r.log.Debug("token rejected", "token_type", string(typ), "err", err)
		return Claims{}, errUnauthenticated
	}
	revoked, err := r.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return Claims{}, fmt.Errorf("revocation lookup: %w", err)
	}
	if revoked {
		return Claims{}, errUnauthenticated
	}
	return claims, nil
}
