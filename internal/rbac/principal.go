package rbac

import (
	"context"
	"errors"
)

// Principal is the authenticated caller as loaded from persistence.
// TenantID is empty if and only if Role is super_admin.
type Principal struct {
	ID       string
	Role     Role
	TenantID string
	Email    string
	FullName string
}

func (p Principal) Validate() error {
	if p.ID == "" {
		return errors.New("rbac: principal id missing")
	}
	if !p.Role.Valid() {
		return errors.New("rbac: principal role invalid")
	}
	if IsSuperAdmin(p.Role) != (p.TenantID == "") {
		return errors.New("rbac: principal tenant does not match role")
	}
	return nil
}

type ctxKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(Principal)
	if !ok || p.ID == "" {
		return Principal{}, false
	}
	return p, true
}
