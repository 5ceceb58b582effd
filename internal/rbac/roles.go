package rbac

import "fmt"

// Role is the closed set of principal roles.
// Keep these stable; they are persisted and carried in access tokens.
type Role string

const (
	RoleSuperAdmin  Role = "super_admin"
	RoleTenantAdmin Role = "tenant_admin"
	RoleUser        Role = "user"
)

func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleTenantAdmin, RoleUser:
		return true
	default:
		return false
	}
}

func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("rbac: unknown role %q", s)
	}
	return r, nil
}

func IsSuperAdmin(r Role) bool { return r == RoleSuperAdmin }

// Assignable reports whether a tenant admin may hand out this role.
// super_admin is provisioned out of band only.
func Assignable(r Role) bool { return r == RoleTenantAdmin || r == RoleUser }
