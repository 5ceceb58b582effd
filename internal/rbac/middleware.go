package rbac

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireAnyRole is a coarse route guard that runs before any entity is
// loaded. It does not replace Authorize; handlers still ask the engine about
// the concrete entity.
//
// super_admin passes every guard.
func RequireAnyRole(allowed ...Role) gin.HandlerFunc {
	allowedSet := make(map[Role]struct{}, len(allowed))
	for _, r := range allowed {
		allowedSet[r] = struct{}{}
	}

	return func(c *gin.Context) {
		p, ok := PrincipalFrom(c.Request.Context())
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		if IsSuperAdmin(p.Role) {
			c.Next()
			return
		}
		if _, ok := allowedSet[p.Role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

// RequireTenant rejects principals that are not bound to a tenant.
func RequireTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := PrincipalFrom(c.Request.Context())
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		if p.TenantID == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "tenant context required"})
			return
		}
		c.Next()
	}
}
