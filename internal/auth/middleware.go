package auth

import (
	"net/http"
	"strings"

	"workspace-platform/internal/rbac"
	"workspace-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

const authorizationHeader = "Authorization"
const bearerPrefix = "Bearer "

// RequireAccessToken resolves the bearer token and injects the principal into
// the request context. It does not perform RBAC checks; those belong to
// internal/rbac.
func RequireAccessToken(r *Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(authorizationHeader))
		if raw == "" || !strings.HasPrefix(raw, bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		tok := strings.TrimSpace(strings.TrimPrefix(raw, bearerPrefix))

		id, err := r.Resolve(c.Request.Context(), tok)
		if err != nil {
			switch reason, _ := rbac.ReasonOf(err); reason {
			case rbac.ReasonUnauthenticated:
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			case rbac.ReasonSuspended:
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "account suspended"})
			default:
				logger.FromGin(c).Error("resolve principal", "err", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			}
			return
		}

		ctx := rbac.WithPrincipal(c.Request.Context(), id.Principal)
		ctx = WithSession(ctx, id.Session)
		c.Request = c.Request.WithContext(ctx)

		// Also store on gin context for handler convenience.
		c.Set("user_id", id.Principal.ID)
		c.Set("tenant_id", id.Principal.TenantID)
		c.Set("role", string(id.Principal.Role))
		logger.AddAttrs(c, "user_id", id.Principal.ID, "tenant_id", id.Principal.TenantID)

		c.Next()
	}
}
