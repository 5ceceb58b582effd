package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"workspace-platform/internal/rbac"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestRequireAccessToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	f := newFixture(t)

	r := gin.New()
	r.GET("/me", RequireAccessToken(f.resolver), func(c *gin.Context) {
		p, ok := rbac.PrincipalFrom(c.Request.Context())
		if !ok {
			c.Status(http.StatusTeapot)
			return
		}
		if _, ok := SessionFrom(c.Request.Context()); !ok {
			c.Status(http.StatusTeapot)
			return
		}
		c.String(http.StatusOK, p.ID)
	})

	call := func(header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	require.Equal(t, http.StatusUnauthorized, call("").Code)
	require.Equal(t, http.StatusUnauthorized, call("Bearer garbage").Code)

	tok := f.accessToken(t, rbac.Principal{ID: f.userID, TenantID: f.tenantID, Role: rbac.RoleUser})
	w := call("Bearer " + tok)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, f.userID, w.Body.String())
}
