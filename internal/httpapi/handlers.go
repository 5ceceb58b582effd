// Package httpapi adapts workspace.Service to HTTP. Handlers stay thin: bind
// input, take the principal from context, call the service, map the result.
package httpapi

import (
	"net/http"

	"workspace-platform/internal/audit"
	"workspace-platform/internal/auth"
	"workspace-platform/internal/rbac"
	"workspace-platform/internal/workspace"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
type Handlers struct {
	Service *workspace.Service
}

// ClientIP makes the caller's address available to the audit trail.
func ClientIP() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(audit.WithClientIP(c.Request.Context(), c.ClientIP()))
		c.Next()
	}
}

// principal reads the identity set by auth.RequireAccessToken.
func principal(c *gin.Context) (rbac.Principal, bool) {
	p, ok := rbac.PrincipalFrom(c.Request.Context())
	if !ok {
		fail(c, rbac.Deny(rbac.ReasonUnauthenticated).Err())
	}
	return p, ok
}

/* ===================== AUTH ===================== */

func (h Handlers) RegisterTenant(c *gin.Context) {
	var req workspace.RegisterTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	out, err := h.Service.RegisterTenant(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (h Handlers) Login(c *gin.Context) {
	var req workspace.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	out, err := h.Service.Login(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h Handlers) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		badJSON(c)
		return
	}
	pair, err := h.Service.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

func (h Handlers) Logout(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	sess, _ := auth.SessionFrom(c.Request.Context())
	if err := h.Service.Logout(c.Request.Context(), p, sess); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h Handlers) Me(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	out, err := h.Service.Me(c.Request.Context(), p)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

/* ===================== TENANTS ===================== */

func (h Handlers) ListTenants(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var q workspace.TenantQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badJSON(c)
		return
	}
	out, err := h.Service.ListTenants(c.Request.Context(), p, q)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h Handlers) GetTenant(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	out, err := h.Service.GetTenant(c.Request.Context(), p, c.Param("tenantId"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h Handlers) UpdateTenant(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req workspace.UpdateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	out, err := h.Service.UpdateTenant(c.Request.Context(), p, c.Param("tenantId"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

/* ===================== USERS ===================== */

func (h Handlers) AddUser(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req workspace.AddUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	out, err := h.Service.AddUser(c.Request.Context(), p, c.Param("tenantId"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (h Handlers) ListUsers(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var q workspace.UserQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badJSON(c)
		return
	}
	out, err := h.Service.ListUsers(c.Request.Context(), p, c.Param("tenantId"), q)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h Handlers) GetUser(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	out, err := h.Service.GetUser(c.Request.Context(), p, c.Param("userId"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h Handlers) UpdateUser(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req workspace.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	out, err := h.Service.UpdateUser(c.Request.Context(), p, c.Param("userId"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h Handlers) DeleteUser(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	if err := h.Service.DeleteUser(c.Request.Context(), p, c.Param("userId")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
