package httpapi

import (
	"workspace-platform/internal/rbac"

	"github.com/gin-gonic/gin"
)

// Register mounts the /api routes. authMW resolves the bearer token; login is
// throttled per client IP by loginLimiter.
func (h Handlers) Register(r gin.IRouter, authMW gin.HandlerFunc, loginLimiter *IPLimiter) {
	api := r.Group("/api")
	api.Use(ClientIP())

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register-tenant", h.RegisterTenant)
		authGroup.POST("/login", loginLimiter.Middleware(), h.Login)
		authGroup.POST("/refresh", h.Refresh)
		authGroup.POST("/logout", authMW, h.Logout)
		authGroup.GET("/me", authMW, h.Me)
	}

	tenants := api.Group("/tenants")
	tenants.Use(authMW)
	{
		// Empty role list: only super_admin passes.
		tenants.GET("", rbac.RequireAnyRole(), h.ListTenants)
		tenants.GET("/:tenantId", h.GetTenant)
		tenants.PUT("/:tenantId", rbac.RequireAnyRole(rbac.RoleTenantAdmin), h.UpdateTenant)
		tenants.POST("/:tenantId/users", rbac.RequireAnyRole(rbac.RoleTenantAdmin), h.AddUser)
		tenants.GET("/:tenantId/users", h.ListUsers)
	}

	users := api.Group("/users")
	users.Use(authMW)
	{
		users.GET("/:userId", h.GetUser)
		users.PUT("/:userId", h.UpdateUser)
		users.DELETE("/:userId", h.DeleteUser)
	}

	projects := api.Group("/projects")
	projects.Use(authMW)
	{
		projects.POST("", rbac.RequireTenant(), h.CreateProject)
		projects.GET("", h.ListProjects)
		projects.GET("/:projectId", h.GetProject)
		projects.PUT("/:projectId", h.UpdateProject)
		projects.DELETE("/:projectId", h.DeleteProject)
		projects.POST("/:projectId/tasks", rbac.RequireTenant(), h.CreateTask)
		projects.GET("/:projectId/tasks", h.ListTasks)
	}

	tasks := api.Group("/tasks")
	tasks.Use(authMW)
	{
		tasks.GET("/:taskId", h.GetTask)
		tasks.PUT("/:taskId", h.UpdateTask)
		tasks.PATCH("/:taskId/status", h.UpdateTaskStatus)
		tasks.DELETE("/:taskId", h.DeleteTask)
	}
}
