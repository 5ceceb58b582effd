package httpapi

import (
	"net/http"

	"workspace-platform/internal/workspace"

	"github.com/gin-gonic/gin"
)

// projectListQuery adds the operator-only tenant selector to the listing
// filters.
type projectListQuery struct {
	workspace.ProjectQuery
	TenantID string `form:"tenant_id"`
}

func (h Handlers) CreateProject(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req workspace.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	out, err := h.Service.CreateProject(c.Request.Context(), p, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (h Handlers) ListProjects(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var q projectListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badJSON(c)
		return
	}
	out, err := h.Service.ListProjects(c.Request.Context(), p, q.TenantID, q.ProjectQuery)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h Handlers) GetProject(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	out, err := h.Service.GetProject(c.Request.Context(), p, c.Param("projectId"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h Handlers) UpdateProject(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req workspace.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	out, err := h.Service.UpdateProject(c.Request.Context(), p, c.Param("projectId"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h Handlers) DeleteProject(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	if err := h.Service.DeleteProject(c.Request.Context(), p, c.Param("projectId")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

/* ===================== TASKS ===================== */

func (h Handlers) CreateTask(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req workspace.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	out, err := h.Service.CreateTask(c.Request.Context(), p, c.Param("projectId"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (h Handlers) ListTasks(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var q workspace.TaskQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badJSON(c)
		return
	}
	out, err := h.Service.ListTasks(c.Request.Context(), p, c.Param("projectId"), q)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h Handlers) GetTask(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	out, err := h.Service.GetTask(c.Request.Context(), p, c.Param("taskId"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h Handlers) UpdateTask(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req workspace.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	out, err := h.Service.UpdateTask(c.Request.Context(), p, c.Param("taskId"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h Handlers) UpdateTaskStatus(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req workspace.UpdateTaskStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	out, err := h.Service.UpdateTaskStatus(c.Request.Context(), p, c.Param("taskId"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h Handlers) DeleteTask(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	if err := h.Service.DeleteTask(c.Request.Context(), p, c.Param("taskId")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
