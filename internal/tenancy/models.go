package tenancy

import (
	"time"

	"workspace-platform/internal/rbac"
)

// Dimension is a quota-bearing collection.
type Dimension string

const (
	DimensionUsers    Dimension = "users"
	DimensionProjects Dimension = "projects"
)

type TenantStatus string

const (
	TenantStatusActive    TenantStatus = "active"
	TenantStatusSuspended TenantStatus = "suspended"
)

func (s TenantStatus) Valid() bool {
	return s == TenantStatusActive || s == TenantStatusSuspended
}

type Plan string

const (
	PlanFree       Plan = "free"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

func (p Plan) Valid() bool {
	switch p {
	case PlanFree, PlanPro, PlanEnterprise:
		return true
	default:
		return false
	}
}

// Limits are the per-tenant quota ceilings.
type Limits struct {
	MaxUsers    int `json:"max_users"`
	MaxProjects int `json:"max_projects"`
}

// Of returns the limit for d. ok is false for an unknown dimension.
func (l Limits) Of(d Dimension) (limit int, ok bool) {
	switch d {
	case DimensionUsers:
		return l.MaxUsers, true
	case DimensionProjects:
		return l.MaxProjects, true
	default:
		return 0, false
	}
}

type Tenant struct {
	ID               string       `json:"id"`
	Name             string       `json:"name"`
	Subdomain        string       `json:"subdomain"`
	Status           TenantStatus `json:"status"`
	SubscriptionPlan Plan         `json:"subscription_plan"`
	MaxUsers         int          `json:"max_users"`
	MaxProjects      int          `json:"max_projects"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

func (t Tenant) Limits() Limits {
	return Limits{MaxUsers: t.MaxUsers, MaxProjects: t.MaxProjects}
}

type TenantStats struct {
	TotalUsers    int `json:"total_users"`
	TotalProjects int `json:"total_projects"`
	TotalTasks    int `json:"total_tasks"`
}

type TenantSummary struct {
	Tenant
	UserCount    int `json:"user_count"`
	ProjectCount int `json:"project_count"`
}

// User is an account. TenantID is empty only for super_admin.
type User struct {
	ID           string    `json:"id"`
	TenantID     string    `json:"tenant_id,omitempty"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"full_name"`
	Role         rbac.Role `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PrincipalRecord is what the resolver needs to turn a token subject into a
// principal: the account plus the status of the tenant it belongs to.
type PrincipalRecord struct {
	ID           string
	TenantID     string
	Email        string
	FullName     string
	Role         rbac.Role
	IsActive     bool
	TenantStatus TenantStatus
}

func (r PrincipalRecord) Principal() rbac.Principal {
	return rbac.Principal{
		ID:       r.ID,
		Role:     r.Role,
		TenantID: r.TenantID,
		Email:    r.Email,
		FullName: r.FullName,
	}
}

type ProjectStatus string

const (
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusArchived  ProjectStatus = "archived"
	ProjectStatusCompleted ProjectStatus = "completed"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectStatusActive, ProjectStatusArchived, ProjectStatusCompleted:
		return true
	default:
		return false
	}
}

type Project struct {
	ID          string        `json:"id"`
	TenantID    string        `json:"tenant_id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Status      ProjectStatus `json:"status"`
	CreatedBy   string        `json:"created_by,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

type ProjectSummary struct {
	Project
	CreatorName        string `json:"creator_name,omitempty"`
	TaskCount          int    `json:"task_count"`
	CompletedTaskCount int    `json:"completed_task_count"`
}

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusCompleted:
		return true
	default:
		return false
	}
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool { return p.Rank() > 0 }

// Rank orders priorities; higher is more urgent. Zero for unknown values.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	default:
		return 0
	}
}

// Task belongs to a project; TenantID is copied from the project on insert.
type Task struct {
	ID          string     `json:"id"`
	TenantID    string     `json:"tenant_id"`
	ProjectID   string     `json:"project_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
	Priority    Priority   `json:"priority"`
	AssignedTo  string     `json:"assigned_to,omitempty"`
	CreatedBy   string     `json:"created_by,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type TaskView struct {
	Task
	AssigneeName  string `json:"assignee_name,omitempty"`
	AssigneeEmail string `json:"assignee_email,omitempty"`
}
