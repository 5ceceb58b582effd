package workspace

import (
	"encoding/json"
	"strings"
	"time"

	"workspace-platform/internal/rbac"
	"workspace-platform/internal/store"
	"workspace-platform/internal/tenancy"
)

const dateLayout = "2006-01-02"

// Default page sizes per listing.
const (
	defaultTenantPageSize  = 10
	defaultUserPageSize    = 50
	defaultProjectPageSize = 20
	defaultTaskPageSize    = 50
)

/* ===================== SESSIONS ===================== */

type RegisterTenantRequest struct {
	TenantName    string `json:"tenant_name" validate:"required,max=255"`
	Subdomain     string `json:"subdomain" validate:"required,subdomain"`
	AdminEmail    string `json:"admin_email" validate:"required,email,max=255"`
	AdminPassword string `json:"admin_password" validate:"required,min=8,max=72"`
	AdminFullName string `json:"admin_full_name" validate:"required,max=255"`
}

func (r *RegisterTenantRequest) normalize() {
	r.TenantName = strings.TrimSpace(r.TenantName)
	r.Subdomain = strings.ToLower(strings.TrimSpace(r.Subdomain))
	r.AdminEmail = normalizeEmail(r.AdminEmail)
	r.AdminFullName = strings.TrimSpace(r.AdminFullName)
}

// LoginRequest authenticates within a tenant. An empty subdomain is only
// useful to super admins, who belong to no tenant.
type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,max=72"`
	Subdomain string `json:"tenant_subdomain" validate:"omitempty,subdomain"`
}

func (r *LoginRequest) normalize() {
	r.Email = normalizeEmail(r.Email)
	r.Subdomain = strings.ToLower(strings.TrimSpace(r.Subdomain))
}

/* ===================== TENANTS ===================== */

type UpdateTenantRequest struct {
	Name             *string               `json:"name" validate:"omitempty,min=1,max=255"`
	Status           *tenancy.TenantStatus `json:"status" validate:"omitempty,oneof=active suspended"`
	SubscriptionPlan *tenancy.Plan         `json:"subscription_plan" validate:"omitempty,oneof=free pro enterprise"`
	MaxUsers         *int                  `json:"max_users" validate:"omitempty,min=0"`
	MaxProjects      *int                  `json:"max_projects" validate:"omitempty,min=0"`
}

func (r *UpdateTenantRequest) normalize() { r.Name = trimmed(r.Name) }

func (r UpdateTenantRequest) patch() tenancy.TenantPatch {
	return tenancy.TenantPatch{
		Name:             r.Name,
		Status:           r.Status,
		SubscriptionPlan: r.SubscriptionPlan,
		MaxUsers:         r.MaxUsers,
		MaxProjects:      r.MaxProjects,
	}
}

// PageQuery is the 1-based page and page size of a listing. Zero values pick
// the listing's default; sizes above store.MaxPageSize are capped.
type PageQuery struct {
	Page  int `form:"page" json:"page"`
	Limit int `form:"limit" json:"limit"`
}

func (q PageQuery) page(defaultSize int) store.Page {
	return store.Page{Number: q.Page, Size: q.Limit}.Normalize(defaultSize)
}

type TenantQuery struct {
	PageQuery
	Status tenancy.TenantStatus `form:"status" json:"status" validate:"omitempty,oneof=active suspended"`
	Plan   tenancy.Plan         `form:"subscription_plan" json:"subscription_plan" validate:"omitempty,oneof=free pro enterprise"`
}

/* ===================== USERS ===================== */

type AddUserRequest struct {
	Email    string    `json:"email" validate:"required,email,max=255"`
	Password string    `json:"password" validate:"required,min=8,max=72"`
	FullName string    `json:"full_name" validate:"required,max=255"`
	Role     rbac.Role `json:"role" validate:"omitempty,oneof=tenant_admin user"`
}

func (r *AddUserRequest) normalize() {
	r.Email = normalizeEmail(r.Email)
	r.FullName = strings.TrimSpace(r.FullName)
	if r.Role == "" {
		r.Role = rbac.RoleUser
	}
}

// planKeys catches plan settings sent to an endpoint that cannot change
// them. Their presence alone is enough to refuse the request.
type planKeys struct {
	SubscriptionPlan json.RawMessage `json:"subscription_plan,omitempty"`
	MaxUsers         json.RawMessage `json:"max_users,omitempty"`
	MaxProjects      json.RawMessage `json:"max_projects,omitempty"`
}

func (k planKeys) addTo(fs rbac.FieldSet) rbac.FieldSet {
	if k.SubscriptionPlan != nil {
		fs.Add(rbac.FieldSubscriptionPlan)
	}
	if k.MaxUsers != nil {
		fs.Add(rbac.FieldMaxUsers)
	}
	if k.MaxProjects != nil {
		fs.Add(rbac.FieldMaxProjects)
	}
	return fs
}

type UpdateUserRequest struct {
	FullName *string    `json:"full_name" validate:"omitempty,min=1,max=255"`
	Role     *rbac.Role `json:"role" validate:"omitempty,oneof=tenant_admin user"`
	IsActive *bool      `json:"is_active"`
	planKeys
}

func (r *UpdateUserRequest) normalize() { r.FullName = trimmed(r.FullName) }

func (r UpdateUserRequest) patch() tenancy.UserPatch {
	return tenancy.UserPatch{FullName: r.FullName, Role: r.Role, IsActive: r.IsActive}
}

type UserQuery struct {
	PageQuery
	Search string    `form:"search" json:"search" validate:"max=255"`
	Role   rbac.Role `form:"role" json:"role" validate:"omitempty,oneof=super_admin tenant_admin user"`
}

/* ===================== PROJECTS ===================== */

type CreateProjectRequest struct {
	Name        string                `json:"name" validate:"required,max=255"`
	Description string                `json:"description" validate:"max=5000"`
	Status      tenancy.ProjectStatus `json:"status" validate:"omitempty,oneof=active archived completed"`
}

func (r *CreateProjectRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	if r.Status == "" {
		r.Status = tenancy.ProjectStatusActive
	}
}

type UpdateProjectRequest struct {
	Name        *string                `json:"name" validate:"omitempty,min=1,max=255"`
	Description *string                `json:"description" validate:"omitempty,max=5000"`
	Status      *tenancy.ProjectStatus `json:"status" validate:"omitempty,oneof=active archived completed"`
	planKeys
}

func (r *UpdateProjectRequest) normalize() { r.Name = trimmed(r.Name) }

func (r UpdateProjectRequest) patch() tenancy.ProjectPatch {
	return tenancy.ProjectPatch{Name: r.Name, Description: r.Description, Status: r.Status}
}

type ProjectQuery struct {
	PageQuery
	Status tenancy.ProjectStatus `form:"status" json:"status" validate:"omitempty,oneof=active archived completed"`
	Search string                `form:"search" json:"search" validate:"max=255"`
}

/* ===================== TASKS ===================== */

type CreateTaskRequest struct {
	Title       string             `json:"title" validate:"required,max=255"`
	Description string             `json:"description" validate:"max=5000"`
	Status      tenancy.TaskStatus `json:"status" validate:"omitempty,oneof=todo in_progress completed"`
	Priority    tenancy.Priority   `json:"priority" validate:"omitempty,oneof=low medium high"`
	AssignedTo  string             `json:"assigned_to" validate:"omitempty,uuid"`
	DueDate     string             `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
}

func (r *CreateTaskRequest) normalize() {
	r.Title = strings.TrimSpace(r.Title)
	if r.Status == "" {
		r.Status = tenancy.TaskStatusTodo
	}
	if r.Priority == "" {
		r.Priority = tenancy.PriorityMedium
	}
}

// UpdateTaskRequest uses Nullable for the clearable references: a JSON null
// unassigns the task or drops its due date.
type UpdateTaskRequest struct {
	Title       *string                  `json:"title" validate:"omitempty,min=1,max=255"`
	Description *string                  `json:"description" validate:"omitempty,max=5000"`
	Status      *tenancy.TaskStatus      `json:"status" validate:"omitempty,oneof=todo in_progress completed"`
	Priority    *tenancy.Priority        `json:"priority" validate:"omitempty,oneof=low medium high"`
	AssignedTo  tenancy.Nullable[string] `json:"assigned_to"`
	DueDate     tenancy.Nullable[string] `json:"due_date"`
	planKeys
}

func (r *UpdateTaskRequest) normalize() { r.Title = trimmed(r.Title) }

func (r UpdateTaskRequest) patch() (tenancy.TaskPatch, error) {
	p := tenancy.TaskPatch{
		Title:       r.Title,
		Description: r.Description,
		Status:      r.Status,
		Priority:    r.Priority,
	}
	if r.AssignedTo.Set {
		p.AssignedTo = tenancy.SetNull[string]()
		if r.AssignedTo.Value != nil && *r.AssignedTo.Value != "" {
			if err := getValidator().Var(*r.AssignedTo.Value, "uuid"); err != nil {
				return tenancy.TaskPatch{}, invalidField("assigned_to", "must be a UUID")
			}
			p.AssignedTo = tenancy.SetTo(*r.AssignedTo.Value)
		}
	}
	if r.DueDate.Set {
		p.DueDate = tenancy.SetNull[time.Time]()
		if r.DueDate.Value != nil && *r.DueDate.Value != "" {
			d, err := parseDate(*r.DueDate.Value)
			if err != nil {
				return tenancy.TaskPatch{}, err
			}
			p.DueDate = tenancy.SetTo(d)
		}
	}
	return p, nil
}

type UpdateTaskStatusRequest struct {
	Status tenancy.TaskStatus `json:"status" validate:"required,oneof=todo in_progress completed"`
}

type TaskQuery struct {
	PageQuery
	Status     tenancy.TaskStatus `form:"status" json:"status" validate:"omitempty,oneof=todo in_progress completed"`
	Priority   tenancy.Priority   `form:"priority" json:"priority" validate:"omitempty,oneof=low medium high"`
	AssignedTo string             `form:"assigned_to" json:"assigned_to" validate:"omitempty,uuid"`
	Search     string             `form:"search" json:"search" validate:"max=255"`
}

/* ===================== HELPERS ===================== */

func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func parseDate(s string) (time.Time, error) {
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, invalidField("due_date", "must be a date in "+dateLayout+" format")
	}
	return d, nil
}
