package postgres

import (
	"context"
	"strings"
	"time"

	"workspace-platform/internal/tenancy"
)

func (c *txConn) LockQuota(ctx context.Context, tenantID string, dim tenancy.Dimension) error {
	key := "quota:" + tenantID + ":" + string(dim)
	_, err := c.q.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, key)
	return mapPostgresError(err)
}

/* ===================== TENANTS ===================== */

func (c *txConn) InsertTenant(ctx context.Context, t tenancy.Tenant) error {
	_, err := c.q.ExecContext(ctx, `
		INSERT INTO tenants (id, name, subdomain, status, subscription_plan,
			max_users, max_projects, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		t.ID, t.Name, t.Subdomain, string(t.Status), string(t.SubscriptionPlan),
		t.MaxUsers, t.MaxProjects, t.CreatedAt, t.UpdatedAt,
	)
	return mapPostgresError(err)
}

func (c *txConn) UpdateTenant(ctx context.Context, id string, p tenancy.TenantPatch, now time.Time) (tenancy.Tenant, error) {
	var a assignments
	if p.Name != nil {
		a.set("name", *p.Name)
	}
	if p.Status != nil {
		a.set("status", string(*p.Status))
	}
	if p.SubscriptionPlan != nil {
		a.set("subscription_plan", string(*p.SubscriptionPlan))
	}
	if p.MaxUsers != nil {
		a.set("max_users", *p.MaxUsers)
	}
	if p.MaxProjects != nil {
		a.set("max_projects", *p.MaxProjects)
	}
	a.set("updated_at", now)

	q := `UPDATE tenants t SET ` + strings.Join(a.parts, ", ") + ` WHERE t.id = ` + a.add(id) + ` RETURNING ` + tenantColumns
	return scanTenant(c.q.QueryRowContext(ctx, q, a.args...))
}

/* ===================== USERS ===================== */

func (c *txConn) InsertUser(ctx context.Context, u tenancy.User) error {
	_, err := c.q.ExecContext(ctx, `
		INSERT INTO users (id, tenant_id, email, password_hash, full_name, role,
			is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		u.ID, nullString(u.TenantID), u.Email, u.PasswordHash, u.FullName, string(u.Role),
		u.IsActive, u.CreatedAt, u.UpdatedAt,
	)
	return mapPostgresError(err)
}

func (c *txConn) UpdateUser(ctx context.Context, id string, p tenancy.UserPatch, now time.Time) (tenancy.User, error) {
	var a assignments
	if p.FullName != nil {
		a.set("full_name", *p.FullName)
	}
	if p.Role != nil {
		a.set("role", string(*p.Role))
	}
	if p.IsActive != nil {
		a.set("is_active", *p.IsActive)
	}
	a.set("updated_at", now)

	q := `UPDATE users u SET ` + strings.Join(a.parts, ", ") + ` WHERE u.id = ` + a.add(id) + ` RETURNING ` + userColumns
	return scanUser(c.q.QueryRowContext(ctx, q, a.args...))
}

// DeleteUser relies on ON DELETE SET NULL for created_by and assigned_to.
func (c *txConn) DeleteUser(ctx context.Context, id string) error {
	return expectOne(c.q.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id))
}

/* ===================== PROJECTS ===================== */

func (c *txConn) InsertProject(ctx context.Context, p tenancy.Project) error {
	_, err := c.q.ExecContext(ctx, `
		INSERT INTO projects (id, tenant_id, name, description, status, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.TenantID, p.Name, p.Description, string(p.Status), nullString(p.CreatedBy),
		p.CreatedAt, p.UpdatedAt,
	)
	return mapPostgresError(err)
}

func (c *txConn) UpdateProject(ctx context.Context, id string, p tenancy.ProjectPatch, now time.Time) (tenancy.Project, error) {
	var a assignments
	if p.Name != nil {
		a.set("name", *p.Name)
	}
	if p.Description != nil {
		a.set("description", *p.Description)
	}
	if p.Status != nil {
		a.set("status", string(*p.Status))
	}
	a.set("updated_at", now)

	q := `UPDATE projects p SET ` + strings.Join(a.parts, ", ") + ` WHERE p.id = ` + a.add(id) + ` RETURNING p.id`
	var updated string
	if err := c.q.QueryRowContext(ctx, q, a.args...).Scan(&updated); err != nil {
		return tenancy.Project{}, mapPostgresError(err)
	}
	s, err := c.GetProject(ctx, updated)
	if err != nil {
		return tenancy.Project{}, err
	}
	return s.Project, nil
}

// DeleteProject relies on ON DELETE CASCADE for tasks.
func (c *txConn) DeleteProject(ctx context.Context, id string) error {
	return expectOne(c.q.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id))
}

/* ===================== TASKS ===================== */

func (c *txConn) InsertTask(ctx context.Context, t tenancy.Task) error {
	_, err := c.q.ExecContext(ctx, `
		INSERT INTO tasks (id, tenant_id, project_id, title, description, status, priority,
			assigned_to, created_by, due_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		t.ID, t.TenantID, t.ProjectID, t.Title, t.Description, string(t.Status), string(t.Priority),
		nullString(t.AssignedTo), nullString(t.CreatedBy), nullTime(t.DueDate),
		t.CreatedAt, t.UpdatedAt,
	)
	return mapPostgresError(err)
}

func (c *txConn) UpdateTask(ctx context.Context, id string, p tenancy.TaskPatch, now time.Time) (tenancy.Task, error) {
	var a assignments
	if p.Title != nil {
		a.set("title", *p.Title)
	}
	if p.Description != nil {
		a.set("description", *p.Description)
	}
	if p.Status != nil {
		a.set("status", string(*p.Status))
	}
	if p.Priority != nil {
		a.set("priority", string(*p.Priority))
	}
	if p.AssignedTo.Set {
		v := ""
		if p.AssignedTo.Value != nil {
			v = *p.AssignedTo.Value
		}
		a.set("assigned_to", nullString(v))
	}
	if p.DueDate.Set {
		a.set("due_date", nullTime(p.DueDate.Value))
	}
	a.set("updated_at", now)

	q := `UPDATE tasks k SET ` + strings.Join(a.parts, ", ") + ` WHERE k.id = ` + a.add(id) + ` RETURNING ` + taskColumns
	return scanTask(c.q.QueryRowContext(ctx, q, a.args...))
}

func (c *txConn) DeleteTask(ctx context.Context, id string) error {
	return expectOne(c.q.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id))
}
