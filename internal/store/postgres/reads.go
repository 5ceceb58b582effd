package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"workspace-platform/internal/rbac"
	"workspace-platform/internal/store"
	"workspace-platform/internal/tenancy"
)

const tenantColumns = `t.id, t.name, t.subdomain, t.status, t.subscription_plan,
	t.max_users, t.max_projects, t.created_at, t.updated_at`

func scanTenant(r rowScanner, extra ...any) (tenancy.Tenant, error) {
	var t tenancy.Tenant
	dest := append([]any{
		&t.ID, &t.Name, &t.Subdomain, &t.Status, &t.SubscriptionPlan,
		&t.MaxUsers, &t.MaxProjects, &t.CreatedAt, &t.UpdatedAt,
	}, extra...)
	if err := r.Scan(dest...); err != nil {
		return tenancy.Tenant{}, mapPostgresError(err)
	}
	return t, nil
}

const userColumns = `u.id, u.tenant_id, u.email, u.password_hash, u.full_name,
	u.role, u.is_active, u.created_at, u.updated_at`

func scanUser(r rowScanner) (tenancy.User, error) {
	var (
		u        tenancy.User
		tenantID sql.NullString
	)
	if err := r.Scan(&u.ID, &tenantID, &u.Email, &u.PasswordHash, &u.FullName,
		&u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return tenancy.User{}, mapPostgresError(err)
	}
	u.TenantID = tenantID.String
	return u, nil
}

const projectSummarySelect = `SELECT p.id, p.tenant_id, p.name, p.description, p.status,
	p.created_by, p.created_at, p.updated_at,
	COALESCE(u.full_name, ''),
	(SELECT COUNT(*) FROM tasks k WHERE k.project_id = p.id),
	(SELECT COUNT(*) FROM tasks k WHERE k.project_id = p.id AND k.status = 'completed')
	FROM projects p LEFT JOIN users u ON u.id = p.created_by`

func scanProjectSummary(r rowScanner) (tenancy.ProjectSummary, error) {
	var (
		p         tenancy.ProjectSummary
		createdBy sql.NullString
	)
	if err := r.Scan(&p.ID, &p.TenantID, &p.Name, &p.Description, &p.Status,
		&createdBy, &p.CreatedAt, &p.UpdatedAt,
		&p.CreatorName, &p.TaskCount, &p.CompletedTaskCount); err != nil {
		return tenancy.ProjectSummary{}, mapPostgresError(err)
	}
	p.CreatedBy = createdBy.String
	return p, nil
}

const taskColumns = `k.id, k.tenant_id, k.project_id, k.title, k.description, k.status,
	k.priority, k.assigned_to, k.created_by, k.due_date, k.created_at, k.updated_at`

const taskViewSelect = `SELECT ` + taskColumns + `, COALESCE(u.full_name, ''), COALESCE(u.email, '')
	FROM tasks k LEFT JOIN users u ON u.id = k.assigned_to`

func scanTask(r rowScanner, extra ...any) (tenancy.Task, error) {
	var (
		t          tenancy.Task
		assignedTo sql.NullString
		createdBy  sql.NullString
		dueDate    sql.NullTime
	)
	dest := append([]any{
		&t.ID, &t.TenantID, &t.ProjectID, &t.Title, &t.Description, &t.Status,
		&t.Priority, &assignedTo, &createdBy, &dueDate, &t.CreatedAt, &t.UpdatedAt,
	}, extra...)
	if err := r.Scan(dest...); err != nil {
		return tenancy.Task{}, mapPostgresError(err)
	}
	t.AssignedTo = assignedTo.String
	t.CreatedBy = createdBy.String
	t.DueDate = timePtr(dueDate)
	return t, nil
}

func scanTaskView(r rowScanner) (tenancy.TaskView, error) {
	var v tenancy.TaskView
	t, err := scanTask(r, &v.AssigneeName, &v.AssigneeEmail)
	if err != nil {
		return tenancy.TaskView{}, err
	}
	v.Task = t
	return v, nil
}

/* ===================== AUTHORIZATION READS ===================== */

func (c conn) GetPrincipalByID(ctx context.Context, id string) (tenancy.PrincipalRecord, error) {
	var (
		rec      tenancy.PrincipalRecord
		tenantID sql.NullString
	)
	err := c.q.QueryRowContext(ctx, `
		SELECT u.id, u.tenant_id, u.email, u.full_name, u.role, u.is_active, COALESCE(t.status, '')
		FROM users u LEFT JOIN tenants t ON t.id = u.tenant_id
		WHERE u.id = $1`, id,
	).Scan(&rec.ID, &tenantID, &rec.Email, &rec.FullName, &rec.Role, &rec.IsActive, &rec.TenantStatus)
	if err != nil {
		return tenancy.PrincipalRecord{}, mapPostgresError(err)
	}
	rec.TenantID = tenantID.String
	return rec, nil
}

func (c conn) LocateEntity(ctx context.Context, ref rbac.EntityRef) (rbac.Facts, error) {
	var (
		tenantID, creator, assignee sql.NullString
		err                         error
	)
	switch ref.Type {
	case rbac.EntityTenant:
		err = c.q.QueryRowContext(ctx, `SELECT id FROM tenants WHERE id = $1`, ref.ID).Scan(&tenantID)
	case rbac.EntityUser:
		err = c.q.QueryRowContext(ctx, `SELECT tenant_id FROM users WHERE id = $1`, ref.ID).Scan(&tenantID)
	case rbac.EntityProject:
		err = c.q.QueryRowContext(ctx,
			`SELECT tenant_id, created_by FROM projects WHERE id = $1`, ref.ID,
		).Scan(&tenantID, &creator)
	case rbac.EntityTask:
		err = c.q.QueryRowContext(ctx,
			`SELECT tenant_id, created_by, assigned_to FROM tasks WHERE id = $1`, ref.ID,
		).Scan(&tenantID, &creator, &assignee)
	default:
		return rbac.Facts{}, store.ErrNotFound
	}
	if err != nil {
		return rbac.Facts{}, mapPostgresError(err)
	}
	return rbac.Facts{
		Type:       ref.Type,
		ID:         ref.ID,
		TenantID:   tenantID.String,
		CreatorID:  creator.String,
		AssigneeID: assignee.String,
	}, nil
}

func (c conn) CountByTenant(ctx context.Context, tenantID string, dim tenancy.Dimension) (int, error) {
	switch dim {
	case tenancy.DimensionUsers:
		return c.count(ctx, `SELECT COUNT(*) FROM users WHERE tenant_id = $1`, []any{tenantID})
	case tenancy.DimensionProjects:
		return c.count(ctx, `SELECT COUNT(*) FROM projects WHERE tenant_id = $1`, []any{tenantID})
	default:
		return 0, fmt.Errorf("postgres: unknown dimension %q", dim)
	}
}

func (c conn) GetTenantLimits(ctx context.Context, tenantID string) (tenancy.Limits, error) {
	var l tenancy.Limits
	err := c.q.QueryRowContext(ctx,
		`SELECT max_users, max_projects FROM tenants WHERE id = $1`, tenantID,
	).Scan(&l.MaxUsers, &l.MaxProjects)
	if err != nil {
		return tenancy.Limits{}, mapPostgresError(err)
	}
	return l, nil
}

/* ===================== TENANTS ===================== */

func (c conn) GetTenant(ctx context.Context, id string) (tenancy.Tenant, error) {
	return scanTenant(c.q.QueryRowContext(ctx, `SELECT `+tenantColumns+` FROM tenants t WHERE t.id = $1`, id))
}

func (c conn) GetTenantBySubdomain(ctx context.Context, subdomain string) (tenancy.Tenant, error) {
	return scanTenant(c.q.QueryRowContext(ctx,
		`SELECT `+tenantColumns+` FROM tenants t WHERE lower(t.subdomain) = lower($1)`, subdomain))
}

func (c conn) GetTenantStats(ctx context.Context, id string) (tenancy.TenantStats, error) {
	var s tenancy.TenantStats
	err := c.q.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users WHERE tenant_id = t.id),
			(SELECT COUNT(*) FROM projects WHERE tenant_id = t.id),
			(SELECT COUNT(*) FROM tasks WHERE tenant_id = t.id)
		FROM tenants t WHERE t.id = $1`, id,
	).Scan(&s.TotalUsers, &s.TotalProjects, &s.TotalTasks)
	if err != nil {
		return tenancy.TenantStats{}, mapPostgresError(err)
	}
	return s, nil
}

func (c conn) ListTenants(ctx context.Context, f store.TenantFilter) ([]tenancy.TenantSummary, int, error) {
	var w conds
	if f.Status != "" {
		w.where("t.status = ?", string(f.Status))
	}
	if f.Plan != "" {
		w.where("t.subscription_plan = ?", string(f.Plan))
	}

	total, err := c.count(ctx, `SELECT COUNT(*) FROM tenants t`+w.sql(), w.args)
	if err != nil {
		return nil, 0, err
	}

	page := f.Page.Normalize(store.MaxPageSize)
	q := `SELECT ` + tenantColumns + `,
		(SELECT COUNT(*) FROM users u WHERE u.tenant_id = t.id),
		(SELECT COUNT(*) FROM projects p WHERE p.tenant_id = t.id)
		FROM tenants t` + w.sql() +
		` ORDER BY t.created_at DESC, t.id LIMIT ` + w.add(page.Size) + ` OFFSET ` + w.add(page.Offset())

	rows, err := c.q.QueryContext(ctx, q, w.args...)
	if err != nil {
		return nil, 0, mapPostgresError(err)
	}
	defer rows.Close()

	var out []tenancy.TenantSummary
	for rows.Next() {
		var s tenancy.TenantSummary
		t, err := scanTenant(rows, &s.UserCount, &s.ProjectCount)
		if err != nil {
			return nil, 0, err
		}
		s.Tenant = t
		out = append(out, s)
	}
	return out, total, mapPostgresError(rows.Err())
}

/* ===================== USERS ===================== */

func (c conn) GetUser(ctx context.Context, id string) (tenancy.User, error) {
	return scanUser(c.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users u WHERE u.id = $1`, id))
}

func (c conn) FindUserByEmail(ctx context.Context, tenantID, email string) (tenancy.User, error) {
	if tenantID == "" {
		return scanUser(c.q.QueryRowContext(ctx,
			`SELECT `+userColumns+` FROM users u WHERE u.tenant_id IS NULL AND lower(u.email) = lower($1)`, email))
	}
	return scanUser(c.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users u WHERE u.tenant_id = $1 AND lower(u.email) = lower($2)`, tenantID, email))
}

func (c conn) FindSuperAdminByEmail(ctx context.Context, email string) (tenancy.User, error) {
	return scanUser(c.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users u
		 WHERE u.tenant_id IS NULL AND u.role = 'super_admin' AND lower(u.email) = lower($1)`, email))
}

func (c conn) ListUsers(ctx context.Context, tenantID string, f store.UserFilter) ([]tenancy.User, int, error) {
	var w conds
	w.where("u.tenant_id = ?", tenantID)
	if f.Role != "" {
		w.where("u.role = ?", string(f.Role))
	}
	if f.Search != "" {
		w.where("(u.email ILIKE ? OR u.full_name ILIKE ?)", likePattern(f.Search))
	}

	total, err := c.count(ctx, `SELECT COUNT(*) FROM users u`+w.sql(), w.args)
	if err != nil {
		return nil, 0, err
	}

	page := f.Page.Normalize(store.MaxPageSize)
	q := `SELECT ` + userColumns + ` FROM users u` + w.sql() +
		` ORDER BY u.created_at DESC, u.id LIMIT ` + w.add(page.Size) + ` OFFSET ` + w.add(page.Offset())

	rows, err := c.q.QueryContext(ctx, q, w.args...)
	if err != nil {
		return nil, 0, mapPostgresError(err)
	}
	defer rows.Close()

	var out []tenancy.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, u)
	}
	return out, total, mapPostgresError(rows.Err())
}

/* ===================== PROJECTS ===================== */

func (c conn) GetProject(ctx context.Context, id string) (tenancy.ProjectSummary, error) {
	return scanProjectSummary(c.q.QueryRowContext(ctx, projectSummarySelect+` WHERE p.id = $1`, id))
}

func (c conn) ListProjects(ctx context.Context, tenantID string, f store.ProjectFilter) ([]tenancy.ProjectSummary, int, error) {
	var w conds
	w.where("p.tenant_id = ?", tenantID)
	if f.Status != "" {
		w.where("p.status = ?", string(f.Status))
	}
	if f.Search != "" {
		w.where("(p.name ILIKE ? OR p.description ILIKE ?)", likePattern(f.Search))
	}

	total, err := c.count(ctx, `SELECT COUNT(*) FROM projects p`+w.sql(), w.args)
	if err != nil {
		return nil, 0, err
	}

	page := f.Page.Normalize(store.MaxPageSize)
	q := projectSummarySelect + w.sql() +
		` ORDER BY p.created_at DESC, p.id LIMIT ` + w.add(page.Size) + ` OFFSET ` + w.add(page.Offset())

	rows, err := c.q.QueryContext(ctx, q, w.args...)
	if err != nil {
		return nil, 0, mapPostgresError(err)
	}
	defer rows.Close()

	var out []tenancy.ProjectSummary
	for rows.Next() {
		p, err := scanProjectSummary(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, mapPostgresError(rows.Err())
}

/* ===================== TASKS ===================== */

func (c conn) GetTask(ctx context.Context, id string) (tenancy.TaskView, error) {
	return scanTaskView(c.q.QueryRowContext(ctx, taskViewSelect+` WHERE k.id = $1`, id))
}

func (c conn) ListTasks(ctx context.Context, projectID string, f store.TaskFilter) ([]tenancy.TaskView, int, error) {
	var w conds
	w.where("k.project_id = ?", projectID)
	if f.Status != "" {
		w.where("k.status = ?", string(f.Status))
	}
	if f.Priority != "" {
		w.where("k.priority = ?", string(f.Priority))
	}
	if f.AssignedTo != "" {
		w.where("k.assigned_to = ?", f.AssignedTo)
	}
	if f.Search != "" {
		w.where("(k.title ILIKE ? OR k.description ILIKE ?)", likePattern(f.Search))
	}

	total, err := c.count(ctx, `SELECT COUNT(*) FROM tasks k`+w.sql(), w.args)
	if err != nil {
		return nil, 0, err
	}

	page := f.Page.Normalize(store.MaxPageSize)
	q := taskViewSelect + w.sql() + ` ORDER BY
		CASE k.priority WHEN 'high' THEN 3 WHEN 'medium' THEN 2 WHEN 'low' THEN 1 ELSE 0 END DESC,
		k.due_date ASC NULLS LAST, k.created_at DESC, k.id
		LIMIT ` + w.add(page.Size) + ` OFFSET ` + w.add(page.Offset())

	rows, err := c.q.QueryContext(ctx, q, w.args...)
	if err != nil {
		return nil, 0, mapPostgresError(err)
	}
	defer rows.Close()

	var out []tenancy.TaskView
	for rows.Next() {
		v, err := scanTaskView(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, v)
	}
	return out, total, mapPostgresError(rows.Err())
}
