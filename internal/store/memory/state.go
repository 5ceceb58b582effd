package memory

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"strings"
	"time"

	"workspace-platform/internal/rbac"
	"workspace-platform/internal/store"
	"workspace-platform/internal/tenancy"
)

type state struct {
	tenants  map[string]tenancy.Tenant
	users    map[string]tenancy.User
	projects map[string]tenancy.Project
	tasks    map[string]tenancy.Task
}

var _ store.Tx = (*state)(nil)

func newState() *state {
	return &state{
		tenants:  map[string]tenancy.Tenant{},
		users:    map[string]tenancy.User{},
		projects: map[string]tenancy.Project{},
		tasks:    map[string]tenancy.Task{},
	}
}

func (s *state) clone() *state {
	return &state{
		tenants:  maps.Clone(s.tenants),
		users:    maps.Clone(s.users),
		projects: maps.Clone(s.projects),
		tasks:    maps.Clone(s.tasks),
	}
}

/* ===================== READS ===================== */

func (s *state) GetPrincipalByID(_ context.Context, id string) (tenancy.PrincipalRecord, error) {
	u, ok := s.users[id]
	if !ok {
		return tenancy.PrincipalRecord{}, store.ErrNotFound
	}
	rec := tenancy.PrincipalRecord{
		ID:       u.ID,
		TenantID: u.TenantID,
		Email:    u.Email,
		FullName: u.FullName,
		Role:     u.Role,
		IsActive: u.IsActive,
	}
	if t, ok := s.tenants[u.TenantID]; ok {
		rec.TenantStatus = t.Status
	}
	return rec, nil
}

func (s *state) LocateEntity(_ context.Context, ref rbac.EntityRef) (rbac.Facts, error) {
	f := rbac.Facts{Type: ref.Type, ID: ref.ID}
	switch ref.Type {
	case rbac.EntityTenant:
		if _, ok := s.tenants[ref.ID]; !ok {
			return rbac.Facts{}, store.ErrNotFound
		}
		f.TenantID = ref.ID
	case rbac.EntityUser:
		u, ok := s.users[ref.ID]
		if !ok {
			return rbac.Facts{}, store.ErrNotFound
		}
		f.TenantID = u.TenantID
	case rbac.EntityProject:
		p, ok := s.projects[ref.ID]
		if !ok {
			return rbac.Facts{}, store.ErrNotFound
		}
		f.TenantID = p.TenantID
		f.CreatorID = p.CreatedBy
	case rbac.EntityTask:
		t, ok := s.tasks[ref.ID]
		if !ok {
			return rbac.Facts{}, store.ErrNotFound
		}
		f.TenantID = t.TenantID
		f.CreatorID = t.CreatedBy
		f.AssigneeID = t.AssignedTo
	default:
		return rbac.Facts{}, store.ErrNotFound
	}
	return f, nil
}

func (s *state) CountByTenant(_ context.Context, tenantID string, dim tenancy.Dimension) (int, error) {
	n := 0
	switch dim {
	case tenancy.DimensionUsers:
		for _, u := range s.users {
			if u.TenantID == tenantID {
				n++
			}
		}
	case tenancy.DimensionProjects:
		for _, p := range s.projects {
			if p.TenantID == tenantID {
				n++
			}
		}
	default:
		return 0, fmt.Errorf("memory: unknown dimension %q", dim)
	}
	return n, nil
}

func (s *state) GetTenantLimits(_ context.Context, tenantID string) (tenancy.Limits, error) {
	t, ok := s.tenants[tenantID]
	if !ok {
		return tenancy.Limits{}, store.ErrNotFound
	}
	return t.Limits(), nil
}

func (s *state) GetTenant(_ context.Context, id string) (tenancy.Tenant, error) {
	t, ok := s.tenants[id]
	if !ok {
		return tenancy.Tenant{}, store.ErrNotFound
	}
	return t, nil
}

func (s *state) GetTenantBySubdomain(_ context.Context, subdomain string) (tenancy.Tenant, error) {
	for _, t := range s.tenants {
		if strings.EqualFold(t.Subdomain, subdomain) {
			return t, nil
		}
	}
	return tenancy.Tenant{}, store.ErrNotFound
}

func (s *state) GetTenantStats(ctx context.Context, id string) (tenancy.TenantStats, error) {
	if _, ok := s.tenants[id]; !ok {
		return tenancy.TenantStats{}, store.ErrNotFound
	}
	var st tenancy.TenantStats
	st.TotalUsers, _ = s.CountByTenant(ctx, id, tenancy.DimensionUsers)
	st.TotalProjects, _ = s.CountByTenant(ctx, id, tenancy.DimensionProjects)
	for _, t := range s.tasks {
		if t.TenantID == id {
			st.TotalTasks++
		}
	}
	return st, nil
}

func (s *state) ListTenants(ctx context.Context, f store.TenantFilter) ([]tenancy.TenantSummary, int, error) {
	var matched []tenancy.Tenant
	for _, t := range s.tenants {
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		if f.Plan != "" && t.SubscriptionPlan != f.Plan {
			continue
		}
		matched = append(matched, t)
	}
	sort.Slice(matched, func(i, j int) bool {
		return newerFirst(matched[i].CreatedAt, matched[j].CreatedAt, matched[i].ID, matched[j].ID)
	})

	page := paginate(matched, f.Page)
	out := make([]tenancy.TenantSummary, 0, len(page))
	for _, t := range page {
		users, _ := s.CountByTenant(ctx, t.ID, tenancy.DimensionUsers)
		projects, _ := s.CountByTenant(ctx, t.ID, tenancy.DimensionProjects)
		out = append(out, tenancy.TenantSummary{Tenant: t, UserCount: users, ProjectCount: projects})
	}
	return out, len(matched), nil
}

func (s *state) GetUser(_ context.Context, id string) (tenancy.User, error) {
	u, ok := s.users[id]
	if !ok {
		return tenancy.User{}, store.ErrNotFound
	}
	return u, nil
}

func (s *state) FindUserByEmail(_ context.Context, tenantID, email string) (tenancy.User, error) {
	for _, u := range s.users {
		if u.TenantID == tenantID && strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return tenancy.User{}, store.ErrNotFound
}

func (s *state) FindSuperAdminByEmail(ctx context.Context, email string) (tenancy.User, error) {
	u, err := s.FindUserByEmail(ctx, "", email)
	if err != nil {
		return tenancy.User{}, err
	}
	if !rbac.IsSuperAdmin(u.Role) {
		return tenancy.User{}, store.ErrNotFound
	}
	return u, nil
}

func (s *state) ListUsers(_ context.Context, tenantID string, f store.UserFilter) ([]tenancy.User, int, error) {
	var matched []tenancy.User
	for _, u := range s.users {
		if u.TenantID != tenantID {
			continue
		}
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if f.Search != "" && !containsFold(u.Email, f.Search) && !containsFold(u.FullName, f.Search) {
			continue
		}
		matched = append(matched, u)
	}
	sort.Slice(matched, func(i, j int) bool {
		return newerFirst(matched[i].CreatedAt, matched[j].CreatedAt, matched[i].ID, matched[j].ID)
	})
	return paginate(matched, f.Page), len(matched), nil
}

func (s *state) projectSummary(p tenancy.Project) tenancy.ProjectSummary {
	out := tenancy.ProjectSummary{Project: p}
	if u, ok := s.users[p.CreatedBy]; ok {
		out.CreatorName = u.FullName
	}
	for _, t := range s.tasks {
		if t.ProjectID != p.ID {
			continue
		}
		out.TaskCount++
		if t.Status == tenancy.TaskStatusCompleted {
			out.CompletedTaskCount++
		}
	}
	return out
}

func (s *state) GetProject(_ context.Context, id string) (tenancy.ProjectSummary, error) {
	p, ok := s.projects[id]
	if !ok {
		return tenancy.ProjectSummary{}, store.ErrNotFound
	}
	return s.projectSummary(p), nil
}

func (s *state) ListProjects(_ context.Context, tenantID string, f store.ProjectFilter) ([]tenancy.ProjectSummary, int, error) {
	var matched []tenancy.Project
	for _, p := range s.projects {
		if p.TenantID != tenantID {
			continue
		}
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		if f.Search != "" && !containsFold(p.Name, f.Search) && !containsFold(p.Description, f.Search) {
			continue
		}
		matched = append(matched, p)
	}
	sort.Slice(matched, func(i, j int) bool {
		return newerFirst(matched[i].CreatedAt, matched[j].CreatedAt, matched[i].ID, matched[j].ID)
	})

	page := paginate(matched, f.Page)
	out := make([]tenancy.ProjectSummary, 0, len(page))
	for _, p := range page {
		out = append(out, s.projectSummary(p))
	}
	return out, len(matched), nil
}

func (s *state) taskView(t tenancy.Task) tenancy.TaskView {
	out := tenancy.TaskView{Task: t}
	if u, ok := s.users[t.AssignedTo]; ok {
		out.AssigneeName = u.FullName
		out.AssigneeEmail = u.Email
	}
	return out
}

func (s *state) GetTask(_ context.Context, id string) (tenancy.TaskView, error) {
	t, ok := s.tasks[id]
	if !ok {
		return tenancy.TaskView{}, store.ErrNotFound
	}
	return s.taskView(t), nil
}

func (s *state) ListTasks(_ context.Context, projectID string, f store.TaskFilter) ([]tenancy.TaskView, int, error) {
	var matched []tenancy.Task
	for _, t := range s.tasks {
		if t.ProjectID != projectID {
			continue
		}
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		if f.Priority != "" && t.Priority != f.Priority {
			continue
		}
		if f.AssignedTo != "" && t.AssignedTo != f.AssignedTo {
			continue
		}
		if f.Search != "" && !containsFold(t.Title, f.Search) && !containsFold(t.Description, f.Search) {
			continue
		}
		matched = append(matched, t)
	}
	sort.Slice(matched, func(i, j int) bool { return taskLess(matched[i], matched[j]) })

	page := paginate(matched, f.Page)
	out := make([]tenancy.TaskView, 0, len(page))
	for _, t := range page {
		out = append(out, s.taskView(t))
	}
	return out, len(matched), nil
}

/* ===================== WRITES ===================== */

func (s *state) LockQuota(context.Context, string, tenancy.Dimension) error { return nil }

func (s *state) InsertTenant(_ context.Context, t tenancy.Tenant) error {
	if _, ok := s.tenants[t.ID]; ok {
		return store.ErrConflict
	}
	for _, other := range s.tenants {
		if strings.EqualFold(other.Subdomain, t.Subdomain) {
			return store.ErrConflict
		}
	}
	s.tenants[t.ID] = t
	return nil
}

func (s *state) UpdateTenant(_ context.Context, id string, p tenancy.TenantPatch, now time.Time) (tenancy.Tenant, error) {
	t, ok := s.tenants[id]
	if !ok {
		return tenancy.Tenant{}, store.ErrNotFound
	}
	p.Apply(&t, now)
	s.tenants[id] = t
	return t, nil
}

func (s *state) InsertUser(_ context.Context, u tenancy.User) error {
	if _, ok := s.users[u.ID]; ok {
		return store.ErrConflict
	}
	if u.TenantID != "" {
		if _, ok := s.tenants[u.TenantID]; !ok {
			return store.ErrInvalidReference
		}
	}
	for _, other := range s.users {
		if other.TenantID == u.TenantID && strings.EqualFold(other.Email, u.Email) {
			return store.ErrConflict
		}
	}
	s.users[u.ID] = u
	return nil
}

func (s *state) UpdateUser(_ context.Context, id string, p tenancy.UserPatch, now time.Time) (tenancy.User, error) {
	u, ok := s.users[id]
	if !ok {
		return tenancy.User{}, store.ErrNotFound
	}
	p.Apply(&u, now)
	s.users[id] = u
	return u, nil
}

func (s *state) DeleteUser(_ context.Context, id string) error {
	if _, ok := s.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.users, id)

	for pid, p := range s.projects {
		if p.CreatedBy == id {
			p.CreatedBy = ""
			s.projects[pid] = p
		}
	}
	for tid, t := range s.tasks {
		changed := false
		if t.CreatedBy == id {
			t.CreatedBy = ""
			changed = true
		}
		if t.AssignedTo == id {
			t.AssignedTo = ""
			changed = true
		}
		if changed {
			s.tasks[tid] = t
		}
	}
	return nil
}

func (s *state) InsertProject(_ context.Context, p tenancy.Project) error {
	if _, ok := s.projects[p.ID]; ok {
		return store.ErrConflict
	}
	if _, ok := s.tenants[p.TenantID]; !ok {
		return store.ErrInvalidReference
	}
	s.projects[p.ID] = p
	return nil
}

func (s *state) UpdateProject(_ context.Context, id string, patch tenancy.ProjectPatch, now time.Time) (tenancy.Project, error) {
	p, ok := s.projects[id]
	if !ok {
		return tenancy.Project{}, store.ErrNotFound
	}
	patch.Apply(&p, now)
	s.projects[id] = p
	return p, nil
}

func (s *state) DeleteProject(_ context.Context, id string) error {
	if _, ok := s.projects[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.projects, id)
	for tid, t := range s.tasks {
		if t.ProjectID == id {
			delete(s.tasks, tid)
		}
	}
	return nil
}

func (s *state) InsertTask(_ context.Context, t tenancy.Task) error {
	if _, ok := s.tasks[t.ID]; ok {
		return store.ErrConflict
	}
	if _, ok := s.projects[t.ProjectID]; !ok {
		return store.ErrInvalidReference
	}
	if t.AssignedTo != "" {
		if _, ok := s.users[t.AssignedTo]; !ok {
			return store.ErrInvalidReference
		}
	}
	s.tasks[t.ID] = t
	return nil
}

func (s *state) UpdateTask(_ context.Context, id string, p tenancy.TaskPatch, now time.Time) (tenancy.Task, error) {
	t, ok := s.tasks[id]
	if !ok {
		return tenancy.Task{}, store.ErrNotFound
	}
	if p.AssignedTo.Set && p.AssignedTo.Value != nil {
		if _, ok := s.users[*p.AssignedTo.Value]; !ok {
			return tenancy.Task{}, store.ErrInvalidReference
		}
	}
	p.Apply(&t, now)
	s.tasks[id] = t
	return t, nil
}

func (s *state) DeleteTask(_ context.Context, id string) error {
	if _, ok := s.tasks[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.tasks, id)
	return nil
}

/* ===================== HELPERS ===================== */

func paginate[T any](items []T, p store.Page) []T {
	lo, hi := p.Normalize(store.MaxPageSize).Window(len(items))
	return items[lo:hi]
}

func newerFirst(a, b time.Time, aID, bID string) bool {
	if !a.Equal(b) {
		return a.After(b)
	}
	return aID < bID
}

// taskLess orders by priority (high first), then due date (soonest first,
// undated last), then creation time.
func taskLess(a, b tenancy.Task) bool {
	if ra, rb := a.Priority.Rank(), b.Priority.Rank(); ra != rb {
		return ra > rb
	}
	switch {
	case a.DueDate != nil && b.DueDate == nil:
		return true
	case a.DueDate == nil && b.DueDate != nil:
		return false
	case a.DueDate != nil && b.DueDate != nil && !a.DueDate.Equal(*b.DueDate):
		return a.DueDate.Before(*b.DueDate)
	}
	return newerFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
