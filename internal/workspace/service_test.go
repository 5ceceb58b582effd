package workspace

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"workspace-platform/internal/audit"
	"workspace-platform/internal/rbac"
	"workspace-platform/internal/store"
	"workspace-platform/internal/tenancy"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestAddUser_QuotaEndToEnd(t *testing.T) {
	e := newEnv(t)
	f := e.register(t, "acme")
	ctx := context.Background()

	// The admin is user 1 of 5.
	var last rbac.Principal
	for i := 0; i < 4; i++ {
		last = e.addUser(t, f, "member"+string(rune('a'+i))+"@acme.test")
	}

	_, err := e.svc.AddUser(ctx, f.admin, f.tenant.ID, AddUserRequest{Email: "sixth@acme.test", Password: testPassword, FullName: "Six"})
	requireDenied(t, err, rbac.ReasonQuotaExceeded)

	require.NoError(t, e.svc.DeleteUser(ctx, f.admin, last.ID))

	_, err = e.svc.AddUser(ctx, f.admin, f.tenant.ID, AddUserRequest{Email: "sixth@acme.test", Password: testPassword, FullName: "Six"})
	require.NoError(t, err)
}

func TestAddUser_Rules(t *testing.T) {
	e := newEnv(t)
	f := e.register(t, "acme")
	other := e.register(t, "globex")
	member := e.addUser(t, f, "member@acme.test")
	ctx := context.Background()

	_, err := e.svc.AddUser(ctx, member, f.tenant.ID, AddUserRequest{Email: "x@acme.test", Password: testPassword, FullName: "X"})
	requireDenied(t, err, rbac.ReasonInsufficientRole)

	_, err = e.svc.AddUser(ctx, other.admin, f.tenant.ID, AddUserRequest{Email: "x@acme.test", Password: testPassword, FullName: "X"})
	requireDenied(t, err, rbac.ReasonForeignTenant)

	_, err = e.svc.AddUser(ctx, f.admin, f.tenant.ID, AddUserRequest{Email: "MEMBER@acme.test", Password: testPassword, FullName: "Dup"})
	require.ErrorIs(t, err, store.ErrConflict)

	_, err = e.svc.AddUser(ctx, f.admin, f.tenant.ID, AddUserRequest{Email: "root@acme.test", Password: testPassword, FullName: "R", Role: rbac.RoleSuperAdmin})
	require.ErrorIs(t, err, ErrInvalidArgument)

	// Same email in another tenant is fine.
	_, err = e.svc.AddUser(ctx, other.admin, other.tenant.ID, AddUserRequest{Email: "member@acme.test", Password: testPassword, FullName: "Twin"})
	require.NoError(t, err)
}

func TestCreateProject_ConcurrentCreatesRespectQuota(t *testing.T) {
	e := newEnv(t)
	f := e.register(t, "acme")
	ctx := context.Background()

	for _, name := range []string{"one", "two"} {
		_, err := e.svc.CreateProject(ctx, f.admin, CreateProjectRequest{Name: name})
		require.NoError(t, err)
	}

	const racers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		denials   int
	)
	start := make(chan struct{})
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := e.svc.CreateProject(ctx, f.admin, CreateProjectRequest{Name: "racer"})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case rbac.IsDenied(err, rbac.ReasonQuotaExceeded):
				denials++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	require.Equal(t, 1, successes)
	require.Equal(t, racers-1, denials)
	n, err := e.store.CountByTenant(ctx, f.tenant.ID, tenancy.DimensionProjects)
	require.NoError(t, err)
	require.Equal(t, 3, n)
}

func TestCreateProject_SuperAdminNeedsTenant(t *testing.T) {
	e := newEnv(t)
	root := e.superAdmin(t)

	_, err := e.svc.CreateProject(context.Background(), root, CreateProjectRequest{Name: "ops"})
	requireDenied(t, err, rbac.ReasonTenantRequired)
}

func TestTaskOwnershipEndToEnd(t *testing.T) {
	e := newEnv(t)
	f := e.register(t, "acme")
	alice := e.addUser(t, f, "alice@acme.test")
	bob := e.addUser(t, f, "bob@acme.test")
	ctx := context.Background()

	project, err := e.svc.CreateProject(ctx, alice, CreateProjectRequest{Name: "Launch"})
	require.NoError(t, err)
	task, err := e.svc.CreateTask(ctx, alice, project.ID, CreateTaskRequest{Title: "Write copy", AssignedTo: bob.ID})
	require.NoError(t, err)
	require.Equal(t, f.tenant.ID, task.TenantID)
	require.Equal(t, tenancy.TaskStatusTodo, task.Status)
	require.Equal(t, tenancy.PriorityMedium, task.Priority)

	err = e.svc.DeleteTask(ctx, bob, task.ID)
	requireDenied(t, err, rbac.ReasonNotOwner)

	// Being the assignee grants no write access.
	_, err = e.svc.UpdateTaskStatus(ctx, bob, task.ID, UpdateTaskStatusRequest{Status: tenancy.TaskStatusCompleted})
	requireDenied(t, err, rbac.ReasonNotOwner)

	before := len(e.audit.Events())
	require.NoError(t, e.svc.DeleteTask(ctx, alice, task.ID))

	events := e.audit.Events()[before:]
	require.Len(t, events, 1)
	require.Equal(t, audit.ActionDeleteTask, events[0].Action)
	require.Equal(t, task.ID, events[0].EntityID)
	require.Equal(t, alice.ID, events[0].ActorUserID)

	_, err = e.svc.GetTask(ctx, alice, task.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestTenantIsolation(t *testing.T) {
	e := newEnv(t)
	acme := e.register(t, "acme")
	globex := e.register(t, "globex")
	ctx := context.Background()

	project, err := e.svc.CreateProject(ctx, acme.admin, CreateProjectRequest{Name: "Secret"})
	require.NoError(t, err)

	_, err = e.svc.GetProject(ctx, globex.admin, project.ID)
	requireDenied(t, err, rbac.ReasonForeignTenant)
	_, err = e.svc.UpdateProject(ctx, globex.admin, project.ID, UpdateProjectRequest{Name: ptr("Mine")})
	requireDenied(t, err, rbac.ReasonForeignTenant)
	err = e.svc.DeleteProject(ctx, globex.admin, project.ID)
	requireDenied(t, err, rbac.ReasonForeignTenant)
	_, err = e.svc.CreateTask(ctx, globex.admin, project.ID, CreateTaskRequest{Title: "sneaky"})
	requireDenied(t, err, rbac.ReasonForeignTenant)
	_, err = e.svc.ListUsers(ctx, globex.admin, acme.tenant.ID, UserQuery{})
	requireDenied(t, err, rbac.ReasonForeignTenant)
	_, err = e.svc.GetTenant(ctx, globex.admin, acme.tenant.ID)
	requireDenied(t, err, rbac.ReasonForeignTenant)

	// A missing id looks the same from outside: not found.
	_, err = e.svc.GetProject(ctx, globex.admin, uuid.NewString())
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestAssigneeMustShareTenant(t *testing.T) {
	e := newEnv(t)
	acme := e.register(t, "acme")
	globex := e.register(t, "globex")
	outsider := e.addUser(t, globex, "out@globex.test")
	ctx := context.Background()

	project, err := e.svc.CreateProject(ctx, acme.admin, CreateProjectRequest{Name: "P"})
	require.NoError(t, err)

	_, err = e.svc.CreateTask(ctx, acme.admin, project.ID, CreateTaskRequest{Title: "T", AssignedTo: outsider.ID})
	require.ErrorIs(t, err, ErrInvalidReference)

	task, err := e.svc.CreateTask(ctx, acme.admin, project.ID, CreateTaskRequest{Title: "T"})
	require.NoError(t, err)

	_, err = e.svc.UpdateTask(ctx, acme.admin, task.ID, UpdateTaskRequest{AssignedTo: tenancy.SetTo(outsider.ID)})
	require.ErrorIs(t, err, ErrInvalidReference)

	_, err = e.svc.UpdateTask(ctx, acme.admin, task.ID, UpdateTaskRequest{AssignedTo: tenancy.SetTo(uuid.NewString())})
	require.ErrorIs(t, err, ErrInvalidReference)

	_, err = e.svc.UpdateTask(ctx, acme.admin, task.ID, UpdateTaskRequest{AssignedTo: tenancy.SetTo("nope")})
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestUpdateTask(t *testing.T) {
	e := newEnv(t)
	f := e.register(t, "acme")
	alice := e.addUser(t, f, "alice@acme.test")
	ctx := context.Background()

	project, err := e.svc.CreateProject(ctx, alice, CreateProjectRequest{Name: "P"})
	require.NoError(t, err)
	task, err := e.svc.CreateTask(ctx, alice, project.ID, CreateTaskRequest{Title: "T", AssignedTo: alice.ID, DueDate: "2026-05-01"})
	require.NoError(t, err)
	require.NotNil(t, task.DueDate)

	out, err := e.svc.UpdateTask(ctx, alice, task.ID, UpdateTaskRequest{
		Priority:   ptr(tenancy.PriorityHigh),
		AssignedTo: tenancy.SetNull[string](),
		DueDate:    tenancy.SetNull[string](),
	})
	require.NoError(t, err)
	require.Equal(t, tenancy.PriorityHigh, out.Priority)
	require.Empty(t, out.AssignedTo)
	require.Nil(t, out.DueDate)

	_, err = e.svc.UpdateTask(ctx, alice, task.ID, UpdateTaskRequest{})
	require.ErrorIs(t, err, ErrNothingToUpdate)

	_, err = e.svc.UpdateTask(ctx, alice, task.ID, UpdateTaskRequest{DueDate: tenancy.SetTo("05/01/2026")})
	require.ErrorIs(t, err, ErrInvalidArgument)

	// Tenant admins may change any task in their tenant.
	out, err = e.svc.UpdateTaskStatus(ctx, f.admin, task.ID, UpdateTaskStatusRequest{Status: tenancy.TaskStatusInProgress})
	require.NoError(t, err)
	require.Equal(t, tenancy.TaskStatusInProgress, out.Status)
	require.Equal(t, audit.ActionUpdateTaskStatus, e.audit.Actions()[len(e.audit.Actions())-1])
}

func TestUpdateTenant_RestrictedFields(t *testing.T) {
	e := newEnv(t)
	f := e.register(t, "acme")
	root := e.superAdmin(t)
	ctx := context.Background()

	// Same value as stored is still refused.
	_, err := e.svc.UpdateTenant(ctx, f.admin, f.tenant.ID, UpdateTenantRequest{MaxUsers: ptr(f.tenant.MaxUsers)})
	requireDenied(t, err, rbac.ReasonRestrictedField)
	_, err = e.svc.UpdateTenant(ctx, f.admin, f.tenant.ID, UpdateTenantRequest{Status: ptr(tenancy.TenantStatusActive)})
	requireDenied(t, err, rbac.ReasonRestrictedField)

	out, err := e.svc.UpdateTenant(ctx, f.admin, f.tenant.ID, UpdateTenantRequest{Name: ptr("  Acme Corp ")})
	require.NoError(t, err)
	require.Equal(t, "Acme Corp", out.Name)

	out, err = e.svc.UpdateTenant(ctx, root, f.tenant.ID, UpdateTenantRequest{SubscriptionPlan: ptr(tenancy.PlanPro), MaxProjects: ptr(50)})
	require.NoError(t, err)
	require.Equal(t, tenancy.PlanPro, out.SubscriptionPlan)
	require.Equal(t, 50, out.MaxProjects)

	_, err = e.svc.UpdateTenant(ctx, f.admin, f.tenant.ID, UpdateTenantRequest{})
	require.ErrorIs(t, err, ErrNothingToUpdate)
}

func TestPlanKeysOnOtherEntitiesAreRefused(t *testing.T) {
	e := newEnv(t)
	f := e.register(t, "acme")
	alice := e.addUser(t, f, "alice@acme.test")
	ctx := context.Background()

	project, err := e.svc.CreateProject(ctx, alice, CreateProjectRequest{Name: "P"})
	require.NoError(t, err)
	task, err := e.svc.CreateTask(ctx, alice, project.ID, CreateTaskRequest{Title: "T"})
	require.NoError(t, err)

	var userReq UpdateUserRequest
	require.NoError(t, json.Unmarshal([]byte(`{"full_name":"Alice","max_users":5}`), &userReq))
	_, err = e.svc.UpdateUser(ctx, alice, alice.ID, userReq)
	requireDenied(t, err, rbac.ReasonRestrictedField)
	_, err = e.svc.UpdateUser(ctx, f.admin, alice.ID, userReq)
	requireDenied(t, err, rbac.ReasonRestrictedField)

	var projectReq UpdateProjectRequest
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Q","max_projects":null}`), &projectReq))
	_, err = e.svc.UpdateProject(ctx, alice, project.ID, projectReq)
	requireDenied(t, err, rbac.ReasonRestrictedField)

	var taskReq UpdateTaskRequest
	require.NoError(t, json.Unmarshal([]byte(`{"subscription_plan":"pro"}`), &taskReq))
	_, err = e.svc.UpdateTask(ctx, alice, task.ID, taskReq)
	requireDenied(t, err, rbac.ReasonRestrictedField)

	// Nothing was written.
	got, err := e.svc.GetProject(ctx, alice, project.ID)
	require.NoError(t, err)
	require.Equal(t, "P", got.Name)
}

func TestUserSelfService(t *testing.T) {
	e := newEnv(t)
	f := e.register(t, "acme")
	alice := e.addUser(t, f, "alice@acme.test")
	bob := e.addUser(t, f, "bob@acme.test")
	ctx := context.Background()

	out, err := e.svc.UpdateUser(ctx, alice, alice.ID, UpdateUserRequest{FullName: ptr("Alice A.")})
	require.NoError(t, err)
	require.Equal(t, "Alice A.", out.FullName)

	_, err = e.svc.UpdateUser(ctx, alice, alice.ID, UpdateUserRequest{Role: ptr(rbac.RoleTenantAdmin)})
	requireDenied(t, err, rbac.ReasonSelfEscalation)
	_, err = e.svc.UpdateUser(ctx, alice, bob.ID, UpdateUserRequest{FullName: ptr("Bobby")})
	requireDenied(t, err, rbac.ReasonInsufficientRole)

	err = e.svc.DeleteUser(ctx, f.admin, f.admin.ID)
	requireDenied(t, err, rbac.ReasonSelfDeletion)
}

func TestDeleteUserOrphansCreatedWork(t *testing.T) {
	e := newEnv(t)
	f := e.register(t, "acme")
	alice := e.addUser(t, f, "alice@acme.test")
	ctx := context.Background()

	project, err := e.svc.CreateProject(ctx, alice, CreateProjectRequest{Name: "P"})
	require.NoError(t, err)
	task, err := e.svc.CreateTask(ctx, alice, project.ID, CreateTaskRequest{Title: "T", AssignedTo: alice.ID})
	require.NoError(t, err)

	require.NoError(t, e.svc.DeleteUser(ctx, f.admin, alice.ID))

	got, err := e.svc.GetProject(ctx, f.admin, project.ID)
	require.NoError(t, err)
	require.Empty(t, got.CreatedBy)
	view, err := e.svc.GetTask(ctx, f.admin, task.ID)
	require.NoError(t, err)
	require.Empty(t, view.AssignedTo)
	require.Empty(t, view.CreatedBy)
}

func TestDeleteProjectCascades(t *testing.T) {
	e := newEnv(t)
	f := e.register(t, "acme")
	ctx := context.Background()

	project, err := e.svc.CreateProject(ctx, f.admin, CreateProjectRequest{Name: "P"})
	require.NoError(t, err)
	task, err := e.svc.CreateTask(ctx, f.admin, project.ID, CreateTaskRequest{Title: "T"})
	require.NoError(t, err)

	require.NoError(t, e.svc.DeleteProject(ctx, f.admin, project.ID))
	_, err = e.svc.GetTask(ctx, f.admin, task.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestAuditFailureDoesNotAffectOutcomes(t *testing.T) {
	e := newEnv(t)
	f := e.register(t, "acme")
	alice := e.addUser(t, f, "alice@acme.test")
	bob := e.addUser(t, f, "bob@acme.test")
	ctx := context.Background()

	e.audit.FailWith(errors.New("audit sink down"))

	project, err := e.svc.CreateProject(ctx, alice, CreateProjectRequest{Name: "P"})
	require.NoError(t, err)
	_, err = e.svc.UpdateProject(ctx, alice, project.ID, UpdateProjectRequest{Status: ptr(tenancy.ProjectStatusArchived)})
	require.NoError(t, err)
	err = e.svc.DeleteProject(ctx, bob, project.ID)
	requireDenied(t, err, rbac.ReasonNotOwner)
	require.NoError(t, e.svc.DeleteProject(ctx, alice, project.ID))
	_, err = e.svc.AddUser(ctx, f.admin, f.tenant.ID, AddUserRequest{Email: "c@acme.test", Password: testPassword, FullName: "C"})
	require.NoError(t, err)
}

func TestDeniedAndFailedWritesAreNotAudited(t *testing.T) {
	e := newEnv(t)
	f := e.register(t, "acme")
	alice := e.addUser(t, f, "alice@acme.test")
	bob := e.addUser(t, f, "bob@acme.test")
	ctx := context.Background()

	project, err := e.svc.CreateProject(ctx, alice, CreateProjectRequest{Name: "P"})
	require.NoError(t, err)

	before := len(e.audit.Events())
	require.Error(t, e.svc.DeleteProject(ctx, bob, project.ID))
	_, err = e.svc.AddUser(ctx, f.admin, f.tenant.ID, AddUserRequest{Email: "alice@acme.test", Password: testPassword, FullName: "dup"})
	require.ErrorIs(t, err, store.ErrConflict)
	require.Len(t, e.audit.Events(), before)
}

func TestListings(t *testing.T) {
	e := newEnv(t)
	f := e.register(t, "acme")
	e.register(t, "globex")
	root := e.superAdmin(t)
	alice := e.addUser(t, f, "alice@acme.test")
	ctx := context.Background()

	tenants, err := e.svc.ListTenants(ctx, root, TenantQuery{})
	require.NoError(t, err)
	require.Equal(t, 2, tenants.Total)
	require.Equal(t, defaultTenantPageSize, tenants.Limit)

	_, err = e.svc.ListTenants(ctx, f.admin, TenantQuery{})
	requireDenied(t, err, rbac.ReasonInsufficientRole)

	users, err := e.svc.ListUsers(ctx, alice, f.tenant.ID, UserQuery{Search: "ALICE", PageQuery: PageQuery{Limit: 500}})
	require.NoError(t, err)
	require.Equal(t, 1, users.Total)
	require.Equal(t, store.MaxPageSize, users.Limit)

	_, err = e.svc.ListUsers(ctx, alice, f.tenant.ID, UserQuery{Role: "owner"})
	require.ErrorIs(t, err, ErrInvalidArgument)

	project, err := e.svc.CreateProject(ctx, alice, CreateProjectRequest{Name: "P"})
	require.NoError(t, err)
	for _, title := range []string{"a", "b", "c"} {
		_, err := e.svc.CreateTask(ctx, alice, project.ID, CreateTaskRequest{Title: title})
		require.NoError(t, err)
	}

	projects, err := e.svc.ListProjects(ctx, alice, "", ProjectQuery{})
	require.NoError(t, err)
	require.Equal(t, 1, projects.Total)
	require.Equal(t, 3, projects.Items[0].TaskCount)

	tasks, err := e.svc.ListTasks(ctx, alice, project.ID, TaskQuery{PageQuery: PageQuery{Page: 2, Limit: 2}})
	require.NoError(t, err)
	require.Equal(t, 3, tasks.Total)
	require.Equal(t, 2, tasks.TotalPages)
	require.Len(t, tasks.Items, 1)

	// Super admins read across tenants but must name one.
	projects, err = e.svc.ListProjects(ctx, root, f.tenant.ID, ProjectQuery{})
	require.NoError(t, err)
	require.Equal(t, 1, projects.Total)
	_, err = e.svc.ListProjects(ctx, root, "", ProjectQuery{})
	require.ErrorIs(t, err, ErrInvalidArgument)

	details, err := e.svc.GetTenant(ctx, alice, f.tenant.ID)
	require.NoError(t, err)
	require.Equal(t, tenancy.TenantStats{TotalUsers: 2, TotalProjects: 1, TotalTasks: 3}, details.Stats)
}

func TestZeroLimitBlocksCreates(t *testing.T) {
	e := newEnv(t)
	f := e.register(t, "acme")
	e.setLimits(t, f.tenant.ID, 1, 0)
	ctx := context.Background()

	_, err := e.svc.CreateProject(ctx, f.admin, CreateProjectRequest{Name: "P"})
	requireDenied(t, err, rbac.ReasonQuotaExceeded)
	_, err = e.svc.AddUser(ctx, f.admin, f.tenant.ID, AddUserRequest{Email: "b@acme.test", Password: testPassword, FullName: "B"})
	requireDenied(t, err, rbac.ReasonQuotaExceeded)
}
