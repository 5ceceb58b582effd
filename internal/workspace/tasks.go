package workspace

import (
	"context"
	"strings"
	"time"

	"workspace-platform/internal/audit"
	"workspace-platform/internal/rbac"
	"workspace-platform/internal/store"
	"workspace-platform/internal/tenancy"
)

// CreateTask adds a task to a project. The task inherits the project's
// tenant; an assignee must belong to that same tenant.
func (s *Service) CreateTask(ctx context.Context, p rbac.Principal, projectID string, req CreateTaskRequest) (tenancy.Task, error) {
	req.normalize()
	if err := validateStruct(&req); err != nil {
		return tenancy.Task{}, err
	}
	var due *time.Time
	if req.DueDate != "" {
		d, err := parseDate(req.DueDate)
		if err != nil {
			return tenancy.Task{}, err
		}
		due = &d
	}

	now := s.timestamp()
	t := tenancy.Task{
		ID:          newID(),
		ProjectID:   projectID,
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		AssignedTo:  req.AssignedTo,
		CreatedBy:   p.ID,
		DueDate:     due,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		facts, err := s.locateAndAuthorize(ctx, tx, p, rbac.ActionTaskCreate, rbac.Ref(rbac.EntityProject, projectID), nil)
		if err != nil {
			return err
		}
		if err := checkAssignee(ctx, tx, t.AssignedTo, facts.TenantID); err != nil {
			return err
		}
		t.TenantID = facts.TenantID
		return tx.InsertTask(ctx, t)
	})
	if err != nil {
		return tenancy.Task{}, err
	}
	s.record(ctx, p, audit.ActionCreateTask, t.TenantID, rbac.Ref(rbac.EntityTask, t.ID))
	return t, nil
}

func (s *Service) GetTask(ctx context.Context, p rbac.Principal, id string) (tenancy.TaskView, error) {
	if _, err := s.locateAndAuthorize(ctx, s.store, p, rbac.ActionTaskRead, rbac.Ref(rbac.EntityTask, id), nil); err != nil {
		return tenancy.TaskView{}, err
	}
	return s.store.GetTask(ctx, id)
}

// ListTasks lists a project's tasks, most urgent first.
func (s *Service) ListTasks(ctx context.Context, p rbac.Principal, projectID string, q TaskQuery) (List[tenancy.TaskView], error) {
	if _, err := s.locateAndAuthorize(ctx, s.store, p, rbac.ActionTaskList, rbac.Ref(rbac.EntityProject, projectID), nil); err != nil {
		return List[tenancy.TaskView]{}, err
	}
	if err := validateStruct(&q); err != nil {
		return List[tenancy.TaskView]{}, err
	}
	page := q.page(defaultTaskPageSize)
	items, total, err := s.store.ListTasks(ctx, projectID, store.TaskFilter{
		Status:     q.Status,
		Priority:   q.Priority,
		AssignedTo: q.AssignedTo,
		Search:     strings.TrimSpace(q.Search),
		Page:       page,
	})
	if err != nil {
		return List[tenancy.TaskView]{}, err
	}
	return newList(items, total, page), nil
}

// UpdateTask edits a task. A new assignee is checked against the task's
// tenant inside the same transaction as the write.
func (s *Service) UpdateTask(ctx context.Context, p rbac.Principal, id string, req UpdateTaskRequest) (tenancy.Task, error) {
	req.normalize()
	if err := validateStruct(&req); err != nil {
		return tenancy.Task{}, err
	}
	patch, err := req.patch()
	if err != nil {
		return tenancy.Task{}, err
	}
	fields := req.planKeys.addTo(patch.Fields())
	if len(fields) == 0 {
		return tenancy.Task{}, ErrNothingToUpdate
	}
	return s.updateTask(ctx, p, id, rbac.ActionTaskUpdate, audit.ActionUpdateTask, patch, fields)
}

// UpdateTaskStatus moves a task through its workflow.
func (s *Service) UpdateTaskStatus(ctx context.Context, p rbac.Principal, id string, req UpdateTaskStatusRequest) (tenancy.Task, error) {
	if err := validateStruct(&req); err != nil {
		return tenancy.Task{}, err
	}
	patch := tenancy.TaskPatch{Status: &req.Status}
	return s.updateTask(ctx, p, id, rbac.ActionTaskUpdateStatus, audit.ActionUpdateTaskStatus, patch, patch.Fields())
}

func (s *Service) updateTask(ctx context.Context, p rbac.Principal, id string, action rbac.Action, event audit.Action, patch tenancy.TaskPatch, fields rbac.FieldSet) (tenancy.Task, error) {
	var out tenancy.Task
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		facts, err := s.locateAndAuthorize(ctx, tx, p, action, rbac.Ref(rbac.EntityTask, id), fields)
		if err != nil {
			return err
		}
		if patch.AssignedTo.Value != nil {
			if err := checkAssignee(ctx, tx, *patch.AssignedTo.Value, facts.TenantID); err != nil {
				return err
			}
		}
		out, err = tx.UpdateTask(ctx, id, patch, s.timestamp())
		return err
	})
	if err != nil {
		return tenancy.Task{}, err
	}
	s.record(ctx, p, event, out.TenantID, rbac.Ref(rbac.EntityTask, id))
	return out, nil
}

func (s *Service) DeleteTask(ctx context.Context, p rbac.Principal, id string) error {
	var facts rbac.Facts
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		facts, err = s.locateAndAuthorize(ctx, tx, p, rbac.ActionTaskDelete, rbac.Ref(rbac.EntityTask, id), nil)
		if err != nil {
			return err
		}
		return tx.DeleteTask(ctx, id)
	})
	if err != nil {
		return err
	}
	s.record(ctx, p, audit.ActionDeleteTask, facts.TenantID, rbac.Ref(rbac.EntityTask, id))
	return nil
}
