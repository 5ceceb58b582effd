package tenancy

import (
	"bytes"
	"encoding/json"
	"time"

	"workspace-platform/internal/rbac"
)

// Patches carry partial updates. A nil pointer leaves the column unchanged.
// Fields reports what a patch asks to change so the engine can judge it.

// Nullable distinguishes "leave unchanged" (Set false) from "set to null"
// (Set true, Value nil) for optional references.
type Nullable[T any] struct {
	Set   bool
	Value *T
}

func SetTo[T any](v T) Nullable[T] { return Nullable[T]{Set: true, Value: &v} }

func SetNull[T any]() Nullable[T] { return Nullable[T]{Set: true} }

// UnmarshalJSON only runs for keys present in the document, so an absent key
// leaves Set false while an explicit null clears the value.
func (n *Nullable[T]) UnmarshalJSON(b []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		n.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

type TenantPatch struct {
	Name             *string
	Status           *TenantStatus
	SubscriptionPlan *Plan
	MaxUsers         *int
	MaxProjects      *int
}

func (p TenantPatch) Fields() rbac.FieldSet {
	fs := rbac.Fields()
	if p.Name != nil {
		fs.Add(rbac.FieldName)
	}
	if p.Status != nil {
		fs.Add(rbac.FieldStatus)
	}
	if p.SubscriptionPlan != nil {
		fs.Add(rbac.FieldSubscriptionPlan)
	}
	if p.MaxUsers != nil {
		fs.Add(rbac.FieldMaxUsers)
	}
	if p.MaxProjects != nil {
		fs.Add(rbac.FieldMaxProjects)
	}
	return fs
}

func (p TenantPatch) Apply(t *Tenant, now time.Time) {
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.SubscriptionPlan != nil {
		t.SubscriptionPlan = *p.SubscriptionPlan
	}
	if p.MaxUsers != nil {
		t.MaxUsers = *p.MaxUsers
	}
	if p.MaxProjects != nil {
		t.MaxProjects = *p.MaxProjects
	}
	t.UpdatedAt = now
}

type UserPatch struct {
	FullName *string
	Role     *rbac.Role
	IsActive *bool
}

func (p UserPatch) Fields() rbac.FieldSet {
	fs := rbac.Fields()
	if p.FullName != nil {
		fs.Add(rbac.FieldFullName)
	}
	if p.Role != nil {
		fs.Add(rbac.FieldRole)
	}
	if p.IsActive != nil {
		fs.Add(rbac.FieldIsActive)
	}
	return fs
}

func (p UserPatch) Apply(u *User, now time.Time) {
	if p.FullName != nil {
		u.FullName = *p.FullName
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.IsActive != nil {
		u.IsActive = *p.IsActive
	}
	u.UpdatedAt = now
}

type ProjectPatch struct {
	Name        *string
	Description *string
	Status      *ProjectStatus
}

func (p ProjectPatch) Fields() rbac.FieldSet {
	fs := rbac.Fields()
	if p.Name != nil {
		fs.Add(rbac.FieldName)
	}
	if p.Description != nil {
		fs.Add(rbac.FieldDescription)
	}
	if p.Status != nil {
		fs.Add(rbac.FieldStatus)
	}
	return fs
}

func (p ProjectPatch) Apply(pr *Project, now time.Time) {
	if p.Name != nil {
		pr.Name = *p.Name
	}
	if p.Description != nil {
		pr.Description = *p.Description
	}
	if p.Status != nil {
		pr.Status = *p.Status
	}
	pr.UpdatedAt = now
}

type TaskPatch struct {
	Title       *string
	Description *string
	Status      *TaskStatus
	Priority    *Priority
	AssignedTo  Nullable[string]
	DueDate     Nullable[time.Time]
}

func (p TaskPatch) Fields() rbac.FieldSet {
	fs := rbac.Fields()
	if p.Title != nil {
		fs.Add(rbac.FieldTitle)
	}
	if p.Description != nil {
		fs.Add(rbac.FieldDescription)
	}
	if p.Status != nil {
		fs.Add(rbac.FieldStatus)
	}
	if p.Priority != nil {
		fs.Add(rbac.FieldPriority)
	}
	if p.AssignedTo.Set {
		fs.Add(rbac.FieldAssignedTo)
	}
	if p.DueDate.Set {
		fs.Add(rbac.FieldDueDate)
	}
	return fs
}

func (p TaskPatch) Apply(t *Task, now time.Time) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.AssignedTo.Set {
		t.AssignedTo = ""
		if p.AssignedTo.Value != nil {
			t.AssignedTo = *p.AssignedTo.Value
		}
	}
	if p.DueDate.Set {
		t.DueDate = nil
		if p.DueDate.Value != nil {
			d := *p.DueDate.Value
			t.DueDate = &d
		}
	}
	t.UpdatedAt = now
}
