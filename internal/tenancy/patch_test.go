package tenancy

import (
	"encoding/json"
	"testing"
	"time"

	"workspace-platform/internal/rbac"

	"github.com/stretchr/testify/require"
)

func TestNullableDistinguishesAbsentFromNull(t *testing.T) {
	var body struct {
		AssignedTo Nullable[string] `json:"assigned_to"`
		DueDate    Nullable[string] `json:"due_date"`
		Title      Nullable[string] `json:"title"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"assigned_to": null, "due_date": "2026-01-02"}`), &body))

	require.True(t, body.AssignedTo.Set)
	require.Nil(t, body.AssignedTo.Value)
	require.True(t, body.DueDate.Set)
	require.Equal(t, "2026-01-02", *body.DueDate.Value)
	require.False(t, body.Title.Set)
}

func TestTaskPatchFieldsAndApply(t *testing.T) {
	due := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	task := Task{Title: "old", AssignedTo: "u1", DueDate: &due}
	title := "new"
	p := TaskPatch{Title: &title, AssignedTo: SetNull[string](), DueDate: SetNull[time.Time]()}

	require.Equal(t, []rbac.Field{rbac.FieldAssignedTo, rbac.FieldDueDate, rbac.FieldTitle}, p.Fields().Sorted())

	now := time.Now()
	p.Apply(&task, now)
	require.Equal(t, "new", task.Title)
	require.Empty(t, task.AssignedTo)
	require.Nil(t, task.DueDate)
	require.Equal(t, now, task.UpdatedAt)
}

func TestTenantPatchReportsRequestedFields(t *testing.T) {
	same := 5
	p := TenantPatch{MaxUsers: &same}
	require.True(t, p.Fields().Has(rbac.FieldMaxUsers))
	require.Len(t, TenantPatch{}.Fields(), 0)
}
