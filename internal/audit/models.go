package audit

import (
	"time"

	"workspace-platform/internal/rbac"
)

// Event is an immutable, append-only audit log record.
//
// Invariants:
// - Events are never updated or deleted; the Postgres table rejects both.
// - Only committed mutations are recorded. A rolled-back write never emits.
// - TenantID and ActorUserID may be empty for platform-level actions.
type Event struct {
	ID          string          `json:"id"`
	TenantID    string          `json:"tenant_id,omitempty"`
	ActorUserID string          `json:"user_id,omitempty"`
	Action      Action          `json:"action"`
	EntityType  rbac.EntityType `json:"entity_type"`
	EntityID    string          `json:"entity_id,omitempty"`
	IPAddress   string          `json:"ip_address,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Action names are persisted; keep them stable.
type Action string

const (
	ActionRegisterTenant Action = "REGISTER_TENANT"
	ActionLogin          Action = "LOGIN"
	ActionLogout         Action = "LOGOUT"
	ActionUpdateTenant   Action = "UPDATE_TENANT"

	ActionCreateUser Action = "CREATE_USER"
	ActionUpdateUser Action = "UPDATE_USER"
	ActionDeleteUser Action = "DELETE_USER"

	ActionCreateProject Action = "CREATE_PROJECT"
	ActionUpdateProject Action = "UPDATE_PROJECT"
	ActionDeleteProject Action = "DELETE_PROJECT"

	ActionCreateTask       Action = "CREATE_TASK"
	ActionUpdateTask       Action = "UPDATE_TASK"
	ActionUpdateTaskStatus Action = "UPDATE_TASK_STATUS"
	ActionDeleteTask       Action = "DELETE_TASK"
)
