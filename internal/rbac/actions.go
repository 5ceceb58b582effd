package rbac

import "sort"

// Verb is the operation half of an Action.
type Verb string

const (
	VerbRead   Verb = "read"
	VerbList   Verb = "list"
	VerbCreate Verb = "create"
	VerbUpdate Verb = "update"
	VerbDelete Verb = "delete"
)

// Action is a closed (entity, verb) pair. Unknown actions are always denied.
type Action string

const (
	ActionTenantRead   Action = "tenant.read"
	ActionTenantList   Action = "tenant.list"
	ActionTenantUpdate Action = "tenant.update"

	ActionUserCreate Action = "user.create"
	ActionUserRead   Action = "user.read"
	ActionUserList   Action = "user.list"
	ActionUserUpdate Action = "user.update"
	ActionUserDelete Action = "user.delete"

	ActionProjectCreate Action = "project.create"
	ActionProjectRead   Action = "project.read"
	ActionProjectList   Action = "project.list"
	ActionProjectUpdate Action = "project.update"
	ActionProjectDelete Action = "project.delete"

	ActionTaskCreate       Action = "task.create"
	ActionTaskRead         Action = "task.read"
	ActionTaskList         Action = "task.list"
	ActionTaskUpdate       Action = "task.update"
	ActionTaskUpdateStatus Action = "task.update_status"
	ActionTaskDelete       Action = "task.delete"
)

type actionSpec struct {
	entity EntityType
	verb   Verb
	// scope is the entity kind whose facts the caller passes in. Create and
	// list act on a parent scope; an empty scope means no entity at all.
	scope EntityType
}

var actionTable = map[Action]actionSpec{
	ActionTenantRead:   {EntityTenant, VerbRead, EntityTenant},
	ActionTenantList:   {EntityTenant, VerbList, ""},
	ActionTenantUpdate: {EntityTenant, VerbUpdate, EntityTenant},

	ActionUserCreate: {EntityUser, VerbCreate, EntityTenant},
	ActionUserRead:   {EntityUser, VerbRead, EntityUser},
	ActionUserList:   {EntityUser, VerbList, EntityTenant},
	ActionUserUpdate: {EntityUser, VerbUpdate, EntityUser},
	ActionUserDelete: {EntityUser, VerbDelete, EntityUser},

	ActionProjectCreate: {EntityProject, VerbCreate, EntityTenant},
	ActionProjectRead:   {EntityProject, VerbRead, EntityProject},
	ActionProjectList:   {EntityProject, VerbList, EntityTenant},
	ActionProjectUpdate: {EntityProject, VerbUpdate, EntityProject},
	ActionProjectDelete: {EntityProject, VerbDelete, EntityProject},

	ActionTaskCreate:       {EntityTask, VerbCreate, EntityProject},
	ActionTaskRead:         {EntityTask, VerbRead, EntityTask},
	ActionTaskList:         {EntityTask, VerbList, EntityProject},
	ActionTaskUpdate:       {EntityTask, VerbUpdate, EntityTask},
	ActionTaskUpdateStatus: {EntityTask, VerbUpdate, EntityTask},
	ActionTaskDelete:       {EntityTask, VerbDelete, EntityTask},
}

func (a Action) Valid() bool {
	_, ok := actionTable[a]
	return ok
}

func (a Action) Entity() EntityType { return actionTable[a].entity }

func (a Action) Verb() Verb { return actionTable[a].verb }

// Scope is the entity kind an authorization call for a must describe.
func (a Action) Scope() EntityType { return actionTable[a].scope }

func (a Action) Mutating() bool {
	switch a.Verb() {
	case VerbCreate, VerbUpdate, VerbDelete:
		return true
	default:
		return false
	}
}

// Actions returns every known action in a stable order.
func Actions() []Action {
	out := make([]Action, 0, len(actionTable))
	for a := range actionTable {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
