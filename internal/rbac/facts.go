package rbac

// EntityType names the kinds of resources the engine can decide on.
type EntityType string

const (
	EntityTenant  EntityType = "tenant"
	EntityUser    EntityType = "user"
	EntityProject EntityType = "project"
	EntityTask    EntityType = "task"
)

func (t EntityType) Valid() bool {
	switch t {
	case EntityTenant, EntityUser, EntityProject, EntityTask:
		return true
	default:
		return false
	}
}

// EntityRef is an opaque pointer to a persisted entity.
type EntityRef struct {
	Type EntityType
	ID   string
}

func Ref(t EntityType, id string) EntityRef { return EntityRef{Type: t, ID: id} }

// Facts is the ownership tuple of a single entity. It is all the engine ever
// looks at; loading anything more is the locator's concern, not the engine's.
//
// For tenants TenantID equals ID. For users TenantID is empty only for
// super_admin accounts. CreatorID and AssigneeID are empty when the entity
// kind has no such relation or the referenced user was deleted.
type Facts struct {
	Type       EntityType
	ID         string
	TenantID   string
	CreatorID  string
	AssigneeID string
}
