package rbac

// Authorize decides whether p may perform action on the entity described by
// facts. fields is the set of fields an update asks to change and is ignored
// for other verbs.
//
// Authorize is a pure function of its arguments: it never touches storage and
// returns the same decision for the same inputs. The first failing rule wins:
//
//  1. unknown action, or facts that do not describe the action's scope
//  2. super_admin: global reads, tenant and user administration; never
//     tenant-scoped content writes
//  3. tenant isolation: the entity must belong to the principal's tenant
//  4. nobody deletes their own account
//  5. role matrix
func Authorize(p Principal, action Action, facts Facts, fields FieldSet) Decision {
	if !action.Valid() {
		return Deny(ReasonUnknownAction)
	}
	if p.ID == "" || !p.Role.Valid() {
		return Deny(ReasonUnauthenticated)
	}
	scope := action.Scope()
	if scope != "" && facts.Type != scope {
		return Deny(ReasonUnknownAction)
	}

	if IsSuperAdmin(p.Role) {
		return authorizeSuperAdmin(p, action, facts, fields)
	}

	if p.TenantID == "" {
		return Deny(ReasonTenantRequired)
	}
	if scope == "" {
		// Cross-tenant listings are operator-only.
		return Deny(ReasonInsufficientRole)
	}
	if facts.TenantID != p.TenantID {
		return Deny(ReasonForeignTenant)
	}
	if isSelfDeletion(p, action, facts) {
		return Deny(ReasonSelfDeletion)
	}

	switch p.Role {
	case RoleTenantAdmin:
		return authorizeTenantAdmin(action, facts, fields)
	case RoleUser:
		return authorizeUser(p, action, facts, fields)
	default:
		return Deny(ReasonInsufficientRole)
	}
}

func isSelfDeletion(p Principal, action Action, facts Facts) bool {
	return action == ActionUserDelete && facts.ID == p.ID
}

func authorizeSuperAdmin(p Principal, action Action, facts Facts, fields FieldSet) Decision {
	if isSelfDeletion(p, action, facts) {
		return Deny(ReasonSelfDeletion)
	}
	// Plan settings live on the tenant only.
	if action.Verb() == VerbUpdate && facts.Type != EntityTenant && fields.HasAny(planFields...) {
		return Deny(ReasonRestrictedField)
	}
	switch action.Verb() {
	case VerbRead, VerbList:
		return Allow
	}
	switch action.Entity() {
	case EntityTenant, EntityUser:
		return Allow
	default:
		// Projects and tasks are written by members of the tenant only.
		return Deny(ReasonTenantRequired)
	}
}

func authorizeTenantAdmin(action Action, facts Facts, fields FieldSet) Decision {
	if action.Verb() == VerbUpdate && fields.HasAny(restrictedFields(facts.Type)...) {
		return Deny(ReasonRestrictedField)
	}
	return Allow
}

func authorizeUser(p Principal, action Action, facts Facts, fields FieldSet) Decision {
	switch action.Verb() {
	case VerbRead, VerbList:
		return Allow
	}

	switch action {
	case ActionProjectCreate, ActionTaskCreate:
		return Allow

	case ActionUserUpdate:
		if facts.ID != p.ID {
			return Deny(ReasonInsufficientRole)
		}
		if fields.HasAny(FieldRole, FieldIsActive) {
			return Deny(ReasonSelfEscalation)
		}
		if !fields.Only(FieldFullName) {
			return Deny(ReasonRestrictedField)
		}
		return Allow

	case ActionProjectUpdate, ActionProjectDelete,
		ActionTaskUpdate, ActionTaskUpdateStatus, ActionTaskDelete:
		if fields.HasAny(planFields...) {
			return Deny(ReasonRestrictedField)
		}
		if facts.CreatorID != "" && facts.CreatorID == p.ID {
			return Allow
		}
		return Deny(ReasonNotOwner)

	default:
		return Deny(ReasonInsufficientRole)
	}
}
