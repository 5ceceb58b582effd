package rbac

import "sort"

// Field names a mutable attribute in an update request.
type Field string

const (
	FieldName             Field = "name"
	FieldStatus           Field = "status"
	FieldSubscriptionPlan Field = "subscription_plan"
	FieldMaxUsers         Field = "max_users"
	FieldMaxProjects      Field = "max_projects"

	FieldFullName Field = "full_name"
	FieldRole     Field = "role"
	FieldIsActive Field = "is_active"

	FieldDescription Field = "description"

	FieldTitle      Field = "title"
	FieldPriority   Field = "priority"
	FieldAssignedTo Field = "assigned_to"
	FieldDueDate    Field = "due_date"
)

// FieldSet is the set of fields an update asks to change. It reflects what
// was requested, not what would actually differ after the write.
type FieldSet map[Field]struct{}

func Fields(fs ...Field) FieldSet {
	out := make(FieldSet, len(fs))
	for _, f := range fs {
		out[f] = struct{}{}
	}
	return out
}

func (s FieldSet) Add(f Field) { s[f] = struct{}{} }

func (s FieldSet) Has(f Field) bool {
	_, ok := s[f]
	return ok
}

func (s FieldSet) HasAny(fs ...Field) bool {
	for _, f := range fs {
		if s.Has(f) {
			return true
		}
	}
	return false
}

// Only reports whether every field in s is one of allowed.
func (s FieldSet) Only(allowed ...Field) bool {
	for f := range s {
		ok := false
		for _, a := range allowed {
			if f == a {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

func (s FieldSet) Sorted() []Field {
	out := make([]Field, 0, len(s))
	for f := range s {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// planFields are owned by the platform operator on any entity.
var planFields = []Field{FieldSubscriptionPlan, FieldMaxUsers, FieldMaxProjects}

// restrictedFields returns the fields a tenant admin may never set on an
// entity of kind t. Tenant status is operator-owned too, while project and
// task status are ordinary workflow fields.
func restrictedFields(t EntityType) []Field {
	if t == EntityTenant {
		return append([]Field{FieldStatus}, planFields...)
	}
	return planFields
}
