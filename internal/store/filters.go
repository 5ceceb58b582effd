package store

import (
	"workspace-platform/internal/rbac"
	"workspace-platform/internal/tenancy"
)

const MaxPageSize = 100

// Page is a 1-based page request. Normalize before use.
type Page struct {
	Number int
	Size   int
}

// Normalize clamps p, substituting defaultSize for a missing size.
func (p Page) Normalize(defaultSize int) Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 {
		p.Size = defaultSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

func (p Page) Offset() int { return (p.Number - 1) * p.Size }

// Window returns the [lo, hi) slice bounds of p over n items.
func (p Page) Window(n int) (lo, hi int) {
	lo = p.Offset()
	if lo > n {
		lo = n
	}
	hi = lo + p.Size
	if hi > n {
		hi = n
	}
	return lo, hi
}

type TenantFilter struct {
	Status tenancy.TenantStatus
	Plan   tenancy.Plan
	Page   Page
}

type UserFilter struct {
	// Search matches email or full name, case-insensitively.
	Search string
	Role   rbac.Role
	Page   Page
}

type ProjectFilter struct {
	Status tenancy.ProjectStatus
	Search string
	Page   Page
}

type TaskFilter struct {
	Status     tenancy.TaskStatus
	Priority   tenancy.Priority
	AssignedTo string
	Search     string
	Page       Page
}
