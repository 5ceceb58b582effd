// Package locator resolves entity references into the ownership facts the
// authorization engine decides on.
package locator

import (
	"context"
	"errors"
	"fmt"

	"workspace-platform/internal/rbac"
	"workspace-platform/internal/store"

	"github.com/google/uuid"
)

// ErrInvalidReference is returned when a write points at an entity that does
// not exist or lives in another tenant. Both look the same to the caller.
var ErrInvalidReference = errors.New("locator: invalid reference")

// Reader is the slice of the store the locator needs. Both store.Store and
// store.Tx satisfy it, so lookups can run inside a write transaction.
type Reader interface {
	LocateEntity(ctx context.Context, ref rbac.EntityRef) (rbac.Facts, error)
}

type Locator struct {
	r Reader
}

func New(r Reader) *Locator { return &Locator{r: r} }

// Locate returns the facts for ref, or store.ErrNotFound. Malformed ids are
// reported as not found without reaching storage.
func (l *Locator) Locate(ctx context.Context, ref rbac.EntityRef) (rbac.Facts, error) {
	if !ref.Type.Valid() {
		return rbac.Facts{}, fmt.Errorf("locator: unknown entity type %q", ref.Type)
	}
	if _, err := uuid.Parse(ref.ID); err != nil {
		return rbac.Facts{}, store.ErrNotFound
	}
	facts, err := l.r.LocateEntity(ctx, ref)
	if err != nil {
		return rbac.Facts{}, err
	}
	return facts, nil
}

// RequireSameTenant checks that ref exists inside tenantID. It is the
// write-time guard for cross-entity references such as task assignees.
func (l *Locator) RequireSameTenant(ctx context.Context, ref rbac.EntityRef, tenantID string) error {
	facts, err := l.Locate(ctx, ref)
	if errors.Is(err, store.ErrNotFound) {
		return ErrInvalidReference
	}
	if err != nil {
		return err
	}
	if facts.TenantID == "" || facts.TenantID != tenantID {
		return ErrInvalidReference
	}
	return nil
}
