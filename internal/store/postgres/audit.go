package postgres

import (
	"context"
	"database/sql"

	"workspace-platform/internal/audit"
)

// AuditRepo appends to audit_logs through the pool, outside any business
// transaction. Events are written after commit.
type AuditRepo struct {
	db *sql.DB
}

var _ audit.Repository = (*AuditRepo)(nil)

func NewAuditRepo(db *sql.DB) *AuditRepo { return &AuditRepo{db: db} }

func (r *AuditRepo) Append(ctx context.Context, e audit.Event) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, tenant_id, user_id, action, entity_type, entity_id, ip_address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, nullString(e.TenantID), nullString(e.ActorUserID), string(e.Action),
		string(e.EntityType), nullString(e.EntityID), nullString(e.IPAddress), e.CreatedAt,
	)
	return mapPostgresError(err)
}
