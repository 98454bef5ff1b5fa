package audit

import (
	"context"
	"database/sql"
)

// PostgresRepository appends to the routing_audit_events table.
//
// Assumed schema: routing_audit_events (
//   id TEXT PRIMARY KEY, tenant_id TEXT NOT NULL, agent_id TEXT NOT NULL,
//   provider_call_id TEXT, decision TEXT NOT NULL, reason TEXT,
//   was_emergency BOOL, was_after_hours BOOL, was_holiday BOOL,
//   created_at TIMESTAMPTZ NOT NULL
// )
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Append(ctx context.Context, e Event) error {
	const q = `
INSERT INTO routing_audit_events (
  id, tenant_id, agent_id, provider_call_id, decision, reason,
  was_emergency, was_after_hours, was_holiday, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`
	_, err := r.db.ExecContext(ctx, q,
		e.ID,
		e.TenantID,
		e.AgentID,
		e.ProviderCallID,
		e.Decision,
		e.Reason,
		e.WasEmergency,
		e.WasAfterHours,
		e.WasHoliday,
		e.CreatedAt,
	)
	return err
}
