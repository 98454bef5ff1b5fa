package agents

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"dentalvoice/pkg/utils"
)

// PostgresStore persists routing configs in the agent_routing_configs
// table. List/JSON-shaped fields (transfer targets, working hours,
// keywords) are stored as JSONB columns; stat counters are plain INT
// columns so increments can be expressed in SQL.
//
// Assumed schema:
//   agent_routing_configs (
//     id TEXT PRIMARY KEY, tenant_id TEXT NOT NULL, tenant_number TEXT,
//     fallback_number TEXT, after_hours_number TEXT, emergency_number TEXT,
//     transfer_numbers JSONB, working_hours JSONB, emergency_keywords JSONB,
//     call_queue_enabled BOOL, max_queue_size INT, max_queue_wait_seconds INT,
//     overflow_action TEXT, overflow_number TEXT, emergency_bypass BOOL,
//     is_active BOOL, status TEXT,
//     total_calls_routed BIGINT, emergency_calls_routed BIGINT,
//     fallback_routed_calls BIGINT, after_hours_routed_calls BIGINT,
//     created_at TIMESTAMPTZ, updated_at TIMESTAMPTZ
//   )
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const configColumns = `
id, tenant_id, tenant_number, fallback_number, after_hours_number, emergency_number,
transfer_numbers, working_hours, emergency_keywords,
call_queue_enabled, max_queue_size, max_queue_wait_seconds, overflow_action, overflow_number,
emergency_bypass, is_active, status,
total_calls_routed, emergency_calls_routed, fallback_routed_calls, after_hours_routed_calls,
created_at, updated_at`

func (s *PostgresStore) GetAgentRoutingConfig(ctx context.Context, agentID string) (AgentRoutingConfig, error) {
	if agentID == "" {
		return AgentRoutingConfig{}, fmt.Errorf("%w: agent id required", ErrInvalidArgument)
	}
	q := `SELECT` + configColumns + `
FROM agent_routing_configs
WHERE id = $1`
	return scanConfig(s.db.QueryRowContext(ctx, q, agentID))
}

func (s *PostgresStore) GetAgentIDByNumber(ctx context.Context, number string) (string, error) {
	if number == "" {
		return "", fmt.Errorf("%w: number required", ErrInvalidArgument)
	}
	const q = `SELECT id FROM agent_routing_configs WHERE tenant_number = $1`
	var id string
	if err := s.db.QueryRowContext(ctx, q, number).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return id, nil
}

func (s *PostgresStore) UpdateRoutingConfig(ctx context.Context, agentID, tenantID string, patch ConfigPatch) (AgentRoutingConfig, error) {
	if agentID == "" || tenantID == "" {
		return AgentRoutingConfig{}, fmt.Errorf("%w: agent id and tenant id required", ErrInvalidArgument)
	}

	var out AgentRoutingConfig
	err := utils.WithTx(ctx, s.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		q := `SELECT` + configColumns + `
FROM agent_routing_configs
WHERE id = $1 AND tenant_id = $2
FOR UPDATE`
		cur, err := scanConfig(tx.QueryRowContext(ctx, q, agentID, tenantID))
		if err != nil {
			return err
		}

		next := patch.Apply(cur)
		if err := next.Validate(); err != nil {
			return err
		}
		next.UpdatedAt = time.Now().UTC()

		transfers, err := json.Marshal(next.TransferNumbers)
		if err != nil {
			return err
		}
		var hours []byte
		if next.WorkingHours != nil {
			if hours, err = json.Marshal(next.WorkingHours); err != nil {
				return err
			}
		}
		keywords, err := json.Marshal(next.EmergencyKeywords)
		if err != nil {
			return err
		}

		const upd = `
UPDATE agent_routing_configs SET
  tenant_number = $3, fallback_number = $4, after_hours_number = $5, emergency_number = $6,
  transfer_numbers = $7, working_hours = $8, emergency_keywords = $9,
  call_queue_enabled = $10, max_queue_size = $11, max_queue_wait_seconds = $12,
  overflow_action = $13, overflow_number = $14, emergency_bypass = $15,
  updated_at = $16
WHERE id = $1 AND tenant_id = $2`
		if _, err := tx.ExecContext(ctx, upd,
			agentID,
			tenantID,
			next.TenantNumber,
			next.FallbackNumber,
			next.AfterHoursNumber,
			next.EmergencyNumber,
			transfers,
			nullableJSON(hours),
			keywords,
			next.CallQueueEnabled,
			next.MaxQueueSize,
			next.MaxQueueWaitSeconds,
			string(next.OverflowAction),
			next.OverflowNumber,
			next.EmergencyBypass,
			next.UpdatedAt,
		); err != nil {
			return err
		}
		out = next
		return nil
	})
	if err != nil {
		return AgentRoutingConfig{}, err
	}
	return out, nil
}

// IncrementStat applies an atomic +1 to a whitelisted counter column.
func (s *PostgresStore) IncrementStat(ctx context.Context, agentID, field string) error {
	if agentID == "" {
		return fmt.Errorf("%w: agent id required", ErrInvalidArgument)
	}
	if !validStatField(field) {
		return fmt.Errorf("%w: unknown stat field %q", ErrInvalidArgument, field)
	}
	// field is whitelisted above; safe to interpolate.
	q := fmt.Sprintf(`UPDATE agent_routing_configs SET %s = %s + 1, updated_at = now() WHERE id = $1`, field, field)
	res, err := s.db.ExecContext(ctx, q, agentID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConfig(row rowScanner) (AgentRoutingConfig, error) {
	var (
		c         AgentRoutingConfig
		transfers []byte
		hours     []byte
		keywords  []byte
		overflow  sql.NullString
		status    sql.NullString
	)
	err := row.Scan(
		&c.ID,
		&c.TenantID,
		&c.TenantNumber,
		&c.FallbackNumber,
		&c.AfterHoursNumber,
		&c.EmergencyNumber,
		&transfers,
		&hours,
		&keywords,
		&c.CallQueueEnabled,
		&c.MaxQueueSize,
		&c.MaxQueueWaitSeconds,
		&overflow,
		&c.OverflowNumber,
		&c.EmergencyBypass,
		&c.IsActive,
		&status,
		&c.Stats.TotalCallsRouted,
		&c.Stats.EmergencyCallsRouted,
		&c.Stats.FallbackRoutedCalls,
		&c.Stats.AfterHoursRoutedCalls,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return AgentRoutingConfig{}, ErrNotFound
		}
		return AgentRoutingConfig{}, err
	}
	if len(transfers) > 0 {
		if err := json.Unmarshal(transfers, &c.TransferNumbers); err != nil {
			return AgentRoutingConfig{}, fmt.Errorf("agents: decode transfer_numbers: %w", err)
		}
	}
	if len(hours) > 0 {
		var w WorkingHoursConfig
		if err := json.Unmarshal(hours, &w); err != nil {
			return AgentRoutingConfig{}, fmt.Errorf("agents: decode working_hours: %w", err)
		}
		c.WorkingHours = &w
	}
	if len(keywords) > 0 {
		if err := json.Unmarshal(keywords, &c.EmergencyKeywords); err != nil {
			return AgentRoutingConfig{}, fmt.Errorf("agents: decode emergency_keywords: %w", err)
		}
	}
	c.OverflowAction = OverflowAction(overflow.String)
	c.Status = AgentStatus(status.String)
	return c, nil
}

func nullableJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}
