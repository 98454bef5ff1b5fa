package calls

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

// PostgresStore persists call records.
//
// Assumed schema: call_records (
//   id TEXT PRIMARY KEY, tenant_id TEXT NOT NULL, agent_id TEXT NOT NULL,
//   provider_call_id TEXT NOT NULL UNIQUE, direction TEXT, phone_number TEXT,
//   status TEXT, start_time TIMESTAMPTZ, end_time TIMESTAMPTZ, duration_secs INT,
//   routing_decision TEXT, routed_to_number TEXT, routed_to_name TEXT,
//   was_emergency BOOL, was_after_hours BOOL,
//   recording_url TEXT, recording_sid TEXT,
//   created_at TIMESTAMPTZ, updated_at TIMESTAMPTZ
// )
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, rec CallRecord) error {
	const q = `
INSERT INTO call_records (
  id, tenant_id, agent_id, provider_call_id, direction, phone_number,
  status, start_time, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`
	_, err := s.db.ExecContext(ctx, q,
		rec.ID,
		rec.TenantID,
		rec.AgentID,
		rec.ProviderCallID,
		string(rec.Direction),
		rec.PhoneNumber,
		string(rec.Status),
		rec.StartTime,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil && strings.Contains(err.Error(), "duplicate key") {
		return ErrConflict
	}
	return err
}

func (s *PostgresStore) GetByProviderCallID(ctx context.Context, providerCallID string) (CallRecord, error) {
	const q = `
SELECT id, tenant_id, agent_id, provider_call_id, direction, phone_number,
       status, start_time, end_time, duration_secs,
       routing_decision, routed_to_number, routed_to_name,
       was_emergency, was_after_hours, recording_url, recording_sid,
       created_at, updated_at
FROM call_records
WHERE provider_call_id = $1`
	var (
		rec       CallRecord
		direction string
		status    string
		endTime   sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, q, providerCallID).Scan(
		&rec.ID,
		&rec.TenantID,
		&rec.AgentID,
		&rec.ProviderCallID,
		&direction,
		&rec.PhoneNumber,
		&status,
		&rec.StartTime,
		&endTime,
		&rec.DurationSecs,
		&rec.RoutingDecision,
		&rec.RoutedToNumber,
		&rec.RoutedToName,
		&rec.WasEmergency,
		&rec.WasAfterHours,
		&rec.RecordingURL,
		&rec.RecordingSID,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CallRecord{}, ErrNotFound
		}
		return CallRecord{}, err
	}
	rec.Direction = Direction(direction)
	rec.Status = CallStatus(status)
	if endTime.Valid {
		t := endTime.Time
		rec.EndTime = &t
	}
	return rec, nil
}

func (s *PostgresStore) UpdateRoutingSnapshot(ctx context.Context, providerCallID string, snap RoutingSnapshot) error {
	const q = `
UPDATE call_records SET
  routing_decision = $2, routed_to_number = $3, routed_to_name = $4,
  was_emergency = $5, was_after_hours = $6, updated_at = now()
WHERE provider_call_id = $1`
	res, err := s.db.ExecContext(ctx, q, providerCallID,
		snap.Decision, snap.RoutedTo, snap.RoutedToName, snap.WasEmergency, snap.WasAfterHours)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// UpdateTerminalStatus guards terminal immutability in the WHERE clause:
// the row only moves if still in_progress.
func (s *PostgresStore) UpdateTerminalStatus(ctx context.Context, providerCallID string, status CallStatus, durationSecs int) error {
	if !status.IsTerminal() {
		return ErrInvalid
	}
	const q = `
UPDATE call_records SET
  status = $2, duration_secs = $3, end_time = $4, updated_at = now()
WHERE provider_call_id = $1 AND status = $5`
	res, err := s.db.ExecContext(ctx, q, providerCallID,
		string(status), durationSecs, time.Now().UTC(), string(CallStatusInProgress))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Either missing or already terminal; distinguish for the caller.
		if _, getErr := s.GetByProviderCallID(ctx, providerCallID); getErr != nil {
			return getErr
		}
		return ErrTerminal
	}
	return nil
}

func (s *PostgresStore) AttachRecording(ctx context.Context, providerCallID, recordingURL, recordingSID string) error {
	const q = `
UPDATE call_records SET recording_url = $2, recording_sid = $3, updated_at = now()
WHERE provider_call_id = $1`
	res, err := s.db.ExecContext(ctx, q, providerCallID, recordingURL, recordingSID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
