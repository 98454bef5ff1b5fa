package audit

import "time"

// Event is one append-only routing audit entry.
//
// Audit is internal-only; do not expose these records to tenant users by
// default.
type Event struct {
	ID       string `json:"id" db:"id"`
	TenantID string `json:"tenant_id" db:"tenant_id"`
	AgentID  string `json:"agent_id" db:"agent_id"`

	ProviderCallID string `json:"provider_call_id" db:"provider_call_id"`

	Decision string `json:"decision" db:"decision"`
	Reason   string `json:"reason" db:"reason"`

	WasEmergency  bool `json:"was_emergency" db:"was_emergency"`
	WasAfterHours bool `json:"was_after_hours" db:"was_after_hours"`
	WasHoliday    bool `json:"was_holiday" db:"was_holiday"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
