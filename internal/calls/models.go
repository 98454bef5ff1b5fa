package calls

import (
	"strings"
	"time"
)

// CallRecord is one persisted inbound or outbound call.
//
// Multi-tenant invariant: TenantID is required on every row.
//
// Phone numbers are stored masked (last 4 digits only); the full caller
// number is never persisted.

type CallRecord struct {
	ID       string `json:"id" db:"id"`
	TenantID string `json:"tenant_id" db:"tenant_id"`
	AgentID  string `json:"agent_id" db:"agent_id"`

	// ProviderCallID is the carrier-assigned call id (opaque).
	ProviderCallID string `json:"provider_call_id" db:"provider_call_id"`

	Direction Direction `json:"direction" db:"direction"`

	PhoneNumber string `json:"phone_number" db:"phone_number"` // masked

	Status CallStatus `json:"status" db:"status"`

	StartTime    time.Time  `json:"start_time" db:"start_time"`
	EndTime      *time.Time `json:"end_time,omitempty" db:"end_time"`
	DurationSecs int        `json:"duration_secs,omitempty" db:"duration_secs"`

	// Routing snapshot, written once immediately after the decision.
	RoutingDecision string `json:"routing_decision,omitempty" db:"routing_decision"`
	RoutedToNumber  string `json:"routed_to_number,omitempty" db:"routed_to_number"` // masked
	RoutedToName    string `json:"routed_to_name,omitempty" db:"routed_to_name"`
	WasEmergency    bool   `json:"was_emergency" db:"was_emergency"`
	WasAfterHours   bool   `json:"was_after_hours" db:"was_after_hours"`

	RecordingURL string `json:"recording_url,omitempty" db:"recording_url"`
	RecordingSID string `json:"recording_sid,omitempty" db:"recording_sid"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

type CallStatus string

const (
	CallStatusInProgress CallStatus = "in_progress"
	CallStatusCompleted  CallStatus = "completed"
	CallStatusFailed     CallStatus = "failed"
	CallStatusNoAnswer   CallStatus = "no_answer"
	CallStatusCanceled   CallStatus = "canceled"
)

// IsTerminal reports whether the status permits no further mutation
// (recording attachment excepted).
func (s CallStatus) IsTerminal() bool {
	switch s {
	case CallStatusCompleted, CallStatusFailed, CallStatusNoAnswer, CallStatusCanceled:
		return true
	default:
		return false
	}
}

// MapCarrierStatus maps a carrier status-callback code onto a terminal
// status. "busy" maps to completed: the far end answered or rejected,
// which is not a platform failure.
func MapCarrierStatus(carrier string) (CallStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(carrier)) {
	case "completed", "busy":
		return CallStatusCompleted, true
	case "failed":
		return CallStatusFailed, true
	case "no-answer", "no_answer":
		return CallStatusNoAnswer, true
	case "canceled", "cancelled":
		return CallStatusCanceled, true
	default:
		return "", false
	}
}

// MaskNumber keeps only the last four digits of a phone number.
func MaskNumber(number string) string {
	if number == "" {
		return ""
	}
	if len(number) <= 4 {
		return "****"
	}
	return "***" + number[len(number)-4:]
}
