package agents

import "time"

// AgentRoutingConfig is the per-agent telephony routing configuration.
//
// Multi-tenant invariant: TenantID is required on every row.
//
// Activation state (IsActive/Status) is owned by agent management; the
// routing engine only reads it.

type AgentRoutingConfig struct {
	ID       string `json:"id" db:"id"`
	TenantID string `json:"tenant_id" db:"tenant_id"`

	// TenantNumber is the tenant's registered carrier number, used as
	// caller ID on bridged legs.
	TenantNumber string `json:"tenant_number,omitempty" db:"tenant_number"`

	FallbackNumber   string `json:"fallback_number,omitempty" db:"fallback_number"`
	AfterHoursNumber string `json:"after_hours_number,omitempty" db:"after_hours_number"`
	EmergencyNumber  string `json:"emergency_number,omitempty" db:"emergency_number"`

	TransferNumbers []TransferTarget `json:"transfer_numbers,omitempty"`

	// WorkingHours nil means always open.
	WorkingHours *WorkingHoursConfig `json:"working_hours,omitempty"`

	CallQueueEnabled    bool           `json:"call_queue_enabled" db:"call_queue_enabled"`
	MaxQueueSize        int            `json:"max_queue_size,omitempty" db:"max_queue_size"`
	MaxQueueWaitSeconds int            `json:"max_queue_wait_seconds,omitempty" db:"max_queue_wait_seconds"`
	OverflowAction      OverflowAction `json:"overflow_action,omitempty" db:"overflow_action"`
	OverflowNumber      string         `json:"overflow_number,omitempty" db:"overflow_number"`

	// EmergencyKeywords empty means the built-in default list applies.
	EmergencyKeywords []string `json:"emergency_keywords,omitempty"`

	// EmergencyBypass is persisted but currently not consulted by the
	// decision engine, which always short-circuits on emergencies.
	EmergencyBypass bool `json:"emergency_bypass" db:"emergency_bypass"`

	IsActive bool        `json:"is_active" db:"is_active"`
	Status   AgentStatus `json:"status" db:"status"`

	Stats RoutingStats `json:"stats"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type AgentStatus string

const (
	AgentStatusActive   AgentStatus = "ACTIVE"
	AgentStatusInactive AgentStatus = "INACTIVE"
	AgentStatusPaused   AgentStatus = "PAUSED"
)

type OverflowAction string

const (
	OverflowVoicemail OverflowAction = "voicemail"
	OverflowForward   OverflowAction = "forward"
	OverflowCallback  OverflowAction = "callback"
)

// TransferTarget is one configured transfer destination.
// Priority is a total order: lower value = higher urgency.
// Ties are broken by list order.
type TransferTarget struct {
	Name      string `json:"name"`
	Number    string `json:"number"`
	Role      string `json:"role,omitempty"`
	Priority  int    `json:"priority"`
	Available bool   `json:"available"`
	Extension string `json:"extension,omitempty"`
}

// WorkingHoursConfig is a weekly schedule in the tenant's local timezone.
type WorkingHoursConfig struct {
	Enabled  bool   `json:"enabled"`
	Timezone string `json:"timezone"`

	// Schedule holds exactly one entry per lowercase weekday name
	// ("monday".."sunday").
	Schedule map[string]DaySchedule `json:"schedule"`

	Holidays []Holiday `json:"holidays,omitempty"`
}

// DaySchedule times are "HH:MM" 24-hour local strings.
// If Enabled, Open < Close lexically, and LunchStart < LunchEnd within
// [Open, Close) when present.
type DaySchedule struct {
	Enabled    bool   `json:"enabled"`
	Open       string `json:"open"`
	Close      string `json:"close"`
	LunchStart string `json:"lunch_start,omitempty"`
	LunchEnd   string `json:"lunch_end,omitempty"`
}

// Holiday forces the practice closed for the whole date regardless of the
// weekday schedule.
type Holiday struct {
	Date          string `json:"date"` // YYYY-MM-DD
	Name          string `json:"name"`
	EmergencyOnly bool   `json:"emergency_only"`
}

// RoutingStats are monotonic per-agent counters. They are mutated only by
// the routing engine, once per decision, via ConfigStore.IncrementStat.
type RoutingStats struct {
	TotalCallsRouted      int64 `json:"total_calls_routed" db:"total_calls_routed"`
	EmergencyCallsRouted  int64 `json:"emergency_calls_routed" db:"emergency_calls_routed"`
	FallbackRoutedCalls   int64 `json:"fallback_routed_calls" db:"fallback_routed_calls"`
	AfterHoursRoutedCalls int64 `json:"after_hours_routed_calls" db:"after_hours_routed_calls"`
}

// Stat field names accepted by ConfigStore.IncrementStat.
const (
	StatTotalCallsRouted      = "total_calls_routed"
	StatEmergencyCallsRouted  = "emergency_calls_routed"
	StatFallbackRoutedCalls   = "fallback_routed_calls"
	StatAfterHoursRoutedCalls = "after_hours_routed_calls"
)

// Weekdays in schedule-map key form, Monday first.
var Weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}
