package agents

import (
	"context"
	"errors"
)

var (
	ErrNotFound        = errors.New("agents: not found")
	ErrInvalidArgument = errors.New("agents: invalid argument")
)

// ConfigStore is the persistence contract for agent routing configuration.
//
// IncrementStat must be atomic at the store (e.g., SQL `SET f = f + 1`),
// never read-modify-write in process memory: two inbound calls for the
// same agent can arrive concurrently on different instances.
type ConfigStore interface {
	GetAgentRoutingConfig(ctx context.Context, agentID string) (AgentRoutingConfig, error)

	// GetAgentIDByNumber resolves which agent owns a dialed number.
	GetAgentIDByNumber(ctx context.Context, number string) (string, error)

	UpdateRoutingConfig(ctx context.Context, agentID, tenantID string, patch ConfigPatch) (AgentRoutingConfig, error)
	IncrementStat(ctx context.Context, agentID, field string) error
}

// ConfigPatch carries partial updates; nil fields are left unchanged.
// Patches are validated against the merged result before persisting.
type ConfigPatch struct {
	TenantNumber     *string `json:"tenant_number,omitempty"`
	FallbackNumber   *string `json:"fallback_number,omitempty"`
	AfterHoursNumber *string `json:"after_hours_number,omitempty"`
	EmergencyNumber  *string `json:"emergency_number,omitempty"`

	TransferNumbers *[]TransferTarget   `json:"transfer_numbers,omitempty"`
	WorkingHours    *WorkingHoursConfig `json:"working_hours,omitempty"`

	CallQueueEnabled    *bool           `json:"call_queue_enabled,omitempty"`
	MaxQueueSize        *int            `json:"max_queue_size,omitempty"`
	MaxQueueWaitSeconds *int            `json:"max_queue_wait_seconds,omitempty"`
	OverflowAction      *OverflowAction `json:"overflow_action,omitempty"`
	OverflowNumber      *string         `json:"overflow_number,omitempty"`

	EmergencyKeywords *[]string `json:"emergency_keywords,omitempty"`
	EmergencyBypass   *bool     `json:"emergency_bypass,omitempty"`
}

// Apply merges the patch onto cfg and returns the result. The caller is
// responsible for validating the merged config before writing it.
func (p ConfigPatch) Apply(cfg AgentRoutingConfig) AgentRoutingConfig {
	if p.TenantNumber != nil {
		cfg.TenantNumber = *p.TenantNumber
	}
	if p.FallbackNumber != nil {
		cfg.FallbackNumber = *p.FallbackNumber
	}
	if p.AfterHoursNumber != nil {
		cfg.AfterHoursNumber = *p.AfterHoursNumber
	}
	if p.EmergencyNumber != nil {
		cfg.EmergencyNumber = *p.EmergencyNumber
	}
	if p.TransferNumbers != nil {
		cfg.TransferNumbers = *p.TransferNumbers
	}
	if p.WorkingHours != nil {
		cfg.WorkingHours = p.WorkingHours
	}
	if p.CallQueueEnabled != nil {
		cfg.CallQueueEnabled = *p.CallQueueEnabled
	}
	if p.MaxQueueSize != nil {
		cfg.MaxQueueSize = *p.MaxQueueSize
	}
	if p.MaxQueueWaitSeconds != nil {
		cfg.MaxQueueWaitSeconds = *p.MaxQueueWaitSeconds
	}
	if p.OverflowAction != nil {
		cfg.OverflowAction = *p.OverflowAction
	}
	if p.OverflowNumber != nil {
		cfg.OverflowNumber = *p.OverflowNumber
	}
	if p.EmergencyKeywords != nil {
		cfg.EmergencyKeywords = *p.EmergencyKeywords
	}
	if p.EmergencyBypass != nil {
		cfg.EmergencyBypass = *p.EmergencyBypass
	}
	return cfg
}

// validStatField guards IncrementStat against arbitrary column names.
func validStatField(field string) bool {
	switch field {
	case StatTotalCallsRouted, StatEmergencyCallsRouted, StatFallbackRoutedCalls, StatAfterHoursRoutedCalls:
		return true
	default:
		return false
	}
}
