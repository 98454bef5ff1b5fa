package routing

// Decision is the routing engine's verdict for one inbound call.
//
// It must contain only what the response-protocol boundary (the TwiML
// builder) needs to execute the decision. No carrier-specific fields
// belong here.

type Decision string

const (
	DecisionAIAgent          Decision = "ai_agent"
	DecisionForwardFallback  Decision = "forward_fallback"
	DecisionForwardEmergency Decision = "forward_emergency"
	DecisionForwardAfterHrs  Decision = "forward_after_hours"
	DecisionForwardTransfer  Decision = "forward_transfer"
	DecisionVoicemail        Decision = "voicemail"
	DecisionQueue            Decision = "queue"
	DecisionCallback         Decision = "callback"
)

// RoutingResult is produced once per inbound-call event.
//
// The situation flags are populated truthfully regardless of which branch
// fired, so callers can see why routing happened even when conditions
// overlapped (e.g., an emergency call arriving after hours).
type RoutingResult struct {
	Decision Decision `json:"decision"`
	Reason   string   `json:"reason"`

	ForwardTo     string `json:"forward_to,omitempty"`
	ForwardToName string `json:"forward_to_name,omitempty"`

	QueuePosition int `json:"queue_position,omitempty"`
	EstimatedWait int `json:"estimated_wait,omitempty"` // seconds

	IsEmergency    bool `json:"is_emergency"`
	IsAfterHours   bool `json:"is_after_hours"`
	IsHoliday      bool `json:"is_holiday"`
	IsLunchBreak   bool `json:"is_lunch_break"`
	AgentAvailable bool `json:"agent_available"`

	Metadata map[string]string `json:"metadata,omitempty"`
}
