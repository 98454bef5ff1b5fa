package routing

import (
	"context"
	"errors"
	"testing"
	"time"

	"dentalvoice/internal/agents"
)

type statRecorder struct {
	incremented []string
	failWith    error
}

func (s *statRecorder) GetAgentRoutingConfig(ctx context.Context, agentID string) (agents.AgentRoutingConfig, error) {
	return agents.AgentRoutingConfig{}, agents.ErrNotFound
}

func (s *statRecorder) GetAgentIDByNumber(ctx context.Context, number string) (string, error) {
	return "", agents.ErrNotFound
}

func (s *statRecorder) UpdateRoutingConfig(ctx context.Context, agentID, tenantID string, patch agents.ConfigPatch) (agents.AgentRoutingConfig, error) {
	return agents.AgentRoutingConfig{}, agents.ErrNotFound
}

func (s *statRecorder) IncrementStat(ctx context.Context, agentID, field string) error {
	if s.failWith != nil {
		return s.failWith
	}
	s.incremented = append(s.incremented, field)
	return nil
}

type stubQueue struct {
	position int
	full     bool
	err      error

	joinedAgent string
	joinedMax   int
}

func (q *stubQueue) Join(ctx context.Context, agentID string, maxSize int) (int, bool, error) {
	q.joinedAgent = agentID
	q.joinedMax = maxSize
	if q.err != nil {
		return 0, false, q.err
	}
	if q.full {
		return 0, false, nil
	}
	return q.position, true, nil
}

// fixedEngine pins the clock to Monday 2025-03-10 10:00 America/New_York,
// inside the default weekday schedule used below.
func fixedEngine(store agents.ConfigStore, queue QueueService) *Engine {
	e := NewEngine(store, queue)
	loc, _ := time.LoadLocation("America/New_York")
	e.Now = func() time.Time {
		return time.Date(2025, 3, 10, 10, 0, 0, 0, loc)
	}
	return e
}

func activeConfig() agents.AgentRoutingConfig {
	return agents.AgentRoutingConfig{
		ID:           "agent-1",
		TenantID:     "tenant-1",
		TenantNumber: "+15550001000",
		IsActive:     true,
		Status:       agents.AgentStatusActive,
		WorkingHours: &agents.WorkingHoursConfig{
			Enabled:  true,
			Timezone: "America/New_York",
			Schedule: weekdaySchedule("08:00", "17:00"),
		},
	}
}

func TestDecideRequiresConfigID(t *testing.T) {
	e := fixedEngine(&statRecorder{}, nil)
	if _, err := e.Decide(context.Background(), agents.AgentRoutingConfig{}, ""); err == nil {
		t.Fatalf("expected error for missing config id")
	}
}

func TestDecideActiveAgentBusinessHours(t *testing.T) {
	store := &statRecorder{}
	e := fixedEngine(store, nil)

	res, err := e.Decide(context.Background(), activeConfig(), "I'd like to book a cleaning")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Decision != DecisionAIAgent {
		t.Fatalf("expected ai_agent, got %s", res.Decision)
	}
	if res.IsEmergency || res.IsAfterHours || !res.AgentAvailable {
		t.Fatalf("bad situation flags: %+v", res)
	}
	if len(store.incremented) != 1 || store.incremented[0] != agents.StatTotalCallsRouted {
		t.Fatalf("expected one total increment, got %v", store.incremented)
	}
}

func TestDecideEmergencyBeforeHoursAndStatus(t *testing.T) {
	store := &statRecorder{}
	e := fixedEngine(store, nil)

	// Inactive agent, 3am call: emergency still wins.
	loc, _ := time.LoadLocation("America/New_York")
	e.Now = func() time.Time { return time.Date(2025, 3, 10, 3, 0, 0, 0, loc) }

	cfg := activeConfig()
	cfg.IsActive = false
	cfg.Status = agents.AgentStatusInactive
	cfg.EmergencyNumber = "+15550009111"
	cfg.AfterHoursNumber = "+15550002000"

	res, err := e.Decide(context.Background(), cfg, "my tooth got knocked out and there's severe bleeding")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Decision != DecisionForwardEmergency {
		t.Fatalf("expected forward_emergency, got %s", res.Decision)
	}
	if res.ForwardTo != "+15550009111" {
		t.Fatalf("expected emergency number, got %s", res.ForwardTo)
	}
	if !res.IsEmergency || !res.IsAfterHours || res.AgentAvailable {
		t.Fatalf("situation flags must stay truthful: %+v", res)
	}
	want := []string{agents.StatEmergencyCallsRouted, agents.StatTotalCallsRouted}
	if len(store.incremented) != 2 || store.incremented[0] != want[0] || store.incremented[1] != want[1] {
		t.Fatalf("expected %v, got %v", want, store.incremented)
	}
}

func TestDecideEmergencyWithoutNumberFallsThrough(t *testing.T) {
	store := &statRecorder{}
	e := fixedEngine(store, nil)

	cfg := activeConfig()
	res, err := e.Decide(context.Background(), cfg, "severe pain and swelling")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Decision != DecisionAIAgent {
		t.Fatalf("no emergency number configured, expected ai_agent, got %s", res.Decision)
	}
	if !res.IsEmergency {
		t.Fatalf("emergency flag must still be set")
	}
}

func TestDecideAfterHoursForward(t *testing.T) {
	store := &statRecorder{}
	e := fixedEngine(store, nil)
	loc, _ := time.LoadLocation("America/New_York")
	e.Now = func() time.Time { return time.Date(2025, 3, 10, 19, 0, 0, 0, loc) }

	cfg := activeConfig()
	cfg.AfterHoursNumber = "+15550002000"

	res, err := e.Decide(context.Background(), cfg, "hi, I'd like an appointment")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Decision != DecisionForwardAfterHrs {
		t.Fatalf("expected forward_after_hours, got %s", res.Decision)
	}
	if res.ForwardTo != "+15550002000" {
		t.Fatalf("expected after-hours number, got %s", res.ForwardTo)
	}
	if res.Metadata["next_open"] == "" {
		t.Fatalf("expected next_open metadata")
	}
	want := []string{agents.StatAfterHoursRoutedCalls, agents.StatTotalCallsRouted}
	if len(store.incremented) != 2 || store.incremented[0] != want[0] {
		t.Fatalf("expected %v, got %v", want, store.incremented)
	}
}

func TestDecideAfterHoursWithoutNumberReachesAgent(t *testing.T) {
	e := fixedEngine(&statRecorder{}, nil)
	loc, _ := time.LoadLocation("America/New_York")
	e.Now = func() time.Time { return time.Date(2025, 3, 10, 19, 0, 0, 0, loc) }

	res, err := e.Decide(context.Background(), activeConfig(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Decision != DecisionAIAgent {
		t.Fatalf("no after-hours number, active agent should answer: got %s", res.Decision)
	}
	if !res.IsAfterHours {
		t.Fatalf("after-hours flag must still be set")
	}
}

func TestDecideInactiveAgentFallback(t *testing.T) {
	store := &statRecorder{}
	e := fixedEngine(store, nil)

	cfg := activeConfig()
	cfg.Status = agents.AgentStatusPaused
	cfg.FallbackNumber = "+15550003000"

	res, err := e.Decide(context.Background(), cfg, "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Decision != DecisionForwardFallback {
		t.Fatalf("expected forward_fallback, got %s", res.Decision)
	}
	if res.ForwardTo != "+15550003000" {
		t.Fatalf("expected fallback number, got %s", res.ForwardTo)
	}
	want := []string{agents.StatFallbackRoutedCalls, agents.StatTotalCallsRouted}
	if len(store.incremented) != 2 || store.incremented[0] != want[0] {
		t.Fatalf("expected %v, got %v", want, store.incremented)
	}
}

func TestDecideInactiveAgentQueues(t *testing.T) {
	store := &statRecorder{}
	queue := &stubQueue{position: 3}
	e := fixedEngine(store, queue)

	cfg := activeConfig()
	cfg.IsActive = false
	cfg.CallQueueEnabled = true
	cfg.MaxQueueSize = 10

	res, err := e.Decide(context.Background(), cfg, "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Decision != DecisionQueue {
		t.Fatalf("expected queue, got %s", res.Decision)
	}
	if res.QueuePosition != 3 || res.EstimatedWait != 3*avgHandleSeconds {
		t.Fatalf("bad queue math: %+v", res)
	}
	if queue.joinedAgent != "agent-1" || queue.joinedMax != 10 {
		t.Fatalf("queue join got agent=%s max=%d", queue.joinedAgent, queue.joinedMax)
	}
	if len(store.incremented) != 0 {
		t.Fatalf("queue branch must not increment counters, got %v", store.incremented)
	}
}

func TestDecideQueueWaitCapped(t *testing.T) {
	queue := &stubQueue{position: 9}
	e := fixedEngine(&statRecorder{}, queue)

	cfg := activeConfig()
	cfg.IsActive = false
	cfg.CallQueueEnabled = true
	cfg.MaxQueueSize = 10
	cfg.MaxQueueWaitSeconds = 300

	res, err := e.Decide(context.Background(), cfg, "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.EstimatedWait != 300 {
		t.Fatalf("expected wait capped at 300, got %d", res.EstimatedWait)
	}
}

func TestDecideQueueFullOverflows(t *testing.T) {
	queue := &stubQueue{full: true}
	e := fixedEngine(&statRecorder{}, queue)

	cfg := activeConfig()
	cfg.IsActive = false
	cfg.CallQueueEnabled = true
	cfg.OverflowAction = agents.OverflowForward
	cfg.OverflowNumber = "+15550004000"

	res, err := e.Decide(context.Background(), cfg, "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Decision != DecisionForwardTransfer {
		t.Fatalf("expected overflow forward, got %s", res.Decision)
	}
	if res.ForwardTo != "+15550004000" {
		t.Fatalf("expected overflow number, got %s", res.ForwardTo)
	}
}

func TestDecideQueueErrorOverflowsToVoicemail(t *testing.T) {
	queue := &stubQueue{err: errors.New("redis down")}
	e := fixedEngine(&statRecorder{}, queue)

	cfg := activeConfig()
	cfg.IsActive = false
	cfg.CallQueueEnabled = true

	res, err := e.Decide(context.Background(), cfg, "hello")
	if err != nil {
		t.Fatalf("queue failure must not fail the call: %v", err)
	}
	if res.Decision != DecisionVoicemail {
		t.Fatalf("expected voicemail, got %s", res.Decision)
	}
}

func TestDecideOverflowCallback(t *testing.T) {
	e := fixedEngine(&statRecorder{}, nil)

	cfg := activeConfig()
	cfg.IsActive = false
	cfg.OverflowAction = agents.OverflowCallback

	res, err := e.Decide(context.Background(), cfg, "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Decision != DecisionCallback {
		t.Fatalf("expected callback, got %s", res.Decision)
	}
}

func TestDecideOverflowForwardUsesTransferTarget(t *testing.T) {
	e := fixedEngine(&statRecorder{}, nil)

	cfg := activeConfig()
	cfg.IsActive = false
	cfg.OverflowAction = agents.OverflowForward
	cfg.TransferNumbers = []agents.TransferTarget{
		{Name: "Off Duty", Number: "+15550000002", Priority: 0, Available: false},
		{Name: "Billing", Number: "+15550000003", Priority: 2, Available: true},
		{Name: "Front Desk", Number: "+15550000001", Priority: 1, Available: true},
	}

	res, err := e.Decide(context.Background(), cfg, "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Decision != DecisionForwardTransfer {
		t.Fatalf("expected forward_transfer, got %s", res.Decision)
	}
	if res.ForwardTo != "+15550000001" || res.ForwardToName != "Front Desk" {
		t.Fatalf("expected best-ranked staffed target, got %s (%s)", res.ForwardTo, res.ForwardToName)
	}
}

func TestDecideOverflowForwardWithoutTargetsTakesVoicemail(t *testing.T) {
	e := fixedEngine(&statRecorder{}, nil)

	cfg := activeConfig()
	cfg.IsActive = false
	cfg.OverflowAction = agents.OverflowForward
	cfg.TransferNumbers = []agents.TransferTarget{
		{Name: "Off Duty", Number: "+15550000002", Available: false},
	}

	res, err := e.Decide(context.Background(), cfg, "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Decision != DecisionVoicemail {
		t.Fatalf("expected voicemail, got %s", res.Decision)
	}
	if res.ForwardTo != "" {
		t.Fatalf("voicemail carries no forward number, got %s", res.ForwardTo)
	}
}

func TestDecidePausedAgentDefaultsToVoicemail(t *testing.T) {
	e := fixedEngine(&statRecorder{}, nil)

	cfg := activeConfig()
	cfg.Status = agents.AgentStatusPaused

	res, err := e.Decide(context.Background(), cfg, "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Decision != DecisionVoicemail {
		t.Fatalf("paused agent with nothing configured must take voicemail, got %s", res.Decision)
	}
	if res.AgentAvailable {
		t.Fatalf("paused agent must not report as available: %+v", res)
	}
}

func TestDecideStatFailureDoesNotFailCall(t *testing.T) {
	store := &statRecorder{failWith: errors.New("db down")}
	e := fixedEngine(store, nil)

	res, err := e.Decide(context.Background(), activeConfig(), "hello")
	if err != nil {
		t.Fatalf("stat failure must be swallowed: %v", err)
	}
	if res.Decision != DecisionAIAgent {
		t.Fatalf("expected ai_agent, got %s", res.Decision)
	}
}

func TestDecideUnknownTimezoneFallsBack(t *testing.T) {
	e := fixedEngine(&statRecorder{}, nil)

	cfg := activeConfig()
	cfg.WorkingHours.Timezone = "Mars/Olympus"

	res, err := e.Decide(context.Background(), cfg, "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Fixed clock is 10:00 America/New_York; the default zone is the same,
	// so the call still lands inside business hours.
	if res.Decision != DecisionAIAgent {
		t.Fatalf("expected ai_agent after timezone fallback, got %s", res.Decision)
	}
}
