package routing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dentalvoice/internal/agents"
	"dentalvoice/pkg/logger"
)

// Engine evaluates routing for one inbound call.
//
// Priority, first match wins:
//  1) Emergency keywords (checked before hours and activation, so a 3am
//     emergency reaches the emergency line, not the after-hours line)
//  2) After hours
//  3) Agent inactive (fallback, then queue/overflow)
//  4) AI agent
//
// Decide is pure apart from one delegated counter increment per call; it
// performs no DB writes and no carrier calls of its own.

type Engine struct {
	Store agents.ConfigStore
	Queue QueueService

	// DefaultTZ overrides DefaultTimezone as the fallback zone for
	// tenants with an unloadable timezone. Empty keeps the built-in.
	DefaultTZ string

	Now func() time.Time
}

// QueueService reserves a caller's slot in the hold queue. Join returns
// the 1-based position, or ok=false when the queue is at capacity.
type QueueService interface {
	Join(ctx context.Context, agentID string, maxSize int) (position int, ok bool, err error)
}

// avgHandleSeconds drives the queue wait estimate: position times an
// assumed per-call handle time.
const avgHandleSeconds = 90

func NewEngine(store agents.ConfigStore, queue QueueService) *Engine {
	return &Engine{Store: store, Queue: queue, Now: time.Now}
}

// Decide produces the RoutingResult for one inbound call. The situation
// flags are filled truthfully on every branch.
func (e *Engine) Decide(ctx context.Context, cfg agents.AgentRoutingConfig, callerText string) (RoutingResult, error) {
	if cfg.ID == "" {
		return RoutingResult{}, errors.New("routing: agent config id required")
	}
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}

	log := logger.From(ctx)

	var tz string
	if cfg.WorkingHours != nil {
		tz = cfg.WorkingHours.Timezone
	}
	local, fellBack := ResolveLocalOrDefault(now(), tz, e.DefaultTZ)
	if fellBack {
		log.Warn("unknown timezone, using default", "agent_id", cfg.ID, "timezone", tz)
	}

	hours := EvaluateHours(cfg.WorkingHours, local)
	isEmergency := DetectEmergency(callerText, cfg.EmergencyKeywords)
	agentActive := cfg.IsActive && cfg.Status == agents.AgentStatusActive

	res := RoutingResult{
		IsEmergency:    isEmergency,
		IsAfterHours:   hours.IsAfterHours,
		IsHoliday:      hours.IsHoliday,
		IsLunchBreak:   hours.IsLunchBreak,
		AgentAvailable: agentActive,
	}
	if hours.NextOpenTime != "" {
		res.Metadata = map[string]string{"next_open": hours.NextOpenTime}
	}

	// 1) Emergency. NOTE: EmergencyBypass is configured but intentionally
	// not consulted here; the short-circuit is unconditional, matching
	// long-standing behavior. Flagged for stakeholder confirmation.
	if isEmergency && cfg.EmergencyNumber != "" {
		res.Decision = DecisionForwardEmergency
		res.Reason = fmt.Sprintf("Emergency keywords detected (%s priority)", ClassifyPriority(callerText))
		res.ForwardTo = cfg.EmergencyNumber
		res.ForwardToName = "Emergency line"
		e.bump(ctx, cfg.ID, agents.StatEmergencyCallsRouted, agents.StatTotalCallsRouted)
		return res, nil
	}

	// 2) After hours.
	if hours.IsAfterHours && cfg.AfterHoursNumber != "" {
		res.Decision = DecisionForwardAfterHrs
		res.Reason = hours.Reason
		res.ForwardTo = cfg.AfterHoursNumber
		res.ForwardToName = "After-hours line"
		e.bump(ctx, cfg.ID, agents.StatAfterHoursRoutedCalls, agents.StatTotalCallsRouted)
		return res, nil
	}

	// 3) Agent inactive.
	if !agentActive {
		if cfg.FallbackNumber != "" {
			res.Decision = DecisionForwardFallback
			res.Reason = fmt.Sprintf("Agent unavailable (status %s)", cfg.Status)
			res.ForwardTo = cfg.FallbackNumber
			res.ForwardToName = "Fallback line"
			e.bump(ctx, cfg.ID, agents.StatFallbackRoutedCalls, agents.StatTotalCallsRouted)
			return res, nil
		}
		// No fallback configured: queue if enabled, else overflow.
		// This branch does not increment total_calls_routed; every other
		// branch does. Known inconsistency, preserved pending
		// stakeholder confirmation.
		if cfg.CallQueueEnabled && e.Queue != nil {
			pos, ok, err := e.Queue.Join(ctx, cfg.ID, cfg.MaxQueueSize)
			if err != nil {
				log.Warn("queue join failed, overflowing", "agent_id", cfg.ID, "err", err)
			} else if ok {
				res.Decision = DecisionQueue
				res.Reason = "Agent unavailable; caller queued"
				res.QueuePosition = pos
				res.EstimatedWait = pos * avgHandleSeconds
				if cfg.MaxQueueWaitSeconds > 0 && res.EstimatedWait > cfg.MaxQueueWaitSeconds {
					res.EstimatedWait = cfg.MaxQueueWaitSeconds
				}
				return res, nil
			}
		}
		return e.overflow(cfg, res), nil
	}

	// 4) Agent active and within hours.
	res.Decision = DecisionAIAgent
	res.Reason = "Agent active; connecting AI voice session"
	e.bump(ctx, cfg.ID, agents.StatTotalCallsRouted)
	return res, nil
}

// overflow applies the configured overflow action, defaulting to
// voicemail.
func (e *Engine) overflow(cfg agents.AgentRoutingConfig, res RoutingResult) RoutingResult {
	switch cfg.OverflowAction {
	case agents.OverflowForward:
		if cfg.OverflowNumber != "" {
			res.Decision = DecisionForwardTransfer
			res.Reason = "Agent unavailable; overflow forward"
			res.ForwardTo = cfg.OverflowNumber
			res.ForwardToName = "Overflow line"
			return res
		}
		// No dedicated overflow number: forward to the best-ranked
		// transfer target instead. With none staffed, voicemail.
		if t := SelectTransfer(cfg.TransferNumbers, ""); t != nil {
			res.Decision = DecisionForwardTransfer
			res.Reason = "Agent unavailable; overflow to transfer target"
			res.ForwardTo = t.Number
			res.ForwardToName = t.Name
			return res
		}
		res.Decision = DecisionVoicemail
		res.Reason = "Agent unavailable; no overflow target, taking voicemail"
	case agents.OverflowCallback:
		res.Decision = DecisionCallback
		res.Reason = "Agent unavailable; offering callback"
	default:
		res.Decision = DecisionVoicemail
		res.Reason = "Agent unavailable; taking voicemail"
	}
	return res
}

// bump delegates atomic counter increments to the store. Failures are
// logged and swallowed: stats must never fail a live call. At-least-once
// webhook delivery already makes a small over-count acceptable.
func (e *Engine) bump(ctx context.Context, agentID string, fields ...string) {
	if e.Store == nil {
		return
	}
	log := logger.From(ctx)
	for _, f := range fields {
		if err := e.Store.IncrementStat(ctx, agentID, f); err != nil {
			log.Warn("stat increment failed", "agent_id", agentID, "field", f, "err", err)
		}
	}
}
