package telephony

import (
	"errors"
	"net/http"

	"dentalvoice/internal/agents"
	"dentalvoice/internal/calls"
	"dentalvoice/internal/routing"
	"dentalvoice/pkg/logger"

	"github.com/gin-gonic/gin"
)

// VoiceHandlers converts carrier webhooks to internal types, delegates to
// the routing engine and call lifecycle, and writes TwiML.
//
// Follow-up events (digits, status, recording) carry only the carrier
// call id; all other context is recovered from the call record store,
// because the follow-up may land on a different process instance.

type VoiceHandlers struct {
	Agents agents.ConfigStore
	Calls  *calls.Lifecycle
	Engine *routing.Engine
	Queue  *RedisQueue
	Audit  DecisionAuditor

	// AgentResolver maps the dialed number to the owning agent config id.
	AgentResolver func(c *gin.Context, toNumber string) (agentID string, err error)

	// StreamBaseURL is the media-stream endpoint base (wss://...); the
	// agent id is appended per call.
	StreamBaseURL string
	// PublicBaseURL is the https base for action/callback URLs.
	PublicBaseURL string
}

// DecisionAuditor records routing decisions, best-effort.
type DecisionAuditor interface {
	LogDecision(c *gin.Context, tenantID, agentID, providerCallID string, res routing.RoutingResult)
}

const contentTypeXML = "application/xml"

// HandleInboundVoice is the entry webhook for a new inbound call.
func (h VoiceHandlers) HandleInboundVoice(c *gin.Context) {
	log := logger.FromGin(c)

	form, err := ParseTwilioVoiceForm(c.Request)
	if err != nil || form.CallSid == "" {
		log.Warn("voice webhook parse failed", "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
		return
	}

	agentID, err := h.AgentResolver(c, form.To)
	if err != nil {
		log.Warn("agent resolution failed", "to", form.To, "err", err)
		h.respondXML(c, RenderApology())
		return
	}

	cfg, err := h.Agents.GetAgentRoutingConfig(c.Request.Context(), agentID)
	if err != nil {
		// No config is fatal for this call: nothing safe to fall back to.
		log.Error("agent config load failed", "agent_id", agentID, "err", err)
		h.respondXML(c, RenderApology())
		return
	}

	if _, err := h.Calls.Open(c.Request.Context(), cfg.TenantID, cfg.ID, form.CallSid, form.From, calls.DirectionInbound); err != nil {
		log.Error("call record open failed", "call_sid", form.CallSid, "err", err)
		// Routing still proceeds; the caller should not hear a failure
		// because bookkeeping did.
	}

	res, err := h.Engine.Decide(c.Request.Context(), cfg, form.SpeechResult)
	if err != nil {
		log.Error("routing decision failed", "agent_id", agentID, "err", err)
		h.respondXML(c, RenderApology())
		return
	}

	if err := h.Calls.Annotate(c.Request.Context(), form.CallSid, calls.RoutingSnapshot{
		Decision:      string(res.Decision),
		RoutedTo:      res.ForwardTo,
		RoutedToName:  res.ForwardToName,
		WasEmergency:  res.IsEmergency,
		WasAfterHours: res.IsAfterHours,
	}); err != nil {
		log.Warn("routing annotation failed", "call_sid", form.CallSid, "err", err)
	}

	if h.Audit != nil {
		h.Audit.LogDecision(c, cfg.TenantID, cfg.ID, form.CallSid, res)
	}

	log.Info("call routed",
		"call_sid", form.CallSid,
		"agent_id", cfg.ID,
		"decision", res.Decision,
		"reason", res.Reason,
		"emergency", res.IsEmergency,
		"after_hours", res.IsAfterHours,
	)

	rctx := h.renderContext(form, cfg)
	doc := RenderRouting(res, rctx)
	// When the transfer decision came from the target pool rather than a
	// dedicated overflow number and several targets are staffed, let the
	// caller pick instead of bridging to the ranked default.
	if res.Decision == routing.DecisionForwardTransfer && cfg.OverflowNumber == "" {
		if targets := availableTargets(cfg.TransferNumbers); len(targets) > 1 {
			doc = RenderTransferMenu(targets, rctx)
		}
	}
	h.respondXML(c, doc)
}

// HandleDialStatus handles the bridge-dial action callback. It fires
// mid-call (CallStatus is still in-progress); the call's terminal state
// arrives later on the status webhook, so the record is never touched
// here. The response is the next document the caller hears.
func (h VoiceHandlers) HandleDialStatus(c *gin.Context) {
	form, cfg, ok := h.recoverContext(c)
	if !ok {
		return
	}
	logger.FromGin(c).Info("dial leg finished",
		"call_sid", form.CallSid, "dial_status", form.DialCallStatus)
	h.respondXML(c, RenderDialOutcome(form.DialCallStatus, h.renderContext(form, cfg)))
}

// HandleCallStatus applies the carrier's terminal status callback.
func (h VoiceHandlers) HandleCallStatus(c *gin.Context) {
	log := logger.FromGin(c)

	form, err := ParseTwilioVoiceForm(c.Request)
	if err != nil || form.CallSid == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
		return
	}

	rec, err := h.Calls.Get(c.Request.Context(), form.CallSid)
	if err != nil {
		log.Warn("status callback for unknown call", "call_sid", form.CallSid)
		c.Status(http.StatusOK)
		return
	}

	if err := h.Calls.Close(c.Request.Context(), form.CallSid, form.CallStatus, form.CallDuration); err != nil {
		if errors.Is(err, calls.ErrTerminal) {
			// Duplicate delivery; already closed.
			c.Status(http.StatusOK)
			return
		}
		log.Error("terminal status update failed", "call_sid", form.CallSid, "err", err)
		c.Status(http.StatusOK)
		return
	}

	// Release the hold-queue slot if this caller held one.
	if h.Queue != nil && rec.RoutingDecision == string(routing.DecisionQueue) {
		if err := h.Queue.Leave(c.Request.Context(), rec.AgentID); err != nil {
			log.Warn("queue release failed", "agent_id", rec.AgentID, "err", err)
		}
	}

	c.Status(http.StatusOK)
}

// HandleRecording attaches a recording reference; tolerated after the
// call is terminal.
func (h VoiceHandlers) HandleRecording(c *gin.Context) {
	log := logger.FromGin(c)

	form, err := ParseTwilioVoiceForm(c.Request)
	if err != nil || form.CallSid == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
		return
	}
	if err := h.Calls.AttachRecording(c.Request.Context(), form.CallSid, form.RecordingURL, form.RecordingSid); err != nil {
		log.Warn("recording attach failed", "call_sid", form.CallSid, "err", err)
	}
	c.Status(http.StatusOK)
}

// HandleRecordingDone closes out a voicemail recording with a farewell.
func (h VoiceHandlers) HandleRecordingDone(c *gin.Context) {
	h.respondXML(c, render(
		twimlSay{Voice: sayVoice, Text: "Thank you. Your message has been recorded and we will get back to you. Goodbye."},
		twimlHangup{},
	))
}

// HandleAfterHoursMenu handles the single-digit after-hours menu.
func (h VoiceHandlers) HandleAfterHoursMenu(c *gin.Context) {
	form, cfg, ok := h.recoverContext(c)
	if !ok {
		return
	}
	h.respondXML(c, RenderAfterHoursDigit(form.Digits, h.renderContext(form, cfg)))
}

// HandleTransferMenu reads the transfer menu or bridges the chosen
// target, depending on whether a digit was pressed yet.
func (h VoiceHandlers) HandleTransferMenu(c *gin.Context) {
	form, cfg, ok := h.recoverContext(c)
	if !ok {
		return
	}

	// Positional menu is built from available targets in list order; the
	// same filter runs on both the menu and the digit request so digits
	// stay aligned across process instances.
	targets := availableTargets(cfg.TransferNumbers)
	rctx := h.renderContext(form, cfg)
	if form.Digits == "" {
		h.respondXML(c, RenderTransferMenu(targets, rctx))
		return
	}
	h.respondXML(c, RenderTransferDigit(form.Digits, targets, rctx))
}

// HandleCallbackMenu handles the callback-vs-hold menu. Anything but "1"
// keeps the caller in the hold queue.
func (h VoiceHandlers) HandleCallbackMenu(c *gin.Context) {
	form, cfg, ok := h.recoverContext(c)
	if !ok {
		return
	}
	rctx := h.renderContext(form, cfg)
	if form.Digits == "1" {
		log := logger.FromGin(c)
		log.Info("callback requested", "call_sid", form.CallSid, "agent_id", cfg.ID)
		h.respondXML(c, render(
			twimlSay{Voice: sayVoice, Text: "Thank you. We will call you back as soon as a team member is available. Goodbye."},
			twimlHangup{},
		))
		return
	}
	h.respondXML(c, renderCallback(rctx))
}

// HandleQueueWait serves the hold loop for enqueued callers. The
// trailing redirect re-fetches this document so the loop continues
// until the caller is dequeued or hangs up.
func (h VoiceHandlers) HandleQueueWait(c *gin.Context) {
	waitURL := h.PublicBaseURL + "/webhooks/voice/queue-wait"
	h.respondXML(c, render(
		twimlSay{Voice: sayVoice, Text: "Thank you for holding. A team member will be with you shortly."},
		twimlPause{Length: 10},
		twimlRedirect{URL: waitURL},
	))
}

// recoverContext reloads call + agent config for follow-up events.
func (h VoiceHandlers) recoverContext(c *gin.Context) (TwilioVoiceForm, agents.AgentRoutingConfig, bool) {
	log := logger.FromGin(c)

	form, err := ParseTwilioVoiceForm(c.Request)
	if err != nil || form.CallSid == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
		return TwilioVoiceForm{}, agents.AgentRoutingConfig{}, false
	}

	rec, err := h.Calls.Get(c.Request.Context(), form.CallSid)
	if err != nil {
		log.Warn("follow-up for unknown call", "call_sid", form.CallSid)
		h.respondXML(c, RenderApology())
		return TwilioVoiceForm{}, agents.AgentRoutingConfig{}, false
	}

	cfg, err := h.Agents.GetAgentRoutingConfig(c.Request.Context(), rec.AgentID)
	if err != nil {
		log.Error("agent config load failed", "agent_id", rec.AgentID, "err", err)
		h.respondXML(c, RenderApology())
		return TwilioVoiceForm{}, agents.AgentRoutingConfig{}, false
	}
	return form, cfg, true
}

func (h VoiceHandlers) renderContext(form TwilioVoiceForm, cfg agents.AgentRoutingConfig) RenderContext {
	streamURL := ""
	if h.StreamBaseURL != "" {
		streamURL = h.StreamBaseURL + "/" + cfg.ID
	}
	return RenderContext{
		CallSID:         form.CallSid,
		Caller:          form.From,
		AgentID:         cfg.ID,
		TenantNumber:    cfg.TenantNumber,
		StreamURL:       streamURL,
		BaseURL:         h.PublicBaseURL,
		EmergencyNumber: cfg.EmergencyNumber,
	}
}

func (h VoiceHandlers) respondXML(c *gin.Context, doc string) {
	c.Header("Content-Type", contentTypeXML)
	c.String(http.StatusOK, doc)
}

func availableTargets(targets []agents.TransferTarget) []agents.TransferTarget {
	out := make([]agents.TransferTarget, 0, len(targets))
	for _, t := range targets {
		if t.Available {
			out = append(out, t)
		}
	}
	return out
}
