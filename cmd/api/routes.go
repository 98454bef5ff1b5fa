package main

import (
	"dentalvoice/internal/agents"
	"dentalvoice/internal/audit"
	"dentalvoice/internal/auth"
	"dentalvoice/internal/calls"
	"dentalvoice/internal/config"
	"dentalvoice/internal/httpapi"
	"dentalvoice/internal/routing"
	"dentalvoice/internal/telephony"

	"github.com/gin-gonic/gin"
)

type appDeps struct {
	cfg       config.Config
	agents    agents.ConfigStore
	auth      *auth.Manager
	lifecycle *calls.Lifecycle
	engine    *routing.Engine
	queue     *telephony.RedisQueue
	audit     *audit.Service
	dialer    telephony.Dialer
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic.
func registerRoutes(r *gin.Engine, deps appDeps, authMW gin.HandlerFunc) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Carrier webhooks (public, signature-validated).
	voice := telephony.VoiceHandlers{
		Agents: deps.agents,
		Calls:  deps.lifecycle,
		Engine: deps.engine,
		Queue:  deps.queue,
		Audit:  telephony.AuditAdapter{Service: deps.audit},
		AgentResolver: func(c *gin.Context, toNumber string) (string, error) {
			return deps.agents.GetAgentIDByNumber(c.Request.Context(), toNumber)
		},
		StreamBaseURL: deps.cfg.Voice.StreamBaseURL,
		PublicBaseURL: deps.cfg.Voice.PublicBaseURL,
	}

	wh := r.Group("/webhooks/voice")
	wh.Use(telephony.RequireTwilioSignature(deps.cfg.Twilio.AuthToken, deps.cfg.Voice.PublicBaseURL))
	{
		wh.POST("/inbound", voice.HandleInboundVoice)
		wh.POST("/status", voice.HandleCallStatus)
		wh.POST("/dial-status", voice.HandleDialStatus)
		wh.POST("/recording", voice.HandleRecording)
		wh.POST("/recording-done", voice.HandleRecordingDone)
		wh.POST("/after-hours-menu", voice.HandleAfterHoursMenu)
		wh.POST("/transfer-menu", voice.HandleTransferMenu)
		wh.POST("/callback-menu", voice.HandleCallbackMenu)
		wh.POST("/queue-wait", voice.HandleQueueWait)
	}

	// Tenant configuration API (JWT-protected).
	api := httpapi.Handlers{
		Agents:        deps.agents,
		Auth:          deps.auth,
		Dialer:        deps.dialer,
		PublicBaseURL: deps.cfg.Voice.PublicBaseURL,
	}

	v1 := r.Group("/v1")
	// Token issuance sits before the auth middleware; everything else
	// requires an access token.
	v1.POST("/auth/login", api.Login)
	v1.Use(authMW)
	{
		v1.GET("/agents/:agent_id/routing-config", api.GetRoutingConfig)
		v1.PATCH("/agents/:agent_id/routing-config", api.PatchRoutingConfig)
		v1.GET("/agents/:agent_id/routing-stats", api.GetRoutingStats)
		v1.POST("/calls/outbound", api.StartOutboundCall)
	}
}
