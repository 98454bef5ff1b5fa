package httpapi

import (
	"errors"
	"net/http"
	"time"

	"dentalvoice/internal/agents"
	"dentalvoice/internal/auth"
	"dentalvoice/internal/calls"
	"dentalvoice/internal/telephony"
	"dentalvoice/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers serves the tenant configuration API. Apart from token
// issuance, all routes are JWT-protected; tenant scope comes from the
// token, never the body.
type Handlers struct {
	Agents agents.ConfigStore
	Auth   *auth.Manager
	Dialer telephony.Dialer

	// PublicBaseURL builds control-document and callback URLs for
	// outbound calls.
	PublicBaseURL string
}

type loginRequest struct {
	UserID   string `json:"user_id" binding:"required"`
	TenantID string `json:"tenant_id" binding:"required"`
	Role     string `json:"role" binding:"required"`
}

// Login issues a JWT token pair for the configuration API.
//
// NOTE: credential validation lives with the identity collaborator;
// this endpoint trusts the upstream gateway to have authenticated the
// caller and only mints the tenant-scoped pair.
func (h Handlers) Login(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "user_id, tenant_id, role required"})
		return
	}
	pair, err := h.Auth.IssuePair(time.Now(), req.UserID, req.TenantID, req.Role)
	if err != nil {
		logger.FromGin(c).Error("token issuance failed", "user_id", req.UserID, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	})
}

// GetRoutingConfig returns the agent's routing configuration.
func (h Handlers) GetRoutingConfig(c *gin.Context) {
	tenantID, err := auth.TenantID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "tenant scope missing"})
		return
	}

	cfg, err := h.Agents.GetAgentRoutingConfig(c.Request.Context(), c.Param("agent_id"))
	if err != nil {
		respondStoreErr(c, err)
		return
	}
	if cfg.TenantID != tenantID {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// PatchRoutingConfig applies a partial update. Validation failures
// (malformed working hours, non-E.164 numbers) surface synchronously
// here, at write time, so call-time code never has to validate.
func (h Handlers) PatchRoutingConfig(c *gin.Context) {
	tenantID, err := auth.TenantID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "tenant scope missing"})
		return
	}

	var patch agents.ConfigPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	cfg, err := h.Agents.UpdateRoutingConfig(c.Request.Context(), c.Param("agent_id"), tenantID, patch)
	if err != nil {
		if errors.Is(err, agents.ErrInvalidConfig) {
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		respondStoreErr(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// GetRoutingStats returns the agent's routing counters.
func (h Handlers) GetRoutingStats(c *gin.Context) {
	tenantID, err := auth.TenantID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "tenant scope missing"})
		return
	}
	cfg, err := h.Agents.GetAgentRoutingConfig(c.Request.Context(), c.Param("agent_id"))
	if err != nil {
		respondStoreErr(c, err)
		return
	}
	if cfg.TenantID != tenantID {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, cfg.Stats)
}

type outboundCallRequest struct {
	AgentID string `json:"agent_id" binding:"required"`
	To      string `json:"to" binding:"required"`
	Record  bool   `json:"record"`
}

// StartOutboundCall places an outbound leg on behalf of a tenant (e.g. a
// staff-initiated callback). The carrier fetches the control document
// from the outbound webhook URL.
func (h Handlers) StartOutboundCall(c *gin.Context) {
	log := logger.FromGin(c)

	tenantID, err := auth.TenantID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "tenant scope missing"})
		return
	}
	if h.Dialer == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "dialer not configured"})
		return
	}

	var req outboundCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if !agents.ValidE164(req.To) {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": "to must be E.164"})
		return
	}

	cfg, err := h.Agents.GetAgentRoutingConfig(c.Request.Context(), req.AgentID)
	if err != nil {
		respondStoreErr(c, err)
		return
	}
	if cfg.TenantID != tenantID {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if cfg.TenantNumber == "" {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": "tenant has no registered number"})
		return
	}

	out, err := h.Dialer.StartCall(c.Request.Context(), telephony.OutboundCallRequest{
		To:                req.To,
		From:              cfg.TenantNumber,
		InitialURL:        h.PublicBaseURL + "/webhooks/voice/inbound",
		StatusCallbackURL: h.PublicBaseURL + "/webhooks/voice/status",
		RecordCall:        req.Record,
	})
	if err != nil {
		log.Error("outbound call failed", "agent_id", req.AgentID, "err", err)
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "carrier call failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"provider_call_id": out.ProviderCallID, "direction": calls.DirectionOutbound})
}

func respondStoreErr(c *gin.Context, err error) {
	if errors.Is(err, agents.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	logger.FromGin(c).Error("store error", "err", err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
