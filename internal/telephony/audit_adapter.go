package telephony

import (
	"dentalvoice/internal/audit"
	"dentalvoice/internal/routing"
	"dentalvoice/pkg/logger"

	"github.com/gin-gonic/gin"
)

// AuditAdapter bridges the webhook handlers to the audit service.
// Failures are logged and swallowed: audit never fails a live call.
type AuditAdapter struct {
	Service *audit.Service
}

func (a AuditAdapter) LogDecision(c *gin.Context, tenantID, agentID, providerCallID string, res routing.RoutingResult) {
	if a.Service == nil {
		return
	}
	err := a.Service.Append(c.Request.Context(), audit.Event{
		TenantID:       tenantID,
		AgentID:        agentID,
		ProviderCallID: providerCallID,
		Decision:       string(res.Decision),
		Reason:         res.Reason,
		WasEmergency:   res.IsEmergency,
		WasAfterHours:  res.IsAfterHours,
		WasHoliday:     res.IsHoliday,
	})
	if err != nil {
		logger.FromGin(c).Warn("audit append failed", "call_sid", providerCallID, "err", err)
	}
}
