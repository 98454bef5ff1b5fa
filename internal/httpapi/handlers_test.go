package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"dentalvoice/internal/agents"
	"dentalvoice/internal/auth"
	"dentalvoice/internal/config"
	"dentalvoice/internal/telephony"

	"github.com/gin-gonic/gin"
)

type stubDialer struct {
	lastReq telephony.OutboundCallRequest
	err     error
}

func (d *stubDialer) StartCall(ctx context.Context, req telephony.OutboundCallRequest) (telephony.OutboundCallResult, error) {
	d.lastReq = req
	if d.err != nil {
		return telephony.OutboundCallResult{}, d.err
	}
	return telephony.OutboundCallResult{ProviderCallID: "CA-out-1"}, nil
}

func testRouter(h Handlers, tenantID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if tenantID != "" {
			ctx := auth.WithIdentity(c.Request.Context(), "user-1", tenantID, "admin")
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	})
	r.POST("/v1/auth/login", h.Login)
	r.GET("/v1/agents/:agent_id/routing-config", h.GetRoutingConfig)
	r.PATCH("/v1/agents/:agent_id/routing-config", h.PatchRoutingConfig)
	r.GET("/v1/agents/:agent_id/routing-stats", h.GetRoutingStats)
	r.POST("/v1/calls/outbound", h.StartOutboundCall)
	return r
}

func seededStore() *agents.MemoryStore {
	store := agents.NewMemoryStore()
	store.Put(agents.AgentRoutingConfig{
		ID:           "agent-1",
		TenantID:     "tenant-1",
		TenantNumber: "+15550001000",
		Status:       agents.AgentStatusActive,
		Stats:        agents.RoutingStats{TotalCallsRouted: 7},
	})
	return store
}

func TestLoginIssuesTenantScopedPair(t *testing.T) {
	m, err := auth.NewManager(config.AuthConfig{
		JWTSecret:       "test-secret",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
	})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	h := Handlers{Auth: m}
	// No identity middleware: login is the route that mints identity.
	r := testRouter(h, "")

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/v1/auth/login",
		strings.NewReader(`{"user_id":"user-1","tenant_id":"tenant-1","role":"admin"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	claims, err := m.Verify(body.AccessToken, auth.TokenTypeAccess, time.Now())
	if err != nil {
		t.Fatalf("issued access token must verify: %v", err)
	}
	if claims.TenantID != "tenant-1" || claims.UserID != "user-1" {
		t.Fatalf("bad claims: %+v", claims)
	}
	if body.RefreshToken == "" {
		t.Fatalf("expected refresh token in response")
	}
}

func TestLoginRejectsIncompleteRequest(t *testing.T) {
	m, _ := auth.NewManager(config.AuthConfig{
		JWTSecret:       "test-secret",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
	})
	r := testRouter(Handlers{Auth: m}, "")

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/v1/auth/login",
		strings.NewReader(`{"user_id":"user-1"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestGetRoutingConfig(t *testing.T) {
	h := Handlers{Agents: seededStore()}
	r := testRouter(h, "tenant-1")

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/v1/agents/agent-1/routing-config", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var got agents.AgentRoutingConfig
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if got.ID != "agent-1" || got.TenantNumber != "+15550001000" {
		t.Fatalf("bad config: %+v", got)
	}
}

func TestGetRoutingConfigCrossTenantIsNotFound(t *testing.T) {
	h := Handlers{Agents: seededStore()}
	r := testRouter(h, "tenant-2")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/v1/agents/agent-1/routing-config", nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("cross-tenant read must 404, got %d", w.Code)
	}
}

func TestGetRoutingConfigWithoutIdentity(t *testing.T) {
	h := Handlers{Agents: seededStore()}
	r := testRouter(h, "")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/v1/agents/agent-1/routing-config", nil))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestPatchRoutingConfig(t *testing.T) {
	store := seededStore()
	h := Handlers{Agents: store}
	r := testRouter(h, "tenant-1")

	body := `{"fallback_number":"+15550003000"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest("PATCH", "/v1/agents/agent-1/routing-config", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	cfg, _ := store.GetAgentRoutingConfig(context.Background(), "agent-1")
	if cfg.FallbackNumber != "+15550003000" {
		t.Fatalf("patch not persisted: %+v", cfg)
	}
}

func TestPatchRoutingConfigValidationFailure(t *testing.T) {
	h := Handlers{Agents: seededStore()}
	r := testRouter(h, "tenant-1")

	body := `{"fallback_number":"555-0100"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest("PATCH", "/v1/agents/agent-1/routing-config", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", w.Code, w.Body.String())
	}
}

func TestGetRoutingStats(t *testing.T) {
	h := Handlers{Agents: seededStore()}
	r := testRouter(h, "tenant-1")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/v1/agents/agent-1/routing-stats", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var got agents.RoutingStats
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if got.TotalCallsRouted != 7 {
		t.Fatalf("bad stats: %+v", got)
	}
}

func TestStartOutboundCall(t *testing.T) {
	dialer := &stubDialer{}
	h := Handlers{Agents: seededStore(), Dialer: dialer, PublicBaseURL: "https://voice.example.com"}
	r := testRouter(h, "tenant-1")

	body := `{"agent_id":"agent-1","to":"+15550006000","record":true}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/v1/calls/outbound", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if dialer.lastReq.To != "+15550006000" || dialer.lastReq.From != "+15550001000" {
		t.Fatalf("bad dial request: %+v", dialer.lastReq)
	}
	if dialer.lastReq.InitialURL != "https://voice.example.com/webhooks/voice/inbound" {
		t.Fatalf("bad initial url: %q", dialer.lastReq.InitialURL)
	}
	if !dialer.lastReq.RecordCall {
		t.Fatalf("record flag must pass through")
	}
	if !strings.Contains(w.Body.String(), "CA-out-1") {
		t.Fatalf("expected provider call id in response: %s", w.Body.String())
	}
}

func TestStartOutboundCallRejectsBadNumber(t *testing.T) {
	h := Handlers{Agents: seededStore(), Dialer: &stubDialer{}}
	r := testRouter(h, "tenant-1")

	body := `{"agent_id":"agent-1","to":"555-0100"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/v1/calls/outbound", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
}

func TestStartOutboundCallCarrierFailure(t *testing.T) {
	dialer := &stubDialer{err: errors.New("carrier rejected")}
	h := Handlers{Agents: seededStore(), Dialer: dialer, PublicBaseURL: "https://voice.example.com"}
	r := testRouter(h, "tenant-1")

	body := `{"agent_id":"agent-1","to":"+15550006000"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/v1/calls/outbound", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
}
