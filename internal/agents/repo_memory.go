package agents

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStore is an in-memory ConfigStore for tests and local wiring.
// Not for production use.
type MemoryStore struct {
	mu      sync.Mutex
	configs map[string]AgentRoutingConfig
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{configs: make(map[string]AgentRoutingConfig)}
}

// Put seeds a config, bypassing validation. Test helper.
func (s *MemoryStore) Put(cfg AgentRoutingConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configs[cfg.ID] = cfg
}

func (s *MemoryStore) GetAgentRoutingConfig(ctx context.Context, agentID string) (AgentRoutingConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.configs[agentID]
	if !ok {
		return AgentRoutingConfig{}, ErrNotFound
	}
	return c, nil
}

func (s *MemoryStore) GetAgentIDByNumber(ctx context.Context, number string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, c := range s.configs {
		if c.TenantNumber == number {
			return id, nil
		}
	}
	return "", ErrNotFound
}

func (s *MemoryStore) UpdateRoutingConfig(ctx context.Context, agentID, tenantID string, patch ConfigPatch) (AgentRoutingConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.configs[agentID]
	if !ok || cur.TenantID != tenantID {
		return AgentRoutingConfig{}, ErrNotFound
	}
	next := patch.Apply(cur)
	if err := next.Validate(); err != nil {
		return AgentRoutingConfig{}, err
	}
	next.UpdatedAt = time.Now().UTC()
	s.configs[agentID] = next
	return next, nil
}

func (s *MemoryStore) IncrementStat(ctx context.Context, agentID, field string) error {
	if !validStatField(field) {
		return fmt.Errorf("%w: unknown stat field %q", ErrInvalidArgument, field)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.configs[agentID]
	if !ok {
		return ErrNotFound
	}
	switch field {
	case StatTotalCallsRouted:
		c.Stats.TotalCallsRouted++
	case StatEmergencyCallsRouted:
		c.Stats.EmergencyCallsRouted++
	case StatFallbackRoutedCalls:
		c.Stats.FallbackRoutedCalls++
	case StatAfterHoursRoutedCalls:
		c.Stats.AfterHoursRoutedCalls++
	}
	s.configs[agentID] = c
	return nil
}
