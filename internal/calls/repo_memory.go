package calls

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store for tests and local wiring.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]CallRecord // provider_call_id -> record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]CallRecord)}
}

func (s *MemoryStore) Create(ctx context.Context, rec CallRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[rec.ProviderCallID]; ok {
		return ErrConflict
	}
	s.records[rec.ProviderCallID] = rec
	return nil
}

func (s *MemoryStore) GetByProviderCallID(ctx context.Context, providerCallID string) (CallRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[providerCallID]
	if !ok {
		return CallRecord{}, ErrNotFound
	}
	return rec, nil
}

func (s *MemoryStore) UpdateRoutingSnapshot(ctx context.Context, providerCallID string, snap RoutingSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[providerCallID]
	if !ok {
		return ErrNotFound
	}
	rec.RoutingDecision = snap.Decision
	rec.RoutedToNumber = snap.RoutedTo
	rec.RoutedToName = snap.RoutedToName
	rec.WasEmergency = snap.WasEmergency
	rec.WasAfterHours = snap.WasAfterHours
	rec.UpdatedAt = time.Now().UTC()
	s.records[providerCallID] = rec
	return nil
}

func (s *MemoryStore) UpdateTerminalStatus(ctx context.Context, providerCallID string, status CallStatus, durationSecs int) error {
	if !status.IsTerminal() {
		return ErrInvalid
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[providerCallID]
	if !ok {
		return ErrNotFound
	}
	if rec.Status.IsTerminal() {
		return ErrTerminal
	}
	now := time.Now().UTC()
	rec.Status = status
	rec.DurationSecs = durationSecs
	rec.EndTime = &now
	rec.UpdatedAt = now
	s.records[providerCallID] = rec
	return nil
}

func (s *MemoryStore) AttachRecording(ctx context.Context, providerCallID, recordingURL, recordingSID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[providerCallID]
	if !ok {
		return ErrNotFound
	}
	rec.RecordingURL = recordingURL
	rec.RecordingSID = recordingSID
	rec.UpdatedAt = time.Now().UTC()
	s.records[providerCallID] = rec
	return nil
}
