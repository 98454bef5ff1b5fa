package calls

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Lifecycle manages one call record across the life of a call:
// open -> routing annotation -> terminal status, with optional recording
// attachment that may outlast the call.
type Lifecycle struct {
	store Store
	clock func() time.Time
}

func NewLifecycle(store Store) *Lifecycle {
	return &Lifecycle{store: store, clock: time.Now}
}

// Open creates the record for a newly received call with status
// in_progress and a masked caller number. Re-delivery of the same inbound
// event is tolerated: an existing record is returned unchanged.
func (l *Lifecycle) Open(ctx context.Context, tenantID, agentID, providerCallID, callerNumber string, dir Direction) (CallRecord, error) {
	if tenantID == "" || agentID == "" || providerCallID == "" {
		return CallRecord{}, fmt.Errorf("%w: tenant, agent and provider call id required", ErrInvalid)
	}

	if existing, err := l.store.GetByProviderCallID(ctx, providerCallID); err == nil {
		return existing, nil
	} else if !errors.Is(err, ErrNotFound) {
		return CallRecord{}, err
	}

	now := l.clock().UTC()
	rec := CallRecord{
		ID:             uuid.NewString(),
		TenantID:       tenantID,
		AgentID:        agentID,
		ProviderCallID: providerCallID,
		Direction:      dir,
		PhoneNumber:    MaskNumber(callerNumber),
		Status:         CallStatusInProgress,
		StartTime:      now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := l.store.Create(ctx, rec); err != nil {
		if errors.Is(err, ErrConflict) {
			// Concurrent duplicate delivery; the first write wins.
			return l.store.GetByProviderCallID(ctx, providerCallID)
		}
		return CallRecord{}, err
	}
	return rec, nil
}

// Annotate writes the routing snapshot. Called once per call, immediately
// after the decision; re-processing the same event writes the same
// snapshot, which is harmless.
func (l *Lifecycle) Annotate(ctx context.Context, providerCallID string, snap RoutingSnapshot) error {
	snap.RoutedTo = MaskNumber(snap.RoutedTo)
	return l.store.UpdateRoutingSnapshot(ctx, providerCallID, snap)
}

// Close applies a carrier terminal status. Unknown carrier codes map to
// failed. Closing an already-terminal record returns ErrTerminal.
func (l *Lifecycle) Close(ctx context.Context, providerCallID, carrierStatus string, durationSecs int) error {
	status, ok := MapCarrierStatus(carrierStatus)
	if !ok {
		status = CallStatusFailed
	}
	return l.store.UpdateTerminalStatus(ctx, providerCallID, status, durationSecs)
}

// AttachRecording records a voicemail/recording reference. Recording
// processing can outlast the call, so this is allowed after the terminal
// status.
func (l *Lifecycle) AttachRecording(ctx context.Context, providerCallID, recordingURL, recordingSID string) error {
	return l.store.AttachRecording(ctx, providerCallID, recordingURL, recordingSID)
}

// Get loads a record by the carrier call id; used by follow-up (digit,
// status) handlers to recover context.
func (l *Lifecycle) Get(ctx context.Context, providerCallID string) (CallRecord, error) {
	return l.store.GetByProviderCallID(ctx, providerCallID)
}
