package calls

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("calls: not found")
	ErrTerminal = errors.New("calls: record is terminal")
	ErrConflict = errors.New("calls: conflicting record")
	ErrInvalid  = errors.New("calls: invalid argument")
)

// Store is the persistence contract for call records.
//
// Follow-up webhook events may land on a different process instance, so
// all per-call context lives here, never in process memory.
type Store interface {
	Create(ctx context.Context, rec CallRecord) error
	GetByProviderCallID(ctx context.Context, providerCallID string) (CallRecord, error)

	// UpdateRoutingSnapshot annotates the record once, right after the
	// routing decision.
	UpdateRoutingSnapshot(ctx context.Context, providerCallID string, snap RoutingSnapshot) error

	// UpdateTerminalStatus transitions to a terminal status. It must
	// refuse to mutate a record already terminal.
	UpdateTerminalStatus(ctx context.Context, providerCallID string, status CallStatus, durationSecs int) error

	// AttachRecording may arrive after the terminal status and is
	// permitted then.
	AttachRecording(ctx context.Context, providerCallID, recordingURL, recordingSID string) error
}

// RoutingSnapshot is the routing annotation written to a call record.
// Numbers arrive unmasked and are masked at write time.
type RoutingSnapshot struct {
	Decision      string
	RoutedTo      string
	RoutedToName  string
	WasEmergency  bool
	WasAfterHours bool
}
