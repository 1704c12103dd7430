// Package audit defines the audit sink port consumed by the encryption engine,
// the key vault and the document codec. Persistence of audit events is owned by
// an external collaborator; this package only defines the event shape, the sink
// interface and a structured-logging implementation.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Event kinds emitted by this subsystem.
const (
	// EventDataKeyCreated is emitted when a new data key is provisioned.
	EventDataKeyCreated = "data_key_created"

	// EventEncryptionFailure is emitted when a field could not be encrypted.
	// The enclosing write is aborted; the event exists for operational follow-up.
	EventEncryptionFailure = "encryption_failure"

	// EventDecryptionFailure is emitted when a stored cipher value could not be
	// decrypted. The affected field is defaulted and the read continues.
	EventDecryptionFailure = "decryption_failure"

	// EventSchemaDrift is emitted when a composite field could not be decoded
	// under any tolerated storage shape.
	EventSchemaDrift = "schema_drift"
)

// Event records a security-relevant occurrence for compliance monitoring.
// Metadata must never contain plaintext PHI; entity kind and field names are
// acceptable, field values are not.
type Event struct {
	ID        uuid.UUID
	Kind      string
	Actor     string
	Metadata  map[string]any
	CreatedAt time.Time
}

// Sink receives audit events. Implementations must be safe for concurrent use.
type Sink interface {
	Log(ctx context.Context, event Event)
}

// NewEvent creates an audit event with a fresh UUIDv7 and the current time.
func NewEvent(kind, actor string, metadata map[string]any) Event {
	return Event{
		ID:        uuid.Must(uuid.NewV7()),
		Kind:      kind,
		Actor:     actor,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
}

// SlogSink writes audit events to a structured logger. Failure events are
// logged at warn level, everything else at info level.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink creates a Sink backed by the given logger.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	return &SlogSink{logger: logger}
}

// Log writes the event to the underlying logger.
func (s *SlogSink) Log(ctx context.Context, event Event) {
	attrs := []any{
		slog.String("audit_event_id", event.ID.String()),
		slog.String("event_kind", event.Kind),
		slog.String("actor", event.Actor),
		slog.Any("metadata", event.Metadata),
		slog.Time("created_at", event.CreatedAt),
	}

	switch event.Kind {
	case EventEncryptionFailure, EventDecryptionFailure, EventSchemaDrift:
		s.logger.WarnContext(ctx, "audit event", attrs...)
	default:
		s.logger.InfoContext(ctx, "audit event", attrs...)
	}
}
