package audit

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/opsledger/backend/internal/domain/shared"
)

// EventTypeRecordChanged is the event type of RecordChangedEvent
const EventTypeRecordChanged = "RecordChanged"

// Action is what happened to the audited record
type Action string

const (
	ActionCreate Action = "CREATE"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
)

// ErrActorNotFound is returned by AuditLogRepository.Save when the actor
// reference does not point at a known operator.
var ErrActorNotFound = errors.New("audit actor not found")

// RecordChangedEvent notifies that a payable record or ledger entry changed.
// Before and After are JSON snapshots; either may be empty.
type RecordChangedEvent struct {
	shared.BaseDomainEvent
	Action     Action          `json:"action"`
	EntityKind string          `json:"entity_kind"`
	EntityID   uuid.UUID       `json:"entity_id"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after,omitempty"`
	ActorID    *uuid.UUID      `json:"actor_id,omitempty"`
}

// EventType returns the event type name
func (e *RecordChangedEvent) EventType() string {
	return EventTypeRecordChanged
}

// NewRecordChangedEvent snapshots before and after into a RecordChangedEvent.
// Nil snapshots are left empty.
func NewRecordChangedEvent(action Action, entityKind string, entityID uuid.UUID, before, after any, actorID *uuid.UUID) (*RecordChangedEvent, error) {
	beforeJSON, err := snapshot(before)
	if err != nil {
		return nil, err
	}
	afterJSON, err := snapshot(after)
	if err != nil {
		return nil, err
	}
	return &RecordChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRecordChanged, entityKind, entityID),
		Action:          action,
		EntityKind:      entityKind,
		EntityID:        entityID,
		Before:          beforeJSON,
		After:           afterJSON,
		ActorID:         actorID,
	}, nil
}

func snapshot(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	if raw, ok := v.(json.RawMessage); ok {
		return raw, nil
	}
	return json.Marshal(v)
}

// AuditLog is the persisted form of a RecordChangedEvent
type AuditLog struct {
	ID         uuid.UUID       `json:"id"`
	EventID    uuid.UUID       `json:"event_id"`
	Action     Action          `json:"action"`
	EntityKind string          `json:"entity_kind"`
	EntityID   uuid.UUID       `json:"entity_id"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after,omitempty"`
	ActorID    *uuid.UUID      `json:"actor_id,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
	CreatedAt  time.Time       `json:"created_at"`
}

// NewAuditLog builds an AuditLog from an event
func NewAuditLog(e *RecordChangedEvent) *AuditLog {
	return &AuditLog{
		ID:         uuid.New(),
		EventID:    e.EventID(),
		Action:     e.Action,
		EntityKind: e.EntityKind,
		EntityID:   e.EntityID,
		Before:     e.Before,
		After:      e.After,
		ActorID:    e.ActorID,
		OccurredAt: e.OccurredAt(),
		CreatedAt:  time.Now(),
	}
}

// AuditLogRepository defines the interface for audit log persistence
type AuditLogRepository interface {
	// Save stores a log entry; it returns ErrActorNotFound for an unknown actor
	Save(ctx context.Context, log *AuditLog) error

	// FindByEntity lists the history of one record, oldest first
	FindByEntity(ctx context.Context, entityKind string, entityID uuid.UUID) ([]AuditLog, error)
}
