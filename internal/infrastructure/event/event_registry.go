package event

import (
	"github.com/opsledger/backend/internal/domain/audit"
)

// RegisterAllEvents registers every event type the outbox may carry, so the
// OutboxProcessor can read stored payloads back.
func RegisterAllEvents(serializer *EventSerializer) {
	serializer.Register(audit.EventTypeRecordChanged, &audit.RecordChangedEvent{})
}
