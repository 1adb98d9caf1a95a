package audit

import (
	"context"
	"errors"
	"fmt"

	"github.com/opsledger/backend/internal/domain/audit"
	"github.com/opsledger/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// RecordChangedHandler persists RecordChangedEvent as audit log rows
type RecordChangedHandler struct {
	repo   audit.AuditLogRepository
	logger *zap.Logger
}

// NewRecordChangedHandler creates a new handler for record changed events
func NewRecordChangedHandler(repo audit.AuditLogRepository, logger *zap.Logger) *RecordChangedHandler {
	return &RecordChangedHandler{
		repo:   repo,
		logger: logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *RecordChangedHandler) EventTypes() []string {
	return []string{audit.EventTypeRecordChanged}
}

// Handle writes one audit row. When the actor is not a known operator the
// row is written again without the actor link rather than lost.
func (h *RecordChangedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	changed, ok := event.(*audit.RecordChangedEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", audit.EventTypeRecordChanged),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			audit.EventTypeRecordChanged, event.EventType())
	}

	log := audit.NewAuditLog(changed)
	err := h.repo.Save(ctx, log)
	if errors.Is(err, audit.ErrActorNotFound) && log.ActorID != nil {
		h.logger.Warn("audit actor not found, recording without actor",
			zap.String("event_id", changed.EventID().String()),
			zap.String("actor_id", log.ActorID.String()),
		)
		log.ActorID = nil
		err = h.repo.Save(ctx, log)
	}
	if err != nil {
		h.logger.Error("failed to record audit log",
			zap.String("event_id", changed.EventID().String()),
			zap.String("entity_kind", changed.EntityKind),
			zap.String("entity_id", changed.EntityID.String()),
			zap.Error(err),
		)
		return fmt.Errorf("failed to record audit log: %w", err)
	}

	h.logger.Debug("audit log recorded",
		zap.String("event_id", changed.EventID().String()),
		zap.String("action", string(changed.Action)),
		zap.String("entity_kind", changed.EntityKind),
		zap.String("entity_id", changed.EntityID.String()),
	)
	return nil
}

// Ensure RecordChangedHandler implements EventHandler
var _ shared.EventHandler = (*RecordChangedHandler)(nil)
