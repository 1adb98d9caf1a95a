package event

import (
	"context"

	"github.com/opsledger/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// OutboxPublisher stores domain events in the outbox. Delivery to handlers
// happens later, in the OutboxProcessor, so a slow or failing handler never
// affects the caller.
type OutboxPublisher struct {
	db         *gorm.DB
	serializer *EventSerializer
}

// NewOutboxPublisher creates a new outbox publisher writing through db
func NewOutboxPublisher(db *gorm.DB, serializer *EventSerializer) *OutboxPublisher {
	return &OutboxPublisher{
		db:         db,
		serializer: serializer,
	}
}

// Publish stores events in the outbox using the publisher's own connection
func (p *OutboxPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	return p.PublishWithTx(ctx, p.db, events...)
}

// PublishWithTx stores events in the outbox within tx, so they commit or
// roll back together with the caller's changes.
func (p *OutboxPublisher) PublishWithTx(ctx context.Context, tx *gorm.DB, events ...shared.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}

	entries := make([]*shared.OutboxEntry, 0, len(events))
	for _, event := range events {
		payload, err := p.serializer.Serialize(event)
		if err != nil {
			return err
		}
		entries = append(entries, shared.NewOutboxEntry(event, payload))
	}
	return NewGormOutboxRepository(tx).Save(ctx, entries...)
}

// Ensure OutboxPublisher implements EventPublisher
var _ shared.EventPublisher = (*OutboxPublisher)(nil)
