package reconciliation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/opsledger/backend/internal/domain/audit"
	"github.com/opsledger/backend/internal/domain/fleet"
	"github.com/opsledger/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// RecurrenceGenerator creates the next occurrence of a completed recurring
// maintenance task. It runs in its own transaction and is idempotent: a
// second call for the same task returns the occurrence already generated.
type RecurrenceGenerator struct {
	txScope   TransactionScope
	policy    fleet.RecurrencePolicy
	publisher shared.EventPublisher
	metrics   Metrics
	now       func() time.Time
	logger    *zap.Logger
}

// NewRecurrenceGenerator creates a RecurrenceGenerator
func NewRecurrenceGenerator(txScope TransactionScope, policy fleet.RecurrencePolicy, publisher shared.EventPublisher, metrics Metrics, logger *zap.Logger) *RecurrenceGenerator {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &RecurrenceGenerator{
		txScope:   txScope,
		policy:    policy,
		publisher: publisher,
		metrics:   metrics,
		now:       DefaultClock,
		logger:    logger,
	}
}

// GenerateNext returns the occurrence that follows taskID, creating it when
// it does not exist yet. A created occurrence is audited once committed.
func (g *RecurrenceGenerator) GenerateNext(ctx context.Context, taskID uuid.UUID) (*fleet.MaintenanceTask, error) {
	var (
		next      *fleet.MaintenanceTask
		generated bool
		created   shared.DomainEvent
	)
	err := g.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		generated, created = false, nil
		task, err := repos.Maintenance().FindByIDForUpdate(ctx, taskID)
		if err != nil {
			return err
		}
		existing, err := repos.Maintenance().FindByRecurredFrom(ctx, task.ID)
		if err != nil && !isNotFound(err) {
			return err
		}
		if existing != nil {
			next = existing
			return nil
		}

		next, err = g.policy.NextOccurrence(task, g.now())
		if err != nil {
			return err
		}
		if err := repos.Maintenance().Save(ctx, next); err != nil {
			return err
		}
		event, err := audit.NewRecordChangedEvent(audit.ActionCreate, fleet.AggregateTypeMaintenanceTask, next.ID, nil, next, nil)
		if err != nil {
			return err
		}
		generated, created = true, event
		return nil
	})
	if err != nil {
		return nil, err
	}

	g.metrics.RecordRecurrence(ctx, generated)
	if generated {
		g.logger.Info("generated next maintenance occurrence",
			zap.String("task_id", taskID.String()),
			zap.String("next_id", next.ID.String()),
			zap.Time("scheduled_date", next.ScheduledDate),
		)
		g.publish(ctx, created)
	}
	return next, nil
}

func (g *RecurrenceGenerator) publish(ctx context.Context, event shared.DomainEvent) {
	if g.publisher == nil {
		return
	}
	if err := g.publisher.Publish(ctx, event); err != nil {
		g.logger.Warn("failed to publish audit event for generated occurrence",
			zap.String("entity_id", event.AggregateID().String()),
			zap.Error(err),
		)
	}
}
