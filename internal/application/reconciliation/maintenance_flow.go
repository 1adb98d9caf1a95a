package reconciliation

import (
	"context"

	"github.com/google/uuid"
	"github.com/opsledger/backend/internal/domain/audit"
	"github.com/opsledger/backend/internal/domain/finance"
	"github.com/opsledger/backend/internal/domain/fleet"
	"github.com/opsledger/backend/internal/domain/settlement"
	"go.uber.org/zap"
)

// ApplyMaintenanceChange updates a maintenance task and its ledger entry.
// When the change completes a recurring task, the next occurrence is
// generated after the commit; a failure there is logged and does not
// affect the result.
func (e *Engine) ApplyMaintenanceChange(ctx context.Context, id uuid.UUID, change MaintenanceChange, actor *uuid.UUID) (*Result, error) {
	var completed bool
	state, err := e.run(ctx, RecordKindMaintenanceTask, id, actor, func(repos TransactionalRepositories, tx *txState) error {
		m, err := repos.Maintenance().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := m.EnsureActive(); err != nil {
			return err
		}
		before := *m
		tx.result.Record = m

		changed, err := change.apply(m, e.now())
		if err != nil {
			return err
		}
		completed = before.Status != fleet.MaintenanceStatusCompleted && m.Status == fleet.MaintenanceStatusCompleted && m.Recurring
		return e.settleMaintenance(ctx, repos, tx, m, &before, changed)
	})
	if err != nil {
		return nil, err
	}

	if completed && e.recurrence != nil {
		next, err := e.recurrence.GenerateNext(ctx, id)
		if err != nil {
			e.logger.Warn("failed to generate next maintenance occurrence",
				zap.String("task_id", id.String()),
				zap.Error(err),
			)
		} else if next != nil {
			nextID := next.ID
			state.result.NextOccurrenceID = &nextID
		}
	}
	return state.result, nil
}

// settleMaintenance writes a task (when changed) and reconciles its ledger
// entry. before is nil for a task created in the same transaction.
func (e *Engine) settleMaintenance(ctx context.Context, repos TransactionalRepositories, tx *txState, m *fleet.MaintenanceTask, before *fleet.MaintenanceTask, changed bool) error {
	if changed {
		m.UpdatedAt = e.now()
	}
	var existing *finance.LedgerEntry
	if before != nil {
		entries, err := repos.Ledger().FindByMaintenanceTask(ctx, m.ID)
		if err != nil {
			return err
		}
		existing, err = settlement.SingleEntry("maintenance task", m.ID, entries)
		if err != nil {
			return err
		}
	}
	decision := settlement.Decide(e.rules.ForMaintenanceTask(m), existing)
	if !changed && decision.Action == settlement.ActionNoop {
		return nil
	}
	if before != nil && before.IsSettled() && decision.Action == settlement.ActionDelete {
		if err := requireConfirmation(ctx, "rolling back paid maintenance task %s", m.ID); err != nil {
			return err
		}
	}
	tx.result.Outcome = OutcomeApplied

	if changed {
		if err := repos.Maintenance().Save(ctx, m); err != nil {
			return err
		}
		var err error
		if before == nil {
			err = tx.audit(audit.ActionCreate, fleet.AggregateTypeMaintenanceTask, m.ID, nil, m)
		} else {
			err = tx.audit(audit.ActionUpdate, fleet.AggregateTypeMaintenanceTask, m.ID, before, m)
		}
		if err != nil {
			return err
		}
	}
	return e.writeLedger(ctx, repos.Ledger(), decision, tx, nil)
}
