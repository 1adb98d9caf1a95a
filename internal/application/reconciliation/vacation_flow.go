package reconciliation

import (
	"context"

	"github.com/google/uuid"
	"github.com/opsledger/backend/internal/domain/audit"
	"github.com/opsledger/backend/internal/domain/payroll"
)

// ApplyVacationChange updates a vacation period. Entering PAID projects a
// VACATION payment and its ledger entry; leaving PAID removes both.
func (e *Engine) ApplyVacationChange(ctx context.Context, id uuid.UUID, change VacationChange, actor *uuid.UUID) (*Result, error) {
	state, err := e.run(ctx, RecordKindVacationPeriod, id, actor, func(repos TransactionalRepositories, tx *txState) error {
		v, err := repos.Vacations().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		before := *v
		tx.result.Record = v

		now := e.now()
		changed, err := change.apply(v, now)
		if err != nil {
			return err
		}
		if changed {
			v.UpdatedAt = now
			if err := repos.Vacations().Save(ctx, v); err != nil {
				return err
			}
			tx.result.Outcome = OutcomeApplied
			if err := tx.audit(audit.ActionUpdate, payroll.AggregateTypeVacationPeriod, v.ID, before, v); err != nil {
				return err
			}
		}
		return e.reconcileVacationProjection(ctx, repos, tx, v)
	})
	if err != nil {
		return nil, err
	}
	return state.result, nil
}

func (e *Engine) reconcileVacationProjection(ctx context.Context, repos TransactionalRepositories, tx *txState, v *payroll.VacationPeriod) error {
	projection, err := findProjection(ctx, repos, payroll.SourceKindVacation, v.ID, 0)
	if err != nil {
		return err
	}

	if !v.IsSettled() {
		if projection == nil {
			return nil
		}
		if err := requireConfirmation(ctx, "rolling back paid vacation period %s", v.ID); err != nil {
			return err
		}
		return e.removePayment(ctx, repos, tx, projection)
	}

	if projection == nil {
		projection, err = e.projector.ProjectVacation(v)
		if err != nil {
			return err
		}
		return e.settlePayment(ctx, repos, tx, projection, nil, true)
	}
	before := *projection
	changed, err := e.projector.SyncVacation(projection, v, e.now())
	if err != nil {
		return err
	}
	return e.settlePayment(ctx, repos, tx, projection, &before, changed)
}
