package reconciliation

import (
	"context"

	"github.com/google/uuid"
	"github.com/opsledger/backend/internal/domain/audit"
	"github.com/opsledger/backend/internal/domain/payroll"
)

// ApplyBonusInstallmentChange toggles year-end bonus installments. Each
// installment is projected independently: paying one creates its payment
// and ledger entry, unpaying it removes them.
func (e *Engine) ApplyBonusInstallmentChange(ctx context.Context, id uuid.UUID, change BonusInstallmentChange, actor *uuid.UUID) (*Result, error) {
	state, err := e.run(ctx, RecordKindBonusInstallment, id, actor, func(repos TransactionalRepositories, tx *txState) error {
		b, err := repos.Bonuses().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		before := *b
		tx.result.Record = b

		now := e.now()
		changed, err := change.apply(b, now)
		if err != nil {
			return err
		}
		if changed {
			b.UpdatedAt = now
			if err := repos.Bonuses().Save(ctx, b); err != nil {
				return err
			}
			tx.result.Outcome = OutcomeApplied
			if err := tx.audit(audit.ActionUpdate, payroll.AggregateTypeBonusInstallment, b.ID, before, b); err != nil {
				return err
			}
		}
		for _, n := range []payroll.Installment{payroll.InstallmentFirst, payroll.InstallmentSecond} {
			if err := e.reconcileBonusProjection(ctx, repos, tx, b, n); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return state.result, nil
}

func (e *Engine) reconcileBonusProjection(ctx context.Context, repos TransactionalRepositories, tx *txState, b *payroll.BonusInstallmentRecord, n payroll.Installment) error {
	projection, err := findProjection(ctx, repos, payroll.SourceKindYearEndBonus, b.ID, int(n))
	if err != nil {
		return err
	}

	if !b.IsInstallmentPaid(n) {
		if projection == nil {
			return nil
		}
		if err := requireConfirmation(ctx, "rolling back paid installment %d of year-end bonus %s", n, b.ID); err != nil {
			return err
		}
		return e.removePayment(ctx, repos, tx, projection)
	}

	if projection == nil {
		projection, err = e.projector.ProjectBonusInstallment(b, n, e.now())
		if err != nil {
			return err
		}
		return e.settlePayment(ctx, repos, tx, projection, nil, true)
	}
	before := *projection
	changed, err := e.projector.SyncBonusInstallment(projection, b, n, e.now())
	if err != nil {
		return err
	}
	return e.settlePayment(ctx, repos, tx, projection, &before, changed)
}
