package reconciliation

import (
	"context"

	"github.com/google/uuid"
	"github.com/opsledger/backend/internal/domain/audit"
	"github.com/opsledger/backend/internal/domain/fleet"
	"github.com/opsledger/backend/internal/domain/payroll"
	"github.com/opsledger/backend/internal/domain/settlement"
	"github.com/opsledger/backend/internal/domain/shared"
)

// DeleteRecord removes a payable record together with its ledger entry and
// any payment projected from it. Maintenance tasks are soft-deleted.
func (e *Engine) DeleteRecord(ctx context.Context, kind RecordKind, id uuid.UUID, actor *uuid.UUID) (*Result, error) {
	if !kind.IsValid() {
		return nil, shared.NewValidationError("unknown record kind %q", kind)
	}
	if err := requireConfirmation(ctx, "deleting %s %s", kind, id); err != nil {
		return nil, err
	}
	state, err := e.run(ctx, kind, id, actor, func(repos TransactionalRepositories, tx *txState) error {
		switch kind {
		case RecordKindPayrollPayment:
			return e.deletePayment(ctx, repos, tx, id)
		case RecordKindVacationPeriod:
			return e.deleteVacation(ctx, repos, tx, id)
		case RecordKindBonusInstallment:
			return e.deleteBonus(ctx, repos, tx, id)
		default:
			return e.deleteMaintenance(ctx, repos, tx, id)
		}
	})
	if err != nil {
		return nil, err
	}
	return state.result, nil
}

func (e *Engine) deletePayment(ctx context.Context, repos TransactionalRepositories, tx *txState, id uuid.UUID) error {
	p, err := repos.Payments().FindByIDForUpdate(ctx, id)
	if err != nil {
		return err
	}
	if p.IsProjection() {
		return projectionError(p)
	}
	tx.result.Record = p
	return e.removePayment(ctx, repos, tx, p)
}

func (e *Engine) deleteVacation(ctx context.Context, repos TransactionalRepositories, tx *txState, id uuid.UUID) error {
	v, err := repos.Vacations().FindByIDForUpdate(ctx, id)
	if err != nil {
		return err
	}
	tx.result.Record = v
	projection, err := findProjection(ctx, repos, payroll.SourceKindVacation, v.ID, 0)
	if err != nil {
		return err
	}
	if projection != nil {
		if err := e.removePayment(ctx, repos, tx, projection); err != nil {
			return err
		}
	}
	if err := repos.Vacations().Delete(ctx, v.ID); err != nil {
		return err
	}
	tx.result.Outcome = OutcomeApplied
	return tx.audit(audit.ActionDelete, payroll.AggregateTypeVacationPeriod, v.ID, v, nil)
}

func (e *Engine) deleteBonus(ctx context.Context, repos TransactionalRepositories, tx *txState, id uuid.UUID) error {
	b, err := repos.Bonuses().FindByIDForUpdate(ctx, id)
	if err != nil {
		return err
	}
	tx.result.Record = b
	for _, n := range []payroll.Installment{payroll.InstallmentFirst, payroll.InstallmentSecond} {
		projection, err := findProjection(ctx, repos, payroll.SourceKindYearEndBonus, b.ID, int(n))
		if err != nil {
			return err
		}
		if projection == nil {
			continue
		}
		if err := e.removePayment(ctx, repos, tx, projection); err != nil {
			return err
		}
	}
	if err := repos.Bonuses().Delete(ctx, b.ID); err != nil {
		return err
	}
	tx.result.Outcome = OutcomeApplied
	return tx.audit(audit.ActionDelete, payroll.AggregateTypeBonusInstallment, b.ID, b, nil)
}

func (e *Engine) deleteMaintenance(ctx context.Context, repos TransactionalRepositories, tx *txState, id uuid.UUID) error {
	m, err := repos.Maintenance().FindByIDForUpdate(ctx, id)
	if err != nil {
		return err
	}
	tx.result.Record = m
	if !m.Active {
		return nil
	}
	entries, err := repos.Ledger().FindByMaintenanceTask(ctx, m.ID)
	if err != nil {
		return err
	}
	existing, err := settlement.SingleEntry("maintenance task", m.ID, entries)
	if err != nil {
		return err
	}
	if existing != nil {
		d := settlement.Decision{Action: settlement.ActionDelete, Existing: existing}
		if err := e.writeLedger(ctx, repos.Ledger(), d, tx, nil); err != nil {
			return err
		}
	}
	before := *m
	m.Deactivate(e.now())
	if err := repos.Maintenance().Save(ctx, m); err != nil {
		return err
	}
	tx.result.Outcome = OutcomeApplied
	return tx.audit(audit.ActionDelete, fleet.AggregateTypeMaintenanceTask, m.ID, before, nil)
}
