package reconciliation

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/opsledger/backend/internal/domain/audit"
	"github.com/opsledger/backend/internal/domain/payroll"
	"github.com/opsledger/backend/internal/domain/settlement"
	"github.com/opsledger/backend/internal/domain/shared"
)

// ApplyPayrollPaymentChange updates a payroll payment and keeps its ledger
// entry in step: paying creates it, editing a paid payment updates it and
// leaving PAID deletes it.
func (e *Engine) ApplyPayrollPaymentChange(ctx context.Context, id uuid.UUID, change PayrollPaymentChange, actor *uuid.UUID) (*Result, error) {
	state, err := e.run(ctx, RecordKindPayrollPayment, id, actor, func(repos TransactionalRepositories, tx *txState) error {
		p, err := repos.Payments().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if p.IsProjection() {
			return projectionError(p)
		}
		before := *p
		tx.result.Record = p

		changed, err := change.apply(p, e.now())
		if err != nil {
			return err
		}
		return e.settlePayment(ctx, repos, tx, p, &before, changed)
	})
	if err != nil {
		return nil, err
	}
	return state.result, nil
}

// settlePayment writes a payment (when changed) and reconciles its ledger
// entry. before is nil for a newly projected payment.
func (e *Engine) settlePayment(ctx context.Context, repos TransactionalRepositories, tx *txState, p *payroll.PayrollPayment, before *payroll.PayrollPayment, changed bool) error {
	if changed {
		p.UpdatedAt = e.now()
	}
	var decision settlement.Decision
	if before == nil {
		decision = settlement.Decide(e.rules.ForPayrollPayment(p), nil)
	} else {
		entries, err := repos.Ledger().FindByPayrollPayment(ctx, p.ID)
		if err != nil {
			return err
		}
		existing, err := settlement.SingleEntry("payroll payment", p.ID, entries)
		if err != nil {
			return err
		}
		decision = settlement.Decide(e.rules.ForPayrollPayment(p), existing)
	}

	if !changed && decision.Action == settlement.ActionNoop {
		return nil
	}
	if before != nil && before.IsSettled() && decision.Action == settlement.ActionDelete {
		if err := requireConfirmation(ctx, "rolling back paid payroll payment %s", p.ID); err != nil {
			return err
		}
	}
	tx.result.Outcome = OutcomeApplied

	if changed {
		if err := repos.Payments().Save(ctx, p); err != nil {
			return err
		}
		if before == nil {
			if err := tx.audit(audit.ActionCreate, payroll.AggregateTypePayrollPayment, p.ID, nil, p); err != nil {
				return err
			}
		} else if err := tx.audit(audit.ActionUpdate, payroll.AggregateTypePayrollPayment, p.ID, before, p); err != nil {
			return err
		}
	}
	paymentID := p.ID
	return e.writeLedger(ctx, repos.Ledger(), decision, tx, &paymentID)
}

// removePayment deletes a payment together with its ledger entry
func (e *Engine) removePayment(ctx context.Context, repos TransactionalRepositories, tx *txState, p *payroll.PayrollPayment) error {
	entries, err := repos.Ledger().FindByPayrollPayment(ctx, p.ID)
	if err != nil {
		return err
	}
	existing, err := settlement.SingleEntry("payroll payment", p.ID, entries)
	if err != nil {
		return err
	}
	paymentID := p.ID
	if existing != nil {
		d := settlement.Decision{Action: settlement.ActionDelete, Existing: existing}
		if err := e.writeLedger(ctx, repos.Ledger(), d, tx, &paymentID); err != nil {
			return err
		}
	}
	if err := repos.Payments().Delete(ctx, p.ID); err != nil {
		return err
	}
	tx.result.Outcome = OutcomeApplied
	return tx.audit(audit.ActionDelete, payroll.AggregateTypePayrollPayment, p.ID, p, nil)
}

// findProjection returns the payment projected from a source record, or nil
func findProjection(ctx context.Context, repos TransactionalRepositories, kind payroll.SourceKind, sourceID uuid.UUID, installment int) (*payroll.PayrollPayment, error) {
	p, err := repos.Payments().FindBySource(ctx, kind, sourceID, installment)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

func projectionError(p *payroll.PayrollPayment) error {
	return shared.NewDomainError(shared.CodeInvalidTransition,
		fmt.Sprintf("payroll payment %s is projected from %s %s and can only change through it", p.ID, p.SourceKind, p.SourceID))
}

func isNotFound(err error) bool {
	return errors.Is(err, shared.ErrNotFound)
}
