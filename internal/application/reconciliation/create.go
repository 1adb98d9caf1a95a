package reconciliation

import (
	"context"

	"github.com/google/uuid"
	"github.com/opsledger/backend/internal/domain/audit"
	"github.com/opsledger/backend/internal/domain/fleet"
	"github.com/opsledger/backend/internal/domain/payroll"
	"github.com/opsledger/backend/internal/domain/shared"
)

// CreatePayrollPayment stores a new SIMULATED or PENDING payment
func (e *Engine) CreatePayrollPayment(ctx context.Context, p *payroll.PayrollPayment, actor *uuid.UUID) (*Result, error) {
	state, err := e.run(ctx, RecordKindPayrollPayment, p.ID, actor, func(repos TransactionalRepositories, tx *txState) error {
		if p.IsProjection() {
			return projectionError(p)
		}
		tx.result.Record = p
		p.CreatedAt, p.UpdatedAt = e.now(), e.now()
		return e.settlePayment(ctx, repos, tx, p, nil, true)
	})
	if err != nil {
		return nil, err
	}
	return state.result, nil
}

// CreateMaintenanceTask stores a new task. A task registered as already
// paid gets its ledger entry in the same transaction.
func (e *Engine) CreateMaintenanceTask(ctx context.Context, m *fleet.MaintenanceTask, actor *uuid.UUID) (*Result, error) {
	state, err := e.run(ctx, RecordKindMaintenanceTask, m.ID, actor, func(repos TransactionalRepositories, tx *txState) error {
		if err := m.Validate(); err != nil {
			return err
		}
		tx.result.Record = m
		m.CreatedAt = e.now()
		return e.settleMaintenance(ctx, repos, tx, m, nil, true)
	})
	if err != nil {
		return nil, err
	}
	return state.result, nil
}

// CreateVacationPeriod stores a new vacation period. Periods always start
// unpaid, so no projection is involved.
func (e *Engine) CreateVacationPeriod(ctx context.Context, v *payroll.VacationPeriod, actor *uuid.UUID) (*Result, error) {
	state, err := e.run(ctx, RecordKindVacationPeriod, v.ID, actor, func(repos TransactionalRepositories, tx *txState) error {
		if v.Status == payroll.VacationStatusPaid {
			return projectionStartError("vacation period")
		}
		if err := v.Validate(); err != nil {
			return err
		}
		tx.result.Record = v
		v.CreatedAt, v.UpdatedAt = e.now(), e.now()
		if err := repos.Vacations().Save(ctx, v); err != nil {
			return err
		}
		tx.result.Outcome = OutcomeApplied
		return tx.audit(audit.ActionCreate, payroll.AggregateTypeVacationPeriod, v.ID, nil, v)
	})
	if err != nil {
		return nil, err
	}
	return state.result, nil
}

// CreateBonusRecord stores a new year-end bonus record with both
// installments unpaid.
func (e *Engine) CreateBonusRecord(ctx context.Context, b *payroll.BonusInstallmentRecord, actor *uuid.UUID) (*Result, error) {
	state, err := e.run(ctx, RecordKindBonusInstallment, b.ID, actor, func(repos TransactionalRepositories, tx *txState) error {
		if b.FirstPaid || b.SecondPaid {
			return projectionStartError("year-end bonus record")
		}
		tx.result.Record = b
		b.CreatedAt, b.UpdatedAt = e.now(), e.now()
		if err := repos.Bonuses().Save(ctx, b); err != nil {
			return err
		}
		tx.result.Outcome = OutcomeApplied
		return tx.audit(audit.ActionCreate, payroll.AggregateTypeBonusInstallment, b.ID, nil, b)
	})
	if err != nil {
		return nil, err
	}
	return state.result, nil
}

func projectionStartError(kind string) error {
	return shared.NewValidationError("a new %s cannot start as paid; create it and then mark it paid", kind)
}
