package reconciliation_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/opsledger/backend/internal/application/reconciliation"
	"github.com/opsledger/backend/internal/domain/audit"
	"github.com/opsledger/backend/internal/domain/finance"
	"github.com/opsledger/backend/internal/domain/fleet"
	"github.com/opsledger/backend/internal/domain/payroll"
	"github.com/opsledger/backend/internal/domain/settlement"
	"github.com/opsledger/backend/internal/domain/shared"
	"github.com/opsledger/backend/internal/domain/shared/valueobject"
	"github.com/opsledger/backend/internal/infrastructure/persistence"
	"github.com/opsledger/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type harness struct {
	db        *gorm.DB
	engine    *reconciliation.Engine
	publisher *testutil.RecordingPublisher
	ledger    *persistence.GormLedgerEntryRepository
	payments  *persistence.GormPayrollPaymentRepository
	tasks     *persistence.GormMaintenanceTaskRepository
	bonuses   *persistence.GormBonusInstallmentRepository
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessOn(t, testutil.NewSQLiteDB(t))
}

func newHarnessOn(t *testing.T, db *gorm.DB) *harness {
	t.Helper()
	scope := persistence.NewGormTransactionScope(db)
	publisher := testutil.NewRecordingPublisher()
	generator := reconciliation.NewRecurrenceGenerator(scope, fleet.DefaultRecurrencePolicy(), publisher, nil, zap.NewNop())
	return &harness{
		db:        db,
		engine:    reconciliation.NewEngine(scope, publisher, zap.NewNop(), reconciliation.WithRecurrence(generator)),
		publisher: publisher,
		ledger:    persistence.NewGormLedgerEntryRepository(db),
		payments:  persistence.NewGormPayrollPaymentRepository(db),
		tasks:     persistence.NewGormMaintenanceTaskRepository(db),
		bonuses:   persistence.NewGormBonusInstallmentRepository(db),
	}
}

func (h *harness) paymentEntries(t *testing.T, id uuid.UUID) []finance.LedgerEntry {
	t.Helper()
	entries, err := h.ledger.FindByPayrollPayment(context.Background(), id)
	require.NoError(t, err)
	return entries
}

func (h *harness) ledgerCount(t *testing.T) int64 {
	t.Helper()
	count, err := h.ledger.Count(context.Background(), finance.LedgerFilter{Filter: shared.DefaultFilter()})
	require.NoError(t, err)
	return count
}

func paymentStatus(s payroll.PaymentStatus) *payroll.PaymentStatus { return &s }
func vacationStatus(s payroll.VacationStatus) *payroll.VacationStatus {
	return &s
}
func boolPtr(v bool) *bool           { return &v }
func int64Ptr(v int64) *int64        { return &v }
func intPtr(v int) *int              { return &v }
func timePtr(t time.Time) *time.Time { return &t }

func createScenarioPayment(t *testing.T, h *harness) *payroll.PayrollPayment {
	t.Helper()
	p, err := payroll.NewPayrollPayment(uuid.New(), valueobject.YearMonth{Year: 2026, Month: time.September},
		payroll.PaymentKindSalary, payroll.Amounts{
			BaseAmount:    500000,
			OvertimeValue: 20000,
			Deductions:    10000,
		}, payroll.PaymentStatusPending)
	require.NoError(t, err)
	result, err := h.engine.CreatePayrollPayment(context.Background(), p, nil)
	require.NoError(t, err)
	require.Equal(t, reconciliation.OutcomeApplied, result.Outcome)
	require.Equal(t, int64(510000), p.NetTotal)
	return p
}

func TestScenario_PayAndRollBackPayrollPayment(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := createScenarioPayment(t, h)
	paidOn := time.Date(2026, 10, 5, 0, 0, 0, 0, time.UTC)

	result, err := h.engine.ApplyPayrollPaymentChange(ctx, p.ID, reconciliation.PayrollPaymentChange{
		Status:      paymentStatus(payroll.PaymentStatusPaid),
		PaymentDate: &paidOn,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, reconciliation.OutcomeApplied, result.Outcome)

	entries := h.paymentEntries(t, p.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(510000), entries[0].Amount)
	assert.Equal(t, finance.DirectionOutflow, entries[0].Direction)
	assert.Equal(t, finance.CategoryPayroll, entries[0].Category)
	assert.True(t, paidOn.Equal(entries[0].EntryDate))

	t.Run("repeating the change is a noop", func(t *testing.T) {
		h.publisher.Reset()
		again, err := h.engine.ApplyPayrollPaymentChange(ctx, p.ID, reconciliation.PayrollPaymentChange{
			Status:      paymentStatus(payroll.PaymentStatusPaid),
			PaymentDate: &paidOn,
		}, nil)
		require.NoError(t, err)
		assert.Equal(t, reconciliation.OutcomeNoop, again.Outcome)
		assert.Len(t, h.paymentEntries(t, p.ID), 1)
		assert.Empty(t, h.publisher.Events())
	})

	t.Run("rolling back needs confirmation", func(t *testing.T) {
		_, err := h.engine.ApplyPayrollPaymentChange(ctx, p.ID, reconciliation.PayrollPaymentChange{
			Status: paymentStatus(payroll.PaymentStatusPending),
		}, nil)
		assert.ErrorIs(t, err, shared.ErrForbidden)

		stored, err := h.payments.FindByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, payroll.PaymentStatusPaid, stored.Status, "refused rollback leaves the payment untouched")
		assert.Len(t, h.paymentEntries(t, p.ID), 1)
	})

	t.Run("confirmed rollback removes the entry and keeps amounts", func(t *testing.T) {
		result, err := h.engine.ApplyPayrollPaymentChange(reconciliation.WithSensitiveConfirmation(ctx), p.ID,
			reconciliation.PayrollPaymentChange{Status: paymentStatus(payroll.PaymentStatusPending)}, nil)
		require.NoError(t, err)
		require.Len(t, result.LedgerChanges, 1)
		assert.Equal(t, settlement.ActionDelete, result.LedgerChanges[0].Action)
		assert.Empty(t, h.paymentEntries(t, p.ID))

		stored, err := h.payments.FindByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, payroll.PaymentStatusPending, stored.Status)
		assert.Equal(t, int64(510000), stored.NetTotal)
		assert.Equal(t, int64(520000), stored.GrossTotal)
	})
}

func TestScenario_EditingPaidPaymentKeepsSingleEntry(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := createScenarioPayment(t, h)

	_, err := h.engine.ApplyPayrollPaymentChange(ctx, p.ID, reconciliation.PayrollPaymentChange{
		Status: paymentStatus(payroll.PaymentStatusPaid),
	}, nil)
	require.NoError(t, err)

	for _, deductions := range []int64{15000, 20000, 20000} {
		_, err := h.engine.ApplyPayrollPaymentChange(ctx, p.ID, reconciliation.PayrollPaymentChange{
			Deductions:        int64Ptr(deductions),
			AdvanceDeductions: int64Ptr(5000),
		}, nil)
		require.NoError(t, err)

		stored, err := h.payments.FindByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, stored.BaseAmount+stored.Additions+stored.OvertimeValue-stored.Deductions-stored.AdvanceDeductions, stored.NetTotal)

		entries := h.paymentEntries(t, p.ID)
		require.Len(t, entries, 1)
		assert.Equal(t, stored.NetTotal, entries[0].Amount)
	}
}

func TestScenario_DuplicateEntriesAreReported(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := createScenarioPayment(t, h)

	_, err := h.engine.ApplyPayrollPaymentChange(ctx, p.ID, reconciliation.PayrollPaymentChange{
		Status: paymentStatus(payroll.PaymentStatusPaid),
	}, nil)
	require.NoError(t, err)

	// a second row slipped in outside the engine; the index is dropped to allow it
	require.NoError(t, h.db.Exec("DROP INDEX idx_ledger_entries_payroll_payment_id").Error)
	existing := h.paymentEntries(t, p.ID)[0]
	dup, err := finance.NewLedgerEntry(existing.Draft())
	require.NoError(t, err)
	dup.CreatedAt, dup.UpdatedAt = existing.CreatedAt, existing.UpdatedAt
	require.NoError(t, h.ledger.Create(ctx, dup))

	_, err = h.engine.ApplyPayrollPaymentChange(ctx, p.ID, reconciliation.PayrollPaymentChange{
		Description: func() *string { s := "late edit"; return &s }(),
	}, nil)
	assert.ErrorIs(t, err, shared.ErrLedgerInvariant)
}

func TestScenario_RecurringMaintenanceCompletion(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	task, err := fleet.NewMaintenanceTask(uuid.New(), fleet.MaintenanceTypePreventive, "engine", "Timing belt", fleet.PriorityHigh,
		time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	task.Recurring = true
	task.IntervalDays = intPtr(180)
	task.EstimatedCost = 120000
	_, err = h.engine.CreateMaintenanceTask(ctx, task, nil)
	require.NoError(t, err)

	completedOn := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	completed := fleet.MaintenanceStatusCompleted
	result, err := h.engine.ApplyMaintenanceChange(ctx, task.ID, reconciliation.MaintenanceChange{
		Status:        &completed,
		CompletedDate: &completedOn,
		FinalCost:     int64Ptr(135000),
		IsPaid:        boolPtr(true),
	}, nil)
	require.NoError(t, err)
	require.NotNil(t, result.NextOccurrenceID)

	next, err := h.tasks.FindByRecurredFrom(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, *result.NextOccurrenceID, next.ID)
	assert.Equal(t, fleet.MaintenanceStatusPending, next.Status)
	assert.True(t, completedOn.AddDate(0, 0, 180).Equal(next.ScheduledDate))
	assert.False(t, next.IsPaid)
	assert.Nil(t, next.FinalCost)
	assert.Equal(t, int64(120000), next.EstimatedCost)

	entries, err := h.ledger.FindByMaintenanceTask(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(135000), entries[0].Amount, "a completed task settles its final cost")

	t.Run("the generated occurrence is audited", func(t *testing.T) {
		var created []*audit.RecordChangedEvent
		for _, event := range h.publisher.Events() {
			if rc, ok := event.(*audit.RecordChangedEvent); ok && rc.EntityID == next.ID {
				created = append(created, rc)
			}
		}
		require.Len(t, created, 1)
		assert.Equal(t, audit.ActionCreate, created[0].Action)
		assert.Equal(t, fleet.AggregateTypeMaintenanceTask, created[0].EntityKind)
		assert.Empty(t, created[0].Before)
		assert.NotEmpty(t, created[0].After)
	})

	t.Run("generating again returns the same occurrence", func(t *testing.T) {
		publisher := testutil.NewRecordingPublisher()
		generator := reconciliation.NewRecurrenceGenerator(persistence.NewGormTransactionScope(h.db),
			fleet.DefaultRecurrencePolicy(), publisher, nil, zap.NewNop())
		again, err := generator.GenerateNext(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, next.ID, again.ID)
		assert.Empty(t, publisher.Events(), "an existing occurrence is not audited again")

		count, err := h.tasks.Count(ctx, fleet.MaintenanceFilter{Filter: shared.DefaultFilter()})
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("soft delete removes the entry", func(t *testing.T) {
		_, err := h.engine.DeleteRecord(reconciliation.WithSensitiveConfirmation(ctx), reconciliation.RecordKindMaintenanceTask, task.ID, nil)
		require.NoError(t, err)

		entries, err := h.ledger.FindByMaintenanceTask(ctx, task.ID)
		require.NoError(t, err)
		assert.Empty(t, entries)

		stored, err := h.tasks.FindByID(ctx, task.ID)
		require.NoError(t, err)
		assert.False(t, stored.Active)

		_, err = h.engine.ApplyMaintenanceChange(ctx, task.ID, reconciliation.MaintenanceChange{IsPaid: boolPtr(false)}, nil)
		assert.Error(t, err)
	})
}

func TestScenario_MaintenancePaidAtCreation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	task, err := fleet.NewMaintenanceTask(uuid.New(), fleet.MaintenanceTypeCorrective, "", "Replace windshield", fleet.PriorityUrgent,
		time.Date(2026, 9, 20, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	task.EstimatedCost = 90000
	task.IsPaid = true

	result, err := h.engine.CreateMaintenanceTask(ctx, task, nil)
	require.NoError(t, err)
	require.Len(t, result.LedgerChanges, 1)
	assert.Equal(t, settlement.ActionCreate, result.LedgerChanges[0].Action)

	// unpaying a settled task is a rollback
	_, err = h.engine.ApplyMaintenanceChange(ctx, task.ID, reconciliation.MaintenanceChange{IsPaid: boolPtr(false)}, nil)
	assert.ErrorIs(t, err, shared.ErrForbidden)
	assert.Equal(t, int64(1), h.ledgerCount(t))
}

func TestScenario_MaintenanceEditKeepsSettledEntry(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	engine := reconciliation.NewEngine(persistence.NewGormTransactionScope(h.db), h.publisher, zap.NewNop(),
		reconciliation.WithClock(func() time.Time { return now }))

	scheduled := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	task, err := fleet.NewMaintenanceTask(uuid.New(), fleet.MaintenanceTypeCorrective, "brakes", "Replace discs", fleet.PriorityHigh, scheduled)
	require.NoError(t, err)
	task.EstimatedCost = 50000
	task.IsPaid = true
	_, err = engine.CreateMaintenanceTask(ctx, task, nil)
	require.NoError(t, err)

	before, err := h.ledger.FindByMaintenanceTask(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, before, 1)
	assert.True(t, scheduled.Equal(before[0].EntryDate))

	now = now.AddDate(0, 0, 20)
	result, err := engine.ApplyMaintenanceChange(ctx, task.ID, reconciliation.MaintenanceChange{OdometerKm: intPtr(42000)}, nil)
	require.NoError(t, err)
	assert.Empty(t, result.LedgerChanges)

	after, err := h.ledger.FindByMaintenanceTask(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.True(t, scheduled.Equal(after[0].EntryDate), "an odometer edit must not move the entry date")
	assert.Equal(t, before[0].Version, after[0].Version)
}

func TestScenario_YearEndBonusInstallments(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	record, err := payroll.NewBonusInstallmentRecord(uuid.New(), 2026, 120000, 12)
	require.NoError(t, err)
	require.Equal(t, int64(120000), record.TotalEntitlement)
	_, err = h.engine.CreateBonusRecord(ctx, record, nil)
	require.NoError(t, err)

	result, err := h.engine.ApplyBonusInstallmentChange(ctx, record.ID, reconciliation.BonusInstallmentChange{
		FirstPaid:   boolPtr(true),
		FirstAmount: int64Ptr(60000),
	}, nil)
	require.NoError(t, err)
	require.Len(t, result.LedgerChanges, 1)

	stored, err := h.bonuses.FindByID(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, payroll.BonusStatusPartial, stored.Status())

	first, err := h.payments.FindBySource(ctx, payroll.SourceKindYearEndBonus, record.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, payroll.PaymentStatusPaid, first.Status)
	assert.Equal(t, payroll.PaymentKindYearEndBonus, first.Kind)
	firstEntries := h.paymentEntries(t, first.ID)
	require.Len(t, firstEntries, 1)
	assert.Equal(t, int64(60000), firstEntries[0].Amount)
	assert.Equal(t, finance.CategoryYearEndBonus, firstEntries[0].Category)

	_, err = h.engine.ApplyBonusInstallmentChange(ctx, record.ID, reconciliation.BonusInstallmentChange{
		SecondPaid:   boolPtr(true),
		SecondAmount: int64Ptr(60000),
	}, nil)
	require.NoError(t, err)

	stored, err = h.bonuses.FindByID(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, payroll.BonusStatusPaid, stored.Status())

	second, err := h.payments.FindBySource(ctx, payroll.SourceKindYearEndBonus, record.ID, 2)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	require.Len(t, h.paymentEntries(t, second.ID), 1)
	assert.Len(t, h.paymentEntries(t, first.ID), 1, "paying the second installment leaves the first entry alone")
	assert.Equal(t, int64(2), h.ledgerCount(t))

	t.Run("status cannot be set directly", func(t *testing.T) {
		status := "PENDING"
		_, err := h.engine.ApplyBonusInstallmentChange(ctx, record.ID, reconciliation.BonusInstallmentChange{Status: &status}, nil)
		assert.ErrorIs(t, err, shared.ErrInvalidTransition)
	})

	t.Run("unpaying one installment removes only its projection", func(t *testing.T) {
		_, err := h.engine.ApplyBonusInstallmentChange(reconciliation.WithSensitiveConfirmation(ctx), record.ID,
			reconciliation.BonusInstallmentChange{FirstPaid: boolPtr(false)}, nil)
		require.NoError(t, err)

		_, err = h.payments.FindBySource(ctx, payroll.SourceKindYearEndBonus, record.ID, 1)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.Equal(t, int64(1), h.ledgerCount(t))

		stored, err := h.bonuses.FindByID(ctx, record.ID)
		require.NoError(t, err)
		assert.Equal(t, payroll.BonusStatusPartial, stored.Status())
	})

	t.Run("deleting the record removes the remaining projection", func(t *testing.T) {
		_, err := h.engine.DeleteRecord(reconciliation.WithSensitiveConfirmation(ctx), reconciliation.RecordKindBonusInstallment, record.ID, nil)
		require.NoError(t, err)
		assert.Zero(t, h.ledgerCount(t))
		_, err = h.payments.FindBySource(ctx, payroll.SourceKindYearEndBonus, record.ID, 2)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestScenario_VacationProjection(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	v, err := payroll.NewVacationPeriod(uuid.New(),
		time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC), 30)
	require.NoError(t, err)
	_, err = h.engine.CreateVacationPeriod(ctx, v, nil)
	require.NoError(t, err)

	leaveStart := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	steps := []reconciliation.VacationChange{
		{Status: vacationStatus(payroll.VacationStatusApproved), GrossValue: int64Ptr(300000),
			LeaveStart: &leaveStart, LeaveEnd: timePtr(leaveStart.AddDate(0, 0, 29)), DaysTaken: intPtr(30)},
		{Status: vacationStatus(payroll.VacationStatusTaken)},
		{Status: vacationStatus(payroll.VacationStatusPaid)},
	}
	for _, step := range steps {
		_, err := h.engine.ApplyVacationChange(ctx, v.ID, step, nil)
		require.NoError(t, err)
	}

	projection, err := h.payments.FindBySource(ctx, payroll.SourceKindVacation, v.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(400000), projection.NetTotal, "vacation pay includes the one-third bonus")
	assert.Equal(t, valueobject.YearMonth{Year: 2026, Month: time.July}, projection.Competency)
	entries := h.paymentEntries(t, projection.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, finance.CategoryVacation, entries[0].Category)

	t.Run("changing the paid amount updates the projection", func(t *testing.T) {
		result, err := h.engine.ApplyVacationChange(ctx, v.ID, reconciliation.VacationChange{GrossValue: int64Ptr(330000)}, nil)
		require.NoError(t, err)
		require.Len(t, result.LedgerChanges, 1)
		assert.Equal(t, settlement.ActionUpdate, result.LedgerChanges[0].Action)
		assert.Equal(t, int64(440000), h.paymentEntries(t, projection.ID)[0].Amount)
	})

	t.Run("the projected payment cannot be edited directly", func(t *testing.T) {
		_, err := h.engine.ApplyPayrollPaymentChange(ctx, projection.ID, reconciliation.PayrollPaymentChange{
			Status: paymentStatus(payroll.PaymentStatusCancelled),
		}, nil)
		assert.ErrorIs(t, err, shared.ErrInvalidTransition)
	})

	t.Run("leaving PAID removes projection and entry", func(t *testing.T) {
		_, err := h.engine.ApplyVacationChange(ctx, v.ID, reconciliation.VacationChange{
			Status: vacationStatus(payroll.VacationStatusTaken),
		}, nil)
		assert.ErrorIs(t, err, shared.ErrForbidden)

		_, err = h.engine.ApplyVacationChange(reconciliation.WithSensitiveConfirmation(ctx), v.ID, reconciliation.VacationChange{
			Status: vacationStatus(payroll.VacationStatusTaken),
		}, nil)
		require.NoError(t, err)
		_, err = h.payments.FindBySource(ctx, payroll.SourceKindVacation, v.ID, 0)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.Zero(t, h.ledgerCount(t))
	})
}

func TestScenario_ConcurrentPaymentsOfSameRecord(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := createScenarioPayment(t, h)

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.engine.ApplyPayrollPaymentChange(ctx, p.ID, reconciliation.PayrollPaymentChange{
				Status: paymentStatus(payroll.PaymentStatusPaid),
			}, nil)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		}
	}
	assert.Len(t, h.paymentEntries(t, p.ID), 1)
}
