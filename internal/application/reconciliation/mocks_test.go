package reconciliation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/opsledger/backend/internal/domain/finance"
	"github.com/opsledger/backend/internal/domain/fleet"
	"github.com/opsledger/backend/internal/domain/payroll"
	"github.com/opsledger/backend/internal/domain/settlement"
	"github.com/stretchr/testify/mock"
)

// MockPayrollPaymentRepository is a mock implementation of PayrollPaymentRepository
type MockPayrollPaymentRepository struct {
	mock.Mock
}

func (m *MockPayrollPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*payroll.PayrollPayment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payroll.PayrollPayment), args.Error(1)
}

func (m *MockPayrollPaymentRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*payroll.PayrollPayment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payroll.PayrollPayment), args.Error(1)
}

func (m *MockPayrollPaymentRepository) FindBySource(ctx context.Context, kind payroll.SourceKind, sourceID uuid.UUID, installment int) (*payroll.PayrollPayment, error) {
	args := m.Called(ctx, kind, sourceID, installment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payroll.PayrollPayment), args.Error(1)
}

func (m *MockPayrollPaymentRepository) FindAll(ctx context.Context, filter payroll.PaymentFilter) ([]payroll.PayrollPayment, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]payroll.PayrollPayment), args.Error(1)
}

func (m *MockPayrollPaymentRepository) Count(ctx context.Context, filter payroll.PaymentFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPayrollPaymentRepository) Save(ctx context.Context, payment *payroll.PayrollPayment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPayrollPaymentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockMaintenanceTaskRepository is a mock implementation of MaintenanceTaskRepository
type MockMaintenanceTaskRepository struct {
	mock.Mock
}

func (m *MockMaintenanceTaskRepository) FindByID(ctx context.Context, id uuid.UUID) (*fleet.MaintenanceTask, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fleet.MaintenanceTask), args.Error(1)
}

func (m *MockMaintenanceTaskRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*fleet.MaintenanceTask, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fleet.MaintenanceTask), args.Error(1)
}

func (m *MockMaintenanceTaskRepository) FindByRecurredFrom(ctx context.Context, sourceID uuid.UUID) (*fleet.MaintenanceTask, error) {
	args := m.Called(ctx, sourceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fleet.MaintenanceTask), args.Error(1)
}

func (m *MockMaintenanceTaskRepository) FindAll(ctx context.Context, filter fleet.MaintenanceFilter) ([]fleet.MaintenanceTask, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]fleet.MaintenanceTask), args.Error(1)
}

func (m *MockMaintenanceTaskRepository) Count(ctx context.Context, filter fleet.MaintenanceFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMaintenanceTaskRepository) Save(ctx context.Context, task *fleet.MaintenanceTask) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

// MockLedgerEntryRepository is a mock implementation of LedgerEntryRepository
type MockLedgerEntryRepository struct {
	mock.Mock
}

func (m *MockLedgerEntryRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.LedgerEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.LedgerEntry), args.Error(1)
}

func (m *MockLedgerEntryRepository) FindByPayrollPayment(ctx context.Context, paymentID uuid.UUID) ([]finance.LedgerEntry, error) {
	args := m.Called(ctx, paymentID)
	return args.Get(0).([]finance.LedgerEntry), args.Error(1)
}

func (m *MockLedgerEntryRepository) FindByMaintenanceTask(ctx context.Context, taskID uuid.UUID) ([]finance.LedgerEntry, error) {
	args := m.Called(ctx, taskID)
	return args.Get(0).([]finance.LedgerEntry), args.Error(1)
}

func (m *MockLedgerEntryRepository) FindAll(ctx context.Context, filter finance.LedgerFilter) ([]finance.LedgerEntry, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]finance.LedgerEntry), args.Error(1)
}

func (m *MockLedgerEntryRepository) Count(ctx context.Context, filter finance.LedgerFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLedgerEntryRepository) Create(ctx context.Context, entry *finance.LedgerEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockLedgerEntryRepository) Update(ctx context.Context, entry *finance.LedgerEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockLedgerEntryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockLedgerEntryRepository) SummarizeCashFlow(ctx context.Context, from, to time.Time) ([]finance.CashFlowLine, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).([]finance.CashFlowLine), args.Error(1)
}

// MockMetrics records what the engine reported
type MockMetrics struct {
	mock.Mock
}

func (m *MockMetrics) RecordOutcome(ctx context.Context, kind RecordKind, outcome Outcome) {
	m.Called(ctx, kind, outcome)
}

func (m *MockMetrics) RecordLedgerAction(ctx context.Context, kind RecordKind, action settlement.Action) {
	m.Called(ctx, kind, action)
}

func (m *MockMetrics) RecordFailure(ctx context.Context, kind RecordKind, code string) {
	m.Called(ctx, kind, code)
}

func (m *MockMetrics) RecordRecurrence(ctx context.Context, generated bool) {
	m.Called(ctx, generated)
}
