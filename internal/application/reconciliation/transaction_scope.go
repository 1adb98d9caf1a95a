package reconciliation

import (
	"context"

	"github.com/opsledger/backend/internal/domain/finance"
	"github.com/opsledger/backend/internal/domain/fleet"
	"github.com/opsledger/backend/internal/domain/payroll"
)

// TransactionScope provides transactional access to the payable and ledger repositories.
// Everything done through the repositories handed to fn is committed or rolled back together.
type TransactionScope interface {
	// Execute runs fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all repositories within a transaction.
// All repositories returned share the same underlying database transaction.
type TransactionalRepositories interface {
	Payments() payroll.PayrollPaymentRepository
	Vacations() payroll.VacationPeriodRepository
	Bonuses() payroll.BonusInstallmentRepository
	Maintenance() fleet.MaintenanceTaskRepository
	Ledger() finance.LedgerEntryRepository
}

// NoOpTransactionScope runs fn against fixed repositories without a transaction.
// It is meant for unit tests with in-memory or mocked repositories.
type NoOpTransactionScope struct {
	payments    payroll.PayrollPaymentRepository
	vacations   payroll.VacationPeriodRepository
	bonuses     payroll.BonusInstallmentRepository
	maintenance fleet.MaintenanceTaskRepository
	ledger      finance.LedgerEntryRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	payments payroll.PayrollPaymentRepository,
	vacations payroll.VacationPeriodRepository,
	bonuses payroll.BonusInstallmentRepository,
	maintenance fleet.MaintenanceTaskRepository,
	ledger finance.LedgerEntryRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		payments:    payments,
		vacations:   vacations,
		bonuses:     bonuses,
		maintenance: maintenance,
		ledger:      ledger,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

func (s *NoOpTransactionScope) Payments() payroll.PayrollPaymentRepository   { return s.payments }
func (s *NoOpTransactionScope) Vacations() payroll.VacationPeriodRepository  { return s.vacations }
func (s *NoOpTransactionScope) Bonuses() payroll.BonusInstallmentRepository  { return s.bonuses }
func (s *NoOpTransactionScope) Maintenance() fleet.MaintenanceTaskRepository { return s.maintenance }
func (s *NoOpTransactionScope) Ledger() finance.LedgerEntryRepository        { return s.ledger }

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
