package persistence

import (
	"context"

	"github.com/opsledger/backend/internal/application/reconciliation"
	"github.com/opsledger/backend/internal/domain/finance"
	"github.com/opsledger/backend/internal/domain/fleet"
	"github.com/opsledger/backend/internal/domain/payroll"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// Payable records and ledger entries written through one scope commit together.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos reconciliation.TransactionalRepositories) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
	return translateError(err, "transaction")
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// Payments returns the payroll payment repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Payments() payroll.PayrollPaymentRepository {
	return NewGormPayrollPaymentRepository(r.tx)
}

// Vacations returns the vacation period repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Vacations() payroll.VacationPeriodRepository {
	return NewGormVacationPeriodRepository(r.tx)
}

// Bonuses returns the year-end bonus repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Bonuses() payroll.BonusInstallmentRepository {
	return NewGormBonusInstallmentRepository(r.tx)
}

// Maintenance returns the maintenance task repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Maintenance() fleet.MaintenanceTaskRepository {
	return NewGormMaintenanceTaskRepository(r.tx)
}

// Ledger returns the ledger entry repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Ledger() finance.LedgerEntryRepository {
	return NewGormLedgerEntryRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ reconciliation.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ reconciliation.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
