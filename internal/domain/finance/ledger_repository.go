package finance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/opsledger/backend/internal/domain/shared"
)

// LedgerFilter defines filtering options for ledger entry queries
type LedgerFilter struct {
	shared.Filter
	Direction *Direction
	Category  *Category
	FromDate  *time.Time
	ToDate    *time.Time
}

// LedgerEntryRepository defines the interface for ledger persistence.
// Lookups by back-reference return every matching row so callers can
// detect a violated single-entry invariant instead of hiding it.
type LedgerEntryRepository interface {
	// FindByID finds a ledger entry by ID
	FindByID(ctx context.Context, id uuid.UUID) (*LedgerEntry, error)

	// FindByPayrollPayment finds the entries referencing a payroll payment
	FindByPayrollPayment(ctx context.Context, paymentID uuid.UUID) ([]LedgerEntry, error)

	// FindByMaintenanceTask finds the entries referencing a maintenance task
	FindByMaintenanceTask(ctx context.Context, taskID uuid.UUID) ([]LedgerEntry, error)

	// FindAll finds entries matching the filter
	FindAll(ctx context.Context, filter LedgerFilter) ([]LedgerEntry, error)

	// Count counts entries matching the filter
	Count(ctx context.Context, filter LedgerFilter) (int64, error)

	// Create inserts a new entry
	Create(ctx context.Context, entry *LedgerEntry) error

	// Update writes an existing entry with a version check
	Update(ctx context.Context, entry *LedgerEntry) error

	// Delete removes an entry
	Delete(ctx context.Context, id uuid.UUID) error

	// SummarizeCashFlow totals entries by category and direction within [from, to]
	SummarizeCashFlow(ctx context.Context, from, to time.Time) ([]CashFlowLine, error)
}
