package payroll

import (
	"context"

	"github.com/google/uuid"
	"github.com/opsledger/backend/internal/domain/shared"
	"github.com/opsledger/backend/internal/domain/shared/valueobject"
)

// PaymentFilter defines filtering options for payroll payment queries
type PaymentFilter struct {
	shared.Filter
	EmployeeID *uuid.UUID
	Competency *valueobject.YearMonth
	Kind       *PaymentKind
	Status     *PaymentStatus
}

// PayrollPaymentRepository defines the interface for payroll payment persistence
type PayrollPaymentRepository interface {
	// FindByID finds a payment by ID
	FindByID(ctx context.Context, id uuid.UUID) (*PayrollPayment, error)

	// FindByIDForUpdate finds a payment by ID and locks its row until the transaction ends
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*PayrollPayment, error)

	// FindBySource finds the payment projected from a vacation or bonus installment
	FindBySource(ctx context.Context, kind SourceKind, sourceID uuid.UUID, installment int) (*PayrollPayment, error)

	// FindAll finds payments matching the filter
	FindAll(ctx context.Context, filter PaymentFilter) ([]PayrollPayment, error)

	// Count counts payments matching the filter
	Count(ctx context.Context, filter PaymentFilter) (int64, error)

	// Save inserts a new payment or updates an existing one with a version check
	Save(ctx context.Context, payment *PayrollPayment) error

	// Delete removes a payment
	Delete(ctx context.Context, id uuid.UUID) error
}

// VacationFilter defines filtering options for vacation period queries
type VacationFilter struct {
	shared.Filter
	EmployeeID *uuid.UUID
	Status     *VacationStatus
}

// VacationPeriodRepository defines the interface for vacation period persistence
type VacationPeriodRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*VacationPeriod, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*VacationPeriod, error)
	FindAll(ctx context.Context, filter VacationFilter) ([]VacationPeriod, error)
	Count(ctx context.Context, filter VacationFilter) (int64, error)
	Save(ctx context.Context, vacation *VacationPeriod) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// BonusFilter defines filtering options for year-end bonus queries
type BonusFilter struct {
	shared.Filter
	EmployeeID    *uuid.UUID
	ReferenceYear *int
	Status        *BonusStatus
}

// BonusInstallmentRepository defines the interface for year-end bonus persistence
type BonusInstallmentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*BonusInstallmentRecord, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*BonusInstallmentRecord, error)
	FindAll(ctx context.Context, filter BonusFilter) ([]BonusInstallmentRecord, error)
	Count(ctx context.Context, filter BonusFilter) (int64, error)
	Save(ctx context.Context, record *BonusInstallmentRecord) error
	Delete(ctx context.Context, id uuid.UUID) error
}
