package payroll

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/opsledger/backend/internal/domain/shared"
)

// AggregateTypeBonusInstallment is the aggregate type name used in events and audit logs
const AggregateTypeBonusInstallment = "BonusInstallmentRecord"

// BonusStatus is derived from the installment flags; it is never stored as truth
type BonusStatus string

const (
	BonusStatusPending BonusStatus = "PENDING"
	BonusStatusPartial BonusStatus = "PARTIAL"
	BonusStatusPaid    BonusStatus = "PAID"
)

// Installment numbers a year-end bonus installment
type Installment int

const (
	InstallmentFirst  Installment = 1
	InstallmentSecond Installment = 2
)

// IsValid checks if the installment number exists
func (i Installment) IsValid() bool {
	return i == InstallmentFirst || i == InstallmentSecond
}

// DeriveBonusStatus is the single source of the record status:
// PAID iff both installments are paid, PARTIAL iff exactly one is.
func DeriveBonusStatus(firstPaid, secondPaid bool) BonusStatus {
	switch {
	case firstPaid && secondPaid:
		return BonusStatusPaid
	case firstPaid || secondPaid:
		return BonusStatusPartial
	default:
		return BonusStatusPending
	}
}

// CalculateYearEndBonus prorates the monthly salary over the months worked
// and splits it into two installments. The second takes the remainder cent.
func CalculateYearEndBonus(monthlySalary int64, monthsWorked int) (total, first, second int64, err error) {
	if monthlySalary < 0 {
		return 0, 0, 0, shared.NewValidationError("monthly salary cannot be negative")
	}
	if monthsWorked < 1 || monthsWorked > 12 {
		return 0, 0, 0, shared.NewValidationError("months worked must be between 1 and 12, got %d", monthsWorked)
	}
	total = monthlySalary * int64(monthsWorked) / 12
	first = total / 2
	second = total - first
	return total, first, second, nil
}

// BonusInstallmentRecord tracks the two installments of an employee's
// 13th-salary entitlement for a reference year.
type BonusInstallmentRecord struct {
	shared.BaseAggregateRoot
	EmployeeID        uuid.UUID  `json:"employee_id"`
	ReferenceYear     int        `json:"reference_year"`
	MonthsWorked      int        `json:"months_worked"`
	MonthlySalary     int64      `json:"monthly_salary"`
	TotalEntitlement  int64      `json:"total_entitlement"`
	FirstInstallment  int64      `json:"first_installment"`
	SecondInstallment int64      `json:"second_installment"`
	FirstPaid         bool       `json:"first_paid"`
	SecondPaid        bool       `json:"second_paid"`
	FirstPaidAt       *time.Time `json:"first_paid_at,omitempty"`
	SecondPaidAt      *time.Time `json:"second_paid_at,omitempty"`
}

// NewBonusInstallmentRecord generates the entitlement for a reference year
func NewBonusInstallmentRecord(employeeID uuid.UUID, referenceYear int, monthlySalary int64, monthsWorked int) (*BonusInstallmentRecord, error) {
	if employeeID == uuid.Nil {
		return nil, shared.NewValidationError("employee id is required")
	}
	if referenceYear < 1900 {
		return nil, shared.NewValidationError("invalid reference year %d", referenceYear)
	}
	total, first, second, err := CalculateYearEndBonus(monthlySalary, monthsWorked)
	if err != nil {
		return nil, err
	}
	return &BonusInstallmentRecord{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		EmployeeID:        employeeID,
		ReferenceYear:     referenceYear,
		MonthsWorked:      monthsWorked,
		MonthlySalary:     monthlySalary,
		TotalEntitlement:  total,
		FirstInstallment:  first,
		SecondInstallment: second,
	}, nil
}

// Status projects the installment flags
func (b *BonusInstallmentRecord) Status() BonusStatus {
	return DeriveBonusStatus(b.FirstPaid, b.SecondPaid)
}

// InstallmentAmount returns the amount of installment n
func (b *BonusInstallmentRecord) InstallmentAmount(n Installment) int64 {
	if n == InstallmentSecond {
		return b.SecondInstallment
	}
	return b.FirstInstallment
}

// IsInstallmentPaid returns the flag of installment n
func (b *BonusInstallmentRecord) IsInstallmentPaid(n Installment) bool {
	if n == InstallmentSecond {
		return b.SecondPaid
	}
	return b.FirstPaid
}

// InstallmentPaidAt returns when installment n was paid, if it was
func (b *BonusInstallmentRecord) InstallmentPaidAt(n Installment) *time.Time {
	if n == InstallmentSecond {
		return b.SecondPaidAt
	}
	return b.FirstPaidAt
}

// SetInstallmentAmount changes the amount of installment n and the total
func (b *BonusInstallmentRecord) SetInstallmentAmount(n Installment, amount int64) error {
	if !n.IsValid() {
		return shared.NewValidationError("invalid installment %d", n)
	}
	if amount < 0 {
		return shared.NewValidationError("installment amount cannot be negative")
	}
	if amount == 0 && b.IsInstallmentPaid(n) {
		return shared.NewValidationError("installment %d is paid and needs a positive amount", n)
	}
	if n == InstallmentFirst {
		b.FirstInstallment = amount
	} else {
		b.SecondInstallment = amount
	}
	b.TotalEntitlement = b.FirstInstallment + b.SecondInstallment
	return nil
}

// SetInstallmentPaid flips the paid flag of installment n. It reports
// false without error when the flag already has that value.
func (b *BonusInstallmentRecord) SetInstallmentPaid(n Installment, paid bool, at time.Time) (bool, error) {
	if !n.IsValid() {
		return false, shared.NewValidationError("invalid installment %d", n)
	}
	if b.IsInstallmentPaid(n) == paid {
		return false, nil
	}
	if paid && b.InstallmentAmount(n) <= 0 {
		return false, shared.NewValidationError("installment %d has no amount to pay", n)
	}

	var paidAt *time.Time
	if paid {
		ts := at
		paidAt = &ts
	}
	if n == InstallmentFirst {
		b.FirstPaid, b.FirstPaidAt = paid, paidAt
	} else {
		b.SecondPaid, b.SecondPaidAt = paid, paidAt
	}
	b.Touch(at)
	return true, nil
}

// MarshalJSON adds the derived status to the serialized record
func (b BonusInstallmentRecord) MarshalJSON() ([]byte, error) {
	type record BonusInstallmentRecord
	return json.Marshal(struct {
		record
		Status BonusStatus `json:"status"`
	}{record: record(b), Status: b.Status()})
}
