package payroll

import (
	"time"

	"github.com/google/uuid"
	"github.com/opsledger/backend/internal/domain/shared"
	"github.com/opsledger/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// AggregateTypePayrollPayment is the aggregate type name used in events and audit logs
const AggregateTypePayrollPayment = "PayrollPayment"

// PaymentKind classifies a payroll payment
type PaymentKind string

const (
	PaymentKindSalary       PaymentKind = "SALARY"
	PaymentKindDailyRate    PaymentKind = "DAILY_RATE"
	PaymentKindCommission   PaymentKind = "COMMISSION"
	PaymentKindBonus        PaymentKind = "BONUS"
	PaymentKindSeverance    PaymentKind = "SEVERANCE"
	PaymentKindVacation     PaymentKind = "VACATION"
	PaymentKindYearEndBonus PaymentKind = "YEAR_END_BONUS"
)

// IsValid checks if the kind is a valid PaymentKind
func (k PaymentKind) IsValid() bool {
	switch k {
	case PaymentKindSalary, PaymentKindDailyRate, PaymentKindCommission, PaymentKindBonus,
		PaymentKindSeverance, PaymentKindVacation, PaymentKindYearEndBonus:
		return true
	}
	return false
}

// PaymentStatus is the lifecycle state of a payroll payment
type PaymentStatus string

const (
	PaymentStatusSimulated PaymentStatus = "SIMULATED"
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusPaid      PaymentStatus = "PAID"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
)

// IsValid checks if the status is a valid PaymentStatus
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusSimulated, PaymentStatusPending, PaymentStatusPaid, PaymentStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// IsTerminal returns true if no transition may leave the status
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusCancelled
}

// CanTransitionTo reports whether the state machine allows s -> next.
// PAID may go back to PENDING; that rollback removes the ledger entry.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	switch s {
	case PaymentStatusSimulated:
		return next == PaymentStatusPending || next == PaymentStatusCancelled
	case PaymentStatusPending:
		return next == PaymentStatusPaid || next == PaymentStatusCancelled
	case PaymentStatusPaid:
		return next == PaymentStatusPending || next == PaymentStatusCancelled
	}
	return false
}

// SourceKind identifies the record a projected payment was derived from
type SourceKind string

const (
	SourceKindNone         SourceKind = ""
	SourceKindVacation     SourceKind = "VACATION"
	SourceKindYearEndBonus SourceKind = "YEAR_END_BONUS"
)

// Amounts holds the editable money components of a payment, in cents
type Amounts struct {
	BaseAmount        int64
	Additions         int64
	OvertimeHours     decimal.Decimal
	OvertimeValue     int64
	Deductions        int64
	AdvanceDeductions int64
}

// Validate rejects negative components
func (a Amounts) Validate() error {
	switch {
	case a.BaseAmount < 0:
		return shared.NewValidationError("base amount cannot be negative")
	case a.Additions < 0:
		return shared.NewValidationError("additions cannot be negative")
	case a.OvertimeHours.IsNegative():
		return shared.NewValidationError("overtime hours cannot be negative")
	case a.OvertimeValue < 0:
		return shared.NewValidationError("overtime value cannot be negative")
	case a.Deductions < 0:
		return shared.NewValidationError("deductions cannot be negative")
	case a.AdvanceDeductions < 0:
		return shared.NewValidationError("advance deductions cannot be negative")
	}
	return nil
}

// Gross returns base + additions + overtime value
func (a Amounts) Gross() int64 {
	return a.BaseAmount + a.Additions + a.OvertimeValue
}

// Net returns gross - deductions - advance deductions
func (a Amounts) Net() int64 {
	return a.Gross() - a.Deductions - a.AdvanceDeductions
}

// PayrollPayment is a single payroll disbursement to an employee for a competency month.
// GrossTotal and NetTotal are derived and never set directly.
type PayrollPayment struct {
	shared.BaseAggregateRoot
	EmployeeID        uuid.UUID             `json:"employee_id"`
	Competency        valueobject.YearMonth `json:"competency"`
	Kind              PaymentKind           `json:"kind"`
	BaseAmount        int64                 `json:"base_amount"`
	Additions         int64                 `json:"additions"`
	OvertimeHours     decimal.Decimal       `json:"overtime_hours"`
	OvertimeValue     int64                 `json:"overtime_value"`
	Deductions        int64                 `json:"deductions"`
	AdvanceDeductions int64                 `json:"advance_deductions"`
	GrossTotal        int64                 `json:"gross_total"`
	NetTotal          int64                 `json:"net_total"`
	Status            PaymentStatus         `json:"status"`
	PaymentDate       *time.Time            `json:"payment_date,omitempty"`
	PaymentMethod     string                `json:"payment_method"`
	CostCenter        string                `json:"cost_center"`
	Description       string                `json:"description"`
	SourceKind        SourceKind            `json:"source_kind,omitempty"`
	SourceID          *uuid.UUID            `json:"source_id,omitempty"`
	Installment       int                   `json:"installment,omitempty"`
}

// NewPayrollPayment creates a payment in SIMULATED or PENDING status.
// Payments are settled through a status change, never at creation.
func NewPayrollPayment(
	employeeID uuid.UUID,
	competency valueobject.YearMonth,
	kind PaymentKind,
	amounts Amounts,
	status PaymentStatus,
) (*PayrollPayment, error) {
	if employeeID == uuid.Nil {
		return nil, shared.NewValidationError("employee id is required")
	}
	if competency.IsZero() {
		return nil, shared.NewValidationError("competency is required")
	}
	if !kind.IsValid() {
		return nil, shared.NewValidationError("invalid payment kind %q", kind)
	}
	if status == "" {
		status = PaymentStatusPending
	}
	if status != PaymentStatusSimulated && status != PaymentStatusPending {
		return nil, shared.NewValidationError("new payments must be SIMULATED or PENDING, got %s", status)
	}

	p := &PayrollPayment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		EmployeeID:        employeeID,
		Competency:        competency,
		Kind:              kind,
		Status:            status,
	}
	if err := p.SetAmounts(amounts); err != nil {
		return nil, err
	}
	return p, nil
}

// NewProjectedPayment creates the PAID payment that mirrors a settled vacation
// or year-end bonus installment.
func NewProjectedPayment(
	employeeID uuid.UUID,
	competency valueobject.YearMonth,
	kind PaymentKind,
	amount int64,
	source SourceKind,
	sourceID uuid.UUID,
	installment int,
	paidAt time.Time,
) (*PayrollPayment, error) {
	if source == SourceKindNone || sourceID == uuid.Nil {
		return nil, shared.NewValidationError("projected payment requires a source record")
	}
	if amount <= 0 {
		return nil, shared.NewValidationError("projected payment amount must be positive")
	}
	p := &PayrollPayment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		EmployeeID:        employeeID,
		Competency:        competency,
		Kind:              kind,
		Status:            PaymentStatusPaid,
		PaymentDate:       &paidAt,
		SourceKind:        source,
		SourceID:          &sourceID,
		Installment:       installment,
	}
	p.applyAmounts(Amounts{BaseAmount: amount})
	return p, nil
}

// Amounts returns the editable components
func (p *PayrollPayment) Amounts() Amounts {
	return Amounts{
		BaseAmount:        p.BaseAmount,
		Additions:         p.Additions,
		OvertimeHours:     p.OvertimeHours,
		OvertimeValue:     p.OvertimeValue,
		Deductions:        p.Deductions,
		AdvanceDeductions: p.AdvanceDeductions,
	}
}

// SetAmounts replaces the components and recomputes the totals
func (p *PayrollPayment) SetAmounts(a Amounts) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if a.Net() < 0 {
		return shared.NewValidationError("deductions (%d) exceed gross total (%d)",
			a.Deductions+a.AdvanceDeductions, a.Gross())
	}
	if p.Status == PaymentStatusPaid && a.Net() == 0 {
		return shared.NewValidationError("a paid payment must have a positive net total")
	}
	p.applyAmounts(a)
	return nil
}

func (p *PayrollPayment) applyAmounts(a Amounts) {
	p.BaseAmount = a.BaseAmount
	p.Additions = a.Additions
	p.OvertimeHours = a.OvertimeHours
	p.OvertimeValue = a.OvertimeValue
	p.Deductions = a.Deductions
	p.AdvanceDeductions = a.AdvanceDeductions
	p.Recalculate()
}

// Recalculate derives GrossTotal and NetTotal from the components
func (p *PayrollPayment) Recalculate() {
	a := p.Amounts()
	p.GrossTotal = a.Gross()
	p.NetTotal = a.Net()
}

// TransitionTo moves the payment to next. It reports false without error
// when the payment is already in that status.
func (p *PayrollPayment) TransitionTo(next PaymentStatus, at time.Time) (bool, error) {
	if !next.IsValid() {
		return false, shared.NewValidationError("invalid payment status %q", next)
	}
	if next == p.Status {
		return false, nil
	}
	if !p.Status.CanTransitionTo(next) {
		return false, shared.NewInvalidTransitionError("payroll payment", string(p.Status), string(next))
	}
	if next == PaymentStatusPaid {
		if p.NetTotal <= 0 {
			return false, shared.NewValidationError("cannot pay a payment with net total %d", p.NetTotal)
		}
		if p.PaymentDate == nil {
			paidAt := at
			p.PaymentDate = &paidAt
		}
	}
	p.Status = next
	p.Touch(at)
	return true, nil
}

// IsSettled reports whether the payment must be mirrored by a ledger entry
func (p *PayrollPayment) IsSettled() bool {
	return p.Status == PaymentStatusPaid
}

// IsProjection reports whether the payment was derived from another record
func (p *PayrollPayment) IsProjection() bool {
	return p.SourceKind != SourceKindNone
}
