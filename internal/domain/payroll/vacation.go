package payroll

import (
	"time"

	"github.com/google/uuid"
	"github.com/opsledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AggregateTypeVacationPeriod is the aggregate type name used in events and audit logs
const AggregateTypeVacationPeriod = "VacationPeriod"

// DefaultEntitledDays is the leave granted per acquisition period
const DefaultEntitledDays = 30

// VacationStatus is the lifecycle state of a vacation period
type VacationStatus string

const (
	VacationStatusScheduled VacationStatus = "SCHEDULED"
	VacationStatusApproved  VacationStatus = "APPROVED"
	VacationStatusTaken     VacationStatus = "TAKEN"
	VacationStatusPaid      VacationStatus = "PAID"
)

func (s VacationStatus) rank() int {
	switch s {
	case VacationStatusScheduled:
		return 1
	case VacationStatusApproved:
		return 2
	case VacationStatusTaken:
		return 3
	case VacationStatusPaid:
		return 4
	}
	return 0
}

// IsValid checks if the status is a valid VacationStatus
func (s VacationStatus) IsValid() bool {
	return s.rank() > 0
}

// String returns the string representation of VacationStatus
func (s VacationStatus) String() string {
	return string(s)
}

// CanTransitionTo allows a single step forward or any step back
func (s VacationStatus) CanTransitionTo(next VacationStatus) bool {
	if !s.IsValid() || !next.IsValid() {
		return false
	}
	return next.rank() == s.rank()+1 || next.rank() < s.rank()
}

// OneThird returns a third of value rounded half-up to the cent
func OneThird(value int64) int64 {
	return decimal.NewFromInt(value).Div(decimal.NewFromInt(3)).Round(0).IntPart()
}

// VacationPeriod is an employee's vacation entitlement for one acquisition period.
// Paying it projects a PayrollPayment of kind VACATION.
type VacationPeriod struct {
	shared.BaseAggregateRoot
	EmployeeID       uuid.UUID      `json:"employee_id"`
	AcquisitionStart time.Time      `json:"acquisition_start"`
	AcquisitionEnd   time.Time      `json:"acquisition_end"`
	EntitledDays     int            `json:"entitled_days"`
	DaysTaken        int            `json:"days_taken"`
	LeaveStart       *time.Time     `json:"leave_start,omitempty"`
	LeaveEnd         *time.Time     `json:"leave_end,omitempty"`
	GrossValue       *int64         `json:"gross_value,omitempty"`
	OneThirdBonus    *int64         `json:"one_third_bonus,omitempty"`
	Status           VacationStatus `json:"status"`
	PaidAt           *time.Time     `json:"paid_at,omitempty"`
	Notes            string         `json:"notes"`
}

// NewVacationPeriod creates a SCHEDULED vacation period
func NewVacationPeriod(employeeID uuid.UUID, acquisitionStart, acquisitionEnd time.Time, entitledDays int) (*VacationPeriod, error) {
	if employeeID == uuid.Nil {
		return nil, shared.NewValidationError("employee id is required")
	}
	if entitledDays == 0 {
		entitledDays = DefaultEntitledDays
	}
	v := &VacationPeriod{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		EmployeeID:        employeeID,
		AcquisitionStart:  acquisitionStart,
		AcquisitionEnd:    acquisitionEnd,
		EntitledDays:      entitledDays,
		Status:            VacationStatusScheduled,
	}
	if err := v.Validate(); err != nil {
		return nil, err
	}
	return v, nil
}

// Validate checks the cross-field invariants
func (v *VacationPeriod) Validate() error {
	if v.AcquisitionEnd.Before(v.AcquisitionStart) {
		return shared.NewValidationError("acquisition end precedes acquisition start")
	}
	if v.EntitledDays < 0 || v.DaysTaken < 0 {
		return shared.NewValidationError("vacation days cannot be negative")
	}
	if v.DaysTaken > v.EntitledDays {
		return shared.NewValidationError("days taken (%d) exceed entitled days (%d)", v.DaysTaken, v.EntitledDays)
	}
	if v.LeaveStart != nil && v.LeaveEnd != nil && v.LeaveEnd.Before(*v.LeaveStart) {
		return shared.NewValidationError("leave end precedes leave start")
	}
	if v.GrossValue != nil && *v.GrossValue < 0 {
		return shared.NewValidationError("gross value cannot be negative")
	}
	return nil
}

// SetLeave records the leave window and the days consumed
func (v *VacationPeriod) SetLeave(start, end *time.Time, daysTaken int) error {
	prevStart, prevEnd, prevDays := v.LeaveStart, v.LeaveEnd, v.DaysTaken
	v.LeaveStart, v.LeaveEnd, v.DaysTaken = start, end, daysTaken
	if err := v.Validate(); err != nil {
		v.LeaveStart, v.LeaveEnd, v.DaysTaken = prevStart, prevEnd, prevDays
		return err
	}
	return nil
}

// SetGrossValue sets the vacation pay and derives the one-third bonus.
// A nil value clears both; it is rejected while the period is PAID.
func (v *VacationPeriod) SetGrossValue(value *int64) error {
	if value == nil {
		if v.Status == VacationStatusPaid {
			return shared.NewValidationError("cannot clear the gross value of a paid vacation")
		}
		v.GrossValue, v.OneThirdBonus = nil, nil
		return nil
	}
	if *value < 0 {
		return shared.NewValidationError("gross value cannot be negative")
	}
	if v.Status == VacationStatusPaid && *value == 0 {
		return shared.NewValidationError("a paid vacation must have a positive gross value")
	}
	gross := *value
	bonus := OneThird(gross)
	v.GrossValue, v.OneThirdBonus = &gross, &bonus
	return nil
}

// TransitionTo moves the period to next. It reports false without error
// when the period is already in that status.
func (v *VacationPeriod) TransitionTo(next VacationStatus, at time.Time) (bool, error) {
	if !next.IsValid() {
		return false, shared.NewValidationError("invalid vacation status %q", next)
	}
	if next == v.Status {
		return false, nil
	}
	if !v.Status.CanTransitionTo(next) {
		return false, shared.NewInvalidTransitionError("vacation period", string(v.Status), string(next))
	}
	if v.Status == VacationStatusPaid && v.GrossValue == nil {
		return false, shared.NewInvalidTransitionError("vacation period without amount", string(v.Status), string(next))
	}
	if next == VacationStatusPaid {
		if v.GrossValue == nil || *v.GrossValue <= 0 {
			return false, shared.NewValidationError("a vacation needs a positive gross value to be paid")
		}
		paidAt := at
		v.PaidAt = &paidAt
	} else {
		v.PaidAt = nil
	}
	v.Status = next
	v.Touch(at)
	return true, nil
}

// IsSettled reports whether the period must be mirrored by a projected payment
func (v *VacationPeriod) IsSettled() bool {
	return v.Status == VacationStatusPaid
}

// SettledAmount is the gross value plus the one-third bonus
func (v *VacationPeriod) SettledAmount() int64 {
	var total int64
	if v.GrossValue != nil {
		total += *v.GrossValue
	}
	if v.OneThirdBonus != nil {
		total += *v.OneThirdBonus
	}
	return total
}

// PaymentDate is the date used for the projected payment
func (v *VacationPeriod) PaymentDate() time.Time {
	if v.PaidAt != nil {
		return *v.PaidAt
	}
	return v.UpdatedAt
}
