package reconciliation

import (
	"time"

	"github.com/google/uuid"
	"github.com/opsledger/backend/internal/domain/fleet"
	"github.com/opsledger/backend/internal/domain/payroll"
	"github.com/opsledger/backend/internal/domain/settlement"
	"github.com/opsledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// RecordKind names the payable record types the engine reconciles
type RecordKind string

const (
	RecordKindPayrollPayment   RecordKind = "PAYROLL_PAYMENT"
	RecordKindVacationPeriod   RecordKind = "VACATION_PERIOD"
	RecordKindBonusInstallment RecordKind = "BONUS_INSTALLMENT"
	RecordKindMaintenanceTask  RecordKind = "MAINTENANCE_TASK"
)

// IsValid checks if the kind is a valid RecordKind
func (k RecordKind) IsValid() bool {
	switch k {
	case RecordKindPayrollPayment, RecordKindVacationPeriod, RecordKindBonusInstallment, RecordKindMaintenanceTask:
		return true
	}
	return false
}

// AggregateType maps the kind to the aggregate name used in audit logs
func (k RecordKind) AggregateType() string {
	switch k {
	case RecordKindPayrollPayment:
		return payroll.AggregateTypePayrollPayment
	case RecordKindVacationPeriod:
		return payroll.AggregateTypeVacationPeriod
	case RecordKindBonusInstallment:
		return payroll.AggregateTypeBonusInstallment
	case RecordKindMaintenanceTask:
		return fleet.AggregateTypeMaintenanceTask
	}
	return string(k)
}

// Outcome tells a caller whether anything was written
type Outcome string

const (
	OutcomeApplied Outcome = "APPLIED"
	OutcomeNoop    Outcome = "NOOP"
)

// LedgerChange is one ledger mutation performed by the engine
type LedgerChange struct {
	Action    settlement.Action `json:"action"`
	EntryID   uuid.UUID         `json:"entry_id"`
	Amount    int64             `json:"amount"`
	PaymentID *uuid.UUID        `json:"payment_id,omitempty"`
}

// Result is returned by every engine operation
type Result struct {
	Kind             RecordKind     `json:"kind"`
	RecordID         uuid.UUID      `json:"record_id"`
	Outcome          Outcome        `json:"outcome"`
	Record           any            `json:"record,omitempty"`
	LedgerChanges    []LedgerChange `json:"ledger_changes"`
	NextOccurrenceID *uuid.UUID     `json:"next_occurrence_id,omitempty"`
}

// StatusChange is the generic form of a change request. Exactly the payload
// matching Kind must be set.
type StatusChange struct {
	Kind        RecordKind
	RecordID    uuid.UUID
	ActorID     *uuid.UUID
	Payroll     *PayrollPaymentChange
	Vacation    *VacationChange
	Bonus       *BonusInstallmentChange
	Maintenance *MaintenanceChange
}

// PayrollPaymentChange carries the fields of a payroll payment update.
// Nil fields are left untouched.
type PayrollPaymentChange struct {
	Status            *payroll.PaymentStatus
	BaseAmount        *int64
	Additions         *int64
	OvertimeHours     *decimal.Decimal
	OvertimeValue     *int64
	Deductions        *int64
	AdvanceDeductions *int64
	PaymentDate       *time.Time
	PaymentMethod     *string
	CostCenter        *string
	Description       *string
}

func (c PayrollPaymentChange) apply(p *payroll.PayrollPayment, at time.Time) (bool, error) {
	changed := false

	amounts := p.Amounts()
	next := amounts
	setInt64(&next.BaseAmount, c.BaseAmount)
	setInt64(&next.Additions, c.Additions)
	setInt64(&next.OvertimeValue, c.OvertimeValue)
	setInt64(&next.Deductions, c.Deductions)
	setInt64(&next.AdvanceDeductions, c.AdvanceDeductions)
	if c.OvertimeHours != nil {
		next.OvertimeHours = *c.OvertimeHours
	}
	if !sameAmounts(amounts, next) {
		if err := p.SetAmounts(next); err != nil {
			return false, err
		}
		changed = true
	}

	if c.PaymentDate != nil && (p.PaymentDate == nil || !p.PaymentDate.Equal(*c.PaymentDate)) {
		d := *c.PaymentDate
		p.PaymentDate = &d
		changed = true
	}
	changed = setString(&p.PaymentMethod, c.PaymentMethod) || changed
	changed = setString(&p.CostCenter, c.CostCenter) || changed
	changed = setString(&p.Description, c.Description) || changed

	if c.Status != nil {
		moved, err := p.TransitionTo(*c.Status, at)
		if err != nil {
			return false, err
		}
		changed = moved || changed
	}
	return changed, nil
}

// VacationChange carries the fields of a vacation period update
type VacationChange struct {
	Status     *payroll.VacationStatus
	GrossValue *int64
	ClearGross bool
	LeaveStart *time.Time
	LeaveEnd   *time.Time
	DaysTaken  *int
	Notes      *string
}

func (c VacationChange) apply(v *payroll.VacationPeriod, at time.Time) (bool, error) {
	changed := false

	// Leaving PAID and clearing the amount in one request: move first.
	leavingPaid := c.Status != nil && *c.Status != payroll.VacationStatusPaid && v.Status == payroll.VacationStatusPaid
	if leavingPaid {
		moved, err := v.TransitionTo(*c.Status, at)
		if err != nil {
			return false, err
		}
		changed = moved
	}

	switch {
	case c.ClearGross && v.GrossValue != nil:
		if err := v.SetGrossValue(nil); err != nil {
			return false, err
		}
		changed = true
	case c.GrossValue != nil && (v.GrossValue == nil || *v.GrossValue != *c.GrossValue):
		if err := v.SetGrossValue(c.GrossValue); err != nil {
			return false, err
		}
		changed = true
	}

	if c.LeaveStart != nil || c.LeaveEnd != nil || c.DaysTaken != nil {
		start, end, days := v.LeaveStart, v.LeaveEnd, v.DaysTaken
		if c.LeaveStart != nil {
			s := *c.LeaveStart
			start = &s
		}
		if c.LeaveEnd != nil {
			e := *c.LeaveEnd
			end = &e
		}
		if c.DaysTaken != nil {
			days = *c.DaysTaken
		}
		if !sameTime(start, v.LeaveStart) || !sameTime(end, v.LeaveEnd) || days != v.DaysTaken {
			if err := v.SetLeave(start, end, days); err != nil {
				return false, err
			}
			changed = true
		}
	}
	changed = setString(&v.Notes, c.Notes) || changed

	if c.Status != nil && !leavingPaid {
		moved, err := v.TransitionTo(*c.Status, at)
		if err != nil {
			return false, err
		}
		changed = moved || changed
	}
	return changed, nil
}

// BonusInstallmentChange toggles installment flags and amounts. Status is
// accepted only to reject it: the record status is always derived.
type BonusInstallmentChange struct {
	Status       *string
	FirstPaid    *bool
	SecondPaid   *bool
	FirstAmount  *int64
	SecondAmount *int64
}

func (c BonusInstallmentChange) apply(b *payroll.BonusInstallmentRecord, at time.Time) (bool, error) {
	if c.Status != nil {
		return false, shared.NewInvalidTransitionError("year-end bonus status", string(b.Status()), *c.Status)
	}
	changed := false

	amounts := []struct {
		n      payroll.Installment
		amount *int64
	}{{payroll.InstallmentFirst, c.FirstAmount}, {payroll.InstallmentSecond, c.SecondAmount}}
	for _, a := range amounts {
		if a.amount == nil || *a.amount == b.InstallmentAmount(a.n) {
			continue
		}
		if err := b.SetInstallmentAmount(a.n, *a.amount); err != nil {
			return false, err
		}
		changed = true
	}

	flags := []struct {
		n    payroll.Installment
		paid *bool
	}{{payroll.InstallmentFirst, c.FirstPaid}, {payroll.InstallmentSecond, c.SecondPaid}}
	for _, f := range flags {
		if f.paid == nil {
			continue
		}
		moved, err := b.SetInstallmentPaid(f.n, *f.paid, at)
		if err != nil {
			return false, err
		}
		changed = moved || changed
	}
	return changed, nil
}

// MaintenanceChange carries the fields of a maintenance task update
type MaintenanceChange struct {
	Status        *fleet.MaintenanceStatus
	IsPaid        *bool
	EstimatedCost *int64
	FinalCost     *int64
	PaymentMethod *string
	ScheduledDate *time.Time
	CompletedDate *time.Time
	Description   *string
	Category      *string
	Priority      *fleet.Priority
	Recurring     *bool
	IntervalDays  *int
	IntervalKm    *int
	OdometerKm    *int
	CostCenter    *string
	SupplierID    *uuid.UUID
}

func (c MaintenanceChange) apply(m *fleet.MaintenanceTask, at time.Time) (bool, error) {
	changed := false

	if c.IsPaid != nil && *c.IsPaid != m.IsPaid {
		m.IsPaid = *c.IsPaid
		changed = true
	}
	changed = setInt64(&m.EstimatedCost, c.EstimatedCost) || changed
	if c.FinalCost != nil && (m.FinalCost == nil || *m.FinalCost != *c.FinalCost) {
		v := *c.FinalCost
		m.FinalCost = &v
		changed = true
	}
	changed = setString(&m.PaymentMethod, c.PaymentMethod) || changed
	if c.ScheduledDate != nil && !c.ScheduledDate.IsZero() && !c.ScheduledDate.Equal(m.ScheduledDate) {
		m.ScheduledDate = c.ScheduledDate.UTC()
		changed = true
	}
	changed = setTime(&m.CompletedDate, c.CompletedDate) || changed
	changed = setString(&m.Description, c.Description) || changed
	changed = setString(&m.Category, c.Category) || changed
	changed = setString(&m.CostCenter, c.CostCenter) || changed
	if c.Priority != nil && *c.Priority != m.Priority {
		if !c.Priority.IsValid() {
			return false, shared.NewValidationError("invalid priority %q", *c.Priority)
		}
		m.Priority = *c.Priority
		changed = true
	}
	if c.Recurring != nil && *c.Recurring != m.Recurring {
		m.Recurring = *c.Recurring
		changed = true
	}
	changed = setIntPtr(&m.IntervalDays, c.IntervalDays) || changed
	changed = setIntPtr(&m.IntervalKm, c.IntervalKm) || changed
	changed = setIntPtr(&m.OdometerKm, c.OdometerKm) || changed
	if c.SupplierID != nil && (m.SupplierID == nil || *m.SupplierID != *c.SupplierID) {
		id := *c.SupplierID
		m.SupplierID = &id
		changed = true
	}

	if c.Status != nil {
		moved, err := m.TransitionTo(*c.Status, at)
		if err != nil {
			return false, err
		}
		changed = moved || changed
	}
	if err := m.Validate(); err != nil {
		return false, err
	}
	return changed, nil
}

func setInt64(dst *int64, v *int64) bool {
	if v == nil || *dst == *v {
		return false
	}
	*dst = *v
	return true
}

func setString(dst *string, v *string) bool {
	if v == nil || *dst == *v {
		return false
	}
	*dst = *v
	return true
}

func setIntPtr(dst **int, v *int) bool {
	if v == nil || (*dst != nil && **dst == *v) {
		return false
	}
	c := *v
	*dst = &c
	return true
}

func setTime(dst **time.Time, v *time.Time) bool {
	if v == nil || sameTime(*dst, v) {
		return false
	}
	c := *v
	*dst = &c
	return true
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func sameAmounts(a, b payroll.Amounts) bool {
	return a.BaseAmount == b.BaseAmount &&
		a.Additions == b.Additions &&
		a.OvertimeHours.Equal(b.OvertimeHours) &&
		a.OvertimeValue == b.OvertimeValue &&
		a.Deductions == b.Deductions &&
		a.AdvanceDeductions == b.AdvanceDeductions
}
