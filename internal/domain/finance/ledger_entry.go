package finance

import (
	"time"

	"github.com/google/uuid"
	"github.com/opsledger/backend/internal/domain/shared"
)

// AggregateTypeLedgerEntry is the aggregate type name used in events and audit logs
const AggregateTypeLedgerEntry = "LedgerEntry"

// Direction tells whether cash enters or leaves the company
type Direction string

const (
	DirectionInflow  Direction = "INFLOW"
	DirectionOutflow Direction = "OUTFLOW"
)

// IsValid checks if the direction is a valid Direction
func (d Direction) IsValid() bool {
	return d == DirectionInflow || d == DirectionOutflow
}

// Category groups ledger entries for cash-flow reporting
type Category string

const (
	CategoryPayroll      Category = "PAYROLL"
	CategoryVacation     Category = "VACATION"
	CategoryYearEndBonus Category = "YEAR_END_BONUS"
	CategoryMaintenance  Category = "MAINTENANCE"
	CategoryOther        Category = "OTHER"
)

// IsValid checks if the category is a valid Category
func (c Category) IsValid() bool {
	switch c {
	case CategoryPayroll, CategoryVacation, CategoryYearEndBonus, CategoryMaintenance, CategoryOther:
		return true
	}
	return false
}

// DateOf truncates t to its calendar date, expressed at UTC midnight
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// EntryDraft carries the computed fields of a ledger entry before it is written
type EntryDraft struct {
	Direction         Direction
	Amount            int64
	Category          Category
	EntryDate         time.Time
	PaymentMethod     string
	Description       string
	CostCenter        string
	PayrollPaymentID  *uuid.UUID
	MaintenanceTaskID *uuid.UUID
}

// Validate checks amount, enums and the single back-reference rule
func (d EntryDraft) Validate() error {
	if !d.Direction.IsValid() {
		return shared.NewValidationError("invalid ledger direction %q", d.Direction)
	}
	if !d.Category.IsValid() {
		return shared.NewValidationError("invalid ledger category %q", d.Category)
	}
	if d.Amount <= 0 {
		return shared.NewValidationError("ledger amount must be positive, got %d", d.Amount)
	}
	if d.EntryDate.IsZero() {
		return shared.NewValidationError("ledger entry date is required")
	}
	if d.PayrollPaymentID != nil && d.MaintenanceTaskID != nil {
		return shared.NewDomainError(shared.CodeLedgerInvariant, "a ledger entry references at most one record")
	}
	return nil
}

// LedgerEntry is one cash movement. Entries created by settlement point back
// to exactly one payable record; manual entries point to none.
type LedgerEntry struct {
	shared.BaseAggregateRoot
	Direction         Direction  `json:"direction"`
	Amount            int64      `json:"amount"`
	Category          Category   `json:"category"`
	EntryDate         time.Time  `json:"entry_date"`
	PaymentMethod     string     `json:"payment_method"`
	Description       string     `json:"description"`
	CostCenter        string     `json:"cost_center"`
	PayrollPaymentID  *uuid.UUID `json:"payroll_payment_id,omitempty"`
	MaintenanceTaskID *uuid.UUID `json:"maintenance_task_id,omitempty"`
}

// NewLedgerEntry creates an entry from a validated draft
func NewLedgerEntry(d EntryDraft) (*LedgerEntry, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	e := &LedgerEntry{BaseAggregateRoot: shared.NewBaseAggregateRoot()}
	e.assign(d)
	return e, nil
}

// Draft returns the entry's current fields as a draft
func (e *LedgerEntry) Draft() EntryDraft {
	return EntryDraft{
		Direction:         e.Direction,
		Amount:            e.Amount,
		Category:          e.Category,
		EntryDate:         e.EntryDate,
		PaymentMethod:     e.PaymentMethod,
		Description:       e.Description,
		CostCenter:        e.CostCenter,
		PayrollPaymentID:  e.PayrollPaymentID,
		MaintenanceTaskID: e.MaintenanceTaskID,
	}
}

// Matches reports whether writing d would leave the entry unchanged
func (e *LedgerEntry) Matches(d EntryDraft) bool {
	return e.Direction == d.Direction &&
		e.Amount == d.Amount &&
		e.Category == d.Category &&
		DateOf(e.EntryDate).Equal(DateOf(d.EntryDate)) &&
		e.PaymentMethod == d.PaymentMethod &&
		e.Description == d.Description &&
		e.CostCenter == d.CostCenter &&
		sameRef(e.PayrollPaymentID, d.PayrollPaymentID) &&
		sameRef(e.MaintenanceTaskID, d.MaintenanceTaskID)
}

// Apply overwrites the entry with d. The back-reference cannot be moved to
// another record.
func (e *LedgerEntry) Apply(d EntryDraft, at time.Time) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if !sameRef(e.PayrollPaymentID, d.PayrollPaymentID) || !sameRef(e.MaintenanceTaskID, d.MaintenanceTaskID) {
		return shared.NewDomainError(shared.CodeLedgerInvariant, "a ledger entry cannot be moved to another record")
	}
	e.assign(d)
	e.Touch(at)
	return nil
}

// SignedAmount is positive for inflows and negative for outflows
func (e *LedgerEntry) SignedAmount() int64 {
	if e.Direction == DirectionOutflow {
		return -e.Amount
	}
	return e.Amount
}

func (e *LedgerEntry) assign(d EntryDraft) {
	e.Direction = d.Direction
	e.Amount = d.Amount
	e.Category = d.Category
	e.EntryDate = DateOf(d.EntryDate)
	e.PaymentMethod = d.PaymentMethod
	e.Description = d.Description
	e.CostCenter = d.CostCenter
	e.PayrollPaymentID = d.PayrollPaymentID
	e.MaintenanceTaskID = d.MaintenanceTaskID
}

func sameRef(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
