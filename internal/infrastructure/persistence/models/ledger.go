package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/opsledger/backend/internal/domain/finance"
)

// LedgerEntryModel is the persistence model for the LedgerEntry aggregate.
// The unique back-reference indexes are the database half of the
// one-entry-per-record rule; NULLs never collide.
type LedgerEntryModel struct {
	AggregateModel
	Direction         finance.Direction `gorm:"type:varchar(10);not null"`
	Amount            int64             `gorm:"not null"`
	Category          finance.Category  `gorm:"type:varchar(30);not null;index"`
	EntryDate         time.Time         `gorm:"type:date;not null;index"`
	PaymentMethod     string            `gorm:"type:varchar(50)"`
	Description       string            `gorm:"type:text"`
	CostCenter        string            `gorm:"type:varchar(100)"`
	PayrollPaymentID  *uuid.UUID        `gorm:"type:uuid;uniqueIndex"`
	MaintenanceTaskID *uuid.UUID        `gorm:"type:uuid;uniqueIndex"`
}

// TableName returns the table name for GORM
func (LedgerEntryModel) TableName() string {
	return "ledger_entries"
}

// ToDomain converts the persistence model to a domain LedgerEntry
func (m *LedgerEntryModel) ToDomain() *finance.LedgerEntry {
	return &finance.LedgerEntry{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Direction:         m.Direction,
		Amount:            m.Amount,
		Category:          m.Category,
		EntryDate:         finance.DateOf(m.EntryDate),
		PaymentMethod:     m.PaymentMethod,
		Description:       m.Description,
		CostCenter:        m.CostCenter,
		PayrollPaymentID:  m.PayrollPaymentID,
		MaintenanceTaskID: m.MaintenanceTaskID,
	}
}

// FromDomain populates the persistence model from a domain LedgerEntry
func (m *LedgerEntryModel) FromDomain(e *finance.LedgerEntry) {
	m.FromDomainAggregateRoot(e.BaseAggregateRoot)
	m.Direction = e.Direction
	m.Amount = e.Amount
	m.Category = e.Category
	m.EntryDate = finance.DateOf(e.EntryDate)
	m.PaymentMethod = e.PaymentMethod
	m.Description = e.Description
	m.CostCenter = e.CostCenter
	m.PayrollPaymentID = e.PayrollPaymentID
	m.MaintenanceTaskID = e.MaintenanceTaskID
}

// LedgerEntryModelFromDomain creates a new persistence model from a domain LedgerEntry
func LedgerEntryModelFromDomain(e *finance.LedgerEntry) *LedgerEntryModel {
	m := &LedgerEntryModel{}
	m.FromDomain(e)
	return m
}

// CashFlowRow is the scan target of the cash flow aggregation query
type CashFlowRow struct {
	Category  finance.Category
	Direction finance.Direction
	Total     int64
	Count     int64
}
