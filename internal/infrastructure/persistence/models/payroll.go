package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/opsledger/backend/internal/domain/payroll"
	"github.com/opsledger/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// PayrollPaymentModel is the persistence model for the PayrollPayment aggregate
type PayrollPaymentModel struct {
	AggregateModel
	EmployeeID        uuid.UUID             `gorm:"type:uuid;not null;index"`
	Competency        string                `gorm:"type:varchar(7);not null;index"`
	Kind              payroll.PaymentKind   `gorm:"type:varchar(20);not null"`
	BaseAmount        int64                 `gorm:"not null;default:0"`
	Additions         int64                 `gorm:"not null;default:0"`
	OvertimeHours     decimal.Decimal       `gorm:"type:decimal(10,2);not null;default:0"`
	OvertimeValue     int64                 `gorm:"not null;default:0"`
	Deductions        int64                 `gorm:"not null;default:0"`
	AdvanceDeductions int64                 `gorm:"not null;default:0"`
	GrossTotal        int64                 `gorm:"not null;default:0"`
	NetTotal          int64                 `gorm:"not null;default:0"`
	Status            payroll.PaymentStatus `gorm:"type:varchar(20);not null;index"`
	PaymentDate       *time.Time
	PaymentMethod     string             `gorm:"type:varchar(50)"`
	CostCenter        string             `gorm:"type:varchar(100)"`
	Description       string             `gorm:"type:text"`
	SourceKind        payroll.SourceKind `gorm:"type:varchar(20);uniqueIndex:idx_payroll_payments_source,priority:1"`
	SourceID          *uuid.UUID         `gorm:"type:uuid;uniqueIndex:idx_payroll_payments_source,priority:2"`
	Installment       int                `gorm:"not null;default:0;uniqueIndex:idx_payroll_payments_source,priority:3"`
}

// TableName returns the table name for GORM
func (PayrollPaymentModel) TableName() string {
	return "payroll_payments"
}

// ToDomain converts the persistence model to a domain PayrollPayment
func (m *PayrollPaymentModel) ToDomain() *payroll.PayrollPayment {
	competency, _ := valueobject.ParseYearMonth(m.Competency)
	return &payroll.PayrollPayment{
		BaseAggregateRoot: m.ToAggregateRoot(),
		EmployeeID:        m.EmployeeID,
		Competency:        competency,
		Kind:              m.Kind,
		BaseAmount:        m.BaseAmount,
		Additions:         m.Additions,
		OvertimeHours:     m.OvertimeHours,
		OvertimeValue:     m.OvertimeValue,
		Deductions:        m.Deductions,
		AdvanceDeductions: m.AdvanceDeductions,
		GrossTotal:        m.GrossTotal,
		NetTotal:          m.NetTotal,
		Status:            m.Status,
		PaymentDate:       utcPtr(m.PaymentDate),
		PaymentMethod:     m.PaymentMethod,
		CostCenter:        m.CostCenter,
		Description:       m.Description,
		SourceKind:        m.SourceKind,
		SourceID:          m.SourceID,
		Installment:       m.Installment,
	}
}

// FromDomain populates the persistence model from a domain PayrollPayment
func (m *PayrollPaymentModel) FromDomain(p *payroll.PayrollPayment) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.EmployeeID = p.EmployeeID
	m.Competency = p.Competency.String()
	m.Kind = p.Kind
	m.BaseAmount = p.BaseAmount
	m.Additions = p.Additions
	m.OvertimeHours = p.OvertimeHours
	m.OvertimeValue = p.OvertimeValue
	m.Deductions = p.Deductions
	m.AdvanceDeductions = p.AdvanceDeductions
	m.GrossTotal = p.GrossTotal
	m.NetTotal = p.NetTotal
	m.Status = p.Status
	m.PaymentDate = p.PaymentDate
	m.PaymentMethod = p.PaymentMethod
	m.CostCenter = p.CostCenter
	m.Description = p.Description
	m.SourceKind = p.SourceKind
	m.SourceID = p.SourceID
	m.Installment = p.Installment
}

// PayrollPaymentModelFromDomain creates a new persistence model from a domain PayrollPayment
func PayrollPaymentModelFromDomain(p *payroll.PayrollPayment) *PayrollPaymentModel {
	m := &PayrollPaymentModel{}
	m.FromDomain(p)
	return m
}

// VacationPeriodModel is the persistence model for the VacationPeriod aggregate
type VacationPeriodModel struct {
	AggregateModel
	EmployeeID       uuid.UUID `gorm:"type:uuid;not null;index"`
	AcquisitionStart time.Time `gorm:"type:date;not null"`
	AcquisitionEnd   time.Time `gorm:"type:date;not null"`
	EntitledDays     int       `gorm:"not null;default:30"`
	DaysTaken        int       `gorm:"not null;default:0"`
	LeaveStart       *time.Time
	LeaveEnd         *time.Time
	GrossValue       *int64
	OneThirdBonus    *int64
	Status           payroll.VacationStatus `gorm:"type:varchar(20);not null;index"`
	PaidAt           *time.Time
	Notes            string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (VacationPeriodModel) TableName() string {
	return "vacation_periods"
}

// ToDomain converts the persistence model to a domain VacationPeriod
func (m *VacationPeriodModel) ToDomain() *payroll.VacationPeriod {
	return &payroll.VacationPeriod{
		BaseAggregateRoot: m.ToAggregateRoot(),
		EmployeeID:        m.EmployeeID,
		AcquisitionStart:  m.AcquisitionStart.UTC(),
		AcquisitionEnd:    m.AcquisitionEnd.UTC(),
		EntitledDays:      m.EntitledDays,
		DaysTaken:         m.DaysTaken,
		LeaveStart:        utcPtr(m.LeaveStart),
		LeaveEnd:          utcPtr(m.LeaveEnd),
		GrossValue:        m.GrossValue,
		OneThirdBonus:     m.OneThirdBonus,
		Status:            m.Status,
		PaidAt:            utcPtr(m.PaidAt),
		Notes:             m.Notes,
	}
}

// FromDomain populates the persistence model from a domain VacationPeriod
func (m *VacationPeriodModel) FromDomain(v *payroll.VacationPeriod) {
	m.FromDomainAggregateRoot(v.BaseAggregateRoot)
	m.EmployeeID = v.EmployeeID
	m.AcquisitionStart = v.AcquisitionStart
	m.AcquisitionEnd = v.AcquisitionEnd
	m.EntitledDays = v.EntitledDays
	m.DaysTaken = v.DaysTaken
	m.LeaveStart = v.LeaveStart
	m.LeaveEnd = v.LeaveEnd
	m.GrossValue = v.GrossValue
	m.OneThirdBonus = v.OneThirdBonus
	m.Status = v.Status
	m.PaidAt = v.PaidAt
	m.Notes = v.Notes
}

// VacationPeriodModelFromDomain creates a new persistence model from a domain VacationPeriod
func VacationPeriodModelFromDomain(v *payroll.VacationPeriod) *VacationPeriodModel {
	m := &VacationPeriodModel{}
	m.FromDomain(v)
	return m
}

// BonusInstallmentModel is the persistence model for the BonusInstallmentRecord aggregate
type BonusInstallmentModel struct {
	AggregateModel
	EmployeeID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_bonus_employee_year,priority:1"`
	ReferenceYear     int       `gorm:"not null;uniqueIndex:idx_bonus_employee_year,priority:2"`
	MonthsWorked      int       `gorm:"not null"`
	MonthlySalary     int64     `gorm:"not null"`
	TotalEntitlement  int64     `gorm:"not null"`
	FirstInstallment  int64     `gorm:"not null"`
	SecondInstallment int64     `gorm:"not null"`
	FirstPaid         bool      `gorm:"not null;default:false"`
	SecondPaid        bool      `gorm:"not null;default:false"`
	FirstPaidAt       *time.Time
	SecondPaidAt      *time.Time
	// Status is written from the installment flags on every save; it is only read by queries
	Status payroll.BonusStatus `gorm:"type:varchar(20);not null;index"`
}

// TableName returns the table name for GORM
func (BonusInstallmentModel) TableName() string {
	return "bonus_installments"
}

// ToDomain converts the persistence model to a domain BonusInstallmentRecord
func (m *BonusInstallmentModel) ToDomain() *payroll.BonusInstallmentRecord {
	return &payroll.BonusInstallmentRecord{
		BaseAggregateRoot: m.ToAggregateRoot(),
		EmployeeID:        m.EmployeeID,
		ReferenceYear:     m.ReferenceYear,
		MonthsWorked:      m.MonthsWorked,
		MonthlySalary:     m.MonthlySalary,
		TotalEntitlement:  m.TotalEntitlement,
		FirstInstallment:  m.FirstInstallment,
		SecondInstallment: m.SecondInstallment,
		FirstPaid:         m.FirstPaid,
		SecondPaid:        m.SecondPaid,
		FirstPaidAt:       utcPtr(m.FirstPaidAt),
		SecondPaidAt:      utcPtr(m.SecondPaidAt),
	}
}

// FromDomain populates the persistence model from a domain BonusInstallmentRecord
func (m *BonusInstallmentModel) FromDomain(b *payroll.BonusInstallmentRecord) {
	m.FromDomainAggregateRoot(b.BaseAggregateRoot)
	m.EmployeeID = b.EmployeeID
	m.ReferenceYear = b.ReferenceYear
	m.MonthsWorked = b.MonthsWorked
	m.MonthlySalary = b.MonthlySalary
	m.TotalEntitlement = b.TotalEntitlement
	m.FirstInstallment = b.FirstInstallment
	m.SecondInstallment = b.SecondInstallment
	m.FirstPaid = b.FirstPaid
	m.SecondPaid = b.SecondPaid
	m.FirstPaidAt = b.FirstPaidAt
	m.SecondPaidAt = b.SecondPaidAt
	m.Status = b.Status()
}

// BonusInstallmentModelFromDomain creates a new persistence model from a domain BonusInstallmentRecord
func BonusInstallmentModelFromDomain(b *payroll.BonusInstallmentRecord) *BonusInstallmentModel {
	m := &BonusInstallmentModel{}
	m.FromDomain(b)
	return m
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
