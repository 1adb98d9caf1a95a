package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/opsledger/backend/internal/domain/fleet"
)

// MaintenanceTaskModel is the persistence model for the MaintenanceTask aggregate
type MaintenanceTaskModel struct {
	AggregateModel
	VehicleID      uuid.UUID             `gorm:"type:uuid;not null;index"`
	Type           fleet.MaintenanceType `gorm:"type:varchar(20);not null"`
	Category       string                `gorm:"type:varchar(100)"`
	Description    string                `gorm:"type:text;not null"`
	Priority       fleet.Priority        `gorm:"type:varchar(20);not null"`
	ScheduledDate  time.Time             `gorm:"not null"`
	CompletedDate  *time.Time
	Recurring      bool `gorm:"not null;default:false"`
	IntervalDays   *int
	IntervalKm     *int
	OdometerKm     *int
	EstimatedCost  int64 `gorm:"not null;default:0"`
	FinalCost      *int64
	IsPaid         bool                    `gorm:"not null;default:false"`
	PaymentMethod  string                  `gorm:"type:varchar(50)"`
	Status         fleet.MaintenanceStatus `gorm:"type:varchar(20);not null;index"`
	SupplierID     *uuid.UUID              `gorm:"type:uuid"`
	CostCenter     string                  `gorm:"type:varchar(100)"`
	Active         bool                    `gorm:"not null;default:true;index"`
	RecurredFromID *uuid.UUID              `gorm:"type:uuid;uniqueIndex"`
}

// TableName returns the table name for GORM
func (MaintenanceTaskModel) TableName() string {
	return "maintenance_tasks"
}

// ToDomain converts the persistence model to a domain MaintenanceTask
func (m *MaintenanceTaskModel) ToDomain() *fleet.MaintenanceTask {
	return &fleet.MaintenanceTask{
		BaseAggregateRoot: m.ToAggregateRoot(),
		VehicleID:         m.VehicleID,
		Type:              m.Type,
		Category:          m.Category,
		Description:       m.Description,
		Priority:          m.Priority,
		ScheduledDate:     m.ScheduledDate.UTC(),
		CompletedDate:     utcPtr(m.CompletedDate),
		Recurring:         m.Recurring,
		IntervalDays:      m.IntervalDays,
		IntervalKm:        m.IntervalKm,
		OdometerKm:        m.OdometerKm,
		EstimatedCost:     m.EstimatedCost,
		FinalCost:         m.FinalCost,
		IsPaid:            m.IsPaid,
		PaymentMethod:     m.PaymentMethod,
		Status:            m.Status,
		SupplierID:        m.SupplierID,
		CostCenter:        m.CostCenter,
		Active:            m.Active,
		RecurredFromID:    m.RecurredFromID,
	}
}

// FromDomain populates the persistence model from a domain MaintenanceTask
func (m *MaintenanceTaskModel) FromDomain(t *fleet.MaintenanceTask) {
	m.FromDomainAggregateRoot(t.BaseAggregateRoot)
	m.VehicleID = t.VehicleID
	m.Type = t.Type
	m.Category = t.Category
	m.Description = t.Description
	m.Priority = t.Priority
	m.ScheduledDate = t.ScheduledDate
	m.CompletedDate = t.CompletedDate
	m.Recurring = t.Recurring
	m.IntervalDays = t.IntervalDays
	m.IntervalKm = t.IntervalKm
	m.OdometerKm = t.OdometerKm
	m.EstimatedCost = t.EstimatedCost
	m.FinalCost = t.FinalCost
	m.IsPaid = t.IsPaid
	m.PaymentMethod = t.PaymentMethod
	m.Status = t.Status
	m.SupplierID = t.SupplierID
	m.CostCenter = t.CostCenter
	m.Active = t.Active
	m.RecurredFromID = t.RecurredFromID
}

// MaintenanceTaskModelFromDomain creates a new persistence model from a domain MaintenanceTask
func MaintenanceTaskModelFromDomain(t *fleet.MaintenanceTask) *MaintenanceTaskModel {
	m := &MaintenanceTaskModel{}
	m.FromDomain(t)
	return m
}
