package models

import (
	"time"

	"github.com/opsledger/backend/internal/domain/identity"
)

// OperatorModel is the persistence model for back-office operators
type OperatorModel struct {
	AggregateModel
	Username          string `gorm:"type:varchar(100);not null;uniqueIndex"`
	DisplayName       string `gorm:"type:varchar(200)"`
	PasswordHash      string `gorm:"type:varchar(255);not null"`
	Active            bool   `gorm:"not null;default:true"`
	LastLoginAt       *time.Time
	PasswordChangedAt *time.Time
}

// TableName returns the table name for GORM
func (OperatorModel) TableName() string {
	return "operators"
}

// ToDomain converts the persistence model to a domain Operator
func (m *OperatorModel) ToDomain() *identity.Operator {
	return &identity.Operator{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Username:          m.Username,
		DisplayName:       m.DisplayName,
		PasswordHash:      m.PasswordHash,
		Active:            m.Active,
		LastLoginAt:       utcPtr(m.LastLoginAt),
		PasswordChangedAt: utcPtr(m.PasswordChangedAt),
	}
}

// OperatorModelFromDomain creates a new persistence model from a domain Operator
func OperatorModelFromDomain(o *identity.Operator) *OperatorModel {
	m := &OperatorModel{
		Username:          o.Username,
		DisplayName:       o.DisplayName,
		PasswordHash:      o.PasswordHash,
		Active:            o.Active,
		LastLoginAt:       o.LastLoginAt,
		PasswordChangedAt: o.PasswordChangedAt,
	}
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	return m
}
