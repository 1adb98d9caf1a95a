package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/opsledger/backend/internal/domain/audit"
	"gorm.io/datatypes"
)

// AuditLogModel is the persistence model for audit log rows
type AuditLogModel struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey"`
	EventID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	Action     audit.Action    `gorm:"type:varchar(10);not null"`
	EntityKind string          `gorm:"type:varchar(50);not null;index:idx_audit_logs_entity,priority:1"`
	EntityID   uuid.UUID       `gorm:"type:uuid;not null;index:idx_audit_logs_entity,priority:2"`
	Before     *datatypes.JSON `gorm:"type:jsonb"`
	After      *datatypes.JSON `gorm:"type:jsonb"`
	ActorID    *uuid.UUID      `gorm:"type:uuid;index"`
	OccurredAt time.Time       `gorm:"not null"`
	CreatedAt  time.Time       `gorm:"not null;autoCreateTime:false"`
}

// TableName returns the table name for GORM
func (AuditLogModel) TableName() string {
	return "audit_logs"
}

// ToDomain converts the persistence model to a domain AuditLog
func (m *AuditLogModel) ToDomain() *audit.AuditLog {
	return &audit.AuditLog{
		ID:         m.ID,
		EventID:    m.EventID,
		Action:     m.Action,
		EntityKind: m.EntityKind,
		EntityID:   m.EntityID,
		Before:     fromJSONColumn(m.Before),
		After:      fromJSONColumn(m.After),
		ActorID:    m.ActorID,
		OccurredAt: m.OccurredAt.UTC(),
		CreatedAt:  m.CreatedAt.UTC(),
	}
}

// AuditLogModelFromDomain creates a new persistence model from a domain AuditLog
func AuditLogModelFromDomain(l *audit.AuditLog) *AuditLogModel {
	return &AuditLogModel{
		ID:         l.ID,
		EventID:    l.EventID,
		Action:     l.Action,
		EntityKind: l.EntityKind,
		EntityID:   l.EntityID,
		Before:     toJSONColumn(l.Before),
		After:      toJSONColumn(l.After),
		ActorID:    l.ActorID,
		OccurredAt: l.OccurredAt,
		CreatedAt:  l.CreatedAt,
	}
}

// Snapshots are nullable: a CREATE has no before and a DELETE no after.
func toJSONColumn(raw json.RawMessage) *datatypes.JSON {
	if len(raw) == 0 {
		return nil
	}
	j := datatypes.JSON(raw)
	return &j
}

func fromJSONColumn(j *datatypes.JSON) json.RawMessage {
	if j == nil {
		return nil
	}
	return json.RawMessage(*j)
}
