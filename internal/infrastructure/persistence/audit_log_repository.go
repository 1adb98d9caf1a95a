package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/opsledger/backend/internal/domain/audit"
	"github.com/opsledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormAuditLogRepository implements AuditLogRepository using GORM
type GormAuditLogRepository struct {
	db *gorm.DB
}

// NewGormAuditLogRepository creates a new GormAuditLogRepository
func NewGormAuditLogRepository(db *gorm.DB) *GormAuditLogRepository {
	return &GormAuditLogRepository{db: db}
}

// Save stores a log row. Redelivered events are ignored through the unique
// event_id; an actor that is not a known operator yields ErrActorNotFound.
func (r *GormAuditLogRepository) Save(ctx context.Context, log *audit.AuditLog) error {
	model := models.AuditLogModelFromDomain(log)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "event_id"}}, DoNothing: true}).
		Create(model).Error
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return audit.ErrActorNotFound
	}
	return err
}

// FindByEntity lists the history of one record, oldest first
func (r *GormAuditLogRepository) FindByEntity(ctx context.Context, entityKind string, entityID uuid.UUID) ([]audit.AuditLog, error) {
	var logModels []models.AuditLogModel
	if err := r.db.WithContext(ctx).
		Where("entity_kind = ? AND entity_id = ?", entityKind, entityID).
		Order("occurred_at ASC").
		Find(&logModels).Error; err != nil {
		return nil, err
	}

	logs := make([]audit.AuditLog, len(logModels))
	for i := range logModels {
		logs[i] = *logModels[i].ToDomain()
	}
	return logs, nil
}

// Ensure GormAuditLogRepository implements AuditLogRepository
var _ audit.AuditLogRepository = (*GormAuditLogRepository)(nil)
