package persistence

import (
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/opsledger/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// PostgreSQL error codes that mean "retry the whole request"
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// translateError maps storage errors to domain errors. Unique violations and
// serialization failures both mean a concurrent writer got there first.
func translateError(err error, kind string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return shared.NewConflictError("%s conflicts with a concurrent change", kind)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected:
			return shared.NewConflictError("%s was modified by another transaction", kind)
		}
	}
	return err
}

// versionedModel is implemented by models that embed AggregateModel
type versionedModel interface {
	GetID() uuid.UUID
	GetVersion() int
	SetVersion(v int)
}

// saveVersioned inserts model when its row does not exist yet. Otherwise
// it updates the row only if the stored version still equals the model's
// version, and bumps it. A stale version is a concurrency conflict.
func saveVersioned(db *gorm.DB, model versionedModel, kind string) error {
	current := model.GetVersion()
	model.SetVersion(current + 1)
	result := db.Model(model).
		Where("version = ?", current).
		Select("*").
		Updates(model)
	if result.Error != nil {
		model.SetVersion(current)
		return translateError(result.Error, kind)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	model.SetVersion(current)
	var count int64
	if err := db.Model(model).Where("id = ?", model.GetID()).Count(&count).Error; err != nil {
		return translateError(err, kind)
	}
	if count > 0 {
		return shared.NewConflictError("%s %s was modified by another transaction", kind, model.GetID())
	}
	return translateError(db.Create(model).Error, kind)
}
