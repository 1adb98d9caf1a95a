package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/opsledger/backend/internal/domain/identity"
	"github.com/opsledger/backend/internal/domain/shared"
	"github.com/opsledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormOperatorRepository implements OperatorRepository using GORM
type GormOperatorRepository struct {
	db *gorm.DB
}

// NewGormOperatorRepository creates a new GormOperatorRepository
func NewGormOperatorRepository(db *gorm.DB) *GormOperatorRepository {
	return &GormOperatorRepository{db: db}
}

// FindByID finds an operator by ID
func (r *GormOperatorRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Operator, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

// FindByUsername finds an operator by username, case-insensitively
func (r *GormOperatorRepository) FindByUsername(ctx context.Context, username string) (*identity.Operator, error) {
	return r.first(r.db.WithContext(ctx).Where("username = ?", strings.ToLower(strings.TrimSpace(username))))
}

func (r *GormOperatorRepository) first(query *gorm.DB) (*identity.Operator, error) {
	var model models.OperatorModel
	if err := query.First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save inserts or updates an operator
func (r *GormOperatorRepository) Save(ctx context.Context, operator *identity.Operator) error {
	model := models.OperatorModelFromDomain(operator)
	if err := saveVersioned(r.db.WithContext(ctx), model, "operator"); err != nil {
		return err
	}
	operator.Version = model.Version
	return nil
}

// Ensure GormOperatorRepository implements OperatorRepository
var _ identity.OperatorRepository = (*GormOperatorRepository)(nil)
