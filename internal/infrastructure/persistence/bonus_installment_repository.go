package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/opsledger/backend/internal/domain/payroll"
	"github.com/opsledger/backend/internal/domain/shared"
	"github.com/opsledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormBonusInstallmentRepository implements BonusInstallmentRepository using GORM
type GormBonusInstallmentRepository struct {
	db *gorm.DB
}

// NewGormBonusInstallmentRepository creates a new GormBonusInstallmentRepository
func NewGormBonusInstallmentRepository(db *gorm.DB) *GormBonusInstallmentRepository {
	return &GormBonusInstallmentRepository{db: db}
}

// FindByID finds a year-end bonus record by its ID
func (r *GormBonusInstallmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*payroll.BonusInstallmentRecord, error) {
	return r.first(r.db.WithContext(ctx), id)
}

// FindByIDForUpdate finds a year-end bonus record by ID with a row lock
func (r *GormBonusInstallmentRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*payroll.BonusInstallmentRecord, error) {
	return r.first(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormBonusInstallmentRepository) first(query *gorm.DB, id uuid.UUID) (*payroll.BonusInstallmentRecord, error) {
	var model models.BonusInstallmentModel
	if err := query.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds year-end bonus records matching the filter
func (r *GormBonusInstallmentRepository) FindAll(ctx context.Context, filter payroll.BonusFilter) ([]payroll.BonusInstallmentRecord, error) {
	var bonusModels []models.BonusInstallmentModel
	query := paginate(r.applyFilter(r.db.WithContext(ctx).Model(&models.BonusInstallmentModel{}), filter),
		filter.Filter, BonusInstallmentSortFields, "reference_year")
	if err := query.Find(&bonusModels).Error; err != nil {
		return nil, err
	}

	records := make([]payroll.BonusInstallmentRecord, len(bonusModels))
	for i := range bonusModels {
		records[i] = *bonusModels[i].ToDomain()
	}
	return records, nil
}

// Count counts year-end bonus records matching the filter
func (r *GormBonusInstallmentRepository) Count(ctx context.Context, filter payroll.BonusFilter) (int64, error) {
	var count int64
	err := r.applyFilter(r.db.WithContext(ctx).Model(&models.BonusInstallmentModel{}), filter).Count(&count).Error
	return count, err
}

// Save inserts or updates a year-end bonus record with an optimistic version check
func (r *GormBonusInstallmentRepository) Save(ctx context.Context, record *payroll.BonusInstallmentRecord) error {
	model := models.BonusInstallmentModelFromDomain(record)
	if err := saveVersioned(r.db.WithContext(ctx), model, "year-end bonus record"); err != nil {
		return err
	}
	record.Version = model.Version
	return nil
}

// Delete deletes a year-end bonus record
func (r *GormBonusInstallmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.BonusInstallmentModel{}, "id = ?", id)
	if result.Error != nil {
		return translateError(result.Error, "year-end bonus record")
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormBonusInstallmentRepository) applyFilter(query *gorm.DB, filter payroll.BonusFilter) *gorm.DB {
	if filter.EmployeeID != nil {
		query = query.Where("employee_id = ?", *filter.EmployeeID)
	}
	if filter.ReferenceYear != nil {
		query = query.Where("reference_year = ?", *filter.ReferenceYear)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	return query
}

// Ensure GormBonusInstallmentRepository implements BonusInstallmentRepository
var _ payroll.BonusInstallmentRepository = (*GormBonusInstallmentRepository)(nil)
