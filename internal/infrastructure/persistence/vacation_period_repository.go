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

// GormVacationPeriodRepository implements VacationPeriodRepository using GORM
type GormVacationPeriodRepository struct {
	db *gorm.DB
}

// NewGormVacationPeriodRepository creates a new GormVacationPeriodRepository
func NewGormVacationPeriodRepository(db *gorm.DB) *GormVacationPeriodRepository {
	return &GormVacationPeriodRepository{db: db}
}

// FindByID finds a vacation period by its ID
func (r *GormVacationPeriodRepository) FindByID(ctx context.Context, id uuid.UUID) (*payroll.VacationPeriod, error) {
	return r.first(r.db.WithContext(ctx), id)
}

// FindByIDForUpdate finds a vacation period by ID with a row lock
func (r *GormVacationPeriodRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*payroll.VacationPeriod, error) {
	return r.first(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormVacationPeriodRepository) first(query *gorm.DB, id uuid.UUID) (*payroll.VacationPeriod, error) {
	var model models.VacationPeriodModel
	if err := query.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds vacation periods matching the filter
func (r *GormVacationPeriodRepository) FindAll(ctx context.Context, filter payroll.VacationFilter) ([]payroll.VacationPeriod, error) {
	var vacationModels []models.VacationPeriodModel
	query := paginate(r.applyFilter(r.db.WithContext(ctx).Model(&models.VacationPeriodModel{}), filter),
		filter.Filter, VacationPeriodSortFields, "acquisition_start")
	if err := query.Find(&vacationModels).Error; err != nil {
		return nil, err
	}

	vacations := make([]payroll.VacationPeriod, len(vacationModels))
	for i := range vacationModels {
		vacations[i] = *vacationModels[i].ToDomain()
	}
	return vacations, nil
}

// Count counts vacation periods matching the filter
func (r *GormVacationPeriodRepository) Count(ctx context.Context, filter payroll.VacationFilter) (int64, error) {
	var count int64
	err := r.applyFilter(r.db.WithContext(ctx).Model(&models.VacationPeriodModel{}), filter).Count(&count).Error
	return count, err
}

// Save inserts or updates a vacation period with an optimistic version check
func (r *GormVacationPeriodRepository) Save(ctx context.Context, vacation *payroll.VacationPeriod) error {
	model := models.VacationPeriodModelFromDomain(vacation)
	if err := saveVersioned(r.db.WithContext(ctx), model, "vacation period"); err != nil {
		return err
	}
	vacation.Version = model.Version
	return nil
}

// Delete deletes a vacation period
func (r *GormVacationPeriodRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.VacationPeriodModel{}, "id = ?", id)
	if result.Error != nil {
		return translateError(result.Error, "vacation period")
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormVacationPeriodRepository) applyFilter(query *gorm.DB, filter payroll.VacationFilter) *gorm.DB {
	if filter.EmployeeID != nil {
		query = query.Where("employee_id = ?", *filter.EmployeeID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	return query
}

// Ensure GormVacationPeriodRepository implements VacationPeriodRepository
var _ payroll.VacationPeriodRepository = (*GormVacationPeriodRepository)(nil)
