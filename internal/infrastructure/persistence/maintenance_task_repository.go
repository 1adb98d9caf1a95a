package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/opsledger/backend/internal/domain/fleet"
	"github.com/opsledger/backend/internal/domain/shared"
	"github.com/opsledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormMaintenanceTaskRepository implements MaintenanceTaskRepository using GORM
type GormMaintenanceTaskRepository struct {
	db *gorm.DB
}

// NewGormMaintenanceTaskRepository creates a new GormMaintenanceTaskRepository
func NewGormMaintenanceTaskRepository(db *gorm.DB) *GormMaintenanceTaskRepository {
	return &GormMaintenanceTaskRepository{db: db}
}

// FindByID finds a task by its ID, active or not
func (r *GormMaintenanceTaskRepository) FindByID(ctx context.Context, id uuid.UUID) (*fleet.MaintenanceTask, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

// FindByIDForUpdate finds a task by ID with a row lock
func (r *GormMaintenanceTaskRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*fleet.MaintenanceTask, error) {
	return r.first(r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id))
}

// FindByRecurredFrom finds the occurrence generated from sourceID
func (r *GormMaintenanceTaskRepository) FindByRecurredFrom(ctx context.Context, sourceID uuid.UUID) (*fleet.MaintenanceTask, error) {
	return r.first(r.db.WithContext(ctx).Where("recurred_from_id = ?", sourceID))
}

func (r *GormMaintenanceTaskRepository) first(query *gorm.DB) (*fleet.MaintenanceTask, error) {
	var model models.MaintenanceTaskModel
	if err := query.First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds tasks matching the filter
func (r *GormMaintenanceTaskRepository) FindAll(ctx context.Context, filter fleet.MaintenanceFilter) ([]fleet.MaintenanceTask, error) {
	var taskModels []models.MaintenanceTaskModel
	query := paginate(r.applyFilter(r.db.WithContext(ctx).Model(&models.MaintenanceTaskModel{}), filter),
		filter.Filter, MaintenanceTaskSortFields, "scheduled_date")
	if err := query.Find(&taskModels).Error; err != nil {
		return nil, err
	}

	tasks := make([]fleet.MaintenanceTask, len(taskModels))
	for i := range taskModels {
		tasks[i] = *taskModels[i].ToDomain()
	}
	return tasks, nil
}

// Count counts tasks matching the filter
func (r *GormMaintenanceTaskRepository) Count(ctx context.Context, filter fleet.MaintenanceFilter) (int64, error) {
	var count int64
	err := r.applyFilter(r.db.WithContext(ctx).Model(&models.MaintenanceTaskModel{}), filter).Count(&count).Error
	return count, err
}

// Save inserts or updates a task with an optimistic version check. A second
// occurrence for the same source task violates the recurred_from_id index
// and surfaces as a conflict.
func (r *GormMaintenanceTaskRepository) Save(ctx context.Context, task *fleet.MaintenanceTask) error {
	model := models.MaintenanceTaskModelFromDomain(task)
	if err := saveVersioned(r.db.WithContext(ctx), model, "maintenance task"); err != nil {
		return err
	}
	task.Version = model.Version
	return nil
}

func (r *GormMaintenanceTaskRepository) applyFilter(query *gorm.DB, filter fleet.MaintenanceFilter) *gorm.DB {
	if !filter.IncludeInactive {
		query = query.Where("active = ?", true)
	}
	if filter.VehicleID != nil {
		query = query.Where("vehicle_id = ?", *filter.VehicleID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.IsPaid != nil {
		query = query.Where("is_paid = ?", *filter.IsPaid)
	}
	if filter.ScheduledFrom != nil {
		query = query.Where("scheduled_date >= ?", *filter.ScheduledFrom)
	}
	if filter.ScheduledTo != nil {
		query = query.Where("scheduled_date <= ?", *filter.ScheduledTo)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("description LIKE ? OR category LIKE ?", pattern, pattern)
	}
	return query
}

// Ensure GormMaintenanceTaskRepository implements MaintenanceTaskRepository
var _ fleet.MaintenanceTaskRepository = (*GormMaintenanceTaskRepository)(nil)
