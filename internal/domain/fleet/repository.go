package fleet

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/opsledger/backend/internal/domain/shared"
)

// MaintenanceFilter defines filtering options for maintenance task queries
type MaintenanceFilter struct {
	shared.Filter
	VehicleID       *uuid.UUID
	Status          *MaintenanceStatus
	IsPaid          *bool
	IncludeInactive bool
	ScheduledFrom   *time.Time
	ScheduledTo     *time.Time
}

// MaintenanceTaskRepository defines the interface for maintenance task persistence
type MaintenanceTaskRepository interface {
	// FindByID finds a task by ID, including inactive tasks
	FindByID(ctx context.Context, id uuid.UUID) (*MaintenanceTask, error)

	// FindByIDForUpdate finds a task by ID and locks its row until the transaction ends
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*MaintenanceTask, error)

	// FindByRecurredFrom finds the occurrence generated from a completed task
	FindByRecurredFrom(ctx context.Context, sourceID uuid.UUID) (*MaintenanceTask, error)

	// FindAll finds tasks matching the filter
	FindAll(ctx context.Context, filter MaintenanceFilter) ([]MaintenanceTask, error)

	// Count counts tasks matching the filter
	Count(ctx context.Context, filter MaintenanceFilter) (int64, error)

	// Save inserts a new task or updates an existing one with a version check
	Save(ctx context.Context, task *MaintenanceTask) error
}
