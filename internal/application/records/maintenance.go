package records

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/opsledger/backend/internal/application/reconciliation"
	"github.com/opsledger/backend/internal/domain/fleet"
	"github.com/opsledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// MaintenanceTaskResponse represents a maintenance task in API responses
type MaintenanceTaskResponse struct {
	ID             uuid.UUID        `json:"id"`
	VehicleID      uuid.UUID        `json:"vehicle_id"`
	Type           string           `json:"type"`
	Category       string           `json:"category,omitempty"`
	Description    string           `json:"description"`
	Priority       string           `json:"priority"`
	Status         string           `json:"status"`
	ScheduledDate  time.Time        `json:"scheduled_date"`
	CompletedDate  *time.Time       `json:"completed_date,omitempty"`
	Recurring      bool             `json:"recurring"`
	IntervalDays   *int             `json:"interval_days,omitempty"`
	IntervalKm     *int             `json:"interval_km,omitempty"`
	OdometerKm     *int             `json:"odometer_km,omitempty"`
	EstimatedCost  decimal.Decimal  `json:"estimated_cost"`
	FinalCost      *decimal.Decimal `json:"final_cost,omitempty"`
	IsPaid         bool             `json:"is_paid"`
	PaymentMethod  string           `json:"payment_method,omitempty"`
	SupplierID     *uuid.UUID       `json:"supplier_id,omitempty"`
	CostCenter     string           `json:"cost_center,omitempty"`
	Active         bool             `json:"active"`
	RecurredFromID *uuid.UUID       `json:"recurred_from_id,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
	Version        int              `json:"version"`
}

// ScheduleMaintenanceRequest represents a request to create a maintenance task
type ScheduleMaintenanceRequest struct {
	VehicleID     uuid.UUID        `json:"vehicle_id" binding:"required"`
	Type          string           `json:"type" binding:"required,oneof=PREVENTIVE CORRECTIVE PREDICTIVE"`
	Category      string           `json:"category" binding:"max=100"`
	Description   string           `json:"description" binding:"required,max=500"`
	Priority      string           `json:"priority" binding:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	ScheduledDate time.Time        `json:"scheduled_date" binding:"required"`
	Recurring     bool             `json:"recurring"`
	IntervalDays  *int             `json:"interval_days" binding:"omitempty,min=1"`
	IntervalKm    *int             `json:"interval_km" binding:"omitempty,min=1"`
	OdometerKm    *int             `json:"odometer_km" binding:"omitempty,min=0"`
	EstimatedCost decimal.Decimal  `json:"estimated_cost"`
	FinalCost     *decimal.Decimal `json:"final_cost"`
	IsPaid        bool             `json:"is_paid"`
	PaymentMethod string           `json:"payment_method" binding:"max=50"`
	SupplierID    *uuid.UUID       `json:"supplier_id"`
	CostCenter    string           `json:"cost_center" binding:"max=100"`
}

// UpdateMaintenanceRequest represents a partial update of a maintenance task
type UpdateMaintenanceRequest struct {
	Status        *string          `json:"status"`
	IsPaid        *bool            `json:"is_paid"`
	EstimatedCost *decimal.Decimal `json:"estimated_cost"`
	FinalCost     *decimal.Decimal `json:"final_cost"`
	PaymentMethod *string          `json:"payment_method" binding:"omitempty,max=50"`
	ScheduledDate *time.Time       `json:"scheduled_date"`
	CompletedDate *time.Time       `json:"completed_date"`
	Description   *string          `json:"description" binding:"omitempty,max=500"`
	Category      *string          `json:"category" binding:"omitempty,max=100"`
	Priority      *string          `json:"priority" binding:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	Recurring     *bool            `json:"recurring"`
	IntervalDays  *int             `json:"interval_days" binding:"omitempty,min=1"`
	IntervalKm    *int             `json:"interval_km" binding:"omitempty,min=1"`
	OdometerKm    *int             `json:"odometer_km" binding:"omitempty,min=0"`
	CostCenter    *string          `json:"cost_center" binding:"omitempty,max=100"`
	SupplierID    *uuid.UUID       `json:"supplier_id"`
}

// MaintenanceListFilter defines filtering options for maintenance task lists
type MaintenanceListFilter struct {
	ListFilter
	VehicleID       *uuid.UUID `form:"vehicle_id"`
	Status          string     `form:"status"`
	IsPaid          *bool      `form:"is_paid"`
	IncludeInactive bool       `form:"include_inactive"`
	ScheduledFrom   *time.Time `form:"scheduled_from" time_format:"2006-01-02"`
	ScheduledTo     *time.Time `form:"scheduled_to" time_format:"2006-01-02"`
}

// ScheduleMaintenance creates a PENDING task. A task created as paid is
// settled in the same transaction.
func (s *Service) ScheduleMaintenance(ctx context.Context, req ScheduleMaintenanceRequest, actor *uuid.UUID) (*ChangeResponse[MaintenanceTaskResponse], error) {
	task, err := fleet.NewMaintenanceTask(req.VehicleID, fleet.MaintenanceType(req.Type), req.Category, req.Description, fleet.Priority(req.Priority), req.ScheduledDate)
	if err != nil {
		return nil, err
	}
	task.Recurring = req.Recurring
	task.IntervalDays = req.IntervalDays
	task.IntervalKm = req.IntervalKm
	task.OdometerKm = req.OdometerKm
	task.EstimatedCost = s.toCents(req.EstimatedCost)
	task.FinalCost = s.optionalCents(req.FinalCost)
	task.IsPaid = req.IsPaid
	task.PaymentMethod = req.PaymentMethod
	task.SupplierID = req.SupplierID
	task.CostCenter = req.CostCenter
	if err := task.Validate(); err != nil {
		return nil, err
	}

	result, err := s.engine.CreateMaintenanceTask(ctx, task, actor)
	if err != nil {
		return nil, err
	}
	return toChangeResponse(result, toMaintenanceTaskResponse(task)), nil
}

// UpdateMaintenance applies a partial update. Completing a recurring task
// also generates its next occurrence.
func (s *Service) UpdateMaintenance(ctx context.Context, id uuid.UUID, req UpdateMaintenanceRequest, actor *uuid.UUID) (*ChangeResponse[MaintenanceTaskResponse], error) {
	result, err := s.engine.ApplyMaintenanceChange(ctx, id, s.maintenanceChange(req), actor)
	if err != nil {
		return nil, err
	}
	return maintenanceChangeResponse(result), nil
}

func (s *Service) maintenanceChange(req UpdateMaintenanceRequest) reconciliation.MaintenanceChange {
	change := reconciliation.MaintenanceChange{
		IsPaid:        req.IsPaid,
		EstimatedCost: s.optionalCents(req.EstimatedCost),
		FinalCost:     s.optionalCents(req.FinalCost),
		PaymentMethod: req.PaymentMethod,
		ScheduledDate: req.ScheduledDate,
		CompletedDate: req.CompletedDate,
		Description:   req.Description,
		Category:      req.Category,
		Recurring:     req.Recurring,
		IntervalDays:  req.IntervalDays,
		IntervalKm:    req.IntervalKm,
		OdometerKm:    req.OdometerKm,
		CostCenter:    req.CostCenter,
		SupplierID:    req.SupplierID,
	}
	if req.Status != nil {
		status := fleet.MaintenanceStatus(*req.Status)
		change.Status = &status
	}
	if req.Priority != nil {
		priority := fleet.Priority(*req.Priority)
		change.Priority = &priority
	}
	return change
}

// GetMaintenance gets a maintenance task by ID, inactive ones included
func (s *Service) GetMaintenance(ctx context.Context, id uuid.UUID) (*MaintenanceTaskResponse, error) {
	task, err := s.repos.Maintenance.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toMaintenanceTaskResponse(task), nil
}

// ListMaintenance lists maintenance tasks with filtering and pagination
func (s *Service) ListMaintenance(ctx context.Context, filter MaintenanceListFilter) (*shared.Paginated[MaintenanceTaskResponse], error) {
	domainFilter := fleet.MaintenanceFilter{
		Filter:          filter.toDomain(),
		VehicleID:       filter.VehicleID,
		IsPaid:          filter.IsPaid,
		IncludeInactive: filter.IncludeInactive,
		ScheduledFrom:   filter.ScheduledFrom,
		ScheduledTo:     filter.ScheduledTo,
	}
	if filter.Status != "" {
		status := fleet.MaintenanceStatus(filter.Status)
		domainFilter.Status = &status
	}

	tasks, err := s.repos.Maintenance.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, err
	}
	total, err := s.repos.Maintenance.Count(ctx, domainFilter)
	if err != nil {
		return nil, err
	}

	items := make([]MaintenanceTaskResponse, 0, len(tasks))
	for i := range tasks {
		items = append(items, *toMaintenanceTaskResponse(&tasks[i]))
	}
	page := shared.NewPaginated(items, total, domainFilter.Page, domainFilter.PageSize)
	return &page, nil
}

// DeleteMaintenance soft-deletes a task and removes its ledger entry
func (s *Service) DeleteMaintenance(ctx context.Context, id uuid.UUID, actor *uuid.UUID) (*ChangeResponse[MaintenanceTaskResponse], error) {
	result, err := s.engine.DeleteRecord(ctx, reconciliation.RecordKindMaintenanceTask, id, actor)
	if err != nil {
		return nil, err
	}
	return maintenanceChangeResponse(result), nil
}

func maintenanceChangeResponse(result *reconciliation.Result) *ChangeResponse[MaintenanceTaskResponse] {
	if m, ok := result.Record.(*fleet.MaintenanceTask); ok {
		return toChangeResponse(result, toMaintenanceTaskResponse(m))
	}
	return toChangeResponse[MaintenanceTaskResponse](result, nil)
}

func toMaintenanceTaskResponse(m *fleet.MaintenanceTask) *MaintenanceTaskResponse {
	return &MaintenanceTaskResponse{
		ID:             m.ID,
		VehicleID:      m.VehicleID,
		Type:           string(m.Type),
		Category:       m.Category,
		Description:    m.Description,
		Priority:       string(m.Priority),
		Status:         string(m.Status),
		ScheduledDate:  m.ScheduledDate,
		CompletedDate:  m.CompletedDate,
		Recurring:      m.Recurring,
		IntervalDays:   m.IntervalDays,
		IntervalKm:     m.IntervalKm,
		OdometerKm:     m.OdometerKm,
		EstimatedCost:  toDecimal(m.EstimatedCost),
		FinalCost:      optionalDecimal(m.FinalCost),
		IsPaid:         m.IsPaid,
		PaymentMethod:  m.PaymentMethod,
		SupplierID:     m.SupplierID,
		CostCenter:     m.CostCenter,
		Active:         m.Active,
		RecurredFromID: m.RecurredFromID,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
		Version:        m.Version,
	}
}
