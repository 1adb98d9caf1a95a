package records

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/opsledger/backend/internal/application/reconciliation"
	"github.com/opsledger/backend/internal/domain/payroll"
	"github.com/opsledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// VacationPeriodResponse represents a vacation period in API responses
type VacationPeriodResponse struct {
	ID               uuid.UUID        `json:"id"`
	EmployeeID       uuid.UUID        `json:"employee_id"`
	AcquisitionStart time.Time        `json:"acquisition_start"`
	AcquisitionEnd   time.Time        `json:"acquisition_end"`
	EntitledDays     int              `json:"entitled_days"`
	DaysTaken        int              `json:"days_taken"`
	LeaveStart       *time.Time       `json:"leave_start,omitempty"`
	LeaveEnd         *time.Time       `json:"leave_end,omitempty"`
	GrossValue       *decimal.Decimal `json:"gross_value,omitempty"`
	OneThirdBonus    *decimal.Decimal `json:"one_third_bonus,omitempty"`
	SettledAmount    decimal.Decimal  `json:"settled_amount"`
	Status           string           `json:"status"`
	PaidAt           *time.Time       `json:"paid_at,omitempty"`
	Notes            string           `json:"notes,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
	Version          int              `json:"version"`
}

// ScheduleVacationRequest represents a request to schedule a vacation period
type ScheduleVacationRequest struct {
	EmployeeID       uuid.UUID        `json:"employee_id" binding:"required"`
	AcquisitionStart time.Time        `json:"acquisition_start" binding:"required"`
	AcquisitionEnd   time.Time        `json:"acquisition_end" binding:"required"`
	EntitledDays     int              `json:"entitled_days" binding:"omitempty,min=1,max=30"`
	LeaveStart       *time.Time       `json:"leave_start"`
	LeaveEnd         *time.Time       `json:"leave_end"`
	DaysTaken        int              `json:"days_taken" binding:"omitempty,min=0"`
	GrossValue       *decimal.Decimal `json:"gross_value"`
	Notes            string           `json:"notes" binding:"max=500"`
}

// UpdateVacationRequest represents a partial update of a vacation period
type UpdateVacationRequest struct {
	Status     *string          `json:"status"`
	GrossValue *decimal.Decimal `json:"gross_value"`
	ClearGross bool             `json:"clear_gross"`
	LeaveStart *time.Time       `json:"leave_start"`
	LeaveEnd   *time.Time       `json:"leave_end"`
	DaysTaken  *int             `json:"days_taken" binding:"omitempty,min=0"`
	Notes      *string          `json:"notes" binding:"omitempty,max=500"`
}

// VacationListFilter defines filtering options for vacation period lists
type VacationListFilter struct {
	ListFilter
	EmployeeID *uuid.UUID `form:"employee_id"`
	Status     string     `form:"status"`
}

// ScheduleVacation creates a SCHEDULED vacation period. Paying it is a later
// status change, which projects the vacation payment.
func (s *Service) ScheduleVacation(ctx context.Context, req ScheduleVacationRequest, actor *uuid.UUID) (*ChangeResponse[VacationPeriodResponse], error) {
	v, err := payroll.NewVacationPeriod(req.EmployeeID, req.AcquisitionStart, req.AcquisitionEnd, req.EntitledDays)
	if err != nil {
		return nil, err
	}
	if req.LeaveStart != nil || req.LeaveEnd != nil || req.DaysTaken > 0 {
		if err := v.SetLeave(req.LeaveStart, req.LeaveEnd, req.DaysTaken); err != nil {
			return nil, err
		}
	}
	if err := v.SetGrossValue(s.optionalCents(req.GrossValue)); err != nil {
		return nil, err
	}
	v.Notes = req.Notes

	result, err := s.engine.CreateVacationPeriod(ctx, v, actor)
	if err != nil {
		return nil, err
	}
	return toChangeResponse(result, toVacationPeriodResponse(v)), nil
}

// UpdateVacation applies a partial update. Reaching PAID projects a payment
// and its ledger entry; leaving PAID removes them.
func (s *Service) UpdateVacation(ctx context.Context, id uuid.UUID, req UpdateVacationRequest, actor *uuid.UUID) (*ChangeResponse[VacationPeriodResponse], error) {
	result, err := s.engine.ApplyVacationChange(ctx, id, s.vacationChange(req), actor)
	if err != nil {
		return nil, err
	}
	return vacationChangeResponse(result), nil
}

func (s *Service) vacationChange(req UpdateVacationRequest) reconciliation.VacationChange {
	change := reconciliation.VacationChange{
		GrossValue: s.optionalCents(req.GrossValue),
		ClearGross: req.ClearGross,
		LeaveStart: req.LeaveStart,
		LeaveEnd:   req.LeaveEnd,
		DaysTaken:  req.DaysTaken,
		Notes:      req.Notes,
	}
	if req.Status != nil {
		status := payroll.VacationStatus(*req.Status)
		change.Status = &status
	}
	return change
}

// GetVacation gets a vacation period by ID
func (s *Service) GetVacation(ctx context.Context, id uuid.UUID) (*VacationPeriodResponse, error) {
	v, err := s.repos.Vacations.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toVacationPeriodResponse(v), nil
}

// ListVacations lists vacation periods with filtering and pagination
func (s *Service) ListVacations(ctx context.Context, filter VacationListFilter) (*shared.Paginated[VacationPeriodResponse], error) {
	domainFilter := payroll.VacationFilter{
		Filter:     filter.toDomain(),
		EmployeeID: filter.EmployeeID,
	}
	if filter.Status != "" {
		status := payroll.VacationStatus(filter.Status)
		domainFilter.Status = &status
	}

	vacations, err := s.repos.Vacations.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, err
	}
	total, err := s.repos.Vacations.Count(ctx, domainFilter)
	if err != nil {
		return nil, err
	}

	items := make([]VacationPeriodResponse, 0, len(vacations))
	for i := range vacations {
		items = append(items, *toVacationPeriodResponse(&vacations[i]))
	}
	page := shared.NewPaginated(items, total, domainFilter.Page, domainFilter.PageSize)
	return &page, nil
}

// DeleteVacation deletes a vacation period with its projected payment
func (s *Service) DeleteVacation(ctx context.Context, id uuid.UUID, actor *uuid.UUID) (*ChangeResponse[VacationPeriodResponse], error) {
	result, err := s.engine.DeleteRecord(ctx, reconciliation.RecordKindVacationPeriod, id, actor)
	if err != nil {
		return nil, err
	}
	return vacationChangeResponse(result), nil
}

func vacationChangeResponse(result *reconciliation.Result) *ChangeResponse[VacationPeriodResponse] {
	if v, ok := result.Record.(*payroll.VacationPeriod); ok {
		return toChangeResponse(result, toVacationPeriodResponse(v))
	}
	return toChangeResponse[VacationPeriodResponse](result, nil)
}

func toVacationPeriodResponse(v *payroll.VacationPeriod) *VacationPeriodResponse {
	return &VacationPeriodResponse{
		ID:               v.ID,
		EmployeeID:       v.EmployeeID,
		AcquisitionStart: v.AcquisitionStart,
		AcquisitionEnd:   v.AcquisitionEnd,
		EntitledDays:     v.EntitledDays,
		DaysTaken:        v.DaysTaken,
		LeaveStart:       v.LeaveStart,
		LeaveEnd:         v.LeaveEnd,
		GrossValue:       optionalDecimal(v.GrossValue),
		OneThirdBonus:    optionalDecimal(v.OneThirdBonus),
		SettledAmount:    toDecimal(v.SettledAmount()),
		Status:           string(v.Status),
		PaidAt:           v.PaidAt,
		Notes:            v.Notes,
		CreatedAt:        v.CreatedAt,
		UpdatedAt:        v.UpdatedAt,
		Version:          v.Version,
	}
}
