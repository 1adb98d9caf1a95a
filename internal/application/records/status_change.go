package records

import (
	"context"

	"github.com/google/uuid"
	"github.com/opsledger/backend/internal/application/reconciliation"
	"github.com/opsledger/backend/internal/domain/fleet"
	"github.com/opsledger/backend/internal/domain/payroll"
	"github.com/opsledger/backend/internal/domain/shared"
)

// StatusChangeRequest is the generic form of a record update. Exactly the
// field set matching Kind must be present.
type StatusChangeRequest struct {
	Kind        reconciliation.RecordKind
	RecordID    uuid.UUID
	Payroll     *UpdatePayrollPaymentRequest
	Vacation    *UpdateVacationRequest
	Bonus       *UpdateInstallmentsRequest
	Maintenance *UpdateMaintenanceRequest
}

// ApplyStatusChange routes a generic change through the engine's single
// entry point and renders whichever record it touched.
func (s *Service) ApplyStatusChange(ctx context.Context, req StatusChangeRequest, actor *uuid.UUID) (*ChangeResponse[any], error) {
	change := reconciliation.StatusChange{
		Kind:     req.Kind,
		RecordID: req.RecordID,
		ActorID:  actor,
	}
	switch {
	case req.Kind == reconciliation.RecordKindPayrollPayment && req.Payroll != nil:
		c := s.payrollChange(*req.Payroll)
		change.Payroll = &c
	case req.Kind == reconciliation.RecordKindVacationPeriod && req.Vacation != nil:
		c := s.vacationChange(*req.Vacation)
		change.Vacation = &c
	case req.Kind == reconciliation.RecordKindBonusInstallment && req.Bonus != nil:
		c := s.bonusChange(*req.Bonus)
		change.Bonus = &c
	case req.Kind == reconciliation.RecordKindMaintenanceTask && req.Maintenance != nil:
		c := s.maintenanceChange(*req.Maintenance)
		change.Maintenance = &c
	default:
		return nil, shared.NewValidationError("fields for record kind %q are required", req.Kind)
	}

	result, err := s.engine.ApplyStatusChange(ctx, change)
	if err != nil {
		return nil, err
	}

	var record any
	switch r := result.Record.(type) {
	case *payroll.PayrollPayment:
		record = toPayrollPaymentResponse(r)
	case *payroll.VacationPeriod:
		record = toVacationPeriodResponse(r)
	case *payroll.BonusInstallmentRecord:
		record = toYearEndBonusResponse(r)
	case *fleet.MaintenanceTask:
		record = toMaintenanceTaskResponse(r)
	}
	if record == nil {
		return toChangeResponse[any](result, nil), nil
	}
	return toChangeResponse(result, &record), nil
}
