package handler

import (
	"encoding/json"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	"github.com/opsledger/backend/internal/application/reconciliation"
	"github.com/opsledger/backend/internal/application/records"
	"github.com/opsledger/backend/internal/interfaces/http/middleware"
)

// StatusChangeHandler exposes the engine's generic entry point, used by
// clients that drive several record kinds through one screen.
type StatusChangeHandler struct {
	BaseHandler
	service *records.Service
}

// NewStatusChangeHandler creates a new StatusChangeHandler
func NewStatusChangeHandler(service *records.Service) *StatusChangeHandler {
	return &StatusChangeHandler{service: service}
}

// StatusChangeBody is the wire form of a generic change. Change holds the
// update body of the matching record kind.
type StatusChangeBody struct {
	Kind     string          `json:"kind" binding:"required,oneof=PAYROLL_PAYMENT VACATION_PERIOD BONUS_INSTALLMENT MAINTENANCE_TASK"`
	RecordID uuid.UUID       `json:"record_id" binding:"required"`
	Change   json.RawMessage `json:"change" binding:"required"`
}

// Apply handles POST /reconciliation/status-changes
func (h *StatusChangeHandler) Apply(c *gin.Context) {
	var body StatusChangeBody
	if !h.bindJSON(c, &body) {
		return
	}

	req := records.StatusChangeRequest{
		Kind:     reconciliation.RecordKind(body.Kind),
		RecordID: body.RecordID,
	}
	var target any
	switch req.Kind {
	case reconciliation.RecordKindPayrollPayment:
		req.Payroll = &records.UpdatePayrollPaymentRequest{}
		target = req.Payroll
	case reconciliation.RecordKindVacationPeriod:
		req.Vacation = &records.UpdateVacationRequest{}
		target = req.Vacation
	case reconciliation.RecordKindBonusInstallment:
		req.Bonus = &records.UpdateInstallmentsRequest{}
		target = req.Bonus
	case reconciliation.RecordKindMaintenanceTask:
		req.Maintenance = &records.UpdateMaintenanceRequest{}
		target = req.Maintenance
	}
	if err := json.Unmarshal(body.Change, target); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	if err := binding.Validator.ValidateStruct(target); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.service.ApplyStatusChange(c.Request.Context(), req, getActorID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
