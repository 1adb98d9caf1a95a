package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/opsledger/backend/internal/application/records"
)

// PayrollHandler handles payroll payment endpoints
type PayrollHandler struct {
	BaseHandler
	service *records.Service
}

// NewPayrollHandler creates a new PayrollHandler
func NewPayrollHandler(service *records.Service) *PayrollHandler {
	return &PayrollHandler{service: service}
}

// Create handles POST /payroll/payments
func (h *PayrollHandler) Create(c *gin.Context) {
	var req records.CreatePayrollPaymentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.service.CreatePayrollPayment(c.Request.Context(), req, getActorID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Update handles PUT /payroll/payments/:id. Moving a payment to or from
// PAID creates, updates or removes its ledger entry in the same transaction.
func (h *PayrollHandler) Update(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var req records.UpdatePayrollPaymentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.service.UpdatePayrollPayment(c.Request.Context(), id, req, getActorID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetByID handles GET /payroll/payments/:id
func (h *PayrollHandler) GetByID(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	resp, err := h.service.GetPayrollPayment(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// List handles GET /payroll/payments
func (h *PayrollHandler) List(c *gin.Context) {
	var filter records.PayrollPaymentListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	page, err := h.service.ListPayrollPayments(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(&h.BaseHandler, c, page)
}

// Delete handles DELETE /payroll/payments/:id
func (h *PayrollHandler) Delete(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	resp, err := h.service.DeletePayrollPayment(c.Request.Context(), id, getActorID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
