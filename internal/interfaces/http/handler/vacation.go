package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/opsledger/backend/internal/application/records"
)

// VacationHandler handles vacation period endpoints
type VacationHandler struct {
	BaseHandler
	service *records.Service
}

// NewVacationHandler creates a new VacationHandler
func NewVacationHandler(service *records.Service) *VacationHandler {
	return &VacationHandler{service: service}
}

// Schedule handles POST /payroll/vacations
func (h *VacationHandler) Schedule(c *gin.Context) {
	var req records.ScheduleVacationRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.service.ScheduleVacation(c.Request.Context(), req, getActorID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Update handles PUT /payroll/vacations/:id
func (h *VacationHandler) Update(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var req records.UpdateVacationRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.service.UpdateVacation(c.Request.Context(), id, req, getActorID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetByID handles GET /payroll/vacations/:id
func (h *VacationHandler) GetByID(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	resp, err := h.service.GetVacation(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// List handles GET /payroll/vacations
func (h *VacationHandler) List(c *gin.Context) {
	var filter records.VacationListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	page, err := h.service.ListVacations(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(&h.BaseHandler, c, page)
}

// Delete handles DELETE /payroll/vacations/:id
func (h *VacationHandler) Delete(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	resp, err := h.service.DeleteVacation(c.Request.Context(), id, getActorID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
