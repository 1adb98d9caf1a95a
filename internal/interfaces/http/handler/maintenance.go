package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/opsledger/backend/internal/application/records"
)

// MaintenanceHandler handles fleet maintenance endpoints
type MaintenanceHandler struct {
	BaseHandler
	service *records.Service
}

// NewMaintenanceHandler creates a new MaintenanceHandler
func NewMaintenanceHandler(service *records.Service) *MaintenanceHandler {
	return &MaintenanceHandler{service: service}
}

// Schedule handles POST /fleet/maintenance
func (h *MaintenanceHandler) Schedule(c *gin.Context) {
	var req records.ScheduleMaintenanceRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.service.ScheduleMaintenance(c.Request.Context(), req, getActorID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Update handles PUT /fleet/maintenance/:id. Completing a recurring task
// reports the scheduled follow-up in next_occurrence_id.
func (h *MaintenanceHandler) Update(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var req records.UpdateMaintenanceRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.service.UpdateMaintenance(c.Request.Context(), id, req, getActorID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetByID handles GET /fleet/maintenance/:id
func (h *MaintenanceHandler) GetByID(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	resp, err := h.service.GetMaintenance(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// List handles GET /fleet/maintenance
func (h *MaintenanceHandler) List(c *gin.Context) {
	var filter records.MaintenanceListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	page, err := h.service.ListMaintenance(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(&h.BaseHandler, c, page)
}

// Delete handles DELETE /fleet/maintenance/:id
func (h *MaintenanceHandler) Delete(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	resp, err := h.service.DeleteMaintenance(c.Request.Context(), id, getActorID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
