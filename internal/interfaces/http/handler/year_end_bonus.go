package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/opsledger/backend/internal/application/records"
)

// YearEndBonusHandler handles year-end bonus endpoints. Each bonus carries
// two installments that settle independently.
type YearEndBonusHandler struct {
	BaseHandler
	service *records.Service
}

// NewYearEndBonusHandler creates a new YearEndBonusHandler
func NewYearEndBonusHandler(service *records.Service) *YearEndBonusHandler {
	return &YearEndBonusHandler{service: service}
}

// Generate handles POST /payroll/year-end-bonuses
func (h *YearEndBonusHandler) Generate(c *gin.Context) {
	var req records.GenerateYearEndBonusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.service.GenerateYearEndBonus(c.Request.Context(), req, getActorID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// UpdateInstallments handles PUT /payroll/year-end-bonuses/:id/installments
func (h *YearEndBonusHandler) UpdateInstallments(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var req records.UpdateInstallmentsRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.service.UpdateInstallments(c.Request.Context(), id, req, getActorID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetByID handles GET /payroll/year-end-bonuses/:id
func (h *YearEndBonusHandler) GetByID(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	resp, err := h.service.GetYearEndBonus(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// List handles GET /payroll/year-end-bonuses
func (h *YearEndBonusHandler) List(c *gin.Context) {
	var filter records.YearEndBonusListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	page, err := h.service.ListYearEndBonuses(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(&h.BaseHandler, c, page)
}

// Delete handles DELETE /payroll/year-end-bonuses/:id
func (h *YearEndBonusHandler) Delete(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	resp, err := h.service.DeleteYearEndBonus(c.Request.Context(), id, getActorID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
