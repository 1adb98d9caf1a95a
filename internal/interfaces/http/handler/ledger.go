package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/opsledger/backend/internal/application/records"
)

// LedgerHandler exposes the ledger read side. Entries are only ever written
// by the reconciliation engine, so there are no write endpoints here.
type LedgerHandler struct {
	BaseHandler
	service *records.Service
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(service *records.Service) *LedgerHandler {
	return &LedgerHandler{service: service}
}

// List handles GET /finance/ledger
func (h *LedgerHandler) List(c *gin.Context) {
	var filter records.LedgerListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	page, err := h.service.ListLedgerEntries(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(&h.BaseHandler, c, page)
}

// GetByID handles GET /finance/ledger/:id
func (h *LedgerHandler) GetByID(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	resp, err := h.service.GetLedgerEntry(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// CashFlow handles GET /finance/cash-flow?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *LedgerHandler) CashFlow(c *gin.Context) {
	var req records.CashFlowRequest
	if !h.bindQuery(c, &req) {
		return
	}

	resp, err := h.service.CashFlow(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
