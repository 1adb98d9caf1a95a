package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/opsledger/backend/internal/application/event"
)

// OutboxHandler handles dead letter inspection and replay of
// reconciliation events
type OutboxHandler struct {
	BaseHandler
	outboxService *event.OutboxService
}

// NewOutboxHandler creates a new outbox handler
func NewOutboxHandler(outboxService *event.OutboxService) *OutboxHandler {
	return &OutboxHandler{
		outboxService: outboxService,
	}
}

// RetryAllResponse reports how many dead entries were queued again
type RetryAllResponse struct {
	RetriedCount int64 `json:"retried_count"`
}

// GetDeadLetterEntries handles GET /system/outbox/dead
func (h *OutboxHandler) GetDeadLetterEntries(c *gin.Context) {
	var filter event.OutboxFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	page, err := h.outboxService.GetDeadLetterEntries(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(&h.BaseHandler, c, page)
}

// GetEntry handles GET /system/outbox/entries/:id
func (h *OutboxHandler) GetEntry(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	entry, err := h.outboxService.GetEntry(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entry)
}

// RetryEntry handles POST /system/outbox/entries/:id/retry
func (h *OutboxHandler) RetryEntry(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	entry, err := h.outboxService.RetryDeadEntry(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entry)
}

// RetryAll handles POST /system/outbox/retry-all
func (h *OutboxHandler) RetryAll(c *gin.Context) {
	count, err := h.outboxService.RetryAllDeadEntries(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, RetryAllResponse{RetriedCount: count})
}

// GetStats handles GET /system/outbox/stats
func (h *OutboxHandler) GetStats(c *gin.Context) {
	stats, err := h.outboxService.GetStats(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}
