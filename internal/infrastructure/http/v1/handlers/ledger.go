package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"commercia/internal/core/apperror"
	"commercia/internal/core/id"
	"commercia/internal/domain/finance"
	"commercia/internal/infrastructure/http/v1/dto"
)

// LedgerHandler handles financial ledger endpoints.
type LedgerHandler struct {
	*BaseHandler
	service *finance.Service
}

// NewLedgerHandler creates a new ledger handler.
func NewLedgerHandler(base *BaseHandler, service *finance.Service) *LedgerHandler {
	return &LedgerHandler{
		BaseHandler: base,
		service:     service,
	}
}

// ListEntries handles GET /ledger/entries
func (h *LedgerHandler) ListEntries(c *gin.Context) {
	ctx := c.Request.Context()

	var query dto.EntryListQuery
	if !h.BindQuery(c, &query) {
		return
	}

	entries, err := h.service.List(ctx, query.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      entries,
		TotalCount: int64(len(entries)),
		Limit:      query.Limit,
		Offset:     query.Offset,
	})
}

// GetByDocument handles GET /ledger/documents/:id
func (h *LedgerHandler) GetByDocument(c *gin.Context) {
	ctx := c.Request.Context()

	documentID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid document id"))
		return
	}

	entries, err := h.service.GetByDocument(ctx, documentID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": entries})
}

// GetTurnover handles GET /ledger/turnover
func (h *LedgerHandler) GetTurnover(c *gin.Context) {
	ctx := c.Request.Context()

	var query dto.TurnoverQuery
	if !h.BindQuery(c, &query) {
		return
	}

	turnover, err := h.service.GetTurnover(ctx, query.From, query.To)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, turnover)
}
