package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"commercia/internal/core/apperror"
	"commercia/internal/core/id"
	"commercia/internal/domain/completion"
	"commercia/internal/domain/conversion"
	"commercia/internal/domain/document"
	"commercia/internal/infrastructure/http/v1/dto"
	"commercia/internal/infrastructure/storage/postgres"
	"commercia/pkg/logger"
)

// DocumentHandler handles commercial document endpoints. CRUD and pure
// status moves go through the document service; completion and quote
// conversion go through their engines.
type DocumentHandler struct {
	*BaseHandler
	service   *document.Service
	completer *completion.Engine
	converter *conversion.Engine
	audit     *postgres.AuditService
}

// NewDocumentHandler creates a new document handler. The audit service
// is optional; when nil, lifecycle actions are not journaled.
func NewDocumentHandler(base *BaseHandler, service *document.Service, completer *completion.Engine, converter *conversion.Engine, audit *postgres.AuditService) *DocumentHandler {
	return &DocumentHandler{
		BaseHandler: base,
		service:     service,
		completer:   completer,
		converter:   converter,
		audit:       audit,
	}
}

func (h *DocumentHandler) logAction(c *gin.Context, docID id.ID, action postgres.AuditAction, changes map[string]any) {
	if h.audit == nil {
		return
	}
	ctx := c.Request.Context()
	if err := h.audit.LogChange(ctx, "document", docID, action, changes); err != nil {
		logger.Warn(ctx, "audit log failed", "document_id", docID, "action", action, "error", err)
	}
}

// List handles GET /documents
func (h *DocumentHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	var query dto.DocumentListQuery
	if !h.BindQuery(c, &query) {
		return
	}

	result, err := h.service.List(ctx, query.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.DocumentResponse, len(result.Items))
	for i, doc := range result.Items {
		items[i] = dto.FromDocument(doc)
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// Create handles POST /documents
func (h *DocumentHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateDocumentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc := req.ToEntity()
	if err := h.service.Create(ctx, doc); err != nil {
		h.Error(c, err)
		return
	}

	response := dto.FromDocument(doc)
	h.CompleteIdempotency(c, http.StatusCreated, "application/json", response)
	c.JSON(http.StatusCreated, response)
}

// Get handles GET /documents/:id
func (h *DocumentHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	docID, ok := h.docID(c)
	if !ok {
		return
	}

	doc, err := h.service.GetByID(ctx, docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromDocument(doc))
}

// Update handles PUT /documents/:id
func (h *DocumentHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	docID, ok := h.docID(c)
	if !ok {
		return
	}

	var req dto.UpdateDocumentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.service.GetByID(ctx, docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	req.ApplyTo(doc)

	if err := h.service.Update(ctx, doc); err != nil {
		h.Error(c, err)
		return
	}

	response := dto.FromDocument(doc)
	h.CompleteIdempotency(c, http.StatusOK, "application/json", response)
	c.JSON(http.StatusOK, response)
}

// Delete handles DELETE /documents/:id
func (h *DocumentHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()

	docID, ok := h.docID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(ctx, docID); err != nil {
		h.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Complete handles POST /documents/:id/complete
//
// Completing an already-completed document replays the stored receipt
// with 200 instead of 201; combined with the idempotency middleware the
// endpoint is safe to retry.
func (h *DocumentHandler) Complete(c *gin.Context) {
	ctx := c.Request.Context()

	docID, ok := h.docID(c)
	if !ok {
		return
	}

	receipt, err := h.completer.Complete(ctx, docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.logAction(c, docID, postgres.AuditActionComplete, map[string]any{
		"receipt_id": receipt.ID,
		"total":      receipt.Total,
	})
	h.CompleteIdempotency(c, http.StatusOK, "application/json", receipt)
	c.JSON(http.StatusOK, receipt)
}

// Cancel handles POST /documents/:id/cancel
func (h *DocumentHandler) Cancel(c *gin.Context) {
	ctx := c.Request.Context()

	docID, ok := h.docID(c)
	if !ok {
		return
	}

	doc, err := h.service.Cancel(ctx, docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.logAction(c, docID, postgres.AuditActionCancel, map[string]any{
		"status": doc.Status,
	})
	response := dto.FromDocument(doc)
	h.CompleteIdempotency(c, http.StatusOK, "application/json", response)
	c.JSON(http.StatusOK, response)
}

// Transition handles POST /documents/:id/transition
func (h *DocumentHandler) Transition(c *gin.Context) {
	ctx := c.Request.Context()

	docID, ok := h.docID(c)
	if !ok {
		return
	}

	var req dto.TransitionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.service.Transition(ctx, docID, document.Status(req.Status))
	if err != nil {
		h.Error(c, err)
		return
	}

	response := dto.FromDocument(doc)
	h.CompleteIdempotency(c, http.StatusOK, "application/json", response)
	c.JSON(http.StatusOK, response)
}

// Convert handles POST /quotes/:id/convert
func (h *DocumentHandler) Convert(c *gin.Context) {
	ctx := c.Request.Context()

	quoteID, ok := h.docID(c)
	if !ok {
		return
	}

	var req dto.ConvertQuoteRequest
	if !h.BindJSON(c, &req) {
		return
	}

	created, err := h.converter.Convert(ctx, quoteID, document.Kind(req.TargetKind))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.logAction(c, quoteID, postgres.AuditActionConvert, map[string]any{
		"target_kind": req.TargetKind,
		"created_id":  created.ID,
	})
	response := dto.FromDocument(created)
	h.CompleteIdempotency(c, http.StatusCreated, "application/json", response)
	c.JSON(http.StatusCreated, response)
}

// Receipt handles GET /documents/:id/receipt
func (h *DocumentHandler) Receipt(c *gin.Context) {
	ctx := c.Request.Context()

	docID, ok := h.docID(c)
	if !ok {
		return
	}

	receipt, err := h.completer.GetReceipt(ctx, docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, receipt)
}

// History handles GET /documents/:id/history
func (h *DocumentHandler) History(c *gin.Context) {
	ctx := c.Request.Context()

	docID, ok := h.docID(c)
	if !ok {
		return
	}

	if h.audit == nil {
		c.JSON(http.StatusOK, gin.H{"items": []postgres.AuditEntry{}})
		return
	}

	entries, err := h.audit.GetEntityHistory(ctx, "document", docID, 100)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": entries})
}

func (h *DocumentHandler) docID(c *gin.Context) (id.ID, bool) {
	docID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return id.Nil(), false
	}
	return docID, true
}
