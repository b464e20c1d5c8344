package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"commercia/internal/core/apperror"
	appctx "commercia/internal/core/context"
	"commercia/internal/core/id"
	"commercia/internal/domain/cashsession"
	"commercia/internal/infrastructure/http/v1/dto"
	"commercia/internal/infrastructure/storage/postgres"
	"commercia/pkg/logger"
)

// CashSessionHandler handles cash register session endpoints.
type CashSessionHandler struct {
	*BaseHandler
	service *cashsession.Service
	audit   *postgres.AuditService
}

// NewCashSessionHandler creates a new cash session handler. The audit
// service is optional; when nil, session closes are not journaled.
func NewCashSessionHandler(base *BaseHandler, service *cashsession.Service, audit *postgres.AuditService) *CashSessionHandler {
	return &CashSessionHandler{
		BaseHandler: base,
		service:     service,
		audit:       audit,
	}
}

// List handles GET /cash-sessions
func (h *CashSessionHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	var query dto.SessionListQuery
	if !h.BindQuery(c, &query) {
		return
	}

	sessions, err := h.service.List(ctx, query.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.SessionResponse, len(sessions))
	for i := range sessions {
		items[i] = dto.FromSession(&sessions[i])
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      items,
		TotalCount: int64(len(items)),
		Limit:      query.Limit,
		Offset:     query.Offset,
	})
}

// Open handles POST /cash-sessions
func (h *CashSessionHandler) Open(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.OpenSessionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	openingBalance, err := req.OpeningBalanceMoney()
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid opening balance").WithDetail("field", "openingBalance"))
		return
	}

	openedBy, ok := h.currentUserID(c)
	if !ok {
		return
	}

	session, err := h.service.Open(ctx, req.RegisterID, openingBalance, openedBy)
	if err != nil {
		h.Error(c, err)
		return
	}

	response := dto.FromSession(session)
	h.CompleteIdempotency(c, http.StatusCreated, "application/json", response)
	c.JSON(http.StatusCreated, response)
}

// Get handles GET /cash-sessions/:id
func (h *CashSessionHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	sessionID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	session, err := h.service.GetByID(ctx, sessionID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromSession(session))
}

// GetOpenByRegister handles GET /cash-sessions/open/:registerId
func (h *CashSessionHandler) GetOpenByRegister(c *gin.Context) {
	ctx := c.Request.Context()

	session, err := h.service.GetOpenByRegister(ctx, c.Param("registerId"))
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromSession(session))
}

// Close handles POST /cash-sessions/:id/close
func (h *CashSessionHandler) Close(c *gin.Context) {
	ctx := c.Request.Context()

	sessionID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.CloseSessionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	countedAmount, err := req.CountedAmountMoney()
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid counted amount").WithDetail("field", "countedAmount"))
		return
	}

	closedBy, ok := h.currentUserID(c)
	if !ok {
		return
	}

	session, err := h.service.Close(ctx, sessionID, countedAmount, closedBy, req.Notes)
	if err != nil {
		h.Error(c, err)
		return
	}

	if h.audit != nil {
		auditErr := h.audit.LogChange(ctx, "cash_session", sessionID, postgres.AuditActionSessionClose, map[string]any{
			"counted_amount": countedAmount,
			"expected":       session.ExpectedAmount,
			"discrepancy":    session.Discrepancy,
		})
		if auditErr != nil {
			logger.Warn(ctx, "audit log failed", "session_id", sessionID, "error", auditErr)
		}
	}

	response := dto.FromSession(session)
	h.CompleteIdempotency(c, http.StatusOK, "application/json", response)
	c.JSON(http.StatusOK, response)
}

func (h *CashSessionHandler) currentUserID(c *gin.Context) (id.ID, bool) {
	user := appctx.GetUser(c.Request.Context())
	if user == nil {
		h.Error(c, apperror.NewUnauthorized("not authenticated"))
		return id.Nil(), false
	}
	userID, err := id.Parse(user.UserID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid user id"))
		return id.Nil(), false
	}
	return userID, true
}
