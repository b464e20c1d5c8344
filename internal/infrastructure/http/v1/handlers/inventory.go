package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"commercia/internal/core/apperror"
	"commercia/internal/core/id"
	"commercia/internal/domain/inventory"
	"commercia/internal/infrastructure/http/v1/dto"
)

// InventoryHandler handles stock balance and movement endpoints.
type InventoryHandler struct {
	*BaseHandler
	service *inventory.Service
}

// NewInventoryHandler creates a new inventory handler.
func NewInventoryHandler(base *BaseHandler, service *inventory.Service) *InventoryHandler {
	return &InventoryHandler{
		BaseHandler: base,
		service:     service,
	}
}

// GetAvailability handles GET /inventory/availability/:productId
func (h *InventoryHandler) GetAvailability(c *gin.Context) {
	ctx := c.Request.Context()

	productID, err := id.Parse(c.Param("productId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid product id"))
		return
	}

	available, err := h.service.GetAvailability(ctx, productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.AvailabilityResponse{
		ProductID: productID.String(),
		Available: available,
	})
}

// GetBalances handles GET /inventory/balances
func (h *InventoryHandler) GetBalances(c *gin.Context) {
	ctx := c.Request.Context()

	var query dto.BalanceListQuery
	if !h.BindQuery(c, &query) {
		return
	}

	balances, err := h.service.GetBalances(ctx, query.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      balances,
		TotalCount: int64(len(balances)),
		Limit:      query.Limit,
		Offset:     query.Offset,
	})
}

// GetMovements handles GET /inventory/movements/:productId
func (h *InventoryHandler) GetMovements(c *gin.Context) {
	ctx := c.Request.Context()

	productID, err := id.Parse(c.Param("productId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid product id"))
		return
	}

	var query dto.MovementListQuery
	if !h.BindQuery(c, &query) {
		return
	}

	movements, err := h.service.GetMovementHistory(ctx, productID, query.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      movements,
		TotalCount: int64(len(movements)),
		Limit:      query.Limit,
		Offset:     query.Offset,
	})
}
