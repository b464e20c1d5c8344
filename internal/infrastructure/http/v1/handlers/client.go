package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"commercia/internal/core/apperror"
	"commercia/internal/domain/catalogs/client"
	"commercia/internal/infrastructure/http/v1/dto"
)

// ClientHandler handles client catalog endpoints.
type ClientHandler struct {
	*CatalogHandler[*client.Client, dto.CreateClientRequest, dto.UpdateClientRequest]
	service *client.Service
}

// NewClientHandler creates a new client handler.
func NewClientHandler(base *BaseHandler, service *client.Service) *ClientHandler {
	catalogHandler := NewCatalogHandler(base, CatalogHandlerConfig[*client.Client, dto.CreateClientRequest, dto.UpdateClientRequest]{
		Service:    service.CatalogService,
		EntityName: "client",
		MapCreateDTO: func(req dto.CreateClientRequest) *client.Client {
			return req.ToEntity()
		},
		MapUpdateDTO: func(req dto.UpdateClientRequest, existing *client.Client) *client.Client {
			req.ApplyTo(existing)
			return existing
		},
		MapToDTO: func(cl *client.Client) any {
			return dto.FromClient(cl)
		},
	})

	return &ClientHandler{
		CatalogHandler: catalogHandler,
		service:        service,
	}
}

// FindByTaxID handles GET /catalog/clients/by-tax-id/:taxId
func (h *ClientHandler) FindByTaxID(c *gin.Context) {
	ctx := c.Request.Context()

	taxID := c.Param("taxId")
	if taxID == "" {
		h.Error(c, apperror.NewValidation("taxId is required"))
		return
	}

	cl, err := h.service.FindByTaxID(ctx, taxID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromClient(cl))
}
