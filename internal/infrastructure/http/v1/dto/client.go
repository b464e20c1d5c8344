package dto

import (
	"commercia/internal/domain/catalogs/client"
)

// --- Request DTOs ---

type CreateClientRequest struct {
	Code    string  `json:"code,omitempty"`
	Name    string  `json:"name" binding:"required"`
	TaxID   *string `json:"taxId,omitempty"`
	Email   *string `json:"email,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Address *string `json:"address,omitempty"`
}

func (r *CreateClientRequest) ToEntity() *client.Client {
	c := client.New(r.Code, r.Name)
	c.TaxID = r.TaxID
	c.Email = r.Email
	c.Phone = r.Phone
	c.Address = r.Address
	return c
}

type UpdateClientRequest struct {
	Code    *string `json:"code,omitempty"`
	Name    *string `json:"name,omitempty"`
	TaxID   *string `json:"taxId,omitempty"`
	Email   *string `json:"email,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Address *string `json:"address,omitempty"`
	Version int     `json:"version" binding:"required,min=1"`
}

func (r *UpdateClientRequest) ApplyTo(c *client.Client) {
	if r.Code != nil {
		c.Code = *r.Code
	}
	if r.Name != nil {
		c.Name = *r.Name
	}
	if r.TaxID != nil {
		c.TaxID = r.TaxID
	}
	if r.Email != nil {
		c.Email = r.Email
	}
	if r.Phone != nil {
		c.Phone = r.Phone
	}
	if r.Address != nil {
		c.Address = r.Address
	}
	c.Version = r.Version
}

// --- Response DTOs ---

type ClientResponse struct {
	CatalogResponse
	TaxID   *string `json:"taxId,omitempty"`
	Email   *string `json:"email,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Address *string `json:"address,omitempty"`
}

func FromClient(c *client.Client) ClientResponse {
	return ClientResponse{
		CatalogResponse: FromCatalog(c.Catalog),
		TaxID:           c.TaxID,
		Email:           c.Email,
		Phone:           c.Phone,
		Address:         c.Address,
	}
}
