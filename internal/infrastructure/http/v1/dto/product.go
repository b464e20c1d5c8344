package dto

import (
	"commercia/internal/core/types"
	"commercia/internal/domain/catalogs/product"
)

// --- Request DTOs ---

type CreateProductRequest struct {
	Code        string  `json:"code,omitempty"`
	Name        string  `json:"name" binding:"required"`
	IsService   bool    `json:"isService"`
	SKU         *string `json:"sku,omitempty"`
	Barcode     *string `json:"barcode,omitempty"`
	Price       string  `json:"price,omitempty"`
	Cost        string  `json:"cost,omitempty"`
	Description *string `json:"description,omitempty"`
}

func (r *CreateProductRequest) ToEntity() *product.Product {
	p := product.New(r.Code, r.Name)
	p.IsService = r.IsService
	p.SKU = r.SKU
	p.Barcode = r.Barcode
	p.Description = r.Description
	if r.Price != "" {
		if price, err := types.NewMoneyFromString(r.Price); err == nil {
			p.Price = price
		}
	}
	if r.Cost != "" {
		if cost, err := types.NewMoneyFromString(r.Cost); err == nil {
			p.Cost = cost
		}
	}
	return p
}

type UpdateProductRequest struct {
	Code        *string `json:"code,omitempty"`
	Name        *string `json:"name,omitempty"`
	IsService   *bool   `json:"isService,omitempty"`
	SKU         *string `json:"sku,omitempty"`
	Barcode     *string `json:"barcode,omitempty"`
	Price       *string `json:"price,omitempty"`
	Cost        *string `json:"cost,omitempty"`
	Description *string `json:"description,omitempty"`
	Version     int     `json:"version" binding:"required,min=1"`
}

func (r *UpdateProductRequest) ApplyTo(p *product.Product) {
	if r.Code != nil {
		p.Code = *r.Code
	}
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.IsService != nil {
		p.IsService = *r.IsService
	}
	if r.SKU != nil {
		p.SKU = r.SKU
	}
	if r.Barcode != nil {
		p.Barcode = r.Barcode
	}
	if r.Price != nil {
		if price, err := types.NewMoneyFromString(*r.Price); err == nil {
			p.Price = price
		}
	}
	if r.Cost != nil {
		if cost, err := types.NewMoneyFromString(*r.Cost); err == nil {
			p.Cost = cost
		}
	}
	if r.Description != nil {
		p.Description = r.Description
	}
	p.Version = r.Version
}

// --- Response DTOs ---

type ProductResponse struct {
	CatalogResponse
	IsService   bool        `json:"isService"`
	SKU         *string     `json:"sku,omitempty"`
	Barcode     *string     `json:"barcode,omitempty"`
	Price       types.Money `json:"price"`
	Cost        types.Money `json:"cost"`
	Description *string     `json:"description,omitempty"`
}

func FromProduct(p *product.Product) ProductResponse {
	return ProductResponse{
		CatalogResponse: FromCatalog(p.Catalog),
		IsService:       p.IsService,
		SKU:             p.SKU,
		Barcode:         p.Barcode,
		Price:           p.Price,
		Cost:            p.Cost,
		Description:     p.Description,
	}
}
