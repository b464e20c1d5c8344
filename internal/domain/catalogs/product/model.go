// Package product provides the product catalog.
// Products cover both stocked goods and services; services have no
// stock movements.
package product

import (
	"context"

	"commercia/internal/core/apperror"
	"commercia/internal/core/entity"
	"commercia/internal/core/types"
)

// Product represents a sellable item or service.
type Product struct {
	entity.Catalog

	// IsService marks items without stock tracking
	IsService bool `db:"is_service" json:"isService"`

	// SKU is the stock keeping unit (unique when set)
	SKU *string `db:"sku" json:"sku,omitempty"`

	// Barcode (EAN-13, etc.)
	Barcode *string `db:"barcode" json:"barcode,omitempty"`

	// Price is the default sale price
	Price types.Money `db:"price" json:"price"`

	// Cost is the reference unit cost
	Cost types.Money `db:"cost" json:"cost"`

	Description *string `db:"description" json:"description,omitempty"`
}

// New creates a product with required fields.
func New(code, name string) *Product {
	return &Product{
		Catalog: entity.NewCatalog(code, name),
		Price:   types.ZeroMoney(),
		Cost:    types.ZeroMoney(),
	}
}

// NewServiceItem creates a service item.
func NewServiceItem(code, name string) *Product {
	p := New(code, name)
	p.IsService = true
	return p
}

// Validate implements entity.Validatable.
func (p *Product) Validate(ctx context.Context) error {
	if err := p.Catalog.Validate(ctx); err != nil {
		return err
	}

	if p.Price.IsNegative() {
		return apperror.NewValidation("price cannot be negative").
			WithDetail("field", "price")
	}
	if p.Cost.IsNegative() {
		return apperror.NewValidation("cost cannot be negative").
			WithDetail("field", "cost")
	}

	return nil
}

// IsStocked reports whether the product participates in inventory.
func (p *Product) IsStocked() bool {
	return !p.IsService
}
