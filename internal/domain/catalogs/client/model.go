// Package client provides the client (customer) catalog.
package client

import (
	"context"
	"strings"

	"commercia/internal/core/apperror"
	"commercia/internal/core/entity"
)

// Client represents a customer.
type Client struct {
	entity.Catalog

	// TaxID is the fiscal identifier (RUC, NIT, etc.)
	TaxID *string `db:"tax_id" json:"taxId,omitempty"`

	Email *string `db:"email" json:"email,omitempty"`
	Phone *string `db:"phone" json:"phone,omitempty"`

	Address *string `db:"address" json:"address,omitempty"`
}

// New creates a client with required fields.
func New(code, name string) *Client {
	return &Client{
		Catalog: entity.NewCatalog(code, name),
	}
}

// Validate implements entity.Validatable.
func (c *Client) Validate(ctx context.Context) error {
	if err := c.Catalog.Validate(ctx); err != nil {
		return err
	}

	if c.Email != nil && *c.Email != "" && !strings.Contains(*c.Email, "@") {
		return apperror.NewValidation("invalid email").
			WithDetail("field", "email")
	}

	return nil
}
