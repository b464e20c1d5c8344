package client

import (
	"context"

	"commercia/internal/domain"
)

// Repository defines the interface for client persistence.
type Repository interface {
	domain.CatalogRepository[*Client]

	// FindByTaxID retrieves a client by fiscal identifier.
	FindByTaxID(ctx context.Context, taxID string) (*Client, error)
}
