package product

import (
	"context"

	"commercia/internal/core/id"
	"commercia/internal/domain"
)

// Repository defines the interface for product persistence.
type Repository interface {
	domain.CatalogRepository[*Product]

	// FindBySKU retrieves a product by SKU.
	FindBySKU(ctx context.Context, sku string) (*Product, error)

	// GetByIDs retrieves products by id, preserving only found ones.
	GetByIDs(ctx context.Context, ids []id.ID) ([]*Product, error)
}
