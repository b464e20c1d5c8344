package main

import (
	"context"

	"commercia/internal/core/id"
	"commercia/internal/domain/catalogs/client"
	"commercia/internal/domain/catalogs/product"
)

// clientNameResolver adapts the client catalog to document.ClientResolver.
type clientNameResolver struct {
	clients *client.Service
}

func (r clientNameResolver) GetName(ctx context.Context, clientID id.ID) (string, error) {
	c, err := r.clients.GetByID(ctx, clientID)
	if err != nil {
		return "", err
	}
	return c.Name, nil
}

// productStockChecker adapts the product catalog to completion.StockChecker.
type productStockChecker struct {
	products *product.Service
}

func (r productStockChecker) StockedProducts(ctx context.Context, ids []id.ID) (map[id.ID]bool, error) {
	items, err := r.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	stocked := make(map[id.ID]bool, len(items))
	for _, p := range items {
		stocked[p.ID] = p.IsStocked()
	}
	return stocked, nil
}
