package product

import (
	"context"
	"fmt"
	"time"

	"commercia/internal/core/apperror"
	"commercia/internal/core/id"
	"commercia/internal/core/tx"
	"commercia/internal/domain"
	"commercia/pkg/numerator"
)

// Service provides business logic for the product catalog.
// Uses composition with domain.CatalogService for common CRUD operations.
type Service struct {
	*domain.CatalogService[*Product]
	repo      Repository
	numerator *numerator.Service
}

// NewService creates a new product service.
func NewService(repo Repository, txManager tx.Manager, num *numerator.Service) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Product]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "product",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		numerator:      num,
	}

	base.Hooks().OnBeforeCreate(svc.prepareForCreate)
	base.Hooks().OnBeforeUpdate(svc.checkUniqueSKU)

	return svc
}

// prepareForCreate generates a code when missing and checks SKU uniqueness.
func (s *Service) prepareForCreate(ctx context.Context, item *Product) error {
	if item.Code == "" {
		cfg := numerator.Config{Prefix: "PRD", PadWidth: 5, ResetPeriod: "never"}
		code, err := s.numerator.GetNextNumber(ctx, cfg, nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		item.Code = code
	}

	return s.checkUniqueSKU(ctx, item)
}

func (s *Service) checkUniqueSKU(ctx context.Context, item *Product) error {
	if item.SKU == nil || *item.SKU == "" {
		return nil
	}

	existing, err := s.repo.FindBySKU(ctx, *item.SKU)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil
		}
		return err
	}
	if existing.ID != item.ID {
		return apperror.NewConflict("product with this SKU already exists").
			WithDetail("sku", *item.SKU)
	}
	return nil
}

// FindBySKU retrieves a product by SKU.
func (s *Service) FindBySKU(ctx context.Context, sku string) (*Product, error) {
	return s.repo.FindBySKU(ctx, sku)
}

// GetByIDs retrieves products by id.
func (s *Service) GetByIDs(ctx context.Context, ids []id.ID) ([]*Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.repo.GetByIDs(ctx, ids)
}
