package client

import (
	"context"
	"fmt"
	"time"

	"commercia/internal/core/apperror"
	"commercia/internal/core/tx"
	"commercia/internal/domain"
	"commercia/pkg/numerator"
)

// Service provides business logic for the client catalog.
type Service struct {
	*domain.CatalogService[*Client]
	repo      Repository
	numerator *numerator.Service
}

// NewService creates a new client service.
func NewService(repo Repository, txManager tx.Manager, num *numerator.Service) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Client]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "client",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		numerator:      num,
	}

	base.Hooks().OnBeforeCreate(svc.prepareForCreate)
	base.Hooks().OnBeforeUpdate(svc.checkUniqueTaxID)

	return svc
}

func (s *Service) prepareForCreate(ctx context.Context, item *Client) error {
	if item.Code == "" {
		cfg := numerator.Config{Prefix: "CLI", PadWidth: 5, ResetPeriod: "never"}
		code, err := s.numerator.GetNextNumber(ctx, cfg, nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		item.Code = code
	}

	return s.checkUniqueTaxID(ctx, item)
}

func (s *Service) checkUniqueTaxID(ctx context.Context, item *Client) error {
	if item.TaxID == nil || *item.TaxID == "" {
		return nil
	}

	existing, err := s.repo.FindByTaxID(ctx, *item.TaxID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil
		}
		return err
	}
	if existing.ID != item.ID {
		return apperror.NewConflict("client with this tax id already exists").
			WithDetail("tax_id", *item.TaxID)
	}
	return nil
}

// FindByTaxID retrieves a client by fiscal identifier.
func (s *Service) FindByTaxID(ctx context.Context, taxID string) (*Client, error) {
	return s.repo.FindByTaxID(ctx, taxID)
}
