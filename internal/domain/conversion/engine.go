// Package conversion implements quote conversion.
//
// A quote converts into a sale or a service order exactly once. The new
// document is created and the quote is stamped in one transaction, so a
// quote can never point at a target that was not created, and two
// concurrent conversions cannot both succeed.
package conversion

import (
	"context"
	"fmt"

	"commercia/internal/core/apperror"
	"commercia/internal/core/id"
	"commercia/internal/core/tx"
	"commercia/internal/domain/document"
	"commercia/pkg/logger"
	"commercia/pkg/numerator"
)

// Engine orchestrates quote conversion.
type Engine struct {
	documents document.Repository
	numerator *numerator.Service
	txManager tx.Manager
}

// NewEngine creates a conversion engine.
func NewEngine(documents document.Repository, num *numerator.Service, txManager tx.Manager) *Engine {
	return &Engine{
		documents: documents,
		numerator: num,
		txManager: txManager,
	}
}

// Convert turns a quote into a new document of the target kind. Lines
// and discount are copied verbatim; the target starts in its initial
// status and completes through the ordinary completion flow.
func (e *Engine) Convert(ctx context.Context, quoteID id.ID, target document.Kind) (*document.Document, error) {
	if target != document.KindSale && target != document.KindServiceOrder {
		return nil, apperror.NewValidation("conversion target must be a sale or a service order").
			WithDetail("field", "targetKind").WithDetail("value", string(target))
	}

	var created *document.Document
	err := e.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		quote, err := e.documents.GetForUpdate(ctx, quoteID)
		if err != nil {
			return err
		}

		if err := quote.CanConvert(); err != nil {
			return err
		}

		lines, err := e.documents.GetLines(ctx, quoteID)
		if err != nil {
			return fmt.Errorf("get lines: %w", err)
		}

		doc := document.New(target)
		doc.ClientID = quote.ClientID
		doc.ClientName = quote.ClientName
		doc.Discount = quote.Discount
		doc.Comment = quote.Comment
		doc.ReplaceLines(lines)

		cfg := numerator.DefaultConfig(target.NumberPrefix())
		number, err := e.numerator.GetNextNumber(ctx, cfg, nil, doc.Date)
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		doc.Number = number

		if err := e.documents.Create(ctx, doc); err != nil {
			return fmt.Errorf("create target document: %w", err)
		}
		if err := e.documents.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}

		quote.Status = document.StatusConverted
		quote.ConvertedToID = &doc.ID
		quote.Touch()
		if err := e.documents.Update(ctx, quote); err != nil {
			return fmt.Errorf("update quote: %w", err)
		}

		created = doc
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "quote converted",
		"quote_id", quoteID,
		"target_id", created.ID,
		"target_kind", created.Kind,
		"number", created.Number,
	)
	return created, nil
}
