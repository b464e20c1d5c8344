package document

import (
	"context"
	"fmt"

	"commercia/internal/core/apperror"
	"commercia/internal/core/id"
	"commercia/internal/core/tx"
	"commercia/internal/domain"
	"commercia/pkg/logger"
	"commercia/pkg/numerator"
)

// ClientResolver resolves client display names at creation time.
type ClientResolver interface {
	GetName(ctx context.Context, clientID id.ID) (string, error)
}

// Service provides CRUD and pure status moves for documents.
// Completion and conversion have their own engines; this service never
// sets StatusCompleted or StatusConverted.
type Service struct {
	repo      Repository
	txManager tx.Manager
	numerator *numerator.Service
	clients   ClientResolver
	hooks     *domain.HookRegistry[*Document]
}

// NewService creates a new document service.
func NewService(repo Repository, txManager tx.Manager, num *numerator.Service, clients ClientResolver) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
		numerator: num,
		clients:   clients,
		hooks:     domain.NewHookRegistry[*Document](),
	}
}

// Hooks returns the hook registry for external registration.
func (s *Service) Hooks() *domain.HookRegistry[*Document] {
	return s.hooks
}

// Create creates a new document in its initial status.
func (s *Service) Create(ctx context.Context, doc *Document) error {
	if !doc.Kind.Valid() {
		return apperror.NewValidation("unknown document kind").
			WithDetail("field", "kind").WithDetail("value", string(doc.Kind))
	}

	// Status and server-side fields are never taken from input.
	doc.Status = doc.Kind.InitialStatus()
	doc.CompletedAt = nil
	doc.ConvertedToID = nil
	doc.RecalculateTotals()

	if err := doc.Validate(ctx); err != nil {
		return err
	}

	if err := s.resolveClient(ctx, doc); err != nil {
		return err
	}

	if doc.Number == "" {
		cfg := numerator.DefaultConfig(doc.Kind.NumberPrefix())
		number, err := s.numerator.GetNextNumber(ctx, cfg, nil, doc.Date)
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		doc.Number = number
	}

	if err := s.hooks.Run(ctx, domain.BeforeCreate, doc); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create document: %w", err)
		}
		if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.hooks.Run(ctx, domain.AfterCreate, doc); err != nil {
		logger.Warn(ctx, "after-create hook failed", "error", err)
	}

	logger.Info(ctx, "document created",
		"id", doc.ID,
		"kind", doc.Kind,
		"number", doc.Number,
	)
	return nil
}

// GetByID retrieves a document with lines.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*Document, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}

	lines, err := s.repo.GetLines(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	doc.Lines = lines

	return doc, nil
}

// Update applies header and line changes to a mutable document. Status,
// number and engine-owned fields are preserved from the stored document.
func (s *Service) Update(ctx context.Context, doc *Document) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetForUpdate(ctx, doc.ID)
		if err != nil {
			return err
		}

		if err := current.CanModify(); err != nil {
			return err
		}
		if doc.Lines != nil {
			if err := current.CanModifyLines(); err != nil {
				return err
			}
		}

		doc.Kind = current.Kind
		doc.Status = current.Status
		doc.Number = current.Number
		doc.CompletedAt = current.CompletedAt
		doc.ConvertedToID = current.ConvertedToID
		doc.CreatedAt = current.CreatedAt
		doc.CreatedBy = current.CreatedBy
		doc.Version = current.Version
		doc.RecalculateTotals()

		if err := doc.Validate(ctx); err != nil {
			return err
		}
		if err := s.resolveClient(ctx, doc); err != nil {
			return err
		}

		if err := s.hooks.Run(ctx, domain.BeforeUpdate, doc); err != nil {
			return err
		}

		doc.Touch()
		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return nil
	})
}

// Transition performs a pure status move (no side effects).
func (s *Service) Transition(ctx context.Context, docID id.ID, to Status) (*Document, error) {
	var updated *Document
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		doc, err := s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}

		if err := doc.CanTransition(to); err != nil {
			return err
		}

		// An open sale is ready to complete, so it must carry lines.
		if doc.Kind == KindSale && to == StatusOpen {
			lines, err := s.repo.GetLines(ctx, doc.ID)
			if err != nil {
				return fmt.Errorf("get lines: %w", err)
			}
			if len(lines) == 0 {
				return apperror.NewEmptyDocument(doc.ID.String())
			}
		}

		doc.Status = to
		doc.Touch()
		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}

		updated = doc
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "document transitioned",
		"id", updated.ID,
		"kind", updated.Kind,
		"status", updated.Status,
	)
	return updated, nil
}

// Cancel moves a sale to canceled. Pure status write; inventory and the
// ledger are untouched because canceled sales were never completed.
func (s *Service) Cancel(ctx context.Context, docID id.ID) (*Document, error) {
	var updated *Document
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		doc, err := s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}

		if err := doc.CanCancel(); err != nil {
			return err
		}

		doc.Status = StatusCanceled
		doc.Touch()
		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}

		updated = doc
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "document canceled", "id", updated.ID, "number", updated.Number)
	return updated, nil
}

// Delete soft-deletes a document still in a mutable status.
func (s *Service) Delete(ctx context.Context, docID id.ID) error {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return err
	}

	if err := doc.CanDelete(); err != nil {
		return err
	}

	return s.repo.Delete(ctx, docID)
}

// List retrieves documents matching the filter (headers only).
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Document], error) {
	if filter.Limit <= 0 {
		filter.Limit = domain.DefaultListFilter().Limit
	}
	return s.repo.List(ctx, filter)
}

// resolveClient stamps the display name for the linked client.
func (s *Service) resolveClient(ctx context.Context, doc *Document) error {
	if doc.ClientID == nil || id.IsNil(*doc.ClientID) {
		doc.ClientID = nil
		return nil
	}
	if s.clients == nil {
		return nil
	}

	name, err := s.clients.GetName(ctx, *doc.ClientID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return apperror.NewValidation("client does not exist").
				WithDetail("field", "clientId").WithDetail("value", doc.ClientID.String())
		}
		return err
	}
	doc.ClientName = name
	return nil
}
