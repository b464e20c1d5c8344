package finance

import (
	"context"
	"fmt"
	"time"

	"commercia/internal/core/apperror"
	"commercia/internal/core/id"
	"commercia/pkg/logger"
)

// Service provides business operations for the financial ledger.
// Transactions are managed by the caller (completion engine).
type Service struct {
	repo Repository
}

// NewService creates a new ledger service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Post records ledger entries. Entries must carry a positive amount and
// a valid direction; the document reference ties them to their source.
func (s *Service) Post(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	for i, e := range entries {
		if id.IsNil(e.DocumentID) {
			return apperror.NewValidation(fmt.Sprintf("entry %d: document_id is required", i))
		}
		if !e.Direction.Valid() {
			return apperror.NewValidation(fmt.Sprintf("entry %d: invalid direction %q", i, e.Direction))
		}
		if !e.Amount.IsPositive() {
			return apperror.NewValidation(fmt.Sprintf("entry %d: amount must be positive", i))
		}
	}

	if err := s.repo.CreateEntries(ctx, entries); err != nil {
		return apperror.NewPostingError(fmt.Errorf("create ledger entries: %w", err))
	}

	logger.Info(ctx, "posted ledger entries",
		"count", len(entries),
		"document_id", entries[0].DocumentID,
	)

	return nil
}

// GetByDocument returns all entries produced by a document.
func (s *Service) GetByDocument(ctx context.Context, documentID id.ID) ([]Entry, error) {
	return s.repo.GetEntriesByDocument(ctx, documentID)
}

// List returns entries matching the filter.
func (s *Service) List(ctx context.Context, filter EntryFilter) ([]Entry, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	return s.repo.ListEntries(ctx, filter)
}

// GetTurnover returns income/expense totals for the period.
func (s *Service) GetTurnover(ctx context.Context, from, to time.Time) (Turnover, error) {
	return s.repo.GetTurnover(ctx, from, to)
}
