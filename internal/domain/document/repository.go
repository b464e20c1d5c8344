package document

import (
	"context"
	"time"

	"commercia/internal/core/id"
	"commercia/internal/domain"
)

// Repository defines persistence operations for documents.
// The postgres implementation lives in infrastructure/storage.
type Repository interface {
	Create(ctx context.Context, doc *Document) error

	// Update persists header fields with optimistic locking.
	Update(ctx context.Context, doc *Document) error

	GetByID(ctx context.Context, docID id.ID) (*Document, error)

	// GetForUpdate retrieves the document with a row lock. Used by the
	// completion and conversion engines to serialize concurrent callers.
	GetForUpdate(ctx context.Context, docID id.ID) (*Document, error)

	// Table part
	GetLines(ctx context.Context, docID id.ID) ([]Line, error)
	SaveLines(ctx context.Context, docID id.ID, lines []Line) error

	// Delete soft-deletes the document.
	Delete(ctx context.Context, docID id.ID) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Document], error)
}

// ListFilter extends the common filter with document-specific criteria.
type ListFilter struct {
	domain.ListFilter

	Kind     *Kind
	Status   *Status
	ClientID *id.ID
	DateFrom *time.Time
	DateTo   *time.Time
}
