package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"commercia/internal/core/apperror"
	"commercia/internal/core/id"
	"commercia/internal/domain/completion"
	"commercia/internal/infrastructure/storage/postgres"
)

const receiptsTable = "completion_receipts"

// ReceiptRepo implements completion.ReceiptRepository.
type ReceiptRepo struct {
	txManager *postgres.TxManager
}

// NewReceiptRepo creates a new completion receipt repository.
func NewReceiptRepo(txManager *postgres.TxManager) *ReceiptRepo {
	return &ReceiptRepo{txManager: txManager}
}

func (r *ReceiptRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Create inserts a completion receipt. One receipt per document; the
// unique constraint on document_id backs the engine's idempotency.
func (r *ReceiptRepo) Create(ctx context.Context, receipt *completion.Receipt) error {
	q := r.builder().
		Insert(receiptsTable).
		Columns(
			"id", "document_id", "document_number", "document_kind",
			"total", "completed_at", "completed_by",
		).
		Values(
			receipt.ID, receipt.DocumentID, receipt.DocumentNumber, receipt.DocumentKind,
			receipt.Total, receipt.CompletedAt, receipt.CompletedBy,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert receipt: %w", err)
	}

	return nil
}

// GetByDocument returns the receipt for a document.
func (r *ReceiptRepo) GetByDocument(ctx context.Context, documentID id.ID) (*completion.Receipt, error) {
	q := r.builder().
		Select(
			"id", "document_id", "document_number", "document_kind",
			"total", "completed_at", "completed_by",
		).
		From(receiptsTable).
		Where(squirrel.Eq{"document_id": documentID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	receipt := &completion.Receipt{}
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), receipt, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("receipt", documentID.String())
		}
		return nil, fmt.Errorf("get receipt: %w", err)
	}

	return receipt, nil
}

var _ completion.ReceiptRepository = (*ReceiptRepo)(nil)
