// Package completion implements the document completion engine.
//
// Completing a document is the only way it reaches its terminal success
// state. The engine runs one transaction per attempt: row-lock the
// document, check preconditions, apply the kind-specific side effects
// (inventory, ledger, cash session), flip the status and persist a
// receipt. Completing an already-completed document returns the stored
// receipt unchanged.
package completion

import (
	"context"
	"time"

	"commercia/internal/core/id"
	"commercia/internal/core/types"
)

// Receipt is the persisted proof of a completion. Replayed verbatim on
// repeated completion calls for the same document.
type Receipt struct {
	ID id.ID `db:"id" json:"id"`

	DocumentID     id.ID  `db:"document_id" json:"documentId"`
	DocumentNumber string `db:"document_number" json:"documentNumber"`
	DocumentKind   string `db:"document_kind" json:"documentKind"`

	Total types.Money `db:"total" json:"total"`

	CompletedAt time.Time `db:"completed_at" json:"completedAt"`
	CompletedBy string    `db:"completed_by" json:"completedBy,omitempty"`
}

// ReceiptRepository persists completion receipts.
type ReceiptRepository interface {
	Create(ctx context.Context, receipt *Receipt) error

	// GetByDocument returns the receipt for a document, or
	// apperror.NewNotFound when the document was never completed.
	GetByDocument(ctx context.Context, documentID id.ID) (*Receipt, error)
}
