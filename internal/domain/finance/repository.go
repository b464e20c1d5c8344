package finance

import (
	"context"
	"time"

	"commercia/internal/core/id"
	"commercia/internal/core/types"
)

// Repository defines storage operations for the financial ledger.
type Repository interface {
	// CreateEntries batch inserts ledger entries
	CreateEntries(ctx context.Context, entries []Entry) error

	// GetEntriesByDocument retrieves all entries for a document
	GetEntriesByDocument(ctx context.Context, documentID id.ID) ([]Entry, error)

	// ListEntries returns entries matching the filter, newest first
	ListEntries(ctx context.Context, filter EntryFilter) ([]Entry, error)

	// GetTurnover calculates income and expense totals for a period
	GetTurnover(ctx context.Context, from, to time.Time) (Turnover, error)
}

// EntryFilter for filtering ledger queries.
type EntryFilter struct {
	Direction    *Direction
	DocumentKind string
	FromDate     *time.Time
	ToDate       *time.Time
	Limit        int
	Offset       int
}

// Turnover represents income/expense totals for a period.
type Turnover struct {
	Income  types.Money `json:"income"`
	Expense types.Money `json:"expense"`
	Net     types.Money `json:"net"`
}
