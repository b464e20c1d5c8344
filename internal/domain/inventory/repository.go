package inventory

import (
	"context"
	"time"

	"commercia/internal/core/id"
	"commercia/internal/core/types"
)

// Repository defines storage operations for the stock register.
type Repository interface {
	// CreateMovements batch inserts movements
	CreateMovements(ctx context.Context, movements []Movement) error

	// GetBalance returns the current balance for a product
	GetBalance(ctx context.Context, productID id.ID) (Balance, error)

	// GetBalanceForUpdate returns the balance with a row lock for stock control
	GetBalanceForUpdate(ctx context.Context, productID id.ID) (Balance, error)

	// ApplyDelta atomically adjusts the materialized balance
	ApplyDelta(ctx context.Context, productID id.ID, delta types.Quantity) error

	// GetBalances returns non-zero balances, ordered by product
	GetBalances(ctx context.Context, filter BalanceFilter) ([]Balance, error)

	// GetMovementHistory returns movement history for a product
	GetMovementHistory(ctx context.Context, productID id.ID, filter MovementFilter) ([]Movement, error)
}

// BalanceFilter for filtering balance queries.
type BalanceFilter struct {
	ProductIDs  []id.ID
	ExcludeZero bool
	Limit       int
	Offset      int
}

// MovementFilter for filtering movement history.
type MovementFilter struct {
	RecordType *RecordType
	FromDate   *time.Time
	ToDate     *time.Time
	Limit      int
	Offset     int
}
