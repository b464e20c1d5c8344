// Package register_repo provides PostgreSQL implementations for the
// accumulation registers (stock and financial ledger).
package register_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"commercia/internal/core/id"
	"commercia/internal/core/types"
	"commercia/internal/domain/inventory"
	"commercia/internal/infrastructure/storage/postgres"
)

const (
	stockMovementsTable = "reg_stock_movements"
	stockBalancesTable  = "reg_stock_balances"
)

// StockRepo implements inventory.Repository.
type StockRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewStockRepo creates a new stock register repository.
func NewStockRepo(txManager *postgres.TxManager) *StockRepo {
	return &StockRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var stockMovementCols = []string{
	"line_id", "recorder_id", "recorder_kind",
	"period", "record_type",
	"product_id", "quantity", "created_at",
}

// CreateMovements batch inserts movements.
func (r *StockRepo) CreateMovements(ctx context.Context, movements []inventory.Movement) error {
	if len(movements) == 0 {
		return nil
	}

	// Fast path: COPY when inside a transaction.
	if tx := r.txManager.GetTx(ctx); tx != nil {
		inserter := postgres.NewBatchInserter(r.txManager)
		rows := make([][]any, 0, len(movements))
		for _, m := range movements {
			rows = append(rows, []any{
				m.LineID, m.RecorderID, m.RecorderKind,
				m.Period, m.RecordType,
				m.ProductID, m.Quantity, m.CreatedAt,
			})
		}
		if _, err := inserter.CopyFromSlice(ctx, stockMovementsTable, stockMovementCols, rows); err != nil {
			return fmt.Errorf("copy movements: %w", err)
		}
		return nil
	}

	// Fallback: non-transactional insert. Prefer calling within a tx.
	q := r.builder.Insert(stockMovementsTable).Columns(stockMovementCols...)
	for _, m := range movements {
		q = q.Values(
			m.LineID, m.RecorderID, m.RecorderKind,
			m.Period, m.RecordType,
			m.ProductID, m.Quantity, m.CreatedAt,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert movements: %w", err)
	}

	return nil
}

// GetBalance returns the current balance for a product.
func (r *StockRepo) GetBalance(ctx context.Context, productID id.ID) (inventory.Balance, error) {
	return r.getBalance(ctx, productID, false)
}

// GetBalanceForUpdate returns the balance with a pessimistic lock.
// A missing row is materialized first so the lock has something to hold.
func (r *StockRepo) GetBalanceForUpdate(ctx context.Context, productID id.ID) (inventory.Balance, error) {
	ensureSQL := `
		INSERT INTO reg_stock_balances (product_id, quantity, last_movement_at, updated_at)
		VALUES ($1, 0, NOW(), NOW())
		ON CONFLICT (product_id) DO NOTHING
	`
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, ensureSQL, productID); err != nil {
		return inventory.Balance{}, fmt.Errorf("ensure balance row: %w", err)
	}

	return r.getBalance(ctx, productID, true)
}

func (r *StockRepo) getBalance(ctx context.Context, productID id.ID, forUpdate bool) (inventory.Balance, error) {
	var balance inventory.Balance

	q := r.builder.Select(
		"product_id", "quantity", "last_movement_at", "updated_at",
	).From(stockBalancesTable).
		Where(squirrel.Eq{"product_id": productID}).
		Limit(1)
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return balance, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &balance, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return inventory.Balance{ProductID: productID}, nil
		}
		return balance, fmt.Errorf("get balance: %w", err)
	}

	return balance, nil
}

// ApplyDelta atomically adjusts the materialized balance.
func (r *StockRepo) ApplyDelta(ctx context.Context, productID id.ID, delta types.Quantity) error {
	sql := `
		INSERT INTO reg_stock_balances (product_id, quantity, last_movement_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (product_id) DO UPDATE SET
			quantity = reg_stock_balances.quantity + EXCLUDED.quantity,
			last_movement_at = NOW(),
			updated_at = NOW()
	`

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, productID, delta); err != nil {
		return fmt.Errorf("apply balance delta: %w", err)
	}

	return nil
}

// GetBalances returns balances ordered by product.
func (r *StockRepo) GetBalances(ctx context.Context, filter inventory.BalanceFilter) ([]inventory.Balance, error) {
	q := r.builder.Select(
		"product_id", "quantity", "last_movement_at", "updated_at",
	).From(stockBalancesTable)

	if filter.ExcludeZero {
		q = q.Where(squirrel.NotEq{"quantity": int64(0)})
	}

	if len(filter.ProductIDs) > 0 {
		q = q.Where(squirrel.Eq{"product_id": filter.ProductIDs})
	}

	q = q.OrderBy("product_id")

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var balances []inventory.Balance
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &balances, sql, args...); err != nil {
		return nil, fmt.Errorf("select balances: %w", err)
	}

	return balances, nil
}

// GetMovementHistory returns movement history for a product.
func (r *StockRepo) GetMovementHistory(ctx context.Context, productID id.ID, filter inventory.MovementFilter) ([]inventory.Movement, error) {
	q := r.builder.Select(stockMovementCols...).
		From(stockMovementsTable).
		Where(squirrel.Eq{"product_id": productID})

	if filter.RecordType != nil {
		q = q.Where(squirrel.Eq{"record_type": *filter.RecordType})
	}

	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"period": *filter.FromDate})
	}

	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"period": *filter.ToDate})
	}

	q = q.OrderBy("period DESC", "created_at DESC")

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var movements []inventory.Movement
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("select history: %w", err)
	}

	return movements, nil
}

var _ inventory.Repository = (*StockRepo)(nil)
