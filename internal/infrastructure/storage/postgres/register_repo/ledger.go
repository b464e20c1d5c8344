package register_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"commercia/internal/core/id"
	"commercia/internal/core/types"
	"commercia/internal/domain/finance"
	"commercia/internal/infrastructure/storage/postgres"
)

const ledgerEntriesTable = "reg_ledger_entries"

// LedgerRepo implements finance.Repository.
type LedgerRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewLedgerRepo creates a new financial ledger repository.
func NewLedgerRepo(txManager *postgres.TxManager) *LedgerRepo {
	return &LedgerRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var ledgerEntryCols = []string{
	"line_id", "document_id", "document_kind",
	"period", "direction", "amount", "description", "created_at",
}

// CreateEntries batch inserts ledger entries.
func (r *LedgerRepo) CreateEntries(ctx context.Context, entries []finance.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	if tx := r.txManager.GetTx(ctx); tx != nil {
		inserter := postgres.NewBatchInserter(r.txManager)
		rows := make([][]any, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, []any{
				e.LineID, e.DocumentID, e.DocumentKind,
				e.Period, e.Direction, e.Amount, e.Description, e.CreatedAt,
			})
		}
		if _, err := inserter.CopyFromSlice(ctx, ledgerEntriesTable, ledgerEntryCols, rows); err != nil {
			return fmt.Errorf("copy entries: %w", err)
		}
		return nil
	}

	q := r.builder.Insert(ledgerEntriesTable).Columns(ledgerEntryCols...)
	for _, e := range entries {
		q = q.Values(
			e.LineID, e.DocumentID, e.DocumentKind,
			e.Period, e.Direction, e.Amount, e.Description, e.CreatedAt,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert entries: %w", err)
	}

	return nil
}

// GetEntriesByDocument retrieves all entries for a document.
func (r *LedgerRepo) GetEntriesByDocument(ctx context.Context, documentID id.ID) ([]finance.Entry, error) {
	q := r.builder.Select(ledgerEntryCols...).
		From(ledgerEntriesTable).
		Where(squirrel.Eq{"document_id": documentID}).
		OrderBy("created_at")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entries []finance.Entry
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("select entries: %w", err)
	}

	return entries, nil
}

// ListEntries returns entries matching the filter, newest first.
func (r *LedgerRepo) ListEntries(ctx context.Context, filter finance.EntryFilter) ([]finance.Entry, error) {
	q := r.builder.Select(ledgerEntryCols...).
		From(ledgerEntriesTable)

	if filter.Direction != nil {
		q = q.Where(squirrel.Eq{"direction": *filter.Direction})
	}

	if filter.DocumentKind != "" {
		q = q.Where(squirrel.Eq{"document_kind": filter.DocumentKind})
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

	var entries []finance.Entry
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("select entries: %w", err)
	}

	return entries, nil
}

// GetTurnover calculates income and expense totals for a period.
func (r *LedgerRepo) GetTurnover(ctx context.Context, from, to time.Time) (finance.Turnover, error) {
	var result finance.Turnover

	sql := `
		SELECT
			COALESCE(SUM(CASE WHEN direction = 'income' THEN amount ELSE 0 END), 0) as income,
			COALESCE(SUM(CASE WHEN direction = 'expense' THEN amount ELSE 0 END), 0) as expense
		FROM reg_ledger_entries
		WHERE period >= $1 AND period < $2
	`

	var income, expense types.Money
	err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, from, to).Scan(&income, &expense)
	if err != nil && err != pgx.ErrNoRows {
		return result, fmt.Errorf("calculate turnover: %w", err)
	}

	result.Income = income
	result.Expense = expense
	result.Net = income.Sub(expense)

	return result, nil
}

var _ finance.Repository = (*LedgerRepo)(nil)
