// Package session_repo provides the PostgreSQL implementation of the
// cash session repository.
package session_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"commercia/internal/core/apperror"
	"commercia/internal/core/id"
	"commercia/internal/core/types"
	"commercia/internal/domain/cashsession"
	"commercia/internal/infrastructure/storage/postgres"
)

const sessionsTable = "cash_sessions"

// SessionRepo implements cashsession.Repository.
//
// The single-open-session-per-register rule is enforced by a partial
// unique index: CREATE UNIQUE INDEX ... ON cash_sessions (register_id)
// WHERE status = 'open'.
type SessionRepo struct {
	txManager  *postgres.TxManager
	selectCols []string
}

// NewSessionRepo creates a new cash session repository.
func NewSessionRepo(txManager *postgres.TxManager) *SessionRepo {
	return &SessionRepo{
		txManager:  txManager,
		selectCols: postgres.ExtractDBColumns[cashsession.Session](),
	}
}

func (r *SessionRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *SessionRepo) baseSelect() squirrel.SelectBuilder {
	return r.builder().
		Select(r.selectCols...).
		From(sessionsTable)
}

// Create inserts a new open session. A second open session for the same
// register violates the partial unique index and surfaces as
// SESSION_ALREADY_OPEN.
func (r *SessionRepo) Create(ctx context.Context, session *cashsession.Session) error {
	data := postgres.StructToMap(session)
	if len(data) == 0 {
		return fmt.Errorf("no db tags found in session")
	}

	filteredData := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if val, ok := data[col]; ok {
			filteredData[col] = val
		}
	}

	q := r.builder().
		Insert(sessionsTable).
		SetMap(filteredData)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperror.NewSessionAlreadyOpen(session.RegisterID)
		}
		return fmt.Errorf("insert session: %w", err)
	}

	return nil
}

// Update persists session changes with optimistic locking.
func (r *SessionRepo) Update(ctx context.Context, session *cashsession.Session) error {
	data := postgres.StructToMap(session)

	version, ok := data["version"].(int)
	if !ok {
		return fmt.Errorf("session has no 'version' field or it is not an int")
	}

	filteredData := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if col == "id" || col == "version" {
			continue
		}
		// CashSalesTotal is incremented only via AddCashSale; a stale
		// in-memory copy must never overwrite the accumulated value.
		if col == "cash_sales_total" && session.IsOpen() {
			continue
		}
		if val, ok := data[col]; ok {
			filteredData[col] = val
		}
	}

	q := r.builder().
		Update(sessionsTable).
		SetMap(filteredData).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": session.ID}).
		Where(squirrel.Eq{"version": version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(sessionsTable, session.ID)
	}

	return nil
}

// GetByID returns a session by id.
func (r *SessionRepo) GetByID(ctx context.Context, sessionID id.ID) (*cashsession.Session, error) {
	return r.get(ctx, sessionID, false)
}

// GetByIDForUpdate returns a session with a row lock.
func (r *SessionRepo) GetByIDForUpdate(ctx context.Context, sessionID id.ID) (*cashsession.Session, error) {
	return r.get(ctx, sessionID, true)
}

func (r *SessionRepo) get(ctx context.Context, sessionID id.ID, forUpdate bool) (*cashsession.Session, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"id": sessionID})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	session := &cashsession.Session{}
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), session, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("cash_session", sessionID.String())
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	return session, nil
}

// GetOpenByRegister returns the open session for a register.
func (r *SessionRepo) GetOpenByRegister(ctx context.Context, registerID string) (*cashsession.Session, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"register_id": registerID}).
		Where(squirrel.Eq{"status": cashsession.StatusOpen}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	session := &cashsession.Session{}
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), session, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("cash_session", registerID)
		}
		return nil, fmt.Errorf("get open session: %w", err)
	}

	return session, nil
}

// AddCashSale atomically adds amount to the open session of a register.
// The status guard makes concurrent increments and a concurrent close
// serialize correctly; no read-modify-write in application code.
func (r *SessionRepo) AddCashSale(ctx context.Context, registerID string, amount types.Money) (bool, error) {
	sql := `
		UPDATE cash_sessions
		SET cash_sales_total = cash_sales_total + $1,
		    version = version + 1
		WHERE register_id = $2 AND status = 'open'
	`

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, amount, registerID)
	if err != nil {
		return false, fmt.Errorf("add cash sale: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// List returns sessions matching the filter, newest first.
func (r *SessionRepo) List(ctx context.Context, filter cashsession.ListFilter) ([]cashsession.Session, error) {
	q := r.baseSelect()

	if filter.RegisterID != "" {
		q = q.Where(squirrel.Eq{"register_id": filter.RegisterID})
	}

	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}

	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"opened_at": *filter.FromDate})
	}

	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"opened_at": *filter.ToDate})
	}

	q = q.OrderBy("opened_at DESC")

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

	var sessions []cashsession.Session
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &sessions, sql, args...); err != nil {
		return nil, fmt.Errorf("select sessions: %w", err)
	}

	return sessions, nil
}

var _ cashsession.Repository = (*SessionRepo)(nil)
