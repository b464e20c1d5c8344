package cashsession

import (
	"context"
	"time"

	"commercia/internal/core/id"
	"commercia/internal/core/types"
)

// Repository defines storage operations for cash sessions.
type Repository interface {
	// Create inserts a new open session. Storage enforces the single
	// open session per register rule with a partial unique index;
	// a violation surfaces as apperror.NewSessionAlreadyOpen.
	Create(ctx context.Context, session *Session) error

	// Update persists session changes with optimistic locking.
	Update(ctx context.Context, session *Session) error

	// GetByID returns a session by id.
	GetByID(ctx context.Context, sessionID id.ID) (*Session, error)

	// GetByIDForUpdate returns a session with a row lock.
	GetByIDForUpdate(ctx context.Context, sessionID id.ID) (*Session, error)

	// GetOpenByRegister returns the open session for a register, or
	// apperror.NewNotFound when none is open.
	GetOpenByRegister(ctx context.Context, registerID string) (*Session, error)

	// AddCashSale atomically adds amount to the open session of a
	// register. Returns false when no open session exists.
	AddCashSale(ctx context.Context, registerID string, amount types.Money) (bool, error)

	// List returns sessions matching the filter, newest first.
	List(ctx context.Context, filter ListFilter) ([]Session, error)
}

// ListFilter for session queries.
type ListFilter struct {
	RegisterID string
	Status     *Status
	FromDate   *time.Time
	ToDate     *time.Time
	Limit      int
	Offset     int
}
