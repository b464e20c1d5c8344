package cashsession

import (
	"context"
	"fmt"
	"time"

	"commercia/internal/core/apperror"
	"commercia/internal/core/id"
	"commercia/internal/core/tx"
	"commercia/internal/core/types"
	"commercia/pkg/logger"
)

// Service provides business operations for cash sessions.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

// NewService creates a new cash session service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
	}
}

// Open starts a session for a register with the counted opening float.
// Fails with SESSION_ALREADY_OPEN when the register already has one.
func (s *Service) Open(ctx context.Context, registerID string, openingBalance types.Money, openedBy id.ID) (*Session, error) {
	session := New(registerID, openingBalance, openedBy)
	if err := session.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, session); err != nil {
		return nil, err
	}

	logger.Info(ctx, "opened cash session",
		"session_id", session.ID,
		"register_id", registerID,
		"opening_balance", openingBalance,
	)

	return session, nil
}

// RecordCashSale adds a completed cash sale total to the open session of
// the register. Called within the completion transaction; the increment
// is atomic in storage. Fails with SESSION_NOT_OPEN when the register has
// no open session.
func (s *Service) RecordCashSale(ctx context.Context, registerID string, amount types.Money) error {
	if !amount.IsPositive() {
		return apperror.NewValidation("cash sale amount must be positive")
	}

	added, err := s.repo.AddCashSale(ctx, registerID, amount)
	if err != nil {
		return fmt.Errorf("add cash sale: %w", err)
	}
	if !added {
		return apperror.NewSessionNotOpen(registerID)
	}

	return nil
}

// Close finalizes a session: fixes the expected amount, computes the
// discrepancy against the counted drawer amount and marks the session
// closed. The session row is locked so concurrent cash sales either land
// before the close or fail with SESSION_NOT_OPEN.
func (s *Service) Close(ctx context.Context, sessionID id.ID, countedAmount types.Money, closedBy id.ID, notes string) (*Session, error) {
	if countedAmount.IsNegative() {
		return nil, apperror.NewValidation("counted amount cannot be negative")
	}

	var closed *Session
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		session, err := s.repo.GetByIDForUpdate(ctx, sessionID)
		if err != nil {
			return err
		}
		if !session.IsOpen() {
			return apperror.NewSessionNotOpen(sessionID.String())
		}

		expected := session.OpeningBalance.Add(session.CashSalesTotal)
		discrepancy := countedAmount.Sub(expected)
		now := time.Now().UTC()

		session.Status = StatusClosed
		session.CountedAmount = &countedAmount
		session.ExpectedAmount = &expected
		session.Discrepancy = &discrepancy
		session.ClosedAt = &now
		session.ClosedBy = &closedBy
		if notes != "" {
			session.Notes = notes
		}

		if err := s.repo.Update(ctx, session); err != nil {
			return fmt.Errorf("update session: %w", err)
		}

		closed = session
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "closed cash session",
		"session_id", closed.ID,
		"register_id", closed.RegisterID,
		"expected", closed.ExpectedAmount,
		"counted", closed.CountedAmount,
		"discrepancy", closed.Discrepancy,
	)

	return closed, nil
}

// GetByID returns a session by id.
func (s *Service) GetByID(ctx context.Context, sessionID id.ID) (*Session, error) {
	return s.repo.GetByID(ctx, sessionID)
}

// GetOpenByRegister returns the open session for a register.
func (s *Service) GetOpenByRegister(ctx context.Context, registerID string) (*Session, error) {
	return s.repo.GetOpenByRegister(ctx, registerID)
}

// List returns sessions matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Session, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	return s.repo.List(ctx, filter)
}
