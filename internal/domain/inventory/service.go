package inventory

import (
	"context"
	"fmt"
	"time"

	"commercia/internal/core/apperror"
	"commercia/internal/core/id"
	"commercia/internal/core/types"
	"commercia/pkg/logger"
)

// Adjustment is a single product quantity change request.
type Adjustment struct {
	ProductID id.ID
	Quantity  types.Quantity
}

// Service provides business operations for the stock register.
// Transactions are managed by the caller (completion engine).
type Service struct {
	repo Repository
}

// NewService creates a new stock register service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Consume decreases stock for the given products with pessimistic locking.
// All balances are locked and validated before any movement is written, so
// a shortage on any line leaves the register untouched.
func (s *Service) Consume(ctx context.Context, recorderID id.ID, recorderKind string, period time.Time, items []Adjustment) error {
	if err := validateAdjustments(items); err != nil {
		return err
	}

	for _, item := range items {
		balance, err := s.repo.GetBalanceForUpdate(ctx, item.ProductID)
		if err != nil {
			return fmt.Errorf("get balance for %s: %w", item.ProductID, err)
		}

		if balance.Quantity < item.Quantity {
			return apperror.NewInsufficientStock(
				item.ProductID.String(),
				item.Quantity.Float64(),
				balance.Quantity.Float64(),
			)
		}
	}

	movements := make([]Movement, 0, len(items))
	for _, item := range items {
		movements = append(movements, NewMovement(recorderID, recorderKind, period, RecordTypeExpense, item.ProductID, item.Quantity))
	}
	if err := s.repo.CreateMovements(ctx, movements); err != nil {
		return fmt.Errorf("create movements: %w", err)
	}

	for _, item := range items {
		if err := s.repo.ApplyDelta(ctx, item.ProductID, item.Quantity.Neg()); err != nil {
			return fmt.Errorf("apply delta for %s: %w", item.ProductID, err)
		}
	}

	logger.Info(ctx, "consumed stock",
		"recorder_id", recorderID,
		"lines", len(items),
	)

	return nil
}

// Restock increases stock for the given products.
func (s *Service) Restock(ctx context.Context, recorderID id.ID, recorderKind string, period time.Time, items []Adjustment) error {
	if err := validateAdjustments(items); err != nil {
		return err
	}

	movements := make([]Movement, 0, len(items))
	for _, item := range items {
		movements = append(movements, NewMovement(recorderID, recorderKind, period, RecordTypeReceipt, item.ProductID, item.Quantity))
	}
	if err := s.repo.CreateMovements(ctx, movements); err != nil {
		return fmt.Errorf("create movements: %w", err)
	}

	for _, item := range items {
		if err := s.repo.ApplyDelta(ctx, item.ProductID, item.Quantity); err != nil {
			return fmt.Errorf("apply delta for %s: %w", item.ProductID, err)
		}
	}

	logger.Info(ctx, "restocked",
		"recorder_id", recorderID,
		"lines", len(items),
	)

	return nil
}

// GetAvailability returns the available quantity for a product.
// Missing balance rows read as zero.
func (s *Service) GetAvailability(ctx context.Context, productID id.ID) (types.Quantity, error) {
	balance, err := s.repo.GetBalance(ctx, productID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return balance.Quantity, nil
}

// GetBalances returns current balances matching the filter.
func (s *Service) GetBalances(ctx context.Context, filter BalanceFilter) ([]Balance, error) {
	return s.repo.GetBalances(ctx, filter)
}

// GetMovementHistory returns the movement history for a product.
func (s *Service) GetMovementHistory(ctx context.Context, productID id.ID, filter MovementFilter) ([]Movement, error) {
	return s.repo.GetMovementHistory(ctx, productID, filter)
}

func validateAdjustments(items []Adjustment) error {
	for i, item := range items {
		if id.IsNil(item.ProductID) {
			return apperror.NewValidation(fmt.Sprintf("adjustment %d: product_id is required", i))
		}
		if !item.Quantity.IsPositive() {
			return apperror.NewValidation(fmt.Sprintf("adjustment %d: quantity must be positive", i))
		}
	}
	return nil
}
