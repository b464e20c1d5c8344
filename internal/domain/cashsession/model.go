// Package cashsession manages cash register sessions.
//
// At most one session per register can be open at a time. Completing a
// cash sale adds its total to the open session; closing the session
// compares the counted drawer amount against the expected amount.
package cashsession

import (
	"time"

	"commercia/internal/core/apperror"
	"commercia/internal/core/entity"
	"commercia/internal/core/id"
	"commercia/internal/core/types"
)

// Status of a cash session.
type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

// Session is one open-to-close period of a cash register.
type Session struct {
	entity.BaseEntity

	// RegisterID identifies the physical cash register
	RegisterID string `db:"register_id" json:"registerId"`

	Status Status `db:"status" json:"status"`

	// OpeningBalance is the cash float counted at opening
	OpeningBalance types.Money `db:"opening_balance" json:"openingBalance"`

	// CashSalesTotal accumulates the totals of completed cash sales.
	// Updated atomically in storage, never recomputed in memory.
	CashSalesTotal types.Money `db:"cash_sales_total" json:"cashSalesTotal"`

	// CountedAmount is the drawer amount counted at closing
	CountedAmount *types.Money `db:"counted_amount" json:"countedAmount,omitempty"`

	// ExpectedAmount = OpeningBalance + CashSalesTotal, fixed at closing
	ExpectedAmount *types.Money `db:"expected_amount" json:"expectedAmount,omitempty"`

	// Discrepancy = CountedAmount - ExpectedAmount, fixed at closing.
	// Negative means missing cash.
	Discrepancy *types.Money `db:"discrepancy" json:"discrepancy,omitempty"`

	OpenedAt time.Time  `db:"opened_at" json:"openedAt"`
	ClosedAt *time.Time `db:"closed_at" json:"closedAt,omitempty"`

	OpenedBy id.ID  `db:"opened_by" json:"openedBy"`
	ClosedBy *id.ID `db:"closed_by" json:"closedBy,omitempty"`

	Notes string `db:"notes" json:"notes"`
}

// New creates an open session for a register.
func New(registerID string, openingBalance types.Money, openedBy id.ID) *Session {
	return &Session{
		BaseEntity:     entity.NewBaseEntity(),
		RegisterID:     registerID,
		Status:         StatusOpen,
		OpeningBalance: openingBalance,
		CashSalesTotal: types.ZeroMoney(),
		OpenedAt:       time.Now().UTC(),
		OpenedBy:       openedBy,
	}
}

// IsOpen reports whether the session still accepts cash sales.
func (s *Session) IsOpen() bool {
	return s.Status == StatusOpen
}

// Validate checks invariants on the session itself.
func (s *Session) Validate() error {
	if s.RegisterID == "" {
		return apperror.NewValidation("register_id is required")
	}
	if s.OpeningBalance.IsNegative() {
		return apperror.NewValidation("opening balance cannot be negative")
	}
	if s.Status != StatusOpen && s.Status != StatusClosed {
		return apperror.NewValidation("invalid session status")
	}
	return nil
}
