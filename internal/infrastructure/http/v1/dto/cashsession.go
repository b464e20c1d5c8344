package dto

import (
	"time"

	"commercia/internal/core/types"
	"commercia/internal/domain/cashsession"
)

// --- Request DTOs ---

// OpenSessionRequest opens a cash session for a register.
type OpenSessionRequest struct {
	RegisterID     string `json:"registerId" binding:"required"`
	OpeningBalance string `json:"openingBalance" binding:"required"`
}

// OpeningBalanceMoney parses the opening balance.
func (r *OpenSessionRequest) OpeningBalanceMoney() (types.Money, error) {
	return types.NewMoneyFromString(r.OpeningBalance)
}

// CloseSessionRequest closes a cash session with the counted drawer amount.
type CloseSessionRequest struct {
	CountedAmount string `json:"countedAmount" binding:"required"`
	Notes         string `json:"notes,omitempty"`
}

// CountedAmountMoney parses the counted amount.
func (r *CloseSessionRequest) CountedAmountMoney() (types.Money, error) {
	return types.NewMoneyFromString(r.CountedAmount)
}

// SessionListQuery contains session list parameters.
type SessionListQuery struct {
	PaginationRequest
	TimeRangeQuery
	RegisterID string `form:"registerId"`
	Status     string `form:"status"`
}

// ToFilter converts the query into a session list filter.
func (q *SessionListQuery) ToFilter() cashsession.ListFilter {
	q.Defaults()

	filter := cashsession.ListFilter{
		RegisterID: q.RegisterID,
		FromDate:   q.From,
		ToDate:     q.To,
		Limit:      q.Limit,
		Offset:     q.Offset,
	}
	if q.Status != "" {
		status := cashsession.Status(q.Status)
		filter.Status = &status
	}
	return filter
}

// --- Response DTOs ---

// SessionResponse represents a cash session.
type SessionResponse struct {
	ID             string       `json:"id"`
	RegisterID     string       `json:"registerId"`
	Status         string       `json:"status"`
	OpeningBalance types.Money  `json:"openingBalance"`
	CashSalesTotal types.Money  `json:"cashSalesTotal"`
	CountedAmount  *types.Money `json:"countedAmount,omitempty"`
	ExpectedAmount *types.Money `json:"expectedAmount,omitempty"`
	Discrepancy    *types.Money `json:"discrepancy,omitempty"`
	OpenedAt       time.Time    `json:"openedAt"`
	ClosedAt       *time.Time   `json:"closedAt,omitempty"`
	OpenedBy       string       `json:"openedBy"`
	ClosedBy       *string      `json:"closedBy,omitempty"`
	Notes          string       `json:"notes,omitempty"`
	Version        int          `json:"version"`
}

// FromSession creates SessionResponse from the domain session.
func FromSession(s *cashsession.Session) SessionResponse {
	resp := SessionResponse{
		ID:             s.ID.String(),
		RegisterID:     s.RegisterID,
		Status:         string(s.Status),
		OpeningBalance: s.OpeningBalance,
		CashSalesTotal: s.CashSalesTotal,
		CountedAmount:  s.CountedAmount,
		ExpectedAmount: s.ExpectedAmount,
		Discrepancy:    s.Discrepancy,
		OpenedAt:       s.OpenedAt,
		ClosedAt:       s.ClosedAt,
		OpenedBy:       s.OpenedBy.String(),
		Notes:          s.Notes,
		Version:        s.Version,
	}
	if s.ClosedBy != nil {
		closedBy := s.ClosedBy.String()
		resp.ClosedBy = &closedBy
	}
	return resp
}
