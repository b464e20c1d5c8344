// Package finance provides the financial ledger register.
package finance

import (
	"time"

	"commercia/internal/core/id"
	"commercia/internal/core/types"
)

// Direction classifies a ledger entry.
type Direction string

const (
	DirectionIncome  Direction = "income"
	DirectionExpense Direction = "expense"
)

// Valid reports whether the direction is a known value.
func (d Direction) Valid() bool {
	return d == DirectionIncome || d == DirectionExpense
}

// Entry is a single immutable ledger record created by a document.
type Entry struct {
	// LineID is unique identifier for this entry (UUIDv7)
	LineID id.ID `db:"line_id" json:"lineId"`

	// DocumentID is the document that produced this entry
	DocumentID id.ID `db:"document_id" json:"documentId"`

	// DocumentKind is the document kind (e.g., "sale", "service_order")
	DocumentKind string `db:"document_kind" json:"documentKind"`

	// Period is the business date of the entry
	Period time.Time `db:"period" json:"period"`

	Direction Direction   `db:"direction" json:"direction"`
	Amount    types.Money `db:"amount" json:"amount"`

	Description string `db:"description" json:"description"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewEntry creates a ledger entry with a generated LineID.
func NewEntry(documentID id.ID, documentKind string, period time.Time, direction Direction, amount types.Money, description string) Entry {
	return Entry{
		LineID:       id.New(),
		DocumentID:   documentID,
		DocumentKind: documentKind,
		Period:       period,
		Direction:    direction,
		Amount:       amount,
		Description:  description,
		CreatedAt:    time.Now().UTC(),
	}
}

// SignedAmount returns the amount with sign based on direction.
// Income = positive, expense = negative.
func (e *Entry) SignedAmount() types.Money {
	if e.Direction == DirectionExpense {
		return e.Amount.Neg()
	}
	return e.Amount
}
