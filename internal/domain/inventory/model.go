// Package inventory provides the stock accumulation register.
package inventory

import (
	"time"

	"commercia/internal/core/id"
	"commercia/internal/core/types"
)

// RecordType defines movement direction.
type RecordType string

const (
	// RecordTypeReceipt increases balance
	RecordTypeReceipt RecordType = "receipt"
	// RecordTypeExpense decreases balance
	RecordTypeExpense RecordType = "expense"
)

// Movement represents a quantity change recorded by a document.
// Movements are immutable - they are never updated, only deleted and recreated.
type Movement struct {
	// LineID is unique identifier for this movement line (UUIDv7)
	LineID id.ID `db:"line_id" json:"lineId"`

	// RecorderID is the document that created this movement
	RecorderID id.ID `db:"recorder_id" json:"recorderId"`

	// RecorderKind is the document kind (e.g., "sale", "production_order")
	RecorderKind string `db:"recorder_kind" json:"recorderKind"`

	// Period is the business date for the movement
	Period time.Time `db:"period" json:"period"`

	RecordType RecordType `db:"record_type" json:"recordType"`

	ProductID id.ID          `db:"product_id" json:"productId"`
	Quantity  types.Quantity `db:"quantity" json:"quantity"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewMovement creates a movement with a generated LineID.
func NewMovement(recorderID id.ID, recorderKind string, period time.Time, recordType RecordType, productID id.ID, quantity types.Quantity) Movement {
	return Movement{
		LineID:       id.New(),
		RecorderID:   recorderID,
		RecorderKind: recorderKind,
		Period:       period,
		RecordType:   recordType,
		ProductID:    productID,
		Quantity:     quantity,
		CreatedAt:    time.Now().UTC(),
	}
}

// SignedQuantity returns quantity with sign based on record type.
// Receipt = positive, expense = negative.
func (m *Movement) SignedQuantity() types.Quantity {
	if m.RecordType == RecordTypeExpense {
		return m.Quantity.Neg()
	}
	return m.Quantity
}

// Balance is the materialized per-product balance for fast queries.
type Balance struct {
	ProductID id.ID          `db:"product_id" json:"productId"`
	Quantity  types.Quantity `db:"quantity" json:"quantity"`

	LastMovementAt time.Time `db:"last_movement_at" json:"lastMovementAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}
