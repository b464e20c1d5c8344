// Package document provides the generic commercial document aggregate.
//
// A Document is a tagged union over Kind: a Sale, a ServiceOrder, a Quote
// and a ProductionOrder share one shape (header, ordered lines, discount,
// status, derived totals) and differ only in their state machine and in
// the side effects completion produces.
package document

import (
	"context"
	"time"

	"commercia/internal/core/apperror"
	"commercia/internal/core/entity"
	"commercia/internal/core/id"
	"commercia/internal/core/types"
)

// Kind discriminates the document variants.
type Kind string

const (
	KindSale            Kind = "sale"
	KindServiceOrder    Kind = "service_order"
	KindQuote           Kind = "quote"
	KindProductionOrder Kind = "production_order"
)

// Valid reports whether k is a known document kind.
func (k Kind) Valid() bool {
	switch k {
	case KindSale, KindServiceOrder, KindQuote, KindProductionOrder:
		return true
	}
	return false
}

// NumberPrefix returns the numerator prefix for the kind.
func (k Kind) NumberPrefix() string {
	switch k {
	case KindSale:
		return "SL"
	case KindServiceOrder:
		return "OS"
	case KindQuote:
		return "QT"
	case KindProductionOrder:
		return "OP"
	}
	return "DOC"
}

// PaymentMethod is how a Sale settles. Only cash sales feed the cash session.
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentCard     PaymentMethod = "card"
	PaymentTransfer PaymentMethod = "transfer"
)

// Document is the commercial document aggregate.
type Document struct {
	entity.BaseDocument

	// Number is auto-generated, unique within kind+year
	Number string `db:"number" json:"number"`

	Kind   Kind   `db:"kind" json:"kind"`
	Status Status `db:"status" json:"status"`

	// Date is the business date of the document
	Date time.Time `db:"date" json:"date"`

	// ClientID links the counterparty (customer for sales/quotes,
	// requester for service orders). Optional.
	ClientID *id.ID `db:"client_id" json:"clientId,omitempty"`

	// ClientName is a display-name stamp resolved at creation time;
	// it carries no invariants.
	ClientName string `db:"client_name" json:"clientName,omitempty"`

	// Discount is subtracted from the sum of line subtotals.
	// Always >= 0; completion rejects discounts that exceed the subtotal.
	Discount types.Money `db:"discount" json:"discount"`

	// Total = max(0, sum(line subtotals) - discount), recomputed
	// server-side and never trusted from input.
	Total types.Money `db:"total" json:"total"`

	// Sale-only fields
	PaymentMethod PaymentMethod `db:"payment_method" json:"paymentMethod,omitempty"`
	RegisterID    string        `db:"register_id" json:"registerId,omitempty"`

	// Quote-only: set exactly once, by the conversion engine.
	ConvertedToID *id.ID `db:"converted_to_id" json:"convertedToId,omitempty"`

	// ProductionOrder-only: the finished good restocked on completion.
	// Lines of a production order are the raw materials consumed.
	OutputProductID *id.ID         `db:"output_product_id" json:"outputProductId,omitempty"`
	OutputQuantity  types.Quantity `db:"output_quantity" json:"outputQuantity,omitempty"`

	// CompletedAt is set by the completion engine, never by clients.
	CompletedAt *time.Time `db:"completed_at" json:"completedAt,omitempty"`

	Comment string `db:"comment" json:"comment,omitempty"`

	// Table part
	Lines []Line `db:"-" json:"lines"`
}

// Line is a quantity × unit-price line item.
type Line struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	// ProductID is optional: free-text lines (labor, fees) carry none
	// and never touch inventory.
	ProductID   *id.ID         `db:"product_id" json:"productId,omitempty"`
	Description string         `db:"description" json:"description"`
	Quantity    types.Quantity `db:"quantity" json:"quantity"`
	UnitPrice   types.Money    `db:"unit_price" json:"unitPrice"`

	// Subtotal = Quantity × UnitPrice, recomputed on every mutation.
	Subtotal types.Money `db:"subtotal" json:"subtotal"`
}

// New creates a document of the given kind in its initial status.
func New(kind Kind) *Document {
	return &Document{
		BaseDocument: entity.NewBaseDocument(),
		Kind:         kind,
		Status:       kind.InitialStatus(),
		Date:         time.Now().UTC(),
		Discount:     types.ZeroMoney(),
		Total:        types.ZeroMoney(),
		Lines:        make([]Line, 0),
	}
}

// AddLine appends a line and recalculates totals.
func (d *Document) AddLine(productID *id.ID, description string, quantity types.Quantity, unitPrice types.Money) {
	line := Line{
		LineID:      id.New(),
		LineNo:      len(d.Lines) + 1,
		ProductID:   productID,
		Description: description,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		Subtotal:    unitPrice.Mul(quantity.Decimal()),
	}
	d.Lines = append(d.Lines, line)
	d.RecalculateTotals()
}

// ReplaceLines swaps the table part and recalculates totals.
// Line numbers and subtotals are normalized; client-supplied subtotals
// are discarded.
func (d *Document) ReplaceLines(lines []Line) {
	d.Lines = make([]Line, 0, len(lines))
	for _, l := range lines {
		d.AddLine(l.ProductID, l.Description, l.Quantity, l.UnitPrice)
	}
}

// LinesSubtotal returns the sum of recomputed line subtotals.
func (d *Document) LinesSubtotal() types.Money {
	sum := types.ZeroMoney()
	for _, l := range d.Lines {
		sum = sum.Add(l.Subtotal)
	}
	return sum
}

// RecalculateTotals recomputes every line subtotal and the document total.
func (d *Document) RecalculateTotals() {
	for i := range d.Lines {
		d.Lines[i].LineNo = i + 1
		d.Lines[i].Subtotal = d.Lines[i].UnitPrice.Mul(d.Lines[i].Quantity.Decimal())
	}
	total := d.LinesSubtotal().Sub(d.Discount)
	if total.IsNegative() {
		total = types.ZeroMoney()
	}
	d.Total = total
}

// IsCompleted reports whether the document reached its terminal success state.
func (d *Document) IsCompleted() bool {
	return d.Status == StatusCompleted
}

// IsCashSale reports whether completing this document must feed a cash session.
func (d *Document) IsCashSale() bool {
	return d.Kind == KindSale && d.PaymentMethod == PaymentCash
}

// Validate implements entity.Validatable.
func (d *Document) Validate(ctx context.Context) error {
	if !d.Kind.Valid() {
		return apperror.NewValidation("unknown document kind").
			WithDetail("field", "kind").WithDetail("value", string(d.Kind))
	}

	if d.Date.IsZero() {
		return apperror.NewValidation("date is required").
			WithDetail("field", "date")
	}

	if d.Discount.IsNegative() {
		return apperror.NewValidation("discount must not be negative").
			WithDetail("field", "discount")
	}

	for i, line := range d.Lines {
		if !line.Quantity.IsPositive() {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", "lines").WithDetail("lineNo", i+1)
		}
		if line.UnitPrice.IsNegative() {
			return apperror.NewValidation("unit price must not be negative").
				WithDetail("field", "lines").WithDetail("lineNo", i+1)
		}
	}

	// A draft with no lines has nothing priced yet; once lines exist the
	// discount must not exceed their subtotal. Completion re-checks this.
	if len(d.Lines) > 0 {
		if subtotal := d.LinesSubtotal(); d.Discount.GreaterThan(subtotal) {
			return apperror.NewInvalidDiscount(d.Discount.String(), subtotal.String())
		}
	}

	if d.Kind == KindSale && d.PaymentMethod != "" {
		switch d.PaymentMethod {
		case PaymentCash, PaymentCard, PaymentTransfer:
		default:
			return apperror.NewValidation("unknown payment method").
				WithDetail("field", "paymentMethod").WithDetail("value", string(d.PaymentMethod))
		}
	}

	if d.Kind == KindProductionOrder {
		if d.OutputProductID == nil || id.IsNil(*d.OutputProductID) {
			return apperror.NewValidation("output product is required").
				WithDetail("field", "outputProductId")
		}
		if !d.OutputQuantity.IsPositive() {
			return apperror.NewValidation("output quantity must be positive").
				WithDetail("field", "outputQuantity")
		}
	}

	return nil
}

var _ entity.Validatable = (*Document)(nil)
