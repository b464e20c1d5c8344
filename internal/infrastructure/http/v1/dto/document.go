package dto

import (
	"time"

	"commercia/internal/core/id"
	"commercia/internal/core/types"
	"commercia/internal/domain/document"
)

// --- Request DTOs ---

type CreateDocumentRequest struct {
	Kind     string     `json:"kind" binding:"required"`
	Number   string     `json:"number,omitempty"`
	Date     *time.Time `json:"date,omitempty"`
	ClientID *string    `json:"clientId,omitempty"`
	Discount *string    `json:"discount,omitempty"`
	Comment  string     `json:"comment,omitempty"`

	// Sale-only
	PaymentMethod string `json:"paymentMethod,omitempty"`
	RegisterID    string `json:"registerId,omitempty"`

	// ProductionOrder-only
	OutputProductID *string  `json:"outputProductId,omitempty"`
	OutputQuantity  *float64 `json:"outputQuantity,omitempty"`

	Lines []DocumentLineRequest `json:"lines" binding:"omitempty,dive"`
}

type DocumentLineRequest struct {
	ProductID   *string `json:"productId,omitempty"`
	Description string  `json:"description,omitempty"`
	Quantity    float64 `json:"quantity" binding:"required,gt=0"`
	UnitPrice   string  `json:"unitPrice" binding:"required"`
}

// ToEntity builds the document aggregate. Monetary strings that fail to
// parse come out as zero; Validate on the aggregate catches the rest.
func (r *CreateDocumentRequest) ToEntity() *document.Document {
	doc := document.New(document.Kind(r.Kind))
	doc.Number = r.Number
	if r.Date != nil {
		doc.Date = *r.Date
	}
	if r.ClientID != nil && *r.ClientID != "" {
		if clientID, err := id.Parse(*r.ClientID); err == nil {
			doc.ClientID = &clientID
		}
	}
	if r.Discount != nil {
		if discount, err := types.NewMoneyFromString(*r.Discount); err == nil {
			doc.Discount = discount
		}
	}
	doc.Comment = r.Comment
	doc.PaymentMethod = document.PaymentMethod(r.PaymentMethod)
	doc.RegisterID = r.RegisterID

	if r.OutputProductID != nil && *r.OutputProductID != "" {
		if productID, err := id.Parse(*r.OutputProductID); err == nil {
			doc.OutputProductID = &productID
		}
	}
	if r.OutputQuantity != nil {
		doc.OutputQuantity = types.NewQuantityFromFloat64(*r.OutputQuantity)
	}

	for _, line := range r.Lines {
		doc.AddLine(line.productID(), line.Description, types.NewQuantityFromFloat64(line.Quantity), line.unitPrice())
	}

	return doc
}

func (l *DocumentLineRequest) productID() *id.ID {
	if l.ProductID == nil || *l.ProductID == "" {
		return nil
	}
	productID, err := id.Parse(*l.ProductID)
	if err != nil {
		return nil
	}
	return &productID
}

func (l *DocumentLineRequest) unitPrice() types.Money {
	price, err := types.NewMoneyFromString(l.UnitPrice)
	if err != nil {
		return types.ZeroMoney()
	}
	return price
}

type UpdateDocumentRequest struct {
	Date     *time.Time `json:"date,omitempty"`
	ClientID *string    `json:"clientId,omitempty"`
	Discount *string    `json:"discount,omitempty"`
	Comment  *string    `json:"comment,omitempty"`

	PaymentMethod *string `json:"paymentMethod,omitempty"`
	RegisterID    *string `json:"registerId,omitempty"`

	OutputProductID *string  `json:"outputProductId,omitempty"`
	OutputQuantity  *float64 `json:"outputQuantity,omitempty"`

	Lines []DocumentLineRequest `json:"lines,omitempty"`

	Version int `json:"version" binding:"required,min=1"`
}

// ApplyTo copies the changed fields onto the stored document.
func (r *UpdateDocumentRequest) ApplyTo(doc *document.Document) {
	if r.Date != nil {
		doc.Date = *r.Date
	}
	if r.ClientID != nil {
		if *r.ClientID == "" {
			doc.ClientID = nil
		} else if clientID, err := id.Parse(*r.ClientID); err == nil {
			doc.ClientID = &clientID
		}
	}
	if r.Discount != nil {
		if discount, err := types.NewMoneyFromString(*r.Discount); err == nil {
			doc.Discount = discount
		}
	}
	if r.Comment != nil {
		doc.Comment = *r.Comment
	}
	if r.PaymentMethod != nil {
		doc.PaymentMethod = document.PaymentMethod(*r.PaymentMethod)
	}
	if r.RegisterID != nil {
		doc.RegisterID = *r.RegisterID
	}
	if r.OutputProductID != nil {
		if *r.OutputProductID == "" {
			doc.OutputProductID = nil
		} else if productID, err := id.Parse(*r.OutputProductID); err == nil {
			doc.OutputProductID = &productID
		}
	}
	if r.OutputQuantity != nil {
		doc.OutputQuantity = types.NewQuantityFromFloat64(*r.OutputQuantity)
	}

	if r.Lines != nil {
		lines := make([]document.Line, 0, len(r.Lines))
		for _, line := range r.Lines {
			lines = append(lines, document.Line{
				ProductID:   line.productID(),
				Description: line.Description,
				Quantity:    types.NewQuantityFromFloat64(line.Quantity),
				UnitPrice:   line.unitPrice(),
			})
		}
		doc.ReplaceLines(lines)
	}

	doc.Version = r.Version
}

// TransitionRequest moves a document to a new status.
type TransitionRequest struct {
	Status string `json:"status" binding:"required"`
}

// ConvertQuoteRequest converts an accepted quote.
type ConvertQuoteRequest struct {
	TargetKind string `json:"targetKind" binding:"required,oneof=sale service_order"`
}

// DocumentListQuery contains document list parameters.
type DocumentListQuery struct {
	PaginationRequest
	TimeRangeQuery
	Kind     string `form:"kind"`
	Status   string `form:"status"`
	ClientID string `form:"clientId"`
	Search   string `form:"search"`
	OrderBy  string `form:"orderBy"`
}

// ToFilter converts the query into a document list filter.
func (q *DocumentListQuery) ToFilter() document.ListFilter {
	q.Defaults()

	filter := document.ListFilter{}
	filter.Search = q.Search
	filter.OrderBy = q.OrderBy
	filter.Limit = q.Limit
	filter.Offset = q.Offset
	filter.DateFrom = q.From
	filter.DateTo = q.To

	if q.Kind != "" {
		kind := document.Kind(q.Kind)
		filter.Kind = &kind
	}
	if q.Status != "" {
		status := document.Status(q.Status)
		filter.Status = &status
	}
	if q.ClientID != "" {
		if clientID, err := id.Parse(q.ClientID); err == nil {
			filter.ClientID = &clientID
		}
	}

	return filter
}

// --- Response DTOs ---

type DocumentResponse struct {
	BaseResponse
	Number        string                 `json:"number"`
	Kind          string                 `json:"kind"`
	Status        string                 `json:"status"`
	Date          time.Time              `json:"date"`
	ClientID      *string                `json:"clientId,omitempty"`
	ClientName    string                 `json:"clientName,omitempty"`
	Discount      types.Money            `json:"discount"`
	Total         types.Money            `json:"total"`
	PaymentMethod string                 `json:"paymentMethod,omitempty"`
	RegisterID    string                 `json:"registerId,omitempty"`
	ConvertedToID *string                `json:"convertedToId,omitempty"`
	OutputProduct *string                `json:"outputProductId,omitempty"`
	OutputQty     types.Quantity         `json:"outputQuantity,omitempty"`
	CompletedAt   *time.Time             `json:"completedAt,omitempty"`
	Comment       string                 `json:"comment,omitempty"`
	CreatedAt     time.Time              `json:"createdAt"`
	UpdatedAt     time.Time              `json:"updatedAt"`
	Lines         []DocumentLineResponse `json:"lines,omitempty"`
}

type DocumentLineResponse struct {
	LineID      string         `json:"lineId"`
	LineNo      int            `json:"lineNo"`
	ProductID   *string        `json:"productId,omitempty"`
	Description string         `json:"description"`
	Quantity    types.Quantity `json:"quantity"`
	UnitPrice   types.Money    `json:"unitPrice"`
	Subtotal    types.Money    `json:"subtotal"`
}

// FromDocument creates DocumentResponse from the aggregate.
func FromDocument(d *document.Document) DocumentResponse {
	resp := DocumentResponse{
		BaseResponse:  FromBaseEntity(d.BaseEntity),
		Number:        d.Number,
		Kind:          string(d.Kind),
		Status:        string(d.Status),
		Date:          d.Date,
		ClientName:    d.ClientName,
		Discount:      d.Discount,
		Total:         d.Total,
		PaymentMethod: string(d.PaymentMethod),
		RegisterID:    d.RegisterID,
		OutputQty:     d.OutputQuantity,
		CompletedAt:   d.CompletedAt,
		Comment:       d.Comment,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
	if d.ClientID != nil {
		clientID := d.ClientID.String()
		resp.ClientID = &clientID
	}
	if d.ConvertedToID != nil {
		convertedTo := d.ConvertedToID.String()
		resp.ConvertedToID = &convertedTo
	}
	if d.OutputProductID != nil {
		outputProduct := d.OutputProductID.String()
		resp.OutputProduct = &outputProduct
	}
	if d.Lines != nil {
		resp.Lines = make([]DocumentLineResponse, len(d.Lines))
		for i, line := range d.Lines {
			resp.Lines[i] = FromDocumentLine(line)
		}
	}
	return resp
}

// FromDocumentLine creates a line response.
func FromDocumentLine(l document.Line) DocumentLineResponse {
	resp := DocumentLineResponse{
		LineID:      l.LineID.String(),
		LineNo:      l.LineNo,
		Description: l.Description,
		Quantity:    l.Quantity,
		UnitPrice:   l.UnitPrice,
		Subtotal:    l.Subtotal,
	}
	if l.ProductID != nil {
		productID := l.ProductID.String()
		resp.ProductID = &productID
	}
	return resp
}
