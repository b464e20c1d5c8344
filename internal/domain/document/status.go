package document

import (
	"commercia/internal/core/apperror"
)

// Status is the lifecycle state of a document. The sets differ per kind
// but the shape is shared: a run of mutable working states, exactly one
// terminal success state whose entry performs side effects, and terminal
// failure states that are pure status writes.
type Status string

const (
	// Sale
	StatusDraft    Status = "draft"
	StatusOpen     Status = "open" // also ServiceOrder/Quote initial
	StatusCanceled Status = "canceled"

	// ServiceOrder
	StatusInProgress Status = "in_progress"
	StatusWaiting    Status = "waiting"

	// Quote
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusConverted Status = "converted"

	// ProductionOrder
	StatusPlanned      Status = "planned"
	StatusInProduction Status = "in_production"

	// Terminal success for sale/service_order/production_order
	StatusCompleted Status = "completed"
)

// InitialStatus returns the status a freshly created document starts in.
func (k Kind) InitialStatus() Status {
	switch k {
	case KindSale:
		return StatusDraft
	case KindProductionOrder:
		return StatusPlanned
	default:
		return StatusOpen
	}
}

// transitions holds the pure status moves per kind. Entering
// StatusCompleted is deliberately absent: only the completion engine
// performs that move, and only StatusConverted is reserved the same way
// for the conversion engine.
var transitions = map[Kind]map[Status][]Status{
	KindSale: {
		StatusDraft: {StatusOpen, StatusCanceled},
		StatusOpen:  {StatusCanceled},
	},
	KindServiceOrder: {
		StatusOpen:       {StatusInProgress, StatusWaiting},
		StatusInProgress: {StatusWaiting},
		StatusWaiting:    {StatusInProgress},
	},
	KindQuote: {
		StatusOpen: {StatusApproved, StatusRejected},
	},
	KindProductionOrder: {
		StatusPlanned: {StatusInProduction},
	},
}

// completableFrom lists the statuses the completion engine accepts.
// Draft sales with lines are functionally open, so both qualify.
var completableFrom = map[Kind][]Status{
	KindSale:            {StatusDraft, StatusOpen},
	KindServiceOrder:    {StatusInProgress},
	KindProductionOrder: {StatusInProduction},
}

// convertibleFrom lists quote statuses the conversion engine accepts.
var convertibleFrom = []Status{StatusOpen, StatusApproved}

// mutableStatuses are the statuses in which header fields and lines may
// change. Any other status makes the document read-only.
var mutableStatuses = map[Status]bool{
	StatusDraft:   true,
	StatusOpen:    true,
	StatusPlanned: true,
}

// CanTransition checks a pure status move (no side effects).
func (d *Document) CanTransition(to Status) error {
	for _, allowed := range transitions[d.Kind][d.Status] {
		if allowed == to {
			return nil
		}
	}
	return apperror.NewInvalidState(string(d.Kind), string(d.Status), string(to))
}

// CanComplete checks whether the completion engine may act on this document.
func (d *Document) CanComplete() error {
	if d.DeletionMark {
		return apperror.NewBusinessRule(
			apperror.CodeInvalidState,
			"document is marked for deletion",
		).WithDetail("document_id", d.ID.String())
	}
	for _, s := range completableFrom[d.Kind] {
		if d.Status == s {
			return nil
		}
	}
	return apperror.NewInvalidState(string(d.Kind), string(d.Status), string(StatusCompleted))
}

// CanConvert checks whether the conversion engine may act on this quote.
// Returns AlreadyConverted / NotConvertible per the conversion contract.
func (d *Document) CanConvert() error {
	if d.DeletionMark {
		return apperror.NewNotConvertible(d.ID.String(), string(d.Status)).
			WithDetail("reason", "marked for deletion")
	}
	if d.Kind != KindQuote {
		return apperror.NewNotConvertible(d.ID.String(), string(d.Status)).
			WithDetail("kind", string(d.Kind))
	}
	if d.Status == StatusConverted {
		target := ""
		if d.ConvertedToID != nil {
			target = d.ConvertedToID.String()
		}
		return apperror.NewAlreadyConverted(d.ID.String(), target)
	}
	for _, s := range convertibleFrom {
		if d.Status == s {
			return nil
		}
	}
	return apperror.NewNotConvertible(d.ID.String(), string(d.Status))
}

// CanCancel checks whether the document may be canceled. Cancellation is
// a pure status write: it never touches inventory or the ledger.
func (d *Document) CanCancel() error {
	if d.Kind != KindSale {
		return apperror.NewInvalidState(string(d.Kind), string(d.Status), string(StatusCanceled))
	}
	return d.CanTransition(StatusCanceled)
}

// CanModify checks whether header fields may change.
func (d *Document) CanModify() error {
	if mutableStatuses[d.Status] {
		return nil
	}
	return apperror.NewBusinessRule(
		apperror.CodeInvalidState,
		"document is read-only in its current status",
	).WithDetail("document_id", d.ID.String()).WithDetail("status", string(d.Status))
}

// CanModifyLines checks whether the table part may change. In-production
// orders additionally allow line edits for cost adjustment.
func (d *Document) CanModifyLines() error {
	if d.Status == StatusInProduction {
		return nil
	}
	return d.CanModify()
}

// CanDelete checks whether the document may be (soft-)deleted. Only
// documents still in a mutable working status qualify; completed,
// converted and canceled documents are permanent.
func (d *Document) CanDelete() error {
	if mutableStatuses[d.Status] {
		return nil
	}
	return apperror.NewBusinessRule(
		apperror.CodeInvalidState,
		"cannot delete a document in its current status",
	).WithDetail("document_id", d.ID.String()).WithDetail("status", string(d.Status))
}
