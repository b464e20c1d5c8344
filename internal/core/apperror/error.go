// Package apperror provides structured error handling following RFC 7807 Problem Details.
// All business errors must use AppError for consistent API responses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes following domain-driven design
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"
	CodeDatabase = "DATABASE_ERROR"
	CodeTimeout  = "TIMEOUT_ERROR"

	// Validation errors (400)
	CodeValidation   = "VALIDATION_ERROR"
	CodeInvalidInput = "INVALID_INPUT"

	// Business rule violations (422)
	CodeBusinessRule      = "BUSINESS_RULE_VIOLATION"
	CodeInvalidState      = "INVALID_STATE"
	CodeEmptyDocument     = "EMPTY_DOCUMENT"
	CodeInvalidDiscount   = "INVALID_DISCOUNT"
	CodeInsufficientStock = "INSUFFICIENT_STOCK"
	CodePostingError      = "POSTING_ERROR"

	// Conversion misuse (409)
	CodeAlreadyConverted = "ALREADY_CONVERTED"
	CodeNotConvertible   = "NOT_CONVERTIBLE"

	// Cash session misuse (409)
	CodeSessionAlreadyOpen = "SESSION_ALREADY_OPEN"
	CodeSessionNotOpen     = "SESSION_NOT_OPEN"

	// Concurrency (409)
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"

	// Authorization errors (401, 403)
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"

	// Conflict (409)
	CodeConflict    = "CONFLICT"
	CodeDuplicate   = "DUPLICATE_ENTRY"
	CodeIdempotency = "IDEMPOTENCY_CONFLICT"
)

// AppError is the standard error type for the platform.
// It implements the error interface and provides structured details for API responses.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (field errors, quantities, etc.)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error.
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions for common errors ---

// NewValidation creates a validation error (400).
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFound creates a not found error (404).
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewBusinessRule creates a business rule violation error (422).
func NewBusinessRule(code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// NewInvalidState is returned when the requested transition is not
// permitted from the document's current status.
func NewInvalidState(kind, current, requested string) *AppError {
	return &AppError{
		Code:       CodeInvalidState,
		Message:    fmt.Sprintf("transition to %q is not permitted from status %q", requested, current),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"kind": kind, "current_status": current, "requested_status": requested},
	}
}

// NewEmptyDocument is returned when completion is requested for a document
// with no line items.
func NewEmptyDocument(documentID string) *AppError {
	return &AppError{
		Code:       CodeEmptyDocument,
		Message:    "document has no lines",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"document_id": documentID},
	}
}

// NewInvalidDiscount is returned when the discount exceeds the sum of line
// subtotals. Over-discounts are rejected, never silently clamped.
func NewInvalidDiscount(discount, subtotal string) *AppError {
	return &AppError{
		Code:       CodeInvalidDiscount,
		Message:    "discount exceeds total",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"discount": discount, "lines_subtotal": subtotal},
	}
}

// NewInsufficientStock creates a stock shortage error naming the product.
func NewInsufficientStock(productID string, requested, available float64) *AppError {
	return &AppError{
		Code:       CodeInsufficientStock,
		Message:    "insufficient stock",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"product_id": productID,
			"requested":  requested,
			"available":  available,
		},
	}
}

// NewAlreadyConverted is returned on a second conversion attempt for a quote.
func NewAlreadyConverted(quoteID, targetID string) *AppError {
	return &AppError{
		Code:       CodeAlreadyConverted,
		Message:    "quote has already been converted",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"quote_id": quoteID, "converted_to": targetID},
	}
}

// NewNotConvertible is returned when a quote is in a status that does not
// allow conversion (rejected, for example).
func NewNotConvertible(quoteID, status string) *AppError {
	return &AppError{
		Code:       CodeNotConvertible,
		Message:    fmt.Sprintf("quote in status %q cannot be converted", status),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"quote_id": quoteID, "status": status},
	}
}

// NewSessionAlreadyOpen is returned when opening a register that already
// has an open cash session.
func NewSessionAlreadyOpen(registerID string) *AppError {
	return &AppError{
		Code:       CodeSessionAlreadyOpen,
		Message:    "a cash session is already open for this register",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"register_id": registerID},
	}
}

// NewSessionNotOpen is returned for operations that require an open session.
func NewSessionNotOpen(sessionID string) *AppError {
	return &AppError{
		Code:       CodeSessionNotOpen,
		Message:    "cash session is not open",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"session_id": sessionID},
	}
}

// NewPostingError wraps a financial-ledger failure. Treated as transient:
// the unit of work rolls back and the caller may retry safely.
func NewPostingError(err error) *AppError {
	return &AppError{
		Code:       CodePostingError,
		Message:    "financial posting failed",
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

// NewConcurrentModification creates an optimistic locking error.
func NewConcurrentModification(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeConcurrentModification,
		Message:    "Record was modified by another user. Please refresh and try again.",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewInternal creates an internal server error (hides details from the client).
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewUnauthorized creates an authentication error (401).
func NewUnauthorized(message string) *AppError {
	return &AppError{
		Code:       CodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewForbidden creates an authorization error (403).
func NewForbidden(message string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

// NewIdempotencyConflict creates an error when the operation is already in progress.
func NewIdempotencyConflict(key string) *AppError {
	return &AppError{
		Code:       CodeIdempotency,
		Message:    "Operation already in progress or completed",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"idempotency_key": key},
	}
}

// NewIdempotencyMismatch is returned when the same idempotency key is reused
// for a different request (different user/operation/body hash).
func NewIdempotencyMismatch(key string) *AppError {
	return &AppError{
		Code:       CodeIdempotency,
		Message:    "Idempotency key mismatch",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"idempotency_key": key},
	}
}

// NewConflict creates a conflict error (409).
func NewConflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// NewDuplicate creates a duplicate entry error (409).
func NewDuplicate(entity, field, value string) *AppError {
	return &AppError{
		Code:       CodeDuplicate,
		Message:    fmt.Sprintf("%s with this %s already exists", entity, field),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "field": field, "value": value},
	}
}

// --- Helper functions ---

// IsAppError checks if err is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts an AppError from the error chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns the appropriate HTTP status for any error.
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// IsNotFound checks if err carries CodeNotFound.
func IsNotFound(err error) bool {
	return HasCode(err, CodeNotFound)
}

// IsConcurrentModification checks if err carries CodeConcurrentModification.
func IsConcurrentModification(err error) bool {
	return HasCode(err, CodeConcurrentModification)
}

// HasCode checks whether err is an AppError with the given code.
func HasCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}
