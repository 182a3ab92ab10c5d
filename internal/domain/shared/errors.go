package shared

import "errors"

// ErrorKind classifies a domain error for transport mapping and retry decisions
type ErrorKind string

const (
	// KindNotFound means the requested resource does not exist
	KindNotFound ErrorKind = "NOT_FOUND"
	// KindValidation means the input was rejected before any state change
	KindValidation ErrorKind = "VALIDATION"
	// KindConflict means the operation clashes with current state (duplicate open shift,
	// insufficient stock, over-refund); not retryable without changing the request
	KindConflict ErrorKind = "CONFLICT"
	// KindConcurrency means lock contention or a serialization failure;
	// the whole operation is safe to retry
	KindConcurrency ErrorKind = "CONCURRENCY"
	// KindInternal means an unexpected persistence or infrastructure failure
	KindInternal ErrorKind = "INTERNAL"
)

// DomainError represents a domain-level error
type DomainError struct {
	Kind    ErrorKind `json:"kind"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Retryable reports whether retrying the whole operation may succeed
func (e *DomainError) Retryable() bool {
	return e.Kind == KindConcurrency
}

// NewDomainError creates a new domain error of the given kind
func NewDomainError(kind ErrorKind, code, message string) *DomainError {
	return &DomainError{Kind: kind, Code: code, Message: message}
}

// NewValidationError creates a validation error
func NewValidationError(code, message string) *DomainError {
	return NewDomainError(KindValidation, code, message)
}

// NewConflictError creates a conflict error
func NewConflictError(code, message string) *DomainError {
	return NewDomainError(KindConflict, code, message)
}

// NewConcurrencyError creates a retryable concurrency error
func NewConcurrencyError(code, message string) *DomainError {
	return NewDomainError(KindConcurrency, code, message)
}

// NewInternalError creates an internal error
func NewInternalError(code, message string) *DomainError {
	return NewDomainError(KindInternal, code, message)
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError(KindNotFound, "NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewConflictError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewValidationError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewConcurrencyError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrInvalidState        = NewConflictError("INVALID_STATE", "Operation not allowed in current state")
	ErrInsufficientStock   = NewConflictError("INSUFFICIENT_STOCK", "Insufficient stock available")
	ErrOverRefund          = NewConflictError("OVER_REFUND", "Refund quantity exceeds remaining refundable quantity")
	ErrDuplicateOpenShift  = NewConflictError("DUPLICATE_OPEN_SHIFT", "Cashier already has an open shift")
	ErrShiftClosed         = NewConflictError("SHIFT_CLOSED", "Shift is already closed")
)

// KindOf returns the error kind of err if it is (or wraps) a DomainError,
// KindInternal otherwise
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// IsKind reports whether err is (or wraps) a DomainError of the given kind
func IsKind(err error, kind ErrorKind) bool {
	var de *DomainError
	return errors.As(err, &de) && de.Kind == kind
}
