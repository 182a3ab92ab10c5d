package dto

import (
	"net/http"

	"github.com/pos/backend/internal/domain/shared"
)

// Error code constants for interface-level failures.
// Domain errors keep their own codes; only the kind decides the status.
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "INTERNAL_ERROR"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeValidation is used when request binding or validation fails
	ErrCodeValidation = "VALIDATION_ERROR"
	// ErrCodeUnauthorized is used when tenant or user identification is missing
	ErrCodeUnauthorized = "UNAUTHORIZED"
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "NOT_FOUND"
	// ErrCodeRequestTooLarge is used when the request body exceeds the limit
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
)

// kindHTTPStatus maps domain error kinds to HTTP status codes.
// Conflict and concurrency both answer 409; clients tell them apart by
// the error code and retry only concurrency failures.
var kindHTTPStatus = map[shared.ErrorKind]int{
	shared.KindNotFound:    http.StatusNotFound,
	shared.KindValidation:  http.StatusBadRequest,
	shared.KindConflict:    http.StatusConflict,
	shared.KindConcurrency: http.StatusConflict,
	shared.KindInternal:    http.StatusInternalServerError,
}

// StatusForKind returns the HTTP status code for a domain error kind.
// Unknown kinds answer 500.
func StatusForKind(kind shared.ErrorKind) int {
	if status, ok := kindHTTPStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// StatusForError returns the HTTP status for any error, classifying
// non-domain errors as internal.
func StatusForError(err error) int {
	return StatusForKind(shared.KindOf(err))
}
