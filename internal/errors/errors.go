// Package errors provides standardized error handling for the archive service.
package errors

import (
	"fmt"
	"net/http"
)

// ErrorCode represents a standardized error code for the archive service.
type ErrorCode string

const (
	// Validation errors
	ARCHIVE_VALIDATION  ErrorCode = "ARCHIVE_VALIDATION"  // Required fields missing or malformed
	ARCHIVE_BAD_REQUEST ErrorCode = "ARCHIVE_BAD_REQUEST" // Bad request

	// Resource errors
	ARCHIVE_NOT_FOUND        ErrorCode = "ARCHIVE_NOT_FOUND"        // Record or asset not found
	ARCHIVE_MEDIA_SIZE       ErrorCode = "ARCHIVE_MEDIA_SIZE"       // Media size limit exceeded
	ARCHIVE_MEDIA_TYPE       ErrorCode = "ARCHIVE_MEDIA_TYPE"       // Media type not allowed
	ARCHIVE_MEDIA_UPLOAD     ErrorCode = "ARCHIVE_MEDIA_UPLOAD"     // Object storage upload failed
	ARCHIVE_MEDIA_LOCAL_ONLY ErrorCode = "ARCHIVE_MEDIA_LOCAL_ONLY" // Placeholder asset has no stored object

	// Server errors
	ARCHIVE_STORE_IO    ErrorCode = "ARCHIVE_STORE_IO"    // Persistence failure
	ARCHIVE_AI_UPSTREAM ErrorCode = "ARCHIVE_AI_UPSTREAM" // Generative-text API failure
	ARCHIVE_INTERNAL    ErrorCode = "ARCHIVE_INTERNAL"    // Internal server error
	ARCHIVE_UNAVAILABLE ErrorCode = "ARCHIVE_UNAVAILABLE" // Service unavailable
)

// Error represents a standardized error response.
type Error struct {
	Code          ErrorCode   `json:"code"`
	Message       string      `json:"message"`
	CorrelationID string      `json:"correlationId"`
	Details       interface{} `json:"details,omitempty"`
	HTTPStatus    int         `json:"-"`
}

// New creates a new Error with the specified code and message.
func New(code ErrorCode, message string, correlationID string) *Error {
	return &Error{
		Code:          code,
		Message:       message,
		CorrelationID: correlationID,
		HTTPStatus:    httpStatusCodeForCode(code),
	}
}

// NewWithDetails creates a new Error with the specified code, message, and details.
// Details carry structured context such as the list of missing fields.
func NewWithDetails(code ErrorCode, message string, correlationID string, details interface{}) *Error {
	return &Error{
		Code:          code,
		Message:       message,
		CorrelationID: correlationID,
		Details:       details,
		HTTPStatus:    httpStatusCodeForCode(code),
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Details != nil {
		return fmt.Sprintf("%s: %s (details: %v)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// httpStatusCodeForCode maps error codes to HTTP status codes.
func httpStatusCodeForCode(code ErrorCode) int {
	switch code {
	case ARCHIVE_VALIDATION, ARCHIVE_BAD_REQUEST, ARCHIVE_MEDIA_SIZE, ARCHIVE_MEDIA_TYPE:
		return http.StatusBadRequest
	case ARCHIVE_NOT_FOUND:
		return http.StatusNotFound
	case ARCHIVE_MEDIA_LOCAL_ONLY:
		return http.StatusConflict
	case ARCHIVE_MEDIA_UPLOAD, ARCHIVE_AI_UPSTREAM:
		return http.StatusBadGateway
	case ARCHIVE_UNAVAILABLE:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
