package dto

import (
	"net/http"

	"github.com/salesflow/backend/internal/domain/shared"
)

// Boundary-only error codes. Domain codes come from the shared package.
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "INTERNAL_ERROR"
	// ErrCodeUnauthorized is used when the bearer token is missing or invalid
	ErrCodeUnauthorized = "UNAUTHORIZED"
	// ErrCodeTokenExpired is used when the bearer token has expired
	ErrCodeTokenExpired = "TOKEN_EXPIRED"
	// ErrCodeForbidden is used when the caller may not act for the requested tenant
	ErrCodeForbidden = "FORBIDDEN"
	// ErrCodeRequestTooLarge is used when the body exceeds the configured limit
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
	// ErrCodeInvalidSignature is used when a webhook signature does not verify
	ErrCodeInvalidSignature = "INVALID_SIGNATURE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// Lookups; foreign-tenant rows are reported exactly like missing ones
	shared.CodeNotFound: http.StatusNotFound,

	// State machine and ledger rules -> 422 Unprocessable Entity
	shared.CodeInvalidTransition: http.StatusUnprocessableEntity,
	shared.CodeInvalidAdjustment: http.StatusUnprocessableEntity,

	// Carrier failures -> 502 Bad Gateway
	shared.CodeShippingProviderError: http.StatusBadGateway,

	// Ledger and projection disagree
	shared.CodeIntegrityViolation: http.StatusInternalServerError,

	// Input errors -> 400 Bad Request
	shared.CodeTenantRequired:   http.StatusBadRequest,
	shared.CodeValidationFailed: http.StatusBadRequest,

	// Concurrency, safe for the caller to retry -> 409 Conflict
	shared.CodeAlreadyExists:        http.StatusConflict,
	shared.CodeOptimisticLockFailed: http.StatusConflict,
	shared.CodeLockTimeout:          http.StatusConflict,

	// Auth
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeTokenExpired:       http.StatusUnauthorized,
	ErrCodeInvalidSignature:   http.StatusUnauthorized,
	ErrCodeForbidden:          http.StatusForbidden,
	shared.CodeTenantInactive: http.StatusForbidden,

	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeInternal:        http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
