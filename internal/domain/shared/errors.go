package shared

import "errors"

// Stable error codes surfaced at the request boundary
const (
	CodeNotFound              = "NOT_FOUND"
	CodeInvalidTransition     = "INVALID_TRANSITION"
	CodeInvalidAdjustment     = "INVALID_ADJUSTMENT"
	CodeShippingProviderError = "SHIPPING_PROVIDER_ERROR"
	CodeIntegrityViolation    = "INTEGRITY_VIOLATION"
	CodeTenantRequired        = "TENANT_REQUIRED"
	CodeTenantInactive        = "TENANT_INACTIVE"
	CodeValidationFailed      = "VALIDATION_FAILED"
	CodeAlreadyExists         = "ALREADY_EXISTS"
	CodeOptimisticLockFailed  = "OPTIMISTIC_LOCK_FAILED"
	CodeLockTimeout           = "LOCK_TIMEOUT"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause, if any
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a DomainError carrying the same code,
// so errors.Is(err, ErrNotFound) matches any NOT_FOUND error.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WrapDomainError creates a domain error that keeps the underlying cause
func WrapDomainError(code, message string, cause error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// ErrorCode extracts the domain error code from err, or "" if err is not a domain error
func ErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrInvalidTransition   = NewDomainError(CodeInvalidTransition, "Status transition not allowed")
	ErrInvalidAdjustment   = NewDomainError(CodeInvalidAdjustment, "Stock adjustment not allowed")
	ErrShippingProvider    = NewDomainError(CodeShippingProviderError, "Shipping provider failure")
	ErrIntegrityViolation  = NewDomainError(CodeIntegrityViolation, "Stock ledger does not match product stock")
	ErrTenantRequired      = NewDomainError(CodeTenantRequired, "Tenant ID is required")
	ErrTenantInactive      = NewDomainError(CodeTenantInactive, "Tenant is not active")
	ErrAlreadyExists       = NewDomainError(CodeAlreadyExists, "Resource already exists")
	ErrConcurrencyConflict = NewDomainError(CodeOptimisticLockFailed, "Resource was modified by another process")
	ErrLockTimeout         = NewDomainError(CodeLockTimeout, "Timed out waiting for a row lock, safe to retry")
)
