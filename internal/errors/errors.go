// Package errors defines the typed error surface shared by services and
// the HTTP API. Every failure a caller can act on carries a stable code
// and an HTTP status so handlers never have to string-match messages.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode identifies a failure category.
type ErrorCode string

const (
	CodeUnauthorized          ErrorCode = "UNAUTHORIZED"
	CodeInvalidToken          ErrorCode = "INVALID_TOKEN"
	CodeInvalidInput          ErrorCode = "INVALID_INPUT"
	CodeNotFound              ErrorCode = "NOT_FOUND"
	CodeConflict              ErrorCode = "CONFLICT"
	CodeModelNotFound         ErrorCode = "MODEL_NOT_FOUND"
	CodeNoModelAvailable      ErrorCode = "NO_MODEL_AVAILABLE"
	CodeProviderUnavailable   ErrorCode = "PROVIDER_UNAVAILABLE"
	CodeInsufficientFunds     ErrorCode = "INSUFFICIENT_FUNDS"
	CodeUpstreamFailure       ErrorCode = "UPSTREAM_FAILURE"
	CodeReconciliationFailure ErrorCode = "RECONCILIATION_FAILURE"
	CodeForbidden             ErrorCode = "FORBIDDEN"
	CodeRateLimited           ErrorCode = "RATE_LIMITED"
	CodeInternal              ErrorCode = "INTERNAL"
)

// ServiceError is the concrete error type surfaced across service
// boundaries.
type ServiceError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Details    map[string]interface{}
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// WithDetails attaches a key/value pair for diagnostics.
func (e *ServiceError) WithDetails(key string, value interface{}) *ServiceError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

func newError(code ErrorCode, status int, message string) *ServiceError {
	return &ServiceError{Code: code, Message: message, HTTPStatus: status}
}

// Unauthorized reports a missing or rejected caller identity.
func Unauthorized(message string) *ServiceError {
	return newError(CodeUnauthorized, http.StatusUnauthorized, message)
}

// InvalidToken reports a malformed or expired credential.
func InvalidToken(err error) *ServiceError {
	e := newError(CodeInvalidToken, http.StatusUnauthorized, "invalid or expired token")
	e.Err = err
	return e
}

// Forbidden reports an authenticated caller lacking the required role.
func Forbidden(message string) *ServiceError {
	return newError(CodeForbidden, http.StatusForbidden, message)
}

// InvalidInput reports a request the caller can correct.
func InvalidInput(message string) *ServiceError {
	return newError(CodeInvalidInput, http.StatusBadRequest, message)
}

// NotFound reports a missing record.
func NotFound(message string) *ServiceError {
	return newError(CodeNotFound, http.StatusNotFound, message)
}

// Conflict reports a uniqueness violation.
func Conflict(message string) *ServiceError {
	return newError(CodeConflict, http.StatusConflict, message)
}

// ModelNotFound reports an explicitly requested model that does not exist.
func ModelNotFound(id string) *ServiceError {
	return newError(CodeModelNotFound, http.StatusNotFound, fmt.Sprintf("model %s not found", id))
}

// NoModelAvailable reports an empty active-model set.
func NoModelAvailable() *ServiceError {
	return newError(CodeNoModelAvailable, http.StatusBadRequest, "no generation model available")
}

// ProviderUnavailable reports a missing or disabled upstream provider.
func ProviderUnavailable(message string) *ServiceError {
	return newError(CodeProviderUnavailable, http.StatusBadRequest, message)
}

// InsufficientFunds reports a balance too low to cover a charge.
func InsufficientFunds(message string) *ServiceError {
	return newError(CodeInsufficientFunds, http.StatusPaymentRequired, message)
}

// UpstreamFailure reports a transport error, non-success status or
// unusable result from the provider.
func UpstreamFailure(message string, err error) *ServiceError {
	e := newError(CodeUpstreamFailure, http.StatusBadGateway, message)
	e.Err = err
	return e
}

// ReconciliationFailure reports a settle-time debit that could not be
// applied after a paid upstream call.
func ReconciliationFailure(message string) *ServiceError {
	return newError(CodeReconciliationFailure, http.StatusPaymentRequired, message)
}

// RateLimitExceeded reports a caller exceeding the per-second quota.
func RateLimitExceeded(perSecond int) *ServiceError {
	e := newError(CodeRateLimited, http.StatusTooManyRequests, "rate limit exceeded")
	return e.WithDetails("limit_per_second", perSecond)
}

// Internal wraps an unexpected failure.
func Internal(message string, err error) *ServiceError {
	e := newError(CodeInternal, http.StatusInternalServerError, message)
	e.Err = err
	return e
}

// GetServiceError extracts a *ServiceError from err's chain, or nil.
func GetServiceError(err error) *ServiceError {
	var serviceErr *ServiceError
	if stderrors.As(err, &serviceErr) {
		return serviceErr
	}
	return nil
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	serviceErr := GetServiceError(err)
	return serviceErr != nil && serviceErr.Code == code
}
