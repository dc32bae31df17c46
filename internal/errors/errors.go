package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/portfolio-advisor/internal/types"
)

// ErrorCategory represents the category of an error
type ErrorCategory string

const (
	// CategoryUserInput represents user input errors (4xx)
	CategoryUserInput ErrorCategory = "user_input"
	// CategorySystem represents system errors (5xx)
	CategorySystem ErrorCategory = "system"
	// CategoryProvider represents ledger node errors
	CategoryProvider ErrorCategory = "provider"
	// CategoryCompletion represents text-completion service errors
	CategoryCompletion ErrorCategory = "completion"
	// CategoryDatabase represents database errors
	CategoryDatabase ErrorCategory = "database"
	// CategoryValidation represents validation errors
	CategoryValidation ErrorCategory = "validation"
	// CategoryRateLimit represents rate limit errors
	CategoryRateLimit ErrorCategory = "rate_limit"
)

// Error codes surfaced to API clients
const (
	CodeMissingAddress     = "MISSING_ADDRESS"
	CodeInvalidParameter   = "INVALID_PARAMETER"
	CodeLedgerQuery        = "LEDGER_QUERY_FAILURE"
	CodeCompletionFailure  = "COMPLETION_SERVICE_FAILURE"
	CodeCompletionTimeout  = "COMPLETION_SERVICE_TIMEOUT"
	CodeRateLimitExceeded  = "RATE_LIMIT_EXCEEDED"
	CodeInternal           = "INTERNAL_ERROR"
	CodeDatabase           = "DATABASE_ERROR"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// CategorizedError represents an error with category and HTTP status code
type CategorizedError struct {
	Category   ErrorCategory
	StatusCode int
	Code       string
	Message    string
	Details    map[string]interface{}
	Cause      error
}

// Error implements the error interface
func (e *CategorizedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e *CategorizedError) Unwrap() error {
	return e.Cause
}

// ToServiceError converts to a ServiceError
func (e *CategorizedError) ToServiceError() *types.ServiceError {
	return &types.ServiceError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	}
}

// User Input Errors (4xx)

// NewMissingAddressError is returned when a request carries no address
func NewMissingAddressError() *CategorizedError {
	return &CategorizedError{
		Category:   CategoryUserInput,
		StatusCode: http.StatusBadRequest,
		Code:       CodeMissingAddress,
		Message:    "Missing address",
	}
}

// NewInvalidParameterError creates an invalid parameter error
func NewInvalidParameterError(param string, reason string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryValidation,
		StatusCode: http.StatusBadRequest,
		Code:       CodeInvalidParameter,
		Message:    fmt.Sprintf("invalid parameter '%s': %s", param, reason),
		Details: map[string]interface{}{
			"parameter": param,
			"reason":    reason,
		},
	}
}

// NewRateLimitError creates a rate limit error
func NewRateLimitError(retryAfter int) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryRateLimit,
		StatusCode: http.StatusTooManyRequests,
		Code:       CodeRateLimitExceeded,
		Message:    "rate limit exceeded",
		Details: map[string]interface{}{
			"retryAfter": retryAfter,
		},
	}
}

// Upstream Errors

// NewLedgerQueryError wraps any transport or RPC failure of a ledger read
func NewLedgerQueryError(network types.NetworkID, operation string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryProvider,
		StatusCode: http.StatusBadGateway,
		Code:       CodeLedgerQuery,
		Message:    fmt.Sprintf("ledger query failed: %s", operation),
		Cause:      cause,
		Details: map[string]interface{}{
			"network":   string(network),
			"operation": operation,
		},
	}
}

// NewCompletionError wraps a failed call to the text-completion service.
// Context deadline errors map to a gateway timeout.
func NewCompletionError(provider string, cause error) *CategorizedError {
	if errors.Is(cause, context.DeadlineExceeded) {
		return NewCompletionTimeoutError(provider, cause)
	}
	return &CategorizedError{
		Category:   CategoryCompletion,
		StatusCode: http.StatusBadGateway,
		Code:       CodeCompletionFailure,
		Message:    fmt.Sprintf("completion service failed: %s", provider),
		Cause:      cause,
		Details: map[string]interface{}{
			"provider": provider,
		},
	}
}

// NewCompletionTimeoutError creates a completion timeout error
func NewCompletionTimeoutError(provider string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryCompletion,
		StatusCode: http.StatusGatewayTimeout,
		Code:       CodeCompletionTimeout,
		Message:    fmt.Sprintf("completion service timeout: %s", provider),
		Cause:      cause,
		Details: map[string]interface{}{
			"provider": provider,
		},
	}
}

// System Errors (5xx)

// NewInternalError creates an internal server error
func NewInternalError(message string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategorySystem,
		StatusCode: http.StatusInternalServerError,
		Code:       CodeInternal,
		Message:    message,
		Cause:      cause,
	}
}

// NewDatabaseError creates a database error
func NewDatabaseError(operation string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryDatabase,
		StatusCode: http.StatusInternalServerError,
		Code:       CodeDatabase,
		Message:    fmt.Sprintf("database error during %s", operation),
		Cause:      cause,
		Details: map[string]interface{}{
			"operation": operation,
		},
	}
}

// NewServiceUnavailableError creates a service unavailable error
func NewServiceUnavailableError(service string) *CategorizedError {
	return &CategorizedError{
		Category:   CategorySystem,
		StatusCode: http.StatusServiceUnavailable,
		Code:       CodeServiceUnavailable,
		Message:    fmt.Sprintf("service unavailable: %s", service),
		Details: map[string]interface{}{
			"service": service,
		},
	}
}

// Categorize categorizes an existing error, looking through wrapping
func Categorize(err error) *CategorizedError {
	if err == nil {
		return nil
	}

	var catErr *CategorizedError
	if errors.As(err, &catErr) {
		return catErr
	}

	var svcErr *types.ServiceError
	if errors.As(err, &svcErr) {
		return categorizeServiceError(svcErr)
	}

	return NewInternalError("unexpected error", err)
}

func categorizeServiceError(err *types.ServiceError) *CategorizedError {
	switch err.Code {
	case CodeMissingAddress, CodeInvalidParameter:
		return &CategorizedError{
			Category:   CategoryUserInput,
			StatusCode: http.StatusBadRequest,
			Code:       err.Code,
			Message:    err.Message,
			Details:    err.Details,
		}
	case CodeLedgerQuery:
		return &CategorizedError{
			Category:   CategoryProvider,
			StatusCode: http.StatusBadGateway,
			Code:       err.Code,
			Message:    err.Message,
			Details:    err.Details,
		}
	case CodeCompletionFailure:
		return &CategorizedError{
			Category:   CategoryCompletion,
			StatusCode: http.StatusBadGateway,
			Code:       err.Code,
			Message:    err.Message,
			Details:    err.Details,
		}
	default:
		return &CategorizedError{
			Category:   CategorySystem,
			StatusCode: http.StatusInternalServerError,
			Code:       err.Code,
			Message:    err.Message,
			Details:    err.Details,
		}
	}
}

// IsLedgerQueryFailure reports whether err is a failed ledger read
func IsLedgerQueryFailure(err error) bool {
	catErr := Categorize(err)
	return catErr != nil && catErr.Code == CodeLedgerQuery
}

// IsCompletionFailure reports whether err came from the completion service
func IsCompletionFailure(err error) bool {
	catErr := Categorize(err)
	return catErr != nil && catErr.Category == CategoryCompletion
}

// GetHTTPStatusCode returns the HTTP status code for an error
func GetHTTPStatusCode(err error) int {
	if catErr := Categorize(err); catErr != nil {
		return catErr.StatusCode
	}
	return http.StatusInternalServerError
}

// IsUserError determines if an error is a user error (4xx)
func IsUserError(err error) bool {
	catErr := Categorize(err)
	if catErr == nil {
		return false
	}

	return catErr.StatusCode >= 400 && catErr.StatusCode < 500
}

// IsSystemError determines if an error is a system error (5xx)
func IsSystemError(err error) bool {
	catErr := Categorize(err)
	if catErr == nil {
		return false
	}

	return catErr.StatusCode >= 500
}
