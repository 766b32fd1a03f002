// Package errors provides the structured error type returned by services.
// Handlers turn an AppError into a JSON body and status code without
// exposing the wrapped internal error to clients.
package errors

import "net/http"

// AppError is a service error carrying a stable code, a user-facing message,
// the HTTP status to answer with and an optional internal cause.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is matches two AppErrors by code, so a wrapped copy still matches its sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// Wrap copies a sentinel and attaches an internal cause.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage copies a sentinel with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid username or password", StatusCode: http.StatusUnauthorized}
	ErrForbidden          = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
)

// Maintenance errors.
var (
	ErrInvalidAPIKey         = &AppError{Code: "INVALID_API_KEY", Message: "Invalid or missing API key", StatusCode: http.StatusUnauthorized}
	ErrPipelineNotConfigured = &AppError{Code: "PIPELINE_NOT_CONFIGURED", Message: "Maintenance endpoints are not configured", StatusCode: http.StatusServiceUnavailable}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User errors.
var (
	ErrUserNotFound      = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateUsername = &AppError{Code: "DUPLICATE_USERNAME", Message: "A user with this username already exists", StatusCode: http.StatusConflict}
)

// Category errors.
var (
	ErrCategoryNotFound = &AppError{Code: "CATEGORY_NOT_FOUND", Message: "Category not found", StatusCode: http.StatusNotFound}
	ErrCategoryExists   = &AppError{Code: "CATEGORY_EXISTS", Message: "A category with this name already exists", StatusCode: http.StatusConflict}
)

// Transaction errors.
var (
	ErrTransactionNotFound    = &AppError{Code: "TRANSACTION_NOT_FOUND", Message: "Transaction not found", StatusCode: http.StatusNotFound}
	ErrInvalidTransactionType = &AppError{Code: "INVALID_TRANSACTION_TYPE", Message: "Unsupported transaction type", StatusCode: http.StatusBadRequest}
	ErrInvalidGoalType        = &AppError{Code: "INVALID_GOAL_TYPE", Message: "Unsupported goal type", StatusCode: http.StatusBadRequest}
	ErrInvalidPeriodicity     = &AppError{Code: "INVALID_PERIODICITY", Message: "Periodic transactions need a periodicity of at least one month", StatusCode: http.StatusBadRequest}
	ErrInvalidCurrency        = &AppError{Code: "INVALID_CURRENCY", Message: "Unsupported currency", StatusCode: http.StatusBadRequest}
	ErrNotRecurring           = &AppError{Code: "NOT_RECURRING", Message: "Transaction is not a recurring obligation", StatusCode: http.StatusBadRequest}
)

// External dependency errors.
var (
	ErrRatesUnavailable = &AppError{Code: "RATES_UNAVAILABLE", Message: "Exchange rates are unavailable, try again later", StatusCode: http.StatusServiceUnavailable}
	ErrImportFailed     = &AppError{Code: "IMPORT_FAILED", Message: "The file could not be imported", StatusCode: http.StatusUnprocessableEntity}
)
