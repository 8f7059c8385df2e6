// Package errors defines the application error taxonomy shared between
// the usecase and delivery layers.
package errors

import (
	"net/http"
	"strings"

	"curator/internal/errors"
)

// AppError defines the interface for application-specific errors
type AppError interface {
	error
	HTTPCode() int     // HTTP status code
	ErrorCode() string // Business error code
	Message() string   // User-friendly error message
	Details() string   // Detailed error information (optional)
}

// BaseError is a basic error structure that implements the AppError interface
type BaseError struct {
	httpCode  int
	errorCode string
	message   string
	details   string
}

// NewBaseError creates a new base error
func NewBaseError(httpCode int, errorCode, message, details string) *BaseError {
	return &BaseError{
		httpCode:  httpCode,
		errorCode: errorCode,
		message:   message,
		details:   details,
	}
}

// Error implements the error interface
func (e *BaseError) Error() string {
	return e.message
}

// WrapMessage wraps the error with additional context message
func (e *BaseError) WrapMessage(message string) error {
	return errors.Wrap(e, message)
}

// HTTPCode returns the HTTP status code
func (e *BaseError) HTTPCode() int {
	return e.httpCode
}

// ErrorCode returns the business error code
func (e *BaseError) ErrorCode() string {
	return e.errorCode
}

// Message returns the user-friendly error message
func (e *BaseError) Message() string {
	return e.message
}

// Details returns detailed error information
func (e *BaseError) Details() string {
	return e.details
}

// WithDetails adds detailed error information
func (e *BaseError) WithDetails(details string) *BaseError {
	return &BaseError{
		httpCode:  e.httpCode,
		errorCode: e.errorCode,
		message:   e.message,
		details:   details,
	}
}

// Predefined error types
var (
	// Authentication-related errors
	ErrAccountLocked = NewBaseError(
		http.StatusTooManyRequests,
		"ACCOUNT_LOCKED",
		"Too many failed attempts, account temporarily locked",
		"",
	)

	ErrInvalidCredentials = NewBaseError(
		http.StatusUnauthorized,
		"INVALID_CREDENTIALS",
		"Username or password is incorrect",
		"",
	)

	ErrUsernameTaken = NewBaseError(
		http.StatusConflict,
		"USERNAME_TAKEN",
		"This username is already registered",
		"",
	)

	ErrSessionNotFound = NewBaseError(
		http.StatusUnauthorized,
		"SESSION_NOT_FOUND",
		"No active session",
		"",
	)

	ErrSessionExpired = NewBaseError(
		http.StatusUnauthorized,
		"SESSION_EXPIRED",
		"Session expired due to inactivity",
		"",
	)

	ErrCredentialHashFailed = NewBaseError(
		http.StatusInternalServerError,
		"CREDENTIAL_HASH_FAILED",
		"Credential processing failed",
		"",
	)

	// General errors
	ErrValidationFailed = NewBaseError(
		http.StatusBadRequest,
		"VALIDATION_FAILED",
		"Input validation failed",
		"",
	)

	ErrInternalError = NewBaseError(
		http.StatusInternalServerError,
		"INTERNAL_ERROR",
		"Internal server error",
		"",
	)

	ErrForbidden = NewBaseError(
		http.StatusForbidden,
		"FORBIDDEN",
		"Access denied",
		"",
	)

	ErrNotFound = NewBaseError(
		http.StatusNotFound,
		"NOT_FOUND",
		"Resource not found",
		"",
	)
)

// MigrationStageError reports a failed migration stage, implementing the
// AppError interface. The underlying cause message is surfaced verbatim so
// the blocking retry modal can show it to the operator.
type MigrationStageError struct {
	stage string
	err   error
}

// NewMigrationStageError wraps the error that aborted the given stage.
func NewMigrationStageError(stage string, err error) *MigrationStageError {
	return &MigrationStageError{
		stage: stage,
		err:   err,
	}
}

// Error implements the error interface
func (e *MigrationStageError) Error() string {
	return "migration stage " + e.stage + " failed: " + e.err.Error()
}

// Unwrap exposes the underlying collaborator error
func (e *MigrationStageError) Unwrap() error {
	return e.err
}

// Stage names which pipeline stage aborted
func (e *MigrationStageError) Stage() string {
	return e.stage
}

// HTTPCode returns the HTTP status code
func (e *MigrationStageError) HTTPCode() int {
	return http.StatusBadGateway
}

// ErrorCode returns the business error code
func (e *MigrationStageError) ErrorCode() string {
	return "MIGRATION_STAGE_FAILED"
}

// Message returns the user-friendly error message
func (e *MigrationStageError) Message() string {
	return "Data migration failed during the " + e.stage + " stage"
}

// Details returns detailed error information
func (e *MigrationStageError) Details() string {
	return e.err.Error()
}

// ConfigurationMissingError aggregates every missing required startup
// parameter into one fatal error, so a misconfigured deployment reports
// the complete list instead of failing one key at a time.
type ConfigurationMissingError struct {
	missing []string
}

// NewConfigurationMissingError creates the aggregated startup error.
func NewConfigurationMissingError(missing []string) *ConfigurationMissingError {
	return &ConfigurationMissingError{missing: missing}
}

// Error implements the error interface
func (e *ConfigurationMissingError) Error() string {
	return "missing required configuration: " + strings.Join(e.missing, ", ")
}

// Missing returns the missing parameter names
func (e *ConfigurationMissingError) Missing() []string {
	return e.missing
}
