package service

import (
	"errors"
	"fmt"
)

// Common service errors - sentinel errors used across service implementations.
// These errors represent conditions that callers check for with errors.Is().
//
// Error handling principles:
// 1. Service methods return sentinel errors for expected error conditions
// 2. Unexpected errors are wrapped in ServiceError
// 3. Callers use errors.Is/errors.As to check for specific error conditions
// 4. The API layer maps service errors to HTTP status codes
var (
	// ErrForbidden indicates the caller lacks the access level the operation requires.
	// API layer should map this to HTTP 403 Forbidden.
	ErrForbidden = errors.New("not enough permissions")

	// ErrNoFieldsToUpdate indicates a PATCH request that sets nothing.
	// API layer should map this to HTTP 400 Bad Request.
	ErrNoFieldsToUpdate = errors.New("no fields provided for update")

	// ErrInvalidCredentials indicates a failed login or wrong current password.
	// API layer should map this to HTTP 401 Unauthorized.
	ErrInvalidCredentials = errors.New("incorrect username or password")

	// ErrInvalidResetToken indicates an unknown or expired password reset token.
	// API layer should map this to HTTP 400 Bad Request.
	ErrInvalidResetToken = errors.New("invalid or expired reset token")

	// ErrInvalidVerificationCode indicates a wrong or expired email verification code.
	// API layer should map this to HTTP 400 Bad Request.
	ErrInvalidVerificationCode = errors.New("invalid or expired verification code")

	// ErrCannotShareWithSelf indicates an owner sharing a task with themselves.
	// API layer should map this to HTTP 422 Unprocessable Entity.
	ErrCannotShareWithSelf = errors.New("cannot share a task with yourself")

	// ErrFileTooLarge indicates an upload over the configured size limit.
	// API layer should map this to HTTP 413 Request Entity Too Large.
	ErrFileTooLarge = errors.New("file too large")

	// ErrFileTypeNotAllowed indicates an upload whose extension is not allowed.
	// API layer should map this to HTTP 422 Unprocessable Entity.
	ErrFileTypeNotAllowed = errors.New("file type not allowed")

	// ErrTagNotFound indicates removal of a tag the task does not carry.
	// API layer should map this to HTTP 404 Not Found.
	ErrTagNotFound = errors.New("tag not found")

	// ErrInvalidPagination indicates a limit or offset outside the accepted range.
	// API layer should map this to HTTP 422 Unprocessable Entity.
	ErrInvalidPagination = errors.New("invalid pagination parameters")
)

// ServiceError wraps an unexpected failure with the service and operation
// that produced it.
type ServiceError struct {
	Service   string
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s service %s failed: %s: %v", e.Service, e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s service %s failed: %s", e.Service, e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
func NewServiceError(service, operation, message string, err error) *ServiceError {
	return &ServiceError{
		Service:   service,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
