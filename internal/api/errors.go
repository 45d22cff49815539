package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/faros-api/internal/api/shared"
	"github.com/phrazzld/faros-api/internal/domain"
	"github.com/phrazzld/faros-api/internal/service"
	"github.com/phrazzld/faros-api/internal/service/auth"
	"github.com/phrazzld/faros-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	var vErrs validator.ValidationErrors

	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrMissingSubject),
		errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized

	// Authorization errors
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden

	// Not found errors
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, service.ErrTagNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, service.ErrNoFieldsToUpdate),
		errors.Is(err, service.ErrInvalidResetToken),
		errors.Is(err, service.ErrInvalidVerificationCode),
		errors.Is(err, shared.ErrMalformedJSON),
		errors.Is(err, domain.ErrInvalidID):
		return http.StatusBadRequest

	case errors.Is(err, service.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge

	// Validation errors
	case errors.As(err, &vErrs),
		domain.IsValidationError(err),
		errors.Is(err, service.ErrCannotShareWithSelf),
		errors.Is(err, service.ErrFileTypeNotAllowed),
		errors.Is(err, service.ErrInvalidPagination),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusUnprocessableEntity

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var vErr *domain.ValidationError
	var vErrs validator.ValidationErrors

	switch {
	// Authentication errors
	case errors.Is(err, service.ErrInvalidCredentials):
		return "Incorrect username or password"

	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken):
		return "Invalid or expired token"

	case errors.Is(err, auth.ErrMissingToken):
		return "Not authenticated"

	case errors.Is(err, auth.ErrMissingSubject):
		return "Invalid token payload"

	// Authorization errors
	case errors.Is(err, service.ErrForbidden):
		return "Not enough permissions"

	// Not found errors
	case errors.Is(err, store.ErrUserNotFound):
		return "User not found"

	case errors.Is(err, store.ErrTaskNotFound):
		return "Task not found"

	case errors.Is(err, store.ErrShareNotFound):
		return "Share not found"

	case errors.Is(err, store.ErrCommentNotFound):
		return "Comment not found"

	case errors.Is(err, store.ErrFileNotFound):
		return "File not found"

	case errors.Is(err, service.ErrTagNotFound):
		return "Tag not found"

	case errors.Is(err, store.ErrNotFound):
		return "Resource not found"

	// Conflict errors
	case errors.Is(err, store.ErrUsernameExists):
		return "Username already registered"

	case errors.Is(err, store.ErrEmailExists):
		return "Email already registered"

	case errors.Is(err, store.ErrShareExists):
		return "Task already shared with this user"

	case errors.Is(err, store.ErrDuplicate):
		return "Resource already exists"

	// Bad request errors
	case errors.Is(err, service.ErrNoFieldsToUpdate):
		return "No fields provided for update"

	case errors.Is(err, service.ErrInvalidResetToken):
		return "Invalid or expired reset token"

	case errors.Is(err, service.ErrInvalidVerificationCode):
		return "Invalid or expired verification code"

	case errors.Is(err, shared.ErrMalformedJSON):
		return "Invalid request format"

	case errors.Is(err, domain.ErrInvalidID):
		return "Invalid ID"

	case errors.Is(err, service.ErrFileTooLarge):
		return "File too large"

	// Validation errors
	case errors.Is(err, service.ErrCannotShareWithSelf):
		return "Cannot share a task with yourself"

	case errors.Is(err, service.ErrFileTypeNotAllowed):
		return "File type not allowed"

	case errors.Is(err, service.ErrInvalidPagination):
		return "Invalid pagination parameters"

	case errors.As(err, &vErrs):
		return SanitizeValidationError(err)

	case errors.As(err, &vErr):
		return vErr.Error()

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return "Validation error"

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError writes the mapped status and safe message for err and logs
// the redacted detail. defaultMsg replaces the generic message of
// unexpected (5xx) errors when non-empty.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, defaultMsg string) {
	status := MapErrorToStatusCode(err)
	msg := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && defaultMsg != "" {
		msg = defaultMsg
	}

	var opts []shared.ResponseOption
	if status == http.StatusUnauthorized {
		opts = append(opts, shared.WithElevatedLogLevel())
	}
	shared.RespondWithErrorAndLog(w, r, status, msg, err, opts...)
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message naming the first failing field.
func SanitizeValidationError(err error) string {
	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) && len(vErrs) > 0 {
		fe := vErrs[0]
		return fmt.Sprintf("Invalid %s: %s", fe.Field(), getValidationTagMessage(fe.Tag()))
	}
	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "email":
		return "invalid email format"
	case "min", "gte":
		return "too short"
	case "max", "lte":
		return "too long"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
