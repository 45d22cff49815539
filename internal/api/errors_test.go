package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/faros-api/internal/api/shared"
	"github.com/phrazzld/faros-api/internal/domain"
	"github.com/phrazzld/faros-api/internal/service"
	"github.com/phrazzld/faros-api/internal/service/auth"
	"github.com/phrazzld/faros-api/internal/store"
)

func TestMapErrorToStatusCodeAndMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"nil error", nil, http.StatusInternalServerError, "An unexpected error occurred"},
		{"bad credentials", service.ErrInvalidCredentials, http.StatusUnauthorized, "Incorrect username or password"},
		{"expired token", fmt.Errorf("validate: %w", auth.ErrExpiredToken), http.StatusUnauthorized, "Invalid or expired token"},
		{"forbidden", service.ErrForbidden, http.StatusForbidden, "Not enough permissions"},
		{"user not found", store.ErrUserNotFound, http.StatusNotFound, "User not found"},
		{"task not found", fmt.Errorf("get: %w", store.ErrTaskNotFound), http.StatusNotFound, "Task not found"},
		{"share not found", store.ErrShareNotFound, http.StatusNotFound, "Share not found"},
		{"comment not found", store.ErrCommentNotFound, http.StatusNotFound, "Comment not found"},
		{"file not found", store.ErrFileNotFound, http.StatusNotFound, "File not found"},
		{"tag not found", service.ErrTagNotFound, http.StatusNotFound, "Tag not found"},
		{"username taken", store.ErrUsernameExists, http.StatusConflict, "Username already registered"},
		{"email taken", store.ErrEmailExists, http.StatusConflict, "Email already registered"},
		{"share exists", store.ErrShareExists, http.StatusConflict, "Task already shared with this user"},
		{"empty patch", service.ErrNoFieldsToUpdate, http.StatusBadRequest, "No fields provided for update"},
		{"bad reset token", service.ErrInvalidResetToken, http.StatusBadRequest, "Invalid or expired reset token"},
		{"bad code", service.ErrInvalidVerificationCode, http.StatusBadRequest, "Invalid or expired verification code"},
		{"malformed json", fmt.Errorf("%w: unexpected EOF", shared.ErrMalformedJSON), http.StatusBadRequest, "Invalid request format"},
		{"invalid id", domain.NewValidationError("id", "has invalid format", domain.ErrInvalidID), http.StatusBadRequest, "Invalid ID"},
		{"too large", service.ErrFileTooLarge, http.StatusRequestEntityTooLarge, "File too large"},
		{"self share", service.ErrCannotShareWithSelf, http.StatusUnprocessableEntity, "Cannot share a task with yourself"},
		{"file type", service.ErrFileTypeNotAllowed, http.StatusUnprocessableEntity, "File type not allowed"},
		{"pagination", service.ErrInvalidPagination, http.StatusUnprocessableEntity, "Invalid pagination parameters"},
		{"field validation", domain.NewValidationError("title", "cannot be empty", nil), http.StatusUnprocessableEntity, "title cannot be empty"},
		{"bare validation", domain.ErrInvalidPriority, http.StatusUnprocessableEntity, "Validation error"},
		{
			"service error",
			service.NewServiceError("task", "create", "failed to create task", errors.New("connection reset")),
			http.StatusInternalServerError,
			"An unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.status, MapErrorToStatusCode(tt.err))
			assert.Equal(t, tt.message, GetSafeErrorMessage(tt.err))
		})
	}
}

func TestSanitizeValidationError(t *testing.T) {
	t.Parallel()

	err := shared.ValidateRequest(RegisterRequest{Username: "al", Email: "alice@example.com", Password: "password123"})
	require.Error(t, err)
	assert.Equal(t, "Invalid username: too short", SanitizeValidationError(err))
	assert.Equal(t, http.StatusUnprocessableEntity, MapErrorToStatusCode(err))

	err = shared.ValidateRequest(RegisterRequest{Username: "alice", Email: "nope", Password: "password123"})
	assert.Equal(t, "Invalid email: invalid email format", SanitizeValidationError(err))

	assert.Equal(t, "Validation error", SanitizeValidationError(errors.New("something else")))
}

func TestHandleAPIError_DefaultMessageOnlyFor5xx(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/tasks/1", nil)

	rec := httptest.NewRecorder()
	HandleAPIError(rec, req, errors.New("boom"), "Failed to get task")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Failed to get task"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	HandleAPIError(rec, req, store.ErrTaskNotFound, "Failed to get task")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Task not found"}`, rec.Body.String())
}
