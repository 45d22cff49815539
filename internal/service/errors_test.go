package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/phrazzld/faros-api/internal/store"
)

func TestSentinelErrorsAreDistinct(t *testing.T) {
	sentinels := []error{
		ErrForbidden,
		ErrNoFieldsToUpdate,
		ErrInvalidCredentials,
		ErrInvalidResetToken,
		ErrInvalidVerificationCode,
		ErrCannotShareWithSelf,
		ErrFileTooLarge,
		ErrFileTypeNotAllowed,
		ErrTagNotFound,
		ErrInvalidPagination,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j {
				assert.False(t, errors.Is(a, b), "%v should not match %v", a, b)
			}
		}
	}
}

func TestServiceError(t *testing.T) {
	tests := []struct {
		name     string
		err      *ServiceError
		expected string
	}{
		{
			name:     "with underlying error",
			err:      NewServiceError("task", "create", "failed to create task", errors.New("connection reset")),
			expected: "task service create failed: failed to create task: connection reset",
		},
		{
			name:     "without underlying error",
			err:      NewServiceError("share", "delete", "nothing to delete", nil),
			expected: "share service delete failed: nothing to delete",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}

	t.Run("unwraps to store errors", func(t *testing.T) {
		err := NewServiceError("task", "update", "failed to update task", store.ErrTaskNotFound)
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
		assert.ErrorIs(t, err, store.ErrNotFound)

		var svcErr *ServiceError
		assert.True(t, errors.As(err, &svcErr))
		assert.Equal(t, "update", svcErr.Operation)
	})
}
