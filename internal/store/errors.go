package store

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by every store implementation. Entity-specific
// errors wrap one of the generic ones so callers can match either.
var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when a write would break a uniqueness rule.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when the database rejects a row, for
	// example an unknown foreign key or a failed check constraint.
	ErrInvalidEntity = errors.New("invalid entity")

	ErrUserNotFound    = fmt.Errorf("%w: user", ErrNotFound)
	ErrTaskNotFound    = fmt.Errorf("%w: task", ErrNotFound)
	ErrShareNotFound   = fmt.Errorf("%w: share", ErrNotFound)
	ErrCommentNotFound = fmt.Errorf("%w: comment", ErrNotFound)
	ErrFileNotFound    = fmt.Errorf("%w: file", ErrNotFound)

	// ErrPreferenceNotFound means the user has no notification preference
	// row yet; services fall back to defaults.
	ErrPreferenceNotFound = fmt.Errorf("%w: notification preference", ErrNotFound)

	ErrEmailExists    = fmt.Errorf("%w: email", ErrDuplicate)
	ErrUsernameExists = fmt.Errorf("%w: username", ErrDuplicate)

	// ErrShareExists means the task is already shared with the grantee.
	ErrShareExists = fmt.Errorf("%w: share", ErrDuplicate)

	// ErrStoredFilenameExists means a generated blob name collided.
	ErrStoredFilenameExists = fmt.Errorf("%w: stored filename", ErrDuplicate)
)

// IsNotFoundError reports whether err is, or wraps, any "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError reports whether err is, or wraps, any "duplicate" error.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}
