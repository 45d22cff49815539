package domain

import "time"

// Permission is the access a share grants to a non-owner.
type Permission string

// Share permissions.
const (
	PermissionView Permission = "view"
	PermissionEdit Permission = "edit"
)

// Valid reports whether p is a known permission.
func (p Permission) Valid() bool {
	return p == PermissionView || p == PermissionEdit
}

// AccessLevel is the resolved relationship between a user and a task.
type AccessLevel int

// Access levels, ordered by increasing capability.
const (
	AccessNone AccessLevel = iota
	AccessSharedView
	AccessSharedEdit
	AccessOwner
)

// String returns a readable name for the access level.
func (a AccessLevel) String() string {
	switch a {
	case AccessOwner:
		return "owner"
	case AccessSharedEdit:
		return "shared-edit"
	case AccessSharedView:
		return "shared-view"
	default:
		return "none"
	}
}

// CanRead reports whether the level allows reading the task and its children.
func (a AccessLevel) CanRead() bool {
	return a != AccessNone
}

// CanEdit reports whether the level allows mutating the task and its children.
func (a AccessLevel) CanEdit() bool {
	return a == AccessOwner || a == AccessSharedEdit
}

// AccessFromPermission converts a share permission to an access level.
func AccessFromPermission(p Permission) AccessLevel {
	switch p {
	case PermissionEdit:
		return AccessSharedEdit
	case PermissionView:
		return AccessSharedView
	}
	return AccessNone
}

// TaskShare grants one user access to another user's task.
// At most one share exists per (TaskID, SharedWithUserID).
type TaskShare struct {
	ID                 int64      `json:"id"`
	TaskID             int64      `json:"task_id"`
	SharedWithUserID   int64      `json:"shared_with_user_id"`
	SharedWithUsername string     `json:"shared_with_username,omitempty"`
	Permission         Permission `json:"permission"`
	SharedByUserID     int64      `json:"shared_by_user_id"`
	SharedAt           time.Time  `json:"shared_at"`
}

// NewTaskShare builds a share after validating the permission.
func NewTaskShare(taskID, granteeID, granterID int64, permission Permission) (*TaskShare, error) {
	if !permission.Valid() {
		return nil, NewValidationError("permission", "must be 'view' or 'edit'", ErrInvalidPermission)
	}
	return &TaskShare{
		TaskID:           taskID,
		SharedWithUserID: granteeID,
		Permission:       permission,
		SharedByUserID:   granterID,
		SharedAt:         time.Now().UTC(),
	}, nil
}
