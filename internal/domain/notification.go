package domain

import "time"

// NotificationPreference holds a user's email notification switches.
type NotificationPreference struct {
	UserID           int64      `json:"user_id"`
	EmailVerified    bool       `json:"email_verified"`
	EmailEnabled     bool       `json:"email_enabled"`
	TaskSharedWithMe bool       `json:"task_shared_with_me"`
	TaskCompleted    bool       `json:"task_completed"`
	CommentOnMyTask  bool       `json:"comment_on_my_task"`
	TaskDueSoon      bool       `json:"task_due_soon"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        *time.Time `json:"updated_at"`
}

// DefaultNotificationPreference returns the preferences a new user starts with.
func DefaultNotificationPreference(userID int64) *NotificationPreference {
	return &NotificationPreference{
		UserID:           userID,
		EmailVerified:    false,
		EmailEnabled:     true,
		TaskSharedWithMe: true,
		TaskCompleted:    false,
		CommentOnMyTask:  true,
		TaskDueSoon:      true,
		CreatedAt:        time.Now().UTC(),
	}
}

// PreferencePatch is a partial update of the user-editable switches.
// EmailVerified is not user-editable.
type PreferencePatch struct {
	EmailEnabled     *bool
	TaskSharedWithMe *bool
	TaskCompleted    *bool
	CommentOnMyTask  *bool
	TaskDueSoon      *bool
}

// IsEmpty reports whether the patch sets nothing.
func (p PreferencePatch) IsEmpty() bool {
	return p.EmailEnabled == nil &&
		p.TaskSharedWithMe == nil &&
		p.TaskCompleted == nil &&
		p.CommentOnMyTask == nil &&
		p.TaskDueSoon == nil
}

// Apply sets the provided switches on n.
func (n *NotificationPreference) Apply(p PreferencePatch) {
	if p.EmailEnabled != nil {
		n.EmailEnabled = *p.EmailEnabled
	}
	if p.TaskSharedWithMe != nil {
		n.TaskSharedWithMe = *p.TaskSharedWithMe
	}
	if p.TaskCompleted != nil {
		n.TaskCompleted = *p.TaskCompleted
	}
	if p.CommentOnMyTask != nil {
		n.CommentOnMyTask = *p.CommentOnMyTask
	}
	if p.TaskDueSoon != nil {
		n.TaskDueSoon = *p.TaskDueSoon
	}
	now := time.Now().UTC()
	n.UpdatedAt = &now
}
