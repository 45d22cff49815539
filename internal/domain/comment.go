package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxCommentLength bounds comment content.
const MaxCommentLength = 1000

// ErrCommentTooLong is returned when comment content exceeds MaxCommentLength.
var ErrCommentTooLong = fmt.Errorf("%w: comment must be at most 1000 characters long", ErrValidation)

// TaskComment is a note left on a task by a user with read access.
type TaskComment struct {
	ID        int64      `json:"id"`
	TaskID    int64      `json:"task_id"`
	UserID    int64      `json:"user_id"`
	Username  string     `json:"username,omitempty"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

// NewTaskComment validates content and builds a comment.
func NewTaskComment(taskID, userID int64, content string) (*TaskComment, error) {
	content = strings.TrimSpace(content)
	if err := ValidateCommentContent(content); err != nil {
		return nil, err
	}
	return &TaskComment{
		TaskID:    taskID,
		UserID:    userID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// ValidateCommentContent checks comment bounds.
func ValidateCommentContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return ErrEmptyContent
	}
	if utf8.RuneCountInString(content) > MaxCommentLength {
		return ErrCommentTooLong
	}
	return nil
}
