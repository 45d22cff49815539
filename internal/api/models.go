package api

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/phrazzld/faros-api/internal/domain"
)

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse is returned by a successful login. The same token is also
// set as the session cookie.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// MessageResponse carries a human-readable confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID            int64     `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
}

func newUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
	}
}

// UserSummary is returned by user search.
type UserSummary struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// ChangePasswordRequest defines the payload for changing the caller's password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required,min=8,max=72"`
}

// PasswordResetRequest starts a password reset for email.
type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// PasswordResetVerifyRequest completes a password reset.
type PasswordResetVerifyRequest struct {
	Token       string `json:"token"        validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=72"`
}

// CreateTaskRequest defines the payload for creating a task.
type CreateTaskRequest struct {
	Title       string       `json:"title"       validate:"required"`
	Description *string      `json:"description"`
	Priority    string       `json:"priority"    validate:"omitempty,oneof=low medium high"`
	DueDate     *domain.Date `json:"due_date"`
	Tags        []string     `json:"tags"        validate:"omitempty,dive,required"`
}

// OptionalDate distinguishes an absent due_date from an explicit null.
type OptionalDate struct {
	Set   bool
	Value *domain.Date
}

// UnmarshalJSON implements json.Unmarshaler. It is only called when the key
// is present in the body.
func (o *OptionalDate) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(data, []byte("null")) {
		o.Value = nil
		return nil
	}
	var d domain.Date
	if err := json.Unmarshal(data, &d); err != nil {
		return err
	}
	o.Value = &d
	return nil
}

// UpdateTaskRequest is a partial task update. Absent fields are unchanged;
// "due_date": null clears the due date.
type UpdateTaskRequest struct {
	Title       *string      `json:"title"`
	Description *string      `json:"description"`
	Completed   *bool        `json:"completed"`
	Priority    *string      `json:"priority" validate:"omitempty,oneof=low medium high"`
	DueDate     OptionalDate `json:"due_date"`
	Tags        *[]string    `json:"tags"`
}

// Patch converts the request to a domain.TaskPatch.
func (r UpdateTaskRequest) Patch() domain.TaskPatch {
	p := domain.TaskPatch{
		Title:       r.Title,
		Description: r.Description,
		Completed:   r.Completed,
		Tags:        r.Tags,
	}
	if r.Priority != nil {
		prio := domain.Priority(*r.Priority)
		p.Priority = &prio
	}
	if r.DueDate.Set {
		if r.DueDate.Value == nil {
			p.ClearDue = true
		} else {
			p.DueDate = r.DueDate.Value
		}
	}
	return p
}

// TagsRequest adds tags to a task.
type TagsRequest struct {
	Tags []string `json:"tags" validate:"required,min=1,dive,required"`
}

// ShareRequest grants a user access to a task.
type ShareRequest struct {
	Username   string `json:"username"   validate:"required"`
	Permission string `json:"permission" validate:"required,oneof=view edit"`
}

// UpdateShareRequest changes an existing grant.
type UpdateShareRequest struct {
	Permission string `json:"permission" validate:"required,oneof=view edit"`
}

// CommentRequest creates or edits a comment.
type CommentRequest struct {
	Content string `json:"content" validate:"required"`
}

// PreferencesRequest is a partial update of notification switches.
type PreferencesRequest struct {
	EmailEnabled     *bool `json:"email_enabled"`
	TaskSharedWithMe *bool `json:"task_shared_with_me"`
	TaskCompleted    *bool `json:"task_completed"`
	CommentOnMyTask  *bool `json:"comment_on_my_task"`
	TaskDueSoon      *bool `json:"task_due_soon"`
}

// Patch converts the request to a domain.PreferencePatch.
func (r PreferencesRequest) Patch() domain.PreferencePatch {
	return domain.PreferencePatch{
		EmailEnabled:     r.EmailEnabled,
		TaskSharedWithMe: r.TaskSharedWithMe,
		TaskCompleted:    r.TaskCompleted,
		CommentOnMyTask:  r.CommentOnMyTask,
		TaskDueSoon:      r.TaskDueSoon,
	}
}

// VerifyEmailRequest submits an email verification code.
type VerifyEmailRequest struct {
	Code string `json:"code" validate:"required"`
}
