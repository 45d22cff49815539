package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// User validation errors
var (
	ErrEmptyUsername       = fmt.Errorf("%w: username cannot be empty", ErrValidation)
	ErrInvalidUsername     = fmt.Errorf("%w: username must be 3-50 letters, digits, '_' or '-'", ErrValidation)
	ErrInvalidEmail        = fmt.Errorf("%w: invalid email format", ErrValidation)
	ErrEmptyEmail          = fmt.Errorf("%w: email cannot be empty", ErrValidation)
	ErrEmailTooLong        = fmt.Errorf("%w: email must be at most 100 characters long", ErrValidation)
	ErrPasswordTooShort    = fmt.Errorf("%w: password must be at least 8 characters long", ErrValidation)
	ErrPasswordTooLong     = fmt.Errorf("%w: password must be at most 72 characters long", ErrValidation)
	ErrEmptyHashedPassword = errors.New("hashed password cannot be empty")
)

const (
	// MinPasswordLength is the shortest password accepted at registration or reset.
	MinPasswordLength = 8
	// MaxPasswordLength is bcrypt's input limit.
	MaxPasswordLength = 72
	maxEmailLength    = 100
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{3,50}$`)

// User represents a registered account.
type User struct {
	ID                   int64      `json:"id"`
	Username             string     `json:"username"`
	Email                string     `json:"email"`
	HashedPassword       string     `json:"-"`
	EmailVerified        bool       `json:"email_verified"`
	VerificationCode     *string    `json:"-"`
	VerificationExpires  *time.Time `json:"-"`
	PasswordResetToken   *string    `json:"-"`
	PasswordResetExpires *time.Time `json:"-"`
	CreatedAt            time.Time  `json:"created_at"`
}

// NewUser builds a User from registration input. The caller hashes the
// password and assigns HashedPassword before persisting.
func NewUser(username, email, password string) (*User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	return &User{
		Username:  username,
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Validate checks a User that is about to be stored.
func (u *User) Validate() error {
	if err := ValidateUsername(u.Username); err != nil {
		return err
	}
	if err := ValidateEmail(u.Email); err != nil {
		return err
	}
	if u.HashedPassword == "" {
		return ErrEmptyHashedPassword
	}
	return nil
}

// ValidateUsername checks username shape.
func ValidateUsername(username string) error {
	if username == "" {
		return ErrEmptyUsername
	}
	if !usernamePattern.MatchString(username) {
		return ErrInvalidUsername
	}
	return nil
}

// ValidateEmail performs a basic structural check of an email address.
func ValidateEmail(email string) error {
	if email == "" {
		return ErrEmptyEmail
	}
	if utf8.RuneCountInString(email) > maxEmailLength {
		return ErrEmailTooLong
	}
	if !validateEmailFormat(email) {
		return ErrInvalidEmail
	}
	return nil
}

// ValidatePassword enforces length bounds on a plaintext password.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > MaxPasswordLength {
		return ErrPasswordTooLong
	}
	return nil
}

// validateEmailFormat requires a single '@' with a dotted domain after it.
func validateEmailFormat(email string) bool {
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 || strings.Count(email, "@") != 1 {
		return false
	}

	domainPart := email[at+1:]
	if len(domainPart) < 3 { // minimum would be "a.b"
		return false
	}

	dot := strings.IndexByte(domainPart, '.')
	return dot > 0 && !strings.HasSuffix(domainPart, ".")
}

// VerificationCodeValid reports whether code matches the pending email
// verification code and has not expired at now.
func (u *User) VerificationCodeValid(code string, now time.Time) bool {
	if u.VerificationCode == nil || u.VerificationExpires == nil {
		return false
	}
	return *u.VerificationCode == code && now.Before(*u.VerificationExpires)
}

// ResetTokenValid reports whether the pending password reset token is still usable at now.
func (u *User) ResetTokenValid(now time.Time) bool {
	return u.PasswordResetToken != nil &&
		u.PasswordResetExpires != nil &&
		now.Before(*u.PasswordResetExpires)
}
